package rag_test

import (
	"testing"

	"github.com/effectmoe/ai-accounting-system-sub019/internal/domain"
	"github.com/effectmoe/ai-accounting-system-sub019/internal/rag"
	"github.com/stretchr/testify/assert"
)

func TestScorer_IdenticalInputsScoreOne(t *testing.T) {
	s := rag.NewScorer()
	q := domain.ReceiptQuery{
		StoreName:       "セブンイレブン",
		ItemDescription: "おにぎり",
		Description:     "会議用軽食",
	}
	assert.Equal(t, 1.0, s.Score(q, q))
}

func TestScorer_DisjointInputsScoreNearZero(t *testing.T) {
	s := rag.NewScorer()
	q := domain.ReceiptQuery{
		StoreName:       "セブンイレブン",
		ItemDescription: "おにぎり",
		Description:     "会議用軽食",
	}
	c := domain.ReceiptQuery{
		StoreName:       "ENEOS",
		ItemDescription: "gasoline",
		Description:     "fuel for truck",
	}
	assert.Less(t, s.Score(q, c), 0.1)
}

func TestScorer_EmptyStoreNameFallsBackToOtherFields(t *testing.T) {
	s := rag.NewScorer()
	q := domain.ReceiptQuery{
		ItemDescription: "おにぎり",
		Description:     "会議用軽食",
	}
	c := domain.ReceiptQuery{
		StoreName:       "セブンイレブン",
		ItemDescription: "おにぎり",
		Description:     "会議用軽食",
	}
	// The store name carries no signal but the remaining fields match exactly.
	assert.Equal(t, 1.0, s.Score(q, c))
}

func TestScorer_AllEmptyScoresZero(t *testing.T) {
	s := rag.NewScorer()
	assert.Equal(t, 0.0, s.Score(domain.ReceiptQuery{}, domain.ReceiptQuery{}))
}

func TestScorer_RangeAndDeterminism(t *testing.T) {
	s := rag.NewScorer()
	q := domain.ReceiptQuery{StoreName: "ファミリーマート", ItemDescription: "コーヒー"}
	c := domain.ReceiptQuery{StoreName: "ファミマ", ItemDescription: "カフェラテ"}

	first := s.Score(q, c)
	assert.GreaterOrEqual(t, first, 0.0)
	assert.LessOrEqual(t, first, 1.0)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, s.Score(q, c))
	}
}

func TestScorer_CloserTextScoresHigher(t *testing.T) {
	s := rag.NewScorer()
	q := domain.ReceiptQuery{StoreName: "タイムズ駐車場"}
	near := domain.ReceiptQuery{StoreName: "タイムズ駐車場 博多"}
	far := domain.ReceiptQuery{StoreName: "紀伊國屋書店"}

	assert.Greater(t, s.Score(q, near), s.Score(q, far))
}
