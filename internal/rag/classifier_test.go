package rag_test

import (
	"context"
	"errors"
	"testing"

	"github.com/effectmoe/ai-accounting-system-sub019/internal/domain"
	"github.com/effectmoe/ai-accounting-system-sub019/internal/rag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedScorer returns a canned score per candidate store name, letting tests
// pin similarities exactly at or around the threshold.
type fixedScorer struct {
	scores map[string]float64
}

func (f *fixedScorer) Score(_, candidate domain.ReceiptQuery) float64 {
	return f.scores[candidate.StoreName]
}

var aiEstimate = domain.CategoryEstimate{
	Category:   domain.CategorySupplies,
	Subject:    "事務用品の購入",
	Confidence: 0.6,
}

func seedRecord(t *testing.T, repo *memRepo, store string, category domain.AccountCategory, memo string) {
	t.Helper()
	_, err := repo.Create(context.Background(), &domain.RAGRecord{
		StoreName:   store,
		Description: memo,
		Category:    category,
		Verified:    true,
	})
	require.NoError(t, err)
}

func TestClassifier_ThresholdIsStrict(t *testing.T) {
	repo := newMemRepo()
	seedRecord(t, repo, "ヨドバシカメラ", domain.CategoryEquipment, "モニター購入")

	query := domain.ReceiptQuery{StoreName: "ヨドバシ"}

	t.Run("exactly at threshold falls back to AI", func(t *testing.T) {
		c := rag.NewClassifier(repo, &fixedScorer{scores: map[string]float64{"ヨドバシカメラ": 0.85}})
		got, err := c.Classify(context.Background(), query, aiEstimate)
		require.NoError(t, err)
		assert.Equal(t, domain.SourceAI, got.Source)
		assert.Equal(t, aiEstimate.Category, got.Category)
	})

	t.Run("just above threshold uses retrieval", func(t *testing.T) {
		c := rag.NewClassifier(repo, &fixedScorer{scores: map[string]float64{"ヨドバシカメラ": 0.850001}})
		got, err := c.Classify(context.Background(), query, aiEstimate)
		require.NoError(t, err)
		assert.Equal(t, domain.SourceRAG, got.Source)
		assert.Equal(t, domain.CategoryEquipment, got.Category)
		assert.Equal(t, "モニター購入", got.Subject)
		assert.InDelta(t, 0.850001, got.Confidence, 1e-9)
	})
}

func TestClassifier_FailsOpenOnStoreError(t *testing.T) {
	repo := newMemRepo()
	repo.searchErr = errors.New("connection refused")

	c := rag.NewClassifier(repo, rag.NewScorer())
	got, err := c.Classify(context.Background(), domain.ReceiptQuery{StoreName: "セブンイレブン"}, aiEstimate)
	require.NoError(t, err, "store failure must not surface to the caller")
	assert.Equal(t, domain.SourceAI, got.Source)
	assert.Equal(t, aiEstimate.Category, got.Category)
	assert.Equal(t, aiEstimate.Subject, got.Subject)
	assert.Equal(t, aiEstimate.Confidence, got.Confidence)
}

func TestClassifier_EmptyHistoryFallsBack(t *testing.T) {
	c := rag.NewClassifier(newMemRepo(), rag.NewScorer())
	got, err := c.Classify(context.Background(), domain.ReceiptQuery{StoreName: "セブンイレブン"}, aiEstimate)
	require.NoError(t, err)
	assert.Equal(t, domain.SourceAI, got.Source)
}

func TestClassifier_PicksBestCandidate(t *testing.T) {
	repo := newMemRepo()
	seedRecord(t, repo, "A社", domain.CategoryMisc, "memo-a")
	seedRecord(t, repo, "B社", domain.CategoryMeetings, "memo-b")
	seedRecord(t, repo, "C社", domain.CategoryTravel, "memo-c")

	c := rag.NewClassifier(repo, &fixedScorer{scores: map[string]float64{
		"A社": 0.40,
		"B社": 0.95,
		"C社": 0.90,
	}})
	got, err := c.Classify(context.Background(), domain.ReceiptQuery{StoreName: "B"}, aiEstimate)
	require.NoError(t, err)
	assert.Equal(t, domain.SourceRAG, got.Source)
	assert.Equal(t, domain.CategoryMeetings, got.Category)
	assert.Equal(t, "B社", got.MatchedStore)
}

func TestClassifier_EmptySubjectFallsBackToEstimateSubject(t *testing.T) {
	repo := newMemRepo()
	seedRecord(t, repo, "ヤマト運輸", domain.CategoryComms, "")

	c := rag.NewClassifier(repo, &fixedScorer{scores: map[string]float64{"ヤマト運輸": 0.99}})
	got, err := c.Classify(context.Background(), domain.ReceiptQuery{StoreName: "ヤマト"}, aiEstimate)
	require.NoError(t, err)
	assert.Equal(t, domain.SourceRAG, got.Source)
	assert.Equal(t, aiEstimate.Subject, got.Subject)
}

func TestClassifier_ValidationError(t *testing.T) {
	c := rag.NewClassifier(newMemRepo(), rag.NewScorer())
	_, err := c.Classify(context.Background(), domain.ReceiptQuery{}, aiEstimate)
	var verr *rag.ValidationError
	assert.ErrorAs(t, err, &verr)
}

// End-to-end: identical receipt text against a verified historical record
// must come back as a retrieval hit with the historical category.
func TestClassifier_EndToEndScenario(t *testing.T) {
	repo := newMemRepo()
	_, err := repo.Create(context.Background(), &domain.RAGRecord{
		StoreName:       "セブンイレブン",
		ItemDescription: "おにぎり",
		Description:     "会議用軽食",
		Category:        domain.CategoryMeetings,
		Verified:        true,
	})
	require.NoError(t, err)

	c := rag.NewClassifier(repo, rag.NewScorer())
	got, err := c.Classify(context.Background(), domain.ReceiptQuery{
		StoreName:       "セブンイレブン",
		ItemDescription: "おにぎり",
		Description:     "会議用軽食",
	}, aiEstimate)
	require.NoError(t, err)

	assert.Equal(t, domain.SourceRAG, got.Source)
	assert.Equal(t, domain.CategoryMeetings, got.Category)
	assert.Equal(t, "会議用軽食", got.Subject)
	assert.Greater(t, got.Confidence, 0.85)
}
