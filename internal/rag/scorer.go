package rag

import (
	"strings"

	"github.com/effectmoe/ai-accounting-system-sub019/internal/domain"
)

// Scorer computes a textual closeness score in [0,1] between an incoming
// receipt and a historical record. Implementations must be deterministic and
// side-effect free; identical inputs must score 1.0 and disjoint inputs near
// 0.0. The concrete formula is a replaceable strategy.
type Scorer interface {
	Score(query, candidate domain.ReceiptQuery) float64
}

// Field weights for WeightedJaccardScorer. The store name is the strongest
// signal; the memo (但し書き) the weakest. Weights are renormalized over the
// fields actually present in the query, so an empty store name degrades to
// scoring on the remaining fields instead of zeroing the result.
const (
	storeNameWeight = 0.5
	itemWeight      = 0.3
	memoWeight      = 0.2
)

// WeightedJaccardScorer scores each text field with a character-bigram
// Jaccard coefficient and combines them by weight.
type WeightedJaccardScorer struct{}

// NewScorer returns the default scorer.
func NewScorer() *WeightedJaccardScorer { return &WeightedJaccardScorer{} }

// Score implements Scorer.
func (s *WeightedJaccardScorer) Score(query, candidate domain.ReceiptQuery) float64 {
	type field struct {
		q, c   string
		weight float64
	}
	fields := []field{
		{query.StoreName, candidate.StoreName, storeNameWeight},
		{query.ItemDescription, candidate.ItemDescription, itemWeight},
		{query.Description, candidate.Description, memoWeight},
	}

	var sum, totalWeight float64
	for _, f := range fields {
		q := normalize(f.q)
		if q == "" {
			continue
		}
		totalWeight += f.weight
		sum += f.weight * textSimilarity(q, normalize(f.c))
	}
	if totalWeight == 0 {
		return 0
	}
	return sum / totalWeight
}

func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// textSimilarity is a character-bigram Jaccard coefficient. Bigrams rather
// than single characters keep "セブンイレブン" and "ローソン" far apart even
// though Japanese store names share syllabary characters.
func textSimilarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	if a == "" || b == "" {
		return 0
	}

	ga := bigrams(a)
	gb := bigrams(b)
	if len(ga) == 0 || len(gb) == 0 {
		return 0
	}

	inter := 0
	for g := range ga {
		if _, ok := gb[g]; ok {
			inter++
		}
	}
	union := len(ga) + len(gb) - inter
	return float64(inter) / float64(union)
}

// bigrams returns the set of rune bigrams in s. A single-rune string yields
// that rune as its only gram so short names still compare.
func bigrams(s string) map[string]struct{} {
	runes := []rune(s)
	set := make(map[string]struct{})
	if len(runes) == 1 {
		set[string(runes)] = struct{}{}
		return set
	}
	for i := 0; i+1 < len(runes); i++ {
		set[string(runes[i:i+2])] = struct{}{}
	}
	return set
}
