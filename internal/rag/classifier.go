package rag

import (
	"context"
	"strings"

	"github.com/effectmoe/ai-accounting-system-sub019/internal/domain"
	"github.com/effectmoe/ai-accounting-system-sub019/internal/pkg/logger"
)

// SimilarityThreshold is the confidence bar a retrieved record must clear
// (strictly) before it is trusted over a fresh AI estimate. This is the one
// tunable correctness knob of the classifier; 0.85 is carried over from the
// original product configuration.
const SimilarityThreshold = 0.85

// DefaultCandidateLimit bounds the number of history records scored per query.
const DefaultCandidateLimit = 200

// Classifier decides between a retrieved historical classification and an AI
// estimate for an incoming receipt.
type Classifier struct {
	repo      Repository
	scorer    Scorer
	threshold float64
	limit     int
}

// ClassifierOption customizes a Classifier.
type ClassifierOption func(*Classifier)

// WithThreshold overrides the similarity threshold (product-configured).
func WithThreshold(t float64) ClassifierOption {
	return func(c *Classifier) {
		if t > 0 && t < 1 {
			c.threshold = t
		}
	}
}

// WithCandidateLimit overrides the candidate pre-filter bound.
func WithCandidateLimit(n int) ClassifierOption {
	return func(c *Classifier) {
		if n > 0 {
			c.limit = n
		}
	}
}

// NewClassifier creates a classifier backed by the given history repository
// and scoring strategy.
func NewClassifier(repo Repository, scorer Scorer, opts ...ClassifierOption) *Classifier {
	c := &Classifier{
		repo:      repo,
		scorer:    scorer,
		threshold: SimilarityThreshold,
		limit:     DefaultCandidateLimit,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify retrieves similar historical receipts and returns the best match
// if its similarity strictly exceeds the threshold; otherwise it returns the
// AI estimate verbatim. A store failure is treated the same as an empty
// history: the AI estimate wins and no error is surfaced.
func (c *Classifier) Classify(ctx context.Context, query domain.ReceiptQuery, aiEstimate domain.CategoryEstimate) (*domain.Classification, error) {
	if strings.TrimSpace(query.StoreName) == "" &&
		strings.TrimSpace(query.ItemDescription) == "" &&
		strings.TrimSpace(query.Description) == "" {
		return nil, &ValidationError{Field: "store_name", Message: "at least one text field is required"}
	}

	candidates, err := c.repo.SearchCandidates(ctx, query, c.limit)
	if err != nil {
		logger.Warn("candidate search failed, falling back to AI estimate", "error", err)
		return aiResult(aiEstimate), nil
	}

	var best *domain.RAGRecord
	bestScore := -1.0
	for i := range candidates {
		cand := domain.ReceiptQuery{
			StoreName:       candidates[i].StoreName,
			ItemDescription: candidates[i].ItemDescription,
			Description:     candidates[i].Description,
		}
		if s := c.scorer.Score(query, cand); s > bestScore {
			bestScore = s
			best = &candidates[i]
		}
	}

	// Strictly greater than: a score exactly at the threshold is not trusted.
	if best == nil || bestScore <= c.threshold {
		if best != nil {
			logger.Debug("retrieval below threshold", "similarity", bestScore, "threshold", c.threshold)
		}
		return aiResult(aiEstimate), nil
	}

	subject := best.Description
	if subject == "" {
		subject = aiEstimate.Subject
	}
	logger.Info("retrieval match",
		"matched_store", best.StoreName,
		"similarity", bestScore,
		"category", best.Category,
	)
	return &domain.Classification{
		Category:     best.Category,
		Subject:      subject,
		Confidence:   bestScore,
		Source:       domain.SourceRAG,
		MatchedStore: best.StoreName,
		MatchedItem:  best.ItemDescription,
	}, nil
}

func aiResult(est domain.CategoryEstimate) *domain.Classification {
	return &domain.Classification{
		Category:   est.Category,
		Subject:    est.Subject,
		Confidence: est.Confidence,
		Source:     domain.SourceAI,
	}
}
