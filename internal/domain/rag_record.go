package domain

import "time"

// RAGRecord is a historical classified receipt retained as retrieval history.
// New receipts are matched against these records before falling back to a
// fresh AI estimate.
type RAGRecord struct {
	ID              string          `json:"id" db:"id"`
	Document        string          `json:"document" db:"document"`
	StoreName       string          `json:"store_name" db:"store_name"`
	ItemDescription string          `json:"item_description" db:"item_description"`
	Description     string          `json:"description" db:"description"`
	Category        AccountCategory `json:"category" db:"category"`
	TotalAmount     int64           `json:"total_amount" db:"total_amount"`
	IssueDate       *time.Time      `json:"issue_date" db:"issue_date"`
	Verified        bool            `json:"verified" db:"verified"`
	SourceReceiptID string          `json:"source_receipt_id" db:"source_receipt_id"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at" db:"updated_at"`
}

// ReceiptQuery is the text extracted from an incoming receipt, used both for
// similarity retrieval and as material for a new RAGRecord.
type ReceiptQuery struct {
	StoreName       string `json:"store_name"`
	ItemDescription string `json:"item_description"`
	Description     string `json:"description"`
}

// CategoryEstimate is the result of an estimation pass, either retrieved from
// history or produced by an AI/rule estimator.
type CategoryEstimate struct {
	Category   AccountCategory `json:"category"`
	Subject    string          `json:"subject"`
	Confidence float64         `json:"confidence"`
}

// ClassificationSource tells the caller which path produced the result.
type ClassificationSource string

const (
	SourceRAG ClassificationSource = "rag"
	SourceAI  ClassificationSource = "ai"
)

// Classification is the final answer for a receipt: the chosen estimate plus
// which path produced it and, for RAG hits, what it matched.
type Classification struct {
	Category     AccountCategory      `json:"category"`
	Subject      string               `json:"subject"`
	Confidence   float64              `json:"confidence"`
	Source       ClassificationSource `json:"source"`
	MatchedStore string               `json:"matched_store,omitempty"`
	MatchedItem  string               `json:"matched_item,omitempty"`
}

// RAGStats summarizes the retrieval history for the admin dashboard.
type RAGStats struct {
	Total      int `json:"total"`
	Verified   int `json:"verified"`
	Unverified int `json:"unverified"`
	StoreCount int `json:"store_count"`
}
