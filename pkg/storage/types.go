package storage

import (
	"errors"
	"time"

	"github.com/orneryd/explaineval/pkg/eval"
)

// Errors
var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidID     = errors.New("invalid id")
	ErrStorageClosed = errors.New("storage closed")
)

// RunRecord is one archived evaluation.
type RunRecord struct {
	// ID is a random UUID assigned when the record is created.
	ID string `json:"id"`

	// Fingerprint identifies the inputs: both tables and max_at.
	Fingerprint string `json:"fingerprint"`

	PredictionsPath string    `json:"predictions_path"`
	AnnotationsPath string    `json:"annotations_path"`
	MaxAt           int       `json:"max_at"`
	Timestamp       time.Time `json:"timestamp"`

	Entities           int `json:"entities"`
	ExplainableItems   int `json:"explainable_items"`
	UnexplainableItems int `json:"unexplainable_items"`

	// Cumulative counts per depth.
	Explainable []int `json:"explainable"`
	Total       []int `json:"total"`
}

// Ratios recomputes the cumulative ratios from the stored counts.
func (r *RunRecord) Ratios() []eval.Ratio {
	c := eval.Curve{MaxAt: r.MaxAt, Explainable: r.Explainable, Total: r.Total}
	return c.Ratios()
}
