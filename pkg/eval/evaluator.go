// Package eval measures how often ranked predictions can be explained.
//
// Two inputs are joined:
//   - a predictions table, one row per entity: key<TAB>item_0<TAB>item_1...
//   - an annotation table, one row per item: item:yes or item:no
//
// For every rank depth a in [0, max_at) the evaluator counts the entities
// that have at least a+1 predictions, and among them the ones whose item at
// rank a contains an item annotated "yes". Running sums over the depths turn
// these into "within the top a+1" counts, and their ratio is the cumulative
// explainability curve.
//
// Example usage:
//
//	ev := eval.NewEvaluator(eval.Options{
//	    PredictionsPath: "explanations.tsv",
//	    AnnotationsPath: "explainable_predicate.txt",
//	    MaxAt:           10,
//	})
//
//	result, err := ev.Run(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	eval.NewReporter(os.Stdout).PrintVector(result)
package eval

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Options configures an Evaluator.
type Options struct {
	// PredictionsPath is the tab-separated predictions table.
	PredictionsPath string

	// AnnotationsPath is the colon-separated annotation table.
	AnnotationsPath string

	// MaxAt is the number of rank depths to evaluate. Must be >= 1.
	MaxAt int

	// Logger receives progress messages. Nil disables logging.
	Logger *zap.Logger
}

// EvalResult contains the complete evaluation results.
type EvalResult struct {
	PredictionsPath string        `json:"predictions_path"`
	AnnotationsPath string        `json:"annotations_path"`
	Timestamp       time.Time     `json:"timestamp"`
	Duration        time.Duration `json:"duration"`

	// Input statistics
	Entities           int `json:"entities"`
	ExplainableItems   int `json:"explainable_items"`
	UnexplainableItems int `json:"unexplainable_items"`

	Curve  *Curve  `json:"curve"`
	Ratios []Ratio `json:"ratios"`
}

// Evaluator loads the two input tables and aggregates them.
type Evaluator struct {
	opts   Options
	logger *zap.Logger
}

// NewEvaluator creates a new evaluator.
func NewEvaluator(opts Options) *Evaluator {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Evaluator{opts: opts, logger: logger}
}

// Run loads both inputs and computes the curve.
//
// Both tables are read in full before aggregation starts. Any load error
// aborts the run; no partial result is returned.
func (e *Evaluator) Run(ctx context.Context) (*EvalResult, error) {
	if e.opts.MaxAt < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidDepth, e.opts.MaxAt)
	}

	startTime := time.Now()

	preds, err := LoadPredictions(e.opts.PredictionsPath)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("loaded predictions",
		zap.String("path", e.opts.PredictionsPath),
		zap.Int("entities", len(preds)))

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ann, err := LoadAnnotations(e.opts.AnnotationsPath)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("loaded annotations",
		zap.String("path", e.opts.AnnotationsPath),
		zap.Int("explainable", len(ann.Explainable)),
		zap.Int("unexplainable", len(ann.Unexplainable)))

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	curve, err := Aggregate(preds, ann.Explainable, e.opts.MaxAt)
	if err != nil {
		return nil, err
	}

	result := &EvalResult{
		PredictionsPath:    e.opts.PredictionsPath,
		AnnotationsPath:    e.opts.AnnotationsPath,
		Timestamp:          startTime,
		Duration:           time.Since(startTime),
		Entities:           len(preds),
		ExplainableItems:   len(ann.Explainable),
		UnexplainableItems: len(ann.Unexplainable),
		Curve:              curve,
		Ratios:             curve.Ratios(),
	}

	for a, r := range result.Ratios {
		if !r.Defined() {
			e.logger.Warn("no entity reaches rank depth, ratio undefined", zap.Int("depth", a+1))
		}
	}
	e.logger.Debug("evaluation finished", zap.Duration("duration", result.Duration))

	return result, nil
}
