package eval

import (
	"math"
	"strconv"
	"strings"
)

// Curve holds the per-depth counts of an explainability evaluation.
//
// Index a covers rank depth a+1. The Raw slices count entities whose item at
// exactly rank a was evaluated; Explainable and Total are their running sums,
// so they count entities evaluated within the top a+1 ranks.
type Curve struct {
	MaxAt          int   `json:"max_at"`
	RawExplainable []int `json:"raw_explainable"`
	RawTotal       []int `json:"raw_total"`
	Explainable    []int `json:"explainable"`
	Total          []int `json:"total"`
}

// Ratios returns Explainable[a] / Total[a] for every depth.
// A depth with no evaluated entities yields NaN.
func (c *Curve) Ratios() []Ratio {
	out := make([]Ratio, c.MaxAt)
	for a := range out {
		out[a] = Ratio(float64(c.Explainable[a]) / float64(c.Total[a]))
	}
	return out
}

// Ratio is a cumulative explainable fraction. NaN marks an undefined depth.
type Ratio float64

// Defined reports whether the ratio has a value.
func (r Ratio) Defined() bool { return !math.IsNaN(float64(r)) }

// String formats the ratio in its shortest exact decimal form, or "nan".
func (r Ratio) String() string {
	if !r.Defined() {
		return "nan"
	}
	return strconv.FormatFloat(float64(r), 'f', -1, 64)
}

// MarshalJSON encodes an undefined ratio as null.
func (r Ratio) MarshalJSON() ([]byte, error) {
	if !r.Defined() {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(float64(r), 'f', -1, 64)), nil
}

// Aggregate computes the explainability curve of preds up to depth maxAt.
//
// For every entity and every rank a < maxAt the item at rank a is tested
// with IsExplainable. Entities with fewer than a+1 items are skipped at
// that rank and count toward neither total. Entity order does not affect
// the result.
func Aggregate(preds Predictions, explainable Set, maxAt int) (*Curve, error) {
	if maxAt < 1 {
		return nil, ErrInvalidDepth
	}

	c := &Curve{
		MaxAt:          maxAt,
		RawExplainable: make([]int, maxAt),
		RawTotal:       make([]int, maxAt),
	}

	for _, items := range preds {
		accumulate(c, items, explainable)
	}

	c.Explainable = cumsum(c.RawExplainable)
	c.Total = cumsum(c.RawTotal)
	return c, nil
}

// accumulate adds one entity's ranked items to the raw counters.
func accumulate(c *Curve, items []string, explainable Set) {
	for a := 0; a < c.MaxAt && a < len(items); a++ {
		c.RawTotal[a]++
		if IsExplainable(items[a], explainable) {
			c.RawExplainable[a]++
		}
	}
}

// IsExplainable reports whether item contains any member of explainable as
// a substring.
//
// Containment, not equality, is the historical behavior: "PINEAPPLE" is
// explainable when "APPLE" is. The test is case-sensitive; annotated items
// are already uppercased, predicted items are used as given.
func IsExplainable(item string, explainable Set) bool {
	for candidate := range explainable {
		if strings.Contains(item, candidate) {
			return true
		}
	}
	return false
}

func cumsum(raw []int) []int {
	out := make([]int, len(raw))
	running := 0
	for i, v := range raw {
		running += v
		out[i] = running
	}
	return out
}
