package eval

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	// PredictionDelimiter separates the key and the ranked items of a prediction row.
	PredictionDelimiter = "\t"

	// AnnotationDelimiter separates the item and the label of an annotation row.
	AnnotationDelimiter = ":"

	// Annotation labels, compared after lowercasing.
	LabelYes = "yes"
	LabelNo  = "no"

	// maxRowBytes bounds a single input line; prediction rows can be long.
	maxRowBytes = 16 << 20
)

// Predictions maps an entity key to its ranked predicted items.
// Index 0 is the best-ranked item.
//
// A key that appears on more than one row keeps the items of the last row.
type Predictions map[string][]string

// Set is a set of item identifiers.
type Set map[string]struct{}

// Add inserts item into the set.
func (s Set) Add(item string) { s[item] = struct{}{} }

// Has reports whether item is a member of the set.
func (s Set) Has(item string) bool {
	_, ok := s[item]
	return ok
}

// Sorted returns the members in lexical order.
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for item := range s {
		out = append(out, item)
	}
	sort.Strings(out)
	return out
}

// Annotations holds the annotated items split by label.
// Items are stored uppercased.
type Annotations struct {
	// Explainable contains items labelled "yes". Only this set takes part
	// in the aggregation.
	Explainable Set

	// Unexplainable contains items labelled "no".
	Unexplainable Set
}

// NewAnnotations returns empty annotation sets.
func NewAnnotations() *Annotations {
	return &Annotations{
		Explainable:   make(Set),
		Unexplainable: make(Set),
	}
}

// LoadPredictions reads a tab-separated predictions table from path.
func LoadPredictions(path string) (Predictions, error) {
	f, err := openInput(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	preds, err := readPredictions(f, path)
	if err != nil {
		return nil, fmt.Errorf("failed to load predictions: %w", err)
	}
	return preds, nil
}

// LoadAnnotations reads a colon-separated annotation table from path.
func LoadAnnotations(path string) (*Annotations, error) {
	f, err := openInput(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	ann, err := readAnnotations(f, path)
	if err != nil {
		return nil, fmt.Errorf("failed to load annotations: %w", err)
	}
	return ann, nil
}

// ReadPredictions parses a predictions table.
//
// Each row is key<TAB>item_0<TAB>item_1... An empty line is a row with no
// fields and fails with ErrMalformedRow. A key with no items is kept with
// an empty list.
func ReadPredictions(r io.Reader) (Predictions, error) {
	return readPredictions(r, "")
}

// ReadAnnotations parses an annotation table.
//
// Each row is item:label. The label is lowercased and must be "yes" or
// "no"; the item is uppercased before it is stored. Fields past the second
// are ignored.
func ReadAnnotations(r io.Reader) (*Annotations, error) {
	return readAnnotations(r, "")
}

func readPredictions(r io.Reader, path string) (Predictions, error) {
	preds := make(Predictions)
	err := scanRows(r, path, PredictionDelimiter, func(fields []string) error {
		if len(fields) == 0 {
			return fmt.Errorf("%w: prediction row has no fields", ErrMalformedRow)
		}
		preds[fields[0]] = fields[1:]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return preds, nil
}

func readAnnotations(r io.Reader, path string) (*Annotations, error) {
	ann := NewAnnotations()
	upper := cases.Upper(language.Und)
	lower := cases.Lower(language.Und)

	err := scanRows(r, path, AnnotationDelimiter, func(fields []string) error {
		if len(fields) < 2 {
			return fmt.Errorf("%w: annotation row needs item and label, got %d field(s)", ErrMalformedRow, len(fields))
		}
		item := upper.String(fields[0])
		switch label := lower.String(fields[1]); label {
		case LabelYes:
			ann.Explainable.Add(item)
		case LabelNo:
			ann.Unexplainable.Add(item)
		default:
			return fmt.Errorf("%w: %q", ErrUnrecognizedLabel, fields[1])
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ann, nil
}

// scanRows splits every line of r on delim and hands the fields to fn.
// Errors from fn are wrapped in a RowError.
func scanRows(r io.Reader, path, delim string, fn func(fields []string) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxRowBytes)

	line := 0
	for scanner.Scan() {
		line++
		text := scanner.Text()

		var fields []string
		if text != "" {
			fields = strings.Split(text, delim)
		}
		if err := fn(fields); err != nil {
			return &RowError{Path: path, Line: line, Err: err}
		}
	}
	if err := scanner.Err(); err != nil {
		if path != "" {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		return fmt.Errorf("failed to read input: %w", err)
	}
	return nil
}

func openInput(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInputNotFound, path, err)
	}
	if info, err := f.Stat(); err != nil || info.IsDir() {
		f.Close()
		return nil, fmt.Errorf("%w: %s: not a readable file", ErrInputNotFound, path)
	}
	return f, nil
}
