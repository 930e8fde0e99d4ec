package eval

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Reporter formats and outputs evaluation results.
type Reporter struct {
	writer io.Writer
}

// NewReporter creates a new reporter that writes to the given writer.
func NewReporter(w io.Writer) *Reporter {
	if w == nil {
		w = os.Stdout
	}
	return &Reporter{writer: w}
}

// FormatVector renders ratios as a bracketed, space-separated vector.
func FormatVector(ratios []Ratio) string {
	parts := make([]string, len(ratios))
	for i, r := range ratios {
		parts[i] = r.String()
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// PrintVector prints the single-line cumulative ratio vector.
func (r *Reporter) PrintVector(result *EvalResult) {
	fmt.Fprintf(r.writer, "Explainable at : %s\n", FormatVector(result.Ratios))
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	boxStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1).Align(lipgloss.Right)
)

// PrintSummary prints a boxed per-depth table of the curve.
func (r *Reporter) PrintSummary(result *EvalResult) {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render("Explainability Evaluation"))
	sb.WriteString("\n\n")
	fmt.Fprintf(&sb, "Predictions: %s\n", result.PredictionsPath)
	fmt.Fprintf(&sb, "Annotations: %s\n", result.AnnotationsPath)
	fmt.Fprintf(&sb, "Time:        %s\n", result.Timestamp.Format(time.RFC3339))
	fmt.Fprintf(&sb, "Duration:    %v\n", result.Duration.Round(time.Millisecond))
	fmt.Fprintf(&sb, "Entities:    %d\n", result.Entities)
	fmt.Fprintf(&sb, "Labels:      %d yes / %d no\n", result.ExplainableItems, result.UnexplainableItems)
	sb.WriteString("\n")

	headers := []string{"@", "explainable", "total", "ratio", ""}
	rows := make([][]string, 0, len(result.Ratios))
	for a, ratio := range result.Ratios {
		rows = append(rows, []string{
			strconv.Itoa(a + 1),
			strconv.Itoa(result.Curve.Explainable[a]),
			strconv.Itoa(result.Curve.Total[a]),
			formatRatio(ratio),
			progressBar(ratio, 20),
		})
	}
	sb.WriteString(renderTable(headers, rows))

	fmt.Fprintln(r.writer, boxStyle.Render(strings.TrimRight(sb.String(), "\n")))
}

// renderTable lays out rows in columns sized to their widest cell.
func renderTable(headers []string, rows [][]string) string {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if w := lipgloss.Width(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}
	// lipgloss widths include padding
	for i := range widths {
		widths[i] += 2
	}

	var sb strings.Builder
	for i, h := range headers {
		sb.WriteString(headerStyle.Width(widths[i]).Render(h))
	}
	sb.WriteString("\n")
	for _, row := range rows {
		for i, cell := range row {
			sb.WriteString(cellStyle.Width(widths[i]).Render(cell))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func formatRatio(r Ratio) string {
	if !r.Defined() {
		return "nan"
	}
	return fmt.Sprintf("%.3f", float64(r))
}

// progressBar creates a visual progress bar.
func progressBar(r Ratio, width int) string {
	filled := 0
	if r.Defined() {
		filled = int(float64(r) * float64(width))
	}
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return "[" + strings.Repeat("█", filled) + strings.Repeat("░", width-filled) + "]"
}

// PrintCompact prints a one-line summary.
func (r *Reporter) PrintCompact(result *EvalResult) {
	last := Ratio(0)
	if n := len(result.Ratios); n > 0 {
		last = result.Ratios[n-1]
	}
	fmt.Fprintf(r.writer, "[explainable] entities=%d yes=%d @%d=%s | %v\n",
		result.Entities,
		result.ExplainableItems,
		len(result.Ratios),
		last,
		result.Duration.Round(time.Millisecond),
	)
}

// PrintJSON outputs results as JSON.
func (r *Reporter) PrintJSON(result *EvalResult) error {
	encoder := json.NewEncoder(r.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

// SaveJSON saves results to a JSON file.
func (r *Reporter) SaveJSON(result *EvalResult, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}
