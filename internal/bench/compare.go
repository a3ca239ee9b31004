package bench

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"text/tabwriter"
	"time"
)

// PassComparison compares one pass between two results.
type PassComparison struct {
	Name          string  `json:"name"`
	LatestMeanMs  float64 `json:"latest_mean_ms"`
	TargetMeanMs  float64 `json:"target_mean_ms"`
	MeanChangePct float64 `json:"mean_change_pct"`
}

// Comparison is the latest result set against an earlier one.
type Comparison struct {
	LatestID        string           `json:"latest_id"`
	TargetID        string           `json:"target_id"`
	TargetTS        time.Time        `json:"target_ts"`
	Passes          []PassComparison `json:"passes"`
	WorstRegression float64          `json:"worst_regression"`
}

// LoadHistory reads every result from a JSONL file written by AppendJSONL.
// A missing file is an empty history.
func LoadHistory(path string) ([]Result, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("read history file: %w", err)
	}

	var history []Result

	for line := range strings.SplitSeq(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		var r Result

		err := json.Unmarshal([]byte(line), &r)
		if err != nil {
			return nil, fmt.Errorf("parsing history line: %w", err)
		}

		history = append(history, r)
	}

	return history, nil
}

// Compare lines up the passes of latest and target by name, averaging
// repeats.
func Compare(latest, target *Result) Comparison {
	c := Comparison{
		LatestID: latest.RunID,
		TargetID: target.RunID,
		TargetTS: target.Timestamp,
	}

	latestMeans, order := meanDurations(latest.Passes)
	targetMeans, _ := meanDurations(target.Passes)

	for _, name := range order {
		pc := PassComparison{
			Name:         name,
			LatestMeanMs: latestMeans[name],
			TargetMeanMs: targetMeans[name],
		}
		pc.MeanChangePct = pctChange(pc.LatestMeanMs, pc.TargetMeanMs)

		if pc.MeanChangePct > c.WorstRegression {
			c.WorstRegression = pc.MeanChangePct
		}

		c.Passes = append(c.Passes, pc)
	}

	return c
}

func meanDurations(passes []PassResult) (map[string]float64, []string) {
	sums := make(map[string]time.Duration)
	counts := make(map[string]int)

	var order []string

	for _, p := range passes {
		if _, ok := counts[p.Name]; !ok {
			order = append(order, p.Name)
		}

		sums[p.Name] += p.Duration
		counts[p.Name]++
	}

	means := make(map[string]float64, len(sums))
	for name, sum := range sums {
		means[name] = float64(sum.Microseconds()) / 1000 / float64(counts[name])
	}

	return means, order
}

// PrintComparison writes c as a table.
func PrintComparison(out io.Writer, c *Comparison) error {
	fmt.Fprintf(out, "Latest:  %s\n", c.LatestID)
	fmt.Fprintf(out, "Target:  %s (%s)\n\n", c.TargetID, c.TargetTS.Format(time.RFC3339))

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprint(w, "Pass\tMean(ms)\tBase(ms)\tΔ%\n")
	fmt.Fprint(w, "----\t--------\t--------\t--\n")

	for _, p := range c.Passes {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			p.Name,
			fmtMs(p.LatestMeanMs),
			fmtMs(p.TargetMeanMs),
			fmtPct(p.MeanChangePct),
		)
	}

	err := w.Flush()
	if err != nil {
		return fmt.Errorf("flush output: %w", err)
	}

	fmt.Fprintln(out, "\nΔ% = mean change from target (positive = slower/regression)")

	return nil
}

func pctChange(newValue, oldValue float64) float64 {
	if oldValue == 0 {
		return 0
	}

	return (newValue - oldValue) / oldValue * 100
}

func fmtMs(v float64) string {
	if v == 0 {
		return "N/A"
	}

	return fmt.Sprintf("%.2f", v)
}

func fmtPct(v float64) string {
	if v > 0 {
		return fmt.Sprintf("+%.1f%%", v)
	}

	return fmt.Sprintf("%.1f%%", v)
}
