package compare

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v2"

	"grimm.is/palisade/internal/config"
	"grimm.is/palisade/internal/tui"
)

// FileName is the report file name for a run started at t.
func FileName(t time.Time, format string) string {
	ext := ".txt"
	if format == config.FormatYAML {
		ext = ".yaml"
	}
	return "FirewallTest_" + t.Format("20060102_150405") + ext
}

// Text renders the full human-readable report.
func (r *Report) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Firewall backend comparison\n")
	fmt.Fprintf(&b, "Run:      %s\n", r.RunID)
	fmt.Fprintf(&b, "Started:  %s\n", r.Started.Format(time.RFC3339))
	fmt.Fprintf(&b, "Finished: %s\n", r.Finished.Format(time.RFC3339))

	for _, br := range r.Backends {
		fmt.Fprintf(&b, "\n== %s: %d/%d passed ==\n", br.Backend, br.Passed(), len(br.Steps))
		for _, s := range br.Steps {
			mark := "PASS"
			if !s.Passed {
				mark = "FAIL"
			}
			fmt.Fprintf(&b, "[%s] %-36s %10s", mark, s.Name, s.Duration.Round(time.Microsecond))
			if s.Detail != "" {
				fmt.Fprintf(&b, "  %s", s.Detail)
			}
			b.WriteString("\n")
		}

		if len(br.Timings) > 0 {
			b.WriteString("\nTiming:\n")
			for _, t := range br.Timings {
				fmt.Fprintf(&b, "  %-8s %5d calls  total %-12s avg %-12s failures %d\n",
					t.Operation, t.Count, t.Total.Round(time.Microsecond), t.Average().Round(time.Microsecond), t.Failures)
			}
		}

		b.WriteString("\nRound-trip diff:\n")
		if br.Diff == "" {
			b.WriteString("  (no differences)\n")
		} else {
			b.WriteString(br.Diff)
		}
	}

	if len(r.Metrics) > 0 {
		b.WriteString("\n== Metrics ==\n")
		for _, m := range r.Metrics {
			fmt.Fprintf(&b, "%s{%s} %g\n", m.Name, m.Labels, m.Value)
		}
	}
	return b.String()
}

type yamlStep struct {
	Name       string  `yaml:"name"`
	Passed     bool    `yaml:"passed"`
	Detail     string  `yaml:"detail,omitempty"`
	DurationMS float64 `yaml:"duration_ms"`
}

type yamlTiming struct {
	Operation string  `yaml:"operation"`
	Count     int     `yaml:"count"`
	Failures  int     `yaml:"failures"`
	TotalMS   float64 `yaml:"total_ms"`
	AverageMS float64 `yaml:"average_ms"`
}

type yamlBackend struct {
	Backend string       `yaml:"backend"`
	Passed  int          `yaml:"passed"`
	Total   int          `yaml:"total"`
	Steps   []yamlStep   `yaml:"steps"`
	Timings []yamlTiming `yaml:"timings,omitempty"`
	Diff    string       `yaml:"round_trip_diff,omitempty"`
}

type yamlSample struct {
	Name   string  `yaml:"name"`
	Labels string  `yaml:"labels,omitempty"`
	Value  float64 `yaml:"value"`
}

type yamlReport struct {
	RunID    string        `yaml:"run_id"`
	Started  string        `yaml:"started"`
	Finished string        `yaml:"finished"`
	OK       bool          `yaml:"ok"`
	Backends []yamlBackend `yaml:"backends"`
	Metrics  []yamlSample  `yaml:"metrics,omitempty"`
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// YAML renders the report for machines.
func (r *Report) YAML() ([]byte, error) {
	out := yamlReport{
		RunID:    r.RunID.String(),
		Started:  r.Started.Format(time.RFC3339),
		Finished: r.Finished.Format(time.RFC3339),
		OK:       r.OK(),
	}
	for _, br := range r.Backends {
		yb := yamlBackend{Backend: br.Backend.String(), Passed: br.Passed(), Total: len(br.Steps), Diff: br.Diff}
		for _, s := range br.Steps {
			yb.Steps = append(yb.Steps, yamlStep{Name: s.Name, Passed: s.Passed, Detail: s.Detail, DurationMS: millis(s.Duration)})
		}
		for _, t := range br.Timings {
			yb.Timings = append(yb.Timings, yamlTiming{
				Operation: t.Operation,
				Count:     t.Count,
				Failures:  t.Failures,
				TotalMS:   millis(t.Total),
				AverageMS: millis(t.Average()),
			})
		}
		out.Backends = append(out.Backends, yb)
	}
	for _, m := range r.Metrics {
		out.Metrics = append(out.Metrics, yamlSample{Name: m.Name, Labels: m.Labels, Value: m.Value})
	}
	return yaml.Marshal(out)
}

// Summary renders one styled card per backend for the console.
func (r *Report) Summary() string {
	cards := make([]string, 0, len(r.Backends))
	for _, br := range r.Backends {
		rows := make([]tui.Row, 0, len(br.Steps))
		for _, s := range br.Steps {
			status := tui.StatusPass
			if !s.Passed {
				status = tui.StatusFail
			}
			rows = append(rows, tui.Row{Status: status, Label: s.Name, Detail: s.Detail})
		}
		title := fmt.Sprintf("%s %s", br.Backend, tui.Tally(br.Passed(), len(br.Steps)))
		cards = append(cards, tui.Card(title, rows))
	}
	return strings.Join(cards, "\n")
}

// Write stores the report in dir and returns the file path.
func Write(dir string, r *Report, format string) (string, error) {
	var data []byte
	switch format {
	case config.FormatYAML:
		var err error
		if data, err = r.YAML(); err != nil {
			return "", fmt.Errorf("render report: %w", err)
		}
	case config.FormatText, "":
		data = []byte(r.Text())
	default:
		return "", fmt.Errorf("unknown report format: %q", format)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}
	path := filepath.Join(dir, FileName(r.Started, format))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}
