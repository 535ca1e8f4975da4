package gates

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

const defaultGateTimeout = 5 * time.Minute

// Result is the outcome of running one gate.
type Result struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	Passed   bool          `json:"passed"`
	Blocking bool          `json:"blocking"`
	Duration time.Duration `json:"duration"`
	Output   string        `json:"output,omitempty"`
	Detail   string        `json:"detail,omitempty"`
}

// Report aggregates the results of a full gate run.
type Report struct {
	Results []Result  `json:"results"`
	RanAt   time.Time `json:"ran_at"`
}

// Passed reports whether every blocking gate passed. Advisory gate
// failures never hold up a session close.
func (r *Report) Passed() bool {
	for _, res := range r.Results {
		if res.Blocking && !res.Passed {
			return false
		}
	}
	return true
}

// FailedBlocking returns the ids of blocking gates that failed.
func (r *Report) FailedBlocking() []string {
	var out []string
	for _, res := range r.Results {
		if res.Blocking && !res.Passed {
			out = append(out, res.ID)
		}
	}
	return out
}

// Run executes every gate sequentially in dir, each bounded by its own
// timeout. A failing gate does not stop the run; the report carries
// every outcome so the user sees the full picture at once.
func Run(ctx context.Context, cfg *Config, dir string) *Report {
	report := &Report{RanAt: time.Now()}
	for _, g := range cfg.Gates {
		report.Results = append(report.Results, runGate(ctx, g, dir))
	}
	return report
}

func runGate(ctx context.Context, g Gate, dir string) Result {
	timeout := time.Duration(g.Timeout)
	if timeout == 0 {
		timeout = defaultGateTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	cmd := exec.CommandContext(ctx, "sh", "-c", g.Command)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()

	res := Result{
		ID:       g.ID,
		Name:     g.Name,
		Blocking: g.Blocking,
		Duration: time.Since(start),
		Output:   strings.TrimSpace(string(out)),
	}

	if ctx.Err() == context.DeadlineExceeded {
		res.Detail = fmt.Sprintf("timed out after %s", timeout)
		return res
	}
	if err != nil {
		res.Detail = err.Error()
		return res
	}

	if g.Metric != nil {
		return checkMetric(g, res)
	}

	res.Passed = true
	return res
}

// checkMetric extracts a numeric value from the gate's output via its
// gjson path and compares it against the configured bounds.
func checkMetric(g Gate, res Result) Result {
	if !gjson.Valid(res.Output) {
		res.Detail = "metric check: output is not valid JSON"
		return res
	}

	value := gjson.Get(res.Output, g.Metric.JSONPath)
	if !value.Exists() {
		res.Detail = fmt.Sprintf("metric check: path %q not found in output", g.Metric.JSONPath)
		return res
	}

	v := value.Float()
	if g.Metric.Min != nil && v < *g.Metric.Min {
		res.Detail = fmt.Sprintf("metric %.2f below minimum %.2f", v, *g.Metric.Min)
		return res
	}
	if g.Metric.Max != nil && v > *g.Metric.Max {
		res.Detail = fmt.Sprintf("metric %.2f above maximum %.2f", v, *g.Metric.Max)
		return res
	}

	res.Passed = true
	res.Detail = fmt.Sprintf("metric %.2f within bounds", v)
	return res
}
