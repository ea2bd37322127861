package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"
	"github.com/goccy/go-json"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Report renders a Result as ordered key/value metrics.
type Report struct {
	metrics *orderedmap.OrderedMap[string, any]
}

func NewReport(r Result) *Report {
	mode := "sync"
	if r.Config.Async {
		mode = "async"
	}

	m := orderedmap.New[string, any]()
	m.Set("mode", mode)
	m.Set("listeners", r.Config.Listeners)
	m.Set("publishers", r.Config.Publishers)
	if r.Config.Async {
		m.Set("workers", r.Config.Workers)
		m.Set("queue_size", r.Config.QueueSize)
	}
	m.Set("messages", r.Config.Messages)
	m.Set("deliveries", r.Deliveries)
	m.Set("errors", r.Errors)
	m.Set("handler_groups", r.Stats.Groups)
	m.Set("duration", r.Duration.String())
	m.Set("throughput_msgs_per_sec", roundTo(r.Throughput(), 2))
	return &Report{metrics: m}
}

func roundTo(v float64, digits int) float64 {
	f, _ := strconv.ParseFloat(strconv.FormatFloat(v, 'f', digits, 64), 64)
	return f
}

// Get returns the value of a metric.
func (r *Report) Get(key string) (any, bool) {
	return r.metrics.Get(key)
}

// Keys returns the metric names in report order.
func (r *Report) Keys() []string {
	keys := make([]string, 0, r.metrics.Len())
	for pair := r.metrics.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

func (r *Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r.metrics); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return nil
}

// WriteText writes one aligned, colored line per metric. Errors are
// highlighted when there are any.
func (r *Report) WriteText(w io.Writer) error {
	width := 0
	for pair := r.metrics.Oldest(); pair != nil; pair = pair.Next() {
		width = max(width, len(pair.Key))
	}

	key := color.New(color.FgCyan).SprintFunc()
	for pair := r.metrics.Oldest(); pair != nil; pair = pair.Next() {
		value := fmt.Sprint(pair.Value)
		switch {
		case pair.Key == "errors" && value != "0":
			value = color.RedString(value)
		case pair.Key == "throughput_msgs_per_sec":
			value = color.GreenString(value)
		}
		if _, err := fmt.Fprintf(w, "%s  %s\n", key(fmt.Sprintf("%-*s", width, pair.Key)), value); err != nil {
			return err
		}
	}
	return nil
}
