// Package metrics records updater activity in a private Prometheus registry
// and writes it in the node-exporter textfile format.
package metrics

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"

	"github.com/adamancini/ota/internal/update"
)

const namespace = "ota"

// Check results.
const (
	CheckChanged   = "changed"
	CheckUnchanged = "unchanged"
)

// UpdateError labels transactions aborted without an outcome.
const UpdateError = "error"

// Recorder holds the updater's metrics.
type Recorder struct {
	registry    *prometheus.Registry
	checks      *prometheus.CounterVec
	updates     *prometheus.CounterVec
	files       prometheus.Counter
	bytes       prometheus.Counter
	lastSuccess prometheus.Gauge
	state       State
	now         func() time.Time
}

// State is the cumulative value of every metric. A one-shot process keeps
// it in a JSON file next to the metrics file so counters survive restarts.
type State struct {
	Checks      map[string]float64 `json:"checks"`
	Updates     map[string]float64 `json:"updates"`
	Files       float64            `json:"files"`
	Bytes       float64            `json:"bytes"`
	LastSuccess float64            `json:"last_success"`
}

// NewRecorder creates a recorder with its own registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		checks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checks_total",
			Help:      "Version checks by result.",
		}, []string{"result"}),
		updates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "updates_total",
			Help:      "Update transactions by final status.",
		}, []string{"status"}),
		files: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_downloaded_total",
			Help:      "Files installed by successful updates.",
		}),
		bytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bytes_downloaded_total",
			Help:      "Bytes downloaded by update transactions.",
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last installed update.",
		}),
		state: State{Checks: map[string]float64{}, Updates: map[string]float64{}},
		now:   time.Now,
	}
	r.registry.MustRegister(r.checks, r.updates, r.files, r.bytes, r.lastSuccess)
	return r
}

// Load creates a recorder continuing from the state saved by WriteFile for
// path. A missing state starts from zero.
func Load(path string) (*Recorder, error) {
	r := NewRecorder()
	if path == "" {
		return r, nil
	}

	data, err := os.ReadFile(statePath(path))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return r, nil
		}
		return nil, fmt.Errorf("failed to read metrics state: %w", err)
	}
	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("failed to parse metrics state: %w", err)
	}

	for result, v := range st.Checks {
		r.addCheck(result, v)
	}
	for status, v := range st.Updates {
		r.addUpdate(status, v)
	}
	r.addFiles(st.Files)
	r.addBytes(st.Bytes)
	r.setLastSuccess(st.LastSuccess)
	return r, nil
}

// Snapshot returns the cumulative values.
func (r *Recorder) Snapshot() State {
	return r.state
}

func statePath(path string) string {
	return path + ".json"
}

func (r *Recorder) addCheck(result string, v float64) {
	r.checks.WithLabelValues(result).Add(v)
	r.state.Checks[result] += v
}

func (r *Recorder) addUpdate(status string, v float64) {
	r.updates.WithLabelValues(status).Add(v)
	r.state.Updates[status] += v
}

func (r *Recorder) addFiles(v float64) {
	r.files.Add(v)
	r.state.Files += v
}

func (r *Recorder) addBytes(v float64) {
	r.bytes.Add(v)
	r.state.Bytes += v
}

func (r *Recorder) setLastSuccess(v float64) {
	if v == 0 {
		return
	}
	r.lastSuccess.Set(v)
	r.state.LastSuccess = v
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ObserveCheck counts one version check.
func (r *Recorder) ObserveCheck(result string) {
	r.addCheck(result, 1)
}

// ObserveOutcome records a finished transaction. A nil outcome counts as an
// aborted transaction only; the version check may well have succeeded.
func (r *Recorder) ObserveOutcome(o *update.Outcome) {
	if o == nil {
		r.addUpdate(UpdateError, 1)
		return
	}

	if o.Status == update.StatusNoUpdate {
		r.addCheck(CheckUnchanged, 1)
	} else {
		r.addCheck(CheckChanged, 1)
	}
	r.addUpdate(string(o.Status), 1)
	r.addBytes(float64(o.Bytes))

	if o.Status == update.StatusUpdated {
		var n int
		for _, e := range o.Entries {
			if !update.Entry(e).IsDir() {
				n++
			}
		}
		r.addFiles(float64(n))
		r.setLastSuccess(float64(r.now().Unix()))
	}
}

// WriteFile writes every metric to path atomically and saves the state for
// Load. An empty path is a no-op.
func (r *Recorder) WriteFile(path string) error {
	if path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return err
	}
	data, err := json.Marshal(r.state)
	if err != nil {
		return fmt.Errorf("failed to encode metrics state: %w", err)
	}
	if err := os.WriteFile(statePath(path), data, 0o644); err != nil {
		return fmt.Errorf("failed to write metrics state: %w", err)
	}
	log.Debugf("metrics written to %s", path)
	return nil
}
