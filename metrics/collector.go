// Package metrics exports the search statistics of compiled patterns to
// Prometheus.
//
//	c := metrics.NewCollector("btregex")
//	c.Register("email", re)
//	prometheus.MustRegister(c)
package metrics

import (
	"sort"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/coregx/btregex"
)

// Source is anything that reports search statistics, usually a
// *btregex.Regex.
type Source interface {
	Stats() btregex.Stats
}

var _ prometheus.Collector = (*Collector)(nil)

// Collector reads the statistics of registered sources at scrape time.
// Every metric carries a "pattern" label with the registration name.
type Collector struct {
	mu      sync.RWMutex
	sources map[string]Source

	searches       *prometheus.Desc
	attempts       *prometheus.Desc
	matches        *prometheus.Desc
	steps          *prometheus.Desc
	backtracks     *prometheus.Desc
	maxStackDepth  *prometheus.Desc
	stackLimitHits *prometheus.Desc
	candidates     *prometheus.Desc
	retired        *prometheus.Desc
}

// NewCollector creates a collector whose metric names start with
// namespace.
func NewCollector(namespace string) *Collector {
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "", name), help, []string{"pattern"}, nil)
	}
	return &Collector{
		sources:        make(map[string]Source),
		searches:       desc("searches_total", "Searches run by a pattern."),
		attempts:       desc("attempts_total", "Start offsets tried by the matcher."),
		matches:        desc("matches_total", "Searches that found a match."),
		steps:          desc("steps_total", "Instructions executed by the matcher."),
		backtracks:     desc("backtracks_total", "Resume points popped from the backtracking stack."),
		maxStackDepth:  desc("max_stack_depth", "Deepest backtracking stack seen."),
		stackLimitHits: desc("stack_limit_hits_total", "Attempts aborted by the stack limit."),
		candidates:     desc("prefilter_candidates_total", "Start offsets reported by the prefilter."),
		retired:        desc("prefilter_retired_total", "Searches that retired an ineffective prefilter."),
	}
}

// Register adds or replaces the source exported under name.
func (c *Collector) Register(name string, src Source) {
	c.mu.Lock()
	c.sources[name] = src
	c.mu.Unlock()
}

// Unregister stops exporting name.
func (c *Collector) Unregister(name string) {
	c.mu.Lock()
	delete(c.sources, name)
	c.mu.Unlock()
}

// Names returns the registered names in order.
func (c *Collector) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.sources))
	for name := range c.sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.searches
	ch <- c.attempts
	ch <- c.matches
	ch <- c.steps
	ch <- c.backtracks
	ch <- c.maxStackDepth
	ch <- c.stackLimitHits
	ch <- c.candidates
	ch <- c.retired
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for name, src := range c.sources {
		st := src.Stats()
		counter := func(d *prometheus.Desc, v uint64) {
			ch <- prometheus.MustNewConstMetric(d, prometheus.CounterValue, float64(v), name)
		}
		counter(c.searches, st.Searches)
		counter(c.attempts, st.Attempts)
		counter(c.matches, st.Matches)
		counter(c.steps, st.Steps)
		counter(c.backtracks, st.Backtracks)
		counter(c.stackLimitHits, st.StackLimitHits)
		counter(c.candidates, st.PrefilterCandidates)
		counter(c.retired, st.PrefilterRetired)
		ch <- prometheus.MustNewConstMetric(c.maxStackDepth, prometheus.GaugeValue, float64(st.MaxStackDepth), name)
	}
}
