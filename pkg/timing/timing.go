// Package timing accumulates named interval counters for coarse hot-path
// profiling. Sections are cheap enough to leave compiled in; Report dumps a
// table on demand.
package timing

import (
	"fmt"
	"io"
	"sort"
	"sync"
	"time"
)

// Record is the accumulated state of one named section.
type Record struct {
	Name  string
	Count int64
	Total time.Duration
}

// PerCall returns the mean duration of one section run.
func (r Record) PerCall() time.Duration {
	if r.Count == 0 {
		return 0
	}
	return r.Total / time.Duration(r.Count)
}

// Set is an independent group of records. The zero value is not usable;
// call New.
type Set struct {
	mu      sync.Mutex
	records map[string]*Record
}

func New() *Set {
	return &Set{records: make(map[string]*Record)}
}

// Start opens a section and returns the func that closes it.
//
//	defer timing.Start("encode.jpeg")()
func (s *Set) Start(name string) func() {
	t0 := time.Now()
	return func() {
		d := time.Since(t0)
		s.mu.Lock()
		r := s.records[name]
		if r == nil {
			r = &Record{Name: name}
			s.records[name] = r
		}
		r.Count++
		r.Total += d
		s.mu.Unlock()
	}
}

// Snapshot returns all records sorted by name.
func (s *Set) Snapshot() []Record {
	s.mu.Lock()
	out := make([]Record, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, *r)
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Report writes the record table to w.
func (s *Set) Report(w io.Writer) {
	fmt.Fprintln(w, "=============== timing report ===================")
	fmt.Fprintln(w, "count\ttime_tot(ms)\ttime_call(us)\tname")
	for _, r := range s.Snapshot() {
		fmt.Fprintf(w, "%d\t%.1f\t%.3f\t%s\n",
			r.Count,
			float64(r.Total.Microseconds())/1000,
			float64(r.PerCall().Nanoseconds())/1000,
			r.Name)
	}
	fmt.Fprintln(w, "================ end of report ==================")
}

// Default is the process-wide set used by the package-level helpers.
var Default = New()

func Start(name string) func() { return Default.Start(name) }

func Report(w io.Writer) { Default.Report(w) }
