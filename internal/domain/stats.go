package domain

import (
	"sort"
	"time"
)

// CategoryStats accumulates counters for one category during one run.
// Rates are derived on demand and never stored.
type CategoryStats struct {
	Category        Category
	Total           int
	Successful      int
	DOIFound        int
	AbstractFound   int
	CommentURLsUsed int
	Errors          map[ErrorKind]int
	Publishers      map[string]int
}

func newCategoryStats(c Category) *CategoryStats {
	return &CategoryStats{
		Category:   c,
		Errors:     map[ErrorKind]int{},
		Publishers: map[string]int{},
	}
}

func (s *CategoryStats) add(r FetchResult) {
	s.Total++
	if r.Success {
		s.Successful++
	}
	if r.DOIFound {
		s.DOIFound++
	}
	if r.AbstractFound {
		s.AbstractFound++
	}
	if r.Source == SourceCommentURL {
		s.CommentURLsUsed++
	}
	if r.Error != "" {
		kind := r.ErrorKind
		if kind == "" {
			kind = ErrorKindConnection
		}
		s.Errors[kind]++
	}
	if r.ExtractionMethod != "" {
		s.Publishers[r.ExtractionMethod]++
	}
}

func (s *CategoryStats) merge(o *CategoryStats) {
	s.Total += o.Total
	s.Successful += o.Successful
	s.DOIFound += o.DOIFound
	s.AbstractFound += o.AbstractFound
	s.CommentURLsUsed += o.CommentURLsUsed
	for k, v := range o.Errors {
		s.Errors[k] += v
	}
	for k, v := range o.Publishers {
		s.Publishers[k] += v
	}
}

// SuccessRate is successful/total.
func (s CategoryStats) SuccessRate() float64 { return Ratio(s.Successful, s.Total) }

// DOIRate is doi_found/successful.
func (s CategoryStats) DOIRate() float64 { return Ratio(s.DOIFound, s.Successful) }

// AbstractRate is abstract_found/successful.
func (s CategoryStats) AbstractRate() float64 { return Ratio(s.AbstractFound, s.Successful) }

// MostCommonError returns the most frequent error kind, or "" when none occurred.
func (s CategoryStats) MostCommonError() string {
	counts := make(map[string]int, len(s.Errors))
	for k, v := range s.Errors {
		counts[string(k)] = v
	}
	return argmax(counts)
}

// TopPublisher returns the handler that processed most rows, or "".
func (s CategoryStats) TopPublisher() string {
	return argmax(s.Publishers)
}

// PublisherStats tracks how one handler performed across the run.
type PublisherStats struct {
	Publisher string
	Attempts  int
	DOIs      int
	Abstracts int
}

func (p PublisherStats) DOIRate() float64      { return Ratio(p.DOIs, p.Attempts) }
func (p PublisherStats) AbstractRate() float64 { return Ratio(p.Abstracts, p.Attempts) }

// LabelCount is the number of input rows that received a category label.
type LabelCount struct {
	Category Category
	Rows     int
}

// Totals is the running total reported at the end of a run.
type Totals struct {
	Processed  int
	Successful int
	DOIs       int
	Abstracts  int
}

// DOIPercent is the share of processed URLs with a DOI, in percent.
func (t Totals) DOIPercent() float64 { return 100 * Ratio(t.DOIs, t.Processed) }

// AbstractPercent is the share of processed URLs with an abstract, in percent.
func (t Totals) AbstractPercent() float64 { return 100 * Ratio(t.Abstracts, t.Processed) }

// RunStats is the accumulator for a single pipeline run. It is not safe for concurrent use;
// parallel workers keep their own and Merge at the end.
type RunStats struct {
	categories map[Category]*CategoryStats
	publishers map[string]*PublisherStats
	labels     map[Category]int
	totals     Totals
}

// NewRunStats returns an empty accumulator.
func NewRunStats() *RunStats {
	return &RunStats{
		categories: map[Category]*CategoryStats{},
		publishers: map[string]*PublisherStats{},
		labels:     map[Category]int{},
	}
}

// Label records that an input row was classified as c.
func (s *RunStats) Label(c Category) {
	s.labels[c]++
}

// Fold adds one processed result.
func (s *RunStats) Fold(r FetchResult) {
	cs, ok := s.categories[r.Category]
	if !ok {
		cs = newCategoryStats(r.Category)
		s.categories[r.Category] = cs
	}
	cs.add(r)

	if r.ExtractionMethod != "" {
		ps, ok := s.publishers[r.ExtractionMethod]
		if !ok {
			ps = &PublisherStats{Publisher: r.ExtractionMethod}
			s.publishers[r.ExtractionMethod] = ps
		}
		ps.Attempts++
		if r.DOIFound {
			ps.DOIs++
		}
		if r.AbstractFound {
			ps.Abstracts++
		}
	}

	s.totals.Processed++
	if r.Success {
		s.totals.Successful++
	}
	if r.DOIFound {
		s.totals.DOIs++
	}
	if r.AbstractFound {
		s.totals.Abstracts++
	}
}

// Merge folds another accumulator into s.
func (s *RunStats) Merge(o *RunStats) {
	if o == nil {
		return
	}
	for c, cs := range o.categories {
		dst, ok := s.categories[c]
		if !ok {
			dst = newCategoryStats(c)
			s.categories[c] = dst
		}
		dst.merge(cs)
	}
	for name, ps := range o.publishers {
		dst, ok := s.publishers[name]
		if !ok {
			dst = &PublisherStats{Publisher: name}
			s.publishers[name] = dst
		}
		dst.Attempts += ps.Attempts
		dst.DOIs += ps.DOIs
		dst.Abstracts += ps.Abstracts
	}
	for c, n := range o.labels {
		s.labels[c] += n
	}
	s.totals.Processed += o.totals.Processed
	s.totals.Successful += o.totals.Successful
	s.totals.DOIs += o.totals.DOIs
	s.totals.Abstracts += o.totals.Abstracts
}

// Category returns a snapshot for c; categories without results yield zero counters.
func (s *RunStats) Category(c Category) CategoryStats {
	if cs, ok := s.categories[c]; ok {
		return cs.snapshot()
	}
	return newCategoryStats(c).snapshot()
}

// Categories returns snapshots of every category that produced results, fetch order first.
func (s *RunStats) Categories() []CategoryStats {
	out := make([]CategoryStats, 0, len(s.categories))
	seen := map[Category]bool{}
	for _, c := range FetchCategories {
		if cs, ok := s.categories[c]; ok {
			out = append(out, cs.snapshot())
			seen[c] = true
		}
	}
	var rest []Category
	for c := range s.categories {
		if !seen[c] {
			rest = append(rest, c)
		}
	}
	sort.Slice(rest, func(i, j int) bool { return rest[i] < rest[j] })
	for _, c := range rest {
		out = append(out, s.categories[c].snapshot())
	}
	return out
}

// Publishers returns per-handler stats ordered by attempts, then name.
func (s *RunStats) Publishers() []PublisherStats {
	out := make([]PublisherStats, 0, len(s.publishers))
	for _, ps := range s.publishers {
		out = append(out, *ps)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Attempts != out[j].Attempts {
			return out[i].Attempts > out[j].Attempts
		}
		return out[i].Publisher < out[j].Publisher
	})
	return out
}

// Labels returns row counts per category label in priority order, unknown last.
func (s *RunStats) Labels() []LabelCount {
	order := append(append([]Category{}, CategoryPriority...), CategoryUnknown)
	out := make([]LabelCount, 0, len(order))
	for _, c := range order {
		if n := s.labels[c]; n > 0 {
			out = append(out, LabelCount{Category: c, Rows: n})
		}
	}
	return out
}

// Totals returns the running total over all processed rows.
func (s *RunStats) Totals() Totals {
	return s.totals
}

func (s *CategoryStats) snapshot() CategoryStats {
	cp := *s
	cp.Errors = make(map[ErrorKind]int, len(s.Errors))
	for k, v := range s.Errors {
		cp.Errors[k] = v
	}
	cp.Publishers = make(map[string]int, len(s.Publishers))
	for k, v := range s.Publishers {
		cp.Publishers[k] = v
	}
	return cp
}

// Report is everything a run produced, handed to report writers.
type Report struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Results    []FetchResult
	Stats      *RunStats
}

// ResultsFor returns the results of one category in processing order.
func (r Report) ResultsFor(c Category) []FetchResult {
	var out []FetchResult
	for _, res := range r.Results {
		if res.Category == c {
			out = append(out, res)
		}
	}
	return out
}

// Ratio divides n by d and returns 0 when d is 0.
func Ratio(n, d int) float64 {
	if d == 0 {
		return 0
	}
	return float64(n) / float64(d)
}

func argmax(counts map[string]int) string {
	best, bestN := "", 0
	for k, v := range counts {
		if v > bestN || (v == bestN && v > 0 && k < best) {
			best, bestN = k, v
		}
	}
	return best
}
