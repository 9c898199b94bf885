// Package dashboard holds the loaded record set and derives every dashboard
// view from it.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"spendboard/internal/cache"
	"spendboard/internal/core"
	"spendboard/internal/filter"
	"spendboard/internal/log"
	"spendboard/internal/sources"
	"spendboard/internal/summary"
	"spendboard/internal/views"
)

// ErrNoDataset is returned while no record set has been loaded yet.
var ErrNoDataset = errors.New("no dataset loaded")

// Dataset is one loaded snapshot of the record set. It is never modified
// after Reload publishes it.
type Dataset struct {
	Version  uint64             `json:"version"`
	Source   string             `json:"source"`
	LoadedAt time.Time          `json:"loadedAt"`
	Records  []core.SpendRecord `json:"-"`
	Facets   core.FacetOptions  `json:"facets"`
}

// Query selects what Build derives.
type Query struct {
	Selection core.FilterSelection
	// GeoLevel is the category tier of the geo view, Level1 when empty.
	GeoLevel core.Level
	// HeatmapCategory restricts the calendar views to one Level1 category.
	HeatmapCategory string
}

func (q Query) normalized() Query {
	if q.GeoLevel == "" {
		q.GeoLevel = core.Level1
	}
	q.HeatmapCategory = strings.TrimSpace(q.HeatmapCategory)
	if q.HeatmapCategory == "" {
		q.HeatmapCategory = views.AllCategories
	}
	return q
}

// key identifies q against one dataset version. The selection key is a JSON
// object, so the fields that follow cannot run into it.
func (q Query) key(version uint64) string {
	return fmt.Sprintf("%d|%s|%s|%q", version, q.Selection.Key(), q.GeoLevel, q.HeatmapCategory)
}

// Result is everything the dashboard renders for one query. Records is the
// filtered subset and shares memory with the dataset.
type Result struct {
	DatasetVersion uint64               `json:"datasetVersion"`
	Selection      core.FilterSelection `json:"selection"`
	Records        []core.SpendRecord   `json:"records"`
	Facets         core.FacetOptions    `json:"facets"`
	Summary        summary.Metrics      `json:"summary"`
	Cards          []summary.Card       `json:"cards"`
	Treemap        []views.Node         `json:"treemap"`
	Sunburst       views.Node           `json:"sunburst"`
	Geo            views.GeoView        `json:"geo"`
	Temporal       views.Temporal       `json:"temporal"`
	Heatmap        views.Heatmap        `json:"heatmap"`
}

// Options configure a Service.
type Options struct {
	CacheSize int
	CacheTTL  time.Duration
	Logger    *log.Logger
}

// Service owns the current Dataset and memoizes the views built from it.
type Service struct {
	source     sources.RecordSource
	logger     *log.Logger
	structured *log.StructuredLogger
	results    *cache.LRUCache[*Result]
	group      singleflight.Group
	now        func() time.Time

	mu      sync.RWMutex
	current *Dataset
	version uint64
}

func NewService(source sources.RecordSource, opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentDashboard)
	if opts.CacheSize < 1 {
		opts.CacheSize = 256
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 10 * time.Minute
	}
	return &Service{
		source:     source,
		logger:     logger,
		structured: log.NewStructuredLogger(logger),
		results:    cache.NewLRUCache[*Result](opts.CacheSize, opts.CacheTTL),
		now:        time.Now,
	}
}

// Results exposes the result cache so a cache.Manager can sweep it.
func (s *Service) Results() *cache.LRUCache[*Result] {
	return s.results
}

// Reload fetches the record set from the source and makes it current.
// Concurrent calls share one fetch. On failure the previous dataset stays
// current and the error is returned.
func (s *Service) Reload(ctx context.Context) (*Dataset, error) {
	v, err, shared := s.group.Do("reload", func() (any, error) {
		return s.reload(context.WithoutCancel(ctx))
	})
	if shared {
		s.logger.DebugContext(ctx, "Joined in-flight reload")
	}
	if err != nil {
		return nil, err
	}
	return v.(*Dataset), nil
}

func (s *Service) reload(ctx context.Context) (*Dataset, error) {
	start := s.now()
	records, err := s.source.Load(ctx)
	if err != nil {
		s.structured.LogError(ctx, "Failed to load dataset", err, log.ComponentDashboard, log.OpReload,
			log.NewFields().WithDataset(s.source.Name(), s.Version(), 0))
		return nil, fmt.Errorf("load from %s: %w", s.source.Name(), err)
	}
	if records == nil {
		records = []core.SpendRecord{}
	}

	s.mu.Lock()
	s.version++
	ds := &Dataset{
		Version:  s.version,
		Source:   s.source.Name(),
		LoadedAt: s.now(),
		Records:  records,
		Facets:   filter.Facets(records),
	}
	s.current = ds
	s.mu.Unlock()

	s.results.Purge()
	s.structured.LogDatasetLoaded(ctx, ds.Source, ds.Version, len(records), s.now().Sub(start).Milliseconds())
	return ds, nil
}

// Current returns the current dataset, if any.
func (s *Service) Current() (*Dataset, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current, s.current != nil
}

// Ready reports whether a dataset has been loaded.
func (s *Service) Ready() bool {
	_, ok := s.Current()
	return ok
}

// Version is the version of the current dataset, 0 before the first load.
func (s *Service) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Ensure returns the current dataset, loading it first when there is none.
func (s *Service) Ensure(ctx context.Context) (*Dataset, error) {
	if ds, ok := s.Current(); ok {
		return ds, nil
	}
	return s.Reload(ctx)
}

// Build derives every view for q from the current dataset. Without a dataset
// it returns an empty Result together with ErrNoDataset.
func (s *Service) Build(ctx context.Context, q Query) (*Result, error) {
	q = q.normalized()
	ds, ok := s.Current()
	if !ok {
		empty := []core.SpendRecord{}
		return build(&Dataset{Records: empty, Facets: filter.Facets(empty)}, q), ErrNoDataset
	}

	key := q.key(ds.Version)
	if res, ok := s.results.Get(key); ok {
		s.logger.DebugContext(ctx, "Dashboard result served from cache",
			log.FieldDatasetVersion, ds.Version, log.FieldCacheHit, true)
		return res, nil
	}

	res := build(ds, q)
	s.results.Set(key, res)
	s.logger.DebugContext(ctx, "Dashboard result built",
		log.FieldDatasetVersion, ds.Version,
		log.FieldRecords, len(res.Records),
		log.FieldCacheHit, false)
	return res, nil
}

func build(ds *Dataset, q Query) *Result {
	records := filter.Apply(ds.Records, q.Selection)
	metrics := summary.Compute(records)
	temporal := views.TemporalOptions{Category: q.HeatmapCategory}
	return &Result{
		DatasetVersion: ds.Version,
		Selection:      q.Selection,
		Records:        records,
		Facets:         ds.Facets,
		Summary:        metrics,
		Cards:          summary.Cards(metrics),
		Treemap:        views.Hierarchy3(records),
		Sunburst:       views.Hierarchy2(records),
		Geo:            views.GeoCategory(records, q.GeoLevel),
		Temporal:       views.TemporalBuckets(records, temporal),
		Heatmap:        views.HeatmapGrid(records, temporal),
	}
}
