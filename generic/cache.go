package generic

import (
	"errors"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/reoring/baiji/schema"
)

// PlanCache memoizes writer and reader plans for one data access. Schemas
// are keyed by their full JSON form, so two separately parsed but identical
// schemas share a plan. Concurrent requests for a missing plan build it once.
type PlanCache struct {
	access DataAccess
	opts   []Option
	logger *zap.Logger

	mu      sync.RWMutex
	writers map[string]*Writer
	readers map[string]*Reader
	group   singleflight.Group

	lookups *prometheus.CounterVec
	builds  *prometheus.CounterVec
}

// NewPlanCache creates an empty cache. opts are passed on to every plan
// build; WithRegisterer also registers the cache metrics. Caches sharing a
// registerer share its counters.
func NewPlanCache(access DataAccess, opts ...Option) *PlanCache {
	o := newOptions(opts)
	return &PlanCache{
		access:  access,
		opts:    opts,
		logger:  o.logger,
		writers: map[string]*Writer{},
		readers: map[string]*Reader{},
		lookups: registerCounter(o.registerer, prometheus.CounterOpts{
			Namespace: "baiji",
			Subsystem: "plan_cache",
			Name:      "lookups_total",
			Help:      "Plan cache lookups by plan kind and result (hit or miss).",
		}, []string{"plan", "result"}),
		builds: registerCounter(o.registerer, prometheus.CounterOpts{
			Namespace: "baiji",
			Subsystem: "plan_cache",
			Name:      "builds_total",
			Help:      "Plan builds by plan kind and outcome (ok or error).",
		}, []string{"plan", "outcome"}),
	}
}

// registerCounter registers a counter vector with reg, reusing the collector
// already registered under the same descriptor. A nil reg leaves it unregistered.
func registerCounter(reg prometheus.Registerer, opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	c := prometheus.NewCounterVec(opts, labels)
	if reg == nil {
		return c
	}
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}

// Writer returns the writer plan for s, building it on first use.
func (c *PlanCache) Writer(s schema.Schema) (*Writer, error) {
	key := s.String()
	c.mu.RLock()
	w, ok := c.writers[key]
	c.mu.RUnlock()
	if ok {
		c.lookups.WithLabelValues("writer", "hit").Inc()
		return w, nil
	}
	c.lookups.WithLabelValues("writer", "miss").Inc()
	v, err, shared := c.group.Do("w\x00"+key, func() (any, error) {
		w, err := NewWriter(s, c.access, c.opts...)
		if err != nil {
			c.builds.WithLabelValues("writer", "error").Inc()
			return nil, err
		}
		c.builds.WithLabelValues("writer", "ok").Inc()
		c.mu.Lock()
		c.writers[key] = w
		c.mu.Unlock()
		return w, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		c.logger.Debug("writer plan build shared", zap.Uint64("fingerprint", schema.Fingerprint64(s)))
	}
	return v.(*Writer), nil
}

// Reader returns the reader plan for the (writer, reader) pair. A nil reader
// means the writer schema itself.
func (c *PlanCache) Reader(writer, reader schema.Schema) (*Reader, error) {
	if reader == nil {
		reader = writer
	}
	key := writer.String() + "\x00" + reader.String()
	c.mu.RLock()
	r, ok := c.readers[key]
	c.mu.RUnlock()
	if ok {
		c.lookups.WithLabelValues("reader", "hit").Inc()
		return r, nil
	}
	c.lookups.WithLabelValues("reader", "miss").Inc()
	v, err, shared := c.group.Do("r\x00"+key, func() (any, error) {
		r, err := NewReader(writer, reader, c.access, c.opts...)
		if err != nil {
			c.builds.WithLabelValues("reader", "error").Inc()
			return nil, err
		}
		c.builds.WithLabelValues("reader", "ok").Inc()
		c.mu.Lock()
		c.readers[key] = r
		c.mu.Unlock()
		return r, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		c.logger.Debug("reader plan build shared",
			zap.Uint64("writer_fingerprint", schema.Fingerprint64(writer)),
			zap.Uint64("reader_fingerprint", schema.Fingerprint64(reader)))
	}
	return v.(*Reader), nil
}

// Len returns the number of cached writer and reader plans.
func (c *PlanCache) Len() (writers, readers int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.writers), len(c.readers)
}
