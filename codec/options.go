package codec

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/reoring/baiji/binary"
	"github.com/reoring/baiji/generic"
)

type options struct {
	access     generic.DataAccess
	decOpts    []binary.Option
	logger     *zap.Logger
	registerer prometheus.Registerer
	cache      *generic.PlanCache
}

// Option configures a Codec or FramedCodec.
type Option func(*options)

// WithAccess selects the data access plans are built for. The default is
// generic.Access.
func WithAccess(a generic.DataAccess) Option {
	return func(o *options) { o.access = a }
}

// WithDecoderOptions passes limits to every decoder the codec creates.
func WithDecoderOptions(opts ...binary.Option) Option {
	return func(o *options) { o.decOpts = append(o.decOpts, opts...) }
}

// WithLogger sets the logger used by the codec and its plan builds.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithRegisterer registers plan cache metrics with reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) { o.registerer = reg }
}

// WithPlanCache shares an existing plan cache. Its access takes precedence
// over WithAccess.
func WithPlanCache(c *generic.PlanCache) Option {
	return func(o *options) { o.cache = c }
}

func newOptions(opts []Option) options {
	o := options{access: generic.Access{}, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o options) planCache() *generic.PlanCache {
	if o.cache != nil {
		return o.cache
	}
	return generic.NewPlanCache(o.access, generic.WithLogger(o.logger), generic.WithRegisterer(o.registerer))
}
