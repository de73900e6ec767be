package generic

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	baiji "github.com/reoring/baiji"
)

type options struct {
	logger     *zap.Logger
	registerer prometheus.Registerer
}

// Option configures plan construction.
type Option func(*options)

// WithLogger sets the logger used to report plan builds. The default is a
// no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithRegisterer registers PlanCache metrics with reg. Without it the
// metrics are collected but not registered.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) { o.registerer = reg }
}

func newOptions(opts []Option) options {
	o := options{logger: zap.NewNop()}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

// at places root-level issues produced below a plan node at that node's path.
func at(p baiji.PathRef, err error) error {
	iss, ok := err.(baiji.Issues)
	if !ok {
		return err
	}
	ptr := p.Pointer()
	if ptr == "/" {
		return err
	}
	changed := false
	for _, it := range iss {
		if it.Path == "/" {
			changed = true
			break
		}
	}
	if !changed {
		return err
	}
	out := make(baiji.Issues, len(iss))
	for i, it := range iss {
		if it.Path == "/" {
			it.Path = ptr
		}
		out[i] = it
	}
	return out
}
