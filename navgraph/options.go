package navgraph

import "log/slog"

type options struct {
	searchRadius float64
	logger       *slog.Logger
}

type Option interface {
	apply(*options)
}

type searchRadius float64

func (r searchRadius) apply(o *options) {
	o.searchRadius = float64(r)
}

// Default: 0.01 degrees
func WithSearchRadius(radius float64) Option {
	return searchRadius(radius)
}

type loggerOption struct {
	logger *slog.Logger
}

func (l loggerOption) apply(o *options) {
	o.logger = l.logger
}

func WithLogger(logger *slog.Logger) Option {
	return loggerOption{logger: logger}
}

func loadOptions(opts ...Option) options {
	options := options{
		searchRadius: maxSearchRadius,
		logger:       slog.Default(),
	}
	for _, o := range opts {
		o.apply(&options)
	}
	return options
}
