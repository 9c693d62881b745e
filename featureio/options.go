package featureio

import "log/slog"

type options struct {
	quantize int
	logger   *slog.Logger
}

func loadOptions(opts ...Option) options {
	o := options{
		quantize: -1,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt.apply(&o)
	}
	return o
}

type Option interface {
	apply(*options)
}

type quantize int

func (q quantize) apply(o *options) {
	o.quantize = int(q)
}

// WithQuantize rounds every loaded coordinate to the given number of decimals.
// Coordinates that went through a lossy path then compare equal again.
// Default: off.
func WithQuantize(decimals int) Option {
	return quantize(decimals)
}

type loggerOption struct {
	log *slog.Logger
}

func (l loggerOption) apply(o *options) {
	if l.log != nil {
		o.logger = l.log
	}
}

func WithLogger(log *slog.Logger) Option {
	return loggerOption{log: log}
}
