package sensors

import (
	"math/rand/v2"

	"go.uber.org/zap"
)

// Option configures a sensor or receiver.
type Option func(*options)

type options struct {
	rng    *rand.Rand
	logger *zap.SugaredLogger
}

// WithLogger sets the logger used for measurement and update lines.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithRand sets the random source a sensor draws its values from.
func WithRand(r *rand.Rand) Option {
	return func(o *options) {
		if r != nil {
			o.rng = r
		}
	}
}

// WithSeed gives the sensor a deterministic PCG source.
func WithSeed(seed uint64) Option {
	return func(o *options) {
		o.rng = rand.New(rand.NewPCG(seed, seed))
	}
}

func buildOptions(opts []Option) options {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.rng == nil {
		o.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if o.logger == nil {
		o.logger = zap.NewNop().Sugar()
	}
	return o
}
