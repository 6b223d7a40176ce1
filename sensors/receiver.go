package sensors

import "go.uber.org/zap"

// Receiver is an Observer that logs every value it gets. It keeps no history.
type Receiver struct {
	name   string
	logger *zap.SugaredLogger
}

// NewReceiver returns a named receiver. Only WithLogger applies to receivers.
func NewReceiver(name string, opts ...Option) *Receiver {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop().Sugar()
	}
	return &Receiver{name: name, logger: o.logger}
}

func (r *Receiver) Name() string {
	return r.name
}

func (r *Receiver) Update(value float64) {
	r.logger.Infof("%s received new sensor data: %v", r.name, value)
}
