package sensors

import (
	"fmt"
	"math/rand/v2"
	"reflect"
	"slices"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// subject holds the state shared by every sensor variant: identity, the
// current value and the ordered observer list. It is not safe for
// concurrent use.
type subject struct {
	name      string
	unit      string
	kind      Kind
	value     float64
	observers []Observer

	rng    *rand.Rand
	logger *zap.SugaredLogger
}

func newSubject(kind Kind, name, unit string, opts []Option) subject {
	o := buildOptions(opts)
	return subject{
		name:   name,
		unit:   unit,
		kind:   kind,
		rng:    o.rng,
		logger: o.logger,
	}
}

func (s *subject) Name() string   { return s.name }
func (s *subject) Kind() Kind     { return s.kind }
func (s *subject) Unit() string   { return s.unit }
func (s *subject) Value() float64 { return s.value }

func (s *subject) Attach(o Observer) {
	s.observers = append(s.observers, o)
}

func (s *subject) Detach(o Observer) {
	i := slices.IndexFunc(s.observers, func(attached Observer) bool {
		return sameObserver(attached, o)
	})
	if i < 0 {
		return
	}
	// a notify already ranging over the old slice keeps its view
	s.observers = slices.Delete(slices.Clone(s.observers), i, i+1)
}

// sameObserver reports whether a and b are the same observer. Observers whose
// dynamic type cannot be compared never match, so they cannot be detached.
func sameObserver(a, b Observer) (same bool) {
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb || (ta != nil && !ta.Comparable()) {
		return false
	}
	// a comparable struct can still hold an uncomparable value in an interface field
	defer func() {
		if recover() != nil {
			same = false
		}
	}()
	return a == b
}

// record stores a freshly generated value, logs it and notifies observers.
func (s *subject) record(value float64) error {
	s.value = value
	s.logger.Infof("%s measured %s: %v %s", s.name, quantity(s.kind), s.value, s.unit)
	return s.notify()
}

func (s *subject) notify() error {
	var errs error
	for i, o := range s.observers {
		if err := safeUpdate(o, s.value); err != nil {
			s.logger.Errorw("observer failed", "sensor", s.name, "observer", i, "error", err)
			errs = multierr.Append(errs, err)
		}
	}
	return errs
}

// safeUpdate calls o.Update and turns a panic into an error so the
// remaining observers still get the value.
func safeUpdate(o Observer, value float64) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("observer %T panicked: %v", o, rec)
		}
	}()
	o.Update(value)
	return nil
}

func quantity(k Kind) string {
	switch k {
	case KindTemperature:
		return "temperature"
	case KindPressure:
		return "pressure"
	default:
		return "value"
	}
}
