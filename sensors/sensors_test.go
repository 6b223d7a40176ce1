package sensors

import (
	"errors"
	"fmt"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	zapobserver "go.uber.org/zap/zaptest/observer"
	"go.viam.com/test"
)

type recorder struct {
	values []float64
}

func (r *recorder) Update(value float64) {
	r.values = append(r.values, value)
}

type panicker struct{}

func (panicker) Update(float64) {
	panic("boom")
}

// detacher removes itself from the sensor the first time it is notified.
type detacher struct {
	sensor Sensor
	calls  int
}

func (d *detacher) Update(float64) {
	d.calls++
	d.sensor.Detach(d)
}

func TestNewKnownKinds(t *testing.T) {
	for label, want := range map[string]struct {
		name string
		unit string
	}{
		"Temperature": {"Temperature Sensor", "°C"},
		"Pressure":    {"Pressure Sensor", "Pa"},
	} {
		t.Run(label, func(t *testing.T) {
			s, err := New(label)
			test.That(t, err, test.ShouldBeNil)
			test.That(t, s.Name(), test.ShouldEqual, want.name)
			test.That(t, s.Unit(), test.ShouldEqual, want.unit)
			test.That(t, string(s.Kind()), test.ShouldEqual, label)
			test.That(t, s.Value(), test.ShouldEqual, 0.0)
		})
	}
}

func TestNewUnknownKind(t *testing.T) {
	for _, label := range []string{"", "Humidity", "temperature", "Pressure "} {
		s, err := New(label)
		test.That(t, s, test.ShouldBeNil)
		test.That(t, errors.Is(err, ErrUnknownSensorType), test.ShouldBeTrue)
		test.That(t, err.Error(), test.ShouldContainSubstring, fmt.Sprintf("%q", label))
	}
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("Pressure")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, k, test.ShouldEqual, KindPressure)

	_, err = ParseKind("Light")
	test.That(t, errors.Is(err, ErrUnknownSensorType), test.ShouldBeTrue)
}

func TestMeasureNotifiesWithCurrentValue(t *testing.T) {
	s, err := New("Temperature", WithSeed(1))
	test.That(t, err, test.ShouldBeNil)
	r := &recorder{}
	s.Attach(r)

	var want []float64
	for i := 0; i < 5; i++ {
		test.That(t, s.Measure(), test.ShouldBeNil)
		want = append(want, s.Value())
	}
	test.That(t, r.values, test.ShouldResemble, want)
}

func TestNotifyOrder(t *testing.T) {
	s := NewPressure(WithSeed(2))
	var order []string
	s.Attach(orderObserver{"a", &order})
	s.Attach(orderObserver{"b", &order})
	s.Attach(orderObserver{"c", &order})

	test.That(t, s.Measure(), test.ShouldBeNil)
	test.That(t, order, test.ShouldResemble, []string{"a", "b", "c"})
}

type orderObserver struct {
	id  string
	log *[]string
}

func (o orderObserver) Update(float64) {
	*o.log = append(*o.log, o.id)
}

func TestDetach(t *testing.T) {
	temp := NewTemperature(WithSeed(3))
	press := NewPressure(WithSeed(4))
	r := &recorder{}
	temp.Attach(r)
	press.Attach(r)

	test.That(t, temp.Measure(), test.ShouldBeNil)
	temp.Detach(r)
	test.That(t, temp.Measure(), test.ShouldBeNil)
	test.That(t, temp.Measure(), test.ShouldBeNil)
	test.That(t, r.values, test.ShouldHaveLength, 1)

	// other sensors keep notifying
	test.That(t, press.Measure(), test.ShouldBeNil)
	test.That(t, r.values, test.ShouldHaveLength, 2)
	test.That(t, r.values[1], test.ShouldEqual, press.Value())
}

func TestDetachAbsentIsNoop(t *testing.T) {
	s := NewTemperature(WithSeed(5))
	attached := &recorder{}
	s.Attach(attached)
	s.Detach(&recorder{})

	test.That(t, s.Measure(), test.ShouldBeNil)
	test.That(t, attached.values, test.ShouldHaveLength, 1)
}

func TestDetachRemovesFirstOccurrenceOnly(t *testing.T) {
	s := NewTemperature(WithSeed(6))
	r := &recorder{}
	s.Attach(r)
	s.Attach(r)
	s.Detach(r)

	test.That(t, s.Measure(), test.ShouldBeNil)
	test.That(t, r.values, test.ShouldHaveLength, 1)
}

func TestAttachTwiceNotifiesTwice(t *testing.T) {
	s := NewPressure(WithSeed(7))
	r := &recorder{}
	s.Attach(r)
	s.Attach(r)

	test.That(t, s.Measure(), test.ShouldBeNil)
	test.That(t, r.values, test.ShouldResemble, []float64{s.Value(), s.Value()})
}

func TestDetachDuringNotify(t *testing.T) {
	s := NewTemperature(WithSeed(8))
	d := &detacher{sensor: s}
	after := &recorder{}
	s.Attach(d)
	s.Attach(after)

	test.That(t, s.Measure(), test.ShouldBeNil)
	test.That(t, after.values, test.ShouldHaveLength, 1)

	test.That(t, s.Measure(), test.ShouldBeNil)
	test.That(t, d.calls, test.ShouldEqual, 1)
	test.That(t, after.values, test.ShouldHaveLength, 2)
}

func TestPanickingObserverIsIsolated(t *testing.T) {
	core, logs := zapobserver.New(zapcore.ErrorLevel)
	s := NewTemperature(WithSeed(9), WithLogger(zap.New(core).Sugar()))
	before := &recorder{}
	after := &recorder{}
	s.Attach(before)
	s.Attach(panicker{})
	s.Attach(after)

	err := s.Measure()
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "boom")
	test.That(t, before.values, test.ShouldResemble, []float64{s.Value()})
	test.That(t, after.values, test.ShouldResemble, []float64{s.Value()})
	test.That(t, logs.FilterMessage("observer failed").Len(), test.ShouldEqual, 1)
}

func TestValueBounds(t *testing.T) {
	for _, tc := range []struct {
		kind Kind
		max  float64
	}{
		{KindTemperature, 100},
		{KindPressure, 200},
	} {
		t.Run(string(tc.kind), func(t *testing.T) {
			s, err := New(string(tc.kind))
			test.That(t, err, test.ShouldBeNil)
			for i := 0; i < 1000; i++ {
				test.That(t, s.Measure(), test.ShouldBeNil)
				v := s.Value()
				if v < 0 || v >= tc.max {
					t.Fatalf("sample %d: %v outside [0, %v)", i, v, tc.max)
				}
			}
		})
	}
}

func TestSeededSensorsAgree(t *testing.T) {
	a := NewPressure(WithSeed(42))
	b := NewPressure(WithSeed(42))
	for i := 0; i < 10; i++ {
		test.That(t, a.Measure(), test.ShouldBeNil)
		test.That(t, b.Measure(), test.ShouldBeNil)
		test.That(t, a.Value(), test.ShouldEqual, b.Value())
	}
}

func TestMeasureLogLine(t *testing.T) {
	core, logs := zapobserver.New(zapcore.InfoLevel)
	s := NewPressure(WithSeed(10), WithLogger(zap.New(core).Sugar()))
	test.That(t, s.Measure(), test.ShouldBeNil)

	entries := logs.All()
	test.That(t, entries, test.ShouldHaveLength, 1)
	test.That(t, entries[0].Message, test.ShouldEqual,
		fmt.Sprintf("Pressure Sensor measured pressure: %v Pa", s.Value()))
}

func TestReceiverEndToEnd(t *testing.T) {
	core, logs := zapobserver.New(zapcore.InfoLevel)
	logger := zap.New(core).Sugar()

	s, err := New("Temperature", WithLogger(logger))
	test.That(t, err, test.ShouldBeNil)
	r := NewReceiver("R1", WithLogger(logger))
	test.That(t, r.Name(), test.ShouldEqual, "R1")
	s.Attach(r)
	test.That(t, s.Measure(), test.ShouldBeNil)

	received := logs.FilterMessageSnippet("received new sensor data")
	test.That(t, received.Len(), test.ShouldEqual, 1)

	var v float64
	_, err = fmt.Sscanf(received.All()[0].Message, "R1 received new sensor data: %g", &v)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, v, test.ShouldEqual, s.Value())
	test.That(t, v, test.ShouldBeGreaterThanOrEqualTo, 0.0)
	test.That(t, v, test.ShouldBeLessThan, 100.0)
}

type tagged struct {
	tags []string
	got  *int
}

func (o tagged) Update(float64) { *o.got++ }

type boxed struct {
	inner interface{}
}

func (boxed) Update(float64) {}

func TestDetachUncomparableObservers(t *testing.T) {
	s := NewTemperature(WithSeed(11))
	got := 0
	s.Attach(tagged{tags: []string{"a"}, got: &got})
	var fromFunc []float64
	s.Attach(ObserverFunc(func(v float64) { fromFunc = append(fromFunc, v) }))
	s.Attach(boxed{inner: []int{1}})
	r := &recorder{}
	s.Attach(r)

	s.Detach(tagged{tags: []string{"b"}, got: &got})
	s.Detach(ObserverFunc(func(float64) {}))
	s.Detach(boxed{inner: []int{1}})
	s.Detach(&recorder{})

	test.That(t, s.Measure(), test.ShouldBeNil)
	test.That(t, got, test.ShouldEqual, 1)
	test.That(t, fromFunc, test.ShouldResemble, []float64{s.Value()})
	test.That(t, r.values, test.ShouldHaveLength, 1)

	// comparable observers behind uncomparable ones are still found
	s.Detach(r)
	test.That(t, s.Measure(), test.ShouldBeNil)
	test.That(t, r.values, test.ShouldHaveLength, 1)
	test.That(t, got, test.ShouldEqual, 2)
}
