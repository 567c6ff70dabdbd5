package main

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"periph.io/x/conn/v3/analog"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
)

// ---- logging ----

func newTestLogger(t *testing.T) (*EventLogger, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	return newEventLoggerWith(zap.New(core)), logs
}

// ---- pins and timing ----

type fakePin struct {
	level gpio.Level
	freq  physic.Frequency
	outs  int
	tones []physic.Frequency
	err   error
}

func (p *fakePin) Out(l gpio.Level) error {
	p.level, p.freq = l, 0
	p.outs++
	return p.err
}

func (p *fakePin) PWM(duty gpio.Duty, f physic.Frequency) error {
	p.level, p.freq = duty > 0, f
	p.tones = append(p.tones, f)
	return p.err
}

type sleepRecorder struct {
	calls []time.Duration
}

func (s *sleepRecorder) sleep(d time.Duration) { s.calls = append(s.calls, d) }

func (s *sleepRecorder) total() time.Duration {
	var sum time.Duration
	for _, d := range s.calls {
		sum += d
	}
	return sum
}

type fakeADC struct {
	raw int32
	err error
}

func (a fakeADC) Read() (analog.Sample, error) { return analog.Sample{Raw: a.raw}, a.err }

// ---- controller collaborators sharing one journal ----

type journal struct {
	events []string
}

func (j *journal) add(format string, args ...any) {
	j.events = append(j.events, fmt.Sprintf(format, args...))
}

func (j *journal) String() string { return strings.Join(j.events, " | ") }

type fakeSensor struct {
	j        *journal
	readings []int
}

func (s *fakeSensor) Read() int {
	v := s.readings[0]
	if len(s.readings) > 1 {
		s.readings = s.readings[1:]
	}
	s.j.add("read %d", v)
	return v
}

type fakePresenter struct{ j *journal }

func (p fakePresenter) ShowMessage(line1 string, line2 ...string) {
	p.j.add("show %q %q", line1, strings.Join(line2, ""))
}

func (p fakePresenter) ShowGasLevel(reading int) { p.j.add("level %d", reading) }

type fakeActuator struct{ j *journal }

func (a fakeActuator) Trigger()          { a.j.add("trigger") }
func (a fakeActuator) Reset()            { a.j.add("reset") }
func (a fakeActuator) PlayStartupSound() { a.j.add("startup sound") }
func (a fakeActuator) PlayAlertSound()   { a.j.add("alert sound") }

type fakeNotifier struct {
	j    *journal
	name string
	err  error
	sent []string
}

func (n *fakeNotifier) Name() string {
	if n.name == "" {
		return "fake"
	}
	return n.name
}

func (n *fakeNotifier) SendMessage(text string, reading int) error {
	if n.j != nil {
		n.j.add("notify %q %d", text, reading)
	}
	n.sent = append(n.sent, fmt.Sprintf("%s/%d", text, reading))
	return n.err
}

// ---- display ----

type fakeDisplay struct {
	lines  [lcdRows]string
	row    int
	clears int
	err    error
}

func (d *fakeDisplay) Clear() error {
	d.lines = [lcdRows]string{}
	d.clears++
	return d.err
}

func (d *fakeDisplay) SetCursor(col, row int) error {
	d.row = row
	return d.err
}

func (d *fakeDisplay) Print(s string) error {
	d.lines[d.row] += s
	return d.err
}
