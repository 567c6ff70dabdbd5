package main

import (
	"errors"
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
)

// ToneOut is a line that can carry a square wave.  gpio.PinOut satisfies it.
type ToneOut interface {
	Out(l gpio.Level) error
	PWM(duty gpio.Duty, f physic.Frequency) error
}

// Tone is one step of a schedule: sound Freq for Duration, then stay silent
// for Pause before the next step.
type Tone struct {
	Freq     physic.Frequency
	Duration time.Duration
	Pause    time.Duration
}

// startupTones is the rising arpeggio played at boot (700ms).
var startupTones = []Tone{
	{Freq: 523 * physic.Hertz, Duration: 150 * time.Millisecond, Pause: 50 * time.Millisecond},
	{Freq: 659 * physic.Hertz, Duration: 150 * time.Millisecond, Pause: 50 * time.Millisecond},
	{Freq: 784 * physic.Hertz, Duration: 150 * time.Millisecond, Pause: 50 * time.Millisecond},
	{Freq: 1047 * physic.Hertz, Duration: 100 * time.Millisecond},
}

// alertTones is one repetition of the alert signature.
var alertTones = []Tone{
	{Freq: 1000 * physic.Hertz, Duration: 200 * time.Millisecond, Pause: 100 * time.Millisecond},
	{Freq: 1500 * physic.Hertz, Duration: 200 * time.Millisecond, Pause: 100 * time.Millisecond},
	{Freq: 1000 * physic.Hertz, Duration: 200 * time.Millisecond, Pause: 100 * time.Millisecond},
	{Freq: 1500 * physic.Hertz, Duration: 200 * time.Millisecond, Pause: 100 * time.Millisecond},
	{Freq: 2000 * physic.Hertz, Duration: 400 * time.Millisecond, Pause: 100 * time.Millisecond},
}

const (
	alertRepetitions = 2
	alertGap         = time.Second
)

// AlertActuator owns the indicator LEDs, the relay and the buzzer.
type AlertActuator struct {
	red    DigitalOut
	green  DigitalOut
	relay  DigitalOut
	buzzer ToneOut
	sleep  sleepFunc
	logger *EventLogger
}

// NewAlertActuator binds the actuator to its output lines.
func NewAlertActuator(red, green, relay DigitalOut, buzzer ToneOut, sleep sleepFunc, logger *EventLogger) *AlertActuator {
	return &AlertActuator{red: red, green: green, relay: relay, buzzer: buzzer, sleep: sleep, logger: logger}
}

// Trigger switches to the danger pattern: red on, green off, relay closed.
func (a *AlertActuator) Trigger() {
	a.report("trigger", errors.Join(
		a.red.Out(gpio.High),
		a.green.Out(gpio.Low),
		a.relay.Out(gpio.High),
	))
}

// Reset switches to the safe pattern: buzzer silent, red off, green on,
// relay open.
func (a *AlertActuator) Reset() {
	a.report("reset", errors.Join(
		a.buzzer.Out(gpio.Low),
		a.red.Out(gpio.Low),
		a.green.Out(gpio.High),
		a.relay.Out(gpio.Low),
	))
}

// PlayStartupSound plays the boot arpeggio and blocks until it is done.
func (a *AlertActuator) PlayStartupSound() {
	a.report("startup sound", a.play(startupTones))
}

// PlayAlertSound plays the alert signature twice with a one second gap and
// blocks until it is done.
func (a *AlertActuator) PlayAlertSound() {
	var errs []error
	for i := 0; i < alertRepetitions; i++ {
		if i > 0 {
			a.sleep(alertGap)
		}
		errs = append(errs, a.play(alertTones))
	}
	a.report("alert sound", errors.Join(errs...))
}

// play runs a schedule and always leaves the buzzer silent.
func (a *AlertActuator) play(tones []Tone) error {
	var errs []error
	for _, t := range tones {
		errs = append(errs, a.buzzer.PWM(gpio.DutyHalf, t.Freq))
		a.sleep(t.Duration)
		errs = append(errs, a.buzzer.Out(gpio.Low))
		if t.Pause > 0 {
			a.sleep(t.Pause)
		}
	}
	return errors.Join(errs...)
}

func (a *AlertActuator) report(op string, err error) {
	if err != nil && a.logger != nil {
		a.logger.Error(fmt.Sprintf("actuator %s failed", op), err)
	}
}
