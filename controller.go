package main

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Messages shown and sent by the control loop.
const (
	alertText        = "Excess Gas Detected"
	msgScanOn        = "Gas Scan is ON"
	msgLevelNormal   = "Gas Level Normal"
	msgLevelExceeded = "Gas Level Exceed"
	msgSMSSent       = "SMS Sent"
)

// Sensor produces one reading per call.
type Sensor interface {
	Read() int
}

// Presenter renders status text.
type Presenter interface {
	ShowMessage(line1 string, line2 ...string)
	ShowGasLevel(reading int)
}

// Actuator drives the indicator, relay and buzzer outputs.
type Actuator interface {
	Trigger()
	Reset()
	PlayStartupSound()
	PlayAlertSound()
}

// CycleObserver receives every completed cycle.  Observers run on the
// control loop and must not block for long.
type CycleObserver interface {
	Observe(c Cycle)
}

// Controller is the sense-decide-act loop.  It holds no state between
// cycles apart from its collaborators.
type Controller struct {
	sensor    Sensor
	presenter Presenter
	actuator  Actuator
	notifier  Notifier
	threshold int
	interval  time.Duration
	sleep     sleepFunc
	logger    *EventLogger
	observers []CycleObserver
	now       func() time.Time
}

// NewController wires the loop.  interval is the nominal pause after each
// cycle; a danger cycle takes several seconds longer because the modem and
// the alert sound block.
func NewController(s Sensor, p Presenter, a Actuator, n Notifier, threshold int, interval time.Duration, sleep sleepFunc, logger *EventLogger) *Controller {
	return &Controller{
		sensor:    s,
		presenter: p,
		actuator:  a,
		notifier:  n,
		threshold: threshold,
		interval:  interval,
		sleep:     sleep,
		logger:    logger,
		now:       time.Now,
	}
}

// AddObserver registers o to receive every cycle.
func (c *Controller) AddObserver(o CycleObserver) {
	c.observers = append(c.observers, o)
}

// Start puts the outputs in the safe pattern, shows the banner and plays the
// startup sound.
func (c *Controller) Start() {
	c.actuator.Reset()
	c.presenter.ShowMessage(msgScanOn)
	c.actuator.PlayStartupSound()
	c.logger.Log("gas scan started, threshold %d", c.threshold)
}

// Step runs exactly one cycle and returns what happened.  It never sleeps
// the poll interval; Run does that.
func (c *Controller) Step() Cycle {
	reading := c.sensor.Read()
	c.presenter.ShowGasLevel(reading)

	cycle := Cycle{
		Time:      c.now(),
		Reading:   reading,
		Threshold: c.threshold,
		Condition: Classify(reading, c.threshold),
	}
	switch cycle.Condition {
	case ConditionDanger:
		c.actuator.Trigger()
		if err := c.notifier.SendMessage(alertText, reading); err != nil {
			c.logger.Error("notification failed", err,
				zap.String("notifier", c.notifier.Name()),
				zap.Int("reading", reading))
		}
		cycle.Notified = true
		c.actuator.PlayAlertSound()
		c.presenter.ShowMessage(msgLevelExceeded, msgSMSSent)
	default:
		c.actuator.Reset()
		c.presenter.ShowMessage(msgLevelNormal)
	}

	c.logger.Cycle(cycle)
	for _, o := range c.observers {
		o.Observe(cycle)
	}
	return cycle
}

// Run loops until ctx is cancelled.  Cancellation is only checked between
// cycles, so a cycle that has started always completes.
func (c *Controller) Run(ctx context.Context) {
	for ctx.Err() == nil {
		c.Step()
		c.sleep(c.interval)
	}
	c.logger.Log("gas scan stopped")
}
