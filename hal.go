//go:build !(linux && (arm || arm64)) || disablegpio

package main

// This file provides a desktop stand-in for the board so the program can run
// without Raspberry Pi hardware.  Outputs only remember their last level and
// the sensor always reports Config.SimulatedReading.  hal_rpi.go replaces it
// on the Pi.

import (
	"go.uber.org/zap"
	"periph.io/x/conn/v3/analog"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
)

// memPin is an output line that records its state.
type memPin struct {
	name   string
	level  gpio.Level
	freq   physic.Frequency
	logger *EventLogger
}

func (p *memPin) Out(l gpio.Level) error {
	p.level, p.freq = l, 0
	p.logger.Zap().Debug("pin out", zap.String("pin", p.name), zap.Bool("high", bool(l)))
	return nil
}

func (p *memPin) PWM(duty gpio.Duty, f physic.Frequency) error {
	p.level, p.freq = duty > 0, f
	p.logger.Zap().Debug("pin pwm", zap.String("pin", p.name), zap.String("freq", f.String()))
	return nil
}

// simADC returns a fixed reading expressed as a raw ADS1115 sample.
type simADC struct {
	reading int
}

func (s simADC) Read() (analog.Sample, error) {
	return analog.Sample{Raw: int32(s.reading) << 5}, nil
}

// openBoard returns simulated peripherals.
func openBoard(cfg Config, logger *EventLogger) (*Board, error) {
	pin := func(name string) *memPin { return &memPin{name: name, logger: logger} }
	logger.Log("gpio disabled: using simulated board, reading %d", cfg.SimulatedReading)
	return &Board{
		ADC:     simADC{reading: cfg.SimulatedReading},
		LCDRS:   pin("lcd_rs"),
		LCDE:    pin("lcd_e"),
		LCDData: [4]DigitalOut{pin("lcd_d4"), pin("lcd_d5"), pin("lcd_d6"), pin("lcd_d7")},
		Buzzer:  pin("buzzer"),
		Red:     pin("red"),
		Green:   pin("green"),
		Relay:   pin("relay"),
	}, nil
}
