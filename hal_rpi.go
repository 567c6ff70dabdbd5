//go:build linux && (arm || arm64) && !disablegpio

// This file provides the Raspberry Pi implementation of the board using the
// periph.io library.  When building on other platforms or when the build tag
// "disablegpio" is specified, hal.go will be used instead.

package main

import (
	"errors"
	"fmt"

	// Use the new periph module layout.  See https://periph.io/news/2020/a_new_start/
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/ads1x15"
	"periph.io/x/host/v3"
)

var adsChannels = [4]ads1x15.Channel{ads1x15.Channel0, ads1x15.Channel1, ads1x15.Channel2, ads1x15.Channel3}

// outputPin looks up a GPIO by BCM number and drives it low.
func outputPin(n int) (gpio.PinIO, error) {
	p := gpioreg.ByName(fmt.Sprintf("GPIO%d", n))
	if p == nil {
		return nil, fmt.Errorf("GPIO%d not found", n)
	}
	if err := p.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("GPIO%d: %w", n, err)
	}
	return p, nil
}

// releasePin drives a claimed output low and halts it.
func releasePin(p gpio.PinIO) func() error {
	return func() error {
		return errors.Join(p.Out(gpio.Low), p.Halt())
	}
}

// openBoard initialises periph, claims every output line and opens the
// ADS1115 on the default I2C bus.  On failure everything claimed so far is
// released again.
func openBoard(cfg Config, logger *EventLogger) (_ *Board, err error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph host init: %w", err)
	}
	var claimed releaseStack
	defer func() {
		if err != nil {
			if rerr := claimed.release(); rerr != nil {
				logger.Error("release after failed board setup", rerr)
			}
		}
	}()

	pins := cfg.Pins
	numbers := []int{pins.LCDRS, pins.LCDE, pins.LCDD4, pins.LCDD5, pins.LCDD6, pins.LCDD7,
		pins.Buzzer, pins.Red, pins.Green, pins.Relay}
	out := make([]gpio.PinIO, len(numbers))
	for i, n := range numbers {
		p, err := outputPin(n)
		if err != nil {
			return nil, err
		}
		claimed.push(releasePin(p))
		out[i] = p
	}

	bus, err := i2creg.Open("")
	if err != nil {
		return nil, fmt.Errorf("open i2c: %w", err)
	}
	claimed.push(bus.Close)
	adc, err := ads1x15.NewADS1115(bus, &ads1x15.DefaultOpts)
	if err != nil {
		return nil, fmt.Errorf("ads1115: %w", err)
	}
	ch, err := adc.PinForChannel(adsChannels[pins.SensorChannel], 4096*physic.MilliVolt, 8*physic.Hertz, ads1x15.SaveEnergy)
	if err != nil {
		return nil, fmt.Errorf("ads1115 channel %d: %w", pins.SensorChannel, err)
	}
	claimed.push(ch.Halt)
	logger.Log("board ready: ads1115 channel %d, %d gpio outputs", pins.SensorChannel, len(out))

	return &Board{
		ADC:     ch,
		LCDRS:   out[0],
		LCDE:    out[1],
		LCDData: [4]DigitalOut{out[2], out[3], out[4], out[5]},
		Buzzer:  out[6],
		Red:     out[7],
		Green:   out[8],
		Relay:   out[9],
		closer:  claimed,
	}, nil
}
