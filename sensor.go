package main

import (
	"go.uber.org/zap"
	"periph.io/x/conn/v3/analog"
)

// ADC is the part of periph's analog.PinADC the gas sensor needs.
type ADC interface {
	Read() (analog.Sample, error)
}

// GasSensor samples the analog gas sensor.  Readings are unfiltered.
type GasSensor struct {
	adc    ADC
	logger *EventLogger
}

// NewGasSensor wraps an ADC channel.
func NewGasSensor(adc ADC, logger *EventLogger) *GasSensor {
	return &GasSensor{adc: adc, logger: logger}
}

// Read returns the current reading in [0, MaxAnalog].  The ADS1115 delivers a
// signed 16-bit sample; single-ended inputs only use the positive half, which
// is shifted down to 10 bits.  A failed conversion reads as 0, the same as a
// disconnected sensor.
func (s *GasSensor) Read() int {
	sample, err := s.adc.Read()
	if err != nil {
		if s.logger != nil {
			s.logger.Zap().Debug("sensor read failed", zap.Error(err))
		}
		return 0
	}
	return scaleRaw(sample.Raw)
}

// scaleRaw converts a 15-bit positive sample to the 10-bit reading range.
func scaleRaw(raw int32) int {
	if raw <= 0 {
		return 0
	}
	v := int(raw >> 5)
	if v > MaxAnalog {
		return MaxAnalog
	}
	return v
}

// Classify derives the condition for a reading.  The comparison is strict:
// a reading equal to the threshold is safe.
func Classify(reading, threshold int) Condition {
	if reading > threshold {
		return ConditionDanger
	}
	return ConditionSafe
}
