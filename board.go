package main

import "errors"

// Board collects the physical lines the program drives.  openBoard, defined
// per platform in hal.go and hal_rpi.go, fills it in from the pin map.
type Board struct {
	ADC     ADC
	LCDRS   DigitalOut
	LCDE    DigitalOut
	LCDData [4]DigitalOut // D4..D7
	Buzzer  ToneOut
	Red     DigitalOut
	Green   DigitalOut
	Relay   DigitalOut
	closer  releaseStack
}

// Close halts the ADC, releases the I2C bus and the output lines.
func (b *Board) Close() error {
	return b.closer.release()
}

// releaseStack undoes acquisitions in reverse order.  openBoard pushes a
// release step after each resource it claims so a failure halfway through
// can give back everything claimed so far.
type releaseStack []func() error

func (s *releaseStack) push(f func() error) {
	*s = append(*s, f)
}

// release runs every step, last pushed first, and empties the stack.  A
// failing step does not stop the rest.
func (s *releaseStack) release() error {
	var errs []error
	for i := len(*s) - 1; i >= 0; i-- {
		errs = append(errs, (*s)[i]())
	}
	*s = nil
	return errors.Join(errs...)
}
