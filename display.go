package main

import (
	"errors"
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"
)

// DigitalOut is the subset of gpio.PinOut used for plain on/off lines.
type DigitalOut interface {
	Out(l gpio.Level) error
}

// sleepFunc is how every blocking delay in the program is taken.  Production
// code passes time.Sleep; tests pass a recorder.
type sleepFunc func(time.Duration)

// LCD dimensions of the 16x2 character module.
const (
	lcdColumns = 16
	lcdRows    = 2
)

// HD44780 instructions used by the driver.
const (
	lcdClear        = 0x01
	lcdEntryMode    = 0x06 // increment, no shift
	lcdDisplayOn    = 0x0C // display on, cursor off, blink off
	lcdFunction4Bit = 0x28 // 4-bit bus, 2 lines, 5x8 font
	lcdSetDDRAM     = 0x80
)

var lcdRowOffsets = [lcdRows]byte{0x00, 0x40}

// LCD drives an HD44780 character display over a 4-bit bus: six GPIO lines
// (RS, E, D4..D7).  The R/W line is tied low so the busy flag is never read
// and every instruction is followed by its worst-case execution delay.
type LCD struct {
	rs    DigitalOut
	e     DigitalOut
	data  [4]DigitalOut // D4..D7
	sleep sleepFunc
}

// NewLCD returns a driver for the given lines.  Call Init before use.
func NewLCD(rs, e DigitalOut, data [4]DigitalOut, sleep sleepFunc) *LCD {
	return &LCD{rs: rs, e: e, data: data, sleep: sleep}
}

// Init runs the power-on sequence that forces the controller into 4-bit mode
// whatever state it was left in.
func (l *LCD) Init() error {
	l.sleep(50 * time.Millisecond)
	if err := l.rs.Out(gpio.Low); err != nil {
		return fmt.Errorf("lcd rs: %w", err)
	}
	if err := l.e.Out(gpio.Low); err != nil {
		return fmt.Errorf("lcd e: %w", err)
	}
	for _, d := range []time.Duration{4500 * time.Microsecond, 4500 * time.Microsecond, 150 * time.Microsecond} {
		if err := l.writeNibble(0x03); err != nil {
			return err
		}
		l.sleep(d)
	}
	if err := l.writeNibble(0x02); err != nil {
		return err
	}
	for _, cmd := range []byte{lcdFunction4Bit, lcdDisplayOn, lcdEntryMode} {
		if err := l.command(cmd); err != nil {
			return err
		}
	}
	return l.Clear()
}

// Clear blanks the display and homes the cursor.
func (l *LCD) Clear() error {
	if err := l.command(lcdClear); err != nil {
		return err
	}
	l.sleep(2 * time.Millisecond)
	return nil
}

// SetCursor moves to column col of row row (both zero based).
func (l *LCD) SetCursor(col, row int) error {
	if row < 0 || row >= lcdRows || col < 0 || col >= lcdColumns {
		return fmt.Errorf("lcd cursor %d,%d out of range", col, row)
	}
	return l.command(lcdSetDDRAM | (lcdRowOffsets[row] + byte(col)))
}

// Print writes s at the cursor.  Characters outside 7-bit ASCII are shown
// as '?'.
func (l *LCD) Print(s string) error {
	for _, r := range s {
		c := byte('?')
		if r < 0x80 {
			c = byte(r)
		}
		if err := l.write(c, gpio.High); err != nil {
			return err
		}
	}
	return nil
}

func (l *LCD) command(b byte) error {
	return l.write(b, gpio.Low)
}

func (l *LCD) write(b byte, rs gpio.Level) error {
	if err := l.rs.Out(rs); err != nil {
		return fmt.Errorf("lcd rs: %w", err)
	}
	if err := l.writeNibble(b >> 4); err != nil {
		return err
	}
	return l.writeNibble(b & 0x0F)
}

func (l *LCD) writeNibble(n byte) error {
	var errs []error
	for i, p := range l.data {
		errs = append(errs, p.Out(gpio.Level(n&(1<<uint(i)) != 0)))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("lcd data: %w", err)
	}
	return l.pulseEnable()
}

func (l *LCD) pulseEnable() error {
	if err := l.e.Out(gpio.High); err != nil {
		return fmt.Errorf("lcd e: %w", err)
	}
	l.sleep(time.Microsecond)
	if err := l.e.Out(gpio.Low); err != nil {
		return fmt.Errorf("lcd e: %w", err)
	}
	// Most instructions need 37us to settle.
	l.sleep(100 * time.Microsecond)
	return nil
}
