package main

import (
	"fmt"
)

// Display is what the presenter needs from a character display.
type Display interface {
	Clear() error
	SetCursor(col, row int) error
	Print(s string) error
}

// StatusPresenter renders short status text on the two-line display.
type StatusPresenter struct {
	display Display
	width   int
	logger  *EventLogger
}

// NewStatusPresenter binds the presenter to a display of the given width.
func NewStatusPresenter(d Display, width int, logger *EventLogger) *StatusPresenter {
	return &StatusPresenter{display: d, width: width, logger: logger}
}

// ShowMessage clears the display and writes line1 and, if given, line2.
// Lines longer than the display are cut at its width.
func (p *StatusPresenter) ShowMessage(line1 string, line2 ...string) {
	if err := p.render(line1, line2...); err != nil && p.logger != nil {
		p.logger.Error("display update failed", err)
	}
}

// ShowGasLevel shows the scan banner and the reading.
func (p *StatusPresenter) ShowGasLevel(reading int) {
	p.ShowMessage("Gas Scan is ON", gasLevelLine(reading))
}

func (p *StatusPresenter) render(line1 string, line2 ...string) error {
	if err := p.display.Clear(); err != nil {
		return err
	}
	if err := p.display.SetCursor(0, 0); err != nil {
		return err
	}
	if err := p.display.Print(truncate(line1, p.width)); err != nil {
		return err
	}
	if len(line2) == 0 {
		return nil
	}
	if err := p.display.SetCursor(0, 1); err != nil {
		return err
	}
	return p.display.Print(truncate(line2[0], p.width))
}

func gasLevelLine(reading int) string {
	return fmt.Sprintf("Gas Level: %d", reading)
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
