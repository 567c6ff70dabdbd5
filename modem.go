package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	"go.bug.st/serial"
)

// ctrlZ ends the body of an SMS in text mode.
const ctrlZ = 26

// modemCommandDelay is how long the modem is given to digest each write.
const modemCommandDelay = time.Second

// Modem sends SMS through a SIM800/SIM900 style GSM modem using AT commands.
// Responses are never read: the port is treated as write-only.
type Modem struct {
	w         io.Writer
	recipient string
	sleep     sleepFunc
}

// NewModem wraps an already opened transport.
func NewModem(w io.Writer, recipient string, sleep sleepFunc) *Modem {
	return &Modem{w: w, recipient: recipient, sleep: sleep}
}

// OpenModemPort opens the serial device at 8N1 and the given baud rate.
func OpenModemPort(cfg ModemConfig) (io.WriteCloser, error) {
	port, err := serial.Open(cfg.Port, &serial.Mode{
		BaudRate: cfg.BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("open modem port %s: %w", cfg.Port, err)
	}
	return port, nil
}

// Name returns the type name of the alert handler.
func (*Modem) Name() string { return "sms" }

// SendMessage writes text mode selection, the addressed send command, the
// body with the reading, and Ctrl+Z, pausing between writes.  All four writes
// are attempted even if one fails, so the modem is never left waiting for a
// body that was never terminated.
func (m *Modem) SendMessage(text string, reading int) error {
	parts := [][]byte{
		[]byte("AT+CMGF=1\r\n"),
		[]byte(fmt.Sprintf("AT+CMGS=\"%s\"\r\n", m.recipient)),
		[]byte(fmt.Sprintf("%s\r\n%s\r\n", text, gasLevelLine(reading))),
		{ctrlZ},
	}
	var errs []error
	for i, p := range parts {
		if i > 0 {
			m.sleep(modemCommandDelay)
		}
		if _, err := m.w.Write(p); err != nil {
			errs = append(errs, fmt.Errorf("modem write %d: %w", i+1, err))
		}
	}
	return errors.Join(errs...)
}
