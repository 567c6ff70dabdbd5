package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestEventLogger_FailingSensorStaysQuietInFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.log")
	logger, err := NewEventLogger(path, 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	sensor := NewGasSensor(fakeADC{err: errors.New("i2c nack")}, logger)
	for i := 0; i < 100; i++ {
		r := sensor.Read()
		logger.Cycle(Cycle{Reading: r, Threshold: 500, Condition: Classify(r, 500)})
	}
	if err := logger.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	text := string(data)
	if strings.Contains(text, "sensor read failed") || strings.Contains(text, "stacktrace") {
		t.Fatalf("debug noise reached the event file:\n%s", text[:200])
	}
	if n := strings.Count(text, "\n"); n != 100 {
		t.Fatalf("want 100 cycle lines, got %d", n)
	}
	if perCycle := len(data) / 100; perCycle > 250 {
		t.Fatalf("cycle line too large: %d bytes", perCycle)
	}
}

func TestEventLogger_ErrorsCarryNoStacktrace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.log")
	logger, err := NewEventLogger(path, 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	logger.Error("notification failed", errors.New("no carrier"))
	_ = logger.Close()
	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "no carrier") || strings.Contains(string(data), "stacktrace") {
		t.Fatalf("unexpected entry: %s", data)
	}
}

func TestEventLogger_RotatesAtSizeLimit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "events.log")
	logger, err := NewEventLogger(path, 1, 2)
	if err != nil {
		t.Fatal(err)
	}
	// About 2 MB of entries against a 1 MB cap.
	filler := strings.Repeat("x", 500)
	for i := 0; i < 3500; i++ {
		logger.Log("%d %s", i, filler)
	}
	if err := logger.Close(); err != nil {
		t.Fatal(err)
	}

	files, err := filepath.Glob(filepath.Join(dir, "events*.log"))
	if err != nil {
		t.Fatal(err)
	}
	if len(files) < 2 || len(files) > 3 {
		t.Fatalf("want the live file plus up to 2 backups, got %v", files)
	}
	for _, f := range files {
		info, err := os.Stat(f)
		if err != nil {
			t.Fatal(err)
		}
		if info.Size() > 1<<20 {
			t.Fatalf("%s is %d bytes, over the 1 MB cap", f, info.Size())
		}
	}
}

func TestNewEventLogger_RejectsZeroSize(t *testing.T) {
	if _, err := NewEventLogger(filepath.Join(t.TempDir(), "e.log"), 0, 1); err == nil {
		t.Fatal("expected error for zero max size")
	}
}
