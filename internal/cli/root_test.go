package cli

import (
	"os"
	"path/filepath"
	"testing"

	"nescore/internal/config"
)

func newTestConfig(t *testing.T, romPath string) *config.Config {
	t.Helper()
	cfg := config.NewConfig()
	cfg.ROMPath = romPath
	return cfg
}

// writeTestROM writes a minimal one-bank NROM image whose program is a
// single BRK, so runROM returns almost immediately.
func writeTestROM(t *testing.T, dir string) string {
	t.Helper()
	header := []byte{0x4E, 0x45, 0x53, 0x1A, 0x01, 0x00, 0x00, 0x00, 0, 0, 0, 0, 0, 0, 0, 0}
	prg := make([]byte, 16384)
	prg[0] = 0x00           // BRK
	prg[0x3FFC] = 0x00      // reset vector low byte -> $8000
	prg[0x3FFD] = 0x80      // reset vector high byte
	path := filepath.Join(dir, "test.nes")
	data := append(append([]byte{}, header...), prg...)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("writing test rom: %v", err)
	}
	return path
}

func TestRunROMHaltsOnBRK(t *testing.T) {
	dir := t.TempDir()
	romPath := writeTestROM(t, dir)

	cfg := newTestConfig(t, romPath)
	if err := runROM(cfg, 0, false); err != nil {
		t.Fatalf("runROM returned error: %v", err)
	}
}

func TestRunROMWritesTraceFile(t *testing.T) {
	dir := t.TempDir()
	romPath := writeTestROM(t, dir)
	tracePath := filepath.Join(dir, "trace.log")

	cfg := newTestConfig(t, romPath)
	cfg.TraceEnabled = true
	cfg.TracePath = tracePath

	if err := runROM(cfg, 0, false); err != nil {
		t.Fatalf("runROM returned error: %v", err)
	}

	data, err := os.ReadFile(tracePath)
	if err != nil {
		t.Fatalf("reading trace file: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("trace file must not be empty")
	}
}

func TestRunROMErrorsOnMissingFile(t *testing.T) {
	cfg := newTestConfig(t, "/nonexistent/rom.nes")
	if err := runROM(cfg, 0, false); err == nil {
		t.Fatal("expected an error for a missing ROM file")
	}
}
