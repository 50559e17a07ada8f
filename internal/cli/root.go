// Package cli wires nesgo's command-line surface: a single root command
// that loads a ROM, runs it, and optionally emits a trace log. This is
// the one part of the module that is explicitly out of scope for
// behavioral fidelity (the host CLI's argument-parsing surface is a
// named Non-goal) — it exists only so the module is runnable.
package cli

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"nescore/internal/bus"
	"nescore/internal/cartridge"
	"nescore/internal/config"
	"nescore/internal/cpu"
	"nescore/internal/trace"
	"nescore/internal/version"
)

var (
	romFile    string
	configFile string
	traceOut   string
	loopGuard  int
	debug      bool
)

var rootCmd = &cobra.Command{
	Use:   "nesgo",
	Short: "A MOS 6502/Famicom CPU core",
	Long: `nesgo loads an iNES ROM image, runs it against a MOS 6502 interpreter
and NES memory bus, and optionally writes a Nintendulator-format trace
log of every instruction executed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.NewConfig()
		if configFile != "" {
			if err := cfg.LoadFromFile(configFile); err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
		}
		if romFile != "" {
			cfg.ROMPath = romFile
		}
		if traceOut != "" {
			cfg.TraceEnabled = true
			cfg.TracePath = traceOut
		}

		if cfg.ROMPath == "" {
			return fmt.Errorf("--rom is required")
		}

		return runROM(cfg, loopGuard, debug)
	},
}

func init() {
	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true

	rootCmd.Flags().StringVar(&romFile, "rom", "", "path to an iNES ROM file")
	rootCmd.Flags().StringVar(&configFile, "config", "", "path to a JSON config file")
	rootCmd.Flags().StringVar(&traceOut, "trace", "", "write a Nintendulator-format trace to this path")
	rootCmd.Flags().IntVar(&loopGuard, "loop-guard", 0, "panic if PC is stuck for this many steps (0 disables)")
	rootCmd.Flags().BoolVar(&debug, "debug", false, "on a decode error, dump CPU state before panicking")

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information and exit",
	Run: func(cmd *cobra.Command, args []string) {
		version.PrintBuildInfo()
	},
}

// Execute runs the root command, parsing os.Args.
func Execute() error {
	return rootCmd.Execute()
}

// runROM loads the ROM named in cfg, resets the CPU, and runs it to
// completion (BRK, a fatal decode error, or a tripped loop guard),
// optionally recording a trace line per instruction.
func runROM(cfg *config.Config, loopGuard int, debug bool) (err error) {
	raw, err := os.ReadFile(cfg.ROMPath)
	if err != nil {
		return fmt.Errorf("reading rom: %w", err)
	}

	rom, err := cartridge.Load(raw)
	if err != nil {
		return fmt.Errorf("loading rom: %w", err)
	}

	b := bus.New()
	b.LoadCartridge(rom)

	c := cpu.New(b)
	c.Reset()
	if loopGuard > 0 {
		c.SetLoopGuard(loopGuard)
	}

	var traceFile *os.File
	if cfg.TraceEnabled {
		traceFile, err = os.Create(cfg.TracePath)
		if err != nil {
			return fmt.Errorf("opening trace file: %w", err)
		}
		defer traceFile.Close()
	}

	if debug || !cfg.PanicOnDecodeError {
		defer func() {
			if r := recover(); r != nil {
				if debug {
					log.Printf("nesgo: CPU state at decode error:\n%s", c.DumpState())
				}
				if cfg.PanicOnDecodeError {
					panic(r)
				}
				err = fmt.Errorf("recovered decode error: %v", r)
			}
		}()
	}

	return c.RunWithCallback(func(c *cpu.CPU) {
		if traceFile != nil {
			fmt.Fprintln(traceFile, trace.Format(c))
		}
	})
}
