// Package cli implements the tbcounter command line.
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/db47h/hwtb/internal/config"
	"github.com/spf13/cobra"
)

const msgUsage = "invalid usage"

const longHelp = `tbcounter drives a simulated 8 bit up/down counter through reset, increment,
decrement and initialization phases, records a VCD waveform and checks the
counter output at fixed clock cycles.`

func noArgs(cmd *cobra.Command, args []string) error {
	if err := cobra.NoArgs(cmd, args); err != nil {
		return WrapExitError(ExitFailure, msgUsage, err)
	}
	return nil
}

// options holds the command line flags. Flags explicitly set on the command
// line override the configuration file.
type options struct {
	configFile string
	vcdFile    string
	display    bool
	table      string
	cycles     uint64
	device     string
	workers    int
	strict     bool
	report     string
	history    string
	logLevel   string
}

// NewRootCommand creates the tbcounter root command. Verdicts and display
// lines go to stdout, logs and errors to stderr.
func NewRootCommand(stdout, stderr io.Writer) *cobra.Command {
	opts := &options{}
	def := config.Default()

	cmd := &cobra.Command{
		Use:           "tbcounter",
		Short:         "Run the up/down counter testbench",
		Long:          longHelp,
		Args:          noArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.config(cmd)
			if err != nil {
				return err
			}
			return runSimulation(cmd.Context(), cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return WrapExitError(ExitFailure, msgUsage, err)
	})

	f := cmd.Flags()
	f.StringVarP(&opts.vcdFile, "vcd_file", "v", def.VCDFile, "waveform trace `path`")
	f.BoolVar(&opts.display, "display", def.Display, "display-only mode: print the counter state every cycle, no checks")
	f.StringVar(&opts.table, "table", def.Table, "YAML expectation table `file` (default: built-in table)")
	f.Uint64Var(&opts.cycles, "cycles", def.Cycles, "cycle budget")
	f.StringVar(&opts.device, "device", def.Device, "device implementation (gates|model)")
	f.IntVar(&opts.workers, "workers", def.Workers, "engine worker goroutines of the gates device (0: GOMAXPROCS)")
	f.BoolVar(&opts.strict, "strict", def.Strict, "exit with code 2 if any check failed")
	f.StringVar(&opts.report, "report", def.Report, "write a YAML run report to `file`")

	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.configFile, "config", "", "YAML configuration `file`")
	pf.StringVar(&opts.history, "history", def.History, "SQLite run history `database`")
	pf.StringVar(&opts.logLevel, "log-level", def.Logging.Level, "log level (debug|info|warn|error)")

	cmd.AddCommand(newHistoryCommand(opts))

	return cmd
}

// config returns the effective configuration: defaults, then the
// configuration file, then flags set on the command line.
func (o *options) config(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Default()
	if o.configFile != "" {
		var err error
		if cfg, err = config.Load(o.configFile); err != nil {
			return nil, WrapExitError(ExitFailure, "configuration", err)
		}
	}
	set := func(name string, apply func()) {
		if cmd.Flags().Changed(name) {
			apply()
		}
	}
	set("vcd_file", func() { cfg.VCDFile = o.vcdFile })
	set("display", func() { cfg.Display = o.display })
	set("table", func() { cfg.Table = o.table })
	set("cycles", func() { cfg.Cycles = o.cycles })
	set("device", func() { cfg.Device = o.device })
	set("workers", func() { cfg.Workers = o.workers })
	set("strict", func() { cfg.Strict = o.strict })
	set("report", func() { cfg.Report = o.report })
	set("history", func() { cfg.History = o.history })
	set("log-level", func() { cfg.Logging.Level = o.logLevel })
	if err := cfg.Validate(); err != nil {
		return nil, WrapExitError(ExitFailure, "configuration", err)
	}
	return cfg, nil
}

// Execute runs the tbcounter command with the given arguments and returns
// the process exit code.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := NewRootCommand(stdout, stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintf(stderr, "tbcounter: %v\n", err)
		if e, ok := err.(*ExitError); ok && e.Message == msgUsage {
			fmt.Fprintln(stderr, "Run 'tbcounter --help' for usage.")
		}
	}
	return GetExitCode(err)
}
