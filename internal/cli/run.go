package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/db47h/hwtb"
	"github.com/db47h/hwtb/counter"
	"github.com/db47h/hwtb/internal/config"
	"github.com/db47h/hwtb/internal/history"
	"github.com/db47h/hwtb/internal/logging"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Report is the YAML run report written with --report.
type Report struct {
	ID         string       `yaml:"id"`
	Started    time.Time    `yaml:"started"`
	Device     string       `yaml:"device"`
	VCDFile    string       `yaml:"vcd_file"`
	Passed     bool         `yaml:"passed"`
	Mismatches int          `yaml:"mismatches"`
	Result     *hwtb.Result `yaml:"result"`
}

func newDevice(cfg *config.Config) (hwtb.Device, error) {
	switch cfg.Device {
	case config.DeviceModel:
		return counter.NewModel(), nil
	case config.DeviceGates:
		return counter.NewGates(cfg.Workers)
	}
	return nil, errors.Errorf("unknown device %q", cfg.Device)
}

func runSimulation(ctx context.Context, cfg *config.Config, stdout, stderr io.Writer) error {
	log := logging.New(cfg.Logging.Level, stderr)

	var table *hwtb.Table
	if cfg.Table != "" {
		var err error
		if table, err = hwtb.ReadTableFile(cfg.Table); err != nil {
			return WrapExitError(ExitFailure, "load expectation table", err)
		}
	}

	dev, err := newDevice(cfg)
	if err != nil {
		return WrapExitError(ExitFailure, "create device", err)
	}
	sink, err := hwtb.OpenVCD(cfg.VCDFile, dev)
	if err != nil {
		dev.Final()
		return WrapExitError(ExitFailure, "create trace", err)
	}
	log.Debug("trace opened", "path", cfg.VCDFile, "device", cfg.Device)

	started := time.Now()
	res, err := hwtb.New(dev, sink, hwtb.Config{
		Mode:      cfg.Mode(),
		Table:     table,
		MaxCycles: cfg.Cycles,
		Ports:     cfg.Ports,
		Out:       stdout,
		Logger:    log,
	}).Run()
	if err != nil {
		return WrapExitError(ExitFailure, "simulation failed", err)
	}

	run := history.NewRun(started, cfg.Device, cfg.VCDFile, res)
	if cfg.Report != "" {
		if err := writeReport(cfg.Report, run, res); err != nil {
			return WrapExitError(ExitFailure, "write report", err)
		}
	}
	if cfg.History != "" {
		if err := record(ctx, cfg.History, run, log); err != nil {
			return WrapExitError(ExitFailure, "record history", err)
		}
	}

	if cfg.Strict && !res.Passed() {
		return NewExitError(ExitCheckFailure, fmt.Sprintf("%d check(s) failed", res.Mismatches()))
	}
	return nil
}

func writeReport(path string, run *history.Run, res *hwtb.Result) error {
	data, err := yaml.Marshal(&Report{
		ID:         run.ID,
		Started:    run.Started,
		Device:     run.Device,
		VCDFile:    run.VCDFile,
		Passed:     run.Passed,
		Mismatches: run.Failures,
		Result:     res,
	})
	if err != nil {
		return errors.Wrap(err, "encode report")
	}
	return errors.Wrap(os.WriteFile(path, data, 0644), "write report")
}

func record(ctx context.Context, path string, run *history.Run, log *slog.Logger) error {
	s, err := history.Open(path)
	if err != nil {
		return err
	}
	defer s.Close()
	if err := s.Record(ctx, run); err != nil {
		return err
	}
	log.Debug("run recorded", "id", run.ID, "history", path)
	return nil
}
