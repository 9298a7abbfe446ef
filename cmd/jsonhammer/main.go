package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/alexflint/go-arg"
	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/jsonhammer/jsonhammer/pkg/apperr"
	"github.com/jsonhammer/jsonhammer/pkg/assets"
	"github.com/jsonhammer/jsonhammer/pkg/batch"
	"github.com/jsonhammer/jsonhammer/pkg/monitor"
	"github.com/jsonhammer/jsonhammer/pkg/observability"
	"github.com/jsonhammer/jsonhammer/pkg/settings"
	"github.com/jsonhammer/jsonhammer/pkg/templating"
	"github.com/jsonhammer/jsonhammer/pkg/uploader"
)

const version = "JSON Hammer v1.0.0"

const banner = `
   __  __    ___    __           _                      __  __
   \ \/ _\  /___\/\ \ \   /\  /\/_\    /\/\    /\/\    /__\/__\
    \ \ \  //  //  \/ /  / /_/ //_\\  /    \  /    \  /_\ / \//
 /\_/ /\ \/ \_// /\  /  / __  /  _  \/ /\/\ \/ /\/\ \//__/ _  \
 \___/\__/\___/\_\ \/   \/ /_/\_/ \_/\/    \/\/    \/\__/\/ \_/
`

type args struct {
	Settings   string  `arg:"-s,--settings" default:"settings.json" help:"settings file (.json, .yaml or .yml)"`
	Copies     *int    `arg:"-c,--copies" help:"number of copies to make"`
	Output     *string `arg:"-o,--output" help:"output directory"`
	Threads    *int    `arg:"-t,--threads" help:"number of worker threads"`
	MaxThreads *int    `arg:"-m,--max-threads" help:"same as --threads"`
	Gateway    *string `arg:"-g,--gateway" help:"IPFS HTTP API gateway"`
	Seed       *int64  `arg:"--seed" help:"seed for reproducible runs"`
	Debug      bool    `arg:"-d,--debug" help:"debug logging"`
	LogFile    string  `arg:"--log-file" help:"also append logs to this file"`
}

func (args) Version() string { return version }

func (args) Description() string {
	return "Generates variants of a JSON template from local asset pools, optionally uploading them to IPFS."
}

func (a args) overrides() settings.Overrides {
	threads := a.MaxThreads
	if a.Threads != nil {
		threads = a.Threads
	}
	return settings.Overrides{
		Copies:     a.Copies,
		OutputDir:  a.Output,
		MaxThreads: threads,
		Gateway:    a.Gateway,
		Seed:       a.Seed,
	}
}

func main() {
	var a args
	arg.MustParse(&a)
	os.Exit(run(a))
}

func run(a args) int {
	printBanner(os.Stdout)

	runID := uuid.NewString()
	logger, closer := observability.SetupLogger(a.LogFile, a.Debug, observability.Tags{"run_id": runID})
	defer func() {
		_ = closer.Close()
	}()
	defer observability.Reraise()

	fs := afero.NewOsFs()
	s, err := settings.Load(fs, a.Settings)
	if err != nil {
		return abort(logger, err)
	}
	s.Apply(a.overrides())
	if err := s.Validate(); err != nil {
		return abort(logger, err)
	}
	observability.InitSentry(s.SentryDSN, version)
	defer observability.Flush()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	store := assets.NewStore(fs, s.AssetsDir, logger)
	if watcher, err := assets.NewWatcher(ctx, logger); err != nil {
		logger.Debug("asset watcher unavailable", "err", err)
	} else {
		store.SetWatcher(watcher)
		defer watcher.Close()
	}

	var ipfs uploader.Uploader
	if s.UploadImage || s.UploadJSON {
		ipfs = uploader.NewIPFS(fs, s.UploaderOptions(), logger)
		logger.Info("using IPFS gateway", "gateway", s.IPFSGateway)
	}
	builtins := &templating.Builtins{Store: store, Logger: logger}
	if s.UploadImage {
		builtins.Uploader = uploader.NewMemo(ipfs)
	}
	registry, err := templating.NewDefaultRegistry(builtins)
	if err != nil {
		return abort(logger, err)
	}
	walker := templating.NewWalker(registry, logger)

	orchestrator := batch.New(fs, walker, ipfs, batch.Options{
		Copies:     s.Copies,
		Workers:    s.MaxThreads,
		OutputDir:  s.OutputDir,
		UploadJSON: s.UploadJSON,
		Seed:       s.Seed,
	}, logger)

	logger.Debug("host", "probe", monitor.Probe())
	systemMonitor := monitor.NewSystemMonitor(ctx, monitor.DefaultInterval, logger)
	systemMonitor.Do()

	start := time.Now()
	result, err := orchestrator.Run(ctx, s.Template)
	usage := systemMonitor.Close()
	if err != nil {
		return abort(logger, err)
	}

	logger.Info("Done!",
		"copies", len(result.Paths),
		"uploaded", len(result.Identifiers),
		"seed", result.Seed,
		"elapsed", time.Since(start).Round(time.Millisecond).String(),
		"memory_percent", fmt.Sprintf("%.1f", usage["memory_percent"]),
		"cpu_percent", fmt.Sprintf("%.1f", usage["cpu_percent"]),
	)
	if result.ManifestPath != "" {
		logger.Info("You can find the IPFS links in " + result.ManifestPath)
	}
	return 0
}

func printBanner(w io.Writer) {
	fmt.Fprint(w, banner)
	fmt.Fprintf(w, "\n%s\n\n", version)
}

// abort reports a run-fatal error with its hint and returns the exit code.
func abort(logger *observability.HammerLogger, err error) int {
	logger.CaptureError("aborted", err)
	if hint := apperr.HintOf(err); hint != "" {
		logger.Info("Hint: " + hint)
	}
	observability.Flush()
	return 1
}
