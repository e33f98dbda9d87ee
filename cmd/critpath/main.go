package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/ritzau/critpath/pkg/analysis"
	"github.com/ritzau/critpath/pkg/config"
	"github.com/ritzau/critpath/pkg/logging"
	"github.com/ritzau/critpath/pkg/output"
	"github.com/ritzau/critpath/pkg/pubsub"
	"github.com/ritzau/critpath/pkg/watcher"
	"github.com/ritzau/critpath/pkg/web"
)

func main() {
	flags := config.Flags("critpath")
	if err := flags.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	cfg, err := config.Load(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	level, err := logging.ParseLevel(cfg.Verbosity, cfg.VerboseCnt)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	logging.SetOutput(os.Stderr, level, cfg.LogJSON)

	source, err := analysis.NewSource(cfg.Scenario, cfg.Fixture)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.WebMode {
		if err := serve(ctx, flags, cfg, source); err != nil {
			logging.Fatal("web server failed", "error", err)
		}
		return
	}
	code := runOnce(ctx, cfg, source)
	stop()
	os.Exit(code)
}

func options(cfg *config.Config, reason string) analysis.Options {
	return analysis.Options{
		Worker:    cfg.Worker,
		Algorithm: cfg.Algorithm,
		Start:     cfg.Start,
		End:       cfg.End,
		Verify:    cfg.Verify,
		Reason:    reason,
	}
}

// runOnce prints one analysis and returns the exit status
func runOnce(ctx context.Context, cfg *config.Config, source analysis.Source) int {
	res, err := analysis.NewRunner(source, nil).Run(ctx, options(cfg, "command line"))
	if err != nil {
		output.PrintError(os.Stderr, cfg.Algorithm, err)
		return 1
	}

	if cfg.JSON {
		if err := output.PrintJSON(os.Stdout, res); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
	} else {
		output.PrintReport(os.Stdout, res)
	}

	if !res.Verified() {
		return 1
	}
	return 0
}

// serve starts the web server, runs the first analysis in the background
// and, with --watch, re-runs it whenever the scenario or config changes.
func serve(ctx context.Context, flags *pflag.FlagSet, cfg *config.Config, source analysis.Source) error {
	publisher := pubsub.NewSSEPublisher()
	pubsub.ConfigureDefaults(publisher)
	defer publisher.Close()

	runner := analysis.NewRunner(source, publisher)
	server := web.NewServer(runner, publisher, options(cfg, "requested over HTTP"))

	errc := make(chan error, 1)
	go func() {
		errc <- server.Start(ctx, cfg.Port)
	}()

	// Wait a moment for server to start
	time.Sleep(500 * time.Millisecond)
	openBrowser(fmt.Sprintf("http://localhost:%d", cfg.Port))

	go func() {
		if _, err := runner.Run(ctx, options(cfg, "initial analysis")); err != nil {
			logging.Warn("initial analysis failed", "error", err)
		}
	}()

	if cfg.Watch {
		if err := watch(ctx, flags, cfg, runner); err != nil {
			return err
		}
	}
	return <-errc
}

func watch(ctx context.Context, flags *pflag.FlagSet, cfg *config.Config, runner *analysis.Runner) error {
	fw, err := watcher.NewFileWatcher(cfg.Scenario)
	if err != nil {
		return err
	}
	if _, err := os.Stat(config.FileName); err == nil {
		if err := fw.Add(config.FileName, watcher.ChangeTypeConfig); err != nil {
			return err
		}
	}
	if err := fw.Start(ctx); err != nil {
		return err
	}

	debouncer := watcher.NewDebouncer(fw.Events(), 300*time.Millisecond, 2*time.Second)
	debouncer.Start(ctx)

	go func() {
		for event := range debouncer.Output() {
			change := watcher.AnalyzeChanges(event)
			logging.Info("files changed", "kind", event.Type.String(), "files", change.ChangedFiles)

			if change.NeedReconfigure {
				next, err := config.Load(flags)
				if err != nil {
					logging.Warn("keeping previous configuration", "error", err)
				} else {
					if next.Scenario != cfg.Scenario {
						logging.Warn("scenario path changes need a restart", "scenario", next.Scenario)
						next.Scenario = cfg.Scenario
					}
					cfg = next
				}
			}
			if !change.NeedReload {
				continue
			}
			if _, err := runner.Run(ctx, options(cfg, event.Type.String()+" changed")); err != nil {
				logging.Warn("re-analysis failed", "error", err)
			}
		}
	}()
	return nil
}

func openBrowser(url string) {
	var cmd string
	var args []string

	switch runtime.GOOS {
	case "darwin":
		cmd = "open"
		args = []string{url}
	case "linux":
		cmd = "xdg-open"
		args = []string{url}
	case "windows":
		cmd = "cmd"
		args = []string{"/c", "start", url}
	default:
		logging.Info("cannot open browser", "platform", runtime.GOOS, "url", url)
		return
	}

	if err := exec.Command(cmd, args...).Start(); err != nil {
		logging.Warn("failed to open browser", "error", err)
	}
}
