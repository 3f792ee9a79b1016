package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/ivarvong/pyex-sub003/pkgs/api"
	"github.com/ivarvong/pyex-sub003/pkgs/fsbackend"
	"github.com/ivarvong/pyex-sub003/pkgs/perrors"
	"github.com/ivarvong/pyex-sub003/pkgs/pycontext"
)

func main() {
	var (
		seed         int64
		frozenClock  int64
		maxSteps     int64
		maxCallDepth int
		filesystem   bool
		fsRoot       string
		replayFile   string
		dumpEvents   string
		capsFile     string
		watch        bool
	)

	rootCmd := &cobra.Command{
		Use:           "pyrun [file]",
		Short:         "Run a Python-subset program inside the sandboxed interpreter",
		Args:          cobra.MaximumNArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			file := "-"
			if len(args) == 1 {
				file = args[0]
			}

			runOnce := func() error {
				src, closeFn, err := getInputReader(file)
				if err != nil {
					return err
				}
				defer closeFn()

				source, err := io.ReadAll(src)
				if err != nil {
					return fmt.Errorf("reading source: %w", err)
				}
				source = stripShebang(source)

				program, err := api.Compile(string(source))
				if err != nil {
					printError(err)
					return errExit(1)
				}

				ctx, cancel := newCancellableContext()
				defer cancel()

				caps := pycontext.CapabilityConfig{
					FilesystemEnabled: filesystem,
					RandomSeed:        seed,
					ClockFrozenAt:     frozenClock,
				}
				if capsFile != "" {
					raw, err := os.ReadFile(capsFile)
					if err != nil {
						return fmt.Errorf("reading capability config: %w", err)
					}
					caps, err = api.LoadCapabilityConfig(raw)
					if err != nil {
						return fmt.Errorf("capability config: %w", err)
					}
				}

				opts := api.RunOptions{
					Context:      ctx,
					MaxSteps:     maxSteps,
					MaxCallDepth: maxCallDepth,
					Capabilities: caps,
				}
				if filesystem && fsRoot != "" {
					opts.FS = &fsbackend.Local{Root: fsRoot}
				}
				if replayFile != "" {
					events, err := loadEvents(replayFile)
					if err != nil {
						return fmt.Errorf("loading replay log: %w", err)
					}
					opts.ReplayEvents = events
				}

				result := api.Run(program, opts)

				if dumpEvents != "" {
					if err := saveEvents(dumpEvents, result.Events); err != nil {
						fmt.Fprintf(os.Stderr, "warning: could not write event log: %v\n", err)
					}
				}

				fmt.Print(api.ExtractOutput(result.Events))

				if result.Suspended {
					fmt.Fprintln(os.Stderr, "program suspended via suspend()")
					return errExit(2)
				}
				if result.Err != nil {
					printError(result.Err)
					return errExit(1)
				}
				return nil
			}

			if !watch {
				return runOnce()
			}
			if file == "-" {
				return fmt.Errorf("--watch requires a file argument, not stdin")
			}
			return watchAndRun(file, runOnce)
		},
	}

	rootCmd.PersistentFlags().Int64Var(&seed, "seed", 1, "deterministic seed for random.*/uuid.*/secrets.*")
	rootCmd.PersistentFlags().Int64Var(&frozenClock, "freeze-clock", 0, "unix seconds to freeze time.time()/datetime.now() at; 0 uses wall time")
	rootCmd.PersistentFlags().Int64Var(&maxSteps, "max-steps", 2_000_000, "compute budget in evaluator steps; 0 disables the limit")
	rootCmd.PersistentFlags().IntVar(&maxCallDepth, "max-call-depth", 500, "maximum call stack depth before RecursionError")
	rootCmd.PersistentFlags().BoolVar(&filesystem, "filesystem", false, "grant the filesystem capability to open()")
	rootCmd.PersistentFlags().StringVar(&fsRoot, "fs-root", "", "root directory the filesystem capability is sandboxed to")
	rootCmd.PersistentFlags().StringVar(&replayFile, "replay", "", "replay a previously recorded event log instead of executing live")
	rootCmd.PersistentFlags().StringVar(&dumpEvents, "dump-events", "", "write the recorded event log to this path after the run")
	rootCmd.PersistentFlags().StringVar(&capsFile, "capabilities", "", "path to a JSON capability-configuration document (overrides --seed/--freeze-clock/--filesystem)")
	rootCmd.PersistentFlags().BoolVar(&watch, "watch", false, "re-run the script each time its source file is saved")

	if err := rootCmd.Execute(); err != nil {
		if ee, ok := err.(*exitError); ok {
			os.Exit(ee.code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type exitError struct{ code int }

func (e *exitError) Error() string { return fmt.Sprintf("exit code %d", e.code) }

func errExit(code int) error { return &exitError{code: code} }

func printError(err error) {
	if pe, ok := err.(*perrors.PyError); ok {
		fmt.Fprintf(os.Stderr, "%s: %s\n", pe.Class, pe.Message)
		return
	}
	fmt.Fprintln(os.Stderr, err)
}

// loadEvents reads a previously recorded event log, in CBOR (the default
// persistence format, a .cbor extension) or JSON (anything else, for
// human inspection).
func loadEvents(path string) ([]pycontext.Event, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if strings.HasSuffix(path, ".cbor") {
		return pycontext.UnmarshalEvents(data)
	}
	var events []pycontext.Event
	if err := json.Unmarshal(data, &events); err != nil {
		return nil, err
	}
	return events, nil
}

func saveEvents(path string, events []pycontext.Event) error {
	if strings.HasSuffix(path, ".cbor") {
		data, err := pycontext.MarshalEvents(events)
		if err != nil {
			return err
		}
		return os.WriteFile(path, data, 0o644)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(events)
}

func newCancellableContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()
	return ctx, cancel
}

func getInputReader(file string) (io.Reader, func() error, error) {
	if file == "-" {
		if hasPipedInput() {
			return os.Stdin, func() error { return nil }, nil
		}
		return nil, nil, fmt.Errorf("no file given and stdin is not piped")
	}
	f, err := os.Open(file)
	if err != nil {
		return nil, nil, fmt.Errorf("opening %s: %w", file, err)
	}
	return f, f.Close, nil
}

func hasPipedInput() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// watchAndRun calls run once immediately, then again every time file is
// written to, until the process is interrupted. Run errors are reported to
// stderr rather than aborting the loop, since one bad edit shouldn't kill
// the watch session.
func watchAndRun(file string, run func() error) error {
	w, err := fsbackend.NewWatcher(file)
	if err != nil {
		return fmt.Errorf("watching %s: %w", file, err)
	}
	defer w.Close()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	runAndReport := func() {
		if err := run(); err != nil {
			if _, ok := err.(*exitError); !ok {
				fmt.Fprintln(os.Stderr, err)
			}
		}
	}

	runAndReport()
	for {
		select {
		case ev, ok := <-w.Events():
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			fmt.Fprintf(os.Stderr, "--- rerunning %s ---\n", file)
			runAndReport()
		case err, ok := <-w.Errors():
			if !ok {
				return nil
			}
			fmt.Fprintln(os.Stderr, "watch error:", err)
		case <-sigChan:
			return nil
		}
	}
}

func stripShebang(source []byte) []byte {
	if len(source) >= 2 && source[0] == '#' && source[1] == '!' {
		for i := 2; i < len(source); i++ {
			if source[i] == '\n' {
				return source[i+1:]
			}
		}
		return []byte{}
	}
	return source
}
