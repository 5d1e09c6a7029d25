package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/autobrr/go-mkvedit/internal/analyzer"
	"github.com/autobrr/go-mkvedit/internal/ebml"
)

// Options carries everything the commands need besides their arguments. Flags fill it, a
// config file may provide defaults for the flags that were not given.
type Options struct {
	ConfigFile string
	LogLevel   string
	ParseMode  string
	Verify     bool
	StrictGaps bool
	OneByteGap string
	TagsAtEnd  bool
	Lock       bool
	Progress   bool
	Stats      bool
	Output     string
	LogFile    string
}

func DefaultOptions() Options {
	return Options{
		LogLevel:   "warn",
		ParseMode:  string(analyzer.ParseFull),
		OneByteGap: string(analyzer.GapLeak),
		TagsAtEnd:  true,
		Lock:       true,
		Output:     "text",
	}
}

// session holds the per-invocation logger and metrics shared by every file a command touches.
type session struct {
	opts     Options
	log      hclog.Logger
	registry *prometheus.Registry
	metrics  *analyzer.Metrics
	stderr   io.Writer
}

func newSession(opts Options, stderr io.Writer) *session {
	registry := prometheus.NewRegistry()
	return &session{
		opts: opts,
		log: hclog.New(&hclog.LoggerOptions{
			Name:   "mkvedit",
			Level:  hclog.LevelFromString(opts.LogLevel),
			Output: stderr,
		}),
		registry: registry,
		metrics:  analyzer.NewMetrics(registry),
		stderr:   stderr,
	}
}

func (s *session) config(ctx context.Context, path string, readOnly bool) analyzer.Config {
	cfg := analyzer.DefaultConfig()
	cfg.ParseMode = analyzer.ParseMode(s.opts.ParseMode)
	cfg.ReadOnly = readOnly
	cfg.Logger = s.log.With("file", path)
	cfg.Metrics = s.metrics
	cfg.VerifyCheckpoints = s.opts.Verify
	cfg.StrictGaps = s.opts.StrictGaps
	cfg.OneByteGap = analyzer.GapPolicy(s.opts.OneByteGap)
	if !s.opts.TagsAtEnd {
		cfg.Placement = func(ebml.ID) analyzer.PlacementStrategy { return analyzer.PlaceAnywhere }
	}
	if s.opts.Progress {
		cfg.Progress = newConsoleProgress(ctx, s.stderr, path)
	} else {
		cfg.Progress = analyzer.ProgressFuncs{OnStep: func(int) bool { return ctx.Err() == nil }}
	}
	return cfg
}

// open locks (for writing), opens and scans path. The returned function undoes all of it.
func (s *session) open(ctx context.Context, path string, readOnly bool) (*analyzer.Analyzer, func(), error) {
	release := func() {}
	if !readOnly && s.opts.Lock {
		unlock, err := lockFile(path)
		if err != nil {
			return nil, nil, err
		}
		release = unlock
	}

	a, err := analyzer.Open(path, s.config(ctx, path, readOnly))
	if err != nil {
		release()
		return nil, nil, err
	}
	cleanup := func() {
		if err := a.Close(); err != nil {
			s.log.Warn("closing file failed", "file", path, "error", err)
		}
		release()
	}

	if err := a.Scan(); err != nil {
		cleanup()
		if errors.Is(err, analyzer.ErrAborted) && ctx.Err() != nil {
			return nil, nil, ctx.Err()
		}
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return a, cleanup, nil
}

func (s *session) finish(stdout io.Writer) error {
	if !s.opts.Stats {
		return nil
	}
	return writeStats(stdout, s.registry)
}

func checkOutput(output string) error {
	if output != "" && !strings.EqualFold(output, "text") && !strings.EqualFold(output, "json") {
		return fmt.Errorf("output format not implemented: %s", output)
	}
	return nil
}

func writeLogFile(path, output string) error {
	if err := os.WriteFile(path, []byte(output), 0644); err != nil {
		return err
	}
	return nil
}
