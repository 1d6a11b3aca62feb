package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	goConsole "github.com/MrEthical07/goConsole"
	"github.com/MrEthical07/goConsole/internal/config"
	"github.com/MrEthical07/goConsole/metrics/export/prometheus"
)

var version = "dev"

// env is shared by every command of one invocation.
type env struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer

	cfg         *config.Config
	logger      *zap.Logger
	dumpMetrics bool
}

func newApp(in io.Reader, out, errOut io.Writer) *cli.App {
	e := &env{in: in, out: out, errOut: errOut}

	return &cli.App{
		Name:      "goconsole",
		Usage:     "Admin console session client",
		Version:   version,
		Writer:    out,
		ErrWriter: errOut,
		// main maps exit codes; Run must return instead of exiting.
		ExitErrHandler: func(*cli.Context, error) {},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Configuration file path",
				EnvVars: []string{"GOCONSOLE_CONFIG"},
			},
			&cli.BoolFlag{
				Name:  "metrics",
				Usage: "Print console metrics in Prometheus format after the command",
			},
		},
		Before: func(c *cli.Context) error {
			cfg, err := config.Load(c.String("config"))
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg.Log.Level)
			if err != nil {
				return err
			}
			e.cfg = cfg
			e.logger = logger
			e.dumpMetrics = c.Bool("metrics")
			if e.dumpMetrics {
				e.cfg.Metrics.Enabled = true
			}
			return nil
		},
		After: func(*cli.Context) error {
			if e.logger != nil {
				_ = e.logger.Sync()
			}
			return nil
		},
		Commands: []*cli.Command{
			loginCmd(e),
			logoutCmd(e),
			refreshCmd(e),
			statusCmd(e),
			checkCmd(e),
			profileCmd(e),
			devAuthorityCmd(e),
		},
	}
}

// openConsole builds and initializes a console from the loaded config. The
// returned release func must be called once the command is done.
func (e *env) openConsole(ctx context.Context) (*goConsole.Console, func(), error) {
	b := goConsole.New().
		WithConfig(e.cfg.ConsoleConfig()).
		WithLogger(e.logger)

	var auditFile *os.File
	if e.cfg.Audit.Enabled {
		var w io.Writer = e.errOut
		if e.cfg.Audit.File != "" {
			if err := os.MkdirAll(filepath.Dir(e.cfg.Audit.File), 0o700); err != nil {
				return nil, nil, fmt.Errorf("audit file: %w", err)
			}
			f, err := os.OpenFile(e.cfg.Audit.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
			if err != nil {
				return nil, nil, fmt.Errorf("audit file: %w", err)
			}
			auditFile = f
			w = f
		}
		b.WithAuditSink(goConsole.NewJSONWriterSink(w))
	}

	console, err := b.Build()
	if err != nil {
		if auditFile != nil {
			_ = auditFile.Close()
		}
		return nil, nil, err
	}

	release := func() {
		console.Close()
		if auditFile != nil {
			_ = auditFile.Close()
		}
		if e.dumpMetrics {
			fmt.Fprint(e.out, prometheus.NewPrometheusExporter(console).Render())
		}
	}

	if err := console.Init(ctx); err != nil {
		release()
		return nil, nil, err
	}
	return console, release, nil
}
