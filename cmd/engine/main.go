package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/helrabelo/job-search/internal/config"
	"github.com/helrabelo/job-search/internal/hn"
	"github.com/helrabelo/job-search/internal/httpapi"
	"github.com/helrabelo/job-search/internal/ingest"
	"github.com/helrabelo/job-search/internal/logger"
	"github.com/helrabelo/job-search/internal/poll"
	"github.com/helrabelo/job-search/internal/scheduler"
	"github.com/helrabelo/job-search/internal/store"
)

const dbFileName = "jobsearch.db"

func main() {
	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp(out io.Writer) *cli.App {
	return &cli.App{
		Name:   "engine",
		Usage:  "Collect and triage postings from the monthly hiring threads",
		Writer: out,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "data-dir",
				Aliases: []string{"d"},
				Usage:   "Directory holding the database and config.yml",
				EnvVars: []string{config.EnvDataDir},
				Value:   ".",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Config file (default: <data-dir>/config.yml, created if missing)",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Override the configured log level (debug, info, warn, error)",
			},
		},
		Action: serveCommand,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the API and, when enabled, scheduled ingestion",
				Action: serveCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "port",
						Usage: "Override the configured port",
					},
				},
			},
			{
				Name:   "scrape",
				Usage:  "Run one ingestion pass and print the summary",
				Action: scrapeCommand,
			},
			{
				Name:   "migrate",
				Usage:  "Create or upgrade the database schema",
				Action: migrateCommand,
			},
		},
	}
}

// env is everything a command needs after bootstrap.
type env struct {
	cfgPath string
	cfgVal  *atomic.Value // stores config.Config
	db      *store.DB
	logger  *slog.Logger
}

func (e *env) loadCfg() (config.Config, error) {
	return config.Load(e.cfgPath)
}

func (e *env) Close() error {
	return e.db.Close()
}

func bootstrap(c *cli.Context) (*env, error) {
	dataDir := c.String("data-dir")
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("data dir: %w", err)
	}

	cfgPath := c.String("config")
	if cfgPath == "" {
		p, err := config.EnsureUserConfig(dataDir)
		if err != nil {
			return nil, fmt.Errorf("config bootstrap failed: %w", err)
		}
		cfgPath = p
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("config load failed (%s): %w", cfgPath, err)
	}
	if lvl := c.String("log-level"); lvl != "" {
		cfg.App.LogLevel = lvl
	}
	lg := logger.Initialize(cfg.App.LogLevel, cfg.App.LogJSON)

	norm, vr := config.NormalizeAndValidate(cfg)
	for _, w := range vr.Warnings {
		lg.Warn("config", "warning", w)
	}
	if !vr.OK() {
		return nil, fmt.Errorf("invalid config %s: %v", cfgPath, vr.Errors)
	}

	db, err := store.Open(filepath.Join(dataDir, dbFileName))
	if err != nil {
		return nil, err
	}

	var cfgVal atomic.Value
	cfgVal.Store(norm)
	return &env{cfgPath: cfgPath, cfgVal: &cfgVal, db: db, logger: lg}, nil
}

// liveIngester builds an Ingester from the current config on every run, so
// edits made through PUT /config apply to the next run.
type liveIngester struct {
	cfgVal *atomic.Value
	db     *store.DB
	logger *slog.Logger
}

func (l liveIngester) Run(ctx context.Context) (ingest.Summary, error) {
	in, err := newIngester(l.cfgVal.Load().(config.Config), l.db, l.logger)
	if err != nil {
		return ingest.Summary{}, err
	}
	return in.Run(ctx)
}

func newIngester(cfg config.Config, db *store.DB, lg *slog.Logger) (*ingest.Ingester, error) {
	ic := cfg.Ingest
	client := hn.New(hn.Config{
		SearchURL: ic.SearchURL,
		ItemURL:   ic.ItemURL,
		BatchSize: ic.BatchSize,
		Timeout:   time.Duration(ic.RequestTimeoutSeconds) * time.Second,
		UserAgent: ic.UserAgent,
	}, hn.NewHostLimiter(ic.RequestsPerSecond, ic.Burst))

	return ingest.New(client, db,
		ingest.WithThreadLimit(ic.ThreadLimit),
		ingest.WithLogger(lg),
	)
}

func serveCommand(c *cli.Context) error {
	e, err := bootstrap(c)
	if err != nil {
		return err
	}
	defer e.Close()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := e.db.EnsureSchema(ctx); err != nil {
		return err
	}

	cfg := e.cfgVal.Load().(config.Config)
	runner := poll.NewRunner(liveIngester{cfgVal: e.cfgVal, db: e.db, logger: e.logger}, e.logger)

	if cfg.Polling.Enabled {
		sched := scheduler.New(cfg.Polling.Schedule, "ingest", func(ctx context.Context) error {
			_, _, err := runner.RunIfIdle(ctx)
			return err
		}, cfg.Polling.RunOnStart, e.logger)
		if err := sched.Start(ctx); err != nil {
			return err
		}
		defer sched.Stop()
	}

	port := cfg.App.Port
	if c.IsSet("port") {
		port = c.Int("port")
	}
	ln, err := net.Listen("tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(port)))
	if err != nil {
		return err
	}

	handler := httpapi.NewHandler(httpapi.Deps{
		Store:       e.db,
		Runner:      runner,
		Logger:      e.logger,
		CfgVal:      e.cfgVal,
		UserCfgPath: e.cfgPath,
		LoadCfg:     e.loadCfg,
	})
	return httpapi.Serve(ctx, ln, handler, e.logger)
}

func scrapeCommand(c *cli.Context) error {
	e, err := bootstrap(c)
	if err != nil {
		return err
	}
	defer e.Close()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	in, err := newIngester(e.cfgVal.Load().(config.Config), e.db, e.logger)
	if err != nil {
		return err
	}
	sum, err := in.Run(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return cli.Exit("scrape interrupted", 130)
		}
		return err
	}

	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(sum)
}

func migrateCommand(c *cli.Context) error {
	e, err := bootstrap(c)
	if err != nil {
		return err
	}
	defer e.Close()

	if err := e.db.EnsureSchema(c.Context); err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, "schema up to date")
	return nil
}
