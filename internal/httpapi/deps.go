package httpapi

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/helrabelo/job-search/internal/config"
	"github.com/helrabelo/job-search/internal/ingest"
	"github.com/helrabelo/job-search/internal/poll"
	"github.com/helrabelo/job-search/internal/store"
)

// Runner is the tracked ingestion entrypoint shared with the scheduler.
type Runner interface {
	Run(ctx context.Context) (ingest.Summary, error)
	Status() poll.Status
}

type Deps struct {
	Store  *store.DB
	Runner Runner
	Logger *slog.Logger

	// Atomic stores
	CfgVal *atomic.Value // stores config.Config

	// Config persistence
	UserCfgPath string
	LoadCfg     func() (config.Config, error)
}

func (d Deps) logger() *slog.Logger {
	if d.Logger == nil {
		return slog.Default()
	}
	return d.Logger
}
