// Package ticklog is a structured, parameterized logging engine.
// Producers enqueue logs without blocking; a background worker
// deduplicates repeated strings and batches inserts into per-day
// SQLite stores; the query side serves keyset-paginated pages over
// those stores.
package ticklog

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/ticklog/ticklog/internal/buildinfo"
	"github.com/ticklog/ticklog/internal/config"
	"github.com/ticklog/ticklog/internal/flush"
	"github.com/ticklog/ticklog/internal/intake"
	"github.com/ticklog/ticklog/internal/model"
	"github.com/ticklog/ticklog/internal/quarantine"
	"github.com/ticklog/ticklog/internal/query"
	"github.com/ticklog/ticklog/internal/store"
)

// Re-exported producer-facing types.
type (
	Log        = model.Log
	Level      = model.Level
	CallerInfo = model.CallerInfo
	FlushInfo  = model.FlushInfo
	QueryModel = query.Model
	Page       = query.Page
	Order      = query.Order
)

// Query orderings.
const (
	OrderByIdAscending  = query.OrderByIdAscending
	OrderByIdDescending = query.OrderByIdDescending
)

// Levels.
const (
	LevelDebug    = model.LevelDebug
	LevelInfo     = model.LevelInfo
	LevelWarning  = model.LevelWarning
	LevelError    = model.LevelError
	LevelCritical = model.LevelCritical
)

// NewLog creates a log entry stamped with the current tick.
func NewLog(level Level, format string, args ...any) *Log {
	return model.NewLog(level, format, args...)
}

// Engine owns one intake queue, one flush worker, and the maintenance
// scheduler. Most hosts use the package-level functions instead, which
// manage a lazily started shared Engine.
type Engine struct {
	cfg      *config.Config
	queue    *intake.Queue
	worker   *flush.Worker
	resolver *flush.Resolver

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
	sched   *cron.Cron
}

// NewEngine builds an engine from cfg. The worker is not started.
func NewEngine(cfg *config.Config) (*Engine, error) {
	resolver, err := flush.NewResolver(cfg.SatelliteCacheSize)
	if err != nil {
		return nil, fmt.Errorf("ticklog: %w", err)
	}
	queue := intake.NewQueue()
	sink := quarantine.NewSink(cfg.StoreDir())
	pacer := flush.Pacer{
		BurstDepth: cfg.PacerBurstDepth,
		HighDepth:  cfg.PacerHighDepth,
		HighWait:   cfg.PacerHighWait.Std(),
		MaxWait:    cfg.PacerMaxWait.Std(),
		PollEvery:  cfg.PacerPollEvery.Std(),
	}
	worker := flush.NewWorker(queue, cfg.StoreDir(), pacer, resolver, sink)
	return &Engine{cfg: cfg, queue: queue, worker: worker, resolver: resolver}, nil
}

// Start spawns the flush worker and the maintenance scheduler.
// Idempotent: a running engine is left alone.
func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running {
		return
	}

	log.Printf("[lifecycle] ticklog %s starting (base dir %s)", buildinfo.Version, e.cfg.BaseDir)
	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	e.done = make(chan struct{})
	go func() {
		defer close(e.done)
		e.worker.Run(ctx)
	}()

	if e.cfg.MaintenanceSchedule != "" {
		e.sched = cron.New()
		if _, err := e.sched.AddFunc(e.cfg.MaintenanceSchedule, e.maintain); err != nil {
			log.Printf("[lifecycle] maintenance schedule rejected: %v", err)
			e.sched = nil
		} else {
			e.sched.Start()
		}
	}
	e.running = true
}

// Stop cancels the worker and waits for it to exit, then runs one final
// best-effort drain so logs enqueued before Stop are not lost. A later
// Add through the package-level API restarts the worker lazily.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.running {
		return
	}
	if e.sched != nil {
		e.sched.Stop()
		e.sched = nil
	}
	e.cancel()
	<-e.done
	e.worker.FlushOnce()
	e.running = false
	log.Printf("[lifecycle] engine stopped")
}

// Add enqueues a log. Never blocks and never fails.
func (e *Engine) Add(l *Log) {
	e.queue.Push(l)
}

// FlushOnce drains and persists synchronously. Intended for hosts that
// want a deterministic flush point (tests, shutdown paths).
func (e *Engine) FlushOnce() int {
	return e.worker.FlushOnce()
}

// FlushInfo returns the latest flush snapshot, or nil before the first
// successful flush.
func (e *Engine) FlushInfo() *FlushInfo {
	return e.worker.Info()
}

// DropCount reports how many logs went to quarantine.
func (e *Engine) DropCount() int64 {
	return e.worker.DropCount()
}

// Backlog reports the number of logs waiting in the intake queue.
func (e *Engine) Backlog() int64 {
	return e.queue.Len()
}

// Query starts a query builder over this engine's store directory.
func (e *Engine) Query() *query.Model {
	return query.New(e.cfg.StoreDir())
}

// LogFileExists reports whether a day store exists for date.
func (e *Engine) LogFileExists(date time.Time) bool {
	return store.Exists(e.cfg.StoreDir(), date)
}

// ListLogFiles returns the dates of all day stores, ascending.
func (e *Engine) ListLogFiles() ([]time.Time, error) {
	return store.ListDays(e.cfg.StoreDir())
}

// maintain checkpoints today's store WAL and logs a day-file inventory
// line. Retention is operator territory; nothing is deleted here.
func (e *Engine) maintain() {
	dir := e.cfg.StoreDir()
	today := model.DayNameFromTime(time.Now())
	path := store.DayPath(dir, today)
	if store.FileExists(path) {
		db, err := store.OpenDB(path)
		if err != nil {
			log.Printf("[maintenance] open %s: %v", path, err)
		} else {
			if _, err := db.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
				log.Printf("[maintenance] checkpoint %s: %v", path, err)
			}
			db.Close()
		}
	}
	days, err := store.ListDays(dir)
	if err != nil {
		log.Printf("[maintenance] inventory: %v", err)
		return
	}
	log.Printf("[maintenance] %d day files on disk", len(days))
}
