package ticklog

import (
	"log"
	"sync"
	"time"

	"github.com/ticklog/ticklog/internal/config"
	"github.com/ticklog/ticklog/internal/query"
)

// Package-level engine, created lazily on first use. Hosts that want
// explicit control build an Engine instead.
var (
	globalMu     sync.Mutex
	globalEngine *Engine
)

// engine returns the shared engine, creating and starting it on first
// call. Configuration errors fall back to defaults so producers never
// fail.
func engine() *Engine {
	globalMu.Lock()
	defer globalMu.Unlock()
	if globalEngine == nil {
		cfg, err := config.Load()
		if err != nil {
			log.Printf("[lifecycle] config rejected, using defaults: %v", err)
			cfg = config.Defaults()
		}
		e, err := NewEngine(cfg)
		if err != nil {
			log.Printf("[lifecycle] engine init failed: %v", err)
			return nil
		}
		globalEngine = e
	}
	globalEngine.Start()
	return globalEngine
}

// InitBackgroundWorker starts the shared worker eagerly. Idempotent;
// Add also starts it lazily.
func InitBackgroundWorker() {
	engine()
}

// StopBackgroundWorker stops the shared worker after a final drain.
// A later Add restarts it.
func StopBackgroundWorker() {
	globalMu.Lock()
	e := globalEngine
	globalMu.Unlock()
	if e != nil {
		e.Stop()
	}
}

// FlushAndStop is an alias for StopBackgroundWorker kept for shutdown
// paths that want the intent spelled out.
func FlushAndStop() {
	StopBackgroundWorker()
}

// AddLog enqueues a prepared log entry on the shared engine.
func AddLog(l *Log) {
	if e := engine(); e != nil {
		e.Add(l)
	}
}

// Add builds a log from level, format, and arguments, then enqueues it.
func Add(level Level, format string, args ...any) {
	AddLog(NewLog(level, format, args...))
}

// GetFlushInfo returns the shared engine's latest flush snapshot, or
// nil before the first successful flush.
func GetFlushInfo() *FlushInfo {
	globalMu.Lock()
	e := globalEngine
	globalMu.Unlock()
	if e == nil {
		return nil
	}
	return e.FlushInfo()
}

// Query starts a query builder over the shared engine's stores.
func Query() *query.Model {
	e := engine()
	if e == nil {
		return nil
	}
	return e.Query()
}

// LogFileExists reports whether the shared engine has a day store for
// date.
func LogFileExists(date time.Time) bool {
	e := engine()
	return e != nil && e.LogFileExists(date)
}

// ListLogFiles returns the dates of the shared engine's day stores.
func ListLogFiles() ([]time.Time, error) {
	e := engine()
	if e == nil {
		return nil, nil
	}
	return e.ListLogFiles()
}
