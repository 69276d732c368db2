// Package flush runs the background worker that drains the intake
// queue into per-day stores: satellite dedup, bulk insert, interval
// aggregation, adaptive pacing, and quarantine on failure.
package flush

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/ticklog/ticklog/internal/intake"
	"github.com/ticklog/ticklog/internal/model"
	"github.com/ticklog/ticklog/internal/quarantine"
	"github.com/ticklog/ticklog/internal/store"
)

// Worker owns the flush pipeline. A single goroutine runs Run; FlushOnce
// may additionally be called directly for a synchronous final drain.
type Worker struct {
	queue    *intake.Queue
	dir      string
	pacer    Pacer
	resolver *Resolver
	sink     *quarantine.Sink

	info    atomic.Pointer[model.FlushInfo]
	dropped atomic.Int64
}

// NewWorker wires a worker over the given queue, store directory, and
// pacing knobs.
func NewWorker(queue *intake.Queue, dir string, pacer Pacer, resolver *Resolver, sink *quarantine.Sink) *Worker {
	return &Worker{
		queue:    queue,
		dir:      dir,
		pacer:    pacer,
		resolver: resolver,
		sink:     sink,
	}
}

// Info returns the snapshot of the most recent successful flush, or nil
// if none has completed yet.
func (w *Worker) Info() *model.FlushInfo {
	return w.info.Load()
}

// DropCount reports how many logs have been routed to quarantine since
// the worker started.
func (w *Worker) DropCount() int64 {
	return w.dropped.Load()
}

// Run flushes until ctx is cancelled. Batch failures are quarantined
// and the loop continues; the worker never dies on a bad batch.
func (w *Worker) Run(ctx context.Context) {
	log.Printf("[flush] worker started, store dir %s", w.dir)
	for {
		if ctx.Err() != nil {
			log.Printf("[flush] worker stopped")
			return
		}
		w.FlushOnce()
		w.pacer.Wait(ctx, w.queue.Len)
	}
}

// FlushOnce drains the queue and persists the batch, one store and one
// transaction per local calendar day touched by the batch. Returns the
// number of logs persisted. An empty drain leaves FlushInfo untouched.
func (w *Worker) FlushOnce() int {
	logs := w.queue.DrainAll()
	if len(logs) == 0 {
		return 0
	}

	totalStart := time.Now()
	sort.SliceStable(logs, func(i, j int) bool {
		return logs[i].CreatedTick < logs[j].CreatedTick
	})

	// Batches spanning midnight split into one partition per day.
	var dayOrder []string
	byDay := make(map[string][]*model.Log)
	for _, l := range logs {
		day := model.DayName(l.CreatedTick)
		if _, ok := byDay[day]; !ok {
			dayOrder = append(dayOrder, day)
		}
		byDay[day] = append(byDay[day], l)
	}

	var persisted int
	var prepTotal, writeTotal time.Duration
	for _, day := range dayOrder {
		part := byDay[day]
		prep, write, err := w.flushDay(day, part)
		if err != nil {
			log.Printf("[flush] day %s failed, quarantining %d logs: %v", day, len(part), err)
			w.dropped.Add(int64(len(part)))
			w.sink.Drop(model.TimeFromTick(part[0].CreatedTick), part, err)
			continue
		}
		persisted += len(part)
		prepTotal += prep
		writeTotal += write
	}

	if persisted > 0 {
		w.info.Store(&model.FlushInfo{
			Date:      time.Now(),
			LogCount:  persisted,
			PrepTime:  prepTotal,
			WriteTime: writeTotal,
			TotalTime: time.Since(totalStart),
		})
	}
	return persisted
}

// flushDay persists one day's partition: open store, resolve satellites,
// then insert logs and accumulate interval stats in one transaction.
func (w *Worker) flushDay(dayName string, logs []*model.Log) (prep, write time.Duration, err error) {
	prepStart := time.Now()

	st, err := store.Open(w.dir, dayName)
	if err != nil {
		return 0, 0, fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	if err := w.resolver.ResolveBatch(st.DB, dayName, logs); err != nil {
		return 0, 0, err
	}

	stats := make(map[int64]int32)
	for _, l := range logs {
		stats[model.IntervalStart(l.CreatedTick)]++
	}
	prep = time.Since(prepStart)

	writeStart := time.Now()
	if err := persistTx(st.DB, logs, stats); err != nil {
		return 0, 0, err
	}
	write = time.Since(writeStart)
	return prep, write, nil
}

const logColumns = "Level, FormatId, CallerInfoId, Arg0Id, Arg1Id, Arg2Id, Arg3Id, Arg4Id, Arg5Id, Arg6Id, Arg7Id, Arg8Id, Arg9Id, CreatedTick"

// insertChunkRows keeps parameter counts per statement below SQLite
// limits (14 parameters per log row).
const insertChunkRows = 60

func persistTx(db *sql.DB, logs []*model.Log, stats map[int64]int32) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}

	for start := 0; start < len(logs); start += insertChunkRows {
		end := min(start+insertChunkRows, len(logs))
		chunk := logs[start:end]

		tuple := "(" + strings.Repeat("?,", 13) + "?),"
		sqlText := fmt.Sprintf("INSERT INTO Logs (%s) VALUES %s",
			logColumns, strings.TrimSuffix(strings.Repeat(tuple, len(chunk)), ","))

		args := make([]any, 0, len(chunk)*14)
		for _, l := range chunk {
			args = append(args, int(l.Level), l.FormatID, nullI64(l.CallerInfoID))
			for _, id := range l.ArgIDs {
				args = append(args, nullI64(id))
			}
			args = append(args, l.CreatedTick)
		}
		if _, err := tx.Exec(sqlText, args...); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert logs: %w", err)
		}
	}

	for start, count := range stats {
		_, err := tx.Exec(
			"INSERT INTO LogIntervalStats (IntervalStart, LogCount) VALUES (?, ?) "+
				"ON CONFLICT(IntervalStart) DO UPDATE SET LogCount = LogCount + excluded.LogCount",
			start, count,
		)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("upsert interval stats: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func nullI64(p *int64) any {
	if p == nil {
		return nil
	}
	return *p
}
