package ticklog

import (
	"testing"
	"time"

	"github.com/ticklog/ticklog/internal/config"
)

func testEngine(t *testing.T) *Engine {
	t.Helper()
	cfg := config.Defaults()
	cfg.BaseDir = t.TempDir()
	cfg.MaintenanceSchedule = ""
	cfg.PacerPollEvery = config.Duration(10 * time.Millisecond)
	cfg.PacerMaxWait = config.Duration(100 * time.Millisecond)
	cfg.PacerHighWait = config.Duration(50 * time.Millisecond)

	e, err := NewEngine(cfg)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	t.Cleanup(e.Stop)
	return e
}

func TestEngine_AddFlushQuery(t *testing.T) {
	e := testEngine(t)

	e.Add(NewLog(LevelInfo, "hello {0}", "world"))
	e.Add(NewLog(LevelError, "bad thing {0}", 42))
	if got := e.Backlog(); got != 2 {
		t.Fatalf("backlog: got %d, want 2", got)
	}
	if got := e.FlushOnce(); got != 2 {
		t.Fatalf("FlushOnce: got %d, want 2", got)
	}

	info := e.FlushInfo()
	if info == nil || info.LogCount != 2 {
		t.Fatalf("FlushInfo: %+v", info)
	}
	if e.DropCount() != 0 {
		t.Fatalf("DropCount: got %d, want 0", e.DropCount())
	}

	page, err := e.Query().OrderBy(OrderByIdAscending).KeysetPaginate()
	if err != nil {
		t.Fatalf("KeysetPaginate: %v", err)
	}
	if len(page.Items) != 2 {
		t.Fatalf("page items: got %d, want 2", len(page.Items))
	}
	if got := page.Items[0].Content(); got != "hello world" {
		t.Fatalf("first content: got %q", got)
	}

	filtered, err := e.Query().WithLevel(LevelError).KeysetPaginate()
	if err != nil {
		t.Fatalf("filtered query: %v", err)
	}
	if len(filtered.Items) != 1 || filtered.Items[0].Content() != "bad thing 42" {
		t.Fatalf("filtered page: got %d items", len(filtered.Items))
	}
}

func TestEngine_BackgroundWorkerFlushes(t *testing.T) {
	e := testEngine(t)
	e.Start()

	e.Add(NewLog(LevelInfo, "background"))

	deadline := time.After(10 * time.Second)
	for e.FlushInfo() == nil {
		select {
		case <-deadline:
			t.Fatalf("worker never flushed")
		case <-time.After(20 * time.Millisecond):
		}
	}
	if e.FlushInfo().LogCount != 1 {
		t.Fatalf("flushed count: got %d, want 1", e.FlushInfo().LogCount)
	}
}

func TestEngine_StartIdempotent(t *testing.T) {
	e := testEngine(t)
	e.Start()
	e.Start()
	e.Stop()
	e.Stop()
}

func TestEngine_StopDrainsQueue(t *testing.T) {
	e := testEngine(t)
	e.Start()

	e.Add(NewLog(LevelInfo, "late {0}", 1))
	e.Stop()

	if got := e.Backlog(); got != 0 {
		t.Fatalf("backlog after Stop: got %d, want 0", got)
	}

	page, err := e.Query().KeysetPaginate()
	if err != nil {
		t.Fatalf("query after stop: %v", err)
	}
	if len(page.Items) != 1 {
		t.Fatalf("persisted after stop: got %d, want 1", len(page.Items))
	}
}

func TestEngine_LogFiles(t *testing.T) {
	e := testEngine(t)

	now := time.Now()
	if e.LogFileExists(now) {
		t.Fatalf("LogFileExists before flush: got true")
	}

	e.Add(NewLog(LevelInfo, "x"))
	if got := e.FlushOnce(); got != 1 {
		t.Fatalf("FlushOnce: got %d, want 1", got)
	}

	if !e.LogFileExists(now) {
		t.Fatalf("LogFileExists after flush: got false")
	}
	days, err := e.ListLogFiles()
	if err != nil {
		t.Fatalf("ListLogFiles: %v", err)
	}
	if len(days) != 1 {
		t.Fatalf("ListLogFiles: got %d, want 1", len(days))
	}
}

func TestGlobal_LazyLifecycle(t *testing.T) {
	t.Setenv("TICKLOG_BASE_DIR", t.TempDir())
	t.Cleanup(StopBackgroundWorker)

	Add(LevelInfo, "global {0}", "entry")

	deadline := time.After(10 * time.Second)
	for GetFlushInfo() == nil {
		select {
		case <-deadline:
			t.Fatalf("global worker never flushed")
		case <-time.After(20 * time.Millisecond):
		}
	}

	page, err := Query().KeysetPaginate()
	if err != nil {
		t.Fatalf("global query: %v", err)
	}
	if len(page.Items) != 1 || page.Items[0].Content() != "global entry" {
		t.Fatalf("global page: got %d items", len(page.Items))
	}
	if !LogFileExists(time.Now()) {
		t.Fatalf("LogFileExists: got false")
	}
	days, err := ListLogFiles()
	if err != nil || len(days) != 1 {
		t.Fatalf("ListLogFiles: %v %v", days, err)
	}

	FlushAndStop()
}
