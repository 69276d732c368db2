// Package quarantine persists batches that failed to flush as sidecar
// files next to the day stores. Writes are best-effort: the sink never
// propagates its own failures, so a broken disk cannot wedge the
// worker.
package quarantine

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/ticklog/ticklog/internal/model"
)

// Record is the machine-readable sidecar payload.
type Record struct {
	Date             string     `json:"date"`
	ExceptionMessage string     `json:"exception_message"`
	Logs             []LogEntry `json:"logs"`
}

// LogEntry is the serialized form of one quarantined log.
type LogEntry struct {
	Level       string    `json:"level"`
	Format      string    `json:"format"`
	Args        []*string `json:"args"`
	Member      *string   `json:"member,omitempty"`
	File        *string   `json:"file,omitempty"`
	Line        *int32    `json:"line,omitempty"`
	CreatedTick int64     `json:"created_tick"`
}

func entryOf(l *model.Log) LogEntry {
	e := LogEntry{
		Level:       l.Level.String(),
		Format:      l.Format,
		Args:        l.Args[:],
		CreatedTick: l.CreatedTick,
	}
	if l.Caller != nil {
		e.Member = l.Caller.MemberName
		e.File = l.Caller.SourceFilePath
		e.Line = l.Caller.SourceLineNumber
	}
	return e
}

// Sink writes quarantine sidecars into a single directory.
type Sink struct {
	Dir string
}

// NewSink returns a sink writing into dir. The directory is created on
// first write, not here.
func NewSink(dir string) *Sink {
	return &Sink{Dir: dir}
}

// Drop persists the failed batch for date with its triggering error.
// It writes Error_yyyy_mm_dd.<uuid>.json with the full batch and
// appends one summary block to Error_yyyy_mm_dd.txt. Any failure along
// the way is logged and swallowed.
func (s *Sink) Drop(date time.Time, logs []*model.Log, cause error) {
	dayName := model.DayNameFromTime(date)
	jsonName := fmt.Sprintf("Error_%s.%s.json", dayName, uuid.NewString())

	msg := "unknown error"
	if cause != nil {
		msg = cause.Error()
	}

	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		log.Printf("[quarantine] mkdir %s failed, dropping %d logs: %v", s.Dir, len(logs), err)
		return
	}

	rec := Record{
		Date:             dayName,
		ExceptionMessage: msg,
		Logs:             make([]LogEntry, 0, len(logs)),
	}
	for _, l := range logs {
		rec.Logs = append(rec.Logs, entryOf(l))
	}

	if data, err := json.MarshalIndent(rec, "", "  "); err != nil {
		log.Printf("[quarantine] marshal batch for %s: %v", dayName, err)
	} else if err := os.WriteFile(filepath.Join(s.Dir, jsonName), data, 0o644); err != nil {
		log.Printf("[quarantine] write %s: %v", jsonName, err)
	}

	s.appendSummary(dayName, jsonName, msg)

	log.Printf("[quarantine] dropped %d logs for %s: %s", len(logs), dayName, msg)
}

func (s *Sink) appendSummary(dayName, jsonName, msg string) {
	path := filepath.Join(s.Dir, "Error_"+dayName+".txt")
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		log.Printf("[quarantine] open %s: %v", path, err)
		return
	}
	defer f.Close()

	now := time.Now().Format("2006-01-02 15:04:05")
	fmt.Fprintf(f, "[%s]\n", now)
	fmt.Fprintf(f, "batch: %s\n", jsonName)
	fmt.Fprintf(f, "error: %s\n", msg)
	fmt.Fprintln(f)
}
