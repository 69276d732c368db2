package model

import "time"

// FlushInfo is a value snapshot of the most recent successful flush.
// Written only by the flush worker, read by anyone.
type FlushInfo struct {
	Date      time.Time     `json:"date"`
	LogCount  int           `json:"log_count"`
	PrepTime  time.Duration `json:"prep_time"`
	WriteTime time.Duration `json:"write_time"`
	TotalTime time.Duration `json:"total_time"`
}

// IntervalStat is one 10-minute aggregation bucket. IntervalStart is the
// bucket's start tick; LogCount accumulates across flushes via upsert.
type IntervalStat struct {
	IntervalStart int64
	LogCount      int32
}
