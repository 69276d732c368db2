// Package query builds and executes keyset-paginated queries over one
// day store. Queries open their own read-only connection and never
// coordinate with the flush worker.
package query

import (
	"fmt"
	"strings"
	"time"

	"github.com/ticklog/ticklog/internal/model"
	"github.com/ticklog/ticklog/internal/store"
)

// Order selects the display direction over created_tick.
type Order int

const (
	OrderByIdAscending Order = iota
	OrderByIdDescending
)

// DefaultPageSize applies when the builder is given no page size.
const DefaultPageSize = 20

// Page is one realized page of logs plus the cursors bounding it.
type Page struct {
	Items          []*model.Log
	PreCursorTick  *int64
	NextCursorTick *int64
	TotalRecords   int64
}

// Model accumulates filters and pagination state for one query. All
// With* methods return the model for chaining.
type Model struct {
	dir string
	now func() time.Time

	formatString *string
	argument     *string
	callerInfo   *string
	level        *model.Level
	startTime    *time.Time
	endTime      *time.Time
	pageSize     int
	order        Order
	nextCursor   *int64
	prevCursor   *int64
}

// New returns a query model over the day stores in dir.
func New(dir string) *Model {
	return &Model{dir: dir, now: time.Now, pageSize: DefaultPageSize}
}

// WithFormatString filters by substring match on the format template.
func (m *Model) WithFormatString(s string) *Model {
	m.formatString = &s
	return m
}

// WithArgument filters logs whose any non-null argument slot contains s.
func (m *Model) WithArgument(s string) *Model {
	m.argument = &s
	return m
}

// WithCallerInfo filters by substring match on member name, file path,
// or stringified line number.
func (m *Model) WithCallerInfo(s string) *Model {
	m.callerInfo = &s
	return m
}

// WithLevel filters by exact level.
func (m *Model) WithLevel(lv model.Level) *Model {
	m.level = &lv
	return m
}

// WithTime restricts created_tick to [a, b]. Ignored unless a and b
// fall on the same local date and a does not exceed b.
func (m *Model) WithTime(a, b time.Time) *Model {
	if !model.SameLocalDate(a, b) || a.After(b) {
		return m
	}
	m.startTime = &a
	m.endTime = &b
	return m
}

// WithPageSize sets the page size; non-positive values are ignored.
func (m *Model) WithPageSize(n int) *Model {
	if n > 0 {
		m.pageSize = n
	}
	return m
}

// OrderBy sets the display direction.
func (m *Model) OrderBy(o Order) *Model {
	m.order = o
	return m
}

// WithNextCursor pages forward from tick (closed boundary). Clears any
// previous-page cursor.
func (m *Model) WithNextCursor(tick int64) *Model {
	m.nextCursor = &tick
	m.prevCursor = nil
	return m
}

// WithPrevCursor pages backward from tick (closed boundary). Clears any
// next-page cursor.
func (m *Model) WithPrevCursor(tick int64) *Model {
	m.prevCursor = &tick
	m.nextCursor = nil
	return m
}

// day picks the store date: start time, else end time, else today.
func (m *Model) day() string {
	switch {
	case m.startTime != nil:
		return model.DayNameFromTime(*m.startTime)
	case m.endTime != nil:
		return model.DayNameFromTime(*m.endTime)
	default:
		return model.DayNameFromTime(m.now())
	}
}

// KeysetPaginate executes the query and returns one page. A missing
// day-file is not an error: the page is empty with null cursors.
func (m *Model) KeysetPaginate() (*Page, error) {
	path := store.DayPath(m.dir, m.day())
	if !store.FileExists(path) {
		return &Page{}, nil
	}

	db, err := store.OpenReadOnly(path)
	if err != nil {
		return nil, fmt.Errorf("query: open %s: %w", path, err)
	}
	defer db.Close()

	where, args := m.buildFilters()
	asc := m.order == OrderByIdAscending
	reversed := false

	// A prev cursor walks the reverse direction and flips the result
	// back to display order afterwards.
	scanAsc := asc
	switch {
	case m.prevCursor != nil:
		scanAsc = !asc
		reversed = true
		if asc {
			where = append(where, "l.CreatedTick <= ?")
		} else {
			where = append(where, "l.CreatedTick >= ?")
		}
		args = append(args, *m.prevCursor)
	case m.nextCursor != nil:
		if asc {
			where = append(where, "l.CreatedTick >= ?")
		} else {
			where = append(where, "l.CreatedTick <= ?")
		}
		args = append(args, *m.nextCursor)
	}

	dir := "DESC"
	if scanAsc {
		dir = "ASC"
	}
	sqlText := selectHead
	if len(where) > 0 {
		sqlText += " WHERE " + strings.Join(where, " AND ")
	}
	sqlText += fmt.Sprintf(" ORDER BY l.CreatedTick %s, l.Id %s LIMIT ?", dir, dir)
	args = append(args, m.pageSize)

	items, err := scanLogs(db, sqlText, args)
	if err != nil {
		return nil, err
	}
	if reversed {
		for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
			items[i], items[j] = items[j], items[i]
		}
	}

	var total int64
	if err := db.QueryRow("SELECT IFNULL(MAX(Id), 0) FROM Logs").Scan(&total); err != nil {
		return nil, fmt.Errorf("query: total records: %w", err)
	}

	page := &Page{Items: items, TotalRecords: total}
	if len(items) > 0 {
		first := items[0].CreatedTick
		last := items[len(items)-1].CreatedTick
		page.PreCursorTick = &first
		page.NextCursorTick = &last
	}
	return page, nil
}

func (m *Model) buildFilters() ([]string, []any) {
	var where []string
	var args []any

	if m.formatString != nil {
		where = append(where, "instr(f.FormatString, ?) > 0")
		args = append(args, *m.formatString)
	}
	if m.argument != nil {
		var ors []string
		for i := 0; i < model.MaxArgs; i++ {
			ors = append(ors, fmt.Sprintf("instr(a%d.Value, ?) > 0", i))
			args = append(args, *m.argument)
		}
		where = append(where, "("+strings.Join(ors, " OR ")+")")
	}
	if m.callerInfo != nil {
		where = append(where,
			"(instr(ci.MemberName, ?) > 0 OR instr(ci.SourceFilePath, ?) > 0 OR instr(CAST(ci.SourceLineNumber AS TEXT), ?) > 0)")
		args = append(args, *m.callerInfo, *m.callerInfo, *m.callerInfo)
	}
	if m.level != nil {
		where = append(where, "l.Level = ?")
		args = append(args, int(*m.level))
	}
	if m.startTime != nil && m.endTime != nil {
		where = append(where, "l.CreatedTick >= ?", "l.CreatedTick <= ?")
		args = append(args, model.TickFromTime(*m.startTime), model.TickFromTime(*m.endTime))
	}
	return where, args
}
