package flush

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/maypok86/otter"

	"github.com/ticklog/ticklog/internal/ident"
	"github.com/ticklog/ticklog/internal/model"
)

// Satellite kinds for cache keys.
const (
	kindFormat uint8 = iota
	kindArgument
	kindCaller
)

// chunkRows bounds the number of values per statement so parameter
// counts stay well below SQLite limits.
const chunkRows = 500

type cacheKey struct {
	day  string
	kind uint8
	key  ident.Key
}

// Resolver deduplicates satellite values into their day-store rows and
// memoizes resolved IDs across flushes. IDs are cached only after the
// resolving insert committed, so a cached hit never points at an
// unborn row.
type Resolver struct {
	cache otter.Cache[cacheKey, int64]
}

// NewResolver builds a resolver with a bounded memoization cache.
func NewResolver(cacheSize int) (*Resolver, error) {
	cache, err := otter.MustBuilder[cacheKey, int64](cacheSize).Build()
	if err != nil {
		return nil, fmt.Errorf("resolver: build cache: %w", err)
	}
	return &Resolver{cache: cache}, nil
}

// Close releases the memoization cache.
func (r *Resolver) Close() {
	r.cache.Close()
}

// ResolveBatch ensures every satellite value appearing in logs has a row
// in the day store and rewrites each log's foreign-key fields. Runs
// outside the log transaction; satellite rows are durable before the
// batch insert starts.
func (r *Resolver) ResolveBatch(db *sql.DB, dayName string, logs []*model.Log) error {
	formats := make(map[string]int64)
	args := make(map[string]int64)
	for _, l := range logs {
		formats[l.Format] = 0
		for _, a := range l.Args {
			if a != nil {
				args[*a] = 0
			}
		}
	}

	if err := r.resolveStrings(db, dayName, kindFormat, "Formats", "FormatString", formats); err != nil {
		return fmt.Errorf("resolve formats: %w", err)
	}
	if err := r.resolveStrings(db, dayName, kindArgument, "Arguments", "Value", args); err != nil {
		return fmt.Errorf("resolve arguments: %w", err)
	}
	callers, err := r.resolveCallers(db, dayName, logs)
	if err != nil {
		return fmt.Errorf("resolve callers: %w", err)
	}

	for _, l := range logs {
		l.FormatID = formats[l.Format]
		for i, a := range l.Args {
			if a == nil {
				l.ArgIDs[i] = nil
				continue
			}
			id := args[*a]
			l.ArgIDs[i] = &id
		}
		if l.Caller == nil {
			l.CallerInfoID = nil
			continue
		}
		id := callers[callerKey(l.Caller)]
		l.CallerInfoID = &id
	}
	return nil
}

// resolveStrings fills ids for every key of want using insert-or-ignore
// followed by a select-back, consulting the memoization cache first.
func (r *Resolver) resolveStrings(db *sql.DB, dayName string, kind uint8, table, column string, want map[string]int64) error {
	var pending []string
	for v := range want {
		ck := cacheKey{day: dayName, kind: kind, key: ident.KeyOfString(v)}
		if id, ok := r.cache.Get(ck); ok {
			want[v] = id
			continue
		}
		pending = append(pending, v)
	}
	if len(pending) == 0 {
		return nil
	}

	for start := 0; start < len(pending); start += chunkRows {
		end := min(start+chunkRows, len(pending))
		chunk := pending[start:end]

		placeholders := strings.Repeat("(?),", len(chunk))
		insert := fmt.Sprintf("INSERT OR IGNORE INTO %s (%s) VALUES %s",
			table, column, placeholders[:len(placeholders)-1])
		insertArgs := make([]any, len(chunk))
		for i, v := range chunk {
			insertArgs[i] = v
		}
		if _, err := db.Exec(insert, insertArgs...); err != nil {
			return fmt.Errorf("%s insert: %w", table, err)
		}

		marks := strings.Repeat("?,", len(chunk))
		query := fmt.Sprintf("SELECT Id, %s FROM %s WHERE %s IN (%s)",
			column, table, column, marks[:len(marks)-1])
		rows, err := db.Query(query, insertArgs...)
		if err != nil {
			return fmt.Errorf("%s select-back: %w", table, err)
		}
		for rows.Next() {
			var id int64
			var value string
			if err := rows.Scan(&id, &value); err != nil {
				rows.Close()
				return fmt.Errorf("%s scan: %w", table, err)
			}
			want[value] = id
			r.cache.Set(cacheKey{day: dayName, kind: kind, key: ident.KeyOfString(value)}, id)
		}
		if err := rows.Close(); err != nil {
			return fmt.Errorf("%s rows: %w", table, err)
		}
	}

	for _, v := range pending {
		if want[v] == 0 {
			return fmt.Errorf("%s: value %q not resolved after insert", table, v)
		}
	}
	return nil
}

// resolveCallers deduplicates caller triples. The unique constraint on
// CallerInfos does not collapse NULL members, so resolution goes
// row-by-row with the IS operator instead of insert-or-ignore.
func (r *Resolver) resolveCallers(db *sql.DB, dayName string, logs []*model.Log) (map[ident.Key]int64, error) {
	unique := make(map[ident.Key]*model.CallerInfo)
	for _, l := range logs {
		if l.Caller != nil {
			unique[callerKey(l.Caller)] = l.Caller
		}
	}

	out := make(map[ident.Key]int64, len(unique))
	for k, ci := range unique {
		ck := cacheKey{day: dayName, kind: kindCaller, key: k}
		if id, ok := r.cache.Get(ck); ok {
			out[k] = id
			continue
		}

		member := nullStr(ci.MemberName)
		file := nullStr(ci.SourceFilePath)
		line := nullI32(ci.SourceLineNumber)

		var id int64
		err := db.QueryRow(
			"SELECT Id FROM CallerInfos WHERE MemberName IS ? AND SourceFilePath IS ? AND SourceLineNumber IS ?",
			member, file, line,
		).Scan(&id)
		if err == sql.ErrNoRows {
			res, insErr := db.Exec(
				"INSERT INTO CallerInfos (MemberName, SourceFilePath, SourceLineNumber) VALUES (?, ?, ?)",
				member, file, line,
			)
			if insErr != nil {
				return nil, fmt.Errorf("caller insert: %w", insErr)
			}
			id, insErr = res.LastInsertId()
			if insErr != nil {
				return nil, fmt.Errorf("caller insert id: %w", insErr)
			}
		} else if err != nil {
			return nil, fmt.Errorf("caller select: %w", err)
		}

		out[k] = id
		r.cache.Set(ck, id)
	}
	return out, nil
}

func callerKey(ci *model.CallerInfo) ident.Key {
	var line *string
	if ci.SourceLineNumber != nil {
		s := fmt.Sprintf("%d", *ci.SourceLineNumber)
		line = &s
	}
	return ident.KeyOfParts(ci.MemberName, ci.SourceFilePath, line)
}

func nullStr(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

func nullI32(p *int32) any {
	if p == nil {
		return nil
	}
	return int64(*p)
}
