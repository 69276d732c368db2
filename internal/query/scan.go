package query

import (
	"database/sql"
	"fmt"

	"github.com/ticklog/ticklog/internal/model"
)

// selectHead eagerly joins every satellite so returned logs render
// without further lookups.
const selectHead = `
SELECT l.Id, l.Level, l.CreatedTick, l.FormatId, l.CallerInfoId,
       f.FormatString,
       ci.MemberName, ci.SourceFilePath, ci.SourceLineNumber,
       a0.Value, a1.Value, a2.Value, a3.Value, a4.Value,
       a5.Value, a6.Value, a7.Value, a8.Value, a9.Value
FROM Logs l
JOIN Formats f ON f.Id = l.FormatId
LEFT JOIN CallerInfos ci ON ci.Id = l.CallerInfoId
LEFT JOIN Arguments a0 ON a0.Id = l.Arg0Id
LEFT JOIN Arguments a1 ON a1.Id = l.Arg1Id
LEFT JOIN Arguments a2 ON a2.Id = l.Arg2Id
LEFT JOIN Arguments a3 ON a3.Id = l.Arg3Id
LEFT JOIN Arguments a4 ON a4.Id = l.Arg4Id
LEFT JOIN Arguments a5 ON a5.Id = l.Arg5Id
LEFT JOIN Arguments a6 ON a6.Id = l.Arg6Id
LEFT JOIN Arguments a7 ON a7.Id = l.Arg7Id
LEFT JOIN Arguments a8 ON a8.Id = l.Arg8Id
LEFT JOIN Arguments a9 ON a9.Id = l.Arg9Id`

func scanLogs(db *sql.DB, sqlText string, args []any) ([]*model.Log, error) {
	rows, err := db.Query(sqlText, args...)
	if err != nil {
		return nil, fmt.Errorf("query: select logs: %w", err)
	}
	defer rows.Close()

	var items []*model.Log
	for rows.Next() {
		l := &model.Log{}
		var level int
		var callerID sql.NullInt64
		var member, file sql.NullString
		var line sql.NullInt32
		argVals := make([]sql.NullString, model.MaxArgs)

		dest := []any{
			&l.ID, &level, &l.CreatedTick, &l.FormatID, &callerID,
			&l.Format,
			&member, &file, &line,
		}
		for i := range argVals {
			dest = append(dest, &argVals[i])
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("query: scan log: %w", err)
		}

		l.Level = model.Level(level)
		if callerID.Valid {
			id := callerID.Int64
			l.CallerInfoID = &id
		}
		if member.Valid || file.Valid || line.Valid {
			ci := &model.CallerInfo{}
			if member.Valid {
				s := member.String
				ci.MemberName = &s
			}
			if file.Valid {
				s := file.String
				ci.SourceFilePath = &s
			}
			if line.Valid {
				n := line.Int32
				ci.SourceLineNumber = &n
			}
			l.Caller = ci
		}
		for i, v := range argVals {
			if v.Valid {
				s := v.String
				l.Args[i] = &s
			}
		}
		items = append(items, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query: iterate logs: %w", err)
	}
	return items, nil
}
