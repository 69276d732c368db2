// Package model defines the value types of the logging engine: logs,
// deduplicated satellites (formats, arguments, caller sites), interval
// stats, and flush statistics.
package model

import (
	"fmt"
	"strings"
)

// MaxArgs is the number of positional argument slots per log.
const MaxArgs = 10

// CallerInfo identifies the code location that emitted a log. All fields
// are optional; identical triples share one row in the store.
type CallerInfo struct {
	MemberName       *string
	SourceFilePath   *string
	SourceLineNumber *int32
}

// NewCallerInfo builds a CallerInfo from non-empty member and file values.
// Empty strings and a non-positive line are stored as absent.
func NewCallerInfo(member, file string, line int) *CallerInfo {
	ci := &CallerInfo{}
	if member != "" {
		ci.MemberName = &member
	}
	if file != "" {
		ci.SourceFilePath = &file
	}
	if line > 0 {
		n := int32(line)
		ci.SourceLineNumber = &n
	}
	return ci
}

// LineString returns the stringified line number, or "" when absent.
func (c *CallerInfo) LineString() string {
	if c == nil || c.SourceLineNumber == nil {
		return ""
	}
	return fmt.Sprintf("%d", *c.SourceLineNumber)
}

// Log is one structured log entry. Producers fill the value fields; the
// flush worker resolves the satellite IDs before insertion.
type Log struct {
	ID          int64
	Level       Level
	Format      string
	Args        [MaxArgs]*string
	Caller      *CallerInfo
	CreatedTick int64

	// Resolved at flush time.
	FormatID     int64
	CallerInfoID *int64
	ArgIDs       [MaxArgs]*int64
}

// NewLog creates a log entry with the current tick. Arguments are
// stringified immediately so later mutation of the originals cannot leak
// into the persisted record. More than MaxArgs arguments is a programming
// error and panics.
func NewLog(level Level, format string, args ...any) *Log {
	if len(args) > MaxArgs {
		panic(fmt.Sprintf("model: log %q has %d arguments, max is %d", format, len(args), MaxArgs))
	}
	l := &Log{
		Level:       level,
		Format:      format,
		CreatedTick: TickNow(),
	}
	for i, a := range args {
		if a == nil {
			continue
		}
		s := fmt.Sprint(a)
		l.Args[i] = &s
	}
	return l
}

// WithCaller attaches caller context and returns the log for chaining.
func (l *Log) WithCaller(member, file string, line int) *Log {
	l.Caller = NewCallerInfo(member, file, line)
	return l
}

// ArgStrings returns the argument slots as display strings (absent slots
// render empty).
func (l *Log) ArgStrings() [MaxArgs]string {
	var out [MaxArgs]string
	for i, a := range l.Args {
		if a != nil {
			out[i] = *a
		}
	}
	return out
}

// Content renders the format template with placeholders {0}..{9}
// substituted by the argument values.
func (l *Log) Content() string {
	return substitute(l.Format, l.ArgStrings(), "", "")
}

// TagContent renders like Content but wraps each substituted argument in
// <tag>...</tag> markers so UIs can highlight parameter boundaries.
func (l *Log) TagContent() string {
	return substitute(l.Format, l.ArgStrings(), "<tag>", "</tag>")
}

func substitute(format string, args [MaxArgs]string, openTag, closeTag string) string {
	var b strings.Builder
	b.Grow(len(format) + 16)
	for i := 0; i < len(format); i++ {
		c := format[i]
		if c == '{' && i+2 < len(format) && format[i+2] == '}' && format[i+1] >= '0' && format[i+1] <= '9' {
			slot := int(format[i+1] - '0')
			b.WriteString(openTag)
			b.WriteString(args[slot])
			b.WriteString(closeTag)
			i += 2
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}
