package model

import "testing"

func TestNewLog_StringifiesArgs(t *testing.T) {
	l := NewLog(LevelInfo, "count={0} name={1} missing={2}", 42, "abc")
	if l.CreatedTick == 0 {
		t.Fatalf("CreatedTick not assigned")
	}
	if l.Args[0] == nil || *l.Args[0] != "42" {
		t.Fatalf("arg0: got %v, want 42", l.Args[0])
	}
	if l.Args[1] == nil || *l.Args[1] != "abc" {
		t.Fatalf("arg1: got %v, want abc", l.Args[1])
	}
	if l.Args[2] != nil {
		t.Fatalf("arg2: got %v, want nil", *l.Args[2])
	}
}

func TestNewLog_NilArgStaysAbsent(t *testing.T) {
	l := NewLog(LevelDebug, "{0}/{1}", nil, "x")
	if l.Args[0] != nil {
		t.Fatalf("nil arg stored as %q", *l.Args[0])
	}
	if l.Args[1] == nil || *l.Args[1] != "x" {
		t.Fatalf("arg1: got %v, want x", l.Args[1])
	}
}

func TestNewLog_TooManyArgsPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic for 11 arguments")
		}
	}()
	NewLog(LevelInfo, "overflow", 0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10)
}

func TestContent(t *testing.T) {
	cases := []struct {
		name   string
		format string
		args   []any
		want   string
	}{
		{"simple", "hello {0}", []any{"world"}, "hello world"},
		{"repeated slot", "{0} and {0}", []any{"x"}, "x and x"},
		{"missing arg renders empty", "a={0} b={1}", []any{"1"}, "a=1 b="},
		{"no placeholders", "plain text", nil, "plain text"},
		{"brace not a slot", "set {x} to {0}", []any{"v"}, "set {x} to v"},
		{"trailing open brace", "end {", nil, "end {"},
		{"highest slot", "{9}", []any{0, 1, 2, 3, 4, 5, 6, 7, 8, "nine"}, "nine"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			l := NewLog(LevelInfo, tc.format, tc.args...)
			if got := l.Content(); got != tc.want {
				t.Fatalf("Content: got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestTagContent(t *testing.T) {
	l := NewLog(LevelInfo, "hello {0}!", "world")
	want := "hello <tag>world</tag>!"
	if got := l.TagContent(); got != want {
		t.Fatalf("TagContent: got %q, want %q", got, want)
	}
}

func TestCallerInfo(t *testing.T) {
	ci := NewCallerInfo("DoWork", "/src/main.go", 42)
	if ci.MemberName == nil || *ci.MemberName != "DoWork" {
		t.Fatalf("member: got %v", ci.MemberName)
	}
	if ci.LineString() != "42" {
		t.Fatalf("LineString: got %q, want 42", ci.LineString())
	}

	empty := NewCallerInfo("", "", 0)
	if empty.MemberName != nil || empty.SourceFilePath != nil || empty.SourceLineNumber != nil {
		t.Fatalf("empty caller fields not absent: %+v", empty)
	}
	if empty.LineString() != "" {
		t.Fatalf("empty LineString: got %q, want empty", empty.LineString())
	}
}

func TestLevelParse(t *testing.T) {
	for _, lv := range []Level{LevelDebug, LevelInfo, LevelWarning, LevelError, LevelCritical} {
		parsed, err := ParseLevel(lv.String())
		if err != nil {
			t.Fatalf("ParseLevel(%s): %v", lv, err)
		}
		if parsed != lv {
			t.Fatalf("ParseLevel(%s): got %v, want %v", lv, parsed, lv)
		}
	}
	if _, err := ParseLevel("Bogus"); err == nil {
		t.Fatalf("ParseLevel(Bogus): expected error")
	}
	if Level(99).IsValid() {
		t.Fatalf("Level(99).IsValid: got true, want false")
	}
}
