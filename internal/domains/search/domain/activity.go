package domain

import (
	"regexp"
	"strings"
	"time"
)

// Scope names which endpoint produced a search.
type Scope string

const (
	ScopeLessons Scope = "lessons"
	ScopeGlobal  Scope = "global"
)

// Activity is one recorded search.
type Activity struct {
	Scope       Scope
	Query       string
	ResultCount int
	MatchedIDs  []string
	RecordedAt  time.Time
}

// Query is a trimmed, non-empty search term together with how it becomes a pattern.
type Query struct {
	raw     string
	literal bool
}

// NewQuery trims raw and reports false when nothing is left.
func NewQuery(raw string, literal bool) (Query, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Query{}, false
	}
	return Query{raw: raw, literal: literal}, true
}

// String returns the trimmed term.
func (q Query) String() string {
	return q.raw
}

// Pattern returns the expression handed to the store. Literal queries are escaped so
// the term matches as a plain substring.
func (q Query) Pattern() string {
	if q.literal {
		return regexp.QuoteMeta(q.raw)
	}
	return q.raw
}
