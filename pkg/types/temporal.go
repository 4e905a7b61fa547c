// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "regexp"

// Layouts of temporal values as they are stored in documents.
const (
	DateLayout     = "2006-01-02"
	TimeLayout     = "15:04:05"
	DateTimeLayout = "2006-01-02T15:04:05"
)

var (
	DatePattern     = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	TimePattern     = regexp.MustCompile(`^\d{2}:\d{2}:\d{2}$`)
	DateTimePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}$`)
)

// TemporalLayout returns the layout and pattern used for a temporal base.
func TemporalLayout(b BaseType) (string, *regexp.Regexp, bool) {
	switch b {
	case BaseDate:
		return DateLayout, DatePattern, true
	case BaseTime:
		return TimeLayout, TimePattern, true
	case BaseDateTime:
		return DateTimeLayout, DateTimePattern, true
	}
	return "", nil, false
}
