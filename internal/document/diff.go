package document

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// LineType classifies a DiffLine.
type LineType int

const (
	LineContext LineType = iota
	LineDeleted
	LineAdded
)

// DiffLine is one line of a line-level diff.
type DiffLine struct {
	Type LineType
	Text string // without the trailing newline
}

// Prefix returns the unified diff marker for the line.
func (l DiffLine) Prefix() string {
	switch l.Type {
	case LineDeleted:
		return "-"
	case LineAdded:
		return "+"
	}
	return " "
}

// DiffLines compares two texts line by line.
func DiffLines(before, after string) []DiffLine {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var out []DiffLine
	for _, d := range diffs {
		typ := LineContext
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			typ = LineDeleted
		case diffmatchpatch.DiffInsert:
			typ = LineAdded
		}
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			out = append(out, DiffLine{Type: typ, Text: strings.TrimSuffix(line, "\n")})
		}
	}
	return out
}

// Changed reports whether any line differs.
func Changed(lines []DiffLine) bool {
	for _, l := range lines {
		if l.Type != LineContext {
			return true
		}
	}
	return false
}
