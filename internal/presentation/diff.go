package presentation

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// LineOp is the change applied to a line.
type LineOp int

const (
	OpEqual LineOp = iota
	OpInsert
	OpDelete
)

// DiffLine is one line of a line-level diff, without its trailing newline.
type DiffLine struct {
	Op   LineOp
	Text string
}

// DiffLines computes a line-level diff from a to b.
func DiffLines(a, b string) []DiffLine {
	dmp := diffmatchpatch.New()
	ca, cb, lineArray := dmp.DiffLinesToChars(a, b)
	diffs := dmp.DiffMain(ca, cb, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	var out []DiffLine
	for _, d := range diffs {
		op := OpEqual
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			op = OpInsert
		case diffmatchpatch.DiffDelete:
			op = OpDelete
		}
		for _, line := range splitLines(d.Text) {
			out = append(out, DiffLine{Op: op, Text: line})
		}
	}
	return out
}

// HasChanges reports whether any line was inserted or deleted.
func HasChanges(lines []DiffLine) bool {
	for _, l := range lines {
		if l.Op != OpEqual {
			return true
		}
	}
	return false
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(s, "\n"), "\n")
}
