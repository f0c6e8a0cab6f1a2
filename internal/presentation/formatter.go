package presentation

import (
	"encoding/json"
	"fmt"
	"io"
)

// Formatter handles output formatting
type Formatter struct {
	writer io.Writer
}

// NewFormatter creates a new formatter
func NewFormatter(writer io.Writer) *Formatter {
	return &Formatter{
		writer: writer,
	}
}

// FormatTags formats registered tags as JSON
func (f *Formatter) FormatTags(tags []TagDTO) error {
	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(tags)
}

// FormatCheckResult prints one "ok"/"FAIL" line for a checked input.
func (f *Formatter) FormatCheckResult(r CheckResultDTO) error {
	var err error
	if r.OK() {
		_, err = fmt.Fprintf(f.writer, "%s %s %s\n",
			okStyle.Render("ok"), r.Path, ctxStyle.Render(fmt.Sprintf("(%d documents)", r.Documents)))
	} else {
		_, err = fmt.Fprintf(f.writer, "%s %s: %s\n", failStyle.Render("FAIL"), r.Path, r.Error)
	}
	return err
}

// FormatDiff prints a line diff between the original and normalized text of
// path. Nothing is printed when they are equal.
func (f *Formatter) FormatDiff(path, original, normalized string) error {
	lines := DiffLines(original, normalized)
	if !HasChanges(lines) {
		return nil
	}

	if _, err := fmt.Fprintln(f.writer, headerStyle.Render("--- "+path)); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(f.writer, headerStyle.Render("+++ "+path+" (normalized)")); err != nil {
		return err
	}
	for _, l := range lines {
		var out string
		switch l.Op {
		case OpInsert:
			out = addStyle.Render("+" + l.Text)
		case OpDelete:
			out = delStyle.Render("-" + l.Text)
		default:
			out = ctxStyle.Render(" " + l.Text)
		}
		if _, err := fmt.Fprintln(f.writer, out); err != nil {
			return err
		}
	}
	return nil
}
