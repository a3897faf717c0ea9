// Package markdown normalizes generated summary text into the on-disk
// export layout.
package markdown

import (
	"io"
	"strings"
)

// Formatter applies the blank-line spacing rule one line at a time.
// The zero value is ready to use.
type Formatter struct {
	pendingBlank bool
}

// Next returns the lines to emit for line, in order: an optional separating
// blank line followed by line itself.
func (f *Formatter) Next(line string) []string {
	var out []string
	if f.pendingBlank && line != "" {
		out = append(out, "")
	}
	out = append(out, line)
	f.pendingBlank = opensBlock(line)
	return out
}

// opensBlock reports whether a line must be separated from a non-empty follower.
// "*" covers both bold ("**") and emphasis markers.
func opensBlock(line string) bool {
	return strings.HasPrefix(line, "#") || strings.HasPrefix(line, "*")
}

// Format runs the spacing rule over lines and returns the result.
func Format(lines []string) []string {
	var f Formatter
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		out = append(out, f.Next(line)...)
	}
	return out
}

// SplitLines splits text on "\n". An empty text yields no lines.
func SplitLines(text string) []string {
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

// Writer streams formatted lines to an io.Writer. Every emitted line is
// written as "\n" + line, so a file holds a leading newline and no trailing one.
type Writer struct {
	w       io.Writer
	f       Formatter
	written int
}

// NewWriter returns a Writer over w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// WriteLine formats and writes one source line. The first write error is
// returned and the Writer must not be used afterwards.
func (w *Writer) WriteLine(line string) error {
	for _, out := range w.f.Next(line) {
		if _, err := io.WriteString(w.w, "\n"+out); err != nil {
			return err
		}
		w.written++
	}
	return nil
}

// Lines returns the number of lines written so far, including inserted blanks.
func (w *Writer) Lines() int {
	return w.written
}
