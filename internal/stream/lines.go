package stream

import "strings"

// LineSplitter reassembles newline-delimited records from arbitrary fragments.
type LineSplitter struct {
	partial strings.Builder
}

// Push appends a fragment and returns every line it completed, trimmed, empty lines dropped.
func (l *LineSplitter) Push(fragment string) []string {
	var lines []string
	for {
		i := strings.IndexByte(fragment, '\n')
		if i < 0 {
			l.partial.WriteString(fragment)
			return lines
		}
		l.partial.WriteString(fragment[:i])
		if line := strings.TrimSpace(l.partial.String()); line != "" {
			lines = append(lines, line)
		}
		l.partial.Reset()
		fragment = fragment[i+1:]
	}
}

// Flush returns the trailing unterminated line, if any.
func (l *LineSplitter) Flush() (string, bool) {
	line := strings.TrimSpace(l.partial.String())
	l.partial.Reset()
	return line, line != ""
}
