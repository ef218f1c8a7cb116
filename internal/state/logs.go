package state

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// LogStore holds the rendered log lines of one container. A line is only
// stored if its timestamp has not been seen before, so repeated reads of an
// overlapping window do not duplicate lines.
type LogStore struct {
	lines List[string]
	seen  map[string]struct{}
}

// NewLogStore creates an empty store.
func NewLogStore() *LogStore {
	return &LogStore{seen: make(map[string]struct{})}
}

// Insert appends line unless tz has already been stored. It reports whether
// the line was added.
func (s *LogStore) Insert(line, tz string) bool {
	if _, ok := s.seen[tz]; ok {
		return false
	}
	s.seen[tz] = struct{}{}
	s.lines.Items = append(s.lines.Items, line)
	return true
}

// Lines returns a copy of the stored lines.
func (s *LogStore) Lines() []string {
	out := make([]string, len(s.lines.Items))
	copy(out, s.lines.Items)
	return out
}

func (s *LogStore) Len() int { return s.lines.Len() }
func (s *LogStore) Selected() (int, bool) { return s.lines.Selected() }
func (s *LogStore) Next() { s.lines.Next() }
func (s *LogStore) Previous() { s.lines.Previous() }
func (s *LogStore) Start() { s.lines.Start() }
func (s *LogStore) End() { s.lines.End() }
func (s *LogStore) Title() string { return s.lines.Title() }

// LogDisplay selects how raw log lines are turned into display text.
type LogDisplay struct {
	Color     bool // keep ANSI colors, colorize plain lines by level
	Raw       bool // pass lines through untouched
	Timestamp bool // keep the leading timestamp
}

// splitTimestamp returns the leading timestamp token of a runtime log line,
// including its trailing space, and the remaining text. Lines look like
// "2024-01-15T10:30:00.000000000Z message text".
func splitTimestamp(line string) (tz, rest string) {
	idx := strings.IndexByte(line, ' ')
	if idx < 0 {
		return line, ""
	}
	return line[:idx+1], line[idx+1:]
}

// render applies the display mode to one raw line and returns the text to
// store and the timestamp key to dedup on.
func (d LogDisplay) render(line string) (text, tz string) {
	tz, rest := splitTimestamp(line)
	text = line
	if !d.Timestamp {
		text = rest
	}
	switch {
	case d.Color:
		text = colorize(text)
	case d.Raw:
	default:
		text = sanitize(text)
	}
	return text, tz
}

// sanitize strips escape sequences and control characters.
func sanitize(s string) string {
	return stripControl(ansi.Strip(s))
}

// colorize keeps lines that already carry ANSI styling, and colors plain
// structured lines by their inferred level.
func colorize(s string) string {
	if strings.ContainsRune(s, '\x1b') {
		return strings.Map(func(r rune) rune {
			if r == '\x1b' {
				return r
			}
			return controlRune(r)
		}, s)
	}
	s = stripControl(s)
	if color, ok := levelColors[InferLevel(s)]; ok {
		return lipgloss.NewStyle().Foreground(color).Render(s)
	}
	return s
}

var levelColors = map[string]lipgloss.Color{
	"ERR":  lipgloss.Color("9"),
	"WARN": lipgloss.Color("11"),
	"INFO": lipgloss.Color("10"),
	"DBUG": lipgloss.Color("8"),
}

func stripControl(s string) string {
	return strings.Map(controlRune, s)
}

// controlRune drops control characters, turning tabs into spaces.
func controlRune(r rune) rune {
	switch {
	case r == '\t':
		return ' '
	case r < 0x20 || r == 0x7f:
		return -1
	default:
		return r
	}
}
