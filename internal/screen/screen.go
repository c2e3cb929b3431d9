// Package screen prints the checker's status block and erases it again on
// the next cycle. A Screen is not safe for concurrent use; the watcher loop
// is its only caller.
package screen

import (
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/termenv"
)

type Screen struct {
	out     io.Writer
	r       *lipgloss.Renderer
	newline string
	width   func() int

	// LinesToClear is the number of terminal rows written since the last
	// Clear. Clear moves up exactly this many rows.
	LinesToClear int

	green lipgloss.Style
	cyan  lipgloss.Style
	red   lipgloss.Style
}

type Option func(*Screen)

// WithColor forces SGR colors on or off. Colors use the basic 16-color
// palette so they come out as 32/36/31.
func WithColor(on bool) Option {
	return func(s *Screen) {
		if on {
			s.r.SetColorProfile(termenv.ANSI)
		} else {
			s.r.SetColorProfile(termenv.Ascii)
		}
	}
}

// WithRawMode terminates lines with CRLF. Needed while the terminal is in
// raw mode, where output post-processing is off.
func WithRawMode(raw bool) Option {
	return func(s *Screen) {
		if raw {
			s.newline = "\r\n"
		}
	}
}

// WithWidth lets the screen account for lines that wrap. A width <= 0
// counts every line as one row.
func WithWidth(width func() int) Option {
	return func(s *Screen) {
		s.width = width
	}
}

func New(out io.Writer, opts ...Option) *Screen {
	s := &Screen{
		out:     out,
		r:       lipgloss.NewRenderer(out),
		newline: "\n",
		width:   func() int { return 0 },
	}
	s.r.SetColorProfile(termenv.Ascii)
	for _, opt := range opts {
		opt(s)
	}
	s.green = s.r.NewStyle().Foreground(lipgloss.Color("2"))
	s.cyan = s.r.NewStyle().Foreground(lipgloss.Color("6"))
	s.red = s.r.NewStyle().Foreground(lipgloss.Color("1"))
	return s
}

func (s *Screen) Green(text string) string { return s.green.Render(text) }
func (s *Screen) Cyan(text string) string  { return s.cyan.Render(text) }
func (s *Screen) Red(text string) string   { return s.red.Render(text) }

// Clear erases the rows written since the previous Clear.
func (s *Screen) Clear() error {
	if s.LinesToClear <= 0 {
		s.LinesToClear = 0
		return nil
	}
	var b strings.Builder
	for i := 0; i < s.LinesToClear; i++ {
		b.WriteString(ansi.CursorUp(1))
		b.WriteString(ansi.EraseEntireLine)
	}
	s.LinesToClear = 0
	_, err := io.WriteString(s.out, b.String())
	return err
}

// Println writes one logical line and counts the rows it occupies.
func (s *Screen) Println(line string) error {
	if _, err := io.WriteString(s.out, line+s.newline); err != nil {
		return err
	}
	s.LinesToClear += s.rows(line)
	return nil
}

func (s *Screen) rows(line string) int {
	w := s.width()
	if w <= 0 {
		return 1
	}
	n := runewidth.StringWidth(ansi.Strip(line))
	if n <= w {
		return 1
	}
	return (n + w - 1) / w
}
