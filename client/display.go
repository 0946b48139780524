package client

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Display serializes everything the client prints. The receive path and the
// send path both write through it.
type Display struct {
	mu  sync.Mutex
	out io.Writer

	name    lipgloss.Style
	server  lipgloss.Style
	warning lipgloss.Style
	whisper lipgloss.Style
	attack  lipgloss.Style
}

func NewDisplay(out io.Writer) *Display {
	r := lipgloss.NewRenderer(out)
	return &Display{
		out:     out,
		name:    r.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		server:  r.NewStyle().Foreground(lipgloss.Color("244")),
		warning: r.NewStyle().Foreground(lipgloss.Color("203")),
		whisper: r.NewStyle().Italic(true).Foreground(lipgloss.Color("141")),
		attack:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("208")),
	}
}

func (d *Display) print(style lipgloss.Style, format string, args ...any) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fmt.Fprintln(d.out, style.Render(fmt.Sprintf(format, args...)))
}

func (d *Display) Plain(format string, args ...any) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fmt.Fprintf(d.out, format+"\n", args...)
}

// Block prints lines without letting other output in between.
func (d *Display) Block(lines ...string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, line := range lines {
		fmt.Fprintln(d.out, line)
	}
}

func (d *Display) Chat(user, text string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fmt.Fprintf(d.out, "%s: %s\n", d.name.Render(user), text)
}

func (d *Display) Server(format string, args ...any)  { d.print(d.server, format, args...) }
func (d *Display) Warn(format string, args ...any)    { d.print(d.warning, format, args...) }
func (d *Display) Whisper(format string, args ...any) { d.print(d.whisper, format, args...) }
func (d *Display) Attack(format string, args ...any)  { d.print(d.attack, format, args...) }

// Do runs fn while holding the output lock, for writers such as the image
// renderer that print several lines at once.
func (d *Display) Do(fn func() error) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return fn()
}

func (d *Display) Clear() {
	d.mu.Lock()
	defer d.mu.Unlock()
	termenv.NewOutput(d.out).ClearScreen()
}
