// Package sound plays short notification cues without blocking the caller.
package sound

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
)

var ErrUnsupportedFormat = errors.New("unsupported audio format, use .wav or .mp3")

// Player holds the notification sound and mute state shared by the
// receive path and the /sound command.
type Player struct {
	mu    sync.Mutex
	path  string
	muted bool
	bell  io.Writer

	// run executes an external player; replaced in tests.
	run func(name string, args ...string) error
}

// New returns a player for path. An empty path rings the terminal bell.
func New(path string, bell io.Writer) *Player {
	return &Player{
		path: path,
		bell: bell,
		run: func(name string, args ...string) error {
			return exec.Command(name, args...).Run()
		},
	}
}

func (p *Player) SetSound(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("sound file: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("sound file %s: is a directory", path)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav", ".mp3":
	default:
		return ErrUnsupportedFormat
	}

	p.mu.Lock()
	p.path = path
	p.mu.Unlock()
	return nil
}

func (p *Player) Current() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.path
}

func (p *Player) Mute() {
	p.mu.Lock()
	p.muted = true
	p.mu.Unlock()
}

func (p *Player) Unmute() {
	p.mu.Lock()
	p.muted = false
	p.mu.Unlock()
}

func (p *Player) Muted() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.muted
}

// Notify plays the cue on its own goroutine. Failures are dropped.
func (p *Player) Notify() {
	p.mu.Lock()
	path, muted := p.path, p.muted
	p.mu.Unlock()

	if muted {
		return
	}
	go p.play(path)
}

func (p *Player) play(path string) {
	if path != "" {
		for _, cmd := range commands(path) {
			if _, err := exec.LookPath(cmd[0]); err != nil {
				continue
			}
			if err := p.run(cmd[0], cmd[1:]...); err != nil {
				slog.Debug("sound playback failed", "player", cmd[0], "error", err)
				break
			}
			return
		}
	}
	p.ring()
}

func (p *Player) ring() {
	f, ok := p.bell.(*os.File)
	if !ok || !isatty.IsTerminal(f.Fd()) {
		return
	}
	f.Write([]byte("\a"))
}

// commands lists candidate players for path in preference order.
func commands(path string) [][]string {
	switch runtime.GOOS {
	case "darwin":
		return [][]string{{"afplay", path}}
	case "windows":
		script := fmt.Sprintf("(New-Object Media.SoundPlayer '%s').PlaySync()", strings.ReplaceAll(path, "'", "''"))
		return [][]string{{"powershell", "-NoProfile", "-Command", script}}
	}
	if strings.EqualFold(filepath.Ext(path), ".mp3") {
		return [][]string{{"mpg123", "-q", path}, {"ffplay", "-nodisp", "-autoexit", "-loglevel", "quiet", path}}
	}
	return [][]string{{"paplay", path}, {"aplay", "-q", path}, {"ffplay", "-nodisp", "-autoexit", "-loglevel", "quiet", path}}
}
