// Package client runs one chat session against the broker: a send path fed
// by local input and a receive path that renders what the broker relays.
package client

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/browser"
	"golang.org/x/sync/errgroup"

	"chatrelay/domain"
)

const maxLineSize = 1 << 20

type Renderer interface {
	Render(data []byte) error
}

// Sound is the notification player as seen by the session.
type Sound interface {
	Notify()
	SetSound(path string) error
	Current() string
	Mute()
	Unmute()
}

type Options struct {
	User     string
	Input    io.Reader
	Display  *Display
	Sound    Sound
	Renderer Renderer
	OpenURL  func(url string) error
}

type Controller struct {
	conn     Conn
	user     string
	in       io.Reader
	display  *Display
	sound    Sound
	renderer Renderer
	openURL  func(url string) error
}

func New(conn Conn, opts Options) *Controller {
	if opts.OpenURL == nil {
		opts.OpenURL = browser.OpenURL
	}
	return &Controller{
		conn:     conn,
		user:     opts.User,
		in:       opts.Input,
		display:  opts.Display,
		sound:    opts.Sound,
		renderer: opts.Renderer,
		openURL:  opts.OpenURL,
	}
}

// Run drives the send and receive paths until either one finishes, then
// stops the other and closes the connection. A quit, end of input or a
// clean close by the broker return nil.
func (c *Controller) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		<-ctx.Done()
		c.conn.Close()
	}()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		return c.sendLoop(ctx)
	})
	g.Go(func() error {
		defer cancel()
		return c.receiveLoop(ctx)
	})
	return g.Wait()
}

func (c *Controller) sendLoop(ctx context.Context) error {
	lines := make(chan string)
	var scanErr error
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(c.in)
		scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr = scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				if scanErr != nil {
					return fmt.Errorf("read input: %w", scanErr)
				}
				return nil
			}
			quit, err := c.handleLine(line)
			if err != nil {
				return err
			}
			if quit {
				return nil
			}
		}
	}
}

func (c *Controller) handleLine(line string) (bool, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return false, nil
	}
	if strings.HasPrefix(line, "/") {
		return c.command(line)
	}
	return false, c.send(domain.Message{Type: domain.TypeMessage, User: c.user, Text: line})
}

func (c *Controller) send(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	if err := c.conn.WriteMessage(data); err != nil {
		return fmt.Errorf("send: %w", err)
	}
	return nil
}

func (c *Controller) receiveLoop(ctx context.Context) error {
	for {
		data, err := c.conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if closedCleanly(err) {
				c.display.Server("[SERVER] Connection closed.")
				return nil
			}
			return fmt.Errorf("receive: %w", err)
		}
		c.receive(data)
	}
}
