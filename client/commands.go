package client

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"chatrelay/domain"
)

var commandHelp = []struct{ name, desc string }{
	{"quit", "Exits the interactive terminal. Example: /quit"},
	{"help", "Displays this list of commands. Example: /help"},
	{"image", "Sends and displays an image on all terminals. Usage: /image <path/to/file.png>"},
	{"sound", "Changes the notification sound. Usage: /sound <path/to/sound.wav> | /sound mute | /sound unmute"},
	{"users", "Lists all online users. Example: /users"},
	{"clear", "Clears messages for the current user. Example: /clear"},
	{"watch", "Opens a video URL in the default web browser. Usage: /watch <video_url>"},
	{"whisper", "Sends a private message to a specific user. Usage: /whisper <username> <message>"},
	{"attack", "Attacks a specific user. Usage: /attack <username> <attack>"},
}

// command runs one slash command and reports whether the session should end.
// Only failures to write to the broker are returned; local problems are
// printed and the session carries on.
func (c *Controller) command(line string) (bool, error) {
	name, args, _ := strings.Cut(strings.TrimPrefix(line, "/"), " ")
	args = strings.TrimSpace(args)

	switch name {
	case "quit":
		c.display.Plain("Goodbye, %s.", c.user)
		if err := c.send(domain.Command{Type: domain.TypeCommand, Name: domain.CommandQuit, User: c.user}); err != nil {
			c.display.Warn("[ERROR] %v", err)
		}
		return true, nil
	case "help":
		c.help()
	case "sound":
		c.soundCommand(args)
	case "image":
		return false, c.imageCommand(args)
	case "users":
		c.display.Server("[Requesting user list from server...]")
		return false, c.send(domain.Command{Type: domain.TypeCommand, Name: domain.CommandUsers, User: c.user})
	case "clear":
		c.display.Clear()
	case "watch":
		c.watch(args)
	case "whisper":
		return false, c.whisper(args)
	case "attack":
		return false, c.attack(args)
	case "":
		c.display.Warn("Type /help to see the available commands.")
	default:
		return false, c.send(domain.Command{Type: domain.TypeCommand, Name: name, User: c.user, Payload: line})
	}
	return false, nil
}

func (c *Controller) help() {
	lines := []string{"--- AVAILABLE COMMANDS ---"}
	for _, cmd := range commandHelp {
		lines = append(lines, fmt.Sprintf("/%-7s : %s", cmd.name, cmd.desc))
	}
	lines = append(lines, "--------------------------")
	c.display.Block(lines...)
}

func (c *Controller) soundCommand(arg string) {
	switch arg {
	case "":
		current := c.sound.Current()
		if current == "" {
			current = "System default beep"
		}
		c.display.Block("Usage: /sound <path/to/sound.wav> | /sound mute | /sound unmute", "Current sound: "+current)
	case "mute":
		c.sound.Mute()
		c.display.Server("Notifications muted.")
	case "unmute":
		c.sound.Unmute()
		c.display.Server("Notifications unmuted.")
	default:
		if err := c.sound.SetSound(arg); err != nil {
			c.display.Warn("Error: %v", err)
			return
		}
		c.display.Server("Notification sound changed to: %s", arg)
		c.sound.Notify()
	}
}

func (c *Controller) imageCommand(path string) error {
	if path == "" {
		c.display.Warn("Usage: /image <path/to/image>")
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		c.display.Warn("Error: could not read %s: %v", path, err)
		return nil
	}

	filename := filepath.Base(path)
	err = c.send(domain.ImageData{
		Type:     domain.TypeImageData,
		User:     c.user,
		Filename: filename,
		Content:  base64.StdEncoding.EncodeToString(data),
	})
	if err != nil {
		return err
	}

	c.display.Plain("[%s] Displaying image '%s'...", c.user, filename)
	if err := c.display.Do(func() error { return c.renderer.Render(data) }); err != nil {
		c.display.Warn("[ERROR] Failed to render image: %v", err)
	}
	return nil
}

func (c *Controller) watch(url string) {
	if url == "" {
		c.display.Warn("Usage: /watch <video_url>")
		return
	}
	if err := c.openURL(url); err != nil {
		c.display.Warn("Error: could not open %s: %v", url, err)
		return
	}
	c.display.Server("Opening %s...", url)
}

func (c *Controller) whisper(args string) error {
	to, text, _ := strings.Cut(args, " ")
	text = strings.TrimSpace(text)
	if to == "" || text == "" {
		c.display.Warn("Usage: /whisper <username> <message>")
		return nil
	}
	return c.send(domain.Whisper{Type: domain.TypeWhisper, From: c.user, To: to, Message: text})
}

func (c *Controller) attack(args string) error {
	fields := strings.Fields(args)
	if len(fields) != 2 {
		c.display.Warn("Usage: /attack <username> <attack>")
		return nil
	}
	if _, ok := domain.Damage(fields[1]); !ok {
		c.display.Warn("Unknown attack '%s'. Available: %s", fields[1], strings.Join(domain.AttackNames(), ", "))
		return nil
	}
	return c.send(domain.Attack{Type: domain.TypeAttack, From: c.user, To: fields[0], Attack: fields[1]})
}
