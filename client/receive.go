package client

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"chatrelay/domain"
)

// frame is the union of every field the broker may relay.
type frame struct {
	Type     string   `json:"type"`
	User     string   `json:"user"`
	Text     string   `json:"text"`
	Filename string   `json:"filename"`
	Content  string   `json:"content"`
	Name     string   `json:"name"`
	Action   string   `json:"action"`
	From     string   `json:"from"`
	To       string   `json:"to"`
	Message  string   `json:"message"`
	Attack   string   `json:"attack"`
	Users    []string `json:"users"`
	Count    int      `json:"count"`
	Life     int      `json:"life"`
}

func (c *Controller) receive(data []byte) {
	var f frame
	if err := json.Unmarshal(data, &f); err != nil {
		c.display.Server("[SERVER NOTIFICATION] %s", data)
		return
	}

	switch f.Type {
	case domain.TypeImageData:
		if f.User == c.user {
			return
		}
		c.sound.Notify()
		c.showImage(f)

	case domain.TypeMessage:
		if f.User == c.user {
			return
		}
		c.sound.Notify()
		c.display.Chat(orDefault(f.User, "unknown"), f.Text)

	case domain.TypeNotification:
		c.display.Server("[NOTIFICATION] %s %s.", orDefault(f.User, "unknown"), orDefault(f.Action, "performed an action"))

	case domain.TypeCommand:
		user := orDefault(f.User, "someone")
		if f.Name == domain.CommandQuit {
			c.display.Server("[SERVER] %s has disconnected.", user)
		} else {
			c.display.Server("[SERVER] Command '%s' received from %s.", orDefault(f.Name, "unknown"), user)
		}

	case domain.TypeUserList:
		c.showUsers(f)

	case domain.TypeWhisperReceived:
		c.sound.Notify()
		c.display.Whisper("[whisper from %s] %s", f.From, f.Message)

	case domain.TypeWhisperSent:
		c.display.Whisper("[whisper to %s] %s", f.To, f.Message)

	case domain.TypeWhisperError, domain.TypeAttackError:
		c.display.Warn("[ERROR] %s", orDefault(f.Message, "Target not found."))

	case domain.TypeAttackReceived:
		c.sound.Notify()
		c.display.Attack("%s hit you with %s!", f.From, f.Attack)

	case domain.TypeAttackSent:
		c.display.Attack("You used %s on %s.", f.Attack, f.To)

	case domain.TypeLifeUpdate:
		if f.Life <= 0 {
			c.display.Attack("Your life: 0/%d. You have been defeated.", domain.MaxLife)
		} else {
			c.display.Attack("Your life: %d/%d", f.Life, domain.MaxLife)
		}

	case domain.TypeAttackNotification:
		c.display.Server("[SERVER] %s", f.Message)

	default:
		c.display.Server("[SERVER] Received unhandled data structure: %s", data)
	}
}

func (c *Controller) showImage(f frame) {
	img, err := base64.StdEncoding.DecodeString(f.Content)
	if err != nil {
		c.display.Warn("[ERROR] Failed to render image: %v", err)
		return
	}
	c.display.Plain("[%s] Displaying image '%s'...", orDefault(f.User, "unknown"), f.Filename)
	if err := c.display.Do(func() error { return c.renderer.Render(img) }); err != nil {
		c.display.Warn("[ERROR] Failed to render image: %v", err)
	}
}

func (c *Controller) showUsers(f frame) {
	lines := []string{fmt.Sprintf("--- ONLINE USERS (%d) ---", f.Count)}
	for _, u := range f.Users {
		if u == c.user {
			u += " (you)"
		}
		lines = append(lines, "  • "+u)
	}
	lines = append(lines, "---------------------------")
	c.display.Block(lines...)
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
