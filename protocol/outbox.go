package protocol

import (
	"encoding/json"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"chatrelay/domain"
)

// outbox collects the frames one routing step produces. Frames for the same
// recipient are delivered in the order they were added; recipients are
// served concurrently.
type outbox struct {
	recipients []domain.Connection
	frames     map[string][][]byte
}

func newOutbox() *outbox {
	return &outbox{frames: make(map[string][][]byte)}
}

func (o *outbox) add(conn domain.Connection, msg any) {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Warn("marshal error", "clientId", conn.ID(), "error", err)
		return
	}
	o.addRaw(conn, data)
}

func (o *outbox) addRaw(conn domain.Connection, data []byte) {
	if _, seen := o.frames[conn.ID()]; !seen {
		o.recipients = append(o.recipients, conn)
	}
	o.frames[conn.ID()] = append(o.frames[conn.ID()], data)
}

// flush sends everything and waits. A failed send is logged and ends
// delivery to that recipient only.
func (o *outbox) flush() {
	var g errgroup.Group
	for _, conn := range o.recipients {
		frames := o.frames[conn.ID()]
		g.Go(func() error {
			for _, data := range frames {
				if err := conn.Send(data); err != nil {
					slog.Warn("send failed", "clientId", conn.ID(), "error", err)
					return nil
				}
			}
			return nil
		})
	}
	_ = g.Wait()
}
