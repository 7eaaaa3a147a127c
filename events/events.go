// Package events publishes domain events to NATS for downstream
// consumers (notifications, analytics). The publisher is optional:
// a nil *Publisher drops everything.
package events

import (
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
)

const (
	SubjectActivityCreated     = "activity.created"
	SubjectActivityJoined      = "activity.joined"
	SubjectConnectionRequested = "connection.requested"
	SubjectConnectionResponded = "connection.responded"
	SubjectConnectionMessage   = "connection.message"
)

type Publisher struct {
	nc *nats.Conn
}

func NewPublisher(nc *nats.Conn) *Publisher {
	return &Publisher{nc: nc}
}

func (p *Publisher) Publish(subject string, v any) error {
	if p == nil || p.nc == nil {
		return nil
	}

	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("json marshal %s event: %w", subject, err)
	}

	if err := p.nc.Publish(subject, b); err != nil {
		return fmt.Errorf("nats publish %s: %w", subject, err)
	}

	return nil
}

func (p *Publisher) Close() {
	if p == nil || p.nc == nil {
		return
	}
	p.nc.Flush()
	p.nc.Close()
}
