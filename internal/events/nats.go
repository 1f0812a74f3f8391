package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go"
)

const DefaultSubjectPrefix = "seatplan"

// NATSPublisher publishes changes as JSON on <prefix>.occasions.<id>.<kind>.
type NATSPublisher struct {
	conn   *nats.Conn
	prefix string
}

func NewNATSPublisher(conn *nats.Conn, prefix string) *NATSPublisher {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	return &NATSPublisher{conn: conn, prefix: prefix}
}

// Subject returns the subject a change is published on.
func (p *NATSPublisher) Subject(c Change) string {
	return fmt.Sprintf("%s.occasions.%s.%s", p.prefix, c.OccasionID, c.Kind)
}

func (p *NATSPublisher) Publish(ctx context.Context, c Change) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.OccasionID == "" {
		return errors.New("change without occasion id")
	}
	payload, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode change: %w", err)
	}
	if err := p.conn.Publish(p.Subject(c), payload); err != nil {
		return fmt.Errorf("publish %s: %w", c.Kind, err)
	}
	return nil
}
