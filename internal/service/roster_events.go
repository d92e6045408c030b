package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
)

// Roster event types.
const (
	RosterEventStudentAdded   = "student.added"
	RosterEventRecordToggled  = "record.toggled"
	RosterEventStudentRemoved = "student.removed"
	RosterEventImported       = "roster.imported"
)

// RosterEvent describes a committed roster change.
type RosterEvent struct {
	Type       string             `json:"type"`
	Student    string             `json:"student,omitempty"`
	Date       string             `json:"date,omitempty"`
	Record     *RosterEventRecord `json:"record,omitempty"`
	Students   int                `json:"students"`
	Actor      string             `json:"actor"`
	OccurredAt time.Time          `json:"occurred_at"`
}

// RosterEventRecord is the record state carried by toggle events.
type RosterEventRecord struct {
	Active   bool `json:"active"`
	Violated bool `json:"violated"`
	Score    int  `json:"score"`
}

// RosterEventPublisher fans roster changes out to other services.
type RosterEventPublisher interface {
	Publish(ctx context.Context, event RosterEvent) error
}

type natsRosterPublisher struct {
	conn    *nats.Conn
	subject string
}

// NewNATSRosterPublisher publishes events on "<channelBase>.roster".
func NewNATSRosterPublisher(conn *nats.Conn, channelBase string) RosterEventPublisher {
	base := strings.ReplaceAll(strings.TrimSpace(channelBase), ":", ".")
	if base == "" {
		base = "gema"
	}
	return &natsRosterPublisher{conn: conn, subject: base + ".roster"}
}

func (p *natsRosterPublisher) Publish(_ context.Context, event RosterEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.conn.Publish(p.subject, payload)
}
