package service

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNATSRosterPublisherSubject(t *testing.T) {
	cases := map[string]string{
		"gema":        "gema.roster",
		" gema:prod ": "gema.prod.roster",
		"":            "gema.roster",
	}
	for base, subject := range cases {
		publisher := NewNATSRosterPublisher(nil, base).(*natsRosterPublisher)
		require.Equal(t, subject, publisher.subject)
	}
}

func TestRosterEventEncoding(t *testing.T) {
	event := RosterEvent{
		Type:       RosterEventRecordToggled,
		Student:    "Ana",
		Date:       "2024-01-01",
		Record:     &RosterEventRecord{Active: true, Score: 82},
		Students:   1,
		Actor:      "guru",
		OccurredAt: time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC),
	}

	payload, err := json.Marshal(event)
	require.NoError(t, err)
	require.JSONEq(t, `{
		"type": "record.toggled",
		"student": "Ana",
		"date": "2024-01-01",
		"record": {"active": true, "violated": false, "score": 82},
		"students": 1,
		"actor": "guru",
		"occurred_at": "2024-01-01T08:00:00Z"
	}`, string(payload))
}
