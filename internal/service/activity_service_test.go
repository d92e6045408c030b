package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-roster-api/internal/dto"
	"github.com/noah-isme/gema-roster-api/internal/models"
	"github.com/noah-isme/gema-roster-api/internal/repository"
)

type memoryActivityRepo struct {
	entries []models.ActivityLog
}

func (m *memoryActivityRepo) Create(ctx context.Context, entry *models.ActivityLog) error {
	entry.ID = uint(len(m.entries) + 1)
	entry.CreatedAt = time.Now()
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *memoryActivityRepo) List(ctx context.Context, filter repository.ActivityLogFilter) ([]models.ActivityLog, int64, error) {
	return append([]models.ActivityLog(nil), m.entries...), int64(len(m.entries)), nil
}

func TestActivityServiceRecordMasksSecrets(t *testing.T) {
	repo := &memoryActivityRepo{}
	svc := NewActivityService(repo, zerolog.Nop())

	entry, err := svc.Record(context.Background(), ActivityEntry{
		Actor:      ActivityActor{Name: " guru ", Role: "Teacher"},
		Action:     "Record.Toggled",
		EntityType: "record",
		EntityKey:  "Ana/2024-01-01",
		Metadata: map[string]interface{}{
			"password": "123456",
			"flag":     "active",
		},
	})
	require.NoError(t, err)
	require.Equal(t, "***", entry.Metadata["password"])
	require.Equal(t, "active", entry.Metadata["flag"])
	require.Equal(t, "guru", entry.ActorName)
	require.Equal(t, "teacher", entry.ActorRole)
	require.Equal(t, "record.toggled", entry.Action)
}

func TestActivityServiceRecordRequiresAction(t *testing.T) {
	svc := NewActivityService(&memoryActivityRepo{}, zerolog.Nop())

	_, err := svc.Record(context.Background(), ActivityEntry{EntityType: "student"})
	require.Error(t, err)

	_, err = svc.Record(context.Background(), ActivityEntry{Action: "student.added"})
	require.Error(t, err)
}

func TestActivityServiceListPagination(t *testing.T) {
	repo := &memoryActivityRepo{}
	svc := NewActivityService(repo, zerolog.Nop())

	for i := 0; i < 3; i++ {
		_, err := svc.Record(context.Background(), ActivityEntry{Actor: SystemActor, Action: "student.added", EntityType: "student"})
		require.NoError(t, err)
	}

	result, err := svc.List(context.Background(), dto.ActivityListRequest{Page: 0, PageSize: 2})
	require.NoError(t, err)
	require.Len(t, result.Items, 3)
	require.Equal(t, 1, result.Pagination.Page)
	require.Equal(t, int64(3), result.Pagination.TotalItems)
	require.Equal(t, 2, result.Pagination.TotalPages)
	require.Equal(t, "system", result.Items[0].ActorName)
}
