package domain

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestIngestSweepsPendingThenInserts(t *testing.T) {
	repo := &mockRepo{pendingDeleted: 2}
	sink := &recordingSink{}
	service := NewService(repo, sink)

	c, purged, err := service.Ingest(context.Background(), sampleInput("D1"))
	require.NoError(t, err)
	require.EqualValues(t, 2, purged)

	require.Equal(t, []string{"D1"}, repo.deletePendingCalls)
	require.Len(t, repo.inserted, 1)

	stored := repo.inserted[0]
	require.Equal(t, c.ID, stored.ID)
	require.NotEmpty(t, stored.ID)
	require.Equal(t, StatusNone, stored.Status)
	require.Equal(t, "D1", stored.DeviceID)
	require.Equal(t, time.UTC, stored.Timestamp.Location())
	require.WithinDuration(t, time.Now().UTC(), stored.Timestamp, time.Minute)

	require.Equal(t, 1, sink.created)
}

func TestIngestSweepTargetsOnlyTheReportingDevice(t *testing.T) {
	repo := &mockRepo{}
	service := NewService(repo, nil)

	_, _, err := service.Ingest(context.Background(), sampleInput("D1"))
	require.NoError(t, err)
	_, _, err = service.Ingest(context.Background(), sampleInput("D2"))
	require.NoError(t, err)

	require.Equal(t, []string{"D1", "D2"}, repo.deletePendingCalls)
}

func TestIngestSurfacesInsertFailure(t *testing.T) {
	repo := &mockRepo{insertErr: errors.New("write failed")}
	service := NewService(repo, nil)

	_, _, err := service.Ingest(context.Background(), sampleInput("D1"))
	require.Error(t, err)
}

func TestAcceptReturnsPostUpdateCase(t *testing.T) {
	repo := &mockRepo{updated: &Case{ID: "c1", DeviceID: "D1", Status: StatusAccepted}}
	sink := &recordingSink{}
	service := NewService(repo, sink)

	c, err := service.Accept(context.Background(), "c1")
	require.NoError(t, err)
	require.Equal(t, StatusAccepted, c.Status)
	require.Equal(t, StatusAccepted, repo.lastStatus)
	require.Equal(t, 1, sink.statusChanged)
}

func TestRejectAfterAcceptIsAllowed(t *testing.T) {
	repo := &mockRepo{updated: &Case{ID: "c1", Status: StatusRejected}}
	service := NewService(repo, nil)

	c, err := service.Reject(context.Background(), "c1")
	require.NoError(t, err)
	require.Equal(t, StatusRejected, c.Status)
}

func TestTransitionUnknownIDReturnsNotFound(t *testing.T) {
	service := NewService(&mockRepo{}, nil)

	_, err := service.Accept(context.Background(), "missing")
	require.ErrorIs(t, err, ErrCaseNotFound)

	_, err = service.Reject(context.Background(), "missing")
	require.ErrorIs(t, err, ErrCaseNotFound)
}

func TestDeleteUnknownIDReturnsNotFound(t *testing.T) {
	service := NewService(&mockRepo{}, nil)

	err := service.Delete(context.Background(), "missing")
	require.ErrorIs(t, err, ErrCaseNotFound)
}

func TestDeleteRemovesCase(t *testing.T) {
	repo := &mockRepo{deleteFound: true}
	sink := &recordingSink{}
	service := NewService(repo, sink)

	require.NoError(t, service.Delete(context.Background(), "c1"))
	require.Equal(t, 1, sink.deleted)
}

func TestBuzzerReflectsPendingSet(t *testing.T) {
	now := time.Now().UTC()
	repo := &mockRepo{listed: []Case{
		{ID: "c1", DeviceID: "D1", Status: StatusNone, Timestamp: now},
		{ID: "c2", DeviceID: "D2", Status: StatusNone, Timestamp: now.Add(-time.Minute)},
	}}
	service := NewService(repo, nil)

	status, err := service.Buzzer(context.Background())
	require.NoError(t, err)
	require.True(t, status.Active)
	require.Len(t, status.Pending, 2)
	require.Equal(t, CaseSummary{ID: "c1", DeviceID: "D1", Timestamp: now}, status.Pending[0])
}

func TestBuzzerInactiveWhenNothingPending(t *testing.T) {
	service := NewService(&mockRepo{}, nil)

	status, err := service.Buzzer(context.Background())
	require.NoError(t, err)
	require.False(t, status.Active)
	require.Empty(t, status.Pending)
}

func sampleInput(deviceID string) IngestInput {
	return IngestInput{
		HeartRate:   80,
		Temperature: 37,
		SpO2:        98,
		GPS:         GPS{Latitude: 1, Longitude: 2},
		DeviceID:    deviceID,
	}
}

type mockRepo struct {
	pendingDeleted     int64
	deletePendingCalls []string
	inserted           []Case
	insertErr          error
	listed             []Case
	updated            *Case
	lastStatus         Status
	deleteFound        bool
}

func (m *mockRepo) DeletePending(ctx context.Context, deviceID string) (int64, error) {
	m.deletePendingCalls = append(m.deletePendingCalls, deviceID)
	return m.pendingDeleted, nil
}

func (m *mockRepo) Insert(ctx context.Context, c Case) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	m.inserted = append(m.inserted, c)
	return nil
}

func (m *mockRepo) ListAll(ctx context.Context) ([]Case, error) {
	return m.listed, nil
}

func (m *mockRepo) ListByStatus(ctx context.Context, statuses ...Status) ([]Case, error) {
	return m.listed, nil
}

func (m *mockRepo) ListByDevice(ctx context.Context, deviceID string) ([]Case, error) {
	return m.listed, nil
}

func (m *mockRepo) UpdateStatus(ctx context.Context, id string, status Status) (*Case, error) {
	m.lastStatus = status
	return m.updated, nil
}

func (m *mockRepo) Delete(ctx context.Context, id string) (bool, error) {
	return m.deleteFound, nil
}

type recordingSink struct {
	created       int
	statusChanged int
	deleted       int
}

func (s *recordingSink) CaseCreated(ctx context.Context, c Case, purged int64) {
	s.created++
}

func (s *recordingSink) CaseStatusChanged(ctx context.Context, c Case) {
	s.statusChanged++
}

func (s *recordingSink) CaseDeleted(ctx context.Context, id string) {
	s.deleted++
}
