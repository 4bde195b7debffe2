// Package domain defines the case lifecycle logic for the WildWarden server.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/Aman-Sigroha/WildWardenServer/internal/observability"
)

// ErrCaseNotFound is returned when a case id cannot be located.
var ErrCaseNotFound = errors.New("case not found")

// CaseRepository captures persistence operations over the case collection.
type CaseRepository interface {
	DeletePending(ctx context.Context, deviceID string) (int64, error)
	Insert(ctx context.Context, c Case) error
	ListAll(ctx context.Context) ([]Case, error)
	ListByStatus(ctx context.Context, statuses ...Status) ([]Case, error)
	ListByDevice(ctx context.Context, deviceID string) ([]Case, error)
	UpdateStatus(ctx context.Context, id string, status Status) (*Case, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// EventSink receives case lifecycle notifications. Implementations must not
// fail the calling operation: publishing is best-effort.
type EventSink interface {
	CaseCreated(ctx context.Context, c Case, purged int64)
	CaseStatusChanged(ctx context.Context, c Case)
	CaseDeleted(ctx context.Context, id string)
}

// Service orchestrates the case workflow over a CaseRepository.
type Service struct {
	repo   CaseRepository
	events EventSink
}

// NewService constructs a Service. sink may be nil when event publishing is
// disabled.
func NewService(repo CaseRepository, sink EventSink) *Service {
	return &Service{repo: repo, events: sink}
}

// IngestInput carries one validated telemetry submission from the API layer.
type IngestInput struct {
	HeartRate     float64
	Temperature   float64
	SpO2          float64
	GPS           GPS
	Accelerometer Vector3
	Gyroscope     Vector3
	DeviceID      string
}

// Ingest applies the last-submission-wins policy: every case for the device
// still awaiting review is purged, then a fresh pending case is inserted.
// Cases a dispatcher already accepted or rejected are left as history. The
// purge and the insert are two separate writes; concurrent ingests for one
// device can transiently leave two pending cases, which the next ingest
// sweeps away.
func (s *Service) Ingest(ctx context.Context, input IngestInput) (*Case, int64, error) {
	purged, err := s.repo.DeletePending(ctx, input.DeviceID)
	if err != nil {
		return nil, 0, err
	}

	c := Case{
		ID:            uuid.NewString(),
		HeartRate:     input.HeartRate,
		Temperature:   input.Temperature,
		SpO2:          input.SpO2,
		GPS:           input.GPS,
		Accelerometer: input.Accelerometer,
		Gyroscope:     input.Gyroscope,
		DeviceID:      input.DeviceID,
		Status:        StatusNone,
		Timestamp:     time.Now().UTC(),
	}

	if err := s.repo.Insert(ctx, c); err != nil {
		return nil, 0, err
	}

	observability.RecordCaseIngested(purged)
	if s.events != nil {
		s.events.CaseCreated(ctx, c, purged)
	}
	return &c, purged, nil
}

// ListAll returns every case, newest first.
func (s *Service) ListAll(ctx context.Context) ([]Case, error) {
	return s.repo.ListAll(ctx)
}

// ListPending returns cases awaiting dispatcher action, newest first.
func (s *Service) ListPending(ctx context.Context) ([]Case, error) {
	return s.repo.ListByStatus(ctx, StatusNone)
}

// ListProcessed returns accepted and rejected cases, newest first.
func (s *Service) ListProcessed(ctx context.Context) ([]Case, error) {
	return s.repo.ListByStatus(ctx, StatusAccepted, StatusRejected)
}

// ListByDevice returns every case reported by one device, newest first.
func (s *Service) ListByDevice(ctx context.Context, deviceID string) ([]Case, error) {
	return s.repo.ListByDevice(ctx, deviceID)
}

// Accept marks the case accepted. The write is unconditional: no guard keeps
// an already-rejected case from being accepted afterwards, matching the
// dispatcher surface this service replaces.
func (s *Service) Accept(ctx context.Context, id string) (*Case, error) {
	return s.transition(ctx, id, StatusAccepted)
}

// Reject marks the case rejected, with the same unconditional semantics as
// Accept.
func (s *Service) Reject(ctx context.Context, id string) (*Case, error) {
	return s.transition(ctx, id, StatusRejected)
}

func (s *Service) transition(ctx context.Context, id string, status Status) (*Case, error) {
	c, err := s.repo.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrCaseNotFound
	}

	observability.RecordCaseResolved(string(status))
	if s.events != nil {
		s.events.CaseStatusChanged(ctx, *c)
	}
	return c, nil
}

// Delete removes the case at any status.
func (s *Service) Delete(ctx context.Context, id string) error {
	found, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !found {
		return ErrCaseNotFound
	}

	if s.events != nil {
		s.events.CaseDeleted(ctx, id)
	}
	return nil
}

// Buzzer recomputes the dispatcher alert signal from the current pending set.
func (s *Service) Buzzer(ctx context.Context) (*BuzzerStatus, error) {
	pending, err := s.repo.ListByStatus(ctx, StatusNone)
	if err != nil {
		return nil, err
	}

	summaries := make([]CaseSummary, 0, len(pending))
	for _, c := range pending {
		summaries = append(summaries, CaseSummary{
			ID:        c.ID,
			DeviceID:  c.DeviceID,
			Timestamp: c.Timestamp,
		})
	}

	status := &BuzzerStatus{
		Active:  len(pending) > 0,
		Pending: summaries,
	}
	observability.RecordBuzzerState(status.Active, len(pending))
	return status, nil
}
