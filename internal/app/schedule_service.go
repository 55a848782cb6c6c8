package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/example/remedy/internal/core/authority"
	"github.com/example/remedy/internal/core/schedule"
	"github.com/example/remedy/internal/errs"
	"github.com/example/remedy/internal/ports/primary"
	"github.com/example/remedy/internal/ports/secondary"
)

// ScheduleServiceImpl implements the ScheduleService interface.
type ScheduleServiceImpl struct {
	scheduleRepo secondary.ScheduleRepository
	authz        secondary.Authorizer
	identity     secondary.IdentityProvider
	clock        secondary.Clock
	logger       *slog.Logger
}

// NewScheduleService creates a new ScheduleService with injected dependencies.
func NewScheduleService(
	scheduleRepo secondary.ScheduleRepository,
	authz secondary.Authorizer,
	identity secondary.IdentityProvider,
	clock secondary.Clock,
	logger *slog.Logger,
) *ScheduleServiceImpl {
	return &ScheduleServiceImpl{
		scheduleRepo: scheduleRepo,
		authz:        authz,
		identity:     identity,
		clock:        clock,
		logger:       logger,
	}
}

// CreateScheduleEntry creates a new schedule entry.
func (s *ScheduleServiceImpl) CreateScheduleEntry(ctx context.Context, req primary.CreateScheduleEntryRequest) (*primary.ScheduleEntry, error) {
	actor, err := s.requireActor(ctx, authority.ActCreate, "")
	if err != nil {
		return nil, err
	}

	guard := schedule.CanCreate(schedule.CreateContext{Title: req.Title, ScheduledFor: req.ScheduledFor})
	if !guard.Allowed {
		return nil, guard.Error()
	}

	id, err := s.scheduleRepo.GetNextID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get next schedule entry ID: %w", err)
	}

	record := &secondary.ScheduleEntryRecord{
		ID:           id,
		Title:        strings.TrimSpace(req.Title),
		ControlRef:   strings.TrimSpace(req.ControlRef),
		ScheduledFor: strings.TrimSpace(req.ScheduledFor),
		Status:       string(schedule.StatusActive),
		CreatedAt:    s.clock.Now().UTC(),
	}
	if err := s.scheduleRepo.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to create schedule entry: %w", err)
	}

	s.logger.Info("schedule entry created", "actor", actor, "entry", id, "scheduled_for", record.ScheduledFor)
	return recordToScheduleEntry(record), nil
}

// GetScheduleEntry retrieves a schedule entry by ID.
func (s *ScheduleServiceImpl) GetScheduleEntry(ctx context.Context, entryID string) (*primary.ScheduleEntry, error) {
	record, err := s.scheduleRepo.GetByID(ctx, normaliseEntryID(entryID))
	if err != nil {
		return nil, err
	}
	return recordToScheduleEntry(record), nil
}

// ListScheduleEntries lists schedule entries.
func (s *ScheduleServiceImpl) ListScheduleEntries(ctx context.Context, filters primary.ScheduleFilters) ([]*primary.ScheduleEntry, error) {
	status := strings.ToLower(strings.TrimSpace(filters.Status))
	if status != "" && status != string(schedule.StatusActive) && status != string(schedule.StatusArchived) {
		return nil, errs.Validation("unknown schedule status %q (must be active or archived)", filters.Status)
	}

	records, err := s.scheduleRepo.List(ctx, secondary.ScheduleFilters{Status: status})
	if err != nil {
		return nil, fmt.Errorf("failed to list schedule entries: %w", err)
	}

	entries := make([]*primary.ScheduleEntry, len(records))
	for i, r := range records {
		entries[i] = recordToScheduleEntry(r)
	}
	return entries, nil
}

// ArchiveScheduleEntry archives one entry with a reason.
func (s *ScheduleServiceImpl) ArchiveScheduleEntry(ctx context.Context, entryID, reason string) error {
	entryID = normaliseEntryID(entryID)
	actor, err := s.requireActor(ctx, authority.ActArchive, entryID)
	if err != nil {
		return err
	}

	record, err := s.scheduleRepo.GetByID(ctx, entryID)
	if err != nil && !errors.Is(err, errs.ErrNotFound) {
		return err
	}
	ac := schedule.ArchiveContext{EntryID: entryID, Exists: record != nil, Reason: reason}
	if record != nil {
		ac.Status = schedule.Status(record.Status)
	}
	if guard := schedule.CanArchive(ac); !guard.Allowed {
		return guard.Error()
	}

	if err := s.scheduleRepo.Archive(ctx, entryID, strings.TrimSpace(reason), actor, s.clock.Now().UTC()); err != nil {
		return err
	}

	s.logger.Info("schedule entry archived", "actor", actor, "entry", entryID, "reason", strings.TrimSpace(reason))
	return nil
}

// Helper methods

func (s *ScheduleServiceImpl) requireActor(ctx context.Context, act, target string) (string, error) {
	actor, err := s.identity.CurrentActor(ctx)
	if err != nil {
		return "", err
	}
	if actor == "" {
		return "", errs.Unauthorised("no caller identity")
	}
	ok, err := s.authz.Allowed(ctx, actor, authority.ObjSchedule, act, false)
	if err != nil {
		return "", fmt.Errorf("failed to check permission: %w", err)
	}
	if err := authority.Require(authority.PermissionContext{
		ActorID: actor,
		Object:  authority.ObjSchedule,
		Act:     act,
		Target:  target,
		Allowed: ok,
	}).Error(); err != nil {
		return "", err
	}
	return actor, nil
}

func normaliseEntryID(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}

func recordToScheduleEntry(r *secondary.ScheduleEntryRecord) *primary.ScheduleEntry {
	return &primary.ScheduleEntry{
		ID:            r.ID,
		Title:         r.Title,
		ControlRef:    r.ControlRef,
		ScheduledFor:  r.ScheduledFor,
		Status:        r.Status,
		ArchiveReason: r.ArchiveReason,
		ArchivedBy:    r.ArchivedBy,
		ArchivedAt:    r.ArchivedAt,
		CreatedAt:     r.CreatedAt,
	}
}

// Ensure ScheduleServiceImpl implements the interface
var _ primary.ScheduleService = (*ScheduleServiceImpl)(nil)
