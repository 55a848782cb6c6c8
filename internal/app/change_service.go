package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/example/remedy/internal/core/authority"
	"github.com/example/remedy/internal/core/change"
	"github.com/example/remedy/internal/errs"
	"github.com/example/remedy/internal/ports/primary"
	"github.com/example/remedy/internal/ports/secondary"
)

// ChangeServiceImpl implements the ChangeService interface.
type ChangeServiceImpl struct {
	gov *governance
}

// NewChangeService creates a new ChangeService with injected dependencies.
func NewChangeService(
	actionRepo secondary.ActionRepository,
	changeRepo secondary.ChangeRepository,
	authz secondary.Authorizer,
	identity secondary.IdentityProvider,
	clock secondary.Clock,
	logger *slog.Logger,
) *ChangeServiceImpl {
	return &ChangeServiceImpl{
		gov: &governance{
			actions:  actionRepo,
			changes:  changeRepo,
			authz:    authz,
			identity: identity,
			clock:    clock,
			logger:   logger,
		},
	}
}

// ProposeChange records a PENDING change to a governed field.
func (s *ChangeServiceImpl) ProposeChange(ctx context.Context, req primary.ProposeChangeRequest) (*primary.ActionChange, error) {
	actor, err := s.gov.caller(ctx)
	if err != nil {
		return nil, err
	}
	rec, err := s.gov.loadAction(ctx, req.ActionID)
	if err != nil {
		return nil, err
	}
	if err := s.gov.require(ctx, actor, authority.ObjAction, authority.ActPropose, rec.Reference, owns(actor, rec)); err != nil {
		return nil, err
	}

	proposed, err := s.gov.proposeChange(ctx, actor, rec, req.Field, req.NewValue, req.Reason, evidenceOf(req))
	if err != nil {
		return nil, err
	}
	return recordToChange(proposed, rec.Reference, false), nil
}

// SubmitChange routes a governed change by the caller's authority.
func (s *ChangeServiceImpl) SubmitChange(ctx context.Context, req primary.ProposeChangeRequest) (*primary.SubmitChangeResponse, error) {
	actor, err := s.gov.caller(ctx)
	if err != nil {
		return nil, err
	}
	rec, err := s.gov.loadAction(ctx, req.ActionID)
	if err != nil {
		return nil, err
	}
	field, err := change.ParseField(req.Field)
	if err != nil {
		return nil, err
	}
	if !field.IsGoverned() {
		return nil, errs.Validation("%s is not governed; edit it directly", field)
	}

	owned := owns(actor, rec)
	mc := authority.MutationContext{ActorID: actor, ActionRef: rec.Reference, Field: string(field)}
	if mc.CanEdit, err = s.gov.allowed(ctx, actor, authority.ObjAction, authority.ActEdit, owned); err != nil {
		return nil, err
	}
	if mc.CanPropose, err = s.gov.allowed(ctx, actor, authority.ObjAction, authority.ActPropose, owned); err != nil {
		return nil, err
	}

	route, guard := authority.RouteMutation(mc)
	switch route {
	case authority.RouteDirect:
		applied, err := s.gov.applyDirect(ctx, actor, rec, field, req.NewValue, req.Reason, evidenceOf(req))
		if err != nil {
			return nil, err
		}
		resp := &primary.SubmitChangeResponse{Route: string(route)}
		if applied != nil {
			resp.Change = recordToChange(applied, rec.Reference, false)
		}
		return resp, nil
	case authority.RoutePropose:
		proposed, err := s.gov.proposeChange(ctx, actor, rec, req.Field, req.NewValue, req.Reason, evidenceOf(req))
		if err != nil {
			return nil, err
		}
		return &primary.SubmitChangeResponse{Route: string(route), Change: recordToChange(proposed, rec.Reference, false)}, nil
	default:
		return nil, guard.Error()
	}
}

// AddProgressNote records a progress note against an action.
func (s *ChangeServiceImpl) AddProgressNote(ctx context.Context, req primary.ProgressNoteRequest) (*primary.ActionChange, error) {
	actor, err := s.gov.caller(ctx)
	if err != nil {
		return nil, err
	}
	rec, err := s.gov.loadAction(ctx, req.ActionID)
	if err != nil {
		return nil, err
	}
	if err := s.gov.require(ctx, actor, authority.ObjAction, authority.ActNote, rec.Reference, owns(actor, rec)); err != nil {
		return nil, err
	}

	guard := change.CanPropose(change.ProposeContext{
		ActionID:     rec.Reference,
		ActionExists: true,
		IsUpdate:     true,
		NewValue:     req.Text,
	})
	if !guard.Allowed {
		return nil, guard.Error()
	}

	id, err := s.gov.changes.GetNextID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get next change ID: %w", err)
	}

	record := &secondary.ChangeRecord{
		ID:           id,
		ActionID:     rec.ID,
		Field:        string(change.FieldUpdate),
		NewValue:     strings.TrimSpace(req.Text),
		IsUpdate:     true,
		ProposedBy:   actor,
		ProposedAt:   s.gov.now(),
		EvidenceURL:  strings.TrimSpace(req.EvidenceURL),
		EvidenceName: strings.TrimSpace(req.EvidenceName),
	}
	if err := s.gov.changes.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to record progress note: %w", err)
	}

	s.gov.log(ctx).Info("progress note added", "action", rec.Reference, "change", id)
	return recordToChange(record, rec.Reference, false), nil
}

// ResolveChange approves or rejects a PENDING change.
func (s *ChangeServiceImpl) ResolveChange(ctx context.Context, req primary.ResolveChangeRequest) (*primary.ActionChange, error) {
	actor, err := s.gov.caller(ctx)
	if err != nil {
		return nil, err
	}
	changeID := strings.ToUpper(strings.TrimSpace(req.ChangeID))
	if err := s.gov.require(ctx, actor, authority.ObjChange, authority.ActResolve, changeID, false); err != nil {
		return nil, err
	}

	decision, err := change.ParseResolution(req.Decision)
	if err != nil {
		return nil, err
	}

	pending, err := s.gov.changes.GetByID(ctx, changeID)
	if err != nil && !errors.Is(err, errs.ErrNotFound) {
		return nil, err
	}
	guard := change.CanResolve(change.ResolveContext{
		ChangeID: changeID,
		Exists:   pending != nil,
		IsUpdate: pending != nil && pending.IsUpdate,
		Status:   statusOf(pending),
	})
	if !guard.Allowed {
		return nil, guard.Error()
	}

	rec, err := s.gov.actions.GetByID(ctx, pending.ActionID)
	if err != nil {
		return nil, err
	}

	if decision == change.StatusApproved {
		m, err := change.Decode(change.Field(pending.Field), pending.OldValue, pending.NewValue)
		if err != nil {
			return nil, fmt.Errorf("change %s cannot be applied: %w", changeID, err)
		}
		current, err := governedOf(rec)
		if err != nil {
			return nil, err
		}
		// Check the transition against the action as it is now, not as it
		// was when the proposal was raised.
		live, err := change.Build(m.Field(), current, m.NewValue())
		if err != nil {
			return nil, err
		}
		if err := checkProposable(rec, live); err != nil {
			return nil, err
		}
		if err := checkGovernedMutation(rec, current, live); err != nil {
			return nil, err
		}
	}

	now := s.gov.now()
	err = s.gov.changes.Resolve(ctx, &secondary.ResolveRecord{
		ChangeID:   changeID,
		Status:     string(decision),
		ReviewedBy: actor,
		ReviewedAt: now,
		ReviewNote: strings.TrimSpace(req.Note),
		Apply:      decision == change.StatusApproved,
	})
	if err != nil {
		return nil, err
	}

	pending.Status = string(decision)
	pending.ReviewedBy = actor
	pending.ReviewedAt = &now
	pending.ReviewNote = strings.TrimSpace(req.Note)

	s.gov.log(ctx).Info("change resolved",
		"action", rec.Reference, "change", changeID, "field", pending.Field, "decision", string(decision))
	return recordToChange(pending, rec.Reference, false), nil
}

// History returns an action's ledger newest-first.
func (s *ChangeServiceImpl) History(ctx context.Context, actionID string) ([]*primary.ActionChange, error) {
	rec, err := s.gov.loadAction(ctx, actionID)
	if err != nil {
		return nil, err
	}
	records, err := s.gov.changes.ListByAction(ctx, rec.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}

	current, err := governedOf(rec)
	if err != nil {
		return nil, err
	}
	entries := toEntries(records)
	out := make([]*primary.ActionChange, len(records))
	for i, r := range records {
		out[i] = recordToChange(r, rec.Reference, change.IsStale(entries[i], current))
	}
	return out, nil
}

// CumulativeDrift returns the approved due-date drift in days.
func (s *ChangeServiceImpl) CumulativeDrift(ctx context.Context, actionID string) (int, error) {
	entries, _, err := s.entries(ctx, actionID)
	if err != nil {
		return 0, err
	}
	return change.CumulativeDrift(entries), nil
}

// OriginalValue returns a field's value before it was first proposed.
func (s *ChangeServiceImpl) OriginalValue(ctx context.Context, actionID, field string) (string, error) {
	f, err := change.ParseField(field)
	if err != nil {
		return "", err
	}
	if f == change.FieldUpdate {
		return "", errs.InvalidField("progress notes have no original value")
	}
	entries, rec, err := s.entries(ctx, actionID)
	if err != nil {
		return "", err
	}
	return change.OriginalValue(entries, f, currentValue(rec, f)), nil
}

// ListPending returns the review queue, oldest first.
func (s *ChangeServiceImpl) ListPending(ctx context.Context, filters primary.ChangeFilters) ([]*primary.ActionChange, error) {
	repoFilters := secondary.ChangeFilters{ProposedBy: filters.ProposedBy}
	if filters.Field != "" {
		f, err := change.ParseField(filters.Field)
		if err != nil {
			return nil, err
		}
		repoFilters.Field = string(f)
	}
	if filters.ActionID != "" {
		rec, err := s.gov.loadAction(ctx, filters.ActionID)
		if err != nil {
			return nil, err
		}
		repoFilters.ActionID = rec.ID
	}

	records, err := s.gov.changes.ListPending(ctx, repoFilters)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending changes: %w", err)
	}

	actions := make(map[string]*secondary.ActionRecord)
	out := make([]*primary.ActionChange, 0, len(records))
	for _, r := range records {
		rec, ok := actions[r.ActionID]
		if !ok {
			if rec, err = s.gov.actions.GetByID(ctx, r.ActionID); err != nil {
				return nil, err
			}
			actions[r.ActionID] = rec
		}
		stale := false
		if current, err := governedOf(rec); err == nil {
			stale = change.IsStale(toEntries([]*secondary.ChangeRecord{r})[0], current)
		}
		out = append(out, recordToChange(r, rec.Reference, stale))
	}
	return out, nil
}

func (s *ChangeServiceImpl) entries(ctx context.Context, actionID string) ([]change.Entry, *secondary.ActionRecord, error) {
	rec, err := s.gov.loadAction(ctx, actionID)
	if err != nil {
		return nil, nil, err
	}
	records, err := s.gov.changes.ListByAction(ctx, rec.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load history: %w", err)
	}
	return toEntries(records), rec, nil
}

func statusOf(r *secondary.ChangeRecord) change.Status {
	if r == nil {
		return ""
	}
	return change.Status(r.Status)
}

// Ensure ChangeServiceImpl implements the interface
var _ primary.ChangeService = (*ChangeServiceImpl)(nil)

func evidenceOf(req primary.ProposeChangeRequest) evidence {
	return evidence{URL: req.EvidenceURL, Name: req.EvidenceName}
}
