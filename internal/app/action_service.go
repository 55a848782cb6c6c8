package app

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/example/remedy/internal/core/action"
	"github.com/example/remedy/internal/core/authority"
	"github.com/example/remedy/internal/core/change"
	"github.com/example/remedy/internal/errs"
	"github.com/example/remedy/internal/ports/primary"
	"github.com/example/remedy/internal/ports/secondary"
)

// ActionServiceImpl implements the ActionService interface.
type ActionServiceImpl struct {
	gov *governance
}

// NewActionService creates a new ActionService with injected dependencies.
func NewActionService(
	actionRepo secondary.ActionRepository,
	changeRepo secondary.ChangeRepository,
	authz secondary.Authorizer,
	identity secondary.IdentityProvider,
	clock secondary.Clock,
	logger *slog.Logger,
) *ActionServiceImpl {
	return &ActionServiceImpl{
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

// CreateAction creates a new action.
func (s *ActionServiceImpl) CreateAction(ctx context.Context, req primary.CreateActionRequest) (*primary.CreateActionResponse, error) {
	actor, err := s.gov.caller(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.gov.require(ctx, actor, authority.ObjAction, authority.ActCreate, "", false); err != nil {
		return nil, err
	}

	guard := action.CanCreateAction(action.CreateContext{
		Title:      req.Title,
		Status:     req.Status,
		Priority:   req.Priority,
		DueDate:    req.DueDate,
		SourceType: req.SourceType,
		SourceRef:  req.SourceRef,
	})
	if !guard.Allowed {
		return nil, guard.Error()
	}

	sourceType, _ := action.ParseSourceType(req.SourceType)
	if r := action.CanSetIssueDescription(action.IssueDescriptionContext{
		Required: sourceType == action.SourceReport,
		Text:     req.IssueDescription,
	}); !r.Allowed {
		return nil, r.Error()
	}

	status := action.InitialStatus()
	if req.Status != "" {
		status, _ = action.ParseStatus(req.Status)
	}
	priority := action.DefaultPriority
	if req.Priority != "" {
		priority, _ = action.ParsePriority(req.Priority)
	}
	due, _ := action.ParseOptionalDate(req.DueDate)

	reference, err := s.gov.actions.NextReference(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get next reference: %w", err)
	}

	record := &secondary.ActionRecord{
		ID:               uuid.New().String(),
		Reference:        reference,
		Title:            strings.TrimSpace(req.Title),
		Description:      req.Description,
		IssueDescription: strings.TrimSpace(req.IssueDescription),
		SectionTitle:     req.SectionTitle,
		Status:           string(status),
		Priority:         string(priority),
		DueDate:          action.FormatOptionalDate(due),
		AssignedTo:       strings.TrimSpace(req.AssignedTo),
		SourceType:       string(sourceType),
		SourceRef:        req.SourceRef,
		CreatedBy:        actor,
		CreatedAt:        s.gov.now(),
	}
	if err := s.gov.actions.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to create action: %w", err)
	}

	s.gov.log(ctx).Info("action created", "action", reference, "due", record.DueDate, "owner", record.AssignedTo)

	return &primary.CreateActionResponse{
		ActionID: reference,
		Action:   recordToAction(record),
	}, nil
}

// GetAction retrieves an action with its derived fields.
func (s *ActionServiceImpl) GetAction(ctx context.Context, actionID string) (*primary.ActionView, error) {
	rec, err := s.gov.loadAction(ctx, actionID)
	if err != nil {
		return nil, err
	}
	history, err := s.gov.changes.ListByAction(ctx, rec.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}

	entries := toEntries(history)
	view := s.view(rec)
	view.Drift = change.CumulativeDrift(entries)
	view.OriginalDueDate = change.OriginalValue(entries, change.FieldDueDate, rec.DueDate)
	view.OriginalOwner = change.OriginalValue(entries, change.FieldAssignedTo, rec.AssignedTo)
	return view, nil
}

// ListActions lists actions, most urgent first.
func (s *ActionServiceImpl) ListActions(ctx context.Context, filters primary.ActionFilters) ([]*primary.ActionView, error) {
	var wantStatus action.Status
	if filters.Status != "" {
		st, err := action.ParseStatus(filters.Status)
		if err != nil {
			return nil, errs.Validation("%v", err)
		}
		wantStatus = st
	}
	wantBand, ok := action.ParseUrgencyBand(filters.Urgency)
	if !ok {
		return nil, errs.Validation("unknown urgency band %q (must be late, soon, normal or none)", filters.Urgency)
	}
	if filters.Priority != "" {
		p, err := action.ParsePriority(filters.Priority)
		if err != nil {
			return nil, errs.Validation("%v", err)
		}
		filters.Priority = string(p)
	}

	records, err := s.gov.actions.List(ctx, secondary.ActionFilters{
		AssignedTo:  filters.AssignedTo,
		Priority:    filters.Priority,
		SourceType:  filters.SourceType,
		SourceRef:   filters.SourceRef,
		PendingOnly: filters.PendingOnly,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list actions: %w", err)
	}

	views := make([]*primary.ActionView, 0, len(records))
	for _, r := range records {
		v := s.view(r)
		if wantStatus != "" && v.EffectiveStatus != string(wantStatus) {
			continue
		}
		if wantBand != "" && v.Urgency != string(wantBand) {
			continue
		}
		views = append(views, v)
	}

	sort.SliceStable(views, func(i, j int) bool {
		ri := action.UrgencyRank(action.UrgencyBand(views[i].Urgency))
		rj := action.UrgencyRank(action.UrgencyBand(views[j].Urgency))
		if ri != rj {
			return ri < rj
		}
		if views[i].DueDate != views[j].DueDate {
			return views[i].DueDate < views[j].DueDate
		}
		return views[i].Reference < views[j].Reference
	})
	return views, nil
}

// EditAction writes a field directly.
func (s *ActionServiceImpl) EditAction(ctx context.Context, req primary.EditActionRequest) (*primary.ActionChange, error) {
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

	owned := owns(actor, rec)
	dc := authority.DirectEditContext{
		ActorID:   actor,
		ActionRef: rec.Reference,
		Field:     string(field),
		Governed:  field.IsGoverned(),
	}
	if dc.Governed {
		if dc.CanEdit, err = s.gov.allowed(ctx, actor, authority.ObjAction, authority.ActEdit, owned); err != nil {
			return nil, err
		}
		if dc.CanPropose, err = s.gov.allowed(ctx, actor, authority.ObjAction, authority.ActPropose, owned); err != nil {
			return nil, err
		}
	} else if dc.CanAnnotate, err = s.gov.allowed(ctx, actor, authority.ObjAction, authority.ActAnnotate, owned); err != nil {
		return nil, err
	}
	if r := authority.CanEditDirectly(dc); !r.Allowed {
		return nil, r.Error()
	}

	applied, err := s.gov.applyDirect(ctx, actor, rec, field, req.Value, req.Reason, evidence{})
	if err != nil || applied == nil {
		return nil, err
	}
	return recordToChange(applied, rec.Reference, false), nil
}

// SetIssueDescription replaces the issue description.
func (s *ActionServiceImpl) SetIssueDescription(ctx context.Context, req primary.SetIssueDescriptionRequest) error {
	actor, err := s.gov.caller(ctx)
	if err != nil {
		return err
	}
	rec, err := s.gov.loadAction(ctx, req.ActionID)
	if err != nil {
		return err
	}
	if err := s.gov.require(ctx, actor, authority.ObjAction, authority.ActAnnotate, rec.Reference, owns(actor, rec)); err != nil {
		return err
	}

	if r := action.CanSetIssueDescription(action.IssueDescriptionContext{
		Required: rec.SourceType == string(action.SourceReport),
		Text:     req.Text,
	}); !r.Allowed {
		return r.Error()
	}

	return s.gov.actions.UpdateIssueDescription(ctx, rec.ID, strings.TrimSpace(req.Text))
}

// RequestClosure moves an active action to PROPOSED_CLOSED. The write is
// recorded in the ledger like any direct edit so the status history stays
// complete.
func (s *ActionServiceImpl) RequestClosure(ctx context.Context, actionID string) error {
	actor, err := s.gov.caller(ctx)
	if err != nil {
		return err
	}
	rec, err := s.gov.loadAction(ctx, actionID)
	if err != nil {
		return err
	}
	if err := s.gov.require(ctx, actor, authority.ObjAction, authority.ActClose, rec.Reference, owns(actor, rec)); err != nil {
		return err
	}

	current := action.Status(rec.Status)
	if r := action.CanTransitionStatus(action.StatusTransitionContext{
		Reference: rec.Reference,
		Current:   current,
		Target:    action.StatusProposedClosed,
	}); !r.Allowed {
		return r.Error()
	}

	_, err = s.gov.applyDirect(ctx, actor, rec, change.FieldStatus, string(action.StatusProposedClosed), "closure requested", evidence{})
	return err
}

// DeleteAction removes an action and its history.
func (s *ActionServiceImpl) DeleteAction(ctx context.Context, actionID string) error {
	actor, err := s.gov.caller(ctx)
	if err != nil {
		return err
	}
	rec, err := s.gov.loadAction(ctx, actionID)
	if err != nil {
		return err
	}
	if err := s.gov.require(ctx, actor, authority.ObjAction, authority.ActDelete, rec.Reference, owns(actor, rec)); err != nil {
		return err
	}
	if err := s.gov.actions.Delete(ctx, rec.ID); err != nil {
		return fmt.Errorf("failed to delete action: %w", err)
	}
	s.gov.log(ctx).Info("action deleted", "action", rec.Reference)
	return nil
}

// Helper methods

func (s *ActionServiceImpl) view(r *secondary.ActionRecord) *primary.ActionView {
	now := s.gov.now()
	state := stateOf(r)

	approval := primary.ApprovalClear
	if r.PendingChanges > 0 {
		approval = primary.ApprovalPendingReview
	}

	return &primary.ActionView{
		Action:          *recordToAction(r),
		EffectiveStatus: string(action.EffectiveStatus(state, now)),
		DaysUntilDue:    action.DaysUntilDue(state.DueDate, now),
		Urgency:         string(action.Urgency(state, now)),
		ApprovalStatus:  approval,
		PendingChanges:  r.PendingChanges,
	}
}

func recordToAction(r *secondary.ActionRecord) *primary.Action {
	return &primary.Action{
		ID:               r.ID,
		Reference:        r.Reference,
		Title:            r.Title,
		Description:      r.Description,
		IssueDescription: r.IssueDescription,
		SectionTitle:     r.SectionTitle,
		Status:           r.Status,
		Priority:         r.Priority,
		DueDate:          r.DueDate,
		AssignedTo:       r.AssignedTo,
		SourceType:       r.SourceType,
		SourceRef:        r.SourceRef,
		CreatedBy:        r.CreatedBy,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
}

func recordToChange(r *secondary.ChangeRecord, actionRef string, stale bool) *primary.ActionChange {
	return &primary.ActionChange{
		ID:           r.ID,
		ActionID:     r.ActionID,
		ActionRef:    actionRef,
		Field:        r.Field,
		OldValue:     r.OldValue,
		NewValue:     r.NewValue,
		Reason:       r.Reason,
		IsUpdate:     r.IsUpdate,
		Status:       r.Status,
		ProposedBy:   r.ProposedBy,
		ProposedAt:   r.ProposedAt,
		ReviewedBy:   r.ReviewedBy,
		ReviewedAt:   r.ReviewedAt,
		ReviewNote:   r.ReviewNote,
		EvidenceURL:  r.EvidenceURL,
		EvidenceName: r.EvidenceName,
		Stale:        stale,
	}
}

// Ensure ActionServiceImpl implements the interface
var _ primary.ActionService = (*ActionServiceImpl)(nil)
