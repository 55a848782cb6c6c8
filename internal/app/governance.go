package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/remedy/internal/core/action"
	"github.com/example/remedy/internal/core/authority"
	"github.com/example/remedy/internal/core/change"
	"github.com/example/remedy/internal/ctxutil"
	"github.com/example/remedy/internal/errs"
	"github.com/example/remedy/internal/ports/secondary"
)

// governance is the mutation path shared by the action, change and bulk
// services. Every governed write goes through applyDirect or propose, and
// every call asks the Authorizer again.
type governance struct {
	actions  secondary.ActionRepository
	changes  secondary.ChangeRepository
	authz    secondary.Authorizer
	identity secondary.IdentityProvider
	clock    secondary.Clock
	logger   *slog.Logger
}

func (g *governance) now() time.Time {
	return g.clock.Now().UTC()
}

func (g *governance) log(ctx context.Context) *slog.Logger {
	return ctxutil.Logger(ctx, g.logger)
}

// caller resolves the acting user. An unknown caller is Unauthorised.
func (g *governance) caller(ctx context.Context) (string, error) {
	actor, err := g.identity.CurrentActor(ctx)
	if err != nil {
		return "", err
	}
	if actor == "" {
		return "", errs.Unauthorised("no caller identity")
	}
	return actor, nil
}

func (g *governance) allowed(ctx context.Context, actor, obj, act string, owned bool) (bool, error) {
	ok, err := g.authz.Allowed(ctx, actor, obj, act, owned)
	if err != nil {
		return false, fmt.Errorf("failed to check permission: %w", err)
	}
	return ok, nil
}

// require fails with Unauthorised unless actor holds obj/act.
func (g *governance) require(ctx context.Context, actor, obj, act, target string, owned bool) error {
	ok, err := g.allowed(ctx, actor, obj, act, owned)
	if err != nil {
		return err
	}
	return authority.Require(authority.PermissionContext{
		ActorID: actor,
		Object:  obj,
		Act:     act,
		Target:  target,
		Allowed: ok,
	}).Error()
}

// loadAction accepts either a reference (ACT-001) or an internal id.
func (g *governance) loadAction(ctx context.Context, actionID string) (*secondary.ActionRecord, error) {
	actionID = strings.TrimSpace(actionID)
	if action.IsReference(actionID) {
		return g.actions.GetByReference(ctx, strings.ToUpper(actionID))
	}
	return g.actions.GetByID(ctx, actionID)
}

func owns(actor string, rec *secondary.ActionRecord) bool {
	return rec.AssignedTo != "" && rec.AssignedTo == actor
}

func governedOf(rec *secondary.ActionRecord) (change.Governed, error) {
	status, err := action.ParseStatus(rec.Status)
	if err != nil {
		return change.Governed{}, fmt.Errorf("action %s has a corrupt status: %w", rec.Reference, err)
	}
	due, err := action.ParseOptionalDate(rec.DueDate)
	if err != nil {
		return change.Governed{}, fmt.Errorf("action %s has a corrupt due date: %w", rec.Reference, err)
	}
	return change.Governed{Status: status, DueDate: due, AssignedTo: rec.AssignedTo}, nil
}

func stateOf(rec *secondary.ActionRecord) action.State {
	status, _ := action.ParseStatus(rec.Status)
	due, _ := action.ParseOptionalDate(rec.DueDate)
	return action.State{Status: status, DueDate: due}
}

// textValue returns the current value of a non-governed field.
func textValue(rec *secondary.ActionRecord, field change.Field) string {
	switch field {
	case change.FieldTitle:
		return rec.Title
	case change.FieldDescription:
		return rec.Description
	case change.FieldSectionTitle:
		return rec.SectionTitle
	}
	return ""
}

// currentValue returns the snapshot string of any field of rec.
func currentValue(rec *secondary.ActionRecord, field change.Field) string {
	if field.IsGoverned() {
		current, err := governedOf(rec)
		if err != nil {
			return ""
		}
		return change.CurrentValue(field, current)
	}
	return textValue(rec, field)
}

// checkGovernedMutation applies the action-level rules to a typed mutation.
func checkGovernedMutation(rec *secondary.ActionRecord, current change.Governed, m change.Mutation) error {
	if r := action.CanEditGoverned(action.GovernedEditContext{Reference: rec.Reference, Status: current.Status}); !r.Allowed {
		return r.Error()
	}
	if sc, ok := m.(change.StatusChange); ok {
		r := action.CanTransitionStatus(action.StatusTransitionContext{Reference: rec.Reference, Current: sc.Old, Target: sc.New})
		if !r.Allowed {
			return r.Error()
		}
	}
	return nil
}

// checkProposable rejects mutations that never go through review. Closure
// is requested by the owner or a reviewer with RequestClosure.
func checkProposable(rec *secondary.ActionRecord, m change.Mutation) error {
	if sc, ok := m.(change.StatusChange); ok && sc.New == action.StatusProposedClosed {
		return errs.Validation("closure of %s is requested directly, not proposed", rec.Reference)
	}
	return nil
}

// evidence is an optional link attached to a ledger entry.
type evidence struct {
	URL  string
	Name string
}

// applyDirect writes field on rec without review and records the write in
// the ledger as an APPROVED entry raised and reviewed by actor. Authority
// must already have been checked. A nil change with a nil error means the
// value was already current.
func (g *governance) applyDirect(ctx context.Context, actor string, rec *secondary.ActionRecord, field change.Field, value, reason string, ev evidence) (*secondary.ChangeRecord, error) {
	var oldValue, newValue string

	switch {
	case field == change.FieldUpdate:
		return nil, errs.Validation("progress notes are added with a note, not an edit")
	case field.IsGoverned():
		current, err := governedOf(rec)
		if err != nil {
			return nil, err
		}
		m, err := change.Build(field, current, value)
		if err != nil {
			return nil, err
		}
		if change.IsNoop(m) {
			return nil, nil
		}
		if err := checkGovernedMutation(rec, current, m); err != nil {
			return nil, err
		}
		oldValue, newValue = m.OldValue(), m.NewValue()
	default:
		oldValue, newValue = textValue(rec, field), strings.TrimSpace(value)
		if field == change.FieldTitle && newValue == "" {
			return nil, errs.Validation("title is required")
		}
		if oldValue == newValue {
			return nil, nil
		}
	}

	id, err := g.changes.GetNextID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get next change ID: %w", err)
	}

	now := g.now()
	record := &secondary.ChangeRecord{
		ID:         id,
		ActionID:   rec.ID,
		Field:      string(field),
		OldValue:   oldValue,
		NewValue:   newValue,
		Reason:     strings.TrimSpace(reason),
		Status:     string(change.StatusApproved),
		ProposedBy: actor,
		ProposedAt: now,
		ReviewedBy: actor,
		ReviewedAt: &now,

		EvidenceURL:  strings.TrimSpace(ev.URL),
		EvidenceName: strings.TrimSpace(ev.Name),
	}
	if err := g.changes.CreateApplied(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to apply %s change: %w", field, err)
	}

	g.log(ctx).Info("direct edit applied",
		"action", rec.Reference, "change", id, "field", string(field), "old", oldValue, "new", newValue)
	return record, nil
}

// proposeChange records a PENDING change. Authority must already have been
// checked.
func (g *governance) proposeChange(ctx context.Context, actor string, rec *secondary.ActionRecord, field, newValue, reason string, ev evidence) (*secondary.ChangeRecord, error) {
	guard := change.CanPropose(change.ProposeContext{
		ActionID:     rec.Reference,
		ActionExists: true,
		Field:        field,
		NewValue:     newValue,
		Reason:       reason,
	})
	if !guard.Allowed {
		return nil, guard.Error()
	}

	f, err := change.ParseField(field)
	if err != nil {
		return nil, err
	}
	current, err := governedOf(rec)
	if err != nil {
		return nil, err
	}
	m, err := change.Build(f, current, newValue)
	if err != nil {
		return nil, err
	}
	if err := checkProposable(rec, m); err != nil {
		return nil, err
	}
	if err := checkGovernedMutation(rec, current, m); err != nil {
		return nil, err
	}
	if change.IsNoop(m) {
		return nil, errs.Validation("%s on %s is already %q", f, rec.Reference, m.NewValue())
	}

	id, err := g.changes.GetNextID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get next change ID: %w", err)
	}

	record := &secondary.ChangeRecord{
		ID:         id,
		ActionID:   rec.ID,
		Field:      string(f),
		OldValue:   m.OldValue(),
		NewValue:   m.NewValue(),
		Reason:     strings.TrimSpace(reason),
		Status:     string(change.StatusPending),
		ProposedBy: actor,
		ProposedAt: g.now(),

		EvidenceURL:  strings.TrimSpace(ev.URL),
		EvidenceName: strings.TrimSpace(ev.Name),
	}
	if err := g.changes.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to record proposal: %w", err)
	}

	g.log(ctx).Info("change proposed",
		"action", rec.Reference, "change", id, "field", string(f), "old", record.OldValue, "new", record.NewValue)
	return record, nil
}

func toEntries(records []*secondary.ChangeRecord) []change.Entry {
	entries := make([]change.Entry, len(records))
	for i, r := range records {
		entries[i] = change.Entry{
			ID:         r.ID,
			Field:      change.Field(r.Field),
			OldValue:   r.OldValue,
			NewValue:   r.NewValue,
			IsUpdate:   r.IsUpdate,
			Status:     change.Status(r.Status),
			ProposedAt: r.ProposedAt,
			Seq:        r.Seq,
		}
	}
	return entries
}
