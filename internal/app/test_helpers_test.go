package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/example/remedy/internal/core/authority"
	"github.com/example/remedy/internal/ctxutil"
	"github.com/example/remedy/internal/errs"
	"github.com/example/remedy/internal/ports/secondary"
)

// ============================================================================
// Mock Action Repository
// ============================================================================

// mockActionRepository implements secondary.ActionRepository in memory.
// Records are copied in and out so callers never share state with the store.
type mockActionRepository struct {
	mu        sync.Mutex
	actions   map[string]*secondary.ActionRecord
	seq       int
	changes   *mockChangeRepository
	deleteErr error
}

func newMockActionRepository() *mockActionRepository {
	return &mockActionRepository{actions: make(map[string]*secondary.ActionRecord)}
}

func (m *mockActionRepository) Create(ctx context.Context, action *secondary.ActionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *action
	m.actions[action.ID] = &cp
	return nil
}

func (m *mockActionRepository) GetByID(ctx context.Context, id string) (*secondary.ActionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.actions[id]
	if !ok {
		return nil, errs.NotFound("action %s", id)
	}
	return m.snapshot(a), nil
}

func (m *mockActionRepository) GetByReference(ctx context.Context, reference string) (*secondary.ActionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.actions {
		if a.Reference == reference {
			return m.snapshot(a), nil
		}
	}
	return nil, errs.NotFound("action %s", reference)
}

func (m *mockActionRepository) List(ctx context.Context, filters secondary.ActionFilters) ([]*secondary.ActionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*secondary.ActionRecord
	for _, a := range m.actions {
		if filters.AssignedTo != "" && a.AssignedTo != filters.AssignedTo {
			continue
		}
		if filters.Priority != "" && a.Priority != filters.Priority {
			continue
		}
		snap := m.snapshot(a)
		if filters.PendingOnly && snap.PendingChanges == 0 {
			continue
		}
		out = append(out, snap)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Reference < out[j].Reference })
	return out, nil
}

func (m *mockActionRepository) UpdateIssueDescription(ctx context.Context, id, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.actions[id]
	if !ok {
		return errs.NotFound("action %s", id)
	}
	a.IssueDescription = text
	return nil
}

func (m *mockActionRepository) Delete(ctx context.Context, id string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.actions[id]; !ok {
		return errs.NotFound("action %s", id)
	}
	delete(m.actions, id)
	if m.changes != nil {
		m.changes.dropAction(id)
	}
	return nil
}

func (m *mockActionRepository) NextReference(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	return fmt.Sprintf("ACT-%03d", m.seq), nil
}

// snapshot copies a and fills the pending count. Caller holds m.mu.
func (m *mockActionRepository) snapshot(a *secondary.ActionRecord) *secondary.ActionRecord {
	cp := *a
	if m.changes != nil {
		cp.PendingChanges = m.changes.pendingFor(a.ID)
	}
	return &cp
}

// writeField applies a ledger value to the stored action.
func (m *mockActionRepository) writeField(actionID, field, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.actions[actionID]
	if !ok {
		return errs.NotFound("action %s", actionID)
	}
	switch field {
	case "title":
		a.Title = value
	case "description":
		a.Description = value
	case "sectionTitle":
		a.SectionTitle = value
	case "status":
		a.Status = value
	case "assignedTo":
		a.AssignedTo = value
	case "dueDate":
		a.DueDate = value
	default:
		return errs.InvalidField("field %s", field)
	}
	return nil
}

// ============================================================================
// Mock Change Repository
// ============================================================================

// mockChangeRepository implements secondary.ChangeRepository in memory and
// writes approved values through to its action repository.
type mockChangeRepository struct {
	mu       sync.Mutex
	changes  map[string]*secondary.ChangeRecord
	order    int64
	seq      int
	actions  *mockActionRepository
	applyErr error
}

func newMockChangeRepository(actions *mockActionRepository) *mockChangeRepository {
	m := &mockChangeRepository{changes: make(map[string]*secondary.ChangeRecord), actions: actions}
	actions.changes = m
	return m
}

func (m *mockChangeRepository) Create(ctx context.Context, change *secondary.ChangeRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.order++
	cp := *change
	cp.Seq = m.order
	m.changes[change.ID] = &cp
	return nil
}

func (m *mockChangeRepository) CreateApplied(ctx context.Context, change *secondary.ChangeRecord) error {
	if m.applyErr != nil {
		return m.applyErr
	}
	if err := m.actions.writeField(change.ActionID, change.Field, change.NewValue); err != nil {
		return err
	}
	return m.Create(ctx, change)
}

func (m *mockChangeRepository) GetByID(ctx context.Context, id string) (*secondary.ChangeRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.changes[id]
	if !ok {
		return nil, errs.NotFound("change %s", id)
	}
	cp := *c
	return &cp, nil
}

func (m *mockChangeRepository) ListByAction(ctx context.Context, actionID string) ([]*secondary.ChangeRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*secondary.ChangeRecord
	for _, c := range m.changes {
		if c.ActionID == actionID {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ProposedAt.Equal(out[j].ProposedAt) {
			return out[i].ProposedAt.After(out[j].ProposedAt)
		}
		return out[i].Seq > out[j].Seq
	})
	return out, nil
}

func (m *mockChangeRepository) ListPending(ctx context.Context, filters secondary.ChangeFilters) ([]*secondary.ChangeRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*secondary.ChangeRecord
	for _, c := range m.changes {
		if c.IsUpdate || c.Status != "PENDING" {
			continue
		}
		if filters.ActionID != "" && c.ActionID != filters.ActionID {
			continue
		}
		if filters.ProposedBy != "" && c.ProposedBy != filters.ProposedBy {
			continue
		}
		if filters.Field != "" && c.Field != filters.Field {
			continue
		}
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out, nil
}

func (m *mockChangeRepository) Resolve(ctx context.Context, res *secondary.ResolveRecord) error {
	m.mu.Lock()
	c, ok := m.changes[res.ChangeID]
	if !ok {
		m.mu.Unlock()
		return errs.NotFound("change %s", res.ChangeID)
	}
	if c.Status != "PENDING" {
		m.mu.Unlock()
		return errs.NotPending("change %s is already %s", res.ChangeID, c.Status)
	}
	actionID, field, value := c.ActionID, c.Field, c.NewValue
	m.mu.Unlock()

	if res.Apply {
		if m.applyErr != nil {
			return m.applyErr
		}
		if err := m.actions.writeField(actionID, field, value); err != nil {
			return err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	at := res.ReviewedAt
	c.Status = res.Status
	c.ReviewedBy = res.ReviewedBy
	c.ReviewedAt = &at
	c.ReviewNote = res.ReviewNote
	return nil
}

func (m *mockChangeRepository) GetNextID(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	return fmt.Sprintf("CHG-%03d", m.seq), nil
}

func (m *mockChangeRepository) pendingFor(actionID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.changes {
		if c.ActionID == actionID && !c.IsUpdate && c.Status == "PENDING" {
			n++
		}
	}
	return n
}

func (m *mockChangeRepository) dropAction(actionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, c := range m.changes {
		if c.ActionID == actionID {
			delete(m.changes, id)
		}
	}
}

func (m *mockChangeRepository) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.changes)
}

// ============================================================================
// Mock Schedule Repository
// ============================================================================

type mockScheduleRepository struct {
	mu      sync.Mutex
	entries map[string]*secondary.ScheduleEntryRecord
	seq     int
}

func newMockScheduleRepository() *mockScheduleRepository {
	return &mockScheduleRepository{entries: make(map[string]*secondary.ScheduleEntryRecord)}
}

func (m *mockScheduleRepository) Create(ctx context.Context, entry *secondary.ScheduleEntryRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *entry
	m.entries[entry.ID] = &cp
	return nil
}

func (m *mockScheduleRepository) GetByID(ctx context.Context, id string) (*secondary.ScheduleEntryRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok {
		return nil, errs.NotFound("schedule entry %s", id)
	}
	cp := *e
	return &cp, nil
}

func (m *mockScheduleRepository) List(ctx context.Context, filters secondary.ScheduleFilters) ([]*secondary.ScheduleEntryRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*secondary.ScheduleEntryRecord
	for _, e := range m.entries {
		if filters.Status != "" && e.Status != filters.Status {
			continue
		}
		cp := *e
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockScheduleRepository) Archive(ctx context.Context, id, reason, archivedBy string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok {
		return errs.NotFound("schedule entry %s", id)
	}
	if e.Status == "archived" {
		return errs.Validation("schedule entry %s is already archived", id)
	}
	e.Status = "archived"
	e.ArchiveReason = reason
	e.ArchivedBy = archivedBy
	e.ArchivedAt = &at
	return nil
}

func (m *mockScheduleRepository) GetNextID(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	return fmt.Sprintf("SCH-%03d", m.seq), nil
}

// ============================================================================
// Authority, identity and clock
// ============================================================================

// mockAuthorizer evaluates the default permission table against a fixed
// user-to-role map.
type mockAuthorizer struct {
	roles map[string]authority.Role
	err   error
}

func newMockAuthorizer() *mockAuthorizer {
	return &mockAuthorizer{roles: map[string]authority.Role{
		"rita":  authority.RoleReviewer,
		"quinn": authority.RoleRequester,
		"vic":   authority.RoleViewer,
	}}
}

func (m *mockAuthorizer) Allowed(ctx context.Context, actor, obj, act string, owned bool) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	role := m.roles[actor]
	for _, p := range authority.DefaultPermissions() {
		if p.Role == role && p.Object == obj && p.Act == act && (p.Scope == authority.ScopeAny || owned) {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockAuthorizer) RoleOf(ctx context.Context, actor string) (string, error) {
	if r, ok := m.roles[actor]; ok {
		return string(r), nil
	}
	return string(authority.RoleViewer), nil
}

// ctxIdentity reads the caller from the context, like the real adapter.
type ctxIdentity struct{}

func (ctxIdentity) CurrentActor(ctx context.Context) (string, error) {
	return ctxutil.ActorFromContext(ctx), nil
}

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

func as(actor string) context.Context {
	return ctxutil.WithActorID(context.Background(), actor)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ============================================================================
// Harness
// ============================================================================

// testNow is 2024-03-10 09:00 UTC.
var testNow = time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)

type harness struct {
	actionRepo   *mockActionRepository
	changeRepo   *mockChangeRepository
	scheduleRepo *mockScheduleRepository
	authz        *mockAuthorizer
	clock        fixedClock

	actions   *ActionServiceImpl
	changes   *ChangeServiceImpl
	schedules *ScheduleServiceImpl
	bulk      *BulkServiceImpl
}

func newHarness() *harness {
	h := &harness{
		actionRepo:   newMockActionRepository(),
		scheduleRepo: newMockScheduleRepository(),
		authz:        newMockAuthorizer(),
		clock:        fixedClock{now: testNow},
	}
	h.changeRepo = newMockChangeRepository(h.actionRepo)
	logger := discardLogger()
	h.actions = NewActionService(h.actionRepo, h.changeRepo, h.authz, ctxIdentity{}, h.clock, logger)
	h.changes = NewChangeService(h.actionRepo, h.changeRepo, h.authz, ctxIdentity{}, h.clock, logger)
	h.schedules = NewScheduleService(h.scheduleRepo, h.authz, ctxIdentity{}, h.clock, logger)
	h.bulk = NewBulkService(h.actions, h.schedules, h.authz, ctxIdentity{}, logger, 4)
	return h
}

// seed stores an action directly, bypassing the services.
func (h *harness) seed(ref, status, due, owner string) *secondary.ActionRecord {
	rec := &secondary.ActionRecord{
		ID:         "id-" + ref,
		Reference:  ref,
		Title:      "Action " + ref,
		Status:     status,
		Priority:   "P2",
		DueDate:    due,
		AssignedTo: owner,
		CreatedBy:  "rita",
		CreatedAt:  testNow.Add(-30 * 24 * time.Hour),
	}
	_ = h.actionRepo.Create(context.Background(), rec)
	return rec
}

func (h *harness) stored(id string) *secondary.ActionRecord {
	rec, err := h.actionRepo.GetByID(context.Background(), id)
	if err != nil {
		panic(err)
	}
	return rec
}
