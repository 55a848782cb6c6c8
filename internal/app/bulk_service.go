package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/example/remedy/internal/core/action"
	"github.com/example/remedy/internal/core/authority"
	"github.com/example/remedy/internal/core/bulk"
	"github.com/example/remedy/internal/core/change"
	"github.com/example/remedy/internal/ports/primary"
	"github.com/example/remedy/internal/ports/secondary"
)

// BulkServiceImpl implements the BulkService interface. Each item runs
// through the same single-item operation a caller would use, so the
// ledger and authority rules apply per item.
type BulkServiceImpl struct {
	actions     primary.ActionService
	schedules   primary.ScheduleService
	authz       secondary.Authorizer
	identity    secondary.IdentityProvider
	logger      *slog.Logger
	concurrency int
}

// NewBulkService creates a new BulkService. concurrency bounds how many
// items are in flight; values below 1 run items one at a time.
func NewBulkService(
	actions primary.ActionService,
	schedules primary.ScheduleService,
	authz secondary.Authorizer,
	identity secondary.IdentityProvider,
	logger *slog.Logger,
	concurrency int,
) *BulkServiceImpl {
	if concurrency < 1 {
		concurrency = 1
	}
	return &BulkServiceImpl{
		actions:     actions,
		schedules:   schedules,
		authz:       authz,
		identity:    identity,
		logger:      logger,
		concurrency: concurrency,
	}
}

// Start validates the batch and runs it in the background.
func (s *BulkServiceImpl) Start(ctx context.Context, req primary.BatchRequest) (<-chan primary.BatchProgress, error) {
	actor, err := s.identity.CurrentActor(ctx)
	if err != nil {
		actor = ""
	}

	op, err := bulk.ParseOperation(req.Operation)
	if err != nil {
		return nil, err
	}

	canBulk := false
	if actor != "" {
		obj := authority.ObjAction
		if op == bulk.OpArchive {
			obj = authority.ObjSchedule
		}
		if canBulk, err = s.authz.Allowed(ctx, actor, obj, authority.ActBulk, false); err != nil {
			return nil, fmt.Errorf("failed to check permission: %w", err)
		}
	}

	guard := bulk.CanStartBatch(bulk.StartContext{
		ActorID:   actor,
		CanBulk:   canBulk,
		Operation: op,
		IDs:       req.IDs,
		NewOwner:  req.NewOwner,
		Reason:    req.Reason,
	})
	if !guard.Allowed {
		return nil, guard.Error()
	}

	ids := bulk.Normalise(req.IDs)
	progress := make(chan primary.BatchProgress, len(ids))

	s.logger.Info("bulk operation started", "actor", actor, "operation", string(op), "items", len(ids))

	go s.run(ctx, op, req, ids, progress)
	return progress, nil
}

func (s *BulkServiceImpl) run(ctx context.Context, op bulk.Operation, req primary.BatchRequest, ids []string, progress chan<- primary.BatchProgress) {
	defer close(progress)

	var (
		mu       sync.Mutex
		counters = bulk.Counters{Total: len(ids)}
	)
	record := func(id string, err error) {
		mu.Lock()
		defer mu.Unlock()
		counters = counters.Record(err)
		progress <- primary.BatchProgress{
			ItemID:    id,
			Err:       err,
			Total:     counters.Total,
			Completed: counters.Completed,
			Failed:    counters.Failed,
		}
	}

	g := new(errgroup.Group)
	g.SetLimit(s.concurrency)
	for _, id := range ids {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				record(id, err)
				return nil
			}
			record(id, s.apply(ctx, op, req, id))
			return nil
		})
	}
	_ = g.Wait()

	s.logger.Info("bulk operation finished",
		"operation", string(op), "total", counters.Total, "completed", counters.Completed, "failed", counters.Failed)
}

// apply runs one item. Items are independent; a failure here never stops
// the batch.
func (s *BulkServiceImpl) apply(ctx context.Context, op bulk.Operation, req primary.BatchRequest, id string) error {
	switch op {
	case bulk.OpReassign:
		_, err := s.actions.EditAction(ctx, primary.EditActionRequest{
			ActionID: id,
			Field:    string(change.FieldAssignedTo),
			Value:    req.NewOwner,
			Reason:   req.Reason,
		})
		return err
	case bulk.OpComplete:
		_, err := s.actions.EditAction(ctx, primary.EditActionRequest{
			ActionID: id,
			Field:    string(change.FieldStatus),
			Value:    string(action.StatusCompleted),
			Reason:   req.Reason,
		})
		return err
	case bulk.OpArchive:
		return s.schedules.ArchiveScheduleEntry(ctx, id, req.Reason)
	}
	return fmt.Errorf("unknown bulk operation %q", op)
}

// BulkReassign gives every listed action a new owner.
func (s *BulkServiceImpl) BulkReassign(ctx context.Context, actionIDs []string, newOwner string) (*primary.BatchResult, error) {
	return s.runToCompletion(ctx, primary.BatchRequest{
		Operation: string(bulk.OpReassign),
		IDs:       actionIDs,
		NewOwner:  newOwner,
		Reason:    "bulk reassign",
	})
}

// BulkComplete marks every listed action COMPLETED.
func (s *BulkServiceImpl) BulkComplete(ctx context.Context, actionIDs []string) (*primary.BatchResult, error) {
	return s.runToCompletion(ctx, primary.BatchRequest{
		Operation: string(bulk.OpComplete),
		IDs:       actionIDs,
		Reason:    "bulk complete",
	})
}

// BulkArchiveScheduleEntries archives every listed schedule entry.
func (s *BulkServiceImpl) BulkArchiveScheduleEntries(ctx context.Context, entryIDs []string, reason string) (*primary.BatchResult, error) {
	return s.runToCompletion(ctx, primary.BatchRequest{
		Operation: string(bulk.OpArchive),
		IDs:       entryIDs,
		Reason:    reason,
	})
}

func (s *BulkServiceImpl) runToCompletion(ctx context.Context, req primary.BatchRequest) (*primary.BatchResult, error) {
	progress, err := s.Start(ctx, req)
	if err != nil {
		return nil, err
	}
	return Collect(progress), nil
}

// Collect drains a progress channel into a BatchResult.
func Collect(progress <-chan primary.BatchProgress) *primary.BatchResult {
	result := &primary.BatchResult{Errors: map[string]error{}}
	for p := range progress {
		result.Total = p.Total
		result.Completed = p.Completed
		result.Failed = p.Failed
		if p.Err != nil {
			result.FailedIDs = append(result.FailedIDs, p.ItemID)
			result.Errors[p.ItemID] = p.Err
		}
	}
	return result
}

// Ensure BulkServiceImpl implements the interface
var _ primary.BulkService = (*BulkServiceImpl)(nil)
