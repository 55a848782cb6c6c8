package cli

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/fatih/color"

	"github.com/example/remedy/internal/ports/primary"
)

// BulkAdapter runs batches and reports progress as items finish.
type BulkAdapter struct {
	service primary.BulkService
	out     io.Writer
}

// NewBulkAdapter creates a new BulkAdapter with the given service.
func NewBulkAdapter(service primary.BulkService, out io.Writer) *BulkAdapter {
	return &BulkAdapter{
		service: service,
		out:     out,
	}
}

// Run starts the batch, prints one line per item and a summary. It returns
// the final result; a batch with failed items is not an error.
func (a *BulkAdapter) Run(ctx context.Context, req primary.BatchRequest) (*primary.BatchResult, error) {
	progress, err := a.service.Start(ctx, req)
	if err != nil {
		return nil, err
	}

	result := &primary.BatchResult{Errors: map[string]error{}}
	for p := range progress {
		result.Total, result.Completed, result.Failed = p.Total, p.Completed, p.Failed
		mark := color.New(color.FgGreen).Sprint("✓")
		detail := ""
		if p.Err != nil {
			mark = color.New(color.FgRed).Sprint("✗")
			detail = ": " + p.Err.Error()
			result.FailedIDs = append(result.FailedIDs, p.ItemID)
			result.Errors[p.ItemID] = p.Err
		}
		fmt.Fprintf(a.out, "[%d/%d] %s %s%s\n", p.Completed+p.Failed, p.Total, mark, p.ItemID, detail)
	}

	fmt.Fprintf(a.out, "\n%s: %d of %d succeeded, %d failed\n", req.Operation, result.Completed, result.Total, result.Failed)
	if len(result.FailedIDs) > 0 {
		failed := append([]string(nil), result.FailedIDs...)
		sort.Strings(failed)
		fmt.Fprintf(a.out, "Failed: %v\n", failed)
	}
	return result, nil
}
