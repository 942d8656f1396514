// Package bulk fans a single user action out into one Record Service call
// per selected lead and fans results back in before reporting.
package bulk

import (
	"context"
	"sort"
	"sync"

	"estate_admin_backend/internal/leads/domain"
	"estate_admin_backend/platform/apperr"
	"estate_admin_backend/platform/logger"

	"golang.org/x/sync/errgroup"
)

// StatusUpdater applies a status change to one lead.
type StatusUpdater interface {
	UpdateStatus(ctx context.Context, id string, status domain.LeadStatus) error
}

// Deleter removes one lead.
type Deleter interface {
	DeleteLead(ctx context.Context, id string) error
}

// Result aggregates per-id outcomes. The UI surfaces one coalesced
// notification, but FailedIDs keeps the accounting available to callers.
type Result struct {
	Requested int      `json:"requested"`
	FailedIDs []string `json:"failedIds,omitempty"`
}

// AllSucceeded reports whether every call settled without error.
func (r Result) AllSucceeded() bool {
	return len(r.FailedIDs) == 0
}

// Coordinator issues bulk status changes and deletions.
type Coordinator struct {
	updater StatusUpdater
	deleter Deleter
	log     *logger.Logger
}

// New creates a bulk coordinator.
func New(updater StatusUpdater, deleter Deleter, log *logger.Logger) *Coordinator {
	return &Coordinator{updater: updater, deleter: deleter, log: log}
}

// UpdateStatus sets the given status on every id. All calls are issued
// before any result is awaited; no ordering holds among them. The returned
// error is coalesced: one failure fails the whole batch even though the
// remaining calls have already mutated server state.
func (c *Coordinator) UpdateStatus(ctx context.Context, ids []string, status domain.LeadStatus) (Result, error) {
	if !status.Valid() {
		return Result{}, apperr.Validation("unknown lead status")
	}
	return c.fanOut(ctx, "bulk_update_status", ids, func(ctx context.Context, id string) error {
		return c.updater.UpdateStatus(ctx, id, status)
	})
}

// Delete removes every id, same concurrency and failure model as
// UpdateStatus.
func (c *Coordinator) Delete(ctx context.Context, ids []string) (Result, error) {
	return c.fanOut(ctx, "bulk_delete", ids, func(ctx context.Context, id string) error {
		return c.deleter.DeleteLead(ctx, id)
	})
}

func (c *Coordinator) fanOut(ctx context.Context, op string, ids []string, call func(context.Context, string) error) (Result, error) {
	if len(ids) == 0 {
		return Result{}, apperr.Validation("no leads selected")
	}

	var (
		mu     sync.Mutex
		failed []string
	)

	// Deliberately not errgroup.WithContext: one failure must not cancel
	// calls that are already in flight; every call settles.
	var g errgroup.Group
	for _, id := range ids {
		id := id
		g.Go(func() error {
			if err := call(ctx, id); err != nil {
				c.log.RecordServiceError(op, id, err)
				mu.Lock()
				failed = append(failed, id)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	sort.Strings(failed)
	result := Result{Requested: len(ids), FailedIDs: failed}
	c.log.BulkResult(op, result.Requested, len(failed))

	if !result.AllSucceeded() {
		return result, apperr.Unavailable("the operation failed for some leads")
	}
	return result, nil
}
