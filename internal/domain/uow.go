package domain

import "context"

// UnitOfWork coordinates a set of repository operations within a single
// database transaction. A duplicate merge touches two citizen rows plus an
// audit entry and must land atomically.
//
// Typical usage:
//  uow, err := factory.Begin(ctx)
//  if err != nil { ... }
//  defer uow.Rollback()
//  if err := uow.UpdateCitizenCtx(ctx, survivor); err != nil { ... }
//  if err := uow.UpdateCitizenStatusCtx(ctx, dup.ID, models.CitizenStatusMerged, &survivor.ID); err != nil { ... }
//  if err := uow.Commit(); err != nil { ... }
//
// NOTE: Keep the transaction as short as possible.

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	CitizenRepository
	AuditLogRepository
}

// UnitOfWorkFactory starts new UnitOfWork instances.
// A returned UnitOfWork is already begun; Begin may be a no-op.
type UnitOfWorkFactory interface {
	Begin(ctx context.Context) (UnitOfWork, error)
}
