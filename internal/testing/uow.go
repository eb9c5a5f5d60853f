package testutil

import (
	"context"

	"eca-system/internal/domain"
)

// MemoryUnitOfWork wraps a MemoryRepository without real transaction
// semantics; Commit/Rollback only record that they were called.
type MemoryUnitOfWork struct {
	*MemoryRepository
	Committed  bool
	RolledBack bool
}

var _ domain.UnitOfWork = (*MemoryUnitOfWork)(nil)

func (u *MemoryUnitOfWork) Begin(ctx context.Context) error { return nil }

func (u *MemoryUnitOfWork) Commit() error {
	if !u.RolledBack {
		u.Committed = true
	}
	return nil
}

func (u *MemoryUnitOfWork) Rollback() error {
	if !u.Committed {
		u.RolledBack = true
	}
	return nil
}

// MemoryUnitOfWorkFactory hands out units of work over a shared repository
// and keeps them for later inspection.
type MemoryUnitOfWorkFactory struct {
	Repo  *MemoryRepository
	Units []*MemoryUnitOfWork
}

var _ domain.UnitOfWorkFactory = (*MemoryUnitOfWorkFactory)(nil)

func (f *MemoryUnitOfWorkFactory) Begin(ctx context.Context) (domain.UnitOfWork, error) {
	u := &MemoryUnitOfWork{MemoryRepository: f.Repo}
	f.Units = append(f.Units, u)
	return u, nil
}
