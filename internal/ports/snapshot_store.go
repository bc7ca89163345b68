package ports

import (
	"context"

	"github.com/rafaeldtinoco-dev/investfolio/internal/domain"
)

// SnapshotStore persists the last successfully fetched catalog so a stale
// but present view survives restarts and network loss.
type SnapshotStore interface {
	Save(ctx context.Context, options []domain.InvestmentOption) error
	Load(ctx context.Context) ([]domain.InvestmentOption, error)
}
