package ports

import (
	"context"

	"github.com/rafaeldtinoco-dev/investfolio/internal/domain"
)

// CatalogStore is the remote persistent store holding the investment-option
// catalog. The store assigns record IDs on insert; callers never supply them.
type CatalogStore interface {
	List(ctx context.Context, table string, orderBy string) ([]domain.InvestmentOption, error)
	Insert(ctx context.Context, table string, draft domain.OptionDraft) error
	Update(ctx context.Context, table string, id domain.OptionID, patch domain.OptionPatch) error
	Delete(ctx context.Context, table string, id domain.OptionID) error
}
