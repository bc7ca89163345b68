package application

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rafaeldtinoco-dev/investfolio/internal/domain"
	"github.com/rafaeldtinoco-dev/investfolio/internal/ports"
)

const catalogOrderBy = "id"

// ErrNoRemote is returned by remote operations when the store was built
// without a remote backend and only the local snapshot is available.
var ErrNoRemote = errors.New("no remote catalog store configured")

// PortfolioStore owns the locally cached investment-option catalog and
// performs all mutations against the remote store. Consistency policy is
// refetch-after-write: every successful write triggers a full reload before
// the operation is considered complete, and the cache is never patched
// incrementally. On any remote failure the cache keeps its last-known-good
// contents; stale-but-present beats empty-on-error.
type PortfolioStore struct {
	remote    ports.CatalogStore
	snapshots ports.SnapshotStore
	table     string
	log       *zap.Logger

	mu       sync.RWMutex
	catalog  []domain.InvestmentOption
	loaded   bool
	watchers map[string]func([]domain.InvestmentOption)
}

// NewPortfolioStore builds a store over the given remote table. snapshots
// may be nil; when present, each successful refresh is mirrored to it on a
// best-effort basis.
func NewPortfolioStore(remote ports.CatalogStore, snapshots ports.SnapshotStore, table string, log *zap.Logger) *PortfolioStore {
	if log == nil {
		log = zap.NewNop()
	}

	return &PortfolioStore{
		remote:    remote,
		snapshots: snapshots,
		table:     table,
		log:       log,
		watchers:  map[string]func([]domain.InvestmentOption){},
	}
}

// Catalog returns a copy of the cached catalog.
func (s *PortfolioStore) Catalog() []domain.InvestmentOption {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.InvestmentOption, len(s.catalog))
	copy(out, s.catalog)
	return out
}

// Loaded reports whether at least one remote read has succeeded.
func (s *PortfolioStore) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Subscribe registers a watcher called with the new catalog after every
// successful refresh.
func (s *PortfolioStore) Subscribe(fn func([]domain.InvestmentOption)) ports.Unsubscribe {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.NewString()
	s.watchers[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.watchers, id)
	}
}

// List reloads the whole catalog from the remote store, ordered by id
// ascending, and swaps it into the cache in one step. A failed read leaves
// the cache untouched.
func (s *PortfolioStore) List(ctx context.Context) ([]domain.InvestmentOption, error) {
	if s.remote == nil {
		return nil, fmt.Errorf("list investment options: %w", errors.Join(domain.ErrRemoteRead, ErrNoRemote))
	}

	options, err := s.remote.List(ctx, s.table, catalogOrderBy)
	if err != nil {
		s.log.Warn("catalog reload failed, keeping last-known-good view",
			zap.String("table", s.table), zap.Error(err))
		return nil, fmt.Errorf("list investment options: %w", errors.Join(domain.ErrRemoteRead, err))
	}

	s.mu.Lock()
	s.catalog = options
	s.loaded = true
	watchers := make([]func([]domain.InvestmentOption), 0, len(s.watchers))
	for _, fn := range s.watchers {
		watchers = append(watchers, fn)
	}
	s.mu.Unlock()

	for _, fn := range watchers {
		fn(options)
	}

	s.persistSnapshot(ctx, options)

	return s.Catalog(), nil
}

// Create inserts a draft record. The remote store assigns the id; the new
// record becomes visible through the refresh, never through local patching.
func (s *PortfolioStore) Create(ctx context.Context, draft domain.OptionDraft) error {
	if s.remote == nil {
		return fmt.Errorf("insert investment option: %w", errors.Join(domain.ErrRemoteWrite, ErrNoRemote))
	}

	if err := s.remote.Insert(ctx, s.table, draft); err != nil {
		return fmt.Errorf("insert investment option: %w", errors.Join(domain.ErrRemoteWrite, err))
	}

	return s.refreshAfterWrite(ctx)
}

// Update applies a partial update keyed by id, then refreshes.
func (s *PortfolioStore) Update(ctx context.Context, id domain.OptionID, patch domain.OptionPatch) error {
	if s.remote == nil {
		return fmt.Errorf("update investment option %s: %w", id, errors.Join(domain.ErrRemoteWrite, ErrNoRemote))
	}

	if err := s.remote.Update(ctx, s.table, id, patch); err != nil {
		return fmt.Errorf("update investment option %s: %w", id, errors.Join(domain.ErrRemoteWrite, err))
	}

	return s.refreshAfterWrite(ctx)
}

// Delete removes the record keyed by id, then refreshes.
func (s *PortfolioStore) Delete(ctx context.Context, id domain.OptionID) error {
	if s.remote == nil {
		return fmt.Errorf("delete investment option %s: %w", id, errors.Join(domain.ErrRemoteWrite, ErrNoRemote))
	}

	if err := s.remote.Delete(ctx, s.table, id); err != nil {
		return fmt.Errorf("delete investment option %s: %w", id, errors.Join(domain.ErrRemoteWrite, err))
	}

	return s.refreshAfterWrite(ctx)
}

// Get returns the cached record with the given id.
func (s *PortfolioStore) Get(id domain.OptionID) (domain.InvestmentOption, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, option := range s.catalog {
		if option.ID == id {
			return option, nil
		}
	}
	return domain.InvestmentOption{}, fmt.Errorf("%w: %s", domain.ErrOptionNotFound, id)
}

// LoadSnapshot fills the cache from the on-disk snapshot without touching
// the network. It never overwrites a catalog that was already loaded
// remotely.
func (s *PortfolioStore) LoadSnapshot(ctx context.Context) ([]domain.InvestmentOption, error) {
	if s.snapshots == nil {
		return nil, errors.New("no snapshot store configured")
	}

	options, err := s.snapshots.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalog snapshot: %w", err)
	}

	s.mu.Lock()
	if !s.loaded {
		s.catalog = options
	}
	s.mu.Unlock()

	return options, nil
}

// refreshAfterWrite runs the post-write reload. The write already happened,
// so a failed reload surfaces as a read error while the cache stays on its
// pre-write contents. Concurrent writes each trigger their own reload;
// redundant reloads are idempotent and accepted.
func (s *PortfolioStore) refreshAfterWrite(ctx context.Context) error {
	if _, err := s.List(ctx); err != nil {
		return fmt.Errorf("refresh after write: %w", err)
	}
	return nil
}

func (s *PortfolioStore) persistSnapshot(ctx context.Context, options []domain.InvestmentOption) {
	if s.snapshots == nil {
		return
	}
	if err := s.snapshots.Save(ctx, options); err != nil {
		s.log.Warn("persist catalog snapshot failed", zap.Error(err))
	}
}
