package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rcastell/homestock/internal/core/domain"
	"github.com/rcastell/homestock/internal/port"
	"github.com/rcastell/homestock/internal/retry"
)

var (
	ErrEmptyOwner = errors.New("owner id is required")
	ErrOwnerBusy  = errors.New("another sync for this owner is in progress")
)

// ChangeError reports a malformed change descriptor. Index is the position in
// the submitted batch.
type ChangeError struct {
	Index  int
	Reason string
}

func (e *ChangeError) Error() string {
	return fmt.Sprintf("change %d: %s", e.Index, e.Reason)
}

const (
	syncLockTTL      = 30 * time.Second
	lockAttempts     = 5
	lockInitialDelay = 100 * time.Millisecond
)

// SyncService is the reconciliation engine: it merges an ordered batch of
// client-side changes into the authoritative per-owner product store.
type SyncService struct {
	products port.ProductRepository
	cache    port.CacheRepository
}

// NewSyncService builds the engine. cache may be nil, in which case concurrent
// batches for the same owner race last-write-wins instead of serializing.
func NewSyncService(products port.ProductRepository, cache port.CacheRepository) *SyncService {
	return &SyncService{products: products, cache: cache}
}

// Reconcile applies changes in submission order. Each change commits
// independently: there is no batch-wide atomicity, and on failure the returned
// summary covers everything applied before the fatal change. Deleting a
// missing record and upserting a missing record are both non-errors.
func (s *SyncService) Reconcile(ctx context.Context, ownerID string, changes []domain.Change) (domain.SyncSummary, error) {
	summary := domain.SyncSummary{Results: make([]domain.SyncResult, 0, len(changes))}

	if ownerID == "" {
		return summary, ErrEmptyOwner
	}

	if s.cache != nil {
		release, err := s.lockOwner(ctx, ownerID)
		if err != nil {
			return summary, err
		}
		defer release()
	}

	for i, change := range changes {
		result, err := s.apply(ctx, ownerID, i, change)
		if err != nil {
			return summary, err
		}
		summary.Results = append(summary.Results, result)
	}

	return summary, nil
}

func (s *SyncService) apply(ctx context.Context, ownerID string, index int, change domain.Change) (domain.SyncResult, error) {
	switch change.Action {
	case domain.ActionDelete:
		if change.ID == "" {
			return domain.SyncResult{}, &ChangeError{Index: index, Reason: "delete requires an id"}
		}

		deleted, err := s.products.Delete(ctx, change.ID, ownerID)
		if err != nil {
			return domain.SyncResult{}, fmt.Errorf("delete %s: %w", change.ID, err)
		}

		outcome := domain.OutcomeNoop
		if deleted {
			outcome = domain.OutcomeDeleted
		}
		return domain.SyncResult{ID: change.ID, Outcome: outcome}, nil

	case domain.ActionUpsert:
		if reason := validateUpsert(change); reason != "" {
			return domain.SyncResult{}, &ChangeError{Index: index, Reason: reason}
		}

		var existing *domain.Product
		if change.ID != "" {
			found, err := s.products.Find(ctx, change.ID, ownerID)
			if err != nil {
				return domain.SyncResult{}, fmt.Errorf("find %s: %w", change.ID, err)
			}
			existing = found
		}

		product := domain.Product{
			ID:           change.ID,
			OwnerID:      ownerID,
			Name:         change.Name,
			Quantity:     change.Quantity,
			Price:        change.Price,
			PurchaseDate: change.PurchaseDate,
			Store:        change.Store,
			Location:     change.Location,
		}

		if existing != nil {
			// Full replace: the submitted version wins on the item as a whole.
			if err := s.products.Replace(ctx, product); err != nil {
				return domain.SyncResult{}, fmt.Errorf("replace %s: %w", change.ID, err)
			}
			return domain.SyncResult{ID: change.ID, Outcome: domain.OutcomeUpdated}, nil
		}

		created, err := s.products.Create(ctx, product)
		if err != nil {
			return domain.SyncResult{}, fmt.Errorf("create: %w", err)
		}
		return domain.SyncResult{ID: created.ID, Outcome: domain.OutcomeCreated}, nil

	default:
		return domain.SyncResult{}, &ChangeError{Index: index, Reason: fmt.Sprintf("unknown action %q", change.Action)}
	}
}

func validateUpsert(change domain.Change) string {
	switch {
	case change.Name == "":
		return "upsert requires a name"
	case change.Quantity < 0:
		return "quantity must not be negative"
	case change.Price < 0:
		return "price must not be negative"
	case change.PurchaseDate == "":
		return "upsert requires a purchase date"
	case change.Store == "":
		return "upsert requires a store"
	case change.Location == "":
		return "upsert requires a location"
	}
	return ""
}

// lockOwner serializes batches per owner so two devices syncing at once do not
// interleave. Acquisition backs off and retries before giving up.
func (s *SyncService) lockOwner(ctx context.Context, ownerID string) (func(), error) {
	key := "sync:lock:" + ownerID
	token := uuid.New().String()

	err := retry.Run(ctx, lockAttempts, lockInitialDelay, func(ctx context.Context) error {
		ok, err := s.cache.AcquireLock(ctx, key, token, syncLockTTL)
		if err != nil {
			return err
		}
		if !ok {
			return ErrOwnerBusy
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrOwnerBusy) {
			return nil, ErrOwnerBusy
		}
		return nil, fmt.Errorf("acquire sync lock: %w", err)
	}

	release := func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = s.cache.ReleaseLock(releaseCtx, key, token)
	}
	return release, nil
}
