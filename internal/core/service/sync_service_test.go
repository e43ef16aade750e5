package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rcastell/homestock/internal/core/domain"
)

// Mock ProductRepository
type mockProductRepo struct {
	mu      sync.Mutex
	records map[string]domain.Product // key: id + "|" + owner
	nextID  int
	failAll error
}

func newMockProductRepo() *mockProductRepo {
	return &mockProductRepo{records: make(map[string]domain.Product)}
}

func recordKey(id, ownerID string) string {
	return id + "|" + ownerID
}

func (m *mockProductRepo) Find(ctx context.Context, id, ownerID string) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failAll != nil {
		return nil, m.failAll
	}
	if p, ok := m.records[recordKey(id, ownerID)]; ok {
		return &p, nil
	}
	return nil, nil
}

func (m *mockProductRepo) Create(ctx context.Context, p domain.Product) (domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failAll != nil {
		return domain.Product{}, m.failAll
	}

	taken := false
	for key := range m.records {
		if p.ID != "" && strings.HasPrefix(key, p.ID+"|") && key != recordKey(p.ID, p.OwnerID) {
			taken = true
			break
		}
	}
	if p.ID == "" || taken {
		m.nextID++
		p.ID = fmt.Sprintf("gen-%d", m.nextID)
	}

	m.records[recordKey(p.ID, p.OwnerID)] = p
	return p, nil
}

func (m *mockProductRepo) Replace(ctx context.Context, p domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failAll != nil {
		return m.failAll
	}
	m.records[recordKey(p.ID, p.OwnerID)] = p
	return nil
}

func (m *mockProductRepo) Delete(ctx context.Context, id, ownerID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failAll != nil {
		return false, m.failAll
	}
	key := recordKey(id, ownerID)
	if _, ok := m.records[key]; !ok {
		return false, nil
	}
	delete(m.records, key)
	return true, nil
}

func (m *mockProductRepo) ListByOwner(ctx context.Context, ownerID string) ([]domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failAll != nil {
		return nil, m.failAll
	}
	var out []domain.Product
	for _, p := range m.records {
		if p.OwnerID == ownerID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockProductRepo) get(id, ownerID string) (domain.Product, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.records[recordKey(id, ownerID)]
	return p, ok
}

func (m *mockProductRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

// Mock CacheRepository
type mockCacheRepo struct {
	mu       sync.Mutex
	locks    map[string]string
	acquires int
	releases int
	busy     int // number of acquire attempts to refuse
}

func newMockCacheRepo() *mockCacheRepo {
	return &mockCacheRepo{locks: make(map[string]string)}
}

func (m *mockCacheRepo) AcquireLock(ctx context.Context, key, token string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.acquires++
	if m.busy > 0 {
		m.busy--
		return false, nil
	}
	if _, held := m.locks[key]; held {
		return false, nil
	}
	m.locks[key] = token
	return true, nil
}

func (m *mockCacheRepo) ReleaseLock(ctx context.Context, key, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.releases++
	if m.locks[key] == token {
		delete(m.locks, key)
	}
	return nil
}

func upsertChange(id, name string, quantity int) domain.Change {
	return domain.Change{
		Action:       domain.ActionUpsert,
		ID:           id,
		Name:         name,
		Quantity:     quantity,
		Price:        1.50,
		PurchaseDate: "2024-01-01",
		Store:        "Lidl",
		Location:     "Fridge",
	}
}

func TestReconcile_EmptyBatch(t *testing.T) {
	repo := newMockProductRepo()
	svc := NewSyncService(repo, nil)

	summary, err := svc.Reconcile(context.Background(), "u@example.com", nil)
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if len(summary.Results) != 0 {
		t.Errorf("expected empty summary, got %d results", len(summary.Results))
	}
}

func TestReconcile_EmptyOwner(t *testing.T) {
	svc := NewSyncService(newMockProductRepo(), nil)

	_, err := svc.Reconcile(context.Background(), "", []domain.Change{upsertChange("p1", "Milk", 1)})
	if !errors.Is(err, ErrEmptyOwner) {
		t.Errorf("expected ErrEmptyOwner, got %v", err)
	}
}

func TestReconcile_UpsertCreatesOnMiss(t *testing.T) {
	repo := newMockProductRepo()
	svc := NewSyncService(repo, nil)

	summary, err := svc.Reconcile(context.Background(), "u1", []domain.Change{upsertChange("p1", "Milk", 2)})
	if err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}

	if len(summary.Results) != 1 || summary.Results[0].Outcome != domain.OutcomeCreated {
		t.Fatalf("expected one created result, got %+v", summary.Results)
	}
	if repo.count() != 1 {
		t.Errorf("expected exactly one record, got %d", repo.count())
	}
	p, ok := repo.get("p1", "u1")
	if !ok {
		t.Fatal("record p1 not found for u1")
	}
	if p.OwnerID != "u1" {
		t.Errorf("expected owner u1, got %s", p.OwnerID)
	}
}

func TestReconcile_UpsertReplacesOnHit(t *testing.T) {
	repo := newMockProductRepo()
	repo.records[recordKey("p1", "u1")] = domain.Product{
		ID: "p1", OwnerID: "u1", Name: "Milk", Quantity: 10,
		Price: 9.99, PurchaseDate: "2023-12-31", Store: "Aldi", Location: "Pantry",
	}
	svc := NewSyncService(repo, nil)

	summary, err := svc.Reconcile(context.Background(), "u1", []domain.Change{upsertChange("p1", "Milk", 3)})
	if err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}
	if summary.Results[0].Outcome != domain.OutcomeUpdated {
		t.Errorf("expected updated, got %s", summary.Results[0].Outcome)
	}

	p, _ := repo.get("p1", "u1")
	if p.Quantity != 3 {
		t.Errorf("expected quantity 3, got %d", p.Quantity)
	}
	// Full replace: no stale fields survive.
	if p.Store != "Lidl" || p.PurchaseDate != "2024-01-01" || p.Price != 1.50 || p.Location != "Fridge" {
		t.Errorf("stale fields after replace: %+v", p)
	}
}

func TestReconcile_IdempotentDelete(t *testing.T) {
	repo := newMockProductRepo()
	repo.records[recordKey("x", "u1")] = domain.Product{ID: "x", OwnerID: "u1", Name: "Eggs"}
	svc := NewSyncService(repo, nil)

	del := []domain.Change{{Action: domain.ActionDelete, ID: "x"}}

	first, err := svc.Reconcile(context.Background(), "u1", del)
	if err != nil {
		t.Fatalf("first delete failed: %v", err)
	}
	if first.Results[0].Outcome != domain.OutcomeDeleted {
		t.Errorf("expected deleted, got %s", first.Results[0].Outcome)
	}

	second, err := svc.Reconcile(context.Background(), "u1", del)
	if err != nil {
		t.Fatalf("repeated delete must succeed, got %v", err)
	}
	if second.Results[0].Outcome != domain.OutcomeNoop {
		t.Errorf("expected noop, got %s", second.Results[0].Outcome)
	}
	if repo.count() != 0 {
		t.Errorf("expected empty store, got %d records", repo.count())
	}
}

func TestReconcile_OrderDependenceWithinBatch(t *testing.T) {
	// upsert then delete: no record may remain.
	repo := newMockProductRepo()
	svc := NewSyncService(repo, nil)

	_, err := svc.Reconcile(context.Background(), "u1", []domain.Change{
		upsertChange("A", "X", 1),
		{Action: domain.ActionDelete, ID: "A"},
	})
	if err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}
	if _, ok := repo.get("A", "u1"); ok {
		t.Error("expected no record with id A after upsert-then-delete")
	}

	// delete then upsert: exactly one record must remain.
	repo = newMockProductRepo()
	svc = NewSyncService(repo, nil)

	summary, err := svc.Reconcile(context.Background(), "u1", []domain.Change{
		{Action: domain.ActionDelete, ID: "A"},
		upsertChange("A", "X", 1),
	})
	if err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}
	if summary.Results[0].Outcome != domain.OutcomeNoop {
		t.Errorf("expected noop for delete of missing record, got %s", summary.Results[0].Outcome)
	}
	p, ok := repo.get("A", "u1")
	if !ok {
		t.Fatal("expected record with id A after delete-then-upsert")
	}
	if p.Name != "X" {
		t.Errorf("expected name X, got %s", p.Name)
	}
}

func TestReconcile_OwnerIsolation(t *testing.T) {
	repo := newMockProductRepo()
	repo.records[recordKey("p1", "u1")] = domain.Product{ID: "p1", OwnerID: "u1", Name: "Milk", Quantity: 1}
	repo.records[recordKey("p1", "u2")] = domain.Product{ID: "p1", OwnerID: "u2", Name: "Bread", Quantity: 7}
	svc := NewSyncService(repo, nil)

	_, err := svc.Reconcile(context.Background(), "u1", []domain.Change{
		{Action: domain.ActionDelete, ID: "p1"},
	})
	if err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}

	if _, ok := repo.get("p1", "u1"); ok {
		t.Error("u1's record should be gone")
	}
	other, ok := repo.get("p1", "u2")
	if !ok {
		t.Fatal("u2's record must be untouched")
	}
	if other.Name != "Bread" || other.Quantity != 7 {
		t.Errorf("u2's record mutated: %+v", other)
	}
}

func TestReconcile_ValidationHaltsBatch(t *testing.T) {
	repo := newMockProductRepo()
	svc := NewSyncService(repo, nil)

	summary, err := svc.Reconcile(context.Background(), "u1", []domain.Change{
		upsertChange("p1", "Milk", 1),
		{Action: domain.ActionUpsert, ID: "p2"}, // missing required fields
		upsertChange("p3", "Eggs", 1),
	})

	var changeErr *ChangeError
	if !errors.As(err, &changeErr) {
		t.Fatalf("expected ChangeError, got %v", err)
	}
	if changeErr.Index != 1 {
		t.Errorf("expected failure at index 1, got %d", changeErr.Index)
	}
	// Everything before the fatal descriptor stands committed.
	if len(summary.Results) != 1 {
		t.Fatalf("expected 1 applied result, got %d", len(summary.Results))
	}
	if _, ok := repo.get("p1", "u1"); !ok {
		t.Error("p1 should have been committed before the failure")
	}
	if _, ok := repo.get("p3", "u1"); ok {
		t.Error("p3 must not have been applied")
	}
}

func TestReconcile_UnknownAction(t *testing.T) {
	svc := NewSyncService(newMockProductRepo(), nil)

	_, err := svc.Reconcile(context.Background(), "u1", []domain.Change{
		{Action: "merge", ID: "p1"},
	})
	var changeErr *ChangeError
	if !errors.As(err, &changeErr) {
		t.Fatalf("expected ChangeError, got %v", err)
	}
}

func TestReconcile_DeleteRequiresID(t *testing.T) {
	svc := NewSyncService(newMockProductRepo(), nil)

	_, err := svc.Reconcile(context.Background(), "u1", []domain.Change{
		{Action: domain.ActionDelete},
	})
	var changeErr *ChangeError
	if !errors.As(err, &changeErr) {
		t.Fatalf("expected ChangeError, got %v", err)
	}
}

func TestReconcile_StoreFailureHalts(t *testing.T) {
	repo := newMockProductRepo()
	svc := NewSyncService(repo, nil)

	if _, err := svc.Reconcile(context.Background(), "u1", []domain.Change{upsertChange("p1", "Milk", 1)}); err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	storeErr := errors.New("connection reset")
	repo.failAll = storeErr

	summary, err := svc.Reconcile(context.Background(), "u1", []domain.Change{upsertChange("p2", "Eggs", 1)})
	if !errors.Is(err, storeErr) {
		t.Errorf("expected wrapped store error, got %v", err)
	}
	if len(summary.Results) != 0 {
		t.Errorf("expected no applied results, got %d", len(summary.Results))
	}
}

func TestReconcile_ResubmitIsIdempotent(t *testing.T) {
	repo := newMockProductRepo()
	svc := NewSyncService(repo, nil)

	batch := []domain.Change{upsertChange("p1", "Milk", 2)}
	owner := "u@example.com"

	if _, err := svc.Reconcile(context.Background(), owner, batch); err != nil {
		t.Fatalf("first submit failed: %v", err)
	}
	before, _ := repo.get("p1", owner)

	summary, err := svc.Reconcile(context.Background(), owner, batch)
	if err != nil {
		t.Fatalf("resubmit failed: %v", err)
	}
	if summary.Results[0].Outcome != domain.OutcomeUpdated {
		t.Errorf("expected updated on resubmit, got %s", summary.Results[0].Outcome)
	}
	if repo.count() != 1 {
		t.Errorf("expected exactly one record, got %d", repo.count())
	}
	after, _ := repo.get("p1", owner)
	if before != after {
		t.Errorf("resubmit changed state: %+v vs %+v", before, after)
	}
}

func TestReconcile_HoldsAndReleasesOwnerLock(t *testing.T) {
	repo := newMockProductRepo()
	cache := newMockCacheRepo()
	svc := NewSyncService(repo, cache)

	_, err := svc.Reconcile(context.Background(), "u1", []domain.Change{upsertChange("p1", "Milk", 1)})
	if err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}
	if cache.acquires != 1 {
		t.Errorf("expected 1 acquire, got %d", cache.acquires)
	}
	if cache.releases != 1 {
		t.Errorf("expected 1 release, got %d", cache.releases)
	}
	if len(cache.locks) != 0 {
		t.Error("lock still held after reconcile")
	}
}

func TestReconcile_RetriesBusyLock(t *testing.T) {
	repo := newMockProductRepo()
	cache := newMockCacheRepo()
	cache.busy = 1 // first attempt refused, second succeeds
	svc := NewSyncService(repo, cache)

	_, err := svc.Reconcile(context.Background(), "u1", []domain.Change{upsertChange("p1", "Milk", 1)})
	if err != nil {
		t.Fatalf("expected success after retry, got %v", err)
	}
	if cache.acquires != 2 {
		t.Errorf("expected 2 acquire attempts, got %d", cache.acquires)
	}
}
