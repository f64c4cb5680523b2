package usecase

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/stocktrail/inventory-service/internal/apperror"
	"github.com/stocktrail/inventory-service/internal/category/dto"
	itemdto "github.com/stocktrail/inventory-service/internal/item/dto"
	"github.com/stocktrail/inventory-service/internal/model"
	"github.com/stocktrail/inventory-service/internal/pkg/logger"
)

// Mock item repository backed by maps; filter semantics mirror the SQL in
// the Postgres repository.
type mockItemRepo struct {
	mu           sync.Mutex
	items        map[int64]model.Item
	changes      []model.ChangeRecord
	nextItemID   int64
	nextChangeID int64
}

func newMockItemRepo() *mockItemRepo {
	return &mockItemRepo{items: map[int64]model.Item{}}
}

func (m *mockItemRepo) Create(ctx context.Context, it *model.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextItemID++
	it.ID = m.nextItemID
	m.items[it.ID] = *it
	return nil
}

func (m *mockItemRepo) FindByID(ctx context.Context, ownerID, id int64) (*model.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[id]
	if !ok || it.OwnerID != ownerID {
		return nil, nil
	}
	cp := it
	return &cp, nil
}

func (m *mockItemRepo) FindAll(ctx context.Context, f *itemdto.ItemFilters) ([]model.Item, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []model.Item
	for _, it := range m.items {
		if it.OwnerID != f.OwnerID {
			continue
		}
		if f.CategoryID != 0 && (it.CategoryID == nil || *it.CategoryID != f.CategoryID) {
			continue
		}
		if f.MinPrice != nil && it.Price.LessThan(*f.MinPrice) {
			continue
		}
		if f.MaxPrice != nil && it.Price.GreaterThan(*f.MaxPrice) {
			continue
		}
		if f.LowStock && it.Quantity >= f.EffectiveThreshold() {
			continue
		}
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, len(out), nil
}

func (m *mockItemRepo) UpdateWithChange(ctx context.Context, it *model.Item, change *model.ChangeRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.items[it.ID]
	if !ok || stored.OwnerID != it.OwnerID {
		return apperror.ErrNotFound
	}
	if change != nil && stored.Quantity != change.OldQuantity {
		return apperror.ErrConflict
	}

	m.items[it.ID] = *it
	if change != nil {
		m.nextChangeID++
		change.ID = m.nextChangeID
		change.ItemName = it.Name
		m.changes = append(m.changes, *change)
	}
	return nil
}

func (m *mockItemRepo) DeleteWithChanges(ctx context.Context, ownerID, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	it, ok := m.items[id]
	if !ok || it.OwnerID != ownerID {
		return false, nil
	}
	delete(m.items, id)

	kept := m.changes[:0]
	for _, ch := range m.changes {
		if ch.ItemID != id {
			kept = append(kept, ch)
		}
	}
	m.changes = kept
	return true, nil
}

func (m *mockItemRepo) ListChangesByItem(ctx context.Context, itemID int64) ([]model.ChangeRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []model.ChangeRecord
	for _, ch := range m.changes {
		if ch.ItemID == itemID {
			out = append(out, ch)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *mockItemRepo) ListChangesByOwner(ctx context.Context, ownerID int64) ([]model.ChangeRecord, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []model.ChangeRecord
	for _, ch := range m.changes {
		it, ok := m.items[ch.ItemID]
		if ok && it.OwnerID == ownerID {
			out = append(out, ch)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, len(out), nil
}

type mockCategoryRepo struct {
	categories map[int64]model.Category
}

func (m *mockCategoryRepo) Create(ctx context.Context, c *model.Category) error { return nil }
func (m *mockCategoryRepo) FindByID(ctx context.Context, ownerID, id int64) (*model.Category, error) {
	c, ok := m.categories[id]
	if !ok || c.OwnerID != ownerID {
		return nil, nil
	}
	cp := c
	return &cp, nil
}
func (m *mockCategoryRepo) FindAll(ctx context.Context, f *dto.CategoryFilters) ([]model.Category, int, error) {
	return nil, 0, nil
}
func (m *mockCategoryRepo) Update(ctx context.Context, c *model.Category) error { return nil }
func (m *mockCategoryRepo) Delete(ctx context.Context, ownerID, id int64) (bool, error) {
	return false, nil
}
func (m *mockCategoryRepo) ExistsByName(ctx context.Context, ownerID int64, name string, excludeID int64) (bool, error) {
	return false, nil
}

type mockLocker struct {
	available bool
	acquired  int
	released  int
}

func (m *mockLocker) AcquireLock(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	if m.available {
		m.acquired++
		return true, nil
	}
	return false, nil
}

func (m *mockLocker) ReleaseLock(ctx context.Context, key, value string) error {
	m.released++
	return nil
}

func testLogger() logger.ZapLogger {
	return logger.NewZapLogger(&logger.ZapLoggerConfig{Level: "fatal", Encoding: "console"})
}

func newTestUseCase(repo *mockItemRepo, locker *mockLocker, cats map[int64]model.Category) *itemUseCase {
	if cats == nil {
		cats = map[int64]model.Category{}
	}
	uc := NewItemUseCase(repo, &mockCategoryRepo{categories: cats}, locker, nil, nil, testLogger())
	return uc.(*itemUseCase)
}

func mustCreate(t *testing.T, uc *itemUseCase, owner int64, name string, qty int, price string) *model.Item {
	t.Helper()
	p := decimal.RequireFromString(price)
	it, err := uc.CreateItem(context.Background(), &itemdto.CreateItemInput{
		OwnerID:  owner,
		Name:     name,
		Quantity: &qty,
		Price:    &p,
	})
	if err != nil {
		t.Fatalf("create item: %v", err)
	}
	return it
}

func TestCreateItem_NoChangeRecord(t *testing.T) {
	repo := newMockItemRepo()
	uc := newTestUseCase(repo, &mockLocker{available: true}, nil)

	it := mustCreate(t, uc, 1, "Widget", 10, "2.50")
	if it.ID == 0 {
		t.Fatal("expected assigned id")
	}
	if len(repo.changes) != 0 {
		t.Errorf("creation must not produce a change record, got %d", len(repo.changes))
	}
}

func TestCreateItem_InvalidCategory(t *testing.T) {
	repo := newMockItemRepo()
	uc := newTestUseCase(repo, &mockLocker{available: true}, map[int64]model.Category{
		7: {ID: 7, OwnerID: 2, Name: "Tools"},
	})

	qty := 1
	price := decimal.RequireFromString("1.00")
	catID := int64(7) // owned by someone else
	_, err := uc.CreateItem(context.Background(), &itemdto.CreateItemInput{
		OwnerID:    1,
		Name:       "Hammer",
		Quantity:   &qty,
		Price:      &price,
		CategoryID: &catID,
	})
	ve, ok := apperror.AsValidation(err)
	if !ok {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, found := ve.Fields["category"]; !found {
		t.Errorf("expected category field error, got %v", ve.Fields)
	}
}

func TestUpdateItem_QuantityChangeCreatesRecord(t *testing.T) {
	repo := newMockItemRepo()
	uc := newTestUseCase(repo, &mockLocker{available: true}, nil)

	it := mustCreate(t, uc, 1, "Widget", 10, "2.50")

	newQty := 7
	updated, err := uc.UpdateItem(context.Background(), &itemdto.UpdateItemInput{
		ID:       it.ID,
		OwnerID:  1,
		UserID:   1,
		Username: "alice",
		Quantity: &newQty,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Quantity != 7 {
		t.Errorf("quantity = %d, want 7", updated.Quantity)
	}

	if len(repo.changes) != 1 {
		t.Fatalf("expected exactly one change record, got %d", len(repo.changes))
	}
	ch := repo.changes[0]
	if ch.OldQuantity != 10 || ch.NewQuantity != 7 {
		t.Errorf("record = (%d -> %d), want (10 -> 7)", ch.OldQuantity, ch.NewQuantity)
	}
	if ch.Type() != model.ChangeTypeSale || ch.QuantityChanged() != 3 {
		t.Errorf("classified as %s/%d, want sale/3", ch.Type(), ch.QuantityChanged())
	}
	if ch.Username != "alice" {
		t.Errorf("changed by %q, want alice", ch.Username)
	}
}

func TestUpdateItem_NoOpQuantityCreatesNoRecord(t *testing.T) {
	repo := newMockItemRepo()
	uc := newTestUseCase(repo, &mockLocker{available: true}, nil)

	it := mustCreate(t, uc, 1, "Widget", 7, "2.50")

	sameQty := 7
	desc := "restocked shelf"
	before := it.UpdatedAt
	updated, err := uc.UpdateItem(context.Background(), &itemdto.UpdateItemInput{
		ID:          it.ID,
		OwnerID:     1,
		Quantity:    &sameQty,
		Description: &desc,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	if len(repo.changes) != 0 {
		t.Errorf("no-op quantity write must not create a record, got %d", len(repo.changes))
	}
	if updated.Description != desc {
		t.Errorf("description not applied")
	}
	if updated.UpdatedAt.Before(before) {
		t.Errorf("updated_at must be refreshed on any successful write")
	}
}

func TestUpdateItem_OtherOwnerIsNotFound(t *testing.T) {
	repo := newMockItemRepo()
	uc := newTestUseCase(repo, &mockLocker{available: true}, nil)

	it := mustCreate(t, uc, 1, "Widget", 10, "2.50")

	newQty := 3
	_, err := uc.UpdateItem(context.Background(), &itemdto.UpdateItemInput{
		ID:       it.ID,
		OwnerID:  2,
		Quantity: &newQty,
	})
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("expected not found for foreign owner, got %v", err)
	}
}

func TestAuditChain(t *testing.T) {
	repo := newMockItemRepo()
	uc := newTestUseCase(repo, &mockLocker{available: true}, nil)

	it := mustCreate(t, uc, 1, "Widget", 10, "2.50")

	for _, q := range []int{7, 15, 15, 2} {
		qty := q
		if _, err := uc.UpdateItem(context.Background(), &itemdto.UpdateItemInput{
			ID: it.ID, OwnerID: 1, Quantity: &qty,
		}); err != nil {
			t.Fatalf("update to %d: %v", q, err)
		}
	}
	if _, err := uc.AdjustQuantity(context.Background(), &itemdto.AdjustQuantityInput{
		ItemID: it.ID, OwnerID: 1, Delta: +8,
	}); err != nil {
		t.Fatalf("adjust: %v", err)
	}

	// 10->7, 7->15, 15->2, 2->10 (the 15->15 write records nothing)
	if len(repo.changes) != 4 {
		t.Fatalf("expected 4 records, got %d", len(repo.changes))
	}

	records := append([]model.ChangeRecord(nil), repo.changes...)
	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })

	if records[0].OldQuantity != 10 {
		t.Errorf("first record old = %d, want the creation quantity 10", records[0].OldQuantity)
	}
	for i := 0; i < len(records)-1; i++ {
		if records[i].NewQuantity != records[i+1].OldQuantity {
			t.Errorf("chain broken at %d: new %d != next old %d",
				i, records[i].NewQuantity, records[i+1].OldQuantity)
		}
	}
}

func TestAdjustQuantity(t *testing.T) {
	repo := newMockItemRepo()
	uc := newTestUseCase(repo, &mockLocker{available: true}, nil)

	it := mustCreate(t, uc, 1, "Widget", 5, "1.00")

	updated, err := uc.AdjustQuantity(context.Background(), &itemdto.AdjustQuantityInput{
		ItemID: it.ID, OwnerID: 1, Delta: -2, Username: "pos",
	})
	if err != nil {
		t.Fatalf("adjust: %v", err)
	}
	if updated.Quantity != 3 {
		t.Errorf("quantity = %d, want 3", updated.Quantity)
	}

	// Zero delta writes nothing.
	if _, err := uc.AdjustQuantity(context.Background(), &itemdto.AdjustQuantityInput{
		ItemID: it.ID, OwnerID: 1, Delta: 0,
	}); err != nil {
		t.Fatalf("zero adjust: %v", err)
	}
	if len(repo.changes) != 1 {
		t.Errorf("expected 1 record, got %d", len(repo.changes))
	}

	// Draining below zero is rejected and leaves no trace.
	_, err = uc.AdjustQuantity(context.Background(), &itemdto.AdjustQuantityInput{
		ItemID: it.ID, OwnerID: 1, Delta: -4,
	})
	if _, ok := apperror.AsValidation(err); !ok {
		t.Fatalf("expected validation error, got %v", err)
	}
	if got, _ := repo.FindByID(context.Background(), 1, it.ID); got.Quantity != 3 {
		t.Errorf("quantity = %d after rejected adjust, want 3", got.Quantity)
	}
	if len(repo.changes) != 1 {
		t.Errorf("rejected adjust must not append a record, got %d", len(repo.changes))
	}
}

func TestUpdateItem_LockContention(t *testing.T) {
	repo := newMockItemRepo()
	locker := &mockLocker{available: false}
	uc := newTestUseCase(repo, locker, nil)

	it := mustCreate(t, uc, 1, "Widget", 10, "2.50")

	newQty := 1
	_, err := uc.UpdateItem(context.Background(), &itemdto.UpdateItemInput{
		ID: it.ID, OwnerID: 1, Quantity: &newQty,
	})
	if !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("expected conflict when the lock is held, got %v", err)
	}
	if len(repo.changes) != 0 {
		t.Errorf("conflicted update must not write, got %d records", len(repo.changes))
	}
}

func TestLockReleasedAfterUpdate(t *testing.T) {
	repo := newMockItemRepo()
	locker := &mockLocker{available: true}
	uc := newTestUseCase(repo, locker, nil)

	it := mustCreate(t, uc, 1, "Widget", 10, "2.50")

	newQty := 4
	if _, err := uc.UpdateItem(context.Background(), &itemdto.UpdateItemInput{
		ID: it.ID, OwnerID: 1, Quantity: &newQty,
	}); err != nil {
		t.Fatalf("update: %v", err)
	}

	if locker.acquired != 1 || locker.released != 1 {
		t.Errorf("lock acquired/released = %d/%d, want 1/1", locker.acquired, locker.released)
	}
}

func TestDeleteItem_CascadesChanges(t *testing.T) {
	repo := newMockItemRepo()
	uc := newTestUseCase(repo, &mockLocker{available: true}, nil)

	it := mustCreate(t, uc, 1, "Widget", 10, "2.50")
	newQty := 2
	if _, err := uc.UpdateItem(context.Background(), &itemdto.UpdateItemInput{
		ID: it.ID, OwnerID: 1, Quantity: &newQty,
	}); err != nil {
		t.Fatalf("update: %v", err)
	}

	if err := uc.DeleteItem(context.Background(), 1, it.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(repo.changes) != 0 {
		t.Errorf("audit trail must not outlive its item, got %d records", len(repo.changes))
	}

	if err := uc.DeleteItem(context.Background(), 1, it.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("second delete should be not found, got %v", err)
	}
}

func TestListItems_LowStockFilter(t *testing.T) {
	repo := newMockItemRepo()
	uc := newTestUseCase(repo, &mockLocker{available: true}, nil)

	mustCreate(t, uc, 1, "Bolts", 3, "0.10")
	mustCreate(t, uc, 1, "Nuts", 5, "0.20")
	mustCreate(t, uc, 1, "Screws", 9, "0.30")

	filters := &itemdto.ItemFilters{OwnerID: 1, LowStock: true}
	items, count, err := uc.ListItems(context.Background(), filters)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if count != 1 || len(items) != 1 || items[0].Name != "Bolts" {
		t.Fatalf("low stock with default threshold should return only Bolts, got %v", items)
	}

	// Applying the same filter twice yields the same set.
	again, _, err := uc.ListItems(context.Background(), filters)
	if err != nil {
		t.Fatalf("second list: %v", err)
	}
	if len(again) != len(items) || again[0].ID != items[0].ID {
		t.Errorf("filter is not idempotent: %v vs %v", again, items)
	}
}

func TestListItems_OwnerIsolation(t *testing.T) {
	repo := newMockItemRepo()
	uc := newTestUseCase(repo, &mockLocker{available: true}, nil)

	mine := mustCreate(t, uc, 1, "Widget", 10, "2.50")
	mustCreate(t, uc, 2, "Widget", 10, "2.50")

	items, count, err := uc.ListItems(context.Background(), &itemdto.ItemFilters{OwnerID: 1})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if count != 1 || items[0].ID != mine.ID {
		t.Fatalf("owner 1 must only see their own item, got %v", items)
	}
}

func TestListItemChanges_OwnerScoped(t *testing.T) {
	repo := newMockItemRepo()
	uc := newTestUseCase(repo, &mockLocker{available: true}, nil)

	it := mustCreate(t, uc, 1, "Widget", 10, "2.50")
	newQty := 6
	if _, err := uc.UpdateItem(context.Background(), &itemdto.UpdateItemInput{
		ID: it.ID, OwnerID: 1, Quantity: &newQty,
	}); err != nil {
		t.Fatalf("update: %v", err)
	}

	changes, err := uc.ListItemChanges(context.Background(), 1, it.ID)
	if err != nil {
		t.Fatalf("list changes: %v", err)
	}
	if len(changes) != 1 {
		t.Fatalf("expected 1 change, got %d", len(changes))
	}

	if _, err := uc.ListItemChanges(context.Background(), 2, it.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("foreign owner should get not found, got %v", err)
	}
}
