package inventory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/stocksync/backend/internal/domain/integration"
	"github.com/stocksync/backend/internal/domain/inventory"
)

// MockProductRepository is a mock implementation of inventory.ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) FindAll(ctx context.Context) ([]inventory.Product, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]inventory.Product), args.Error(1)
}

func (m *MockProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.Product), args.Error(1)
}

func (m *MockProductRepository) FindBySKU(ctx context.Context, sku string) (*inventory.Product, error) {
	args := m.Called(ctx, sku)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.Product), args.Error(1)
}

func (m *MockProductRepository) ExistsBySKU(ctx context.Context, sku string) (bool, error) {
	args := m.Called(ctx, sku)
	return args.Bool(0), args.Error(1)
}

func (m *MockProductRepository) Save(ctx context.Context, product *inventory.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockProductRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// MockSyncLogRepository is a mock implementation of inventory.SyncLogRepository
type MockSyncLogRepository struct {
	mock.Mock
}

func (m *MockSyncLogRepository) Create(ctx context.Context, entry *inventory.SyncLogEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockSyncLogRepository) FindRecent(ctx context.Context, limit int) ([]inventory.SyncLogEntry, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]inventory.SyncLogEntry), args.Error(1)
}

func (m *MockSyncLogRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.SyncLogEntry, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.SyncLogEntry), args.Error(1)
}

// pushedQuantity records one UpdateInventory call
type pushedQuantity struct {
	Ref      integration.ItemRef
	Quantity int
}

// fakeMarketplace is a programmable MarketplaceClient. Unknown items read as
// zero and accept every write.
type fakeMarketplace struct {
	code integration.MarketplaceCode

	mu        sync.Mutex
	stock     map[string]integration.QuantityResult
	writeErrs map[string]error
	panicOn   string
	reads     []integration.ItemRef
	pushes    []pushedQuantity
}

func newFakeMarketplace(code integration.MarketplaceCode) *fakeMarketplace {
	return &fakeMarketplace{
		code:      code,
		stock:     map[string]integration.QuantityResult{},
		writeErrs: map[string]error{},
	}
}

func (f *fakeMarketplace) setQuantity(externalID string, qty int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stock[externalID] = integration.OkQuantity(qty)
}

func (f *fakeMarketplace) failRead(externalID string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stock[externalID] = integration.ErrQuantity(err)
}

func (f *fakeMarketplace) failWrite(externalID string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writeErrs[externalID] = err
}

func (f *fakeMarketplace) Code() integration.MarketplaceCode { return f.code }

func (f *fakeMarketplace) Authenticate(context.Context) (string, error) { return "token", nil }

func (f *fakeMarketplace) GetInventory(_ context.Context, item integration.ItemRef) integration.QuantityResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.panicOn == item.ExternalID {
		panic("unexpected payload")
	}
	f.reads = append(f.reads, item)
	if res, ok := f.stock[item.ExternalID]; ok {
		return res
	}
	return integration.OkQuantity(0)
}

func (f *fakeMarketplace) UpdateInventory(_ context.Context, item integration.ItemRef, quantity int) integration.UpdateResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pushes = append(f.pushes, pushedQuantity{Ref: item, Quantity: quantity})
	if err, ok := f.writeErrs[item.ExternalID]; ok {
		return integration.ErrUpdate(err)
	}
	f.stock[item.ExternalID] = integration.OkQuantity(quantity)
	return integration.OkUpdate()
}

func (f *fakeMarketplace) pushed() []pushedQuantity {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]pushedQuantity, len(f.pushes))
	copy(out, f.pushes)
	return out
}

func (f *fakeMarketplace) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.reads) + len(f.pushes)
}

var _ integration.MarketplaceClient = (*fakeMarketplace)(nil)

// fakeRunLock is a single-slot lock
type fakeRunLock struct {
	mu       sync.Mutex
	held     bool
	err      error
	acquired int
	released int
}

func (l *fakeRunLock) TryAcquire(_ context.Context, _ string, _ time.Duration) (func(), bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return nil, false, l.err
	}
	if l.held {
		return nil, false, nil
	}
	l.held = true
	l.acquired++
	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			defer l.mu.Unlock()
			l.held = false
			l.released++
		})
	}, true, nil
}

var _ RunLock = (*fakeRunLock)(nil)
