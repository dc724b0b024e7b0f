package service

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	perrors "github.com/loja/cadastroprodutos/internal/product/errors"
	"github.com/loja/cadastroprodutos/internal/product/events"
	"github.com/loja/cadastroprodutos/internal/product/store"
	"github.com/loja/cadastroprodutos/pkg/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var discard = slog.New(slog.DiscardHandler)

// recordingPublisher keeps every published event and optionally fails.
type recordingPublisher struct {
	mu     sync.Mutex
	events []messaging.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, event messaging.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) subjects() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Subject())
	}
	return out
}

// mockProductStore is a testify mock of store.ProductStore.
type mockProductStore struct {
	mock.Mock
}

func (m *mockProductStore) Create(ctx context.Context, product store.Product) (*store.Product, error) {
	args := m.Called(ctx, product)
	p, _ := args.Get(0).(*store.Product)
	return p, args.Error(1)
}

func (m *mockProductStore) FindByID(ctx context.Context, id int64) (*store.Product, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(*store.Product)
	return p, args.Error(1)
}

func (m *mockProductStore) FindByIDs(ctx context.Context, ids []int64) ([]store.Product, error) {
	args := m.Called(ctx, ids)
	p, _ := args.Get(0).([]store.Product)
	return p, args.Error(1)
}

func (m *mockProductStore) FindAll(ctx context.Context) ([]store.Product, error) {
	args := m.Called(ctx)
	p, _ := args.Get(0).([]store.Product)
	return p, args.Error(1)
}

func (m *mockProductStore) FindPage(ctx context.Context, offset, limit int) ([]store.Product, error) {
	args := m.Called(ctx, offset, limit)
	p, _ := args.Get(0).([]store.Product)
	return p, args.Error(1)
}

func (m *mockProductStore) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockProductStore) UpdateQuantity(ctx context.Context, id int64, quantity int32) (*store.Product, error) {
	args := m.Called(ctx, id, quantity)
	p, _ := args.Get(0).(*store.Product)
	return p, args.Error(1)
}

func (m *mockProductStore) DeleteByID(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockProductStore) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func newTestService() (*Service, *recordingPublisher) {
	pub := &recordingPublisher{}
	return NewService(store.NewInMemoryStore(), pub, discard), pub
}

func Test_ProductService_Create(t *testing.T) {
	testCases := []struct {
		name        string
		input       ProductCreateDto
		expectError error
	}{
		{name: "valid", input: ProductCreateDto{Name: "Caneta", Price: 10, Quantity: 5}},
		{name: "negative values are non-zero", input: ProductCreateDto{Price: -1, Quantity: -1}},
		{name: "zero price", input: ProductCreateDto{Price: 0, Quantity: 5}, expectError: perrors.ErrInvalidProduct},
		{name: "zero quantity", input: ProductCreateDto{Price: 10, Quantity: 0}, expectError: perrors.ErrInvalidProduct},
		{name: "both missing", input: ProductCreateDto{Name: "x"}, expectError: perrors.ErrInvalidProduct},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			svc, pub := newTestService()

			// when
			created, err := svc.Create(context.Background(), tc.input)

			// then
			if tc.expectError != nil {
				assert.ErrorIs(t, err, tc.expectError)
				assert.Nil(t, created)
				assert.Empty(t, pub.subjects(), "no event for a rejected product")
				all, _ := svc.FindAll(context.Background())
				assert.Empty(t, all, "nothing stored")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, int64(1), created.ID)
			assert.Equal(t, tc.input.Price, created.Price)
			assert.Equal(t, tc.input.Quantity, created.Quantity)
			assert.Equal(t, []string{events.ProductCreatedSubject}, pub.subjects())
		})
	}
}

func Test_ProductService_CreateThenFindByID(t *testing.T) {
	// given
	svc, _ := newTestService()
	created, err := svc.Create(context.Background(), ProductCreateDto{Name: "Caneta", Description: "azul", Price: 10, Quantity: 5})
	require.NoError(t, err)

	// when
	found, err := svc.FindByID(context.Background(), created.ID)

	// then
	require.NoError(t, err)
	assert.Equal(t, created, found)
}

func Test_ProductService_NotFound(t *testing.T) {
	svc, pub := newTestService()
	ctx := context.Background()

	_, err := svc.FindByID(ctx, 7)
	assert.ErrorIs(t, err, perrors.ErrProductNotFound)

	_, err = svc.UpdateQuantity(ctx, 7, 1)
	assert.ErrorIs(t, err, perrors.ErrProductNotFound)

	assert.ErrorIs(t, svc.DeleteByID(ctx, 7), perrors.ErrProductNotFound)
	assert.Empty(t, pub.subjects())
}

func Test_ProductService_UpdateQuantity(t *testing.T) {
	// given
	svc, pub := newTestService()
	created, err := svc.Create(context.Background(), ProductCreateDto{Price: 10, Quantity: 5})
	require.NoError(t, err)

	// when
	updated, err := svc.UpdateQuantity(context.Background(), created.ID, 0)

	// then
	require.NoError(t, err)
	assert.Equal(t, int32(0), updated.Quantity, "zero is accepted on update")
	assert.Equal(t, created.Price, updated.Price)

	found, err := svc.FindByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, int32(0), found.Quantity)
	assert.Equal(t, []string{events.ProductCreatedSubject, events.ProductQuantityUpdatedSubject}, pub.subjects())
}

func Test_ProductService_Delete(t *testing.T) {
	// given
	svc, pub := newTestService()
	created, err := svc.Create(context.Background(), ProductCreateDto{Price: 10, Quantity: 5})
	require.NoError(t, err)

	// when
	err = svc.DeleteByID(context.Background(), created.ID)

	// then
	require.NoError(t, err)
	_, err = svc.FindByID(context.Background(), created.ID)
	assert.ErrorIs(t, err, perrors.ErrProductNotFound)
	assert.Equal(t, []string{events.ProductCreatedSubject, events.ProductDeletedSubject}, pub.subjects())
}

func Test_ProductService_PublishFailureDoesNotFailMutation(t *testing.T) {
	// given
	pub := &recordingPublisher{err: errors.New("broker down")}
	svc := NewService(store.NewInMemoryStore(), pub, discard)

	// when
	created, err := svc.Create(context.Background(), ProductCreateDto{Price: 10, Quantity: 5})

	// then
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Len(t, pub.subjects(), 1)
}

func Test_ProductService_FindAll(t *testing.T) {
	ErrStoreError := errors.New("store error")
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	testCases := []struct {
		name        string
		setup       func(m *mockProductStore)
		expected    []ProductDto
		expectError error
	}{
		{
			name: "products found",
			setup: func(m *mockProductStore) {
				m.On("FindAll", mock.Anything).Return([]store.Product{{ID: 1, Name: "Toy", Price: 2, Quantity: 3, CreatedAt: at, UpdatedAt: at}}, nil)
			},
			expected: []ProductDto{{ID: 1, Name: "Toy", Price: 2, Quantity: 3, CreatedAt: at, UpdatedAt: at}},
		},
		{
			name: "no products",
			setup: func(m *mockProductStore) {
				m.On("FindAll", mock.Anything).Return([]store.Product{}, nil)
			},
			expected: []ProductDto{},
		},
		{
			name: "store error",
			setup: func(m *mockProductStore) {
				m.On("FindAll", mock.Anything).Return(nil, ErrStoreError)
			},
			expectError: ErrStoreError,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			m := new(mockProductStore)
			tc.setup(m)
			svc := NewService(m, &recordingPublisher{}, discard)

			// when
			list, err := svc.FindAll(context.Background())

			// then
			if tc.expectError != nil {
				assert.ErrorIs(t, err, tc.expectError)
				assert.Nil(t, list)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, list)
			m.AssertExpectations(t)
		})
	}
}

func Test_ProductService_FindPage(t *testing.T) {
	testCases := []struct {
		name          string
		page, size    int
		total         int64
		offset, limit int
		rows          int
		totalPages    int
		expectError   error
	}{
		{name: "first page", page: 0, size: 20, total: 45, offset: 0, limit: 20, rows: 20, totalPages: 3},
		{name: "last partial page", page: 2, size: 20, total: 45, offset: 40, limit: 20, rows: 5, totalPages: 3},
		{name: "exact multiple", page: 0, size: 5, total: 10, offset: 0, limit: 5, rows: 5, totalPages: 2},
		{name: "empty store", page: 0, size: 20, total: 0, offset: 0, limit: 20, rows: 0, totalPages: 0},
		{name: "negative page", page: -1, size: 20, expectError: perrors.ErrInvalidPage},
		{name: "zero size", page: 0, size: 0, expectError: perrors.ErrInvalidPage},
		{name: "size over max", page: 0, size: MaxPageSize + 1, expectError: perrors.ErrInvalidPage},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			m := new(mockProductStore)
			if tc.expectError == nil {
				m.On("Count", mock.Anything).Return(tc.total, nil)
				m.On("FindPage", mock.Anything, tc.offset, tc.limit).Return(make([]store.Product, tc.rows), nil)
			}
			svc := NewService(m, &recordingPublisher{}, discard)

			// when
			page, err := svc.FindPage(context.Background(), tc.page, tc.size)

			// then
			if tc.expectError != nil {
				assert.ErrorIs(t, err, tc.expectError)
				m.AssertNotCalled(t, "Count", mock.Anything)
				return
			}
			require.NoError(t, err)
			assert.Len(t, page.Content, tc.rows)
			assert.Equal(t, tc.page, page.Page)
			assert.Equal(t, tc.size, page.Size)
			assert.Equal(t, tc.total, page.TotalElements)
			assert.Equal(t, tc.totalPages, page.TotalPages)
			m.AssertExpectations(t)
		})
	}
}

func Test_ProductService_FindByIDs(t *testing.T) {
	svc, _ := newTestService()
	for range 3 {
		_, err := svc.Create(context.Background(), ProductCreateDto{Price: 1, Quantity: 1})
		require.NoError(t, err)
	}

	found, err := svc.FindByIDs(context.Background(), []int64{3, 1, 99})
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, int64(1), found[0].ID)
	assert.Equal(t, int64(3), found[1].ID)

	none, err := svc.FindByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func Test_ProductService_Ready(t *testing.T) {
	m := new(mockProductStore)
	m.On("Ping", mock.Anything).Return(errors.New("db down"))
	svc := NewService(m, &recordingPublisher{}, discard)

	assert.Error(t, svc.Ready(context.Background()))
}

func Test_ProductList_Encoding(t *testing.T) {
	list := ProductList{{ID: 1, Name: "a"}, {ID: 2, Name: "b"}}

	asJSON, err := json.Marshal(list)
	require.NoError(t, err)
	assert.Contains(t, string(asJSON), `[{"id":1,"name":"a"`)

	asXML, err := xml.Marshal(list)
	require.NoError(t, err)
	assert.Contains(t, string(asXML), "<products><product><id>1</id><name>a</name>")
	assert.Contains(t, string(asXML), "</product></products>")

	empty, err := json.Marshal(ProductList{})
	require.NoError(t, err)
	assert.Equal(t, "[]", string(empty))
}
