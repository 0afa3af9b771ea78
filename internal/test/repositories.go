package test

import (
	"context"
	"sync"
	"time"

	domainErrors "github.com/suravi/checkout/internal/domain/errors"
	"github.com/suravi/checkout/internal/domain/model"
)

// UserRepositoryStub stores users in-memory for tests.
type UserRepositoryStub struct {
	Users map[string]*model.User
	ByID  map[int64]*model.User
	Next  int64
	Err   error
}

// NewUserRepositoryStub constructs stub repository with initialized maps.
func NewUserRepositoryStub() *UserRepositoryStub {
	return &UserRepositoryStub{
		Users: make(map[string]*model.User),
		ByID:  make(map[int64]*model.User),
		Next:  1,
	}
}

// Create registers user unless already exists or stub has explicit error.
func (s *UserRepositoryStub) Create(ctx context.Context, login, passwordHash string) (*model.User, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	if s.Users == nil {
		s.Users = make(map[string]*model.User)
	}
	if s.ByID == nil {
		s.ByID = make(map[int64]*model.User)
	}
	if _, exists := s.Users[login]; exists {
		return nil, domainErrors.ErrAlreadyExists
	}
	if s.Next == 0 {
		s.Next = 1
	}
	user := &model.User{ID: s.Next, Login: login, PasswordHash: passwordHash}
	s.Next++
	s.Users[login] = user
	s.ByID[user.ID] = user
	return user, nil
}

// GetByLogin fetches user by login or returns not found.
func (s *UserRepositoryStub) GetByLogin(ctx context.Context, login string) (*model.User, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	if user, ok := s.Users[login]; ok {
		return user, nil
	}
	return nil, domainErrors.ErrNotFound
}

// GetByID fetches user by identifier or returns not found.
func (s *UserRepositoryStub) GetByID(ctx context.Context, id int64) (*model.User, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	if user, ok := s.ByID[id]; ok {
		return user, nil
	}
	return nil, domainErrors.ErrNotFound
}

// OrderRepositoryStub provides controllable order persistence behaviour via
// per-method overrides. Methods without an override return not found.
type OrderRepositoryStub struct {
	CreateDraftFn         func(context.Context, *model.Order) (*model.Order, error)
	GetByIDFn             func(context.Context, int64) (*model.Order, error)
	ListByUserFn          func(context.Context, int64) ([]model.Order, error)
	ListOnHoldFn          func(context.Context, int) ([]model.Order, error)
	CancelPendingFn       func(context.Context, int64, string) (int64, error)
	SetPaymentMethodFn    func(context.Context, int64, model.PaymentMethod) error
	SetGatewayRefFn       func(context.Context, int64, string) error
	MarkPaidFn            func(context.Context, int64, model.PaymentMethod, string) (bool, error)
	MarkPaymentFailedFn   func(context.Context, int64) error
	FinalizeFn            func(context.Context, int64) (*model.Order, error)
	CancelFn              func(context.Context, int64, int64, string) (*model.Order, error)
	CancelStaleDraftsFn   func(context.Context, time.Time, string) (int64, error)
	PurgeCancelledDraftFn func(context.Context, time.Time) (int64, error)
}

func (s *OrderRepositoryStub) CreateDraft(ctx context.Context, order *model.Order) (*model.Order, error) {
	if s.CreateDraftFn != nil {
		return s.CreateDraftFn(ctx, order)
	}
	order.ID = 1
	order.Status = model.OrderStatusPendingPayment
	order.PaymentStatus = model.PaymentStatusPending
	order.PaymentMethod = model.PaymentMethodPending
	order.CreatedAt = time.Unix(0, 0)
	return order, nil
}

func (s *OrderRepositoryStub) GetByID(ctx context.Context, id int64) (*model.Order, error) {
	if s.GetByIDFn != nil {
		return s.GetByIDFn(ctx, id)
	}
	return nil, domainErrors.ErrNotFound
}

func (s *OrderRepositoryStub) ListByUser(ctx context.Context, userID int64) ([]model.Order, error) {
	if s.ListByUserFn != nil {
		return s.ListByUserFn(ctx, userID)
	}
	return nil, nil
}

func (s *OrderRepositoryStub) ListOnHold(ctx context.Context, limit int) ([]model.Order, error) {
	if s.ListOnHoldFn != nil {
		return s.ListOnHoldFn(ctx, limit)
	}
	return nil, nil
}

func (s *OrderRepositoryStub) CancelPendingDrafts(ctx context.Context, userID int64, reason string) (int64, error) {
	if s.CancelPendingFn != nil {
		return s.CancelPendingFn(ctx, userID, reason)
	}
	return 0, nil
}

func (s *OrderRepositoryStub) SetPaymentMethod(ctx context.Context, orderID int64, method model.PaymentMethod) error {
	if s.SetPaymentMethodFn != nil {
		return s.SetPaymentMethodFn(ctx, orderID, method)
	}
	return nil
}

func (s *OrderRepositoryStub) SetGatewayRef(ctx context.Context, orderID int64, ref string) error {
	if s.SetGatewayRefFn != nil {
		return s.SetGatewayRefFn(ctx, orderID, ref)
	}
	return nil
}

func (s *OrderRepositoryStub) MarkPaid(ctx context.Context, orderID int64, method model.PaymentMethod, transactionRef string) (bool, error) {
	if s.MarkPaidFn != nil {
		return s.MarkPaidFn(ctx, orderID, method, transactionRef)
	}
	return true, nil
}

func (s *OrderRepositoryStub) MarkPaymentFailed(ctx context.Context, orderID int64) error {
	if s.MarkPaymentFailedFn != nil {
		return s.MarkPaymentFailedFn(ctx, orderID)
	}
	return nil
}

func (s *OrderRepositoryStub) Finalize(ctx context.Context, orderID int64) (*model.Order, error) {
	if s.FinalizeFn != nil {
		return s.FinalizeFn(ctx, orderID)
	}
	return &model.Order{ID: orderID, Status: model.OrderStatusProcessing}, nil
}

func (s *OrderRepositoryStub) Cancel(ctx context.Context, orderID, userID int64, reason string) (*model.Order, error) {
	if s.CancelFn != nil {
		return s.CancelFn(ctx, orderID, userID, reason)
	}
	return &model.Order{ID: orderID, UserID: userID, Status: model.OrderStatusCancelled, CancellationReason: reason}, nil
}

func (s *OrderRepositoryStub) CancelStaleDrafts(ctx context.Context, cutoff time.Time, reason string) (int64, error) {
	if s.CancelStaleDraftsFn != nil {
		return s.CancelStaleDraftsFn(ctx, cutoff, reason)
	}
	return 0, nil
}

func (s *OrderRepositoryStub) PurgeCancelledDrafts(ctx context.Context, cutoff time.Time) (int64, error) {
	if s.PurgeCancelledDraftFn != nil {
		return s.PurgeCancelledDraftFn(ctx, cutoff)
	}
	return 0, nil
}

// InventoryRepositoryStub keeps a stock ledger in-memory.
type InventoryRepositoryStub struct {
	mu    sync.Mutex
	Stock map[model.StockKey]int
	Err   error
}

// NewInventoryRepositoryStub constructs the stub with the given ledger.
func NewInventoryRepositoryStub(stock map[model.StockKey]int) *InventoryRepositoryStub {
	if stock == nil {
		stock = make(map[model.StockKey]int)
	}
	return &InventoryRepositoryStub{Stock: stock}
}

func (s *InventoryRepositoryStub) Reserve(ctx context.Context, key model.StockKey, quantity int) error {
	if s.Err != nil {
		return s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Stock[key] < quantity {
		return domainErrors.ErrInsufficientStock
	}
	s.Stock[key] -= quantity
	return nil
}

func (s *InventoryRepositoryStub) Release(ctx context.Context, key model.StockKey, quantity int) error {
	if s.Err != nil {
		return s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Stock[key] += quantity
	return nil
}

func (s *InventoryRepositoryStub) Available(ctx context.Context, key model.StockKey) (int, error) {
	if s.Err != nil {
		return 0, s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Stock[key], nil
}

// CartRepositoryStub resolves selected lines from a fixed slice.
type CartRepositoryStub struct {
	Lines []model.CartLine
	Err   error
}

func (s *CartRepositoryStub) SelectedLines(ctx context.Context, userID int64, itemIDs []int64) ([]model.CartLine, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	wanted := make(map[int64]struct{}, len(itemIDs))
	for _, id := range itemIDs {
		wanted[id] = struct{}{}
	}
	var result []model.CartLine
	for _, l := range s.Lines {
		if _, ok := wanted[l.ID]; ok {
			result = append(result, l)
		}
	}
	return result, nil
}

// AddressRepositoryStub serves addresses from a map keyed by address id.
type AddressRepositoryStub struct {
	Addresses map[int64]*model.Address
	Err       error
}

func (s *AddressRepositoryStub) GetByID(ctx context.Context, userID, addressID int64) (*model.Address, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	addr, ok := s.Addresses[addressID]
	if !ok || addr.UserID != userID {
		return nil, domainErrors.ErrNotFound
	}
	return addr, nil
}

// CouponRepositoryStub serves coupons from a map keyed by code.
type CouponRepositoryStub struct {
	Coupons map[string]*model.Coupon
	Err     error
}

func (s *CouponRepositoryStub) GetByCode(ctx context.Context, code string) (*model.Coupon, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	coupon, ok := s.Coupons[code]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	return coupon, nil
}

// SettingsRepositoryStub returns a fixed settings singleton.
type SettingsRepositoryStub struct {
	Settings model.Settings
	Err      error
}

func (s *SettingsRepositoryStub) Get(ctx context.Context) (*model.Settings, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	settings := s.Settings
	return &settings, nil
}
