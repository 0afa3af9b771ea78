package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	domainErrors "github.com/suravi/checkout/internal/domain/errors"
	"github.com/suravi/checkout/internal/domain/model"
	"github.com/suravi/checkout/internal/domain/repository"
)

// PgxPool is the pool surface the storage depends on.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

var newPgxPool = func(ctx context.Context, cfg *pgxpool.Config) (PgxPool, error) {
	return pgxpool.NewWithConfig(ctx, cfg)
}

// Storage acts as repository facade backed by PostgreSQL.
type Storage struct {
	pool   PgxPool
	logger *slog.Logger
}

type userRepository struct {
	storage *Storage
}

type orderRepository struct {
	storage *Storage
}

type inventoryRepository struct {
	storage *Storage
}

type cartRepository struct {
	storage *Storage
}

type addressRepository struct {
	storage *Storage
}

type couponRepository struct {
	storage *Storage
}

type settingsRepository struct {
	storage *Storage
}

// New creates storage with schema initialization.
func New(ctx context.Context, dsn string, logger *slog.Logger) (*Storage, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}

	pool, err := newPgxPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}

	storage := &Storage{pool: pool, logger: logger}
	if err := storage.initSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return storage, nil
}

// Close releases database resources.
func (s *Storage) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Factory methods for domain repositories.
func (s *Storage) Users() repository.UserRepository {
	return &userRepository{storage: s}
}

func (s *Storage) Orders() repository.OrderRepository {
	return &orderRepository{storage: s}
}

func (s *Storage) Inventory() repository.InventoryRepository {
	return &inventoryRepository{storage: s}
}

func (s *Storage) Carts() repository.CartRepository {
	return &cartRepository{storage: s}
}

func (s *Storage) Addresses() repository.AddressRepository {
	return &addressRepository{storage: s}
}

func (s *Storage) Coupons() repository.CouponRepository {
	return &couponRepository{storage: s}
}

func (s *Storage) Settings() repository.SettingsRepository {
	return &settingsRepository{storage: s}
}

func (s *Storage) initSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
            id BIGSERIAL PRIMARY KEY,
            login TEXT UNIQUE NOT NULL,
            password_hash TEXT NOT NULL,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
		`CREATE TABLE IF NOT EXISTS addresses (
            id BIGSERIAL PRIMARY KEY,
            user_id BIGINT NOT NULL REFERENCES users(id),
            full_name TEXT NOT NULL,
            phone TEXT NOT NULL,
            line1 TEXT NOT NULL,
            city TEXT NOT NULL,
            district TEXT NOT NULL,
            postal_code TEXT NOT NULL DEFAULT ''
        )`,
		`CREATE TABLE IF NOT EXISTS products (
            id BIGSERIAL PRIMARY KEY,
            name TEXT NOT NULL,
            slug TEXT UNIQUE NOT NULL,
            image TEXT NOT NULL DEFAULT '',
            price DOUBLE PRECISION NOT NULL,
            original_price DOUBLE PRECISION NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS inventory (
            product_id BIGINT NOT NULL REFERENCES products(id),
            variant TEXT NOT NULL,
            size TEXT NOT NULL,
            stock INT NOT NULL CHECK (stock >= 0),
            PRIMARY KEY (product_id, variant, size)
        )`,
		`CREATE TABLE IF NOT EXISTS cart_items (
            id BIGSERIAL PRIMARY KEY,
            user_id BIGINT NOT NULL REFERENCES users(id),
            product_id BIGINT NOT NULL REFERENCES products(id),
            variant TEXT NOT NULL,
            size TEXT NOT NULL,
            quantity INT NOT NULL CHECK (quantity > 0)
        )`,
		`CREATE TABLE IF NOT EXISTS coupons (
            id BIGSERIAL PRIMARY KEY,
            code TEXT UNIQUE NOT NULL,
            type TEXT NOT NULL,
            value DOUBLE PRECISION NOT NULL,
            min_purchase DOUBLE PRECISION NOT NULL DEFAULT 0,
            max_discount DOUBLE PRECISION,
            active BOOLEAN NOT NULL DEFAULT TRUE,
            expires_at TIMESTAMPTZ
        )`,
		`CREATE TABLE IF NOT EXISTS settings (
            id SMALLINT PRIMARY KEY CHECK (id = 1),
            free_shipping_threshold DOUBLE PRECISION NOT NULL,
            delivery_fee DOUBLE PRECISION NOT NULL
        )`,
		`INSERT INTO settings (id, free_shipping_threshold, delivery_fee)
            VALUES (1, 2000, 150) ON CONFLICT (id) DO NOTHING`,
		`CREATE TABLE IF NOT EXISTS orders (
            id BIGSERIAL PRIMARY KEY,
            user_id BIGINT NOT NULL REFERENCES users(id),
            items_price DOUBLE PRECISION NOT NULL,
            discount_on_mrp DOUBLE PRECISION NOT NULL DEFAULT 0,
            coupon_code TEXT NOT NULL DEFAULT '',
            coupon_discount DOUBLE PRECISION NOT NULL DEFAULT 0,
            shipping_price DOUBLE PRECISION NOT NULL DEFAULT 0,
            total_price DOUBLE PRECISION NOT NULL,
            payment_method TEXT NOT NULL DEFAULT 'pending',
            payment_status TEXT NOT NULL DEFAULT 'pending',
            status TEXT NOT NULL DEFAULT 'pending_payment',
            gateway_ref TEXT NOT NULL DEFAULT '',
            transaction_ref TEXT NOT NULL DEFAULT '',
            cancellation_reason TEXT NOT NULL DEFAULT '',
            ship_full_name TEXT NOT NULL,
            ship_phone TEXT NOT NULL,
            ship_line1 TEXT NOT NULL,
            ship_city TEXT NOT NULL,
            ship_district TEXT NOT NULL,
            ship_postal_code TEXT NOT NULL DEFAULT '',
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            paid_at TIMESTAMPTZ,
            cancelled_at TIMESTAMPTZ,
            delivered_at TIMESTAMPTZ
        )`,
		`CREATE TABLE IF NOT EXISTS order_items (
            id BIGSERIAL PRIMARY KEY,
            order_id BIGINT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
            product_id BIGINT NOT NULL,
            name TEXT NOT NULL,
            slug TEXT NOT NULL,
            variant TEXT NOT NULL,
            size TEXT NOT NULL,
            image TEXT NOT NULL DEFAULT '',
            price DOUBLE PRECISION NOT NULL,
            original_price DOUBLE PRECISION NOT NULL,
            quantity INT NOT NULL,
            reserved BOOLEAN NOT NULL DEFAULT FALSE
        )`,
		`CREATE INDEX IF NOT EXISTS idx_orders_user ON orders(user_id, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status)`,
		`CREATE INDEX IF NOT EXISTS idx_cart_items_user ON cart_items(user_id)`,
	}

	for _, stmt := range statements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}

	return nil
}

// --- UserRepository implementation ---

func (r *userRepository) Create(ctx context.Context, login, passwordHash string) (*model.User, error) {
	const query = `INSERT INTO users (login, password_hash) VALUES ($1, $2) RETURNING id, created_at`
	var u model.User
	err := r.storage.pool.QueryRow(ctx, query, login, passwordHash).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domainErrors.ErrAlreadyExists
		}
		return nil, err
	}
	u.Login = login
	u.PasswordHash = passwordHash
	return &u, nil
}

func (r *userRepository) GetByLogin(ctx context.Context, login string) (*model.User, error) {
	const query = `SELECT id, login, password_hash, created_at FROM users WHERE login=$1`
	var u model.User
	err := r.storage.pool.QueryRow(ctx, query, login).Scan(&u.ID, &u.Login, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	const query = `SELECT id, login, password_hash, created_at FROM users WHERE id=$1`
	var u model.User
	err := r.storage.pool.QueryRow(ctx, query, id).Scan(&u.ID, &u.Login, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// --- InventoryRepository implementation ---

func (r *inventoryRepository) Reserve(ctx context.Context, key model.StockKey, quantity int) error {
	const query = `UPDATE inventory SET stock = stock - $4
                   WHERE product_id=$1 AND variant=$2 AND size=$3 AND stock >= $4`
	tag, err := r.storage.pool.Exec(ctx, query, key.ProductID, key.Variant, key.Size, quantity)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrInsufficientStock
	}
	return nil
}

func (r *inventoryRepository) Release(ctx context.Context, key model.StockKey, quantity int) error {
	const query = `UPDATE inventory SET stock = stock + $4
                   WHERE product_id=$1 AND variant=$2 AND size=$3`
	tag, err := r.storage.pool.Exec(ctx, query, key.ProductID, key.Variant, key.Size, quantity)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrNotFound
	}
	return nil
}

func (r *inventoryRepository) Available(ctx context.Context, key model.StockKey) (int, error) {
	const query = `SELECT stock FROM inventory WHERE product_id=$1 AND variant=$2 AND size=$3`
	var stock int
	err := r.storage.pool.QueryRow(ctx, query, key.ProductID, key.Variant, key.Size).Scan(&stock)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, err
	}
	return stock, nil
}

// --- CartRepository implementation ---

func (r *cartRepository) SelectedLines(ctx context.Context, userID int64, itemIDs []int64) ([]model.CartLine, error) {
	const query = `SELECT ci.id, ci.product_id, p.name, p.slug, ci.variant, ci.size,
                          p.image, p.price, p.original_price, ci.quantity
                   FROM cart_items ci
                   JOIN products p ON p.id = ci.product_id
                   WHERE ci.user_id=$1 AND ci.id = ANY($2)
                   ORDER BY ci.id`
	rows, err := r.storage.pool.Query(ctx, query, userID, itemIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.CartLine
	for rows.Next() {
		var l model.CartLine
		if err := rows.Scan(&l.ID, &l.ProductID, &l.Name, &l.Slug, &l.Variant, &l.Size,
			&l.Image, &l.Price, &l.OriginalPrice, &l.Quantity); err != nil {
			return nil, err
		}
		result = append(result, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// --- AddressRepository implementation ---

func (r *addressRepository) GetByID(ctx context.Context, userID, addressID int64) (*model.Address, error) {
	const query = `SELECT id, user_id, full_name, phone, line1, city, district, postal_code
                   FROM addresses WHERE id=$1 AND user_id=$2`
	var a model.Address
	err := r.storage.pool.QueryRow(ctx, query, addressID, userID).Scan(
		&a.ID, &a.UserID, &a.FullName, &a.Phone, &a.Line1, &a.City, &a.District, &a.PostalCode)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

// --- CouponRepository implementation ---

func (r *couponRepository) GetByCode(ctx context.Context, code string) (*model.Coupon, error) {
	const query = `SELECT id, code, type, value, min_purchase, max_discount, active, expires_at
                   FROM coupons WHERE code=$1`
	var c model.Coupon
	err := r.storage.pool.QueryRow(ctx, query, code).Scan(
		&c.ID, &c.Code, &c.Type, &c.Value, &c.MinPurchase, &c.MaxDiscount, &c.Active, &c.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// --- SettingsRepository implementation ---

func (r *settingsRepository) Get(ctx context.Context) (*model.Settings, error) {
	const query = `SELECT free_shipping_threshold, delivery_fee FROM settings WHERE id=1`
	var s model.Settings
	err := r.storage.pool.QueryRow(ctx, query).Scan(&s.FreeShippingThreshold, &s.DeliveryFee)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

// --- OrderRepository implementation ---

const orderColumns = `id, user_id, items_price, discount_on_mrp, coupon_code, coupon_discount,
       shipping_price, total_price, payment_method, payment_status, status,
       gateway_ref, transaction_ref, cancellation_reason,
       ship_full_name, ship_phone, ship_line1, ship_city, ship_district, ship_postal_code,
       created_at, paid_at, cancelled_at, delivered_at`

type rowScanner interface {
	Scan(dest ...any) error
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func scanOrder(s rowScanner) (*model.Order, error) {
	var o model.Order
	err := s.Scan(
		&o.ID, &o.UserID, &o.ItemsPrice, &o.DiscountOnMRP, &o.CouponCode, &o.CouponDiscount,
		&o.ShippingPrice, &o.TotalPrice, &o.PaymentMethod, &o.PaymentStatus, &o.Status,
		&o.GatewayRef, &o.TransactionRef, &o.CancellationReason,
		&o.ShippingAddress.FullName, &o.ShippingAddress.Phone, &o.ShippingAddress.Line1,
		&o.ShippingAddress.City, &o.ShippingAddress.District, &o.ShippingAddress.PostalCode,
		&o.CreatedAt, &o.PaidAt, &o.CancelledAt, &o.DeliveredAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func loadOrderItems(ctx context.Context, q querier, orderID int64) ([]model.OrderItem, error) {
	const query = `SELECT product_id, name, slug, variant, size, image, price, original_price, quantity
                   FROM order_items WHERE order_id=$1 ORDER BY id`
	rows, err := q.Query(ctx, query, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []model.OrderItem
	for rows.Next() {
		var it model.OrderItem
		if err := rows.Scan(&it.ProductID, &it.Name, &it.Slug, &it.Variant, &it.Size,
			&it.Image, &it.Price, &it.OriginalPrice, &it.Quantity); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *orderRepository) CreateDraft(ctx context.Context, order *model.Order) (*model.Order, error) {
	order.PaymentMethod = model.PaymentMethodPending
	order.PaymentStatus = model.PaymentStatusPending
	order.Status = model.OrderStatusPendingPayment

	err := r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		const insertOrder = `INSERT INTO orders
            (user_id, items_price, discount_on_mrp, coupon_code, coupon_discount,
             shipping_price, total_price, payment_method, payment_status, status,
             ship_full_name, ship_phone, ship_line1, ship_city, ship_district, ship_postal_code)
            VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
            RETURNING id, created_at`
		err := tx.QueryRow(ctx, insertOrder,
			order.UserID, order.ItemsPrice, order.DiscountOnMRP, order.CouponCode, order.CouponDiscount,
			order.ShippingPrice, order.TotalPrice, order.PaymentMethod, order.PaymentStatus, order.Status,
			order.ShippingAddress.FullName, order.ShippingAddress.Phone, order.ShippingAddress.Line1,
			order.ShippingAddress.City, order.ShippingAddress.District, order.ShippingAddress.PostalCode,
		).Scan(&order.ID, &order.CreatedAt)
		if err != nil {
			return err
		}

		const insertItem = `INSERT INTO order_items
            (order_id, product_id, name, slug, variant, size, image, price, original_price, quantity)
            VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`
		for _, it := range order.Items {
			if _, err := tx.Exec(ctx, insertItem, order.ID,
				it.ProductID, it.Name, it.Slug, it.Variant, it.Size,
				it.Image, it.Price, it.OriginalPrice, it.Quantity); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (r *orderRepository) GetByID(ctx context.Context, id int64) (*model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id=$1`
	order, err := scanOrder(r.storage.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	order.Items, err = loadOrderItems(ctx, r.storage.pool, order.ID)
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (r *orderRepository) ListByUser(ctx context.Context, userID int64) ([]model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE user_id=$1 ORDER BY created_at DESC`
	return r.list(ctx, query, userID)
}

func (r *orderRepository) ListOnHold(ctx context.Context, limit int) ([]model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE status=$1 ORDER BY created_at LIMIT $2`
	return r.list(ctx, query, model.OrderStatusOnHold, limit)
}

func (r *orderRepository) list(ctx context.Context, query string, args ...any) ([]model.Order, error) {
	rows, err := r.storage.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range result {
		items, err := loadOrderItems(ctx, r.storage.pool, result[i].ID)
		if err != nil {
			return nil, err
		}
		result[i].Items = items
	}
	return result, nil
}

func (r *orderRepository) CancelPendingDrafts(ctx context.Context, userID int64, reason string) (int64, error) {
	const query = `UPDATE orders SET status=$3, cancellation_reason=$2, cancelled_at=NOW()
                   WHERE user_id=$1 AND status=$4`
	tag, err := r.storage.pool.Exec(ctx, query, userID, reason,
		model.OrderStatusCancelled, model.OrderStatusPendingPayment)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *orderRepository) SetPaymentMethod(ctx context.Context, orderID int64, method model.PaymentMethod) error {
	const query = `UPDATE orders SET payment_method=$2 WHERE id=$1`
	tag, err := r.storage.pool.Exec(ctx, query, orderID, method)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrNotFound
	}
	return nil
}

func (r *orderRepository) SetGatewayRef(ctx context.Context, orderID int64, ref string) error {
	const query = `UPDATE orders SET gateway_ref=$2 WHERE id=$1`
	tag, err := r.storage.pool.Exec(ctx, query, orderID, ref)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrNotFound
	}
	return nil
}

func (r *orderRepository) MarkPaid(ctx context.Context, orderID int64, method model.PaymentMethod, transactionRef string) (bool, error) {
	const query = `UPDATE orders SET payment_status=$4, payment_method=$2, transaction_ref=$3, paid_at=NOW()
                   WHERE id=$1 AND payment_status=$5`
	tag, err := r.storage.pool.Exec(ctx, query, orderID, method, transactionRef,
		model.PaymentStatusPaid, model.PaymentStatusPending)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *orderRepository) MarkPaymentFailed(ctx context.Context, orderID int64) error {
	const query = `UPDATE orders SET payment_status=$2, status=$3
                   WHERE id=$1 AND payment_status=$4`
	_, err := r.storage.pool.Exec(ctx, query, orderID,
		model.PaymentStatusFailed, model.OrderStatusPaymentFailed, model.PaymentStatusPending)
	return err
}

// reservable is an order item row carrying its identity, used while moving
// stock in and out of the inventory ledger.
type reservable struct {
	id       int64
	key      model.StockKey
	quantity int
}

func loadReservables(ctx context.Context, tx pgx.Tx, orderID int64, reservedOnly bool) ([]reservable, error) {
	query := `SELECT id, product_id, variant, size, quantity FROM order_items WHERE order_id=$1`
	if reservedOnly {
		query += ` AND reserved`
	}
	query += ` ORDER BY id`

	rows, err := tx.Query(ctx, query, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []reservable
	for rows.Next() {
		var it reservable
		if err := rows.Scan(&it.id, &it.key.ProductID, &it.key.Variant, &it.key.Size, &it.quantity); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *orderRepository) Finalize(ctx context.Context, orderID int64) (*model.Order, error) {
	var (
		order        *model.Order
		insufficient bool
	)

	err := r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		query := `SELECT ` + orderColumns + ` FROM orders WHERE id=$1 FOR UPDATE`
		var err error
		order, err = scanOrder(tx.QueryRow(ctx, query, orderID))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domainErrors.ErrNotFound
			}
			return err
		}
		if order.Status != model.OrderStatusPendingPayment {
			return domainErrors.ErrOrderNotPending
		}

		items, err := loadReservables(ctx, tx, orderID, false)
		if err != nil {
			return err
		}

		const reserve = `UPDATE inventory SET stock = stock - $4
                         WHERE product_id=$1 AND variant=$2 AND size=$3 AND stock >= $4`
		const markReserved = `UPDATE order_items SET reserved=TRUE WHERE id=$1`
		for _, it := range items {
			tag, err := tx.Exec(ctx, reserve, it.key.ProductID, it.key.Variant, it.key.Size, it.quantity)
			if err != nil {
				return err
			}
			if tag.RowsAffected() == 0 {
				// Lost the stock race. Commit what was reserved so far and
				// park the order for manual resolution.
				reason := fmt.Sprintf("insufficient stock for product %d (%s/%s)",
					it.key.ProductID, it.key.Variant, it.key.Size)
				const hold = `UPDATE orders SET status=$2, cancellation_reason=$3 WHERE id=$1`
				if _, err := tx.Exec(ctx, hold, orderID, model.OrderStatusOnHold, reason); err != nil {
					return err
				}
				order.Status = model.OrderStatusOnHold
				order.CancellationReason = reason
				insufficient = true
				return nil
			}
			if _, err := tx.Exec(ctx, markReserved, it.id); err != nil {
				return err
			}
		}

		const purgeLine = `DELETE FROM cart_items
                           WHERE user_id=$1 AND product_id=$2 AND variant=$3 AND size=$4`
		for _, it := range items {
			if _, err := tx.Exec(ctx, purgeLine, order.UserID, it.key.ProductID, it.key.Variant, it.key.Size); err != nil {
				r.storage.logger.Warn("cart line purge failed",
					slog.Int64("order_id", orderID),
					slog.Int64("product_id", it.key.ProductID),
					slog.String("error", err.Error()),
				)
			}
		}

		const promote = `UPDATE orders SET status=$2 WHERE id=$1`
		if _, err := tx.Exec(ctx, promote, orderID, model.OrderStatusProcessing); err != nil {
			return err
		}
		order.Status = model.OrderStatusProcessing
		return nil
	})
	if err != nil {
		return nil, err
	}
	if insufficient {
		return order, domainErrors.ErrInsufficientStock
	}

	order.Items, err = loadOrderItems(ctx, r.storage.pool, orderID)
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (r *orderRepository) Cancel(ctx context.Context, orderID, userID int64, reason string) (*model.Order, error) {
	var order *model.Order

	err := r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		query := `SELECT ` + orderColumns + ` FROM orders WHERE id=$1 FOR UPDATE`
		var err error
		order, err = scanOrder(tx.QueryRow(ctx, query, orderID))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domainErrors.ErrNotFound
			}
			return err
		}
		if userID != 0 && order.UserID != userID {
			return domainErrors.ErrNotOwner
		}

		switch order.Status {
		case model.OrderStatusCancelled:
			// Repeated cancellation is a no-op.
			return nil
		case model.OrderStatusShipped, model.OrderStatusDelivered:
			return domainErrors.ErrInvalidState
		}

		reserved, err := loadReservables(ctx, tx, orderID, true)
		if err != nil {
			return err
		}
		const release = `UPDATE inventory SET stock = stock + $4
                         WHERE product_id=$1 AND variant=$2 AND size=$3`
		const unmark = `UPDATE order_items SET reserved=FALSE WHERE id=$1`
		for _, it := range reserved {
			if _, err := tx.Exec(ctx, release, it.key.ProductID, it.key.Variant, it.key.Size, it.quantity); err != nil {
				return err
			}
			if _, err := tx.Exec(ctx, unmark, it.id); err != nil {
				return err
			}
		}

		paymentStatus := order.PaymentStatus
		if paymentStatus == model.PaymentStatusPaid {
			paymentStatus = model.PaymentStatusRefundInitiated
		}
		const cancel = `UPDATE orders SET status=$2, payment_status=$3, cancellation_reason=$4, cancelled_at=NOW()
                        WHERE id=$1 RETURNING cancelled_at`
		if err := tx.QueryRow(ctx, cancel, orderID,
			model.OrderStatusCancelled, paymentStatus, reason).Scan(&order.CancelledAt); err != nil {
			return err
		}
		order.Status = model.OrderStatusCancelled
		order.PaymentStatus = paymentStatus
		order.CancellationReason = reason
		return nil
	})
	if err != nil {
		return nil, err
	}

	order.Items, err = loadOrderItems(ctx, r.storage.pool, orderID)
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (r *orderRepository) CancelStaleDrafts(ctx context.Context, cutoff time.Time, reason string) (int64, error) {
	const query = `UPDATE orders SET status=$3, cancellation_reason=$2, cancelled_at=NOW()
                   WHERE status=$4 AND created_at < $1`
	tag, err := r.storage.pool.Exec(ctx, query, cutoff, reason,
		model.OrderStatusCancelled, model.OrderStatusPendingPayment)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *orderRepository) PurgeCancelledDrafts(ctx context.Context, cutoff time.Time) (int64, error) {
	const query = `DELETE FROM orders WHERE status=$2 AND payment_status=$3 AND created_at < $1`
	tag, err := r.storage.pool.Exec(ctx, query, cutoff,
		model.OrderStatusCancelled, model.PaymentStatusPending)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// WithinTransaction executes function inside transaction boundary.
func (s *Storage) WithinTransaction(ctx context.Context, fn func(pgx.Tx) error) (err error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			err = tx.Commit(ctx)
		}
	}()

	err = fn(tx)
	return err
}

// HealthCheck verifies database connectivity.
func (s *Storage) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.pool.Ping(ctx)
}

// Pool exposes raw connection pool for advanced use.
func (s *Storage) Pool() PgxPool {
	return s.pool
}

// Logger returns storage logger.
func (s *Storage) Logger() *slog.Logger {
	return s.logger
}
