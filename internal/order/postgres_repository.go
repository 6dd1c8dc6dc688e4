package order

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/VedantBankewar/payment-gateway/internal/domain"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/lib/pq"
	_ "github.com/lib/pq"
)

type Credentials struct {
	Host              string
	Port              int
	User              string
	Password          string
	DBName            string
	MigrationsDirPath string
}

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(cred *Credentials) (*PostgresRepository, error) {
	psqlconn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cred.Host,
		cred.Port,
		cred.User,
		cred.Password,
		cred.DBName)

	db, err := sql.Open("postgres", psqlconn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if e2 := db.Ping(); e2 != nil {
		return nil, fmt.Errorf("failed to ping database: %w", e2)
	}

	db.SetMaxOpenConns(100)
	db.SetMaxIdleConns(10)
	return &PostgresRepository{db: db}, nil
}

func (r *PostgresRepository) RunMigrations(cred *Credentials) error {
	driver, err := postgres.WithInstance(r.db, &postgres.Config{
		MigrationsTable: "orders_schema_migrations",
	})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", cred.MigrationsDirPath),
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if e2 := m.Up(); e2 != nil && !errors.Is(e2, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", e2)
	}

	return nil
}

// DB exposes the pool so the ledger store can share it.
func (r *PostgresRepository) DB() *sql.DB {
	return r.db
}

func (r *PostgresRepository) CreateOrder(ctx context.Context, order *domain.Order) error {
	itemsJSON, err := json.Marshal(order.Items)
	if err != nil {
		return fmt.Errorf("failed to marshal order items: %w", err)
	}

	query := `INSERT INTO orders (id, session_id, customer_name, customer_email, customer_phone,
	              shipping_address, city, pincode, items, total_amount, currency, status, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW(), NOW())`

	_, insertErr := r.db.ExecContext(ctx, query,
		order.ID,
		order.SessionID,
		order.Shipping.CustomerName,
		order.Shipping.CustomerEmail,
		order.Shipping.CustomerPhone,
		order.Shipping.Address,
		order.Shipping.City,
		order.Shipping.Pincode,
		itemsJSON,
		order.TotalAmount,
		order.Currency,
		order.Status)

	if insertErr != nil {
		var pqErr *pq.Error
		if errors.As(insertErr, &pqErr) && pqErr.Code == "23505" {
			return ErrCheckoutInProgress
		}
		return fmt.Errorf("insert order: %w", insertErr)
	}
	return nil
}

const orderColumns = `id, session_id, customer_name, customer_email, customer_phone,
	shipping_address, city, pincode, items, total_amount, currency, status,
	gateway_session_ref, created_at, updated_at`

func scanOrder(row interface{ Scan(...any) error }) (*domain.Order, error) {
	var order domain.Order
	var itemsJSON []byte
	var gatewayRef sql.NullString
	err := row.Scan(
		&order.ID,
		&order.SessionID,
		&order.Shipping.CustomerName,
		&order.Shipping.CustomerEmail,
		&order.Shipping.CustomerPhone,
		&order.Shipping.Address,
		&order.Shipping.City,
		&order.Shipping.Pincode,
		&itemsJSON,
		&order.TotalAmount,
		&order.Currency,
		&order.Status,
		&gatewayRef,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(itemsJSON, &order.Items); err != nil {
		return nil, fmt.Errorf("unmarshal order items: %w", err)
	}
	order.GatewaySessionRef = gatewayRef.String
	return &order, nil
}

func (r *PostgresRepository) GetOrderByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	order, err := scanOrder(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query order by id: %w", err)
	}
	return order, nil
}

func (r *PostgresRepository) GetOrderByGatewayRef(ctx context.Context, sessionRef string) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE gateway_session_ref = $1`

	order, err := scanOrder(r.db.QueryRowContext(ctx, query, sessionRef))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query order by gateway ref: %w", err)
	}
	return order, nil
}

func (r *PostgresRepository) SetPaymentPending(ctx context.Context, orderID uuid.UUID, sessionRef string) error {
	query := `UPDATE orders
	          SET status = $2, gateway_session_ref = $3, updated_at = NOW()
	          WHERE id = $1 AND status = $4`

	result, err := r.db.ExecContext(ctx, query,
		orderID, domain.OrderStatusPaymentPending, sessionRef, domain.OrderStatusCreated)
	if err != nil {
		return fmt.Errorf("set payment pending: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("set payment pending rows affected: %w", err)
	}
	if affected == 0 {
		return ErrOrderNotFound
	}
	return nil
}

// MarkOrderFailed only moves non-terminal orders; the WHERE clause enforces
// that terminal states are never left, so a zero-row update is a no-op.
func (r *PostgresRepository) MarkOrderFailed(ctx context.Context, orderID uuid.UUID, reason string) error {
	query := `UPDATE orders
	          SET status = $2, failure_reason = $3, updated_at = NOW()
	          WHERE id = $1 AND status IN ($4, $5)`

	_, err := r.db.ExecContext(ctx, query,
		orderID, domain.OrderStatusFailed, reason,
		domain.OrderStatusCreated, domain.OrderStatusPaymentPending)
	if err != nil {
		return fmt.Errorf("mark order failed: %w", err)
	}
	return nil
}

func (r *PostgresRepository) MarkOrderPaid(ctx context.Context, orderID uuid.UUID, record *domain.BillingRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin paid transaction: %w", err)
	}
	defer tx.Rollback()

	// Row lock serializes racing verifications for the same order.
	var status domain.OrderStatus
	var totalAmount int64
	var sessionID string
	row := tx.QueryRowContext(ctx,
		`SELECT status, total_amount, session_id FROM orders WHERE id = $1 FOR UPDATE`, orderID)
	if err := row.Scan(&status, &totalAmount, &sessionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrOrderNotFound
		}
		return fmt.Errorf("lock order row: %w", err)
	}

	if status != domain.OrderStatusPaymentPending {
		// A racing duplicate delivery may have already applied this exact
		// transaction; the caller treats that as the recorded outcome.
		var exists bool
		err := tx.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM billing_records WHERE gateway_txn_id = $1)`,
			record.GatewayTxnID).Scan(&exists)
		if err != nil {
			return fmt.Errorf("check billing record: %w", err)
		}
		if exists {
			return ErrTxnAlreadyRecorded
		}
		return ErrReplayOrMismatch
	}

	if record.Amount != totalAmount {
		return ErrReplayOrMismatch
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE orders SET status = $2, updated_at = NOW() WHERE id = $1`,
		orderID, domain.OrderStatusPaid); err != nil {
		return fmt.Errorf("update order to paid: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO billing_records (id, order_id, gateway_txn_id, gateway_session_ref,
		     amount, currency, status, payment_method, customer_email, customer_name, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())`,
		record.ID, record.OrderID, record.GatewayTxnID, record.GatewaySessionRef,
		record.Amount, record.Currency, record.Status, record.PaymentMethod,
		record.CustomerEmail, record.CustomerName); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrTxnAlreadyRecorded
		}
		return fmt.Errorf("insert billing record: %w", err)
	}

	payload, err := json.Marshal(PaymentSucceededPayload{
		OrderID:      orderID.String(),
		SessionID:    sessionID,
		Amount:       record.Amount,
		Currency:     record.Currency,
		GatewayTxnID: record.GatewayTxnID,
		PaidAt:       record.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("marshal outbox payload: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO outbox_events (aggregate_id, event_type, payload) VALUES ($1, $2, $3)`,
		orderID.String(), EventPaymentSucceeded, payload); err != nil {
		return fmt.Errorf("insert outbox event: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit paid transaction: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetUnprocessedEvents(ctx context.Context, limit int) ([]*OutboxEvent, error) {
	query := `SELECT id, aggregate_id, event_type, payload, created_at
	          FROM outbox_events WHERE processed_at IS NULL
	          ORDER BY created_at LIMIT $1`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query unprocessed events: %w", err)
	}
	defer rows.Close()

	var events []*OutboxEvent
	for rows.Next() {
		var ev OutboxEvent
		if err := rows.Scan(&ev.ID, &ev.AggregateID, &ev.EventType, &ev.Payload, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan outbox event: %w", err)
		}
		events = append(events, &ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return events, nil
}

func (r *PostgresRepository) MarkEventAsProcessed(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE outbox_events SET processed_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("mark event as processed: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Close() error {
	return r.db.Close()
}
