package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/VedantBankewar/payment-gateway/internal/domain"
	"github.com/google/uuid"
)

// PostgresStore shares the order repository's database. Success-path billing
// rows are inserted inside the orchestrator's paid transaction; this store
// appends failure records and serves history reads. Both writers share the
// unique index on gateway_txn_id.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Append is dedupe-on-write: a conflicting gateway transaction id leaves the
// existing record untouched.
func (s *PostgresStore) Append(ctx context.Context, record *domain.BillingRecord) error {
	query := `INSERT INTO billing_records (id, order_id, gateway_txn_id, gateway_session_ref,
	              amount, currency, status, payment_method, customer_email, customer_name, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())
	          ON CONFLICT (gateway_txn_id) DO NOTHING`

	_, err := s.db.ExecContext(ctx, query,
		record.ID, record.OrderID, record.GatewayTxnID, record.GatewaySessionRef,
		record.Amount, record.Currency, record.Status, record.PaymentMethod,
		record.CustomerEmail, record.CustomerName)
	if err != nil {
		return fmt.Errorf("append billing record: %w", err)
	}
	return nil
}

const billingColumns = `id, order_id, gateway_txn_id, gateway_session_ref, amount,
	currency, status, payment_method, customer_email, customer_name, created_at`

func scanBillingRecord(row interface{ Scan(...any) error }) (*domain.BillingRecord, error) {
	var rec domain.BillingRecord
	err := row.Scan(
		&rec.ID,
		&rec.OrderID,
		&rec.GatewayTxnID,
		&rec.GatewaySessionRef,
		&rec.Amount,
		&rec.Currency,
		&rec.Status,
		&rec.PaymentMethod,
		&rec.CustomerEmail,
		&rec.CustomerName,
		&rec.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *PostgresStore) BillingByTxnID(ctx context.Context, txnID string) (*domain.BillingRecord, error) {
	query := `SELECT ` + billingColumns + ` FROM billing_records WHERE gateway_txn_id = $1`

	rec, err := scanBillingRecord(s.db.QueryRowContext(ctx, query, txnID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query billing by txn id: %w", err)
	}
	return rec, nil
}

func (s *PostgresStore) BillingByEmail(ctx context.Context, email string) ([]*domain.BillingRecord, error) {
	query := `SELECT ` + billingColumns + ` FROM billing_records
	          WHERE LOWER(customer_email) = LOWER($1) ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, email)
	if err != nil {
		return nil, fmt.Errorf("query billing by email: %w", err)
	}
	defer rows.Close()

	records := make([]*domain.BillingRecord, 0)
	for rows.Next() {
		rec, err := scanBillingRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan billing row: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return records, nil
}

func (s *PostgresStore) BillingByOrderID(ctx context.Context, orderID uuid.UUID) (*domain.BillingRecord, error) {
	query := `SELECT ` + billingColumns + ` FROM billing_records
	          WHERE order_id = $1 ORDER BY created_at DESC LIMIT 1`

	rec, err := scanBillingRecord(s.db.QueryRowContext(ctx, query, orderID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query billing by order id: %w", err)
	}
	return rec, nil
}

func (s *PostgresStore) OrdersByEmail(ctx context.Context, email string) ([]*domain.Order, error) {
	query := `SELECT id, session_id, customer_name, customer_email, customer_phone,
	              shipping_address, city, pincode, items, total_amount, currency, status,
	              gateway_session_ref, created_at, updated_at
	          FROM orders WHERE LOWER(customer_email) = LOWER($1) ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, email)
	if err != nil {
		return nil, fmt.Errorf("query orders by email: %w", err)
	}
	defer rows.Close()

	orders := make([]*domain.Order, 0)
	for rows.Next() {
		var ord domain.Order
		var itemsJSON []byte
		var gatewayRef sql.NullString
		if err := rows.Scan(
			&ord.ID,
			&ord.SessionID,
			&ord.Shipping.CustomerName,
			&ord.Shipping.CustomerEmail,
			&ord.Shipping.CustomerPhone,
			&ord.Shipping.Address,
			&ord.Shipping.City,
			&ord.Shipping.Pincode,
			&itemsJSON,
			&ord.TotalAmount,
			&ord.Currency,
			&ord.Status,
			&gatewayRef,
			&ord.CreatedAt,
			&ord.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		if err := json.Unmarshal(itemsJSON, &ord.Items); err != nil {
			return nil, fmt.Errorf("unmarshal order items: %w", err)
		}
		ord.GatewaySessionRef = gatewayRef.String
		orders = append(orders, &ord)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return orders, nil
}
