package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/kevin07696/transaction-service/internal/domain"
	"github.com/kevin07696/transaction-service/internal/domain/ports"
)

// TransactionRepository implements ports.TransactionRepository on raw pgx.
// Save writes the aggregate, its children and the drained events in whatever
// executor it is given; callers wrap it in WithTransaction for atomicity.
type TransactionRepository struct {
	db ports.DBPort
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(db ports.DBPort) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) executor(db ports.DBTX) ports.DBTX {
	if db != nil {
		return db
	}
	return r.db.GetDB()
}

// FindByID loads and rehydrates a transaction aggregate
func (r *TransactionRepository) FindByID(ctx context.Context, db ports.DBTX, id string) (*domain.PaymentTransaction, error) {
	q := r.executor(db)

	const txnQuery = `
		SELECT id, organization_id, transaction_type, status, amount, currency,
		       payment_method_type, payment_method, description, metadata,
		       external_order_id, external_customer_id, gateway_id,
		       created_at, updated_at, version
		FROM payment_transactions
		WHERE id = $1`

	var (
		state          domain.TransactionState
		txnType        string
		status         string
		amount         pgtype.Numeric
		currency       string
		methodType     string
		methodJSON     []byte
		description    pgtype.Text
		metadataJSON   []byte
		externalOrder  pgtype.Text
		externalCust   pgtype.Text
	)

	err := q.QueryRow(ctx, txnQuery, id).Scan(
		&state.ID, &state.OrganizationID, &txnType, &status, &amount, &currency,
		&methodType, &methodJSON, &description, &metadataJSON,
		&externalOrder, &externalCust, &state.GatewayID,
		&state.CreatedAt, &state.UpdatedAt, &state.Version,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrTxnNotFound.WithDetail("transaction_id", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get transaction by id: %w", err)
	}

	if state.TransactionType, err = domain.ParseTransactionType(txnType); err != nil {
		return nil, err
	}
	if state.Status, err = domain.ParseTransactionStatus(status); err != nil {
		return nil, err
	}
	if state.PaymentMethodType, err = domain.ParsePaymentMethodType(methodType); err != nil {
		return nil, err
	}

	amountDec, err := numericToDecimal(amount)
	if err != nil {
		return nil, fmt.Errorf("decode amount: %w", err)
	}
	if state.Amount, err = domain.NewMoney(amountDec, currency); err != nil {
		return nil, err
	}

	if len(methodJSON) > 0 {
		if err := json.Unmarshal(methodJSON, &state.PaymentMethod); err != nil {
			return nil, fmt.Errorf("decode payment method: %w", err)
		}
	}
	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &state.Metadata); err != nil {
			return nil, fmt.Errorf("decode metadata: %w", err)
		}
	}
	state.Description = textPtr(description)
	state.ExternalOrderID = textPtr(externalOrder)
	state.ExternalCustomerID = textPtr(externalCust)

	if state.Attempts, err = r.loadAttempts(ctx, q, id); err != nil {
		return nil, err
	}
	if state.Refunds, err = r.loadRefunds(ctx, q, id, currency); err != nil {
		return nil, err
	}

	return domain.RehydrateTransaction(state), nil
}

func (r *TransactionRepository) loadAttempts(ctx context.Context, q ports.DBTX, txnID string) ([]domain.AttemptState, error) {
	const query = `
		SELECT id, attempt_date, status, gateway_response, failure_reason, created_at
		FROM payment_attempts
		WHERE transaction_id = $1
		ORDER BY created_at, id`

	rows, err := q.Query(ctx, query, txnID)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	defer rows.Close()

	var attempts []domain.AttemptState
	for rows.Next() {
		var (
			s            domain.AttemptState
			status       string
			responseJSON []byte
			failure      pgtype.Text
		)
		if err := rows.Scan(&s.ID, &s.AttemptDate, &status, &responseJSON, &failure, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		if s.Status, err = domain.ParseAttemptStatus(status); err != nil {
			return nil, err
		}
		if len(responseJSON) > 0 {
			if err := json.Unmarshal(responseJSON, &s.GatewayResponse); err != nil {
				return nil, fmt.Errorf("decode gateway response: %w", err)
			}
		}
		s.FailureReason = textPtr(failure)
		attempts = append(attempts, s)
	}
	return attempts, rows.Err()
}

func (r *TransactionRepository) loadRefunds(ctx context.Context, q ports.DBTX, txnID, currency string) ([]domain.RefundState, error) {
	const query = `
		SELECT id, amount, status, reason, description, gateway_refund_id,
		       failure_reason, created_at, updated_at
		FROM refunds
		WHERE transaction_id = $1
		ORDER BY created_at, id`

	rows, err := q.Query(ctx, query, txnID)
	if err != nil {
		return nil, fmt.Errorf("list refunds: %w", err)
	}
	defer rows.Close()

	var refunds []domain.RefundState
	for rows.Next() {
		var (
			s               domain.RefundState
			amount          pgtype.Numeric
			status          string
			description     pgtype.Text
			gatewayRefundID pgtype.Text
			failure         pgtype.Text
		)
		if err := rows.Scan(&s.ID, &amount, &status, &s.Reason, &description,
			&gatewayRefundID, &failure, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan refund: %w", err)
		}
		if s.Status, err = domain.ParseRefundStatus(status); err != nil {
			return nil, err
		}
		amountDec, err := numericToDecimal(amount)
		if err != nil {
			return nil, fmt.Errorf("decode refund amount: %w", err)
		}
		if s.Amount, err = domain.NewMoney(amountDec, currency); err != nil {
			return nil, err
		}
		s.Description = textPtr(description)
		s.GatewayRefundID = textPtr(gatewayRefundID)
		s.FailureReason = textPtr(failure)
		refunds = append(refunds, s)
	}
	return refunds, rows.Err()
}

// Save upserts the aggregate state and appends the drained pending events to
// the outbox. Must run inside a WithTransaction callback so the whole write
// is one atomic unit. The version column advances on every update and serves
// as the optimistic concurrency token for the service layer.
func (r *TransactionRepository) Save(ctx context.Context, tx ports.DBTX, txn *domain.PaymentTransaction) error {
	q := r.executor(tx)
	state := txn.Snapshot()

	amount, err := decimalToNumeric(state.Amount.Amount())
	if err != nil {
		return err
	}
	methodJSON, err := json.Marshal(state.PaymentMethod)
	if err != nil {
		return fmt.Errorf("marshal payment method: %w", err)
	}
	metadataJSON := []byte("{}")
	if state.Metadata != nil {
		if metadataJSON, err = json.Marshal(state.Metadata); err != nil {
			return fmt.Errorf("marshal metadata: %w", err)
		}
	}

	// The update only fires when the stored version still matches the one
	// this aggregate was loaded at; a stale writer touches zero rows and
	// gets a conflict instead of silently overwriting the winner.
	const upsertTxn = `
		INSERT INTO payment_transactions (
			id, organization_id, transaction_type, status, amount, currency,
			payment_method_type, payment_method, description, metadata,
			external_order_id, external_customer_id, gateway_id,
			created_at, updated_at, version
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, 1)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			updated_at = EXCLUDED.updated_at,
			version = payment_transactions.version + 1
		WHERE payment_transactions.version = $16`

	tag, err := q.Exec(ctx, upsertTxn,
		state.ID, state.OrganizationID, string(state.TransactionType), string(state.Status),
		amount, state.Amount.Currency(), string(state.PaymentMethodType), methodJSON,
		nullTextPtr(state.Description), metadataJSON,
		nullTextPtr(state.ExternalOrderID), nullTextPtr(state.ExternalCustomerID),
		state.GatewayID, state.CreatedAt, state.UpdatedAt, state.Version,
	)
	if err != nil {
		return fmt.Errorf("upsert transaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewDomainError(domain.ErrorCodeTxnConflict, "transaction was modified concurrently").
			WithDetail("transaction_id", state.ID).
			WithDetail("expected_version", state.Version)
	}

	if err := r.saveAttempts(ctx, q, state); err != nil {
		return err
	}
	if err := r.saveRefunds(ctx, q, state); err != nil {
		return err
	}
	if err := r.appendOutbox(ctx, q, txn); err != nil {
		return err
	}

	txn.MarkPersisted()
	return nil
}

func (r *TransactionRepository) saveAttempts(ctx context.Context, q ports.DBTX, state domain.TransactionState) error {
	const upsert = `
		INSERT INTO payment_attempts (
			id, transaction_id, attempt_date, status, gateway_response,
			failure_reason, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			gateway_response = EXCLUDED.gateway_response,
			failure_reason = EXCLUDED.failure_reason`

	for _, attempt := range state.Attempts {
		var responseJSON []byte
		if attempt.GatewayResponse != nil {
			var err error
			if responseJSON, err = json.Marshal(attempt.GatewayResponse); err != nil {
				return fmt.Errorf("marshal gateway response: %w", err)
			}
		}
		_, err := q.Exec(ctx, upsert,
			attempt.ID, state.ID, attempt.AttemptDate, string(attempt.Status),
			responseJSON, nullTextPtr(attempt.FailureReason), attempt.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("upsert attempt: %w", err)
		}
	}
	return nil
}

func (r *TransactionRepository) saveRefunds(ctx context.Context, q ports.DBTX, state domain.TransactionState) error {
	const upsert = `
		INSERT INTO refunds (
			id, transaction_id, amount, status, reason, description,
			gateway_refund_id, failure_reason, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			gateway_refund_id = EXCLUDED.gateway_refund_id,
			failure_reason = EXCLUDED.failure_reason,
			updated_at = EXCLUDED.updated_at`

	for _, refund := range state.Refunds {
		amount, err := decimalToNumeric(refund.Amount.Amount())
		if err != nil {
			return err
		}
		_, err = q.Exec(ctx, upsert,
			refund.ID, state.ID, amount, string(refund.Status), refund.Reason,
			nullTextPtr(refund.Description), nullTextPtr(refund.GatewayRefundID),
			nullTextPtr(refund.FailureReason), refund.CreatedAt, refund.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("upsert refund: %w", err)
		}
	}
	return nil
}

func (r *TransactionRepository) appendOutbox(ctx context.Context, q ports.DBTX, txn *domain.PaymentTransaction) error {
	const insert = `
		INSERT INTO outbox_events (aggregate_id, event_type, payload, created_at)
		VALUES ($1, $2, $3, $4)`

	for _, event := range txn.PullEvents() {
		payload, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("marshal event: %w", err)
		}
		_, err = q.Exec(ctx, insert, event.AggregateID(), event.EventType(), payload, event.OccurredAt())
		if err != nil {
			return fmt.Errorf("insert outbox event: %w", err)
		}
	}
	return nil
}

// FindPendingEvents returns unpublished outbox events in insertion order
func (r *TransactionRepository) FindPendingEvents(ctx context.Context, db ports.DBTX, limit int32) ([]ports.OutboxEvent, error) {
	q := r.executor(db)

	const query = `
		SELECT id, aggregate_id, event_type, payload, created_at, published_at
		FROM outbox_events
		WHERE published_at IS NULL
		ORDER BY id
		LIMIT $1`

	rows, err := q.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending events: %w", err)
	}
	defer rows.Close()

	var events []ports.OutboxEvent
	for rows.Next() {
		var e ports.OutboxEvent
		if err := rows.Scan(&e.ID, &e.AggregateID, &e.EventType, &e.Payload, &e.CreatedAt, &e.PublishedAt); err != nil {
			return nil, fmt.Errorf("scan outbox event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// MarkEventPublished records delivery of an outbox event
func (r *TransactionRepository) MarkEventPublished(ctx context.Context, tx ports.DBTX, eventID int64) error {
	q := r.executor(tx)
	_, err := q.Exec(ctx, `UPDATE outbox_events SET published_at = now() WHERE id = $1`, eventID)
	if err != nil {
		return fmt.Errorf("mark event published: %w", err)
	}
	return nil
}
