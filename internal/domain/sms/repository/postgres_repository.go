package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/pesatrack/pesatrack/internal/domain/sms"
)

const (
	existsByHashQuery = `
		SELECT EXISTS (
			SELECT 1 FROM transactions WHERE user_id = $1 AND message_hash = $2
		)
	`

	// Serializes duplicate checks and commits per user scope for the
	// duration of the transaction.
	advisoryLockQuery = `SELECT pg_advisory_xact_lock(hashtextextended($1::text, 0))`

	insertTransactionQuery = `
		INSERT INTO transactions (
			id, user_id, amount_minor, currency_code, direction, description,
			category, transaction_date, source, message_hash, receipt_id,
			counterparty_name, phone_number, reference, balance_after_minor,
			transaction_fee_minor, access_fee_minor, facility_outstanding_minor,
			facility_limit_minor, facility_due_date, group_id, group_role,
			parent_transaction_id, requires_review, confidence
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
			$16, $17, $18, $19, $20, $21, $22, $23, $24, $25
		)
	`

	createImportSessionQuery = `
		INSERT INTO import_sessions (id, user_id, status, total_processed)
		VALUES ($1, $2, $3, $4)
	`

	finishImportSessionQuery = `
		UPDATE import_sessions SET
			status = $2, successful_imports = $3, duplicates_found = $4,
			parsing_errors = $5, total_processed = $6, error_message = $7,
			finished_at = NOW()
		WHERE id = $1
	`
)

// PostgresLedgerRepository implements LedgerRepository using PostgreSQL.
type PostgresLedgerRepository struct {
	db DB
}

// NewPostgresLedgerRepository creates a PostgreSQL-backed ledger repository.
func NewPostgresLedgerRepository(db DB) *PostgresLedgerRepository {
	return &PostgresLedgerRepository{db: db}
}

// Exists checks for a previously committed entry with the same message hash.
func (r *PostgresLedgerRepository) Exists(ctx context.Context, userID uuid.UUID, messageHash string) (bool, error) {
	var exists bool
	if err := r.db.QueryRow(ctx, existsByHashQuery, userID, messageHash).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check message hash: %w", err)
	}
	return exists, nil
}

// CommitGroup inserts the primary entry and its legs in one transaction.
// The per-user advisory lock plus the re-check inside the transaction make
// the existence check and the commit atomic with respect to concurrent
// imports for the same user.
func (r *PostgresLedgerRepository) CommitGroup(ctx context.Context, userID uuid.UUID, primary *LedgerEntry, legs []*LedgerEntry) ([]uuid.UUID, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin commit transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	if _, err := tx.Exec(ctx, advisoryLockQuery, userID); err != nil {
		return nil, fmt.Errorf("failed to acquire user import lock: %w", err)
	}

	if primary.MessageHash != nil {
		var exists bool
		if err := tx.QueryRow(ctx, existsByHashQuery, userID, *primary.MessageHash).Scan(&exists); err != nil {
			return nil, fmt.Errorf("failed to re-check message hash: %w", err)
		}
		if exists {
			return nil, sms.ErrDuplicateMessage
		}
	}

	if primary.ID == uuid.Nil {
		primary.ID = uuid.New()
	}
	primary.UserID = userID

	if err := insertEntry(ctx, tx, primary); err != nil {
		return nil, fmt.Errorf("failed to insert primary entry: %w", err)
	}

	committed := []uuid.UUID{primary.ID}
	for _, leg := range legs {
		if leg.ID == uuid.Nil {
			leg.ID = uuid.New()
		}
		leg.UserID = userID
		leg.ParentTransactionID = &primary.ID
		if err := insertEntry(ctx, tx, leg); err != nil {
			return nil, fmt.Errorf("failed to insert %s leg: %w", leg.GroupRole, err)
		}
		committed = append(committed, leg.ID)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction group: %w", err)
	}
	return committed, nil
}

func insertEntry(ctx context.Context, tx pgx.Tx, e *LedgerEntry) error {
	_, err := tx.Exec(ctx, insertTransactionQuery,
		e.ID, e.UserID, e.AmountMinor, e.CurrencyCode, e.Direction, e.Description,
		e.Category, e.TransactionDate, e.Source, e.MessageHash, e.ReceiptID,
		e.CounterpartyName, e.PhoneNumber, e.Reference, e.BalanceAfterMinor,
		e.TransactionFeeMinor, e.AccessFeeMinor, e.FacilityOutstandingMinor,
		e.FacilityLimitMinor, e.FacilityDueDate, e.GroupID, e.GroupRole,
		e.ParentTransactionID, e.RequiresReview, e.Confidence,
	)
	return err
}

// CreateImportSession records a new running import session.
func (r *PostgresLedgerRepository) CreateImportSession(ctx context.Context, session *ImportSession) error {
	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}
	if session.Status == "" {
		session.Status = "running"
	}

	_, err := r.db.Exec(ctx, createImportSessionQuery,
		session.ID, session.UserID, session.Status, session.TotalProcessed,
	)
	if err != nil {
		return fmt.Errorf("failed to create import session: %w", err)
	}
	return nil
}

// FinishImportSession records the final counts and status of a session.
func (r *PostgresLedgerRepository) FinishImportSession(ctx context.Context, id uuid.UUID, status string, result sms.ImportResult, errorMessage *string) error {
	_, err := r.db.Exec(ctx, finishImportSessionQuery,
		id, status, result.SuccessfulImports, result.DuplicatesFound,
		result.ParsingErrors, result.TotalProcessed, errorMessage,
	)
	if err != nil {
		return fmt.Errorf("failed to finish import session: %w", err)
	}
	return nil
}
