// Package repository provides data access for the transaction ledger
// consumed by the SMS import pipeline.
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/pesatrack/pesatrack/internal/domain/sms"
)

// DB is the subset of pgxpool.Pool used by the repositories. pgxmock
// satisfies it in tests.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// LedgerEntry is one committed transaction row. Monetary columns are minor
// units (cents). MessageHash is set only on primary records; dependent legs
// carry the group linkage instead.
type LedgerEntry struct {
	ID              uuid.UUID
	UserID          uuid.UUID
	AmountMinor     int64
	CurrencyCode    string
	Direction       string
	Description     string
	Category        string
	TransactionDate time.Time
	Source          string
	MessageHash     *string

	ReceiptID        *string
	CounterpartyName *string
	PhoneNumber      *string
	Reference        *string

	BalanceAfterMinor        *int64
	TransactionFeeMinor      *int64
	AccessFeeMinor           *int64
	FacilityOutstandingMinor *int64
	FacilityLimitMinor       *int64
	FacilityDueDate          *time.Time

	GroupID             *uuid.UUID
	GroupRole           string
	ParentTransactionID *uuid.UUID

	RequiresReview bool
	Confidence     float64
	CreatedAt      time.Time
}

// ImportSession tracks one import operation.
type ImportSession struct {
	ID                uuid.UUID
	UserID            uuid.UUID
	Status            string // "running", "succeeded", "failed"
	TotalProcessed    int
	SuccessfulImports int
	DuplicatesFound   int
	ParsingErrors     int
	ErrorMessage      *string
	RequestedAt       time.Time
	FinishedAt        *time.Time
}

// LedgerRepository is the ledger collaborator interface. All operations are
// scoped by the authenticated user supplied by the caller.
type LedgerRepository interface {
	// Exists reports whether a ledger entry with the given message hash has
	// already been committed for the user.
	Exists(ctx context.Context, userID uuid.UUID, messageHash string) (bool, error)

	// CommitGroup commits a primary entry and its dependent legs atomically,
	// serialized per user scope. It returns sms.ErrDuplicateMessage when the
	// primary's hash already exists, leaving nothing committed. Leg parent
	// references are set at commit time.
	CommitGroup(ctx context.Context, userID uuid.UUID, primary *LedgerEntry, legs []*LedgerEntry) ([]uuid.UUID, error)

	CreateImportSession(ctx context.Context, session *ImportSession) error
	FinishImportSession(ctx context.Context, id uuid.UUID, status string, result sms.ImportResult, errorMessage *string) error
}
