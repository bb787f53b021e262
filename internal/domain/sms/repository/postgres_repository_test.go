package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"

	"github.com/pesatrack/pesatrack/internal/domain/sms"
)

func newTestRepo(t *testing.T) (*PostgresLedgerRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mockPool, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	t.Cleanup(mockPool.Close)
	return NewPostgresLedgerRepository(mockPool), mockPool
}

// anyArgs returns n pgxmock.AnyArg matchers; pgxmock requires explicit
// matchers for every bound argument, there is no "skip args" mode.
func anyArgs(n int) []any {
	args := make([]any, n)
	for i := range args {
		args[i] = pgxmock.AnyArg()
	}
	return args
}

func testEntry(userID uuid.UUID, hash string) *LedgerEntry {
	return &LedgerEntry{
		UserID:          userID,
		AmountMinor:     500000,
		CurrencyCode:    "KES",
		Direction:       "incoming",
		Description:     "Received from JOHN DOE",
		TransactionDate: time.Date(2025, time.October, 3, 22, 55, 0, 0, time.UTC),
		Source:          "sms",
		MessageHash:     &hash,
		GroupRole:       "primary",
		Confidence:      1.0,
	}
}

func TestExists(t *testing.T) {
	repo, mockPool := newTestRepo(t)
	userID := uuid.New()
	hash := sms.HashMessage("some message")

	mockPool.ExpectQuery(regexp.QuoteMeta(existsByHashQuery)).
		WithArgs(userID, hash).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.Exists(context.Background(), userID, hash)
	if err != nil {
		t.Fatalf("Exists() error = %v", err)
	}
	if !exists {
		t.Error("Exists() = false, want true")
	}
	if err := mockPool.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestCommitGroupSingle(t *testing.T) {
	repo, mockPool := newTestRepo(t)
	userID := uuid.New()
	entry := testEntry(userID, sms.HashMessage("msg"))

	mockPool.ExpectBegin()
	mockPool.ExpectExec(regexp.QuoteMeta(advisoryLockQuery)).
		WithArgs(userID).
		WillReturnResult(pgxmock.NewResult("SELECT", 1))
	mockPool.ExpectQuery(regexp.QuoteMeta(existsByHashQuery)).
		WithArgs(userID, *entry.MessageHash).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
	mockPool.ExpectExec(regexp.QuoteMeta(insertTransactionQuery)).
		WithArgs(anyArgs(25)...).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mockPool.ExpectCommit()

	ids, err := repo.CommitGroup(context.Background(), userID, entry, nil)
	if err != nil {
		t.Fatalf("CommitGroup() error = %v", err)
	}
	if len(ids) != 1 {
		t.Fatalf("committed %d ids, want 1", len(ids))
	}
	if entry.ID == uuid.Nil {
		t.Error("primary entry was not assigned an id")
	}
	if err := mockPool.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestCommitGroupWithLegs(t *testing.T) {
	repo, mockPool := newTestRepo(t)
	userID := uuid.New()
	groupID := uuid.New()

	primary := testEntry(userID, sms.HashMessage("compound"))
	primary.GroupID = &groupID
	legs := []*LedgerEntry{
		{AmountMinor: 120000, CurrencyCode: "KES", Direction: "outgoing", Description: "Fuliza repayment", GroupID: &groupID, GroupRole: "facility_deduction"},
		{AmountMinor: 2500, CurrencyCode: "KES", Direction: "outgoing", Description: "Fuliza access fee", GroupID: &groupID, GroupRole: "access_fee"},
	}

	mockPool.ExpectBegin()
	mockPool.ExpectExec(regexp.QuoteMeta(advisoryLockQuery)).
		WithArgs(userID).
		WillReturnResult(pgxmock.NewResult("SELECT", 1))
	mockPool.ExpectQuery(regexp.QuoteMeta(existsByHashQuery)).
		WithArgs(userID, *primary.MessageHash).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
	for range 3 {
		mockPool.ExpectExec(regexp.QuoteMeta(insertTransactionQuery)).
			WithArgs(anyArgs(25)...).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
	}
	mockPool.ExpectCommit()

	ids, err := repo.CommitGroup(context.Background(), userID, primary, legs)
	if err != nil {
		t.Fatalf("CommitGroup() error = %v", err)
	}
	if len(ids) != 3 {
		t.Fatalf("committed %d ids, want 3", len(ids))
	}
	for i, leg := range legs {
		if leg.ParentTransactionID == nil || *leg.ParentTransactionID != primary.ID {
			t.Errorf("leg %d parent = %v, want primary id %s", i, leg.ParentTransactionID, primary.ID)
		}
		if leg.UserID != userID {
			t.Errorf("leg %d user = %s, want %s", i, leg.UserID, userID)
		}
	}
	if err := mockPool.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestCommitGroupDuplicateInsideTransaction(t *testing.T) {
	repo, mockPool := newTestRepo(t)
	userID := uuid.New()
	entry := testEntry(userID, sms.HashMessage("raced message"))

	mockPool.ExpectBegin()
	mockPool.ExpectExec(regexp.QuoteMeta(advisoryLockQuery)).
		WithArgs(userID).
		WillReturnResult(pgxmock.NewResult("SELECT", 1))
	// The in-transaction re-check finds the hash: a concurrent batch won
	// the advisory lock first and committed the same message.
	mockPool.ExpectQuery(regexp.QuoteMeta(existsByHashQuery)).
		WithArgs(userID, *entry.MessageHash).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
	mockPool.ExpectRollback()

	_, err := repo.CommitGroup(context.Background(), userID, entry, nil)
	if !errors.Is(err, sms.ErrDuplicateMessage) {
		t.Fatalf("CommitGroup() error = %v, want ErrDuplicateMessage", err)
	}
	if err := mockPool.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestCommitGroupInsertFailureRollsBack(t *testing.T) {
	repo, mockPool := newTestRepo(t)
	userID := uuid.New()
	entry := testEntry(userID, sms.HashMessage("msg"))

	mockPool.ExpectBegin()
	mockPool.ExpectExec(regexp.QuoteMeta(advisoryLockQuery)).
		WithArgs(userID).
		WillReturnResult(pgxmock.NewResult("SELECT", 1))
	mockPool.ExpectQuery(regexp.QuoteMeta(existsByHashQuery)).
		WithArgs(userID, *entry.MessageHash).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
	mockPool.ExpectExec(regexp.QuoteMeta(insertTransactionQuery)).
		WithArgs(anyArgs(25)...).
		WillReturnError(errors.New("insert failed"))
	mockPool.ExpectRollback()

	_, err := repo.CommitGroup(context.Background(), userID, entry, nil)
	if err == nil {
		t.Fatal("CommitGroup() expected error")
	}
	if err := mockPool.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestCreateImportSession(t *testing.T) {
	repo, mockPool := newTestRepo(t)
	session := &ImportSession{UserID: uuid.New(), TotalProcessed: 5}

	mockPool.ExpectExec(regexp.QuoteMeta(createImportSessionQuery)).
		WithArgs(anyArgs(4)...).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	if err := repo.CreateImportSession(context.Background(), session); err != nil {
		t.Fatalf("CreateImportSession() error = %v", err)
	}
	if session.ID == uuid.Nil {
		t.Error("session was not assigned an id")
	}
	if session.Status != "running" {
		t.Errorf("session status = %q, want running", session.Status)
	}
	if err := mockPool.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestFinishImportSession(t *testing.T) {
	repo, mockPool := newTestRepo(t)
	sessionID := uuid.New()
	result := sms.ImportResult{SuccessfulImports: 3, DuplicatesFound: 1, ParsingErrors: 1, TotalProcessed: 5}

	mockPool.ExpectExec(regexp.QuoteMeta(finishImportSessionQuery)).
		WithArgs(sessionID, "succeeded", 3, 1, 1, 5, (*string)(nil)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	if err := repo.FinishImportSession(context.Background(), sessionID, "succeeded", result, nil); err != nil {
		t.Fatalf("FinishImportSession() error = %v", err)
	}
	if err := mockPool.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
