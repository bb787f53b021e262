// Package service orchestrates the SMS parsing and import pipeline:
// segmentation, extraction, classification, decomposition, deduplication
// and ledger commits.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/pesatrack/pesatrack/internal/domain/sms"
	"github.com/pesatrack/pesatrack/internal/domain/sms/classifier"
	"github.com/pesatrack/pesatrack/internal/domain/sms/decomposer"
	"github.com/pesatrack/pesatrack/internal/domain/sms/extractor"
	"github.com/pesatrack/pesatrack/internal/domain/sms/repository"
	"github.com/pesatrack/pesatrack/internal/domain/sms/segmenter"
)

const currencyCode = "KES"

// ImportService runs parse-batch and import operations.
type ImportService struct {
	ledger repository.LedgerRepository
	logger *slog.Logger
	tracer trace.Tracer
}

// NewImportService creates a new SMS import service.
func NewImportService(ledger repository.LedgerRepository, logger *slog.Logger) *ImportService {
	return &ImportService{
		ledger: ledger,
		logger: logger,
		tracer: otel.Tracer("pesatrack/sms"),
	}
}

type parseJob struct {
	idx     int
	message string
}

// ParseBatch segments a pasted text blob and parses every candidate
// notification, returning one result per candidate in original order.
// Parsing is pure computation; candidates run through a bounded worker pool
// and are recombined in input order.
func (s *ImportService) ParseBatch(ctx context.Context, text string) []sms.MessageResult {
	ctx, span := s.tracer.Start(ctx, "sms.ParseBatch")
	defer span.End()

	candidates := segmenter.Segment(text)
	span.SetAttributes(attribute.Int("sms.candidates", len(candidates)))
	if len(candidates) == 0 {
		// Zero-result outcome, not an error.
		return []sms.MessageResult{}
	}

	results := make([]sms.MessageResult, len(candidates))

	workerCount := runtime.GOMAXPROCS(0)
	if workerCount > len(candidates) {
		workerCount = len(candidates)
	}

	jobs := make(chan parseJob)
	var wg sync.WaitGroup
	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				results[job.idx] = s.parseOne(job.message)
			}
		}()
	}

	for idx, msg := range candidates {
		select {
		case jobs <- parseJob{idx: idx, message: msg}:
		case <-ctx.Done():
			// Undispatched candidates still surface a reason instead of
			// coming back as silently empty slots.
			results[idx] = sms.MessageResult{
				Message: msg,
				Success: false,
				Error:   fmt.Sprintf("parsing cancelled: %v", ctx.Err()),
			}
		}
	}
	close(jobs)
	wg.Wait()

	return results
}

// parseOne runs extraction and classification for a single candidate.
func (s *ImportService) parseOne(message string) sms.MessageResult {
	record, err := s.parseRecord(message)
	if err != nil {
		return sms.MessageResult{
			Message: message,
			Success: false,
			Error:   err.Error(),
		}
	}

	fields := record.Fields
	return sms.MessageResult{
		Message:           message,
		Success:           true,
		Fields:            &fields,
		Confidence:        record.Confidence,
		SuggestedCategory: record.SuggestedCategory,
		RequiresReview:    record.RequiresReview,
	}
}

// parseRecord builds a fully parsed record or returns a per-message parse
// failure with a human-readable reason.
func (s *ImportService) parseRecord(message string) (sms.ParsedRecord, error) {
	fields, confidence, err := extractor.Extract(message)
	if err != nil {
		return sms.ParsedRecord{}, err
	}

	category, reviewForced := classifier.Classify(fields)

	return sms.ParsedRecord{
		Fields:            fields,
		Confidence:        confidence,
		SuggestedCategory: category,
		RequiresReview:    confidence < sms.ReviewThreshold || reviewForced,
		SourceMessage:     message,
		MessageHash:       sms.HashMessage(message),
	}, nil
}

// Import deduplicates and commits a batch of original message strings for
// one user. Commit order follows input order; each transaction group
// commits as a unit. A ledger failure aborts the in-flight operation with
// no partial result, but groups committed before the failure stay
// committed.
func (s *ImportService) Import(ctx context.Context, userID uuid.UUID, messages []string, opts sms.ImportOptions) (*sms.ImportResult, error) {
	ctx, span := s.tracer.Start(ctx, "sms.Import")
	defer span.End()
	span.SetAttributes(attribute.Int("sms.batch_size", len(messages)))

	session := &repository.ImportSession{
		UserID:         userID,
		TotalProcessed: len(messages),
	}
	if err := s.ledger.CreateImportSession(ctx, session); err != nil {
		return nil, fmt.Errorf("%w: %v", sms.ErrLedgerUnavailable, err)
	}

	result := sms.ImportResult{
		TotalProcessed:  len(messages),
		ImportSessionID: session.ID,
	}

	for _, message := range messages {
		record, err := s.parseRecord(message)
		if err != nil {
			result.ParsingErrors++
			s.logger.Debug("message failed extraction", "error", err)
			continue
		}

		exists, err := s.ledger.Exists(ctx, userID, record.MessageHash)
		if err != nil {
			return nil, s.failSession(ctx, session.ID, result, err)
		}
		if exists {
			result.DuplicatesFound++
			continue
		}

		decomposed := decomposer.Decompose(record)
		if decomposed.Note != "" {
			s.logger.Warn("compound decomposition skipped", "reason", decomposed.Note)
		}

		primary, legs := s.buildEntries(decomposed, opts)
		if _, err := s.ledger.CommitGroup(ctx, userID, primary, legs); err != nil {
			if errors.Is(err, sms.ErrDuplicateMessage) {
				// Lost the race against a concurrent batch for the same user.
				result.DuplicatesFound++
				continue
			}
			return nil, s.failSession(ctx, session.ID, result, err)
		}
		result.SuccessfulImports++
	}

	if err := s.ledger.FinishImportSession(ctx, session.ID, "succeeded", result, nil); err != nil {
		s.logger.Warn("failed to finish import session", "error", err)
	}

	s.logger.Info("import completed",
		"session_id", session.ID,
		"imported", result.SuccessfulImports,
		"duplicates", result.DuplicatesFound,
		"parse_errors", result.ParsingErrors,
	)
	return &result, nil
}

func (s *ImportService) failSession(ctx context.Context, sessionID uuid.UUID, result sms.ImportResult, cause error) error {
	msg := cause.Error()
	if err := s.ledger.FinishImportSession(ctx, sessionID, "failed", result, &msg); err != nil {
		s.logger.Warn("failed to mark import session failed", "error", err)
	}
	return fmt.Errorf("%w: %v", sms.ErrLedgerUnavailable, cause)
}

// buildEntries converts a decomposed record into ledger rows. The fallback
// date applies only to the transaction date and never overrides any other
// embedded field.
func (s *ImportService) buildEntries(d sms.DecomposedRecord, opts sms.ImportOptions) (*repository.LedgerEntry, []*repository.LedgerEntry) {
	record := d.Primary
	fields := record.Fields

	txDate := fields.TransactionDate
	if txDate.IsZero() {
		txDate = opts.FallbackDate
	}

	category := ""
	if opts.AutoCategorize {
		category = record.SuggestedCategory
	}
	requiresReview := record.RequiresReview || opts.RequireReview

	hash := record.MessageHash
	primary := &repository.LedgerEntry{
		AmountMinor:     toMinor(fields.Amount),
		CurrencyCode:    currencyCode,
		Direction:       string(fields.Direction),
		Description:     fields.Description,
		Category:        category,
		TransactionDate: txDate,
		Source:          "sms",
		MessageHash:     &hash,

		ReceiptID:        optStr(fields.ReceiptID),
		CounterpartyName: optStr(fields.CounterpartyName),
		PhoneNumber:      optStr(fields.PhoneNumber),
		Reference:        optStr(fields.Reference),

		BalanceAfterMinor:        minorPtr(fields.BalanceAfter),
		TransactionFeeMinor:      minorPtr(fields.TransactionFee),
		AccessFeeMinor:           minorPtr(fields.AccessFee),
		FacilityOutstandingMinor: minorPtr(fields.FacilityOutstanding),
		FacilityLimitMinor:       minorPtr(fields.FacilityLimit),
		FacilityDueDate:          optTime(fields.FacilityDueDate),

		GroupRole:      string(sms.RolePrimary),
		RequiresReview: requiresReview,
		Confidence:     record.Confidence,
	}

	if d.GroupID == uuid.Nil {
		return primary, nil
	}

	groupID := d.GroupID
	primary.GroupID = &groupID

	legs := make([]*repository.LedgerEntry, 0, len(d.Legs))
	for _, leg := range d.Legs {
		legs = append(legs, &repository.LedgerEntry{
			AmountMinor:     toMinor(leg.Amount),
			CurrencyCode:    currencyCode,
			Direction:       string(sms.DirectionOutgoing),
			Description:     leg.Description,
			Category:        category,
			TransactionDate: txDate,
			Source:          "sms",
			GroupID:         &groupID,
			GroupRole:       string(leg.Role),
			RequiresReview:  requiresReview,
			Confidence:      record.Confidence,
		})
	}
	return primary, legs
}

func toMinor(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

func minorPtr(amount *decimal.Decimal) *int64 {
	if amount == nil {
		return nil
	}
	v := toMinor(*amount)
	return &v
}

func optStr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func optTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
