package sms

import "errors"

var (
	// ErrTemplateNotMatched means no known notification template recognized the text.
	ErrTemplateNotMatched = errors.New("no known notification template matched the message")
	// ErrMandatoryFieldMissing means a template matched but amount or direction
	// could not be captured.
	ErrMandatoryFieldMissing = errors.New("mandatory field missing from message")
	// ErrDuplicateMessage means a ledger entry with the same message hash exists.
	ErrDuplicateMessage = errors.New("message already imported")
	// ErrLedgerUnavailable means the commit step failed for infrastructure reasons.
	ErrLedgerUnavailable = errors.New("ledger unavailable")
)
