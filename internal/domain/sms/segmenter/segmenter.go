// Package segmenter splits a raw pasted text blob into candidate
// notification messages. It recognizes message-app separators, protects
// known multi-line template shapes from being split, and drops text that
// carries no notification markers.
package segmenter

import (
	"regexp"
	"strings"
)

// Marker phrases that identify a chunk as a mobile-money notification.
// A candidate lacking all of them is not a notification and is dropped.
var notificationMarkers = []string{
	"confirmed",
	"sent to",
	"received from",
	"paid to",
	"withdraw ksh",
	"you bought",
	"new m-pesa balance",
	"m-pesa balance",
	"transaction cost",
	"give ksh",
}

// Continuation phrases that open a chunk belonging to the previous
// notification (formatted balance breakdowns, facility summaries).
var continuationOpeners = []string{
	"new m-pesa balance",
	"m-pesa balance",
	"fuliza m-pesa",
	"outstanding fuliza",
	"transaction cost",
	"amount",
	"total",
	"access fee",
}

var (
	// Messaging apps insert timestamp/sender lines between forwarded
	// messages, e.g. "[3/10/25, 10:55 PM] MPESA:" or "10/03/2025 22:55 - MPESA:".
	appSeparatorPattern = regexp.MustCompile(`^\[?\d{1,2}/\d{1,2}/\d{2,4},?\s+\d{1,2}:\d{2}(?::\d{2})?(?:\s*[AP]M)?\]?\s*(?:-\s*)?(?:M-?PESA|MPESA)?\s*:?\s*`)
	// Receipt codes ("TJ31KX9QML Confirmed. ...") open a fresh notification.
	receiptOpenerPattern = regexp.MustCompile(`^[A-Z][A-Z0-9]{9}\s+Confirmed\b`)
)

// Segment splits a text blob into an ordered sequence of candidate
// notification strings. Empty or whitespace-only input yields nil.
func Segment(blob string) []string {
	if strings.TrimSpace(blob) == "" {
		return nil
	}

	chunks := splitChunks(blob)
	chunks = mergeContinuations(chunks)

	var candidates []string
	for _, c := range chunks {
		if isNotification(c) {
			candidates = append(candidates, c)
		}
	}
	return candidates
}

// splitChunks breaks the blob on blank lines and on embedded message-app
// separator lines. Separator prefixes are stripped from the retained text.
func splitChunks(blob string) []string {
	lines := strings.Split(strings.ReplaceAll(blob, "\r\n", "\n"), "\n")

	var chunks []string
	var current []string

	flush := func() {
		joined := strings.TrimSpace(strings.Join(current, " "))
		if joined != "" {
			chunks = append(chunks, collapseSpaces(joined))
		}
		current = current[:0]
	}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			flush()
			continue
		}

		if loc := appSeparatorPattern.FindString(trimmed); loc != "" {
			// New forwarded message begins here.
			flush()
			trimmed = strings.TrimSpace(strings.TrimPrefix(trimmed, loc))
			if trimmed == "" {
				continue
			}
		} else if receiptOpenerPattern.MatchString(trimmed) && len(current) > 0 {
			// A fresh receipt code mid-blob starts a new notification even
			// without a blank line between the two.
			flush()
		}

		current = append(current, trimmed)
	}
	flush()

	return chunks
}

// mergeContinuations re-joins chunks that a blank line split out of a single
// notification, e.g. a trailing balance breakdown or Fuliza summary. A chunk
// is a continuation when it opens with a continuation phrase and does not
// start a notification of its own.
func mergeContinuations(chunks []string) []string {
	var merged []string
	for _, c := range chunks {
		if len(merged) > 0 && isContinuation(c) {
			merged[len(merged)-1] = merged[len(merged)-1] + " " + c
			continue
		}
		merged = append(merged, c)
	}
	return merged
}

func isContinuation(chunk string) bool {
	if receiptOpenerPattern.MatchString(chunk) {
		return false
	}
	lower := strings.ToLower(chunk)
	if strings.HasPrefix(lower, "confirmed") {
		return false
	}
	for _, opener := range continuationOpeners {
		if strings.HasPrefix(lower, opener) {
			return true
		}
	}
	return false
}

func isNotification(chunk string) bool {
	if receiptOpenerPattern.MatchString(chunk) {
		return true
	}
	lower := strings.ToLower(chunk)
	for _, marker := range notificationMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

var spacePattern = regexp.MustCompile(`\s+`)

func collapseSpaces(s string) string {
	return spacePattern.ReplaceAllString(s, " ")
}
