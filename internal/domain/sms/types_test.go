package sms

import "testing"

func TestHashMessageNormalizesWhitespace(t *testing.T) {
	a := HashMessage("TJ31KX9QML Confirmed. You have received Ksh5,000.00")
	b := HashMessage("  TJ31KX9QML   Confirmed.\n\tYou have received  Ksh5,000.00 ")
	if a != b {
		t.Error("whitespace variants must hash identically")
	}
}

func TestHashMessagePreservesCase(t *testing.T) {
	a := HashMessage("Confirmed. You have received Ksh100.00")
	b := HashMessage("confirmed. you have received ksh100.00")
	if a == b {
		t.Error("case variants are distinct messages and must hash differently")
	}
}

func TestHashMessageDeterministic(t *testing.T) {
	msg := "TJ41ABC123 Confirmed. Ksh500.00 sent to JANE WANJIKU"
	if HashMessage(msg) != HashMessage(msg) {
		t.Error("hash must be deterministic")
	}
	if len(HashMessage(msg)) != 64 {
		t.Errorf("hash length = %d, want 64 hex chars", len(HashMessage(msg)))
	}
}
