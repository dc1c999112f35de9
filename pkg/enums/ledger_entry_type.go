package enums

import "fmt"

// LedgerEntryType classifies a wallet ledger row.
type LedgerEntryType string

const (
	LedgerEntryTypeEarn   LedgerEntryType = "EARN"
	LedgerEntryTypeSpend  LedgerEntryType = "SPEND"
	LedgerEntryTypeAdjust LedgerEntryType = "ADJUST"
	LedgerEntryTypeRefund LedgerEntryType = "REFUND"
)

var validLedgerEntryTypes = []LedgerEntryType{
	LedgerEntryTypeEarn,
	LedgerEntryTypeSpend,
	LedgerEntryTypeAdjust,
	LedgerEntryTypeRefund,
}

// IsValid reports whether the value matches a known ledger entry type.
func (t LedgerEntryType) IsValid() bool {
	for _, candidate := range validLedgerEntryTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// IsCredit reports whether entries of this type add to the balance. ADJUST
// can go either way and reports false; its sign lives on the entry delta.
func (t LedgerEntryType) IsCredit() bool {
	return t == LedgerEntryTypeEarn || t == LedgerEntryTypeRefund
}

// ParseLedgerEntryType converts raw input into LedgerEntryType.
func ParseLedgerEntryType(value string) (LedgerEntryType, error) {
	for _, candidate := range validLedgerEntryTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid ledger entry type %q", value)
}

// Well-known ledger sources.
const (
	LedgerSourceOrder                  = "ORDER"
	LedgerSourceChallenge              = "CHALLENGE"
	LedgerSourceSustainabilityBaseline = "SUSTAINABILITY_BASELINE"
	LedgerSourceAdmin                  = "ADMIN"
)
