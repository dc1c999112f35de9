package enums

import "fmt"

// OutboxAggregateType names the aggregate an outbox event belongs to.
type OutboxAggregateType string

const (
	AggregateOrder  OutboxAggregateType = "order"
	AggregateWallet OutboxAggregateType = "wallet"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateOrder,
	AggregateWallet,
}

// IsValid reports whether the value matches a known aggregate type.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType names a domain event written to the outbox.
type OutboxEventType string

const (
	EventOrderCreated       OutboxEventType = "order_created"
	EventOrderStatusChanged OutboxEventType = "order_status_changed"
	EventEcoCoinsEarned     OutboxEventType = "ecocoins_earned"
	EventEcoCoinsSpent      OutboxEventType = "ecocoins_spent"
	EventEcoCoinsRefunded   OutboxEventType = "ecocoins_refunded"
	EventEcoCoinsAdjusted   OutboxEventType = "ecocoins_adjusted"
)

var validOutboxEventTypes = []OutboxEventType{
	EventOrderCreated,
	EventOrderStatusChanged,
	EventEcoCoinsEarned,
	EventEcoCoinsSpent,
	EventEcoCoinsRefunded,
	EventEcoCoinsAdjusted,
}

// IsValid reports whether the value matches a known event type.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}

// LedgerEventFor maps a ledger entry type to the wallet event it emits.
func LedgerEventFor(t LedgerEntryType) OutboxEventType {
	switch t {
	case LedgerEntryTypeEarn:
		return EventEcoCoinsEarned
	case LedgerEntryTypeSpend:
		return EventEcoCoinsSpent
	case LedgerEntryTypeRefund:
		return EventEcoCoinsRefunded
	default:
		return EventEcoCoinsAdjusted
	}
}
