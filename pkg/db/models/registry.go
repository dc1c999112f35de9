package models

// All lists the persisted models in dependency order. Used when the schema
// is created with AutoMigrate instead of goose (sqlite and tests).
func All() []any {
	return []any{
		&Wallet{},
		&WalletLedgerEntry{},
		&Product{},
		&Order{},
		&OrderItem{},
		&OutboxEvent{},
	}
}
