package enums

import "fmt"

// TransactionType maps to the transaction_type_enum enum in Postgres.
// It classifies signed point deltas in the append-only ledger.
type TransactionType string

const (
	TransactionTypePointsAwarded   TransactionType = "points_awarded"
	TransactionTypePointsRedeemed  TransactionType = "points_redeemed"
	TransactionTypePointsRefunded  TransactionType = "points_refunded"
	TransactionTypeManualGrant     TransactionType = "manual_grant"
	TransactionTypeManualDeduction TransactionType = "manual_deduction"
)

var validTransactionTypes = []TransactionType{
	TransactionTypePointsAwarded,
	TransactionTypePointsRedeemed,
	TransactionTypePointsRefunded,
	TransactionTypeManualGrant,
	TransactionTypeManualDeduction,
}

// IsValid reports whether the value matches the canonical transaction type enum.
func (t TransactionType) IsValid() bool {
	for _, candidate := range validTransactionTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// IsSpend reports whether transactions of this type carry a negative delta.
func (t TransactionType) IsSpend() bool {
	return t == TransactionTypePointsRedeemed || t == TransactionTypeManualDeduction
}

// ParseTransactionType converts raw input into TransactionType.
func ParseTransactionType(value string) (TransactionType, error) {
	for _, candidate := range validTransactionTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid transaction type %q", value)
}
