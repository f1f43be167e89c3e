package errs

import "errors"

// Common sentinel errors for cross-layer signaling. All of these describe
// local, recoverable conditions: a command is rejected and the document is
// left untouched.
var (
	ErrNotFound = errors.New("not_found")
	ErrInvalid  = errors.New("invalid")
	// ErrConflict covers structural conflicts such as deleting an account
	// that still has splits posted to it.
	ErrConflict = errors.New("conflict")

	// ErrCurrencyMismatch is returned by amount arithmetic when the two
	// operands are denominated in different currencies.
	ErrCurrencyMismatch = errors.New("currency_mismatch")
	// ErrNoRateAvailable indicates a conversion for which no exchange rate
	// exists at or before the requested date.
	ErrNoRateAvailable = errors.New("no_rate_available")
	// ErrDuplicateCurrency indicates a currency code already registered.
	ErrDuplicateCurrency = errors.New("duplicate_currency")
	// ErrDuplicateAccountName indicates a name collision under the
	// case-insensitive account name index.
	ErrDuplicateAccountName = errors.New("duplicate_account_name")
	// ErrNotReconcilable indicates the split's account does not take part
	// in reconciliation (autocreated placeholder accounts).
	ErrNotReconcilable = errors.New("not_reconcilable")
	// ErrInvalidMove indicates a manual reorder across differing dates.
	ErrInvalidMove = errors.New("invalid_move")
	// ErrUnbalancedTransaction indicates a commit attempted while the
	// splits do not sum to zero in a common currency.
	ErrUnbalancedTransaction = errors.New("unbalanced_transaction")
)
