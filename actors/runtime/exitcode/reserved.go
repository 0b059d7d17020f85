package exitcode

import "strconv"

type ExitCode int64

func (x ExitCode) IsSuccess() bool {
	return x == Ok
}

func (x ExitCode) IsError() bool {
	return !x.IsSuccess()
}

// Implement error to trigger Go compiler checking of exit code return values.
func (x ExitCode) Error() string {
	if name, ok := names[x]; ok {
		return name
	}
	return strconv.FormatInt(int64(x), 10)
}

const Ok = ExitCode(0)

// The initial range of exit codes is reserved for failures of the hosting process rather than
// of a ledger operation.
const FirstLedgerErrorCode = ExitCode(16)

// Common error codes that may be shared by different ledger components.
const (
	// Indicates a method parameter is invalid.
	ErrIllegalArgument = FirstLedgerErrorCode + iota
	// Indicates a requested resource does not exist.
	ErrNotFound
	// Indicates the ledger state is internally inconsistent or could not be loaded/stored.
	ErrIllegalState
	// Indicates a record failed to de/serialize for storage.
	ErrSerialization

	// Common error codes stop here. If you define a common error code above
	// this value it will have conflicting interpretations.
	FirstOperationSpecificExitCode = ExitCode(32)
)

// Errors specific to grant and transfer operations.
const (
	// Indicates the caller lacks the role required for the operation.
	ErrUnauthorized = FirstOperationSpecificExitCode + iota
	// Indicates the sender's total balance is below the requested amount.
	ErrInsufficientBalance
	// Indicates the balance suffices but part of it is still locked by vesting grants.
	ErrInsufficientTransferable
	// Indicates a delegated transfer exceeds the approved allowance.
	ErrInsufficientAllowance
	// Indicates a grant has already been revoked.
	ErrAlreadyRevoked
	// Indicates a grant was created non-revocable.
	ErrNotRevocable
	// Indicates a grant schedule is inconsistent (cliff before start or vesting before cliff).
	ErrInvalidSchedule
)

var names = map[ExitCode]string{
	Ok:                          "Ok",
	ErrIllegalArgument:          "ErrIllegalArgument",
	ErrNotFound:                 "ErrNotFound",
	ErrIllegalState:             "ErrIllegalState",
	ErrSerialization:            "ErrSerialization",
	ErrUnauthorized:             "ErrUnauthorized",
	ErrInsufficientBalance:      "ErrInsufficientBalance",
	ErrInsufficientTransferable: "ErrInsufficientTransferable",
	ErrInsufficientAllowance:    "ErrInsufficientAllowance",
	ErrAlreadyRevoked:           "ErrAlreadyRevoked",
	ErrNotRevocable:             "ErrNotRevocable",
	ErrInvalidSchedule:          "ErrInvalidSchedule",
}

// Parse returns the exit code with the given name, as produced by Error.
func Parse(name string) (ExitCode, bool) {
	for code, n := range names {
		if n == name {
			return code, true
		}
	}
	return Ok, false
}
