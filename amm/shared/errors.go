package shared

import (
	"errors"
	"fmt"
)

// ErrorClass groups errors by how a caller should react to them.
type ErrorClass uint8

const (
	ClassUnknown ErrorClass = iota
	ClassConfig
	ClassAuth
	ClassState
	ClassConsistency
	ClassArithmetic
	ClassUnsupported
)

func (c ErrorClass) String() string {
	switch c {
	case ClassConfig:
		return "config"
	case ClassAuth:
		return "auth"
	case ClassState:
		return "state"
	case ClassConsistency:
		return "consistency"
	case ClassArithmetic:
		return "arithmetic"
	case ClassUnsupported:
		return "unsupported"
	}
	return "unknown"
}

// Error is a program error. Codes follow the anchor custom error range.
type Error struct {
	Code  uint32
	Name  string
	Msg   string
	Class ErrorClass
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s (%d): %s", e.Name, e.Code, e.Msg)
}

func newError(code uint32, name string, class ErrorClass, msg string) *Error {
	return &Error{Code: code, Name: name, Msg: msg, Class: class}
}

var (
	// configuration
	ErrInvalidPoolConfig         = newError(6000, "InvalidPoolConfig", ClassConfig, "invalid pool type and fee combination")
	ErrStartingPriceTooSmall     = newError(6001, "StartingPriceTooSmall", ClassConfig, "starting price must be at least 1")
	ErrDeltaTooLarge             = newError(6002, "DeltaTooLarge", ClassConfig, "exponential delta too large")
	ErrFeesTooHigh               = newError(6003, "FeesTooHigh", ClassConfig, "market making fee too high")
	ErrMissingFees               = newError(6004, "MissingFees", ClassConfig, "trade pools require a market making fee")
	ErrFeesNotAllowed            = newError(6005, "FeesNotAllowed", ClassConfig, "market making fee only allowed on trade pools")
	ErrWrongPoolVersion          = newError(6006, "WrongPoolVersion", ClassConfig, "pool has a stale layout version")
	ErrExpiryTooLarge            = newError(6007, "ExpiryTooLarge", ClassConfig, "expiry too far in the future")
	ErrMaxTakerSellCountTooSmall = newError(6008, "MaxTakerSellCountTooSmall", ClassConfig, "max taker sell count below current net sells")
	ErrBadRoyaltiesPct           = newError(6009, "BadRoyaltiesPct", ClassConfig, "optional royalty percentage above 100")

	// authorization
	ErrWrongOwner     = newError(6100, "WrongOwner", ClassAuth, "signer is not the owner")
	ErrWrongAuthority = newError(6101, "WrongAuthority", ClassAuth, "authority is not trusted")
	ErrBadCosigner    = newError(6102, "BadCosigner", ClassAuth, "missing or wrong cosigner")
	ErrWrongRentPayer = newError(6103, "WrongRentPayer", ClassAuth, "rent destination is not the pool rent payer")

	// state
	ErrExpiredPool               = newError(6201, "ExpiredPool", ClassState, "pool has expired")
	ErrPoolNotExpired            = newError(6202, "PoolNotExpired", ClassState, "pool has not expired")
	ErrExistingNfts              = newError(6203, "ExistingNfts", ClassState, "pool still holds nfts")
	ErrPoolOnSharedEscrow        = newError(6204, "PoolOnSharedEscrow", ClassState, "pool is attached to a shared escrow")
	ErrPoolNotOnSharedEscrow     = newError(6205, "PoolNotOnSharedEscrow", ClassState, "pool is not attached to a shared escrow")
	ErrSharedEscrowInUse         = newError(6206, "SharedEscrowInUse", ClassState, "shared escrow still has pools attached")
	ErrMaxTakerSellCountExceeded = newError(6207, "MaxTakerSellCountExceeded", ClassState, "pool bought its configured maximum")
	ErrWrongPoolType             = newError(6208, "WrongPoolType", ClassState, "operation not allowed for this pool type")
	ErrPoolKeepAlive             = newError(6209, "PoolKeepAlive", ClassState, "withdrawal would breach the rent exempt minimum")
	ErrPoolFeesCompounded        = newError(6210, "PoolFeesCompounded", ClassState, "pool compounds its fees")
	ErrInsufficientBalance       = newError(6211, "InsufficientBalance", ClassState, "insufficient balance")
	ErrAccountExists             = newError(6212, "AccountExists", ClassState, "account already exists")
	ErrAccountNotFound           = newError(6213, "AccountNotFound", ClassState, "account not found")

	// consistency
	ErrWrongMint                   = newError(6300, "WrongMint", ClassConsistency, "receipt does not match the asset")
	ErrWrongPool                   = newError(6301, "WrongPool", ClassConsistency, "receipt does not match the pool")
	ErrBadSharedEscrow             = newError(6302, "BadSharedEscrow", ClassConsistency, "shared escrow does not match the pool")
	ErrBadWhitelist                = newError(6303, "BadWhitelist", ClassConsistency, "whitelist does not match the pool")
	ErrWhitelistVerificationFailed = newError(6304, "WhitelistVerificationFailed", ClassConsistency, "asset is not in the whitelist")
	ErrBadMetadata                 = newError(6305, "BadMetadata", ClassConsistency, "bad royalty metadata")
	ErrCreatorMismatch             = newError(6306, "CreatorMismatch", ClassConsistency, "creator accounts do not match the metadata")
	ErrPriceMismatch               = newError(6307, "PriceMismatch", ClassConsistency, "price outside the caller's bound")

	// arithmetic
	ErrArithmeticError = newError(6400, "ArithmeticError", ClassArithmetic, "arithmetic overflow or underflow")

	// unsupported
	ErrUnsupportedCurrency     = newError(6500, "UnsupportedCurrency", ClassUnsupported, "unsupported currency type")
	ErrSplCurrencyNotSupported = newError(6501, "SplCurrencyNotSupported", ClassUnsupported, "spl token currency not supported")
)

// Classify returns the class of a program error anywhere in err's chain.
func Classify(err error) ErrorClass {
	var e *Error
	if errors.As(err, &e) {
		return e.Class
	}
	return ClassUnknown
}

// Retryable reports whether resubmitting with fresh parameters may succeed.
func Retryable(err error) bool {
	return errors.Is(err, ErrPriceMismatch)
}
