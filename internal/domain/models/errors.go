package models

import (
	"errors"
	"fmt"
)

// Error kinds the supervisor branches on. DataError and BalanceError are
// always recovered locally; ConnectivityError escalates to the backoff path.
var (
	ErrInsufficientData  = errors.New("insufficient data")
	ErrConnectivity      = errors.New("venue unreachable")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrRiskLimit         = errors.New("risk limit breached")
	ErrRateLimited       = errors.New("venue rate limited")
)

// ConnectivityError wraps a venue transport failure.
func ConnectivityError(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, ErrConnectivity, err)
}

// IsConnectivity reports whether err is a connectivity failure.
func IsConnectivity(err error) bool {
	return errors.Is(err, ErrConnectivity)
}

// IsRateLimited reports whether err is venue throttling.
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}
