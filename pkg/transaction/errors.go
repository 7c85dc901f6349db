package transaction

import (
	"errors"
	"fmt"
	"net/netip"
)

// Transaction manager errors.
var (
	// ErrTooManyRequestsForEndpoint is matched by *EndpointQueueFullError.
	ErrTooManyRequestsForEndpoint = errors.New("too many requests for endpoint")

	// ErrInvalidQueueSize is returned for queue limits outside 1..65536.
	ErrInvalidQueueSize = errors.New("invalid endpoint queue size")

	// ErrDuplicateTransaction is returned when the transaction ID is already tracked.
	ErrDuplicateTransaction = errors.New("transaction already tracked")

	// ErrTransactionNotPending is returned when admitting a transaction
	// that has already been through a manager.
	ErrTransactionNotPending = errors.New("transaction is not pending")
)

// EndpointQueueFullError reports a rejected admission.
// The caller should reject the application request rather than retry.
type EndpointQueueFullError struct {
	Remote netip.AddrPort
	Limit  int
}

func (e *EndpointQueueFullError) Error() string {
	return fmt.Sprintf("%s: %s (limit %d)", ErrTooManyRequestsForEndpoint, e.Remote, e.Limit)
}

// Is makes errors.Is(err, ErrTooManyRequestsForEndpoint) succeed.
func (e *EndpointQueueFullError) Is(target error) bool {
	return target == ErrTooManyRequestsForEndpoint
}
