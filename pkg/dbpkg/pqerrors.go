package dbpkg

import "github.com/lib/pq"

// Postgres error codes surfaced as retryable contention.
const (
	lockNotAvailable = "55P03"
	deadlockDetected = "40P01"
)

// IsBusy reports whether err is a lock-timeout or deadlock error, meaning the
// whole transaction was rolled back and the caller may retry.
func IsBusy(err error) bool {
	pqErr, ok := err.(*pq.Error)
	if !ok {
		return false
	}

	code := string(pqErr.Code)

	return code == lockNotAvailable || code == deadlockDetected
}
