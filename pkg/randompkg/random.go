// Package randompkg provides functionality for generating random application common items.
package randompkg

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

const alphabet = "abcdefghijklmnopqrstuvwxyz"

// Intn is a shortcut for generating a random integer between 0 and max using crypto/rand.
func Intn(max int) int64 {
	nBig, err := rand.Int(rand.Reader, big.NewInt(int64(max)))
	if err != nil {
		panic(err)
	}

	return nBig.Int64()
}

// Int64Between generates a random integer between min and max.
func Int64Between(min, max int64) int64 {
	return min + Intn(int(max-min))
}

// String generates a random string of length n.
func String(n int) string {
	var sb strings.Builder

	k := len(alphabet)

	for i := 0; i < n; i++ {
		c := alphabet[Intn(k)]

		_ = sb.WriteByte(c) // The returned err is always nil.
	}

	return sb.String()
}

// Name generates a random display name.
func Name() string {
	return String(6)
}

// Email generates a random email.
func Email() string {
	return fmt.Sprintf("%s@email.com", String(10))
}

// AccountNumber generates a human readable account number of the form
// 110-XXX-XXXXXX. Uniqueness is enforced by the accounts table; callers retry
// on conflict.
func AccountNumber() string {
	return fmt.Sprintf("110-%03d-%06d", Intn(1000), Intn(1000000))
}

// MaskedCardNumber generates a masked card number of the form XXXX-****-****-XXXX.
func MaskedCardNumber() string {
	return fmt.Sprintf("%04d-****-****-%04d", Intn(10000), Intn(10000))
}

// AmountBetween generates a random amount of money in minor units between min and max.
func AmountBetween(min, max int64) int64 {
	return Int64Between(min, max)
}
