package game

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	pinFloor       = 100000
	pinSpan        = 900000
	maxPinAttempts = 10
)

// PinGenerator returns a candidate PIN. Uniqueness is checked by the caller.
type PinGenerator func() (string, error)

// RandomPin draws a six digit PIN in [100000, 999999].
func RandomPin() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(pinSpan))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+pinFloor), nil
}

// ValidPin reports whether pin is six ASCII digits without a leading zero.
func ValidPin(pin string) bool {
	if len(pin) != 6 || pin[0] == '0' {
		return false
	}
	for i := 0; i < len(pin); i++ {
		if pin[i] < '0' || pin[i] > '9' {
			return false
		}
	}
	return true
}
