package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

const discountCodePrefix = "RC10-"

const base36Alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// GenerateVerificationCode draws a 4-digit code uniformly over 1000-9999.
func GenerateVerificationCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(9000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%04d", n.Int64()+1000), nil
}

// GenerateDiscountCode draws one candidate discount code of the form
// RC10-XXXXXX with six random base-36 uppercase characters. Uniqueness
// against storage is the caller's responsibility.
func GenerateDiscountCode() (string, error) {
	var sb strings.Builder
	sb.WriteString(discountCodePrefix)
	for i := 0; i < 6; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(base36Alphabet))))
		if err != nil {
			return "", err
		}
		sb.WriteByte(base36Alphabet[n.Int64()])
	}
	return sb.String(), nil
}
