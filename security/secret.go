package security

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"math/big"

	"github.com/h91530/sns/model"
)

const resetSecretSize = 32

// NewResetSecret returns a random hex secret for password-reset links.
func NewResetSecret() (string, error) {
	b := make([]byte, resetSecretSize)

	_, err := rand.Read(b)
	if err != nil {
		return "", err
	}

	return hex.EncodeToString(b), nil
}

// NewChangeCode returns a 6-digit code for password-change verification mails.
func NewChangeCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}

	return big.NewInt(0).Add(n, big.NewInt(100000)).String(), nil
}

// HashSecret computes the hash under which a secret is stored and looked up.
// Change codes are prefixed so a code can never resolve as a reset token,
// not even through rows that predate the purpose column.
func HashSecret(purpose, secret string) string {
	if purpose == model.PurposeChange {
		secret = "change:" + secret
	}

	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}
