package validators

import (
	"errors"
	"fmt"
)

// The two confirm paths enforce different minimums on purpose: the
// token-verified flows accept 5 characters, the plain current-to-new
// change requires 6. Do not unify without a product decision.
const (
	MinPasswordReset  = 5
	MinPasswordChange = 6
)

var (
	ErrPasswordEmpty   = errors.New("no password provided")
	ErrPasswordTooLong = errors.New("password is too long")
)

func PasswordValidator(p string, minLen int) error {
	if p == "" {
		return ErrPasswordEmpty
	}

	if len(p) < minLen {
		return fmt.Errorf("password must be at least %d characters long", minLen)
	}

	if len(p) > 255 {
		return ErrPasswordTooLong
	}

	return nil
}
