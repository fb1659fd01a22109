// Package service contains background and domain services shared by handlers
package service

import (
	"errors"
	"time"

	"github.com/h91530/sns/model"
	"github.com/h91530/sns/security"
	"github.com/spf13/viper"
	"gorm.io/gorm"
)

var (
	// ErrTokenNotFound means no token row matches the presented secret
	ErrTokenNotFound = errors.New("token not found")
	// ErrTokenGone covers both expired and already-used tokens. The two are
	// deliberately not told apart so responses can't leak which one it was.
	ErrTokenGone = errors.New("token expired or used")
)

const tokenCleanupAfter = 60 * 24 * time.Hour

// Tokens issues and validates single-use credential tokens (password-reset
// links and password-change codes)
type Tokens struct {
	DB *gorm.DB
}

func NewTokens(db *gorm.DB) *Tokens {
	return &Tokens{DB: db}
}

// Issue creates a fresh secret for the given user and purpose, persists its
// hash and marks every older unused token of the same user and purpose as
// used. Supersede and insert run in one transaction so a crash can't leave
// two active tokens behind. The plaintext secret is returned exactly once,
// for mail delivery, and never stored or logged.
func (t *Tokens) Issue(userID, purpose string) (string, error) {
	var (
		secret string
		err    error
		ttl    time.Duration
	)

	switch purpose {
	case model.PurposeReset:
		secret, err = security.NewResetSecret()
		ttl = time.Duration(viper.GetInt("auth.reset_token_ttl")) * time.Minute
	case model.PurposeChange:
		secret, err = security.NewChangeCode()
		ttl = time.Duration(viper.GetInt("auth.change_code_ttl")) * time.Minute
	default:
		return "", errors.New("unknown token purpose")
	}
	if err != nil {
		return "", err
	}

	now := time.Now()
	cleanupAt := now.Add(tokenCleanupAfter)

	row := model.CredentialToken{
		UserID:    userID,
		TokenHash: security.HashSecret(purpose, secret),
		Purpose:   purpose,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
		CleanupAt: &cleanupAt,
	}

	err = t.DB.Transaction(func(tx *gorm.DB) error {
		err := tx.
			Model(model.CredentialToken{}).
			Where("user_id = ? AND purpose = ? AND used_at IS NULL", userID, purpose).
			Update("used_at", now).
			Error
		if err != nil {
			return err
		}

		return tx.Create(&row).Error
	})
	if err != nil {
		return "", err
	}

	return secret, nil
}

// Validate resolves a presented plaintext secret to its token row. Returns
// ErrTokenNotFound if no row carries the hash, ErrTokenGone if the newest
// matching row is used or expired. Performs no mutation.
func (t *Tokens) Validate(purpose, secret string) (*model.CredentialToken, error) {
	var row model.CredentialToken

	err := t.DB.
		Where("token_hash = ? AND purpose = ?", security.HashSecret(purpose, secret), purpose).
		Order("created_at DESC, id DESC").
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTokenNotFound
		}

		return nil, err
	}

	if row.UsedAt != nil || row.ExpiresAt.Before(time.Now()) {
		return nil, ErrTokenGone
	}

	return &row, nil
}

// Consume marks a token used. The conditional update is the single gate for
// consumption: of two concurrent confirms holding the same row, exactly one
// sees RowsAffected == 1.
func (t *Tokens) Consume(tokenID int) (bool, error) {
	r := t.DB.
		Model(model.CredentialToken{}).
		Where("id = ? AND used_at IS NULL", tokenID).
		Update("used_at", time.Now())
	if r.Error != nil {
		return false, r.Error
	}

	return r.RowsAffected == 1, nil
}

// InvalidateOthers marks every unused token of a user as used except the
// one just consumed. Called after a successful rotation is durable.
func (t *Tokens) InvalidateOthers(userID string, exceptID int) error {
	return t.DB.
		Model(model.CredentialToken{}).
		Where("user_id = ? AND id <> ? AND used_at IS NULL", userID, exceptID).
		Update("used_at", time.Now()).
		Error
}
