// Package db opens the relational store and keeps the schema migrated
package db

import (
	"fmt"

	"github.com/h91530/sns/model"
	"github.com/spf13/viper"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func New() (*gorm.DB, error) {
	var dialector gorm.Dialector

	dsn := viper.GetString("db.dsn")

	switch driver := viper.GetString("db.driver"); driver {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported db driver %q", driver)
	}

	db, err := gorm.Open(dialector)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database, %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		model.User{},
		model.CredentialToken{},
		model.Post{},
		model.PostLike{},
		model.Comment{},
		model.CommentReply{},
		model.CommentReaction{},
		model.Follow{},
		model.Friend{},
		model.Conversation{},
		model.Message{},
		model.Notification{},
		model.Inquiry{},
	)
	if err != nil {
		return fmt.Errorf("failed to automigrate tables, %w", err)
	}

	return nil
}
