// Package config contains code to set the default values and read
// config files to be used throughout the whole application
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/spf13/pflag"
	v "github.com/spf13/viper"
)

var (
	validLogLevels = []string{"debug", "info", "warn", "error", "fatal"}
	validDBDrivers = []string{"sqlite", "postgres"}
)

func genSecret() string {
	b := make([]byte, 64)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// Setup prepares everything config-related so that the app can
// start working. Function will return an error if something
// is critically wrong and the application can't run because of
// that.
func Setup() error {
	pflag.Parse()
	v.BindPFlags(pflag.CommandLine)

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")

	v.AutomaticEnv()

	//
	// ENVS
	//
	v.BindEnv("app.log_level", "app_log_level")
	v.BindEnv("app.base_url", "app_base_url")

	v.BindEnv("host.port", "host_port")
	v.BindEnv("host.domain", "host_domain")
	v.BindEnv("host.ssl.enabled", "host_ssl_enabled")

	v.BindEnv("db.driver", "db_driver")
	v.BindEnv("db.dsn", "db_dsn")

	v.BindEnv("jwt.secret", "jwt_secret")

	v.BindEnv("smtp.host", "smtp_host")
	v.BindEnv("smtp.port", "smtp_port")
	v.BindEnv("smtp.user", "smtp_user")
	v.BindEnv("smtp.pass", "smtp_pass")
	v.BindEnv("smtp.from", "smtp_from")
	v.BindEnv("smtp.workers", "smtp_workers")

	v.BindEnv("auth.reset_token_ttl", "auth_reset_token_ttl")
	v.BindEnv("auth.change_code_ttl", "auth_change_code_ttl")

	v.BindEnv("inquiry.max_attachments", "inquiry_max_attachments")
	v.BindEnv("inquiry.max_attachment_size", "inquiry_max_attachment_size")
	v.BindEnv("inquiry.signed_url_ttl", "inquiry_signed_url_ttl")

	v.BindEnv("cloudflare.account_id", "cloudflare_account_id")
	v.BindEnv("cloudflare.access_key_id", "cloudflare_access_key_id")
	v.BindEnv("cloudflare.secret_access_key", "cloudflare_secret_access_key")
	v.BindEnv("cloudflare.bucket", "cloudflare_bucket")

	//
	// Defaults
	//
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.base_url", "http://localhost:3000")

	v.SetDefault("host.port", 8080)
	v.SetDefault("host.domain", "localhost")
	v.SetDefault("host.ssl.enabled", false)

	v.SetDefault("db.driver", "sqlite")
	v.SetDefault("db.dsn", "database.db")

	v.SetDefault("smtp.port", 465)
	v.SetDefault("smtp.workers", 2)

	// TTLs in minutes
	v.SetDefault("auth.reset_token_ttl", 60)
	v.SetDefault("auth.change_code_ttl", 10)

	v.SetDefault("inquiry.max_attachments", 3)
	v.SetDefault("inquiry.max_attachment_size", 5<<20)
	v.SetDefault("inquiry.signed_url_ttl", 3600)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(v.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config file, %w", err)
		}
	}

	if !slices.Contains(validLogLevels, v.GetString("app.log_level")) {
		return errors.New("invalid log level provided")
	}

	if v.GetInt("host.port") <= 0 {
		return errors.New("invalid port provided")
	}

	if !slices.Contains(validDBDrivers, v.GetString("db.driver")) {
		return errors.New("invalid db driver provided")
	}

	if v.GetString("db.dsn") == "" {
		return errors.New("db dsn can't be empty")
	}

	if v.GetString("jwt.secret") == "" {
		fmt.Println("WARNING: You haven't set a JWT secret, so it has been generated for you. Please set it as an environment variable or in the config.toml file.\nYour random JWT secret:\n\n" + genSecret() + "\n\nPaste it into your config.toml file.")
		os.Exit(0)
	}

	if v.GetInt("auth.reset_token_ttl") <= 0 {
		return errors.New("auth.reset_token_ttl must be bigger than 0")
	}

	if v.GetInt("auth.change_code_ttl") <= 0 {
		return errors.New("auth.change_code_ttl must be bigger than 0")
	}

	if v.GetString("smtp.host") == "" {
		fmt.Println("[WARNING]: No SMTP host configured. Password reset and change mails can't be delivered")
	}

	if v.GetString("cloudflare.bucket") != "" {
		if v.GetString("cloudflare.account_id") == "" {
			return errors.New("account id can't be empty")
		}
		if v.GetString("cloudflare.access_key_id") == "" {
			return errors.New("account access id can't be empty")
		}
		if v.GetString("cloudflare.secret_access_key") == "" {
			return errors.New("secret access key can't be empty")
		}
	}

	return nil
}
