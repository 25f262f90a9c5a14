// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// FileName is the configuration document looked up in the configuration directory
const FileName = "restful-api.json"

// AuthMode selects the transport used to reach the entity API
type AuthMode string

const (
	AuthBasic    AuthMode = "basic"
	AuthOVH      AuthMode = "ovh"
	AuthKeystone AuthMode = "keystone"
)

const defaultTimeoutSeconds = 60

// Config holds the entity API configuration
// Note: Only URL, Auth, Timeout and OVHEndpoint are stored in the target config.
// Credentials are read from the configuration file or environment variables
// to avoid storing secrets in the database.
type Config struct {
	// Stored in target config (non-sensitive)
	URL         string   `json:"url"`         // https://api.example.com/entities
	Auth        AuthMode `json:"auth"`        // basic, ovh or keystone
	Timeout     int      `json:"timeout"`     // seconds
	OVHEndpoint string   `json:"ovhEndpoint"` // ovh-eu, ovh-ca, ... (ovh auth only)

	// Read from the configuration file or environment variables only (never stored)
	Username          string `json:"-"` // From RESTFUL_USERNAME
	Password          string `json:"-"` // From RESTFUL_PASSWORD
	ApplicationKey    string `json:"-"` // From OVH_APPLICATION_KEY
	ApplicationSecret string `json:"-"` // From OVH_APPLICATION_SECRET
	ConsumerKey       string `json:"-"` // From OVH_CONSUMER_KEY

	// OpenStack identity, keystone auth only
	Keystone KeystoneCredentials `json:"-"`
}

// KeystoneCredentials authenticate against an OpenStack identity service.
// They are always read from the standard OS_* environment variables.
type KeystoneCredentials struct {
	AuthURL        string
	Username       string
	Password       string
	ProjectID      string
	UserDomainName string
}

func keystoneFromEnv() KeystoneCredentials {
	domain := os.Getenv("OS_USER_DOMAIN_NAME")
	if domain == "" {
		domain = "Default"
	}
	return KeystoneCredentials{
		AuthURL:        os.Getenv("OS_AUTH_URL"),
		Username:       os.Getenv("OS_USERNAME"),
		Password:       os.Getenv("OS_PASSWORD"),
		ProjectID:      os.Getenv("OS_PROJECT_ID"),
		UserDomainName: domain,
	}
}

// DefaultPath returns where the configuration document is looked up.
// RESTFUL_CONFDIR takes precedence over the user configuration directory.
func DefaultPath() string {
	if dir := os.Getenv("RESTFUL_CONFDIR"); dir != "" {
		return filepath.Join(dir, FileName)
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return FileName
	}
	return filepath.Join(dir, "restful", FileName)
}

// LoadFile reads the configuration document at path, with RESTFUL_* environment
// variables taking precedence over its values. A missing file is not an error.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("json")
	v.SetEnvPrefix("RESTFUL")
	v.AutomaticEnv()
	v.SetDefault("auth", string(AuthBasic))
	v.SetDefault("timeout", defaultTimeoutSeconds)
	for _, key := range []string{"url", "username", "password", "auth", "timeout", "ovhEndpoint"} {
		// AutomaticEnv only applies to keys viper already knows about
		_ = v.BindEnv(key, "RESTFUL_"+strings.ToUpper(key))
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("couldn't load its configuration at %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("couldn't load its configuration at %s: %w", path, err)
		}
	}

	return &Config{
		URL:               v.GetString("url"),
		Auth:              AuthMode(strings.ToLower(v.GetString("auth"))),
		Timeout:           v.GetInt("timeout"),
		OVHEndpoint:       v.GetString("ovhEndpoint"),
		Username:          v.GetString("username"),
		Password:          v.GetString("password"),
		ApplicationKey:    os.Getenv("OVH_APPLICATION_KEY"),
		ApplicationSecret: os.Getenv("OVH_APPLICATION_SECRET"),
		ConsumerKey:       os.Getenv("OVH_CONSUMER_KEY"),
		Keystone:          keystoneFromEnv(),
	}, nil
}

// FromTargetConfig extracts configuration from a TargetConfig JSON.
// The configuration document and environment provide defaults and credentials;
// non-sensitive values from the target config override them.
func FromTargetConfig(targetConfig json.RawMessage) (*Config, error) {
	return FromTargetConfigWithFile(targetConfig, DefaultPath())
}

// FromTargetConfigWithFile is FromTargetConfig with an explicit configuration document
func FromTargetConfigWithFile(targetConfig json.RawMessage, path string) (*Config, error) {
	cfg, err := LoadFile(path)
	if err != nil {
		return nil, err
	}

	// Read non-sensitive config from target
	if len(targetConfig) > 0 {
		var target Config
		if err := json.Unmarshal(targetConfig, &target); err != nil {
			return nil, fmt.Errorf("failed to unmarshal target config: %w", err)
		}
		if target.URL != "" {
			cfg.URL = target.URL
		}
		if target.Auth != "" {
			cfg.Auth = AuthMode(strings.ToLower(string(target.Auth)))
		}
		if target.Timeout != 0 {
			cfg.Timeout = target.Timeout
		}
		if target.OVHEndpoint != "" {
			cfg.OVHEndpoint = target.OVHEndpoint
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the configuration can reach the entity API
func (c *Config) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("url is required (set RESTFUL_URL, provide it in %s or in the target config)", FileName)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative, got %d", c.Timeout)
	}

	switch c.Auth {
	case AuthBasic, "":
		if err := validateAbsoluteURL(c.URL); err != nil {
			return err
		}
		if c.Username == "" {
			return fmt.Errorf("username is required (set RESTFUL_USERNAME or provide it in %s)", FileName)
		}
		if c.Password == "" {
			return fmt.Errorf("password is required (set RESTFUL_PASSWORD or provide it in %s)", FileName)
		}
	case AuthOVH:
		if !strings.HasPrefix(c.URL, "/") {
			return fmt.Errorf("url %q must be an API path such as /me/entities when auth is ovh", c.URL)
		}
		if c.ApplicationKey == "" {
			return fmt.Errorf("OVH_APPLICATION_KEY environment variable is required")
		}
		if c.ApplicationSecret == "" {
			return fmt.Errorf("OVH_APPLICATION_SECRET environment variable is required")
		}
		if c.ConsumerKey == "" {
			return fmt.Errorf("OVH_CONSUMER_KEY environment variable is required")
		}
	case AuthKeystone:
		if err := validateAbsoluteURL(c.URL); err != nil {
			return err
		}
		required := []struct{ env, value string }{
			{"OS_AUTH_URL", c.Keystone.AuthURL},
			{"OS_USERNAME", c.Keystone.Username},
			{"OS_PASSWORD", c.Keystone.Password},
			{"OS_PROJECT_ID", c.Keystone.ProjectID},
		}
		for _, r := range required {
			if r.value == "" {
				return fmt.Errorf("%s environment variable is required when auth is keystone", r.env)
			}
		}
	default:
		return fmt.Errorf("unsupported auth %q (expected %s, %s or %s)", c.Auth, AuthBasic, AuthOVH, AuthKeystone)
	}
	return nil
}

func validateAbsoluteURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("url %q is not valid: %w", raw, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("url %q must be an absolute http or https URL", raw)
	}
	return nil
}

// RequestTimeout returns the per-request timeout
func (c *Config) RequestTimeout() time.Duration {
	if c.Timeout == 0 {
		return defaultTimeoutSeconds * time.Second
	}
	return time.Duration(c.Timeout) * time.Second
}
