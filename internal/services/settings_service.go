// Package services – SettingsService
//
// Runtime-editable key/value settings. Defaults are seeded at startup
// without overwriting edits. open_hour and close_hour are informational:
// the booking calendar comes from static configuration.
package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"github.com/tbourn/go-booking-backend/internal/config"
	"github.com/tbourn/go-booking-backend/internal/delivery"
	"github.com/tbourn/go-booking-backend/internal/repo"
	"github.com/tbourn/go-booking-backend/internal/sysutil"
)

// Setting keys.
const (
	SettingBusinessName  = "business_name"
	SettingBotEnabled    = "bot_enabled"
	SettingInstructions  = "instructions"
	SettingOpenHour      = "open_hour"
	SettingCloseHour     = "close_hour"
	SettingDeliveryToken = "delivery_token"
	SettingDeliveryURL   = "delivery_url"
)

// maskedValue replaces secrets in Public.
const maskedValue = "********"

var validators = map[string]func(string) error{
	SettingBusinessName:  nonEmpty,
	SettingBotEnabled:    isBool,
	SettingInstructions:  func(string) error { return nil },
	SettingOpenHour:      isHour,
	SettingCloseHour:     isHour,
	SettingDeliveryToken: func(string) error { return nil },
	SettingDeliveryURL:   isURL,
}

// SettingsService reads and writes runtime settings.
type SettingsService struct {
	DB       *gorm.DB
	Defaults map[string]string
	// Fallback delivery credentials when the settings leave them empty.
	Delivery config.DeliveryConfig
}

// NewSettingsService builds the defaults from cfg.
func NewSettingsService(db *gorm.DB, cfg config.Config) *SettingsService {
	return &SettingsService{
		DB: db,
		Defaults: map[string]string{
			SettingBusinessName: cfg.Business.Name,
			SettingBotEnabled:   "true",
			SettingInstructions: cfg.Business.DefaultPrompt,
			SettingOpenHour:     strconv.Itoa(cfg.Business.OpenHour),
			SettingCloseHour:    strconv.Itoa(cfg.Business.CloseHour),
		},
		Delivery: cfg.Delivery,
	}
}

// Seed inserts missing defaults.
func (s *SettingsService) Seed(ctx context.Context) error {
	return repo.SeedSettings(ctx, s.DB, s.Defaults)
}

// All returns stored settings over the defaults.
func (s *SettingsService) All(ctx context.Context) (map[string]string, error) {
	stored, err := repo.AllSettings(ctx, s.DB)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(s.Defaults)+len(stored))
	for k, v := range s.Defaults {
		out[k] = v
	}
	for k, v := range stored {
		out[k] = v
	}
	return out, nil
}

// Public is All with secrets masked.
func (s *SettingsService) Public(ctx context.Context) (map[string]string, error) {
	all, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	if all[SettingDeliveryToken] != "" {
		all[SettingDeliveryToken] = maskedValue
	}
	return all, nil
}

// Get returns one setting, falling back to its default.
func (s *SettingsService) Get(ctx context.Context, key string) (string, error) {
	v, err := repo.GetSetting(ctx, s.DB, key)
	if repo.IsNotFound(err) {
		return s.Defaults[key], nil
	}
	return v, err
}

// Update validates and stores a partial set of settings.
func (s *SettingsService) Update(ctx context.Context, kv map[string]string) (map[string]string, error) {
	clean := make(map[string]string, len(kv))
	for k, v := range kv {
		k = strings.TrimSpace(k)
		validate, ok := validators[k]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownSetting, k)
		}
		v = strings.TrimSpace(v)
		if err := validate(v); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidSetting, k, err)
		}
		if k == SettingBotEnabled {
			b, _ := sysutil.ParseFlag(v)
			v = strconv.FormatBool(b)
		}
		clean[k] = v
	}
	if err := repo.SetSettings(ctx, s.DB, clean); err != nil {
		return nil, err
	}
	return s.Public(ctx)
}

// BotEnabled reports whether the assistant answers inbound messages.
// Unparsable values count as enabled.
func (s *SettingsService) BotEnabled(ctx context.Context) (bool, error) {
	v, err := s.Get(ctx, SettingBotEnabled)
	if err != nil {
		return false, err
	}
	b, ok := sysutil.ParseFlag(v)
	if !ok {
		return true, nil
	}
	return b, nil
}

// ToggleBot flips bot_enabled and returns the new value.
func (s *SettingsService) ToggleBot(ctx context.Context) (bool, error) {
	cur, err := s.BotEnabled(ctx)
	if err != nil {
		return false, err
	}
	next := !cur
	if err := repo.SetSettings(ctx, s.DB, map[string]string{SettingBotEnabled: strconv.FormatBool(next)}); err != nil {
		return false, err
	}
	return next, nil
}

// DeliveryCredentials resolves gateway credentials, settings first. It
// satisfies delivery.CredentialsFunc.
func (s *SettingsService) DeliveryCredentials(ctx context.Context) delivery.Credentials {
	out := delivery.Credentials{URL: s.Delivery.APIURL, Token: s.Delivery.Token}
	if v, err := s.Get(ctx, SettingDeliveryURL); err == nil && v != "" {
		out.URL = v
	}
	if v, err := s.Get(ctx, SettingDeliveryToken); err == nil && v != "" {
		out.Token = v
	}
	return out
}

func nonEmpty(v string) error {
	if v == "" {
		return fmt.Errorf("must not be empty")
	}
	return nil
}

func isBool(v string) error {
	if _, ok := sysutil.ParseFlag(v); !ok {
		return fmt.Errorf("%q is not a boolean", v)
	}
	return nil
}

func isHour(v string) error {
	h, err := strconv.Atoi(v)
	if err != nil {
		return err
	}
	if h < 0 || h > 24 {
		return fmt.Errorf("hour %d out of range", h)
	}
	return nil
}

func isURL(v string) error {
	if v == "" || strings.HasPrefix(v, "http://") || strings.HasPrefix(v, "https://") {
		return nil
	}
	return fmt.Errorf("must be an http(s) URL")
}
