package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/coursebill/coursebill/internal/types"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

type Configuration struct {
	Deployment DeploymentConfig `validate:"required"`
	Server     ServerConfig     `validate:"required"`
	Logging    LoggingConfig    `validate:"required"`
	Payment    PaymentConfig    `validate:"required"`
	Calendar   CalendarConfig   `validate:"required"`
	Webhook    WebhookConfig
}

type DeploymentConfig struct {
	Mode types.RunMode `validate:"required"`
}

type ServerConfig struct {
	Address string `validate:"required"`
}

type LoggingConfig struct {
	Level types.LogLevel `validate:"required"`
}

// PaymentConfig carries the recognized payment schedule options.
// WithdrawalPeriodDays captures the statutory 14-day withdrawal right
// plus a safety margin; an order may never be charged before it elapses.
type PaymentConfig struct {
	Currency             string         `validate:"required,len=3"`
	WithdrawalPeriodDays int            `mapstructure:"withdrawal_period_days" validate:"required,gte=14"`
	ReminderPeriodDays   int            `mapstructure:"reminder_period_days" validate:"required,gt=0"`
	ScheduleTiers        []ScheduleTier `mapstructure:"schedule_tiers" validate:"required,min=1,dive"`
}

// ScheduleTier maps a total-amount threshold (in whole currency units) to the
// percentage split applied to totals at or below it. Tiers must be declared in
// ascending threshold order; the largest tier also serves totals above it.
type ScheduleTier struct {
	Threshold int64 `mapstructure:"threshold" validate:"required,gt=0"`
	Parts     []int `mapstructure:"parts" validate:"required,min=1,dive,gt=0"`
}

// ThresholdAmount returns the tier threshold as an exact decimal
func (t ScheduleTier) ThresholdAmount() decimal.Decimal {
	return decimal.NewFromInt(t.Threshold)
}

type CalendarConfig struct {
	Country string `validate:"required,len=2"`
}

type WebhookConfig struct {
	Topic string
}

func NewConfig() (*Configuration, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./internal/config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/coursebill")

	// Set up environment variables support
	v.SetEnvPrefix("COURSEBILL")
	v.SetEnvKeyReplacer(strings.NewReplacer(
		".", "_",
		"-", "_",
	))
	v.AutomaticEnv()

	setDefaults(v)

	// Read config file if exists
	if err := v.ReadInConfig(); err != nil {
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, err
		}
	}

	var config Configuration
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	// A broken configuration is a fatal startup error, never a per-order failure
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("deployment.mode", string(types.ModeLocal))
	v.SetDefault("server.address", ":8080")
	v.SetDefault("logging.level", string(types.LogLevelInfo))
	v.SetDefault("payment.currency", "EUR")
	v.SetDefault("payment.withdrawal_period_days", 16)
	v.SetDefault("payment.reminder_period_days", 2)
	v.SetDefault("payment.schedule_tiers", []map[string]interface{}{
		{"threshold": 150, "parts": []int{30, 70}},
		{"threshold": 500, "parts": []int{30, 35, 35}},
		{"threshold": 1000, "parts": []int{20, 30, 30, 20}},
	})
	v.SetDefault("calendar.country", "FR")
	v.SetDefault("webhook.topic", "order_events")
}

func (c Configuration) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return err
	}
	return c.Payment.validateTiers()
}

// validateTiers enforces the structural invariants of the tier table:
// ascending thresholds and percentage tuples summing to exactly 100.
func (p PaymentConfig) validateTiers() error {
	if len(p.ScheduleTiers) == 0 {
		return fmt.Errorf("payment schedule tiers must not be empty")
	}

	if !sort.SliceIsSorted(p.ScheduleTiers, func(i, j int) bool {
		return p.ScheduleTiers[i].Threshold < p.ScheduleTiers[j].Threshold
	}) {
		return fmt.Errorf("payment schedule tiers must be declared in ascending threshold order")
	}

	for _, tier := range p.ScheduleTiers {
		sum := 0
		for _, part := range tier.Parts {
			sum += part
		}
		if sum != 100 {
			return fmt.Errorf("payment schedule tier %d percentages sum to %d, want 100", tier.Threshold, sum)
		}
	}

	return nil
}

// GetDefaultConfig returns a default configuration for local development
// This is useful for running scripts or other non-web applications
func GetDefaultConfig() *Configuration {
	return &Configuration{
		Deployment: DeploymentConfig{Mode: types.ModeLocal},
		Server:     ServerConfig{Address: ":8080"},
		Logging:    LoggingConfig{Level: types.LogLevelDebug},
		Payment: PaymentConfig{
			Currency:             "EUR",
			WithdrawalPeriodDays: 16,
			ReminderPeriodDays:   2,
			ScheduleTiers: []ScheduleTier{
				{Threshold: 150, Parts: []int{30, 70}},
				{Threshold: 500, Parts: []int{30, 35, 35}},
				{Threshold: 1000, Parts: []int{20, 30, 30, 20}},
			},
		},
		Calendar: CalendarConfig{Country: "FR"},
		Webhook:  WebhookConfig{Topic: "order_events"},
	}
}
