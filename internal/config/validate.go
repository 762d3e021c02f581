package config

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/google/uuid"

	"scriptgen/internal/domain"
)

// Validate checks everything the script generator needs and normalizes the
// database id. Failures are returned as *domain.ConfigError.
func (c *Config) Validate() error {
	if err := c.ValidateNotion(); err != nil {
		return err
	}

	checks := []struct {
		field string
		err   error
	}{
		{"openai", c.OpenAI.validate()},
		{"sync", c.Sync.validate()},
		{"database", c.Database.validate()},
		{"rabbitmq", c.RabbitMQ.validate()},
		{"log_level", validation.Validate(c.LogLevel, validation.In("debug", "info", "warn", "error"))},
	}
	for _, check := range checks {
		if check.err != nil {
			return &domain.ConfigError{Field: check.field, Err: check.err}
		}
	}

	return nil
}

// ValidateNotion checks only the database connection settings. The thumbnail
// job does not talk to the language model.
func (c *Config) ValidateNotion() error {
	if err := c.Notion.validate(); err != nil {
		return &domain.ConfigError{Field: "notion", Err: err}
	}
	if err := c.API.validate(); err != nil {
		return &domain.ConfigError{Field: "api", Err: err}
	}

	id, err := NormalizeDatabaseID(c.Notion.DatabaseID)
	if err != nil {
		return &domain.ConfigError{Field: "notion.database_id", Reason: "not a valid id", Err: err}
	}
	c.Notion.DatabaseID = id

	return nil
}

// NormalizeDatabaseID accepts the dashed form and the 32 character form found
// in database URLs and returns the dashed form.
func NormalizeDatabaseID(raw string) (string, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

func (n NotionConfig) validate() error {
	return validation.ValidateStruct(&n,
		validation.Field(&n.Token, validation.Required.Error(EnvNotionToken+" is not set")),
		validation.Field(&n.DatabaseID, validation.Required.Error(EnvNotionDatabaseID+" is not set")),
		validation.Field(&n.BaseURL, validation.Required, is.URL),
		validation.Field(&n.Version, validation.Required),
		validation.Field(&n.PageSize, validation.Min(1), validation.Max(100)),
		validation.Field(&n.Properties),
	)
}

func (p PropertiesConfig) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Title, validation.Required),
		validation.Field(&p.Status, validation.Required),
		validation.Field(&p.StatusType, validation.In("select", "status")),
	)
}

func (a APIConfig) validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.Timeout, validation.Required),
		validation.Field(&a.Retry),
	)
}

func (r RetryConfig) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.MaxAttempts, validation.Min(1)),
		validation.Field(&r.InitialBackoff, validation.Required),
		validation.Field(&r.MaxBackoff, validation.Required, validation.Min(r.InitialBackoff)),
	)
}

func (o OpenAIConfig) validate() error {
	return validation.ValidateStruct(&o,
		validation.Field(&o.APIKey, validation.Required.Error(EnvOpenAIKey+" is not set")),
		validation.Field(&o.Endpoint, validation.Required, is.URL),
		validation.Field(&o.Model, validation.Required),
		validation.Field(&o.MaxTokens, validation.Min(1)),
		validation.Field(&o.Temperature, validation.NotNil, validation.Min(0.0), validation.Max(2.0)),
	)
}

func (s SyncConfig) validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Interval, validation.Required),
		validation.Field(&s.ErrorBackoff, validation.Required),
		validation.Field(&s.CycleTimeout, validation.Required),
	)
}

func (d DatabaseConfig) validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.Host, validation.When(d.Enabled, validation.Required)),
		validation.Field(&d.DBName, validation.When(d.Enabled, validation.Required)),
		validation.Field(&d.User, validation.When(d.Enabled, validation.Required)),
	)
}

func (r RabbitMQConfig) validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.URL, validation.When(r.Enabled, validation.Required)),
		validation.Field(&r.Exchange, validation.When(r.Enabled, validation.Required)),
		validation.Field(&r.QueueName, validation.When(r.Enabled, validation.Required)),
	)
}
