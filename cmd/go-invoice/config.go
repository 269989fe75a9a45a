package main

import (
	"github.com/caarlos0/env/v11"

	invoicedelivery "github.com/goliatone/go-invoice/adapters/delivery"
	"github.com/goliatone/go-invoice/invoice"
)

// Config is the process configuration, loaded from the environment.
type Config struct {
	SMTPServer   string `env:"SMTP_SERVER" envDefault:"smtp.gmail.com"`
	SMTPPort     int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUsername string `env:"SMTP_USERNAME"`
	SMTPPassword string `env:"SMTP_PASSWORD"`
	FromEmail    string `env:"FROM_EMAIL"`

	TemplateDir string `env:"TEMPLATE_DIR" envDefault:"templates"`
	ArtifactDir string `env:"ARTIFACT_DIR" envDefault:"artifacts"`
	TrackerDSN  string `env:"TRACKER_DSN" envDefault:"file:invoice-runs.db"`

	PDFEngine   string `env:"PDF_ENGINE" envDefault:"chromium"`
	BrowserPath string `env:"BROWSER_PATH"`

	HTTPAddr      string `env:"HTTP_ADDR" envDefault:":3000"`
	ReminderAsync bool   `env:"REMINDER_ASYNC"`
	Debug         bool   `env:"DEBUG"`
}

// LoadConfig reads configuration from the environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, invoice.NewError(invoice.KindConfig, "parse environment failed", err)
	}
	return cfg, nil
}

// SMTP builds the mailer transport settings.
func (c Config) SMTP() invoicedelivery.SMTPConfig {
	return invoicedelivery.SMTPConfig{
		Host:     c.SMTPServer,
		Port:     c.SMTPPort,
		Username: c.SMTPUsername,
		Password: c.SMTPPassword,
		From:     c.FromEmail,
	}
}
