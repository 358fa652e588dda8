package internal

import (
	"errors"
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"

	"github.com/doctavious/snippext/internal/apperr"
	"github.com/doctavious/snippext/internal/models"
	pkgconfig "github.com/doctavious/snippext/pkg/config"
)

// DefaultConfigFile is read when no config file is named explicitly.
const DefaultConfigFile = "snippext.yaml"

// Log formats.
const (
	LogFormatJSON = "json"
	LogFormatText = "text"
)

// Config represents the application configuration: logging plus the
// snippet settings, which live at the top level of the file.
type Config struct {
	LogLevel        slog.Level `yaml:"log_level" json:"log_level"`
	LogFormat       string     `yaml:"log_format" json:"log_format"`
	models.Settings `yaml:",inline"`
}

// UnmarshalYAML decodes over the defaults already in c. A file that sets
// templates replaces the default templates instead of adding to them.
func (c *Config) UnmarshalYAML(node *yaml.Node) error {
	if hasKey(node, "templates") {
		c.Templates = nil
	}
	type plain Config
	return node.Decode((*plain)(c))
}

func hasKey(node *yaml.Node, key string) bool {
	if node.Kind != yaml.MappingNode {
		return false
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return true
		}
	}
	return false
}

// Validate validates the configuration and reports every problem at once.
func (c *Config) Validate() error {
	var problems []string
	if err := validation.ValidateStruct(c,
		validation.Field(&c.LogFormat, validation.Required, validation.In(LogFormatJSON, LogFormatText)),
	); err != nil {
		var errs validation.Errors
		if errors.As(err, &errs) {
			for field, fieldErr := range errs {
				problems = append(problems, field+": "+fieldErr.Error())
			}
		} else {
			return err
		}
	}

	if err := c.Settings.Validate(); err != nil {
		var verr *apperr.ValidationError
		if !errors.As(err, &verr) {
			return err
		}
		problems = append(problems, verr.Problems...)
	}

	if len(problems) > 0 {
		return &apperr.ValidationError{Problems: problems}
	}
	return nil
}

// NewDefaultConfig returns a new Config with the embedded default settings.
func NewDefaultConfig() *Config {
	return &Config{
		LogLevel:  slog.LevelInfo,
		LogFormat: LogFormatJSON,
		Settings:  *models.NewDefaultSettings(),
	}
}

// LoadConfig reads filename over the defaults without validating. When
// explicit is false a missing file leaves the defaults in place.
func LoadConfig(filename string, explicit bool) (*Config, error) {
	cfg := NewDefaultConfig()
	found, err := pkgconfig.ReadOptional(filename, cfg)
	if err != nil {
		return nil, err
	}
	if !found && explicit {
		return nil, fmt.Errorf("config file %s: %w", filename, apperr.ErrNotFound)
	}
	return cfg, nil
}
