package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

// FileConfig is the YAML config file. Unset keys leave the flag defaults alone.
type FileConfig struct {
	LogLevel     string `yaml:"log_level" validate:"omitempty,oneof=trace debug info warn error off"`
	ParseMode    string `yaml:"parse_mode" validate:"omitempty,oneof=fast full"`
	ShowProgress *bool  `yaml:"show_progress"`
	Verify       *bool  `yaml:"verify"`
	StrictGaps   *bool  `yaml:"strict_gaps"`
	OneByteGap   string `yaml:"one_byte_gap" validate:"omitempty,oneof=leak error"`
	TagsAtEnd    *bool  `yaml:"tags_at_end"`
	Lock         *bool  `yaml:"lock"`
	Output       string `yaml:"output" validate:"omitempty,oneof=text json"`
}

// DefaultConfigPath is $XDG_CONFIG_HOME/mkvedit/config.yaml or its platform equivalent.
func DefaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "mkvedit", "config.yaml")
}

// LoadConfig reads and validates a config file. Unknown keys are rejected.
func LoadConfig(path string) (FileConfig, error) {
	var cfg FileConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := validate.Struct(cfg); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, formatValidationError(err))
	}
	return cfg, nil
}

func formatValidationError(err error) error {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) || len(errs) == 0 {
		return err
	}
	first := errs[0]
	return fmt.Errorf("%s: must be one of [%s], got %q", first.Field(), first.Param(), first.Value())
}

// ApplyConfig copies the config file values into opts for every flag the user did not set.
func (o *Options) ApplyConfig(cfg FileConfig, changed func(flag string) bool) {
	setString := func(flag string, dst *string, value string) {
		if value != "" && !changed(flag) {
			*dst = value
		}
	}
	setBool := func(flag string, dst *bool, value *bool) {
		if value != nil && !changed(flag) {
			*dst = *value
		}
	}

	setString("log-level", &o.LogLevel, cfg.LogLevel)
	setString("parse-mode", &o.ParseMode, cfg.ParseMode)
	setString("one-byte-gap", &o.OneByteGap, cfg.OneByteGap)
	setString("output", &o.Output, cfg.Output)
	setBool("progress", &o.Progress, cfg.ShowProgress)
	setBool("verify", &o.Verify, cfg.Verify)
	setBool("strict-gaps", &o.StrictGaps, cfg.StrictGaps)
	setBool("tags-at-end", &o.TagsAtEnd, cfg.TagsAtEnd)
	setBool("lock", &o.Lock, cfg.Lock)
}
