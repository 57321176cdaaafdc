package populate

import (
	_ "embed"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueyaml "cuelang.org/go/encoding/yaml"
	"gopkg.in/yaml.v3"

	"github.com/roach88/metastore/internal/adapters"
	"github.com/roach88/metastore/internal/mapper"
)

//go:embed schema.cue
var configSchema string

// ConfigError reports an invalid population configuration.
type ConfigError struct {
	Path    string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("config %s: %s: %v", e.Path, e.Message, e.Err)
	}
	return fmt.Sprintf("config %s: %s", e.Path, e.Message)
}

// Unwrap returns the underlying error.
func (e *ConfigError) Unwrap() error { return e.Err }

// SelectField is an optional prefilter applied before loading: only
// records whose named discovery field equals the given value are kept.
type SelectField struct {
	FieldName  string `yaml:"field_name"`
	FieldValue string `yaml:"field_value"`
}

// Source describes one external metadata source to pull from.
type Source struct {
	// Adapter is the registered adapter name.
	Adapter string `yaml:"adapter"`

	// URL is the source's base endpoint.
	URL string `yaml:"url"`

	// Filters are the adapter-specific request parameters.
	Filters map[string]any `yaml:"filters"`

	// FieldMappings produce normalized fields per record.
	FieldMappings mapper.Spec `yaml:"field_mappings"`

	// PerItemValues override fields of individual records by GUID.
	PerItemValues map[string]map[string]any `yaml:"per_item_values"`

	// KeepOriginalFields overlays mapped fields onto the raw item.
	KeepOriginalFields bool `yaml:"keep_original_fields"`

	// SelectField, when set, drops records not matching it.
	SelectField *SelectField `yaml:"select_field"`
}

// Config is a population run configuration: a set of named sources plus
// shared outbound request pacing.
type Config struct {
	// RequestsPerSecond caps outbound request rate across a run.
	// Zero disables pacing.
	RequestsPerSecond float64 `yaml:"requests_per_second"`

	// Sources maps source names to their definitions.
	Sources map[string]Source `yaml:"sources"`
}

// LoadConfig reads, schema-validates, and decodes a YAML population
// configuration.
func LoadConfig(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigError{Path: path, Message: "reading config", Err: err}
	}

	if err := validateSchema(raw); err != nil {
		return nil, &ConfigError{Path: path, Message: "schema validation failed", Err: err}
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, &ConfigError{Path: path, Message: "decoding config", Err: err}
	}

	if err := cfg.Validate(); err != nil {
		return nil, &ConfigError{Path: path, Message: "invalid config", Err: err}
	}
	return &cfg, nil
}

// validateSchema checks the raw YAML against the embedded CUE schema
// before decoding, so shape errors surface with schema context.
func validateSchema(raw []byte) error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(configSchema, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return err
	}
	return cueyaml.Validate(raw, schema)
}

// Validate checks the decoded configuration: every source must name a
// registered adapter, carry a URL, and have well-formed field mappings.
func (c *Config) Validate() error {
	if len(c.Sources) == 0 {
		return fmt.Errorf("no sources defined")
	}
	for name, src := range c.Sources {
		if _, err := adapters.New(src.Adapter, src.URL, nil); err != nil {
			return fmt.Errorf("source %q: %w", name, err)
		}
		if src.URL == "" {
			return fmt.Errorf("source %q: url is required", name)
		}
		if err := src.FieldMappings.Validate(); err != nil {
			return fmt.Errorf("source %q: %w", name, err)
		}
	}
	return nil
}
