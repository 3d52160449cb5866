package activitylog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// FileConfig is the YAML configuration of a deployment:
//
//	log_name: audit
//	redact: [password]
//	models:
//	  posts:
//	    log_attributes: [title, author.name, meta->seo.title]
//	    log_only_dirty: true
type FileConfig struct {
	LogName string             `yaml:"log_name"`
	Redact  []string           `yaml:"redact"`
	Models  map[string]Options `yaml:"models"`
}

// LoadConfig reads and validates a YAML configuration file.
func LoadConfig(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("activitylog: failed to read config file: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes YAML configuration. Attribute references are parsed
// here so malformed ones fail at load time.
func ParseConfig(data []byte) (*FileConfig, error) {
	var cfg FileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("activitylog: failed to parse config file: %w", err)
	}

	for name, opts := range cfg.Models {
		if _, err := ParseReferences(opts.LogAttributes); err != nil {
			return nil, fmt.Errorf("activitylog: model %s: %w", name, err)
		}
		for _, e := range opts.Events {
			if !knownEvent(e) {
				return nil, fmt.Errorf("activitylog: model %s: unknown event %q", name, e)
			}
		}
		if len(opts.Events) == 0 {
			opts.Events = DefaultEvents
			cfg.Models[name] = opts
		}
	}

	return &cfg, nil
}

// Apply copies the file settings onto cfg.
func (c *FileConfig) Apply(cfg Config) Config {
	if c.LogName != "" {
		cfg.LogName = c.LogName
	}
	if len(c.Redact) > 0 {
		redact := make(RedactMap, len(cfg.Redact)+len(c.Redact))
		for k, fn := range cfg.Redact {
			redact[k] = fn
		}
		for _, k := range c.Redact {
			redact[k] = Mask
		}
		cfg.Redact = redact
	}
	return cfg
}

func knownEvent(e Event) bool {
	switch e {
	case EventCreated, EventUpdated, EventDeleted,
		EventPivotAttached, EventPivotDetached, EventPivotUpdated:
		return true
	default:
		return false
	}
}
