package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"

	"github.com/dgallion1/nbtoc/internal/augment"
	"github.com/dgallion1/nbtoc/internal/outline"
	"github.com/dgallion1/nbtoc/internal/page"
	"github.com/dgallion1/nbtoc/internal/parser"
)

// DefaultFile is read when no config path is given.
const DefaultFile = "nbtoc.yml"

// EnvPrefix marks environment overrides. A double underscore separates
// sections: NBTOC_TOC__THRESHOLD sets toc.threshold.
const EnvPrefix = "NBTOC_"

type Config struct {
	Server  ServerConfig      `yaml:"server" koanf:"server"`
	TOC     TOCConfig         `yaml:"toc" koanf:"toc"`
	Sidebar SidebarConfig     `yaml:"sidebar" koanf:"sidebar"`
	Display page.DisplayState `yaml:"display" koanf:"display"`
	Parser  parser.Options    `yaml:"parser" koanf:"parser"`
	Site    SiteConfig        `yaml:"site" koanf:"site"`
}

type ServerConfig struct {
	Port   string `yaml:"port" koanf:"port"`
	APIKey string `yaml:"api_key" koanf:"api_key"`

	// Worker pool
	WorkerCount  int `yaml:"worker_count" koanf:"worker_count"`
	MaxQueueSize int `yaml:"max_queue_size" koanf:"max_queue_size"`

	// Upload limits
	MaxUploadBytes int64 `yaml:"max_upload_bytes" koanf:"max_upload_bytes"`

	// Job state
	JobTTL    time.Duration `yaml:"job_ttl" koanf:"job_ttl"`
	CacheSize int           `yaml:"cache_size" koanf:"cache_size"` // Augmented results kept in memory; 0 disables.
}

type TOCConfig struct {
	Threshold      int    `yaml:"threshold" koanf:"threshold"`
	NumberSections bool   `yaml:"number_sections" koanf:"number_sections"`
	StripChars     string `yaml:"strip_chars" koanf:"strip_chars"`   // Empty disables stripping.
	EscapeChars    string `yaml:"escape_chars" koanf:"escape_chars"` // Empty escapes whitespace only.
}

type SidebarConfig struct {
	Homepage     string `yaml:"homepage" koanf:"homepage"`
	HomepageHref string `yaml:"homepage_href" koanf:"homepage_href"`
	Logo         string `yaml:"logo" koanf:"logo"`
	Controls     bool   `yaml:"controls" koanf:"controls"`
}

type SiteConfig struct {
	Title       string   `yaml:"title" koanf:"title"` // Heading of the site index.
	Input       string   `yaml:"input" koanf:"input"`
	Output      string   `yaml:"output" koanf:"output"`
	Include     []string `yaml:"include,omitempty" koanf:"include"` // Empty means every supported file.
	Exclude     []string `yaml:"exclude,omitempty" koanf:"exclude"`
	Concurrency int      `yaml:"concurrency" koanf:"concurrency"`
	Index       bool     `yaml:"index" koanf:"index"` // Write index.html listing every page.
}

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           "8090",
			WorkerCount:    4,
			MaxQueueSize:   100,
			MaxUploadBytes: 52428800, // 50MB
			JobTTL:         1 * time.Hour,
			CacheSize:      256,
		},
		TOC: TOCConfig{
			Threshold:      outline.DefaultThreshold,
			NumberSections: true,
			StripChars:     outline.DefaultStripChars,
			EscapeChars:    outline.DefaultEscapeChars,
		},
		Sidebar: SidebarConfig{
			Homepage:     "Home",
			HomepageHref: "../index.html",
			Controls:     true,
		},
		Parser: parser.Options{
			DropJavaScript: true,
			WrapWidth:      100,
		},
		Site: SiteConfig{
			Title:       "Notebooks",
			Input:       ".",
			Output:      "site",
			Concurrency: 4,
			Index:       true,
		},
	}
}

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (NBTOC_*). An empty path reads DefaultFile
// when it exists; an explicit path must exist.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if explicit || !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}
	return cfg, nil
}

func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Validate checks values shared by every command.
func (c *Config) Validate() error {
	if c.TOC.Threshold < 1 || c.TOC.Threshold > 6 {
		return fmt.Errorf("toc.threshold must be between 1 and 6, got %d", c.TOC.Threshold)
	}
	if c.Parser.WrapWidth < 0 {
		return fmt.Errorf("parser.wrap_width must be non-negative")
	}
	if c.Parser.MinHeaderLevel < 0 || c.Parser.MinHeaderLevel > 6 {
		return fmt.Errorf("parser.min_header_level must be between 0 and 6, got %d", c.Parser.MinHeaderLevel)
	}
	if c.Site.Concurrency < 0 {
		return fmt.Errorf("site.concurrency must be non-negative")
	}
	return nil
}

// ValidateServer additionally checks what the HTTP service needs.
func (c *Config) ValidateServer() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Server.APIKey == "" {
		return fmt.Errorf("server.api_key is required (NBTOC_SERVER__API_KEY)")
	}
	if c.Server.WorkerCount <= 0 {
		return fmt.Errorf("server.worker_count must be positive")
	}
	if c.Server.MaxQueueSize <= 0 {
		return fmt.Errorf("server.max_queue_size must be positive")
	}
	if c.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("server.max_upload_bytes must be positive")
	}
	if c.Server.JobTTL <= 0 {
		return fmt.Errorf("server.job_ttl must be positive")
	}
	if c.Server.CacheSize < 0 {
		return fmt.Errorf("server.cache_size must be non-negative")
	}
	return nil
}

// Outline returns the numbering configuration.
func (c *Config) Outline() outline.Config {
	return outline.Config{
		Threshold:      c.TOC.Threshold,
		NumberSections: c.TOC.NumberSections,
		StripChars:     c.TOC.StripChars,
		EscapeChars:    c.TOC.EscapeChars,
	}
}

// Augment returns the options for augmenter runs.
func (c *Config) Augment() augment.Options {
	return augment.Options{
		TOC: c.Outline(),
		Sidebar: page.SidebarOptions{
			Homepage:     c.Sidebar.Homepage,
			HomepageHref: c.Sidebar.HomepageHref,
			Logo:         c.Sidebar.Logo,
			Controls:     c.Sidebar.Controls,
		},
		Display: c.Display,
	}
}
