package repo

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	format "github.com/go-git/go-git/v5/plumbing/format/config"
	"github.com/willothy/wit/pkg/object"
)

// SupportedFormatVersion is the only core.repositoryformatversion accepted.
const SupportedFormatVersion = 0

// Config is the INI-style .git/config file.
type Config struct {
	raw *format.Config
}

// NewConfig returns an empty config.
func NewConfig() *Config {
	return &Config{raw: format.New()}
}

// DefaultConfig returns the config written by Create.
func DefaultConfig() *Config {
	c := NewConfig()
	c.Set("core", "repositoryformatversion", strconv.Itoa(SupportedFormatVersion))
	c.Set("core", "filemode", "false")
	c.Set("core", "bare", "false")
	return c
}

// DecodeConfig parses config text.
func DecodeConfig(r io.Reader) (*Config, error) {
	c := NewConfig()
	if err := format.NewDecoder(r).Decode(c.raw); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return c, nil
}

// ReadConfig reads and parses the config file at path.
func ReadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read config: %w", object.ErrIO, err)
	}
	return DecodeConfig(bytes.NewReader(data))
}

// Encode writes the config as INI text.
func (c *Config) Encode(w io.Writer) error {
	if err := format.NewEncoder(w).Encode(c.raw); err != nil {
		return fmt.Errorf("%w: encode config: %w", object.ErrIO, err)
	}
	return nil
}

// Get returns the value of key in section. A dotted section such as
// "remote.origin" addresses a subsection.
func (c *Config) Get(section, key string) (string, bool) {
	s := c.section(section)
	if s == nil || !s.HasOption(key) {
		return "", false
	}
	return s.Option(key), true
}

// Set stores value under section/key, replacing any previous values.
func (c *Config) Set(section, key, value string) {
	name, sub, ok := strings.Cut(section, ".")
	if !ok {
		c.raw.Section(name).SetOption(key, value)
		return
	}
	c.raw.Section(name).Subsection(sub).SetOption(key, value)
}

// optionReader is satisfied by both sections and subsections.
type optionReader interface {
	HasOption(key string) bool
	Option(key string) string
}

func (c *Config) section(section string) optionReader {
	name, sub, ok := strings.Cut(section, ".")
	if !c.raw.HasSection(name) {
		return nil
	}
	s := c.raw.Section(name)
	if !ok {
		return s
	}
	if !s.HasSubsection(sub) {
		return nil
	}
	return s.Subsection(sub)
}

// FormatVersion returns core.repositoryformatversion.
func (c *Config) FormatVersion() (int, error) {
	v, ok := c.Get("core", "repositoryformatversion")
	if !ok {
		return 0, fmt.Errorf("%w: core.repositoryformatversion is not set", ErrFormatVersion)
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("%w: core.repositoryformatversion %q", ErrFormatVersion, v)
	}
	return n, nil
}

// Bare reports core.bare.
func (c *Config) Bare() bool {
	return c.boolean("core", "bare")
}

// FileMode reports core.filemode.
func (c *Config) FileMode() bool {
	return c.boolean("core", "filemode")
}

func (c *Config) boolean(section, key string) bool {
	v, ok := c.Get(section, key)
	if !ok {
		return false
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	return err == nil && b
}

func (c *Config) validate() error {
	v, err := c.FormatVersion()
	if err != nil {
		return err
	}
	if v != SupportedFormatVersion {
		return fmt.Errorf("%w: unsupported repositoryformatversion %d", ErrFormatVersion, v)
	}
	return nil
}
