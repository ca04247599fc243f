package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Settings is the per-user settings file:
//
//	[user]
//	name = "Jane Doe"
//	email = "jane@example.com"
//
//	[log]
//	level = "debug"
type Settings struct {
	User struct {
		Name  string `toml:"name"`
		Email string `toml:"email"`
	} `toml:"user"`
	Log struct {
		Level string `toml:"level"`
	} `toml:"log"`
}

// Identity formats the user as "Name <email>", or "" when no name is set.
func (s Settings) Identity() string {
	name := strings.TrimSpace(s.User.Name)
	if name == "" {
		return ""
	}
	email := strings.TrimSpace(s.User.Email)
	return fmt.Sprintf("%s <%s>", name, email)
}

func defaultSettingsPath() string {
	if p := os.Getenv("WIT_CONFIG"); p != "" {
		return p
	}
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "wit", "config.toml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "wit", "config.toml")
}

// LoadSettings decodes the TOML file at path. A missing file yields zero
// settings.
func LoadSettings(path string) (Settings, error) {
	var s Settings
	if path == "" {
		return s, nil
	}
	if _, err := toml.DecodeFile(path, &s); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Settings{}, nil
		}
		return Settings{}, fmt.Errorf("settings %s: %w", path, err)
	}
	return s, nil
}
