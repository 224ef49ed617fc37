// Package config reads and writes the workspace INI file.
//
//	[defaults]
//	project = handbook
//	version = 1.2.0
//	level   = amateur
//	format  = markdown
//
//	[display]
//	sections = Getting Started, API Methods
//
//	[log]
//	level  = info
//	format = text
//
// Every key is optional. Values are validated on Load so a bad file is
// reported once, with its path, instead of at first use.
package config

import (
	"io"
	"os"
	"strings"

	"github.com/go-ini/ini"

	"github.com/ike5/CodeByLevelCLI/core/audience"
	"github.com/ike5/CodeByLevelCLI/core/compile"
	"github.com/ike5/CodeByLevelCLI/core/errors"
	"github.com/ike5/CodeByLevelCLI/core/version"
	"github.com/ike5/CodeByLevelCLI/internal/fileutil"
	"github.com/ike5/CodeByLevelCLI/internal/logging"
)

// Section and key names.
const (
	sectionDefaults = "defaults"
	sectionDisplay  = "display"
	sectionLog      = "log"
)

// Config is the parsed workspace configuration.
type Config struct {
	Defaults Defaults
	Display  Display
	Log      Log
}

// Defaults supply values for flags the user left out.
type Defaults struct {
	Project string
	Version string
	Level   string
	Format  string
}

// Display controls document layout.
type Display struct {
	// Sections are placed first, in this order, when compiling.
	Sections []string
}

// Log configures internal/logging.
type Log struct {
	Level  string
	Format string
}

// Load reads the config at path. A missing file yields an empty Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, errors.NewIO("read config", path, err)
	}
	return Parse(data, path)
}

// Parse decodes INI data. path is only used in error messages.
func Parse(data []byte, path string) (*Config, error) {
	f, err := parseFile(data, path)
	if err != nil {
		return nil, err
	}

	defaults := f.Section(sectionDefaults)
	log := f.Section(sectionLog)
	cfg := &Config{
		Defaults: Defaults{
			Project: defaults.Key("project").String(),
			Version: defaults.Key("version").String(),
			Level:   defaults.Key("level").String(),
			Format:  defaults.Key("format").String(),
		},
		Display: Display{
			Sections: SplitList(f.Section(sectionDisplay).Key("sections").String()),
		},
		Log: Log{
			Level:  log.Key("level").String(),
			Format: log.Key("format").String(),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, &errors.ParseError{Format: "INI", Path: path, Message: err.Error(), Err: err}
	}
	return cfg, nil
}

// Validate checks that every set value parses.
func (c *Config) Validate() error {
	if c.Defaults.Version != "" {
		if _, err := version.Parse(c.Defaults.Version); err != nil {
			return errors.Wrap(err, "defaults.version")
		}
	}
	if _, err := audience.ParseLevel(c.Defaults.Level); err != nil {
		return errors.Wrap(err, "defaults.level")
	}
	if c.Defaults.Format != "" {
		if _, err := compile.RendererFor(c.Defaults.Format); err != nil {
			return errors.Wrap(err, "defaults.format")
		}
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return errors.Wrap(err, "log.level")
	}
	if _, err := logging.ParseFormat(c.Log.Format); err != nil {
		return errors.Wrap(err, "log.format")
	}
	return nil
}

// Save writes c to path atomically. An existing file is updated in place:
// keys and sections Config does not know about are kept, and known keys
// whose value is empty are removed.
func (c *Config) Save(path string) error {
	f, err := loadFile(path)
	if err != nil {
		return err
	}

	set := func(section, key, value string) {
		if value == "" {
			if s, err := f.GetSection(section); err == nil {
				s.DeleteKey(key)
			}
			return
		}
		f.Section(section).Key(key).SetValue(value)
	}
	set(sectionDefaults, "project", c.Defaults.Project)
	set(sectionDefaults, "version", c.Defaults.Version)
	set(sectionDefaults, "level", c.Defaults.Level)
	set(sectionDefaults, "format", c.Defaults.Format)
	set(sectionDisplay, "sections", strings.Join(c.Display.Sections, ", "))
	set(sectionLog, "level", c.Log.Level)
	set(sectionLog, "format", c.Log.Format)

	return fileutil.Write(path, 0644, func(w io.Writer) error {
		_, err := f.WriteTo(w)
		return err
	})
}

// loadFile returns the INI file at path for updating, or an empty one when
// path does not exist yet.
func loadFile(path string) (*ini.File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return ini.Empty(loadOptions), nil
		}
		return nil, errors.NewIO("read config", path, err)
	}
	return parseFile(data, path)
}

var loadOptions = ini.LoadOptions{Insensitive: true}

func parseFile(data []byte, path string) (*ini.File, error) {
	f, err := ini.LoadSources(loadOptions, data)
	if err != nil {
		return nil, &errors.ParseError{Format: "INI", Path: path, Message: err.Error(), Err: err}
	}
	return f, nil
}

// DefaultVersion returns the configured default version, or nil.
func (c *Config) DefaultVersion() *version.Version {
	if c.Defaults.Version == "" {
		return nil
	}
	v, err := version.Parse(c.Defaults.Version)
	if err != nil {
		return nil
	}
	return &v
}

// SplitList splits a comma-separated value, trimming blanks and dropping
// empty items.
func SplitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
