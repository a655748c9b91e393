// Package config loads the narrow set of startup parameters this control
// core owns directly: PID gains, sensor thresholds, heater timeouts,
// planner headroom, TX low-water mark, and the hardware platform id. It is
// deliberately not a general-purpose printer config store — G-code object
// configuration remains an external collaborator per the motion
// controller's interfaces.
package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"nccore/pkg/ncerr"
)

// Config is a parsed INI-style file: [section] headers followed by
// "key: value" or "key = value" lines, with "#" comments and
// "[include glob]" directives for splitting platform-specific sections
// into separate files.
type Config struct {
	mu       sync.RWMutex
	sections map[string]*Section
	order    []string

	accessedSections map[string]struct{}
}

// New returns an empty Config.
func New() *Config {
	return &Config{
		sections:         make(map[string]*Section),
		accessedSections: make(map[string]struct{}),
	}
}

// Load reads path and any files it includes.
func Load(path string) (*Config, error) {
	c := New()
	visited := make(map[string]bool)
	if err := c.parseFile(path, visited); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadString parses data as a single in-memory config file, with no
// include support.
func LoadString(data string) (*Config, error) {
	c := New()
	if err := c.parseLines(strings.Split(data, "\n"), "<string>"); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) parseFile(path string, visited map[string]bool) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("config: invalid path %s: %w", path, err)
	}
	if visited[abs] {
		return fmt.Errorf("config: recursive include: %s", path)
	}
	visited[abs] = true
	defer delete(visited, abs)

	f, err := os.Open(abs)
	if err != nil {
		return fmt.Errorf("config: unable to open %s: %w", path, err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("config: error reading %s: %w", path, err)
	}
	return c.parseLinesWithIncludes(lines, path, filepath.Dir(abs), visited)
}

// parseLines parses lines with no include support (used by LoadString).
func (c *Config) parseLines(lines []string, source string) error {
	return c.parseLinesWithIncludes(lines, source, "", nil)
}

func (c *Config) parseLinesWithIncludes(lines []string, source, dir string, visited map[string]bool) error {
	var currentSection string
	var currentOptions map[string]string

	for lineNum, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if idx := strings.IndexByte(line, '#'); idx >= 0 {
			line = strings.TrimSpace(line[:idx])
			if line == "" {
				continue
			}
		}

		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			if currentSection != "" {
				c.addSection(currentSection, currentOptions)
			}
			header := strings.TrimSpace(line[1 : len(line)-1])
			if header == "" {
				return fmt.Errorf("config: empty section header at line %d in %s", lineNum+1, source)
			}

			if rest, ok := strings.CutPrefix(header, "include "); ok && visited != nil {
				spec := strings.TrimSpace(rest)
				if spec == "" {
					return fmt.Errorf("config: empty include at line %d in %s", lineNum+1, source)
				}
				glob := filepath.Join(dir, spec)
				matches, err := filepath.Glob(glob)
				if err != nil {
					return fmt.Errorf("config: invalid include pattern %q: %w", spec, err)
				}
				sort.Strings(matches)
				if len(matches) == 0 && !strings.ContainsAny(glob, "*?[") {
					return fmt.Errorf("config: include file does not exist: %s", glob)
				}
				for _, m := range matches {
					if err := c.parseFile(m, visited); err != nil {
						return err
					}
				}
				currentSection = ""
				currentOptions = nil
				continue
			}

			currentSection = header
			currentOptions = make(map[string]string)
			continue
		}

		if currentSection == "" {
			continue
		}

		kv := strings.SplitN(line, ":", 2)
		if len(kv) != 2 {
			kv = strings.SplitN(line, "=", 2)
		}
		if len(kv) != 2 {
			continue
		}
		key := strings.TrimSpace(kv[0])
		value := strings.TrimSpace(kv[1])
		if key == "" {
			continue
		}
		currentOptions[key] = value
	}

	if currentSection != "" {
		c.addSection(currentSection, currentOptions)
	}
	return nil
}

func (c *Config) addSection(name string, options map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.sections[name]; ok {
		for k, v := range options {
			existing.options[strings.ToLower(k)] = v
		}
		return
	}
	c.sections[name] = newSection(name, options)
	c.order = append(c.order, name)
}

// GetSection returns a Section by name, or a CodeConfigSection error.
func (c *Config) GetSection(name string) (*Section, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	sec, ok := c.sections[name]
	if !ok {
		return nil, ncerr.ConfigSectionError(name)
	}
	c.accessedSections[name] = struct{}{}
	return sec, nil
}

// GetSectionOptional returns a Section if present, or nil.
func (c *Config) GetSectionOptional(name string) *Section {
	c.mu.Lock()
	defer c.mu.Unlock()

	sec, ok := c.sections[name]
	if ok {
		c.accessedSections[name] = struct{}{}
	}
	return sec
}

// HasSection reports whether name exists.
func (c *Config) HasSection(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.sections[name]
	return ok
}

// GetPrefixSections returns every section whose name starts with prefix,
// in file order. Used to collect "sensor <name>" or "heater <name>"
// sections without knowing their names in advance.
func (c *Config) GetPrefixSections(prefix string) []*Section {
	c.mu.Lock()
	defer c.mu.Unlock()

	var result []*Section
	for _, name := range c.order {
		if strings.HasPrefix(name, prefix) {
			c.accessedSections[name] = struct{}{}
			result = append(result, c.sections[name])
		}
	}
	return result
}

// UnusedSections returns section names that were never looked up. Intended
// for a startup warning, not a hard failure.
func (c *Config) UnusedSections() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var result []string
	for name := range c.sections {
		if _, ok := c.accessedSections[name]; !ok {
			result = append(result, name)
		}
	}
	sort.Strings(result)
	return result
}
