package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"gopkg.in/yaml.v3"
)

const (
	appName      = "easyip"
	siteFile     = "site.yaml"
	databaseFile = "easyip.db"
)

// fileMutex serialises writes from this process.
var fileMutex sync.Mutex

// GetConfigDir returns the OS-appropriate configuration directory:
//   - Linux: $XDG_CONFIG_HOME/easyip or $HOME/.config/easyip
//   - macOS: $HOME/.config/easyip
//   - Windows: %LOCALAPPDATA%\easyip
func GetConfigDir() (string, error) {
	switch runtime.GOOS {
	case "windows":
		if localAppData := os.Getenv("LOCALAPPDATA"); localAppData != "" {
			return filepath.Join(localAppData, appName), nil
		}
		userProfile := os.Getenv("USERPROFILE")
		if userProfile == "" {
			return "", fmt.Errorf("cannot determine user profile directory (LOCALAPPDATA and USERPROFILE not set)")
		}
		return filepath.Join(userProfile, "AppData", "Local", appName), nil

	case "darwin":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		return filepath.Join(homeDir, ".config", appName), nil

	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, appName), nil
		}
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		return filepath.Join(homeDir, ".config", appName), nil
	}
}

// GetConfigPath returns the default site file path.
func GetConfigPath() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, siteFile), nil
}

// DatabasePath returns the tracker database path: the preference when set,
// otherwise a file next to the site file.
func (s *Site) DatabasePath() (string, error) {
	if s.Preferences != nil && s.Preferences.DatabasePath != "" {
		return s.Preferences.DatabasePath, nil
	}
	if s.path != "" {
		return filepath.Join(filepath.Dir(s.path), databaseFile), nil
	}
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, databaseFile), nil
}

// Path returns the file the site was loaded from or will be saved to.
func (s *Site) Path() string {
	return s.path
}

// LoadDefault loads the site from the default path.
func LoadDefault() (*Site, error) {
	path, err := GetConfigPath()
	if err != nil {
		return nil, fmt.Errorf("failed to get config path: %w", err)
	}
	return Load(path)
}

// Load reads the site file at path. A missing file yields a default site
// that will be saved to path.
func Load(path string) (*Site, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		site := NewSite()
		site.path = path
		return site, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var site Site
	if err := yaml.Unmarshal(data, &site); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if site.Version != 1 {
		return nil, fmt.Errorf("unsupported config version: %d (expected 1)", site.Version)
	}

	if site.Preferences == nil {
		site.Preferences = DefaultPreferences()
	}
	site.Preferences.fillDefaults()
	if site.Columns == nil {
		site.Columns = &Columns{}
	}
	if site.Nicknames == nil {
		site.Nicknames = make(map[string]string)
	}
	for _, g := range site.Groups {
		for i, mac := range g.Devices {
			g.Devices[i] = normalizeMAC(mac)
		}
	}
	site.path = path
	return &site, nil
}

// Save writes the site to the path it was loaded from.
func (s *Site) Save() error {
	if s.path == "" {
		return fmt.Errorf("site has no path")
	}
	return s.SaveAs(s.path)
}

// SaveAs writes the site to path atomically and makes path the site's
// file from then on.
func (s *Site) SaveAs(path string) error {
	fileMutex.Lock()
	defer fileMutex.Unlock()

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	header := []byte("# easyip site file\n# Location: " + path + "\n\n")
	data = append(header, data...)

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temporary config file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to save config file: %w", err)
	}
	s.path = path
	return nil
}
