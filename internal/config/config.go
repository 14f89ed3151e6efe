package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const configDir = ".reelix"
const configFile = "config.json"

type Config struct {
	Server       string `json:"server"`
	Username     string `json:"username,omitempty"`
	Token        string `json:"token,omitempty"`
	MediaKind    string `json:"media_kind,omitempty"`
	LastQuestion string `json:"last_question,omitempty"`
	Profile      string `json:"-"`
}

func configPath(profile string) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot find home directory: %w", err)
	}
	filename := configFile
	if profile != "" {
		filename = fmt.Sprintf("config-%s.json", profile)
	}
	return filepath.Join(home, configDir, filename), nil
}

func Load(profile string) (*Config, error) {
	path, err := configPath(profile)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{Profile: profile, MediaKind: "movie"}, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.Profile = profile
	if cfg.MediaKind == "" {
		cfg.MediaKind = "movie"
	}
	return &cfg, nil
}

func (c *Config) Save() error {
	path, err := configPath(c.Profile)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

func (c *Config) profileFlag() string {
	if c.Profile == "" {
		return ""
	}
	return " --profile " + c.Profile
}

func (c *Config) Validate() error {
	pf := c.profileFlag()
	if c.Server == "" {
		return fmt.Errorf("not logged in. Run: reelix%s login <server-url> -u <username> -p <password>", pf)
	}
	if c.Token == "" {
		return fmt.Errorf("not authenticated. Run: reelix%s login <server-url> -u <username> -p <password>", pf)
	}
	return nil
}

// ValidateKind rejects anything other than the two supported media kinds.
func ValidateKind(kind string) error {
	if kind != "movie" && kind != "tv" {
		return fmt.Errorf("invalid media kind %q (valid: movie, tv)", kind)
	}
	return nil
}

// ValidateFull additionally checks the media kind setting.
func (c *Config) ValidateFull() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := ValidateKind(c.MediaKind); err != nil {
		return fmt.Errorf("%w. Run: reelix%s set kind <movie|tv>", err, c.profileFlag())
	}
	return nil
}

// LogPath is where the debug log lives, next to the config files.
func LogPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot find home directory: %w", err)
	}
	return filepath.Join(home, configDir, "debug.log"), nil
}

func ListProfiles() ([]string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("cannot find home directory: %w", err)
	}
	dir := filepath.Join(home, configDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading config directory: %w", err)
	}
	var profiles []string
	for _, e := range entries {
		name := e.Name()
		if name == configFile {
			profiles = append(profiles, "default")
			continue
		}
		if strings.HasPrefix(name, "config-") && strings.HasSuffix(name, ".json") {
			profiles = append(profiles, strings.TrimSuffix(strings.TrimPrefix(name, "config-"), ".json"))
		}
	}
	return profiles, nil
}

func ProfileName(profile string) string {
	if profile == "" {
		return "default"
	}
	return profile
}
