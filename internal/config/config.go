package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const defaultRoundIntervalDays = 7

// Date is a wrapper around time.Time for YAML date parsing.
type Date struct {
	Time time.Time
}

func (d *Date) UnmarshalYAML(value *yaml.Node) error {
	t, err := time.Parse("2006-01-02", value.Value)
	if err != nil {
		return fmt.Errorf("invalid date %q: %w", value.Value, err)
	}
	d.Time = t
	return nil
}

// IsZero reports whether the date was left unset.
func (d Date) IsZero() bool {
	return d.Time.IsZero()
}

type BlackoutDate struct {
	Date   Date   `yaml:"date"`
	Reason string `yaml:"reason"`
}

// Season places rounds on a calendar. It is optional; without a start date
// rounds are numbered only.
type Season struct {
	StartDate         Date           `yaml:"start_date"`
	RoundIntervalDays *int           `yaml:"round_interval_days"`
	BlackoutDates     []BlackoutDate `yaml:"blackout_dates"`
}

// Interval returns the number of days between consecutive rounds.
func (s Season) Interval() int {
	if s.RoundIntervalDays == nil {
		return defaultRoundIntervalDays
	}
	return *s.RoundIntervalDays
}

type Tournament struct {
	Name         string   `yaml:"name"`
	Participants []string `yaml:"participants"`
}

type Config struct {
	Season      Season       `yaml:"season"`
	Ordering    string       `yaml:"ordering"`
	Tournaments []Tournament `yaml:"tournaments"`
}

// Tournament returns the tournament with the given name.
func (c *Config) Tournament(name string) (Tournament, bool) {
	for _, t := range c.Tournaments {
		if t.Name == name {
			return t, true
		}
	}
	return Tournament{}, false
}

// LoadFromBytes parses YAML bytes into a Config and validates it.
func LoadFromBytes(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFromFile reads and parses a YAML config file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return LoadFromBytes(data)
}

// ValidateParticipants checks a participant list before it is handed to the
// scheduler: at least two entries, none blank, no duplicates.
func ValidateParticipants(names []string) error {
	if len(names) < 2 {
		return fmt.Errorf("at least 2 participants are required, got %d", len(names))
	}
	seen := make(map[string]int)
	for i, name := range names {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("participant %d has an empty name", i+1)
		}
		if prev, ok := seen[name]; ok {
			return fmt.Errorf("participant %q is listed twice (entries %d and %d)", name, prev+1, i+1)
		}
		seen[name] = i
	}
	return nil
}

func (c *Config) validate() error {
	if len(c.Tournaments) == 0 {
		return fmt.Errorf("at least one tournament is required")
	}

	seen := make(map[string]bool)
	for i, t := range c.Tournaments {
		if strings.TrimSpace(t.Name) == "" {
			return fmt.Errorf("tournament %d has no name", i+1)
		}
		if seen[t.Name] {
			return fmt.Errorf("tournament %q is defined twice", t.Name)
		}
		seen[t.Name] = true

		if err := ValidateParticipants(t.Participants); err != nil {
			return fmt.Errorf("tournament %q: %w", t.Name, err)
		}
	}

	if c.Season.Interval() < 1 {
		return fmt.Errorf("round_interval_days must be at least 1, got %d", c.Season.Interval())
	}
	if c.Season.StartDate.IsZero() && len(c.Season.BlackoutDates) > 0 {
		return fmt.Errorf("blackout_dates require a season start_date")
	}

	return nil
}
