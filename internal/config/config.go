package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/henemm/weather-email-autobot/internal/domain"
)

// ErrConfig marks fatal configuration errors. Callers distinguish these
// from recoverable data-availability gaps with errors.Is.
var ErrConfig = errors.New("configuration error")

// Service holds deployment-level settings read from the environment.
type Service struct {
	HTTPAddr        string        `envconfig:"HTTP_ADDR" default:":8080"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat       string        `envconfig:"LOG_FORMAT" default:"json"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`

	ConfigFile string `envconfig:"CONFIG_FILE" default:"config.yaml"`

	KafkaBrokers      []string `envconfig:"KAFKA_BROKERS" default:"localhost:9092"`
	KafkaSamplesTopic string   `envconfig:"KAFKA_SAMPLES_TOPIC" default:"forecast-samples"`
	KafkaReportsTopic string   `envconfig:"KAFKA_REPORTS_TOPIC" default:"route-reports"`
	KafkaGroupID      string   `envconfig:"KAFKA_GROUP_ID" default:"weather-autobot"`
}

// Schedule fixes the daemon's report times and the dynamic check cadence.
type Schedule struct {
	Morning            string `yaml:"morning"`
	Evening            string `yaml:"evening"`
	DynamicIntervalMin int    `yaml:"dynamic_interval_min"`
}

// Limits are the dynamic-report rate limits.
type Limits struct {
	MinIntervalMin  int `yaml:"min_interval_min"`
	MaxDailyDynamic int `yaml:"max_daily_dynamic"`
}

// Windows fixes the hour ranges of the day and night aggregation windows.
type Windows struct {
	DayStart   int `yaml:"day_start"`
	DayEnd     int `yaml:"day_end"`
	NightStart int `yaml:"night_start"`
	NightEnd   int `yaml:"night_end"`
}

// appFile mirrors the YAML layout of the domain config file.
type appFile struct {
	StartDate       string             `yaml:"start_date"`
	RouteFile       string             `yaml:"route_file"`
	StateRoot       string             `yaml:"state_root"`
	MaxChars        int                `yaml:"max_chars"`
	Schedule        Schedule           `yaml:"schedule"`
	Limits          Limits             `yaml:"limits"`
	Windows         Windows            `yaml:"windows"`
	Thresholds      map[string]any     `yaml:"thresholds"`
	DeltaThresholds map[string]float64 `yaml:"delta_thresholds"`
}

// Config holds all settings for one autobot process.
type Config struct {
	Service

	StartDate time.Time
	RouteFile string
	StateRoot string
	MaxChars  int
	Schedule  Schedule
	Limits    Limits
	Windows   Windows

	Thresholds map[domain.ParameterID]domain.Threshold
	Deltas     map[domain.ParameterID]float64
}

// Parameters that must carry a relevance threshold; leaving one out of the
// config is a fatal error, not a data gap.
var requiredThresholds = []domain.ParameterID{
	domain.RainProbability,
	domain.RainAmount,
	domain.WindSpeed,
	domain.WindGust,
	domain.Temperature,
	domain.Thunderstorm,
}

// Load reads service settings from the environment and the domain config
// from the YAML file named by CONFIG_FILE.
func Load() (*Config, error) {
	var svc Service
	if err := envconfig.Process("", &svc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfig, err)
	}

	data, err := os.ReadFile(svc.ConfigFile)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrConfig, svc.ConfigFile, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}
	cfg.Service = svc
	return cfg, nil
}

// Parse decodes and validates the YAML domain config.
func Parse(data []byte) (*Config, error) {
	var file appFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfig, err)
	}

	startDate, err := time.Parse("2006-01-02", file.StartDate)
	if err != nil {
		return nil, fmt.Errorf("%w: start_date %q: expected YYYY-MM-DD", ErrConfig, file.StartDate)
	}
	if file.RouteFile == "" {
		return nil, fmt.Errorf("%w: route_file is required", ErrConfig)
	}
	if file.StateRoot == "" {
		return nil, fmt.Errorf("%w: state_root is required", ErrConfig)
	}

	thresholds, err := buildThresholds(file.Thresholds)
	if err != nil {
		return nil, err
	}
	for _, id := range requiredThresholds {
		if _, ok := thresholds[id]; !ok {
			return nil, fmt.Errorf("%w: thresholds.%s is required", ErrConfig, id)
		}
	}

	deltas, err := buildDeltas(file.DeltaThresholds)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		StartDate:  startDate,
		RouteFile:  file.RouteFile,
		StateRoot:  file.StateRoot,
		MaxChars:   file.MaxChars,
		Schedule:   file.Schedule,
		Limits:     file.Limits,
		Windows:    file.Windows,
		Thresholds: thresholds,
		Deltas:     deltas,
	}
	applyDefaults(cfg)

	if _, err := ParseClockTime(cfg.Schedule.Morning); err != nil {
		return nil, fmt.Errorf("%w: schedule.morning: %v", ErrConfig, err)
	}
	if _, err := ParseClockTime(cfg.Schedule.Evening); err != nil {
		return nil, fmt.Errorf("%w: schedule.evening: %v", ErrConfig, err)
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.MaxChars == 0 {
		cfg.MaxChars = 160
	}
	if cfg.Schedule.Morning == "" {
		cfg.Schedule.Morning = "04:30"
	}
	if cfg.Schedule.Evening == "" {
		cfg.Schedule.Evening = "19:00"
	}
	if cfg.Schedule.DynamicIntervalMin == 0 {
		cfg.Schedule.DynamicIntervalMin = 30
	}
	if cfg.Limits.MinIntervalMin == 0 {
		cfg.Limits.MinIntervalMin = 90
	}
	if cfg.Limits.MaxDailyDynamic == 0 {
		cfg.Limits.MaxDailyDynamic = 3
	}
	if cfg.Windows == (Windows{}) {
		cfg.Windows = Windows{DayStart: 4, DayEnd: 22, NightStart: 22, NightEnd: 5}
	}
}

// buildThresholds converts the mixed-scalar YAML threshold map into typed
// thresholds: numbers for numeric parameters, level names for ordinal ones.
func buildThresholds(raw map[string]any) (map[domain.ParameterID]domain.Threshold, error) {
	out := make(map[domain.ParameterID]domain.Threshold, len(raw))
	for key, value := range raw {
		id := domain.ParameterID(key)
		spec, err := domain.SpecFor(id)
		if err != nil {
			return nil, fmt.Errorf("%w: thresholds.%s: %v", ErrConfig, key, err)
		}

		if spec.Ordinal {
			name, ok := value.(string)
			if !ok {
				return nil, fmt.Errorf("%w: thresholds.%s: expected a severity level name", ErrConfig, key)
			}
			level, err := domain.ParseSeverity(name)
			if err != nil {
				return nil, fmt.Errorf("%w: thresholds.%s: %v", ErrConfig, key, err)
			}
			out[id] = domain.Threshold{Level: level}
			continue
		}

		num, ok := asFloat(value)
		if !ok {
			return nil, fmt.Errorf("%w: thresholds.%s: expected a number", ErrConfig, key)
		}
		out[id] = domain.Threshold{Num: num}
	}
	return out, nil
}

func buildDeltas(raw map[string]float64) (map[domain.ParameterID]float64, error) {
	out := make(map[domain.ParameterID]float64, len(raw))
	for key, value := range raw {
		id := domain.ParameterID(key)
		if _, err := domain.SpecFor(id); err != nil {
			return nil, fmt.Errorf("%w: delta_thresholds.%s: %v", ErrConfig, key, err)
		}
		out[id] = value
	}
	return out, nil
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}

// ThresholdFor returns the relevance threshold for a parameter, or nil when
// none is configured (the analyzer then skips crossing detection). The
// thunderstorm outlook shares the thunderstorm threshold.
func (c *Config) ThresholdFor(id domain.ParameterID) *domain.Threshold {
	if id == domain.ThunderstormOutlook {
		id = domain.Thunderstorm
	}
	t, ok := c.Thresholds[id]
	if !ok {
		return nil
	}
	return &t
}

// DeltaFor returns the change-detection delta for a numeric parameter.
// Ordinal parameters trigger on any level change and carry no delta.
func (c *Config) DeltaFor(id domain.ParameterID) (float64, bool) {
	d, ok := c.Deltas[id]
	return d, ok
}

// MinInterval is the minimum spacing between dynamic reports.
func (c *Config) MinInterval() time.Duration {
	return time.Duration(c.Limits.MinIntervalMin) * time.Minute
}

// ParseClockTime parses an "HH:MM" schedule entry into hour and minute.
func ParseClockTime(s string) ([2]int, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return [2]int{}, fmt.Errorf("invalid time %q: expected HH:MM", s)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return [2]int{}, fmt.Errorf("invalid time %q: out of range", s)
	}
	return [2]int{h, m}, nil
}
