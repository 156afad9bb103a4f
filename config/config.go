package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/sirupsen/logrus"

	"github.com/ftl/ais-nmea/ais"
	"github.com/ftl/ais-nmea/filter"
	"github.com/ftl/ais-nmea/sentence"
)

// DefaultConfigPath is the configuration file used if no other file is given.
const DefaultConfigPath = "aisctl.toml"

// The kinds of message sources.
const (
	SourceSerial = "serial"
	SourceTCP    = "tcp"
	SourceFile   = "file"
)

type Config struct {
	Source    SourceConfig    `toml:"source"`
	Assembler AssemblerConfig `toml:"assembler"`
	Send      SendConfig      `toml:"send"`
	Filter    FilterConfig    `toml:"filter"`
	MQTT      MQTTConfig      `toml:"mqtt"`
	API       APIConfig       `toml:"api"`
	Log       LogConfig       `toml:"log"`
}

type SourceConfig struct {
	Kind         string    `toml:"kind"`
	Port         string    `toml:"port,omitempty"`
	Baud         int       `toml:"baud"`
	Hosts        []string  `toml:"hosts"`
	Reconnect    string    `toml:"reconnect"`
	MaxReconnect string    `toml:"max_reconnect"`
	DialTimeout  string    `toml:"dial_timeout"`
	File         string    `toml:"file,omitempty"`
	Tag          TagConfig `toml:"tag"`
}

type TagConfig struct {
	BaseStation ais.MMSI `toml:"base_station"`
	Region      string   `toml:"region"`
	Country     string   `toml:"country"`
}

type AssemblerConfig struct {
	MaxAge    string `toml:"max_age"`
	MaxGroups int    `toml:"max_groups"`
}

type SendConfig struct {
	Talker  string `toml:"talker"`
	Timeout string `toml:"timeout"`
}

type FilterConfig struct {
	Definition string            `toml:"definition"`
	Countries  map[string]string `toml:"countries"`
}

type MQTTConfig struct {
	Enabled     bool   `toml:"enabled"`
	Broker      string `toml:"broker"`
	ClientID    string `toml:"client_id"`
	Username    string `toml:"username,omitempty"`
	Password    string `toml:"password,omitempty"`
	TopicPrefix string `toml:"topic_prefix"`
	QoS         byte   `toml:"qos"`
	Retained    bool   `toml:"retained"`
}

type APIConfig struct {
	Enabled bool   `toml:"enabled"`
	Addr    string `toml:"addr"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
	Trace  string `toml:"trace,omitempty"`
}

func Default() Config {
	return Config{
		Source: SourceConfig{
			Kind:         SourceSerial,
			Baud:         38400,
			Hosts:        []string{},
			Reconnect:    "5s",
			MaxReconnect: "1m",
			DialTimeout:  "10s",
		},
		Assembler: AssemblerConfig{
			MaxAge:    "10s",
			MaxGroups: sentence.DefaultMaxGroups,
		},
		Send: SendConfig{
			Talker:  "AI",
			Timeout: "10s",
		},
		Filter: FilterConfig{
			Countries: map[string]string{},
		},
		MQTT: MQTTConfig{
			Broker:      "tcp://localhost:1883",
			ClientID:    "aisctl",
			TopicPrefix: "ais",
		},
		API: APIConfig{
			Addr: "localhost:8374",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads the configuration file. A missing file is an error.
func Load(path string) (Config, error) {
	cfg, exists, err := LoadOrDefault(path)
	if err != nil {
		return Config{}, err
	}
	if !exists {
		return Config{}, os.ErrNotExist
	}
	return cfg, nil
}

// LoadOrDefault reads the configuration file. If the file does not exist, it returns the default
// configuration.
func LoadOrDefault(path string) (Config, bool, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, false, nil
		}
		return Config{}, false, fmt.Errorf("read config: %w", err)
	}

	if err := Parse(data, &cfg); err != nil {
		return Config{}, true, err
	}
	return cfg, true, nil
}

// Parse reads the TOML data into the given configuration and validates the result.
func Parse(data []byte, cfg *Config) error {
	decoder := toml.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	cfg.normalize()
	return cfg.Validate()
}

// Save writes the configuration as TOML.
func (cfg Config) Save(path string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func (cfg *Config) Validate() error {
	switch cfg.Source.Kind {
	case SourceSerial:
	case SourceTCP:
		if len(cfg.Source.Hosts) == 0 {
			return fmt.Errorf("source.hosts must not be empty for a tcp source")
		}
	case SourceFile:
		if cfg.Source.File == "" {
			return fmt.Errorf("source.file must not be empty for a file source")
		}
	default:
		return fmt.Errorf("unknown source.kind: %q", cfg.Source.Kind)
	}
	if cfg.Source.Tag.BaseStation > ais.MaxMMSI {
		return fmt.Errorf("source.tag.base_station out of range: %d", cfg.Source.Tag.BaseStation)
	}

	durations := map[string]string{
		"source.reconnect":     cfg.Source.Reconnect,
		"source.max_reconnect": cfg.Source.MaxReconnect,
		"source.dial_timeout":  cfg.Source.DialTimeout,
		"assembler.max_age":    cfg.Assembler.MaxAge,
		"send.timeout":         cfg.Send.Timeout,
	}
	for name, value := range durations {
		if _, err := parseDuration(value); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	if cfg.Assembler.MaxGroups <= 0 {
		return fmt.Errorf("assembler.max_groups must be positive: %d", cfg.Assembler.MaxGroups)
	}
	if len(cfg.Send.Talker) != 2 {
		return fmt.Errorf("send.talker must have two characters: %q", cfg.Send.Talker)
	}

	if _, err := cfg.SourceFilter(); err != nil {
		return fmt.Errorf("filter.definition: %w", err)
	}

	if cfg.MQTT.Enabled && cfg.MQTT.Broker == "" {
		return fmt.Errorf("mqtt.broker must not be empty")
	}
	if cfg.MQTT.QoS > 2 {
		return fmt.Errorf("mqtt.qos out of range: %d", cfg.MQTT.QoS)
	}
	if _, err := logrus.ParseLevel(cfg.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if cfg.Log.Format != "text" && cfg.Log.Format != "json" {
		return fmt.Errorf("unknown log.format: %q", cfg.Log.Format)
	}
	return nil
}

func (cfg *Config) normalize() {
	def := Default()

	cfg.Source.Kind = strings.ToLower(strings.TrimSpace(cfg.Source.Kind))
	if cfg.Source.Kind == "" {
		cfg.Source.Kind = def.Source.Kind
	}
	if cfg.Source.Baud == 0 {
		cfg.Source.Baud = def.Source.Baud
	}
	if cfg.Assembler.MaxGroups == 0 {
		cfg.Assembler.MaxGroups = def.Assembler.MaxGroups
	}
	cfg.Send.Talker = strings.ToUpper(cfg.Send.Talker)
	if cfg.Filter.Countries == nil {
		cfg.Filter.Countries = map[string]string{}
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = def.Log.Level
	}
	cfg.Log.Format = strings.ToLower(cfg.Log.Format)
}

// ReconnectDelay returns the initial delay between connection attempts to TCP sources.
func (c SourceConfig) ReconnectDelay() time.Duration {
	return durationOrDefault(c.Reconnect, 5*time.Second)
}

// MaxReconnectDelay returns the maximum delay between connection attempts to TCP sources.
func (c SourceConfig) MaxReconnectDelay() time.Duration {
	return durationOrDefault(c.MaxReconnect, time.Minute)
}

// DialTimeoutDuration returns the timeout for connecting to a TCP source.
func (c SourceConfig) DialTimeoutDuration() time.Duration {
	return durationOrDefault(c.DialTimeout, 10*time.Second)
}

// SourceTag returns the tag attached to all messages from this source.
func (c SourceConfig) SourceTag() filter.SourceTag {
	return filter.SourceTag{
		BaseStation: c.Tag.BaseStation,
		Region:      c.Tag.Region,
		Country:     c.Tag.Country,
	}
}

// MaxAgeDuration returns the maximum age of incomplete fragment groups.
func (c AssemblerConfig) MaxAgeDuration() time.Duration {
	return durationOrDefault(c.MaxAge, sentence.DefaultMaxAge)
}

// TimeoutDuration returns how long to wait for an acknowledgement.
func (c SendConfig) TimeoutDuration() time.Duration {
	return durationOrDefault(c.Timeout, 10*time.Second)
}

// SourceFilter creates the configured source filter.
func (cfg *Config) SourceFilter() (*filter.SourceFilter, error) {
	result := filter.NewSourceFilter(filter.MIDLookup(cfg.Filter.Countries))
	if err := result.Parse(cfg.Filter.Definition); err != nil {
		return nil, err
	}
	return result, nil
}

// Logger creates a logger according to the log section.
func (c LogConfig) Logger() *logrus.Logger {
	result := logrus.New()
	level, err := logrus.ParseLevel(c.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	result.SetLevel(level)
	if c.Format == "json" {
		result.SetFormatter(&logrus.JSONFormatter{})
	} else {
		result.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return result
}

func parseDuration(s string) (time.Duration, error) {
	if strings.TrimSpace(s) == "" {
		return 0, nil
	}
	result, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if result < 0 {
		return 0, fmt.Errorf("negative duration %s", s)
	}
	return result, nil
}

func durationOrDefault(s string, defaultValue time.Duration) time.Duration {
	result, err := parseDuration(s)
	if err != nil || result == 0 {
		return defaultValue
	}
	return result
}
