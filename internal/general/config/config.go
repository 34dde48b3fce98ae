package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// LatLon is a plain coordinate pair in the config file.
type LatLon struct {
	Lat float64 `yaml:"lat" validate:"latitude"`
	Lon float64 `yaml:"lon" validate:"longitude"`
}

type Config struct {
	Database struct {
		Host     string `yaml:"host" validate:"required"`
		Port     int    `yaml:"port" validate:"gte=1,lte=65535"`
		User     string `yaml:"user" validate:"required"`
		Password string `yaml:"password" validate:"required"`
		Name     string `yaml:"database" validate:"required"`
		SSLMode  string `yaml:"sslmode" validate:"oneof=disable allow prefer require verify-ca verify-full"`
		MaxConns int    `yaml:"max_conns" validate:"gte=0"`
	} `yaml:"database"`
	RabbitMQ struct {
		Host     string `yaml:"host" validate:"required"`
		Port     int    `yaml:"port" validate:"gte=1,lte=65535"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Prefetch int    `yaml:"prefetch" validate:"gte=1"`
	} `yaml:"rabbitmq"`
	Services struct {
		AdminServicePort int `yaml:"admin_service" validate:"gte=1,lte=65535"`
		ConsolePort      int `yaml:"console" validate:"gte=1,lte=65535"`
	} `yaml:"services"`
	JWT struct {
		SecretKey string        `yaml:"secret_key" validate:"required"`
		TokenTTL  time.Duration `yaml:"token_ttl" validate:"gt=0"`
	} `yaml:"jwt"`
	Monitor MonitorConfig `yaml:"monitor"`
}

// MonitorConfig drives the aggregation service and the console.
type MonitorConfig struct {
	AdminBaseURL        string        `yaml:"admin_base_url" validate:"required,url"`
	RidesPollInterval   time.Duration `yaml:"rides_poll_interval" validate:"gte=1s"`
	SummaryPollInterval time.Duration `yaml:"summary_poll_interval" validate:"gte=1s"`
	TelemetryBatchSize  int           `yaml:"telemetry_batch_size" validate:"gte=1,lte=30"`
	TelemetrySource     string        `yaml:"telemetry_source" validate:"oneof=postgres rabbitmq"`
	DefaultCenter       LatLon        `yaml:"default_center"`
	DefaultZoom         float64       `yaml:"default_zoom" validate:"gte=1,lte=20"`
	FocusZoom           float64       `yaml:"focus_zoom" validate:"gte=1,lte=20"`
	FitPadding          int           `yaml:"fit_padding" validate:"gte=0"`
}

const (
	TelemetrySourcePostgres = "postgres"
	TelemetrySourceRabbitMQ = "rabbitmq"
)

// LoadFromFile loads config from a YAML file, applies defaults, and validates it.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML bytes into a Config, applies defaults, and validates it.
// Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets safe defaults for some fields.
func applyDefaults(cfg *Config) {
	// Database
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}

	// RabbitMQ
	if cfg.RabbitMQ.Host == "" {
		cfg.RabbitMQ.Host = "localhost"
	}
	if cfg.RabbitMQ.Port == 0 {
		cfg.RabbitMQ.Port = 5672
	}
	if cfg.RabbitMQ.Prefetch == 0 {
		cfg.RabbitMQ.Prefetch = 16
	}

	// Services
	if cfg.Services.AdminServicePort == 0 {
		cfg.Services.AdminServicePort = 3004
	}
	if cfg.Services.ConsolePort == 0 {
		cfg.Services.ConsolePort = 3005
	}

	// JWT
	if cfg.JWT.TokenTTL == 0 {
		cfg.JWT.TokenTTL = 2 * time.Hour
	}

	// Monitor
	m := &cfg.Monitor
	if m.AdminBaseURL == "" {
		m.AdminBaseURL = fmt.Sprintf("http://localhost:%d", cfg.Services.AdminServicePort)
	}
	m.AdminBaseURL = strings.TrimRight(m.AdminBaseURL, "/")
	if m.RidesPollInterval == 0 {
		m.RidesPollInterval = 10 * time.Second
	}
	if m.SummaryPollInterval == 0 {
		m.SummaryPollInterval = 30 * time.Second
	}
	if m.TelemetryBatchSize == 0 {
		m.TelemetryBatchSize = 30
	}
	if m.TelemetrySource == "" {
		m.TelemetrySource = TelemetrySourcePostgres
	}
	if m.DefaultCenter.Lat == 0 && m.DefaultCenter.Lon == 0 {
		// Almaty city centre, the service region
		m.DefaultCenter = LatLon{Lat: 43.238949, Lon: 76.889709}
	}
	if m.DefaultZoom == 0 {
		m.DefaultZoom = 12
	}
	if m.FocusZoom == 0 {
		m.FocusZoom = 16
	}
	if m.FitPadding == 0 {
		m.FitPadding = 50
	}
}

// validate runs struct tags first, then the cross-field checks tags cannot express.
func (c *Config) validate() error {
	var problems []string

	v := validator.New()
	v.RegisterTagNameFunc(yamlName)
	if err := v.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		for _, fe := range verrs {
			problems = append(problems, fmt.Sprintf("%s failed %q (value %v)", trimRoot(fe.Namespace()), fe.Tag(), redact(fe)))
		}
	}

	if c.Monitor.TelemetrySource == TelemetrySourceRabbitMQ {
		if c.RabbitMQ.User == "" {
			problems = append(problems, "rabbitmq.user is required when monitor.telemetry_source is rabbitmq")
		}
		if c.RabbitMQ.Password == "" {
			problems = append(problems, "rabbitmq.password is required when monitor.telemetry_source is rabbitmq")
		}
	}
	if c.Services.AdminServicePort == c.Services.ConsolePort {
		problems = append(problems, "services.admin_service and services.console must differ")
	}
	if c.Monitor.FocusZoom < c.Monitor.DefaultZoom {
		problems = append(problems, "monitor.focus_zoom must not be below monitor.default_zoom")
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

// yamlName reports fields by their YAML key so messages match the file.
func yamlName(field reflect.StructField) string {
	name := strings.SplitN(field.Tag.Get("yaml"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return field.Name
	}
	return name
}

func trimRoot(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func redact(fe validator.FieldError) any {
	if strings.Contains(strings.ToLower(fe.Field()), "password") || strings.Contains(strings.ToLower(fe.Field()), "secret") {
		return "***"
	}
	return fe.Value()
}
