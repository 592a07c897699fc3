package config

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ErrConfiguration is returned when a required setting is missing or a value is invalid.
var ErrConfiguration = errors.New("invalid configuration")

// Config holds every setting of the ridefare commands. It is built once at
// startup and passed to the components that need it.
type Config struct {
	Env              string        `env:"RIDEFARE_ENV"`                                               // Env is the current environment: local, development, production.
	GeocodeAPIKey    string        `env:"GEO_CODE_API_KEY"           validate:"required"`             // API key of the geocoding service.
	Destination      string        `env:"GCS_BUCKET_NAME"            validate:"required"`             // Bucket name, or directory for the file sink.
	Geocoder         string        `env:"RIDEFARE_GEOCODER"          validate:"oneof=mapsco nominatim google"`
	RoutesFile       string        `env:"RIDEFARE_ROUTES_FILE"       validate:"required"`
	CacheFile        string        `env:"RIDEFARE_CACHE_FILE"        validate:"required"`
	CookiesFile      string        `env:"RIDEFARE_COOKIES_FILE"      validate:"required"`
	ExtractMode      string        `env:"RIDEFARE_EXTRACT_MODE"      validate:"oneof=table full"`
	ExportFormat     string        `env:"RIDEFARE_EXPORT_FORMAT"     validate:"oneof=csv xlsx"`
	Sink             string        `env:"RIDEFARE_SINK"              validate:"oneof=gcs file"`
	Workers          int           `env:"RIDEFARE_WORKERS"           validate:"min=1,max=64"`
	MemoSize         int           `env:"RIDEFARE_MEMO_SIZE"         validate:"min=0"`
	PricingTimeout   time.Duration `env:"RIDEFARE_PRICING_TIMEOUT"   validate:"gt=0"`
	PushgatewayURL   string        `env:"RIDEFARE_PUSHGATEWAY_URL"   validate:"omitempty,url"`
	JaegerEndpoint   string        `env:"RIDEFARE_JAEGER_ENDPOINT"   validate:"omitempty,url"`
	Notify           string        `env:"RIDEFARE_NOTIFY"            validate:"oneof=none amqp kafka"`
	AMQPURI          string        `env:"RIDEFARE_AMQP_URI"          validate:"required_if=Notify amqp"`
	KafkaBrokers     []string      `env:"RIDEFARE_KAFKA_BROKERS"     validate:"required_if=Notify kafka"`
	KafkaTopic       string        `env:"RIDEFARE_KAFKA_TOPIC"`
	ArchiveDSN       string        `env:"RIDEFARE_ARCHIVE_DSN"`                                       // Empty disables the Postgres archive.
	GeocacheInterval time.Duration `env:"RIDEFARE_GEOCACHE_INTERVAL" validate:"gt=0"`                 // Pause between warm-up lookups.
}

var defaults = map[string]string{
	"RIDEFARE_ENV":               "production",
	"RIDEFARE_GEOCODER":          "mapsco",
	"RIDEFARE_ROUTES_FILE":       "locations.txt",
	"RIDEFARE_CACHE_FILE":        "locations.json",
	"RIDEFARE_COOKIES_FILE":      "uber_cookies.json",
	"RIDEFARE_EXTRACT_MODE":      "table",
	"RIDEFARE_EXPORT_FORMAT":     "csv",
	"RIDEFARE_SINK":              "gcs",
	"RIDEFARE_WORKERS":           "1",
	"RIDEFARE_MEMO_SIZE":         "256",
	"RIDEFARE_PRICING_TIMEOUT":   "30s",
	"RIDEFARE_NOTIFY":            "none",
	"RIDEFARE_KAFKA_TOPIC":       "ridefare.exports",
	"RIDEFARE_GEOCACHE_INTERVAL": "2s",
}

// Load reads .env (when present) and the environment, applies defaults and
// validates the result. Every problem is reported wrapped in ErrConfiguration.
func Load() (*Config, error) {
	return load()
}

// LoadGeocache is Load for the cache warm-up, which never exports and so
// does not need GCS_BUCKET_NAME.
func LoadGeocache() (*Config, error) {
	return load("GCS_BUCKET_NAME")
}

func load(optional ...string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	var errs []string

	workers, err := strconv.Atoi(v.GetString("RIDEFARE_WORKERS"))
	if err != nil {
		errs = append(errs, "RIDEFARE_WORKERS must be an integer")
	}
	memoSize, err := strconv.Atoi(v.GetString("RIDEFARE_MEMO_SIZE"))
	if err != nil {
		errs = append(errs, "RIDEFARE_MEMO_SIZE must be an integer")
	}
	pricingTimeout, err := time.ParseDuration(v.GetString("RIDEFARE_PRICING_TIMEOUT"))
	if err != nil {
		errs = append(errs, "RIDEFARE_PRICING_TIMEOUT must be a duration")
	}
	geocacheInterval, err := time.ParseDuration(v.GetString("RIDEFARE_GEOCACHE_INTERVAL"))
	if err != nil {
		errs = append(errs, "RIDEFARE_GEOCACHE_INTERVAL must be a duration")
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrConfiguration, strings.Join(errs, "; "))
	}

	cfg := &Config{
		Env:              v.GetString("RIDEFARE_ENV"),
		GeocodeAPIKey:    v.GetString("GEO_CODE_API_KEY"),
		Destination:      v.GetString("GCS_BUCKET_NAME"),
		Geocoder:         v.GetString("RIDEFARE_GEOCODER"),
		RoutesFile:       v.GetString("RIDEFARE_ROUTES_FILE"),
		CacheFile:        v.GetString("RIDEFARE_CACHE_FILE"),
		CookiesFile:      v.GetString("RIDEFARE_COOKIES_FILE"),
		ExtractMode:      v.GetString("RIDEFARE_EXTRACT_MODE"),
		ExportFormat:     v.GetString("RIDEFARE_EXPORT_FORMAT"),
		Sink:             v.GetString("RIDEFARE_SINK"),
		Workers:          workers,
		MemoSize:         memoSize,
		PricingTimeout:   pricingTimeout,
		PushgatewayURL:   v.GetString("RIDEFARE_PUSHGATEWAY_URL"),
		JaegerEndpoint:   v.GetString("RIDEFARE_JAEGER_ENDPOINT"),
		Notify:           v.GetString("RIDEFARE_NOTIFY"),
		AMQPURI:          v.GetString("RIDEFARE_AMQP_URI"),
		KafkaBrokers:     splitList(v.GetString("RIDEFARE_KAFKA_BROKERS")),
		KafkaTopic:       v.GetString("RIDEFARE_KAFKA_TOPIC"),
		ArchiveDSN:       v.GetString("RIDEFARE_ARCHIVE_DSN"),
		GeocacheInterval: geocacheInterval,
	}

	if err = validate(cfg, optional...); err != nil {
		return nil, err
	}

	return cfg, nil
}

// MustLoad is Load for commands that cannot run without configuration.
func MustLoad() *Config {
	return must(Load())
}

// MustLoadGeocache is the panicking form of LoadGeocache.
func MustLoadGeocache() *Config {
	return must(LoadGeocache())
}

func must(cfg *Config, err error) *Config {
	if err != nil {
		panic(err.Error())
	}

	return cfg
}

// validate checks the struct tags. Errors on the optional keys are ignored.
func validate(cfg *Config, optional ...string) error {
	vld := validator.New()
	vld.RegisterTagNameFunc(func(field reflect.StructField) string {
		return field.Tag.Get("env")
	})

	err := vld.Struct(cfg)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %w", ErrConfiguration, err)
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		if slices.Contains(optional, fe.Field()) {
			continue
		}
		msgs = append(msgs, formatFieldError(fe))
	}
	if len(msgs) == 0 {
		return nil
	}

	return fmt.Errorf("%w: %s", ErrConfiguration, strings.Join(msgs, "; "))
}

func formatFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_if":
		return fe.Field() + " is required"
	case "oneof":
		return fe.Field() + " must be one of: " + fe.Param()
	case "min", "max", "gt":
		return fe.Field() + " is out of range"
	case "url":
		return fe.Field() + " must be a URL"
	default:
		return fe.Field() + " failed " + fe.Tag() + " validation"
	}
}

func splitList(raw string) []string {
	var items []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}

	return items
}
