package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ErrMissingCredentials is returned by Validate when the selected backend
// cannot be reached with the loaded configuration.
var ErrMissingCredentials = errors.New("missing store credentials")

const (
	BackendSupabase = "supabase"
	BackendPostgres = "postgres"
	BackendMinio    = "minio"
)

type Config struct {
	StoreBackend  string
	ObjectBackend string

	SupabaseURL    string
	SupabaseKey    string
	SupabaseBucket string

	DatabaseURL string

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
	MinioPublicURL string

	RedisURL    string
	MetricsPort string
	LogLevel    string
	SourcesFile string

	Scraper ScraperConfig
	Publish PublishConfig
}

// ScraperConfig mirrors the knobs every extractor shares.
type ScraperConfig struct {
	UserAgent string
	Timeout   time.Duration
	Retries   int
	Headless  bool
}

type PublishConfig struct {
	Delay time.Duration
}

func Load() *Config {
	// .env.local wins over .env; neither overrides the real environment
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load()

	supabaseURL := getEnv("SUPABASE_URL", os.Getenv("NEXT_PUBLIC_SUPABASE_URL"))

	return &Config{
		StoreBackend:   strings.ToLower(getEnv("STORE_BACKEND", BackendSupabase)),
		ObjectBackend:  strings.ToLower(getEnv("OBJECT_STORE", BackendSupabase)),
		SupabaseURL:    strings.TrimRight(supabaseURL, "/"),
		SupabaseKey:    os.Getenv("SUPABASE_SERVICE_ROLE_KEY"),
		SupabaseBucket: getEnv("SUPABASE_BUCKET", "outfits"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		MinioEndpoint:  os.Getenv("MINIO_ENDPOINT"),
		MinioAccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		MinioSecretKey: os.Getenv("MINIO_SECRET_KEY"),
		MinioBucket:    getEnv("MINIO_BUCKET", "outfits"),
		MinioUseSSL:    getBool("MINIO_USE_SSL", false),
		MinioPublicURL: os.Getenv("MINIO_PUBLIC_URL"),
		RedisURL:       os.Getenv("REDIS_URL"),
		MetricsPort:    os.Getenv("METRICS_PORT"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		SourcesFile:    os.Getenv("SOURCES_FILE"),
		Scraper: ScraperConfig{
			UserAgent: getEnv("SCRAPER_USER_AGENT", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36"),
			Timeout:   getDuration("SCRAPER_TIMEOUT", 30*time.Second),
			Retries:   getInt("SCRAPER_RETRIES", 3),
			Headless:  getBool("SCRAPER_HEADLESS", true),
		},
		Publish: PublishConfig{
			Delay: getDuration("PUBLISH_DELAY", time.Second),
		},
	}
}

// Validate checks that the selected backends have what they need to connect.
// It is called before any extraction starts.
func (c *Config) Validate() error {
	var missing []string

	switch c.StoreBackend {
	case BackendSupabase:
		if c.SupabaseURL == "" {
			missing = append(missing, "SUPABASE_URL")
		}
		if c.SupabaseKey == "" {
			missing = append(missing, "SUPABASE_SERVICE_ROLE_KEY")
		}
	case BackendPostgres:
		if c.DatabaseURL == "" {
			missing = append(missing, "DATABASE_URL")
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}

	switch c.ObjectBackend {
	case BackendSupabase:
		if c.SupabaseURL == "" || c.SupabaseKey == "" {
			missing = appendOnce(missing, "SUPABASE_URL", "SUPABASE_SERVICE_ROLE_KEY")
		}
	case BackendMinio:
		if c.MinioEndpoint == "" {
			missing = append(missing, "MINIO_ENDPOINT")
		}
		if c.MinioAccessKey == "" || c.MinioSecretKey == "" {
			missing = append(missing, "MINIO_ACCESS_KEY", "MINIO_SECRET_KEY")
		}
	default:
		return fmt.Errorf("unknown OBJECT_STORE %q", c.ObjectBackend)
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingCredentials, strings.Join(missing, ", "))
	}
	return nil
}

func appendOnce(list []string, keys ...string) []string {
	for _, k := range keys {
		found := false
		for _, have := range list {
			if have == k {
				found = true
				break
			}
		}
		if !found {
			list = append(list, k)
		}
	}
	return list
}

func getEnv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func getInt(k string, d int) int {
	v, err := strconv.Atoi(os.Getenv(k))
	if err != nil {
		return d
	}
	return v
}

func getBool(k string, d bool) bool {
	v, err := strconv.ParseBool(os.Getenv(k))
	if err != nil {
		return d
	}
	return v
}

// getDuration accepts Go durations ("1500ms") or a bare number of milliseconds.
func getDuration(k string, d time.Duration) time.Duration {
	raw := os.Getenv(k)
	if raw == "" {
		return d
	}
	if v, err := time.ParseDuration(raw); err == nil {
		return v
	}
	if ms, err := strconv.Atoi(raw); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	return d
}
