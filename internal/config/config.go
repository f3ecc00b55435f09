package config

import (
	"log"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config holds all the configuration for the application.
type Config struct {
	Env        string `yaml:"env" env:"ENV" env-default:"production"`
	HTTPServer `yaml:"http_server"`
	Database   `yaml:"database"`
	Redis      `yaml:"redis"`
	JWT        `yaml:"jwt"`
	Shortener  `yaml:"shortener"`
	GeoIP      `yaml:"geoip"`
	UserAgent  `yaml:"useragent"`
	Tracking   `yaml:"tracking"`
}

// HTTPServer holds HTTP server specific configuration.
type HTTPServer struct {
	Port         int    `yaml:"port" env:"HTTP_PORT" env-default:"8080"`
	ReadTimeout  string `yaml:"read_timeout" env:"HTTP_READ_TIMEOUT" env-default:"30s"`
	WriteTimeout string `yaml:"write_timeout" env:"HTTP_WRITE_TIMEOUT" env-default:"30s"`
	IdleTimeout  string `yaml:"idle_timeout" env:"HTTP_IDLE_TIMEOUT" env-default:"60s"`
}

// Database holds PostgreSQL connection configuration.
type Database struct {
	Host            string `yaml:"host" env:"DB_HOST" env-default:"localhost"`
	Port            int    `yaml:"port" env:"DB_PORT" env-default:"5432"`
	User            string `yaml:"user" env:"DB_USER" env-default:"postgres"`
	Password        string `yaml:"password" env:"DB_PASSWORD" env-default:""`
	DBName          string `yaml:"dbname" env:"DB_NAME" env-default:"xproli"`
	SSLMode         string `yaml:"sslmode" env:"DB_SSLMODE" env-default:"disable"`
	Timezone        string `yaml:"timezone" env:"DB_TIMEZONE" env-default:"UTC"`
	MaxIdleConns    int    `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS" env-default:"10"`
	MaxOpenConns    int    `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS" env-default:"50"`
	ConnMaxLifetime string `yaml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME" env-default:"1h"`
	AutoMigrate     bool   `yaml:"auto_migrate" env:"DB_AUTO_MIGRATE" env-default:"true"`
}

// Redis holds the link-cache configuration. An empty Addr disables caching.
type Redis struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR" env-default:""`
	Password string `yaml:"password" env:"REDIS_PASSWORD" env-default:""`
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
	LinkTTL  string `yaml:"link_ttl" env:"REDIS_LINK_TTL" env-default:"5m"`
}

// JWT holds token signing configuration.
type JWT struct {
	Secret          string `yaml:"secret" env:"JWT_SECRET" env-default:""`
	AccessDuration  string `yaml:"access_duration" env:"JWT_ACCESS_DURATION" env-default:"15m"`
	RefreshDuration string `yaml:"refresh_duration" env:"JWT_REFRESH_DURATION" env-default:"168h"`
	Issuer          string `yaml:"issuer" env:"JWT_ISSUER" env-default:"xproli-backend"`
}

// Shortener holds service-specific configuration. DefaultDomain is the
// platform domain assigned to links created without an explicit domain.
type Shortener struct {
	DefaultDomain string `yaml:"default_domain" env:"DEFAULT_DOMAIN" env-default:"xpro.li"`
	SlugLength    int    `yaml:"slug_length" env:"SLUG_LENGTH" env-default:"6"`
}

// GeoIP holds the MaxMind database path. Empty disables geo lookups.
type GeoIP struct {
	DBPath string `yaml:"db_path" env:"GEOIP_DB_PATH" env-default:""`
}

// UserAgent holds the uap-core regexes file path. Empty uses the built-in set.
type UserAgent struct {
	RegexesPath string `yaml:"regexes_path" env:"UA_REGEXES_PATH" env-default:""`
}

// Tracking holds click-pipeline sizing.
type Tracking struct {
	Workers         int    `yaml:"workers" env:"TRACKING_WORKERS" env-default:"3"`
	BufferSize      int    `yaml:"buffer_size" env:"TRACKING_BUFFER_SIZE" env-default:"1000"`
	ShutdownTimeout string `yaml:"shutdown_timeout" env:"TRACKING_SHUTDOWN_TIMEOUT" env-default:"30s"`
}

// MustLoad loads the application configuration.
func MustLoad() *Config {
	// Try to load .env file (ignore error in production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment variables")
	}

	var cfg Config

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/local.yml"
	}

	if _, err := os.Stat(configPath); err == nil {
		if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
			log.Fatalf("cannot read config: %s", err)
		}
	} else {
		log.Println("Config file not found, using environment variables only")
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			log.Fatalf("cannot read config from environment: %s", err)
		}
	}

	return &cfg
}
