package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Storage configuration
	DBPath        string `long:"db-path" env:"DB_PATH" default:"./data/cfa-cal.db" description:"SQLite database file"`
	RedisAddr     string `long:"redis-addr" env:"REDIS_ADDR" description:"Redis address for token and sync state (optional, SQLite is used when empty)"`
	RedisPassword string `long:"redis-password" env:"REDIS_PASSWORD" description:"Redis password"`
	RedisDB       int    `long:"redis-db" env:"REDIS_DB" default:"0" description:"Redis database index"`

	// Upstream configuration
	APIAccount      string `long:"api-account" env:"API_ACCOUNT" description:"Upstream account used for login"`
	APIPassword     string `long:"api-password" env:"API_PASSWORD" description:"Upstream password used for login"`
	UpstreamURL     string `long:"upstream-url" env:"UPSTREAM_URL" default:"https://api.guoyingjiaying.cn" description:"Upstream API base URL"`
	UpstreamTimeout int    `long:"upstream-timeout" env:"UPSTREAM_TIMEOUT" default:"15" description:"Upstream request timeout in seconds"`

	// Application configuration
	Port         string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	BaseUrl      string `long:"base-url" env:"BASE_URL" description:"Public base URL for the service (e.g., https://cal.example.com)"`
	RefreshCron  string `long:"refresh-cron" env:"REFRESH_CRON" default:"0 */6 * * *" description:"Cron schedule for the unconditional refresh"`
	WorkerCount  int    `long:"worker-count" env:"WORKER_COUNT" default:"1" description:"Number of background workers for calendar tasks"`
	VenuesFile   string `long:"venues-file" env:"VENUES_FILE" description:"YAML venue hierarchy (embedded table when empty)"`
	APIAccessKey string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key protecting refresh and log endpoints (optional)"`
	ContactEmail string `long:"contact-email" env:"CONTACT_EMAIL" default:"contact@qnury.es" description:"Organizer e-mail written into calendar feeds"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"cfa-cal/1.0" description:"User agent string for upstream requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"Asia/Shanghai" description:"Timezone used to decide the current month"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		DBPath:          raw.DBPath,
		RedisAddr:       raw.RedisAddr,
		RedisPassword:   raw.RedisPassword,
		RedisDB:         raw.RedisDB,
		APIAccount:      raw.APIAccount,
		APIPassword:     raw.APIPassword,
		UpstreamURL:     raw.UpstreamURL,
		UpstreamTimeout: raw.UpstreamTimeout,
		Port:            raw.Port,
		BaseUrl:         raw.BaseUrl,
		RefreshCron:     raw.RefreshCron,
		WorkerCount:     raw.WorkerCount,
		VenuesFile:      raw.VenuesFile,
		APIAccessKey:    raw.APIAccessKey,
		ContactEmail:    raw.ContactEmail,
		UserAgent:       raw.UserAgent,
		Timezone:        raw.Timezone,
		Debug:           raw.Debug,
		Version:         GetVersion(),
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 1
	}
	if cfg.UpstreamTimeout <= 0 {
		cfg.UpstreamTimeout = 15
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	return cfg, nil
}

// UpstreamTimeoutDuration returns the per-request upstream timeout.
func (c *Cfg) UpstreamTimeoutDuration() time.Duration {
	return time.Duration(c.UpstreamTimeout) * time.Second
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
			fmt.Printf("Timezone configured: %s\n", timezone)
		}
	}
	return nil
}
