package cfg

type Cfg struct {
	// Storage configuration
	DBPath        string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Upstream configuration
	APIAccount      string
	APIPassword     string
	UpstreamURL     string
	UpstreamTimeout int

	// Application configuration
	Port         string
	BaseUrl      string
	RefreshCron  string
	WorkerCount  int
	VenuesFile   string
	APIAccessKey string
	ContactEmail string

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}

// RedisEnabled reports whether credential and sync state live in Redis
// rather than the SQLite kv_store table.
func (c *Cfg) RedisEnabled() bool {
	return c.RedisAddr != ""
}
