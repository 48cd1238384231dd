package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"

	"github.com/ishan19r/apt-hunt/models"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	StoreBackend string // "json" or "postgres"
	TrackerPath  string

	HTTPPort string

	ChromeBin       string
	FetchTimeoutSec int
	CrawlDelayMinMs int
	CrawlDelayMaxMs int
	MaxPerTarget    int
	ReviewWaitSec   int

	ConfigDir string
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "hunter"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "hunter123"),
		PostgresDB:       getEnv("POSTGRES_DB", "apt_hunt"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		StoreBackend: getEnv("STORE_BACKEND", "json"),
		TrackerPath:  getEnv("TRACKER_PATH", "tracked_apartments.json"),

		HTTPPort: getEnv("HTTP_PORT", "5000"),

		ChromeBin:       getEnv("CHROME_BIN", ""),
		FetchTimeoutSec: getEnvInt("FETCH_TIMEOUT_SEC", 30),
		CrawlDelayMinMs: getEnvInt("CRAWL_DELAY_MIN_MS", 2000),
		CrawlDelayMaxMs: getEnvInt("CRAWL_DELAY_MAX_MS", 5000),
		MaxPerTarget:    getEnvInt("MAX_PER_TARGET", 10),
		ReviewWaitSec:   getEnvInt("REVIEW_WAIT_SEC", 30),

		ConfigDir: getEnv("CONFIG_DIR", "configs"),
	}
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

// Criteria is the immutable search snapshot handed to each crawl run.
// Updates build a fresh value; a running crawl keeps reading its own copy.
type Criteria struct {
	MinRent        int                   `yaml:"min_rent" json:"min_rent"`
	MaxRent        int                   `yaml:"max_rent" json:"max_rent"`
	Bedrooms       int                   `yaml:"bedrooms" json:"bedrooms"`
	Income         int                   `yaml:"income" json:"income"`
	Neighborhoods  []models.SearchTarget `yaml:"neighborhoods" json:"neighborhoods"`
	NoFeePreferred bool                  `yaml:"no_fee_preferred" json:"no_fee_preferred"`
}

// Profile identifies the person sending inquiries.
type Profile struct {
	Name         string `yaml:"name" json:"name"`
	Email        string `yaml:"email" json:"email"`
	Phone        string `yaml:"phone" json:"phone"`
	Availability string `yaml:"availability" json:"availability"`
}

// BudgetConfig parameterises the monthly residual calculation.
type BudgetConfig struct {
	TakeHome      int `yaml:"take_home" json:"take_home"`
	Utilities     int `yaml:"utilities" json:"utilities"`
	Groceries     int `yaml:"groceries" json:"groceries"`
	Transport     int `yaml:"transport" json:"transport"`
	TargetDining  int `yaml:"target_dining" json:"target_dining"`
	TargetSavings int `yaml:"target_savings" json:"target_savings"`
}

// FixedExpenses is the sum of the non-rent fixed monthly costs.
func (b BudgetConfig) FixedExpenses() int {
	return b.Utilities + b.Groceries + b.Transport
}

// DefaultCriteria mirrors the compiled-in search defaults.
func DefaultCriteria() Criteria {
	return Criteria{
		MinRent:  2400,
		MaxRent:  3200,
		Bedrooms: 1,
		Income:   110000,
		Neighborhoods: []models.SearchTarget{
			{Slug: "east-harlem", Enabled: true},
			{Slug: "yorkville", Enabled: true},
			{Slug: "upper-east-side", Enabled: true},
			{Slug: "harlem", Enabled: true},
		},
		NoFeePreferred: true,
	}
}

// DefaultProfile returns the default contact profile.
func DefaultProfile() Profile {
	return Profile{
		Name:         "Ishan",
		Email:        "ishan.19r@gmail.com",
		Availability: "Weekdays after 5:30pm, weekends anytime",
	}
}

// DefaultBudget returns the default budget parameters.
func DefaultBudget() BudgetConfig {
	return BudgetConfig{
		TakeHome:      5250,
		Utilities:     150,
		Groceries:     400,
		Transport:     132,
		TargetDining:  500,
		TargetSavings: 1000,
	}
}

// LoadCriteria reads configs/criteria.yaml, falling back to defaults when
// the file is absent.
func (c *Config) LoadCriteria() Criteria {
	cr := DefaultCriteria()
	loadYAML(filepath.Join(c.ConfigDir, "criteria.yaml"), &cr)
	return cr
}

// LoadProfile reads configs/profile.yaml, falling back to defaults.
func (c *Config) LoadProfile() Profile {
	p := DefaultProfile()
	loadYAML(filepath.Join(c.ConfigDir, "profile.yaml"), &p)
	return p
}

// LoadBudget reads configs/budget.yaml, falling back to defaults.
func (c *Config) LoadBudget() BudgetConfig {
	b := DefaultBudget()
	loadYAML(filepath.Join(c.ConfigDir, "budget.yaml"), &b)
	return b
}

func loadYAML(path string, out interface{}) {
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		log.Printf("[config] %s: %v, using defaults", path, err)
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}
