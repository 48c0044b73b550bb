package app

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/eduportal/internal/scoring"
)

// Environment variables that override secrets from the config file.
const (
	EnvDSN           = "EDUPORTAL_DSN"
	EnvBotToken      = "EDUPORTAL_BOT_TOKEN"
	EnvAdminPassword = "EDUPORTAL_ADMIN_PASSWORD"
)

type HeaderConfig struct {
	Name  string `toml:"name"`
	Value string `toml:"value"`
}

type SheetConfig struct {
	SpreadsheetID string `toml:"spreadsheet_id"`
	SheetName     string `toml:"sheet_name"`
	Courses       []int  `toml:"courses"`
	Schedule      string `toml:"schedule"`
	StartRow      int    `toml:"start_row"`
	TimestampCell string `toml:"timestamp_cell"`
}

type Config struct {
	Server struct {
		Port       string `toml:"port"`
		EnableAuth bool   `toml:"enable_auth"`
	} `toml:"server"`

	Auth struct {
		RedisURL    string `toml:"redis_url"`
		TokenHeader string `toml:"token_header"`
		SessionTTL  string `toml:"session_ttl"`
	} `toml:"auth"`

	API struct {
		UserIDHeader    string         `toml:"user_id_header"`
		RequiredHeaders []HeaderConfig `toml:"required_headers"`
	} `toml:"api"`

	Database struct {
		DSN           string `toml:"dsn"`
		MigrationsDir string `toml:"migrations_dir"`
		DocumentKey   string `toml:"document_key"`
	} `toml:"database"`

	Display struct {
		TimestampFormat string `toml:"timestamp_format"`
	} `toml:"display"`

	Scoring struct {
		GPASteps        []scoring.GPAStep `toml:"gpa_steps"`
		LowGradePercent float64           `toml:"low_grade_percent"`
	} `toml:"scoring"`

	Seed struct {
		AdminName     string `toml:"admin_name"`
		AdminEmail    string `toml:"admin_email"`
		AdminPassword string `toml:"admin_password"`
		SchoolName    string `toml:"school_name"`
	} `toml:"seed"`

	Bot struct {
		Token    string  `toml:"token"`
		AdminIDs []int64 `toml:"admin_ids"`
		Debug    bool    `toml:"debug"`
	} `toml:"bot"`

	GSheet struct {
		CredentialsFile string                 `toml:"credentials_file"`
		Sheets          map[string]SheetConfig `toml:"sheets"`
	} `toml:"gsheet"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}
	return ParseConfig(path, data)
}

func ParseConfig(path string, data []byte) (*Config, error) {
	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf(
			"error reading config file %s\n> Error: %w\n> Content:\n%s",
			path,
			err,
			string(data),
		)
	}

	if config.Server.Port == "" {
		return nil, fmt.Errorf("Server port is not specified in config, use a value like :9999")
	}

	config.applyEnv()
	config.applyDefaults()

	if _, err := config.SessionTTL(); err != nil {
		return nil, fmt.Errorf("invalid auth.session_ttl %q: %w", config.Auth.SessionTTL, err)
	}

	logger.Debug.Printf("Loaded scoring config: %+v", config.Scoring)

	return &config, nil
}

// LoadDotEnv reads a .env file into the environment if one exists. Variables
// already set win.
func LoadDotEnv(path string) {
	if err := godotenv.Load(path); err != nil {
		if !os.IsNotExist(err) {
			logger.Error.Printf("Failed to load %s: %v", path, err)
		}
		return
	}
	logger.Info.Printf("Loaded environment from %s", path)
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvDSN); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv(EnvBotToken); v != "" {
		c.Bot.Token = v
	}
	if v := os.Getenv(EnvAdminPassword); v != "" {
		c.Seed.AdminPassword = v
	}
}

func (c *Config) applyDefaults() {
	if c.Auth.TokenHeader == "" {
		c.Auth.TokenHeader = "Authorization"
	}
	if c.Auth.SessionTTL == "" {
		c.Auth.SessionTTL = "24h"
	}
	if c.API.UserIDHeader == "" {
		c.API.UserIDHeader = "X-User-ID"
	}
	if c.Display.TimestampFormat == "" {
		c.Display.TimestampFormat = "2006-01-02 15:04:05"
	}
	if c.Seed.AdminName == "" {
		c.Seed.AdminName = "Administrator"
	}
	if c.Seed.AdminEmail == "" {
		c.Seed.AdminEmail = "admin@school.edu"
	}
	if c.Seed.SchoolName == "" {
		c.Seed.SchoolName = "EduPortal"
	}
	for name, sheet := range c.GSheet.Sheets {
		if sheet.SheetName == "" {
			sheet.SheetName = name
		}
		if sheet.StartRow <= 0 {
			sheet.StartRow = 3
		}
		if sheet.TimestampCell == "" {
			sheet.TimestampCell = "A1"
		}
		c.GSheet.Sheets[name] = sheet
	}
}

func (c *Config) SessionTTL() (time.Duration, error) {
	return time.ParseDuration(c.Auth.SessionTTL)
}

// ParseUserID reads a numeric user id as sent in the user id header.
func ParseUserID(s string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid user id %q", s)
	}
	return id, nil
}
