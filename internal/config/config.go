package config

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"sync"
)

var (
	cfg  *APIConfig
	once sync.Once
)

// APIConfig represents the root element.
type APIConfig struct {
	XMLName        xml.Name             `xml:"API"`
	RequestDump    bool                 `xml:"REQUEST_DUMP,attr"`
	Context        ContextConfig        `xml:"CONTEXT"`
	Authentication AuthenticationConfig `xml:"AUTHENTICATION"`
	Pagination     PaginationConfig     `xml:"PAGINATION"`
	Logging        LoggingConfig        `xml:"LOGGING"`
	DB             DBConfig             `xml:"DB"`
}

// ContextConfig holds basic server settings.
type ContextConfig struct {
	Port     int    `xml:"PORT"`
	Host     string `xml:"HOST"`
	Path     string `xml:"PATH"`
	TimeZone string `xml:"TIME_ZONE"`
	MaxConns int    `xml:"MAX_CONNS"`
}

// AuthenticationConfig holds authentication settings.
type AuthenticationConfig struct {
	EnableTokenAuth bool    `xml:"ENABLE_TOKEN_AUTH"`
	SessionTimeout  int     `xml:"SESSION_TIMEOUT"`
	OTPTTLMinutes   int     `xml:"OTP_TTL_MINUTES"`
	RateLimit       float64 `xml:"RATE_LIMIT"`
	RateBurst       int     `xml:"RATE_BURST"`
}

// PaginationConfig holds pagination settings.
type PaginationConfig struct {
	PageSize    int `xml:"PAGE_SIZE"`
	MaxPageSize int `xml:"MAX_PAGE_SIZE"`
}

// LoggingConfig holds log file settings.
type LoggingConfig struct {
	Dir        string `xml:"DIR"`
	MaxSizeMB  int    `xml:"MAX_SIZE_MB"`
	MaxBackups int    `xml:"MAX_BACKUPS"`
	MaxAgeDays int    `xml:"MAX_AGE_DAYS"`
}

// DBConfig holds database connection settings.
type DBConfig struct {
	Initialize bool         `xml:"INITIALIZE"`
	Host       string       `xml:"HOST"`
	Port       int          `xml:"PORT"`
	Driver     string       `xml:"DRIVER"`
	SSLMode    string       `xml:"SSL_MODE"`
	Names      DBNames      `xml:"NAMES"`
	Username   string       `xml:"USERNAME"`
	Password   DBPassword   `xml:"PASSWORD"`
	Pool       DBPoolConfig `xml:"POOL"`
}

// DBNames holds the names defined in the DB section.
type DBNames struct {
	FABLEFEED string `xml:"FABLEFEED,attr"`
}

// DBPassword holds password details. When Type is "env" the value names an
// environment variable instead of carrying the password itself.
type DBPassword struct {
	Type  string `xml:"TYPE,attr"`
	Value string `xml:",chardata"`
}

// Resolve returns the effective password.
func (p DBPassword) Resolve() string {
	if p.Type == "env" {
		return os.Getenv(p.Value)
	}
	return p.Value
}

// DBPoolConfig holds database connection pooling settings.
type DBPoolConfig struct {
	MaxOpenConns    int `xml:"MAX_OPEN_CONNS"`
	MaxIdleConns    int `xml:"MAX_IDLE_CONNS"`
	ConnMaxLifetime int `xml:"CONN_MAX_LIFETIME"`
}

// LoadConfig loads and parses the XML configuration from the given file.
func LoadConfig(xmlPath string) (*APIConfig, error) {
	var loadErr error
	once.Do(func() {
		f, err := os.Open(xmlPath)
		if err != nil {
			loadErr = err
			return
		}
		defer f.Close()

		data, err := io.ReadAll(f)
		if err != nil {
			loadErr = err
			return
		}

		var newCfg APIConfig
		if err := xml.Unmarshal(data, &newCfg); err != nil {
			loadErr = fmt.Errorf("parse %s: %w", xmlPath, err)
			return
		}

		applyDefaults(&newCfg)
		cfg = &newCfg
	})

	if loadErr != nil {
		return nil, loadErr
	}
	if cfg == nil {
		return nil, os.ErrInvalid
	}
	return cfg, nil
}

// GetConfig returns the loaded configuration.
func GetConfig() *APIConfig {
	return cfg
}

func applyDefaults(c *APIConfig) {
	if c.Context.Port == 0 {
		c.Context.Port = 5000
	}
	if c.Context.MaxConns == 0 {
		c.Context.MaxConns = 512
	}
	if c.Pagination.PageSize == 0 {
		c.Pagination.PageSize = 20
	}
	if c.Pagination.MaxPageSize == 0 {
		c.Pagination.MaxPageSize = 200
	}
	if c.Authentication.OTPTTLMinutes == 0 {
		c.Authentication.OTPTTLMinutes = 10
	}
	if c.Authentication.RateLimit == 0 {
		c.Authentication.RateLimit = 5
	}
	if c.Authentication.RateBurst == 0 {
		c.Authentication.RateBurst = 10
	}
	if c.Logging.Dir == "" {
		c.Logging.Dir = "logs"
	}
	if c.Logging.MaxSizeMB == 0 {
		c.Logging.MaxSizeMB = 20
	}
}
