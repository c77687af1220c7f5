package database

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dominicus75/testtask/internal/errs"
)

// Driver identifies the database engine.
type Driver string

const (
	DriverMySQL Driver = "mysql"
)

// supportedDrivers is the allow-list of backends this layer can talk to.
// The catalog queries are MySQL-specific, so it holds exactly one entry.
var supportedDrivers = map[Driver]bool{
	DriverMySQL: true,
}

// Validate reports a configuration error for any driver outside the allow-list.
func (d Driver) Validate() error {
	if !supportedDrivers[d] {
		return errs.Newf(errs.ErrKindConfiguration, "driver %q is not supported", string(d))
	}
	return nil
}

// DefaultOptions are applied when the configuration carries no options.
// Errors are always returned and rows always map by column name, so only
// connection parameters remain configurable.
func DefaultOptions() map[string]string {
	return map[string]string{
		"charset": "utf8mb4",
	}
}

// Config holds all settings needed to open the connection.
type Config struct {
	// Driver is the database engine, taken from the datasource prefix.
	Driver Driver

	// Host, Port and Database come from the datasource parameters.
	Host     string
	Port     int
	Database string

	Username string
	Password string

	// Options are passed to the driver as connection parameters.
	Options map[string]string

	// ConnectTimeout bounds the initial ping.
	ConnectTimeout time.Duration
}

// DefaultConfig returns the settings for a local MySQL server.
func DefaultConfig() *Config {
	return &Config{
		Driver:         DriverMySQL,
		Host:           "localhost",
		Port:           3306,
		Options:        DefaultOptions(),
		ConnectTimeout: 10 * time.Second,
	}
}

// ParseDatasource reads a PDO-style datasource such as
//
//	mysql:host=127.0.0.1;port=3306;dbname=employees;charset=utf8mb4
//
// into cfg. Unknown parameters land in cfg.Options.
func ParseDatasource(datasource string, cfg *Config) error {
	prefix, params, ok := strings.Cut(datasource, ":")
	if !ok || prefix == "" {
		return errs.Newf(errs.ErrKindConfiguration, "datasource %q has no driver prefix", datasource)
	}

	driver := Driver(strings.ToLower(strings.TrimSpace(prefix)))
	if err := driver.Validate(); err != nil {
		return err
	}
	cfg.Driver = driver

	for _, pair := range strings.Split(params, ";") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			return errs.Newf(errs.ErrKindConfiguration, "malformed datasource parameter %q", pair)
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)

		switch key {
		case "host":
			cfg.Host = value
		case "port":
			port, err := strconv.Atoi(value)
			if err != nil || port <= 0 {
				return errs.Newf(errs.ErrKindConfiguration, "invalid port %q", value)
			}
			cfg.Port = port
		case "dbname":
			cfg.Database = value
		default:
			if cfg.Options == nil {
				cfg.Options = map[string]string{}
			}
			cfg.Options[key] = value
		}
	}

	if cfg.Host == "" {
		return errs.New(errs.ErrKindConfiguration, "datasource has no host")
	}
	return nil
}

// Addr returns host:port.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
