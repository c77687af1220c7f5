package config

import (
	"strings"

	"github.com/dominicus75/testtask/internal/database"
	"github.com/dominicus75/testtask/internal/errs"
	"github.com/dominicus75/testtask/internal/filestore"
	"github.com/dominicus75/testtask/internal/logger"
)

// DefaultHTTPAddr is used when http.addr is unset.
const DefaultHTTPAddr = ":8080"

// Database builds the connection settings from datasource, username,
// password, options and connect_timeout.
func (c *Config) Database() (*database.Config, error) {
	ds := strings.TrimSpace(c.String("datasource", ""))
	if ds == "" {
		return nil, errs.New(errs.ErrKindConfiguration, "datasource is not configured")
	}

	cfg := database.DefaultConfig()
	if err := database.ParseDatasource(ds, cfg); err != nil {
		return nil, err
	}
	cfg.Username = c.String("username", "")
	cfg.Password = c.String("password", "")

	opts, err := c.StringMap("options")
	if err != nil {
		return nil, err
	}
	for k, v := range opts {
		cfg.Options[k] = v
	}

	if cfg.ConnectTimeout, err = c.Duration("connect_timeout", cfg.ConnectTimeout); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Logger returns the log section over logger defaults.
func (c *Config) Logger() *logger.Config {
	cfg := logger.DefaultConfig()
	cfg.Level = c.String("log.level", cfg.Level)
	cfg.Format = c.String("log.format", cfg.Format)
	cfg.TimeFormat = c.String("log.time_format", cfg.TimeFormat)
	return cfg
}

// FileStore returns the snapshot section. Only snapshot.endpoint is
// required.
func (c *Config) FileStore() (*filestore.Config, error) {
	endpoint := c.String("snapshot.endpoint", "")
	if endpoint == "" {
		return nil, errs.New(errs.ErrKindConfiguration, "snapshot.endpoint is not configured")
	}

	cfg := filestore.DefaultConfig(endpoint,
		c.String("snapshot.access_key", ""),
		c.String("snapshot.secret_key", ""))
	cfg.Provider = filestore.Provider(c.String("snapshot.provider", string(cfg.Provider)))
	cfg.UseSSL = c.Bool("snapshot.use_ssl", cfg.UseSSL)
	cfg.Region = c.String("snapshot.region", cfg.Region)
	cfg.Bucket = c.String("snapshot.bucket", cfg.Bucket)

	var err error
	if cfg.PresignTTL, err = c.Duration("snapshot.presign_ttl", cfg.PresignTTL); err != nil {
		return nil, err
	}
	return cfg, nil
}

// HTTPAddr returns the listen address of the HTTP server.
func (c *Config) HTTPAddr() string {
	return c.String("http.addr", DefaultHTTPAddr)
}
