package db

import (
	"strings"

	"github.com/smallbiznis/telcostore/internal/config"
)

const (
	TypeSQLite   = "sqlite"
	TypePostgres = "postgres"
)

type Config struct {
	Type            string
	Path            string
	Host            string
	Port            string
	Name            string
	User            string
	Password        string
	SSLMode         string
	MaxIdleConn     int
	MaxOpenConn     int
	ConnMaxLifetime int
	Tracing         bool
}

// NewConfig derives store settings from the application config.
func NewConfig(cfg config.Config) Config {
	return Config{
		Type:            strings.ToLower(strings.TrimSpace(cfg.DBType)),
		Path:            strings.TrimSpace(cfg.DBPath),
		Host:            cfg.DBHost,
		Port:            cfg.DBPort,
		Name:            cfg.DBName,
		User:            cfg.DBUser,
		Password:        cfg.DBPassword,
		SSLMode:         cfg.DBSSLMode,
		MaxIdleConn:     2,
		MaxOpenConn:     4,
		ConnMaxLifetime: 300,
	}
}

// WithPath returns a copy pointing the sqlite store at path.
func (c Config) WithPath(path string) Config {
	c.Path = path
	return c
}

func (c Config) IsSQLite() bool {
	return c.Type == TypeSQLite
}
