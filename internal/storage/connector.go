package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"spendview/internal/catalog"
	"spendview/internal/core"
	"spendview/internal/log"
	"spendview/internal/metrics"
)

// Config describes the one database every session connects to.
// Host and database are fixed; only the credentials vary per pass.
type Config struct {
	Driver         catalog.Dialect
	Host           string
	Port           int
	Database       string
	SSLMode        string
	SQLitePath     string
	ConnectTimeout time.Duration
	QueryTimeout   time.Duration
}

// Connector opens one Session per render pass.
type Connector struct {
	cfg    Config
	logger *log.Logger
	openDB func(driver, dsn string) (*sql.DB, error)
}

func NewConnector(cfg Config, logger *log.Logger) *Connector {
	if logger == nil {
		logger = log.Discard()
	}
	return &Connector{
		cfg:    cfg,
		logger: logger.WithComponent(log.ComponentStorage),
		openDB: sql.Open,
	}
}

// Config returns the connector configuration.
func (c *Connector) Config() Config { return c.cfg }

// Open validates creds and makes exactly one connection attempt.
// Missing credentials return core.ErrMissingCredentials without touching the network.
func (c *Connector) Open(ctx context.Context, creds core.Credentials) (*Session, error) {
	if err := creds.Validate(); err != nil {
		metrics.Connection(metrics.OutcomeMissingCredentials)
		return nil, err
	}

	driverName, dsn, err := c.dsn(creds)
	if err != nil {
		metrics.Connection(metrics.OutcomeFailed)
		return nil, &ConnectError{Driver: string(c.cfg.Driver), Err: err}
	}

	db, err := c.openDB(driverName, dsn)
	if err != nil {
		metrics.Connection(metrics.OutcomeFailed)
		return nil, &ConnectError{Driver: string(c.cfg.Driver), Err: err}
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pingCtx := ctx
	if c.cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, c.cfg.ConnectTimeout)
		defer cancel()
	}

	if err := c.ping(pingCtx, db); err != nil {
		db.Close()
		metrics.Connection(metrics.OutcomeFailed)
		c.logger.WarnContext(ctx, "Database connection failed",
			log.FieldDriver, string(c.cfg.Driver),
			log.FieldDatabase, c.databaseName(),
			log.FieldError, err)
		return nil, &ConnectError{Driver: string(c.cfg.Driver), Err: err}
	}

	metrics.Connection(metrics.OutcomeOK)
	c.logger.DebugContext(ctx, "Database connected",
		log.FieldDriver, string(c.cfg.Driver),
		log.FieldDatabase, c.databaseName())

	return &Session{
		db:           db,
		dialect:      c.cfg.Driver,
		queryTimeout: c.cfg.QueryTimeout,
		logger:       c.logger,
	}, nil
}

// ping also checks that the expense table is visible, so a read-only SQLite
// open of a missing or foreign file fails here rather than on the first query.
func (c *Connector) ping(ctx context.Context, db *sql.DB) error {
	if err := db.PingContext(ctx); err != nil {
		return err
	}
	if c.cfg.Driver != catalog.SQLite {
		return nil
	}
	var n int
	err := db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'PERSONAL_EXPENSES'").Scan(&n)
	if err != nil {
		return err
	}
	if n == 0 {
		return errors.New("table PERSONAL_EXPENSES not found")
	}
	return nil
}

func (c *Connector) databaseName() string {
	if c.cfg.Driver == catalog.SQLite {
		return c.cfg.SQLitePath
	}
	return c.cfg.Database
}

func (c *Connector) dsn(creds core.Credentials) (driverName, dsn string, err error) {
	switch c.cfg.Driver {
	case catalog.MySQL:
		mc := mysql.NewConfig()
		mc.User = creds.Username
		mc.Passwd = creds.Password
		mc.Net = "tcp"
		mc.Addr = net.JoinHostPort(c.cfg.Host, strconv.Itoa(c.cfg.Port))
		mc.DBName = c.cfg.Database
		mc.ParseTime = true
		mc.Timeout = c.cfg.ConnectTimeout
		return "mysql", mc.FormatDSN(), nil

	case catalog.Postgres:
		u := url.URL{
			Scheme: "postgres",
			User:   url.UserPassword(creds.Username, creds.Password),
			Host:   net.JoinHostPort(c.cfg.Host, strconv.Itoa(c.cfg.Port)),
			Path:   "/" + c.cfg.Database,
		}
		q := url.Values{}
		if c.cfg.SSLMode != "" {
			q.Set("sslmode", c.cfg.SSLMode)
		}
		if c.cfg.ConnectTimeout > 0 {
			q.Set("connect_timeout", strconv.Itoa(int(c.cfg.ConnectTimeout.Seconds())))
		}
		u.RawQuery = q.Encode()
		return "pgx", u.String(), nil

	case catalog.SQLite:
		if c.cfg.SQLitePath == "" {
			return "", "", errors.New("sqlite database path is empty")
		}
		// Credentials are required by the form but SQLite has no authentication.
		return "sqlite", sqliteURI(c.cfg.SQLitePath), nil
	}
	return "", "", fmt.Errorf("unsupported driver %q", c.cfg.Driver)
}

// sqliteURI escapes the path so '?', '#' and '%' in a file name stay part of it.
func sqliteURI(path string) string {
	return "file:" + (&url.URL{Path: path}).EscapedPath() + "?mode=ro"
}
