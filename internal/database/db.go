package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite" // SQLite driver (pure Go) for local inventories
)

// Supported drivers.
const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

// ErrConfiguration is returned when a connection cannot even be attempted:
// the driver is unknown or the options are rejected by it.
var ErrConfiguration = errors.New("database configuration error")

// ErrConnection is returned when the server rejects the credentials or
// cannot be reached.
var ErrConnection = errors.New("connection failed")

// Credentials are the four values collected at the login prompt.
type Credentials struct {
	Host     string
	Name     string
	User     string
	Password string
}

// Options hold the transport settings that are not part of the login.
type Options struct {
	Driver         string        // mysql or sqlite
	TLS            string        // false | true | skip-verify | preferred
	ConnectTimeout time.Duration // bound on the initial ping
}

// Connector opens the single connection a session works on.
type Connector struct {
	opts Options
}

// NewConnector returns a Connector for opts.  Zero values fall back to
// mysql, TLS disabled and a five second ping timeout.
func NewConnector(opts Options) *Connector {
	if opts.Driver == "" {
		opts.Driver = DriverMySQL
	}
	if opts.TLS == "" {
		opts.TLS = "false"
	}
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = 5 * time.Second
	}
	return &Connector{opts: opts}
}

// Connect opens a handle and verifies it with a ping.  No retry is made;
// the caller decides whether to prompt again.  The returned handle never
// holds more than one open connection.
func (c *Connector) Connect(ctx context.Context, cr Credentials) (*sql.DB, error) {
	db, err := c.open(cr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	// One connection for the whole session
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// Ping with timeout
	ctx, cancel := context.WithTimeout(ctx, c.opts.ConnectTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %v", ErrConnection, err)
	}
	return db, nil
}

func (c *Connector) open(cr Credentials) (*sql.DB, error) {
	switch c.opts.Driver {
	case DriverMySQL:
		conn, err := mysql.NewConnector(MySQLConfig(cr, c.opts))
		if err != nil {
			return nil, err
		}
		return sql.OpenDB(conn), nil
	case DriverSQLite:
		if cr.Name == "" {
			return nil, errors.New("sqlite needs a database file name")
		}
		return sql.Open(DriverSQLite, cr.Name+"?_pragma=foreign_keys(1)")
	default:
		return nil, fmt.Errorf("unsupported driver %q", c.opts.Driver)
	}
}

// MySQLConfig builds the driver configuration for cr.  Host may carry a
// port; the driver appends 3306 otherwise.  clientFoundRows makes UPDATE
// report matched rather than changed rows, so rewriting a display with
// its current values still counts as a hit.  On non-TLS connections the
// driver fetches the server's RSA key itself when caching_sha2_password
// needs it.
func MySQLConfig(cr Credentials, opts Options) *mysql.Config {
	cfg := mysql.NewConfig()
	cfg.Net = "tcp"
	cfg.Addr = cr.Host
	cfg.DBName = cr.Name
	cfg.User = cr.User
	cfg.Passwd = cr.Password
	cfg.TLSConfig = opts.TLS
	cfg.AllowNativePasswords = true
	cfg.ClientFoundRows = true
	cfg.Timeout = opts.ConnectTimeout
	return cfg
}
