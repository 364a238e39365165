package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

const (
	defaultMaxOpenConns = 25
	defaultMaxIdleConns = 5
	defaultConnLifetime = time.Hour
	defaultConnIdleTime = 30 * time.Minute
	defaultPingTimeout  = 5 * time.Second
)

// ConnParams enumerates the Postgres connection options.
type ConnParams struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
}

// DSN renders the params as a postgres:// URL understood by pgx.
func (p ConnParams) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(p.User, p.Password),
		Host:   net.JoinHostPort(p.Host, strconv.Itoa(p.Port)),
		Path:   "/" + p.Database,
	}
	return u.String()
}

// Validate reports missing connection options.
func (p ConnParams) Validate() error {
	switch {
	case strings.TrimSpace(p.Host) == "":
		return errors.New("db: host is empty")
	case p.Port <= 0 || p.Port > 65535:
		return fmt.Errorf("db: invalid port %d", p.Port)
	case strings.TrimSpace(p.Database) == "":
		return errors.New("db: database name is empty")
	case strings.TrimSpace(p.User) == "":
		return errors.New("db: user is empty")
	}
	return nil
}

// NewPostgresDB creates a pgx/stdlib backed *sql.DB pool and validates the connection.
func NewPostgresDB(dsn string) (*sql.DB, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("db: empty DSN")
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(defaultMaxOpenConns)
	db.SetMaxIdleConns(defaultMaxIdleConns)
	db.SetConnMaxLifetime(defaultConnLifetime)
	db.SetConnMaxIdleTime(defaultConnIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), defaultPingTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("db: ping: %w", err)
	}

	return db, nil
}

// Connect validates params and opens the pool.
func Connect(params ConnParams) (*sql.DB, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return NewPostgresDB(params.DSN())
}
