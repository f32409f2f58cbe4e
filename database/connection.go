/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */


package database

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/tomoncle/keeper/utils"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/mysqldialect"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/extra/bundebug"
	"github.com/uptrace/bun/schema"
)

// Connection is an open bun handle together with the settings it was opened
// with. Repositories only need DB(); the rest serves startup and monitoring.
type Connection struct {
	cfg    ConnectionConfig
	db     *bun.DB
	logger Logger
}

type dialectOpener func(cfg *ConnectionConfig) (*sql.DB, schema.Dialect, error)

var dialects = map[string]dialectOpener{
	"mysql":      openMySQL,
	"postgres":   openPostgres,
	"postgresql": openPostgres,
	"sqlite":     openSQLite,
	"sqlite3":    openSQLite,
}

// SupportedTypes lists the accepted ConnectionConfig.Type values.
func SupportedTypes() []string {
	types := make([]string, 0, len(dialects))
	for t := range dialects {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Open connects to the database described by cfg after applying the DB_*
// environment overrides, installs the configured query hooks and registers
// every model of the registry, pivot models included, so bun can resolve
// many-to-many relations and soft-delete columns.
func Open(ctx context.Context, cfg ConnectionConfig, logger Logger) (*Connection, error) {
	if logger == nil {
		logger = GetLogger()
	}
	applyEnv(&cfg)
	open, ok := dialects[cfg.Type]
	if !ok {
		return nil, fmt.Errorf("unsupported database type: %s, supported types: %v", cfg.Type, SupportedTypes())
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 30 * time.Second
	}

	sqldb, dialect, err := open(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create database connection: %w", err)
	}
	sqldb.SetMaxIdleConns(cfg.MaxIdleConns)
	sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
	sqldb.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqldb.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	c := &Connection{cfg: cfg, db: bun.NewDB(sqldb, dialect), logger: logger}
	c.addHooks()

	pingCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()
	if err := c.db.PingContext(pingCtx); err != nil {
		_ = c.db.Close()
		return nil, fmt.Errorf("database connection test failed: %w", err)
	}

	models := RegisteredModelInstances()
	c.db.RegisterModel(models...)
	logger.Info("Database connected", "type", cfg.Type, "host", cfg.Host, "models", len(models))
	return c, nil
}

func (c *Connection) addHooks() {
	// BUNDEBUG=1 or 2 turns on bun's own debug output regardless of config.
	c.db.AddQueryHook(bundebug.NewQueryHook(
		bundebug.WithEnabled(false),
		bundebug.FromEnv("BUNDEBUG"),
	))
	if c.cfg.EnableQueryLog {
		c.db.AddQueryHook(NewQueryHook(os.Stdout, true))
	}
	if c.cfg.EnableMetrics {
		c.db.AddQueryHook(DefaultMetricsHook())
	}
	if c.cfg.SlowQueryTime > 0 {
		c.db.AddQueryHook(&slowQueryHook{slowTime: c.cfg.SlowQueryTime, logger: c.logger})
	}
}

// applyEnv lets DB_* variables override the connection settings that
// usually differ per deployment.
func applyEnv(cfg *ConnectionConfig) {
	cfg.Host = utils.EnvDefaultString("DB_HOST", cfg.Host)
	cfg.Port = utils.EnvDefaultInt("DB_PORT", cfg.Port)
	cfg.Username = utils.EnvDefaultString("DB_USERNAME", cfg.Username)
	cfg.Password = utils.EnvDefaultString("DB_PASSWORD", cfg.Password)
	cfg.DBName = utils.EnvDefaultString("DB_NAME", cfg.DBName)
	cfg.SSLMode = utils.EnvDefaultString("DB_SSLMODE", cfg.SSLMode)
	cfg.MaxIdleConns = utils.EnvDefaultInt("DB_MAX_IDLE_CONNS", cfg.MaxIdleConns)
	cfg.MaxOpenConns = utils.EnvDefaultInt("DB_MAX_OPEN_CONNS", cfg.MaxOpenConns)
	cfg.ConnMaxLifetime = utils.EnvDefaultDuration("DB_CONN_MAX_LIFETIME", cfg.ConnMaxLifetime)
	cfg.EnableQueryLog = utils.EnvDefaultBool("DB_ENABLE_QUERY_LOG", cfg.EnableQueryLog)
	cfg.EnableMetrics = utils.EnvDefaultBool("DB_ENABLE_METRICS", cfg.EnableMetrics)
}

func mysqlDSN(cfg *ConnectionConfig) string {
	mc := mysql.NewConfig()
	mc.User = cfg.Username
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	mc.DBName = cfg.DBName
	mc.ParseTime = true
	mc.Loc = time.Local
	mc.Timeout = cfg.ConnectTimeout
	mc.ReadTimeout = cfg.ReadTimeout
	mc.WriteTimeout = cfg.WriteTimeout
	mc.Params = map[string]string{"charset": "utf8mb4"}
	return mc.FormatDSN()
}

func openMySQL(cfg *ConnectionConfig) (*sql.DB, schema.Dialect, error) {
	sqldb, err := sql.Open("mysql", mysqlDSN(cfg))
	if err != nil {
		return nil, nil, err
	}
	return sqldb, mysqldialect.New(), nil
}

func postgresDSN(cfg *ConnectionConfig) string {
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	q := url.Values{}
	q.Set("sslmode", sslMode)
	q.Set("connect_timeout", strconv.Itoa(int(cfg.ConnectTimeout.Seconds())))
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.Username, cfg.Password),
		Host:     net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Path:     "/" + cfg.DBName,
		RawQuery: q.Encode(),
	}
	return u.String()
}

func openPostgres(cfg *ConnectionConfig) (*sql.DB, schema.Dialect, error) {
	connector, err := pq.NewConnector(postgresDSN(cfg))
	if err != nil {
		return nil, nil, err
	}
	return sql.OpenDB(connector), pgdialect.New(), nil
}

// openSQLite opens <dbname>.db, or a shared in-memory database for an empty
// name or ":memory:". The in-memory database lives as long as its single
// connection, so the pool is pinned to one connection that never expires.
func openSQLite(cfg *ConnectionConfig) (*sql.DB, schema.Dialect, error) {
	dsn := cfg.DBName + ".db"
	memory := cfg.DBName == "" || cfg.DBName == ":memory:"
	if memory {
		dsn = "file::memory:?cache=shared"
	}
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, nil, err
	}
	if memory {
		cfg.MaxOpenConns = 1
		cfg.MaxIdleConns = 1
		cfg.ConnMaxLifetime = 0
		cfg.ConnMaxIdleTime = 0
	}
	return sqldb, sqlitedialect.New(), nil
}

// DB returns the bun handle.
func (c *Connection) DB() *bun.DB {
	return c.db
}

// Config returns the settings the connection was opened with, environment
// overrides applied.
func (c *Connection) Config() ConnectionConfig {
	return c.cfg
}

// Migrate runs the pending migrations, the registered model tables first.
func (c *Connection) Migrate(ctx context.Context) error {
	return NewMigrationManager(c.db, c.logger).RunMigrations(ctx)
}

// Health pings the database and reports the pool usage.
func (c *Connection) Health(ctx context.Context) *HealthStatus {
	start := time.Now()
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := c.db.PingContext(pingCtx)
	stats := c.db.Stats()
	status := &HealthStatus{
		Healthy:       err == nil,
		Connected:     err == nil,
		ResponseTime:  time.Since(start),
		ActiveConns:   stats.InUse,
		IdleConns:     stats.Idle,
		MaxOpenConns:  stats.MaxOpenConnections,
		LastCheckTime: start,
	}
	if err != nil {
		status.LastError = err.Error()
		c.logger.Warn("Database health check failed", "type", c.cfg.Type, "error", err)
	}
	return status
}

// Stats returns the database/sql pool statistics.
func (c *Connection) Stats() *DBStats {
	s := c.db.Stats()
	return &DBStats{
		MaxOpenConns:      s.MaxOpenConnections,
		OpenConns:         s.OpenConnections,
		InUse:             s.InUse,
		Idle:              s.Idle,
		WaitCount:         s.WaitCount,
		WaitDuration:      s.WaitDuration,
		MaxIdleClosed:     s.MaxIdleClosed,
		MaxIdleTimeClosed: s.MaxIdleTimeClosed,
		MaxLifetimeClosed: s.MaxLifetimeClosed,
	}
}

// Close closes the handle and its pool.
func (c *Connection) Close() error {
	err := c.db.Close()
	if err != nil {
		c.logger.Error("Failed to close database connection", "error", err)
		return err
	}
	c.logger.Info("Database connection closed", "type", c.cfg.Type)
	return nil
}
