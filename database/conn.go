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
	"fmt"
	"sync"

	"github.com/uptrace/bun"
)

var (
	globalMu     sync.RWMutex
	globalConn   *Connection
	globalConfig *Config
)

// GetDB returns the bun handle opened by InitDB, or nil before it.
func GetDB() *bun.DB {
	if c := GetConnection(); c != nil {
		return c.DB()
	}
	return nil
}

// GetConnection returns the connection opened by InitDB, or nil before it.
func GetConnection() *Connection {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalConn
}

func currentConfig() *Config {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalConfig
}

// InitDB opens the process wide connection, migrating on startup when the
// config asks for it.
func InitDB(cfg *Config) (*bun.DB, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database configuration cannot be empty")
	}
	return InitDatabaseWithOptions(cfg, cfg.DataMigrateConfig.EnableMigrateOnStartup)
}

// InitDatabaseWithOptions opens the process wide connection, optionally runs
// migrations and seeds fixtures when DataInitConfig.AutoInitOnStartup is set.
// A previous connection is closed first.
func InitDatabaseWithOptions(cfg *Config, runMigrations bool) (*bun.DB, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database configuration cannot be empty")
	}
	if err := CloseDB(); err != nil {
		GetLogger().Warn("Closing previous database failed", "error", err)
	}

	ctx := context.Background()
	conn, err := Open(ctx, cfg.ConnectionConfig, GetLogger())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	globalMu.Lock()
	globalConn, globalConfig = conn, cfg
	globalMu.Unlock()

	if runMigrations {
		if err := conn.Migrate(ctx); err != nil {
			return nil, fmt.Errorf("failed to run database migrations: %w", err)
		}
	}
	if cfg.DataInitConfig.AutoInitOnStartup {
		if err := InitData(ctx); err != nil {
			return nil, fmt.Errorf("failed to initialize data: %w", err)
		}
	}
	GetLogger().Info("Database initialization completed!")
	return conn.DB(), nil
}

// CloseDB closes the process wide connection and forgets it.
func CloseDB() error {
	globalMu.Lock()
	conn := globalConn
	globalConn, globalConfig = nil, nil
	globalMu.Unlock()
	if conn == nil {
		return nil
	}
	return conn.Close()
}

// GetHealthStatus checks the process wide connection.
func GetHealthStatus(ctx context.Context) *HealthStatus {
	if c := GetConnection(); c != nil {
		return c.Health(ctx)
	}
	return &HealthStatus{LastError: "Database not initialized"}
}

// GetDatabaseStats returns the pool statistics of the process wide connection.
func GetDatabaseStats() *DBStats {
	if c := GetConnection(); c != nil {
		return c.Stats()
	}
	return &DBStats{}
}

// RunMigrations executes pending migrations on the process wide connection.
func RunMigrations() error {
	c := GetConnection()
	if c == nil {
		return fmt.Errorf("database not initialized")
	}
	return c.Migrate(context.Background())
}
