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
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// HealthStatus holds the result of a health check against the database.
type HealthStatus struct {
	Healthy       bool          `json:"healthy"`
	Connected     bool          `json:"connected"`
	ResponseTime  time.Duration `json:"response_time"`
	ActiveConns   int           `json:"active_conns"`
	IdleConns     int           `json:"idle_conns"`
	MaxOpenConns  int           `json:"max_open_conns"`
	LastError     string        `json:"last_error,omitempty"`
	LastCheckTime time.Time     `json:"last_check_time"`
}

// DBStats mirrors the database/sql pool statistics.
type DBStats struct {
	MaxOpenConns      int           `json:"max_open_conns"`
	OpenConns         int           `json:"open_conns"`
	InUse             int           `json:"in_use"`
	Idle              int           `json:"idle"`
	WaitCount         int64         `json:"wait_count"`
	WaitDuration      time.Duration `json:"wait_duration"`
	MaxIdleClosed     int64         `json:"max_idle_closed"`
	MaxIdleTimeClosed int64         `json:"max_idle_time_closed"`
	MaxLifetimeClosed int64         `json:"max_lifetime_closed"`
}

// ConnectionConfig describes how to connect to a database and tune its pool.
type ConnectionConfig struct {
	Type            string        `json:"type" mapstructure:"type" yaml:"type"` // postgres, mysql, sqlite
	Host            string        `json:"host" mapstructure:"host" yaml:"host"`
	Port            int           `json:"port" mapstructure:"port" yaml:"port"`
	Username        string        `json:"username" mapstructure:"username" yaml:"username"`
	Password        string        `json:"password" mapstructure:"password" yaml:"password"`
	DBName          string        `json:"dbname" mapstructure:"dbname" yaml:"dbname"` // sqlite: file name without ".db", or ":memory:"
	SSLMode         string        `json:"sslmode" mapstructure:"sslmode" yaml:"sslmode"`
	MaxIdleConns    int           `json:"max_idle_conns" mapstructure:"max_idle_conns" yaml:"max_idle_conns"`
	MaxOpenConns    int           `json:"max_open_conns" mapstructure:"max_open_conns" yaml:"max_open_conns"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime" mapstructure:"conn_max_lifetime" yaml:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `json:"conn_max_idle_time" mapstructure:"conn_max_idle_time" yaml:"conn_max_idle_time"`
	ConnectTimeout  time.Duration `json:"connect_timeout" mapstructure:"connect_timeout" yaml:"connect_timeout"`
	ReadTimeout     time.Duration `json:"read_timeout" mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout    time.Duration `json:"write_timeout" mapstructure:"write_timeout" yaml:"write_timeout"`
	EnableQueryLog  bool          `json:"enable_query_log" mapstructure:"enable_query_log" yaml:"enable_query_log"`
	SlowQueryTime   time.Duration `json:"slow_query_time" mapstructure:"slow_query_time" yaml:"slow_query_time"`
	EnableMetrics   bool          `json:"enable_metrics" mapstructure:"enable_metrics" yaml:"enable_metrics"`
}

// DataMigrateConfig controls schema migration behavior on startup.
type DataMigrateConfig struct {
	EnableMigrateOnStartup bool   `json:"enable_migrate_on_startup" mapstructure:"enable_migrate_on_startup" yaml:"enable_migrate_on_startup"`
	TableName              string `json:"table_name" mapstructure:"table_name" yaml:"table_name"`
}

// DataInitConfig controls fixture seeding after the database is up.
type DataInitConfig struct {
	AutoInitOnStartup bool     `json:"auto_init_on_startup" mapstructure:"auto_init_on_startup" yaml:"auto_init_on_startup"`
	FixtureDir        string   `json:"fixture_dir" mapstructure:"fixture_dir" yaml:"fixture_dir"`
	FixtureFiles      []string `json:"fixture_files" mapstructure:"fixture_files" yaml:"fixture_files"`
	RecreateTables    bool     `json:"recreate_tables" mapstructure:"recreate_tables" yaml:"recreate_tables"`
}

// Config aggregates connection, migration, and data initialization settings.
type Config struct {
	ConnectionConfig  ConnectionConfig  `json:"connection_config" mapstructure:"connection" yaml:"connection"`
	DataMigrateConfig DataMigrateConfig `json:"data_migrate_config" mapstructure:"migrate" yaml:"migrate"`
	DataInitConfig    DataInitConfig    `json:"data_init_config" mapstructure:"init" yaml:"init"`
}

// DefaultConnectionConfig returns a connection config with sensible defaults.
func DefaultConnectionConfig() *ConnectionConfig {
	return &ConnectionConfig{
		MaxIdleConns:    10,
		MaxOpenConns:    100,
		ConnMaxLifetime: time.Hour,
		ConnMaxIdleTime: time.Minute * 30,
		ConnectTimeout:  time.Second * 10,
		ReadTimeout:     time.Second * 30,
		WriteTimeout:    time.Second * 30,
		EnableQueryLog:  false,
		SlowQueryTime:   time.Second * 2,
	}
}

// DefaultConfig returns a Config wrapping DefaultConnectionConfig.
func DefaultConfig() *Config {
	return &Config{
		ConnectionConfig:  *DefaultConnectionConfig(),
		DataMigrateConfig: DataMigrateConfig{
			TableName: defaultMigrationTable,
		},
		DataInitConfig: DataInitConfig{
			FixtureDir: "configs/fixtures",
		},
	}
}

// LoadConfig reads path (yaml, json or toml, by extension) on top of
// DefaultConfig. Every key can be overridden from the environment with the
// KEEPER_ prefix, e.g. KEEPER_CONNECTION_HOST. An empty path loads defaults
// and environment only.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("KEEPER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	def := DefaultConfig()
	setDefaults(v, def)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// setDefaults registers every key so AutomaticEnv can resolve it.
func setDefaults(v *viper.Viper, def *Config) {
	c := def.ConnectionConfig
	for key, val := range map[string]interface{}{
		"connection.type":                   c.Type,
		"connection.host":                   c.Host,
		"connection.port":                   c.Port,
		"connection.username":               c.Username,
		"connection.password":               c.Password,
		"connection.dbname":                 c.DBName,
		"connection.sslmode":                c.SSLMode,
		"connection.max_idle_conns":         c.MaxIdleConns,
		"connection.max_open_conns":         c.MaxOpenConns,
		"connection.conn_max_lifetime":      c.ConnMaxLifetime,
		"connection.conn_max_idle_time":     c.ConnMaxIdleTime,
		"connection.connect_timeout":        c.ConnectTimeout,
		"connection.read_timeout":           c.ReadTimeout,
		"connection.write_timeout":          c.WriteTimeout,
		"connection.enable_query_log":       c.EnableQueryLog,
		"connection.slow_query_time":        c.SlowQueryTime,
		"connection.enable_metrics":         c.EnableMetrics,
		"migrate.enable_migrate_on_startup": def.DataMigrateConfig.EnableMigrateOnStartup,
		"migrate.table_name":                def.DataMigrateConfig.TableName,
		"init.auto_init_on_startup":         def.DataInitConfig.AutoInitOnStartup,
		"init.fixture_dir":                  def.DataInitConfig.FixtureDir,
		"init.fixture_files":                def.DataInitConfig.FixtureFiles,
		"init.recreate_tables":              def.DataInitConfig.RecreateTables,
	} {
		v.SetDefault(key, val)
	}
}

// WriteYAML writes the configuration as YAML with the password masked.
func (c *Config) WriteYAML(w io.Writer) error {
	out := *c
	if out.ConnectionConfig.Password != "" {
		out.ConnectionConfig.Password = "******"
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&out); err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}
	return enc.Close()
}
