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
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	def := DefaultConfig()
	assert.Equal(t, def.ConnectionConfig, cfg.ConnectionConfig)
	assert.Equal(t, def.DataMigrateConfig, cfg.DataMigrateConfig)
	assert.Equal(t, "configs/fixtures", cfg.DataInitConfig.FixtureDir)
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
connection:
  type: postgres
  host: db.local
  port: 5432
  password: secret
  slow_query_time: 500ms
migrate:
  enable_migrate_on_startup: true
init:
  fixture_files: [users.yml, tags.yml]
`), 0o600))
	t.Setenv("KEEPER_CONNECTION_HOST", "override.local")
	t.Setenv("KEEPER_CONNECTION_MAX_OPEN_CONNS", "7")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.ConnectionConfig.Type)
	assert.Equal(t, "override.local", cfg.ConnectionConfig.Host)
	assert.Equal(t, 5432, cfg.ConnectionConfig.Port)
	assert.Equal(t, 7, cfg.ConnectionConfig.MaxOpenConns)
	assert.Equal(t, 500*time.Millisecond, cfg.ConnectionConfig.SlowQueryTime)
	assert.Equal(t, time.Hour, cfg.ConnectionConfig.ConnMaxLifetime)
	assert.True(t, cfg.DataMigrateConfig.EnableMigrateOnStartup)
	assert.Equal(t, defaultMigrationTable, cfg.DataMigrateConfig.TableName)
	assert.Equal(t, []string{"users.yml", "tags.yml"}, cfg.DataInitConfig.FixtureFiles)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestWriteYAMLMasksPassword(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ConnectionConfig.Type = "mysql"
	cfg.ConnectionConfig.Password = "secret"

	var buf bytes.Buffer
	require.NoError(t, cfg.WriteYAML(&buf))
	out := buf.String()
	assert.Contains(t, out, "type: mysql")
	assert.Contains(t, out, "******")
	assert.NotContains(t, out, "secret")
	assert.Equal(t, "secret", cfg.ConnectionConfig.Password)
}
