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
	"io/fs"
	"os"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dbfixture"
)

// LoadFixtures seeds YAML fixture files (bun dbfixture format) from fsys.
// Models referenced by the files must be registered on db first. With
// recreate the tables are dropped and created before loading.
func LoadFixtures(ctx context.Context, db *bun.DB, fsys fs.FS, recreate bool, names ...string) (*dbfixture.Fixture, error) {
	if db == nil {
		return nil, fmt.Errorf("database not initialized")
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("no fixture files given")
	}

	var opts []dbfixture.FixtureOption
	if recreate {
		opts = append(opts, dbfixture.WithRecreateTables())
	}
	fixture := dbfixture.New(db, opts...)
	if err := fixture.Load(ctx, fsys, names...); err != nil {
		return nil, fmt.Errorf("failed to load fixtures %v: %w", names, err)
	}

	GetLogger().Info("Fixtures loaded", "files", names, "recreate", recreate)
	return fixture, nil
}

// InitData seeds the global database from DataInitConfig.
func InitData(ctx context.Context) error {
	cfg := currentConfig()
	if cfg == nil {
		return fmt.Errorf("database not initialized")
	}
	initCfg := cfg.DataInitConfig
	if len(initCfg.FixtureFiles) == 0 {
		return nil
	}
	dir := initCfg.FixtureDir
	if dir == "" {
		dir = "configs/fixtures"
	}
	_, err := LoadFixtures(ctx, GetDB(), os.DirFS(dir), initCfg.RecreateTables, initCfg.FixtureFiles...)
	return err
}
