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
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestIsSqlError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		is   bool
		kind SQLError
	}{
		{"nil", nil, false, UnknownErr},
		{"no rows", fmt.Errorf("wrapped: %w", sql.ErrNoRows), true, NoRowsErr},
		{"mysql duplicate", &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}, true, DuplicateKeyErr},
		{"mysql no column", &mysql.MySQLError{Number: 1054}, true, NoColumnErr},
		{"mysql other", &mysql.MySQLError{Number: 9999}, true, UnknownErr},
		{"pq duplicate", &pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"}, true, DuplicateKeyErr},
		{"pq wrapped undefined table", fmt.Errorf("select: %w", &pq.Error{Code: "42P01"}), true, NoTableErr},
		{"pq other", &pq.Error{Code: "57014"}, true, UnknownErr},
		{"sqlite exists", errors.New("SQL logic error: table users already exists (1)"), true, ExistTableErr},
		{"pg index missing", errors.New(`ERROR: index "idx_users" does not exist`), true, NoIndexErr},
		{"sqlite unique", errors.New("constraint failed: UNIQUE constraint failed: users.email (2067)"), true, DuplicateKeyErr},
		{"sqlite no table", errors.New("SQL logic error: no such table: users (1)"), true, NoTableErr},
		{"pg not null", errors.New(`ERROR: null value violates not-null constraint (SQLSTATE 23502)`), true, NotNullViolationErr},
		{"pg fk", errors.New("ERROR: insert violates foreign key violation (SQLSTATE 23503)"), true, ForeignKeyViolationErr},
		{"plain", errors.New("boom"), false, UnknownErr},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			is, kind := IsSqlError(tt.err)
			assert.Equal(t, tt.is, is)
			assert.Equal(t, tt.kind, kind)
		})
	}
}

func TestSQLErrorKind(t *testing.T) {
	assert.Equal(t, "duplicate_key", DuplicateKeyErr.String())
	assert.Equal(t, "unknown", SQLError(1000).String())
	assert.True(t, DuplicateKeyErr.IsConstraintViolation())
	assert.True(t, NotNullViolationErr.IsConstraintViolation())
	assert.False(t, NoTableErr.IsConstraintViolation())
}
