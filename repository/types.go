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

package repository

import (
	"context"

	"github.com/tomoncle/keeper/types"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/schema"
)

// DefaultLimit caps FindWhere when no positive limit is given.
const DefaultLimit = 10000

// TrashedKey is the record key carrying the soft-delete state.
const TrashedKey = types.TrashedKey

// ValueKey holds a non-model element wrapped by ConvertCollection.
const ValueKey = "value"

type (
	Record     = types.Record
	Collection = types.Collection
)

// SoftDeletable is implemented by models that are marked deleted instead of
// being removed. Embedding SoftDeletes is the usual way to get it.
type SoftDeletable interface {
	Trashed() bool
}

// Fillable restricts which columns Create and Update accept from a data map.
type Fillable interface {
	Fillable() []string
}

// RelationProvider exposes the named many-to-many relations of a model.
type RelationProvider interface {
	Relations() map[string]Relation
}

// Relation adds and removes associations between an owner row and a related row.
type Relation interface {
	Attach(ctx context.Context, db bun.IDB, ownerID, relatedID any, pivot map[string]any) error
	Detach(ctx context.Context, db bun.IDB, ownerID, relatedID any) error
}

// ReadRepository holds the record returning lookups. Every read includes
// soft-deleted rows; records of soft-deletable models carry TrashedKey.
type ReadRepository interface {
	// All returns every row projected on columns (nil or "*" for all) in order.
	All(ctx context.Context, columns []string, order types.Order) (Collection, error)

	// Find returns the row with primary key id, or nil when there is none.
	Find(ctx context.Context, id any, columns []string) (Record, error)

	// FindWhere filters on column equality, sorts, then skips offset rows
	// (when > 0) and returns at most limit rows (DefaultLimit when <= 0).
	FindWhere(ctx context.Context, where types.Where, columns []string, order types.Order, offset, limit int) (Collection, error)

	Count(ctx context.Context, where types.Where) (int, error)

	Page(ctx context.Context, page *types.PageRequest) (*types.Pagination, error)
}

// WriteRepository holds the mutating operations.
type WriteRepository interface {
	// Create inserts a row built from data and returns it as a record.
	Create(ctx context.Context, data map[string]any) (Record, error)

	// Update applies data to the row with primary key id. Nothing is written
	// when no column changes; the result then is true. Primary key columns
	// may be sent with their current value; any other value for them is a
	// ValidationError.
	Update(ctx context.Context, id any, data map[string]any) (bool, error)

	// Delete removes (or soft-deletes) rows by primary key and returns how many.
	Delete(ctx context.Context, ids ...any) (int, error)

	// ForceDelete removes rows even when the model is soft-deletable.
	ForceDelete(ctx context.Context, ids ...any) (int, error)

	// Restore clears the soft-delete mark of trashed rows.
	Restore(ctx context.Context, ids ...any) (int, error)
}

// RelationRepository manages many-to-many associations by relation name.
type RelationRepository interface {
	Attach(ctx context.Context, id any, relation string, relatedID any, pivot map[string]any) error

	// Detach removes the association; a nil relatedID removes all of them.
	Detach(ctx context.Context, id any, relation string, relatedID any) error
}

// Converter turns entities into records.
type Converter[T any] interface {
	ConvertModel(entity *T) Record
	ConvertCollection(items []any) Collection
}

// Repository combines reads, writes, relations and record conversion for T
// and exposes Bun query builders for advanced use cases.
type Repository[T any] interface {
	ReadRepository
	WriteRepository
	RelationRepository
	Converter[T]

	// WithTx returns a copy of the repository running on tx.
	WithTx(tx bun.IDB) Repository[T]
	SoftDeletes() bool
	Dialect() schema.Dialect
	NewSelect() *bun.SelectQuery
	NewInsert() *bun.InsertQuery
	NewUpdate() *bun.UpdateQuery
	NewDelete() *bun.DeleteQuery
}
