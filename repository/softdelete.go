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

import "time"

// SoftDeletes is embedded into models that should be trashed instead of
// removed. Bun then rewrites deletes into updates of deleted_at and hides
// trashed rows from plain selects.
type SoftDeletes struct {
	DeletedAt time.Time `bun:",soft_delete,nullzero" json:"deleted_at,omitempty"`
}

func (s SoftDeletes) Trashed() bool { return !s.DeletedAt.IsZero() }

// isSoftDeletable checks the capability on the static type of T.
func isSoftDeletable[T any]() bool {
	_, ok := any(new(T)).(SoftDeletable)
	return ok
}
