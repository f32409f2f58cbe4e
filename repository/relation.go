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
	"fmt"
	"reflect"

	"github.com/uptrace/bun"
)

// BelongsToMany is a many-to-many relation stored in the pivot model P.
// OwnerKey and RelatedKey are the pivot columns holding the two primary keys;
// any other pivot column can be filled through the pivot data of Attach.
//
//	func (*User) Relations() map[string]repository.Relation {
//		return map[string]repository.Relation{
//			"tags": repository.BelongsToMany[UserTag]{OwnerKey: "user_id", RelatedKey: "tag_id"},
//		}
//	}
type BelongsToMany[P any] struct {
	OwnerKey   string
	RelatedKey string
}

var _ Relation = BelongsToMany[struct{}]{}

func (rel BelongsToMany[P]) Attach(ctx context.Context, db bun.IDB, ownerID, relatedID any, pivot map[string]any) error {
	if relatedID == nil {
		return fmt.Errorf("attach %s: related id is required", rel.RelatedKey)
	}
	row := new(P)
	table := db.Dialect().Tables().Get(reflect.TypeOf(row).Elem())

	data := make(map[string]any, len(pivot)+2)
	for k, v := range pivot {
		data[k] = v
	}
	data[rel.OwnerKey] = ownerID
	data[rel.RelatedKey] = relatedID
	if err := assign(table, row, data); err != nil {
		return err
	}
	if err := validateEntity(table, row); err != nil {
		return err
	}
	_, err := db.NewInsert().Model(row).Exec(ctx)
	return err
}

// Detach removes the pivot row linking ownerID and relatedID, or every pivot
// row of ownerID when relatedID is nil. Missing rows are not an error.
func (rel BelongsToMany[P]) Detach(ctx context.Context, db bun.IDB, ownerID, relatedID any) error {
	q := db.NewDelete().
		Model((*P)(nil)).
		Where("? = ?", bun.Ident(rel.OwnerKey), ownerID)
	if relatedID != nil {
		q = q.Where("? = ?", bun.Ident(rel.RelatedKey), relatedID)
	}
	_, err := q.ForceDelete().Exec(ctx)
	return err
}
