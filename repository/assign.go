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
	"fmt"
	"reflect"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/uptrace/bun/schema"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// assign copies column keyed data onto target, a pointer to a model of table.
// Keys must name columns of the table, must not name the soft-delete column,
// and must be allowed by Fillable when the model implements it. Values are
// converted by mapstructure (numeric widening, RFC 3339 strings to time).
func assign(table *schema.Table, target any, data map[string]any, guarded ...string) error {
	if len(data) == 0 {
		return nil
	}

	var fillable map[string]struct{}
	if f, ok := target.(Fillable); ok {
		fillable = make(map[string]struct{})
		for _, col := range f.Fillable() {
			fillable[col] = struct{}{}
		}
	}

	byGoName := make(map[string]any, len(data))
	var rejected []string
	for column, value := range data {
		field := lookupField(table, column)
		switch {
		case field == nil, isGuarded(field.Name, guarded):
			rejected = append(rejected, column)
			continue
		case table.SoftDeleteField != nil && field == table.SoftDeleteField:
			rejected = append(rejected, column)
			continue
		}
		if fillable != nil {
			if _, ok := fillable[field.Name]; !ok {
				rejected = append(rejected, column)
				continue
			}
		}
		byGoName[field.GoName] = value
	}
	if len(rejected) > 0 {
		sort.Strings(rejected)
		return newValidationError(table.TypeName, fmt.Errorf("columns not assignable: %v", rejected), rejected...)
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		Squash:           true,
		WeaklyTypedInput: true,
		TagName:          "keeper",
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeHookFunc(time.RFC3339),
			mapstructure.StringToTimeDurationHookFunc(),
		),
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(byGoName); err != nil {
		return newValidationError(table.TypeName, err)
	}
	return nil
}

// dropUnchanged returns data without the guarded columns whose value equals
// the one already held by strct. The input map is not modified.
func dropUnchanged(table *schema.Table, strct reflect.Value, data map[string]any, guarded []string) map[string]any {
	var out map[string]any
	for column, value := range data {
		field := lookupField(table, column)
		if field == nil || value == nil || !isGuarded(field.Name, guarded) {
			continue
		}
		cur := field.Value(strct)
		dst := reflect.New(cur.Type())
		if err := mapstructure.WeakDecode(value, dst.Interface()); err != nil {
			continue
		}
		if !sameValue(cur.Interface(), dst.Elem().Interface()) {
			continue
		}
		if out == nil {
			out = make(map[string]any, len(data))
			for k, v := range data {
				out[k] = v
			}
		}
		delete(out, column)
	}
	if out == nil {
		return data
	}
	return out
}

// validateEntity runs the validate struct tags of the model.
func validateEntity(table *schema.Table, entity any) error {
	if err := validate.Struct(entity); err != nil {
		if _, ok := err.(*validator.InvalidValidationError); ok {
			return err
		}
		return newValidationError(table.TypeName, err)
	}
	return nil
}

func lookupField(table *schema.Table, column string) *schema.Field {
	if field, ok := table.FieldMap[column]; ok {
		return field
	}
	return nil
}

func isGuarded(column string, guarded []string) bool {
	for _, g := range guarded {
		if g == column {
			return true
		}
	}
	return false
}
