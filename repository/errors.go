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
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	ErrNotFound        = errors.New("record not found")
	ErrValidation      = errors.New("validation failed")
	ErrUnknownRelation = errors.New("unknown relation")
)

// NotFoundError is returned when an operation needs an existing row and there is none.
type NotFoundError struct {
	Model string
	ID    any
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with id %v not found", e.Model, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound || target == sql.ErrNoRows
}

// ValidationError is returned when data cannot be assigned to the model or
// the resulting entity fails its validate tags.
type ValidationError struct {
	Model  string
	Fields []string
	Err    error
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return fmt.Sprintf("invalid %s: %v", e.Model, e.Err)
	}
	return fmt.Sprintf("invalid %s (%s): %v", e.Model, strings.Join(e.Fields, ", "), e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// UnknownRelationError is returned by Attach and Detach for relation names
// the model does not declare.
type UnknownRelationError struct {
	Model    string
	Relation string
}

func (e *UnknownRelationError) Error() string {
	return fmt.Sprintf("%s has no relation named %q", e.Model, e.Relation)
}

func (e *UnknownRelationError) Is(target error) bool { return target == ErrUnknownRelation }

// IsNotFound reports whether err is, or wraps, a NotFoundError.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsValidation reports whether err is, or wraps, a ValidationError.
func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }

func newValidationError(model string, err error, fields ...string) *ValidationError {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			fields = append(fields, fe.Field())
		}
	}
	return &ValidationError{Model: model, Fields: fields, Err: err}
}
