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

package types

import (
	"fmt"
	"strings"
)

// Common illegal/default values used by enums.
const (
	IllegalValue = -1
	IllegalName  = "unknown"
	IllegalDesc  = "unknown"
)

// BaseEnum represents a basic enum contract used by domain types.
type BaseEnum interface {
	IsValid() bool
	Number() int
	String() string
	Desc() string
	Name() string
}

// Direction is the sort direction of an order directive.
type Direction int

const (
	Asc Direction = iota
	Desc
)

var _ BaseEnum = Asc

func (d Direction) IsValid() bool { return d == Asc || d == Desc }

func (d Direction) Number() int {
	if !d.IsValid() {
		return IllegalValue
	}
	return int(d)
}

// String returns the SQL keyword of the direction.
func (d Direction) String() string {
	switch d {
	case Asc:
		return "ASC"
	case Desc:
		return "DESC"
	default:
		return IllegalName
	}
}

func (d Direction) Name() string { return strings.ToLower(d.String()) }

func (d Direction) Desc() string {
	switch d {
	case Asc:
		return "ascending"
	case Desc:
		return "descending"
	default:
		return IllegalDesc
	}
}

// ParseDirection accepts "asc"/"desc" in any case; an empty string means Asc.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "asc", "ascending":
		return Asc, nil
	case "desc", "descending":
		return Desc, nil
	default:
		return Direction(IllegalValue), fmt.Errorf("invalid sort direction: %q", s)
	}
}

// OrderBy is a single sort directive.
type OrderBy struct {
	Column    string
	Direction Direction
}

// Order is a list of sort directives applied in slice order.
type Order []OrderBy

// NewOrder returns an empty Order to chain Asc/Desc calls on.
func NewOrder() Order { return Order{} }

// Asc appends an ascending directive.
func (o Order) Asc(column string) Order {
	return append(o, OrderBy{Column: column, Direction: Asc})
}

// Desc appends a descending directive.
func (o Order) Desc(column string) Order {
	return append(o, OrderBy{Column: column, Direction: Desc})
}

// Validate checks every directive has a column and a known direction.
func (o Order) Validate() error {
	for i, ob := range o {
		if strings.TrimSpace(ob.Column) == "" {
			return fmt.Errorf("order directive %d has no column", i)
		}
		if !ob.Direction.IsValid() {
			return fmt.Errorf("order directive %d (%s) has an invalid direction", i, ob.Column)
		}
	}
	return nil
}

// ParseOrder parses "name DESC, id" style clauses.
func ParseOrder(clauses ...string) (Order, error) {
	order := NewOrder()
	for _, clause := range clauses {
		for _, part := range strings.Split(clause, ",") {
			fields := strings.Fields(part)
			switch len(fields) {
			case 0:
				continue
			case 1, 2:
				dir := ""
				if len(fields) == 2 {
					dir = fields[1]
				}
				d, err := ParseDirection(dir)
				if err != nil {
					return nil, err
				}
				order = append(order, OrderBy{Column: fields[0], Direction: d})
			default:
				return nil, fmt.Errorf("invalid order clause: %q", part)
			}
		}
	}
	return order, nil
}
