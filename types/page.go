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

// Condition is a single column = value predicate.
type Condition struct {
	Column string
	Value  interface{}
}

// Where is a list of equality predicates joined with AND, applied in slice order.
type Where []Condition

// NewWhere returns an empty Where to chain Eq calls on.
func NewWhere() Where { return Where{} }

// Eq appends a column = value predicate.
func (w Where) Eq(column string, value interface{}) Where {
	return append(w, Condition{Column: column, Value: value})
}

// PageRequest describes pagination, optional filter, and ordering.
type PageRequest struct {
	page     int
	pageSize int
	where    Where
	order    Order
}

func (p *PageRequest) GetPageSize() int {
	if p.pageSize < 1 {
		p.pageSize = 10
	}
	return p.pageSize
}

func (p *PageRequest) GetPage() int {
	if p.page < 1 {
		p.page = 1
	}
	return p.page
}

func (p *PageRequest) GetOffset() int {
	return (p.GetPage() - 1) * p.GetPageSize()
}

func (p *PageRequest) GetWhere() Where {
	return p.where
}

func (p *PageRequest) GetOrder() Order {
	return p.order
}

// NewPageRequest constructs a PageRequest with filter and order settings.
func NewPageRequest(page int, pageSize int, where Where, order Order) *PageRequest {
	return &PageRequest{page, pageSize, where, order}
}

// NewDefaultPageRequest constructs a PageRequest with no filter or ordering.
func NewDefaultPageRequest(page int, pageSize int) *PageRequest {
	return NewPageRequest(page, pageSize, nil, nil)
}

// Pagination holds one page of records along with pagination metadata.
type Pagination struct {
	Page     int        `json:"page"`
	PageSize int        `json:"page_size"`
	Total    int        `json:"total"`
	Items    Collection `json:"items"`
}

// Pages returns the number of pages needed to hold Total records.
func (p *Pagination) Pages() int {
	if p.PageSize < 1 || p.Total == 0 {
		return 0
	}
	return (p.Total + p.PageSize - 1) / p.PageSize
}

// NewDefaultPagination constructs an empty pagination container.
func NewDefaultPagination(page int, pageSize int) *Pagination {
	return &Pagination{page, pageSize, 0, make(Collection, 0)}
}
