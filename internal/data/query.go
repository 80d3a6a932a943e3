// Copyright (c) 2026 John Dewey

// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to
// deal in the Software without restriction, including without limitation the
// rights to use, copy, modify, merge, publish, distribute, sublicense, and/or
// sell copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:

// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.

// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING
// FROM, OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER
// DEALINGS IN THE SOFTWARE.

package data

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/retr0h/tether/internal/validation"
)

// Query builds one resource query. Builders are not safe for concurrent
// use; Execute may be called more than once.
type Query struct {
	client *Client
	table  string
	method string
	params url.Values
	body   any
	single bool
	prefer string
	err    error
}

// From starts a query against table.
func (c *Client) From(
	table string,
) *Query {
	q := &Query{
		client: c,
		table:  table,
		method: http.MethodGet,
		params: url.Values{},
	}
	if msg, ok := validation.Var(table, "required,identifier"); !ok {
		q.err = fmt.Errorf("invalid table: %s", msg)
	}

	return q
}

// Select limits the returned columns.
func (q *Query) Select(
	columns string,
) *Query {
	q.params.Set("select", columns)
	return q
}

func (q *Query) filter(
	column string,
	op string,
	value string,
) *Query {
	if msg, ok := validation.Var(column, "required,identifier"); !ok && q.err == nil {
		q.err = fmt.Errorf("invalid column: %s", msg)
	}
	q.params.Add(column, op+"."+value)

	return q
}

// Eq matches rows where column equals value.
func (q *Query) Eq(column, value string) *Query { return q.filter(column, "eq", value) }

// Neq matches rows where column differs from value.
func (q *Query) Neq(column, value string) *Query { return q.filter(column, "neq", value) }

// Gt matches rows where column is greater than value.
func (q *Query) Gt(column, value string) *Query { return q.filter(column, "gt", value) }

// Lt matches rows where column is less than value.
func (q *Query) Lt(column, value string) *Query { return q.filter(column, "lt", value) }

// In matches rows where column is one of values.
func (q *Query) In(
	column string,
	values ...string,
) *Query {
	return q.filter(column, "in", "("+strings.Join(values, ",")+")")
}

// Order sorts by column.
func (q *Query) Order(
	column string,
	ascending bool,
) *Query {
	dir := "desc"
	if ascending {
		dir = "asc"
	}
	q.params.Set("order", column+"."+dir)

	return q
}

// Limit caps the number of rows.
func (q *Query) Limit(
	n int,
) *Query {
	q.params.Set("limit", strconv.Itoa(n))
	return q
}

// Single expects exactly one row. The backend answers 406 when there is
// none, which is recorded as a breadcrumb rather than escalated.
func (q *Query) Single() *Query {
	q.single = true
	return q
}

// Insert turns the query into an insert of row (an object or a slice).
func (q *Query) Insert(
	row any,
) *Query {
	q.method = http.MethodPost
	q.body = row
	q.prefer = "return=representation"

	return q
}

// Update turns the query into an update of the filtered rows.
func (q *Query) Update(
	values any,
) *Query {
	q.method = http.MethodPatch
	q.body = values
	q.prefer = "return=representation"

	return q
}

// Delete turns the query into a delete of the filtered rows.
func (q *Query) Delete() *Query {
	q.method = http.MethodDelete
	q.body = nil
	q.prefer = ""

	return q
}

// Execute sends the query.
func (q *Query) Execute(
	ctx context.Context,
) Result {
	if q.err != nil {
		return exception(q.err)
	}

	body, err := jsonBody(q.body)
	if err != nil {
		return exception(err)
	}

	header := http.Header{}
	if q.single {
		header.Set("Accept", singleObjectMediaType)
	}
	if q.prefer != "" {
		header.Set("Prefer", q.prefer)
	}

	return q.client.do(ctx, request{
		method: q.method,
		path:   restPrefix + q.table,
		query:  q.params,
		header: header,
		body:   body,
	})
}
