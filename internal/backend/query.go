package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

type rowMode int

const (
	rowsMany rowMode = iota
	rowsSingle
	rowsMaybeSingle
)

const singleObjectAccept = "application/vnd.pgrst.object+json"

// QueryBuilder arma una consulta PostgREST. No es reutilizable entre goroutines.
type QueryBuilder struct {
	client  *Client
	table   string
	columns string
	filters url.Values
	orders  []string
	limit   int
	mode    rowMode
}

// Select fija las columnas, incluyendo relaciones embebidas como "*, role(name)".
func (q *QueryBuilder) Select(columns string) *QueryBuilder {
	q.columns = compactColumns(columns)
	return q
}

// Eq agrega un filtro de igualdad.
func (q *QueryBuilder) Eq(column string, value any) *QueryBuilder {
	if q.filters == nil {
		q.filters = url.Values{}
	}
	q.filters.Add(column, fmt.Sprintf("eq.%v", value))
	return q
}

func (q *QueryBuilder) Order(column string, ascending bool) *QueryBuilder {
	dir := "asc"
	if !ascending {
		dir = "desc"
	}
	q.orders = append(q.orders, column+"."+dir)
	return q
}

func (q *QueryBuilder) Limit(n int) *QueryBuilder {
	q.limit = n
	return q
}

// Single exige exactamente una fila; cero o varias filas son un rechazo del backend.
func (q *QueryBuilder) Single() *QueryBuilder {
	q.mode = rowsSingle
	return q
}

// MaybeSingle acepta cero o una fila; cero filas decodifica null en dest.
func (q *QueryBuilder) MaybeSingle() *QueryBuilder {
	q.mode = rowsMaybeSingle
	return q
}

// Execute hace el SELECT y decodifica la respuesta en dest.
func (q *QueryBuilder) Execute(ctx context.Context, dest any) error {
	req, err := q.client.newRequest(ctx, http.MethodGet, q.url(true), nil)
	if err != nil {
		return err
	}
	q.applyAccept(req)
	return q.run(req, "select", dest)
}

// Insert inserta row y decodifica la representación devuelta en dest.
func (q *QueryBuilder) Insert(ctx context.Context, row any, dest any) error {
	req, err := q.client.newRequest(ctx, http.MethodPost, q.url(false), row)
	if err != nil {
		return err
	}
	req.Header.Set("Prefer", "return=representation")
	q.applyAccept(req)
	return q.run(req, "insert", dest)
}

// Update aplica patch a las filas que cumplen los filtros.
func (q *QueryBuilder) Update(ctx context.Context, patch any, dest any) error {
	req, err := q.client.newRequest(ctx, http.MethodPatch, q.url(true), patch)
	if err != nil {
		return err
	}
	req.Header.Set("Prefer", "return=representation")
	q.applyAccept(req)
	return q.run(req, "update", dest)
}

func (q *QueryBuilder) applyAccept(req *http.Request) {
	if q.mode == rowsSingle {
		req.Header.Set("Accept", singleObjectAccept)
	}
}

func (q *QueryBuilder) url(withFilters bool) string {
	reqURL := fmt.Sprintf("%s/rest/v1/%s", q.client.baseURL, url.PathEscape(q.table))

	params := url.Values{}
	if q.columns != "" {
		params.Set("select", q.columns)
	}
	if withFilters {
		for column, values := range q.filters {
			for _, v := range values {
				params.Add(column, v)
			}
		}
		if len(q.orders) > 0 {
			params.Set("order", strings.Join(q.orders, ","))
		}
		if q.limit > 0 {
			params.Set("limit", strconv.Itoa(q.limit))
		}
	}
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}
	return reqURL
}

func (q *QueryBuilder) run(req *http.Request, verb string, dest any) error {
	body, err := q.client.do(req, fmt.Sprintf("rest.%s:%s", verb, q.table))
	if err != nil {
		return err
	}
	if dest == nil || len(body) == 0 {
		return nil
	}

	if q.mode == rowsMaybeSingle {
		var rows []json.RawMessage
		if err := json.Unmarshal(body, &rows); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
		switch len(rows) {
		case 0:
			body = []byte("null")
		case 1:
			body = rows[0]
		default:
			return ErrMultipleRows
		}
	}

	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}

// compactColumns quita los espacios fuera de comillas, igual que hacen los clientes oficiales.
func compactColumns(columns string) string {
	var b strings.Builder
	quoted := false
	for _, r := range columns {
		switch {
		case r == '"':
			quoted = !quoted
			b.WriteRune(r)
		case !quoted && (r == ' ' || r == '\t' || r == '\n'):
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
