// Package pagination parses page/limit query parameters and describes a page of results.
package pagination

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
)

const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
)

type Params struct {
	Page  int
	Limit int
}

func (p Params) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Parse reads page and limit from the query. Missing values fall back to the defaults;
// malformed or out of range values are errors.
func Parse(q url.Values) (Params, error) {
	p := Params{Page: DefaultPage, Limit: DefaultLimit}

	if v := q.Get("page"); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil || page < 1 {
			return Params{}, errors.New("page must be a positive integer")
		}

		p.Page = page
	}

	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 1 || limit > MaxLimit {
			return Params{}, fmt.Errorf("limit must be between 1 and %d", MaxLimit)
		}

		p.Limit = limit
	}

	return p, nil
}

type Result struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

func NewResult(p Params, total int) Result {
	pages := 0
	if p.Limit > 0 {
		pages = (total + p.Limit - 1) / p.Limit
	}

	return Result{Total: total, Page: p.Page, Limit: p.Limit, TotalPages: pages}
}
