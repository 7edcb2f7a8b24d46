package common

import (
	"net/http"
	"strconv"
)

// Pagination is the metadata block of list responses.
type Pagination struct {
	Page       int `json:"page"`
	PerPage    int `json:"perPage"`
	TotalItems int `json:"totalItems"`
	TotalPages int `json:"totalPages"`
}

// ParsePagination extracts page and limit query parameters, capping limit at maxPerPage when positive.
func ParsePagination(r *http.Request, defaultPerPage, maxPerPage int) (page, perPage int) {
	page = 1
	perPage = defaultPerPage
	if p, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && p > 0 {
		page = p
	}
	if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && l > 0 {
		perPage = l
	}
	if maxPerPage > 0 && perPage > maxPerPage {
		perPage = maxPerPage
	}
	return
}

// Window returns the [start,end) slice bounds for page over total items.
func Window(page, perPage, total int) (start, end int) {
	if page < 1 {
		page = 1
	}
	if perPage <= 0 {
		return 0, total
	}
	if page-1 > total/perPage {
		return total, total
	}
	start = min((page-1)*perPage, total)
	end = total
	if perPage < total-start {
		end = start + perPage
	}
	return start, end
}
