package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPagination(t *testing.T) {
	tests := []struct {
		name       string
		page       int
		limit      int
		total      int64
		totalPages int
		hasNext    bool
		hasPrev    bool
	}{
		{name: "empty collection", page: 1, limit: 10, total: 0, totalPages: 0, hasNext: false, hasPrev: false},
		{name: "single partial page", page: 1, limit: 10, total: 7, totalPages: 1, hasNext: false, hasPrev: false},
		{name: "exact multiple", page: 1, limit: 10, total: 20, totalPages: 2, hasNext: true, hasPrev: false},
		{name: "middle page", page: 2, limit: 10, total: 35, totalPages: 4, hasNext: true, hasPrev: true},
		{name: "last page", page: 4, limit: 10, total: 35, totalPages: 4, hasNext: false, hasPrev: true},
		{name: "page beyond range", page: 9, limit: 10, total: 35, totalPages: 4, hasNext: false, hasPrev: true},
		{name: "limit one", page: 3, limit: 1, total: 3, totalPages: 3, hasNext: false, hasPrev: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPagination(tt.page, tt.limit, tt.total)

			assert.Equal(t, tt.page, p.Page)
			assert.Equal(t, tt.limit, p.Limit)
			assert.Equal(t, tt.total, p.TotalItems)
			assert.Equal(t, tt.totalPages, p.TotalPages)
			assert.Equal(t, tt.hasNext, p.HasNextPage)
			assert.Equal(t, tt.hasPrev, p.HasPrevPage)
		})
	}
}
