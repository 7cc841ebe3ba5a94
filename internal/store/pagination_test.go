package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPageParams_Validate(t *testing.T) {
	tests := []struct {
		name          string
		in            PageParams
		expectedPage  int
		expectedLimit int
	}{
		{"zero values", PageParams{}, 1, 20},
		{"negative page", PageParams{Page: -3, Limit: 10}, 1, 10},
		{"limit capped", PageParams{Page: 2, Limit: 500}, 2, 100},
		{"valid untouched", PageParams{Page: 4, Limit: 50}, 4, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.in.Validate()
			assert.Equal(t, tt.expectedPage, tt.in.Page)
			assert.Equal(t, tt.expectedLimit, tt.in.Limit)
		})
	}
}

func TestPageParams_Offset(t *testing.T) {
	assert.Equal(t, 0, PageParams{Page: 1, Limit: 20}.Offset())
	assert.Equal(t, 20, PageParams{Page: 2, Limit: 20}.Offset())
	assert.Equal(t, 90, PageParams{Page: 10, Limit: 10}.Offset())
}

func TestNewPage_Metadata(t *testing.T) {
	items := []string{"a", "b", "c"}

	page := NewPage(items, 7, PageParams{Page: 1, Limit: 3})
	assert.Equal(t, 7, page.Total)
	assert.Equal(t, 3, page.Pages)
	assert.True(t, page.HasNext)

	page = NewPage(items, 7, PageParams{Page: 3, Limit: 3})
	assert.False(t, page.HasNext)

	page = NewPage([]string{}, 0, PageParams{Page: 1, Limit: 20})
	assert.Equal(t, 0, page.Pages)
	assert.False(t, page.HasNext)
	assert.NotNil(t, page.Items)
}

func TestNewPage_NilItems(t *testing.T) {
	page := NewPage[string](nil, 0, PageParams{Page: 1, Limit: 20})
	assert.NotNil(t, page.Items)
	assert.Empty(t, page.Items)
}

func TestTaskFilter_OrderColumn(t *testing.T) {
	assert.Equal(t, "t.priority", TaskFilter{OrderBy: "priority"}.OrderColumn())
	assert.Equal(t, "t.created_at", TaskFilter{OrderBy: ""}.OrderColumn())
	assert.Equal(t, "t.created_at", TaskFilter{OrderBy: "; DROP TABLE tasks"}.OrderColumn())
}
