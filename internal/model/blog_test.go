package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func TestNewBlogDefaultsToDraft(t *testing.T) {
	b := NewBlog("1", "demo-user-123", BlogFields{Title: "Hello", Content: "<p>x</p>"}, now)

	assert.Equal(t, StatusDraft, b.Status)
	assert.Equal(t, now, b.CreatedAt)
	assert.Equal(t, now, b.UpdatedAt)
	assert.Equal(t, []string{}, b.Tags)
}

func TestApplyKeepsStatusWhenEmpty(t *testing.T) {
	b := NewBlog("1", "u", BlogFields{Title: "a", Status: StatusPublished}, now)
	later := now.Add(time.Hour)

	b.Apply(BlogFields{Title: "b", Tags: []string{"go"}}, later)

	assert.Equal(t, StatusPublished, b.Status)
	assert.Equal(t, "b", b.Title)
	assert.Equal(t, later, b.UpdatedAt)
	assert.Equal(t, now, b.CreatedAt)
}

func TestCloneCopiesTags(t *testing.T) {
	b := NewBlog("1", "u", BlogFields{Tags: []string{"go", "web"}}, now)
	c := b.Clone()
	c.Tags[0] = "rust"

	assert.Equal(t, "go", b.Tags[0])
}

func TestGetTitle(t *testing.T) {
	b := NewBlog("1", "u", BlogFields{}, now)
	assert.Equal(t, "Untitled - 2024-03-01", b.GetTitle())

	b.Title = "Named"
	assert.Equal(t, "Named", b.GetTitle())
}

func TestBlogFieldsValidate(t *testing.T) {
	testCases := []struct {
		name    string
		fields  BlogFields
		wantErr bool
	}{
		{name: "empty is valid", fields: BlogFields{}},
		{name: "published", fields: BlogFields{Title: "t", Status: StatusPublished}},
		{name: "unknown status", fields: BlogFields{Status: "archived"}, wantErr: true},
		{name: "long title", fields: BlogFields{Title: string(make([]byte, 201))}, wantErr: true},
		{name: "long tag", fields: BlogFields{Tags: []string{string(make([]byte, 51))}}, wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.fields.Validate()
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestStatusValid(t *testing.T) {
	assert.True(t, StatusDraft.Valid())
	assert.True(t, StatusPublished.Valid())
	assert.False(t, Status("").Valid())
}
