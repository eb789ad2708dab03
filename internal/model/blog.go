// Package model defines core data structures and types for the blog application.
package model

import (
	"slices"
	"time"

	"github.com/go-playground/validator/v10"
)

type BlogID string

type UserID string

type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
)

func (s Status) Valid() bool {
	return s == StatusDraft || s == StatusPublished
}

var validate = validator.New(validator.WithRequiredStructEnabled())

type Blog struct {
	ID BlogID `json:"id"`

	Title   string   `json:"title"`
	Content string   `json:"content"`
	Tags    []string `json:"tags"`
	Status  Status   `json:"status"`

	AuthorID  UserID    `json:"author_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BlogFields holds the user-editable part of a blog.
type BlogFields struct {
	Title   string   `json:"title" validate:"max=200"`
	Content string   `json:"content"`
	Tags    []string `json:"tags" validate:"max=20,dive,max=50"`
	Status  Status   `json:"status" validate:"omitempty,oneof=draft published"`
}

func (f BlogFields) Validate() error {
	return validate.Struct(f)
}

// NewBlog builds a blog from user fields. An empty status becomes draft.
func NewBlog(id BlogID, author UserID, f BlogFields, now time.Time) *Blog {
	b := &Blog{
		ID:        id,
		AuthorID:  author,
		CreatedAt: now,
	}
	b.Apply(f, now)
	if b.Status == "" {
		b.Status = StatusDraft
	}
	return b
}

// Apply overwrites the editable fields and refreshes UpdatedAt. An empty status
// keeps the current one.
func (b *Blog) Apply(f BlogFields, now time.Time) {
	b.Title = f.Title
	b.Content = f.Content
	b.Tags = slices.Clone(f.Tags)
	if b.Tags == nil {
		b.Tags = []string{}
	}
	if f.Status != "" {
		b.Status = f.Status
	}
	b.UpdatedAt = now
}

func (b *Blog) Fields() BlogFields {
	return BlogFields{
		Title:   b.Title,
		Content: b.Content,
		Tags:    slices.Clone(b.Tags),
		Status:  b.Status,
	}
}

func (b *Blog) Clone() *Blog {
	c := *b
	c.Tags = slices.Clone(b.Tags)
	return &c
}

func (b *Blog) GetTitle() string {
	if b.Title != "" {
		return b.Title
	}
	return "Untitled - " + b.CreatedAt.Format("2006-01-02")
}
