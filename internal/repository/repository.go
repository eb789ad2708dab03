// Package repository persists blogs for a single author at a time. Every
// backing scopes reads and writes to the author: another author's blog is
// reported as ErrNotFound.
package repository

import (
	"context"
	"errors"
	"slices"

	"github.com/debemdeboas/inkpot/internal/model"
	"github.com/rs/zerolog"
)

var repoLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	repoLogger = l
}

var ErrNotFound = errors.New("blog not found")

type ListOptions struct {
	// Status filters by status when set.
	Status model.Status
}

func (o ListOptions) matches(b *model.Blog) bool {
	return o.Status == "" || b.Status == o.Status
}

type BlogRepository interface {
	Create(ctx context.Context, author model.UserID, f model.BlogFields) (*model.Blog, error)
	Update(ctx context.Context, author model.UserID, id model.BlogID, f model.BlogFields) (*model.Blog, error)
	Get(ctx context.Context, author model.UserID, id model.BlogID) (*model.Blog, error)
	// List returns the author's blogs, most recently updated first.
	List(ctx context.Context, author model.UserID, opts ListOptions) ([]*model.Blog, error)
	Delete(ctx context.Context, author model.UserID, id model.BlogID) error
	Close() error
}

func sortNewestFirst(blogs []*model.Blog) {
	slices.SortStableFunc(blogs, func(a, b *model.Blog) int {
		if c := b.UpdatedAt.Compare(a.UpdatedAt); c != 0 {
			return c
		}
		return b.CreatedAt.Compare(a.CreatedAt)
	})
}
