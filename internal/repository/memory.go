package repository

import (
	"context"
	"time"

	"github.com/debemdeboas/inkpot/internal/cache"
	"github.com/debemdeboas/inkpot/internal/clock"
	"github.com/debemdeboas/inkpot/internal/model"
	"github.com/google/uuid"
)

type MemoryBlogRepository struct { // implements BlogRepository
	blogs *cache.Cache[model.BlogID, *model.Blog]
	clock clock.Clock
}

func NewMemoryBlogRepository(c clock.Clock) *MemoryBlogRepository {
	if c == nil {
		c = clock.New()
	}
	return &MemoryBlogRepository{
		blogs: cache.NewCache[model.BlogID, *model.Blog](),
		clock: c,
	}
}

// Seed loads the two demo posts for author.
func (r *MemoryBlogRepository) Seed(author model.UserID) {
	day := func(d int) time.Time { return time.Date(2024, time.March, d, 0, 0, 0, 0, time.UTC) }

	for _, b := range []*model.Blog{
		{
			ID:        "1",
			Title:     "Getting Started with Next.js",
			Content:   "This is a sample blog post about Next.js...",
			Tags:      []string{"nextjs", "react", "javascript"},
			Status:    model.StatusPublished,
			AuthorID:  author,
			CreatedAt: day(1),
			UpdatedAt: day(1),
		},
		{
			ID:        "2",
			Title:     "Understanding TypeScript",
			Content:   "TypeScript is a typed superset of JavaScript...",
			Tags:      []string{"typescript", "javascript"},
			Status:    model.StatusDraft,
			AuthorID:  author,
			CreatedAt: day(2),
			UpdatedAt: day(2),
		},
	} {
		r.blogs.Set(b.ID, b)
	}

	repoLogger.Info().Str("author_id", string(author)).Msg("Seeded demo posts")
}

func (r *MemoryBlogRepository) Create(ctx context.Context, author model.UserID, f model.BlogFields) (*model.Blog, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b := model.NewBlog(model.BlogID(uuid.New().String()), author, f, r.clock.Now().UTC())
	r.blogs.Set(b.ID, b)
	return b.Clone(), nil
}

func (r *MemoryBlogRepository) Update(ctx context.Context, author model.UserID, id model.BlogID, f model.BlogFields) (*model.Blog, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out *model.Blog
	found := r.blogs.Update(id, func(b *model.Blog) *model.Blog {
		if b.AuthorID != author {
			return b
		}
		next := b.Clone()
		next.Apply(f, r.clock.Now().UTC())
		out = next.Clone()
		return next
	})
	if !found || out == nil {
		return nil, ErrNotFound
	}
	return out, nil
}

func (r *MemoryBlogRepository) Get(ctx context.Context, author model.UserID, id model.BlogID) (*model.Blog, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b, ok := r.blogs.Get(id)
	if !ok || b.AuthorID != author {
		return nil, ErrNotFound
	}
	return b.Clone(), nil
}

func (r *MemoryBlogRepository) List(ctx context.Context, author model.UserID, opts ListOptions) ([]*model.Blog, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	blogs := make([]*model.Blog, 0)
	for _, b := range r.blogs.Values() {
		if b.AuthorID == author && opts.matches(b) {
			blogs = append(blogs, b.Clone())
		}
	}
	sortNewestFirst(blogs)
	return blogs, nil
}

func (r *MemoryBlogRepository) Delete(ctx context.Context, author model.UserID, id model.BlogID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b, ok := r.blogs.Get(id)
	if !ok || b.AuthorID != author {
		return ErrNotFound
	}
	r.blogs.Delete(id)
	return nil
}

// Close drops every stored blog.
func (r *MemoryBlogRepository) Close() error {
	r.blogs.Clear()
	return nil
}
