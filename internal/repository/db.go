package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/debemdeboas/inkpot/internal/clock"
	"github.com/debemdeboas/inkpot/internal/db"
	"github.com/debemdeboas/inkpot/internal/model"
	"github.com/debemdeboas/inkpot/internal/util"
	"github.com/debemdeboas/inkpot/internal/util/compression"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const blogColumns = `id, author_id, title, content, content_hash, tags, status, created_at, updated_at`

type DBBlogRepository struct { // implements BlogRepository
	db         db.DB
	compressor compression.Compressor
	clock      clock.Clock
}

func NewDBBlogRepository(database db.DB, compressor compression.Compressor, c clock.Clock) *DBBlogRepository {
	if compressor == nil {
		compressor = compression.ZstdCompressor{}
	}
	if c == nil {
		c = clock.New()
	}
	return &DBBlogRepository{
		db:         database,
		compressor: compressor,
		clock:      c,
	}
}

func (r *DBBlogRepository) Create(ctx context.Context, author model.UserID, f model.BlogFields) (*model.Blog, error) {
	b := model.NewBlog(model.BlogID(uuid.New().String()), author, f, r.clock.Now().UTC())

	compressed, hash, tags, err := r.encode(b)
	if err != nil {
		return nil, err
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO blogs (`+blogColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.AuthorID, b.Title, compressed, hash, tags, b.Status, formatTime(b.CreatedAt), formatTime(b.UpdatedAt),
	)
	if err != nil {
		return nil, errors.Wrap(err, "error inserting blog")
	}

	repoLogger.Debug().Str("blog_id", string(b.ID)).Msg("Blog created")
	return b, nil
}

func (r *DBBlogRepository) Update(ctx context.Context, author model.UserID, id model.BlogID, f model.BlogFields) (*model.Blog, error) {
	b, err := r.Get(ctx, author, id)
	if err != nil {
		return nil, err
	}
	b.Apply(f, r.clock.Now().UTC())

	compressed, hash, tags, err := r.encode(b)
	if err != nil {
		return nil, err
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE blogs SET title = ?, content = ?, content_hash = ?, tags = ?, status = ?, updated_at = ?
		 WHERE id = ? AND author_id = ?`,
		b.Title, compressed, hash, tags, b.Status, formatTime(b.UpdatedAt), b.ID, author,
	)
	if err != nil {
		return nil, errors.Wrap(err, "error updating blog")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, ErrNotFound
	}

	repoLogger.Debug().Str("blog_id", string(b.ID)).Str("content_hash", hash).Msg("Blog updated")
	return b, nil
}

func (r *DBBlogRepository) Get(ctx context.Context, author model.UserID, id model.BlogID) (*model.Blog, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+blogColumns+` FROM blogs WHERE id = ? AND author_id = ?`, id, author)

	b, err := r.scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return b, err
}

func (r *DBBlogRepository) List(ctx context.Context, author model.UserID, opts ListOptions) ([]*model.Blog, error) {
	query := `SELECT ` + blogColumns + ` FROM blogs WHERE author_id = ?`
	args := []any{author}
	if opts.Status != "" {
		query += ` AND status = ?`
		args = append(args, opts.Status)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "error querying blogs")
	}
	defer rows.Close()

	blogs := make([]*model.Blog, 0)
	for rows.Next() {
		b, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		blogs = append(blogs, b)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "error iterating blogs")
	}

	sortNewestFirst(blogs)
	return blogs, nil
}

func (r *DBBlogRepository) Delete(ctx context.Context, author model.UserID, id model.BlogID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM blogs WHERE id = ? AND author_id = ?`, id, author)
	if err != nil {
		return errors.Wrap(err, "error deleting blog")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "error deleting blog")
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *DBBlogRepository) Close() error {
	return r.db.Close()
}

func (r *DBBlogRepository) encode(b *model.Blog) (compressed []byte, hash string, tags string, err error) {
	compressed, err = r.compressor.Compress([]byte(b.Content))
	if err != nil {
		return nil, "", "", errors.Wrap(err, "error compressing content")
	}

	rawTags, err := json.Marshal(b.Tags)
	if err != nil {
		return nil, "", "", errors.Wrap(err, "error encoding tags")
	}

	return compressed, util.ContentHashString(b.Content), string(rawTags), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *DBBlogRepository) scan(row rowScanner) (*model.Blog, error) {
	var (
		b                model.Blog
		compressed       []byte
		hash             sql.NullString
		tags             string
		created, updated string
	)

	if err := row.Scan(&b.ID, &b.AuthorID, &b.Title, &compressed, &hash, &tags, &b.Status, &created, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, errors.Wrap(err, "error scanning blog")
	}

	content, err := r.compressor.Decompress(compressed)
	if err != nil {
		return nil, errors.Wrap(err, "error decompressing content")
	}
	b.Content = string(content)

	if hash.Valid && hash.String != util.ContentHash(content) {
		repoLogger.Warn().Str("blog_id", string(b.ID)).Msg("Content hash mismatch")
	}

	if err := json.Unmarshal([]byte(tags), &b.Tags); err != nil {
		return nil, errors.Wrap(err, "error decoding tags")
	}
	if b.Tags == nil {
		b.Tags = []string{}
	}

	if b.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if b.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}

	return &b, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "error parsing time %q", s)
	}
	return t, nil
}
