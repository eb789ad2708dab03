package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/debemdeboas/inkpot/internal/clock"
	"github.com/debemdeboas/inkpot/internal/model"
	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const blogKeyPrefix = "blog:"

type BadgerBlogRepository struct { // implements BlogRepository
	db    *badger.DB
	clock clock.Clock
}

// OpenBadger opens (or creates) a badger store at path. An empty path keeps
// everything in memory.
func OpenBadger(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrapf(err, "open badger at %q", path)
	}
	return db, nil
}

func NewBadgerBlogRepository(db *badger.DB, c clock.Clock) *BadgerBlogRepository {
	if c == nil {
		c = clock.New()
	}
	return &BadgerBlogRepository{db: db, clock: c}
}

func authorPrefix(author model.UserID) []byte {
	return []byte(fmt.Sprintf("%s%s:", blogKeyPrefix, author))
}

func blogKey(author model.UserID, id model.BlogID) []byte {
	return []byte(fmt.Sprintf("%s%s:%s", blogKeyPrefix, author, id))
}

func (r *BadgerBlogRepository) Create(ctx context.Context, author model.UserID, f model.BlogFields) (*model.Blog, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b := model.NewBlog(model.BlogID(uuid.New().String()), author, f, r.clock.Now().UTC())
	err := r.db.Update(func(txn *badger.Txn) error {
		return putBlog(txn, b)
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (r *BadgerBlogRepository) Update(ctx context.Context, author model.UserID, id model.BlogID, f model.BlogFields) (*model.Blog, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var b *model.Blog
	err := r.db.Update(func(txn *badger.Txn) error {
		var err error
		if b, err = getBlog(txn, author, id); err != nil {
			return err
		}
		b.Apply(f, r.clock.Now().UTC())
		return putBlog(txn, b)
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (r *BadgerBlogRepository) Get(ctx context.Context, author model.UserID, id model.BlogID) (*model.Blog, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var b *model.Blog
	err := r.db.View(func(txn *badger.Txn) error {
		var err error
		b, err = getBlog(txn, author, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (r *BadgerBlogRepository) List(ctx context.Context, author model.UserID, opts ListOptions) ([]*model.Blog, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	blogs := make([]*model.Blog, 0)
	err := r.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := authorPrefix(author)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var b model.Blog
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &b)
			}); err != nil {
				return errors.Wrap(err, "failed to unmarshal blog")
			}
			if opts.matches(&b) {
				blogs = append(blogs, &b)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sortNewestFirst(blogs)
	return blogs, nil
}

func (r *BadgerBlogRepository) Delete(ctx context.Context, author model.UserID, id model.BlogID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return r.db.Update(func(txn *badger.Txn) error {
		key := blogKey(author, id)
		if _, err := txn.Get(key); err == badger.ErrKeyNotFound {
			return ErrNotFound
		} else if err != nil {
			return err
		}
		return txn.Delete(key)
	})
}

func (r *BadgerBlogRepository) Close() error {
	return r.db.Close()
}

func getBlog(txn *badger.Txn, author model.UserID, id model.BlogID) (*model.Blog, error) {
	item, err := txn.Get(blogKey(author, id))
	if err == badger.ErrKeyNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to read blog")
	}

	var b model.Blog
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &b)
	}); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal blog")
	}
	return &b, nil
}

func putBlog(txn *badger.Txn, b *model.Blog) error {
	data, err := json.Marshal(b)
	if err != nil {
		return errors.Wrap(err, "failed to marshal blog")
	}
	return txn.Set(blogKey(b.AuthorID, b.ID), data)
}
