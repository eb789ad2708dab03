// Package service applies blog rules on top of a repository: field
// validation, tag normalisation and content sanitisation.
package service

import (
	"context"
	"strings"

	"github.com/debemdeboas/inkpot/internal/autosave"
	"github.com/debemdeboas/inkpot/internal/model"
	"github.com/debemdeboas/inkpot/internal/repository"
	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

var serviceLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	serviceLogger = l
}

// ValidationError lists the fields that failed validation.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Problems, "; ")
}

type BlogService struct {
	repo   repository.BlogRepository
	policy *bluemonday.Policy
}

func NewBlogService(repo repository.BlogRepository) *BlogService {
	return &BlogService{
		repo:   repo,
		policy: bluemonday.UGCPolicy(),
	}
}

// BlogPatch is a partial update. Nil fields keep their stored value.
type BlogPatch struct {
	Title   *string       `json:"title"`
	Content *string       `json:"content"`
	Tags    *[]string     `json:"tags"`
	Status  *model.Status `json:"status"`
}

// Dashboard summarises an author's blogs.
type Dashboard struct {
	Total     int           `json:"total"`
	Drafts    int           `json:"drafts"`
	Published int           `json:"published"`
	Recent    []*model.Blog `json:"recent"`
}

const dashboardRecent = 5

func (s *BlogService) Create(ctx context.Context, author model.UserID, f model.BlogFields) (*model.Blog, error) {
	f, err := s.prepare(f)
	if err != nil {
		return nil, err
	}
	b, err := s.repo.Create(ctx, author, f)
	if err != nil {
		return nil, err
	}
	serviceLogger.Info().Str("blog_id", string(b.ID)).Str("author_id", string(author)).Msg("Blog created")
	return b, nil
}

func (s *BlogService) Update(ctx context.Context, author model.UserID, id model.BlogID, f model.BlogFields) (*model.Blog, error) {
	f, err := s.prepare(f)
	if err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, author, id, f)
}

// Patch merges p into the stored blog and saves the result.
func (s *BlogService) Patch(ctx context.Context, author model.UserID, id model.BlogID, p BlogPatch) (*model.Blog, error) {
	current, err := s.repo.Get(ctx, author, id)
	if err != nil {
		return nil, err
	}

	f := current.Fields()
	if p.Title != nil {
		f.Title = *p.Title
	}
	if p.Content != nil {
		f.Content = *p.Content
	}
	if p.Tags != nil {
		f.Tags = *p.Tags
	}
	if p.Status != nil {
		f.Status = *p.Status
	}
	return s.Update(ctx, author, id, f)
}

func (s *BlogService) Get(ctx context.Context, author model.UserID, id model.BlogID) (*model.Blog, error) {
	return s.repo.Get(ctx, author, id)
}

func (s *BlogService) List(ctx context.Context, author model.UserID, status model.Status) ([]*model.Blog, error) {
	if status != "" && !status.Valid() {
		return nil, &ValidationError{Problems: []string{"status must be draft or published"}}
	}
	return s.repo.List(ctx, author, repository.ListOptions{Status: status})
}

func (s *BlogService) Delete(ctx context.Context, author model.UserID, id model.BlogID) error {
	if err := s.repo.Delete(ctx, author, id); err != nil {
		return err
	}
	serviceLogger.Info().Str("blog_id", string(id)).Msg("Blog deleted")
	return nil
}

// SaveDraft upserts a draft: title and content are required, the status is
// forced to draft and an unknown id creates a new blog.
func (s *BlogService) SaveDraft(ctx context.Context, author model.UserID, id model.BlogID, f model.BlogFields) (*model.Blog, error) {
	var problems []string
	if strings.TrimSpace(f.Title) == "" {
		problems = append(problems, "Title is required")
	}
	if strings.TrimSpace(f.Content) == "" {
		problems = append(problems, "Content is required")
	}
	if len(problems) > 0 {
		return nil, &ValidationError{Problems: problems}
	}

	f.Status = model.StatusDraft
	if id != "" {
		b, err := s.Update(ctx, author, id, f)
		if !errors.Is(err, repository.ErrNotFound) {
			return b, err
		}
	}
	return s.Create(ctx, author, f)
}

func (s *BlogService) Dashboard(ctx context.Context, author model.UserID) (*Dashboard, error) {
	blogs, err := s.repo.List(ctx, author, repository.ListOptions{})
	if err != nil {
		return nil, err
	}

	d := &Dashboard{Total: len(blogs)}
	for _, b := range blogs {
		switch b.Status {
		case model.StatusDraft:
			d.Drafts++
		case model.StatusPublished:
			d.Published++
		}
	}
	d.Recent = blogs[:min(len(blogs), dashboardRecent)]
	return d, nil
}

// Gateway binds the service to one author for the autosave coordinator.
func (s *BlogService) Gateway(author model.UserID) autosave.Gateway {
	return &gateway{svc: s, author: author}
}

type gateway struct {
	svc    *BlogService
	author model.UserID
}

func (g *gateway) Create(ctx context.Context, f model.BlogFields) (*model.Blog, error) {
	return g.svc.Create(ctx, g.author, f)
}

func (g *gateway) Update(ctx context.Context, id model.BlogID, f model.BlogFields) (*model.Blog, error) {
	return g.svc.Update(ctx, g.author, id, f)
}

func (s *BlogService) prepare(f model.BlogFields) (model.BlogFields, error) {
	f.Tags = NormalizeTags(f.Tags)
	f.Content = s.policy.Sanitize(f.Content)

	if err := f.Validate(); err != nil {
		return f, validationError(err)
	}
	return f, nil
}

// NormalizeTags trims tags, drops empty ones and removes duplicates keeping
// the first occurrence.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &ValidationError{Problems: []string{err.Error()}}
	}

	problems := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "max":
			if fe.Kind().String() == "slice" {
				problems = append(problems, field+" must have at most "+fe.Param()+" entries")
			} else {
				problems = append(problems, field+" must be at most "+fe.Param()+" characters")
			}
		case "oneof":
			problems = append(problems, field+" must be one of: "+fe.Param())
		default:
			problems = append(problems, field+" is invalid")
		}
	}
	return &ValidationError{Problems: problems}
}
