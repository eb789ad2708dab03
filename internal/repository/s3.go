package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/debemdeboas/inkpot/internal/clock"
	"github.com/debemdeboas/inkpot/internal/config"
	"github.com/debemdeboas/inkpot/internal/model"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// S3API is the subset of the S3 client the repository uses.
type S3API interface {
	s3.ListObjectsV2APIClient
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

type S3BlogRepository struct { // implements BlogRepository
	client S3API
	bucket string
	prefix string
	clock  clock.Clock
}

// NewS3Client builds a client from storage.s3. Static credentials are used
// when both keys are set, the default AWS chain otherwise. A custom endpoint
// switches to path-style addressing for S3-compatible stores.
func NewS3Client(ctx context.Context, cfg config.S3Config) (*s3.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "error initializing S3 client")
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

func NewS3BlogRepository(client S3API, bucket, prefix string, c clock.Clock) *S3BlogRepository {
	if c == nil {
		c = clock.New()
	}
	return &S3BlogRepository{
		client: client,
		bucket: bucket,
		prefix: prefix,
		clock:  c,
	}
}

func (r *S3BlogRepository) authorPrefix(author model.UserID) string {
	return r.prefix + string(author) + "/"
}

func (r *S3BlogRepository) key(author model.UserID, id model.BlogID) string {
	return r.authorPrefix(author) + string(id) + ".json"
}

func (r *S3BlogRepository) Create(ctx context.Context, author model.UserID, f model.BlogFields) (*model.Blog, error) {
	b := model.NewBlog(model.BlogID(uuid.New().String()), author, f, r.clock.Now().UTC())
	if err := r.put(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (r *S3BlogRepository) Update(ctx context.Context, author model.UserID, id model.BlogID, f model.BlogFields) (*model.Blog, error) {
	b, err := r.Get(ctx, author, id)
	if err != nil {
		return nil, err
	}
	b.Apply(f, r.clock.Now().UTC())
	if err := r.put(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (r *S3BlogRepository) Get(ctx context.Context, author model.UserID, id model.BlogID) (*model.Blog, error) {
	return r.read(ctx, r.key(author, id))
}

func (r *S3BlogRepository) List(ctx context.Context, author model.UserID, opts ListOptions) ([]*model.Blog, error) {
	blogs := make([]*model.Blog, 0)

	paginator := s3.NewListObjectsV2Paginator(r.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(r.bucket),
		Prefix: aws.String(r.authorPrefix(author)),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "error listing blogs")
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if path.Ext(key) != ".json" {
				continue
			}
			b, err := r.read(ctx, key)
			if errors.Is(err, ErrNotFound) {
				continue
			}
			if err != nil {
				return nil, err
			}
			if opts.matches(b) {
				blogs = append(blogs, b)
			}
		}
	}

	sortNewestFirst(blogs)
	return blogs, nil
}

func (r *S3BlogRepository) Delete(ctx context.Context, author model.UserID, id model.BlogID) error {
	if _, err := r.Get(ctx, author, id); err != nil {
		return err
	}
	_, err := r.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(r.key(author, id)),
	})
	return errors.Wrap(err, "error deleting blog")
}

func (r *S3BlogRepository) Close() error {
	return nil
}

func (r *S3BlogRepository) put(ctx context.Context, b *model.Blog) error {
	data, err := json.Marshal(b)
	if err != nil {
		return errors.Wrap(err, "failed to marshal blog")
	}

	_, err = r.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(r.bucket),
		Key:         aws.String(r.key(b.AuthorID, b.ID)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return errors.Wrap(err, "error writing blog")
	}
	return nil
}

func (r *S3BlogRepository) read(ctx context.Context, key string) (*model.Blog, error) {
	out, err := r.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) || strings.Contains(err.Error(), "NoSuchKey") {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "error reading blog")
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, errors.Wrap(err, "error reading blog")
	}

	var b model.Blog
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal blog")
	}
	return &b, nil
}
