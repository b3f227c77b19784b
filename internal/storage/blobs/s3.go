package blobs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/dmitrijs2005/gophguard/internal/common"
	"github.com/dmitrijs2005/gophguard/internal/models"
)

// s3API is the subset of *s3.Client used by S3Store.
type s3API interface {
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Options configures an S3-compatible backend such as MinIO.
type S3Options struct {
	Bucket       string
	Region       string
	BaseEndpoint string
	AccessKey    string
	SecretKey    string
	// SpoolDir holds uploads until their full payload has arrived.
	SpoolDir string
}

// S3Store keeps files as objects <uid>/<name> in one bucket. Uploads are
// spooled to a local temporary file and only put once complete, so a
// broken upload never creates an object.
type S3Store struct {
	client   s3API
	bucket   string
	spoolDir string
}

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig
	createSpool          = os.CreateTemp
)

func NewS3Store(ctx context.Context, o S3Options) (*S3Store, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(o.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(o.AccessKey, o.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(opts *s3.Options) {
		if o.BaseEndpoint != "" {
			opts.BaseEndpoint = aws.String(o.BaseEndpoint)
			opts.UsePathStyle = true
		}
	})
	return newS3Store(client, o.Bucket, o.SpoolDir), nil
}

func newS3Store(client s3API, bucket, spoolDir string) *S3Store {
	return &S3Store{client: client, bucket: bucket, spoolDir: spoolDir}
}

func objectKey(uid, name string) string {
	return uid + "/" + name
}

func isNotFound(err error) bool {
	var nsk *types.NoSuchKey
	var nf *types.NotFound
	return errors.As(err, &nsk) || errors.As(err, &nf)
}

func (s *S3Store) List(ctx context.Context, uid string) ([]models.StoredFile, error) {
	prefix := uid + "/"
	var files []models.StoredFile

	p := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("s3 list %s: %w", uid, err)
		}
		for _, obj := range page.Contents {
			name := strings.TrimPrefix(aws.ToString(obj.Key), prefix)
			if name == "" || strings.Contains(name, "/") {
				continue
			}
			files = append(files, models.StoredFile{Name: name, Size: aws.ToInt64(obj.Size)})
		}
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

func (s *S3Store) Exists(ctx context.Context, uid, name string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectKey(uid, name)),
	})
	if err == nil {
		return true, nil
	}
	if isNotFound(err) {
		return false, nil
	}
	return false, fmt.Errorf("s3 head %s/%s: %w", uid, name, err)
}

func (s *S3Store) Open(ctx context.Context, uid, name string) (io.ReadCloser, int64, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectKey(uid, name)),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, 0, common.ErrorNotFound
		}
		return nil, 0, fmt.Errorf("s3 get %s/%s: %w", uid, name, err)
	}
	return out.Body, aws.ToInt64(out.ContentLength), nil
}

func (s *S3Store) Put(ctx context.Context, uid, name string, r io.Reader, size int64) error {
	spool, err := createSpool(s.spoolDir, "upload-*")
	if err != nil {
		return fmt.Errorf("spool: %w", err)
	}
	defer func() {
		_ = spool.Close()
		_ = os.Remove(spool.Name())
	}()

	src := &sourceReader{r: r}
	if _, err := io.CopyN(spool, src, size); err != nil {
		return putError(src, uid, name, err)
	}
	if _, err := spool.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("spool rewind: %w", err)
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(objectKey(uid, name)),
		Body:          spool,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String("application/octet-stream"),
	})
	if err != nil {
		return fmt.Errorf("s3 put %s/%s: %w", uid, name, err)
	}
	return nil
}

func (s *S3Store) Delete(ctx context.Context, uid, name string) error {
	ok, err := s.Exists(ctx, uid, name)
	if err != nil {
		return err
	}
	if !ok {
		return common.ErrorNotFound
	}
	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectKey(uid, name)),
	}); err != nil {
		return fmt.Errorf("s3 delete %s/%s: %w", uid, name, err)
	}
	return nil
}

// RemoveAll deletes the objects of uid one by one; there is no directory
// to remove afterwards.
func (s *S3Store) RemoveAll(ctx context.Context, uid string) error {
	files, err := s.List(ctx, uid)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return common.ErrorNotFound
	}
	for _, f := range files {
		if err := s.Delete(ctx, uid, f.Name); err != nil && !errors.Is(err, common.ErrorNotFound) {
			return err
		}
	}
	return nil
}
