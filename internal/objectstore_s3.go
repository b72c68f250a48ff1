package internal

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	tb "github.com/lychee-technology/tablebridge"
)

// S3ObjectStore is an ObjectStore backed by Amazon S3 (or an S3-compatible
// endpoint), the production backing store for a table root with scheme
// "s3://". NewS3ObjectStore checks only the table URI; the region and
// endpoint from ObjectStoreConfig are passed to the client as given.
type S3ObjectStore struct {
	client   *s3.Client
	uploader *manager.Uploader
	bucket   string
	prefix   string
}

// NewS3ObjectStore builds a client from cfg and resolves bucket/prefix from
// tableURI (an "s3://bucket/prefix" URI).
func NewS3ObjectStore(ctx context.Context, cfg tb.ObjectStoreConfig, tableURI string) (*S3ObjectStore, error) {
	bucket, prefix, err := parseS3URI(tableURI)
	if err != nil {
		return nil, err
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.S3Region))
	if err != nil {
		return nil, tb.NewObjectStoreError("loading AWS config", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
		}
	})

	return &S3ObjectStore{
		client:   client,
		uploader: manager.NewUploader(client),
		bucket:   bucket,
		prefix:   prefix,
	}, nil
}

func parseS3URI(uri string) (bucket, prefix string, err error) {
	trimmed := strings.TrimPrefix(uri, "s3://")
	if trimmed == uri {
		return "", "", tb.NewUnsupportedError("not an s3:// table URI: " + uri)
	}
	parts := strings.SplitN(trimmed, "/", 2)
	if parts[0] == "" {
		return "", "", tb.NewUnsupportedError("s3 table URI missing bucket: " + uri)
	}
	bucket = parts[0]
	if len(parts) == 2 {
		prefix = parts[1]
	}
	return bucket, prefix, nil
}

func (s *S3ObjectStore) key(path string) string {
	if s.prefix == "" {
		return path
	}
	return strings.TrimRight(s.prefix, "/") + "/" + strings.TrimLeft(path, "/")
}

func (s *S3ObjectStore) Get(ctx context.Context, path string) (io.ReadCloser, tb.ObjectMeta, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{Bucket: aws.String(s.bucket), Key: aws.String(s.key(path))})
	if err != nil {
		return nil, tb.ObjectMeta{}, wrapS3Error(path, err)
	}
	meta := tb.ObjectMeta{Path: path, Size: aws.ToInt64(out.ContentLength)}
	if out.LastModified != nil {
		meta.LastModified = *out.LastModified
	}
	if out.ETag != nil {
		meta.ETag = *out.ETag
	}
	return out.Body, meta, nil
}

func (s *S3ObjectStore) GetRange(ctx context.Context, path string, r tb.ByteRange) ([]byte, error) {
	rangeHeader := httpRange(r)
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket), Key: aws.String(s.key(path)), Range: aws.String(rangeHeader),
	})
	if err != nil {
		return nil, wrapS3Error(path, err)
	}
	defer out.Body.Close()
	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, tb.NewObjectStoreError("reading range of '"+path+"'", err)
	}
	return data, nil
}

func (s *S3ObjectStore) GetRanges(ctx context.Context, path string, ranges []tb.ByteRange) ([][]byte, error) {
	out := make([][]byte, len(ranges))
	for i, r := range ranges {
		b, err := s.GetRange(ctx, path, r)
		if err != nil {
			return nil, err
		}
		out[i] = b
	}
	return out, nil
}

func (s *S3ObjectStore) Head(ctx context.Context, path string) (tb.ObjectMeta, error) {
	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: aws.String(s.bucket), Key: aws.String(s.key(path))})
	if err != nil {
		return tb.ObjectMeta{}, wrapS3Error(path, err)
	}
	meta := tb.ObjectMeta{Path: path, Size: aws.ToInt64(out.ContentLength)}
	if out.LastModified != nil {
		meta.LastModified = *out.LastModified
	}
	if out.ETag != nil {
		meta.ETag = *out.ETag
	}
	return meta, nil
}

func (s *S3ObjectStore) List(ctx context.Context, prefix string) ([]tb.ObjectMeta, error) {
	var out []tb.ObjectMeta
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket), Prefix: aws.String(s.key(prefix)),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, tb.NewObjectStoreError("listing '"+prefix+"'", err)
		}
		for _, obj := range page.Contents {
			out = append(out, s3ObjectToMeta(obj, s.prefix))
		}
	}
	return out, nil
}

func (s *S3ObjectStore) ListWithDelimiter(ctx context.Context, prefix string) (tb.ListResult, error) {
	var result tb.ListResult
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket), Prefix: aws.String(s.key(prefix)), Delimiter: aws.String("/"),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return tb.ListResult{}, tb.NewObjectStoreError("listing '"+prefix+"'", err)
		}
		for _, obj := range page.Contents {
			result.Objects = append(result.Objects, s3ObjectToMeta(obj, s.prefix))
		}
		for _, cp := range page.CommonPrefixes {
			result.CommonPrefixes = append(result.CommonPrefixes, strings.TrimPrefix(aws.ToString(cp.Prefix), s.prefix+"/"))
		}
	}
	return result, nil
}

func s3ObjectToMeta(obj types.Object, prefix string) tb.ObjectMeta {
	meta := tb.ObjectMeta{
		Path: strings.TrimPrefix(aws.ToString(obj.Key), prefix+"/"),
		Size: aws.ToInt64(obj.Size),
	}
	if obj.LastModified != nil {
		meta.LastModified = *obj.LastModified
	}
	if obj.ETag != nil {
		meta.ETag = *obj.ETag
	}
	return meta
}

func (s *S3ObjectStore) Put(ctx context.Context, path string, data []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket), Key: aws.String(s.key(path)), Body: bytes.NewReader(data),
	})
	if err != nil {
		return wrapS3Error(path, err)
	}
	return nil
}

func (s *S3ObjectStore) PutMultipart(ctx context.Context, path string, r io.Reader) error {
	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket), Key: aws.String(s.key(path)), Body: r,
	})
	if err != nil {
		return wrapS3Error(path, err)
	}
	return nil
}

func (s *S3ObjectStore) Delete(ctx context.Context, path string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: aws.String(s.bucket), Key: aws.String(s.key(path))})
	if err != nil {
		return wrapS3Error(path, err)
	}
	return nil
}

func (s *S3ObjectStore) Copy(ctx context.Context, from, to string) error {
	source := s.bucket + "/" + s.key(from)
	_, err := s.client.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket: aws.String(s.bucket), Key: aws.String(s.key(to)), CopySource: aws.String(source),
	})
	if err != nil {
		return wrapS3Error(to, err)
	}
	return nil
}

func (s *S3ObjectStore) Rename(ctx context.Context, from, to string) error {
	if err := s.Copy(ctx, from, to); err != nil {
		return err
	}
	return s.Delete(ctx, from)
}

func (s *S3ObjectStore) CopyIfNotExists(ctx context.Context, from, to string) error {
	if _, err := s.Head(ctx, to); err == nil {
		return tb.NewConflictError("object '" + to + "' already exists")
	}
	return s.Copy(ctx, from, to)
}

func (s *S3ObjectStore) RenameIfNotExists(ctx context.Context, from, to string) error {
	if err := s.CopyIfNotExists(ctx, from, to); err != nil {
		return err
	}
	return s.Delete(ctx, from)
}

func httpRange(r tb.ByteRange) string {
	return "bytes=" + strconv.FormatInt(r.Offset, 10) + "-" + strconv.FormatInt(r.Offset+r.Length-1, 10)
}

func wrapS3Error(path string, err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return tb.NewNotFoundError("object '" + path + "' does not exist")
		}
	}
	return tb.NewObjectStoreError("s3 operation on '"+path+"' failed", err)
}
