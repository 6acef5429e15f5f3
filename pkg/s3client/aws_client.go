package s3client

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

const (
	multipartThreshold = 64 * 1024 * 1024 // 64MB
	partSize           = 8 * 1024 * 1024  // 8MB
)

// AWSClient implements Client with the AWS SDK. Every call is retried with
// backoff on throttling and server errors.
type AWSClient struct {
	client   *s3.Client
	uploader *manager.Uploader
	retry    retryer
}

// AWSOptions tunes NewAWSClient.
type AWSOptions struct {
	// Endpoint points the client at an S3 compatible store. Path style
	// addressing is enabled with it.
	Endpoint string
}

// NewAWSClient creates a new AWS S3 client from cfg.
func NewAWSClient(cfg aws.Config, opts AWSOptions) *AWSClient {
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &AWSClient{
		client: client,
		uploader: manager.NewUploader(client, func(u *manager.Uploader) {
			u.PartSize = partSize
		}),
		retry: newRetryer(),
	}
}

// ListObjectsPage fetches one ListObjectsV2 page. NextToken is set only when
// the listing is truncated.
func (c *AWSClient) ListObjectsPage(ctx context.Context, bucket, prefix, token string) (*ListPage, error) {
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
	}
	if prefix != "" {
		input.Prefix = aws.String(prefix)
	}
	if token != "" {
		input.ContinuationToken = aws.String(token)
	}

	var out *s3.ListObjectsV2Output
	err := c.retry.do(ctx, func() error {
		var err error
		out, err = c.client.ListObjectsV2(ctx, input)
		return err
	})
	if err != nil {
		return nil, newError("list", bucket, "", err)
	}

	page := &ListPage{}
	for _, obj := range out.Contents {
		if obj.Key == nil {
			continue
		}
		page.Objects = append(page.Objects, Object{
			Key:          aws.ToString(obj.Key),
			Size:         aws.ToInt64(obj.Size),
			ETag:         trimETag(aws.ToString(obj.ETag)),
			LastModified: aws.ToTime(obj.LastModified),
		})
	}

	if aws.ToBool(out.IsTruncated) {
		page.NextToken = aws.ToString(out.NextContinuationToken)
	}

	return page, nil
}

// HeadObject fetches object metadata with checksum mode enabled so the
// stored CRC64NVME is returned when present.
func (c *AWSClient) HeadObject(ctx context.Context, bucket, key string) (*ObjectInfo, error) {
	var out *s3.HeadObjectOutput
	err := c.retry.do(ctx, func() error {
		var err error
		out, err = c.client.HeadObject(ctx, &s3.HeadObjectInput{
			Bucket:       aws.String(bucket),
			Key:          aws.String(key),
			ChecksumMode: types.ChecksumModeEnabled,
		})
		return err
	})
	if err != nil {
		return nil, newError("head", bucket, key, err)
	}

	return &ObjectInfo{
		Size:              aws.ToInt64(out.ContentLength),
		ETag:              trimETag(aws.ToString(out.ETag)),
		ChecksumCRC64NVME: aws.ToString(out.ChecksumCRC64NVME),
	}, nil
}

// PutObject uploads with a CRC64NVME checksum so later runs can compare
// content without downloading. Bodies above the multipart threshold go
// through the transfer manager.
func (c *AWSClient) PutObject(ctx context.Context, req *PutObjectRequest) error {
	err := c.retry.do(ctx, func() error {
		if _, err := req.Body.Seek(0, io.SeekStart); err != nil {
			return fmt.Errorf("rewind body: %w", err)
		}

		input := &s3.PutObjectInput{
			Bucket:            aws.String(req.Bucket),
			Key:               aws.String(req.Key),
			Body:              req.Body,
			ChecksumAlgorithm: types.ChecksumAlgorithmCrc64nvme,
		}
		if req.ContentType != "" {
			input.ContentType = aws.String(req.ContentType)
		}

		if req.Size > multipartThreshold {
			_, err := c.uploader.Upload(ctx, input)
			return err
		}

		input.ContentLength = aws.Int64(req.Size)
		_, err := c.client.PutObject(ctx, input)
		return err
	})
	if err != nil {
		return newError("put", req.Bucket, req.Key, err)
	}

	return nil
}

// DeleteObject removes a single object.
func (c *AWSClient) DeleteObject(ctx context.Context, bucket, key string) error {
	err := c.retry.do(ctx, func() error {
		_, err := c.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
		})
		return err
	})
	if err != nil {
		return newError("delete", bucket, key, err)
	}

	return nil
}

func trimETag(etag string) string {
	return strings.Trim(etag, "\"")
}
