package s3client

import (
	"context"
	"io"
	"time"
)

// Object is a single entry of a listing page.
type Object struct {
	Key          string
	Size         int64
	ETag         string
	LastModified time.Time
}

// ListPage is one page of a prefix listing. An empty NextToken means the
// listing is exhausted.
type ListPage struct {
	Objects   []Object
	NextToken string
}

// ObjectInfo is the metadata returned by HeadObject.
type ObjectInfo struct {
	Size int64
	ETag string
	// ChecksumCRC64NVME is base64 encoded, empty when the object was stored
	// without one.
	ChecksumCRC64NVME string
}

// PutObjectRequest describes an upload. Body is rewound before every
// attempt.
type PutObjectRequest struct {
	Bucket      string
	Key         string
	Body        io.ReadSeeker
	Size        int64
	ContentType string
}

// Client is the object store capability consumed by the sync engine.
type Client interface {
	ListObjectsPage(ctx context.Context, bucket, prefix, token string) (*ListPage, error)
	HeadObject(ctx context.Context, bucket, key string) (*ObjectInfo, error)
	PutObject(ctx context.Context, req *PutObjectRequest) error
	DeleteObject(ctx context.Context, bucket, key string) error
}
