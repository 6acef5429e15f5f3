package syncer

import (
	"fmt"

	"github.com/go-git/go-billy/v5"

	"github.com/yuya-takeyama/s3-folder-sync/pkg/executor"
	"github.com/yuya-takeyama/s3-folder-sync/pkg/inventory"
)

// Request describes one sync of LocalDir into Bucket under KeyPrefix.
type Request struct {
	// LocalDir is the root of the tree to mirror.
	LocalDir string
	Bucket   string
	// KeyPrefix scopes the remote namespace. Leading and trailing slashes
	// are ignored; empty means the whole bucket.
	KeyPrefix string
	// AllowDeletes removes remote objects that have no local counterpart.
	AllowDeletes bool
	DryRun       bool
	// Excludes are doublestar patterns matched against relative paths on
	// both sides.
	Excludes []string
}

// NewRequest returns a request with deletes enabled.
func NewRequest(localDir, bucket, keyPrefix string) *Request {
	return &Request{
		LocalDir:     localDir,
		Bucket:       bucket,
		KeyPrefix:    keyPrefix,
		AllowDeletes: true,
	}
}

// Response lists the keys affected by a sync. The lists are never nil.
type Response struct {
	Bucket        string
	AddedKeys     []string
	ModifiedKeys  []string
	DeletedKeys   []string
	SkippedKeys   []string
	BytesUploaded int64
}

func newResponse(bucket string, result *executor.Result) *Response {
	return &Response{
		Bucket:        bucket,
		AddedKeys:     nonNil(result.Added),
		ModifiedKeys:  nonNil(result.Modified),
		DeletedKeys:   nonNil(result.Deleted),
		SkippedKeys:   nonNil(result.Skipped),
		BytesUploaded: result.BytesUploaded,
	}
}

func nonNil(keys []string) []string {
	if keys == nil {
		return []string{}
	}
	return keys
}

func validate(fsys billy.Filesystem, req *Request) error {
	if req == nil {
		return fmt.Errorf("%w: request is nil", ErrInvalidRequest)
	}
	if req.Bucket == "" {
		return fmt.Errorf("%w: bucket is empty", ErrInvalidRequest)
	}
	if req.LocalDir == "" {
		return fmt.Errorf("%w: local directory is empty", ErrInvalidRequest)
	}

	info, err := fsys.Stat(req.LocalDir)
	if err != nil {
		return fmt.Errorf("%w: local directory %s: %v", ErrInvalidRequest, req.LocalDir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrInvalidRequest, req.LocalDir)
	}

	if err := inventory.ValidatePatterns(req.Excludes); err != nil {
		return fmt.Errorf("%w: exclude pattern: %v", ErrInvalidRequest, err)
	}
	return nil
}
