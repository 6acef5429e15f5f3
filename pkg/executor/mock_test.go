package executor

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/yuya-takeyama/s3-folder-sync/pkg/s3client"
)

type putCall struct {
	bucket      string
	key         string
	body        string
	size        int64
	contentType string
}

// mockS3Client is a mock implementation of s3client.Client for testing. It
// is safe for concurrent use.
type mockS3Client struct {
	mu sync.Mutex

	headObjectFunc   func(ctx context.Context, bucket, key string) (*s3client.ObjectInfo, error)
	putObjectFunc    func(ctx context.Context, req *s3client.PutObjectRequest) error
	deleteObjectFunc func(ctx context.Context, bucket, key string) error

	puts    []putCall
	deletes []string
}

func (m *mockS3Client) ListObjectsPage(ctx context.Context, bucket, prefix, token string) (*s3client.ListPage, error) {
	return nil, fmt.Errorf("ListObjectsPage not implemented")
}

func (m *mockS3Client) HeadObject(ctx context.Context, bucket, key string) (*s3client.ObjectInfo, error) {
	if m.headObjectFunc != nil {
		return m.headObjectFunc(ctx, bucket, key)
	}
	return nil, fmt.Errorf("HeadObject not implemented")
}

func (m *mockS3Client) PutObject(ctx context.Context, req *s3client.PutObjectRequest) error {
	body, err := io.ReadAll(req.Body)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.puts = append(m.puts, putCall{req.Bucket, req.Key, string(body), req.Size, req.ContentType})
	m.mu.Unlock()

	if m.putObjectFunc != nil {
		return m.putObjectFunc(ctx, req)
	}
	return nil
}

func (m *mockS3Client) DeleteObject(ctx context.Context, bucket, key string) error {
	m.mu.Lock()
	m.deletes = append(m.deletes, key)
	m.mu.Unlock()

	if m.deleteObjectFunc != nil {
		return m.deleteObjectFunc(ctx, bucket, key)
	}
	return nil
}

func (m *mockS3Client) putKeys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var keys []string
	for _, p := range m.puts {
		keys = append(keys, p.key)
	}
	return keys
}
