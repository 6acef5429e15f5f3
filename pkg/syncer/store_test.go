package syncer

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/yuya-takeyama/s3-folder-sync/pkg/s3client"
)

var errNoSuchKey = errors.New("no such key")

// memStore is an in-memory s3client.Client. Listing is served in pages of
// pageSize keys in lexical order; ETags are the MD5 of the body.
type memStore struct {
	mu       sync.Mutex
	objects  map[string][]byte
	pageSize int

	listCalls   int
	putCalls    int
	deleteCalls int
}

func newMemStore(objects map[string]string) *memStore {
	s := &memStore{objects: map[string][]byte{}, pageSize: 1000}
	for k, v := range objects {
		s.objects[k] = []byte(v)
	}
	return s
}

func etag(body []byte) string {
	sum := md5.Sum(body)
	return hex.EncodeToString(sum[:])
}

func (s *memStore) ListObjectsPage(ctx context.Context, bucket, prefix, token string) (*s3client.ListPage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listCalls++

	var keys []string
	for k := range s.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	start := 0
	if token != "" {
		n, err := strconv.Atoi(token)
		if err != nil {
			return nil, err
		}
		start = n
	}
	end := min(start+s.pageSize, len(keys))

	page := &s3client.ListPage{}
	for _, k := range keys[start:end] {
		page.Objects = append(page.Objects, s3client.Object{
			Key:          k,
			Size:         int64(len(s.objects[k])),
			ETag:         etag(s.objects[k]),
			LastModified: time.Unix(0, 0),
		})
	}
	if end < len(keys) {
		page.NextToken = strconv.Itoa(end)
	}
	return page, nil
}

func (s *memStore) HeadObject(ctx context.Context, bucket, key string) (*s3client.ObjectInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	body, ok := s.objects[key]
	if !ok {
		return nil, errNoSuchKey
	}
	return &s3client.ObjectInfo{Size: int64(len(body)), ETag: etag(body)}, nil
}

func (s *memStore) PutObject(ctx context.Context, req *s3client.PutObjectRequest) error {
	body, err := io.ReadAll(req.Body)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.putCalls++
	s.objects[req.Key] = body
	return nil
}

func (s *memStore) DeleteObject(ctx context.Context, bucket, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteCalls++
	delete(s.objects, key)
	return nil
}

func (s *memStore) keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make([]string, 0, len(s.objects))
	for k := range s.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
