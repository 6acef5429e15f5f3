package comparator

import (
	"context"
	"errors"
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yuya-takeyama/s3-folder-sync/pkg/planner"
	"github.com/yuya-takeyama/s3-folder-sync/pkg/s3client"
)

type mockHeader struct {
	info  *s3client.ObjectInfo
	err   error
	calls []string
}

func (m *mockHeader) HeadObject(ctx context.Context, bucket, key string) (*s3client.ObjectInfo, error) {
	m.calls = append(m.calls, bucket+"/"+key)
	if m.err != nil {
		return nil, m.err
	}
	return m.info, nil
}

func fileWith(t *testing.T, content string) (billy.Filesystem, string) {
	t.Helper()
	fsys := memfs.New()
	path := "/data/b.txt"
	require.NoError(t, util.WriteFile(fsys, path, []byte(content), 0o644))
	return fsys, path
}

func pairFor(path string, localSize, remoteSize int64, etag string) planner.Pair {
	return planner.Pair{
		RelativePath: "b.txt",
		LocalPath:    path,
		RemoteKey:    "p/b.txt",
		RemoteETag:   etag,
		LocalSize:    localSize,
		RemoteSize:   remoteSize,
	}
}

const (
	md5HelloWorld       = "5eb63bbbe01eeed093cb22bb8f5acdc3"
	crc64NVMEHelloWorld = "jSnVw/bqjr4="
)

func TestChecksumComparator(t *testing.T) {
	ctx := context.Background()

	t.Run("different sizes", func(t *testing.T) {
		fsys, path := fileWith(t, "hello world")
		head := &mockHeader{}
		c := NewChecksumComparator(fsys, head)

		changed, err := c.HasChanged(ctx, "bucket", pairFor(path, 11, 20, md5HelloWorld))
		require.NoError(t, err)
		assert.True(t, changed)
		assert.Empty(t, head.calls)
	})

	t.Run("same size same md5", func(t *testing.T) {
		fsys, path := fileWith(t, "hello world")
		head := &mockHeader{}
		c := NewChecksumComparator(fsys, head)

		changed, err := c.HasChanged(ctx, "bucket", pairFor(path, 11, 11, md5HelloWorld))
		require.NoError(t, err)
		assert.False(t, changed)
		assert.Empty(t, head.calls, "md5 etag is decided without HeadObject")
	})

	t.Run("uppercase md5 etag", func(t *testing.T) {
		fsys, path := fileWith(t, "hello world")
		c := NewChecksumComparator(fsys, &mockHeader{})

		changed, err := c.HasChanged(ctx, "bucket", pairFor(path, 11, 11, "5EB63BBBE01EEED093CB22BB8F5ACDC3"))
		require.NoError(t, err)
		assert.False(t, changed)
	})

	t.Run("same size different md5", func(t *testing.T) {
		fsys, path := fileWith(t, "hello world")
		head := &mockHeader{info: &s3client.ObjectInfo{Size: 11}}
		c := NewChecksumComparator(fsys, head)

		changed, err := c.HasChanged(ctx, "bucket", pairFor(path, 11, 11, "d41d8cd98f00b204e9800998ecf8427e"))
		require.NoError(t, err)
		assert.True(t, changed)
		assert.Equal(t, []string{"bucket/p/b.txt"}, head.calls)
	})

	t.Run("encrypted object etag falls back to crc64nvme", func(t *testing.T) {
		fsys, path := fileWith(t, "hello world")
		head := &mockHeader{info: &s3client.ObjectInfo{Size: 11, ChecksumCRC64NVME: crc64NVMEHelloWorld}}
		c := NewChecksumComparator(fsys, head)

		// SSE-KMS ETags look like an MD5 but are not the content digest.
		changed, err := c.HasChanged(ctx, "bucket", pairFor(path, 11, 11, "8f14e45fceea167a5a36dedd4bea2543"))
		require.NoError(t, err)
		assert.False(t, changed)
		assert.Equal(t, []string{"bucket/p/b.txt"}, head.calls)
	})

	t.Run("multipart etag with matching crc64nvme", func(t *testing.T) {
		fsys, path := fileWith(t, "hello world")
		head := &mockHeader{info: &s3client.ObjectInfo{Size: 11, ChecksumCRC64NVME: crc64NVMEHelloWorld}}
		c := NewChecksumComparator(fsys, head)

		changed, err := c.HasChanged(ctx, "bucket", pairFor(path, 11, 11, "abc123-2"))
		require.NoError(t, err)
		assert.False(t, changed)
		assert.Equal(t, []string{"bucket/p/b.txt"}, head.calls)
	})

	t.Run("multipart etag with different crc64nvme", func(t *testing.T) {
		fsys, path := fileWith(t, "hello world")
		head := &mockHeader{info: &s3client.ObjectInfo{Size: 11, ChecksumCRC64NVME: "AAAAAAAAAAA="}}
		c := NewChecksumComparator(fsys, head)

		changed, err := c.HasChanged(ctx, "bucket", pairFor(path, 11, 11, "abc123-2"))
		require.NoError(t, err)
		assert.True(t, changed)
	})

	t.Run("no remote checksum", func(t *testing.T) {
		fsys, path := fileWith(t, "hello world")
		head := &mockHeader{info: &s3client.ObjectInfo{Size: 11}}
		c := NewChecksumComparator(fsys, head)

		changed, err := c.HasChanged(ctx, "bucket", pairFor(path, 11, 11, ""))
		require.NoError(t, err)
		assert.True(t, changed)
	})

	t.Run("head error propagates", func(t *testing.T) {
		fsys, path := fileWith(t, "hello world")
		boom := errors.New("forbidden")
		c := NewChecksumComparator(fsys, &mockHeader{err: boom})

		_, err := c.HasChanged(ctx, "bucket", pairFor(path, 11, 11, "abc-3"))
		require.ErrorIs(t, err, boom)
	})

	t.Run("missing local file", func(t *testing.T) {
		c := NewChecksumComparator(memfs.New(), &mockHeader{})

		_, err := c.HasChanged(ctx, "bucket", pairFor("/data/gone.txt", 11, 11, md5HelloWorld))
		require.Error(t, err)
	})
}

func TestSizeComparator(t *testing.T) {
	var c SizeComparator

	changed, err := c.HasChanged(context.Background(), "bucket", planner.Pair{LocalSize: 1, RemoteSize: 2})
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = c.HasChanged(context.Background(), "bucket", planner.Pair{LocalSize: 3, RemoteSize: 3, RemoteETag: "different"})
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestSkipComparator(t *testing.T) {
	changed, err := SkipComparator{}.HasChanged(context.Background(), "bucket", planner.Pair{LocalSize: 1, RemoteSize: 2})
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    Policy
		wantErr bool
	}{
		{"checksum", PolicyChecksum, false},
		{"", PolicyChecksum, false},
		{"SIZE", PolicySize, false},
		{"skip", PolicySkip, false},
		{"mtime", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePolicy(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrUnsupportedPolicy)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNew(t *testing.T) {
	c, err := New(PolicyChecksum, memfs.New(), &mockHeader{})
	require.NoError(t, err)
	assert.IsType(t, &ChecksumComparator{}, c)

	c, err = New(PolicySize, nil, nil)
	require.NoError(t, err)
	assert.IsType(t, SizeComparator{}, c)

	c, err = New(PolicySkip, nil, nil)
	require.NoError(t, err)
	assert.IsType(t, SkipComparator{}, c)

	_, err = New(Policy("bogus"), nil, nil)
	require.ErrorIs(t, err, ErrUnsupportedPolicy)
}
