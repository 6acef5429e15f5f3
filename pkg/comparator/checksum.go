package comparator

import (
	"crypto/md5"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"hash"
	"hash/crc64"
	"io"
	"strings"

	"github.com/go-git/go-billy/v5"
)

// CRC64NVME polynomial as per AWS S3 specification
var crc64NVMETable = crc64.MakeTable(0x9a6c9329ac4bc9b5)

// FileMD5 returns the lowercase hex MD5 of a file, the format S3 uses for
// single part ETags.
func FileMD5(fsys billy.Filesystem, path string) (string, error) {
	sum, err := hashFile(fsys, path, md5.New())
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(sum), nil
}

// FileCRC64NVME returns the base64 CRC64NVME of a file, the format of the
// x-amz-checksum-crc64nvme header.
func FileCRC64NVME(fsys billy.Filesystem, path string) (string, error) {
	sum, err := hashFile(fsys, path, crc64.New(crc64NVMETable))
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(sum), nil
}

func hashFile(fsys billy.Filesystem, path string, h hash.Hash) ([]byte, error) {
	file, err := fsys.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	if _, err := io.Copy(h, file); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return h.Sum(nil), nil
}

// isMD5ETag reports whether an ETag is a plain content MD5. Multipart ETags
// carry a "-<parts>" suffix and are not.
func isMD5ETag(etag string) bool {
	if len(etag) != 32 || strings.Contains(etag, "-") {
		return false
	}
	_, err := hex.DecodeString(etag)
	return err == nil
}
