package s3client

import (
	"fmt"
	"strings"
)

// ParseS3URI splits s3://bucket/prefix. The returned prefix carries no
// leading or trailing slashes.
func ParseS3URI(uri string) (bucket, prefix string, err error) {
	if !strings.HasPrefix(uri, "s3://") {
		return "", "", fmt.Errorf("URI must start with s3://")
	}

	path := strings.TrimPrefix(uri, "s3://")
	parts := strings.SplitN(path, "/", 2)

	bucket = parts[0]
	if len(parts) > 1 {
		prefix = strings.Trim(parts[1], "/")
	}

	if bucket == "" {
		return "", "", fmt.Errorf("bucket name cannot be empty")
	}

	return bucket, prefix, nil
}
