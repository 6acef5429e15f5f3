package inventory

import (
	"context"
	"fmt"
	"strings"

	"github.com/yuya-takeyama/s3-folder-sync/pkg/s3client"
)

// Lister is the paginated listing part of s3client.Client.
type Lister interface {
	ListObjectsPage(ctx context.Context, bucket, prefix, token string) (*s3client.ListPage, error)
}

// ListAll follows continuation tokens until the store reports no further
// page. The context is checked before every request.
func ListAll(ctx context.Context, lister Lister, bucket, prefix string) ([]s3client.Object, error) {
	var objects []s3client.Object

	token := ""
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page, err := lister.ListObjectsPage(ctx, bucket, prefix, token)
		if err != nil {
			return nil, err
		}
		objects = append(objects, page.Objects...)

		if page.NextToken == "" {
			return objects, nil
		}
		if page.NextToken == token {
			return nil, fmt.Errorf("listing did not advance past token %q", token)
		}
		token = page.NextToken
	}
}

// BuildRemote lists every object under prefix and keys it by its path
// relative to the prefix. Folder markers and keys outside the prefix are
// dropped.
func BuildRemote(ctx context.Context, lister Lister, bucket, prefix string, excludes []string) (*Inventory, error) {
	prefix = NormalizePrefix(prefix)

	objects, err := ListAll(ctx, lister, bucket, ListPrefix(prefix))
	if err != nil {
		return nil, fmt.Errorf("list objects: %w", err)
	}

	inv := New()
	for _, obj := range objects {
		rel, ok := RemoteRelativePath(prefix, obj.Key)
		if !ok || rel == "" || strings.HasSuffix(rel, "/") {
			continue
		}

		excluded, err := IsExcluded(rel, excludes)
		if err != nil {
			return nil, fmt.Errorf("check exclude pattern for %s: %w", rel, err)
		}
		if excluded {
			continue
		}

		inv.Add(Item{
			RelativePath: rel,
			Source:       obj.Key,
			Fingerprint:  obj.ETag,
			Size:         obj.Size,
			ModTime:      obj.LastModified,
		})
	}

	return inv, nil
}
