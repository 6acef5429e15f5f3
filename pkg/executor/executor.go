package executor

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/go-git/go-billy/v5"
	"golang.org/x/sync/errgroup"

	"github.com/yuya-takeyama/s3-folder-sync/pkg/comparator"
	"github.com/yuya-takeyama/s3-folder-sync/pkg/inventory"
	"github.com/yuya-takeyama/s3-folder-sync/pkg/logger"
	"github.com/yuya-takeyama/s3-folder-sync/pkg/planner"
	"github.com/yuya-takeyama/s3-folder-sync/pkg/s3client"
)

// DefaultConcurrency is the number of store operations in flight when no
// limit is given.
const DefaultConcurrency = 32

// Executor applies plans to a store.
type Executor struct {
	client      s3client.Client
	fs          billy.Filesystem
	comparator  comparator.Comparator
	logger      logger.Logger
	concurrency int
}

// NewExecutor creates an Executor. A nil logger discards events and a
// non-positive concurrency selects DefaultConcurrency.
func NewExecutor(client s3client.Client, fsys billy.Filesystem, cmp comparator.Comparator, log logger.Logger, concurrency int) *Executor {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	if log == nil {
		log = logger.NullLogger{}
	}
	return &Executor{
		client:      client,
		fs:          fsys,
		comparator:  cmp,
		logger:      log,
		concurrency: concurrency,
	}
}

// Options controls a single Execute call.
type Options struct {
	// AllowDeletes gates the ToRemove partition. When false it is computed
	// but never applied.
	AllowDeletes bool
	// DryRun records what would happen without writing to the store.
	DryRun bool
}

// Result lists affected keys in plan order.
type Result struct {
	Added         []string
	Modified      []string
	Deleted       []string
	Skipped       []string
	BytesUploaded int64
}

// Execute applies the plan. All partitions share one bounded pool. The first
// failure cancels the remaining units and is returned; operations that
// already completed on the store are not rolled back.
func (e *Executor) Execute(ctx context.Context, bucket, prefix string, plan planner.Plan, opts Options) (*Result, error) {
	added := make([]string, len(plan.ToAdd))
	modified := make([]string, len(plan.ToCompare))
	skipped := make([]string, len(plan.ToCompare))
	deleted := make([]string, len(plan.ToRemove))
	var uploaded atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)

	for i, item := range plan.ToAdd {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			key := inventory.ObjectKey(prefix, item.RelativePath)
			e.logger.Upload(item.Source, s3Path(bucket, key))
			if !opts.DryRun {
				n, err := e.upload(gctx, bucket, key, item.Source)
				if err != nil {
					e.logger.Error("upload", key, err)
					return err
				}
				uploaded.Add(n)
			}
			added[i] = key
			return nil
		})
	}

	for i, pair := range plan.ToCompare {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			changed, err := e.comparator.HasChanged(gctx, bucket, pair)
			if err != nil {
				e.logger.Error("compare", pair.RemoteKey, err)
				return fmt.Errorf("compare %s: %w", pair.RelativePath, err)
			}
			if !changed {
				e.logger.Skip(s3Path(bucket, pair.RemoteKey), "unchanged")
				skipped[i] = pair.RemoteKey
				return nil
			}

			e.logger.Update(pair.LocalPath, s3Path(bucket, pair.RemoteKey))
			if !opts.DryRun {
				n, err := e.upload(gctx, bucket, pair.RemoteKey, pair.LocalPath)
				if err != nil {
					e.logger.Error("update", pair.RemoteKey, err)
					return err
				}
				uploaded.Add(n)
			}
			modified[i] = pair.RemoteKey
			return nil
		})
	}

	if opts.AllowDeletes {
		for i, item := range plan.ToRemove {
			if gctx.Err() != nil {
				break
			}
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				e.logger.Delete(s3Path(bucket, item.Source))
				if !opts.DryRun {
					if err := e.client.DeleteObject(gctx, bucket, item.Source); err != nil {
						e.logger.Error("delete", item.Source, err)
						return fmt.Errorf("failed to delete: %w", err)
					}
				}
				deleted[i] = item.Source
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	// Units never scheduled because of cancellation report nothing to Wait.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return &Result{
		Added:         compact(added),
		Modified:      compact(modified),
		Deleted:       compact(deleted),
		Skipped:       compact(skipped),
		BytesUploaded: uploaded.Load(),
	}, nil
}

func (e *Executor) upload(ctx context.Context, bucket, key, localPath string) (int64, error) {
	file, err := e.fs.Open(localPath)
	if err != nil {
		return 0, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	info, err := e.fs.Stat(localPath)
	if err != nil {
		return 0, fmt.Errorf("failed to stat file: %w", err)
	}

	contentType, err := guessContentType(localPath, file)
	if err != nil {
		return 0, fmt.Errorf("failed to detect content type: %w", err)
	}

	err = e.client.PutObject(ctx, &s3client.PutObjectRequest{
		Bucket:      bucket,
		Key:         key,
		Body:        file,
		Size:        info.Size(),
		ContentType: contentType,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to upload: %w", err)
	}

	return info.Size(), nil
}

// compact drops unfilled slots while keeping plan order.
func compact(slots []string) []string {
	out := make([]string, 0, len(slots))
	for _, s := range slots {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func s3Path(bucket, key string) string {
	return fmt.Sprintf("s3://%s/%s", bucket, key)
}
