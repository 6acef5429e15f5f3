// Package syncer mirrors a local directory into an object store prefix.
//
// A sync builds an inventory of each side, partitions them with
// planner.Diff and hands the plan to the executor. Nothing is kept between
// calls, so running the same request twice with no local changes performs
// no uploads or deletes the second time.
package syncer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"golang.org/x/sync/errgroup"

	"github.com/yuya-takeyama/s3-folder-sync/pkg/comparator"
	"github.com/yuya-takeyama/s3-folder-sync/pkg/executor"
	"github.com/yuya-takeyama/s3-folder-sync/pkg/inventory"
	"github.com/yuya-takeyama/s3-folder-sync/pkg/logger"
	"github.com/yuya-takeyama/s3-folder-sync/pkg/planner"
	"github.com/yuya-takeyama/s3-folder-sync/pkg/s3client"
)

// Syncer mirrors local directories into a store through client. It holds no
// per-run state and is safe to reuse across requests.
type Syncer struct {
	client      s3client.Client
	fs          billy.Filesystem
	comparator  comparator.Comparator
	logger      logger.Logger
	concurrency int
}

// Option configures a Syncer created by New.
type Option func(*Syncer)

// WithFilesystem replaces the local filesystem. The default is the host
// filesystem rooted at "/", so requests use absolute local paths.
func WithFilesystem(fsys billy.Filesystem) Option {
	return func(s *Syncer) {
		s.fs = fsys
	}
}

// WithComparator replaces the checksum comparator used for files present on
// both sides.
func WithComparator(cmp comparator.Comparator) Option {
	return func(s *Syncer) {
		s.comparator = cmp
	}
}

// WithLogger sets the receiver of sync events. Events are dropped by default.
func WithLogger(log logger.Logger) Option {
	return func(s *Syncer) {
		s.logger = log
	}
}

// WithConcurrency bounds the number of store operations in flight.
// Non-positive values fall back to executor.DefaultConcurrency.
func WithConcurrency(n int) Option {
	return func(s *Syncer) {
		s.concurrency = n
	}
}

// New creates a Syncer. Unless WithComparator is given, files present on
// both sides are compared by checksum.
func New(client s3client.Client, opts ...Option) *Syncer {
	s := &Syncer{
		client:      client,
		fs:          osfs.New("/"),
		logger:      logger.NullLogger{},
		concurrency: executor.DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.comparator == nil {
		s.comparator = comparator.NewChecksumComparator(s.fs, client)
	}
	return s
}

// Plan validates the request and computes the operations a sync would
// perform without applying any of them.
func (s *Syncer) Plan(ctx context.Context, req *Request) (planner.Plan, error) {
	if err := validate(s.fs, req); err != nil {
		return planner.Plan{}, err
	}

	prefix := inventory.NormalizePrefix(req.KeyPrefix)

	var local, remote *inventory.Inventory
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		inv, err := inventory.BuildLocal(gctx, s.fs, req.LocalDir, req.Excludes)
		if err != nil {
			return fmt.Errorf("failed to build local inventory: %w", err)
		}
		local = inv
		return nil
	})
	g.Go(func() error {
		inv, err := inventory.BuildRemote(gctx, s.client, req.Bucket, prefix, req.Excludes)
		if err != nil {
			return fmt.Errorf("failed to build remote inventory: %w", err)
		}
		remote = inv
		return nil
	})
	if err := g.Wait(); err != nil {
		return planner.Plan{}, err
	}

	plan := planner.Diff(local, remote)
	summary := plan.Summary()
	s.logger.Debug("plan computed",
		slog.String("bucket", req.Bucket),
		slog.String("prefix", prefix),
		slog.Int("local", local.Len()),
		slog.Int("remote", remote.Len()),
		slog.Int("add", summary.Add),
		slog.Int("remove", summary.Remove),
		slog.Int("compare", summary.Compare))

	return plan, nil
}

// SyncFolder makes the remote prefix mirror req.LocalDir. On error the
// response is nil; operations already applied to the store stay applied.
func (s *Syncer) SyncFolder(ctx context.Context, req *Request) (*Response, error) {
	plan, err := s.Plan(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.Apply(ctx, req, plan)
}

// Apply executes a plan previously returned by Plan for the same request.
func (s *Syncer) Apply(ctx context.Context, req *Request, plan planner.Plan) (*Response, error) {
	if err := validate(s.fs, req); err != nil {
		return nil, err
	}

	exec := executor.NewExecutor(s.client, s.fs, s.comparator, s.logger, s.concurrency)
	result, err := exec.Execute(ctx, req.Bucket, inventory.NormalizePrefix(req.KeyPrefix), plan, executor.Options{
		AllowDeletes: req.AllowDeletes,
		DryRun:       req.DryRun,
	})
	if err != nil {
		return nil, err
	}

	return newResponse(req.Bucket, result), nil
}
