package logger

import (
	"context"
	"log/slog"
)

// Logger receives sync events from the executor and the syncer.
type Logger interface {
	Upload(localPath, s3Path string)
	Update(localPath, s3Path string)
	Delete(s3Path string)
	Skip(s3Path, reason string)
	Error(operation, path string, err error)
	Debug(message string, args ...any)
}

// SyncLogger writes sync events to a slog.Logger. A nil Slog falls back to
// slog.Default.
type SyncLogger struct {
	Slog     *slog.Logger
	IsDryRun bool
	IsQuiet  bool
}

func (l *SyncLogger) log() *slog.Logger {
	if l.Slog != nil {
		return l.Slog
	}
	return slog.Default()
}

func (l *SyncLogger) event(op string, args ...any) {
	if l.IsQuiet {
		return
	}
	if l.IsDryRun {
		args = append(args, slog.Bool("dryrun", true))
	}
	l.log().Info(op, args...)
}

// Upload records a new object.
func (l *SyncLogger) Upload(localPath, s3Path string) {
	l.event("upload", slog.String("source", localPath), slog.String("target", s3Path))
}

// Update records a re-upload of a changed object.
func (l *SyncLogger) Update(localPath, s3Path string) {
	l.event("update", slog.String("source", localPath), slog.String("target", s3Path))
}

// Delete records the removal of an object.
func (l *SyncLogger) Delete(s3Path string) {
	l.event("delete", slog.String("target", s3Path))
}

// Skip records an unchanged object at debug level.
func (l *SyncLogger) Skip(s3Path, reason string) {
	if l.IsQuiet {
		return
	}
	l.log().Debug("skip", slog.String("target", s3Path), slog.String("reason", reason))
}

// Error is emitted even in quiet mode.
func (l *SyncLogger) Error(operation, path string, err error) {
	l.log().Error("sync failed",
		slog.String("op", operation),
		slog.String("path", path),
		slog.Any("error", err))
}

func (l *SyncLogger) Debug(message string, args ...any) {
	if !l.log().Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	l.log().Debug(message, args...)
}

// NullLogger discards every event.
type NullLogger struct{}

func (NullLogger) Upload(string, string)       {}
func (NullLogger) Update(string, string)       {}
func (NullLogger) Delete(string)               {}
func (NullLogger) Skip(string, string)         {}
func (NullLogger) Error(string, string, error) {}
func (NullLogger) Debug(string, ...any)        {}
