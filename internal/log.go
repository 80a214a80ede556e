package internal

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
)

// Prefix creates a consistent prefix for all file-based commands to use.
//
// i and n are the zero-based ordinal and expected count.
func Prefix(i, n int, name string) string {
	return fmt.Sprintf(`[%d/%d] "%s" - `, i+1, n, truncateRight(filepath.Base(name), 30, "..."))
}

type loggerKey struct{}

// WithPrefixLogger creates a new logger using the given prefix and attaches it to the context.
func WithPrefixLogger(ctx context.Context, prefix string) context.Context {
	return WithLogger(ctx, log.New(os.Stderr, prefix, 0))
}

// WithLogger attaches the given logger to the context.
func WithLogger(ctx context.Context, logger *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// Logger returns the logger attached to the given context, or log.Default if there is none.
func Logger(ctx context.Context) *log.Logger {
	if logger, ok := ctx.Value(loggerKey{}).(*log.Logger); ok {
		return logger
	}

	return log.Default()
}

// truncateRight keeps the first n runes of text and appends suffix only if truncation happens.
func truncateRight(text string, n int, suffix string) string {
	rs := []rune(text)
	if len(rs) <= n {
		return text
	}

	return string(rs[:n]) + suffix
}
