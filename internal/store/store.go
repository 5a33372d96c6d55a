// Package store persists catalog objects to an object store with
// backup-before-overwrite semantics. Two interchangeable backends
// (S3 and local filesystem) satisfy the same contract.
package store

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Store is the catalog object store contract. Download of a missing
// key returns (nil, nil), never an error, so callers can distinguish
// "no previous catalog" from a real failure.
type Store interface {
	Upload(ctx context.Context, key string, data []byte) error
	Download(ctx context.Context, key string) ([]byte, error)
	Exists(ctx context.Context, key string) (bool, error)
}

// BackupKey splices a Unix-millisecond timestamp into a key before its
// extension: "catalog.json" → "catalog-1724500000000.json". Millisecond
// resolution guarantees no collision within a run and makes every
// prior version auditable.
func BackupKey(key string, now time.Time) string {
	base, ext := splitExt(key)
	return base + "-" + strconv.FormatInt(now.UnixMilli(), 10) + ext
}

// SnapshotKey names the always-on snapshot of a run's output, retained
// independently of the latest key so history survives even if
// backup-before-overwrite is skipped by a bug.
func SnapshotKey(key string, now time.Time) string {
	base, ext := splitExt(key)
	return fmt.Sprintf("snapshots/%s-%d%s", base, now.UnixMilli(), ext)
}

func splitExt(key string) (base, ext string) {
	if idx := strings.LastIndex(key, "."); idx > 0 {
		return key[:idx], key[idx:]
	}
	return key, ""
}
