package adapters

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"
)

// lockPoll is how often a blocked writer re-checks the lock file.
const lockPoll = 50 * time.Millisecond

// acquireFileLock takes a cross-process lock by creating path with O_EXCL.
// A lock file older than ttl is considered abandoned and removed. It blocks
// until the lock is free or ctx is done.
func acquireFileLock(ctx context.Context, path string, ttl time.Duration) (release func(), err error) {
	for {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			_, _ = fmt.Fprintf(f, `{"pid":%d,"time":%d}`+"\n", os.Getpid(), time.Now().Unix())
			_ = f.Close()
			return func() { _ = os.Remove(path) }, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, fmt.Errorf("create lock %s: %w", path, err)
		}

		if fi, statErr := os.Stat(path); statErr == nil && time.Since(fi.ModTime()) >= ttl {
			_ = os.Remove(path)
			continue
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("wait for lock %s: %w", path, ctx.Err())
		case <-time.After(lockPoll):
		}
	}
}
