package eventlog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/loamdev/loam/internal/apperr"
)

const (
	lockFile = "events.lock"

	// lockWait is how long a writer will wait for a competing writer
	// before giving up. Appends are single short writes, so contention
	// windows are milliseconds.
	lockWait = 5 * time.Second

	// lockStale is the age past which a lock is assumed to belong to a
	// crashed process and is broken.
	lockStale = 30 * time.Second

	lockPoll = 25 * time.Millisecond
)

// lockInfo is written into the lock file so a stuck lock is diagnosable.
type lockInfo struct {
	Owner      string `json:"owner"` // UUIDv7 token, unique per acquisition
	PID        int    `json:"pid"`
	AcquiredAt string `json:"acquired_at"`
}

// acquireLock takes the advisory append lock for a partition directory.
// The lock file is created with O_EXCL, which is atomic on every
// filesystem we care about. Returns an unlock func.
//
// Readers never call this: reads tolerate concurrent appends because
// records are whole lines written in one syscall.
func acquireLock(dir string) (func(), error) {
	path := filepath.Join(dir, lockFile)
	deadline := time.Now().Add(lockWait)

	info := lockInfo{
		Owner:      uuid.Must(uuid.NewV7()).String(),
		PID:        os.Getpid(),
		AcquiredAt: time.Now().UTC().Format(time.RFC3339Nano),
	}
	body, err := json.Marshal(info)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeStoreUnavailable, path, err, "encode lock info")
	}

	for {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			_, werr := f.Write(body)
			cerr := f.Close()
			if werr != nil || cerr != nil {
				os.Remove(path)
				return nil, apperr.Wrap(apperr.CodeStoreUnavailable, path, errOf(werr, cerr), "write lock info")
			}
			return func() { os.Remove(path) }, nil
		}
		if !os.IsExist(err) {
			return nil, apperr.Wrap(apperr.CodeStoreUnavailable, path, err, "create lock")
		}

		// Lock held by someone else. Break it if stale, otherwise poll.
		if st, serr := os.Stat(path); serr == nil && time.Since(st.ModTime()) > lockStale {
			os.Remove(path)
			continue
		}

		if time.Now().After(deadline) {
			holder := describeHolder(path)
			return nil, apperr.New(apperr.CodeStoreUnavailable, path,
				"append lock held for over %s%s", lockWait, holder)
		}
		time.Sleep(lockPoll)
	}
}

func describeHolder(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	var info lockInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return ""
	}
	return fmt.Sprintf(" (held by pid %d since %s)", info.PID, info.AcquiredAt)
}

func errOf(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
