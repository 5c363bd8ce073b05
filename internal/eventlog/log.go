// Package eventlog implements the append-only, scope-partitioned event
// store.
//
// Each scope owns one line-delimited JSON file under the data root:
//
//	<root>/shared/events.jsonl   round-trips through version control
//	<root>/local/events.jsonl    never leaves the machine
//
// Append is write-once; no update or delete operation exists anywhere in
// the package. A "delete" is not expressible: corrections are new events.
// Appends are guarded by an advisory lock file so interleaved writers
// (a human and an automated agent, say) cannot produce partial records.
// Readers never take the lock; a record becomes observable only once its
// full line is on disk.
package eventlog

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/loamdev/loam/internal/apperr"
	"github.com/loamdev/loam/internal/model"
)

const (
	eventsFile = "events.jsonl"

	// maxLineBytes bounds a single record. Payloads are short structured
	// text; anything past this is treated as corrupt rather than read
	// into memory unbounded.
	maxLineBytes = 1 << 20
)

// Log is a handle on both scope partitions under one data root.
type Log struct {
	root string
}

// ReadReport accompanies every read: corrupt records are skipped but
// always counted, never silently dropped.
type ReadReport struct {
	Events  []model.Event
	Corrupt int
}

// Cursor identifies a position in one scope's log by count of valid
// records already consumed.
type Cursor struct {
	Scope model.Scope
	After int
}

// Open prepares the partition directories under root. It never touches
// existing records.
func Open(root string) (*Log, error) {
	for _, scope := range []model.Scope{model.ScopeLocal, model.ScopeShared} {
		dir := filepath.Join(root, string(scope))
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, apperr.Wrap(apperr.CodeStoreUnavailable, dir, err, "create partition")
		}
	}
	return &Log{root: root}, nil
}

// Root returns the data root the log was opened on.
func (l *Log) Root() string { return l.root }

// Path returns the on-disk file for a scope partition.
func (l *Log) Path(scope model.Scope) string {
	return filepath.Join(l.root, string(scope), eventsFile)
}

// Append durably writes one event to its scope partition and returns the
// event id. The write is a single full line under the partition lock;
// on any failure the file is left unchanged (no partial append).
func (l *Log) Append(ev model.Event) (string, error) {
	if err := ev.Validate(); err != nil {
		return "", apperr.Wrap(apperr.CodeIntegrity, ev.ID, err, "refusing to append malformed event")
	}

	line, err := json.Marshal(ev)
	if err != nil {
		return "", apperr.Wrap(apperr.CodeIntegrity, ev.ID, err, "encode event")
	}

	path := l.Path(ev.Scope)
	unlock, err := acquireLock(filepath.Dir(path))
	if err != nil {
		return "", err
	}
	defer unlock()

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return "", apperr.Wrap(apperr.CodeStoreUnavailable, path, err, "open partition")
	}
	defer f.Close()

	// One Write call for the whole record keeps concurrent readers from
	// ever observing a partial line.
	if _, err := f.Write(append(line, '\n')); err != nil {
		return "", apperr.Wrap(apperr.CodeStoreUnavailable, path, err, "append event")
	}
	if err := f.Sync(); err != nil {
		return "", apperr.Wrap(apperr.CodeStoreUnavailable, path, err, "sync partition")
	}

	return ev.ID, nil
}

// ReadAll returns every event in a scope partition in file order, with a
// count of corrupt records encountered and skipped.
func (l *Log) ReadAll(scope model.Scope) (ReadReport, error) {
	return l.readFrom(scope, 0)
}

// ReadSince returns events after the cursor position. The cursor counts
// valid records, so corrupt lines never shift it.
func (l *Log) ReadSince(cur Cursor) (ReadReport, error) {
	return l.readFrom(cur.Scope, cur.After)
}

// ReadBoth reads both partitions and merges them in deterministic replay
// order (timestamp, then id).
func (l *Log) ReadBoth() (ReadReport, error) {
	local, err := l.ReadAll(model.ScopeLocal)
	if err != nil {
		return ReadReport{}, err
	}
	shared, err := l.ReadAll(model.ScopeShared)
	if err != nil {
		return ReadReport{}, err
	}

	merged := append(local.Events, shared.Events...)
	SortForReplay(merged)
	return ReadReport{
		Events:  merged,
		Corrupt: local.Corrupt + shared.Corrupt,
	}, nil
}

func (l *Log) readFrom(scope model.Scope, after int) (ReadReport, error) {
	path := l.Path(scope)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return ReadReport{Events: []model.Event{}}, nil
		}
		return ReadReport{}, apperr.Wrap(apperr.CodeStoreUnavailable, path, err, "open partition")
	}
	defer f.Close()

	report := ReadReport{Events: []model.Event{}}
	valid := 0

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var ev model.Event
		if err := json.Unmarshal([]byte(line), &ev); err != nil {
			report.Corrupt++
			continue
		}
		if err := ev.Validate(); err != nil {
			report.Corrupt++
			continue
		}

		valid++
		if valid <= after {
			continue
		}
		report.Events = append(report.Events, ev)
	}
	if err := scanner.Err(); err != nil {
		return ReadReport{}, apperr.Wrap(apperr.CodeStoreUnavailable, path, err, "scan partition")
	}

	return report, nil
}

// SortForReplay orders events deterministically: timestamp first, event
// id lexical on ties. Replaying the same set on any machine yields the
// same order.
func SortForReplay(events []model.Event) {
	// Insertion sort keeps the common already-ordered case cheap and the
	// ordering stable.
	for i := 1; i < len(events); i++ {
		j := i
		for j > 0 && model.Less(events[j], events[j-1]) {
			events[j], events[j-1] = events[j-1], events[j]
			j--
		}
	}
}

// IDSet returns the set of event ids present in a scope partition.
// The scope merger uses this to compute which shared events are new.
func (l *Log) IDSet(scope model.Scope) (map[string]struct{}, error) {
	report, err := l.ReadAll(scope)
	if err != nil {
		return nil, err
	}
	ids := make(map[string]struct{}, len(report.Events))
	for _, ev := range report.Events {
		ids[ev.ID] = struct{}{}
	}
	return ids, nil
}
