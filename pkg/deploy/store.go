// Package deploy persists the keypairs of deployed accounts so repeated
// deployments reuse them.
//
// The store is a JSON-lines log. Ensure appends one record per new key and
// Save rewrites the log as a compact snapshot through a temp file and rename.
// A torn final line, left by a crash mid-append, is dropped when the store is
// opened or before the next append. A legacy store, one JSON object mapping
// keys to their secret and pubkey, is converted to record lines on open.
package deploy

import (
	"bufio"
	"bytes"
	"context"
	"crypto/ed25519"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/solray/pkg/lock"
	"github.com/code-payments/solray/pkg/metrics"
	solraysync "github.com/code-payments/solray/pkg/sync"
)

const (
	metricsStructName = "deploy.store"

	defaultStripes = 64
	lockPrefix     = "deploy"
)

var (
	ErrCorruptRecord = errors.New("corrupt deploy record")
	ErrCorruptStore  = errors.New("corrupt deploy store")
	ErrNoAccount     = errors.New("generator returned no account")
	ErrClosed        = errors.New("deploy store is closed")
)

// Generator produces the account for a key that has no record yet.
type Generator func(ctx context.Context) (ed25519.PrivateKey, error)

type Option func(*Store)

// WithLockManager serialises Ensure across processes sharing the store file.
func WithLockManager(m lock.Manager) Option {
	return func(s *Store) {
		s.locker = m
	}
}

// WithStripes sets the number of in-process key locks.
func WithStripes(n uint) Option {
	return func(s *Store) {
		s.keyLocks = solraysync.NewStripedLock(n)
	}
}

// Store is a deployment record store backed by a single file.
type Store struct {
	log  *logrus.Entry
	path string

	keyLocks *solraysync.StripedLock
	locker   lock.Manager

	mu      sync.RWMutex
	records map[string]*Record
	order   []string
	closed  bool

	// writeMu serialises appends with snapshot rewrites.
	writeMu sync.Mutex
}

// Open loads the store at path. A missing file yields an empty store; the
// file is created on the first write.
func Open(path string, opts ...Option) (*Store, error) {
	s := &Store{
		log:      logrus.StandardLogger().WithFields(logrus.Fields{"type": "deploy/store", "path": path}),
		path:     path,
		keyLocks: solraysync.NewStripedLock(defaultStripes),
		records:  make(map[string]*Record),
	}
	for _, o := range opts {
		o(s)
	}

	torn, legacy, err := s.load()
	if err != nil {
		return nil, err
	}
	if torn || legacy {
		if torn {
			s.log.Warn("dropping torn record at end of store")
		} else {
			s.log.Info("converting legacy store to records")
		}
		if err := s.Save(); err != nil {
			return nil, errors.Wrap(err, "failed to compact store")
		}
	}

	return s, nil
}

// Ensure returns the account recorded under key. Without a record, gen runs
// once, its account is persisted, and then returned.
func (s *Store) Ensure(ctx context.Context, key string, gen Generator) (account ed25519.PrivateKey, err error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "Ensure")
	tracer.AddAttribute("key", key)
	defer func() {
		tracer.OnError(err)
		tracer.End()
	}()

	if key == "" {
		return nil, errors.New("key is required")
	}
	if account, ok, err := s.lookup(key); ok || err != nil {
		return account, err
	}

	unlock := s.keyLocks.Lock(key)
	defer unlock()

	if account, ok, err := s.lookup(key); ok || err != nil {
		return account, err
	}

	ensure := func(ctx context.Context) error {
		if s.locker != nil {
			// Another process may have written the record while we waited.
			torn, legacy, err := s.load()
			if err != nil {
				return err
			}
			if torn {
				s.log.Warn("store has a torn record, it is dropped on append")
			}
			if legacy {
				if err := s.Save(); err != nil {
					return errors.Wrap(err, "failed to compact store")
				}
			}
			if existing, ok, err := s.lookup(key); ok || err != nil {
				account = existing
				return err
			}
		}

		generated, err := gen(ctx)
		if err != nil {
			return errors.Wrapf(err, "failed to generate account for %s", key)
		}
		if len(generated) != ed25519.PrivateKeySize {
			return ErrNoAccount
		}

		r := newRecord(key, generated)
		if err := s.append(r); err != nil {
			return err
		}
		s.put(r)

		s.log.WithFields(logrus.Fields{"key": key, "pubkey": r.PublicKey}).Info("recorded new account")
		metrics.RecordEvent(ctx, "DeployAccountRecorded", map[string]interface{}{
			"key":    key,
			"pubkey": r.PublicKey,
		})
		account = generated
		return nil
	}

	if s.locker == nil {
		err = ensure(ctx)
	} else {
		err = lock.WithLock(ctx, s.locker, lockPrefix+"/"+key, ensure)
	}
	if err != nil {
		return nil, err
	}
	return account, nil
}

// Account returns the keypair recorded under key.
func (s *Store) Account(key string) (ed25519.PrivateKey, bool) {
	account, ok, err := s.lookup(key)
	if err != nil || !ok {
		return nil, false
	}
	return account, true
}

// Record returns a copy of the record stored under key.
func (s *Store) Record(key string) (Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.records[key]
	if !ok {
		return Record{}, false
	}
	return *r, true
}

// Keys returns the recorded keys in sorted order.
func (s *Store) Keys() []string {
	s.mu.RLock()
	keys := append([]string(nil), s.order...)
	s.mu.RUnlock()

	sort.Strings(keys)
	return keys
}

// Save rewrites the store file as a snapshot of every record, replacing it
// atomically.
func (s *Store) Save() error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return ErrClosed
	}
	var buf bytes.Buffer
	for _, key := range s.order {
		line, err := s.records[key].marshalLine()
		if err != nil {
			s.mu.RUnlock()
			return err
		}
		buf.Write(line)
	}
	s.mu.RUnlock()

	return writeFileAtomic(s.path, buf.Bytes())
}

// Close rejects further writes. Records already written stay on disk.
func (s *Store) Close() error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	return nil
}

func (s *Store) lookup(key string) (ed25519.PrivateKey, bool, error) {
	s.mu.RLock()
	r, ok := s.records[key]
	s.mu.RUnlock()

	if !ok {
		return nil, false, nil
	}

	account, err := r.Account()
	if err != nil {
		return nil, false, err
	}
	return account, true, nil
}

// put adds r unless key is already recorded; the first record for a key wins.
func (s *Store) put(r *Record) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[r.Key]; ok {
		return false
	}
	s.records[r.Key] = r
	s.order = append(s.order, r.Key)
	return true
}

func (s *Store) append(r *Record) error {
	line, err := r.marshalLine()
	if err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.RLock()
	closed := s.closed
	s.mu.RUnlock()
	if closed {
		return ErrClosed
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return errors.Wrap(err, "failed to create store directory")
	}

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return errors.Wrap(err, "failed to open store")
	}

	trimmed, err := trimTornTail(f)
	if err != nil {
		f.Close()
		return err
	}
	if trimmed {
		s.log.Warn("dropped torn record before append")
	}

	if _, err := f.Write(line); err != nil {
		f.Close()
		return errors.Wrap(err, "failed to append record")
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return errors.Wrap(err, "failed to sync store")
	}
	return f.Close()
}

// load merges the records on disk into memory. torn reports that the last
// line was torn and legacy that the file holds a single keyed JSON object
// rather than record lines.
func (s *Store) load() (torn, legacy bool, err error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return false, false, nil
	} else if err != nil {
		return false, false, errors.Wrap(err, "failed to read store")
	}

	records, legacy, err := readLegacyRecords(data)
	if err != nil {
		return false, false, err
	}
	if !legacy {
		records, torn, err = readRecords(bytes.NewReader(data))
		if err != nil {
			return false, false, err
		}
	}

	for _, r := range records {
		s.put(r)
	}
	return torn, legacy, nil
}

func readRecords(r io.Reader) (records []*Record, torn bool, err error) {
	reader := bufio.NewReader(r)
	for lineNum := 1; ; lineNum++ {
		line, err := reader.ReadBytes('\n')
		if err != nil && err != io.EOF {
			return nil, false, errors.Wrap(err, "failed to read store")
		}
		complete := err == nil

		if len(bytes.TrimSpace(line)) > 0 {
			var rec Record
			decodeErr := json.Unmarshal(line, &rec)
			if decodeErr == nil {
				decodeErr = rec.validate()
			}

			switch {
			case decodeErr == nil && complete:
				records = append(records, &rec)
			case !complete:
				// An unterminated final line is an interrupted append, even
				// when it happens to parse.
				return records, true, nil
			default:
				return nil, false, errors.Wrapf(ErrCorruptStore, "line %d: %v", lineNum, decodeErr)
			}
		}

		if !complete {
			return records, false, nil
		}
	}
}

// trimTornTail truncates f after its last newline when the final line is
// unterminated, so the next append starts on a fresh line.
func trimTornTail(f *os.File) (bool, error) {
	info, err := f.Stat()
	if err != nil {
		return false, errors.Wrap(err, "failed to stat store")
	}
	size := info.Size()
	if size == 0 {
		return false, nil
	}

	last := make([]byte, 1)
	if _, err := f.ReadAt(last, size-1); err != nil {
		return false, errors.Wrap(err, "failed to read store tail")
	}
	if last[0] == '\n' {
		return false, nil
	}

	data := make([]byte, size)
	if _, err := f.ReadAt(data, 0); err != nil && err != io.EOF {
		return false, errors.Wrap(err, "failed to read store")
	}
	keep := bytes.LastIndexByte(data, '\n') + 1
	if err := f.Truncate(int64(keep)); err != nil {
		return false, errors.Wrap(err, "failed to trim torn record")
	}
	return true, nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "failed to create store directory")
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return errors.Wrap(err, "failed to create snapshot")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrap(err, "failed to write snapshot")
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return errors.Wrap(err, "failed to sync snapshot")
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return errors.Wrap(err, "failed to set snapshot permissions")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "failed to close snapshot")
	}

	return errors.Wrap(os.Rename(tmp.Name(), path), "failed to replace store")
}
