package etcd

import (
	"context"
	"path"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.etcd.io/etcd/api/v3/mvccpb"
	v3 "go.etcd.io/etcd/client/v3"
	"go.etcd.io/etcd/client/v3/concurrency"

	"github.com/code-payments/solray/pkg/lock"
)

const (
	MinTTL = time.Second
	MaxTTL = time.Minute
)

var (
	ErrInvalidTTL    = errors.Errorf("lock ttl must be within [%v, %v]", MinTTL, MaxTTL)
	ErrManagerClosed = errors.New("lock manager is closed")
)

// Manager hands out locks backed by etcd elections. All locks share one
// session; when it expires every held lock is reported lost and a new
// session is created in the background.
type Manager struct {
	log    *logrus.Entry
	client *v3.Client
	root   string
	ttl    int
	owner  string

	closeOnce sync.Once
	closed    chan struct{}

	sessionMu sync.Mutex
	session   *concurrency.Session
}

var _ lock.Manager = (*Manager)(nil)

// NewManager creates a Manager storing locks under root. owner is written as
// the lock value so operators can see who holds a deployment.
func NewManager(client *v3.Client, root string, ttl time.Duration, owner string) (*Manager, error) {
	if ttl < MinTTL || ttl > MaxTTL {
		return nil, ErrInvalidTTL
	}

	m := &Manager{
		log: logrus.StandardLogger().WithFields(logrus.Fields{
			"type": "lock/etcd",
			"root": root,
		}),
		client: client,
		root:   root,
		ttl:    int(ttl.Round(time.Second).Seconds()),
		owner:  owner,
		closed: make(chan struct{}),
	}

	session, err := m.newSession()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create etcd session")
	}
	m.session = session

	go m.renewSessions()

	return m, nil
}

// Create implements lock.Manager.
func (m *Manager) Create(_ context.Context, name string) (lock.DistributedLock, error) {
	m.sessionMu.Lock()
	defer m.sessionMu.Unlock()

	if m.session == nil {
		return nil, ErrManagerClosed
	}

	key := path.Join(m.root, name)
	return &Lock{
		log: m.log.WithField("key", key),
		m:   m,
		key: key,
	}, nil
}

// Close ends the session, releasing every lock it holds.
func (m *Manager) Close() {
	m.closeOnce.Do(func() {
		m.sessionMu.Lock()
		defer m.sessionMu.Unlock()

		close(m.closed)
		if err := m.session.Close(); err != nil {
			m.log.WithError(err).Warn("failed to close etcd session")
		}
		m.session = nil
	})
}

func (m *Manager) newSession() (*concurrency.Session, error) {
	return concurrency.NewSession(
		m.client,
		concurrency.WithTTL(m.ttl),
		concurrency.WithContext(v3.WithRequireLeader(context.Background())),
	)
}

func (m *Manager) currentSession() *concurrency.Session {
	m.sessionMu.Lock()
	defer m.sessionMu.Unlock()
	return m.session
}

// renewSessions replaces the session whenever it ends, until Close.
func (m *Manager) renewSessions() {
	for {
		session := m.currentSession()
		if session == nil {
			return
		}

		select {
		case <-m.closed:
			return
		case <-session.Done():
		}

		m.log.Info("lock session expired, recreating")

		session, err := m.newSession()
		if err != nil {
			m.log.WithError(err).Warn("failed to recreate lock session, retrying in 1s")
			select {
			case <-m.closed:
				return
			case <-time.After(time.Second):
			}
			continue
		}

		m.sessionMu.Lock()
		if m.session == nil {
			m.sessionMu.Unlock()
			_ = session.Close()
			return
		}
		m.session = session
		m.sessionMu.Unlock()
	}
}

// Lock is a named etcd lock.
type Lock struct {
	log *logrus.Entry
	m   *Manager
	key string

	mu       sync.Mutex
	election *concurrency.Election
}

// Acquire implements lock.DistributedLock.
func (l *Lock) Acquire(ctx context.Context) (<-chan struct{}, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.election != nil {
		return nil, errors.New("cannot call Acquire concurrently")
	}

	session := l.m.currentSession()
	if session == nil {
		return nil, ErrManagerClosed
	}

	campaignCtx, cancelCampaign := context.WithCancel(ctx)
	election := concurrency.NewElection(session, l.key)
	if err := election.Campaign(campaignCtx, l.m.owner); err != nil {
		cancelCampaign()
		return nil, errors.Wrap(err, "failed to acquire lock")
	}

	l.log.Debug("lock acquired")
	l.election = election

	watchCh := session.Client().Watch(
		v3.WithRequireLeader(campaignCtx),
		election.Key(),
		v3.WithRev(election.Rev()),
	)

	lost := make(chan struct{})
	go func() {
		defer cancelCampaign()
		defer l.release(election)

		// lost is closed ahead of the resign: resigning blocks while the
		// cluster has no leader.
		defer close(lost)

		l.watch(session, election, watchCh)
	}()

	return lost, nil
}

// watch returns once ownership of election's key can no longer be
// guaranteed.
func (l *Lock) watch(session *concurrency.Session, election *concurrency.Election, watchCh v3.WatchChan) {
	for {
		select {
		case <-session.Done():
			l.log.Warn("session ended, releasing lock")
			return

		case resp, ok := <-watchCh:
			if !ok {
				return
			}
			if err := resp.Err(); err != nil {
				l.log.WithError(err).Warn("failed watching lock key")
				return
			}

			for _, event := range resp.Events {
				switch event.Type {
				case mvccpb.PUT:
					if event.Kv.CreateRevision != election.Rev() {
						l.log.Warn("lock key recreated, releasing lock")
						return
					}
				case mvccpb.DELETE:
					l.log.Trace("lock key removed")
					return
				}
			}
		}
	}
}

func (l *Lock) release(election *concurrency.Election) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.election != election {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(l.m.ttl)*time.Second)
	defer cancel()
	if err := election.Resign(ctx); err != nil {
		l.log.WithError(err).Warn("failed to resign lock")
	}
	l.election = nil
}

// Unlock implements lock.DistributedLock.
func (l *Lock) Unlock(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.election == nil {
		return nil
	}

	err := l.election.Resign(ctx)
	l.election = nil
	return err
}

// IsLocked implements lock.DistributedLock.
func (l *Lock) IsLocked() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.election != nil && l.election.Key() != ""
}
