// Package session gives every shopper session its own storage namespace and
// a shared lock, so a session's cart and orders behave like one browser's
// local storage even when requests for it run concurrently.
package session

import (
	"fmt"
	"log/slog"
	"regexp"
	"sync"

	"github.com/utafrali/ecocart/internal/cart"
	"github.com/utafrali/ecocart/internal/checkout"
	"github.com/utafrali/ecocart/internal/event"
	"github.com/utafrali/ecocart/internal/pricing"
	"github.com/utafrali/ecocart/internal/storage"
	apperrors "github.com/utafrali/ecocart/pkg/errors"
)

var idPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,128}$`)

// ValidID reports whether id can name a session.
func ValidID(id string) bool {
	return idPattern.MatchString(id)
}

// KeyPrefix returns the storage prefix for a session.
func KeyPrefix(id string) string {
	return "session:" + id + ":"
}

// Session is the per-shopper view of the stores.
type Session struct {
	ID     string
	Cart   *cart.Store
	Orders *checkout.OrderBook
}

// Manager hands out sessions over one shared backend.
type Manager struct {
	storage storage.Storage
	calc    *pricing.Calculator
	events  event.Publisher
	logger  *slog.Logger

	mu    sync.Mutex
	locks map[string]*refLock
}

type refLock struct {
	mu   sync.Mutex
	refs int
}

// NewManager creates a session manager.
func NewManager(s storage.Storage, calc *pricing.Calculator, events event.Publisher, logger *slog.Logger) *Manager {
	return &Manager{
		storage: s,
		calc:    calc,
		events:  events,
		logger:  logger,
		locks:   make(map[string]*refLock),
	}
}

// Session returns the stores for id. Sessions are cheap; every call for the
// same id shares the same lock.
func (m *Manager) Session(id string) (Session, error) {
	if !ValidID(id) {
		return Session{}, apperrors.InvalidInput(fmt.Sprintf("invalid session id %q", id))
	}
	scoped := storage.WithPrefix(m.storage, KeyPrefix(id))
	logger := m.logger.With(slog.String("session_id", id))

	return Session{
		ID: id,
		Cart: cart.NewStore(scoped, m.calc, m.events, logger,
			cart.WithScope(id),
			cart.WithLocker(&sessionLocker{m: m, id: id}),
		),
		Orders: checkout.NewOrderBook(scoped, logger),
	}, nil
}

// Active returns how many sessions currently hold or wait on their lock.
func (m *Manager) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.locks)
}

// sessionLocker is a sync.Locker over the manager's lock for one id. Entries
// are dropped once nobody holds or waits on them.
type sessionLocker struct {
	m  *Manager
	id string
}

func (l *sessionLocker) Lock() {
	l.m.mu.Lock()
	rl, ok := l.m.locks[l.id]
	if !ok {
		rl = &refLock{}
		l.m.locks[l.id] = rl
	}
	rl.refs++
	l.m.mu.Unlock()

	rl.mu.Lock()
}

func (l *sessionLocker) Unlock() {
	l.m.mu.Lock()
	rl := l.m.locks[l.id]
	rl.refs--
	if rl.refs == 0 {
		delete(l.m.locks, l.id)
	}
	l.m.mu.Unlock()

	rl.mu.Unlock()
}
