// Package memory is an in-process repository.Store.
//
// Seat exclusion is a lock per (showtime id, seat number) held until the
// enclosing transaction ends. Writes made inside a transaction are staged and
// applied together at commit under one mutex, after every staged check has
// passed, so a failed transaction leaves no trace. Reads observe committed
// state only.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/qs-lzh/movie-booking/internal/model"
	"github.com/qs-lzh/movie-booking/internal/repository"
)

type seatKey struct {
	showtimeID uint
	number     string
}

// op is one staged write. check runs for every op before any apply runs.
type op struct {
	check func(s *Store) error
	apply func(s *Store)
}

type txn struct {
	ops  []op
	held map[seatKey]chan struct{}
}

type Store struct {
	mu           sync.RWMutex
	movies       map[uint]model.Movie
	showtimes    map[uint]model.Showtime
	seats        map[uint]model.Seat
	seatIndex    map[seatKey]uint
	reservations map[uint]model.Reservation
	links        map[uint][]uint // reservation id -> seat ids
	users        map[uint]model.User

	seqMu sync.Mutex
	seq   map[string]uint

	locksMu sync.Mutex
	locks   map[seatKey]chan struct{}

	lockTimeout time.Duration
}

var _ repository.Store = (*Store)(nil)

// New returns an empty store. A positive lockTimeout bounds every seat lock
// wait; zero waits until the holder finishes or ctx is done.
func New(lockTimeout time.Duration) *Store {
	return &Store{
		movies:       make(map[uint]model.Movie),
		showtimes:    make(map[uint]model.Showtime),
		seats:        make(map[uint]model.Seat),
		seatIndex:    make(map[seatKey]uint),
		reservations: make(map[uint]model.Reservation),
		links:        make(map[uint][]uint),
		users:        make(map[uint]model.User),
		seq:          make(map[string]uint),
		locks:        make(map[seatKey]chan struct{}),
		lockTimeout:  lockTimeout,
	}
}

func (s *Store) Repos() repository.Repos {
	return s.reposFor(nil)
}

func (s *Store) WithinTx(ctx context.Context, fn func(repos repository.Repos) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tx := &txn{held: make(map[seatKey]chan struct{})}
	defer s.release(tx)

	if err := fn(s.reposFor(tx)); err != nil {
		return err
	}
	return s.commit(tx.ops)
}

func (s *Store) reposFor(tx *txn) repository.Repos {
	sess := &session{s: s, tx: tx}
	return repository.Repos{
		Movies:       &movieRepo{sess},
		Showtimes:    &showtimeRepo{sess},
		Seats:        &seatRepo{sess},
		Reservations: &reservationRepo{sess},
		Users:        &userRepo{sess},
	}
}

func (s *Store) commit(ops []op) error {
	if len(ops) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range ops {
		if o.check == nil {
			continue
		}
		if err := o.check(s); err != nil {
			return err
		}
	}
	for _, o := range ops {
		o.apply(s)
	}
	return nil
}

func (s *Store) nextID(table string) uint {
	s.seqMu.Lock()
	defer s.seqMu.Unlock()
	s.seq[table]++
	return s.seq[table]
}

func (s *Store) seatLock(key seatKey) chan struct{} {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	ch, ok := s.locks[key]
	if !ok {
		ch = make(chan struct{}, 1)
		s.locks[key] = ch
	}
	return ch
}

// acquire blocks until the seat lock is free, ctx is done, or the lock
// timeout elapses.
func (s *Store) acquire(ctx context.Context, tx *txn, key seatKey) error {
	if _, ok := tx.held[key]; ok {
		return nil
	}
	if s.lockTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.lockTimeout)
		defer cancel()
	}
	ch := s.seatLock(key)
	select {
	case ch <- struct{}{}:
		tx.held[key] = ch
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: seat %s: %v", repository.ErrLockTimeout, key.number, ctx.Err())
	}
}

func (s *Store) release(tx *txn) {
	for key, ch := range tx.held {
		<-ch
		delete(tx.held, key)
	}
}

// hydrate fills the associations a gorm preload would. Callers hold s.mu.
func (s *Store) hydrate(r model.Reservation) model.Reservation {
	r.User = s.users[r.UserID]
	r.Showtime = s.showtimeWithMovie(r.ShowtimeID)
	seatIDs := s.links[r.ID]
	r.Seats = make([]model.Seat, 0, len(seatIDs))
	for _, id := range seatIDs {
		if seat, ok := s.seats[id]; ok {
			r.Seats = append(r.Seats, seat)
		}
	}
	sort.Slice(r.Seats, func(i, j int) bool { return r.Seats[i].ID < r.Seats[j].ID })
	return r
}

func (s *Store) showtimeWithMovie(id uint) model.Showtime {
	st := s.showtimes[id]
	st.Movie = s.movies[st.MovieID]
	return st
}

// session binds repositories to an optional transaction. Without one every
// write commits immediately.
type session struct {
	s  *Store
	tx *txn
}

func (sess *session) exec(ops ...op) error {
	if sess.tx != nil {
		sess.tx.ops = append(sess.tx.ops, ops...)
		return nil
	}
	return sess.s.commit(ops)
}
