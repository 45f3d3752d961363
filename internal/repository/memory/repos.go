package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/qs-lzh/movie-booking/internal/model"
	"github.com/qs-lzh/movie-booking/internal/repository"
)

type movieRepo struct{ *session }

var _ repository.MovieRepo = (*movieRepo)(nil)

func (r *movieRepo) Create(ctx context.Context, movie *model.Movie) error {
	movie.ID = r.s.nextID("movies")
	row := *movie
	return r.exec(op{apply: func(s *Store) { s.movies[row.ID] = row }})
}

func (r *movieRepo) Update(ctx context.Context, movie *model.Movie) error {
	if _, err := r.GetByID(ctx, movie.ID); err != nil {
		return err
	}
	row := *movie
	return r.exec(op{apply: func(s *Store) { s.movies[row.ID] = row }})
}

func (r *movieRepo) Delete(ctx context.Context, id uint) error {
	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	return r.exec(op{apply: func(s *Store) { delete(s.movies, id) }})
}

func (r *movieRepo) GetByID(ctx context.Context, id uint) (*model.Movie, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	movie, ok := r.s.movies[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &movie, nil
}

func (r *movieRepo) ListAll(ctx context.Context) ([]model.Movie, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	movies := make([]model.Movie, 0, len(r.s.movies))
	for _, m := range r.s.movies {
		movies = append(movies, m)
	}
	sort.Slice(movies, func(i, j int) bool { return movies[i].ID < movies[j].ID })
	return movies, nil
}

type showtimeRepo struct{ *session }

var _ repository.ShowtimeRepo = (*showtimeRepo)(nil)

func (r *showtimeRepo) Create(ctx context.Context, showtime *model.Showtime) error {
	showtime.ID = r.s.nextID("showtimes")
	row := *showtime
	row.Movie = model.Movie{}
	return r.exec(op{apply: func(s *Store) { s.showtimes[row.ID] = row }})
}

func (r *showtimeRepo) Update(ctx context.Context, showtime *model.Showtime) error {
	if _, err := r.GetByID(ctx, showtime.ID); err != nil {
		return err
	}
	row := *showtime
	row.Movie = model.Movie{}
	return r.exec(op{apply: func(s *Store) { s.showtimes[row.ID] = row }})
}

func (r *showtimeRepo) Delete(ctx context.Context, id uint) error {
	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	return r.exec(op{apply: func(s *Store) { delete(s.showtimes, id) }})
}

func (r *showtimeRepo) GetByID(ctx context.Context, id uint) (*model.Showtime, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if _, ok := r.s.showtimes[id]; !ok {
		return nil, repository.ErrNotFound
	}
	showtime := r.s.showtimeWithMovie(id)
	return &showtime, nil
}

func (r *showtimeRepo) list(keep func(model.Showtime) bool) []model.Showtime {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	showtimes := make([]model.Showtime, 0)
	for id, st := range r.s.showtimes {
		if keep(st) {
			showtimes = append(showtimes, r.s.showtimeWithMovie(id))
		}
	}
	sort.Slice(showtimes, func(i, j int) bool {
		if !showtimes[i].StartAt.Equal(showtimes[j].StartAt) {
			return showtimes[i].StartAt.Before(showtimes[j].StartAt)
		}
		return showtimes[i].ID < showtimes[j].ID
	})
	return showtimes
}

func (r *showtimeRepo) ListByMovieID(ctx context.Context, movieID uint) ([]model.Showtime, error) {
	return r.list(func(st model.Showtime) bool { return st.MovieID == movieID }), nil
}

func (r *showtimeRepo) ListByMovieIDBetween(ctx context.Context, movieID uint, from, to time.Time) ([]model.Showtime, error) {
	return r.list(func(st model.Showtime) bool {
		return st.MovieID == movieID && !st.StartAt.Before(from) && st.StartAt.Before(to)
	}), nil
}

func (r *showtimeRepo) ListStartingAfter(ctx context.Context, t time.Time) ([]model.Showtime, error) {
	return r.list(func(st model.Showtime) bool { return st.StartAt.After(t) }), nil
}

func (r *showtimeRepo) ListAll(ctx context.Context) ([]model.Showtime, error) {
	return r.list(func(model.Showtime) bool { return true }), nil
}

type seatRepo struct{ *session }

var _ repository.SeatRepo = (*seatRepo)(nil)

func (r *seatRepo) CreateBulk(ctx context.Context, seats []model.Seat) error {
	if len(seats) == 0 {
		return nil
	}
	for i := range seats {
		seats[i].ID = r.s.nextID("seats")
	}
	rows := append([]model.Seat(nil), seats...)
	// uniqueness is not checked here: a regeneration stages the delete of
	// the old rows in the same transaction, and checks run before applies.
	return r.exec(op{
		apply: func(s *Store) {
			for _, seat := range rows {
				s.seats[seat.ID] = seat
				s.seatIndex[seatKey{seat.ShowtimeID, seat.SeatNumber}] = seat.ID
			}
		},
	})
}

func (r *seatRepo) DeleteByShowtimeID(ctx context.Context, showtimeID uint) error {
	return r.exec(op{apply: func(s *Store) {
		removed := make(map[uint]bool)
		for id, seat := range s.seats {
			if seat.ShowtimeID == showtimeID {
				removed[id] = true
				delete(s.seats, id)
				delete(s.seatIndex, seatKey{seat.ShowtimeID, seat.SeatNumber})
			}
		}
		for resID, seatIDs := range s.links {
			kept := seatIDs[:0:0]
			for _, id := range seatIDs {
				if !removed[id] {
					kept = append(kept, id)
				}
			}
			s.links[resID] = kept
		}
	}})
}

func (r *seatRepo) ListByShowtimeID(ctx context.Context, showtimeID uint) ([]model.Seat, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	seats := make([]model.Seat, 0)
	for _, seat := range r.s.seats {
		if seat.ShowtimeID == showtimeID {
			seats = append(seats, seat)
		}
	}
	sort.Slice(seats, func(i, j int) bool { return seats[i].ID < seats[j].ID })
	return seats, nil
}

func (r *seatRepo) CountBooked(ctx context.Context, showtimeIDs []uint) (map[uint]int, error) {
	wanted := make(map[uint]bool, len(showtimeIDs))
	for _, id := range showtimeIDs {
		wanted[id] = true
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	counts := make(map[uint]int, len(showtimeIDs))
	for _, seat := range r.s.seats {
		if seat.Booked && wanted[seat.ShowtimeID] {
			counts[seat.ShowtimeID]++
		}
	}
	return counts, nil
}

// LockByNumbers takes the seat locks in seat-number order, so overlapping
// requests never wait on each other in a cycle, then reads the rows.
func (r *seatRepo) LockByNumbers(ctx context.Context, showtimeID uint, numbers []string) ([]model.Seat, error) {
	keys := r.existingKeys(showtimeID, numbers)
	if r.tx != nil {
		for _, key := range keys {
			if err := r.s.acquire(ctx, r.tx, key); err != nil {
				return nil, err
			}
		}
	}

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	seats := make([]model.Seat, 0, len(keys))
	for _, key := range keys {
		if id, ok := r.s.seatIndex[key]; ok {
			seats = append(seats, r.s.seats[id])
		}
	}
	sort.Slice(seats, func(i, j int) bool { return seats[i].ID < seats[j].ID })
	return seats, nil
}

func (r *seatRepo) existingKeys(showtimeID uint, numbers []string) []seatKey {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	seen := make(map[string]bool, len(numbers))
	keys := make([]seatKey, 0, len(numbers))
	for _, n := range numbers {
		key := seatKey{showtimeID, n}
		if _, ok := r.s.seatIndex[key]; ok && !seen[n] {
			seen[n] = true
			keys = append(keys, key)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].number < keys[j].number })
	return keys
}

func (r *seatRepo) SetBooked(ctx context.Context, seats []model.Seat, booked bool) error {
	type expected struct {
		id      uint
		number  string
		version uint
	}
	want := make([]expected, 0, len(seats))
	for _, seat := range seats {
		want = append(want, expected{seat.ID, seat.SeatNumber, seat.Version})
	}
	err := r.exec(op{
		check: func(s *Store) error {
			for _, w := range want {
				cur, ok := s.seats[w.id]
				if !ok || cur.Version != w.version {
					return fmt.Errorf("%w: seat %s", repository.ErrStaleSeat, w.number)
				}
			}
			return nil
		},
		apply: func(s *Store) {
			for _, w := range want {
				cur := s.seats[w.id]
				cur.Booked = booked
				cur.Version++
				s.seats[w.id] = cur
			}
		},
	})
	if err != nil {
		return err
	}
	for i := range seats {
		seats[i].Booked = booked
		seats[i].Version++
	}
	return nil
}

type reservationRepo struct{ *session }

var _ repository.ReservationRepo = (*reservationRepo)(nil)

func (r *reservationRepo) Create(ctx context.Context, reservation *model.Reservation, seatIDs []uint) error {
	reservation.ID = r.s.nextID("reservations")
	row := *reservation
	row.User = model.User{}
	row.Showtime = model.Showtime{}
	row.Seats = nil
	ids := append([]uint(nil), seatIDs...)
	return r.exec(op{apply: func(s *Store) {
		s.reservations[row.ID] = row
		s.links[row.ID] = ids
	}})
}

func (r *reservationRepo) GetByID(ctx context.Context, id uint) (*model.Reservation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	row, ok := r.s.reservations[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	reservation := r.s.hydrate(row)
	return &reservation, nil
}

func (r *reservationRepo) GetByIDAndUserID(ctx context.Context, id, userID uint) (*model.Reservation, error) {
	reservation, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if reservation.UserID != userID {
		return nil, repository.ErrNotFound
	}
	return reservation, nil
}

func (r *reservationRepo) list(keep func(s *Store, row model.Reservation) bool) []model.Reservation {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	reservations := make([]model.Reservation, 0)
	for _, row := range r.s.reservations {
		if keep(r.s, row) {
			reservations = append(reservations, r.s.hydrate(row))
		}
	}
	return reservations
}

func newestFirst(reservations []model.Reservation) {
	sort.Slice(reservations, func(i, j int) bool {
		if !reservations[i].ReservedAt.Equal(reservations[j].ReservedAt) {
			return reservations[i].ReservedAt.After(reservations[j].ReservedAt)
		}
		return reservations[i].ID > reservations[j].ID
	})
}

func (r *reservationRepo) ListActiveByUserID(ctx context.Context, userID uint) ([]model.Reservation, error) {
	reservations := r.list(func(_ *Store, row model.Reservation) bool {
		return row.UserID == userID && !row.Cancelled
	})
	newestFirst(reservations)
	return reservations, nil
}

func (r *reservationRepo) ListUpcomingByUserID(ctx context.Context, userID uint, now time.Time) ([]model.Reservation, error) {
	reservations := r.list(func(s *Store, row model.Reservation) bool {
		return row.UserID == userID && !row.Cancelled && s.showtimes[row.ShowtimeID].StartAt.After(now)
	})
	sort.Slice(reservations, func(i, j int) bool {
		a, b := reservations[i].Showtime.StartAt, reservations[j].Showtime.StartAt
		if !a.Equal(b) {
			return a.Before(b)
		}
		return reservations[i].ID < reservations[j].ID
	})
	return reservations, nil
}

func (r *reservationRepo) ListActive(ctx context.Context) ([]model.Reservation, error) {
	reservations := r.list(func(_ *Store, row model.Reservation) bool { return !row.Cancelled })
	newestFirst(reservations)
	return reservations, nil
}

func (r *reservationRepo) MarkCancelled(ctx context.Context, id uint) error {
	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	return r.exec(op{
		check: func(s *Store) error {
			row, ok := s.reservations[id]
			if !ok {
				return repository.ErrNotFound
			}
			if row.Cancelled {
				return repository.ErrAlreadyCancelled
			}
			return nil
		},
		apply: func(s *Store) {
			row := s.reservations[id]
			row.Cancelled = true
			s.reservations[id] = row
		},
	})
}

func (r *reservationRepo) DeleteByShowtimeID(ctx context.Context, showtimeID uint) error {
	return r.exec(op{apply: func(s *Store) {
		for id, row := range s.reservations {
			if row.ShowtimeID == showtimeID {
				delete(s.reservations, id)
				delete(s.links, id)
			}
		}
	}})
}

type userRepo struct{ *session }

var _ repository.UserRepo = (*userRepo)(nil)

func (r *userRepo) Create(ctx context.Context, user *model.User) error {
	if _, err := r.GetByEmail(ctx, user.Email); err == nil {
		return fmt.Errorf("%w: email %s", repository.ErrDuplicate, user.Email)
	}
	user.ID = r.s.nextID("users")
	row := *user
	return r.exec(op{
		check: func(s *Store) error {
			for _, u := range s.users {
				if u.Email == row.Email {
					return fmt.Errorf("%w: email %s", repository.ErrDuplicate, row.Email)
				}
			}
			return nil
		},
		apply: func(s *Store) { s.users[row.ID] = row },
	})
}

func (r *userRepo) GetByID(ctx context.Context, id uint) (*model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	user, ok := r.s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &user, nil
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, user := range r.s.users {
		if user.Email == email {
			return &user, nil
		}
	}
	return nil, repository.ErrNotFound
}
