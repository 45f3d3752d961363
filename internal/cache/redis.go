package cache

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/qs-lzh/movie-booking/internal/service/domain"
)

// RedisCache keeps projected seat maps. It is a read cache only: the
// database stays the single source of truth for seat state.
type RedisCache struct {
	Client *redis.Client
	ttl    time.Duration
}

var _ domain.SeatCache = (*RedisCache)(nil)

// NewRedisCache accepts either a redis:// URL or a bare host:port address.
func NewRedisCache(ctx context.Context, url string, ttl time.Duration) (*RedisCache, error) {
	opts := &redis.Options{
		Addr:     url,
		Password: "",
		DB:       0,
	}
	if strings.Contains(url, "://") {
		parsed, err := redis.ParseURL(url)
		if err != nil {
			return nil, err
		}
		opts = parsed
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RedisCache{Client: client, ttl: ttl}, nil
}

// GetSeats reads the seat map and the invalidation generation atomically.
func (r *RedisCache) GetSeats(ctx context.Context, showtimeID uint) ([]domain.SeatView, int64, bool, error) {
	keys := []string{MakeShowtimeSeatsKey(showtimeID), MakeShowtimeSeatsGenKey(showtimeID)}
	res, err := loadSeatsScript.Run(ctx, r.Client, keys).Slice()
	if err != nil {
		return nil, 0, false, err
	}
	if len(res) != 2 {
		return nil, 0, false, fmt.Errorf("unexpected seat map reply of length %d", len(res))
	}
	gen, ok := res[0].(int64)
	if !ok {
		return nil, 0, false, fmt.Errorf("unexpected seat map generation %v", res[0])
	}
	fields, _ := res[1].([]any)
	if len(fields) == 0 {
		return nil, gen, false, nil
	}

	seats := make([]domain.SeatView, 0, len(fields)/2)
	for i := 0; i+1 < len(fields); i += 2 {
		number, _ := fields[i].(string)
		value, _ := fields[i+1].(string)
		seat, err := decodeSeat(number, value)
		if err != nil {
			return nil, 0, false, err
		}
		seats = append(seats, seat)
	}
	domain.SortSeatViews(seats)
	return seats, gen, true, nil
}

// SetSeats stores the map unless the showtime was invalidated after gen was
// read.
func (r *RedisCache) SetSeats(ctx context.Context, showtimeID uint, gen int64, seats []domain.SeatView) error {
	if len(seats) == 0 {
		return nil
	}
	args := make([]any, 0, 2+len(seats)*2)
	args = append(args, r.ttl.Milliseconds(), gen)
	for _, seat := range seats {
		args = append(args, seat.SeatNumber, encodeSeat(seat))
	}
	keys := []string{MakeShowtimeSeatsKey(showtimeID), MakeShowtimeSeatsGenKey(showtimeID)}
	return storeSeatsScript.Run(ctx, r.Client, keys, args...).Err()
}

func (r *RedisCache) Invalidate(ctx context.Context, showtimeIDs ...uint) error {
	if len(showtimeIDs) == 0 {
		return nil
	}
	keys := make([]string, 0, 2*len(showtimeIDs))
	for _, id := range showtimeIDs {
		keys = append(keys, MakeShowtimeSeatsKey(id), MakeShowtimeSeatsGenKey(id))
	}
	return invalidateSeatsScript.Run(ctx, r.Client, keys).Err()
}

func (r *RedisCache) Close() error {
	return r.Client.Close()
}

func encodeSeat(seat domain.SeatView) string {
	booked := "0"
	if seat.Booked {
		booked = "1"
	}
	return strconv.FormatUint(uint64(seat.ID), 10) + ":" + booked
}

func decodeSeat(number, value string) (domain.SeatView, error) {
	idPart, bookedPart, ok := strings.Cut(value, ":")
	if !ok {
		return domain.SeatView{}, fmt.Errorf("malformed cached seat %s: %q", number, value)
	}
	id, err := strconv.ParseUint(idPart, 10, 64)
	if err != nil {
		return domain.SeatView{}, fmt.Errorf("malformed cached seat %s: %w", number, err)
	}
	return domain.SeatView{
		ID:         uint(id),
		SeatNumber: number,
		Booked:     bookedPart == "1",
	}, nil
}
