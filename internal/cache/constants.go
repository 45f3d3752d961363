package cache

import (
	"fmt"

	redis "github.com/redis/go-redis/v9"
)

// key names definition
const (
	ShowtimeSeatsKey    = "showtime:%d:seats"     // hash of a showtime's seat map, '%d' is showtime id; field seat number, value "{seat id}:{0|1}"
	ShowtimeSeatsGenKey = "showtime:%d:seats:gen" // counter bumped on every invalidation, never expires
)

func MakeShowtimeSeatsKey(showtimeID uint) string {
	return fmt.Sprintf(ShowtimeSeatsKey, showtimeID)
}

func MakeShowtimeSeatsGenKey(showtimeID uint) string {
	return fmt.Sprintf(ShowtimeSeatsGenKey, showtimeID)
}

// lua scripts
var loadSeatsScript = redis.NewScript(`
	-- KEYS[1] = showtime:{showtime_id}:seats
	-- KEYS[2] = showtime:{showtime_id}:seats:gen

	local gen = tonumber(redis.call("GET", KEYS[2]) or "0")
	return {gen, redis.call("HGETALL", KEYS[1])}
`)

var storeSeatsScript = redis.NewScript(`
	-- KEYS[1] = showtime:{showtime_id}:seats
	-- KEYS[2] = showtime:{showtime_id}:seats:gen

	-- ARGV[1] = ttl in milliseconds, 0 keeps the key forever
	-- ARGV[2] = generation the seats were loaded under
	-- ARGV[3..] = seat_number value seat_number value ...

	local gen = tonumber(redis.call("GET", KEYS[2]) or "0")
	if gen ~= tonumber(ARGV[2]) then
		return -1
	end

	redis.call("DEL", KEYS[1])
	for i = 3, #ARGV, 2 do
		redis.call("HSET", KEYS[1], ARGV[i], ARGV[i + 1])
	end

	local ttl = tonumber(ARGV[1])
	if ttl > 0 then
		redis.call("PEXPIRE", KEYS[1], ttl)
	end

	return (#ARGV - 2) / 2
`)

var invalidateSeatsScript = redis.NewScript(`
	-- KEYS = seats key, gen key, seats key, gen key, ...

	for i = 1, #KEYS, 2 do
		redis.call("DEL", KEYS[i])
		redis.call("INCR", KEYS[i + 1])
	end
	return #KEYS / 2
`)
