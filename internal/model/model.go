package model

import (
	"time"
)

type User struct {
	ID             uint     `gorm:"primaryKey"`
	Name           string   `gorm:"size:64;not null"`
	Email          string   `gorm:"size:128;not null;uniqueIndex"`
	HashedPassword string   `gorm:"not null"`
	Role           UserRole `gorm:"type:varchar(16);not null"`
}

type UserRole string

const (
	RoleUser  UserRole = "user"
	RoleAdmin UserRole = "admin"
)

type Movie struct {
	ID          uint   `gorm:"primaryKey"`
	Title       string `gorm:"size:200;not null;index"`
	Description string `gorm:"type:text"`
	Genre       string `gorm:"size:50"`
	PosterURL   string `gorm:"size:500"`
}

// Showtime owns its seats: deleting a showtime deletes them.
type Showtime struct {
	ID         uint      `gorm:"primaryKey"`
	MovieID    uint      `gorm:"not null;index"`
	Movie      Movie     `gorm:"constraint:OnDelete:CASCADE"`
	StartAt    time.Time `gorm:"not null;index"`
	EndAt      time.Time `gorm:"not null"`
	TotalSeats int       `gorm:"not null"`
}

// Seat.Booked is the single source of truth for availability. Version is
// bumped on every update and compared on write.
type Seat struct {
	ID         uint   `gorm:"primaryKey"`
	ShowtimeID uint   `gorm:"not null;uniqueIndex:idx_seats_showtime_number"`
	SeatNumber string `gorm:"size:10;not null;uniqueIndex:idx_seats_showtime_number"`
	Booked     bool   `gorm:"not null;default:false"`
	Version    uint   `gorm:"not null;default:0"`
}

// Reservation is never physically deleted by the booking flow, only flagged
// cancelled.
type Reservation struct {
	ID         uint      `gorm:"primaryKey"`
	UserID     uint      `gorm:"not null;index"`
	User       User      `gorm:"constraint:OnDelete:CASCADE"`
	ShowtimeID uint      `gorm:"not null;index"`
	Showtime   Showtime  `gorm:"constraint:OnDelete:CASCADE"`
	Seats      []Seat    `gorm:"many2many:reservation_seats;"`
	ReservedAt time.Time `gorm:"not null"`
	TotalPrice float64   `gorm:"not null"`
	Cancelled  bool      `gorm:"not null;default:false;index"`
}

// ReservationSeat is the reservation_seats junction row.
type ReservationSeat struct {
	ReservationID uint `gorm:"primaryKey"`
	SeatID        uint `gorm:"primaryKey;index"`
}
