package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/qs-lzh/movie-booking/internal/model"
)

type showtimeRepoGorm struct {
	db *gorm.DB
}

var _ ShowtimeRepo = (*showtimeRepoGorm)(nil)

func NewShowtimeRepoGorm(db *gorm.DB) *showtimeRepoGorm {
	return &showtimeRepoGorm{
		db: db,
	}
}

func (r *showtimeRepoGorm) WithTx(tx *gorm.DB) *showtimeRepoGorm {
	return &showtimeRepoGorm{
		db: tx,
	}
}

func (r *showtimeRepoGorm) withMovie(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Movie")
}

func (r *showtimeRepoGorm) Create(ctx context.Context, showtime *model.Showtime) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(showtime).Error; err != nil {
		return translateErr(err)
	}
	return nil
}

func (r *showtimeRepoGorm) Update(ctx context.Context, showtime *model.Showtime) error {
	res := r.db.WithContext(ctx).Model(showtime).
		Select("MovieID", "StartAt", "EndAt", "TotalSeats").
		Updates(showtime)
	if res.Error != nil {
		return translateErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *showtimeRepoGorm) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&model.Showtime{}, id)
	if res.Error != nil {
		return translateErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *showtimeRepoGorm) GetByID(ctx context.Context, id uint) (*model.Showtime, error) {
	var showtime model.Showtime
	if err := r.withMovie(ctx).Where("id = ?", id).First(&showtime).Error; err != nil {
		return nil, translateErr(err)
	}
	return &showtime, nil
}

func (r *showtimeRepoGorm) ListByMovieID(ctx context.Context, movieID uint) ([]model.Showtime, error) {
	var showtimes []model.Showtime
	err := r.withMovie(ctx).
		Where("movie_id = ?", movieID).
		Order("start_at, id").
		Find(&showtimes).Error
	return showtimes, translateErr(err)
}

func (r *showtimeRepoGorm) ListByMovieIDBetween(ctx context.Context, movieID uint, from, to time.Time) ([]model.Showtime, error) {
	var showtimes []model.Showtime
	err := r.withMovie(ctx).
		Where("movie_id = ? AND start_at >= ? AND start_at < ?", movieID, from, to).
		Order("start_at, id").
		Find(&showtimes).Error
	return showtimes, translateErr(err)
}

func (r *showtimeRepoGorm) ListStartingAfter(ctx context.Context, t time.Time) ([]model.Showtime, error) {
	var showtimes []model.Showtime
	err := r.withMovie(ctx).
		Where("start_at > ?", t).
		Order("start_at, id").
		Find(&showtimes).Error
	return showtimes, translateErr(err)
}

func (r *showtimeRepoGorm) ListAll(ctx context.Context) ([]model.Showtime, error) {
	var showtimes []model.Showtime
	err := r.withMovie(ctx).Order("start_at, id").Find(&showtimes).Error
	return showtimes, translateErr(err)
}
