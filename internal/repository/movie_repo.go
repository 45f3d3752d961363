package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/qs-lzh/movie-booking/internal/model"
)

type movieRepoGorm struct {
	db *gorm.DB
}

var _ MovieRepo = (*movieRepoGorm)(nil)

func NewMovieRepoGorm(db *gorm.DB) *movieRepoGorm {
	return &movieRepoGorm{
		db: db,
	}
}

func (r *movieRepoGorm) WithTx(tx *gorm.DB) *movieRepoGorm {
	return &movieRepoGorm{
		db: tx,
	}
}

func (r *movieRepoGorm) Create(ctx context.Context, movie *model.Movie) error {
	if err := gorm.G[model.Movie](r.db).Create(ctx, movie); err != nil {
		return translateErr(err)
	}
	return nil
}

func (r *movieRepoGorm) Update(ctx context.Context, movie *model.Movie) error {
	res := r.db.WithContext(ctx).Model(movie).
		Select("Title", "Description", "Genre", "PosterURL").
		Updates(movie)
	if res.Error != nil {
		return translateErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *movieRepoGorm) Delete(ctx context.Context, id uint) error {
	rows, err := gorm.G[model.Movie](r.db).Where("id = ?", id).Delete(ctx)
	if err != nil {
		return translateErr(err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *movieRepoGorm) GetByID(ctx context.Context, id uint) (*model.Movie, error) {
	movie, err := gorm.G[model.Movie](r.db).Where("id = ?", id).First(ctx)
	if err != nil {
		return nil, translateErr(err)
	}
	return &movie, nil
}

func (r *movieRepoGorm) ListAll(ctx context.Context) ([]model.Movie, error) {
	movies, err := gorm.G[model.Movie](r.db).Order("id").Find(ctx)
	if err != nil {
		return nil, translateErr(err)
	}
	return movies, nil
}
