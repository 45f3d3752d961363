package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/qs-lzh/movie-booking/internal/model"
)

type userRepoGorm struct {
	db *gorm.DB
}

var _ UserRepo = (*userRepoGorm)(nil)

func NewUserRepoGorm(db *gorm.DB) *userRepoGorm {
	return &userRepoGorm{
		db: db,
	}
}

func (r *userRepoGorm) WithTx(tx *gorm.DB) *userRepoGorm {
	return &userRepoGorm{
		db: tx,
	}
}

func (r *userRepoGorm) Create(ctx context.Context, user *model.User) error {
	if err := gorm.G[model.User](r.db).Create(ctx, user); err != nil {
		return translateErr(err)
	}
	return nil
}

func (r *userRepoGorm) GetByID(ctx context.Context, id uint) (*model.User, error) {
	user, err := gorm.G[model.User](r.db).Where("id = ?", id).First(ctx)
	if err != nil {
		return nil, translateErr(err)
	}
	return &user, nil
}

func (r *userRepoGorm) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	user, err := gorm.G[model.User](r.db).Where("email = ?", email).First(ctx)
	if err != nil {
		return nil, translateErr(err)
	}
	return &user, nil
}
