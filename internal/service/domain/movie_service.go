package domain

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/qs-lzh/movie-booking/internal/model"
	"github.com/qs-lzh/movie-booking/internal/repository"
	"github.com/qs-lzh/movie-booking/internal/service"
)

type MovieService interface {
	CreateMovie(ctx context.Context, movie *model.Movie) error
	UpdateMovie(ctx context.Context, movie *model.Movie) error
	DeleteMovie(ctx context.Context, id uint) error
	GetMovieByID(ctx context.Context, id uint) (*model.Movie, error)
	GetAllMovies(ctx context.Context) ([]model.Movie, error)
}

type movieService struct {
	store  repository.Store
	cache  SeatCache
	logger *zap.Logger
}

var _ MovieService = (*movieService)(nil)

func NewMovieService(store repository.Store, cache SeatCache, logger *zap.Logger) *movieService {
	return &movieService{
		store:  store,
		cache:  cache,
		logger: logger,
	}
}

func validateMovie(movie *model.Movie) error {
	movie.Title = strings.TrimSpace(movie.Title)
	if movie.Title == "" {
		return fmt.Errorf("%w: title is required", service.ErrInvalidInput)
	}
	return nil
}

func (s *movieService) CreateMovie(ctx context.Context, movie *model.Movie) error {
	if err := validateMovie(movie); err != nil {
		return err
	}
	return s.store.Repos().Movies.Create(ctx, movie)
}

func (s *movieService) UpdateMovie(ctx context.Context, movie *model.Movie) error {
	if err := validateMovie(movie); err != nil {
		return err
	}
	if err := s.store.Repos().Movies.Update(ctx, movie); err != nil {
		return notFound(err, "movie %d", movie.ID)
	}
	return nil
}

// DeleteMovie removes the movie together with all of its showtimes.
func (s *movieService) DeleteMovie(ctx context.Context, id uint) error {
	var showtimeIDs []uint
	err := s.store.WithinTx(ctx, func(repos repository.Repos) error {
		if _, err := repos.Movies.GetByID(ctx, id); err != nil {
			return notFound(err, "movie %d", id)
		}
		showtimes, err := repos.Showtimes.ListByMovieID(ctx, id)
		if err != nil {
			return err
		}
		for _, st := range showtimes {
			if err := deleteShowtime(ctx, repos, st.ID); err != nil {
				return err
			}
			showtimeIDs = append(showtimeIDs, st.ID)
		}
		return repos.Movies.Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	if s.cache != nil && len(showtimeIDs) > 0 {
		if err := s.cache.Invalidate(ctx, showtimeIDs...); err != nil {
			s.logger.Warn("seat cache invalidation failed", zap.Uints("showtime_ids", showtimeIDs), zap.Error(err))
		}
	}
	s.logger.Info("movie deleted", zap.Uint("movie_id", id), zap.Int("showtimes", len(showtimeIDs)))
	return nil
}

func (s *movieService) GetMovieByID(ctx context.Context, id uint) (*model.Movie, error) {
	movie, err := s.store.Repos().Movies.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "movie %d", id)
	}
	return movie, nil
}

func (s *movieService) GetAllMovies(ctx context.Context) ([]model.Movie, error) {
	return s.store.Repos().Movies.ListAll(ctx)
}
