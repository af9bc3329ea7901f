package service

import (
	"context"
	"testing"
	"time"

	"blogpose/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// userRepoStub is a stub for repository.UserRepository.
type userRepoStub struct {
	getByIDFn             func(context.Context, uint) (*models.User, error)
	getByEmailFn          func(context.Context, string) (*models.User, error)
	getByUsernameFn       func(context.Context, string) (*models.User, error)
	createFn              func(context.Context, *models.User) error
	updateFn              func(context.Context, *models.User) error
	existsUsernameFn      func(context.Context, string, uint) (bool, error)
	existsEmailFn         func(context.Context, string, uint) (bool, error)
	setResetTokenFn       func(context.Context, uint, string, time.Time, time.Time) error
	getByResetTokenHashFn func(context.Context, string) (*models.User, error)
	resetPasswordFn       func(context.Context, uint, string) error
	sweepFn               func(context.Context, time.Time) (int64, error)
}

func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getByEmailFn(ctx, email)
}
func (s *userRepoStub) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getByUsernameFn(ctx, username)
}
func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	return s.createFn(ctx, user)
}
func (s *userRepoStub) Update(ctx context.Context, user *models.User) error {
	return s.updateFn(ctx, user)
}
func (s *userRepoStub) ExistsUsername(ctx context.Context, username string, excludeID uint) (bool, error) {
	return s.existsUsernameFn(ctx, username, excludeID)
}
func (s *userRepoStub) ExistsEmail(ctx context.Context, email string, excludeID uint) (bool, error) {
	return s.existsEmailFn(ctx, email, excludeID)
}
func (s *userRepoStub) SetResetToken(ctx context.Context, userID uint, hash string, issuedAt, expiresAt time.Time) error {
	return s.setResetTokenFn(ctx, userID, hash, issuedAt, expiresAt)
}
func (s *userRepoStub) GetByResetTokenHash(ctx context.Context, hash string) (*models.User, error) {
	return s.getByResetTokenHashFn(ctx, hash)
}
func (s *userRepoStub) ResetPassword(ctx context.Context, userID uint, passwordHash string) error {
	return s.resetPasswordFn(ctx, userID, passwordHash)
}
func (s *userRepoStub) SweepExpiredResetTokens(ctx context.Context, now time.Time) (int64, error) {
	return s.sweepFn(ctx, now)
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		getByIDFn:             func(_ context.Context, _ uint) (*models.User, error) { return &models.User{}, nil },
		getByEmailFn:          func(_ context.Context, _ string) (*models.User, error) { return nil, nil },
		getByUsernameFn:       func(_ context.Context, _ string) (*models.User, error) { return nil, nil },
		createFn:              func(_ context.Context, _ *models.User) error { return nil },
		updateFn:              func(_ context.Context, _ *models.User) error { return nil },
		existsUsernameFn:      func(_ context.Context, _ string, _ uint) (bool, error) { return false, nil },
		existsEmailFn:         func(_ context.Context, _ string, _ uint) (bool, error) { return false, nil },
		setResetTokenFn:       func(_ context.Context, _ uint, _ string, _, _ time.Time) error { return nil },
		getByResetTokenHashFn: func(_ context.Context, _ string) (*models.User, error) { return nil, nil },
		resetPasswordFn:       func(_ context.Context, _ uint, _ string) error { return nil },
		sweepFn:               func(_ context.Context, _ time.Time) (int64, error) { return 0, nil },
	}
}

// postRepoStub is a stub for repository.PostRepository.
type postRepoStub struct {
	createFn        func(context.Context, *models.Post) error
	getByIDFn       func(context.Context, uint, uint) (*models.Post, error)
	getByUserIDFn   func(context.Context, uint, int, int, uint) ([]*models.Post, error)
	listFn          func(context.Context, int, int, uint) ([]*models.Post, error)
	countFn         func(context.Context) (int64, error)
	countByUserIDFn func(context.Context, uint) (int64, error)
	updateFn        func(context.Context, *models.Post) error
	deleteFn        func(context.Context, uint) error
	isLikedFn       func(context.Context, uint, uint) (bool, error)
	likeFn          func(context.Context, uint, uint) error
	unlikeFn        func(context.Context, uint, uint) error
	countLikesFn    func(context.Context, uint) (int64, error)
}

func (s *postRepoStub) Create(ctx context.Context, post *models.Post) error {
	return s.createFn(ctx, post)
}
func (s *postRepoStub) GetByID(ctx context.Context, id, currentUserID uint) (*models.Post, error) {
	return s.getByIDFn(ctx, id, currentUserID)
}
func (s *postRepoStub) GetByUserID(ctx context.Context, userID uint, limit, offset int, currentUserID uint) ([]*models.Post, error) {
	return s.getByUserIDFn(ctx, userID, limit, offset, currentUserID)
}
func (s *postRepoStub) List(ctx context.Context, limit, offset int, currentUserID uint) ([]*models.Post, error) {
	return s.listFn(ctx, limit, offset, currentUserID)
}
func (s *postRepoStub) Count(ctx context.Context) (int64, error) {
	return s.countFn(ctx)
}
func (s *postRepoStub) CountByUserID(ctx context.Context, userID uint) (int64, error) {
	return s.countByUserIDFn(ctx, userID)
}
func (s *postRepoStub) Update(ctx context.Context, post *models.Post) error {
	return s.updateFn(ctx, post)
}
func (s *postRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}
func (s *postRepoStub) IsLiked(ctx context.Context, userID, postID uint) (bool, error) {
	return s.isLikedFn(ctx, userID, postID)
}
func (s *postRepoStub) Like(ctx context.Context, userID, postID uint) error {
	return s.likeFn(ctx, userID, postID)
}
func (s *postRepoStub) Unlike(ctx context.Context, userID, postID uint) error {
	return s.unlikeFn(ctx, userID, postID)
}
func (s *postRepoStub) CountLikes(ctx context.Context, postID uint) (int64, error) {
	return s.countLikesFn(ctx, postID)
}

func noopPostRepo() *postRepoStub {
	return &postRepoStub{
		createFn:        func(_ context.Context, _ *models.Post) error { return nil },
		getByIDFn:       func(_ context.Context, _, _ uint) (*models.Post, error) { return &models.Post{}, nil },
		getByUserIDFn:   func(_ context.Context, _ uint, _, _ int, _ uint) ([]*models.Post, error) { return nil, nil },
		listFn:          func(_ context.Context, _, _ int, _ uint) ([]*models.Post, error) { return nil, nil },
		countFn:         func(_ context.Context) (int64, error) { return 0, nil },
		countByUserIDFn: func(_ context.Context, _ uint) (int64, error) { return 0, nil },
		updateFn:        func(_ context.Context, _ *models.Post) error { return nil },
		deleteFn:        func(_ context.Context, _ uint) error { return nil },
		isLikedFn:       func(_ context.Context, _, _ uint) (bool, error) { return false, nil },
		likeFn:          func(_ context.Context, _, _ uint) error { return nil },
		unlikeFn:        func(_ context.Context, _, _ uint) error { return nil },
		countLikesFn:    func(_ context.Context, _ uint) (int64, error) { return 0, nil },
	}
}

// commentRepoStub is a stub for repository.CommentRepository.
type commentRepoStub struct {
	createFn      func(context.Context, *models.Comment) error
	getByIDFn     func(context.Context, uint) (*models.Comment, error)
	listByPostFn  func(context.Context, uint) ([]*models.Comment, error)
	countByPostFn func(context.Context, uint) (int64, error)
}

func (s *commentRepoStub) Create(ctx context.Context, comment *models.Comment) error {
	return s.createFn(ctx, comment)
}
func (s *commentRepoStub) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	return s.getByIDFn(ctx, id)
}
func (s *commentRepoStub) ListByPost(ctx context.Context, postID uint) ([]*models.Comment, error) {
	return s.listByPostFn(ctx, postID)
}
func (s *commentRepoStub) CountByPost(ctx context.Context, postID uint) (int64, error) {
	return s.countByPostFn(ctx, postID)
}

func noopCommentRepo() *commentRepoStub {
	return &commentRepoStub{
		createFn:      func(_ context.Context, _ *models.Comment) error { return nil },
		getByIDFn:     func(_ context.Context, _ uint) (*models.Comment, error) { return &models.Comment{}, nil },
		listByPostFn:  func(_ context.Context, _ uint) ([]*models.Comment, error) { return nil, nil },
		countByPostFn: func(_ context.Context, _ uint) (int64, error) { return 0, nil },
	}
}

func assertErrorCode(t *testing.T, err error, code string) *models.AppError {
	t.Helper()
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, code, appErr.Code)
	return appErr
}

func assertFieldError(t *testing.T, err error, field string) {
	t.Helper()
	appErr := assertErrorCode(t, err, "VALIDATION_ERROR")
	for _, fe := range appErr.Fields {
		if fe.Field == field {
			return
		}
	}
	t.Fatalf("expected a field error for %q, got %+v", field, appErr.Fields)
}
