package service

import (
	"context"
	"strings"

	"blogpose/internal/models"
	"blogpose/internal/repository"
)

const (
	maxTitleLen   = 300
	maxContentLen = 50000

	defaultPerPage = 20
	maxPerPage     = 100
)

// PostService handles post CRUD, feeds and likes.
type PostService struct {
	postRepo repository.PostRepository
	userRepo repository.UserRepository
}

func NewPostService(postRepo repository.PostRepository, userRepo repository.UserRepository) *PostService {
	return &PostService{postRepo: postRepo, userRepo: userRepo}
}

type CreatePostInput struct {
	UserID    uint
	Title     string
	Content   string
	ImageURLs []string
}

type UpdatePostInput struct {
	PostID    uint
	UserID    uint
	Title     string
	Content   string
	ImageURLs []string
}

// PostPage is one page of a feed.
type PostPage struct {
	Posts   []*models.Post `json:"posts"`
	Page    int            `json:"page"`
	PerPage int            `json:"per_page"`
	Total   int64          `json:"total"`
}

func validatePostContent(title, content string) error {
	var fieldErrs []models.FieldError
	if strings.TrimSpace(title) == "" {
		fieldErrs = append(fieldErrs, models.FieldError{Field: "title", Message: "title is required"})
	} else if len(title) > maxTitleLen {
		fieldErrs = append(fieldErrs, models.FieldError{Field: "title", Message: "title must not exceed 300 characters"})
	}
	if strings.TrimSpace(content) == "" {
		fieldErrs = append(fieldErrs, models.FieldError{Field: "content", Message: "content is required"})
	} else if len(content) > maxContentLen {
		fieldErrs = append(fieldErrs, models.FieldError{Field: "content", Message: "content must not exceed 50000 characters"})
	}
	if len(fieldErrs) > 0 {
		return models.NewFieldValidationError(fieldErrs)
	}
	return nil
}

func normalizePage(page, perPage int) (int, int) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = defaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}
	return page, perPage
}

func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	if err := validatePostContent(in.Title, in.Content); err != nil {
		return nil, err
	}

	post := &models.Post{
		Title:     in.Title,
		Content:   in.Content,
		ImageURLs: in.ImageURLs,
		UserID:    in.UserID,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}

	return s.postRepo.GetByID(ctx, post.ID, in.UserID)
}

func (s *PostService) GetPost(ctx context.Context, postID, currentUserID uint) (*models.Post, error) {
	return s.postRepo.GetByID(ctx, postID, currentUserID)
}

// UpdatePost rewrites title and content. Only the owner may update; a
// non-owner gets Forbidden, deliberately distinct from the NotFound a
// missing post produces.
func (s *PostService) UpdatePost(ctx context.Context, in UpdatePostInput) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, in.PostID, in.UserID)
	if err != nil {
		return nil, err
	}
	if post.UserID != in.UserID {
		return nil, models.NewForbiddenError("You can only update your own posts")
	}

	if err := validatePostContent(in.Title, in.Content); err != nil {
		return nil, err
	}

	post.Title = in.Title
	post.Content = in.Content
	if in.ImageURLs != nil {
		post.ImageURLs = in.ImageURLs
	}
	if err := s.postRepo.Update(ctx, post); err != nil {
		return nil, err
	}

	return s.postRepo.GetByID(ctx, in.PostID, in.UserID)
}

func (s *PostService) DeletePost(ctx context.Context, postID, userID uint) error {
	post, err := s.postRepo.GetByID(ctx, postID, userID)
	if err != nil {
		return err
	}
	if post.UserID != userID {
		return models.NewForbiddenError("You can only delete your own posts")
	}

	return s.postRepo.Delete(ctx, postID)
}

// ListPosts returns the global feed, newest first.
func (s *PostService) ListPosts(ctx context.Context, page, perPage int, currentUserID uint) (*PostPage, error) {
	page, perPage = normalizePage(page, perPage)

	total, err := s.postRepo.Count(ctx)
	if err != nil {
		return nil, err
	}

	posts, err := s.postRepo.List(ctx, perPage, (page-1)*perPage, currentUserID)
	if err != nil {
		return nil, err
	}

	return &PostPage{Posts: posts, Page: page, PerPage: perPage, Total: total}, nil
}

// ListPostsByUser returns one author's posts, newest first. An unknown
// username is NotFound.
func (s *PostService) ListPostsByUser(ctx context.Context, username string, page, perPage int, currentUserID uint) (*PostPage, error) {
	author, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if author == nil {
		return nil, models.NewNotFoundError("User", username)
	}

	page, perPage = normalizePage(page, perPage)

	total, err := s.postRepo.CountByUserID(ctx, author.ID)
	if err != nil {
		return nil, err
	}

	posts, err := s.postRepo.GetByUserID(ctx, author.ID, perPage, (page-1)*perPage, currentUserID)
	if err != nil {
		return nil, err
	}

	return &PostPage{Posts: posts, Page: page, PerPage: perPage, Total: total}, nil
}

// ToggleLike flips the caller's like on the post and returns the new
// state with the fresh total.
func (s *PostService) ToggleLike(ctx context.Context, userID, postID uint) (liked bool, total int64, err error) {
	if _, err = s.postRepo.GetByID(ctx, postID, 0); err != nil {
		return false, 0, err
	}

	isLiked, err := s.postRepo.IsLiked(ctx, userID, postID)
	if err != nil {
		return false, 0, err
	}

	if isLiked {
		err = s.postRepo.Unlike(ctx, userID, postID)
	} else {
		err = s.postRepo.Like(ctx, userID, postID)
	}
	if err != nil {
		return false, 0, err
	}

	total, err = s.postRepo.CountLikes(ctx, postID)
	if err != nil {
		return false, 0, err
	}
	return !isLiked, total, nil
}
