package service

import (
	"context"
	"strings"

	"blogpose/internal/models"
	"blogpose/internal/repository"
)

const maxCommentLen = 10000

// CommentService handles adding and listing comments. Comments are
// immutable, so this is the whole surface.
type CommentService struct {
	commentRepo repository.CommentRepository
	postRepo    repository.PostRepository
}

func NewCommentService(commentRepo repository.CommentRepository, postRepo repository.PostRepository) *CommentService {
	return &CommentService{commentRepo: commentRepo, postRepo: postRepo}
}

type AddCommentInput struct {
	PostID  uint
	UserID  uint
	Content string
}

func (s *CommentService) AddComment(ctx context.Context, in AddCommentInput) (*models.Comment, error) {
	// The post must still exist; commenting on a deleted post is NotFound.
	if _, err := s.postRepo.GetByID(ctx, in.PostID, 0); err != nil {
		return nil, err
	}

	if strings.TrimSpace(in.Content) == "" {
		return nil, models.NewFieldValidationError([]models.FieldError{
			{Field: "content", Message: "comment content is required"},
		})
	}
	if len(in.Content) > maxCommentLen {
		return nil, models.NewFieldValidationError([]models.FieldError{
			{Field: "content", Message: "comment must not exceed 10000 characters"},
		})
	}

	comment := &models.Comment{
		Content: in.Content,
		PostID:  in.PostID,
		UserID:  in.UserID,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}

	return s.commentRepo.GetByID(ctx, comment.ID)
}

func (s *CommentService) ListComments(ctx context.Context, postID uint) ([]*models.Comment, error) {
	if _, err := s.postRepo.GetByID(ctx, postID, 0); err != nil {
		return nil, err
	}
	return s.commentRepo.ListByPost(ctx, postID)
}
