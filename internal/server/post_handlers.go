package server

import (
	"time"

	"blogpose/internal/cache"
	"blogpose/internal/models"
	"blogpose/internal/service"

	"github.com/gofiber/fiber/v2"
)

const postCacheTTL = 5 * time.Minute

// GetFeeds handles GET /api/feeds.
func (s *Server) GetFeeds(c *fiber.Ctx) error {
	page, perPage := parsePagination(c)
	feed, err := s.postService.ListPosts(c.UserContext(), page, perPage, currentUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(feed)
}

// GetUserPosts handles GET /api/users/:username/posts.
func (s *Server) GetUserPosts(c *fiber.Ctx) error {
	page, perPage := parsePagination(c)
	feed, err := s.postService.ListPostsByUser(c.UserContext(), c.Params("username"), page, perPage, currentUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(feed)
}

// CreatePost handles POST /api/posts.
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var req struct {
		Title     string   `json:"title"`
		Content   string   `json:"content"`
		ImageURLs []string `json:"image_urls"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	post, err := s.postService.CreatePost(c.UserContext(), service.CreatePostInput{
		UserID:    currentUserID(c),
		Title:     req.Title,
		Content:   req.Content,
		ImageURLs: req.ImageURLs,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"post": post})
}

// GetPost handles GET /api/posts/:id. Anonymous reads go through the
// cache; per-viewer fields (Liked) make cached entries wrong for
// logged-in readers, so those always hit the database.
func (s *Server) GetPost(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	viewerID := currentUserID(c)

	var post *models.Post
	if viewerID == 0 {
		post, err = cache.Aside(c.UserContext(), cache.PostKey(postID), postCacheTTL, func() (*models.Post, error) {
			return s.postService.GetPost(c.UserContext(), postID, 0)
		})
	} else {
		post, err = s.postService.GetPost(c.UserContext(), postID, viewerID)
	}
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{"post": post})
}

// UpdatePost handles PUT /api/posts/:id. Owner only.
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Title     string   `json:"title"`
		Content   string   `json:"content"`
		ImageURLs []string `json:"image_urls"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	post, err := s.postService.UpdatePost(c.UserContext(), service.UpdatePostInput{
		PostID:    postID,
		UserID:    currentUserID(c),
		Title:     req.Title,
		Content:   req.Content,
		ImageURLs: req.ImageURLs,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{"post": post})
}

// DeletePost handles DELETE /api/posts/:id. Owner only; comments and
// likes go with the post.
func (s *Server) DeletePost(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.postService.DeletePost(c.UserContext(), postID, currentUserID(c)); err != nil {
		return respondServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// ToggleLike handles POST /api/posts/:id/like.
func (s *Server) ToggleLike(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	liked, total, err := s.postService.ToggleLike(c.UserContext(), currentUserID(c), postID)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"success":     true,
		"liked":       liked,
		"total_likes": total,
	})
}
