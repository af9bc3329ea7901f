package server

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"mime/multipart"
	"os"
	"path/filepath"
	"time"

	"blogpose/internal/middleware"
	"blogpose/internal/models"
	"blogpose/internal/service"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/image/draw"
)

const avatarSize = 125

// GetAccount handles GET /api/account.
func (s *Server) GetAccount(c *fiber.Ctx) error {
	user, err := s.authService.GetUser(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"user": user})
}

// UpdateAccount handles PUT /api/account. Accepts JSON or multipart; a
// multipart "avatar" file is resized and stored under AVATAR_DIR.
func (s *Server) UpdateAccount(c *fiber.Ctx) error {
	var req struct {
		FullName      string `json:"full_name" form:"full_name"`
		Username      string `json:"username" form:"username"`
		Email         string `json:"email" form:"email"`
		PhoneNumber   string `json:"phone_number" form:"phone_number"`
		BirthDate     string `json:"birth_date" form:"birth_date"`
		Gender        string `json:"gender" form:"gender"`
		StreetAddress string `json:"street_address" form:"street_address"`
		Country       string `json:"country" form:"country"`
		City          string `json:"city" form:"city"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	var birthDate time.Time
	if req.BirthDate != "" {
		parsed, err := time.Parse("2006-01-02", req.BirthDate)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewFieldValidationError([]models.FieldError{
					{Field: "birth_date", Message: "Birth date must be in YYYY-MM-DD format"},
				}))
		}
		birthDate = parsed
	}

	userID := currentUserID(c)

	var avatarFile string
	var previousAvatar string
	if fileHeader, err := c.FormFile("avatar"); err == nil && fileHeader != nil {
		current, err := s.authService.GetUser(c.UserContext(), userID)
		if err != nil {
			return respondServiceError(c, err)
		}
		previousAvatar = current.AvatarFile

		avatarFile, err = s.saveAvatar(fileHeader)
		if err != nil {
			return respondServiceError(c, err)
		}
	}

	user, err := s.authService.UpdateProfile(c.UserContext(), service.UpdateProfileInput{
		UserID:        userID,
		FullName:      req.FullName,
		Username:      req.Username,
		Email:         req.Email,
		PhoneNumber:   req.PhoneNumber,
		BirthDate:     birthDate,
		Gender:        req.Gender,
		StreetAddress: req.StreetAddress,
		Country:       req.Country,
		City:          req.City,
		AvatarFile:    avatarFile,
	})
	if err != nil {
		// The profile update failed, so the freshly written avatar is orphaned.
		if avatarFile != "" {
			_ = os.Remove(filepath.Join(s.config.AvatarDir, avatarFile))
		}
		return respondServiceError(c, err)
	}

	if avatarFile != "" && previousAvatar != "" && previousAvatar != "default.jpg" {
		if err := os.Remove(filepath.Join(s.config.AvatarDir, previousAvatar)); err != nil && !os.IsNotExist(err) {
			middleware.Logger.Warn("removing previous avatar", "file", previousAvatar, "error", err)
		}
	}

	return c.JSON(fiber.Map{"user": user})
}

// saveAvatar decodes the uploaded image, scales it to fit within
// avatarSize x avatarSize, and writes it under AVATAR_DIR with a
// random filename. Returns the stored filename.
func (s *Server) saveAvatar(fileHeader *multipart.FileHeader) (string, error) {
	f, err := fileHeader.Open()
	if err != nil {
		return "", models.NewInternalError(err)
	}
	defer f.Close()

	src, _, err := image.Decode(f)
	if err != nil {
		return "", models.NewFieldValidationError([]models.FieldError{
			{Field: "avatar", Message: "Avatar must be a PNG or JPEG image"},
		})
	}

	thumb := scaleToFit(src, avatarSize)

	var nameBytes [8]byte
	if _, err := rand.Read(nameBytes[:]); err != nil {
		return "", models.NewInternalError(err)
	}
	filename := hex.EncodeToString(nameBytes[:]) + ".jpg"

	if err := os.MkdirAll(s.config.AvatarDir, 0o755); err != nil {
		return "", models.NewInternalError(fmt.Errorf("creating avatar dir: %w", err))
	}

	out, err := os.Create(filepath.Join(s.config.AvatarDir, filename))
	if err != nil {
		return "", models.NewInternalError(err)
	}
	defer out.Close()

	if err := jpeg.Encode(out, thumb, &jpeg.Options{Quality: 85}); err != nil {
		return "", models.NewInternalError(err)
	}
	return filename, nil
}

// scaleToFit shrinks src so its longer edge is at most max pixels,
// preserving aspect ratio. Images already small enough pass through.
func scaleToFit(src image.Image, max int) image.Image {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= max && h <= max {
		return src
	}

	var dw, dh int
	if w >= h {
		dw = max
		dh = h * max / w
	} else {
		dh = max
		dw = w * max / h
	}
	if dw < 1 {
		dw = 1
	}
	if dh < 1 {
		dh = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)
	return dst
}
