// Package service contains the application's business logic.
package service

import (
	"context"
	"time"

	"blogpose/internal/models"
	"blogpose/internal/repository"
	"blogpose/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

// AuthService handles registration, login and profile updates.
type AuthService struct {
	userRepo repository.UserRepository
}

func NewAuthService(userRepo repository.UserRepository) *AuthService {
	return &AuthService{userRepo: userRepo}
}

type RegisterInput struct {
	FullName        string
	Username        string
	Email           string
	Password        string
	ConfirmPassword string
	PhoneNumber     string
	BirthDate       time.Time
	Gender          string
	StreetAddress   string
	Country         string
	City            string
}

type UpdateProfileInput struct {
	UserID        uint
	FullName      string
	Username      string
	Email         string
	PhoneNumber   string
	BirthDate     time.Time
	Gender        string
	StreetAddress string
	Country       string
	City          string
	AvatarFile    string
}

func registerRules(in RegisterInput) []models.FieldError {
	return validation.Collect(
		validation.Length("full_name", in.FullName, 10, 100),
		validation.Username(in.Username),
		validation.Email(in.Email),
		validation.Password("password", in.Password),
		validation.PasswordConfirm(in.Password, in.ConfirmPassword),
		validation.Phone(in.PhoneNumber),
		validation.Gender(in.Gender),
		validation.Length("street_address", in.StreetAddress, 10, 100),
		validation.Length("city", in.City, 3, 100),
		validation.Required("country", in.Country),
	)
}

// Register validates the input, checks both unique fields and persists a
// new account with a bcrypt password hash. Duplicates surface as field
// errors alongside any format problems. The raw password is never stored
// or logged.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	fieldErrs := registerRules(in)

	// Only probe uniqueness for fields that pass their format checks.
	if !hasFieldError(fieldErrs, "username") {
		taken, err := s.userRepo.ExistsUsername(ctx, in.Username, 0)
		if err != nil {
			return nil, err
		}
		if taken {
			fieldErrs = append(fieldErrs, models.FieldError{Field: "username", Message: "That username is taken. Please choose a different one"})
		}
	}
	if !hasFieldError(fieldErrs, "email") {
		taken, err := s.userRepo.ExistsEmail(ctx, in.Email, 0)
		if err != nil {
			return nil, err
		}
		if taken {
			fieldErrs = append(fieldErrs, models.FieldError{Field: "email", Message: "That email is taken. Please choose a different one"})
		}
	}

	if len(fieldErrs) > 0 {
		return nil, models.NewFieldValidationError(fieldErrs)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		FullName:      in.FullName,
		Username:      in.Username,
		Email:         in.Email,
		Password:      string(hash),
		PhoneNumber:   in.PhoneNumber,
		BirthDate:     in.BirthDate,
		Gender:        in.Gender,
		StreetAddress: in.StreetAddress,
		Country:       in.Country,
		City:          in.City,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		// Lost the race between the lookup and the insert; report it the
		// same way as any other duplicate.
		if appErr, ok := err.(*models.AppError); ok && appErr.Code == "CONFLICT" {
			return nil, models.NewFieldValidationError([]models.FieldError{
				{Field: "username", Message: "That username or email is taken. Please choose a different one"},
			})
		}
		return nil, err
	}

	return user, nil
}

// Authenticate returns the user iff the username exists and the password
// matches. Both failure modes produce the same error so callers cannot
// probe which usernames exist.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewUnauthorizedError("Incorrect username or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, models.NewUnauthorizedError("Incorrect username or password")
	}

	return user, nil
}

// GetUser loads a profile by ID.
func (s *AuthService) GetUser(ctx context.Context, id uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// UpdateProfile applies the changed fields after running the same
// validation as registration. Uniqueness checks skip the caller's own
// row so keeping your current username is never a collision.
func (s *AuthService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	fieldErrs := validation.Collect(
		validation.Length("full_name", in.FullName, 10, 100),
		validation.Username(in.Username),
		validation.Email(in.Email),
		validation.Phone(in.PhoneNumber),
		validation.Gender(in.Gender),
		validation.Length("street_address", in.StreetAddress, 10, 100),
		validation.Length("city", in.City, 3, 100),
		validation.Required("country", in.Country),
	)

	if !hasFieldError(fieldErrs, "username") {
		taken, err := s.userRepo.ExistsUsername(ctx, in.Username, in.UserID)
		if err != nil {
			return nil, err
		}
		if taken {
			fieldErrs = append(fieldErrs, models.FieldError{Field: "username", Message: "That username is taken. Please choose a different one"})
		}
	}
	if !hasFieldError(fieldErrs, "email") {
		taken, err := s.userRepo.ExistsEmail(ctx, in.Email, in.UserID)
		if err != nil {
			return nil, err
		}
		if taken {
			fieldErrs = append(fieldErrs, models.FieldError{Field: "email", Message: "That email is taken. Please choose a different one"})
		}
	}

	if len(fieldErrs) > 0 {
		return nil, models.NewFieldValidationError(fieldErrs)
	}

	user.FullName = in.FullName
	user.Username = in.Username
	user.Email = in.Email
	user.PhoneNumber = in.PhoneNumber
	user.BirthDate = in.BirthDate
	user.Gender = in.Gender
	user.StreetAddress = in.StreetAddress
	user.Country = in.Country
	user.City = in.City
	if in.AvatarFile != "" {
		user.AvatarFile = in.AvatarFile
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

func hasFieldError(errs []models.FieldError, field string) bool {
	for _, fe := range errs {
		if fe.Field == field {
			return true
		}
	}
	return false
}
