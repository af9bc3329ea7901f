// Package seed fills the database with realistic demo data for
// development. Not wired into the server; see cmd/seed.
package seed

import (
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"blogpose/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DevPassword is the shared password for every seeded account.
const DevPassword = "devpassword123"

// Options controls how much data the seeder creates.
type Options struct {
	NumUsers int
	NumPosts int
	Clean    bool
}

// Seeder creates demo users, posts, comments and likes.
type Seeder struct {
	db   *gorm.DB
	rand *rand.Rand
}

// NewSeeder returns a Seeder bound to the given database.
func NewSeeder(db *gorm.DB) *Seeder {
	src := rand.NewSource(time.Now().UnixNano())
	gofakeit.Seed(time.Now().UnixNano())
	return &Seeder{db: db, rand: rand.New(src)}
}

// ClearAll deletes all seedable rows. Order respects foreign keys.
func (s *Seeder) ClearAll() error {
	for _, model := range []interface{}{
		&models.Like{}, &models.Comment{}, &models.Post{}, &models.User{},
	} {
		if err := s.db.Unscoped().Where("1 = 1").Delete(model).Error; err != nil {
			return fmt.Errorf("clearing %T: %w", model, err)
		}
	}
	return nil
}

// Run populates the database according to opts.
func (s *Seeder) Run(opts Options) error {
	if opts.Clean {
		if err := s.ClearAll(); err != nil {
			return err
		}
	}

	users, err := s.seedUsers(opts.NumUsers)
	if err != nil {
		return err
	}
	if len(users) == 0 {
		return nil
	}

	posts, err := s.seedPosts(users, opts.NumPosts)
	if err != nil {
		return err
	}

	if err := s.seedComments(users, posts); err != nil {
		return err
	}
	if err := s.seedLikes(users, posts); err != nil {
		return err
	}

	log.Printf("seeded %d users, %d posts (password for all accounts: %s)",
		len(users), len(posts), DevPassword)
	return nil
}

func (s *Seeder) seedUsers(n int) ([]*models.User, error) {
	// One bcrypt run shared by all users keeps seeding fast.
	hash, err := bcrypt.GenerateFromPassword([]byte(DevPassword), bcrypt.MinCost)
	if err != nil {
		return nil, err
	}

	genders := []string{"male", "female", "not_say"}

	users := make([]*models.User, 0, n)
	for i := 0; i < n; i++ {
		person := gofakeit.Person()
		user := &models.User{
			FullName:      fmt.Sprintf("%s %s", person.FirstName, person.LastName),
			Username:      s.username(person, i),
			Email:         fmt.Sprintf("%s_%d@%s", strings.ToLower(person.FirstName), i, gofakeit.DomainName()),
			Password:      string(hash),
			PhoneNumber:   "0" + gofakeit.Numerify("##########"),
			BirthDate:     gofakeit.DateRange(time.Date(1960, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2005, 12, 31, 0, 0, 0, 0, time.UTC)),
			Gender:        genders[s.rand.Intn(len(genders))],
			StreetAddress: gofakeit.Street(),
			Country:       gofakeit.Country(),
			City:          gofakeit.City(),
		}
		if err := s.db.Create(user).Error; err != nil {
			return nil, fmt.Errorf("seeding user %d: %w", i, err)
		}
		users = append(users, user)
	}
	return users, nil
}

// username builds a handle that satisfies the 7-35 char constraint and
// stays unique via the index suffix.
func (s *Seeder) username(person *gofakeit.PersonInfo, i int) string {
	base := strings.ToLower(person.FirstName + "_" + person.LastName)
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '-':
			return r
		default:
			return -1
		}
	}, base)
	name := fmt.Sprintf("%s_%04d", base, i)
	if len(name) < 7 {
		name = name + strings.Repeat("0", 7-len(name))
	}
	if len(name) > 35 {
		name = name[:35]
	}
	return name
}

func (s *Seeder) seedPosts(users []*models.User, n int) ([]*models.Post, error) {
	posts := make([]*models.Post, 0, n)
	for i := 0; i < n; i++ {
		author := users[s.rand.Intn(len(users))]
		post := &models.Post{
			Title:   strings.TrimSuffix(gofakeit.Sentence(s.rand.Intn(6)+3), "."),
			Content: gofakeit.Paragraph(s.rand.Intn(3)+1, 3, 10, "\n\n"),
			UserID:  author.ID,
			// Spread creation times back over 90 days so feeds look lived-in.
			CreatedAt: time.Now().Add(-time.Duration(s.rand.Intn(90*24)) * time.Hour),
		}
		if s.rand.Intn(4) == 0 {
			post.ImageURLs = []string{
				fmt.Sprintf("https://picsum.photos/seed/%s/800/600", gofakeit.UUID()),
			}
		}
		if err := s.db.Create(post).Error; err != nil {
			return nil, fmt.Errorf("seeding post %d: %w", i, err)
		}
		posts = append(posts, post)
	}
	return posts, nil
}

func (s *Seeder) seedComments(users []*models.User, posts []*models.Post) error {
	for _, post := range posts {
		for i := s.rand.Intn(5); i > 0; i-- {
			comment := &models.Comment{
				Content:   gofakeit.Sentence(s.rand.Intn(12) + 3),
				PostID:    post.ID,
				UserID:    users[s.rand.Intn(len(users))].ID,
				CreatedAt: post.CreatedAt.Add(time.Duration(s.rand.Intn(48)) * time.Hour),
			}
			if err := s.db.Create(comment).Error; err != nil {
				return fmt.Errorf("seeding comment on post %d: %w", post.ID, err)
			}
		}
	}
	return nil
}

func (s *Seeder) seedLikes(users []*models.User, posts []*models.Post) error {
	for _, post := range posts {
		// Pick a random subset of distinct users as likers.
		perm := s.rand.Perm(len(users))
		count := s.rand.Intn(len(users) + 1)
		for _, idx := range perm[:count] {
			like := &models.Like{UserID: users[idx].ID, PostID: post.ID}
			if err := s.db.Create(like).Error; err != nil {
				return fmt.Errorf("seeding like on post %d: %w", post.ID, err)
			}
		}
	}
	return nil
}
