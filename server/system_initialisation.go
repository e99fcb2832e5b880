package server

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"github.com/jrsteele09/readcomp/apimodel"
	"github.com/jrsteele09/readcomp/competitions"
	"github.com/jrsteele09/readcomp/token"
	"github.com/jrsteele09/readcomp/users"
)

const (
	DefaultTeacherUsername = "teacher"
	DefaultTeacherEmail    = "teacher@readcomp.local"
	sampleCompetitionTitle = "Spring Reading Challenge"
)

// InitialiseSystem seeds a verified teacher account and a sample competition
// with books. Existing data is left untouched.
func (s *Server) InitialiseSystem(_ context.Context) error {
	teacher, generatedPassword, err := s.createTeacher(s.config.GetSeedTeacherPassword())
	if err != nil {
		return fmt.Errorf("[Server InitialiseSystem] failed to bootstrap teacher: %w", err)
	}

	competition, err := s.createSampleCompetition(teacher)
	if err != nil {
		return fmt.Errorf("[Server InitialiseSystem] failed to bootstrap sample competition: %w", err)
	}

	if generatedPassword != "" {
		s.logger.Info().Msg("📋 Development data:")
		s.logger.Info().Msgf("   Teacher:     %s", teacher.Username)
		s.logger.Info().Msgf("   Password:    %s", generatedPassword)
		if competition != nil {
			s.logger.Info().Msgf("   Competition: %s (id %d)", competition.Title, competition.ID)
		}
	}
	return nil
}

// createTeacher returns the seeded teacher, creating it when missing. The
// password is only returned when the account was created.
func (s *Server) createTeacher(defaultPassword string) (*users.User, string, error) {
	existing, err := s.repos.Users.GetByUsername(DefaultTeacherUsername)
	if err == nil && existing != nil {
		s.logger.Debug().Str("username", existing.Username).Msg("[server createTeacher] teacher already exists")
		return existing, "", nil
	}

	generatedPassword := defaultPassword
	if generatedPassword == "" {
		passwordBytes := make([]byte, 12)
		if _, err := rand.Read(passwordBytes); err != nil {
			return nil, "", fmt.Errorf("[server createTeacher] failed to generate password: %w", err)
		}
		generatedPassword = base64.URLEncoding.EncodeToString(passwordBytes)
	}

	passwordHash, err := users.HashPassword(generatedPassword)
	if err != nil {
		return nil, "", fmt.Errorf("[server createTeacher] failed to hash password: %w", err)
	}

	teacher := &users.User{
		Username:     DefaultTeacherUsername,
		Email:        DefaultTeacherEmail,
		PasswordHash: passwordHash,
		FirstName:    "Demo",
		LastName:     "Teacher",
		Role:         apimodel.RoleTeacher,
		DateJoined:   token.NowTimeFunc(),
		Verified:     true,
	}
	if err := s.repos.Users.Create(teacher); err != nil {
		return nil, "", fmt.Errorf("[server createTeacher] failed to create teacher: %w", err)
	}
	return teacher, generatedPassword, nil
}

// createSampleCompetition adds a month long competition with two books when
// the teacher owns none.
func (s *Server) createSampleCompetition(teacher *users.User) (*competitions.Competition, error) {
	existing, err := s.repos.Competitions.ListCompetitions()
	if err != nil {
		return nil, err
	}
	for _, c := range existing {
		if c.CreatedBy == teacher.ID {
			return nil, nil
		}
	}

	now := token.NowTimeFunc().UTC()
	start := apimodel.NewDate(now.Year(), now.Month(), now.Day())
	competition := &competitions.Competition{
		Title:       sampleCompetitionTitle,
		Description: "Read as many pages as you can and share what you think.",
		CreatedBy:   teacher.ID,
		StartDate:   start,
		EndDate:     apimodel.Date{Time: start.AddDate(0, 1, 0)},
		CreatedAt:   now,
	}
	if err := s.repos.Competitions.CreateCompetition(competition); err != nil {
		return nil, err
	}

	books := []apimodel.Book{
		{Title: "The Hobbit", Author: "J. R. R. Tolkien", Category: "Fantasy"},
		{Title: "A Brief History of Time", Author: "Stephen Hawking", Category: "Science"},
	}
	for i := range books {
		books[i].Competition = competition.ID
		if err := s.repos.Competitions.AddBook(&books[i]); err != nil {
			return nil, err
		}
	}
	return competition, nil
}

