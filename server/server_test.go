package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jrsteele09/readcomp/api"
	"github.com/jrsteele09/readcomp/apimodel"
	"github.com/jrsteele09/readcomp/client"
	competitionrepofake "github.com/jrsteele09/readcomp/competitions/repofake"
	"github.com/jrsteele09/readcomp/internal/config"
	"github.com/jrsteele09/readcomp/internal/errors"
	"github.com/jrsteele09/readcomp/server"
	"github.com/jrsteele09/readcomp/sessions/storefakes"
	"github.com/jrsteele09/readcomp/token"
	refreshrepofake "github.com/jrsteele09/readcomp/token/refresh/repofake"
	"github.com/jrsteele09/readcomp/users"
	fakeuserrepo "github.com/jrsteele09/readcomp/users/repofake"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

const teacherPassword = "teacher-pass-1"

// captureMailer records every message instead of sending it.
type captureMailer struct {
	mu       sync.Mutex
	messages []string
}

func (m *captureMailer) Send(to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, body)
	return nil
}

func (m *captureMailer) last(t *testing.T) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.messages)
	return m.messages[len(m.messages)-1]
}

type harness struct {
	srv    *httptest.Server
	mailer *captureMailer
	repos  server.Repos
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	t.Setenv("ENV", "TEST")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("SEED_TEACHER_PASSWORD", teacherPassword)
	t.Setenv("ENV_FILE", "does-not-exist.env")

	h := &harness{
		mailer: &captureMailer{},
		repos: server.Repos{
			Users:         fakeuserrepo.NewFakeUserRepo(),
			Competitions:  competitionrepofake.NewFakeCompetitionRepo(),
			RefreshGrants: refreshrepofake.NewFakeGrantRepo(),
		},
	}
	s, err := server.New(config.New(), h.repos, server.WithMailer(h.mailer), server.WithRegistry(prometheus.NewRegistry()))
	require.NoError(t, err)
	h.srv = httptest.NewServer(s)
	t.Cleanup(h.srv.Close)
	return h
}

// newAPI returns an API bound to a fresh in-memory session store.
func (h *harness) newAPI(t *testing.T) (*api.API, *storefakes.MemoryStore) {
	t.Helper()
	store := storefakes.NewMemoryStore()
	c, err := client.New(h.srv.URL, store)
	require.NoError(t, err)
	return api.New(c), store
}

func (h *harness) login(t *testing.T, username, password string) (*api.API, *storefakes.MemoryStore) {
	t.Helper()
	a, store := h.newAPI(t)
	resp, err := a.Login(context.Background(), username, password)
	require.NoError(t, err)
	require.NoError(t, store.Save(resp.Access, resp.Refresh))
	require.NoError(t, store.SaveRole(string(resp.Role)))
	return a, store
}

// verificationLink extracts uid and token from the last mailed link.
func (h *harness) verificationLink(t *testing.T) (string, string) {
	t.Helper()
	body := h.mailer.last(t)
	idx := strings.Index(body, "/api/verify-email/")
	require.GreaterOrEqual(t, idx, 0, body)
	parts := strings.Split(strings.Trim(body[idx+len("/api/verify-email/"):], "/"), "/")
	require.Len(t, parts, 2)
	return parts[0], parts[1]
}

// registerStudent registers and verifies a student account.
func (h *harness) registerStudent(t *testing.T, username string) {
	t.Helper()
	a, _ := h.newAPI(t)
	ctx := context.Background()
	_, err := a.Register(ctx, apimodel.RegisterRequest{
		Username:  username,
		Email:     username + "@example.com",
		Password:  "reading-is-fun",
		FirstName: "Ada",
		LastName:  "Reader",
	})
	require.NoError(t, err)
	uid, tok := h.verificationLink(t)
	_, err = a.VerifyEmail(ctx, uid, tok)
	require.NoError(t, err)
}

func TestRegisterVerifyAndLogin(t *testing.T) {
	h := newHarness(t)
	a, _ := h.newAPI(t)
	ctx := context.Background()

	status, err := a.Register(ctx, apimodel.RegisterRequest{
		Username:  "ada",
		Email:     "ada@example.com",
		Password:  "reading-is-fun",
		FirstName: "Ada",
		LastName:  "Lovelace",
	})
	require.NoError(t, err)
	require.Equal(t, "ok", status.Status)
	require.Equal(t, "Verification link sent to your email.", status.Message)

	_, err = a.Login(ctx, "ada", "reading-is-fun")
	var httpErr *errors.HTTPError
	require.True(t, errors.As(err, &httpErr))
	require.Equal(t, http.StatusUnauthorized, httpErr.Status)

	uid, tok := h.verificationLink(t)
	_, err = a.VerifyEmail(ctx, uid, tok+"x")
	require.True(t, errors.As(err, &httpErr))
	require.Equal(t, "Token expired or invalid.", httpErr.Detail())

	verified, err := a.VerifyEmail(ctx, uid, tok)
	require.NoError(t, err)
	require.Equal(t, "Email verified. You are now logged in.", verified.Message)
	require.NotEmpty(t, verified.Access)
	require.NotEmpty(t, verified.Refresh)

	resp, err := a.Login(ctx, "ada", "reading-is-fun")
	require.NoError(t, err)
	require.Equal(t, apimodel.RoleStudent, resp.Role)

	claims, err := token.Decode(resp.Access)
	require.NoError(t, err)
	require.Equal(t, "ada", claims.Username)
	require.Equal(t, "STUDENT", claims.Role)
}

func TestRegisterValidation(t *testing.T) {
	h := newHarness(t)
	a, _ := h.newAPI(t)

	_, err := a.Register(context.Background(), apimodel.RegisterRequest{
		Username: "teacher",
		Email:    "not-an-email",
		Password: "12345678",
	})
	var validation *errors.ValidationError
	require.True(t, errors.As(err, &validation))
	require.NotEmpty(t, validation.Field("username"))
	require.NotEmpty(t, validation.Field("email"))
	require.NotEmpty(t, validation.Field("password"))
	require.Equal(t, "This field is required.", validation.Field("first_name"))
}

func TestInvalidActivationLink(t *testing.T) {
	h := newHarness(t)
	a, _ := h.newAPI(t)

	_, err := a.VerifyEmail(context.Background(), "!!!", "token")
	var httpErr *errors.HTTPError
	require.True(t, errors.As(err, &httpErr))
	require.Equal(t, http.StatusBadRequest, httpErr.Status)
	require.Equal(t, "Invalid activation link.", httpErr.Detail())
}

func TestStudentActivity(t *testing.T) {
	h := newHarness(t)
	h.registerStudent(t, "ada")
	a, _ := h.login(t, "ada", "reading-is-fun")
	ctx := context.Background()

	list, err := a.StudentCompetitions(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	comp := list[0]
	require.Len(t, comp.Books, 2)
	require.False(t, bool(comp.IsRegistered))
	require.Equal(t, "Demo Teacher", comp.FullName)
	book := comp.Books[0]

	_, err = a.RegisterForCompetition(ctx, apimodel.RegistrationRequest{Competition: comp.ID, StudentCart: "A-12", GroupNumber: "3"})
	require.NoError(t, err)

	_, err = a.RegisterForCompetition(ctx, apimodel.RegistrationRequest{Competition: comp.ID, StudentCart: "A-12"})
	var httpErr *errors.HTTPError
	require.True(t, errors.As(err, &httpErr))
	require.Equal(t, "You have already registered for this competition.", httpErr.Detail())

	detail, err := a.StudentCompetition(ctx, comp.ID)
	require.NoError(t, err)
	require.True(t, bool(detail.IsRegistered))
	require.Len(t, detail.Registrations, 1)
	require.Equal(t, "Ada Reader", detail.Registrations[0].FullName)

	t.Run("comments", func(t *testing.T) {
		_, err := a.PostComment(ctx, apimodel.CommentRequest{Competition: comp.ID, Book: book.ID, Type: "gossip", Text: "hi"})
		var validation *errors.ValidationError
		require.True(t, errors.As(err, &validation))
		require.NotEmpty(t, validation.Field("type"))

		posted, err := a.PostComment(ctx, apimodel.CommentRequest{Competition: comp.ID, Book: book.ID, Type: apimodel.CommentThoughts, Text: "Loved it"})
		require.NoError(t, err)
		require.Equal(t, "Ada Reader", posted.FullName)

		comments, err := a.Comments(ctx, comp.ID)
		require.NoError(t, err)
		require.Len(t, comments, 1)
		require.Equal(t, book.Title, comments[0].Book.Title)

		comments, err = a.Comments(ctx, comp.ID+1000)
		require.NoError(t, err)
		require.Empty(t, comments)
	})

	t.Run("ratings are replaced", func(t *testing.T) {
		_, err := a.Rate(ctx, apimodel.RatingRequest{Competition: comp.ID, Book: book.ID, Rating: 6})
		var validation *errors.ValidationError
		require.True(t, errors.As(err, &validation))

		_, err = a.Rate(ctx, apimodel.RatingRequest{Competition: comp.ID, Book: book.ID, Rating: 3})
		require.NoError(t, err)
		_, err = a.Rate(ctx, apimodel.RatingRequest{Competition: comp.ID, Book: book.ID, Rating: 5})
		require.NoError(t, err)

		ratings, err := a.Ratings(ctx)
		require.NoError(t, err)
		require.Len(t, ratings, 1)
		require.Equal(t, 5, ratings[0].Rating)
	})

	t.Run("daily pages", func(t *testing.T) {
		_, err := a.LogPages(ctx, apimodel.DailyPageRequest{Competition: comp.ID, Book: comp.Books[1].ID, Page: 0})
		var validation *errors.ValidationError
		require.True(t, errors.As(err, &validation))

		_, err = a.LogPages(ctx, apimodel.DailyPageRequest{Competition: comp.ID, Book: book.ID, Page: 60})
		require.NoError(t, err)
		_, err = a.LogPages(ctx, apimodel.DailyPageRequest{Competition: comp.ID, Book: book.ID, Page: 45})
		require.NoError(t, err)

		pages, err := a.DailyPages(ctx)
		require.NoError(t, err)
		require.Len(t, pages, 2)
	})

	achievements, err := a.Achievements(ctx)
	require.NoError(t, err)
	names := []string{}
	for _, achievement := range achievements {
		names = append(names, achievement.Name)
	}
	require.ElementsMatch(t, []string{server.AchievementFirstComment, server.AchievementBookworm}, names)
}

func TestNotificationsAndInbox(t *testing.T) {
	h := newHarness(t)
	a, _ := h.login(t, server.DefaultTeacherUsername, teacherPassword)
	ctx := context.Background()

	list, err := a.StudentCompetitions(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	req, err := client.NewJSONRequest(http.MethodPost, api.PathNotification, apimodel.Notification{Competition: list[0].ID, Text: "Week one is over"})
	require.NoError(t, err)
	_, err = a.Client().Do(ctx, req)
	require.NoError(t, err)

	notifications, err := a.Notifications(ctx)
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	require.Equal(t, "Demo Teacher", notifications[0].UserFullName)

	inbox, err := a.Inbox(ctx)
	require.NoError(t, err)
	require.Len(t, inbox, 1)
	require.Equal(t, list[0].ID, inbox[0].ID)
	require.Len(t, inbox[0].Notifications, 1)
}

func TestAdminCompetitions(t *testing.T) {
	h := newHarness(t)
	h.registerStudent(t, "ada")
	teacher, _ := h.login(t, server.DefaultTeacherUsername, teacherPassword)
	student, _ := h.login(t, "ada", "reading-is-fun")
	ctx := context.Background()

	_, err := teacher.CreateCompetition(ctx, apimodel.CompetitionRequest{
		Title:     "Backwards",
		StartDate: apimodel.NewDate(2026, time.May, 10),
		EndDate:   apimodel.NewDate(2026, time.May, 1),
	})
	var validation *errors.ValidationError
	require.True(t, errors.As(err, &validation))
	require.NotEmpty(t, validation.Field(errors.NonFieldKey))

	created, err := teacher.CreateCompetition(ctx, apimodel.CompetitionRequest{
		Title:     "Summer",
		StartDate: apimodel.NewDate(2026, time.June, 1),
		EndDate:   apimodel.NewDate(2026, time.August, 31),
	})
	require.NoError(t, err)
	require.Equal(t, "Summer", created.Title)
	require.Empty(t, created.Books)

	book, err := teacher.UploadBook(ctx, apimodel.BookUpload{
		Competition: created.ID,
		Title:       "Matilda",
		Author:      "Roald Dahl",
		Category:    "Children",
		FileName:    "matilda book.pdf",
		File:        strings.NewReader("%PDF-1.4"),
	})
	require.NoError(t, err)
	require.Equal(t, "/media/competition_books/matilda_book.pdf", book.File)

	mine, err := teacher.Competitions(ctx)
	require.NoError(t, err)
	require.Len(t, mine, 2)

	_, err = student.PostComment(ctx, apimodel.CommentRequest{Competition: created.ID, Book: book.ID, Type: apimodel.CommentNotes, Text: "Great"})
	require.NoError(t, err)

	submissions, err := teacher.Submissions(ctx)
	require.NoError(t, err)
	require.Len(t, submissions, 1)
	require.Equal(t, "Ada Reader", submissions[0].FullName)
	require.Len(t, submissions[0].Comments, 1)

	require.NoError(t, teacher.DeleteCompetition(ctx, created.ID))
	mine, err = teacher.Competitions(ctx)
	require.NoError(t, err)
	require.Len(t, mine, 1)

	submissions, err = teacher.Submissions(ctx)
	require.NoError(t, err)
	require.Empty(t, submissions)
}

func TestStaffRoutesRejectStudents(t *testing.T) {
	h := newHarness(t)
	h.registerStudent(t, "ada")
	_, store := h.login(t, "ada", "reading-is-fun")
	sess, _, err := store.Read()
	require.NoError(t, err)

	for _, route := range []string{server.RouteAdminCompetitions, server.RouteAdminMyComments, server.RouteTeacherRegistered} {
		req, err := http.NewRequest(http.MethodGet, h.srv.URL+route, nil)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+sess.AccessToken)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusForbidden, resp.StatusCode, route)
	}
}

func TestTeacherSeesRegistrationsForOwnCompetitions(t *testing.T) {
	h := newHarness(t)
	h.registerStudent(t, "ada")
	teacher, _ := h.login(t, server.DefaultTeacherUsername, teacherPassword)
	student, _ := h.login(t, "ada", "reading-is-fun")
	ctx := context.Background()

	none, err := teacher.Registrations(ctx)
	require.NoError(t, err)
	require.Empty(t, none)

	_, err = student.RegisterForCompetition(ctx, apimodel.RegistrationRequest{Competition: 1, StudentCart: "C-17", GroupNumber: "4B"})
	require.NoError(t, err)

	registrations, err := teacher.Registrations(ctx)
	require.NoError(t, err)
	require.Len(t, registrations, 1)
	require.Equal(t, 1, registrations[0].Competition)
	require.Equal(t, "C-17", registrations[0].StudentCart)
	require.Equal(t, "4B", registrations[0].GroupNumber)
	require.Equal(t, "Ada Reader", registrations[0].FullName)

	// Another teacher's competitions are not listed.
	other := &users.User{Username: "bea", Email: "bea@example.com", Role: apimodel.RoleTeacher, Verified: true}
	hash, err := users.HashPassword("another-teacher")
	require.NoError(t, err)
	other.PasswordHash = hash
	require.NoError(t, h.repos.Users.Create(other))
	otherTeacher, _ := h.login(t, "bea", "another-teacher")
	theirs, err := otherTeacher.Registrations(ctx)
	require.NoError(t, err)
	require.Empty(t, theirs)
}

func TestUnauthenticatedRequests(t *testing.T) {
	h := newHarness(t)

	tests := []struct {
		name   string
		header string
		status int
		detail string
	}{
		{"no header", "", http.StatusUnauthorized, "Authentication credentials were not provided."},
		{"garbage token", "Bearer not-a-jwt", http.StatusUnauthorized, "Given token not valid for any token type"},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized, "Given token not valid for any token type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(http.MethodGet, h.srv.URL+server.RouteStudentCompetitions, nil)
			require.NoError(t, err)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()
			require.Equal(t, tt.status, resp.StatusCode)

			var body map[string]string
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			require.Equal(t, tt.detail, body["detail"])
		})
	}
}

func TestExpiredAccessTokenIsRefreshed(t *testing.T) {
	// The clock is skewed an hour back while logging in so the issued access
	// token has already expired once the skew is removed.
	var skew atomic.Int64
	skew.Store(int64(-time.Hour))
	token.NowTimeFunc = func() time.Time { return time.Now().Add(time.Duration(skew.Load())) }
	t.Cleanup(func() { token.NowTimeFunc = time.Now })

	h := newHarness(t)
	a, store := h.login(t, server.DefaultTeacherUsername, teacherPassword)
	skew.Store(0)

	before, _, err := store.Read()
	require.NoError(t, err)

	list, err := a.StudentCompetitions(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)

	after, ok, err := store.Read()
	require.NoError(t, err)
	require.True(t, ok)
	require.NotEqual(t, before.AccessToken, after.AccessToken)
	require.Equal(t, before.RefreshToken, after.RefreshToken)
	require.Equal(t, 1, store.Replaces)
}

func TestRevokedRefreshTokenExpiresSession(t *testing.T) {
	h := newHarness(t)
	a, store := h.login(t, server.DefaultTeacherUsername, teacherPassword)
	sess, _, err := store.Read()
	require.NoError(t, err)
	require.NoError(t, h.repos.RefreshGrants.Delete(sess.RefreshToken))

	// Replace the access token with one the server rejects.
	require.NoError(t, store.ReplaceAccess(sess.Generation, "expired.access.token"))

	_, err = a.StudentCompetitions(context.Background())
	require.ErrorIs(t, err, errors.ErrSessionExpired)
	_, ok, err := store.Read()
	require.NoError(t, err)
	require.False(t, ok)
}

func TestTokenVerify(t *testing.T) {
	h := newHarness(t)
	a, store := h.login(t, server.DefaultTeacherUsername, teacherPassword)
	sess, _, err := store.Read()
	require.NoError(t, err)

	require.NoError(t, a.VerifyToken(context.Background(), sess.AccessToken))

	err = a.VerifyToken(context.Background(), sess.AccessToken+"tampered")
	var httpErr *errors.HTTPError
	require.True(t, errors.As(err, &httpErr))
	require.Equal(t, http.StatusUnauthorized, httpErr.Status)
}

func TestPasswordResetWithOTP(t *testing.T) {
	h := newHarness(t)
	_, signedIn := h.login(t, server.DefaultTeacherUsername, teacherPassword)
	before, _, err := signedIn.Read()
	require.NoError(t, err)

	a, _ := h.newAPI(t)
	ctx := context.Background()

	msg, err := a.RequestPasswordReset(ctx, server.DefaultTeacherEmail)
	require.NoError(t, err)
	require.NotEmpty(t, msg.Message)

	body := h.mailer.last(t)
	code := body[len(body)-6:]

	_, err = a.ResetPassword(ctx, apimodel.OTPResetRequest{Email: server.DefaultTeacherEmail, OTP: "000000x", NewPassword: "new-password-1"})
	var validation *errors.ValidationError
	require.True(t, errors.As(err, &validation))
	require.NotEmpty(t, validation.Field("otp"))

	_, err = a.ResetPassword(ctx, apimodel.OTPResetRequest{Email: server.DefaultTeacherEmail, OTP: code, NewPassword: "new-password-1"})
	require.NoError(t, err)

	// Existing sessions are signed out.
	_, err = h.repos.RefreshGrants.Get(before.RefreshToken)
	require.ErrorIs(t, err, errors.ErrNotFound)

	_, err = a.Login(ctx, server.DefaultTeacherUsername, teacherPassword)
	require.Error(t, err)
	_, err = a.Login(ctx, server.DefaultTeacherUsername, "new-password-1")
	require.NoError(t, err)

	// The code is single use.
	_, err = a.ResetPassword(ctx, apimodel.OTPResetRequest{Email: server.DefaultTeacherEmail, OTP: code, NewPassword: "another-password"})
	var httpErr *errors.HTTPError
	require.True(t, errors.As(err, &httpErr))
	require.Equal(t, http.StatusBadRequest, httpErr.Status)
}

func TestUnknownEmailResetIsSilent(t *testing.T) {
	h := newHarness(t)
	a, _ := h.newAPI(t)

	before := len(h.mailer.messages)
	_, err := a.RequestPasswordReset(context.Background(), "nobody@example.com")
	require.NoError(t, err)
	require.Len(t, h.mailer.messages, before)
}

func TestHealthAndMetrics(t *testing.T) {
	h := newHarness(t)

	resp, err := http.Post(h.srv.URL+server.RouteAuthLogin, "application/json", bytes.NewBufferString(`{"username":"x","password":"y"}`))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, err = http.Get(h.srv.URL + server.RouteHealth)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(h.srv.URL + server.RouteMetrics)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), `result="failure"`)
}

func TestSeedingIsIdempotent(t *testing.T) {
	h := newHarness(t)
	_, err := server.New(config.New(), h.repos, server.WithMailer(h.mailer))
	require.NoError(t, err)

	list, err := h.repos.Competitions.ListCompetitions()
	require.NoError(t, err)
	require.Len(t, list, 1)
}
