package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/jrsteele09/readcomp/apimodel"
	"github.com/jrsteele09/readcomp/client"
)

// Endpoint paths of the competition API.
const (
	PathLogin           = "/api/auth/login/"
	PathRegister        = "/api/auth/register/"
	PathTokenRefresh    = client.RefreshPath
	PathTokenVerify     = "/api/token/verify/"
	PathVerifyEmail     = "/api/verify-email/%s/%s/"
	PathOTPRequest      = "/api/users/otp/request-reset/"
	PathOTPReset        = "/api/users/otp/reset-password/"
	PathStudentComps    = "/api/competitions-student/"
	PathStudentComp     = "/api/competitions-student/%d/"
	PathStudentComments = "/api/student-comments/"
	PathBookRating      = "/api/book-rating/"
	PathDailyPage       = "/api/daily-page/"
	PathAchievement     = "/api/achievement/"
	PathInbox           = "/api/inbox/"
	PathNotification    = "/api/notification/"
	PathCompetitions    = "/api/competitions/"
	PathCompetition     = "/api/competitions/%d/"
	PathUploadBook      = "/api/upload-book/"
	PathMyComments      = "/api/my-comments/"
	PathTeacher         = "/api/teacher/"
)

// API is the typed surface of the competition server.
type API struct {
	client *client.Client
}

func New(c *client.Client) *API {
	return &API{client: c}
}

func (a *API) Client() *client.Client {
	return a.client
}

func (a *API) getJSON(ctx context.Context, req *client.Request, out any) error {
	return a.client.DoJSON(ctx, req, out)
}

func (a *API) sendJSON(ctx context.Context, method, path string, body, out any, skipAuth bool) error {
	req, err := client.NewJSONRequest(method, path, body)
	if err != nil {
		return err
	}
	req.SkipAuth = skipAuth
	return a.client.DoJSON(ctx, req, out)
}

// Login posts credentials. It does not touch the session store.
func (a *API) Login(ctx context.Context, username, password string) (*apimodel.LoginResponse, error) {
	var out apimodel.LoginResponse
	if err := a.sendJSON(ctx, http.MethodPost, PathLogin, apimodel.LoginRequest{Username: username, Password: password}, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *API) Register(ctx context.Context, req apimodel.RegisterRequest) (*apimodel.StatusResponse, error) {
	var out apimodel.StatusResponse
	if err := a.sendJSON(ctx, http.MethodPost, PathRegister, req, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

// VerifyToken asks the server whether token is valid.
func (a *API) VerifyToken(ctx context.Context, token string) error {
	return a.sendJSON(ctx, http.MethodPost, PathTokenVerify, apimodel.VerifyRequest{Token: token}, nil, true)
}

// VerifyEmail follows the confirmation link sent after registration.
func (a *API) VerifyEmail(ctx context.Context, uid, token string) (*apimodel.VerifyEmailResponse, error) {
	var out apimodel.VerifyEmailResponse
	req := client.NewRequest(http.MethodGet, fmt.Sprintf(PathVerifyEmail, uid, token)).WithoutAuth()
	if err := a.getJSON(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *API) RequestPasswordReset(ctx context.Context, email string) (*apimodel.MessageResponse, error) {
	var out apimodel.MessageResponse
	if err := a.sendJSON(ctx, http.MethodPost, PathOTPRequest, apimodel.OTPRequest{Email: email}, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *API) ResetPassword(ctx context.Context, req apimodel.OTPResetRequest) (*apimodel.MessageResponse, error) {
	var out apimodel.MessageResponse
	if err := a.sendJSON(ctx, http.MethodPost, PathOTPReset, req, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *API) StudentCompetitions(ctx context.Context) ([]apimodel.Competition, error) {
	var out []apimodel.Competition
	if err := a.getJSON(ctx, client.NewRequest(http.MethodGet, PathStudentComps), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (a *API) StudentCompetition(ctx context.Context, id int) (*apimodel.Competition, error) {
	var out apimodel.Competition
	if err := a.getJSON(ctx, client.NewRequest(http.MethodGet, fmt.Sprintf(PathStudentComp, id)), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RegisterForCompetition enrols the current user.
func (a *API) RegisterForCompetition(ctx context.Context, req apimodel.RegistrationRequest) (*apimodel.Registration, error) {
	var out apimodel.Registration
	if err := a.sendJSON(ctx, http.MethodPost, PathStudentComps, req, &out, false); err != nil {
		return nil, err
	}
	return &out, nil
}

// Comments lists comments, filtered by competition when competition > 0.
func (a *API) Comments(ctx context.Context, competition int) ([]apimodel.Comment, error) {
	req := client.NewRequest(http.MethodGet, PathStudentComments)
	if competition > 0 {
		req.WithQuery("competition", strconv.Itoa(competition))
	}
	var out []apimodel.Comment
	if err := a.getJSON(ctx, req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (a *API) PostComment(ctx context.Context, req apimodel.CommentRequest) (*apimodel.Comment, error) {
	var out apimodel.Comment
	if err := a.sendJSON(ctx, http.MethodPost, PathStudentComments, req, &out, false); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *API) Ratings(ctx context.Context) ([]apimodel.Rating, error) {
	var out []apimodel.Rating
	if err := a.getJSON(ctx, client.NewRequest(http.MethodGet, PathBookRating), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (a *API) Rate(ctx context.Context, req apimodel.RatingRequest) (*apimodel.Rating, error) {
	var out apimodel.Rating
	if err := a.sendJSON(ctx, http.MethodPost, PathBookRating, req, &out, false); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *API) DailyPages(ctx context.Context) ([]apimodel.DailyPage, error) {
	var out []apimodel.DailyPage
	if err := a.getJSON(ctx, client.NewRequest(http.MethodGet, PathDailyPage), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (a *API) LogPages(ctx context.Context, req apimodel.DailyPageRequest) (*apimodel.DailyPage, error) {
	var out apimodel.DailyPage
	if err := a.sendJSON(ctx, http.MethodPost, PathDailyPage, req, &out, false); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *API) Achievements(ctx context.Context) ([]apimodel.Achievement, error) {
	var out []apimodel.Achievement
	if err := a.getJSON(ctx, client.NewRequest(http.MethodGet, PathAchievement), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (a *API) Inbox(ctx context.Context) ([]apimodel.InboxEntry, error) {
	var out []apimodel.InboxEntry
	if err := a.getJSON(ctx, client.NewRequest(http.MethodGet, PathInbox), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (a *API) Notifications(ctx context.Context) ([]apimodel.Notification, error) {
	var out []apimodel.Notification
	if err := a.getJSON(ctx, client.NewRequest(http.MethodGet, PathNotification), &out); err != nil {
		return nil, err
	}
	return out, nil
}
