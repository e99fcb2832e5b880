package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) initRoutes() {
	// AUTH
	s.RegisterRouteHandler("POST "+RouteAuthLogin, ChainMiddleware(s.LoginHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAuthRegister, ChainMiddleware(s.RegisterHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteTokenRefresh, ChainMiddleware(s.TokenRefreshHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteTokenVerify, ChainMiddleware(s.TokenVerifyHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteVerifyEmail, ChainMiddleware(s.VerifyEmailHandler(), s.APIMiddleware()...))

	// Password reset
	s.RegisterRouteHandler("POST "+RouteOTPRequestReset, ChainMiddleware(s.OTPRequestResetHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteOTPResetPassword, ChainMiddleware(s.OTPResetPasswordHandler(), s.APIMiddleware()...))

	// Student routes (require a valid access token)
	s.RegisterRouteHandler("GET "+RouteStudentCompetitions, ChainMiddleware(s.StudentCompetitionsHandler(), s.StudentMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteStudentCompetition, ChainMiddleware(s.StudentCompetitionHandler(), s.StudentMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteStudentCompetitions, ChainMiddleware(s.CompetitionRegisterHandler(), s.StudentMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteCompetitionRegister, ChainMiddleware(s.CompetitionRegisterHandler(), s.StudentMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteStudentComments, ChainMiddleware(s.StudentCommentsHandler(), s.StudentMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteStudentComments, ChainMiddleware(s.PostCommentHandler(), s.StudentMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteBookRating, ChainMiddleware(s.BookRatingsHandler(), s.StudentMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteBookRating, ChainMiddleware(s.RateBookHandler(), s.StudentMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteDailyPage, ChainMiddleware(s.DailyPagesHandler(), s.StudentMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteDailyPage, ChainMiddleware(s.LogPagesHandler(), s.StudentMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteAchievement, ChainMiddleware(s.AchievementsHandler(), s.StudentMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteNotification, ChainMiddleware(s.NotificationsHandler(), s.StudentMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteNotification, ChainMiddleware(s.PostNotificationHandler(), s.StudentMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteInbox, ChainMiddleware(s.InboxHandler(), s.StudentMiddleware()...))

	// Admin routes (teachers and admins)
	s.RegisterRouteHandler("GET "+RouteAdminCompetitions, ChainMiddleware(s.AdminCompetitionsHandler(), s.AdminMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAdminCompetitions, ChainMiddleware(s.AdminCreateCompetitionHandler(), s.AdminMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteAdminCompetition, ChainMiddleware(s.AdminCompetitionHandler(), s.AdminMiddleware()...))
	s.RegisterRouteHandler("DELETE "+RouteAdminCompetition, ChainMiddleware(s.AdminDeleteCompetitionHandler(), s.AdminMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAdminUploadBook, ChainMiddleware(s.UploadBookHandler(), s.AdminMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteAdminMyComments, ChainMiddleware(s.MyCommentsHandler(), s.AdminMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteTeacherRegistered, ChainMiddleware(s.TeacherRegistrationsHandler(), s.AdminMiddleware()...))

	s.RegisterRouteHandler("GET "+RouteMetrics, promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	s.RegisterRouteFunc("GET "+RouteHealth, s.HealthHandler())
}

func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
