package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	// Auth Routes
	RouteAuthLogin    = "/api/auth/login/"
	RouteAuthRegister = "/api/auth/register/"
	RouteTokenRefresh = "/api/token/refresh/"
	RouteTokenVerify  = "/api/token/verify/"
	RouteVerifyEmail  = "/api/verify-email/{uid}/{token}/"

	// Auth Routes - Password Reset
	RouteOTPRequestReset  = "/api/users/otp/request-reset/"
	RouteOTPResetPassword = "/api/users/otp/reset-password/"

	// Student Routes
	RouteStudentCompetitions = "/api/competitions-student/"
	RouteStudentCompetition  = "/api/competitions-student/{id}/"
	RouteCompetitionRegister = "/api/competition/register/"
	RouteStudentComments     = "/api/student-comments/"
	RouteBookRating          = "/api/book-rating/"
	RouteDailyPage           = "/api/daily-page/"
	RouteAchievement         = "/api/achievement/"
	RouteNotification        = "/api/notification/"
	RouteInbox               = "/api/inbox/"

	// Admin Routes
	RouteAdminCompetitions = "/api/competitions/"
	RouteAdminCompetition  = "/api/competitions/{id}/"
	RouteAdminUploadBook   = "/api/upload-book/"
	RouteAdminMyComments   = "/api/my-comments/"
	RouteTeacherRegistered = "/api/teacher/"

	// Operational Routes
	RouteMetrics = "/metrics"
	RouteHealth  = "/healthz"
)
