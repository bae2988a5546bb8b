package server

import (
	"context"
	"net/http"
	"slices"
	"time"

	"anoa.com/studentms/internal/config"
	"anoa.com/studentms/internal/entity"
	"anoa.com/studentms/internal/middleware"
	"anoa.com/studentms/pkg/ratelimiter"
	"anoa.com/studentms/pkg/storage"

	accountHttp "anoa.com/studentms/internal/modules/account/delivery/http"
	accountRepo "anoa.com/studentms/internal/modules/account/repository"
	accountService "anoa.com/studentms/internal/modules/account/service"

	attendanceHttp "anoa.com/studentms/internal/modules/attendance/delivery/http"
	attendanceRepo "anoa.com/studentms/internal/modules/attendance/repository"
	attendanceService "anoa.com/studentms/internal/modules/attendance/service"

	catalogHttp "anoa.com/studentms/internal/modules/catalog/delivery/http"
	catalogRepo "anoa.com/studentms/internal/modules/catalog/repository"
	catalogService "anoa.com/studentms/internal/modules/catalog/service"

	feedbackHttp "anoa.com/studentms/internal/modules/feedback/delivery/http"
	feedbackRepo "anoa.com/studentms/internal/modules/feedback/repository"
	feedbackService "anoa.com/studentms/internal/modules/feedback/service"

	leaveHttp "anoa.com/studentms/internal/modules/leave/delivery/http"
	leaveRepo "anoa.com/studentms/internal/modules/leave/repository"
	leaveService "anoa.com/studentms/internal/modules/leave/service"

	notiHttp "anoa.com/studentms/internal/modules/notification/delivery/http"
	notifRepo "anoa.com/studentms/internal/modules/notification/repository"
	notifService "anoa.com/studentms/internal/modules/notification/service"

	provisioningRepo "anoa.com/studentms/internal/modules/provisioning/repository"
	provisioningService "anoa.com/studentms/internal/modules/provisioning/service"

	resultHttp "anoa.com/studentms/internal/modules/result/delivery/http"
	resultRepo "anoa.com/studentms/internal/modules/result/repository"
	resultService "anoa.com/studentms/internal/modules/result/service"

	staffHttp "anoa.com/studentms/internal/modules/staff/delivery/http"
	staffRepo "anoa.com/studentms/internal/modules/staff/repository"
	staffService "anoa.com/studentms/internal/modules/staff/service"

	studentHttp "anoa.com/studentms/internal/modules/student/delivery/http"
	studentRepo "anoa.com/studentms/internal/modules/student/repository"
	studentService "anoa.com/studentms/internal/modules/student/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Server struct {
	engine      *gin.Engine
	db          *gorm.DB
	redisClient *redis.Client
	accounts    accountService.AccountService
}

// NewServer wires every module. redisClient and photos may be nil, which
// disables rate limiting, live notifications and photo uploads.
func NewServer(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, photos storage.PhotoStorage) *Server {
	now := time.Now

	// Student numbering is shared by provisioning and profile updates.
	studentRepository := studentRepo.NewStudentRepository(db)
	enrollment := studentService.NewEnrollment(cfg.RegistrationPrefix, now)
	studentSvc := studentService.NewStudentService(studentRepository, enrollment, photos)
	studentHandler := studentHttp.NewStudentHandler(studentSvc)

	provisioner := provisioningService.NewProvisioner(
		provisioningRepo.NewProfileRepository(db),
		studentRepository,
		enrollment,
		provisioningService.Defaults{
			CourseID:        cfg.DefaultCourseID,
			SessionPeriodID: cfg.DefaultSessionPeriodID,
		},
		now,
	)

	accountRepository := accountRepo.NewAccountRepository(db)
	accountSvc := accountService.NewAccountService(accountRepository, provisioner, photos, accountService.TokenConfig{
		Secret: cfg.JWTSecret,
		TTL:    cfg.JWTTTL,
	})
	accountHandler := accountHttp.NewAccountHandler(accountSvc)

	staffSvc := staffService.NewStaffService(staffRepo.NewStaffRepository(db), photos, now)
	staffHandler := staffHttp.NewStaffHandler(staffSvc)

	catalogSvc := catalogService.NewCatalogService(catalogRepo.NewCatalogRepository(db))
	catalogHandler := catalogHttp.NewCatalogHandler(catalogSvc)

	attendanceSvc := attendanceService.NewAttendanceService(attendanceRepo.NewAttendanceRepository(db))
	attendanceHandler := attendanceHttp.NewAttendanceHandler(attendanceSvc)

	limiter := ratelimiter.New(redisClient, cfg.RateLimitSubmission)
	leaveSvc := leaveService.NewLeaveService(leaveRepo.NewLeaveRepository(db), limiter)
	leaveHandler := leaveHttp.NewLeaveHandler(leaveSvc)

	feedbackSvc := feedbackService.NewFeedbackService(feedbackRepo.NewFeedbackRepository(db), now)
	feedbackHandler := feedbackHttp.NewFeedbackHandler(feedbackSvc)

	// Notification Module
	notificationSvc := notifService.NewNotificationService(
		notifRepo.NewNotificationRepository(db),
		notifService.NewRedisPublisher(redisClient),
	)
	notificationHandler := notiHttp.NewNotificationHandler(notificationSvc, redisClient, allowOrigin(cfg.Origins()))

	resultSvc := resultService.NewResultService(resultRepo.NewResultRepository(db))
	resultHandler := resultHttp.NewResultHandler(resultSvc)

	router := gin.New()

	setupCORS(router, cfg.Origins())

	router.Use(gin.Recovery())
	router.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	router.Use(securityHeaders())

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/healthz", healthz(db, redisClient))

	authMiddleware := middleware.NewAuthMiddleware(accountRepository, cfg.JWTSecret)

	api := router.Group("/api")

	// Public routes (no auth required)
	api.POST("/auth/login", accountHandler.Login)

	protected := api.Group("")
	protected.Use(authMiddleware.RequireAuth())
	{
		anyone := protected.Group("", authMiddleware.RequireRole())
		{
			anyone.GET("/me", accountHandler.Me)
			anyone.GET("/courses", catalogHandler.ListCourses)
			anyone.GET("/courses/:id", catalogHandler.GetCourse)
			anyone.GET("/subjects", catalogHandler.ListSubjects)
			anyone.GET("/subjects/:id", catalogHandler.GetSubject)
			anyone.GET("/sessions", catalogHandler.ListSessionPeriods)
			anyone.GET("/sessions/:id", catalogHandler.GetSessionPeriod)
		}

		// Admin routes
		admin := protected.Group("/admin", authMiddleware.RequireRole(entity.RoleAdmin))
		{
			admin.GET("/accounts", accountHandler.ListAccounts)
			admin.POST("/accounts", accountHandler.CreateAccount)
			admin.GET("/accounts/:id", accountHandler.GetAccount)
			admin.PUT("/accounts/:id", accountHandler.UpdateAccount)
			admin.DELETE("/accounts/:id", accountHandler.DeleteAccount)

			admin.POST("/courses", catalogHandler.CreateCourse)
			admin.PUT("/courses/:id", catalogHandler.UpdateCourse)
			admin.DELETE("/courses/:id", catalogHandler.DeleteCourse)
			admin.POST("/subjects", catalogHandler.CreateSubject)
			admin.PUT("/subjects/:id", catalogHandler.UpdateSubject)
			admin.DELETE("/subjects/:id", catalogHandler.DeleteSubject)
			admin.POST("/sessions", catalogHandler.CreateSessionPeriod)
			admin.PUT("/sessions/:id", catalogHandler.UpdateSessionPeriod)
			admin.DELETE("/sessions/:id", catalogHandler.DeleteSessionPeriod)

			admin.GET("/students", studentHandler.ListStudents)
			admin.GET("/students/:id", studentHandler.GetStudent)
			admin.PUT("/students/:id", studentHandler.UpdateStudent)
			admin.DELETE("/students/:id", studentHandler.DeleteStudent)

			admin.GET("/staff", staffHandler.ListStaff)
			admin.GET("/staff/:id", staffHandler.GetStaff)
			admin.PUT("/staff/:id", staffHandler.UpdateStaff)
			admin.PUT("/staff/:id/subjects", staffHandler.AssignSubjects)

			admin.GET("/leaves/:kind", leaveHandler.ListLeaves)
			admin.PUT("/leaves/:kind/:id/status", leaveHandler.DecideLeave)
			admin.GET("/feedback/:kind", feedbackHandler.ListFeedback)
			admin.PUT("/feedback/:kind/:id/reply", feedbackHandler.ReplyFeedback)
			admin.POST("/notifications/:kind", notificationHandler.SendNotification)
		}

		// Staff routes; administrators may act on any subject.
		teaching := protected.Group("", authMiddleware.RequireRole(entity.RoleStaff, entity.RoleAdmin))
		{
			teaching.POST("/attendance", attendanceHandler.TakeAttendance)
			teaching.GET("/attendance", attendanceHandler.ListAttendance)
			teaching.GET("/attendance/:id/records", attendanceHandler.GetRecords)
			teaching.PUT("/attendance/:id/records", attendanceHandler.UpdateRecords)

			teaching.PUT("/results", resultHandler.UpsertResult)
			teaching.GET("/results/subject/:subject_id", resultHandler.ListBySubject)
			teaching.DELETE("/results/:id", resultHandler.DeleteResult)
		}

		// Student routes
		student := protected.Group("", authMiddleware.RequireRole(entity.RoleStudent))
		{
			student.GET("/attendance/me", attendanceHandler.MySummary)
			student.GET("/results/me", resultHandler.MyResults)
		}

		// Routes shared by students and staff
		members := protected.Group("", authMiddleware.RequireRole(entity.RoleStudent, entity.RoleStaff))
		{
			members.POST("/leaves", leaveHandler.ApplyLeave)
			members.GET("/leaves/me", leaveHandler.MyLeaves)
			members.POST("/feedback", feedbackHandler.SubmitFeedback)
			members.GET("/feedback/me", feedbackHandler.MyFeedback)

			members.GET("/notifications/me", notificationHandler.GetNotifications)
			members.GET("/notifications/unread-count", notificationHandler.UnreadCount)
			members.PUT("/notifications/:id/read", notificationHandler.MarkAsRead)
			members.PUT("/notifications/read-all", notificationHandler.MarkAllAsRead)
			members.GET("/notifications/ws", notificationHandler.HandleWebSocket)
		}
	}

	return &Server{
		engine:      router,
		db:          db,
		redisClient: redisClient,
		accounts:    accountSvc,
	}
}

// Accounts exposes account creation for startup seeding.
func (s *Server) Accounts() accountService.AccountService {
	return s.accounts
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) Run(addr string) error {
	return s.engine.Run(addr)
}

func setupCORS(router *gin.Engine, origins []string) {
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
}

func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		// Only add HSTS in production
		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}

// allowOrigin accepts websocket handshakes from the CORS origins. Clients
// that send no Origin header are not browsers and are let through.
func allowOrigin(origins []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || slices.Contains(origins, origin)
	}
}

func healthz(db *gorm.DB, redisClient *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		dbHealthy := false
		if sqlDB, err := db.DB(); err == nil {
			dbHealthy = sqlDB.PingContext(ctx) == nil
		}

		body := gin.H{"status": "ok", "db": dbHealthy}
		status := http.StatusOK
		if redisClient != nil {
			redisHealthy := redisClient.Ping(ctx).Err() == nil
			body["redis"] = redisHealthy
			if !redisHealthy {
				status = http.StatusServiceUnavailable
			}
		}
		if !dbHealthy {
			status = http.StatusServiceUnavailable
		}
		if status != http.StatusOK {
			body["status"] = "degraded"
		}
		c.JSON(status, body)
	}
}
