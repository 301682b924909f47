package app

import (
	"os"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"leaveflow/internal/attendance"
	"leaveflow/internal/audit"
	"leaveflow/internal/clockin"
	"leaveflow/internal/employee"
	"leaveflow/internal/leave"
	"leaveflow/internal/messaging/kafka"
	"leaveflow/internal/middleware"
	"leaveflow/internal/notification"
	"leaveflow/internal/rbac"
	"leaveflow/internal/reimbursement"
	"leaveflow/internal/shared/counter"
	slackgw "leaveflow/internal/slack"
)

func registerModules(
	router *gin.Engine,
	gormDB *gorm.DB,
	rdb *redis.Client,
) error {
	sqlDB, err := gormDB.DB()
	if err != nil {
		return err
	}

	// --- Repositories ---
	attendanceRepo := attendance.NewRepository(gormDB)
	auditRepo := audit.NewRepository(gormDB)
	clockinRepo := clockin.NewRepository(gormDB)
	employeeRepo := employee.NewRepository(gormDB)
	leaveRepo := leave.NewRepository(gormDB)
	outboxRepo := kafka.NewOutboxRepository(sqlDB)
	reimbursementRepo := reimbursement.NewRepository(gormDB)
	counterRepo := counter.NewRepository(gormDB)

	// --- RBAC Core ---
	rbacService, err := rbac.NewService()
	if err != nil {
		return err
	}

	// --- Notifications ---
	var notifier notification.Dispatcher = notification.Nop{}
	if token := os.Getenv("SLACK_BOT_TOKEN"); token != "" {
		notifier = notification.NewSlackDispatcher(token)
	} else {
		zap.L().Warn("SLACK_BOT_TOKEN not set, notifications disabled")
	}

	// --- Services ---
	attendanceService := attendance.NewService(sqlDB, attendanceRepo)
	employeeService := employee.NewService(sqlDB, employeeRepo, auditRepo)
	leaveService := leave.NewService(sqlDB, leaveRepo, employeeRepo, auditRepo, outboxRepo, counterRepo, notifier)
	clockinService := clockin.NewService(sqlDB, clockinRepo, employeeRepo, attendanceRepo, outboxRepo, counterRepo, notifier)
	reimbursementService := reimbursement.NewService(sqlDB, reimbursementRepo, employeeRepo, outboxRepo, counterRepo, notifier)

	// --- Slack gateway ---
	replayCache := slackgw.NewRedisReplayCache(rdb)
	verifier, err := slackgw.NewVerifier(os.Getenv("SLACK_SIGNING_SECRET"), replayCache)
	if err != nil {
		return err
	}
	gateway := slackgw.NewGateway(verifier, employeeRepo, leaveService)

	// --- Handlers ---
	attendanceHandler := attendance.NewHandler(attendanceService)
	auditHandler := audit.NewHandler(auditRepo)
	clockinHandler := clockin.NewHandler(clockinService)
	employeeHandler := employee.NewHandler(employeeService)
	leaveHandler := leave.NewHandler(leaveService)
	reimbursementHandler := reimbursement.NewHandler(reimbursementService)

	// --- Routes Registration ---
	api := router.Group("/api/v1")
	api.Use(middleware.RateLimitByIP(rate.Limit(20), 40))
	{
		attendance.RegisterRoutes(api, attendanceHandler, rbacService)
		audit.RegisterRoutes(api, auditHandler, rbacService)
		clockin.RegisterRoutes(api, clockinHandler, rbacService, rdb)
		employee.RegisterRoutes(api, employeeHandler, rbacService)
		leave.RegisterRoutes(api, leaveHandler, rbacService, rdb)
		reimbursement.RegisterRoutes(api, reimbursementHandler, rbacService, rdb)
		slackgw.RegisterRoutes(api, gateway)
	}

	return nil
}
