package main

import (
	"context"
	"os"
	"sync/atomic"
	"time"

	_ "qms/api/swagger" // swagger docs
	"qms/internal/database"
	"qms/internal/handler"
	"qms/internal/middleware"
	"qms/internal/notification"
	"qms/internal/repository"
	"qms/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           Quality Management API
// @version         1.0
// @description     Backend API for documents, audits, NCRs, CAPAs, suppliers, equipment and training.
// @host            localhost:8080
// @BasePath        /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := godotenv.Load("configs/.env"); err != nil {
		logrus.Info("No configs/.env file found or error loading it")
	}

	dbHost := envOr("DB_HOST", "localhost")
	dbPort := envOr("DB_PORT", "5432")
	dbUser := envOr("DB_USER", "postgres")
	dbPassword := envOr("DB_PASSWORD", "postgres")
	dbName := envOr("DB_NAME", "qms")
	dbSslMode := envOr("DB_SSLMODE", "disable")

	dsn := "postgres://" + dbUser + ":" + dbPassword + "@" + dbHost + ":" + dbPort + "/" + dbName + "?sslmode=" + dbSslMode

	db, err := database.NewConnection(dsn)
	if err != nil {
		logrus.WithError(err).Fatal("Database connection failed")
	}
	logrus.Info("Connected to PostgreSQL successfully.")

	middleware.InitPermissionMiddleware(db)

	// Notification hub with a process-wide event sequence
	var eventSeq atomic.Uint64
	hub := notification.NewHub(&eventSeq)
	go hub.Run()

	// Repositories
	txManager := repository.NewTransactionManager(db)
	userRepo := repository.NewUserRepository(db)
	auditLogRepo := repository.NewAuditLogRepository(db)
	evaluationRepo := repository.NewSupplierEvaluationRepository(db)
	settingRepo := repository.NewSettingRepository(db)
	tokenRepo := repository.NewAuditorTokenRepository(db)

	// Services
	userService := service.NewUserService(userRepo, db)
	roleService := service.NewRoleService(db)
	groupService := service.NewGroupService(db)
	tagService := service.NewTagService(db)
	documentService := service.NewDocumentService(db, hub)
	attachmentService := service.NewAttachmentService(db, envOr("UPLOAD_DIR", "uploads"))
	tokenService := service.NewAccessTokenService(tokenRepo, auditLogRepo, txManager)
	auditService := service.NewAuditService(db, hub)
	ncrService := service.NewNCRService(db, hub)
	capaService := service.NewCAPAService(db, hub)
	supplierService := service.NewSupplierService(db, evaluationRepo, auditLogRepo, txManager)
	equipmentService := service.NewEquipmentService(db, hub)
	orgService := service.NewOrgChartService(db)
	trainingService := service.NewTrainingService(db)
	settingService := service.NewSettingService(settingRepo, auditLogRepo, txManager)

	// Seed defaults on boot; existing rows are never overwritten
	seedCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := roleService.SeedDefaultRolesAndPermissions(seedCtx); err != nil {
		logrus.WithError(err).Fatal("Failed to seed roles and permissions")
	}
	if err := settingService.SeedDefaults(seedCtx); err != nil {
		logrus.WithError(err).Fatal("Failed to seed system settings")
	}
	cancel()

	router := gin.Default()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173"}
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Auditor-Token"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	router.Use(middleware.RateLimit(20, 40))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	// WebSocket endpoint for in-app notifications
	router.GET("/ws", func(c *gin.Context) {
		notification.ServeWs(hub, c, middleware.GetJWTSecret())
	})

	api := router.Group("/api")
	handler.NewUserHandler(userService).RegisterRoutes(api)
	handler.NewRoleHandler(roleService).RegisterRoutes(api)
	handler.NewGroupHandler(groupService).RegisterRoutes(api)
	handler.NewTagHandler(tagService).RegisterRoutes(api)
	handler.NewDocumentHandler(documentService).RegisterRoutes(api)
	handler.NewAttachmentHandler(attachmentService).RegisterRoutes(api)
	handler.NewAccessTokenHandler(tokenService).RegisterRoutes(api)
	handler.NewAuditHandler(auditService).RegisterRoutes(api)
	handler.NewNCRHandler(ncrService).RegisterRoutes(api)
	handler.NewCAPAHandler(capaService).RegisterRoutes(api)
	handler.NewSupplierHandler(supplierService).RegisterRoutes(api)
	handler.NewEquipmentHandler(equipmentService).RegisterRoutes(api)
	handler.NewOrgChartHandler(orgService).RegisterRoutes(api)
	handler.NewTrainingHandler(trainingService).RegisterRoutes(api)
	handler.NewSettingHandler(settingService).RegisterRoutes(api)
	handler.NewActivityHandler(auditLogRepo).RegisterRoutes(api)

	external := router.Group("/external")
	handler.NewExternalHandler(
		tokenService,
		auditService,
		ncrService,
		capaService,
		documentService,
		supplierService,
		attachmentService,
	).RegisterRoutes(external)

	// Daily sweeps for overdue CAPAs and expired auditor tokens. Runs once at
	// startup so a restarted process catches up immediately.
	sweep := func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if n, err := capaService.NotifyOverdue(ctx); err != nil {
			logrus.WithError(err).Warn("Overdue CAPA sweep failed")
		} else if n > 0 {
			logrus.WithField("count", n).Info("Notified overdue CAPAs")
		}
		if n, err := tokenService.Cleanup(ctx, nil); err != nil {
			logrus.WithError(err).Warn("Auditor token cleanup failed")
		} else if n > 0 {
			logrus.WithField("count", n).Info("Deactivated expired auditor tokens")
		}
	}
	go func() {
		sweep()
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for range ticker.C {
			sweep()
		}
	}()

	port := envOr("PORT", "8080")
	logrus.WithField("port", port).Info("Server listening")
	if err := router.Run(":" + port); err != nil {
		logrus.WithError(err).Fatal("Server failed")
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
