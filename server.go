package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/bsm/redislock"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lendfocus/mortgage_backend/config"
	"github.com/lendfocus/mortgage_backend/models"
	"github.com/lendfocus/mortgage_backend/models/reports"
	"github.com/lendfocus/mortgage_backend/utils"
	"github.com/lendfocus/mortgage_backend/workflow"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const defaultPort = "8080"

// Define a struct to represent the rate limiter.
type RateLimiter struct {
	client *redis.Client
	limit  int64
	window time.Duration
}

type PubSubPushEnvelope struct {
	Message struct {
		Data []byte `json:"data,omitempty"`
		ID   string `json:"id"`
	} `json:"message"`
	Subscription string `json:"subscription"`
}

func getRedisClient(redisAddress string) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr: redisAddress,
	})
	return client
}

func pipelinePubSubHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var envelope PubSubPushEnvelope
		logger := config.GetLogger()

		// Redis lock is a best-effort optimization.
		// Reliability must not depend on Redis: we also serialize recompute via MySQL advisory locks in ProcessMessage().
		redisLock := config.GetRedisLock()

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			config.LogError(logger, "server.go", "pipelinePubSubHandler", "io.ReadAll", nil, err)
			// Malformed request body: ack/drop to avoid infinite retries.
			c.Status(http.StatusNoContent)
			return
		}

		// byte slice unmarshalling handles base64 decoding.
		if err := json.Unmarshal(body, &envelope); err != nil {
			config.LogError(logger, "server.go", "pipelinePubSubHandler", "Unmarshal body", body, err)
			// Malformed request: ack/drop to avoid infinite retries.
			c.Status(http.StatusNoContent)
			return
		}

		var m config.PubSubMessage
		if err := json.Unmarshal(envelope.Message.Data, &m); err != nil {
			config.LogError(logger, "server.go", "pipelinePubSubHandler", "Unmarshal pubsub message", envelope.Message.Data, err)
			// Malformed Pub/Sub payload: ack/drop to avoid infinite retries.
			c.Status(http.StatusNoContent)
			return
		}

		// Basic validation to avoid retry loops on poisoned messages.
		if m.ApplicationId <= 0 {
			config.LogError(logger, "server.go", "pipelinePubSubHandler", "Invalid pubsub message (missing required fields)", m, fmt.Errorf("application_id required"))
			c.Status(http.StatusNoContent)
			return
		}

		// Correlation ID propagation: prefer payload correlation_id; fall back to Pub/Sub message ID.
		correlationID := m.CorrelationId
		if correlationID == "" {
			correlationID = envelope.Message.ID
		}

		// Best-effort: try to obtain a lock for the application to avoid long in-request blocking.
		// If Redis is unavailable / lock cannot be obtained, continue anyway; ProcessMessage() will serialize safely.
		var lock *redislock.Lock
		if redisLock == nil {
			logger.WithFields(logrus.Fields{
				"field":          "pipelinePubSubHandler",
				"application_id": m.ApplicationId,
				"trigger":        m.Trigger,
				"message_id":     envelope.Message.ID,
			}).Warn("redis lock not ready; proceeding without redis lock")
		} else {
			lock, err = redisLock.Obtain(c.Request.Context(), fmt.Sprintf("lock:application:%d", m.ApplicationId), 30*time.Second, nil)
			if err == redislock.ErrNotObtained {
				logger.WithFields(logrus.Fields{
					"field":          "pipelinePubSubHandler",
					"application_id": m.ApplicationId,
					"trigger":        m.Trigger,
					"message_id":     envelope.Message.ID,
				}).Warn("could not obtain redis lock; proceeding without redis lock")
				lock = nil
			} else if err != nil {
				logger.WithFields(logrus.Fields{
					"field":          "pipelinePubSubHandler",
					"application_id": m.ApplicationId,
					"trigger":        m.Trigger,
					"message_id":     envelope.Message.ID,
				}).Warn("error obtaining redis lock; proceeding without redis lock: " + err.Error())
				lock = nil
			}
		}
		defer func() {
			if lock == nil {
				return
			}
			if releaseErr := lock.Release(c.Request.Context()); releaseErr != nil {
				logger.WithFields(logrus.Fields{
					"field":          "pipelinePubSubHandler",
					"application_id": m.ApplicationId,
					"message_id":     envelope.Message.ID,
				}).Warn("failed to release redis lock: " + releaseErr.Error())
			}
		}()

		// Process the message
		ctx := context.WithValue(c.Request.Context(), utils.ContextKeyUserId, 0)
		ctx = context.WithValue(ctx, utils.ContextKeyUserName, "System")
		ctx = utils.SetCorrelationIdInContext(ctx, correlationID)
		if err := ProcessMessage(ctx, logger, m); err != nil {
			logger.WithFields(logrus.Fields{
				"field":          "pipelinePubSubHandler",
				"application_id": m.ApplicationId,
				"trigger":        m.Trigger,
				"message_id":     envelope.Message.ID,
				"correlation_id": correlationID,
			}).Error("pubsub processing failed: " + err.Error())
			// Non-2xx tells Pub/Sub to retry (and potentially route to DLQ).
			c.Status(http.StatusInternalServerError)
			return
		}

		// Success: ack.
		c.Status(http.StatusNoContent)
	}
}

// sessionMiddleware extracts the bearer token (header "token") and, when
// valid, attaches the operator's id and role to the request context.
// Handlers that require auth check the context themselves.
func sessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := strings.TrimSpace(c.GetHeader("token"))
		if tokenString == "" {
			c.Next()
			return
		}
		token, err := utils.JwtValidate(tokenString)
		if err != nil || !token.Valid {
			c.Next()
			return
		}
		claims, ok := token.Claims.(*utils.JwtCustomClaim)
		if !ok {
			c.Next()
			return
		}
		ctx := utils.SetUserIdInContext(c.Request.Context(), claims.ID)
		ctx = utils.SetIsAdminInContext(ctx, claims.Role == string(models.UserRoleAdmin))
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func requireOperator(c *gin.Context) (int, bool) {
	userId, ok := utils.GetUserIdFromContext(c.Request.Context())
	if !ok || userId <= 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return 0, false
	}
	return userId, true
}

func requireAdmin(c *gin.Context) bool {
	if _, ok := requireOperator(c); !ok {
		return false
	}
	isAdmin, ok := utils.GetIsAdminFromContext(c.Request.Context())
	if !ok || !isAdmin {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return false
	}
	return true
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func loginHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
		token, err := models.Login(c.Request.Context(), req.Username, req.Password)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"token": token})
	}
}

func createApplicationHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := requireOperator(c); !ok {
			return
		}
		var input models.NewApplicationInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		app, err := models.CreateApplication(c.Request.Context(), &input)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		cid, _ := utils.GetCorrelationIdFromContext(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{
			"application_id":     app.ID,
			"application_number": app.ApplicationNumber,
			"status":             app.Status,
			"correlation_id":     cid,
		})
	}
}

func attachDocumentHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := requireOperator(c); !ok {
			return
		}
		applicationId, err := strconv.Atoi(c.Param("id"))
		if err != nil || applicationId <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid application id"})
			return
		}
		var input models.NewDocument
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		input.ApplicationId = applicationId
		document, err := models.AttachDocument(c.Request.Context(), &input)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"document_id":         document.ID,
			"document_type":       document.DocumentType,
			"verification_status": document.VerificationStatus,
		})
	}
}

type signUploadRequest struct {
	DocumentType string `json:"document_type" binding:"required"`
	FileName     string `json:"file_name" binding:"required"`
	MimeType     string `json:"mime_type" binding:"required"`
	Size         int64  `json:"size" binding:"required"`
}

const maxDocumentUploadBytes int64 = 20 * 1024 * 1024

var documentMimeTypes = map[string]bool{
	"application/pdf": true,
	"image/jpeg":      true,
	"image/png":       true,
}

// signDocumentUploadHandler hands out a V4 signed PUT URL so borrowers
// upload document files straight to the bucket. The object key is
// namespaced by application number and document type; the follow-up
// attach call records the resulting access URL.
func signDocumentUploadHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := requireOperator(c); !ok {
			return
		}
		applicationId, err := strconv.Atoi(c.Param("id"))
		if err != nil || applicationId <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid application id"})
			return
		}
		var req signUploadRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
		if req.Size > maxDocumentUploadBytes {
			c.JSON(http.StatusBadRequest, gin.H{"error": "file size exceeds 20MB limit"})
			return
		}
		if !documentMimeTypes[req.MimeType] {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported file type"})
			return
		}
		ext := strings.ToLower(filepath.Ext(req.FileName))
		if ext == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "file extension is required"})
			return
		}

		app, err := models.GetApplication(c.Request.Context(), applicationId)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		objectKey := path.Join(app.ApplicationNumber, req.DocumentType, uuid.New().String()+ext)
		signed, err := utils.SignUpload(c.Request.Context(), objectKey, req.MimeType, 15*time.Minute)
		if err != nil {
			config.LogError(config.GetLogger(), "server.go", "signDocumentUploadHandler", "SignUpload", objectKey, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to sign upload"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"upload_url": signed.UploadURL,
			"method":     signed.Method,
			"headers":    signed.Headers,
			"object_key": signed.ObjectKey,
			"access_url": signed.AccessURL,
			"expires_at": signed.ExpiresAt.UTC().Format(time.RFC3339),
		})
	}
}

type transitionRequest struct {
	To string `json:"to" binding:"required"`
}

func transitionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userId, ok := requireOperator(c)
		if !ok {
			return
		}
		applicationId, err := strconv.Atoi(c.Param("id"))
		if err != nil || applicationId <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid application id"})
			return
		}
		var req transitionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}

		logger := config.GetLogger()
		ctx := c.Request.Context()
		db := config.GetDB()
		var applied bool
		err = db.Transaction(func(tx *gorm.DB) error {
			var txErr error
			applied, txErr = workflow.RequestTransitionById(ctx, tx.WithContext(ctx), logger,
				applicationId, models.ApplicationStatus(req.To), userId, "Operator")
			return txErr
		})
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"application_id": applicationId,
			"requested":      req.To,
			"applied":        applied,
		})
	}
}

func grantConditionalApprovalHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userId, ok := requireOperator(c)
		if !ok {
			return
		}
		applicationId, err := strconv.Atoi(c.Param("id"))
		if err != nil || applicationId <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid application id"})
			return
		}

		logger := config.GetLogger()
		ctx := c.Request.Context()
		db := config.GetDB()
		var conditions []*models.LoanCondition
		err = db.Transaction(func(tx *gorm.DB) error {
			var txErr error
			conditions, txErr = workflow.GrantConditionalApproval(ctx, tx.WithContext(ctx), logger,
				applicationId, userId, "Operator")
			return txErr
		})
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"application_id": applicationId,
			"conditions":     conditions,
		})
	}
}

type waiveConditionRequest struct {
	WaivedBy string `json:"waived_by" binding:"required"`
}

func conditionActionHandler(action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId, ok := requireOperator(c)
		if !ok {
			return
		}
		applicationId, err := strconv.Atoi(c.Param("id"))
		if err != nil || applicationId <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid application id"})
			return
		}
		conditionId, err := strconv.Atoi(c.Param("conditionId"))
		if err != nil || conditionId <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid condition id"})
			return
		}

		logger := config.GetLogger()
		ctx := c.Request.Context()
		db := config.GetDB()
		err = db.Transaction(func(tx *gorm.DB) error {
			if action == "waive" {
				var req waiveConditionRequest
				if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
					return errors.New("waived_by is required")
				}
				return workflow.WaiveCondition(ctx, tx.WithContext(ctx), logger,
					applicationId, conditionId, req.WaivedBy, userId)
			}
			return workflow.SatisfyCondition(ctx, tx.WithContext(ctx), logger,
				applicationId, conditionId, userId, "Operator")
		})
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"application_id": applicationId,
			"condition_id":   conditionId,
			"action":         action,
		})
	}
}

func snapshotHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := requireOperator(c); !ok {
			return
		}
		applicationId, err := strconv.Atoi(c.Param("id"))
		if err != nil || applicationId <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid application id"})
			return
		}
		fields, err := models.ApplicationSnapshot(c.Request.Context(), applicationId)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"snapshot": fields})
	}
}

func slaReportHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := requireOperator(c); !ok {
			return
		}
		entries, err := reports.GetSLAReport(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"entries": entries})
	}
}

func pipelineSummaryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := requireOperator(c); !ok {
			return
		}
		summary, err := reports.GetPipelineSummary(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, summary)
	}
}

func exportSLAHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := requireOperator(c); !ok {
			return
		}
		f, err := reports.ExportSLAExcel(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		defer f.Close()
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Header("Content-Disposition", "attachment; filename=sla.xlsx")
		if err := f.Write(c.Writer); err != nil {
			c.Status(http.StatusInternalServerError)
		}
	}
}

func exportSnapshotHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := requireOperator(c); !ok {
			return
		}
		applicationId, err := strconv.Atoi(c.Param("id"))
		if err != nil || applicationId <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid application id"})
			return
		}
		f, err := reports.ExportSnapshotExcel(c.Request.Context(), applicationId)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		defer f.Close()
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=application-%d.xlsx", applicationId))
		if err := f.Write(c.Writer); err != nil {
			c.Status(http.StatusInternalServerError)
		}
	}
}

type outboxReplayRequest struct {
	RecordId int `json:"record_id"`
}

func outboxReplayHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !requireAdmin(c) {
			return
		}

		var req outboxReplayRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
		if req.RecordId <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "record_id is required"})
			return
		}

		db := config.GetDB()
		if db == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "db is nil"})
			return
		}
		now := time.Now().UTC()
		if err := db.WithContext(c.Request.Context()).
			Model(&models.PubSubMessageRecord{}).
			Where("id = ?", req.RecordId).
			Updates(map[string]interface{}{
				"publish_status":     models.OutboxPublishStatusFailed,
				"next_attempt_at":    &now,
				"locked_at":          nil,
				"locked_by":          nil,
				"last_publish_error": nil,
			}).Error; err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"record_id":       req.RecordId,
			"publish_status":  models.OutboxPublishStatusFailed,
			"next_attempt_at": now.Format(time.RFC3339Nano),
		})
	}
}

func customNotFoundHandler(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
}

func main() {
	port := os.Getenv("API_PORT")
	if port == "" {
		// Cloud Run standard env var.
		port = os.Getenv("PORT")
	}
	if port == "" {
		port = defaultPort
	}

	logger := config.GetLogger()

	// Shutdown coordination.
	// Cloud Run sends SIGTERM on revision shutdown; handle it for graceful drain.
	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	// Start the HTTP server ASAP so Cloud Run considers the revision healthy.
	// Until DB/Redis are ready, we return 503 for app endpoints.
	r := gin.New()
	// Correlation IDs: generate once per request and attach to context.
	r.Use(func(c *gin.Context) {
		cid := c.GetHeader("x-correlation-id")
		if cid == "" {
			cid = uuid.NewString()
		}
		c.Request = c.Request.WithContext(utils.SetCorrelationIdInContext(c.Request.Context(), cid))
		c.Next()
	})
	r.Use(func(c *gin.Context) {
		// Always allow Cloud Run startup probe.
		if c.Request.URL.Path == "/healthz" {
			c.Status(http.StatusNoContent)
			c.Abort()
			return
		}
		// Gate critical endpoints on dependency readiness.
		if config.GetDB() == nil || config.GetRedisDB() == nil {
			c.AbortWithStatus(http.StatusServiceUnavailable)
			return
		}
		c.Next()
	})

	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	corsConfig := cors.DefaultConfig()
	// Production-safe CORS:
	// - In production, require explicit allowlist via CORS_ALLOWED_ORIGINS (comma-separated).
	// - In non-production, allow all (developer convenience).
	allowedOrigins := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production") {
		if allowedOrigins == "" {
			// Safer default: deny all if not configured in production.
			corsConfig.AllowOrigins = []string{}
		} else {
			corsConfig.AllowOrigins = splitAndTrim(allowedOrigins)
		}
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AddAllowMethods("GET", "POST", "PUT", "DELETE", "OPTIONS")
	corsConfig.AddAllowHeaders("token", "Origin", "Content-Type", "Authorization")
	corsConfig.AddExposeHeaders("Content-Length")
	corsConfig.AllowCredentials = true

	r.Use(cors.New(corsConfig))

	// Optional rate limiting (recommended for production).
	// Env:
	// - RATE_LIMIT_ENABLED=true
	// - RATE_LIMIT_WINDOW_SECONDS=60
	// - RATE_LIMIT_MAX_REQUESTS=600
	if strings.EqualFold(strings.TrimSpace(os.Getenv("RATE_LIMIT_ENABLED")), "true") {
		client := getRedisClient(os.Getenv("REDIS_ADDRESS"))
		limit := int64(600)
		if v := strings.TrimSpace(os.Getenv("RATE_LIMIT_MAX_REQUESTS")); v != "" {
			if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
				limit = n
			}
		}
		windowSec := int64(60)
		if v := strings.TrimSpace(os.Getenv("RATE_LIMIT_WINDOW_SECONDS")); v != "" {
			if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
				windowSec = n
			}
		}
		rateLimiter := NewRateLimiter(client, limit, time.Duration(windowSec)*time.Second)
		r.Use(rateLimiter.RateLimitMiddleware)
	}

	r.Use(sessionMiddleware())
	r.Use(customErrorLogger(logger))
	r.Use(gin.Recovery())

	r.POST("/auth/login", loginHandler())
	r.POST("/pubsub/pipeline", pipelinePubSubHandler())
	r.POST("/applications", createApplicationHandler())
	r.POST("/applications/:id/documents", attachDocumentHandler())
	r.POST("/applications/:id/documents/sign-upload", signDocumentUploadHandler())
	r.POST("/applications/:id/transition", transitionHandler())
	r.POST("/applications/:id/conditional-approval", grantConditionalApprovalHandler())
	r.POST("/applications/:id/conditions/:conditionId/satisfy", conditionActionHandler("satisfy"))
	r.POST("/applications/:id/conditions/:conditionId/waive", conditionActionHandler("waive"))
	r.GET("/applications/:id/snapshot", snapshotHandler())
	r.GET("/reports/sla", slaReportHandler())
	r.GET("/reports/pipeline-summary", pipelineSummaryHandler())
	r.GET("/exports/sla.xlsx", exportSLAHandler())
	r.GET("/exports/applications/:id", exportSnapshotHandler())
	// Ops tooling (admin only): replay outbox messages that were marked DEAD/FAILED.
	r.POST("/internal/ops/outbox/replay", outboxReplayHandler())
	r.NoRoute(customNotFoundHandler)

	// Start listening immediately (Cloud Run startup probe is TCP based).
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		// ListenAndServe returns http.ErrServerClosed on graceful shutdown.
		serverErrCh <- srv.ListenAndServe()
	}()

	// Connect dependencies after the port is open.
	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()

	// Now DB is ready; run migrations.
	db := config.GetDB()
	sqlDB, _ := db.DB()
	defer func() {
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
	}()
	// IMPORTANT: AutoMigrate can run DDL that blocks tables and causes 504/502 timeouts.
	// Allow disabling migrations on startup (run them as a separate job instead).
	if !strings.EqualFold(strings.TrimSpace(os.Getenv("SKIP_MIGRATIONS")), "true") {
		models.MigrateTable()
	} else {
		logger.WithFields(logrus.Fields{"field": "migrations"}).Warn("SKIP_MIGRATIONS=true; skipping AutoMigrate on startup")
	}

	// Start outbox dispatcher (publishes AFTER commit).
	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	defer cancelWorkers()
	go workflow.NewOutboxDispatcher(db, logger).Run(workerCtx)
	if shouldRunDirectOutboxProcessor() {
		go NewOutboxDirectProcessor(db, logger).Run(workerCtx)
	}

	// Pull subscription worker (Cloud Run push can be used instead; see /pubsub/pipeline).
	if os.Getenv("PUBSUB_SUBSCRIPTION") != "" {
		if err := RunPipelineWorkflow(); err != nil {
			config.LogError(logger, "server.go", "main", "RunPipelineWorkflow", nil, err)
		}
	}

	// Set the session isolation level to READ COMMITTED
	for attempt := 1; ; attempt++ {
		err := db.Exec("SET SESSION TRANSACTION ISOLATION LEVEL READ COMMITTED").Error
		if err == nil {
			break
		}
		sleep := time.Second * time.Duration(1<<minInt(attempt, 5))
		if sleep > 30*time.Second {
			sleep = 30 * time.Second
		}
		logger.WithFields(logrus.Fields{
			"field":   "database",
			"attempt": attempt,
		}).Warn("failed to set isolation level; retrying in " + sleep.String() + ": " + err.Error())
		time.Sleep(sleep)
	}

	logger.WithFields(logrus.Fields{
		"info": "Connection Established",
	}).Info("listening on http://localhost:", port, "/")
	log.Println("Server started successfully")

	// Block until shutdown or server error.
	select {
	case <-sigCtx.Done():
		// graceful shutdown below
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithFields(logrus.Fields{"field": "http"}).Error("server stopped unexpectedly: " + err.Error())
		}
	}

	// Stop background workers first so they don't start new work while we're draining.
	cancelWorkers()

	// Drain HTTP requests.
	shutdownTimeout := 30 * time.Second
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithFields(logrus.Fields{"field": "http"}).Error("graceful shutdown failed: " + err.Error())
	}

	// Close Redis (best-effort).
	if rdb := config.GetRedisDB(); rdb != nil {
		_ = rdb.Close()
	}
}

// customErrorLogger is a custom Gin middleware that logs only errors
func customErrorLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		// Only log when there are errors
		if len(c.Errors) > 0 {
			logger.Error(c.Errors.String())
		}
	}
}

// Initialize a new RateLimiter instance.
func NewRateLimiter(client *redis.Client, limit int64, window time.Duration) *RateLimiter {
	return &RateLimiter{
		client: client,
		limit:  limit,
		window: window,
	}
}

// Middleware function to check rate limits.
func (rl *RateLimiter) RateLimitMiddleware(c *gin.Context) {
	// Get the IP address or user identifier from the request.
	key := c.ClientIP() // Assuming IP-based rate limiting

	// Check if the key exists in Redis.
	exists, err := rl.client.Exists(c.Request.Context(), key).Result()
	if err != nil {
		c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	// If the key doesn't exist, create it and set expiry.
	if exists == 0 {
		err := rl.client.Set(c.Request.Context(), key, 1, rl.window).Err()
		if err != nil {
			c.AbortWithError(http.StatusInternalServerError, err)
			return
		}
		c.Next()
		return
	}

	// If the key exists, get the current count.
	count, err := rl.client.Incr(c.Request.Context(), key).Result()
	if err != nil {
		c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	// If the count exceeds the limit, return an error response.
	if count > rl.limit {
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"error": fmt.Sprintf("Rate limit exceeded. Try again in %d seconds", int(rl.window.Seconds())),
		})
		return
	}

	c.Next()
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func splitAndTrim(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
