package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"campusattend/internal/attendance"
	"campusattend/internal/auth"
	"campusattend/internal/config"
	"campusattend/internal/geo"
	"campusattend/internal/httpmiddleware"
	"campusattend/internal/metrics"
	"campusattend/internal/queue"
	"campusattend/internal/store"
)

func main() {
	cfg := config.Load()

	if cfg.Env == "production" || cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg); err != nil {
		log.Fatalf("http server failed: %v", err)
	}
}

func runHTTP(cfg config.App) error {
	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	redisClient := store.NewRedis(cfg.RedisAddr)

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		log.Println("memory queue backend is single-process: a separate worker will not see published records, use the redis backend in deployments")
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, queue.DefaultKey)
	}

	repo := attendance.NewRepository(db.Client)
	svc := attendance.NewService(repo)

	if cfg.SeedCourses {
		if err := svc.SeedCourses(context.Background()); err != nil {
			log.Printf("warning: course seeding failed: %v", err)
		}
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(corsMiddleware())
	r.Use(securityHeaders())
	r.Use(httpmiddleware.NewTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin).GinMiddleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/healthz", func(c *gin.Context) {
		h := store.Check(c.Request.Context(), db, redisClient)
		status := http.StatusOK
		if !h.OK() {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"status": "ok", "redis": h.Redis, "db": h.DB})
	})

	// Dev-only token mint; real deployments take tokens from the
	// identity service.
	if gin.Mode() != gin.ReleaseMode {
		r.POST("/api/token", func(c *gin.Context) {
			var req struct {
				UserID string `json:"user_id" binding:"required"`
				Role   string `json:"role"`
			}
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
				return
			}
			if req.Role == "" {
				req.Role = "student"
			}
			token, exp, err := auth.Issue(req.UserID, req.Role, cfg.JWTIssuer, cfg.JWTSigningKey, cfg.AccessTTL)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"detail": "token issue failed"})
				return
			}
			c.JSON(http.StatusCreated, gin.H{"access_token": token, "expires_at": exp.Unix()})
		})
	}

	api := r.Group("/api", auth.UserAuth(cfg.JWTSigningKey, cfg.JWTIssuer))

	api.GET("/courses", func(c *gin.Context) {
		courses, err := svc.Courses(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
			return
		}
		if courses == nil {
			courses = []attendance.Course{}
		}
		c.JSON(http.StatusOK, courses)
	})

	api.POST("/courses", func(c *gin.Context) {
		var req struct {
			Name       string        `json:"name" binding:"required"`
			Code       string        `json:"code" binding:"required"`
			Department string        `json:"department"`
			Credits    int           `json:"credits"`
			Location   *geo.Position `json:"location"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
			return
		}
		course, err := svc.CreateCourse(c.Request.Context(), attendance.Course{
			Name:       req.Name,
			Code:       req.Code,
			Instructor: auth.UserID(c),
			Department: req.Department,
			Credits:    req.Credits,
			Location:   req.Location,
		})
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, course)
	})

	api.GET("/courses/:id/qr", func(c *gin.Context) {
		payload, qrString, err := svc.CourseQR(c.Request.Context(), c.Param("id"))
		if err != nil {
			if errors.Is(err, attendance.ErrCourseNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"detail": "Course not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"qr_data": payload, "qr_string": qrString})
	})

	api.POST("/attendance", func(c *gin.Context) {
		var req struct {
			ClassID  string        `json:"class_id" binding:"required"`
			Method   string        `json:"method" binding:"required"`
			Location *geo.Position `json:"location"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
			return
		}
		method, err := attendance.ParseMethod(req.Method)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
			return
		}

		rec, err := svc.Mark(c.Request.Context(), auth.UserID(c), req.ClassID, method, req.Location)
		if err != nil {
			switch {
			case errors.Is(err, attendance.ErrAlreadyMarked):
				c.JSON(http.StatusBadRequest, gin.H{"detail": "Attendance already marked for today"})
			case errors.Is(err, attendance.ErrCourseNotFound):
				c.JSON(http.StatusNotFound, gin.H{"detail": "Course not found"})
			default:
				c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
			}
			return
		}

		metrics.MarksTotal.WithLabelValues(string(rec.Method)).Inc()
		if err := q.Publish(c.Request.Context(), queue.Message{Type: "record", Body: rec.ID}); err != nil {
			log.Printf("queue publish failed: %v", err)
		}

		c.JSON(http.StatusOK, rec)
	})

	api.GET("/attendance/my", func(c *gin.Context) {
		limit, offset := 50, 0
		if v := c.Query("limit"); v != "" {
			if parsed, err := strconv.Atoi(v); err == nil {
				limit = parsed
			}
		}
		if v := c.Query("offset"); v != "" {
			if parsed, err := strconv.Atoi(v); err == nil {
				offset = parsed
			}
		}
		records, err := svc.History(c.Request.Context(), auth.UserID(c), limit, offset)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
			return
		}
		if records == nil {
			records = []attendance.Record{}
		}
		c.JSON(http.StatusOK, records)
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting server on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced shutdown: %v", err)
	}

	log.Println("Server exited")
	return nil
}

// CORS middleware for browser requests.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// Security headers middleware.
func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}
