package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	apirest "github.com/linguamate/server/api/rest"
	"github.com/linguamate/server/api/sse"
	"github.com/linguamate/server/audit"
	"github.com/linguamate/server/cache"
	"github.com/linguamate/server/config"
	dbadapter "github.com/linguamate/server/db"
	mw "github.com/linguamate/server/middleware"
	"github.com/linguamate/server/model"
	"github.com/linguamate/server/notify"
	"github.com/linguamate/server/scheduler"
	"github.com/linguamate/server/scorer"
	"github.com/linguamate/server/social"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

func main() {
	cfgPath := "config/config.yaml"
	if len(os.Args) > 1 {
		cfgPath = os.Args[1]
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// ---- Logger ----
	var logger *zap.Logger
	var logErr error
	if cfg.Server.Debug {
		logger, logErr = zap.NewDevelopment()
	} else {
		logger, logErr = zap.NewProduction()
	}
	if logErr != nil {
		log.Fatalf("logger: %v", logErr)
	}
	defer logger.Sync()

	// Warn loudly if admin endpoints will be disabled.
	if cfg.Server.AdminKey == "" {
		logger.Warn("server.admin_key is not set; admin endpoints are disabled")
	}

	// ---- Database ----
	db, err := dbadapter.Open(cfg.Database)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	if err := model.AutoMigrate(db); err != nil {
		log.Fatalf("db migrate: %v", err)
	}
	logger.Info("DB initialized")

	// ---- Audit ----
	auditSvc := audit.New(db, logger)
	defer auditSvc.Stop(nil)

	// ---- Cache / PubSub ----
	cacheConfig := cache.CacheConfig{
		RedisAddr:       cfg.Cache.RedisAddr,
		RedisPassword:   cfg.Cache.RedisPassword,
		RedisDB:         cfg.Cache.RedisDB,
		LocalGCInterval: cfg.Cache.LocalGCInterval,
		LocalPubSubBuf:  cfg.Cache.LocalPubSubBuf,
	}
	c, err := cache.NewCache(cacheConfig)
	if err != nil {
		log.Fatalf("cache: %v", err)
	}
	pubsub, err := cache.NewPubSub(cacheConfig)
	if err != nil {
		log.Fatalf("pubsub: %v", err)
	}
	logger.Info("Cache initialized")

	// ---- Scheduler ----
	sched := scheduler.New(logger)
	defer sched.Stop()

	// ---- Services ----
	emitter := notify.NewEmitter(db, pubsub, logger)
	friendSvc := social.NewFriendshipService(db, logger)
	searchSvc := social.NewSearchService(db)
	profileSvc := social.NewProfileService(db)
	requestSvc := social.NewRequestService(db, friendSvc, emitter, logger)
	scorerClient := scorer.NewClient(cfg.Recommend, logger)
	recommendSvc := social.NewRecommendService(db, c, friendSvc, searchSvc, scorerClient, cfg.Recommend, logger)

	// ---- Periodic Scheduler Tasks ----
	sched.AddTicker("quota_reset", 24*time.Hour, func() {
		n, err := recommendSvc.ResetQuotas(context.Background())
		if err != nil {
			logger.Error("quota reset failed", zap.Error(err))
			return
		}
		logger.Info("daily quota reset", zap.Int64("members", n))
	})
	sched.AddTicker("recommend_purge", time.Hour, func() {
		n, err := recommendSvc.PurgeStale(context.Background())
		if err != nil {
			logger.Error("stale batch purge failed", zap.Error(err))
			return
		}
		if n > 0 {
			logger.Info("stale batches purged", zap.Int64("rows", n))
		}
	})

	// ---- Gin HTTP Server ----
	if !cfg.Server.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(mw.TraceID(), mw.Logger(logger), mw.Recovery(logger))
	r.Use(mw.RateLimit(rate.Limit(cfg.Security.RateLimitRPS), cfg.Security.RateLimitBurst))

	// Health check
	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(200, gin.H{"status": "ok"})
	})

	// ---- REST API routes ----
	authH := apirest.NewAuthHandler(db, c, cfg.Security, cfg.Recommend.DailyQuota)
	profileH := apirest.NewProfileHandler(profileSvc)
	searchH := apirest.NewSearchHandler(searchSvc)
	socialH := apirest.NewSocialHandler(friendSvc, requestSvc, auditSvc)
	recommendH := apirest.NewRecommendHandler(recommendSvc)
	notifH := apirest.NewNotificationHandler(emitter)
	adminH := apirest.NewAdminHandler(db, recommendSvc, sched)

	api := r.Group("/api")
	{
		authG := api.Group("/auth")
		authG.POST("/login", authH.Login)
		authG.POST("/logout", mw.Auth(cfg.Security, c), authH.Logout)
		authG.POST("/refresh", mw.Auth(cfg.Security, c), authH.Refresh)

		membersG := api.Group("/members")
		membersG.Use(mw.Auth(cfg.Security, c))
		membersG.GET("/me", profileH.GetMe)
		membersG.PUT("/me", profileH.UpdateMe)
		membersG.GET("/search", searchH.Search)
		membersG.GET("/:id", profileH.GetMember)

		socialG := api.Group("/social")
		socialG.Use(mw.Auth(cfg.Security, c))
		socialG.GET("/friends", socialH.ListFriends)
		socialG.DELETE("/friends/:id", socialH.Unfriend)
		socialG.POST("/requests", socialH.SendRequest)
		socialG.DELETE("/requests/:id", socialH.CancelRequest)
		socialG.POST("/requests/:id/accept", socialH.AcceptRequest)
		socialG.POST("/requests/:id/reject", socialH.RejectRequest)
		socialG.GET("/requests/incoming", socialH.ListIncoming)
		socialG.GET("/requests/outgoing", socialH.ListOutgoing)
		socialG.GET("/recommendations", recommendH.Get)
		socialG.GET("/recommendations/quota", recommendH.Quota)
		socialG.POST("/recommendations/:id/open", recommendH.Open)

		notifG := api.Group("/notifications")
		notifG.Use(mw.Auth(cfg.Security, c))
		notifG.GET("", notifH.List)
		notifG.GET("/unread_count", notifH.UnreadCount)
		notifG.POST("/:id/read", notifH.MarkRead)

		adminG := api.Group("/admin")
		adminG.Use(apirest.AdminAuth(cfg.Server.AdminKey))
		if len(cfg.Server.AdminIPs) > 0 {
			adminG.Use(mw.IPWhitelist(cfg.Server.AdminIPs))
		}
		adminG.GET("/metrics", adminH.Metrics)
		adminG.POST("/members/:id/ban", adminH.BanMember)
		adminG.POST("/members/:id/unban", adminH.UnbanMember)
		adminG.POST("/quotas/reset", adminH.ResetQuotas)
		adminG.POST("/recommendations/purge", adminH.PurgeStale)
	}

	// ---- SSE ----
	sseH := sse.NewHandler(pubsub, c, cfg.Security, logger)
	r.GET("/sse", sseH.ServeSSE)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	logger.Info("Server listening", zap.String("addr", addr))
	if err := r.Run(addr); err != nil {
		log.Fatalf("server: %v", err)
	}
}
