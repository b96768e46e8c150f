package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/HariomSharma2644/inturnX-sub000/internal/api/handlers"
	"github.com/HariomSharma2644/inturnX-sub000/internal/api/middleware"
	"github.com/HariomSharma2644/inturnX-sub000/internal/arena"
	"github.com/HariomSharma2644/inturnX-sub000/internal/config"
	"github.com/HariomSharma2644/inturnX-sub000/internal/repository"
	"github.com/HariomSharma2644/inturnX-sub000/internal/service"
	"github.com/HariomSharma2644/inturnX-sub000/pkg/database"
	"github.com/HariomSharma2644/inturnX-sub000/pkg/distributed"
	"github.com/HariomSharma2644/inturnX-sub000/pkg/judge"
	"github.com/HariomSharma2644/inturnX-sub000/pkg/leaderboard"
	"github.com/HariomSharma2644/inturnX-sub000/pkg/logger"
	"github.com/HariomSharma2644/inturnX-sub000/pkg/ratelimit"
)

// SetupRouter API 라우터 설정. 아레나 Manager도 함께 구성해 반환한다.
func SetupRouter(cfg *config.Config, db *database.DB, redisClient *redis.Client) (*gin.Engine, *arena.Manager) {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// 전역 미들웨어
	router.Use(gin.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.CORS(cfg.CORSAllowedOrigins))

	// Judge 클라이언트 초기화 (HTTP)
	judgeClient := judge.NewClient(cfg.JudgeURL, cfg.JudgeTimeout)

	// Redis 기반 컴포넌트
	lockManager := distributed.NewRedisLockManager(redisClient)
	ratingBoard := leaderboard.NewRedisLeaderboard(redisClient, "rating")
	redisLimiter := ratelimit.NewRedisRateLimiter(redisClient, "ratelimit", 60, time.Minute)

	// Repository 초기화
	userRepo := repository.NewUserRepository(db)
	problemRepo := repository.NewProblemRepository(db)
	battleRepo := repository.NewBattleRepository(db)

	// Service 초기화
	eloService := service.NewELOService()
	userService := service.NewUserService(userRepo, cfg.DefaultRating)
	battleService := service.NewBattleService(battleRepo, userRepo, problemRepo, eloService, lockManager, ratingBoard)
	practiceService := service.NewPracticeService(problemRepo, judgeClient)

	// WebSocket Hub + 아레나 Manager 초기화 및 시작
	wsHub := arena.NewHub()
	manager := arena.NewManager(wsHub, battleService, judgeClient, arena.SessionConfig{
		TimeLimit:       cfg.BattleTimeLimit,
		DisconnectGrace: cfg.BattleDisconnectGrace,
	})
	manager.Start()
	logger.Info("Arena manager started",
		"timeLimit", cfg.BattleTimeLimit,
		"disconnectGrace", cfg.BattleDisconnectGrace)

	// Handler 초기화
	authHandler := handlers.NewAuthHandler(userService, cfg)
	userHandler := handlers.NewUserHandler(userService, battleService)
	battleHandler := handlers.NewBattleHandler(battleService, practiceService, manager)
	wsHandler := handlers.NewWebSocketHandler(wsHub)

	// Health check
	router.GET("/health", handlers.HealthCheck)

	// API v1
	v1 := router.Group("/api/v1")
	{
		// WebSocket endpoint
		v1.GET("/ws", middleware.Auth(cfg), wsHandler.HandleWebSocket)

		// Auth routes
		auth := v1.Group("/auth")
		auth.Use(middleware.RedisAuthRateLimit(redisLimiter))
		{
			auth.POST("/login", authHandler.Login)
			auth.POST("/register", authHandler.Register)
		}

		// Battle routes
		battles := v1.Group("/battles")
		{
			battles.GET("/leaderboard", middleware.RedisLeaderboardRateLimit(redisLimiter), battleHandler.GetLeaderboard)
			battles.GET("/arena/status", battleHandler.GetArenaStatus)

			battles.GET("/stats", middleware.Auth(cfg), battleHandler.GetStats)
			battles.GET("/history", middleware.Auth(cfg), battleHandler.GetHistory)
			battles.GET("/:battleId", middleware.Auth(cfg), battleHandler.GetBattle)

			// 연습 모드 (큐/레이팅 영향 없음)
			battles.GET("/practice", middleware.Auth(cfg), battleHandler.StartPractice)
			battles.POST("/practice/submit",
				middleware.Auth(cfg),
				middleware.RedisPracticeSubmitRateLimit(redisLimiter),
				battleHandler.SubmitPractice)
		}

		// User routes
		users := v1.Group("/users")
		users.Use(middleware.Auth(cfg))
		{
			users.GET("/me", userHandler.GetCurrentUser)
			users.PUT("/me", userHandler.UpdateCurrentUser)
		}
	}

	return router, manager
}
