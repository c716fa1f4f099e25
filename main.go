package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"taskboard/backend/internal/cache"
	"taskboard/backend/internal/config"
	"taskboard/backend/internal/database"
	"taskboard/backend/internal/monitoring"
	"taskboard/backend/internal/services"
	"taskboard/backend/internal/worker"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer database.Close(db)

	if err := database.Migrate(db); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	registerDatabaseHealthCheck(db)

	credentials := services.NewCredentialService(cfg.Auth)
	userService := services.NewUserService(credentials, cfg.Auth)
	projectService := services.NewProjectService()

	deps := routerDeps{
		db:             db,
		credentials:    credentials,
		userService:    userService,
		projectService: projectService,
		taskService:    services.NewTaskService(),
	}

	var jobWorker *worker.Worker
	if cfg.Redis.Enabled {
		redisCache := cache.NewRedisCache(&cache.CacheConfig{
			Addr:         cfg.GetRedisAddr(),
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			MaxRetries:   cfg.Redis.MaxRetries,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})
		defer redisCache.Close()

		registerCacheHealthCheck(redisCache)

		cachedTasks := services.NewCachedTaskService(services.NewTaskService(), redisCache)
		deps.taskService = cachedTasks
		deps.taskCache = cachedTasks

		if cfg.Worker.Enabled {
			jobWorker = newJobWorker(cfg)
			deps.jobs = jobWorker
		}
	}

	router := setupRouter(deps)

	server := &http.Server{
		Addr:         cfg.GetServerAddr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if jobWorker != nil {
		jobWorker.Start(ctx)
		defer jobWorker.Stop()
	}

	go func() {
		log.Printf("listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}
}

func newJobWorker(cfg *config.Config) *worker.Worker {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.GetRedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	w := worker.New(client, worker.Config{
		Concurrency:  cfg.Worker.Concurrency,
		PollInterval: cfg.Worker.PollInterval,
		Queues:       cfg.Worker.Queues,
	})

	w.Register(worker.JobTypeTaskReminder, func(ctx context.Context, job *worker.Job) error {
		log.Printf("task reminder: task %v due %v", job.Payload["task_id"], job.Payload["due_date"])
		return nil
	})
	w.Register(worker.JobTypeMemberAdded, func(ctx context.Context, job *worker.Job) error {
		log.Printf("membership notification: user %v added to project %v by %v",
			job.Payload["user_id"], job.Payload["project_id"], job.Payload["added_by"])
		return nil
	})

	return w
}

func registerDatabaseHealthCheck(db *gorm.DB) {
	monitoring.RegisterHealthCheck("database", func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	})
}

func registerCacheHealthCheck(redisCache *cache.RedisCache) {
	monitoring.RegisterHealthCheck("redis", func(ctx context.Context) error {
		return redisCache.Health()
	})
}
