package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron"
	"golang.org/x/crypto/bcrypt"

	config "github.com/pulseboard/pulseboard/configs"
	"github.com/pulseboard/pulseboard/internal/api/handlers"
	"github.com/pulseboard/pulseboard/internal/api/middleware"
	"github.com/pulseboard/pulseboard/internal/feed"
	job "github.com/pulseboard/pulseboard/internal/jobs"
	"github.com/pulseboard/pulseboard/internal/publisher"
	"github.com/pulseboard/pulseboard/internal/queue"
	"github.com/pulseboard/pulseboard/internal/repository"
	"github.com/pulseboard/pulseboard/internal/repository/memory"
	"github.com/pulseboard/pulseboard/internal/service"
)

// storage bundles one backend's repositories behind the shared
// interfaces. Which backend fills it is a config choice, nothing
// downstream knows the difference.
type storage struct {
	txm       repository.TxManager
	users     repository.UserRepository
	accounts  repository.SocialAccountRepository
	posts     repository.PostRepository
	ledger    repository.PlatformPostRepository
	analytics repository.AnalyticsRepository
	media     repository.MediaAssetRepository
	db        *sql.DB
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Failed to load environment variables", err)
	}

	cfg := config.LoadConfig()

	store, err := openStorage(cfg)
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}
	if store.db != nil {
		defer closeDB(store.db)
	}

	redisConn := asynq.RedisClientOpt{Addr: cfg.RedisURI}
	client := asynq.NewClient(redisConn)
	defer client.Close()

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisURI})
	defer rdb.Close()

	app := fiber.New(fiber.Config{
		ReadTimeout:  10 * time.Minute,
		WriteTimeout: 10 * time.Minute,
		BodyLimit:    100 * 1024 * 1024, // 100 MB
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Something went wrong"})
		},
	})

	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.FrontendURL,
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           3600,
	}))

	authService := service.NewAuthService(*cfg, store.users)
	userService := service.NewUserService(store.users)
	accountService := service.NewAccountService(*cfg, store.accounts)
	postService := service.NewPostService(store.txm, store.posts, store.ledger, store.accounts)
	ledgerService := service.NewLedgerService(store.txm, store.posts, store.ledger)
	dashboardService := service.NewDashboardService(rdb, store.posts, store.ledger, store.accounts, store.analytics)
	r2Service := service.NewR2Service(*cfg)
	mediaService := service.NewMediaService(r2Service, store.media)

	authMiddleware := middleware.NewAuthMiddleware(*cfg)

	auth := handlers.NewAuthHandler(*cfg, authService)
	app.Post("/login", auth.Login)
	app.Post("/logout", auth.Logout)

	api := app.Group("/api")
	api.Use(authMiddleware.AuthMiddleware())

	user := handlers.NewUserHandler(userService)
	api.Get("/user", user.GetUserInfo)
	api.Get("/user/info", user.GetUserInfo)

	account := handlers.NewAccountHandler(accountService)
	api.Get("/accounts", account.ListAccounts)
	api.Post("/accounts", account.ConnectAccount)
	api.Post("/accounts/:id/disconnect", account.DisconnectAccount)
	api.Post("/accounts/:id/reconnect", account.ReconnectAccount)

	post := handlers.NewPostHandler(postService, ledgerService, client)
	api.Post("/posts", post.CreatePost)
	api.Get("/posts", post.ListPosts)
	api.Get("/posts/:id", post.GetPost)
	api.Post("/posts/:id/status", post.UpdatePostStatus)
	api.Delete("/posts/:id", post.DeletePost)
	api.Get("/posts/:id/platforms", post.ListPlatformPosts)
	api.Patch("/platform-posts/:id/metrics", post.UpdatePlatformPostMetrics)

	dashboard := handlers.NewDashboardHandler(dashboardService)
	api.Get("/stats", dashboard.GetStats)
	api.Get("/upcoming", dashboard.GetUpcoming)
	api.Get("/performance", dashboard.GetPerformance)
	api.Get("/comparison", dashboard.GetComparison)
	api.Get("/analytics", dashboard.GetAnalytics)
	api.Get("/analytics/:id", dashboard.GetAccountAnalytics)

	media := handlers.NewMediaHandler(mediaService)
	api.Post("/media", media.UploadMedia)
	api.Get("/media", media.ListMedia)

	hub := feed.NewHub()
	ws := handlers.NewWSHandler(hub)
	app.Use("/ws", ws.Upgrade)
	app.Get("/ws", ws.Serve())

	consumer := feed.NewConsumer(rdb, hub, store.accounts, store.analytics, dashboardService)
	feedCtx, stopFeed := context.WithCancel(context.Background())
	defer stopFeed()
	go consumer.Run(feedCtx)

	queueW := queue.NewQueue(store.posts, store.ledger, store.accounts, ledgerService, publisher.NewSimulated())

	reconcileJob := job.NewReconcileJob(store.posts, store.ledger, ledgerService, client)
	c := cron.New()
	c.AddFunc("@every 00h01m00s", reconcileJob.Reconcile)
	c.Start()

	go func() {
		server := asynq.NewServer(redisConn, asynq.Config{
			Concurrency: 10,
		})

		mux := asynq.NewServeMux()
		mux.HandleFunc(queue.TaskTypePublishPost, queueW.HandlePublishPostTask)

		log.Println("Starting the Asynq server...")
		if err := server.Run(mux); err != nil {
			log.Fatalf("Could not start Asynq server: %v", err)
		}
	}()

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()
	log.Printf("Server is running on http://localhost:%s", cfg.Port)

	gracefulShutdown(app, store.db)
}

func openStorage(cfg *config.Config) (*storage, error) {
	switch cfg.StorageDriver {
	case "postgres":
		db, err := sql.Open("postgres", cfg.PostgresURI)
		if err != nil {
			return nil, err
		}
		if err := db.Ping(); err != nil {
			return nil, fmt.Errorf("database is unreachable: %w", err)
		}

		return &storage{
			txm:       repository.NewTxManager(db),
			users:     repository.NewUserRepository(db),
			accounts:  repository.NewSocialAccountRepository(db),
			posts:     repository.NewPostRepository(db),
			ledger:    repository.NewPlatformPostRepository(db),
			analytics: repository.NewAnalyticsRepository(db),
			media:     repository.NewMediaAssetRepository(db),
			db:        db,
		}, nil

	case "memory":
		store := memory.NewStore()
		hash, err := bcrypt.GenerateFromPassword([]byte("demo"), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		store.SeedDemoData(string(hash))
		log.Println("Using in-memory storage with demo data (demo/demo)")

		return &storage{
			txm:       store,
			users:     memory.NewUserRepository(store),
			accounts:  memory.NewSocialAccountRepository(store),
			posts:     memory.NewPostRepository(store),
			ledger:    memory.NewPlatformPostRepository(store),
			analytics: memory.NewAnalyticsRepository(store),
			media:     memory.NewMediaAssetRepository(store),
		}, nil

	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}

func closeDB(db *sql.DB) {
	fmt.Fprint(os.Stdout, "Closing database connection... ")
	if err := db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close database: %v", err)
		return
	}
	fmt.Fprintln(os.Stdout, "Done")
}

func gracefulShutdown(app *fiber.App, db *sql.DB) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Fatalf("Failed to shut down server: %v", err)
	}

	if db != nil {
		closeDB(db)
	}
	log.Println("Server shutdown complete.")
}
