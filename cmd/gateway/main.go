package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	api "github.com/mind-engage/mindengage-exams/internal/api/http"
	"github.com/mind-engage/mindengage-exams/internal/attempt"
	"github.com/mind-engage/mindengage-exams/internal/auth"
	authmw "github.com/mind-engage/mindengage-exams/internal/auth/middleware"
	"github.com/mind-engage/mindengage-exams/internal/config"
	"github.com/mind-engage/mindengage-exams/internal/db"
	"github.com/mind-engage/mindengage-exams/internal/exam"
	"github.com/mind-engage/mindengage-exams/internal/grading"
	"github.com/mind-engage/mindengage-exams/internal/rbac"
	"github.com/mind-engage/mindengage-exams/internal/storage"
	"github.com/mind-engage/mindengage-exams/internal/submission"
	syncx "github.com/mind-engage/mindengage-exams/internal/sync"
)

func main() {
	cfg := config.Load()

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}
	defer dbh.Close()

	// --- Redis (optional) ---
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatalf("redis: %v", err)
		}
		defer rdb.Close()
	}

	// --- Exams ---
	var exams exam.Store = exam.NewSQLStore(dbh, cfg.DBDriver)
	if rdb != nil && cfg.ExamCacheTTL > 0 {
		exams = exam.NewCachedStore(exams, rdb, cfg.ExamCacheTTL)
	}
	if cfg.ExamsDir != "" {
		n, err := exam.LoadDir(ctx, exams, cfg.ExamsDir)
		if err != nil {
			log.Fatalf("load exams: %v", err)
		}
		log.Printf("loaded %d exams from %s", n, cfg.ExamsDir)
	}

	// --- Submissions ---
	var mdb *mongo.Database
	if cfg.SubmissionStore == "mongo" || cfg.Sequencer == "mongo" {
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			log.Fatalf("mongo: %v", err)
		}
		defer client.Disconnect(context.Background())
		mdb = client.Database(cfg.MongoDB)
	}
	subs := openSubmissionStore(ctx, cfg, dbh, mdb)
	svc := submission.NewService(exams, subs, serviceOptions(cfg, subs, rdb, mdb)...)

	// --- Auth ---
	authSvc := authmw.NewAuthService(cfg.AuthHMACSecret)
	users := auth.NewUsers(dbh, cfg.AdminUser, cfg.AdminPassHash)

	bs, err := storage.NewFSStore(cfg.BlobBasePath)
	if err != nil {
		log.Fatalf("blob store: %v", err)
	}

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins(),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Local login (enabled in offline mode by default; can be enabled online via env)
	if cfg.EnableLocalAuth {
		r.Post("/auth/login", auth.LoginHandler(authSvc, users))
		r.Post("/auth/register", auth.RegisterHandler(users))
	}
	r.Post("/auth/guest", auth.GuestLoginHandler(authSvc, users, cfg.EnableGuestAuth))

	// Protected API (JWT -> stored role -> RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(authmw.JWTMiddleware(authSvc))
		pr.Use(authmw.AttachRole(users, cfg.Mode == config.ModeOffline))

		pr.Get("/auth/me", auth.MeHandler(users))
		pr.With(rbac.Require("user:change_password")).
			Post("/auth/change-password", auth.ChangePasswordHandler(users))

		api.Mount(pr, api.Deps{
			Exams:       exams,
			Submissions: svc,
			Blobs:       bs,
			Events:      syncx.NewEventRepo(dbh),
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := dbh.PingContext(r.Context()); err != nil {
			http.Error(w, "db unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(200)
	})

	log.Printf("listening on %s (mode=%s, db=%s, submissions=%s, sequencer=%s)",
		cfg.HTTPAddr, cfg.Mode, cfg.DBDriver, cfg.SubmissionStore, cfg.Sequencer)
	log.Fatal(http.ListenAndServe(cfg.HTTPAddr, r))
}

func openSubmissionStore(ctx context.Context, cfg config.Config, dbh *sql.DB, mdb *mongo.Database) submission.Store {
	switch cfg.SubmissionStore {
	case "memory":
		return submission.NewInMemoryStore()
	case "mongo":
		ms := submission.NewMongoStore(mdb)
		if err := ms.EnsureIndexes(ctx); err != nil {
			log.Fatalf("mongo indexes: %v", err)
		}
		return ms
	case "sql", "":
		return submission.NewSQLStore(dbh)
	default:
		log.Fatalf("unknown SUBMISSION_STORE %q", cfg.SubmissionStore)
		return nil
	}
}

// serviceOptions picks where attempt numbers come from. "store" lets the
// submission store number attempts inside its own write.
func serviceOptions(cfg config.Config, subs submission.Store, rdb *redis.Client, mdb *mongo.Database) []submission.Option {
	opts := []submission.Option{
		submission.WithEngine(grading.NewEngine(grading.WithTolerance(cfg.ToleranceMatching))),
	}
	switch cfg.Sequencer {
	case "store", "":
	case "memory":
		opts = append(opts, submission.WithSequencer(attempt.NewMemorySequencer(subs)))
	case "redis":
		if rdb == nil {
			log.Fatal("SEQUENCER=redis needs REDIS_ADDR")
		}
		opts = append(opts, submission.WithSequencer(attempt.NewRedisSequencer(rdb, subs)))
	case "mongo":
		opts = append(opts, submission.WithSequencer(attempt.NewMongoSequencer(mdb, subs)))
	default:
		log.Fatalf("unknown SEQUENCER %q", cfg.Sequencer)
	}
	return opts
}
