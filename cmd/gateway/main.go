package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"

	"github.com/exampulse/exampulse/internal/activity"
	api "github.com/exampulse/exampulse/internal/api/http"
	"github.com/exampulse/exampulse/internal/assessment"
	auth "github.com/exampulse/exampulse/internal/auth/middleware"
	"github.com/exampulse/exampulse/internal/config"
	"github.com/exampulse/exampulse/internal/db"
	"github.com/exampulse/exampulse/internal/notify"
	"github.com/exampulse/exampulse/internal/questiongen"
	"github.com/exampulse/exampulse/internal/rbac"
	"github.com/exampulse/exampulse/internal/roster"
)

func main() {
	if err := godotenv.Load(); err == nil {
		log.Printf("loaded .env")
	}
	cfg := config.FromEnv()

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}

	// --- Engine wiring ---
	store := assessment.NewSQLStore(dbh, cfg.DBDriver)
	provider := questiongen.NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.OpenAIModel,
		time.Duration(cfg.AITimeoutSec)*time.Second)
	synth := questiongen.NewSynthesizer(provider)
	classes := roster.NewSQLRoster(dbh)
	notifications := notify.NewSQLRepo(dbh)
	events := activity.NewRepo(dbh)

	svc := assessment.NewService(store, synth, classes, notifications, events, assessment.ServiceConfig{
		RequireAIForTests: cfg.RequireAIForTests,
		QuizPassThreshold: cfg.QuizPassThreshold,
	})

	authSvc := auth.NewAuthService(cfg.AuthSecret)

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	origins := cfg.CORSOriginsOffline
	if cfg.Mode == config.ModeOnline {
		origins = cfg.CORSOriginsOnline
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Post("/auth/login", auth.LoginHandler(authSvc, dbh))

	// Protected API (JWT → identity+role in context → RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(authSvc))

		// Teacher surface
		pr.With(rbac.Require("unit:create")).
			Post("/units", api.CreateUnitHandler(svc))
		pr.With(rbac.Require("unit:assign")).
			Post("/units/{unitID}/assign", api.AssignUnitHandler(svc))
		pr.With(rbac.Require("unit:view")).
			Get("/units", api.ListUnitsHandler(svc))
		pr.With(rbac.Require("question:generate")).
			Post("/questions/preview", api.PreviewQuestionsHandler(svc))

		// Student flow
		pr.With(rbac.Require("attempt:create")).
			Post("/units/{unitID}/attempts", api.StartAttemptHandler(svc))
		pr.With(rbac.Require("quiz:start")).
			Post("/quizzes", api.StartTaskQuizHandler(svc))
		pr.With(rbac.Require("attempt:save")).
			Post("/attempts/{attemptID}/answers", api.SaveAnswersHandler(svc))
		pr.With(rbac.Require("attempt:submit")).
			Post("/attempts/{attemptID}/submit", api.SubmitAttemptHandler(svc))
		pr.With(rbac.RequireAny("attempt:view-own", "attempt:view-all")).
			Get("/attempts/{attemptID}/result", api.GetResultHandler(svc))

		pr.With(rbac.Require("notification:view")).
			Get("/notifications", api.ListNotificationsHandler(notifications))
		pr.With(rbac.Require("notification:view")).
			Post("/notifications/{notificationID}/read", api.MarkNotificationReadHandler(notifications))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })

	log.Printf("listening on %s (mode=%s, db=%s)", cfg.HTTPAddr, cfg.Mode, cfg.DBDriver)
	log.Fatal(http.ListenAndServe(cfg.HTTPAddr, r))
}
