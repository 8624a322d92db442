// Entry point of the taskboard application. Initializes configuration, the
// database pool and migrations, constructs stores, the validation engine and
// handlers with explicit dependency injection, sets up the HTTP router and
// middleware, and runs the server with graceful shutdown.
//
// @title Taskboard API
// @version 1.0
// @description REST backend exposing Users and Tasks over a relational store.
// @BasePath /
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/user/taskboard-go/apperror"
	"github.com/user/taskboard-go/config"
	"github.com/user/taskboard-go/db"
	_ "github.com/user/taskboard-go/docs" // generated Swagger spec
	"github.com/user/taskboard-go/tasks"
	"github.com/user/taskboard-go/users"
	"github.com/user/taskboard-go/validation"
)

func main() {
	// A missing .env is fine in production, where variables are set directly.
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found or error loading it: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	pool, err := db.NewPool(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to create database pool: %v", err)
	}
	defer pool.Close()

	if cfg.Database.MigrationsPath != "" {
		if err := db.RunMigrations(cfg.Database, cfg.Database.MigrationsPath); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
	}

	// Explicit construction: stores, the validation engine and handlers are
	// wired here, with no ambient registry.
	validator := validation.NewEngine()

	userStore := users.NewPgStore(pool)
	userHandlers := users.NewHandlers(userStore, validator)

	taskStore := tasks.NewPgStore(pool)
	taskHandlers := tasks.NewHandlers(taskStore, userStore, validator)

	r := chi.NewRouter()

	// Global middleware; chi requires these before any routes.
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Panic recovery that formats the failure through the apperror system.
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			defer func() {
				if rvr := recover(); rvr != nil {
					log.Printf("Panic: %+v", rvr)
					apperror.WriteError(ww, apperror.NewInternalError("internal server error", nil))
				}
			}()
			next.ServeHTTP(ww, r)
		})
	})

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/users", func(r chi.Router) {
		userHandlers.RegisterRoutes(r)
	})

	// Task routes are scoped under the owning user's id.
	r.Route("/{user}/tasks", func(r chi.Router) {
		taskHandlers.RegisterRoutes(r)
	})

	addr := fmt.Sprintf(":%s", cfg.Server.Port)

	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server shutdown failed: %v", err)
	}
	log.Println("Server stopped gracefully")
}
