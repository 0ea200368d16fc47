package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"pulsefit/coach-app/internal/api"
	"pulsefit/coach-app/internal/cache"
	"pulsefit/coach-app/internal/config"
	"pulsefit/coach-app/internal/llm"
	"pulsefit/coach-app/internal/recommend"
	"pulsefit/coach-app/internal/repository/mongo"
	"pulsefit/coach-app/internal/service"
)

func main() {
	log.Println("Starting Coach App Server...")

	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("FATAL: Could not load config: %v", err)
	}
	log.Println("Configuration loaded.")

	// --- Database Connection ---
	dbClient, err := mongo.ConnectDB(cfg.Database.URI)
	if err != nil {
		log.Fatalf("FATAL: Could not connect to MongoDB: %v", err)
	}
	defer func() {
		log.Println("Disconnecting MongoDB...")
		if err := mongo.DisconnectDB(dbClient); err != nil {
			log.Printf("ERROR: Failed to disconnect MongoDB: %v", err)
		}
	}()
	appDB := dbClient.Database(cfg.Database.Name)
	log.Println("Database connection established.")

	// --- Ensure Indexes ---
	log.Println("Ensuring database indexes...")
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
		defer cancel()
		mongo.EnsureSelectionIndexes(ctx, appDB.Collection("methodology_selections"))
		mongo.EnsureProgressIndexes(ctx, appDB.Collection("weekly_progress"), appDB.Collection("training_sessions"))
		log.Println("Index creation process completed.")
	}()

	// --- Optional Stats Cache ---
	statsCache := cache.New(cfg.Redis)
	if statsCache != nil {
		log.Println("Stats cache enabled.")
		defer statsCache.Close()
	}

	// --- LLM Client ---
	llmClient := llm.NewClient(cfg.LLM)
	if !llmClient.Available() {
		log.Println("WARN: LLM credentials not configured, recommendation requests will be answered with 503.")
	}

	// --- Initialize Repositories ---
	log.Println("Initializing repositories...")
	selectionRepo := mongo.NewMongoSelectionRepository(appDB)
	progressRepo := mongo.NewMongoProgressRepository(appDB)

	// --- Initialize Services ---
	log.Println("Initializing services...")
	methodologyService := service.NewMethodologyService(selectionRepo, statsCache)
	progressService := service.NewProgressService(progressRepo, selectionRepo, statsCache)
	engine := recommend.NewEngine(llmClient)
	recommendationService := service.NewRecommendationService(engine, methodologyService, progressService)

	// --- Initialize Gin Engine ---
	// gin.SetMode(gin.ReleaseMode) // Uncomment for production
	router := gin.Default() // Includes Logger and Recovery middleware

	// --- Setup Routes ---
	log.Println("Setting up API routes...")
	api.SetupRoutes(router, cfg.JWT.Secret, recommendationService, methodologyService, progressService)

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second, // LLM-backed requests can run for several seconds
		IdleTimeout:  120 * time.Second,
	}

	log.Printf("Server starting on %s", cfg.Server.Address)

	// --- Graceful Shutdown ---
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("FATAL: ListenAndServe Error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Fatalf("FATAL: Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting.")
}
