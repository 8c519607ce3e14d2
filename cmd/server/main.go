package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"finquest/internal/auth"
	"finquest/internal/banklink"
	"finquest/internal/config"
	"finquest/internal/database"
	"finquest/internal/handlers"
	"finquest/internal/repository"
	"finquest/internal/security"
	"finquest/internal/service"
)

func main() {
	cfg := config.Load()

	if cfg.TokenSecret == "" {
		log.Fatal("TOKEN_SECRET must be configured")
	}

	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	if err := db.RunMigrations(cfg.MigrationsPath); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Repositories
	progressionRepo := repository.NewProgressionRepository(db)
	gameStateRepo := repository.NewGameStateRepository(db)
	roundRepo := repository.NewRoundRepository(db)
	transactionRepo := repository.NewTransactionRepository(db)
	bankItemRepo := repository.NewBankItemRepository(db)

	// Services
	emailService := service.NewEmailService(cfg)
	progressionService := service.NewProgressionService(progressionRepo, gameStateRepo, emailService)
	quizService := service.NewQuizService(db, roundRepo, gameStateRepo, transactionRepo, progressionService)
	categoriesService := service.NewCategoriesService(db, roundRepo, gameStateRepo, transactionRepo, progressionService)
	detectiveService := service.NewDetectiveService(db, roundRepo, gameStateRepo, transactionRepo, progressionService)

	sealer, err := banklink.NewTokenSealer(cfg.TokenSealKey)
	if err != nil {
		log.Fatalf("Failed to initialize token sealer: %v", err)
	}
	bankService := service.NewBankService(banklink.NewClient(cfg), sealer, bankItemRepo, transactionRepo)

	verifier := auth.NewVerifier(cfg.TokenSecret)
	bankLimiter := security.NewRateLimiter(10, time.Minute)

	// Handlers
	quizHandler := handlers.NewQuizHandler(quizService)
	categoriesHandler := handlers.NewCategoriesHandler(categoriesService)
	detectiveHandler := handlers.NewDetectiveHandler(detectiveService)
	profileHandler := handlers.NewProfileHandler(progressionService)
	bankHandler := handlers.NewBankHandler(bankService)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := db.Ping(); err != nil {
			http.Error(w, "database unreachable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	mux.HandleFunc("GET /ranks", profileHandler.Ranks)

	mux.HandleFunc("POST /games/quiz/start", handlers.Authenticate(verifier, quizHandler.Start))
	mux.HandleFunc("POST /games/quiz/answer", handlers.Authenticate(verifier, quizHandler.Answer))
	mux.HandleFunc("POST /games/quiz/complete", handlers.Authenticate(verifier, quizHandler.Complete))
	mux.HandleFunc("GET /games/quiz/state", handlers.Authenticate(verifier, quizHandler.State))

	mux.HandleFunc("POST /games/categories/start", handlers.Authenticate(verifier, categoriesHandler.Start))
	mux.HandleFunc("POST /games/categories/match", handlers.Authenticate(verifier, categoriesHandler.Match))
	mux.HandleFunc("GET /games/categories/state", handlers.Authenticate(verifier, categoriesHandler.State))

	mux.HandleFunc("POST /games/detective/start", handlers.Authenticate(verifier, detectiveHandler.Start))
	mux.HandleFunc("POST /games/detective/guess", handlers.Authenticate(verifier, detectiveHandler.Guess))
	mux.HandleFunc("GET /games/detective/state", handlers.Authenticate(verifier, detectiveHandler.State))

	mux.HandleFunc("GET /profile", handlers.Authenticate(verifier, profileHandler.Profile))
	mux.HandleFunc("GET /stats", handlers.Authenticate(verifier, profileHandler.Stats))

	mux.HandleFunc("POST /bank/link/exchange", handlers.RateLimit(bankLimiter, handlers.Authenticate(verifier, bankHandler.Exchange)))
	mux.HandleFunc("POST /bank/transactions/sync", handlers.RateLimit(bankLimiter, handlers.Authenticate(verifier, bankHandler.Sync)))
	mux.HandleFunc("GET /bank/items", handlers.Authenticate(verifier, bankHandler.Items))

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      handlers.LogRequests(mux),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	// Abandoned rounds expire in the background so a stuck round never
	// blocks next week's play.
	sweeperDone := make(chan struct{})
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				n, err := roundRepo.ExpireStale(time.Now().UTC().Add(-cfg.RoundExpiry))
				if err != nil {
					log.Printf("Round expiry sweep failed: %v", err)
				} else if n > 0 {
					log.Printf("Expired %d idle rounds", n)
				}
			case <-sweeperDone:
				return
			}
		}
	}()

	go func() {
		log.Printf("Server listening on port %s", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Println("Shutting down...")
	close(sweeperDone)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
	log.Println("Server stopped")
}
