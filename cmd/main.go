package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"market-agent/internal/actions"
	"market-agent/internal/assembler"
	"market-agent/internal/auth"
	"market-agent/internal/blockchain"
	"market-agent/internal/config"
	"market-agent/internal/content"
	"market-agent/internal/database"
	"market-agent/internal/fees"
	"market-agent/internal/handlers"
	"market-agent/internal/rules"
	"market-agent/internal/services"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize JWT
	auth.InitJWT(cfg.App.JWTSecret)

	// Connect to database
	if err := database.Connect(cfg.GetDSN()); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.AutoMigrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Parse chain identities
	programID, err := solana.PublicKeyFromBase58(cfg.Solana.ProgramID)
	if err != nil {
		log.Fatalf("Invalid PROGRAM_ID: %v", err)
	}
	platformWallet, err := solana.PublicKeyFromBase58(cfg.Solana.PlatformWallet)
	if err != nil {
		log.Fatalf("Invalid PLATFORM_WALLET: %v", err)
	}

	// Initialize Solana snapshot client
	rpcURL := cfg.Solana.RPCURL
	if rpcURL == "" {
		rpcURL = blockchain.EndpointForNetwork(cfg.Solana.Network)
	}
	chainClient := blockchain.NewClient(rpcURL, programID)
	log.Printf("Reading program %s via %s", programID, rpcURL)

	// Load content screening tables
	contentTables := content.DefaultTables()
	if cfg.App.ContentTablesPath != "" {
		contentTables, err = content.LoadTables(cfg.App.ContentTablesPath)
		if err != nil {
			log.Fatalf("Failed to load content tables: %v", err)
		}
		log.Printf("Content tables loaded from %s", cfg.App.ContentTablesPath)
	}

	// Load the fee table
	feeTable := fees.DefaultTable()
	if cfg.App.FeeTablePath != "" {
		feeTable, err = fees.LoadTable(cfg.App.FeeTablePath)
		if err != nil {
			log.Fatalf("Failed to load fee table: %v", err)
		}
		log.Printf("Fee table loaded from %s", cfg.App.FeeTablePath)
	}

	// Initialize the transaction assembler
	asm := assembler.New(assembler.Config{
		ProgramID:      programID,
		PlatformWallet: platformWallet,
		FeeTable:       feeTable,
		Timing: rules.TimingConfig{
			MinEventBuffer:         cfg.Rules.MinEventBuffer,
			RecommendedEventBuffer: cfg.Rules.RecommendedEventBuffer,
			FreezeWindow:           cfg.Rules.FreezeWindow,
			DisputeWindow:          cfg.Rules.DisputeWindow,
		},
		Bounds: rules.BetBounds{
			Min: cfg.Rules.MinBetLamports,
			Max: cfg.Rules.MaxBetLamports,
		},
		Content:  contentTables,
		Simulate: cfg.Solana.Simulate,
	}, chainClient, chainClient)

	// Initialize services
	auditService := services.NewAuditService(database.GetDB())
	actionService := actions.NewService(asm, chainClient, feeTable)

	// Build the action registry
	registry := actions.NewRegistry()
	actionService.RegisterAll(registry)
	log.Printf("Registered %d actions", len(registry.Names()))

	// Initialize handlers
	authHandler := handlers.NewAuthHandler()
	actionHandler := handlers.NewActionHandler(registry, auditService)
	auditHandler := handlers.NewAuditHandler(auditService)

	// Set up Gin router
	router := gin.Default()

	// CORS middleware
	allowedOrigins := []string{
		"http://localhost:3000",
		"http://localhost:5173", // Vite dev server
		"http://127.0.0.1:3000",
		"http://127.0.0.1:5173",
	}
	if frontendURL := os.Getenv("FRONTEND_URL"); frontendURL != "" {
		allowedOrigins = append(allowedOrigins, frontendURL)
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// Authentication routes (public)
	authRoutes := router.Group("/auth")
	{
		authRoutes.POST("/wallet", authHandler.WalletLogin)
		authRoutes.POST("/logout", authHandler.Logout)
	}

	// Public read routes
	router.GET("/api/actions", actionHandler.ListActions)
	router.GET("/api/markets/:id/history", auditHandler.MarketHistory)

	// API routes (protected)
	api := router.Group("/api")
	api.Use(auth.AuthMiddleware())
	{
		api.POST("/actions/:name", actionHandler.Dispatch)
		api.GET("/history", auditHandler.MyHistory)
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server starting on port %s", cfg.Server.Port)
		log.Printf("Health check: http://localhost:%s/health", cfg.Server.Port)
		log.Printf("Wallet auth: POST http://localhost:%s/auth/wallet", cfg.Server.Port)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Graceful shutdown with 5 second timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}
