// main.go - The entry point and router setup.

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

	"github.com/smartspend/expense-agent/configs"
	"github.com/smartspend/expense-agent/internal/agent"
	"github.com/smartspend/expense-agent/internal/ai"
	"github.com/smartspend/expense-agent/internal/api"
	"github.com/smartspend/expense-agent/internal/storage"
)

func main() {
	// Step 0: Load configuration from environment variables
	configs.LoadConfig()

	if ginMode := os.Getenv("GIN_MODE"); ginMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Step 1: Create the UPLOAD_DIR folder if it doesn't exist
	if err := os.MkdirAll(configs.UPLOAD_DIR, 0755); err != nil {
		log.Fatalf("Failed to create upload directory: %v", err)
	}

	// Step 2: Initialize the expense store
	store, err := storage.NewStore()
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	if closer, ok := store.(interface{ Close() }); ok {
		defer closer.Close()
	}

	// Step 3: Build the agent. A missing AI provider is not fatal, the
	// deterministic pipeline still works.
	var provider ai.ChatProvider
	primary, fallback, err := ai.CreateChatProviderWithFallback()
	if err != nil {
		log.Printf("⚠️  No AI provider available, running in offline mode: %v", err)
	} else {
		provider = ai.NewFailoverProvider(primary, fallback)
	}

	var structurer *agent.Structurer
	if provider != nil {
		structurer = agent.NewStructurer(provider)
		log.Printf("✅ AI provider ready: %s", provider.GetProviderName())
	}

	expenseAgent := agent.New(
		structurer,
		agent.NewCategorizer(provider),
		agent.NewAdvisor(provider),
		agent.NewDefaultExtractor(),
		store,
		agent.NewMemory(),
	)

	// Warm the agent memory from stored history so categorization context
	// survives restarts. Load returns newest first; replay oldest to newest.
	if expenses, err := store.Load(); err == nil {
		n := len(expenses)
		if n > 50 {
			n = 50
		}
		for i := n - 1; i >= 0; i-- {
			expenseAgent.Memory().Remember(expenses[i])
		}
	}

	// Step 4: Initialize the Gin router
	router := gin.Default()

	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", configs.ALLOWED_ORIGINS)
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, GET, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		c.Writer.Header().Set("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	router.GET("/", func(c *gin.Context) {
		c.String(200, "ok")
	})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": "expense-agent",
			"version": "1.0.0",
		})
	})

	// Step 5: Define the API routes
	handlers := api.NewHandlers(expenseAgent, store)
	handlers.RegisterRoutes(router)

	// Step 6: Setup HTTP server with timeouts
	srv := &http.Server{
		Addr:           ":" + configs.PORT,
		Handler:        router,
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   3 * time.Minute, // Allow time for OCR + AI processing
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		log.Printf("Starting server on :%s", configs.PORT)
		log.Println("API Endpoints:")
		log.Println("  POST   /api/v1/receipts")
		log.Println("  GET    /api/v1/expenses")
		log.Println("  PUT    /api/v1/expenses/:id")
		log.Println("  DELETE /api/v1/expenses/:id")
		log.Println("  GET    /api/v1/expenses/summary")
		log.Println("  GET    /api/v1/expenses/export")
		log.Println("  POST   /api/v1/budget")
		log.Println("  GET    /api/v1/budget/alerts")
		log.Println("  GET    /api/v1/insights")
		log.Println("  POST   /api/v1/advice")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
