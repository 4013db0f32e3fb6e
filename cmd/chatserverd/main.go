package main

import (
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"projectchat/internal/config"
	"projectchat/internal/devserver"
	"projectchat/internal/models"
	"projectchat/pkg/logger"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Seed a couple of demo users and project rooms so a freshly started
	// server is immediately usable with cmd/chat.
	store := devserver.NewStore()
	seedDemoData(store)

	server := devserver.New(cfg.JWT.Secret, cfg.JWT.ExpiresIn, store)
	defer server.Shutdown()

	printDemoTokens(server)

	httpServer := &http.Server{
		Addr:         cfg.DevServer.Port,
		Handler:      server.Handler(),
		ReadTimeout:  cfg.DevServer.ReadTimeout,
		WriteTimeout: cfg.DevServer.WriteTimeout,
	}

	logger.Info("Dev chat server started on http://localhost%s", cfg.DevServer.Port)
	logger.Info("WebSocket endpoint: ws://localhost%s/ws", cfg.DevServer.Port)
	logger.Info("API endpoints:")
	logger.Info("   GET /api/assignments")
	logger.Info("   GET /api/rooms/{id}/messages")

	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Server shutting down...")
}

var demoUsers = []models.Sender{
	{ID: "u-intern", Name: "ida", Role: models.RoleIntern},
	{ID: "u-mentor", Name: "marco", Role: models.RoleMentor},
}

func seedDemoData(store *devserver.Store) {
	rooms := []models.Assignment{
		{RoomID: "pa-1001", ProjectName: "Onboarding Portal"},
		{RoomID: "pa-1002", ProjectName: "Data Pipeline"},
	}
	for _, user := range demoUsers {
		for _, room := range rooms {
			store.Assign(user.ID, room)
		}
	}
}

func printDemoTokens(server *devserver.Server) {
	for _, user := range demoUsers {
		token, err := server.MintToken(user)
		if err != nil {
			logger.Fatal("Failed to mint demo token: %v", err)
		}
		logger.Info("Demo token for %s (%s): %s", user.Name, user.Role, token)
	}
}
