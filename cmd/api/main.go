package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/kittyapp/kitty/internal/auth"
	"github.com/kittyapp/kitty/internal/categorize"
	categorizeStore "github.com/kittyapp/kitty/internal/categorize/store"
	"github.com/kittyapp/kitty/internal/config"
	"github.com/kittyapp/kitty/internal/database"
	"github.com/kittyapp/kitty/internal/event"
	eventStore "github.com/kittyapp/kitty/internal/event/store"
	"github.com/kittyapp/kitty/internal/expense"
	expenseStore "github.com/kittyapp/kitty/internal/expense/store"
	"github.com/kittyapp/kitty/internal/export"
	kittyHttp "github.com/kittyapp/kitty/internal/http"
	accountHandler "github.com/kittyapp/kitty/internal/http/account"
	authHandler "github.com/kittyapp/kitty/internal/http/auth"
	categoryHandler "github.com/kittyapp/kitty/internal/http/category"
	eventHandler "github.com/kittyapp/kitty/internal/http/event"
	expenseHandler "github.com/kittyapp/kitty/internal/http/expense"
	importHandler "github.com/kittyapp/kitty/internal/http/importcsv"
	"github.com/kittyapp/kitty/internal/importer"
	"github.com/kittyapp/kitty/internal/user"
	userStore "github.com/kittyapp/kitty/internal/user/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	db, err := database.New(context.Background(), cfg.ConnectionString())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	var (
		userService       = user.NewService(userStore.New(db))
		eventService      = event.NewService(eventStore.New(db), userService)
		expenseService    = expense.NewService(expenseStore.New(db))
		categorizeService = categorize.NewService(categorizeStore.New(db))
		exportService     = export.NewService(expenseService)
		importService     = importer.NewService()

		authenticator = auth.NewAuthenticator(userService)
		jwtManager    = auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.TokenLifetime)
	)

	var (
		authH     = authHandler.NewHandler(authenticator, jwtManager)
		accountH  = accountHandler.NewHandler(userService, authenticator)
		eventH    = eventHandler.NewHandler(eventService, expenseService, exportService)
		expenseH  = expenseHandler.NewHandler(eventService, expenseService)
		categoryH = categoryHandler.NewHandler(expenseService, categorizeService)
		importH   = importHandler.NewHandler(eventService, expenseService, importService, categorizeService)
	)

	router := kittyHttp.New(jwtManager, authH, accountH, eventH, expenseH, categoryH, importH)

	port := fmt.Sprintf(":%d", cfg.App.Port)
	slog.Info("starting server", "app", cfg.App.Name, "port", port)

	if err := http.ListenAndServe(port, router); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
