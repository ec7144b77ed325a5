package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"payslipgen/internal/app/server"
	"payslipgen/internal/domain/auth"
	"payslipgen/internal/platform/config"
	"payslipgen/internal/platform/logging"
)

func main() {
	hashKey := flag.String("hash-api-key", "", "print the bcrypt hash for an API key and exit")
	issueFor := flag.String("issue-token", "", "print a bearer token for the given subject and exit")
	tokenTTL := flag.Duration("token-ttl", 24*time.Hour, "lifetime of a token printed by -issue-token")
	flag.Parse()

	cfg := config.Load()

	if *hashKey != "" {
		hash, err := auth.HashAPIKey(*hashKey)
		if err != nil {
			fmt.Fprintln(os.Stderr, "hash failed:", err)
			os.Exit(1)
		}
		fmt.Println(hash)
		return
	}
	if *issueFor != "" {
		if cfg.JWTSecret == "" {
			fmt.Fprintln(os.Stderr, "JWT_SECRET is required to issue tokens")
			os.Exit(1)
		}
		token, err := auth.GenerateToken(cfg.JWTSecret, *issueFor, auth.ScopePayslips, *tokenTTL)
		if err != nil {
			fmt.Fprintln(os.Stderr, "token failed:", err)
			os.Exit(1)
		}
		fmt.Println(token)
		return
	}

	log, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger init failed:", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()
	zap.ReplaceGlobals(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := server.New(ctx, cfg, log)
	if err != nil {
		log.Fatal("startup failed", zap.Error(err))
	}
	defer app.Close()

	if err := app.Run(ctx); err != nil {
		log.Error("server stopped with error", zap.Error(err))
		app.Close()
		os.Exit(1)
	}
	log.Info("server stopped")
}
