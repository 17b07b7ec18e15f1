package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/fintrak/approval-workflow/internal/application/port"
	"github.com/fintrak/approval-workflow/internal/application/service"
	"github.com/fintrak/approval-workflow/internal/config"
	"github.com/fintrak/approval-workflow/internal/email"
	"github.com/fintrak/approval-workflow/internal/export"
	httpserver "github.com/fintrak/approval-workflow/internal/interfaces/http"
	"github.com/fintrak/approval-workflow/internal/lark"
	"github.com/fintrak/approval-workflow/internal/repository"
	"github.com/fintrak/approval-workflow/pkg/database"
	"github.com/fintrak/approval-workflow/pkg/utils"
)

func main() {
	// .env is optional; real deployments set environment variables directly
	_ = gotenv.Load()

	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting approval workflow service",
		zap.Int("port", cfg.Server.Port),
		zap.String("notifier", cfg.Notifier.Transport))

	db, err := database.Open(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to open database", zap.Error(err))
	}
	defer db.Close()

	migrator := database.NewMigrator(db, logger)
	if err := migrator.Run(cfg.Database.MigrationsDir); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	if err := os.MkdirAll(cfg.Voucher.OutputDir, 0755); err != nil {
		logger.Fatal("Failed to create voucher output directory", zap.Error(err))
	}

	txManager := repository.NewDB(db, logger)
	requestRepo := repository.NewRequestRepository(db, logger)
	historyRepo := repository.NewHistoryRepository(db, logger)
	permissionRepo := repository.NewPermissionRepository(db, logger)

	var notifier port.Notifier
	switch cfg.Notifier.Transport {
	case "lark":
		notifier = lark.NewMessenger(lark.Config{
			AppID:     cfg.Lark.AppID,
			AppSecret: cfg.Lark.AppSecret,
		}, logger)
	default:
		notifier, err = email.NewSender(email.Config{
			Host:       cfg.SMTP.Host,
			Port:       cfg.SMTP.Port,
			Username:   cfg.SMTP.Username,
			Password:   cfg.SMTP.Password,
			FromAddr:   cfg.SMTP.FromAddr,
			SenderName: cfg.SMTP.SenderName,
		}, logger)
		if err != nil {
			logger.Fatal("Failed to initialize SMTP sender", zap.Error(err))
		}
	}

	voucherGenerator := export.NewGenerator(cfg.Voucher.OutputDir, cfg.Voucher.CompanyName, logger)

	workflowService := service.NewWorkflowService(
		requestRepo,
		historyRepo,
		permissionRepo,
		notifier,
		voucherGenerator,
		txManager,
		utils.NewKV(logger),
	)

	server := httpserver.NewServer(httpserver.ServerConfig{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, workflowService, utils.NewKV(logger))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Start(ctx); err != nil {
		logger.Fatal("HTTP server failed", zap.Error(err))
	}

	logger.Info("Server stopped")
}
