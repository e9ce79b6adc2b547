package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"smsbridge/internal/config"
	"smsbridge/internal/contacts"
	"smsbridge/internal/graph"
	"smsbridge/internal/httpserver"
	"smsbridge/internal/service"
	"smsbridge/internal/storage"
	"smsbridge/pkg/logger"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the polling bridge",
	RunE:  runBridge,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runBridge(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logger.NewLogger()
	defer log.Sync()

	log.Info("Starting smsbridge",
		zap.String("user_id", cfg.Graph.UserID),
		zap.Int("poll_interval_seconds", cfg.Poll.IntervalSeconds),
		zap.String("port", cfg.Server.Port),
	)

	// Whitelist: a parse failure is fatal, the bridge must not run
	// unfiltered.
	var dir *contacts.Directory
	if cfg.Contacts.CSVInline != "" {
		dir, err = contacts.ParseString(cfg.Contacts.CSVInline)
	} else {
		dir, err = contacts.LoadFile(cfg.Contacts.CSVPath)
	}
	if err != nil {
		log.Fatal("Failed to load contact directory", zap.Error(err))
	}
	log.Info("Contact directory loaded", zap.Int("entries", dir.Len()))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Credentials are verified eagerly; running without them is useless.
	httpClient, err := graph.NewHTTPClient(ctx, cfg.Graph)
	if err != nil {
		log.Fatal("Graph authentication failed", zap.Error(err))
	}
	client := graph.NewClient(cfg.Graph, cfg.Mail, httpClient, log)

	if user, err := client.GetUser(ctx); err != nil {
		log.Warn("Could not fetch mailbox owner identity", zap.Error(err))
	} else {
		log.Info("Signed in",
			zap.String("display_name", user.DisplayName),
			zap.String("email", user.Email()),
		)
	}

	normalizer := service.NewNormalizer(dir, log)
	detector := service.NewDetector(client, normalizer, cfg.Mail.FetchLimit, log)
	store := storage.NewAttachmentStore(cfg.Storage.AttachmentDir, log)
	queue := service.NewRetryQueue(cfg.Poll.MaxRetries, log)
	pipeline := service.NewPipeline(client, client, store, cfg.Tasks.ListID, log)
	poller := service.NewPoller(
		detector,
		pipeline,
		queue,
		time.Duration(cfg.Poll.IntervalSeconds)*time.Second,
		time.Duration(cfg.Poll.CycleTimeoutSeconds)*time.Second,
		log,
	)

	// Liveness server: answers independently of poll-cycle health.
	router := httpserver.NewRouter()
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router.Engine,
	}
	go func() {
		log.Info("HTTP server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// Blocks until the baseline fetch fails or ctx is cancelled.
	if err := poller.Run(ctx); err != nil {
		log.Error("Poller terminated", zap.Error(err))
	}

	log.Info("Shutting down smsbridge gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", zap.Error(err))
	} else {
		log.Info("HTTP server stopped")
	}

	log.Info("smsbridge shutdown complete")
	return nil
}
