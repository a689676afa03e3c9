package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/davidbyttow/govips/v2/vips"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"github.com/helpdesk-io/helpdesk-ce/internal/api"
	"github.com/helpdesk-io/helpdesk-ce/internal/config"
	"github.com/helpdesk-io/helpdesk-ce/internal/database"
	"github.com/helpdesk-io/helpdesk-ce/internal/database/schema"
	"github.com/helpdesk-io/helpdesk-ce/internal/email"
	"github.com/helpdesk-io/helpdesk-ce/internal/repository"
	"github.com/helpdesk-io/helpdesk-ce/internal/service"
	"github.com/helpdesk-io/helpdesk-ce/internal/services/metrics"
	ticketservice "github.com/helpdesk-io/helpdesk-ce/internal/services/ticket"
	"github.com/helpdesk-io/helpdesk-ce/internal/ticketnumber"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:     "helpdesk",
	Short:   "Helpdesk ticketing core",
	Long:    "Internal helpdesk ticketing tool: ticket lifecycle, history, attachments and the persistent SQLite store behind them.",
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Bootstrap the database and run the API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig(configPath)
		if err != nil {
			return err
		}
		db, path, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer db.Close()
		log.Printf("serving with database %s", path)
		return runServer(cfg, db)
	},
}

var initDBCmd = &cobra.Command{
	Use:   "initdb",
	Short: "Bootstrap the persistent database and create the schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig(configPath)
		if err != nil {
			return err
		}
		db, path, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer db.Close()
		fmt.Printf("database ready at %s\n", path)
		return nil
	},
}

// openStore runs the bootstrap guard, connects to the canonical file and
// makes sure the schema exists.
func openStore(cfg *config.Config) (*sqlx.DB, string, error) {
	path, err := database.EnsurePersistentStore(database.BootstrapOptions{
		BundledPath:   cfg.Database.BundledPath,
		PersistentDir: cfg.Database.PersistentDir,
		Filename:      cfg.Database.Filename,
		LockTimeout:   cfg.Database.LockTimeout,
		InitSchema:    schema.Migrate,
	})
	if err != nil {
		return nil, "", fmt.Errorf("database bootstrap: %w", err)
	}
	db, err := database.Connect(path)
	if err != nil {
		return nil, "", err
	}
	if err := schema.Migrate(db); err != nil {
		db.Close()
		return nil, "", err
	}
	return db, path, nil
}

func runServer(cfg *config.Config, db *sqlx.DB) error {
	vips.Startup(nil)
	defer vips.Shutdown()

	gen := ticketnumber.NewMaxScan(ticketnumber.Config{
		Prefix: cfg.Ticket.IDPrefix,
		Base:   cfg.Ticket.CounterBase,
	})
	ticketRepo := repository.NewTicketRepository(db, gen)
	historyRepo := repository.NewHistoryRepository(db)
	attachmentRepo := repository.NewAttachmentRepository(db)
	lookupRepo := repository.NewLookupRepository(db)
	userRepo := repository.NewUserRepository(db)

	images := service.NewImageService(service.ImageOptions{
		MaxDimension: cfg.Attachments.MaxImageDimension,
		JPEGQuality:  cfg.Attachments.JPEGQuality,
	})
	tickets := ticketservice.NewService(db, ticketRepo, historyRepo, attachmentRepo, images)
	metricsSvc := metrics.NewService(db)
	mailer := email.NewService(cfg.Email)

	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	handler := api.NewHandler(tickets, metricsSvc, lookupRepo, userRepo, mailer)
	router := api.NewRouter(handler)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		log.Printf("received %s, shutting down", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(ctx)
}

func main() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file")
	rootCmd.AddCommand(serveCmd, initDBCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
