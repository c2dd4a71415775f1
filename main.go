package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/Zachkp/folio/internal/config"
	"github.com/Zachkp/folio/internal/content"
	"github.com/Zachkp/folio/internal/mail"
	"github.com/Zachkp/folio/internal/store"
)

var (
	// Global flags
	verbose     bool
	addr        string
	contentPath string

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "folio",
	Short: "Portfolio site server",
	Long: `folio serves the portfolio: pages rendered with Gin and swapped with HTMX,
the scroll fade controller as WebAssembly, and the contact form.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	RunE:  runServe,
}

var mailTestCmd = &cobra.Command{
	Use:   "mail-test",
	Short: "Send a test message through the configured mail provider",
	Long: `Reports which mail configuration keys are present, then sends a fixed
test message the same way the contact form does.`,
	RunE: runMailTest,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&addr, "addr", "", "Listen address (overrides HTTP_ADDR and PORT)")
	rootCmd.PersistentFlags().StringVar(&contentPath, "content", "", "Content YAML file (overrides CONTENT_PATH)")
	rootCmd.AddCommand(serveCmd, mailTestCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, err
	}
	if addr != "" {
		cfg.Addr = addr
	}
	if contentPath != "" {
		cfg.ContentPath = contentPath
	}
	return cfg, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	gin.SetMode(cfg.GinMode)

	site, err := content.NewProvider(cfg.ContentPath, logger)
	if err != nil {
		return fmt.Errorf("load content: %w", err)
	}
	db, err := store.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	sender, err := mail.New(cfg.Mail)
	if err != nil {
		return err
	}

	srv, err := newServer(cfg, logger, site, db, sender)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpServer := &http.Server{
		Addr:              cfg.ListenAddr(),
		Handler:           srv.router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	g.Go(func() error { return site.Watch(ctx) })
	g.Go(func() error {
		srv.retentionLoop(ctx, cfg.CleanupInterval)
		return nil
	})
	return g.Wait()
}

func runMailTest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Provider: %s\n", cfg.Mail.Provider)
	for _, k := range mail.Check(cfg.Mail) {
		mark := "missing"
		if k.Present {
			mark = "set"
		}
		fmt.Fprintf(out, "  %-22s %s\n", k.Key, mark)
	}

	sender, err := mail.New(cfg.Mail)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()
	if err := sender.Send(ctx, mail.TestMessage()); err != nil {
		logger.Error("test email failed", zap.String("provider", sender.Name()), zap.Error(err))
		return err
	}
	fmt.Fprintf(out, "Test email sent via %s to %s\n", sender.Name(), cfg.Mail.To)
	return nil
}
