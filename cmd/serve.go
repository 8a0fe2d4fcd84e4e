package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"croquis-cli/devapi"

	"github.com/spf13/cobra"
)

var (
	serveAddr  string
	serveDB    string
	serveQuiet bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run a local API with the layout endpoints, backed by SQLite",
	RunE: func(cmd *cobra.Command, args []string) error {
		addr := cfg.DevAddr
		if serveAddr != "" {
			addr = serveAddr
		}
		dbPath := cfg.DevDB
		if serveDB != "" {
			dbPath = serveDB
		}

		db, err := devapi.OpenSQLite(dbPath)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer db.Close()

		repo := devapi.NewRepository(db)
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		if err := repo.Init(ctx); err != nil {
			return fmt.Errorf("init database: %w", err)
		}

		e := devapi.NewServer(repo, devapi.Options{
			Secret: cfg.DevSecret,
			Prefix: cfg.DevPrefix,
			Quiet:  serveQuiet,
		})

		go func() {
			log.Printf("dev API listening on %s (db %s)", addr, dbPath)
			if cfg.DevSecret == "" {
				log.Printf("CROQUIS_DEV_SECRET is empty: routes accept any request")
			}
			if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("server error: %v", err)
				stop()
			}
		}()

		<-ctx.Done()
		log.Printf("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default $CROQUIS_DEV_ADDR or :3001)")
	serveCmd.Flags().StringVar(&serveDB, "db", "", "SQLite file (default $CROQUIS_DEV_DB)")
	serveCmd.Flags().BoolVar(&serveQuiet, "quiet", false, "disable the request log")
}
