package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/collidium/collidium-cli/internal/fetch"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download raw source extracts",
	Long: `Download the collision and building-permit CSV extracts from the
city open-data portal into the configured data directory.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		log := zap.L().With(zap.String("command", "fetch"))

		if err := os.MkdirAll(cfg.Data.Dir, 0o755); err != nil {
			return eris.Wrapf(err, "fetch: create data dir %s", cfg.Data.Dir)
		}

		f := fetch.New(fetch.Options{
			Timeout:        time.Duration(cfg.Fetch.TimeoutSecs) * time.Second,
			MaxRetries:     cfg.Fetch.Retries,
			RequestsPerSec: cfg.Fetch.RequestsPerSec,
		})

		downloads := []struct {
			name string
			url  string
			path string
		}{
			{"collisions", cfg.Fetch.CollisionsURL, filepath.Join(cfg.Data.Dir, cfg.Data.CollisionsCSV)},
			{"permits", cfg.Fetch.PermitsURL, filepath.Join(cfg.Data.Dir, cfg.Data.PermitsCSV)},
		}
		for _, d := range downloads {
			log.Info("downloading extract", zap.String("dataset", d.name), zap.String("url", d.url))
			n, err := f.DownloadToFile(ctx, d.url, d.path)
			if err != nil {
				return eris.Wrapf(err, "fetch: download %s", d.name)
			}
			log.Info("downloaded extract",
				zap.String("dataset", d.name),
				zap.String("path", d.path),
				zap.Int64("bytes", n),
			)
		}

		fmt.Println("Fetch complete")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(fetchCmd)
}
