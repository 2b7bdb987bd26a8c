// Command transcriber runs pipeline jobs by hand and maintains the local
// transcript archive.
package main

import (
	"fmt"
	"os"

	"transcriber/internal/config"
	"transcriber/internal/logger"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

type app struct {
	cfg    *config.Config
	logger *log.Logger
}

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	a := &app{}
	var verbose bool

	root := &cobra.Command{
		Use:           "transcriber",
		Short:         "Audio transcription pipeline",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			level := cfg.LogLevel
			if verbose {
				level = "debug"
			}
			a.cfg = cfg
			a.logger = logger.New(logger.Options{Level: level, JSON: cfg.LogJSON})
			return nil
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(
		a.runCmd(),
		a.publishCmd(),
		a.indexCmd(),
		a.searchCmd(),
	)
	return root
}

func (a *app) archivePath(flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if a.cfg.ArchiveIndexPath != "" {
		return a.cfg.ArchiveIndexPath, nil
	}
	return "", fmt.Errorf("no archive path: pass --archive or set ARCHIVE_INDEX_PATH")
}
