package main

import (
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/maxedonia/ela-mate-web/internal/config"
	"github.com/maxedonia/ela-mate-web/internal/factory"
	"github.com/maxedonia/ela-mate-web/internal/forensics"
	"github.com/maxedonia/ela-mate-web/internal/logger"
	"github.com/maxedonia/ela-mate-web/internal/repository"
	"github.com/maxedonia/ela-mate-web/internal/service"
	"github.com/maxedonia/ela-mate-web/internal/storage"
	"github.com/maxedonia/ela-mate-web/pkg/validation"
)

var (
	infoColor    = color.New(color.FgCyan).SprintFunc()
	successColor = color.New(color.FgGreen).SprintFunc()
	warningColor = color.New(color.FgYellow).SprintFunc()
	errorColor   = color.New(color.FgRed, color.Bold).SprintFunc()
)

var rootFlags struct {
	LogLevel string
	Backend  string
	Timeout  time.Duration
	NoColor  bool
}

var rootCmd = &cobra.Command{
	Use:           "elamate",
	Short:         "Error level analysis and noise forensics for images",
	Long:          `elamate recompresses images and renders the differences that reveal edited or spliced regions.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.Configure(os.Stderr, rootFlags.LogLevel, false)
		if rootFlags.NoColor {
			color.NoColor = true
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootFlags.LogLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&rootFlags.Backend, "backend", config.BackendNative, "Imaging backend (native, opencv)")
	rootCmd.PersistentFlags().DurationVar(&rootFlags.Timeout, "timeout", 2*time.Minute, "Per-image analysis timeout")
	rootCmd.PersistentFlags().BoolVar(&rootFlags.NoColor, "no-color", false, "Disable colored output")
}

// newService builds a service that reads local files and http(s) URLs
func newService(opts ...service.Option) (service.ForensicsService, error) {
	components := &factory.ComponentFactory{
		BackendFactory: factory.NewBackendFactory(),
		StorageFactory: factory.NewStorageFactory(factory.StorageOptions{
			FetchTimeout: 30 * time.Second,
			MaxBytes:     storage.DefaultMaxImageBytes,
		}),
	}

	backend, err := components.BackendFactory.CreateBackend(factory.BackendType(rootFlags.Backend))
	if err != nil {
		return nil, err
	}
	router, err := factory.NewRouter(components.StorageFactory, factory.LocalStorage, factory.HTTPStorage)
	if err != nil {
		return nil, err
	}

	repo := repository.NewLocalImageRepository(router, validation.NewURLValidator())
	return service.NewForensicsService(repo, forensics.NewEngine(backend), nil, rootFlags.Timeout, opts...), nil
}
