// file: cmd/root.go
// version: 1.0.0
// guid: 4a9b6e1d-8f3c-4b5a-6d0e-2c7f5a8b1e4d

package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jdfalk/abs-meta/internal/cache"
	"github.com/jdfalk/abs-meta/internal/config"
	"github.com/jdfalk/abs-meta/internal/database"
	"github.com/jdfalk/abs-meta/internal/identity"
	"github.com/jdfalk/abs-meta/internal/providers"
	"github.com/jdfalk/abs-meta/internal/providers/bookbeat"
	"github.com/jdfalk/abs-meta/internal/providers/storytel"
	"github.com/jdfalk/abs-meta/internal/server"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "abs-meta",
	Short: "Audiobook metadata aggregation server",
	Long: `abs-meta aggregates audiobook metadata from Storytel and BookBeat
behind a caching, deduplicating store. Search results are fingerprinted and
cached with a TTL; book records are deduplicated by provider identity so
repeated searches never create duplicate rows.`,
}

// openStore creates the configured store backend.
func openStore() (database.Store, error) {
	cfg := config.App()
	store, err := database.NewStore(cfg.DatabaseType, cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return store, nil
}

// newCacheService wires the cache over a store with per-provider identity
// strategies. Storytel prefers global identifiers (ISBN/ASIN) when a
// record carries no native id; everything else falls back to the content
// hash.
func newCacheService(store database.Store) *cache.Service {
	strategies := map[string]identity.Strategy{
		"storytel": identity.GlobalIdentifierFirst{},
	}
	return cache.NewService(store, strategies, config.CacheTTL)
}

func newRegistry(svc *cache.Service) *providers.Registry {
	return providers.NewRegistry(
		storytel.New(svc),
		bookbeat.New(svc),
	)
}

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the metadata server",
	Long:  `Start the HTTP server exposing provider search, cache admin, and metrics endpoints.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		fmt.Printf("Using database: %s (%s)\n", config.App().DatabasePath, config.App().DatabaseType)

		svc := newCacheService(store)
		registry := newRegistry(svc)

		// Pick up TTL changes from the config file without a restart.
		if viper.ConfigFileUsed() != "" {
			config.Watch()
		}

		reaper := cache.NewReaper(store, config.ReapInterval())
		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()
		go reaper.Run(ctx)

		srv := server.NewServer(registry, svc)
		cfg := server.GetDefaultServerConfig()
		if port := cmd.Flag("port").Value.String(); port != "" {
			cfg.Port = port
		}
		if host := cmd.Flag("host").Value.String(); host != "" {
			cfg.Host = host
		}
		if rt := cmd.Flag("read-timeout").Value.String(); rt != "" {
			if d, err := time.ParseDuration(rt); err == nil {
				cfg.ReadTimeout = d
			}
		}
		if wt := cmd.Flag("write-timeout").Value.String(); wt != "" {
			if d, err := time.ParseDuration(wt); err == nil {
				cfg.WriteTimeout = d
			}
		}

		fmt.Printf("Starting abs-meta server on %s:%s\n", cfg.Host, cfg.Port)
		return srv.Start(cfg)
	},
}

// reapCmd represents the reap command
var reapCmd = &cobra.Command{
	Use:   "reap",
	Short: "Delete expired search cache entries",
	Long:  `Run a single sweep that removes expired search cache entries. Book records are never touched.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		reaper := cache.NewReaper(store, 0)
		removed, err := reaper.Sweep()
		if err != nil {
			return fmt.Errorf("reap failed: %w", err)
		}
		fmt.Printf("Removed %d expired search entries\n", removed)
		return nil
	},
}

// purgeCmd represents the purge command
var purgeCmd = &cobra.Command{
	Use:   "purge <provider>",
	Short: "Delete all cached data for a provider",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		provider := args[0]
		svc := newCacheService(store)
		if err := svc.ClearProvider(provider); err != nil {
			return fmt.Errorf("purge failed: %w", err)
		}
		fmt.Printf("Purged cached data for provider %q\n", provider)
		return nil
	},
}

// providersCmd represents the providers command
var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List configured providers and their parameters",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := newCacheService(database.NewMockStore())
		for _, p := range newRegistry(svc).All() {
			cfg := p.Config()
			fmt.Printf("%s\n", cfg.Name)
			if len(cfg.RequiredParams) > 0 {
				fmt.Printf("  required: %v\n", cfg.RequiredParams)
			}
			if len(cfg.OptionalParams) > 0 {
				fmt.Printf("  optional: %v\n", cfg.OptionalParams)
			}
			for param, allowed := range cfg.ParameterWhitelists {
				fmt.Printf("  %s whitelist: %d values\n", param, len(allowed))
			}
		}
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.abs-meta.yaml)")
	rootCmd.PersistentFlags().String("db", "abs-meta.db", "path to database")
	rootCmd.PersistentFlags().String("db-type", "sqlite", "database type: sqlite (default) or pebble")

	viper.BindPFlag("database_path", rootCmd.PersistentFlags().Lookup("db"))
	viper.BindPFlag("database_type", rootCmd.PersistentFlags().Lookup("db-type"))

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(reapCmd)
	rootCmd.AddCommand(purgeCmd)
	rootCmd.AddCommand(providersCmd)

	serveCmd.Flags().String("port", "", "port to listen on (default from listen_port config)")
	serveCmd.Flags().String("host", "0.0.0.0", "host to bind to")
	serveCmd.Flags().String("read-timeout", "15s", "read timeout (e.g. 15s, 1m)")
	serveCmd.Flags().String("write-timeout", "15s", "write timeout (e.g. 15s, 1m)")
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".abs-meta")
	}

	viper.SetEnvPrefix("ABSMETA")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Println("Using config file:", viper.ConfigFileUsed())
	}

	// Ensure database directory exists
	if dbPath := viper.GetString("database_path"); dbPath != "" {
		dbDir := filepath.Dir(dbPath)
		if dbDir != "." {
			if err := os.MkdirAll(dbDir, 0755); err != nil {
				fmt.Printf("Error creating database directory: %v\n", err)
			}
		}
	}

	config.InitConfig()
}
