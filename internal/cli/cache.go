package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/supermro/pkg/cache"
	"github.com/matzehuels/supermro/pkg/config"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage cached class declarations and rendered graphs",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached entry",
		RunE: func(cmd *cobra.Command, args []string) error {
			ch, err := c.newCache(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer ch.Close()

			clearer, ok := ch.(cache.Clearer)
			if !ok {
				printInfo("Caching is disabled")
				return nil
			}
			count, err := clearer.Clear(cmd.Context())
			if err != nil {
				return fmt.Errorf("clear cache: %w", err)
			}

			printSuccess("Cleared %d cached entries", count)
			printDetail("Location: %s", c.cacheLocation())
			return nil
		},
	}
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache location",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println(c.cacheLocation())
			return nil
		},
	}
}

// cacheLocation describes where the configured backend stores entries.
func (c *CLI) cacheLocation() string {
	cfg := c.config().Cache
	switch cfg.Backend {
	case config.BackendNone:
		return "(disabled)"
	case config.BackendRedis:
		return fmt.Sprintf("redis://%s/%d (prefix %s:)", cfg.RedisAddr, cfg.RedisDB, appName)
	}
	dir, err := c.cacheDir()
	if err != nil {
		return "(unavailable: " + err.Error() + ")"
	}
	return dir
}
