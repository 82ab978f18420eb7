package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/matzehuels/boardviz/pkg/board"
	"github.com/matzehuels/boardviz/pkg/cache"
	"github.com/matzehuels/boardviz/pkg/config"
	errs "github.com/matzehuels/boardviz/pkg/errors"
	"github.com/matzehuels/boardviz/pkg/render/nodelink"
)

// cacheCommand creates the render cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the render cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand. It clears the
// backend named in the config, or the default file cache when caching is
// disabled.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all cached renders",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if cfg.Cache.Kind == config.CacheNone {
				cfg.Cache.Kind = config.CacheFile
			}
			if cfg.Cache.Kind == config.CacheFile {
				dir, err := renderCacheDir(cfg)
				if err != nil {
					return err
				}
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					printInfo("Cache is empty")
					return nil
				}
			}

			rc, err := openRenderCache(cfg, loggerFromContext(cmd.Context()))
			if err != nil {
				return err
			}
			defer rc.Close()

			clearer, ok := rc.(cache.Clearer)
			if !ok {
				return errs.New(errs.ErrCodeUnsupported, "cache kind %q cannot be cleared", cfg.Cache.Kind)
			}
			count, err := clearer.Clear(cmd.Context())
			if err != nil {
				return errs.Wrap(errs.ErrCodeIO, err, "clear cache")
			}
			printSuccess("Cleared %d cached renders", count)
			return nil
		},
	}
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the render cache directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			dir, err := renderCacheDir(cfg)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), dir)
			return nil
		},
	}
}

// renderCacheDir returns cache.dir, or <user cache dir>/boardviz/renders.
func renderCacheDir(cfg *config.Config) (string, error) {
	if cfg.Cache.Dir != "" {
		return cfg.Cache.Dir, nil
	}
	base, err := os.UserCacheDir()
	if err != nil {
		return "", errs.Wrap(errs.ErrCodeIO, err, "locate cache directory")
	}
	return filepath.Join(base, appName, "renders"), nil
}

// openRenderCache returns the render cache selected by cfg.Cache. The caller
// must close it.
func openRenderCache(cfg *config.Config, logger *log.Logger) (cache.Cache, error) {
	switch cfg.Cache.Kind {
	case config.CacheFile:
		dir, err := renderCacheDir(cfg)
		if err != nil {
			return nil, err
		}
		logger.Debug("render cache", "kind", cfg.Cache.Kind, "dir", dir)
		return cache.NewFileCache(dir)
	case config.CacheRedis:
		addr := cfg.Cache.RedisAddr
		if addr == "" {
			addr = cfg.Source.RedisAddr
		}
		logger.Debug("render cache", "kind", cfg.Cache.Kind, "addr", addr)
		return cache.NewRedisCache(redis.NewClient(&redis.Options{Addr: addr}), cfg.Cache.Prefix), nil
	default:
		return cache.NewNullCache(), nil
	}
}

// cachedRenderer returns Graphviz rendering backed by c.
func cachedRenderer(c cache.Cache, cfg *config.Config) board.Renderer {
	return cache.WrapRenderer(c, cfg.CacheTTL(), nodelink.RenderSVG)
}
