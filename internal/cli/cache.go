package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/particula/pkg/cache"
	"github.com/matzehuels/particula/pkg/config"
	"github.com/matzehuels/particula/pkg/errors"
)

// redisPingTimeout bounds the startup check of a redis cache.
const redisPingTimeout = 3 * time.Second

func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or empty the cloud and render cache",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "clear",
			Short: "Delete every cached cloud and render",
			Args:  cobra.NoArgs,
			RunE:  c.runCacheClear,
		},
		&cobra.Command{
			Use:   "path",
			Short: "Print where the file cache lives",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				cfg, _, err := c.loadConfig()
				if err != nil {
					return err
				}
				dir, err := fileCacheDir(cfg)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), dir)
				return nil
			},
		},
	)
	return cmd
}

func (c *CLI) runCacheClear(cmd *cobra.Command, _ []string) error {
	cfg, _, err := c.loadConfig()
	if err != nil {
		return err
	}
	switch cfg.Cache.Backend {
	case config.CacheRedis:
		printInfo("Cache is in redis; entries expire on their own")
		return nil
	case config.CacheNone:
		printInfo("Caching is disabled")
		return nil
	}

	dir, err := fileCacheDir(cfg)
	if err != nil {
		return err
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		printInfo("Cache is empty")
		return nil
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		return err
	}
	defer fc.Close()

	n, err := fc.Clear()
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "clear %s", dir)
	}
	printSuccess("Removed %d entries", n)
	printDetail("%s", dir)
	return nil
}

// newCache opens the backend named by cache.backend. noCache forces the
// null cache.
func newCache(ctx context.Context, cfg *config.Config, noCache bool) (cache.Cache, error) {
	if noCache || cfg.Cache.Backend == config.CacheNone {
		return cache.NewNullCache(), nil
	}
	if cfg.Cache.Backend == config.CacheRedis {
		return openRedis(ctx, cfg.Cache.RedisURL)
	}
	dir, err := fileCacheDir(cfg)
	if err != nil {
		return nil, err
	}
	return cache.NewFileCache(dir)
}

func openRedis(ctx context.Context, url string) (cache.Cache, error) {
	rc, err := cache.NewRedisCache(url, appName+":")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "cache.redis_url")
	}
	ctx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()
	if err := rc.Ping(ctx); err != nil {
		_ = rc.Close()
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "reach redis")
	}
	return rc, nil
}

// fileCacheDir is cache.dir, or $XDG_CACHE_HOME/particula.
func fileCacheDir(cfg *config.Config) (string, error) {
	if cfg.Cache.Dir != "" {
		return cfg.Cache.Dir, nil
	}
	dir, err := cacheDir()
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidPath, err, "locate cache dir")
	}
	return dir, nil
}

func cacheDir() (string, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".cache")
	}
	return filepath.Join(base, appName), nil
}
