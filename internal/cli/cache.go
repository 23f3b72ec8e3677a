package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

// defaultCacheDir is where the file cache lives when the config does
// not name one.
func defaultCacheDir() string {
	base, err := os.UserCacheDir()
	if err != nil {
		base = os.TempDir()
	}
	return filepath.Join(base, "flowscope")
}

// newCacheCmd creates the cache management command.
func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the file cache",
	}

	cmd.AddCommand(newCacheClearCmd())
	cmd.AddCommand(newCacheInfoCmd())

	return cmd
}

// newCacheClearCmd creates the "cache clear" subcommand.
func newCacheClearCmd() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove all cached entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			if dir == "" {
				dir = defaultCacheDir()
			}

			if _, err := os.Stat(dir); os.IsNotExist(err) {
				printInfo("Cache is empty")
				return nil
			}

			count := 0
			err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
				if err != nil || path == dir {
					return nil
				}
				if !info.IsDir() {
					if err := os.Remove(path); err == nil {
						count++
					}
				}
				return nil
			})
			if err != nil {
				return err
			}

			// Clean up empty subdirectories
			_ = filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
				if err != nil || path == dir {
					return nil
				}
				if info.IsDir() {
					os.Remove(path)
				}
				return nil
			})

			printSuccess("Cleared %d cached entries", count)
			printKeyValue("directory", dir)
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "cache directory (defaults to the user cache dir)")
	return cmd
}

// newCacheInfoCmd creates the "cache info" subcommand.
func newCacheInfoCmd() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "info",
		Short: "Show the cache location and size",
		RunE: func(cmd *cobra.Command, args []string) error {
			if dir == "" {
				dir = defaultCacheDir()
			}

			var (
				count int
				bytes int64
			)
			_ = filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
				if err != nil || info.IsDir() {
					return nil
				}
				count++
				bytes += info.Size()
				return nil
			})

			printKeyValue("directory", dir)
			printKeyValue("entries", fmt.Sprintf("%d", count))
			printKeyValue("size", fmt.Sprintf("%.1f KB", float64(bytes)/1024))
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "cache directory (defaults to the user cache dir)")
	return cmd
}
