package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"leadly/internal/updater"
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update leadly to the latest version",
	RunE: func(cmd *cobra.Command, args []string) error {
		// Check if installed via Homebrew
		if executable, err := os.Executable(); err == nil {
			// Resolve symlink to get real path (Homebrew uses symlinks)
			resolved, _ := filepath.EvalSymlinks(executable)
			if strings.Contains(resolved, "/Cellar/") {
				fmt.Println("leadly is installed via Homebrew.")
				fmt.Println("Please run 'brew upgrade leadly' instead.")
				return nil
			}
		}

		// The daemon keeps the old binary's socket open; restart it around
		// the swap.
		daemonWasRunning := isDaemonRunning()
		if daemonWasRunning {
			fmt.Println("Stopping daemon before update...")
			stopDaemon()
		}

		if err := updater.Update(); err != nil {
			return err
		}

		if daemonWasRunning {
			fmt.Println("Restarting daemon...")
			startDaemonBackground()
		}

		return nil
	},
}
