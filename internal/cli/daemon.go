package cli

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"leadly/internal/daemon"
	"leadly/internal/msg"
	"leadly/internal/notify"
	"leadly/internal/remind"
)

var daemonForeground bool

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Background reminder daemon",
	Long:  "The daemon watches upcoming appointments and sends reminders in the background.",
}

var daemonStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the daemon",
	Run: func(cmd *cobra.Command, args []string) {
		if daemonForeground {
			runDaemon()
			return
		}
		startDaemonBackground()
	},
}

var daemonStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the daemon",
	Run: func(cmd *cobra.Command, args []string) {
		stopDaemon()
	},
}

var daemonStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check daemon status",
	Run: func(cmd *cobra.Command, args []string) {
		checkDaemonStatus()
	},
}

var daemonScanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Trigger a reminder scan now",
	Run: func(cmd *cobra.Command, args []string) {
		client, err := daemon.Connect()
		if err != nil {
			fmt.Println("Daemon is not running. Start it with: leadly daemon start")
			os.Exit(1)
		}
		defer client.Close()

		if err := client.Scan(); err != nil {
			fmt.Printf("Error triggering scan: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Scan triggered.")
	},
}

func init() {
	daemonStartCmd.Flags().BoolVar(&daemonForeground, "foreground", false, "run in the foreground (for debugging)")
	daemonCmd.AddCommand(daemonStartCmd)
	daemonCmd.AddCommand(daemonStopCmd)
	daemonCmd.AddCommand(daemonStatusCmd)
	daemonCmd.AddCommand(daemonScanCmd)
	rootCmd.AddCommand(daemonCmd)
}

// newScheduler wires the reminder scheduler from the saved config.
func newScheduler() (*remind.Scheduler, error) {
	cfg := loadConfig()
	st := openStore()

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	ledger, err := remind.OpenLedger(filepath.Join(homeDir, ".config", "leadly"))
	if err != nil {
		return nil, err
	}

	var email remind.EmailSender
	if c := newEmailClient(cfg); c != nil {
		email = c
	} else {
		email = unconfiguredEmail{}
	}

	return remind.NewScheduler(cfg, st, ledger, email, notify.Send), nil
}

// unconfiguredEmail stands in when SMTP was never set up.
type unconfiguredEmail struct{}

func (unconfiguredEmail) Configured() bool { return false }
func (unconfiguredEmail) Send(to, subject, body string) error {
	return fmt.Errorf("smtp not configured")
}

var _ remind.EmailSender = (*msg.SMTPClient)(nil)

func runDaemon() {
	scheduler, err := newScheduler()
	if err != nil {
		fmt.Printf("Error building scheduler: %v\n", err)
		os.Exit(1)
	}

	srv, err := daemon.New(scheduler)
	if err != nil {
		fmt.Printf("Error starting daemon: %v\n", err)
		os.Exit(1)
	}

	if err := srv.Run(); err != nil {
		fmt.Printf("Daemon error: %v\n", err)
		os.Exit(1)
	}
}

func isDaemonRunning() bool {
	return daemon.IsRunning()
}

const maxLogSize = 10 * 1024 * 1024 // 10MB

// openDaemonLog opens the daemon log for appending, truncating it first
// when it has grown past the cap. Returns nil when the log cannot be
// opened; the daemon then runs silently.
func openDaemonLog() *os.File {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	path := filepath.Join(homeDir, ".config", "leadly", "daemon.log")

	if info, err := os.Stat(path); err == nil && info.Size() > maxLogSize {
		os.Remove(path)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return nil
	}
	return f
}

func startDaemonBackground() {
	if daemon.IsRunning() {
		fmt.Println("Daemon is already running.")
		return
	}

	executable, err := os.Executable()
	if err != nil {
		fmt.Printf("Error finding executable: %v\n", err)
		os.Exit(1)
	}

	cmd := exec.Command(executable, "daemon", "start", "--foreground")
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	cmd.Stdin = nil
	if logFile := openDaemonLog(); logFile != nil {
		defer logFile.Close()
		cmd.Stdout = logFile
		cmd.Stderr = logFile
	}

	if err := cmd.Start(); err != nil {
		fmt.Printf("Error starting daemon: %v\n", err)
		os.Exit(1)
	}
	// Let the child outlive us.
	if err := cmd.Process.Release(); err != nil {
		fmt.Printf("Error detaching daemon: %v\n", err)
		os.Exit(1)
	}

	// Give it a moment to come up.
	for i := 0; i < 10; i++ {
		time.Sleep(200 * time.Millisecond)
		if daemon.IsRunning() {
			fmt.Println("Daemon started.")
			return
		}
	}
	fmt.Println("Daemon did not come up, run with --foreground to debug.")
	os.Exit(1)
}

func stopDaemon() {
	client, err := daemon.Connect()
	if err == nil {
		defer client.Close()
		if err := client.Shutdown(); err == nil {
			fmt.Println("Daemon stopped.")
			return
		}
	}

	// No socket or shutdown failed: fall back to the pidfile.
	pid := daemon.RunningPID()
	if pid == 0 {
		fmt.Println("Daemon is not running.")
		return
	}
	if proc, err := os.FindProcess(pid); err == nil {
		proc.Signal(syscall.SIGTERM)
		fmt.Println("Daemon stopped.")
		return
	}
	fmt.Println("Daemon is not running.")
}

func checkDaemonStatus() {
	client, err := daemon.Connect()
	if err != nil {
		fmt.Println("Daemon is not running.")
		return
	}
	defer client.Close()

	status, err := client.Status()
	if err != nil {
		fmt.Printf("Error reading status: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Daemon running (pid %d, version %s)\n", status.PID, status.Version)
	fmt.Printf("  up since:  %s\n", status.StartedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("  scans run: %d\n", status.Scans)
	if !status.LastScan.IsZero() {
		fmt.Printf("  last scan: %s\n", status.LastScan.Format("2006-01-02 15:04:05"))
	}
	if status.LastError != "" {
		fmt.Printf("  last error: %s\n", status.LastError)
	}
}
