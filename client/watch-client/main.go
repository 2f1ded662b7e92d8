package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/nvr-labs/crashwatch/client/watch-client/client"
	"github.com/nvr-labs/crashwatch/client/watch-client/common"
	"github.com/nvr-labs/crashwatch/client/watch-client/config"
	"github.com/nvr-labs/crashwatch/client/watch-client/events"
	"github.com/nvr-labs/crashwatch/client/watch-client/preview"
	"github.com/nvr-labs/crashwatch/client/watch-client/submission"
)

// CLI flags
var (
	configFlag    string
	serverURLFlag string
	eventsURLFlag string
	roleFlag      string
)

var rootCmd = &cobra.Command{
	Use:   "watch-client",
	Short: "Submit videos and camera streams to the accident analysis server",
	Long: `watch-client submits road footage to the analysis server and follows the
processing lifecycle (upload, server-side analysis, completion or failure)
over the server's push channel.

Examples:
  watch-client register alice secret123
  watch-client login alice secret123
  watch-client submit dashcam/crash1.mp4
  watch-client camera rtsp://10.0.0.12:554/stream1`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "config.json", "Path to the client config file")
	rootCmd.PersistentFlags().StringVar(&serverURLFlag, "server-url", "", "Server URL (overrides config)")
	rootCmd.PersistentFlags().StringVar(&eventsURLFlag, "events-url", "", "Push channel URL (overrides config)")

	registerCmd.Flags().StringVar(&roleFlag, "role", "user", "Account role (user or admin)")

	rootCmd.AddCommand(loginCmd, registerCmd, submitCmd, cameraCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var loginCmd = &cobra.Command{
	Use:   "login <username> <password>",
	Short: "Authenticate and store the session locally",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()

		serverClient := client.NewAnalysisServerClient(cfg.ServerURL, "", requestTimeout(cfg))
		session, err := serverClient.Login(context.Background(), args[0], args[1])
		if err != nil {
			return fmt.Errorf("login failed: %w", err)
		}

		if err := sessionStore().Save(session); err != nil {
			return err
		}

		fmt.Printf("Logged in as %s (%s)\n", session.Username, session.Role)
		return nil
	},
}

var registerCmd = &cobra.Command{
	Use:   "register <username> <password>",
	Short: "Create a new account on the server",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()

		serverClient := client.NewAnalysisServerClient(cfg.ServerURL, "", requestTimeout(cfg))
		if err := serverClient.Register(context.Background(), args[0], args[1], roleFlag); err != nil {
			return fmt.Errorf("registration failed: %w", err)
		}

		fmt.Printf("Registered %s\n", args[0])
		return nil
	},
}

var cameraCmd = &cobra.Command{
	Use:   "camera <url>",
	Short: "Validate a live camera stream URL",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()

		serverClient := client.NewAnalysisServerClient(cfg.ServerURL, "", 30*time.Second)
		previews := preview.NewManager(cfg.PreviewDir)
		coordinator := submission.NewCoordinator(serverClient, previews, nil, 0)

		message, err := coordinator.ValidateCamera(context.Background(), args[0])
		if err != nil {
			return fmt.Errorf("camera validation failed: %w", err)
		}

		if message == "" {
			message = "Camera connected successfully"
		}
		fmt.Println(message)
		return nil
	},
}

var submitCmd = &cobra.Command{
	Use:   "submit <video-file>",
	Short: "Upload a video and follow its analysis to completion",
	Args:  cobra.ExactArgs(1),
	RunE:  runSubmit,
}

func runSubmit(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	setupLogging()

	session, err := sessionStore().Load()
	if err != nil {
		return err
	}
	if session == nil {
		return fmt.Errorf("not logged in; run 'watch-client login' first")
	}

	serverClient := client.NewAnalysisServerClient(cfg.ServerURL, session.Token, requestTimeout(cfg))

	previews := preview.NewManager(cfg.PreviewDir)
	previews.CleanupTempDirectory()

	listener := newConsoleListener()
	coordinator := submission.NewCoordinator(serverClient, previews, listener,
		time.Duration(cfg.ResetDelaySeconds)*time.Second)

	// The push subscription spans the whole submission: events for other
	// clients' jobs arrive on the same channel and are filtered by the
	// coordinator's filename gate.
	subscriber, err := events.Dial(cfg.EventsURL)
	if err != nil {
		return err
	}
	defer subscriber.Close()

	correlator := events.NewCorrelator(subscriber, coordinator)
	correlator.Attach()
	defer correlator.Detach()

	if err := coordinator.SelectFile(args[0]); err != nil {
		return err
	}

	if err := coordinator.BeginUpload(context.Background()); err != nil {
		return err
	}

	select {
	case <-listener.terminal:
	case <-subscriber.Done():
		coordinator.Clear()
		return fmt.Errorf("push channel closed before processing finished")
	}

	// Release the preview and return to idle before exiting.
	coordinator.Clear()

	// The notices already told the user what happened; the error here only
	// sets the exit code.
	switch listener.Outcome() {
	case submission.PhaseCompleted:
		return nil
	case submission.PhaseFailed:
		return fmt.Errorf("processing failed")
	default:
		return fmt.Errorf("upload failed")
	}
}

// consoleListener renders coordinator state as terminal output and records
// how the submission ended so the command can exit accordingly.
type consoleListener struct {
	terminal chan struct{}

	mu      sync.Mutex
	outcome submission.Phase
}

func newConsoleListener() *consoleListener {
	return &consoleListener{terminal: make(chan struct{}, 1)}
}

func (l *consoleListener) JobUpdated(job submission.Job) {
	if msg := job.StatusMessage(); msg != "" {
		fmt.Println(msg)
	}

	// A terminal phase ends the submission. So does a return to idle after
	// the upload started: a failed upload clears the job straight back.
	if job.Phase.Terminal() || job.Phase == submission.PhaseIdle {
		l.mu.Lock()
		if l.outcome == "" {
			l.outcome = job.Phase
		}
		l.mu.Unlock()

		select {
		case l.terminal <- struct{}{}:
		default:
		}
	}
}

// Outcome reports the phase the submission ended in. The first ending phase
// wins; the clear back to idle on exit does not overwrite it.
func (l *consoleListener) Outcome() submission.Phase {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.outcome
}

func (l *consoleListener) Notice(severity submission.Severity, title, message string) {
	fmt.Printf("[%s] %s: %s\n", severity, title, message)
}

func loadConfig() *config.Config {
	cfg, err := config.LoadConfig(configFlag)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	cfg.Override(config.ConfigOverrides{
		ServerURL: &serverURLFlag,
		EventsURL: &eventsURLFlag,
	})

	return cfg
}

func requestTimeout(cfg *config.Config) time.Duration {
	// Zero means no client-side timeout: a stalled upload is left to the
	// operator to abandon rather than silently cut off.
	return time.Duration(cfg.ServerTimeoutSeconds) * time.Second
}

func sessionStore() *config.SessionStore {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	} else {
		dir = filepath.Join(dir, "watch-client")
		if err := os.MkdirAll(dir, 0700); err != nil {
			dir = "."
		}
	}
	return config.NewSessionStore(filepath.Join(dir, "session.json"))
}

func setupLogging() {
	if err := os.MkdirAll("logs", 0755); err != nil {
		return
	}
	log.SetOutput(common.NewDailyRotatingWriter("logs", "watch-client"))
}
