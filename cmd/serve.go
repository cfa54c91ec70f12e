package cmd

import (
	"fmt"
	"os/exec"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"photosweep/internal/catalog"
	"photosweep/internal/fingerprint"
	"photosweep/internal/pipeline"
	"photosweep/internal/server"
)

var (
	servePort      int
	serveTimeout   time.Duration
	serveNoBrowser bool
)

var serveCmd = &cobra.Command{
	Use:   "serve <folder>",
	Short: "Start the web UI for reviewing and cleaning duplicates",
	Long: `Start a local web server with a visual interface for comparing duplicate
photos, trashing the redundant ones and restoring mistakes.

Example:
  photosweep serve ./photos             # Start on default port 8080
  photosweep serve ./photos -p 3000     # Use custom port
  photosweep serve ./photos --timeout 10m  # 10 minute idle timeout`,
	Args: cobra.ExactArgs(1),
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 8080, "Port to listen on")
	serveCmd.Flags().DurationVar(&serveTimeout, "timeout", 5*time.Minute, "Idle timeout (0 to disable)")
	serveCmd.Flags().BoolVar(&serveNoBrowser, "no-browser", false, "Don't open browser automatically")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	root := args[0]

	alg, err := fingerprint.ParseAlgorithm(algorithm)
	if err != nil {
		return err
	}

	store, err := catalog.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open catalog: %w", err)
	}

	p := pipeline.New(
		pipeline.WithWorkers(workers),
		pipeline.WithAlgorithm(alg),
		pipeline.WithBlurThreshold(blurThreshold),
		pipeline.WithThumbnails(true),
	)

	srv, err := server.New(server.Config{
		Root:        root,
		Catalog:     store,
		Pipeline:    p,
		Port:        servePort,
		IdleTimeout: serveTimeout,
		Threshold:   threshold,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	url := fmt.Sprintf("http://localhost:%d", servePort)
	fmt.Printf("Starting server at %s\n", url)
	fmt.Printf("Project root: %s\n", root)
	fmt.Println("Press Ctrl+C to stop")
	fmt.Println()

	if !serveNoBrowser {
		go func() {
			time.Sleep(500 * time.Millisecond)
			openBrowser(url)
		}()
	}

	return srv.Start()
}

func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	cmd.Run()
}
