package cmd

import (
	"fmt"
	u "net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/tanq16/baku/internal/config"
	"github.com/tanq16/baku/internal/downloader"
	"github.com/tanq16/baku/internal/output"
	"github.com/tanq16/baku/internal/utils"
)

var (
	outputPath     string
	workers        int
	legacyRanges   bool
	connectTimeout time.Duration
	kaTimeout      time.Duration
	userAgent      string
	proxyURL       string
	proxyUsername  string
	proxyPassword  string
	headers        []string
	configFile     string
	logFile        string
	noProgress     bool
	debug          bool
)

var BakuVersion = "dev"

var rootCmd = &cobra.Command{
	Use:     "baku [url]",
	Short:   "Baku is a fast multi-connection download accelerator",
	Version: BakuVersion,
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			output.PrintError(fmt.Sprintf("Configuration error: %v", err))
			os.Exit(1)
		}
		if cfg.LogFile != "" {
			if err := utils.InitFileLogger(cfg.Debug, cfg.LogFile); err != nil {
				output.PrintError(fmt.Sprintf("Logging error: %v", err))
				os.Exit(1)
			}
		} else {
			utils.InitLogger(cfg.Debug)
		}
		if cfg.UserAgent == "randomize" {
			cfg.UserAgent = utils.GetRandomUserAgent()
		}
		// Check if proxy URL contains auth
		if parsedProxy, err := u.Parse(cfg.ProxyURL); err == nil && parsedProxy.User != nil && cfg.ProxyUsername == "" {
			cfg.ProxyUsername = parsedProxy.User.Username()
			if password, set := parsedProxy.User.Password(); set {
				cfg.ProxyPassword = password
			}
			// Remove auth from URL to send in clientConfig
			parsedProxy.User = nil
			cfg.ProxyURL = parsedProxy.String()
		}
		url := args[0]
		if _, err := u.Parse(url); err != nil {
			output.PrintError("Invalid URL format")
			os.Exit(1)
		}
		job := downloader.Job{
			ID:           uuid.New().String(),
			URL:          url,
			OutputPath:   outputPath,
			Workers:      cfg.Workers,
			LegacyRanges: cfg.LegacyRanges,
			HTTPClientConfig: utils.HTTPClientConfig{
				ConnectTimeout: cfg.ConnectTimeout,
				KATimeout:      cfg.KATimeout,
				ProxyURL:       cfg.ProxyURL,
				ProxyUsername:  cfg.ProxyUsername,
				ProxyPassword:  cfg.ProxyPassword,
				UserAgent:      cfg.UserAgent,
				Headers:        cfg.Headers,
			},
		}
		coordinator := downloader.NewCoordinator(job)
		if err := coordinator.Start(); err != nil {
			output.PrintError(fmt.Sprintf("Error starting download: %v", err))
			os.Exit(1)
		}
		if noProgress || cfg.Debug {
			coordinator.Wait()
		} else {
			runDisplay(coordinator)
		}
		if coordinator.Status() == downloader.AllDone {
			output.PrintSuccess2(fmt.Sprintf("Saved %s", coordinator.OutputPath()))
			return
		}
		fmt.Println()
		output.PrintError("Encountered failed range(s)")
		os.Exit(1)
	},
}

// loadConfig layers defaults, the config file, BAKU_* environment variables
// and flag overrides, in that order.
func loadConfig() (config.Config, error) {
	cfg := config.Default()
	if configFile != "" {
		fileCfg, err := config.LoadFromFile(configFile)
		if err != nil {
			return config.Config{}, err
		}
		cfg = fileCfg
	}
	if err := cfg.LoadFromEnv(); err != nil {
		return config.Config{}, err
	}
	cfg = cfg.Merge(config.Config{
		Workers:        workers,
		LegacyRanges:   legacyRanges,
		ConnectTimeout: connectTimeout,
		KATimeout:      kaTimeout,
		ProxyURL:       proxyURL,
		ProxyUsername:  proxyUsername,
		ProxyPassword:  proxyPassword,
		UserAgent:      userAgent,
		Headers:        utils.ParseHeaderArgs(headers),
		Debug:          debug,
		LogFile:        logFile,
	})
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func runDisplay(coordinator *downloader.Coordinator) {
	manager := output.NewManager()
	snaps := coordinator.Snapshot()
	sizes := make([]int64, len(snaps))
	for i, snap := range snaps {
		sizes[i] = snap.Range.Size()
	}
	manager.SetJob(filepath.Base(coordinator.OutputPath()), coordinator.TotalSize(), sizes)
	manager.StartDisplay()
	feedDone := make(chan struct{})
	go func() {
		defer close(feedDone)
		ticker := time.NewTicker(300 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				pushState(manager, coordinator)
			case <-coordinator.Done():
				pushState(manager, coordinator)
				return
			}
		}
	}()
	coordinator.Wait()
	<-feedDone
	manager.StopDisplay()
}

func pushState(manager *output.Manager, coordinator *downloader.Coordinator) {
	for _, snap := range coordinator.Snapshot() {
		manager.UpdateWorker(snap.ID, snap.Status.String(), snap.Written)
		if snap.Err != nil {
			manager.ReportWorkerError(snap.ID, snap.Err)
		}
	}
	manager.SetAggregate(coordinator.Progress(), coordinator.BytesWritten())
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().StringVarP(&outputPath, "output", "o", ".", "Output file or directory path (Baku infers file name from the URL)")
	rootCmd.Flags().IntVarP(&workers, "workers", "w", 0, "Number of download workers (default: number of CPU cores; above 5 enables high-thread-mode)")
	rootCmd.Flags().DurationVar(&connectTimeout, "connect-timeout", 0, "Connection timeout (eg. 5s, 10m; default 10s)")
	rootCmd.Flags().DurationVarP(&kaTimeout, "keep-alive-timeout", "k", 0, "Keep-alive timeout for client (eg. 10s, 1m, 80s; default 90s)")
	rootCmd.Flags().StringVarP(&userAgent, "user-agent", "a", "", "User agent ('randomize' picks a random browser agent)")
	rootCmd.Flags().StringVarP(&proxyURL, "proxy", "p", "", "HTTP/HTTPS proxy URL (e.g., proxy.example.com:8080)")
	rootCmd.Flags().StringVar(&proxyUsername, "proxy-username", "", "Proxy username (if not provided in proxy URL)")
	rootCmd.Flags().StringVar(&proxyPassword, "proxy-password", "", "Proxy password (if not provided in proxy URL)")
	rootCmd.Flags().StringArrayVarP(&headers, "header", "H", []string{}, "Custom headers (like 'Authorization: Basic dXNlcjpwYXNz'); can be specified multiple times")
	rootCmd.Flags().StringVarP(&configFile, "config", "c", "", "Path to YAML config file")

	// flags without shorthand
	rootCmd.Flags().BoolVar(&legacyRanges, "legacy-ranges", false, "Use the original overlapping range arithmetic")
	rootCmd.Flags().StringVar(&logFile, "log-file", "", "Write logs to a file instead of stderr")
	rootCmd.Flags().BoolVar(&noProgress, "no-progress", false, "Disable the live progress display")
	rootCmd.Flags().BoolVar(&debug, "debug", false, "Enable debug logging")
}
