package cmd

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rohmanhakim/pdfcrawler/internal/build"
	"github.com/rohmanhakim/pdfcrawler/internal/config"
	"github.com/rohmanhakim/pdfcrawler/internal/orchestrator"
	"github.com/spf13/cobra"
)

var (
	cfgFile       string
	startURL      string
	maxDepth      int
	concurrency   int
	delay         time.Duration
	output        string
	respectRobots bool
	verifyPDFs    bool
	userAgent     string
	timeout       time.Duration
	downloadDir   string
	resume        bool
	logLevel      string
	metricsAddr   string
	showVersion   bool
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "pdfcrawler",
	Short: "A parallel crawler that discovers and downloads PDFs from a documentation site.",
	Long: `pdfcrawler walks a site breadth-first from a start URL, classifying every
outbound link as a PDF candidate or a traversal candidate, downloading and
validating anything it classifies as a PDF, and recording everything it
finds in a JSON report that stays valid and complete at every instant of
the run.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if showVersion {
			fmt.Println(build.FullVersion())
			return nil
		}

		cfg, err := buildConfig()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
			return err
		}

		o, err := orchestrator.New(cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
			return err
		}

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		summary, err := o.Run(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
			return err
		}

		fmt.Printf("crawl complete: %d downloaded, %d failed, report at %s\n",
			summary.Downloaded, summary.Failed, summary.ReportPath)
		return nil
	},
}

// Execute adds all child commands to the root command and runs it.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config-file", "", "config file path (e.g., /home/myuser/config.json)")
	rootCmd.PersistentFlags().StringVar(&startURL, "url", "", "start URL (scheme defaults to http:// if omitted)")
	rootCmd.PersistentFlags().IntVar(&maxDepth, "depth", 5, "maximum BFS link depth from the start URL")
	rootCmd.PersistentFlags().IntVar(&concurrency, "concurrency", 12, "baseline number of crawl workers")
	rootCmd.PersistentFlags().DurationVar(&delay, "delay", time.Second, "inter-request pause hint per host")
	rootCmd.PersistentFlags().StringVar(&output, "output", "pdfs.json", "JSON report path")
	rootCmd.PersistentFlags().BoolVar(&respectRobots, "respect-robots", false, "honor a coarse robots.txt Disallow: / gate")
	rootCmd.PersistentFlags().BoolVar(&verifyPDFs, "verify-pdfs", true, "enable the classifier's network probe stages")
	rootCmd.PersistentFlags().StringVar(&userAgent, "user-agent", "", "user agent string for HTTP requests")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "per-request timeout (0 uses the built-in default)")
	rootCmd.PersistentFlags().StringVar(&downloadDir, "download-dir", "downloaded_pdfs", "directory downloaded PDFs are saved to")
	rootCmd.PersistentFlags().BoolVar(&resume, "resume", true, "skip re-downloading a file already valid on disk")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "address to serve Prometheus /metrics on (empty disables it)")
	rootCmd.PersistentFlags().BoolVar(&showVersion, "version", false, "print the build version and exit")
}

// buildConfig resolves a config.Config from --config-file if given,
// otherwise from flags and, failing that, an interactive prompt for the
// start URL (spec.md §6: "Interactive prompts MAY substitute for flags").
func buildConfig() (config.Config, error) {
	if cfgFile != "" {
		return config.WithConfigFile(cfgFile)
	}

	raw := startURL
	if raw == "" {
		var err error
		raw, err = promptForURL(os.Stdin, os.Stdout)
		if err != nil {
			return config.Config{}, fmt.Errorf("no --url given and no URL read from stdin: %w", err)
		}
	}

	u, err := parseStartURL(raw)
	if err != nil {
		return config.Config{}, err
	}

	builder := config.WithDefault(*u).
		WithMaxDepth(maxDepth).
		WithInitialWorkers(concurrency).
		WithRespectRobots(respectRobots).
		WithVerifyPDFs(verifyPDFs).
		WithOutputPath(output).
		WithDownloadDir(downloadDir).
		WithResume(resume).
		WithLogLevel(logLevel).
		WithMetricsAddr(metricsAddr)

	if userAgent != "" {
		builder = builder.WithUserAgent(userAgent)
	}
	if timeout > 0 {
		builder = builder.WithRequestTimeout(timeout)
	}
	if delay > 0 {
		builder = builder.WithHostRateLimit(1.0 / delay.Seconds())
	}

	return builder.Build()
}

// parseStartURL applies spec.md §6's "scheme missing → http:// prepended" rule.
func parseStartURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing start URL %q: %w", raw, err)
	}
	if u.Scheme == "" {
		u, err = url.Parse("http://" + raw)
		if err != nil {
			return nil, fmt.Errorf("parsing start URL %q: %w", raw, err)
		}
	}
	return u, nil
}

// ResetFlags restores every package-level flag variable to its zero
// value, for tests that exercise buildConfig repeatedly against a single
// cobra command instance.
func ResetFlags() {
	cfgFile = ""
	startURL = ""
	maxDepth = 0
	concurrency = 0
	delay = 0
	output = ""
	respectRobots = false
	verifyPDFs = false
	userAgent = ""
	timeout = 0
	downloadDir = ""
	resume = false
	logLevel = ""
	metricsAddr = ""
	showVersion = false
}

func SetConfigFileForTest(path string)  { cfgFile = path }
func SetStartURLForTest(u string)       { startURL = u }
func SetMaxDepthForTest(d int)          { maxDepth = d }
func SetConcurrencyForTest(c int)       { concurrency = c }
func SetDelayForTest(d time.Duration)   { delay = d }
func SetOutputForTest(path string)      { output = path }
func SetRespectRobotsForTest(v bool)    { respectRobots = v }
func SetVerifyPDFsForTest(v bool)       { verifyPDFs = v }
func SetUserAgentForTest(agent string)  { userAgent = agent }
func SetTimeoutForTest(t time.Duration) { timeout = t }
func SetDownloadDirForTest(dir string)  { downloadDir = dir }
func SetResumeForTest(v bool)           { resume = v }
func SetLogLevelForTest(level string)   { logLevel = level }
func SetMetricsAddrForTest(addr string) { metricsAddr = addr }
