// Package config builds the immutable Config every other package reads
// from. It keeps the teacher's builder shape — WithDefault(...).WithX(...)
// .Build() method chaining, plus a JSON configDTO for --config-file — but
// every field is retargeted from "documentation crawler" knobs
// (extraction thresholds, Markdown conversion) to this system's own:
// per-host rate limiting, the adaptive worker pool's bounds, the
// classifier's split-TTL cache, and the downloader's resume/ceiling
// behavior.
package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"time"
)

// Config is the fully-resolved, immutable set of knobs for one crawl run.
// Constructed only via WithDefault(...).Build() or WithConfigFile.
type Config struct {
	//===============
	// Crawl scope
	//===============
	startURL url.URL
	maxDepth int
	maxPages int

	//===============
	// Adaptive worker pool (C8)
	//===============
	initialWorkers int
	minWorkers     int
	maxWorkers     int
	errorThreshold int
	scaleInterval  time.Duration
	idleWindow     time.Duration
	hardCapWindow  time.Duration
	outerDeadline  time.Duration

	//===============
	// Rate limiting & sockets (C3, C4)
	//===============
	hostRateLimit     float64
	rateLimitBurst    int
	globalSocketLimit int
	connectionPool    int
	connectTimeout    time.Duration
	requestTimeout    time.Duration
	maxRedirects      int

	//===============
	// Retry
	//===============
	maxRetries int

	//===============
	// Classifier (C6)
	//===============
	verifyPDFs       bool
	cacheTTL         time.Duration
	negativeCacheTTL time.Duration
	cacheCapacity    int
	probeTimeout     time.Duration

	//===============
	// Downloader (C7)
	//===============
	downloadDir         string
	resume              bool
	concurrentDownloads int
	maxDownloadBytes    int64
	downloadTimeout     time.Duration

	//===============
	// Robots (coarse gate)
	//===============
	respectRobots bool

	//===============
	// Journal / output
	//===============
	outputPath string
	dryRun     bool

	//===============
	// Ambient
	//===============
	userAgent   string
	logLevel    string
	metricsAddr string
}

type configDTO struct {
	StartURL string `json:"startUrl"`
	MaxDepth int    `json:"maxDepth,omitempty"`
	MaxPages int    `json:"maxPages,omitempty"`

	InitialWorkers int           `json:"initialWorkers,omitempty"`
	MinWorkers     int           `json:"minWorkers,omitempty"`
	MaxWorkers     int           `json:"maxWorkers,omitempty"`
	ErrorThreshold int           `json:"errorThreshold,omitempty"`
	ScaleInterval  time.Duration `json:"scaleInterval,omitempty"`
	IdleWindow     time.Duration `json:"idleWindow,omitempty"`
	HardCapWindow  time.Duration `json:"hardCapWindow,omitempty"`
	OuterDeadline  time.Duration `json:"outerDeadline,omitempty"`

	HostRateLimit     float64       `json:"hostRateLimit,omitempty"`
	RateLimitBurst    int           `json:"rateLimitBurst,omitempty"`
	GlobalSocketLimit int           `json:"globalSocketLimit,omitempty"`
	ConnectionPool    int           `json:"connectionPool,omitempty"`
	ConnectTimeout    time.Duration `json:"connectTimeout,omitempty"`
	RequestTimeout    time.Duration `json:"requestTimeout,omitempty"`
	MaxRedirects      int           `json:"maxRedirects,omitempty"`

	MaxRetries int `json:"maxRetries,omitempty"`

	VerifyPDFs       bool          `json:"verifyPdfs"`
	CacheTTL         time.Duration `json:"cacheTtl,omitempty"`
	NegativeCacheTTL time.Duration `json:"negativeCacheTtl,omitempty"`
	CacheCapacity    int           `json:"cacheCapacity,omitempty"`
	ProbeTimeout     time.Duration `json:"probeTimeout,omitempty"`

	DownloadDir         string        `json:"downloadDir,omitempty"`
	Resume              bool          `json:"resume"`
	ConcurrentDownloads int           `json:"concurrentDownloads,omitempty"`
	MaxDownloadBytes    int64         `json:"maxDownloadBytes,omitempty"`
	DownloadTimeout     time.Duration `json:"downloadTimeout,omitempty"`

	RespectRobots bool `json:"respectRobots"`

	OutputPath string `json:"outputPath,omitempty"`
	DryRun     bool   `json:"dryRun"`

	UserAgent   string `json:"userAgent,omitempty"`
	LogLevel    string `json:"logLevel,omitempty"`
	MetricsAddr string `json:"metricsAddr,omitempty"`
}

func newConfigFromDTO(dto configDTO) (Config, error) {
	if dto.StartURL == "" {
		return Config{}, fmt.Errorf("%w: startUrl cannot be empty", ErrInvalidConfig)
	}
	u, err := url.Parse(dto.StartURL)
	if err != nil {
		return Config{}, fmt.Errorf("%w: invalid startUrl: %s", ErrInvalidConfig, err)
	}

	cfg, err := WithDefault(*u).Build()
	if err != nil {
		return Config{}, err
	}

	if dto.MaxDepth != 0 {
		cfg.maxDepth = dto.MaxDepth
	}
	if dto.MaxPages != 0 {
		cfg.maxPages = dto.MaxPages
	}
	if dto.InitialWorkers != 0 {
		cfg.initialWorkers = dto.InitialWorkers
	}
	if dto.MinWorkers != 0 {
		cfg.minWorkers = dto.MinWorkers
	}
	if dto.MaxWorkers != 0 {
		cfg.maxWorkers = dto.MaxWorkers
	}
	if dto.ErrorThreshold != 0 {
		cfg.errorThreshold = dto.ErrorThreshold
	}
	if dto.ScaleInterval != 0 {
		cfg.scaleInterval = dto.ScaleInterval
	}
	if dto.IdleWindow != 0 {
		cfg.idleWindow = dto.IdleWindow
	}
	if dto.HardCapWindow != 0 {
		cfg.hardCapWindow = dto.HardCapWindow
	}
	if dto.OuterDeadline != 0 {
		cfg.outerDeadline = dto.OuterDeadline
	}
	if dto.HostRateLimit != 0 {
		cfg.hostRateLimit = dto.HostRateLimit
	}
	if dto.RateLimitBurst != 0 {
		cfg.rateLimitBurst = dto.RateLimitBurst
	}
	if dto.GlobalSocketLimit != 0 {
		cfg.globalSocketLimit = dto.GlobalSocketLimit
	}
	if dto.ConnectionPool != 0 {
		cfg.connectionPool = dto.ConnectionPool
	}
	if dto.ConnectTimeout != 0 {
		cfg.connectTimeout = dto.ConnectTimeout
	}
	if dto.RequestTimeout != 0 {
		cfg.requestTimeout = dto.RequestTimeout
	}
	if dto.MaxRedirects != 0 {
		cfg.maxRedirects = dto.MaxRedirects
	}
	if dto.MaxRetries != 0 {
		cfg.maxRetries = dto.MaxRetries
	}
	cfg.verifyPDFs = dto.VerifyPDFs
	if dto.CacheTTL != 0 {
		cfg.cacheTTL = dto.CacheTTL
	}
	if dto.NegativeCacheTTL != 0 {
		cfg.negativeCacheTTL = dto.NegativeCacheTTL
	}
	if dto.CacheCapacity != 0 {
		cfg.cacheCapacity = dto.CacheCapacity
	}
	if dto.ProbeTimeout != 0 {
		cfg.probeTimeout = dto.ProbeTimeout
	}
	if dto.DownloadDir != "" {
		cfg.downloadDir = dto.DownloadDir
	}
	cfg.resume = dto.Resume
	if dto.ConcurrentDownloads != 0 {
		cfg.concurrentDownloads = dto.ConcurrentDownloads
	}
	if dto.MaxDownloadBytes != 0 {
		cfg.maxDownloadBytes = dto.MaxDownloadBytes
	}
	if dto.DownloadTimeout != 0 {
		cfg.downloadTimeout = dto.DownloadTimeout
	}
	cfg.respectRobots = dto.RespectRobots
	if dto.OutputPath != "" {
		cfg.outputPath = dto.OutputPath
	}
	cfg.dryRun = dto.DryRun
	if dto.UserAgent != "" {
		cfg.userAgent = dto.UserAgent
	}
	if dto.LogLevel != "" {
		cfg.logLevel = dto.LogLevel
	}
	if dto.MetricsAddr != "" {
		cfg.metricsAddr = dto.MetricsAddr
	}

	return cfg, nil
}

// WithConfigFile loads a Config from a JSON file on disk.
func WithConfigFile(path string) (Config, error) {
	if _, err := os.Stat(path); err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrFileDoesNotExist, err.Error())
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrReadConfigFail, err.Error())
	}

	dto := configDTO{}
	if err := json.Unmarshal(content, &dto); err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrConfigParsingFail, err.Error())
	}

	return newConfigFromDTO(dto)
}

// WithDefault returns a builder seeded with startURL and spec.md §6's
// documented defaults for everything else.
func WithDefault(startURL url.URL) *Config {
	return &Config{
		startURL: startURL,
		maxDepth: 5,
		maxPages: 0,

		initialWorkers: 12,
		minWorkers:     1,
		maxWorkers:     48,
		errorThreshold: 5,
		scaleInterval:  5 * time.Second,
		idleWindow:     10 * time.Second,
		hardCapWindow:  30 * time.Second,
		outerDeadline:  5 * time.Minute,

		hostRateLimit:     5,
		rateLimitBurst:    5,
		globalSocketLimit: 64,
		connectionPool:    300,
		connectTimeout:    5 * time.Second,
		requestTimeout:    12 * time.Second,
		maxRedirects:      5,

		maxRetries: 3,

		verifyPDFs:       true,
		cacheTTL:         time.Hour,
		negativeCacheTTL: 30 * time.Second,
		cacheCapacity:    120_000,
		probeTimeout:     3 * time.Second,

		downloadDir:         "downloaded_pdfs",
		resume:              true,
		concurrentDownloads: 4,
		maxDownloadBytes:    100 * 1024 * 1024,
		downloadTimeout:     120 * time.Second,

		respectRobots: false,

		outputPath: "pdfs.json",
		dryRun:     false,

		userAgent:   "pdfcrawler/1.0 (+https://example.invalid/bot)",
		logLevel:    "info",
		metricsAddr: "",
	}
}

func (c *Config) WithMaxDepth(d int) *Config                        { c.maxDepth = d; return c }
func (c *Config) WithMaxPages(n int) *Config                        { c.maxPages = n; return c }
func (c *Config) WithInitialWorkers(n int) *Config                  { c.initialWorkers = n; return c }
func (c *Config) WithMinWorkers(n int) *Config                      { c.minWorkers = n; return c }
func (c *Config) WithMaxWorkers(n int) *Config                      { c.maxWorkers = n; return c }
func (c *Config) WithErrorThreshold(n int) *Config                  { c.errorThreshold = n; return c }
func (c *Config) WithScaleInterval(d time.Duration) *Config         { c.scaleInterval = d; return c }
func (c *Config) WithIdleWindow(d time.Duration) *Config            { c.idleWindow = d; return c }
func (c *Config) WithHardCapWindow(d time.Duration) *Config         { c.hardCapWindow = d; return c }
func (c *Config) WithOuterDeadline(d time.Duration) *Config         { c.outerDeadline = d; return c }
func (c *Config) WithHostRateLimit(v float64) *Config               { c.hostRateLimit = v; return c }
func (c *Config) WithRateLimitBurst(n int) *Config                  { c.rateLimitBurst = n; return c }
func (c *Config) WithGlobalSocketLimit(n int) *Config               { c.globalSocketLimit = n; return c }
func (c *Config) WithConnectionPool(n int) *Config                  { c.connectionPool = n; return c }
func (c *Config) WithConnectTimeout(d time.Duration) *Config        { c.connectTimeout = d; return c }
func (c *Config) WithRequestTimeout(d time.Duration) *Config        { c.requestTimeout = d; return c }
func (c *Config) WithMaxRedirects(n int) *Config                    { c.maxRedirects = n; return c }
func (c *Config) WithMaxRetries(n int) *Config                      { c.maxRetries = n; return c }
func (c *Config) WithVerifyPDFs(v bool) *Config                     { c.verifyPDFs = v; return c }
func (c *Config) WithCacheTTL(d time.Duration) *Config              { c.cacheTTL = d; return c }
func (c *Config) WithNegativeCacheTTL(d time.Duration) *Config      { c.negativeCacheTTL = d; return c }
func (c *Config) WithCacheCapacity(n int) *Config                   { c.cacheCapacity = n; return c }
func (c *Config) WithProbeTimeout(d time.Duration) *Config          { c.probeTimeout = d; return c }
func (c *Config) WithDownloadDir(dir string) *Config                { c.downloadDir = dir; return c }
func (c *Config) WithResume(v bool) *Config                         { c.resume = v; return c }
func (c *Config) WithConcurrentDownloads(n int) *Config             { c.concurrentDownloads = n; return c }
func (c *Config) WithMaxDownloadBytes(n int64) *Config              { c.maxDownloadBytes = n; return c }
func (c *Config) WithDownloadTimeout(d time.Duration) *Config       { c.downloadTimeout = d; return c }
func (c *Config) WithRespectRobots(v bool) *Config                  { c.respectRobots = v; return c }
func (c *Config) WithOutputPath(path string) *Config                { c.outputPath = path; return c }
func (c *Config) WithDryRun(v bool) *Config                         { c.dryRun = v; return c }
func (c *Config) WithUserAgent(agent string) *Config                { c.userAgent = agent; return c }
func (c *Config) WithLogLevel(level string) *Config                 { c.logLevel = level; return c }
func (c *Config) WithMetricsAddr(addr string) *Config               { c.metricsAddr = addr; return c }

// Build validates and returns the finished Config.
func (c *Config) Build() (Config, error) {
	if c.startURL.Host == "" {
		return Config{}, fmt.Errorf("%w: startUrl must include a host", ErrInvalidConfig)
	}
	if c.startURL.Scheme == "" {
		c.startURL.Scheme = "http"
	}
	if c.minWorkers < 1 {
		c.minWorkers = 1
	}
	if c.maxWorkers < c.minWorkers {
		c.maxWorkers = c.minWorkers
	}
	if c.initialWorkers < c.minWorkers {
		c.initialWorkers = c.minWorkers
	}
	if c.initialWorkers > c.maxWorkers {
		c.initialWorkers = c.maxWorkers
	}
	return *c, nil
}

func (c Config) StartURL() url.URL                { return c.startURL }
func (c Config) MaxDepth() int                     { return c.maxDepth }
func (c Config) MaxPages() int                     { return c.maxPages }
func (c Config) InitialWorkers() int                { return c.initialWorkers }
func (c Config) MinWorkers() int                    { return c.minWorkers }
func (c Config) MaxWorkers() int                    { return c.maxWorkers }
func (c Config) ErrorThreshold() int                { return c.errorThreshold }
func (c Config) ScaleInterval() time.Duration       { return c.scaleInterval }
func (c Config) IdleWindow() time.Duration          { return c.idleWindow }
func (c Config) HardCapWindow() time.Duration       { return c.hardCapWindow }
func (c Config) OuterDeadline() time.Duration       { return c.outerDeadline }
func (c Config) HostRateLimit() float64             { return c.hostRateLimit }
func (c Config) RateLimitBurst() int                { return c.rateLimitBurst }
func (c Config) GlobalSocketLimit() int             { return c.globalSocketLimit }
func (c Config) ConnectionPool() int                { return c.connectionPool }
func (c Config) ConnectTimeout() time.Duration      { return c.connectTimeout }
func (c Config) RequestTimeout() time.Duration      { return c.requestTimeout }
func (c Config) MaxRedirects() int                  { return c.maxRedirects }
func (c Config) MaxRetries() int                    { return c.maxRetries }
func (c Config) VerifyPDFs() bool                   { return c.verifyPDFs }
func (c Config) CacheTTL() time.Duration            { return c.cacheTTL }
func (c Config) NegativeCacheTTL() time.Duration    { return c.negativeCacheTTL }
func (c Config) CacheCapacity() int                 { return c.cacheCapacity }
func (c Config) ProbeTimeout() time.Duration        { return c.probeTimeout }
func (c Config) DownloadDir() string                { return c.downloadDir }
func (c Config) Resume() bool                       { return c.resume }
func (c Config) ConcurrentDownloads() int           { return c.concurrentDownloads }
func (c Config) MaxDownloadBytes() int64            { return c.maxDownloadBytes }
func (c Config) DownloadTimeout() time.Duration     { return c.downloadTimeout }
func (c Config) RespectRobots() bool                { return c.respectRobots }
func (c Config) OutputPath() string                 { return c.outputPath }
func (c Config) DryRun() bool                       { return c.dryRun }
func (c Config) UserAgent() string                  { return c.userAgent }
func (c Config) LogLevel() string                   { return c.logLevel }
func (c Config) MetricsAddr() string                { return c.metricsAddr }
