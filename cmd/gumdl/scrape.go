package main

import (
	"bufio"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"gumdl/internal/downloader"
	"gumdl/pkg/auth"
	"gumdl/pkg/cache"
	"gumdl/pkg/config"
	"gumdl/pkg/gumroad"
	"gumdl/pkg/logger"
	"gumdl/pkg/paths"
	"gumdl/pkg/ratelimit"
	"gumdl/pkg/scraper"
	"gumdl/pkg/ui"
)

var (
	// Scrape command flags
	outputDir      string
	linksFile      string
	creatorFilter  []string
	downloadAll    bool
	accountName    string
	rateLimit      int
	folderTemplate string
	appSession     string
	guid           string
)

// scrapeCmd represents the scrape command
var scrapeCmd = &cobra.Command{
	Use:   "scrape [product link or id]...",
	Short: "Download your library or specific products",
	Long: `Download purchased products.

Without arguments the whole library is scraped, optionally narrowed with
--creator. Product links (or bare product ids) given as arguments or listed
in a --links file are scraped directly instead.

Scraping the library needs valid session cookies, configured through:
  - Stored credentials (use 'gumdl auth login' to store)
  - Environment variables (GUMDL_APP_SESSION and GUMDL_GUID)
  - Configuration file
Without cookies the run continues anonymously, which only works for direct
links to free products.

Finished files are recorded in the download cache; failed files are not, so
re-running the same command retries exactly what is missing.`,
	Example: `  # Download the whole library
  gumdl scrape

  # Only products by specific creators
  gumdl scrape --creator alice --creator bob

  # Specific products, by link or bare id
  gumdl scrape https://app.gumroad.com/d/f0zee6i1cbzcb0x fv2ae1bfja1qo8z

  # Product links listed in a file, one per line
  gumdl scrape --links wishlist.txt

  # Custom output layout
  gumdl scrape --output ~/gumroad --folder-template "{purchase_at} {product_name}"`,
	Args: cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		runScrape(cmd, args)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(scrapeCmd)

	scrapeCmd.Flags().StringVarP(&outputDir, "output", "o", "", "output directory for downloads (default: current directory)")
	scrapeCmd.Flags().StringVar(&linksFile, "links", "", "file with product links, one per line")
	scrapeCmd.Flags().StringArrayVar(&creatorFilter, "creator", nil, "only scrape this creator (repeatable)")
	scrapeCmd.Flags().BoolVar(&downloadAll, "all", false, "scrape every purchase, ignoring any --creator filter")
	scrapeCmd.Flags().StringVarP(&accountName, "account", "a", "", "use specific stored account")
	scrapeCmd.Flags().IntVar(&rateLimit, "rate-limit", 60, "requests per minute")
	scrapeCmd.Flags().StringVar(&folderTemplate, "folder-template", "", "product folder name template")
	scrapeCmd.Flags().StringVar(&appSession, "app-session", "", "session cookie value (overrides stored credentials)")
	scrapeCmd.Flags().StringVar(&guid, "guid", "", "guid cookie value (overrides stored credentials)")
}

func runScrape(cmd *cobra.Command, args []string) {
	flags := make(map[string]interface{})
	if outputDir != "" {
		flags["output"] = outputDir
	}
	if folderTemplate != "" {
		flags["folder-template"] = folderTemplate
	}
	if appSession != "" {
		flags["app-session"] = appSession
	}
	if guid != "" {
		flags["guid"] = guid
	}
	if rateLimit != 60 {
		flags["rate-limit"] = rateLimit
	}
	if logLevel != "info" {
		flags["log-level"] = logLevel
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}

	logger.Initialize(&cfg.Logging)
	log := logger.GetLogger()
	log.WithField("version", version).Info("gumdl starting")

	resolveCredentials(cfg, log)

	links, err := collectLinks(args, log)
	if err != nil {
		ui.PrintError("Failed to read links file", err.Error())
		os.Exit(1)
	}

	dlCache := cache.New(cfg.Output.CacheFile)
	if err := dlCache.Load(); err != nil {
		// A broken cache would re-download or silently skip everything
		ui.PrintError("Failed to load download cache", err.Error())
		os.Exit(1)
	}

	// Persist whatever finished before the interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Warn("interrupted, saving download cache")
		if err := dlCache.Save(); err != nil {
			log.WithError(err).Error("failed to save download cache")
		}
		os.Exit(130)
	}()

	limiter := ratelimit.PerMinute(cfg.RateLimit.RequestsPerMinute)
	client := gumroad.NewClient(&cfg.Gumroad, cfg.Download.MaxRetries, limiter, log)
	resolver := paths.NewResolver(cfg.Output.BaseDirectory, cfg.Output.ProductFolderTemplate, cfg.Output.NameReplacement)
	engine := downloader.New(client, dlCache, cfg.Download.ChunkSize, !quiet, log)
	s := scraper.New(client, engine, resolver, log)

	filter := creatorFilter
	if downloadAll {
		filter = nil
	}

	var runErr error
	if len(links) > 0 {
		runErr = scrapeLinks(s, links, log)
	} else {
		runErr = s.ScrapeLibrary(filter)
	}

	if err := dlCache.Save(); err != nil {
		log.WithError(err).Error("failed to save download cache")
	}

	if runErr != nil {
		log.WithError(runErr).Error("run aborted")
		ui.PrintError("Run aborted", runErr.Error())
		os.Exit(1)
	}

	stats := s.Stats()
	log.InfoWithFields("run finished", map[string]interface{}{
		"products": stats.Products,
		"skipped":  stats.Skipped,
		"failed":   stats.Failed,
	})
	if stats.Failed > 0 {
		// Failed items stay out of the cache; the next run picks them up
		ui.PrintWarning(fmt.Sprintf("%d product(s) had failures, re-run to retry", stats.Failed))
	} else {
		ui.PrintSuccess("All done")
	}
}

// scrapeLinks scrapes direct product links one by one. A fatal error aborts;
// anything else is logged and the remaining links still run.
func scrapeLinks(s *scraper.Scraper, links []string, log logger.Logger) error {
	for _, link := range links {
		if err := s.ScrapeProduct(link, nil); err != nil {
			if scraper.IsFatal(err) {
				return err
			}
			log.WithError(err).ErrorWithFields("product failed", map[string]interface{}{
				"link": link,
			})
		}
	}
	return nil
}

// collectLinks merges argument links with the optional links file. A missing
// file is an error; an empty one just means nothing extra to do.
func collectLinks(args []string, log logger.Logger) ([]string, error) {
	links := make([]string, 0, len(args))
	for _, arg := range args {
		if l := strings.TrimSpace(arg); l != "" {
			links = append(links, l)
		}
	}

	if linksFile == "" {
		return links, nil
	}

	file, err := os.Open(linksFile)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	count := 0
	sc := bufio.NewScanner(file)
	for sc.Scan() {
		if l := strings.TrimSpace(sc.Text()); l != "" {
			links = append(links, l)
			count++
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	if count == 0 {
		log.DebugWithFields("links file is empty", map[string]interface{}{
			"file": linksFile,
		})
	}

	return links, nil
}

// resolveCredentials fills the session cookies into cfg from, in order:
// flags/env/config (already merged), a named stored account, the default
// stored account. With nothing stored the run continues anonymously; the
// library scrape will then fail with a session expiry, but direct links to
// free products can still work.
func resolveCredentials(cfg *config.Config, log logger.Logger) {
	// Placeholder values from a freshly generated config count as absent
	if cfg.Gumroad.AppSession == "ChangeMe" {
		cfg.Gumroad.AppSession = ""
	}
	if cfg.Gumroad.GUID == "ChangeMe" {
		cfg.Gumroad.GUID = ""
	}

	if accountName != "" {
		manager, err := auth.NewManager()
		if err != nil {
			ui.PrintError("Failed to initialize credential manager", err.Error())
			os.Exit(1)
		}
		account, err := manager.Retrieve(accountName)
		if err != nil {
			ui.PrintError("Account not found", accountName)
			ui.PrintInfo("Available accounts", "Use 'gumdl auth list' to see stored accounts")
			os.Exit(1)
		}
		applyAccount(cfg, account, log)
		return
	}

	if cfg.Gumroad.AppSession != "" && cfg.Gumroad.GUID != "" {
		log.Info("using credentials from configuration")
		return
	}

	manager, err := auth.NewManager()
	if err == nil {
		if account, err := manager.RetrieveDefault(); err == nil {
			log.WithField("account", account.Name).Warn("no account selected, using the default stored account")
			applyAccount(cfg, account, log)
			return
		}
	}

	log.Warn("no credentials found, continuing without a session")
	ui.PrintWarning("No Gumroad credentials found, continuing anonymously")
	fmt.Println("\nTo store credentials securely, run:")
	fmt.Println("  gumdl auth login")
	fmt.Println("\nOr set environment variables:")
	fmt.Println("  export GUMDL_APP_SESSION=your_session_cookie")
	fmt.Println("  export GUMDL_GUID=your_guid_cookie")
}

func applyAccount(cfg *config.Config, account *auth.Account, log logger.Logger) {
	cfg.Gumroad.AppSession = account.AppSession
	cfg.Gumroad.GUID = account.GUID
	if account.UserAgent != "" {
		cfg.Gumroad.UserAgent = account.UserAgent
	}
	log.WithField("account", account.Name).Info("using stored credentials")
	ui.PrintInfo("Using account", account.Name)
}

// Make scrape the default command when no subcommand is specified
func init() {
	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		if len(args) > 0 && isKnownCommand(args[0]) {
			return cmd.Help()
		}
		return scrapeCmd.RunE(scrapeCmd, args)
	}
	rootCmd.Args = cobra.ArbitraryArgs
}

func isKnownCommand(arg string) bool {
	for _, cmd := range rootCmd.Commands() {
		if cmd.Name() == arg || cmd.HasAlias(arg) {
			return true
		}
	}
	return false
}
