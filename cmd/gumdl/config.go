package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"gumdl/pkg/config"
	"gumdl/pkg/ui"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage gumdl configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables (GUMDL_*)
  - .env files
  - Configuration file
  - Default values (lowest priority)`,
}

// initCmd represents the config init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Long: `Create an example configuration file with all available options.

The file will be created in the current directory as '.gumdl.yaml'
unless a different path is specified with the --config flag.`,
	Run: runConfigInit,
}

// showCmd represents the config show command
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Show the effective configuration merged from all sources.

Sensitive values like session cookies are masked.`,
	Run: runConfigShow,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(initCmd)
	configCmd.AddCommand(showCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) {
	configPath := configFile
	if configPath == "" {
		configPath = ".gumdl.yaml"
	}

	if _, err := os.Stat(configPath); err == nil {
		ui.PrintError("Configuration file already exists", configPath)
		fmt.Println("\nTo overwrite, first remove the existing file:")
		fmt.Printf("  rm %s\n", configPath)
		os.Exit(1)
	}

	exampleConfig := `# gumdl configuration file
#
# Every option can also be set through environment variables prefixed
# with GUMDL_, e.g. GUMDL_APP_SESSION, GUMDL_OUTPUT_DIR.

# Session cookies of a logged-in browser.
# Prefer 'gumdl auth login' over writing them here.
gumroad:
  app_session: ""
  guid: ""

  # User agent sent with every request (optional)
  user_agent: ""

# Request pacing
rate_limit:
  requests_per_minute: 60

# Output layout
output:
  # Root directory for downloads
  base_directory: "."

  # Per-product folder name. Available placeholders:
  #   {product_name} {purchase_at} {uploaded_at} {price}
  # Note: {uploaded_at} is only known for library scrapes.
  product_folder_template: "{product_name}"

  # Replacement for characters not allowed in file names
  name_replacement: "_"

  # Where completed downloads are recorded
  cache_file: "gumdl.cache"

# Download behavior
download:
  chunk_size: 4096
  max_retries: 3

# Logging
logging:
  # debug, info, warn, error
  level: "info"

  # Also write logs to this file (optional)
  file: ""
`

	if err := os.WriteFile(configPath, []byte(exampleConfig), 0644); err != nil {
		ui.PrintError("Failed to create configuration file", err.Error())
		os.Exit(1)
	}

	ui.PrintSuccess("Configuration file created: " + configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("1. Store your session cookies with 'gumdl auth login'")
	fmt.Println("2. Start downloading with 'gumdl scrape'")
}

func runConfigShow(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(configFile, nil)
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}

	displayCfg := *cfg
	displayCfg.Gumroad.AppSession = maskValue(displayCfg.Gumroad.AppSession)
	displayCfg.Gumroad.GUID = maskValue(displayCfg.Gumroad.GUID)

	data, err := yaml.Marshal(&displayCfg)
	if err != nil {
		ui.PrintError("Failed to format configuration", err.Error())
		os.Exit(1)
	}

	fmt.Println("Current configuration:")
	fmt.Println()
	fmt.Print(string(data))

	fmt.Println("\nConfiguration sources (in order of priority):")
	fmt.Println("1. Command line flags")
	fmt.Println("2. Environment variables (GUMDL_*)")
	if configFile != "" {
		fmt.Printf("3. Configuration file: %s\n", configFile)
	} else {
		fmt.Println("3. Configuration file: (auto-detected)")
	}
	fmt.Println("4. Default values")
}

// maskValue hides all but the edges of a secret
func maskValue(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return "***"
	}
	return s[:4] + "..." + s[len(s)-4:]
}
