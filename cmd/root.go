package cmd

import (
	"fmt"
	"net/http"
	"net/url"
	"os"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/spf13/cobra"

	"github.com/shopeetools/revscope/internal/utils"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

var cfgFile string

const (
	LOGO = `  _ __ _____   _____  ___ ___  _ __   ___
 | '__/ _ \ \ / / __|/ __/ _ \| '_ \ / _ \
 | | |  __/\ V /\__ \ (_| (_) | |_) |  __/
 |_|  \___| \_/ |___/\___\___/| .__/ \___|
                              |_|

`
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "revscope",
	Short: "Shopee竞品评价分析客户端",
	Long: LOGO + `revscope uploads Shopee competitor review exports to the analysis
backend, renders the returned report with interactive charts, and exports it
as PDF or a self-contained HTML document.`,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.revscope.yaml)")

	// Global flags
	rootCmd.PersistentFlags().StringP("backend", "b", "", "Analysis backend base URL (overrides config)")
	rootCmd.PersistentFlags().StringP("proxy", "", "", "HTTP Proxy (Useful for debugging. Example: http://127.0.0.1:8080)")
	rootCmd.PersistentFlags().StringP("loglevel", "l", "info", "Set log level. Available: debug, info, warn, error, fatal")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		viper.AddConfigPath(home)
		viper.SetConfigName(".revscope")
		viper.SetConfigType("yaml")
	}

	viper.AutomaticEnv()

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; create it with defaults.
			home, _ := homedir.Dir()
			configPath := home + "/.revscope.yaml"
			if err := viper.SafeWriteConfigAs(configPath); err != nil {
				fmt.Printf("Error creating config file: %s", err)
			}
		}
	}

	// Set default empty values for all keys
	viper.SetDefault("backend.url", "http://127.0.0.1:5000")
	viper.SetDefault("export.dir", ".")
	viper.SetDefault("server.listen", ":8080")

	// Init log library
	levelString, _ := rootCmd.PersistentFlags().GetString("loglevel")
	utils.SetLogLevel(levelString)
}

// backendURL resolves the backend base URL: flag first, then config.
func backendURL() string {
	if b, _ := rootCmd.PersistentFlags().GetString("backend"); b != "" {
		return b
	}
	return viper.GetString("backend.url")
}

// proxiedHTTPClient builds the shared HTTP client, honoring --proxy.
func proxiedHTTPClient() *retryablehttp.Client {
	hc := retryablehttp.NewClient()
	hc.Logger = nil
	hc.RetryMax = 0
	hc.ErrorHandler = retryablehttp.PassthroughErrorHandler

	proxyURL, _ := rootCmd.PersistentFlags().GetString("proxy")
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			hc.HTTPClient.Transport = &http.Transport{Proxy: http.ProxyURL(u)}
		} else {
			utils.Log.Warnf("Invalid proxy URL %q: %v", proxyURL, err)
		}
	}
	return hc
}
