package util

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	// Wrap is the number of characters to Wrap the help text at
	Wrap int = 50

	// DefaultConfigFile is the config file consulted when --config is not given.
	DefaultConfigFile = "/etc/oplock/config.yaml"
	// FallbackConfigFile is tried when the default config file does not exist.
	FallbackConfigFile = "oplock.yaml"
	// DefaultPort is the store port assumed when --host is given without --port.
	DefaultPort = 6379
)

// LockConfig is the fully resolved CLI configuration. Precedence during
// resolution: explicit flag overrides config-file value overrides built-in
// default.
type LockConfig struct {
	// Endpoint is the store endpoint actually used.
	Endpoint string
	// Endpoints is the full per-environment list from the config file. Only
	// the first entry is used; the remainder is accepted as a failover
	// placeholder and ignored.
	Endpoints []string
	// Environment is the selected config profile.
	Environment string
	Root        string
	TTL         time.Duration
	// OpTimeout bounds each individual store call.
	OpTimeout time.Duration
	Verbose   bool
}

// WrapString wraps a string at Wrap characters
func WrapString(text string) string {
	var wrappedLines []string
	var currentLine strings.Builder
	lineWidth := 0

	for _, word := range strings.Fields(text) {
		wordWidth := len(word)

		// Check if we need to wrap
		if lineWidth > 0 && lineWidth+1+wordWidth > Wrap {
			wrappedLines = append(wrappedLines, currentLine.String())
			currentLine.Reset()
			lineWidth = 0
		}

		// Add space before word (if not first word on line)
		if lineWidth > 0 {
			currentLine.WriteString(" ")
			lineWidth++
		}

		// Add the word
		currentLine.WriteString(word)
		lineWidth += wordWidth
	}

	// Add any remaining text
	if currentLine.Len() > 0 {
		wrappedLines = append(wrappedLines, currentLine.String())
	}

	return strings.Join(wrappedLines, "\n")
}

// SetupLockFlags adds the lock acquisition flags to a command
func SetupLockFlags(cmd *cobra.Command) {
	key := "config"
	cmd.PersistentFlags().String(key, DefaultConfigFile, WrapString(fmt.Sprintf("Path to the YAML config file holding per-environment store endpoints. Falls back to ./%s when absent", FallbackConfigFile)))

	key = "environment"
	cmd.PersistentFlags().StringP(key, "e", "default", WrapString("Name of the config file environment whose endpoint list is used"))

	key = "ttl"
	cmd.PersistentFlags().Int(key, 30, WrapString("Age in seconds beyond which a sibling attempt node is considered abandoned and reaped"))

	key = "root"
	cmd.PersistentFlags().String(key, "/oplock", WrapString("Lock root path under which all attempt nodes live"))

	key = "host"
	cmd.PersistentFlags().String(key, "", WrapString("Explicit store host, overriding the config file endpoint list"))

	key = "port"
	cmd.PersistentFlags().Int(key, DefaultPort, WrapString("Explicit store port, used together with --host"))

	key = "timeout"
	cmd.PersistentFlags().Int(key, 5, WrapString("Timeout in seconds for each individual store call"))

	key = "verbose"
	cmd.PersistentFlags().BoolP(key, "v", false, WrapString("Emit step-by-step diagnostics and an operation-counter dump on exit"))
}

// InitConfig initializes configuration from environment variables
func InitConfig() {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// initialize viper
	viper.SetEnvPrefix("oplock")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match
}

// BindCommandFlags binds a command's flags to viper
func BindCommandFlags(cmd *cobra.Command) error {
	return viper.BindPFlags(cmd.Flags())
}

// GetLockConfig resolves the effective configuration from viper
func GetLockConfig() (*LockConfig, error) {
	if ttl := viper.GetInt("ttl"); ttl <= 0 {
		return nil, fmt.Errorf("ttl must be a positive number of seconds, got %d", ttl)
	}
	if timeout := viper.GetInt("timeout"); timeout <= 0 {
		return nil, fmt.Errorf("timeout must be a positive number of seconds, got %d", timeout)
	}

	endpoints, err := LoadEndpoints(viper.GetString("config"), viper.GetString("environment"))
	if err != nil {
		return nil, err
	}

	conf := &LockConfig{
		Endpoints:   endpoints,
		Environment: viper.GetString("environment"),
		Root:        viper.GetString("root"),
		TTL:         time.Duration(viper.GetInt("ttl")) * time.Second,
		OpTimeout:   time.Duration(viper.GetInt("timeout")) * time.Second,
		Verbose:     viper.GetBool("verbose"),
	}
	conf.Endpoint = ResolveEndpoint(viper.GetString("host"), viper.GetInt("port"), endpoints)

	return conf, nil
}

// LoadEndpoints reads the endpoint list of the named environment from the
// config file. When the default location is absent the fallback file and then
// the built-in defaults apply, but a path the user named explicitly must
// exist. A file that exists but cannot be parsed is always an error.
func LoadEndpoints(configFile, environment string) ([]string, error) {
	path := configFile
	if _, err := os.Stat(path); err != nil {
		if configFile != "" && configFile != DefaultConfigFile {
			return nil, fmt.Errorf("config file %s: %w", configFile, err)
		}
		path = FallbackConfigFile
		if _, err := os.Stat(path); err != nil {
			return nil, nil
		}
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	return v.GetStringSlice("environments." + environment + ".endpoints"), nil
}

// ResolveEndpoint applies the endpoint precedence: an explicit --host flag
// wins, then the first config file endpoint, then the built-in default.
// Remaining config file endpoints are a documented failover placeholder and
// are not used.
func ResolveEndpoint(host string, port int, endpoints []string) string {
	if host != "" {
		return fmt.Sprintf("%s:%d", host, port)
	}
	if len(endpoints) > 0 {
		return endpoints[0]
	}
	return fmt.Sprintf("localhost:%d", DefaultPort)
}
