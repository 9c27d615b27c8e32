package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	redis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"pkt.systems/pslog"

	"github.com/jigneshk/Ops/cmd/util"
	"github.com/jigneshk/Ops/lib/lock"
	"github.com/jigneshk/Ops/lib/store"
	"github.com/jigneshk/Ops/lib/store/memstore"
	"github.com/jigneshk/Ops/lib/store/redisstore"
)

const (
	Version = "1.2.0"
)

// ErrNotAcquired is returned by the root command when the race was lost
// cleanly. It maps to exit code 1, like every other failure.
var ErrNotAcquired = errors.New("lock not acquired")

var (

	// RootCmd represents the base command
	RootCmd = &cobra.Command{
		Use:   "oplock [lockname]",
		Short: "single-shot distributed lock for scheduled jobs",
		Long: fmt.Sprintf(`oplock (v%s)

Best-effort mutual exclusion for jobs that fire simultaneously on several
hosts. Each invocation makes exactly one acquisition attempt against a
shared coordination store and exits 0 only when it won; there is no retry,
no renewal and no explicit unlock. Stale attempts older than the TTL are
reclaimed on every invocation.`, Version),
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE:         runAcquire,
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of oplock",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("oplock v%s\n", Version)
		},
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitConfig)

	// Add Commands
	RootCmd.AddCommand(versionCmd)

	// Add Flags
	util.SetupLockFlags(RootCmd)
}

// runAcquire handles one acquisition attempt
func runAcquire(cmd *cobra.Command, args []string) error {
	lockName := args[0]

	// Bind command flags to viper
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	// Resolve configuration (flag > config file > default)
	config, err := util.GetLockConfig()
	if err != nil {
		return err
	}

	// Diagnostics are opt-in; the default output is just the binary verdict.
	logger := pslog.NoopLogger()
	if config.Verbose {
		logger = pslog.NewStructured(os.Stderr).LogLevel(pslog.DebugLevel).With("lock", lockName)
		defer store.WriteMetrics(os.Stderr)
	}

	// Connect to the coordination store
	st, err := openStore(config, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	// Run the protocol
	locker := lock.NewLocker(st, lock.Config{
		Root:   config.Root,
		TTL:    config.TTL,
		Logger: logger,
	})

	acquired, err := locker.Acquire(lockName)
	if err != nil {
		return fmt.Errorf("failed to acquire lock: %v", err)
	}

	if !acquired {
		fmt.Printf("acquired=false\n")
		return ErrNotAcquired
	}

	fmt.Printf("acquired=true\n")
	return nil
}

// openStore dials the configured endpoint. The "mem://" scheme selects the
// in-memory engine (single-process smoke runs); anything else is treated as
// a Redis host:port. A store that cannot be reached is fatal here, before
// the protocol starts.
func openStore(config *util.LockConfig, logger pslog.Logger) (store.IStore, error) {
	if strings.HasPrefix(config.Endpoint, memstore.Endpoint) {
		logger.Debug("using in-memory store", "endpoint", config.Endpoint)
		return memstore.New(nil), nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:         config.Endpoint,
		DialTimeout:  config.OpTimeout,
		ReadTimeout:  config.OpTimeout,
		WriteTimeout: config.OpTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), config.OpTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("cannot reach store at %s: %v", config.Endpoint, err)
	}

	logger.Debug("connected to store", "endpoint", config.Endpoint, "environment", config.Environment)
	return redisstore.New(client, nil, redisstore.WithTimeout(config.OpTimeout)), nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
