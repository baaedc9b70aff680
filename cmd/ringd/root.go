package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"consistenthasher/internal/config"
	"consistenthasher/internal/node"
	"consistenthasher/internal/ring"
)

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "ringd",
		Short:         "Consistent hashing ring daemon",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCommand(), newDistributionCommand())
	return root
}

func newServeCommand() *cobra.Command {
	v := viper.New()
	var debug bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the ring over gRPC",
		RunE: func(cmd *cobra.Command, _ []string) error {
			bindFlags(v, cmd.Flags())
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}

			logger, err := newLogger(debug)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			n, err := node.NewNode(cfg, logger)
			if err != nil {
				return err
			}

			sig := make(chan os.Signal, 1)
			signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
			go func() {
				s := <-sig
				logger.Info("received signal", zap.Stringer("signal", s))
				n.Stop()
			}()

			return n.Start()
		},
	}

	flags := cmd.Flags()
	flags.String(config.KeyListenAddr, "127.0.0.1:50051", "gRPC listen address")
	flags.String(config.KeyMetricsAddr, "", "metrics listen address, empty to disable")
	flags.Int(config.KeyVNodes, ring.DefaultVirtualNodes, "virtual nodes per bucket")
	flags.String(config.KeyHash, "sha1", "hash function: sha1, xxhash, fnv")
	flags.String(config.KeyBuckets, "", "comma-separated initial buckets")
	flags.Duration(config.KeyRemoveTimeout, 5*time.Second, "how long bucket removal waits for in-flight listings")
	flags.BoolVar(&debug, "debug", false, "enable debug logging")

	return cmd
}

// bindFlags binds the flags that were set explicitly, so that unset flags
// do not shadow environment variables and config defaults.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) {
	flags.Visit(func(f *pflag.Flag) {
		if f.Name != "debug" {
			v.Set(f.Name, f.Value.String())
		}
	})
}

func newLogger(debug bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if debug {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return cfg.Build()
}
