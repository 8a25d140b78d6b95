// Command ec4xd is the EC4X daemon: it runs the turn-resolution event
// loop (spec.md §4.E) and exposes the operational subcommands of §6.
// Structured as a spf13/cobra command tree in place of the teacher's
// single flagless main() (main.go) that read its entire configuration
// from environment variables.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ec4x/daemon/internal/config"
	"github.com/ec4x/daemon/internal/daemon"
	"github.com/ec4x/daemon/internal/entity"
	"github.com/ec4x/daemon/internal/identity"
	"github.com/ec4x/daemon/internal/ids"
	"github.com/ec4x/daemon/internal/logging"
	"github.com/ec4x/daemon/internal/persist"
	"github.com/ec4x/daemon/internal/transport"
)

const version = "0.1.0"

var (
	flagDataDir     string
	flagConfigPath  string
	flagDebug       bool
)

func main() {
	root := &cobra.Command{
		Use:   "ec4xd",
		Short: "EC4X asynchronous turn-based strategy daemon",
	}
	root.PersistentFlags().StringVar(&flagDataDir, "data-dir", "./data", "daemon data directory")
	root.PersistentFlags().StringVar(&flagConfigPath, "config", "", "path to a daemon config file (KDL)")
	root.PersistentFlags().BoolVar(&flagDebug, "debug", false, "enable debug logging")

	root.AddCommand(startCmd(), resolveCmd(), statusCmd(), versionCmd(), initCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadDaemonConfig() (config.Daemon, error) {
	cfg := config.DefaultDaemon()
	if flagConfigPath != "" {
		loaded, err := config.LoadDaemon(flagConfigPath)
		if err != nil {
			return config.Daemon{}, err
		}
		cfg = loaded
	}
	if flagDataDir != "" {
		cfg.DataDir = flagDataDir
	}
	return cfg, nil
}

func loadIdentity(dataDir string) (identity.Identity, error) {
	regen := os.Getenv("EC4X_REGEN_IDENTITY") == "1"
	return identity.Load(dataDir, regen)
}

// startCmd runs the daemon loop until SIGINT/SIGTERM, connecting to
// every configured relay and resolving turns as houses submit.
func startCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Run the daemon event loop",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadDaemonConfig()
			if err != nil {
				return err
			}

			log, closer, err := logging.Init(cfg.DataDir, flagDebug)
			if err != nil {
				return err
			}
			defer closer.Close()

			id, err := loadIdentity(cfg.DataDir)
			if err != nil {
				return err
			}
			log.Info("daemon identity loaded", logging.Str("pubkey", id.PublicHex()))

			m := daemon.NewModel(id, cfg, log)
			q := daemon.NewQueue()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			for _, url := range cfg.RelayURLs {
				relay := transport.NewRelay(url, log)
				m.Relays = append(m.Relays, relay)
				go func() {
					if err := relay.Run(ctx); err != nil && ctx.Err() == nil {
						log.Error("relay exited", logging.Str("url", url), logging.Err(err))
					}
				}()
				go daemon.PumpRelay(ctx, relay, q)
			}

			log.Info("daemon starting", logging.Str("data_dir", cfg.DataDir), logging.Int("relays", len(cfg.RelayURLs)))
			err = daemon.Run(ctx, m, q)
			if errors.Is(err, context.Canceled) {
				log.Info("daemon shutting down")
				return nil
			}
			return err
		},
	}
}

// resolveCmd forces one game's current turn to resolve immediately,
// bypassing the readiness gate.
func resolveCmd() *cobra.Command {
	var gameID string
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Force a game's current turn to resolve now",
		RunE: func(cmd *cobra.Command, args []string) error {
			if gameID == "" {
				return fmt.Errorf("ec4xd: --game is required")
			}
			cfg, err := loadDaemonConfig()
			if err != nil {
				return err
			}
			log, closer, err := logging.Init(cfg.DataDir, flagDebug)
			if err != nil {
				return err
			}
			defer closer.Close()

			id, err := loadIdentity(cfg.DataDir)
			if err != nil {
				return err
			}

			m := daemon.NewModel(id, cfg, log)
			if err := daemon.ManualResolve(m, gameID); err != nil {
				return err
			}
			fmt.Printf("resolved turn for game %s\n", gameID)
			return nil
		},
	}
	cmd.Flags().StringVar(&gameID, "game", "", "game id to resolve")
	return cmd
}

// statusCmd prints one game's current turn/phase, or every known
// game's if --game is omitted.
func statusCmd() *cobra.Command {
	var gameID string
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show a game's current turn and phase",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadDaemonConfig()
			if err != nil {
				return err
			}

			ids := []string{gameID}
			if gameID == "" {
				ids, err = discoverGameIDs(cfg.DataDir)
				if err != nil {
					return err
				}
			}

			for _, id := range ids {
				db, err := persist.Open(cfg.DataDir, id)
				if err != nil {
					return err
				}
				meta, turn, phase, ok, err := db.LoadGameMeta()
				db.Close()
				if err != nil {
					return err
				}
				if !ok {
					fmt.Printf("%s: no state yet\n", id)
					continue
				}
				fmt.Printf("%s %q turn=%d phase=%d\n", meta.ID, meta.Name, turn, phase)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&gameID, "game", "", "game id to inspect (all known games if omitted)")
	return cmd
}

// initCmd seeds a fresh game directory: an unclaimed house roster,
// each with its own invite-code mnemonic, ready for daemon discovery
// on the next poll tick. The game id is a random UUID since nothing
// downstream needs it to be memorable — invite codes are what players
// actually type in.
func initCmd() *cobra.Command {
	var name string
	var houses int
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a new game and print its id and house invite codes",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadDaemonConfig()
			if err != nil {
				return err
			}
			if name == "" {
				return fmt.Errorf("ec4xd: --name is required")
			}
			if houses < 2 {
				return fmt.Errorf("ec4xd: --houses must be at least 2")
			}

			gameID := uuid.NewString()
			if _, err := daemon.NewGame(cfg.DataDir, name, houses, config.DefaultGame(), gameID, time.Now().Unix()); err != nil {
				return err
			}

			db, err := persist.Open(cfg.DataDir, gameID)
			if err != nil {
				return err
			}
			defer db.Close()
			state, _, err := db.LoadGameState()
			if err != nil {
				return err
			}

			fmt.Printf("game %s created\n", gameID)
			state.Houses.All(func(id ids.HouseId, h entity.House) bool {
				fmt.Printf("  house %d invite=%s\n", id, h.InviteCode)
				return true
			})
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "game name")
	cmd.Flags().IntVar(&houses, "houses", 4, "number of house seats")
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the daemon version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("ec4xd " + version)
			return nil
		},
	}
}

func discoverGameIDs(dataDir string) ([]string, error) {
	entries, err := os.ReadDir(dataDir + "/games")
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			out = append(out, e.Name())
		}
	}
	return out, nil
}
