package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	diary "github.com/unowned-ai/diary/pkg"
	"github.com/unowned-ai/diary/pkg/config"
	pkgdb "github.com/unowned-ai/diary/pkg/db"
)

var completionShells = []string{"bash", "zsh", "fish", "powershell"}

// extraCommands are added by files behind build tags.
var extraCommands []func(r *runtime) *cobra.Command

// runtime carries the configuration shared by every command.
type runtime struct {
	v          *viper.Viper
	configFile string
	cfg        *config.Config
	logOut     io.Writer
}

func newRootCmd() *cobra.Command {
	r := &runtime{v: config.New()}

	rootCmd := &cobra.Command{
		Use:           "diary",
		Short:         "A personal diary: dated entries with text, photo, mood and location.",
		Version:       fmt.Sprintf("v%s", diary.Version),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(r.v, config.Options{ConfigFile: r.configFile})
			if err != nil {
				return err
			}
			r.cfg = cfg
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&r.configFile, "config", "", "Path to a config file (yaml, json or toml)")
	flags.String("db", "", "Path to the database file (uses a system-specific default if not provided)")
	flags.Bool("wal", true, "Enable SQLite WAL (Write-Ahead Logging) mode")
	flags.String("sync", "NORMAL", "SQLite synchronous pragma (OFF, NORMAL, FULL, EXTRA)")
	flags.String("log-level", "info", "Log level (debug, info, warn, error)")
	flags.String("log-format", "text", "Log format (text, json)")
	flags.String("gazetteer", "", "JSON file of known places used to resolve coordinates")

	for key, flag := range map[string]string{
		config.KeyDB:        "db",
		config.KeyWAL:       "wal",
		config.KeySync:      "sync",
		config.KeyLogLevel:  "log-level",
		config.KeyLogFormat: "log-format",
		config.KeyGazetteer: "gazetteer",
	} {
		if err := r.v.BindPFlag(key, flags.Lookup(flag)); err != nil {
			panic(err)
		}
	}

	rootCmd.AddCommand(
		newCompletionCmd(rootCmd),
		newVersionCmd(),
		newDBCmd(r),
		newEntriesCmd(r),
		newLocateCmd(r),
		newMCPCmd(r),
	)
	for _, extra := range extraCommands {
		rootCmd.AddCommand(extra(r))
	}

	return rootCmd
}

func newCompletionCmd(rootCmd *cobra.Command) *cobra.Command {
	return &cobra.Command{
		Use:   fmt.Sprintf("completion %s", strings.Join(completionShells, "|")),
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for diary.

The command prints a completion script to stdout. You can source it in your shell
or install it to the appropriate location for your shell to enable completions permanently.

Examples:

  Bash (current shell):
    $ source <(diary completion bash)

  Zsh:
    $ diary completion zsh > "${fpath[1]}/_diary"

  Fish:
    $ diary completion fish > ~/.config/fish/completions/diary.fish

  PowerShell:
    PS> diary completion powershell | Out-String | Invoke-Expression`,
		DisableFlagsInUseLine: true,
		ValidArgs:             completionShells,
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		PersistentPreRunE:     func(cmd *cobra.Command, args []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return rootCmd.GenBashCompletion(cmd.OutOrStdout())
			case "zsh":
				return rootCmd.GenZshCompletion(cmd.OutOrStdout())
			case "fish":
				return rootCmd.GenFishCompletion(cmd.OutOrStdout(), true)
			case "powershell":
				return rootCmd.GenPowerShellCompletion(cmd.OutOrStdout())
			default:
				return fmt.Errorf("unsupported shell: %s", args[0])
			}
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "version",
		Short:             "Print the version number of diary",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), diary.Version)
		},
	}
}

func newDBCmd(r *runtime) *cobra.Command {
	dbCmd := &cobra.Command{
		Use:   "db",
		Short: "Manage the diary database",
	}

	upgradeCmd := &cobra.Command{
		Use:   "upgrade",
		Short: "Create or upgrade the diary database schema",
		Long: `Opens the SQLite database (--db or the configured default) and brings the
entriesdb component up to the current schema version. A missing database is
created and initialized.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), r)
			if err != nil {
				return err
			}
			defer a.Close()

			version, err := pkgdb.GetComponentSchemaVersion(a.db, pkgdb.EntriesDBComponent)
			if err != nil {
				return err
			}
			count, err := a.store.Count(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Database %s is at %s schema version %d (entries: %d)\n", a.dbPath, pkgdb.EntriesDBComponent, version, count)
			return nil
		},
	}

	dbCmd.AddCommand(upgradeCmd)
	return dbCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
