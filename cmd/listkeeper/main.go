package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/Joseda-hg/listkeeper/internal/auth"
	"github.com/Joseda-hg/listkeeper/internal/config"
	"github.com/Joseda-hg/listkeeper/internal/db"
)

func main() {
	cmd := newRootCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

type app struct {
	configPath string
	overrides  overrides

	cfg config.Config
}

// overrides holds flag values that win over the config file when set.
type overrides struct {
	dbPath    string
	logLevel  string
	logFormat string
	addr      string
	serverURL string
	token     string
	user      string
}

func newRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:          "listkeeper",
		Short:        "Personal lists and tasks: HTTP API server and terminal UI",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Open the terminal UI against a local database
  listkeeper

  # Serve the JSON API
  listkeeper serve --addr 127.0.0.1:8080

  # Mint a bearer token for a user
  listkeeper token --user alice
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return runTUI(cmd, a)
			}
			return cmd.Help()
		},
	}

	registerCommonFlags(cmd.PersistentFlags(), a)
	registerClientFlags(cmd.Flags(), &a.overrides)

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return a.load(cmd.Flags())
	}

	cmd.AddCommand(newServeCmd(a))
	cmd.AddCommand(newTUICmd(a))
	cmd.AddCommand(newTokenCmd(a))
	return cmd
}

func registerCommonFlags(fs *pflag.FlagSet, a *app) {
	fs.StringVar(&a.configPath, "config", "", "config file path (.json or .yaml)")
	fs.StringVar(&a.overrides.dbPath, "db", "", "sqlite db path")
	fs.StringVar(&a.overrides.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	fs.StringVar(&a.overrides.logFormat, "log-format", "", "log format (auto, text, json)")
}

func registerClientFlags(fs *pflag.FlagSet, o *overrides) {
	fs.StringVar(&o.serverURL, "server", "", "remote API base URL; empty runs an in-process server")
	fs.StringVar(&o.token, "token", "", "bearer token for --server")
	fs.StringVar(&o.user, "user", "", "user to act as")
}

// load reads the config file, applies changed flags and fills in the
// defaults that depend on the config location. A generated auth secret is
// written back so issued tokens survive restarts.
func (a *app) load(fs *pflag.FlagSet) error {
	cfgPath, err := resolveConfigPath(a.configPath)
	if err != nil {
		return err
	}
	a.configPath = cfgPath

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	dirty := false

	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join(filepath.Dir(cfgPath), "listkeeper.db")
		dirty = true
	}
	if cfg.AuthSecret == "" {
		secret, err := newSecret()
		if err != nil {
			return err
		}
		cfg.AuthSecret = secret
		dirty = true
	}
	if dirty {
		if err := config.Save(cfgPath, cfg); err != nil {
			return err
		}
	}

	applyOverrides(fs, a.overrides, &cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg
	return nil
}

// applyOverrides copies only the flags the user actually passed.
func applyOverrides(fs *pflag.FlagSet, o overrides, cfg *config.Config) {
	changed := func(name string) bool {
		f := fs.Lookup(name)
		return f != nil && f.Changed
	}
	if changed("db") {
		cfg.DBPath = o.dbPath
	}
	if changed("log-level") {
		cfg.LogLevel = o.logLevel
	}
	if changed("log-format") {
		cfg.LogFormat = o.logFormat
	}
	if changed("addr") {
		cfg.Addr = o.addr
	}
	if changed("server") {
		cfg.ServerURL = o.serverURL
	}
	if changed("token") {
		cfg.Token = o.token
	}
	if changed("user") {
		cfg.User = o.user
	}
}

func resolveConfigPath(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	return config.DefaultConfigPath()
}

func openStore(cfg config.Config) (*db.Store, func() error, error) {
	if err := config.EnsureDir(cfg.DBPath); err != nil {
		return nil, nil, err
	}

	sqlDB, err := db.Open(cfg.DBPath)
	if err != nil {
		return nil, nil, err
	}

	return db.NewStore(sqlDB, db.WithPageSize(cfg.PageSize)), sqlDB.Close, nil
}

func newIssuer(cfg config.Config) (*auth.Issuer, error) {
	ttl, err := cfg.TTL()
	if err != nil {
		return nil, err
	}
	return auth.NewIssuer(cfg.AuthSecret, ttl, nil)
}

func defaultUser(cfg config.Config) string {
	if cfg.User != "" {
		return cfg.User
	}
	if name := strings.TrimSpace(os.Getenv("USER")); name != "" {
		return name
	}
	return "me"
}

func newSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate auth secret: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
