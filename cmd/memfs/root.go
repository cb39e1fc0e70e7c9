package main

import (
	"github.com/brettbedarf/memfs/adapters"
	"github.com/brettbedarf/memfs/config"
	"github.com/brettbedarf/memfs/filesystem"
	"github.com/brettbedarf/memfs/internal/errors"
	"github.com/brettbedarf/memfs/internal/util"
	"github.com/brettbedarf/memfs/seed"
	"github.com/spf13/cobra"
)

var (
	Debug      bool
	Verbose    int
	ConfigPath string
	SeedPath   string
	User       string

	cfg  *config.Config
	fsys *filesystem.FileSystem

	rootCmd = &cobra.Command{
		Use:               "memfs",
		Short:             "Inspect and mount an in-memory file tree built from a seed file",
		SilenceErrors:     true,
		SilenceUsage:      true,
		PersistentPreRunE: setup,
	}
)

func init() {
	rootCmd.PersistentFlags().BoolVar(&Debug, "debug", false, "print stack traces on error")
	_ = rootCmd.PersistentFlags().MarkHidden("debug")
	rootCmd.PersistentFlags().IntVarP(&Verbose, "verbose", "v", config.InfoVerbose,
		"log verbosity between 1 (error) and 5 (trace)")
	rootCmd.PersistentFlags().StringVarP(&ConfigPath, "config", "c", "", "path to a YAML or JSON config file")
	rootCmd.PersistentFlags().StringVarP(&SeedPath, "seed", "s", "", "path to a YAML or JSON seed file")
	rootCmd.PersistentFlags().StringVarP(&User, "user", "u", "", "act as this user for permission checks")

	rootCmd.AddCommand(treeCmd, lsCmd, statCmd, catCmd, mountCmd)
}

// setup loads the config, builds the file system and applies the seed file.
func setup(cmd *cobra.Command, args []string) error {
	override := &config.ConfigOverride{}
	if ConfigPath != "" {
		o, err := config.LoadConfigOverrideFile(ConfigPath)
		if err != nil {
			return errors.Wrapf(err, "failed to load config %s", ConfigPath)
		}
		override = o
	}
	if cmd.Flags().Changed("verbose") || override.LogLvl == nil {
		override.LogLvl = &Verbose
	}
	if User != "" {
		override.User = &User
	}
	cfg = config.NewConfig(override)

	util.InitializeLogger(cfg.LogLvl)
	logger := util.GetLogger("main")

	settings := config.NewMapSettings(nil)
	if err := adapters.Configure(settings); err != nil {
		return err
	}
	if err := adapters.ConfigureLocal(settings); err != nil {
		return err
	}
	impls := adapters.NewBuiltinRegistry()
	reg := filesystem.NewRegistry()

	var err error
	fsys, err = impls.ForURI(reg, settings, cfg.Scheme+":///", filesystem.WithUser(cfg.User, cfg.Groups...))
	if err != nil {
		return err
	}

	if SeedPath != "" {
		// Seed as the default user so fixtures can set any owner
		seeder, err := impls.ForURI(reg, settings, cfg.Scheme+":///")
		if err != nil {
			return err
		}
		nodes, err := seed.LoadFile(SeedPath, filesystem.Permission(cfg.Permission))
		if err != nil {
			return errors.Wrapf(err, "failed to load seed %s", SeedPath)
		}
		if err := seed.Apply(seeder, nodes); err != nil {
			return errors.Wrapf(err, "failed to apply seed %s", SeedPath)
		}
		logger.Debug().Str("seed", SeedPath).Int("nodes", len(nodes)).Msg("Applied seed file")
	}

	if err := fsys.SetWorkingDirectory(cfg.WorkingDir); err != nil {
		return err
	}
	logger.Debug().
		Str("uri", fsys.URI()).
		Str("user", fsys.User()).
		Strs("groups", fsys.Groups()).
		Str("wd", fsys.WorkingDirectory()).
		Msg("File system ready")
	return nil
}
