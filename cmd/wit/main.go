package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/willothy/wit/pkg/index"
	"github.com/willothy/wit/pkg/object"
	"github.com/willothy/wit/pkg/repo"
	"go.uber.org/zap"
)

var version = "0.1.0-dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		printFatal(os.Stderr, err)
		os.Exit(1)
	}
}

// app carries state shared by every subcommand once the root command has
// parsed its persistent flags.
type app struct {
	logLevel     string
	settingsPath string

	settings Settings
	log      *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{log: zap.NewNop()}

	root := &cobra.Command{
		Use:           "wit",
		Short:         "A small content-addressed version control tool",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.log.Sync()
		},
	}
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&a.settingsPath, "config", "", "settings file (default $WIT_CONFIG or ~/.config/wit/config.toml)")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd(a))
	root.AddCommand(newCatFileCmd(a))
	root.AddCommand(newHashObjectCmd(a))
	root.AddCommand(newLogCmd(a))
	root.AddCommand(newLsTreeCmd(a))
	root.AddCommand(newCheckoutCmd(a))
	root.AddCommand(newShowRefCmd(a))
	root.AddCommand(newTagCmd(a))
	root.AddCommand(newRevParseCmd(a))
	root.AddCommand(newLsFilesCmd(a))
	root.AddCommand(newStatusCmd(a))
	root.AddCommand(newBranchCmd(a))
	root.AddCommand(newWriteTreeCmd(a))
	root.AddCommand(newCommitTreeCmd(a))
	root.AddCommand(newCommitCmd(a))
	root.AddCommand(newUpdateRefCmd(a))
	root.AddCommand(newSymbolicRefCmd(a))
	root.AddCommand(newReflogCmd(a))
	root.AddCommand(newFsckCmd(a))

	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "wit %s\n", version)
		},
	}
}

func (a *app) setup() error {
	path := a.settingsPath
	if path == "" {
		path = defaultSettingsPath()
	}
	settings, err := LoadSettings(path)
	if err != nil {
		return err
	}
	a.settings = settings

	level := a.logLevel
	if level == "" {
		level = settings.Log.Level
	}
	log, err := newLogger(level)
	if err != nil {
		return err
	}
	a.log = log
	return nil
}

func (a *app) repoOptions() []repo.Option {
	return []repo.Option{
		repo.WithLogger(a.log),
		repo.WithIdentity(a.settings.Identity()),
	}
}

// openRepo finds the repository enclosing the working directory.
func (a *app) openRepo() (*repo.Repo, error) {
	return repo.Find(".", true, a.repoOptions()...)
}

// identity is the "Name <email>" used for commits and tags.
func (a *app) identity() string {
	if id := a.settings.Identity(); id != "" {
		return id
	}
	return repo.DefaultIdentity
}

var errorKinds = []struct {
	err  error
	kind string
}{
	{repo.ErrRepoCreation, "repository creation"},
	{repo.ErrFormatVersion, "format version"},
	{repo.ErrRepoNotFound, "not a repository"},
	{repo.ErrAmbiguousRef, "ambiguous reference"},
	{repo.ErrUnknownRef, "unknown reference"},
	{repo.ErrRefCycle, "reference cycle"},
	{repo.ErrNotDirectory, "not a directory"},
	{repo.ErrNotEmpty, "not empty"},
	{repo.ErrPathConversion, "path"},
	{repo.ErrBareRepository, "bare repository"},
	{index.ErrMalformedIndex, "malformed index"},
	{index.ErrUnsupportedIndexVersion, "index version"},
	{object.ErrMalformedObject, "malformed object"},
	{object.ErrUnknownObjectType, "unknown object type"},
	{object.ErrInvalidTreeMode, "invalid tree mode"},
	{object.ErrInvalidUTF8, "invalid utf-8"},
	{object.ErrMissingData, "missing data"},
	{object.ErrInvalidHash, "invalid hash"},
	{object.ErrIO, "i/o"},
}

func errorKind(err error) string {
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return "error"
}

func printFatal(w io.Writer, err error) {
	fatal := color.New(color.FgRed, color.Bold).Sprint("fatal:")
	fmt.Fprintf(w, "%s %s: %v\n", fatal, errorKind(err), err)
}
