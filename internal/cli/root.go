package cli

import (
	"context"
	"os"
	"time"

	"github.com/alecthomas/kong"
	"github.com/sirupsen/logrus"

	"github.com/cubohq/cubo/internal"
	"github.com/cubohq/cubo/internal/containerstore"
	"github.com/cubohq/cubo/internal/errkit"
	"github.com/cubohq/cubo/internal/imagestore"
	"github.com/cubohq/cubo/internal/paths"
	"github.com/cubohq/cubo/internal/runtime"
)

// RootCmd is the root command for the cubo CLI.
var RootCmd struct {
	RootDir string `name:"root-dir" help:"Override the resolved root directory." placeholder:"PATH"`
	Quiet   bool   `short:"q" help:"Suppress informational output."`
	Verbose bool   `short:"v" help:"Enable verbose output."`
	Debug   bool   `short:"d" help:"Enable debug output."`

	Run       RunCmd       `cmd:"" help:"Create and start a container from an image."`
	PS        PSCmd        `cmd:"" name:"ps" help:"List containers."`
	Stop      StopCmd      `cmd:"" help:"Stop a running container."`
	RM        RMCmd        `cmd:"" name:"rm" help:"Remove a container."`
	Logs      LogsCmd      `cmd:"" help:"Fetch a container's logs."`
	Pull      PullCmd      `cmd:"" help:"Pull an image from a registry."`
	Build     BuildCmd     `cmd:"" help:"Build an image from a build file."`
	Blueprint BlueprintCmd `cmd:"" help:"List stored images."`
	RMB       RMBCmd       `cmd:"" name:"rmb" help:"Remove a stored image."`

	Version VersionCmd `cmd:"" help:"Show version information."`
}

// Execute parses arguments, configures logging, builds the shared
// Runtime, and runs the selected subcommand.
func Execute() error {
	kongCtx := kong.Parse(&RootCmd,
		kong.Name(internal.Name),
		kong.Description("Cubo: a minimal Linux container runtime and image manager."),
		kong.UsageOnError(),
		kong.Vars{"version": internal.VersionString()},
	)

	configureLogger()

	rt, err := NewRuntime(RootCmd.RootDir)
	if err != nil {
		return err
	}

	return kongCtx.Run(context.Background(), rt)
}

// NewRuntime resolves the root directory and opens the container and
// image stores, the same bootstrap Execute performs before dispatching
// to a subcommand. cmd/cubo/main.go calls this directly for the
// supervisor re-exec path, which never goes through kong.
func NewRuntime(rootDir string) (*runtime.Runtime, error) {
	root, err := paths.Root(rootDir)
	if err != nil {
		logrus.WithError(err).Error("resolve root directory")
		return nil, errkit.Wrap(runtime.ErrRuntime, err)
	}

	containers := containerstore.New(root)
	if err := containers.Reconcile(time.Now().UTC()); err != nil {
		logrus.WithError(err).Warn("startup reconciliation")
	}

	images, err := imagestore.New(root)
	if err != nil {
		logrus.WithError(err).Error("open image store")
		return nil, errkit.Wrap(runtime.ErrRuntime, err)
	}

	return runtime.New(root, containers, images), nil
}

// configureLogger sets logrus's level from the global flags, following
// the precedence internal/config.go assigns quietMode/debugMode/
// verboseMode.
func configureLogger() {
	debug := RootCmd.Debug || internal.IsDebug()
	quiet := RootCmd.Quiet || internal.IsQuiet()
	verbose := RootCmd.Verbose || internal.IsVerbose()

	internal.SetDebug(debug)
	internal.SetQuiet(quiet)
	internal.SetVerbose(verbose)

	switch {
	case debug:
		logrus.SetLevel(logrus.DebugLevel)
	case verbose:
		logrus.SetLevel(logrus.InfoLevel)
	case quiet:
		logrus.SetLevel(logrus.WarnLevel)
	default:
		logrus.SetLevel(logrus.WarnLevel)
	}

	logrus.SetOutput(os.Stderr)
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: verbose || debug})

	if debug {
		logrus.WithFields(logrus.Fields{
			"version": internal.VersionString(),
			"pid":     os.Getpid(),
			"args":    os.Args,
		}).Debug("cubo starting")
	}
}
