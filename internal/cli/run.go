package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/cubohq/cubo/internal/runtime"
)

// RunCmd implements "cubo run": create a container from an image, start
// it, and (unless detached) attach to its logs until it exits.
type RunCmd struct {
	Image   string   `arg:"" help:"Image reference to run."`
	Command []string `arg:"" optional:"" help:"Command and arguments to run, overriding the image's CMD."`

	Name        string   `help:"Assign a name to the container."`
	Env         []string `short:"e" help:"Set an environment variable, KEY=VALUE." placeholder:"KEY=VALUE"`
	Volume      []string `short:"v" help:"Bind mount a volume, host_path:container_path[:ro]." placeholder:"SPEC"`
	Publish     []string `short:"p" help:"Publish a port, host:container[/tcp|/udp]." placeholder:"SPEC"`
	Workdir     string   `short:"w" help:"Override the working directory."`
	Interactive bool     `short:"i" help:"Keep stdin open and attach the container's stdin."`
	Detach      bool     `short:"d" help:"Start the container and return immediately."`
}

func (c *RunCmd) Run(ctx context.Context, rt *runtime.Runtime) error {
	env, err := parseEnvs(c.Env)
	if err != nil {
		return err
	}
	volumes, err := parseVolumes(c.Volume)
	if err != nil {
		return err
	}
	ports, err := parsePorts(c.Publish)
	if err != nil {
		return err
	}

	ov := runtime.Overrides{
		Name:        c.Name,
		Command:     c.Command,
		Env:         env,
		Workdir:     c.Workdir,
		Volumes:     volumes,
		Ports:       ports,
		Interactive: c.Interactive,
	}

	cfg, err := rt.CreateContainer(ctx, c.Image, ov)
	if err != nil {
		return err
	}

	if err := rt.StartContainer(cfg.ID); err != nil {
		return err
	}

	if c.Detach {
		fmt.Println(cfg.ID)
		return nil
	}

	if err := rt.FetchLogs(ctx, cfg.ID, true, 0, false, os.Stdout); err != nil {
		return err
	}

	st, err := rt.Containers.LoadState(cfg.ID)
	if err != nil {
		return err
	}
	if st.ExitCode != nil && *st.ExitCode != 0 {
		// Mirror the container's own exit code, the way a foreground
		// container invocation is expected to behave, rather than
		// folding it into the generic exit-code taxonomy.
		os.Exit(*st.ExitCode)
	}
	return nil
}
