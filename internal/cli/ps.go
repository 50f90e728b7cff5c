package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/cubohq/cubo/internal/runtime"
)

// PSCmd implements "cubo ps": list containers, stopped ones included
// only with --all.
type PSCmd struct {
	All bool `short:"a" help:"Include stopped containers."`
}

func (c *PSCmd) Run(ctx context.Context, rt *runtime.Runtime) error {
	entries, err := rt.Containers.List(c.All)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tIMAGE\tCOMMAND\tSTATUS")
	for _, e := range entries {
		id := e.Config.ID
		if len(id) > 12 {
			id = id[:12]
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			id, e.Config.Name, e.Config.Image, strings.Join(e.Config.Command, " "), e.State.Status)
	}
	return tw.Flush()
}
