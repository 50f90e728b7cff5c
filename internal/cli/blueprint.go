package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/cubohq/cubo/internal/runtime"
)

// BlueprintCmd implements "cubo blueprint": list stored images (Cubo's
// term for an image is a "blueprint").
type BlueprintCmd struct{}

func (c *BlueprintCmd) Run(ctx context.Context, rt *runtime.Runtime) error {
	summaries, err := rt.Images.List()
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "REFERENCE\tID\tSIZE\tCREATED")
	for _, s := range summaries {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", s.Reference, s.ShortID, s.Size, s.Created.Format("2006-01-02T15:04:05Z"))
	}
	return tw.Flush()
}
