package cli

import (
	"context"
	"fmt"

	"github.com/cubohq/cubo/internal"
)

// VersionCmd implements "cubo version".
type VersionCmd struct{}

func (c *VersionCmd) Run(ctx context.Context) error {
	fmt.Println(internal.VersionString())
	return nil
}
