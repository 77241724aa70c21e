package main

import (
	"context"

	"github.com/rflorenc/towerctl/internal/cli"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cli.SetVersion(version, commit, date)
	cmd := cli.NewRootCommand()
	cli.HandleExitError(cmd.ExecuteContext(context.Background()))
}
