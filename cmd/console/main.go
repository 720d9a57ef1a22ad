package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/mengeric/gameserver-console-go/console"
)

func newRootCommand() *cli.Command {
	return &cli.Command{
		Name:  "console",
		Usage: "Operator console for managed game-server instances",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "YAML config file", Sources: cli.EnvVars("CONSOLE_CONFIG")},
		},
		Commands: []*cli.Command{
			newLoginCommand(),
			newLogoutCommand(),
			newInstancesCommand(),
			newActionCommand("start", "Start an instance"),
			newActionCommand("stop", "Stop a running instance"),
			newActionCommand("download", "Download the mods of an instance preset"),
			newDeleteCommand(),
			newTasksCommand(),
			newPollCommand(),
			newLogsCommand(),
			newServeCommand(),
			newTUICommand(),
			newConfigCommand(),
		},
	}
}

func main() {
	ctx, stop := console.WithSignalCancel(context.Background())
	defer stop()
	if err := newRootCommand().Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
