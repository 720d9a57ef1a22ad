package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/urfave/cli/v3"

	"github.com/mengeric/gameserver-console-go/client"
	"github.com/mengeric/gameserver-console-go/config"
	"github.com/mengeric/gameserver-console-go/httpapi"
	"github.com/mengeric/gameserver-console-go/notify"
	"github.com/mengeric/gameserver-console-go/task"
	"github.com/mengeric/gameserver-console-go/tui"
)

var errTaskFailed = errors.New("task failed")

func instanceArg(cmd *cli.Command) (int64, error) {
	raw := cmd.Args().First()
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid instance id %q", raw)
	}
	return id, nil
}

func newTable(headers ...string) *table.Table {
	return table.New().Border(lipgloss.NormalBorder()).Headers(headers...)
}

func newLoginCommand() *cli.Command {
	return &cli.Command{
		Name:      "login",
		Usage:     "Log in and store the API token",
		ArgsUsage: "<username> <password>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 2 {
				return fmt.Errorf("usage: login <username> <password>")
			}
			return withApp(ctx, cmd, func(a *app) error {
				resp, err := a.console.Login(ctx, cmd.Args().Get(0), cmd.Args().Get(1))
				if err != nil {
					return errors.New(client.UserMessage(err))
				}
				fmt.Fprintf(a.out, "logged in as %s (admin=%t)\n", resp.User.Username, resp.IsAdmin)
				return nil
			})
		},
	}
}

func newLogoutCommand() *cli.Command {
	return &cli.Command{
		Name:  "logout",
		Usage: "Forget the stored API token",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return withApp(ctx, cmd, func(a *app) error { return a.console.Logout(ctx) })
		},
	}
}

func newInstancesCommand() *cli.Command {
	return &cli.Command{
		Name:  "instances",
		Usage: "List instances with their derived task state",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return withApp(ctx, cmd, func(a *app) error {
				if err := a.console.Reload(ctx); err != nil {
					return errors.New(client.UserMessage(err))
				}
				t := newTable("ID", "NAME", "READY", "RUNNING", "ACTION", "STATUS", "SHUTDOWN")
				for _, v := range a.console.Views() {
					status := ""
					if v.Busy {
						status = v.Status
					} else if v.Last != nil {
						status = string(v.Last.State) + " " + v.Last.Status
					}
					shutdown := ""
					if !v.ShutdownAt.IsZero() {
						shutdown = v.ShutdownAt.Format("15:04")
					}
					t.Row(client.FormatID(v.Instance.ID), v.Instance.Name,
						strconv.FormatBool(v.Instance.IsReady), strconv.FormatBool(v.Instance.IsRunning),
						string(v.Action), status, shutdown)
				}
				fmt.Fprintln(a.out, t.Render())
				return nil
			})
		},
	}
}

// newActionCommand start/stop/download 共用：提交任务，可选等待终态。
func newActionCommand(kind, usage string) *cli.Command {
	return &cli.Command{
		Name:      kind,
		Usage:     usage,
		ArgsUsage: "<instance-id>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "wait", Aliases: []string{"w"}, Usage: "Poll until the task finishes"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			id, err := instanceArg(cmd)
			if err != nil {
				return err
			}
			return withApp(ctx, cmd, func(a *app) error {
				t, err := a.console.Dispatcher().Dispatch(ctx, task.Kind(kind), id)
				if err != nil {
					return errors.New(client.UserMessage(err))
				}
				fmt.Fprintf(a.out, "%s #%d: %s (job %s)\n", kind, id, t.Status, t.JobID)
				if !cmd.Bool("wait") {
					return nil
				}
				final, err := a.console.Await(ctx, task.Kind(kind), id)
				if err != nil {
					return err
				}
				e, _ := a.console.Registry().Lookup(task.Kind(kind))
				if final.State == task.StateFailure {
					return fmt.Errorf("%w: %s%s", errTaskFailed, e.FailurePrefix, final.Status)
				}
				fmt.Fprintln(a.out, e.SuccessMessage)
				return nil
			})
		},
	}
}

func newDeleteCommand() *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Delete an instance",
		ArgsUsage: "<instance-id>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			id, err := instanceArg(cmd)
			if err != nil {
				return err
			}
			return withApp(ctx, cmd, func(a *app) error {
				msg, err := a.console.Dispatcher().Delete(ctx, id)
				if err != nil {
					return errors.New(client.UserMessage(err))
				}
				fmt.Fprintln(a.out, msg)
				return nil
			})
		},
	}
}

func newTasksCommand() *cli.Command {
	return &cli.Command{
		Name:  "tasks",
		Usage: "Show tracked tasks",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "kind", Aliases: []string{"k"}, Usage: "Only this kind (start, stop, download)"},
			&cli.BoolFlag{Name: "prune", Usage: "Remove finished tasks first"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return withApp(ctx, cmd, func(a *app) error {
				kind := task.Kind(cmd.String("kind"))
				if kind != "" {
					if _, ok := a.console.Registry().Lookup(kind); !ok {
						return fmt.Errorf("unknown kind %q", kind)
					}
				}
				if cmd.Bool("prune") {
					n, err := a.console.Prune(ctx, kind)
					if err != nil {
						return err
					}
					fmt.Fprintf(a.out, "pruned %d finished task(s)\n", n)
				}
				t := newTable("KIND", "INSTANCE", "JOB", "STATE", "STATUS")
				for _, e := range a.console.Registry().Entries() {
					if kind != "" && e.Kind != kind {
						continue
					}
					col := e.Tasks.Load()
					ids := make([]int64, 0, len(col))
					for id := range col {
						ids = append(ids, id)
					}
					sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
					for _, id := range ids {
						tk := col[id]
						t.Row(string(e.Kind), client.FormatID(id), tk.JobID, string(tk.State), tk.Status)
					}
				}
				fmt.Fprintln(a.out, t.Render())
				return nil
			})
		},
	}
}

// printNotifications 将通知中心的提示同步输出到命令行。
func printNotifications(a *app) {
	a.console.Notifications().Subscribe(func(n notify.Notification) {
		fmt.Fprintf(a.out, "[%s] %s\n", n.Level, n.Text)
	})
}

func newPollCommand() *cli.Command {
	return &cli.Command{
		Name:  "poll",
		Usage: "Poll open tasks in the foreground",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "once", Usage: "Run a single round and exit"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return withApp(ctx, cmd, func(a *app) error {
				printNotifications(a)
				if cmd.Bool("once") {
					<-a.console.Poller().Tick(ctx)
					a.console.Notifications().Drain(ctx)
					return nil
				}
				a.console.Start(ctx)
				<-ctx.Done()
				return nil
			})
		},
	}
}

func newLogsCommand() *cli.Command {
	return &cli.Command{
		Name:      "logs",
		Usage:     "Print, save or delete the server log of an instance",
		ArgsUsage: "<instance-id>",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "tail", Aliases: []string{"n"}, Value: client.DefaultLogTail, Usage: "Number of trailing lines to print"},
			&cli.StringFlag{Name: "save", Aliases: []string{"o"}, Usage: "Download the full log into this file"},
			&cli.BoolFlag{Name: "delete", Usage: "Delete the log on the server"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			id, err := instanceArg(cmd)
			if err != nil {
				return err
			}
			return withApp(ctx, cmd, func(a *app) error {
				switch {
				case cmd.Bool("delete"):
					msg, err := a.console.DeleteLogs(ctx, id)
					if err != nil {
						return errors.New(client.UserMessage(err))
					}
					fmt.Fprintln(a.out, msg)
				case cmd.String("save") != "":
					b, err := a.console.DownloadLogs(ctx, id)
					if err != nil {
						return errors.New(client.UserMessage(err))
					}
					if err := os.WriteFile(cmd.String("save"), b, 0o644); err != nil {
						return fmt.Errorf("save logs: %w", err)
					}
					fmt.Fprintf(a.out, "saved %d bytes to %s\n", len(b), cmd.String("save"))
				default:
					logs, err := a.console.Logs(ctx, id, int(cmd.Int("tail")))
					if err != nil {
						return errors.New(client.UserMessage(err))
					}
					fmt.Fprintln(a.out, logs)
				}
				return nil
			})
		},
	}
}

func newServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run polling, telemetry and the local JSON view API",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "listen", Aliases: []string{"l"}, Usage: "Override http.listen"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return withApp(ctx, cmd, func(a *app) error {
				addr := a.cfg.HTTP.Listen
				if l := cmd.String("listen"); l != "" {
					addr = l
				}
				a.console.Start(ctx)
				return httpapi.Serve(ctx, addr, httpapi.NewRouter(a.console))
			})
		},
	}
}

func newTUICommand() *cli.Command {
	return &cli.Command{
		Name:  "tui",
		Usage: "Interactive terminal view",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return withApp(ctx, cmd, func(a *app) error {
				a.console.Start(ctx)
				return tui.Run(ctx, a.console)
			})
		},
	}
}

func newConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Print the effective configuration",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := config.Load(cmd.String("config"))
			if err != nil {
				return err
			}
			b, err := config.Dump(cfg)
			if err != nil {
				return err
			}
			_, err = cmd.Root().Writer.Write(b)
			return err
		},
	}
}
