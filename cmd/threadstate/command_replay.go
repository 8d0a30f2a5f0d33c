package main

import (
	"context"
	"flag"

	"threadstate/internal/aggregate"
)

type ReplayCommand struct {
	wiring commandWiring
}

func NewReplayCommand(wiring commandWiring) *ReplayCommand {
	return &ReplayCommand{wiring: wiring}
}

func (c *ReplayCommand) Run(args []string) error {
	fs := flag.NewFlagSet("replay", flag.ContinueOnError)
	fs.SetOutput(c.wiring.stderr)
	input := fs.String("input", "", "JSONL event file (- for stdin); defaults to the stored journal")
	workspace := fs.String("workspace", "default", "workspace for events that carry none")
	format := fs.String("format", formatTable, "output format: table|json|state")
	sortKey := fs.String("sort", "", "thread order: activity|listed (defaults to config)")
	save := fs.Bool("save", false, "append the input events to the stored journal")
	showNotify := fs.Bool("notify", false, "also print the notifications the events raised")
	var only stringList
	fs.Var(&only, "only", "limit output to a workspace (repeatable)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	resolvedFormat, err := resolveOutputFormat(*format, formatTable, formatJSON, formatState)
	if err != nil {
		return err
	}
	cfg, err := c.wiring.loadConfig()
	if err != nil {
		return err
	}
	result, err := foldEvents(context.Background(), c.wiring, cfg, foldOptions{
		input:     *input,
		workspace: *workspace,
		save:      *save && *input != "",
	})
	if err != nil {
		return err
	}

	snapshot := result.engine.Snapshot()
	if resolvedFormat == formatState {
		return writeJSON(c.wiring.stdout, snapshot)
	}
	key := aggregate.ParseSortKey(cfg.SortKey())
	if *sortKey != "" {
		key = aggregate.ParseSortKey(*sortKey)
	}
	workspaces := buildThreadList(snapshot, key, selectWorkspaces(snapshot, only))
	notifications := notifyOutputs(result.commands)
	if resolvedFormat == formatJSON {
		payload := threadListOutput{
			RunID:      result.engine.RunID(),
			Badge:      aggregate.BadgeCount(snapshot, aggregate.HasParent),
			Workspaces: workspaces,
		}
		if *showNotify {
			payload.Notifications = notifications
		}
		return writeJSON(c.wiring.stdout, payload)
	}
	printThreadTable(c.wiring.stdout, snapshot, workspaces)
	writeLine(c.wiring.stdout, "badge: %d", aggregate.BadgeCount(snapshot, aggregate.HasParent))
	if *showNotify {
		printNotifications(c.wiring.stdout, notifications)
	}
	return nil
}
