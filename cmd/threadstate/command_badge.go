package main

import (
	"context"
	"flag"

	"threadstate/internal/aggregate"
)

type BadgeCommand struct {
	wiring commandWiring
}

type badgeOutput struct {
	Badge      int                    `json:"badge"`
	Workspaces []badgeWorkspaceOutput `json:"workspaces"`
}

type badgeWorkspaceOutput struct {
	ID     string `json:"id"`
	Unread int    `json:"unread"`
}

func NewBadgeCommand(wiring commandWiring) *BadgeCommand {
	return &BadgeCommand{wiring: wiring}
}

func (c *BadgeCommand) Run(args []string) error {
	fs := flag.NewFlagSet("badge", flag.ContinueOnError)
	fs.SetOutput(c.wiring.stderr)
	input := fs.String("input", "", "JSONL event file (- for stdin); defaults to the stored journal")
	workspace := fs.String("workspace", "default", "workspace for events that carry none")
	format := fs.String("format", formatTable, "output format: table|json")
	if err := fs.Parse(args); err != nil {
		return err
	}
	resolvedFormat, err := resolveOutputFormat(*format, formatTable, formatJSON)
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
	})
	if err != nil {
		return err
	}
	snapshot := result.engine.Snapshot()
	out := badgeOutput{Badge: aggregate.BadgeCount(snapshot, aggregate.HasParent)}
	for _, id := range selectWorkspaces(snapshot, nil) {
		out.Workspaces = append(out.Workspaces, badgeWorkspaceOutput{
			ID:     id,
			Unread: aggregate.UnreadCount(snapshot, id),
		})
	}
	if resolvedFormat == formatJSON {
		return writeJSON(c.wiring.stdout, out)
	}
	writeLine(c.wiring.stdout, "badge: %d", out.Badge)
	for _, workspace := range out.Workspaces {
		writeLine(c.wiring.stdout, "%s unread=%d", workspace.ID, workspace.Unread)
	}
	return nil
}
