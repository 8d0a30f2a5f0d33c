package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"threadstate/internal/aggregate"
	"threadstate/internal/engine"
	"threadstate/internal/threads"
	"threadstate/internal/view"
)

const (
	formatTable = "table"
	formatJSON  = "json"
	formatState = "state"

	tableNameWidth = 40
)

type workspaceOutput struct {
	ID             string                `json:"id"`
	ActiveThreadID string                `json:"active_thread_id,omitempty"`
	Unread         int                   `json:"unread"`
	Rows           []aggregate.ThreadRow `json:"rows"`
}

type notifyOutput struct {
	WorkspaceID string `json:"workspace_id"`
	ThreadID    string `json:"thread_id"`
	ThreadName  string `json:"thread_name,omitempty"`
	Trigger     string `json:"trigger"`
	Message     string `json:"message,omitempty"`
}

type threadListOutput struct {
	RunID         string            `json:"run_id,omitempty"`
	Badge         int               `json:"badge"`
	Workspaces    []workspaceOutput `json:"workspaces"`
	Notifications []notifyOutput    `json:"notifications,omitempty"`
}

func resolveOutputFormat(raw string, allowed ...string) (string, error) {
	format := strings.ToLower(strings.TrimSpace(raw))
	if format == "" {
		return allowed[0], nil
	}
	for _, candidate := range allowed {
		if format == candidate {
			return format, nil
		}
	}
	return "", fmt.Errorf("unsupported format %q (want %s)", raw, strings.Join(allowed, "|"))
}

func selectWorkspaces(s *threads.State, only []string) []string {
	all := view.Workspaces(s)
	if len(only) == 0 {
		return all
	}
	wanted := make(map[string]struct{}, len(only))
	for _, id := range only {
		wanted[strings.TrimSpace(id)] = struct{}{}
	}
	out := make([]string, 0, len(only))
	for _, id := range all {
		if _, ok := wanted[id]; ok {
			out = append(out, id)
		}
	}
	return out
}

func buildThreadList(s *threads.State, key aggregate.SortKey, workspaces []string) []workspaceOutput {
	out := make([]workspaceOutput, 0, len(workspaces))
	for _, id := range workspaces {
		out = append(out, workspaceOutput{
			ID:             id,
			ActiveThreadID: s.ActiveThreadID(id),
			Unread:         aggregate.UnreadCount(s, id),
			Rows:           aggregate.ThreadRows(s, id, key),
		})
	}
	return out
}

func notifyOutputs(cmds []engine.Command) []notifyOutput {
	var out []notifyOutput
	for _, notice := range notices(cmds) {
		out = append(out, notifyOutput{
			WorkspaceID: notice.WorkspaceID,
			ThreadID:    notice.ThreadID,
			ThreadName:  notice.ThreadName,
			Trigger:     string(notice.Trigger),
			Message:     notice.Message,
		})
	}
	return out
}

func printThreadTable(out io.Writer, s *threads.State, workspaces []workspaceOutput) {
	writer := tabwriter.NewWriter(out, 0, 8, 2, ' ', 0)
	fmt.Fprintln(writer, "WORKSPACE\tTHREAD\tNAME\tATTENTION\tTURN\tPHASE\tITEMS")
	for _, workspace := range workspaces {
		for _, row := range workspace.Rows {
			status := s.Status(row.Thread.ID)
			id := row.Thread.ID
			if row.Active {
				id = "*" + id
			}
			name := strings.Repeat("  ", row.Depth) + view.FitWidth(row.Thread.Name, tableNameWidth)
			fmt.Fprintf(writer, "%s\t%s\t%s\t%s\t%s\t%s\t%d\n",
				workspace.ID,
				id,
				name,
				row.Attention,
				dash(string(status.TurnStatus)),
				dash(string(status.Phase)),
				len(s.Items(row.Thread.ID)),
			)
		}
	}
	_ = writer.Flush()
}

func printNotifications(out io.Writer, list []notifyOutput) {
	for _, notice := range list {
		fmt.Fprintf(out, "notify %s %s/%s %q %s\n", notice.Trigger, notice.WorkspaceID, notice.ThreadID, notice.ThreadName, notice.Message)
	}
}

func writeJSON(out io.Writer, payload any) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(payload)
}

func dash(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}
