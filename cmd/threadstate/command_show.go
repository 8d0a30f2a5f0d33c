package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strings"

	"threadstate/internal/threads"
	"threadstate/internal/view"
)

const defaultShowWidth = 100

type ShowCommand struct {
	wiring commandWiring
}

func NewShowCommand(wiring commandWiring) *ShowCommand {
	return &ShowCommand{wiring: wiring}
}

func (c *ShowCommand) Run(args []string) error {
	fs := flag.NewFlagSet("show", flag.ContinueOnError)
	fs.SetOutput(c.wiring.stderr)
	input := fs.String("input", "", "JSONL event file (- for stdin); defaults to the stored journal")
	workspace := fs.String("workspace", "default", "workspace for events that carry none")
	threadID := fs.String("thread", "", "thread to show; defaults to the active thread")
	raw := fs.Bool("raw", false, "print markdown instead of rendering it")
	width := fs.Int("width", defaultShowWidth, "render width")
	light := fs.Bool("light", false, "render for a light terminal background")
	copyOut := fs.Bool("copy", false, "copy the transcript markdown to the clipboard")
	if err := fs.Parse(args); err != nil {
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
	id, err := resolveThread(snapshot, *threadID, *workspace)
	if err != nil {
		return err
	}

	transcript := view.Transcript(snapshot.Items(id))
	if *copyOut {
		method, err := c.wiring.copyText(transcript)
		if err != nil {
			return fmt.Errorf("copy transcript: %w", err)
		}
		writeLine(c.wiring.stderr, "copied transcript of %s (%s)", id, method)
	}
	if strings.TrimSpace(transcript) == "" {
		writeLine(c.wiring.stdout, "(no items)")
		return nil
	}
	if *raw {
		writeLine(c.wiring.stdout, "%s", transcript)
		return nil
	}
	writeLine(c.wiring.stdout, "%s", view.RenderMarkdown(transcript, *width, !*light))
	return nil
}

// resolveThread picks the explicit thread, else the active thread of the
// preferred workspace, else the active thread of the first workspace.
func resolveThread(s *threads.State, threadID, preferredWorkspace string) (string, error) {
	threadID = strings.TrimSpace(threadID)
	if threadID != "" {
		if _, ok := s.WorkspaceOf(threadID); !ok && len(s.Items(threadID)) == 0 {
			return "", fmt.Errorf("unknown thread %q", threadID)
		}
		return threadID, nil
	}
	if id := s.ActiveThreadID(strings.TrimSpace(preferredWorkspace)); id != "" {
		return id, nil
	}
	for _, workspaceID := range view.Workspaces(s) {
		if id := s.ActiveThreadID(workspaceID); id != "" {
			return id, nil
		}
	}
	return "", errors.New("no threads to show")
}
