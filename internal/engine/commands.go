package engine

import "threadstate/internal/types"

// Command is a side effect the host should perform after a state change.
type Command interface {
	command()
}

// CommandSetBadge asks the host to show Count on its dock or tray badge.
type CommandSetBadge struct {
	Count int
}

// CommandNotify asks the host to tell the user about a thread they are not
// looking at.
type CommandNotify struct {
	WorkspaceID string
	ThreadID    string
	ThreadName  string
	Trigger     types.NotificationTrigger
	Message     string
}

func (CommandSetBadge) command() {}
func (CommandNotify) command()   {}
