package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"threadstate/internal/config"
	"threadstate/internal/store"
)

type JournalCommand struct {
	wiring commandWiring
}

func NewJournalCommand(wiring commandWiring) *JournalCommand {
	return &JournalCommand{wiring: wiring}
}

func (c *JournalCommand) Run(args []string) error {
	fs := flag.NewFlagSet("journal", flag.ContinueOnError)
	fs.SetOutput(c.wiring.stderr)
	after := fs.Uint64("after", 0, "only list entries after this sequence")
	limit := fs.Int("limit", 0, "list at most this many entries (0 for all)")
	format := fs.String("format", formatTable, "output format: table|json")
	truncate := fs.Bool("truncate", false, "delete every stored entry first")
	seed := fs.Bool("seed", false, "import the JSONL journal and view state files when the store is empty")
	importPath := fs.String("import", "", "append entries from a JSONL event file (- for stdin)")
	workspace := fs.String("workspace", "default", "workspace for imported events that carry none")
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
	repo, err := c.wiring.openRepository(cfg)
	if err != nil {
		return fmt.Errorf("open repository: %w", err)
	}
	defer repo.Close()

	ctx := context.Background()
	journal := repo.Journal()
	if *truncate {
		if err := journal.Truncate(ctx); err != nil {
			return fmt.Errorf("truncate journal: %w", err)
		}
	}
	if *seed {
		if err := seedFromFiles(ctx, repo); err != nil {
			return fmt.Errorf("seed journal: %w", err)
		}
	}
	if strings.TrimSpace(*importPath) != "" {
		count, err := c.importEntries(ctx, journal, *importPath, *workspace)
		if err != nil {
			return fmt.Errorf("import journal: %w", err)
		}
		writeLine(c.wiring.stderr, "imported %d entries", count)
	}

	var entries []store.JournalEntry
	err = journal.Replay(ctx, *after, func(entry store.JournalEntry) error {
		if *limit > 0 && len(entries) >= *limit {
			return errJournalLimit
		}
		entries = append(entries, entry)
		return nil
	})
	if err != nil && !errors.Is(err, errJournalLimit) {
		return err
	}
	if resolvedFormat == formatJSON {
		if entries == nil {
			entries = []store.JournalEntry{}
		}
		return writeJSON(c.wiring.stdout, entries)
	}
	printJournal(c.wiring.stdout, entries)
	return nil
}

var errJournalLimit = errors.New("journal limit reached")

func (c *JournalCommand) importEntries(ctx context.Context, journal store.JournalStore, path, workspace string) (int, error) {
	reader, closeInput, err := openInput(c.wiring.stdin, path)
	if err != nil {
		return 0, err
	}
	defer closeInput()
	count := 0
	err = store.ScanEntries(ctx, reader, func(entry store.JournalEntry) error {
		env := envelopeFor(entry, workspace)
		entry.Seq = 0
		entry.WorkspaceID = env.WorkspaceID
		if _, err := journal.Append(ctx, entry); err != nil {
			return err
		}
		count++
		return nil
	})
	return count, err
}

func seedFromFiles(ctx context.Context, repo store.Repository) error {
	journalPath, err := config.JournalPath()
	if err != nil {
		return err
	}
	viewStatePath, err := config.ViewStatePath()
	if err != nil {
		return err
	}
	return store.SeedRepositoryFromFiles(ctx, repo, store.RepositoryPaths{
		JournalPath:   journalPath,
		ViewStatePath: viewStatePath,
	})
}

func printJournal(out io.Writer, entries []store.JournalEntry) {
	writer := tabwriter.NewWriter(out, 0, 8, 2, ' ', 0)
	fmt.Fprintln(writer, "SEQ\tRECORDED\tWORKSPACE\tMETHOD\tRUN")
	for _, entry := range entries {
		recorded := "-"
		if !entry.RecordedAt.IsZero() {
			recorded = entry.RecordedAt.UTC().Format(time.RFC3339)
		}
		fmt.Fprintf(writer, "%d\t%s\t%s\t%s\t%s\n", entry.Seq, recorded, dash(entry.WorkspaceID), entry.Event.Method, dash(entry.RunID))
	}
	_ = writer.Flush()
}
