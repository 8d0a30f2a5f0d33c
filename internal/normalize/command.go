package normalize

import (
	"path"
	"strings"

	"threadstate/internal/types"
)

type segmentOp int

const (
	opStart segmentOp = iota
	opPipe
	opAnd
)

type commandSegment struct {
	op   segmentOp
	args []string
}

// SummarizeCommand turns a read/search/list shell command into explore
// entries. ok is false when any part of the command is not recognized; the
// caller then keeps the command verbatim.
func SummarizeCommand(command string) ([]types.ExploreEntry, bool) {
	segments, ok := splitCommand(command)
	if !ok {
		return nil, false
	}
	if inner, wrapped := unwrapShell(segments); wrapped {
		return SummarizeCommand(inner)
	}
	var entries []types.ExploreEntry
	for i, segment := range segments {
		args, ok := stripRedirects(segment.args)
		if !ok || len(args) == 0 {
			return nil, false
		}
		name := path.Base(args[0])
		if segment.op == opPipe && isPipeFilter(name, args[1:]) {
			continue
		}
		if name == "cd" {
			if i+1 >= len(segments) || segments[i+1].op != opAnd {
				return nil, false
			}
			continue
		}
		parsed, ok := summarizeSegment(name, args[1:])
		if !ok {
			return nil, false
		}
		entries = append(entries, parsed...)
	}
	entries = dedupeEntries(entries)
	if len(entries) == 0 {
		return nil, false
	}
	return entries, true
}

func summarizeSegment(name string, args []string) ([]types.ExploreEntry, bool) {
	switch name {
	case "cat":
		return readEntries(positional(args, nil))
	case "sed":
		if !hasFlag(args, "-n") {
			return nil, false
		}
		rest := positional(args, nil)
		if len(rest) < 2 {
			return nil, false
		}
		// first positional is the sed script
		return readEntries(rest[1:])
	case "nl":
		return readEntries(positional(args, nil))
	case "head", "tail":
		return readEntries(positional(args, headTailValueFlags))
	case "rg":
		return summarizeRipgrep(args)
	case "grep", "egrep":
		return summarizeGrep(args)
	case "ls":
		paths := positional(args, nil)
		if len(paths) == 0 {
			paths = []string{"."}
		}
		return listEntries(paths), true
	case "find":
		paths := findRoots(args)
		if len(paths) == 0 {
			paths = []string{"."}
		}
		return listEntries(paths), true
	default:
		return nil, false
	}
}

var (
	headTailValueFlags = map[string]bool{"-n": true, "-c": true}
	rgValueFlags       = map[string]bool{
		"-g": true, "--glob": true, "--iglob": true,
		"-t": true, "--type": true, "-T": true, "--type-not": true,
		"-m": true, "--max-count": true, "--max-depth": true,
		"-A": true, "-B": true, "-C": true, "--context": true,
		"-M": true, "--max-columns": true, "-e": true, "--regexp": true,
		"-f": true, "--file": true,
	}
	grepValueFlags = map[string]bool{
		"-e": true, "-f": true, "-m": true, "-A": true, "-B": true, "-C": true,
		"--include": true, "--exclude": true, "--exclude-dir": true,
	}
)

func summarizeRipgrep(args []string) ([]types.ExploreEntry, bool) {
	var (
		files   bool
		pattern string
	)
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--files":
			files = true
		case arg == "-e" || arg == "--regexp":
			if i+1 < len(args) {
				pattern = args[i+1]
			}
		case strings.HasPrefix(arg, "--regexp="):
			pattern = strings.TrimPrefix(arg, "--regexp=")
		}
	}
	rest := positional(args, rgValueFlags)
	if files {
		if len(rest) == 0 {
			rest = []string{"."}
		}
		return listEntries(rest), true
	}
	if pattern == "" {
		if len(rest) == 0 {
			return nil, false
		}
		pattern, rest = rest[0], rest[1:]
	}
	return []types.ExploreEntry{searchEntry(pattern, rest)}, true
}

func summarizeGrep(args []string) ([]types.ExploreEntry, bool) {
	pattern := ""
	for i := 0; i < len(args); i++ {
		if args[i] == "-e" && i+1 < len(args) {
			pattern = args[i+1]
		}
	}
	rest := positional(args, grepValueFlags)
	if pattern == "" {
		if len(rest) == 0 {
			return nil, false
		}
		pattern, rest = rest[0], rest[1:]
	}
	return []types.ExploreEntry{searchEntry(pattern, rest)}, true
}

func searchEntry(query string, paths []string) types.ExploreEntry {
	return types.ExploreEntry{
		Kind:   types.ExploreSearch,
		Label:  query,
		Detail: strings.Join(paths, " "),
	}
}

func readEntries(paths []string) ([]types.ExploreEntry, bool) {
	if len(paths) == 0 {
		return nil, false
	}
	out := make([]types.ExploreEntry, 0, len(paths))
	for _, p := range paths {
		out = append(out, types.ExploreEntry{Kind: types.ExploreRead, Label: p})
	}
	return out, true
}

func listEntries(paths []string) []types.ExploreEntry {
	out := make([]types.ExploreEntry, 0, len(paths))
	for _, p := range paths {
		out = append(out, types.ExploreEntry{Kind: types.ExploreList, Label: p})
	}
	return out
}

func findRoots(args []string) []string {
	var roots []string
	for _, arg := range args {
		if strings.HasPrefix(arg, "-") || arg == "(" || arg == "!" {
			break
		}
		roots = append(roots, arg)
	}
	return roots
}

// positional drops flags, and the value following any flag listed in
// valueFlags, returning the remaining arguments.
func positional(args []string, valueFlags map[string]bool) []string {
	var out []string
	afterDashes := false
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if afterDashes {
			out = append(out, arg)
			continue
		}
		if arg == "--" {
			afterDashes = true
			continue
		}
		if strings.HasPrefix(arg, "-") && arg != "-" {
			if valueFlags[arg] {
				i++
			}
			continue
		}
		out = append(out, arg)
	}
	return out
}

func hasFlag(args []string, flag string) bool {
	for _, arg := range args {
		if arg == flag {
			return true
		}
	}
	return false
}

func isPipeFilter(name string, args []string) bool {
	switch name {
	case "head", "tail", "wc", "sort", "uniq", "cut", "tr":
		return len(positional(args, headTailValueFlags)) == 0
	case "sed":
		return len(positional(args, nil)) <= 1
	case "nl":
		return len(positional(args, nil)) == 0
	default:
		return false
	}
}

// stripRedirects drops stderr/null redirections. Any redirect that writes
// somewhere else disqualifies the segment.
func stripRedirects(args []string) ([]string, bool) {
	out := make([]string, 0, len(args))
	for _, arg := range args {
		switch arg {
		case "2>/dev/null", "2>&1", ">/dev/null":
			continue
		}
		if strings.HasPrefix(arg, ">") || strings.HasPrefix(arg, "1>") || strings.HasPrefix(arg, "2>") {
			return nil, false
		}
		out = append(out, arg)
	}
	return out, true
}

func dedupeEntries(entries []types.ExploreEntry) []types.ExploreEntry {
	if len(entries) < 2 {
		return entries
	}
	seen := make(map[string]struct{}, len(entries))
	out := make([]types.ExploreEntry, 0, len(entries))
	for _, entry := range entries {
		key := entryKey(entry)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, entry)
	}
	return out
}

func entryKey(entry types.ExploreEntry) string {
	return string(entry.Kind) + "\x00" + entry.Label
}

// unwrapShell detects `/bin/zsh -lc '<script>'` style invocations.
func unwrapShell(segments []commandSegment) (string, bool) {
	if len(segments) != 1 || len(segments[0].args) != 3 {
		return "", false
	}
	args := segments[0].args
	switch path.Base(args[0]) {
	case "sh", "bash", "zsh":
	default:
		return "", false
	}
	switch args[1] {
	case "-c", "-lc", "-lic", "-ic":
		return args[2], true
	default:
		return "", false
	}
}

// splitCommand tokenizes a shell command line, splitting segments only on
// unquoted `|` and `&&`. Any other control operator rejects the command.
func splitCommand(command string) ([]commandSegment, bool) {
	command = strings.TrimSpace(command)
	if command == "" {
		return nil, false
	}
	var (
		segments []commandSegment
		current  = commandSegment{op: opStart}
		token    strings.Builder
		inToken  bool
		quote    rune
	)
	flushToken := func() {
		if inToken {
			current.args = append(current.args, token.String())
			token.Reset()
			inToken = false
		}
	}
	flushSegment := func(next segmentOp) bool {
		flushToken()
		if len(current.args) == 0 {
			return false
		}
		segments = append(segments, current)
		current = commandSegment{op: next}
		return true
	}
	runes := []rune(command)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case quote == '\'':
			if r == '\'' {
				quote = 0
				continue
			}
			token.WriteRune(r)
		case quote == '"':
			if r == '"' {
				quote = 0
				continue
			}
			if r == '\\' && i+1 < len(runes) && strings.ContainsRune("\"\\$`", runes[i+1]) {
				i++
				r = runes[i]
			}
			token.WriteRune(r)
		case r == '\'' || r == '"':
			quote = r
			inToken = true
		case r == '\\':
			if i+1 < len(runes) {
				i++
				token.WriteRune(runes[i])
				inToken = true
			}
		case r == ' ' || r == '\t' || r == '\n':
			flushToken()
		case r == '|':
			if i+1 < len(runes) && runes[i+1] == '|' {
				return nil, false
			}
			if !flushSegment(opPipe) {
				return nil, false
			}
		case r == '&':
			if i+1 >= len(runes) || runes[i+1] != '&' {
				if inToken && strings.HasSuffix(token.String(), ">") {
					token.WriteRune(r)
					continue
				}
				return nil, false
			}
			i++
			if !flushSegment(opAnd) {
				return nil, false
			}
		case r == ';' || r == '`' || r == '(' || r == ')' || r == '<':
			return nil, false
		case r == '$' && i+1 < len(runes) && runes[i+1] == '(':
			return nil, false
		default:
			token.WriteRune(r)
			inToken = true
		}
	}
	if quote != 0 {
		return nil, false
	}
	if !flushSegment(opStart) {
		return nil, false
	}
	return segments, true
}
