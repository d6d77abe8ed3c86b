// ABOUTME: Help display for the kanban CLI with subcommands, global flags, examples, and environment status.
// ABOUTME: Provides printHelp for usage output and envStatus for KANBAN_* variable detection.
package main

import (
	"fmt"
	"io"
	"os"
)

// envKeys are the settings read from the environment, in display order.
var envKeys = []string{
	"KANBAN_HOME",
	"KANBAN_CONFIG",
	"KANBAN_BACKEND",
	"KANBAN_VARIANT",
	"KANBAN_DELETE_SCOPE",
	"KANBAN_AUDIT_TOGGLES",
	"KANBAN_BACKLOG_LIMIT",
	"KANBAN_IN_PROGRESS_LIMIT",
	"KANBAN_MIN_ITEMS",
	"KANBAN_MAX_ITEMS",
	"KANBAN_BIND",
	"KANBAN_ALLOW_REMOTE",
	"KANBAN_AUTH_TOKEN",
}

// printHelp writes usage, subcommands, flags, examples, and environment status to w.
func printHelp(w io.Writer, ver string) {
	fmt.Fprintf(w, "kanban %s: a card board with a lifecycle state machine\n", ver)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  kanban [global flags] <command> [flags] [args]")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Boards:")
	fmt.Fprintln(w, "  boards                               List boards")
	fmt.Fprintln(w, "  new [-variant checklist] <title>     Create a board")
	fmt.Fprintln(w, "  list [-q text] <board>               Show the columns, optionally filtered by title")
	fmt.Fprintln(w, "  cards [-column c] [-q text] <board>  Query the card index by column and title")
	fmt.Fprintln(w, "  clear -yes <board>                   Remove every card and reset ids")
	fmt.Fprintln(w, "  export [-format md|yaml|html|all] <board>")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Cards:")
	fmt.Fprintln(w, "  add -title T -desc D -deadline WHEN [-item I]... <board>")
	fmt.Fprintln(w, "  edit [-title T] [-desc D] [-deadline WHEN] [-items a,b,c] <board> <id>")
	fmt.Fprintln(w, "  move <board> <id> <column>           Move forward (1-4 or a column name)")
	fmt.Fprintln(w, "  back <board> <id> <reason...>        Return from Testing/Review with a reason")
	fmt.Fprintln(w, "  toggle <board> <id> <item>           Flip checklist item (1-based)")
	fmt.Fprintln(w, "  delete <board> <id>                  Delete a card")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Interactive:")
	fmt.Fprintln(w, "  tui <board>                          Terminal board")
	fmt.Fprintln(w, "  serve [-bind addr]                   HTTP JSON API")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Global Flags:")
	fmt.Fprintln(w, "  -home <dir>           Data directory (default: $XDG_DATA_HOME/kanban)")
	fmt.Fprintln(w, "  -backend <name>       Snapshot backend: file or sqlite")
	fmt.Fprintln(w, "  -version              Print version and exit")
	fmt.Fprintln(w, "  -help                 Show this help")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "A <board> is a board id, a unique id prefix, or a title.")
	fmt.Fprintln(w, "WHEN is RFC 3339 or \"YYYY-MM-DD HH:MM\" in local time.")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Examples:")
	fmt.Fprintln(w, "  kanban new -variant checklist Release")
	fmt.Fprintln(w, "  kanban add -title \"Tag build\" -desc \"v1.2\" -deadline \"2030-01-02 09:00\" -item tag -item build -item notes Release")
	fmt.Fprintln(w, "  kanban toggle Release 1 2")
	fmt.Fprintln(w, "  kanban back Release 1 tests are flaky")
	fmt.Fprintln(w, "  kanban -backend sqlite serve -bind 127.0.0.1:8080")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Environment:")
	for _, key := range envKeys {
		fmt.Fprintf(w, "  %-26s %s\n", key, envStatus(key))
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  Settings also load from kanban.yaml or kanban.toml in $XDG_CONFIG_HOME/kanban,")
	fmt.Fprintln(w, "  and from a .env file in the working directory.")
}

// envStatus returns "[set]" if the named environment variable is non-empty,
// or "[not set]" otherwise.
func envStatus(key string) string {
	if os.Getenv(key) != "" {
		return "[set]"
	}
	return "[not set]"
}
