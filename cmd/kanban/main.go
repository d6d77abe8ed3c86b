// ABOUTME: CLI entrypoint for kanban: board and card subcommands, the terminal board, and the HTTP server.
// ABOUTME: Every mutation goes through the board actor so the journal and index stay in step with the snapshot.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/2389-research/kanban/board/core"
	"github.com/2389-research/kanban/board/export"
	"github.com/2389-research/kanban/board/server"
	"github.com/2389-research/kanban/board/store"
	"github.com/2389-research/kanban/tui"
	"github.com/2389-research/kanban/web"
)

var version = "dev"

func main() {
	if err := server.LoadDotEnv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// cli carries the resolved configuration and output streams for one invocation.
type cli struct {
	cfg    *server.Config
	stdout io.Writer
	stderr io.Writer
}

// commands maps subcommand names to their handlers.
var commands = map[string]func(c *cli, args []string) int{
	"boards": (*cli).cmdBoards,
	"new":    (*cli).cmdNew,
	"list":   (*cli).cmdList,
	"cards":  (*cli).cmdCards,
	"add":    (*cli).cmdAdd,
	"edit":   (*cli).cmdEdit,
	"move":   (*cli).cmdMove,
	"back":   (*cli).cmdBack,
	"toggle": (*cli).cmdToggle,
	"delete": (*cli).cmdDelete,
	"clear":  (*cli).cmdClear,
	"export": (*cli).cmdExport,
	"tui":    (*cli).cmdTUI,
	"serve":  (*cli).cmdServe,
}

// run parses global flags, loads configuration, and dispatches the subcommand.
// Returns an exit code: 0 for success, 1 for failure, 2 for usage errors.
func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("kanban", flag.ContinueOnError)
	fs.SetOutput(stderr)
	home := fs.String("home", "", "Data directory (default: $XDG_DATA_HOME/kanban)")
	backend := fs.String("backend", "", "Snapshot backend: file or sqlite")
	showVersion := fs.Bool("version", false, "Print version and exit")
	fs.Usage = func() { printHelp(stderr, version) }

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if *showVersion {
		fmt.Fprintf(stdout, "kanban %s\n", version)
		return 0
	}
	if fs.NArg() == 0 {
		printHelp(stdout, version)
		return 0
	}

	name := fs.Arg(0)
	handler, ok := commands[name]
	if !ok {
		fmt.Fprintf(stderr, "error: unknown command %q\n", name)
		printHelp(stderr, version)
		return 2
	}

	cfg, err := loadConfig(*home, *backend)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	return handler(&cli{cfg: cfg, stdout: stdout, stderr: stderr}, fs.Args()[1:])
}

// loadConfig resolves the XDG defaults, then lets the -home and -backend flags win.
func loadConfig(home, backend string) (*server.Config, error) {
	dataDir, err := defaultDataDir()
	if err != nil {
		return nil, err
	}
	configDir, err := defaultConfigDir()
	if err != nil {
		return nil, err
	}
	cfg, err := server.LoadConfig(dataDir, configDir)
	if err != nil {
		return nil, err
	}
	if err := cfg.Override(home, backend, ""); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *cli) fail(err error) int {
	fmt.Fprintf(c.stderr, "error: %v\n", err)
	return 1
}

func (c *cli) usage(format string, args ...any) int {
	fmt.Fprintf(c.stderr, "usage: kanban "+format+"\n", args...)
	return 2
}

// newFlagSet returns a subcommand flag set that reports errors to stderr.
func (c *cli) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	return fs
}

// withState opens the app state, runs fn, and flushes every board on return.
func (c *cli) withState(fn func(state *server.AppState) int) int {
	state, err := server.NewAppState(*c.cfg)
	if err != nil {
		return c.fail(err)
	}
	defer func() {
		if err := state.Shutdown(); err != nil {
			fmt.Fprintf(c.stderr, "warning: %v\n", err)
		}
	}()
	return fn(state)
}

// withBoard resolves ref to an open board and runs fn.
func (c *cli) withBoard(ref string, fn func(h *server.BoardHandle) int) int {
	return c.withState(func(state *server.AppState) int {
		info, err := state.Manager.FindBoard(ref)
		if err != nil {
			return c.fail(err)
		}
		h, err := state.OpenBoard(info.BoardID)
		if err != nil {
			return c.fail(err)
		}
		return fn(h)
	})
}

// send runs cmd and prints the resulting events.
func (c *cli) send(h *server.BoardHandle, cmd core.Command) int {
	events, err := h.Actor.SendCommand(cmd)
	for _, ev := range events {
		fmt.Fprintln(c.stdout, formatEvent(ev))
	}
	if err != nil {
		return c.fail(err)
	}
	if len(events) == 0 {
		fmt.Fprintln(c.stdout, "no change")
	}
	return 0
}

func formatEvent(ev core.Event) string {
	switch p := ev.Payload.(type) {
	case core.CardCreatedPayload:
		return fmt.Sprintf("created #%d %q", p.Card.ID, p.Card.Title)
	case core.CardEditedPayload:
		return fmt.Sprintf("edited #%d", p.Card.ID)
	case core.CardDeletedPayload:
		return fmt.Sprintf("deleted #%d", p.CardID)
	case core.CardMovedPayload:
		s := fmt.Sprintf("moved #%d %s -> %s", p.CardID, p.From.Label(), p.To.Label())
		if p.Status != "" {
			s += fmt.Sprintf(" (%s)", p.Status)
		}
		return s
	case core.CardReturnedPayload:
		return fmt.Sprintf("returned #%d (%s)", p.CardID, p.Status)
	case core.ItemToggledPayload:
		state := "open"
		if p.Completed {
			state = "done"
		}
		return fmt.Sprintf("toggled #%d item %d: %s (%.0f%%)", p.CardID, p.Index+1, state, p.Ratio)
	case core.BoardClearedPayload:
		return "cleared board"
	}
	return ev.Payload.EventPayloadType()
}

func parseCardID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid card id %q", s)
	}
	return id, nil
}

func parseDeadline(s string) (time.Time, error) {
	t, err := core.ParseDeadline(s, time.Local)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// stringList is a repeatable string flag.
type stringList []string

func (l *stringList) String() string     { return strings.Join(*l, ",") }
func (l *stringList) Set(v string) error { *l = append(*l, v); return nil }

func (c *cli) cmdBoards(args []string) int {
	return c.withState(func(state *server.AppState) int {
		boards, err := state.Manager.ListBoards()
		if err != nil {
			return c.fail(err)
		}
		if len(boards) == 0 {
			fmt.Fprintln(c.stdout, "no boards; create one with: kanban new <title>")
			return 0
		}
		tw := tabwriter.NewWriter(c.stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tTITLE\tVARIANT\tCREATED")
		for _, b := range boards {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", b.BoardID, b.Title, b.Rules.Variant, b.CreatedAt.Local().Format("2006-01-02 15:04"))
		}
		_ = tw.Flush()
		return 0
	})
}

func (c *cli) cmdNew(args []string) int {
	fs := c.newFlagSet("new")
	variant := fs.String("variant", "", "Transition variant: deadline or checklist")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	title := strings.Join(fs.Args(), " ")
	if strings.TrimSpace(title) == "" {
		return c.usage("new [-variant checklist] <title>")
	}

	rules := c.cfg.Rules
	if *variant != "" {
		v, err := core.ParseVariant(*variant)
		if err != nil {
			return c.fail(err)
		}
		if v != rules.Variant {
			rules.Variant = v
			rules.DeleteScope = server.DefaultDeleteScope(v)
		}
	}
	return c.withState(func(state *server.AppState) int {
		h, err := state.CreateBoard(title, &rules)
		if err != nil {
			return c.fail(err)
		}
		fmt.Fprintf(c.stdout, "created board %s %q (%s)\n", h.Info.BoardID, h.Info.Title, h.Info.Rules.Variant)
		return 0
	})
}

func (c *cli) cmdList(args []string) int {
	fs := c.newFlagSet("list")
	query := fs.String("q", "", "Only show cards whose title contains this text")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		return c.usage("list [-q text] <board>")
	}
	return c.withBoard(fs.Arg(0), func(h *server.BoardHandle) int {
		var snap export.Snapshot
		h.Actor.ReadBoard(func(b *core.Board) {
			snap = export.FromBoard(h.Info, b, *query, time.Now())
		})
		fmt.Fprint(c.stdout, export.ExportMarkdown(snap))
		return 0
	})
}

// cmdCards reads the board's SQLite index rather than the in-memory board.
func (c *cli) cmdCards(args []string) int {
	fs := c.newFlagSet("cards")
	column := fs.String("column", "", "Only show cards in this column (1-4 or a name)")
	query := fs.String("q", "", "Only show cards whose title contains this text")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		return c.usage("cards [-column c] [-q text] <board>")
	}
	var col core.Column
	if *column != "" {
		parsed, err := core.ParseColumn(*column)
		if err != nil {
			return c.fail(err)
		}
		col = parsed
	}
	return c.withBoard(fs.Arg(0), func(h *server.BoardHandle) int {
		rows, err := h.Store.Index.ListCards(col, *query)
		if err != nil {
			return c.fail(err)
		}
		occ, err := h.Store.Index.CountByColumn()
		if err != nil {
			return c.fail(err)
		}
		tw := tabwriter.NewWriter(c.stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tCOLUMN\tTITLE\tITEMS\tSTATUS")
		for _, r := range rows {
			fmt.Fprintf(tw, "#%d\t%s\t%s\t%d/%d\t%s\n", r.CardID, r.Column.Label(), r.Title, r.ItemsDone, r.ItemCount, r.Status)
		}
		_ = tw.Flush()
		counts := make([]string, 0, len(core.AllColumns))
		for _, col := range core.AllColumns {
			counts = append(counts, fmt.Sprintf("%s %d", col.Label(), occ.Count(col)))
		}
		fmt.Fprintf(c.stdout, "%d shown; %s\n", len(rows), strings.Join(counts, ", "))
		return 0
	})
}

func (c *cli) cmdAdd(args []string) int {
	fs := c.newFlagSet("add")
	title := fs.String("title", "", "Card title")
	desc := fs.String("desc", "", "Card description")
	deadline := fs.String("deadline", "", "Deadline (RFC 3339 or YYYY-MM-DD HH:MM)")
	var items stringList
	fs.Var(&items, "item", "Checklist item (repeatable)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		return c.usage("add -title T -desc D -deadline WHEN [-item I]... <board>")
	}
	when, err := parseDeadline(*deadline)
	if err != nil {
		return c.fail(err)
	}
	return c.withBoard(fs.Arg(0), func(h *server.BoardHandle) int {
		return c.send(h, core.CreateCardCommand{
			Title:       *title,
			Description: *desc,
			Deadline:    when,
			Items:       items,
		})
	})
}

func (c *cli) cmdEdit(args []string) int {
	fs := c.newFlagSet("edit")
	title := fs.String("title", "", "New title")
	desc := fs.String("desc", "", "New description")
	deadline := fs.String("deadline", "", "New deadline")
	items := fs.String("items", "", "Comma-separated checklist item texts")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 2 {
		return c.usage("edit [-title T] [-desc D] [-deadline WHEN] [-items a,b,c] <board> <id>")
	}
	id, err := parseCardID(fs.Arg(1))
	if err != nil {
		return c.fail(err)
	}

	cmd := core.EditCardCommand{CardID: id}
	var parseErr error
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "title":
			cmd.Title = title
		case "desc":
			cmd.Description = desc
		case "deadline":
			when, err := parseDeadline(*deadline)
			if err != nil {
				parseErr = err
				return
			}
			cmd.Deadline = &when
		case "items":
			var list []string
			for _, it := range strings.Split(*items, ",") {
				list = append(list, strings.TrimSpace(it))
			}
			cmd.Items = &list
		}
	})
	if parseErr != nil {
		return c.fail(parseErr)
	}
	if cmd.Patch().Empty() {
		fmt.Fprintln(c.stderr, "nothing to change; edit cancelled")
		return 0
	}
	return c.withBoard(fs.Arg(0), func(h *server.BoardHandle) int {
		return c.send(h, cmd)
	})
}

func (c *cli) cmdMove(args []string) int {
	if len(args) != 3 {
		return c.usage("move <board> <id> <column>")
	}
	id, err := parseCardID(args[1])
	if err != nil {
		return c.fail(err)
	}
	col, err := core.ParseColumn(args[2])
	if err != nil {
		return c.fail(err)
	}
	return c.withBoard(args[0], func(h *server.BoardHandle) int {
		return c.send(h, core.MoveCardCommand{CardID: id, Column: col})
	})
}

func (c *cli) cmdBack(args []string) int {
	if len(args) < 2 {
		return c.usage("back <board> <id> <reason...>")
	}
	id, err := parseCardID(args[1])
	if err != nil {
		return c.fail(err)
	}
	reason := strings.TrimSpace(strings.Join(args[2:], " "))
	if reason == "" {
		fmt.Fprintf(c.stderr, "no reason given; #%d left in place\n", id)
		return 0
	}
	return c.withBoard(args[0], func(h *server.BoardHandle) int {
		return c.send(h, core.MoveCardBackCommand{CardID: id, Reason: reason})
	})
}

func (c *cli) cmdToggle(args []string) int {
	if len(args) != 3 {
		return c.usage("toggle <board> <id> <item>")
	}
	id, err := parseCardID(args[1])
	if err != nil {
		return c.fail(err)
	}
	item, err := strconv.Atoi(args[2])
	if err != nil || item < 1 {
		return c.fail(fmt.Errorf("invalid item number %q", args[2]))
	}
	return c.withBoard(args[0], func(h *server.BoardHandle) int {
		return c.send(h, core.ToggleItemCommand{CardID: id, Index: item - 1})
	})
}

func (c *cli) cmdDelete(args []string) int {
	if len(args) != 2 {
		return c.usage("delete <board> <id>")
	}
	id, err := parseCardID(args[1])
	if err != nil {
		return c.fail(err)
	}
	return c.withBoard(args[0], func(h *server.BoardHandle) int {
		return c.send(h, core.DeleteCardCommand{CardID: id})
	})
}

func (c *cli) cmdClear(args []string) int {
	fs := c.newFlagSet("clear")
	yes := fs.Bool("yes", false, "Confirm removing every card")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		return c.usage("clear -yes <board>")
	}
	if !*yes {
		fmt.Fprintln(c.stderr, "refusing to clear without -yes")
		return 1
	}
	return c.withBoard(fs.Arg(0), func(h *server.BoardHandle) int {
		return c.send(h, core.ClearBoardCommand{})
	})
}

func (c *cli) cmdExport(args []string) int {
	fs := c.newFlagSet("export")
	format := fs.String("format", "md", "md, yaml, html, or all (writes files into the board directory)")
	query := fs.String("q", "", "Only include cards whose title contains this text")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		return c.usage("export [-format md|yaml|html|all] <board>")
	}
	return c.withBoard(fs.Arg(0), func(h *server.BoardHandle) int {
		var snap export.Snapshot
		h.Actor.ReadBoard(func(b *core.Board) {
			snap = export.FromBoard(h.Info, b, *query, time.Now())
		})

		var (
			out string
			err error
		)
		switch *format {
		case "md", "markdown":
			out = export.ExportMarkdown(snap)
		case "yaml", "yml":
			out, err = export.ExportYAML(snap)
		case "html":
			out, err = export.ExportHTML(snap)
		case "all":
			if err := store.WriteExports(h.Dir(), snap); err != nil {
				return c.fail(err)
			}
			fmt.Fprintf(c.stdout, "wrote exports to %s\n", filepath.Join(h.Dir(), store.ExportsDir))
			return 0
		default:
			return c.fail(fmt.Errorf("unknown export format %q", *format))
		}
		if err != nil {
			return c.fail(err)
		}
		fmt.Fprint(c.stdout, out)
		return 0
	})
}

func (c *cli) cmdTUI(args []string) int {
	if len(args) != 1 {
		return c.usage("tui <board>")
	}
	return c.withBoard(args[0], func(h *server.BoardHandle) int {
		// Store logs would tear the alt screen; send them to the board directory instead.
		logFile, err := tea.LogToFile(filepath.Join(h.Dir(), "tui.log"), "")
		if err != nil {
			return c.fail(err)
		}
		defer func() { _ = logFile.Close() }()

		model := tui.NewAppModel(h.Info, h.Actor)
		defer model.Close()
		if _, err := tea.NewProgram(model, tea.WithAltScreen()).Run(); err != nil {
			return c.fail(err)
		}
		return 0
	})
}

func (c *cli) cmdServe(args []string) int {
	fs := c.newFlagSet("serve")
	bind := fs.String("bind", "", "Listen address (default: KANBAN_BIND or "+server.DefaultBind+")")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if err := c.cfg.Override("", "", *bind); err != nil {
		return c.fail(err)
	}

	return c.withState(func(state *server.AppState) int {
		n, err := state.LoadAll()
		if err != nil {
			return c.fail(err)
		}
		srv, err := web.NewServer(state, web.ServerConfig{Addr: c.cfg.Bind, AuthToken: c.cfg.AuthToken})
		if err != nil {
			return c.fail(err)
		}
		fmt.Fprintf(c.stdout, "kanban %s serving %d boards from %s on http://%s\n", version, n, c.cfg.Home, c.cfg.Bind)

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		if err := srv.ListenAndServe(ctx); err != nil {
			return c.fail(err)
		}
		fmt.Fprintln(c.stderr, "\nshutting down...")
		return 0
	})
}
