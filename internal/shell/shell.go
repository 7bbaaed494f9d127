// Package shell is a line-oriented terminal front-end for the expense list.
package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"iexpense/internal/core"
	"iexpense/internal/expenses"
	"iexpense/internal/log"
	"iexpense/internal/view"
)

const help = `Commands:
  list                         show expenses under the current tab
  tab business|personal        switch tab
  add <name>;<type>;<amount>   add an expense, e.g. add Coffee;Personal;3.50
  delete <row> [row...]        delete rows of the current tab by number
  help                         show this help
  quit                         leave`

var errQuit = errors.New("quit")

type Shell struct {
	store  *expenses.Store
	list   *view.ListView
	in     io.Reader
	out    io.Writer
	logger *log.Logger
}

func New(store *expenses.Store, formatter *view.Formatter, in io.Reader, out io.Writer, logger *log.Logger) *Shell {
	return &Shell{
		store:  store,
		list:   view.NewListView(store, formatter),
		in:     in,
		out:    out,
		logger: logger.WithComponent(log.ComponentShell),
	}
}

// Run reads commands until quit, end of input or ctx is cancelled. The
// list is redrawn after every change to the store.
func (s *Shell) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	unsubscribe := s.store.Subscribe(func([]core.Expense) { s.render() })
	defer unsubscribe()

	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		sc := bufio.NewScanner(s.in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- sc.Err()
	}()

	fmt.Fprintln(s.out, "iExpense. Type 'help' for commands.")
	s.render()
	for {
		fmt.Fprint(s.out, "> ")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-readErr:
			return err
		case line := <-lines:
			if err := s.Exec(ctx, line); err != nil {
				if errors.Is(err, errQuit) {
					return nil
				}
				fmt.Fprintf(s.out, "error: %v\n", err)
			}
		}
	}
}

// Exec runs a single command line.
func (s *Shell) Exec(ctx context.Context, line string) error {
	cmd, args, _ := strings.Cut(strings.TrimSpace(line), " ")
	args = strings.TrimSpace(args)
	s.logger.DebugContext(ctx, "Command received", log.FieldCommand, cmd)

	switch strings.ToLower(cmd) {
	case "":
		return nil
	case "list", "ls":
		s.render()
		return nil
	case "tab":
		c, err := core.ParseCategory(args)
		if err != nil {
			return fmt.Errorf("tab %q: %w", args, err)
		}
		s.list.Select(c)
		s.render()
		return nil
	case "add":
		return s.add(ctx, args)
	case "delete", "rm":
		return s.delete(ctx, args)
	case "help", "?":
		fmt.Fprintln(s.out, help)
		return nil
	case "quit", "exit", "q":
		return errQuit
	default:
		return fmt.Errorf("unknown command %q, try 'help'", cmd)
	}
}

func (s *Shell) add(ctx context.Context, args string) error {
	parts := strings.Split(args, ";")
	if len(parts) != 3 {
		return fmt.Errorf("usage: add <name>;<type>;<amount>")
	}
	category, err := core.ParseCategory(parts[1])
	if err != nil {
		return fmt.Errorf("type %q: %w", strings.TrimSpace(parts[1]), err)
	}

	form := view.NewAddForm()
	form.Name = strings.TrimSpace(parts[0])
	form.Category = category
	form.Amount = parts[2]

	e, err := form.Submit(ctx, s.store)
	if err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "Expense added", log.NewFields().
		WithOperation(log.OpAppend).
		WithExpense(e.ID.String(), e.Name, e.Category.String(), e.Amount.String()).
		ToSlice()...)
	return nil
}

func (s *Shell) delete(ctx context.Context, args string) error {
	fields := strings.Fields(args)
	if len(fields) == 0 {
		return fmt.Errorf("usage: delete <row> [row...]")
	}
	offsets := make([]int, 0, len(fields))
	for _, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			return fmt.Errorf("row %q is not a number", f)
		}
		// Rows are shown starting at 1.
		offsets = append(offsets, n-1)
	}

	if err := s.list.DeleteRows(ctx, offsets...); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "Rows deleted", log.FieldOperation, log.OpDelete, log.FieldCount, len(offsets))
	return nil
}

func (s *Shell) render() {
	rows := s.list.Rows()
	fmt.Fprintf(s.out, "[%s]\n", s.list.Selected())
	if len(rows) == 0 {
		fmt.Fprintln(s.out, "  (no expenses)")
		return
	}
	tw := tabwriter.NewWriter(s.out, 0, 4, 2, ' ', 0)
	for i, r := range rows {
		fmt.Fprintf(tw, "  %d\t%s\t%s\t%s\t(%s)\n", i+1, r.Name, r.Category, r.Amount, r.Color)
	}
	tw.Flush()
}
