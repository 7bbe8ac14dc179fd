package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"

	"dictionary/app/internal/dictionary"
	applog "dictionary/app/internal/log"
	"dictionary/app/internal/lookup"
	"dictionary/app/internal/terminal"
	"dictionary/app/internal/theme"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	_ = godotenv.Load()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// Lookuper replaces the HTTP client. Set before calling Run().
	Lookuper dictionary.Lookuper
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{}
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("define"),
		kong.Description("Look up English words in a dictionary service."),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}),
		kong.Vars{"base_url": dictionary.DefaultBaseURL},
	)
	if err != nil {
		return eris.Wrap(err, "failed to create parser")
	}

	for _, arg := range args {
		if arg == "--help" || arg == "-h" {
			_, _ = parser.Parse([]string{"--help"})
			return nil
		}
	}

	if _, err := parser.Parse(args); err != nil {
		return err
	}

	logger, err := applog.NewLogger(applog.Options{
		Level:  cli.LogLevel,
		Format: applog.FormatText,
		Output: stderr,
	})
	if err != nil {
		return eris.Wrap(err, "initialising logger")
	}

	th, err := theme.Parse(cli.Theme)
	if err != nil {
		return err
	}

	ordering, err := lookup.ParseOrdering(cli.Ordering)
	if err != nil {
		return err
	}

	lookuper := m.Lookuper
	if lookuper == nil {
		client, err := dictionary.NewClient(dictionary.ClientOptions{
			BaseURL: cli.BaseURL,
			Timeout: cli.Timeout,
			Logger:  logger,
		})
		if err != nil {
			return eris.Wrap(err, "creating dictionary client")
		}
		lookuper = client
	}

	controller, err := lookup.NewController(lookup.Options{
		Lookuper: lookuper,
		Ordering: ordering,
		Logger:   logger,
	})
	if err != nil {
		return eris.Wrap(err, "creating lookup controller")
	}

	sh := &shell{
		controller: controller,
		renderer:   lipgloss.NewRenderer(stdout),
		theme:      th,
		stdout:     stdout,
	}
	sh.styles = terminal.NewStyles(sh.renderer, sh.theme)

	if len(cli.Words) > 0 {
		for _, word := range cli.Words {
			if err := sh.search(ctx, word); err != nil {
				return err
			}
		}
		return nil
	}

	return sh.repl(ctx, stdin)
}

// shell prints lookups for one terminal.
type shell struct {
	controller *lookup.Controller
	renderer   *lipgloss.Renderer
	theme      theme.Theme
	styles     terminal.Styles
	stdout     io.Writer
}

func (sh *shell) search(ctx context.Context, word string) error {
	sh.controller.UpdateWord(word)
	done := sh.controller.Search(ctx)

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	fmt.Fprintln(sh.stdout, sh.styles.Title(word))
	if rendered := sh.controller.View(); rendered.Kind != lookup.ViewEmpty {
		fmt.Fprintln(sh.stdout, sh.styles.Render(rendered))
	}
	return nil
}

func (sh *shell) toggleTheme() {
	sh.theme = sh.theme.Toggle()
	sh.styles = terminal.NewStyles(sh.renderer, sh.theme)
	fmt.Fprintln(sh.stdout, sh.styles.Hint("theme: "+string(sh.theme.Background)))
}

func (sh *shell) repl(ctx context.Context, stdin io.Reader) error {
	fmt.Fprintln(sh.stdout, sh.styles.Hint(fmt.Sprintf("Type a word to look it up, %s to switch colours, %s to exit.", themeCommand, quitCommand)))

	scanner := bufio.NewScanner(stdin)
	for {
		fmt.Fprint(sh.stdout, prompt)

		if !scanner.Scan() {
			fmt.Fprintln(sh.stdout)
			if err := scanner.Err(); err != nil {
				return eris.Wrap(err, "reading input")
			}
			return nil
		}

		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case quitCommand:
			return nil
		case themeCommand:
			sh.toggleTheme()
			continue
		}

		if err := sh.search(ctx, line); err != nil {
			return err
		}
	}
}
