package main

import (
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/noelzubin/papers_search/address"
	"github.com/noelzubin/papers_search/app"
	"github.com/noelzubin/papers_search/render"
	"github.com/noelzubin/papers_search/utils"
	"github.com/urfave/cli/v2"
)

func newApp() *cli.App {
	return &cli.App{
		Name:  "papers_search",
		Usage: "Search and read a shelf of papers",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Config file path",
				Value:   utils.DefaultConfigPath(),
			},
			&cli.StringFlag{
				Name:  "src",
				Usage: "Document path or shared link to open first",
			},
		},
		Action: runTUI,
		Commands: []*cli.Command{
			{
				Name:   "tui",
				Usage:  "Interactive search and preview (default)",
				Action: runTUI,
			},
			{
				Name:      "search",
				Aliases:   []string{"s"},
				Usage:     "Search titles, then document contents",
				ArgsUsage: "QUERY",
				Action:    runSearch,
			},
			{
				Name:      "open",
				Aliases:   []string{"o"},
				Usage:     "Render a document",
				ArgsUsage: "PATH|URL",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "html",
						Usage: "Render sanitized HTML instead of terminal output",
					},
				},
				Action: runOpen,
			},
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "List the documents on the shelf",
				Action:  runList,
			},
		},
	}
}

// openSession reads the config, sets up logging and loads the shelf. A nil
// renderer renders for the terminal in the configured theme.
func openSession(c *cli.Context, renderer render.Renderer) (*app.Session, io.Closer, error) {
	config, v, err := utils.LoadConfig(c.String("config"))
	if err != nil {
		return nil, nil, err
	}

	logger, closer, err := utils.NewLogger(config.LogFile, config.LogLevel)
	if err != nil {
		return nil, nil, err
	}

	session, err := app.New(c.Context, app.Options{
		Config:   config,
		Viper:    v,
		Logger:   logger,
		Renderer: renderer,
	})
	if err != nil {
		logger.Error("failed to load shelf", "err", err)
		closer.Close()
		return nil, nil, err
	}
	return session, closer, nil
}

func runTUI(c *cli.Context) error {
	session, closer, err := openSession(c, nil)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	defer closer.Close()
	defer session.Close()

	session.Start(address.Source(c.String("src")))

	// Create a new bubbletea Model
	p := tea.NewProgram(New(session), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		session.Logger.Error("ui stopped", "err", err)
		return err
	}
	return nil
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
