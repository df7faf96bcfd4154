package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/noelzubin/papers_search/address"
	"github.com/noelzubin/papers_search/library"
	"github.com/noelzubin/papers_search/render"
	"github.com/noelzubin/papers_search/search"
	"github.com/noelzubin/papers_search/viewer"
	"github.com/urfave/cli/v2"
)

// runSearch prints the title matches, waits for the deep search and prints
// the merged result.
func runSearch(c *cli.Context) error {
	if c.NArg() == 0 {
		return cli.Exit("search needs a QUERY", 2)
	}
	session, closer, err := openSession(c, nil)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	defer closer.Close()
	defer session.Close()

	w := c.App.Writer
	titles := session.Search.Search(c.Args().First())
	fmt.Fprintf(w, "title matches (%d)\n", len(titles))
	printDocuments(c, titles)

	result := session.Search.Current()
	if result.State == search.Idle {
		return nil
	}
	changes := session.Search.Changes()
	for result.State != search.DeepSearchSettled {
		select {
		case result = <-changes:
		case <-c.Context.Done():
			return c.Context.Err()
		}
	}

	fmt.Fprintf(w, "\nall matches (%d)\n", len(result.Documents))
	printDocuments(c, result.Documents)
	return nil
}

// runOpen renders a document from the shelf, a relative path or a link.
func runOpen(c *cli.Context) error {
	if c.NArg() == 0 {
		return cli.Exit("open needs a PATH or URL", 2)
	}

	var renderer render.Renderer
	if c.Bool("html") {
		renderer = render.NewHTML(nil)
	}
	session, closer, err := openSession(c, renderer)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	defer closer.Close()
	defer session.Close()

	session.Start(address.Source(c.Args().First()))

	changes := session.Viewer.Changes()
	d := session.Viewer.Display()
	for d.Status == viewer.Loading {
		select {
		case d = <-changes:
		case <-c.Context.Done():
			return c.Context.Err()
		}
	}

	switch d.Status {
	case viewer.Rendered:
		fmt.Fprintln(c.App.Writer, d.Content)
	case viewer.Embedded:
		fmt.Fprintf(c.App.Writer, "%s\t%s\n", d.Document.Title, d.Resource.Path)
	default:
		return cli.Exit(d.Content, 1)
	}
	return nil
}

func runList(c *cli.Context) error {
	session, closer, err := openSession(c, nil)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	defer closer.Close()
	defer session.Close()

	printDocuments(c, session.Index.All())
	return nil
}

func printDocuments(c *cli.Context, docs []*library.Document) {
	tw := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	for _, doc := range docs {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", doc.Title, doc.Kind, doc.Path)
	}
	tw.Flush()
}
