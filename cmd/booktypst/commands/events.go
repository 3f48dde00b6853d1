package commands

import (
	"fmt"

	"git.home.luguber.info/inful/booktypst/internal/book"
	"git.home.luguber.info/inful/booktypst/internal/convert"
	"git.home.luguber.info/inful/booktypst/internal/errors"
	"git.home.luguber.info/inful/booktypst/internal/mdbook"
)

// EventsCmd implements the 'events' command: it prints one event per line
// as it leaves the pipeline.
type EventsCmd struct {
	BookFlags

	Raw bool `help:"Print the structural events before conversion"`
}

func (e *EventsCmd) Run(g *Global, root *CLI) (err error) {
	defer errors.RecoverFault(&err)

	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	req, err := e.request(cfg)
	if err != nil {
		return err
	}

	b, err := book.Load(req.BookRoot)
	if err != nil {
		return err
	}
	parser := mdbook.NewParser(b, nil)

	out := g.out()
	if e.Raw {
		for _, ev := range parser.Events() {
			fmt.Fprintln(out, convert.Describe(convert.Mdbook{Event: ev}))
		}
		return nil
	}
	for ev := range convert.All(convert.Build(parser, req.Options)) {
		fmt.Fprintln(out, convert.Describe(ev))
	}
	return nil
}
