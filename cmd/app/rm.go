package main

import (
	"context"
	"fmt"
	"os"
	"slices"

	"github.com/urfave/cli/v3"

	"github.com/starford/pocketnotes/internal/models"
	"github.com/starford/pocketnotes/internal/notes"
	"github.com/starford/pocketnotes/internal/term"
)

var rmCmd = &cli.Command{
	Name:      "rm",
	Usage:     "Delete a note by id",
	ArgsUsage: "<id>",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:    "force",
			Aliases: []string{"f"},
			Usage:   "skip confirmation",
		},
	},
	Action: func(ctx context.Context, cmd *cli.Command) error {
		if cmd.NArg() != 1 {
			return fmt.Errorf("expected exactly one note id")
		}
		id := cmd.Args().First()

		comp, err := openComponents(ctx, cmd)
		if err != nil {
			return err
		}
		defer comp.Close()

		var prompt notes.Prompt = term.NewPrompt(os.Stdin, os.Stdout)
		if cmd.Bool("force") {
			prompt = notes.AutoPrompt{Answer: true, Logger: comp.Logger}
		}
		ctrl := notes.NewListController(comp.Store,
			notes.WithPrompt(prompt),
			notes.WithPublisher(comp.Bus),
			notes.WithLogger(comp.Logger),
		)
		if err := ctrl.Refresh(ctx); err != nil {
			return err
		}
		if !slices.ContainsFunc(ctrl.Master(), func(n models.Note) bool { return n.ID == id }) {
			return fmt.Errorf("no note with id %s", id)
		}

		if err := ctrl.DeleteByID(ctx, id); err != nil {
			return err
		}
		if slices.ContainsFunc(ctrl.Master(), func(n models.Note) bool { return n.ID == id }) {
			fmt.Println("Not deleted.")
			return nil
		}
		fmt.Println(term.Success("Deleted note " + id))
		return nil
	},
}
