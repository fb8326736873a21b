package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/starford/pocketnotes/internal/models"
	"github.com/starford/pocketnotes/internal/notes"
	"github.com/starford/pocketnotes/internal/term"
)

var listCmd = &cli.Command{
	Name:  "list",
	Usage: "List notes, newest first",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "filter",
			Aliases: []string{"f"},
			Usage:   "case-insensitive description filter (results oldest first)",
		},
		&cli.BoolFlag{
			Name:  "follow",
			Usage: "keep running and reprint on every change",
		},
	},
	Action: runList,
}

func runList(ctx context.Context, cmd *cli.Command) error {
	comp, err := openComponents(ctx, cmd)
	if err != nil {
		return err
	}
	defer comp.Close()

	ctrl := notes.NewListController(comp.Store,
		notes.WithPrompt(term.NewPrompt(os.Stdin, os.Stderr)),
		notes.WithPublisher(comp.Bus),
		notes.WithLogger(comp.Logger),
	)
	ctrl.SetFilter(cmd.String("filter"))

	if !cmd.Bool("follow") {
		if err := ctrl.Refresh(ctx); err != nil {
			return err
		}
		printList(ctrl.Displayed())
		return nil
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ctrl.OnChange(func(list []models.Note) {
		fmt.Print("\033[H\033[2J")
		printList(list)
	})
	unfollow := ctrl.Follow(ctx, comp.Bus)
	defer unfollow()

	watchErr := make(chan error, 1)
	go func() { watchErr <- comp.WatchStore(ctx) }()

	if err := ctrl.Refresh(ctx); err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		return nil
	case err := <-watchErr:
		if err != nil {
			return fmt.Errorf("watch store: %w", err)
		}
		// Backend cannot be watched; only local changes would show up.
		<-ctx.Done()
		return nil
	}
}

func printList(list []models.Note) {
	if len(list) == 0 {
		fmt.Println("No notes found.")
		return
	}
	fmt.Print(term.FormatList(list))
}
