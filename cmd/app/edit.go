package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/starford/pocketnotes/internal/notes"
	"github.com/starford/pocketnotes/internal/term"
)

var editCmd = &cli.Command{
	Name:      "edit",
	Usage:     "Change the date or attachments of the note with the given description",
	ArgsUsage: "<description>",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "date",
			Usage: "new date, YYYY-MM-DD or RFC3339",
		},
		&cli.StringFlag{
			Name:  "photo",
			Usage: "image file to attach",
		},
		&cli.StringFlag{
			Name:  "audio",
			Usage: "audio file to attach",
		},
	},
	Action: runEdit,
}

func runEdit(ctx context.Context, cmd *cli.Command) error {
	description := strings.Join(cmd.Args().Slice(), " ")
	if description == "" {
		return fmt.Errorf("description is required")
	}

	comp, err := openComponents(ctx, cmd)
	if err != nil {
		return err
	}
	defer comp.Close()

	ctrl := notes.NewEditController(comp.Store, comp.Media,
		notes.WithPrompt(term.NewPrompt(os.Stdin, os.Stderr)),
		notes.WithNavigator(term.Navigator{Logger: comp.Logger}),
		notes.WithPublisher(comp.Bus),
		notes.WithLogger(comp.Logger),
	)
	if err := ctrl.LoadByDescription(ctx, description); err != nil {
		return err
	}
	n, ok := ctrl.Current()
	if !ok {
		return fmt.Errorf("no note described %q", description)
	}

	if s := cmd.String("date"); s != "" {
		d, err := parseDate(s)
		if err != nil {
			return err
		}
		n.Date = d
		ctrl.SetCurrent(n)
	}
	if path := cmd.String("photo"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read photo: %w", err)
		}
		if err := ctrl.AttachPhoto(ctx, data, filepath.Base(path)); err != nil {
			return err
		}
	}
	if path := cmd.String("audio"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read audio: %w", err)
		}
		if err := ctrl.AttachAudio(ctx, data, filepath.Base(path)); err != nil {
			return err
		}
	}

	if err := ctrl.Save(ctx); err != nil {
		return err
	}
	saved, _ := ctrl.Current()
	fmt.Println(term.Success("Saved"))
	fmt.Print(term.FormatNote(saved))
	return nil
}
