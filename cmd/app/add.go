package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/starford/pocketnotes/internal/models"
	"github.com/starford/pocketnotes/internal/term"
)

var addCmd = &cli.Command{
	Name:      "add",
	Usage:     "Create a note",
	ArgsUsage: "<description>",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "date",
			Usage: "note date, YYYY-MM-DD or RFC3339 (default now)",
		},
	},
	Action: func(ctx context.Context, cmd *cli.Command) error {
		description := strings.Join(cmd.Args().Slice(), " ")
		if strings.TrimSpace(description) == "" {
			return fmt.Errorf("description is required")
		}

		n := models.Note{Description: description}
		if s := cmd.String("date"); s != "" {
			d, err := parseDate(s)
			if err != nil {
				return err
			}
			n.Date = d
		}

		comp, err := openComponents(ctx, cmd)
		if err != nil {
			return err
		}
		defer comp.Close()

		created, err := comp.Service.Create(ctx, n)
		if err != nil {
			return fmt.Errorf("failed to create note: %w", err)
		}
		fmt.Println(term.Success("Created note " + created.ID))
		return nil
	},
}
