package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"

	"recky/backend/internal/setup"
	"recky/backend/pkg/jwt"

	"github.com/urfave/cli/v3"
)

var ErrMissingArgument = errors.New("missing argument")

func main() {
	if err := run(); err != nil {
		log.Printf("Error: %v", err)
		os.Exit(1)
	}
}

func run() error {
	app := &cli.Command{
		Name:  "reckyctl",
		Usage: "Maintenance commands for the Recky backend",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config-dir",
				Aliases: []string{"c"},
				Value:   ".",
				Usage:   "Directory holding the .env file",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "reconcile",
				Usage:  "Repair one-sided friend edges and recount engagement counters",
				Action: reconcileAction,
			},
			{
				Name:      "token",
				Usage:     "Issue a bearer token for a user",
				ArgsUsage: "<user-id>",
				Flags: []cli.Flag{
					&cli.DurationFlag{
						Name:  "ttl",
						Value: jwt.DefaultTTL,
						Usage: "How long the token stays valid",
					},
				},
				Action: tokenAction,
			},
			{
				Name:      "register",
				Usage:     "Add a user to the directory",
				ArgsUsage: "<user-id> <display-name>",
				Action:    registerAction,
			},
		},
	}

	return app.Run(context.Background(), os.Args)
}

func reconcileAction(ctx context.Context, c *cli.Command) error {
	app, err := setup.InitializeApp(ctx, c.String("config-dir"))
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer app.Cleanup(ctx)

	report, err := app.Services.Coordinator.Reconcile(ctx)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func tokenAction(ctx context.Context, c *cli.Command) error {
	userID := c.Args().First()
	if userID == "" {
		return fmt.Errorf("%w: user id", ErrMissingArgument)
	}

	app, err := setup.InitializeApp(ctx, c.String("config-dir"))
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer app.Cleanup(ctx)

	token, err := jwt.GenerateToken(userID, app.Config.JWTSecret, c.Duration("ttl"))
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}

func registerAction(ctx context.Context, c *cli.Command) error {
	userID, name := c.Args().Get(0), c.Args().Get(1)
	if userID == "" || name == "" {
		return fmt.Errorf("%w: user id and display name", ErrMissingArgument)
	}

	app, err := setup.InitializeApp(ctx, c.String("config-dir"))
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer app.Cleanup(ctx)

	u, err := app.Users.Register(ctx, userID, name)
	if err != nil {
		return err
	}
	fmt.Printf("Registered %s (%s)\n", u.ID, u.DisplayName)
	return nil
}
