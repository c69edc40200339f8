package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/rcareport/internal/config"
)

// ConfigCommand returns the config command: write a starter file, or check
// an existing one and report which collaborators it enables.
func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Create or check the rcareport configuration",
		Subcommands: []*cli.Command{
			{
				Name:  "init",
				Usage: "Write a starter configuration file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Where to write the file",
						Value:   "rcareport.toml",
					},
				},
				Action: func(c *cli.Context) error {
					path := c.String("output")
					if err := config.InitConfig(path); err != nil {
						return fmt.Errorf("failed to initialize config: %w", err)
					}
					fmt.Printf("Wrote %s. Fill in the tracker credentials before the first run.\n", path)
					return nil
				},
			},
			{
				Name:   "validate",
				Usage:  "Check the configuration file",
				Action: runConfigValidate,
			},
		},
	}
}

func runConfigValidate(c *cli.Context) error {
	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return err
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("configuration is invalid: %w", err)
	}

	fmt.Println("Configuration is valid")
	if cfg.Chat.BotToken == "" {
		fmt.Println("No chat token set: thread analysis will be skipped")
	}
	if cfg.AI.APIKey == "" {
		fmt.Println("No model key set: reports will use mechanical analysis")
	}
	return nil
}
