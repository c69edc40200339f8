// Package cmd defines the CLI commands of the report generator.
package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/rcareport/internal/config"
	"github.com/rcareport/internal/llm"
	"github.com/rcareport/internal/logging"
	"github.com/rcareport/internal/providers/clickup"
	"github.com/rcareport/internal/providers/slack"
	"github.com/rcareport/internal/report"
	"github.com/rcareport/internal/synth"
	"github.com/rcareport/pkg/models"
)

// GenerateCommand returns the generate command, the main entrypoint of a
// report run.
func GenerateCommand() *cli.Command {
	return &cli.Command{
		Name:  "generate",
		Usage: "Fetch tickets for a date range and generate the RCA report",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "days",
				Usage: "Analyze tickets created in the last `N` days",
				Value: 7,
			},
			&cli.StringFlag{
				Name:  "from",
				Usage: "Range start as `YYYY-MM-DD` (overrides --days)",
			},
			&cli.StringFlag{
				Name:  "to",
				Usage: "Range end as `YYYY-MM-DD` (defaults to today)",
			},
			&cli.StringFlag{
				Name:  "output",
				Usage: "Directory for the generated report",
			},
			&cli.BoolFlag{
				Name:  "no-ai",
				Usage: "Skip the language model and use mechanical analysis only",
			},
		},
		Action: runGenerate,
	}
}

func runGenerate(c *cli.Context) error {
	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return err
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	outputDir := cfg.Report.OutputDir
	if c.String("output") != "" {
		outputDir = c.String("output")
	}

	closer, err := logging.SetupWithRunLog(c.Bool("verbose"), outputDir)
	if err != nil {
		return err
	}
	defer closer.Close()

	start, end, periodName, err := dateRange(c)
	if err != nil {
		return err
	}
	log.Info().
		Str("from", start.Format("2006-01-02")).
		Str("to", end.Format("2006-01-02")).
		Str("period", periodName).
		Msg("Generating RCA report")

	ctx := c.Context

	tracker := clickup.NewClient(cfg.Tracker.APIKey, cfg.Tracker.BaseURL)
	if user, err := tracker.TestConnection(ctx); err != nil {
		return fmt.Errorf("tracker API connection failed: %w", err)
	} else {
		log.Info().Str("user", user).Msg("Connected to tracker")
	}

	var chat *slack.Client
	if cfg.Chat.BotToken != "" {
		chat = slack.NewClient(cfg.Chat.BotToken, cfg.Chat.BaseURL)
		if bot, err := chat.TestConnection(ctx); err != nil {
			log.Warn().Err(err).Msg("Chat API unavailable, continuing without thread data")
			chat = nil
		} else {
			log.Info().Str("bot", bot).Msg("Connected to chat")
		}
	}

	var model synth.Completer
	usingAI := false
	if !c.Bool("no-ai") && cfg.AI.APIKey != "" {
		connector, err := llm.NewConnector(llm.Options{
			APIKey:      cfg.AI.APIKey,
			Model:       cfg.AI.Model,
			BaseURL:     cfg.AI.BaseURL,
			Temperature: cfg.AI.Temperature,
			MaxTokens:   cfg.AI.MaxTokens,
		})
		if err != nil {
			log.Warn().Err(err).Msg("Model unavailable, falling back to mechanical analysis")
		} else {
			model = connector
			usingAI = true
		}
	}
	synthesizer := synth.New(model)

	byCustomer, err := tracker.FetchTickets(ctx, cfg.Tracker.FolderID, start, end)
	if err != nil {
		return err
	}
	if len(byCustomer) == 0 {
		log.Warn().Msg("No tickets found in the selected range")
	}

	analyzed := analyzeAll(ctx, tracker, chat, synthesizer, byCustomer)

	data := report.Prepare(analyzed, start, end, periodName, usingAI)
	path, err := report.Write(data, outputDir)
	if err != nil {
		return err
	}

	fmt.Printf("Report saved: %s\n", path)
	return nil
}

// analyzeAll runs the synthesis pipeline for every fetched ticket. A single
// failing ticket is logged and carried with an error indicator; it never
// aborts the run.
func analyzeAll(ctx context.Context, tracker *clickup.Client, chat *slack.Client, synthesizer *synth.Synthesizer, byCustomer map[string][]models.Ticket) map[string][]report.AnalyzedTicket {
	out := make(map[string][]report.AnalyzedTicket, len(byCustomer))

	for customer, tickets := range byCustomer {
		for i, ticket := range tickets {
			log.Info().
				Str("customer", customer).
				Str("ticket", ticket.ID).
				Int("n", i+1).
				Int("of", len(tickets)).
				Msg("Analyzing ticket")

			out[customer] = append(out[customer], analyzeTicket(ctx, tracker, chat, synthesizer, ticket))
		}
	}

	return out
}

func analyzeTicket(ctx context.Context, tracker *clickup.Client, chat *slack.Client, synthesizer *synth.Synthesizer, ticket models.Ticket) report.AnalyzedTicket {
	analyzed := report.AnalyzedTicket{Ticket: ticket}

	detail, err := tracker.GetTaskDetail(ctx, ticket.ID)
	if err != nil {
		log.Warn().Err(err).Str("ticket", ticket.ID).Msg("Failed to fetch task detail")
		analyzed.AnalysisFailed = true
		analyzed.RCA = synthesizer.Analyze(ctx, &models.TicketDetail{
			ID:          ticket.ID,
			Title:       ticket.Title,
			Description: ticket.Description,
			Status:      ticket.Status,
		}, models.EmptyChatThread())
		return analyzed
	}

	thread := models.EmptyChatThread()
	if chat != nil {
		chatURL := detail.ChatThreadURL
		if chatURL == "" {
			chatURL = chat.FindTicketThread(ctx, ticket.URL)
		}
		if chatURL != "" {
			thread = chat.GetThread(ctx, chatURL)
		}
	}

	analyzed.RCA = synthesizer.Analyze(ctx, detail, thread)
	analyzed.ChatMessageCount = len(thread.Messages)
	analyzed.CodeSnippets = thread.CodeSnippets
	return analyzed
}

// dateRange resolves the --from/--to/--days flags into a window.
func dateRange(c *cli.Context) (start, end time.Time, periodName string, err error) {
	now := time.Now()
	end = now

	if from := c.String("from"); from != "" {
		start, err = time.ParseInLocation("2006-01-02", from, time.Local)
		if err != nil {
			return start, end, "", fmt.Errorf("invalid --from date: %w", err)
		}
		if to := c.String("to"); to != "" {
			end, err = time.ParseInLocation("2006-01-02", to, time.Local)
			if err != nil {
				return start, end, "", fmt.Errorf("invalid --to date: %w", err)
			}
		}
		if end.Before(start) {
			return start, end, "", fmt.Errorf("--to is before --from")
		}
		return start, end, "Custom range", nil
	}

	days := c.Int("days")
	if days <= 0 {
		days = 7
	}
	start = now.AddDate(0, 0, -days)

	switch days {
	case 1:
		periodName = "Today"
	case 7:
		periodName = "Last 7 days"
	case 30:
		periodName = "Last 30 days"
	default:
		periodName = fmt.Sprintf("Last %d days", days)
	}
	return start, end, periodName, nil
}
