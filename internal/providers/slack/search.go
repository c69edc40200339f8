package slack

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

const (
	channelListLimit = 100
	channelScanLimit = 100
)

type channelListResponse struct {
	Channels []struct {
		ID         string `json:"id"`
		Name       string `json:"name"`
		IsArchived bool   `json:"is_archived"`
	} `json:"channels"`
}

type historyResponse struct {
	Messages []struct {
		Text string      `json:"text"`
		TS   json.Number `json:"ts"`
	} `json:"messages"`
}

// FindTicketThread scans recent channel history for a message mentioning
// the ticket and returns its archive URL, or "" when nothing matches. This
// is the discovery fallback for tickets with no thread linked anywhere in
// the task record. A message matches when it contains the full ticket URL
// or the task ID taken from its last path segment.
func (c *Client) FindTicketThread(ctx context.Context, ticketURL string) string {
	if ticketURL == "" {
		return ""
	}
	taskID := ticketURL[strings.LastIndex(ticketURL, "/")+1:]

	var channels channelListResponse
	params := url.Values{
		"types": {"public_channel,private_channel"},
		"limit": {strconv.Itoa(channelListLimit)},
	}
	if err := c.call(ctx, "conversations.list", params, &channels); err != nil {
		log.Warn().Err(err).Msg("Channel listing failed, skipping thread discovery")
		return ""
	}

	for _, channel := range channels.Channels {
		if channel.IsArchived {
			continue
		}

		var history historyResponse
		params := url.Values{
			"channel": {channel.ID},
			"limit":   {strconv.Itoa(channelScanLimit)},
		}
		if err := c.call(ctx, "conversations.history", params, &history); err != nil {
			log.Debug().Err(err).Str("channel", channel.Name).Msg("Channel history unavailable")
			continue
		}

		for _, msg := range history.Messages {
			if !strings.Contains(msg.Text, ticketURL) && !(taskID != "" && strings.Contains(msg.Text, taskID)) {
				continue
			}
			archive := fmt.Sprintf("https://slack.com/archives/%s/p%s",
				channel.ID, strings.ReplaceAll(msg.TS.String(), ".", ""))
			log.Debug().
				Str("channel", channel.Name).
				Str("url", archive).
				Msg("Found thread mentioning ticket")
			return archive
		}
	}

	return ""
}
