package main

import (
	"log"

	"github.com/slack-go/slack"
)

// SlackNotifier posts batch summaries to the support channel so the team
// sees new tickets without tailing logs. A nil notifier is a no-op.
type SlackNotifier struct {
	api       *slack.Client
	channelID string
}

func NewSlackNotifier(cfg Config) *SlackNotifier {
	if cfg.SlackBotToken == "" {
		return nil
	}
	return &SlackNotifier{
		api:       slack.New(cfg.SlackBotToken),
		channelID: cfg.SlackChannelID,
	}
}

func (n *SlackNotifier) PostSummary(text string) {
	if n == nil {
		return
	}
	_, _, err := n.api.PostMessage(n.channelID, slack.MsgOptionText(text, false))
	if err != nil {
		log.Printf("slack notify error: %v", err)
	}
}
