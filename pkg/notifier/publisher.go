package notifier

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/latoulicious/perso-wars/pkg/gacha"
	"github.com/latoulicious/perso-wars/pkg/logging"
)

// MaxMessageLength is Discord's limit for one message
const MaxMessageLength = 2000

// MessageSender is the part of *discordgo.Session used to post messages
type MessageSender interface {
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// DiscordPublisher posts messages to Discord channels
type DiscordPublisher struct {
	sender MessageSender
	logger logging.Logger
}

var _ gacha.Publisher = (*DiscordPublisher)(nil)

func NewDiscordPublisher(sender MessageSender, logger logging.Logger) *DiscordPublisher {
	return &DiscordPublisher{sender: sender, logger: logger}
}

// Publish sends message, split on line boundaries when it exceeds the limit
func (p *DiscordPublisher) Publish(ctx context.Context, channelID, message string) error {
	parts := SplitMessage(message, MaxMessageLength)
	for i, part := range parts {
		if _, err := p.sender.ChannelMessageSend(channelID, part, discordgo.WithContext(ctx)); err != nil {
			return fmt.Errorf("send part %d/%d to %s: %w", i+1, len(parts), channelID, err)
		}
	}

	p.logger.Debug("Message published", map[string]interface{}{
		"channel_id": channelID,
		"parts":      len(parts),
	})
	return nil
}

// SplitMessage cuts message into chunks of at most limit bytes, preferring
// line breaks. Lines longer than limit are cut hard.
func SplitMessage(message string, limit int) []string {
	if len(message) <= limit {
		return []string{message}
	}

	var parts []string
	var current strings.Builder
	flush := func() {
		if current.Len() > 0 {
			parts = append(parts, current.String())
			current.Reset()
		}
	}

	for _, line := range strings.Split(message, "\n") {
		for len(line) > limit {
			flush()
			parts = append(parts, line[:limit])
			line = line[limit:]
		}

		extra := len(line)
		if current.Len() > 0 {
			extra++
		}
		if current.Len()+extra > limit {
			flush()
		}
		if current.Len() > 0 {
			current.WriteByte('\n')
		}
		current.WriteString(line)
	}
	flush()
	return parts
}

// LogPublisher writes messages to the log; used when no Discord token is configured
type LogPublisher struct {
	logger logging.Logger
}

var _ gacha.Publisher = (*LogPublisher)(nil)

func NewLogPublisher(logger logging.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(_ context.Context, channelID, message string) error {
	p.logger.Info("Digest", map[string]interface{}{
		"channel_id": channelID,
		"message":    message,
	})
	return nil
}
