package telegram

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/gearstra/vtt-potion-toxicity-5e/internal/session"
	"github.com/spf13/viper"
)

// Executor runs one DSL command; *session.Session satisfies it.
type Executor interface {
	Execute(ctx context.Context, input string) (session.Result, error)
}

// Bot relays player commands from a group chat to the session and posts the
// narration back.
type Bot struct {
	client       *Client
	executor     Executor
	chatID       int64
	userMap      map[int64]string // telegram_user_id -> character name
	lastUpdateID int
	logger       *log.Logger
}

// NewBot initializes a new follower bot
func NewBot(client *Client, chatID int64, userMap map[int64]string, exec Executor, logger *log.Logger) *Bot {
	if logger == nil {
		logger = log.Default()
	}
	return &Bot{
		client:       client,
		executor:     exec,
		chatID:       chatID,
		userMap:      userMap,
		lastUpdateID: viper.GetInt("tg_last_update_id"),
		logger:       logger,
	}
}

// Start long-polls until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) {
	b.logger.Printf("Telegram bot started for chat %d", b.chatID)
	for ctx.Err() == nil {
		updates, err := b.client.GetUpdates(ctx, b.lastUpdateID+1, 25)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			b.logger.Printf("Error fetching updates: %v", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(5 * time.Second):
			}
			continue
		}

		for _, update := range updates {
			if update.UpdateID > b.lastUpdateID {
				b.lastUpdateID = update.UpdateID
				viper.Set("tg_last_update_id", b.lastUpdateID)
				_ = viper.WriteConfig() // Ignore error if config file doesn't exist yet
			}

			if update.Message != nil {
				b.handleMessage(ctx, update.Message)
			}
		}
	}
}

// Translate turns "/consume item: Potion of Healing" from a mapped player into
// "consume by: <character> item: Potion of Healing". ok is false for messages
// the bot ignores.
func (b *Bot) Translate(msg *Message) (cmd string, ok bool, err error) {
	if msg.Chat.ID != b.chatID || !strings.HasPrefix(msg.Text, "/") {
		return "", false, nil
	}

	parts := strings.Fields(strings.TrimPrefix(msg.Text, "/"))
	if len(parts) == 0 {
		return "", false, nil
	}
	// Group chats address commands as /consume@botname.
	command, _, _ := strings.Cut(parts[0], "@")

	actor, known := b.userMap[msg.From.ID]
	if !known {
		return "", true, fmt.Errorf("User %s (%d) is not registered in this campaign.", msg.From.FirstName, msg.From.ID)
	}

	return strings.TrimSpace(command + " by: " + actor + " " + strings.Join(parts[1:], " ")), true, nil
}

func (b *Bot) handleMessage(ctx context.Context, msg *Message) {
	cmd, ok, err := b.Translate(msg)
	if !ok {
		return
	}
	if err != nil {
		b.send(ctx, err.Error())
		return
	}

	result, err := b.executor.Execute(ctx, cmd)
	for _, line := range result.Lines() {
		if line != "" {
			b.send(ctx, line)
		}
	}
	if err != nil {
		b.send(ctx, fmt.Sprintf("Error: %v", err))
	}
}

func (b *Bot) send(ctx context.Context, text string) {
	if err := b.client.SendMessage(ctx, b.chatID, text); err != nil {
		b.logger.Printf("Error sending message: %v", err)
	}
}
