// Package notify delivers generated menus to users over Telegram.
package notify

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/jakubkieblesz1/Amazon-Lazy-Meal-Planner/internal/planner"
)

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramNotifier posts a formatted weekly menu to a Telegram chat.
type TelegramNotifier struct {
	api    sender
	chatID int64
	logger zerolog.Logger
}

// NewTelegramNotifier connects to the Telegram bot API. Returns nil when no
// bot token is configured, which disables notifications.
func NewTelegramNotifier(botToken string, chatID int64, logger zerolog.Logger) (*TelegramNotifier, error) {
	if botToken == "" {
		return nil, nil
	}

	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to telegram: %w", err)
	}
	logger.Info().Str("bot", bot.Self.UserName).Msg("telegram notifications enabled")

	return &TelegramNotifier{api: bot, chatID: chatID, logger: logger}, nil
}

// MenuGenerated sends the menu and its grocery list as two messages, since
// a full week rarely fits Telegram's message size limit.
func (n *TelegramNotifier) MenuGenerated(ctx context.Context, menu *planner.WeeklyMenu) error {
	menuText, groceryText := formatMenuMarkdownParts(menu)

	for _, text := range []string{menuText, groceryText} {
		if text == "" {
			continue
		}
		msg := tgbotapi.NewMessage(n.chatID, text)
		msg.ParseMode = "Markdown"
		if _, err := n.api.Send(msg); err != nil {
			return fmt.Errorf("failed to send telegram message: %w", err)
		}
	}
	return nil
}

func formatMenuMarkdownParts(menu *planner.WeeklyMenu) (string, string) {
	var mb strings.Builder
	mb.WriteString("📅 *Your Weekly Menu*\n\n")
	for _, r := range menu.Recipes {
		mb.WriteString(fmt.Sprintf("*%s*: %s (%s, %s, serves %d)\n", r.DayOfTheWeek, r.Title, r.Difficulty, r.TimeToPrepare, r.Servings))
		if r.Description != "" {
			mb.WriteString(fmt.Sprintf("_%s_\n", r.Description))
		}
		mb.WriteString("\n")
	}

	if len(menu.GroceryList) == 0 {
		return mb.String(), ""
	}

	var gb strings.Builder
	gb.WriteString("🛒 *Grocery List*\n\n")
	for _, item := range menu.GroceryList {
		gb.WriteString(fmt.Sprintf("• %s: %s (%s)\n", item.Name, item.Quantity, item.Category))
	}
	return mb.String(), gb.String()
}
