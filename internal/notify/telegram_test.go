package notify

import (
	"context"
	"errors"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/jakubkieblesz1/Amazon-Lazy-Meal-Planner/internal/planner"
)

type fakeSender struct {
	sent []tgbotapi.MessageConfig
	err  error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, msg)
	}
	return tgbotapi.Message{}, f.err
}

func sampleMenu() *planner.WeeklyMenu {
	return &planner.WeeklyMenu{
		Recipes: []planner.Recipe{
			{
				DayOfTheWeek:  "Monday",
				Title:         "Tomato Soup",
				Description:   "A light soup",
				Difficulty:    "Easy",
				TimeToPrepare: "25 minutes",
				Servings:      2,
				Ingredients:   []string{"Tomato"},
				Instructions:  []string{"Simmer"},
			},
		},
		GroceryList: []planner.GroceryItem{
			{Name: "Basil", Quantity: "1 bunch", Category: "Vegetables"},
		},
	}
}

func TestMenuGenerated(t *testing.T) {
	sender := &fakeSender{}
	n := &TelegramNotifier{api: sender, chatID: 42, logger: zerolog.Nop()}

	if err := n.MenuGenerated(context.Background(), sampleMenu()); err != nil {
		t.Fatalf("MenuGenerated failed: %v", err)
	}

	if len(sender.sent) != 2 {
		t.Fatalf("Expected 2 messages (menu + grocery list), got %d", len(sender.sent))
	}
	if !strings.Contains(sender.sent[0].Text, "Tomato Soup") {
		t.Error("Expected recipe title in menu message")
	}
	if !strings.Contains(sender.sent[1].Text, "Basil") {
		t.Error("Expected grocery item in list message")
	}
	for _, msg := range sender.sent {
		if msg.ChatID != 42 {
			t.Errorf("Expected chat ID 42, got %d", msg.ChatID)
		}
		if msg.ParseMode != "Markdown" {
			t.Errorf("Expected Markdown parse mode, got %q", msg.ParseMode)
		}
	}
}

func TestMenuGeneratedEmptyGroceryList(t *testing.T) {
	sender := &fakeSender{}
	n := &TelegramNotifier{api: sender, chatID: 42, logger: zerolog.Nop()}

	menu := sampleMenu()
	menu.GroceryList = nil
	if err := n.MenuGenerated(context.Background(), menu); err != nil {
		t.Fatalf("MenuGenerated failed: %v", err)
	}
	if len(sender.sent) != 1 {
		t.Errorf("Expected only the menu message, got %d messages", len(sender.sent))
	}
}

func TestMenuGeneratedSendError(t *testing.T) {
	sender := &fakeSender{err: errors.New("telegram down")}
	n := &TelegramNotifier{api: sender, chatID: 42, logger: zerolog.Nop()}

	if err := n.MenuGenerated(context.Background(), sampleMenu()); err == nil {
		t.Error("Expected an error when sending fails")
	}
}

func TestNewTelegramNotifierDisabled(t *testing.T) {
	n, err := NewTelegramNotifier("", 0, zerolog.Nop())
	if err != nil {
		t.Fatalf("Expected no error for empty token, got %v", err)
	}
	if n != nil {
		t.Error("Expected a nil notifier when no token is configured")
	}
}
