package bot

import (
	"context"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_PreservesPerChatOrder(t *testing.T) {
	tb := newTestBot(t)
	tb.config.Workers = 4

	updates := make(chan tgbotapi.Update)
	done := make(chan error, 1)
	go func() { done <- tb.Run(context.Background(), updates) }()

	chats := []int64{1, 2, 3, 4, 5, 6}
	for _, chatID := range chats {
		updates <- textUpdate(chatID, chatID, ButtonAddExpense)
	}
	for _, chatID := range chats {
		updates <- textUpdate(chatID, chatID, "Еда")
	}
	for _, chatID := range chats {
		updates <- textUpdate(chatID, chatID, "10")
	}
	close(updates)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not return after updates were closed")
	}

	perChat := map[int64][]string{}
	for _, m := range tb.api.messages() {
		perChat[m.ChatID] = append(perChat[m.ChatID], m.Text)
	}
	for _, chatID := range chats {
		assert.Equal(t,
			[]string{textChooseExpenseCategory, textEnterAmount, textSaved, textMenu},
			perChat[chatID], "chat %d", chatID)
	}
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	tb := newTestBot(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- tb.Run(ctx, make(chan tgbotapi.Update)) }()

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestPoll(t *testing.T) {
	tb := newTestBot(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- tb.Poll(ctx) }()

	tb.api.updates <- textUpdate(testChat, testUser, "/start")
	require.Eventually(t, func() bool {
		return len(tb.api.messages()) == 1
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Poll did not return after cancel")
	}

	tb.api.mu.Lock()
	defer tb.api.mu.Unlock()
	require.NotEmpty(t, tb.api.requests)
	del, ok := tb.api.requests[0].(tgbotapi.DeleteWebhookConfig)
	require.True(t, ok, "first request should delete the webhook, got %T", tb.api.requests[0])
	assert.True(t, del.DropPendingUpdates)
}

func TestSetWebhook(t *testing.T) {
	tb := newTestBot(t)

	require.NoError(t, tb.SetWebhook("https://bot.example.com/telegram/secret"))

	tb.api.mu.Lock()
	defer tb.api.mu.Unlock()
	require.Len(t, tb.api.requests, 1)
	wh, ok := tb.api.requests[0].(tgbotapi.WebhookConfig)
	require.True(t, ok)
	assert.Equal(t, "bot.example.com", wh.URL.Host)
	assert.Equal(t, "/telegram/secret", wh.URL.Path)
	assert.True(t, wh.DropPendingUpdates)
}

func TestSetWebhook_InvalidURL(t *testing.T) {
	tb := newTestBot(t)
	assert.Error(t, tb.SetWebhook("://bad"))
}

func TestShardFor(t *testing.T) {
	update := textUpdate(777, 1, "hi")

	assert.Equal(t, 0, shardFor(update, 1))
	assert.Equal(t, 0, shardFor(update, 0))

	first := shardFor(update, 8)
	assert.GreaterOrEqual(t, first, 0)
	assert.Less(t, first, 8)
	for range 10 {
		assert.Equal(t, first, shardFor(textUpdate(777, 2, "again"), 8))
	}

	// updates without a chat still land on a valid shard
	assert.Equal(t, shardFor(tgbotapi.Update{}, 8), shardFor(tgbotapi.Update{}, 8))
}
