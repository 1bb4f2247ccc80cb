package bot

import (
	"context"
	"fmt"
	"hash/fnv"
	"strconv"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// shardBuffer is the per-worker queue depth.
const shardBuffer = 64

// Run handles updates until ctx is cancelled or updates is closed.
// Every chat is pinned to one worker so its messages are handled in order.
func (b *Bot) Run(ctx context.Context, updates <-chan tgbotapi.Update) error {
	// queued updates are still handled after ctx is cancelled
	handleCtx := context.WithoutCancel(ctx)

	shards := make([]chan tgbotapi.Update, b.config.Workers)
	var wg sync.WaitGroup
	for i := range shards {
		shards[i] = make(chan tgbotapi.Update, shardBuffer)
		wg.Add(1)
		go func(in <-chan tgbotapi.Update) {
			defer wg.Done()
			for update := range in {
				b.HandleUpdate(handleCtx, update)
			}
		}(shards[i])
	}

	defer func() {
		for _, ch := range shards {
			close(ch)
		}
		wg.Wait()
		b.logger.Info("update workers stopped")
	}()

	b.logger.Info("handling updates", "workers", b.config.Workers)
	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			shard := shards[shardFor(update, len(shards))]
			select {
			case shard <- update:
			case <-ctx.Done():
				return nil
			}
		}
	}
}

// Poll drops any webhook and long-polls getUpdates, handling updates until ctx is done.
func (b *Bot) Poll(ctx context.Context) error {
	// pending updates are dropped on start
	if _, err := b.api.Request(tgbotapi.DeleteWebhookConfig{DropPendingUpdates: true}); err != nil {
		return fmt.Errorf("delete webhook: %w", err)
	}

	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = b.config.PollTimeout
	updates := b.api.GetUpdatesChan(cfg)

	stop := context.AfterFunc(ctx, b.api.StopReceivingUpdates)
	defer stop()

	b.logger.Info("long polling started", "timeout", cfg.Timeout)
	return b.Run(ctx, updates)
}

// SetWebhook registers url as the update endpoint with Telegram.
func (b *Bot) SetWebhook(url string) error {
	wh, err := tgbotapi.NewWebhook(url)
	if err != nil {
		return fmt.Errorf("build webhook config: %w", err)
	}
	wh.DropPendingUpdates = true

	resp, err := b.api.Request(wh)
	if err != nil {
		return fmt.Errorf("set webhook: %w", err)
	}
	if !resp.Ok {
		return fmt.Errorf("set webhook: %s", resp.Description)
	}
	return nil
}

func shardFor(update tgbotapi.Update, n int) int {
	if n <= 1 {
		return 0
	}
	var chatID int64
	if chat := update.FromChat(); chat != nil {
		chatID = chat.ID
	}
	h := fnv.New32a()
	h.Write([]byte(strconv.FormatInt(chatID, 10)))
	return int(h.Sum32() % uint32(n))
}
