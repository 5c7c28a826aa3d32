package notifier

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"
)

// CommandHandler is called when a user command is received.
type CommandHandler func(ctx context.Context, command string) string

// StartPolling begins long-polling for Telegram commands. Blocks until ctx is cancelled.
// Only messages from the configured chat are handled.
func (t *TelegramNotifier) StartPolling(ctx context.Context, handler CommandHandler) {
	offset := int64(0)
	client := &http.Client{Timeout: 35 * time.Second, Transport: t.Client.Transport}

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("telegram polling stopped")
			return
		default:
		}

		apiURL := fmt.Sprintf("%s/bot%s/getUpdates?offset=%d&timeout=30", t.APIURL, t.BotToken, offset)
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
		if err != nil {
			log.Error().Err(err).Msg("create polling request")
			sleepCtx(ctx, 5*time.Second)
			continue
		}

		resp, err := client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Warn().Err(err).Msg("polling request failed")
			sleepCtx(ctx, 5*time.Second)
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			log.Warn().Err(err).Msg("read polling response")
			continue
		}

		offset = t.dispatch(ctx, body, offset, handler)
	}
}

// dispatch handles every update in a getUpdates response and returns the
// next offset.
func (t *TelegramNotifier) dispatch(ctx context.Context, body []byte, offset int64, handler CommandHandler) int64 {
	if !gjson.GetBytes(body, "ok").Bool() {
		log.Warn().Str("body", string(body)).Msg("telegram getUpdates not ok")
		return offset
	}
	for _, update := range gjson.GetBytes(body, "result").Array() {
		offset = update.Get("update_id").Int() + 1
		text := strings.TrimSpace(update.Get("message.text").String())
		if text == "" {
			continue
		}
		if chat := update.Get("message.chat.id").String(); chat != "" && chat != t.ChatID {
			log.Warn().Str("chat", chat).Msg("ignoring command from unknown chat")
			continue
		}
		log.Info().Str("command", text).Msg("received command")
		if reply := handler(ctx, text); reply != "" {
			if err := t.Send(ctx, reply); err != nil {
				log.Error().Err(err).Msg("send reply")
			}
		}
	}
	return offset
}

func sleepCtx(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
