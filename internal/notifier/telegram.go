package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const telegramAPIBase = "https://api.telegram.org"

// TelegramNotifier sends messages via the Telegram Bot API.
type TelegramNotifier struct {
	BotToken string
	ChatID   string
	APIBase  string
	Client   *http.Client
}

// NewTelegramNotifier creates a notifier. An empty or unparsable proxyURL falls
// back to the proxy environment variables.
func NewTelegramNotifier(botToken, chatID, proxyURL string) *TelegramNotifier {
	return &TelegramNotifier{
		BotToken: botToken,
		ChatID:   chatID,
		APIBase:  telegramAPIBase,
		Client:   newBotClient(proxyURL),
	}
}

func newBotClient(proxyURL string) *http.Client {
	proxy := http.ProxyFromEnvironment
	if u, err := url.Parse(proxyURL); proxyURL != "" && err == nil {
		proxy = http.ProxyURL(u)
	}
	return &http.Client{
		Timeout:   30 * time.Second,
		Transport: &http.Transport{Proxy: proxy},
	}
}

func (t *TelegramNotifier) endpoint(method string) string {
	return fmt.Sprintf("%s/bot%s/%s", t.APIBase, t.BotToken, method)
}

type sendMessageRequest struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

// botResponse is the envelope every Bot API method answers with.
type botResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// call posts payload as JSON to a Bot API method and checks the ok flag.
func (t *TelegramNotifier) call(ctx context.Context, method string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%s: encode payload: %w", method, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint(method), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.Client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var out botResponse
	if err := json.Unmarshal(raw, &out); err != nil || resp.StatusCode != http.StatusOK || !out.OK {
		return fmt.Errorf("%s: status %d: %s", method, resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	return nil
}

// Send posts an HTML message to the configured chat.
func (t *TelegramNotifier) Send(ctx context.Context, text string) error {
	return t.call(ctx, "sendMessage", sendMessageRequest{ChatID: t.ChatID, Text: text, ParseMode: "HTML"})
}

// SendWithRetry makes up to maxRetries+1 attempts, doubling the pause from one
// second between them.
func (t *TelegramNotifier) SendWithRetry(ctx context.Context, text string, maxRetries int) error {
	delay := time.Second
	for attempt := 1; ; attempt++ {
		err := t.Send(ctx, text)
		if err == nil {
			return nil
		}
		if attempt > maxRetries {
			return fmt.Errorf("all %d retries exhausted: %w", maxRetries+1, err)
		}
		log.Printf("[WARN] telegram attempt %d/%d failed, next in %s: %v", attempt, maxRetries+1, delay, err)
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		delay *= 2
	}
}
