// File: notification/discord/dclient.go
package discord

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Enigmas93/IA-SINAIS-OB-SISTEMA-COMPLETO/utilities"
)

// Client sends notifications to a Discord webhook.
type Client struct {
	webhookURL string
	HTTPClient *http.Client
	logger     *utilities.Logger
}

// DiscordMessage represents the structure for a Discord webhook message.
// See: https://discord.com/developers/docs/resources/webhook#execute-webhook
type DiscordMessage struct {
	Content string         `json:"content,omitempty"`
	Embeds  []DiscordEmbed `json:"embeds,omitempty"`
}

// DiscordEmbed represents an embed object in a Discord message.
type DiscordEmbed struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Timestamp   string `json:"timestamp,omitempty"` // ISO8601 timestamp
	Color       int    `json:"color,omitempty"`     // Decimal color code
}

func NewClient(webhookURL string, logger *utilities.Logger) *Client {
	if webhookURL == "" {
		logger.LogWarn("Discord Client: Webhook URL is empty. Notifications will not be sent.")
	}
	return &Client{
		webhookURL: webhookURL,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
}

// SendMessage sends a simple text message to the configured Discord webhook.
func (c *Client) SendMessage(message string) error {
	if c.webhookURL == "" || strings.TrimSpace(message) == "" {
		return nil
	}
	return c.sendPayload(DiscordMessage{Content: message})
}

// SendEmbedMessage sends a message with one or more embeds.
func (c *Client) SendEmbedMessage(embeds ...DiscordEmbed) error {
	if c.webhookURL == "" || len(embeds) == 0 {
		return nil
	}
	return c.sendPayload(DiscordMessage{Embeds: embeds})
}

// sendPayload is an internal helper to send the marshalled JSON payload.
func (c *Client) sendPayload(payload DiscordMessage) error {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal discord message: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, c.webhookURL, bytes.NewBuffer(payloadBytes))
	if err != nil {
		return fmt.Errorf("failed to create discord request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "IASinaisBot/1.0")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send discord message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	bodyBytes, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		return fmt.Errorf("discord API error: %s, failed to read response body", resp.Status)
	}
	return fmt.Errorf("discord API error: %s, response: %s", resp.Status, string(bodyBytes))
}

// NotifyTradeSettled sends a formatted notification for a settled trade. Send
// failures are logged, never surfaced to the trading loop.
func (c *Client) NotifyTradeSettled(rec utilities.TradeRecord) {
	if c.webhookURL == "" {
		return
	}

	var title string
	var color int
	switch rec.Result {
	case utilities.ResultWin:
		title = fmt.Sprintf("✅ WIN: %s %s", rec.Asset, strings.ToUpper(string(rec.Direction)))
		color = 3066993 // Green
	case utilities.ResultLoss:
		title = fmt.Sprintf("❌ LOSS: %s %s", rec.Asset, strings.ToUpper(string(rec.Direction)))
		color = 15158332 // Red
	default:
		title = fmt.Sprintf("➖ TIE: %s %s", rec.Asset, strings.ToUpper(string(rec.Direction)))
		color = 3447003 // Blue
	}

	description := fmt.Sprintf(
		"**Amount**: `%.2f`\n"+
			"**Profit**: `%.2f`\n"+
			"**Entry**: `%.5f`  **Exit**: `%.5f`\n"+
			"**Confidence**: `%.0f%%`\n"+
			"**Martingale Level**: `%d`\n"+
			"**Session**: %s",
		rec.Amount, rec.Profit, rec.EntryPrice, rec.ExitPrice,
		rec.SignalConfidence*100, rec.MartingaleLevel, rec.SessionType,
	)

	embed := DiscordEmbed{
		Title:       title,
		Description: description,
		Color:       color,
		Timestamp:   rec.Timestamp.Format(time.RFC3339),
	}
	// The webhook POST must not hold up the trading loop between trades.
	go func() {
		if err := c.SendEmbedMessage(embed); err != nil {
			c.logger.LogError("Discord: failed to notify trade %s: %v", rec.ID, err)
		}
	}()
}

// NotifySessionEvent sends a short session lifecycle message.
func (c *Client) NotifySessionEvent(userID int64, event, detail string) {
	if c.webhookURL == "" {
		return
	}
	message := fmt.Sprintf("🤖 Bot %d: %s", userID, event)
	if detail != "" {
		message += " (" + detail + ")"
	}
	go func() {
		if err := c.SendMessage(message); err != nil {
			c.logger.LogError("Discord: failed to notify session event %q for user %d: %v", event, userID, err)
		}
	}()
}
