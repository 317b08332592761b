package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/pkg/errors"
	"pricetracker/internal/misc"
)

type telegramSendMessageRequest struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

type telegramResponse struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code"`
	Description string `json:"description"`
}

// TelegramSendMessage sends text to a chat through the Bot API.
func (c Client) TelegramSendMessage(ctx context.Context, chatID string, text string) error {
	reqBody, err := json.Marshal(telegramSendMessageRequest{ChatID: chatID, Text: text})
	if err != nil {
		return errors.Wrapf(err, "TelegramSendMessage: error marshalling request for ChatID: %s", chatID)
	}

	apiURL := c.TelegramAPIURL + "/bot" + c.TelegramBotToken + "/sendMessage"
	req, err := newRequest(ctx, http.MethodPost, apiURL, bytes.NewReader(reqBody))
	if err != nil {
		return errors.Wrapf(err, "TelegramSendMessage: error creating HTTP request for ChatID: %s", chatID)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.Client.Do(req)
	if err != nil {
		// the error text carries the URL, which carries the bot token
		return errors.Errorf("TelegramSendMessage: error doing request for ChatID: %s", chatID)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.Logger.Errorf("TelegramSendMessage: Error closing response body, ChatID: %s, err: %v", chatID, err)
		}
	}()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return errors.Wrapf(err, "TelegramSendMessage: error reading response body, status: %s", resp.Status)
	}
	var tgResp telegramResponse
	if err = json.Unmarshal(respBody, &tgResp); err != nil {
		return errors.Wrapf(err, "TelegramSendMessage: error unmarshalling response body, status: %s, body: %s",
			resp.Status, misc.BytesLimit(respBody, 500))
	}
	if !tgResp.OK {
		return errors.Errorf("TelegramSendMessage: sending to ChatID: %s failed, code: %d, description: %s",
			chatID, tgResp.ErrorCode, tgResp.Description)
	}
	return nil
}
