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

const fcmSendURL = "https://fcm.googleapis.com/fcm/send"

type FCMSendResponse struct {
	MessageID int64           `json:"message_id"`
	Success   int             `json:"success"`
	Failure   int             `json:"failure"`
	Error     string          `json:"error"`
	Results   []FCMSendResult `json:"results"`
}

type FCMSendResult struct {
	Error *string `json:"error"`
}

type FCMSendRequest struct {
	To           string          `json:"to"`
	Notification FCMNotification `json:"notification"`
	Data         FCMData         `json:"data"`
}

type FCMNotification struct {
	Title       string `json:"title"`
	Body        string `json:"body"`
	ClickAction string `json:"click_action"`
	Sound       string `json:"sound"`
}

type FCMData struct {
	UserID string `json:"user_id"`
}

// FCMTopic is the topic a user's devices subscribe to.
func FCMTopic(userID string) string {
	return "/topics/user_" + userID
}

func (c Client) FCMSendNotification(ctx context.Context, fcmReqBody FCMSendRequest) (FCMSendResponse, error) {
	reqBody, err := json.Marshal(fcmReqBody)
	if err != nil {
		return FCMSendResponse{}, errors.Wrapf(err, "FCMSendNotification: FCMSendRequest JSON marshalling error, req: %+v", fcmReqBody)
	}

	sendURL := c.FCMURL
	if sendURL == "" {
		sendURL = fcmSendURL
	}
	req, err := newRequest(ctx, http.MethodPost, sendURL, bytes.NewReader(reqBody))
	if err != nil {
		return FCMSendResponse{}, errors.Wrapf(err, "FCMSendNotification: error creating HTTP request from body: %s", reqBody)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "key="+c.FCMKey)

	resp, err := c.Client.Do(req)
	if err != nil {
		return FCMSendResponse{}, errors.Wrapf(err, "FCMSendNotification: error doing request to: %s", sendURL)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.Logger.Errorf("FCMSendNotification: Error closing response body, err: %v", err)
		}
	}()

	fcmSendResp := FCMSendResponse{}
	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 300000))
	if err != nil {
		return fcmSendResp, errors.Wrapf(err, "FCMSendNotification: error reading FCMSendAPI response body, status: %s", resp.Status)
	}
	if resp.StatusCode != http.StatusOK {
		return fcmSendResp, errors.Errorf("FCMSendNotification: FCMSendAPI responded with status: %s, body: %s",
			resp.Status, misc.BytesLimit(respBody, 500))
	}
	err = json.Unmarshal(respBody, &fcmSendResp)
	return fcmSendResp, errors.Wrapf(err,
		"FCMSendNotification: error unmarshalling FCMSendAPI response body: %s", misc.BytesLimit(respBody, 500))
}

func (c Client) fcmNotifyUser(ctx context.Context, userID string, message string) error {
	fcmReq := FCMSendRequest{
		To: FCMTopic(userID),
		Notification: FCMNotification{
			Title:       "Price update",
			Body:        message,
			ClickAction: "FLUTTER_NOTIFICATION_CLICK",
			Sound:       "default",
		},
		Data: FCMData{UserID: userID},
	}
	fcmResp, err := c.FCMSendNotification(ctx, fcmReq)
	if err != nil {
		return err
	}
	if fcmResp.Failure > 0 || fcmResp.Error != "" {
		return errors.Errorf("FCM delivery to %s failed, failure: %d, error: %s", fcmReq.To, fcmResp.Failure, fcmResp.Error)
	}
	c.Logger.Debugf("fcmNotifyUser: Sent to %s, MessageID: %d", fcmReq.To, fcmResp.MessageID)
	return nil
}
