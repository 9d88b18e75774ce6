package client

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/pkg/errors"

	"auctionhouse/internal/misc"
)

const (
	fcmSendURL     = "https://fcm.googleapis.com/fcm/send"
	fcmTopicPrefix = "/topics/user_"
)

var ErrFCM = errors.New("FCM error")

type FCMSendResponse struct {
	MessageID int64  `json:"message_id"`
	Error     string `json:"error"`
}

type FCMSendRequest struct {
	Notification FCMNotification `json:"notification"`
	Data         FCMData         `json:"data"`
	To           string          `json:"to"`
}

type FCMNotification struct {
	Title       string `json:"title"`
	Body        string `json:"body"`
	ClickAction string `json:"click_action"`
	Sound       string `json:"sound"`
}

type FCMData struct {
	Recipient string `json:"recipient"`
}

// FCMTopic is the topic a user's devices subscribe to. Characters FCM does not allow in topic
// names are replaced with '_'.
func FCMTopic(user string) string {
	return fcmTopicPrefix + strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case strings.ContainsRune("-_.~%", r):
			return r
		}
		return '_'
	}, user)
}

// Send pushes a notification to every device subscribed to the recipient's topic.
func (c Client) Send(ctx context.Context, recipient, subject, body string) error {
	fcmReq := FCMSendRequest{
		Notification: FCMNotification{
			Title:       misc.StringLimit(subject, 100),
			Body:        misc.StringLimit(body, 500),
			ClickAction: "FLUTTER_NOTIFICATION_CLICK",
			Sound:       "default",
		},
		Data: FCMData{Recipient: recipient},
		To:   FCMTopic(recipient),
	}
	resp, err := c.FCMSendNotification(ctx, fcmReq)
	if err != nil {
		return err
	}
	c.Logger.Debugf("Send: Sent notification to %s, message ID: %d", fcmReq.To, resp.MessageID)
	return nil
}

func (c Client) FCMSendNotification(ctx context.Context, fcmReqBody FCMSendRequest) (FCMSendResponse, error) {
	if c.FCMKey == "" {
		return FCMSendResponse{}, errors.Wrap(ErrFCM, "FCMSendNotification: no FCM key configured")
	}
	reqBody, err := json.Marshal(fcmReqBody)
	if err != nil {
		return FCMSendResponse{}, errors.Wrapf(err, "FCMSendNotification: FCMSendRequest JSON marshalling error, req: %+v", fcmReqBody)
	}

	url := c.FCMURL
	if url == "" {
		url = fcmSendURL
	}
	req, err := newRequest(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return FCMSendResponse{}, errors.Wrapf(err, "FCMSendNotification: error creating HTTP request from body: %s", reqBody)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "key="+c.FCMKey)

	resp, respBody, err := c.do(req, "FCMSendNotification")
	if err != nil {
		return FCMSendResponse{}, errors.Wrapf(err, "FCMSendNotification: error doing request to: %s", url)
	}
	if resp.StatusCode != http.StatusOK {
		return FCMSendResponse{}, errors.Wrapf(ErrFCM, "FCMSendNotification: status: %s, body: %s",
			resp.Status, misc.BytesLimit(respBody, 500))
	}

	fcmSendResp := FCMSendResponse{}
	if err = json.Unmarshal(respBody, &fcmSendResp); err != nil {
		return fcmSendResp, errors.Wrapf(err,
			"FCMSendNotification: error unmarshalling FCMSendAPI response body: %s", misc.BytesLimit(respBody, 500))
	}
	if fcmSendResp.Error != "" {
		return fcmSendResp, errors.Wrapf(ErrFCM, "FCMSendNotification: %s, to: %s", fcmSendResp.Error, fcmReqBody.To)
	}
	return fcmSendResp, nil
}
