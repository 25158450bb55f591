package email

import (
	"context"
	"errors"

	"golang.org/x/oauth2"
	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const genericSendFailure = "Gmail send failed."

// GmailSender submits composed messages through the Gmail API send
// endpoint with a bearer access token.
type GmailSender struct {
	senderAddress string
	senderName    string
}

// NewGmailSender creates a GmailSender for the given sender mailbox.
func NewGmailSender(senderAddress, senderName string) *GmailSender {
	return &GmailSender{
		senderAddress: senderAddress,
		senderName:    senderName,
	}
}

// Send composes and submits one message. Transport rejections are reported
// in the result with the provider's stated reason when the error payload
// carries one.
func (g *GmailSender) Send(ctx context.Context, accessToken string, msg Message) SendResult {
	svc, err := gmail.NewService(ctx,
		option.WithTokenSource(oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken})),
	)
	if err != nil {
		return SendResult{Reason: genericSendFailure}
	}

	raw := ComposeRaw(g.senderName, g.senderAddress, msg)
	sent, err := svc.Users.Messages.Send("me", &gmail.Message{Raw: EncodeRaw(raw)}).Context(ctx).Do()
	if err != nil {
		return SendResult{Reason: sendFailureReason(err)}
	}

	return SendResult{OK: true, MessageID: sent.Id}
}

// sendFailureReason extracts the human-readable message from a Gmail API
// error payload, falling back to a generic reason.
func sendFailureReason(err error) string {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return genericSendFailure
}
