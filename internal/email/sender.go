package email

import "context"

// Sender submits an already-composed message through a transactional mail
// provider using a short-lived bearer token. Implementations report
// ordinary send failures in the result, never as errors.
type Sender interface {
	Send(ctx context.Context, accessToken string, msg Message) SendResult
}

// Message represents an email message to be sent.
type Message struct {
	To         string      // recipient email address
	Subject    string      // email subject
	TextBody   string      // plain-text body
	HTMLBody   string      // HTML body
	Attachment *Attachment // optional binary attachment
}

// Attachment is a binary document attached to a message.
type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

// SendResult is the structured outcome of one send call.
type SendResult struct {
	OK        bool
	MessageID string // provider message id, set on success
	Reason    string // human-readable failure reason, set on failure
}
