package email

import (
	"encoding/base64"
	"fmt"
	"html"
	"strings"
	"time"
)

// ComposeRaw builds the full MIME message for a certificate email: a
// multipart/mixed envelope wrapping a multipart/alternative text+HTML pair
// and, when present, a base64 document attachment. The boundary is derived
// from the current time so it cannot collide with message content.
func ComposeRaw(fromName, fromEmail string, msg Message) string {
	boundary := fmt.Sprintf("boundary_%d", time.Now().UnixNano())
	fromHeader := fromEmail
	if fromName != "" {
		fromHeader = fmt.Sprintf("%s <%s>", fromName, fromEmail)
	}

	parts := []string{
		"From: " + fromHeader,
		"To: " + msg.To,
		"Subject: " + msg.Subject,
		"MIME-Version: 1.0",
		`Content-Type: multipart/mixed; boundary="` + boundary + `"`,
		"",
		"--" + boundary,
		`Content-Type: multipart/alternative; boundary="alt_` + boundary + `"`,
		"",
		"--alt_" + boundary,
		"Content-Type: text/plain; charset=UTF-8",
		"",
		msg.TextBody,
		"",
		"--alt_" + boundary,
		"Content-Type: text/html; charset=UTF-8",
		"",
		msg.HTMLBody,
		"",
		"--alt_" + boundary + "--",
	}

	if msg.Attachment != nil {
		parts = append(parts,
			"",
			"--"+boundary,
			fmt.Sprintf(`Content-Type: %s; name="%s"`, msg.Attachment.ContentType, msg.Attachment.Filename),
			fmt.Sprintf(`Content-Disposition: attachment; filename="%s"`, msg.Attachment.Filename),
			"Content-Transfer-Encoding: base64",
			"",
			base64.StdEncoding.EncodeToString(msg.Attachment.Content),
		)
	}

	parts = append(parts, "", "--"+boundary+"--")
	return strings.Join(parts, "\r\n")
}

// EncodeRaw encodes a composed MIME message the way the Gmail send
// endpoint expects: URL-safe base64 without padding.
func EncodeRaw(raw string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// HTMLBody derives the HTML part from the plain-text body: escape, turn
// the single certificate link into an anchor, then convert newlines to
// line breaks.
func HTMLBody(text, link string) string {
	escaped := html.EscapeString(text)
	if link != "" {
		escapedLink := html.EscapeString(link)
		anchor := fmt.Sprintf(`<a href="%s">Download Certificate</a><br/>%s`, escapedLink, escapedLink)
		escaped = strings.Replace(escaped, escapedLink, anchor, 1)
	}
	body := strings.ReplaceAll(escaped, "\n", "<br/>")
	return `<div style="font-family: Arial, sans-serif; line-height: 1.5;">` + body + `</div>`
}
