package email

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/ceureg/ceureg/internal/model"
)

// CertificateLink builds the per-recipient certificate download URL
// embedded in the email body and converted to an anchor in the HTML part.
func CertificateLink(baseURL string, event *model.Event, a *model.Attendee) string {
	params := url.Values{}
	params.Set("cert", a.ID)
	params.Set("email", a.Email)
	if n := a.CertNumber(); n != "" {
		params.Set("bcba", n)
	}
	if a.FirstName != "" {
		params.Set("first", a.FirstName)
	}
	if a.LastName != "" {
		params.Set("last", a.LastName)
	}
	return fmt.Sprintf("%s/event/%s?%s", strings.TrimSuffix(baseURL, "/"), event.PublicID(), params.Encode())
}

// CertificateText builds the plain-text body for a certificate email.
func CertificateText(event *model.Event, a *model.Attendee, link, registryName string) string {
	eventID := event.PublicID()
	if eventID == "" {
		eventID = "UNKNOWN"
	}
	greeting := strings.TrimSpace(fmt.Sprintf("Dear %s %s", a.FirstName, a.LastName)) + ","

	return strings.Join([]string{
		"Download your certificate:",
		link,
		"",
		greeting,
		"",
		fmt.Sprintf("Thank you for attending %q.", event.Title),
		"",
		"Your CEU certificate is now ready! Download it using the link above.",
		"",
		"Certificate Details:",
		"- Event ID: " + eventID,
		"- Certificate ID: " + a.ID,
		"- CEU Hours: " + strconv.FormatFloat(event.Hours, 'f', -1, 64),
		"- Type: " + string(event.Type),
		"",
		"If you have any questions, please don't hesitate to reach out.",
		"",
		"Best regards,",
		registryName + " Team",
	}, "\n")
}
