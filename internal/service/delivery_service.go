package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ceureg/ceureg/internal/cert"
	"github.com/ceureg/ceureg/internal/config"
	"github.com/ceureg/ceureg/internal/email"
	"github.com/ceureg/ceureg/internal/logger"
	"github.com/ceureg/ceureg/internal/model"
	"github.com/ceureg/ceureg/internal/repository"
)

// Delivery errors
var (
	// ErrMissingProviderID is returned when an event has neither a legacy
	// id nor a provider registration id and therefore no public
	// certificate link can be built.
	ErrMissingProviderID = errors.New("event missing legacy or provider registration id")
)

// EventStore is the read-only event lookup the orchestrator needs.
type EventStore interface {
	GetByID(ctx context.Context, id string) (*model.Event, error)
	GetByLegacyID(ctx context.Context, legacyID string) (*model.Event, error)
}

// AttendeeStore lists an event's attendees and records certificate
// issuance.
type AttendeeStore interface {
	ListByEvent(ctx context.Context, eventID string) ([]model.Attendee, error)
	MarkCertificateIssued(ctx context.Context, id string) error
}

// UserStore resolves coordinator directory entries for signature images.
type UserStore interface {
	GetByName(ctx context.Context, name string) (*model.User, error)
}

// DeliveryLedger is the durable, append-only delivery-attempt history.
type DeliveryLedger interface {
	Create(ctx context.Context, d *model.EmailDelivery) error
	ListByEvent(ctx context.Context, eventID string, status model.DeliveryStatus) ([]model.EmailDelivery, error)
	SentEmails(ctx context.Context, eventID string) ([]string, error)
}

// TokenSource provides the per-run mail provider access token.
type TokenSource interface {
	Configured() bool
	AccessToken(ctx context.Context) (string, error)
}

// DeliveryService drives certificate delivery for an event: it renders a
// personalized document per recipient, sends it by email, and records
// every attempt in the ledger. Recipients are processed strictly
// sequentially so ledger-write ordering stays deterministic and sends
// never burst against the provider.
type DeliveryService struct {
	events    EventStore
	attendees AttendeeStore
	users     UserStore
	ledger    DeliveryLedger
	tokens    TokenSource
	sender    email.Sender
	cfg       *config.Config
	log       *logger.Logger

	render    func(cert.Fields, cert.Assets) ([]byte, error)
	loadAsset func(ctx context.Context, ref string) []byte
}

// NewDeliveryService creates a new DeliveryService.
func NewDeliveryService(
	events EventStore,
	attendees AttendeeStore,
	users UserStore,
	ledger DeliveryLedger,
	tokens TokenSource,
	sender email.Sender,
	cfg *config.Config,
	log *logger.Logger,
) *DeliveryService {
	return &DeliveryService{
		events:    events,
		attendees: attendees,
		users:     users,
		ledger:    ledger,
		tokens:    tokens,
		sender:    sender,
		cfg:       cfg,
		log:       log.WithComponent("delivery"),
		render:    cert.Render,
		loadAsset: cert.LoadBytes,
	}
}

// DeliverCertificates runs one delivery batch for an event. When
// recipientEmails is nil, every attendee without a prior successful
// delivery is targeted and attendees already sent to are recorded as
// skipped; a non-nil list restricts processing to exactly those addresses
// regardless of prior history. dryRun records skipped attempts without
// rendering or sending.
//
// Per-recipient failures are absorbed into ledger rows and never interrupt
// the batch. Run-level failures (missing event, missing registration id,
// token exchange) abort the remainder of the run; everything processed
// before the failure stays durably logged, and a re-run is safe because
// already-sent recipients are skipped.
func (s *DeliveryService) DeliverCertificates(ctx context.Context, eventID string, recipientEmails []string, dryRun bool) (*model.DeliverySummary, error) {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to load event: %w", err)
	}

	attendees, err := s.attendees.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to load attendees: %w", err)
	}

	if event.PublicID() == "" {
		return nil, ErrMissingProviderID
	}

	batchID := fmt.Sprintf("%s_%s", event.ID, uuid.New().String())
	now := time.Now().UTC()
	log := s.log.WithEvent(event.ID).WithBatch(batchID)

	subject := s.cfg.App.DefaultSubject
	if event.EmailSubject != nil && *event.EmailSubject != "" {
		subject = *event.EmailSubject
	}

	// Resolve the coordinator's stored signature image once for the run.
	var signatureRef string
	if event.CoordinatorName != "" {
		user, err := s.users.GetByName(ctx, event.CoordinatorName)
		switch {
		case err == nil:
			if user.SignatureURL != nil {
				signatureRef = *user.SignatureURL
			}
		case !errors.Is(err, repository.ErrNotFound):
			return nil, fmt.Errorf("failed to look up coordinator: %w", err)
		}
	}

	var recipientSet map[string]struct{}
	if recipientEmails != nil {
		recipientSet = make(map[string]struct{}, len(recipientEmails))
		for _, e := range recipientEmails {
			recipientSet[normalizeEmail(e)] = struct{}{}
		}
	}

	// Without an explicit recipient list, one ledger read up front decides
	// who is already covered.
	alreadySent := make(map[string]struct{})
	if recipientSet == nil {
		sent, err := s.ledger.SentEmails(ctx, eventID)
		if err != nil {
			return nil, fmt.Errorf("failed to load sent deliveries: %w", err)
		}
		for _, e := range sent {
			alreadySent[normalizeEmail(e)] = struct{}{}
		}
	}

	summary := &model.DeliverySummary{BatchID: batchID}
	var accessToken string
	tokenAcquired := false

	for i := range attendees {
		attendee := &attendees[i]
		addr := normalizeEmail(attendee.Email)
		if addr == "" {
			continue
		}
		if recipientSet != nil {
			if _, ok := recipientSet[addr]; !ok {
				continue
			}
		} else if _, ok := alreadySent[addr]; ok {
			reason := model.ReasonAlreadySent
			row := &model.EmailDelivery{
				ID:         uuid.New().String(),
				EventID:    attendee.EventID,
				AttendeeID: attendee.ID,
				Email:      addr,
				Subject:    subject,
				Body:       "Skipped duplicate send.",
				Status:     model.DeliveryStatusSkipped,
				Provider:   model.EmailProviderGmail,
				Error:      &reason,
				SentAt:     now,
				BatchID:    batchID,
			}
			if err := s.ledger.Create(ctx, row); err != nil {
				return nil, fmt.Errorf("failed to log delivery: %w", err)
			}
			summary.Skipped++
			log.DeliveryAttempt(addr, string(model.DeliveryStatusSkipped), reason)
			continue
		}

		summary.Attempted++

		link := email.CertificateLink(s.cfg.App.BaseURL, event, attendee)
		textBody := email.CertificateText(event, attendee, link, s.cfg.App.Name)

		status := model.DeliveryStatusSent
		var reason string
		var messageID *string

		switch {
		case dryRun:
			status = model.DeliveryStatusSkipped
			reason = model.ReasonDryRun
			summary.Skipped++
		case !s.tokens.Configured():
			status = model.DeliveryStatusFailed
			reason = model.ReasonCredentialsMissing
			summary.Failed++
		default:
			// One token exchange per run, on the first recipient that
			// actually needs it. Exchange failure is fatal to the run.
			if !tokenAcquired {
				accessToken, err = s.tokens.AccessToken(ctx)
				if err != nil {
					return nil, err
				}
				tokenAcquired = true
			}

			msg := email.Message{
				To:         addr,
				Subject:    subject,
				TextBody:   textBody,
				HTMLBody:   email.HTMLBody(textBody, link),
				Attachment: s.renderAttachment(ctx, event, attendee, signatureRef),
			}
			result := s.sender.Send(ctx, accessToken, msg)
			if result.OK {
				messageID = &result.MessageID
				summary.Sent++
				// Best effort: a missed flag update must not undo a
				// successful send.
				if err := s.attendees.MarkCertificateIssued(ctx, attendee.ID); err != nil {
					log.Warn().Err(err).Str("attendee_id", attendee.ID).Msg("failed to mark certificate issued")
				}
			} else {
				status = model.DeliveryStatusFailed
				reason = result.Reason
				summary.Failed++
			}
		}

		row := &model.EmailDelivery{
			ID:                uuid.New().String(),
			EventID:           attendee.EventID,
			AttendeeID:        attendee.ID,
			Email:             addr,
			Subject:           subject,
			Body:              textBody,
			Link:              link,
			Status:            status,
			Provider:          model.EmailProviderGmail,
			ProviderMessageID: messageID,
			SentAt:            now,
			BatchID:           batchID,
		}
		if reason != "" {
			row.Error = &reason
		}
		if err := s.ledger.Create(ctx, row); err != nil {
			return nil, fmt.Errorf("failed to log delivery: %w", err)
		}
		log.DeliveryAttempt(addr, string(status), reason)
	}

	log.Info().
		Int("attempted", summary.Attempted).
		Int("sent", summary.Sent).
		Int("failed", summary.Failed).
		Int("skipped", summary.Skipped).
		Bool("dry_run", dryRun).
		Msg("delivery batch complete")

	return summary, nil
}

// ResolveEvent finds an event by the public identifier used in certificate
// links, trying the legacy id first and falling back to the primary id.
func (s *DeliveryService) ResolveEvent(ctx context.Context, publicID string) (*model.Event, error) {
	event, err := s.events.GetByLegacyID(ctx, publicID)
	if err == nil {
		return event, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to resolve event: %w", err)
	}
	return s.events.GetByID(ctx, publicID)
}

// Deliveries returns the ledger rows for an event, optionally filtered by
// status.
func (s *DeliveryService) Deliveries(ctx context.Context, eventID string, status model.DeliveryStatus) ([]model.EmailDelivery, error) {
	if _, err := s.events.GetByID(ctx, eventID); err != nil {
		return nil, fmt.Errorf("failed to load event: %w", err)
	}
	return s.ledger.ListByEvent(ctx, eventID, status)
}

// renderAttachment renders the recipient's certificate. A render failure
// downgrades the send to no-attachment instead of failing the recipient.
func (s *DeliveryService) renderAttachment(ctx context.Context, event *model.Event, attendee *model.Attendee, signatureRef string) *email.Attachment {
	providerName := s.cfg.App.ProviderName
	orgName := ""
	if event.OrganizationName != nil && *event.OrganizationName != "" {
		orgName = *event.OrganizationName
		providerName = orgName
	}
	modality := ""
	if event.Modality != nil {
		modality = *event.Modality
	}

	fields := cert.Fields{
		ParticipantName:  attendee.FullName(),
		CertNumber:       attendee.CertNumber(),
		CourseTitle:      event.Title,
		IssueDate:        displayDate(event.Date),
		Hours:            event.Hours,
		EthicsHours:      event.EthicsHours(),
		SupervisionHours: event.SupervisionHours(),
		Instructor:       event.InstructorName,
		ProviderName:     providerName,
		ProviderID:       event.ProviderID,
		Coordinator:      event.CoordinatorName,
		OrganizationName: orgName,
		ProviderType:     providerType(event),
		Modality:         modality,
	}
	assets := cert.Assets{
		SignatureImage: s.loadAsset(ctx, signatureRef),
		ScriptFont:     s.loadAsset(ctx, s.cfg.App.FontURL()),
	}

	doc, err := s.render(fields, assets)
	if err != nil {
		s.log.Error().
			Err(err).
			Str("attendee_id", attendee.ID).
			Msg("certificate render failed, sending without attachment")
		return nil
	}

	return &email.Attachment{
		Filename:    fmt.Sprintf("CEU_Certificate_%s.pdf", attendee.LastName),
		ContentType: "application/pdf",
		Content:     doc,
	}
}

// providerType resolves the attestation branch: the event's explicit tag
// wins, otherwise the presence of an organization name implies an
// organization provider.
func providerType(event *model.Event) model.ProviderType {
	if event.ProviderType != nil && *event.ProviderType != "" {
		return *event.ProviderType
	}
	if event.OrganizationName != nil && *event.OrganizationName != "" {
		return model.ProviderTypeOrganization
	}
	return model.ProviderTypeIndividual
}

// displayDate converts a stored event date to the long display form
// printed on certificates, passing unparseable values through unchanged.
func displayDate(date string) string {
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, date); err == nil {
			return t.Format("January 2, 2006")
		}
	}
	return date
}

func normalizeEmail(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}
