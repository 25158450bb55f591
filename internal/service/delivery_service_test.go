package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ceureg/ceureg/internal/cert"
	"github.com/ceureg/ceureg/internal/config"
	"github.com/ceureg/ceureg/internal/email"
	"github.com/ceureg/ceureg/internal/logger"
	"github.com/ceureg/ceureg/internal/model"
	"github.com/ceureg/ceureg/internal/repository"
)

type fakeEventStore struct {
	events map[string]*model.Event
}

func (s *fakeEventStore) GetByID(_ context.Context, id string) (*model.Event, error) {
	if event, ok := s.events[id]; ok {
		return event, nil
	}
	return nil, repository.ErrNotFound
}

func (s *fakeEventStore) GetByLegacyID(_ context.Context, legacyID string) (*model.Event, error) {
	for _, event := range s.events {
		if event.LegacyID != nil && *event.LegacyID == legacyID {
			return event, nil
		}
	}
	return nil, repository.ErrNotFound
}

type fakeAttendeeStore struct {
	attendees []model.Attendee
	issued    []string
}

func (s *fakeAttendeeStore) ListByEvent(_ context.Context, eventID string) ([]model.Attendee, error) {
	var out []model.Attendee
	for _, a := range s.attendees {
		if a.EventID == eventID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *fakeAttendeeStore) MarkCertificateIssued(_ context.Context, id string) error {
	s.issued = append(s.issued, id)
	return nil
}

type fakeUserStore struct {
	users map[string]*model.User
}

func (s *fakeUserStore) GetByName(_ context.Context, name string) (*model.User, error) {
	if user, ok := s.users[name]; ok {
		return user, nil
	}
	return nil, repository.ErrNotFound
}

type fakeLedger struct {
	rows []model.EmailDelivery
}

func (l *fakeLedger) Create(_ context.Context, d *model.EmailDelivery) error {
	l.rows = append(l.rows, *d)
	return nil
}

func (l *fakeLedger) ListByEvent(_ context.Context, eventID string, status model.DeliveryStatus) ([]model.EmailDelivery, error) {
	var out []model.EmailDelivery
	for _, row := range l.rows {
		if row.EventID != eventID {
			continue
		}
		if status != "" && row.Status != status {
			continue
		}
		out = append(out, row)
	}
	return out, nil
}

func (l *fakeLedger) SentEmails(_ context.Context, eventID string) ([]string, error) {
	seen := make(map[string]struct{})
	var out []string
	for _, row := range l.rows {
		if row.EventID != eventID || row.Status != model.DeliveryStatusSent {
			continue
		}
		if _, ok := seen[row.Email]; ok {
			continue
		}
		seen[row.Email] = struct{}{}
		out = append(out, row.Email)
	}
	return out, nil
}

type fakeTokens struct {
	configured bool
	token      string
	err        error
	calls      int
}

func (f *fakeTokens) Configured() bool { return f.configured }

func (f *fakeTokens) AccessToken(context.Context) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.token, nil
}

type fakeSender struct {
	tokens   []string
	messages []email.Message
	failWith map[string]string // recipient -> failure reason
}

func (f *fakeSender) Send(_ context.Context, accessToken string, msg email.Message) email.SendResult {
	f.tokens = append(f.tokens, accessToken)
	f.messages = append(f.messages, msg)
	if reason, ok := f.failWith[msg.To]; ok {
		return email.SendResult{Reason: reason}
	}
	return email.SendResult{OK: true, MessageID: "msg-" + msg.To}
}

func strPtr(s string) *string { return &s }

func deliveryTestEvent() *model.Event {
	return &model.Event{
		ID:              "evt_1",
		LegacyID:        strPtr("BCBA-2024-001"),
		Title:           "Ethics in Behavior Analysis",
		Date:            "2024-01-15",
		Hours:           1.5,
		Type:            model.EventTypeEthics,
		InstructorName:  "Dr. Alex Rivera",
		CoordinatorName: "Sam Patel",
		ProviderID:      "OP-12-3456",
	}
}

func deliveryTestAttendees() []model.Attendee {
	return []model.Attendee{
		{ID: "att_1", EventID: "evt_1", FirstName: "Jane", LastName: "Doe", Email: "jane@example.com", BCBANumber: strPtr("1-23-45678")},
		{ID: "att_2", EventID: "evt_1", FirstName: "John", LastName: "Smith", Email: "john@example.com"},
	}
}

type deliveryFixture struct {
	svc       *DeliveryService
	events    *fakeEventStore
	attendees *fakeAttendeeStore
	ledger    *fakeLedger
	tokens    *fakeTokens
	sender    *fakeSender
	assets    []string
}

func newDeliveryFixture(event *model.Event, attendees []model.Attendee) *deliveryFixture {
	cfg := &config.Config{
		App: config.AppConfig{
			BaseURL:        "https://registry.example.com",
			Name:           "CEU Registry",
			ProviderName:   "CEU Registry",
			DefaultSubject: "Your CEU Certificate is Ready!",
		},
	}

	f := &deliveryFixture{
		events:    &fakeEventStore{events: map[string]*model.Event{}},
		attendees: &fakeAttendeeStore{attendees: attendees},
		ledger:    &fakeLedger{},
		tokens:    &fakeTokens{configured: true, token: "ya29.test"},
		sender:    &fakeSender{},
	}
	if event != nil {
		f.events.events[event.ID] = event
	}

	f.svc = &DeliveryService{
		events:    f.events,
		attendees: f.attendees,
		users: &fakeUserStore{users: map[string]*model.User{
			"Sam Patel": {ID: "usr_1", Name: "Sam Patel", SignatureURL: strPtr("https://registry.example.com/sig.png")},
		}},
		ledger: f.ledger,
		tokens: f.tokens,
		sender: f.sender,
		cfg:    cfg,
		log:    logger.New("disabled", "json"),
		render: func(cert.Fields, cert.Assets) ([]byte, error) {
			return []byte("%PDF-1.4 test"), nil
		},
		loadAsset: func(_ context.Context, ref string) []byte {
			f.assets = append(f.assets, ref)
			return nil
		},
	}
	return f
}

func TestDeliverCertificates(t *testing.T) {
	f := newDeliveryFixture(deliveryTestEvent(), deliveryTestAttendees())

	summary, err := f.svc.DeliverCertificates(context.Background(), "evt_1", nil, false)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Attempted)
	assert.Equal(t, 2, summary.Sent)
	assert.Equal(t, 0, summary.Failed)
	assert.Equal(t, 0, summary.Skipped)
	assert.True(t, strings.HasPrefix(summary.BatchID, "evt_1_"))

	require.Len(t, f.ledger.rows, 2)
	first := f.ledger.rows[0]
	assert.Equal(t, "jane@example.com", first.Email)
	assert.Equal(t, model.DeliveryStatusSent, first.Status)
	assert.Equal(t, "gmail", first.Provider)
	assert.Equal(t, "Your CEU Certificate is Ready!", first.Subject)
	assert.Equal(t, summary.BatchID, first.BatchID)
	assert.Nil(t, first.Error)
	require.NotNil(t, first.ProviderMessageID)
	assert.Equal(t, "msg-jane@example.com", *first.ProviderMessageID)
	assert.Contains(t, first.Link, "/event/BCBA-2024-001?")
	assert.Contains(t, first.Body, "Dear Jane Doe,")

	assert.Equal(t, []string{"att_1", "att_2"}, f.attendees.issued)

	require.Len(t, f.sender.messages, 2)
	msg := f.sender.messages[0]
	assert.Equal(t, "jane@example.com", msg.To)
	require.NotNil(t, msg.Attachment)
	assert.Equal(t, "CEU_Certificate_Doe.pdf", msg.Attachment.Filename)
	assert.Equal(t, "application/pdf", msg.Attachment.ContentType)
	assert.Contains(t, msg.HTMLBody, "Download Certificate")
}

func TestDeliverCertificatesSingleTokenExchange(t *testing.T) {
	f := newDeliveryFixture(deliveryTestEvent(), deliveryTestAttendees())

	_, err := f.svc.DeliverCertificates(context.Background(), "evt_1", nil, false)
	require.NoError(t, err)

	assert.Equal(t, 1, f.tokens.calls)
	assert.Equal(t, []string{"ya29.test", "ya29.test"}, f.sender.tokens)
}

func TestDeliverCertificatesSkipsAlreadySent(t *testing.T) {
	f := newDeliveryFixture(deliveryTestEvent(), deliveryTestAttendees())
	f.ledger.rows = append(f.ledger.rows, model.EmailDelivery{
		ID: "prior", EventID: "evt_1", AttendeeID: "att_1",
		Email: "jane@example.com", Status: model.DeliveryStatusSent, BatchID: "evt_1_0",
	})

	summary, err := f.svc.DeliverCertificates(context.Background(), "evt_1", nil, false)
	require.NoError(t, err)

	// The pre-filtered duplicate is excluded from the attempted count.
	assert.Equal(t, 1, summary.Attempted)
	assert.Equal(t, 1, summary.Sent)
	assert.Equal(t, 1, summary.Skipped)

	require.Len(t, f.ledger.rows, 3)
	skip := f.ledger.rows[1]
	assert.Equal(t, "jane@example.com", skip.Email)
	assert.Equal(t, model.DeliveryStatusSkipped, skip.Status)
	assert.Equal(t, "Skipped duplicate send.", skip.Body)
	assert.Empty(t, skip.Link)
	require.NotNil(t, skip.Error)
	assert.Equal(t, model.ReasonAlreadySent, *skip.Error)

	require.Len(t, f.sender.messages, 1)
	assert.Equal(t, "john@example.com", f.sender.messages[0].To)
}

func TestDeliverCertificatesIdempotentRerun(t *testing.T) {
	f := newDeliveryFixture(deliveryTestEvent(), deliveryTestAttendees())
	ctx := context.Background()

	first, err := f.svc.DeliverCertificates(ctx, "evt_1", nil, false)
	require.NoError(t, err)
	assert.Equal(t, 2, first.Sent)

	second, err := f.svc.DeliverCertificates(ctx, "evt_1", nil, false)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Attempted)
	assert.Equal(t, 0, second.Sent)
	assert.Equal(t, 2, second.Skipped)

	// No additional sends, only skip records appended.
	assert.Len(t, f.sender.messages, 2)
	assert.Len(t, f.ledger.rows, 4)
	assert.NotEqual(t, first.BatchID, second.BatchID)
}

func TestDeliverCertificatesDryRun(t *testing.T) {
	f := newDeliveryFixture(deliveryTestEvent(), deliveryTestAttendees())

	summary, err := f.svc.DeliverCertificates(context.Background(), "evt_1", nil, true)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Attempted)
	assert.Equal(t, 0, summary.Sent)
	assert.Equal(t, 2, summary.Skipped)

	assert.Empty(t, f.sender.messages)
	assert.Equal(t, 0, f.tokens.calls)
	assert.Empty(t, f.attendees.issued)

	require.Len(t, f.ledger.rows, 2)
	for _, row := range f.ledger.rows {
		assert.Equal(t, model.DeliveryStatusSkipped, row.Status)
		require.NotNil(t, row.Error)
		assert.Equal(t, model.ReasonDryRun, *row.Error)
		assert.NotEmpty(t, row.Link)
		assert.NotEmpty(t, row.Body)
	}
}

func TestDeliverCertificatesCredentialsMissing(t *testing.T) {
	f := newDeliveryFixture(deliveryTestEvent(), deliveryTestAttendees())
	f.tokens.configured = false

	summary, err := f.svc.DeliverCertificates(context.Background(), "evt_1", nil, false)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Attempted)
	assert.Equal(t, 2, summary.Failed)
	assert.Equal(t, 0, f.tokens.calls)
	assert.Empty(t, f.sender.messages)

	require.Len(t, f.ledger.rows, 2)
	for _, row := range f.ledger.rows {
		assert.Equal(t, model.DeliveryStatusFailed, row.Status)
		require.NotNil(t, row.Error)
		assert.Equal(t, model.ReasonCredentialsMissing, *row.Error)
	}
}

func TestDeliverCertificatesExplicitRecipients(t *testing.T) {
	f := newDeliveryFixture(deliveryTestEvent(), deliveryTestAttendees())
	// A prior send that an explicit list must override.
	f.ledger.rows = append(f.ledger.rows, model.EmailDelivery{
		ID: "prior", EventID: "evt_1", AttendeeID: "att_1",
		Email: "jane@example.com", Status: model.DeliveryStatusSent, BatchID: "evt_1_0",
	})

	summary, err := f.svc.DeliverCertificates(context.Background(), "evt_1", []string{"  JANE@Example.com "}, false)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Attempted)
	assert.Equal(t, 1, summary.Sent)
	assert.Equal(t, 0, summary.Skipped)

	require.Len(t, f.sender.messages, 1)
	assert.Equal(t, "jane@example.com", f.sender.messages[0].To)
}

func TestDeliverCertificatesEmptyExplicitList(t *testing.T) {
	f := newDeliveryFixture(deliveryTestEvent(), deliveryTestAttendees())

	summary, err := f.svc.DeliverCertificates(context.Background(), "evt_1", []string{}, false)
	require.NoError(t, err)

	assert.Equal(t, 0, summary.Attempted)
	assert.Empty(t, f.ledger.rows)
	assert.Empty(t, f.sender.messages)
}

func TestDeliverCertificatesNormalizesEmails(t *testing.T) {
	attendees := deliveryTestAttendees()
	attendees[0].Email = "  Jane@Example.COM "
	attendees[1].Email = ""
	f := newDeliveryFixture(deliveryTestEvent(), attendees)

	summary, err := f.svc.DeliverCertificates(context.Background(), "evt_1", nil, false)
	require.NoError(t, err)

	// The blank address is dropped without a ledger row.
	assert.Equal(t, 1, summary.Attempted)
	require.Len(t, f.ledger.rows, 1)
	assert.Equal(t, "jane@example.com", f.ledger.rows[0].Email)
}

func TestDeliverCertificatesCustomSubject(t *testing.T) {
	event := deliveryTestEvent()
	event.EmailSubject = strPtr("March Ethics Workshop Certificate")
	f := newDeliveryFixture(event, deliveryTestAttendees())

	_, err := f.svc.DeliverCertificates(context.Background(), "evt_1", nil, false)
	require.NoError(t, err)

	for _, row := range f.ledger.rows {
		assert.Equal(t, "March Ethics Workshop Certificate", row.Subject)
	}
}

func TestDeliverCertificatesSendFailureContinues(t *testing.T) {
	f := newDeliveryFixture(deliveryTestEvent(), deliveryTestAttendees())
	f.sender.failWith = map[string]string{"jane@example.com": "Rate limit exceeded"}

	summary, err := f.svc.DeliverCertificates(context.Background(), "evt_1", nil, false)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Attempted)
	assert.Equal(t, 1, summary.Sent)
	assert.Equal(t, 1, summary.Failed)

	require.Len(t, f.ledger.rows, 2)
	failed := f.ledger.rows[0]
	assert.Equal(t, model.DeliveryStatusFailed, failed.Status)
	require.NotNil(t, failed.Error)
	assert.Equal(t, "Rate limit exceeded", *failed.Error)
	assert.Nil(t, failed.ProviderMessageID)

	// Only the delivered attendee is flagged as issued.
	assert.Equal(t, []string{"att_2"}, f.attendees.issued)
}

func TestDeliverCertificatesTokenFailureAborts(t *testing.T) {
	f := newDeliveryFixture(deliveryTestEvent(), deliveryTestAttendees())
	f.tokens.err = &email.AuthError{Reason: "invalid_grant"}

	_, err := f.svc.DeliverCertificates(context.Background(), "evt_1", nil, false)
	require.Error(t, err)

	var authErr *email.AuthError
	assert.ErrorAs(t, err, &authErr)
	assert.Empty(t, f.ledger.rows)
	assert.Empty(t, f.sender.messages)
}

func TestDeliverCertificatesRenderFailureDowngrades(t *testing.T) {
	f := newDeliveryFixture(deliveryTestEvent(), deliveryTestAttendees())
	f.svc.render = func(cert.Fields, cert.Assets) ([]byte, error) {
		return nil, assert.AnError
	}

	summary, err := f.svc.DeliverCertificates(context.Background(), "evt_1", nil, false)
	require.NoError(t, err)

	// The email still goes out, just without the document.
	assert.Equal(t, 2, summary.Sent)
	require.Len(t, f.sender.messages, 2)
	for _, msg := range f.sender.messages {
		assert.Nil(t, msg.Attachment)
	}
}

func TestDeliverCertificatesLoadsCoordinatorSignature(t *testing.T) {
	f := newDeliveryFixture(deliveryTestEvent(), deliveryTestAttendees()[:1])

	_, err := f.svc.DeliverCertificates(context.Background(), "evt_1", nil, false)
	require.NoError(t, err)

	assert.Contains(t, f.assets, "https://registry.example.com/sig.png")
	assert.Contains(t, f.assets, "https://registry.example.com/fonts/AlexBrush-Regular.ttf")
}

func TestDeliverCertificatesUnknownCoordinator(t *testing.T) {
	event := deliveryTestEvent()
	event.CoordinatorName = "Nobody Known"
	f := newDeliveryFixture(event, deliveryTestAttendees()[:1])

	summary, err := f.svc.DeliverCertificates(context.Background(), "evt_1", nil, false)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Sent)
	assert.NotContains(t, f.assets, "https://registry.example.com/sig.png")
}

func TestDeliverCertificatesMissingProviderID(t *testing.T) {
	event := deliveryTestEvent()
	event.LegacyID = nil
	event.ProviderID = ""
	f := newDeliveryFixture(event, deliveryTestAttendees())

	_, err := f.svc.DeliverCertificates(context.Background(), "evt_1", nil, false)
	assert.ErrorIs(t, err, ErrMissingProviderID)
	assert.Empty(t, f.ledger.rows)
}

func TestDeliverCertificatesEventNotFound(t *testing.T) {
	f := newDeliveryFixture(nil, nil)

	_, err := f.svc.DeliverCertificates(context.Background(), "missing", nil, false)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestDeliveries(t *testing.T) {
	f := newDeliveryFixture(deliveryTestEvent(), deliveryTestAttendees())
	f.sender.failWith = map[string]string{"john@example.com": "boom"}

	_, err := f.svc.DeliverCertificates(context.Background(), "evt_1", nil, false)
	require.NoError(t, err)

	all, err := f.svc.Deliveries(context.Background(), "evt_1", "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	failed, err := f.svc.Deliveries(context.Background(), "evt_1", model.DeliveryStatusFailed)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, "john@example.com", failed[0].Email)

	_, err = f.svc.Deliveries(context.Background(), "missing", "")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestResolveEvent(t *testing.T) {
	f := newDeliveryFixture(deliveryTestEvent(), nil)
	ctx := context.Background()

	byLegacy, err := f.svc.ResolveEvent(ctx, "BCBA-2024-001")
	require.NoError(t, err)
	assert.Equal(t, "evt_1", byLegacy.ID)

	byID, err := f.svc.ResolveEvent(ctx, "evt_1")
	require.NoError(t, err)
	assert.Equal(t, "evt_1", byID.ID)

	_, err = f.svc.ResolveEvent(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestCoverage(t *testing.T) {
	f := newDeliveryFixture(deliveryTestEvent(), deliveryTestAttendees())
	f.ledger.rows = append(f.ledger.rows, model.EmailDelivery{
		ID: "prior", EventID: "evt_1", AttendeeID: "att_1",
		Email: "jane@example.com", Status: model.DeliveryStatusSent, BatchID: "evt_1_0",
	})

	coverage, err := f.svc.Coverage(context.Background(), "evt_1")
	require.NoError(t, err)

	assert.Equal(t, "evt_1", coverage.EventID)
	assert.Equal(t, 2, coverage.Attendees)
	assert.Equal(t, 1, coverage.Covered)
	assert.Equal(t, []string{"john@example.com"}, coverage.Uncovered)
}

func TestCoverageEventNotFound(t *testing.T) {
	f := newDeliveryFixture(nil, nil)
	_, err := f.svc.Coverage(context.Background(), "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestDisplayDate(t *testing.T) {
	assert.Equal(t, "January 15, 2024", displayDate("2024-01-15"))
	assert.Equal(t, "March 3, 2025", displayDate("2025-03-03T10:00:00Z"))
	assert.Equal(t, "Spring 2024", displayDate("Spring 2024"))
}

func TestProviderType(t *testing.T) {
	event := deliveryTestEvent()
	assert.Equal(t, model.ProviderTypeIndividual, providerType(event))

	event.OrganizationName = strPtr("Summit Behavioral")
	assert.Equal(t, model.ProviderTypeOrganization, providerType(event))

	explicit := model.ProviderTypeIndividual
	event.ProviderType = &explicit
	assert.Equal(t, model.ProviderTypeIndividual, providerType(event))
}
