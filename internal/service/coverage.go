package service

import (
	"context"
	"fmt"

	"github.com/ceureg/ceureg/internal/model"
)

// Coverage reports which attendees of an event already have a successful
// certificate delivery on record. Operators check it before re-running a
// batch.
func (s *DeliveryService) Coverage(ctx context.Context, eventID string) (*model.DeliveryCoverage, error) {
	if _, err := s.events.GetByID(ctx, eventID); err != nil {
		return nil, fmt.Errorf("failed to load event: %w", err)
	}

	attendees, err := s.attendees.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to load attendees: %w", err)
	}

	sent, err := s.ledger.SentEmails(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to load sent deliveries: %w", err)
	}
	sentSet := make(map[string]struct{}, len(sent))
	for _, e := range sent {
		sentSet[normalizeEmail(e)] = struct{}{}
	}

	coverage := &model.DeliveryCoverage{
		EventID:   eventID,
		Uncovered: []string{},
	}
	for i := range attendees {
		addr := normalizeEmail(attendees[i].Email)
		if addr == "" {
			continue
		}
		coverage.Attendees++
		if _, ok := sentSet[addr]; ok {
			coverage.Covered++
		} else {
			coverage.Uncovered = append(coverage.Uncovered, addr)
		}
	}
	return coverage, nil
}
