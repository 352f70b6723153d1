package journey

import (
	"context"

	"github.com/mdouchement/safehaven/internal/model"
	"github.com/mdouchement/safehaven/internal/sherror"
)

// Arrange marks the given leg as arranged, optionally linked to a resource.
// Calling it again overwrites the previous arrangement.
func (o *Orchestrator) Arrange(ctx context.Context, id string, leg model.JourneyLeg, resourceID string) (*model.Journey, error) {
	if leg == model.LegFinancialAssistance {
		var ids []string
		if resourceID != "" {
			ids = []string{resourceID}
		}
		return o.MarkFinancialAssistanceArranged(ctx, id, ids)
	}

	if _, err := model.ParseJourneyLeg(string(leg)); err != nil {
		return nil, sherror.Validation("%s", err.Error())
	}

	return o.mutate(ctx, id, func(journey *model.Journey) error {
		arrangement := journey.Arrangement(leg)
		arrangement.Arranged = true
		arrangement.ResourceID = resourceID
		return nil
	})
}

// MarkChildcareArranged marks the childcare as arranged.
func (o *Orchestrator) MarkChildcareArranged(ctx context.Context, id, resourceID string) (*model.Journey, error) {
	return o.Arrange(ctx, id, model.LegChildcare, resourceID)
}

// MarkOutboundTransportArranged marks the outbound transport as arranged.
func (o *Orchestrator) MarkOutboundTransportArranged(ctx context.Context, id, resourceID string) (*model.Journey, error) {
	return o.Arrange(ctx, id, model.LegOutboundTransport, resourceID)
}

// MarkRecoveryHousingArranged marks the recovery housing as arranged.
func (o *Orchestrator) MarkRecoveryHousingArranged(ctx context.Context, id, resourceID string) (*model.Journey, error) {
	return o.Arrange(ctx, id, model.LegRecoveryHousing, resourceID)
}

// MarkReturnTransportArranged marks the return transport as arranged.
func (o *Orchestrator) MarkReturnTransportArranged(ctx context.Context, id, resourceID string) (*model.Journey, error) {
	return o.Arrange(ctx, id, model.LegReturnTransport, resourceID)
}

// MarkAccompanimentArranged marks the accompaniment as arranged.
func (o *Orchestrator) MarkAccompanimentArranged(ctx context.Context, id, resourceID string) (*model.Journey, error) {
	return o.Arrange(ctx, id, model.LegAccompaniment, resourceID)
}

// MarkFinancialAssistanceArranged marks the financial assistance as arranged by the given resources.
func (o *Orchestrator) MarkFinancialAssistanceArranged(ctx context.Context, id string, resourceIDs []string) (*model.Journey, error) {
	return o.mutate(ctx, id, func(journey *model.Journey) error {
		journey.Financial.Arranged = true
		journey.Financial.ResourceIDs = resourceIDs
		journey.Financial.ResourceID = ""
		if len(resourceIDs) > 0 {
			journey.Financial.ResourceID = resourceIDs[0]
		}
		return nil
	})
}

// SetLegNotes seals and stores the notes of the given leg.
func (o *Orchestrator) SetLegNotes(ctx context.Context, id string, leg model.JourneyLeg, notes string) (*model.Journey, error) {
	if _, err := model.ParseJourneyLeg(string(leg)); err != nil {
		return nil, sherror.Validation("%s", err.Error())
	}

	return o.mutate(ctx, id, func(journey *model.Journey) error {
		sealed, err := o.repo.Seal(journey.UserID, notes)
		if err != nil {
			return err
		}
		journey.Arrangement(leg).NotesEncrypted = sealed
		return nil
	})
}
