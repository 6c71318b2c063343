package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/repairhq/fieldservice/internal/errors"
)

func TestPartOrderStatus_Normalize(t *testing.T) {
	assert.Equal(t, PartStatusRequested, PartStatusPending.Normalize())
	assert.Equal(t, PartStatusRequested, PartStatusRequested.Normalize())
	assert.Equal(t, PartStatusConsumed, PartStatusConsumed.Normalize())
}

func TestPartOrderStatus_CanTransitionTo(t *testing.T) {
	assert.True(t, PartStatusRequested.CanTransitionTo(PartStatusAdminOrdered))
	assert.True(t, PartStatusAdminOrdered.CanTransitionTo(PartStatusWaitingDelivery))
	assert.True(t, PartStatusWaitingDelivery.CanTransitionTo(PartStatusAvailable))
	assert.True(t, PartStatusAvailable.CanTransitionTo(PartStatusConsumed))

	// pending alias behaves exactly like requested.
	assert.True(t, PartStatusPending.CanTransitionTo(PartStatusAdminOrdered))
	assert.True(t, PartStatusRequested.CanTransitionTo(PartStatusPending))

	// cancelled from every non-terminal state.
	for _, s := range []PartOrderStatus{
		PartStatusRequested, PartStatusAdminOrdered, PartStatusWaitingDelivery, PartStatusAvailable,
	} {
		assert.True(t, s.CanTransitionTo(PartStatusCancelled), "from %s", s)
	}

	// no skipping and no leaving terminals.
	assert.False(t, PartStatusRequested.CanTransitionTo(PartStatusAvailable))
	assert.False(t, PartStatusRequested.CanTransitionTo(PartStatusConsumed))
	assert.False(t, PartStatusConsumed.CanTransitionTo(PartStatusRequested))
	assert.False(t, PartStatusCancelled.CanTransitionTo(PartStatusAdminOrdered))
}

func TestValidatePartTransition_RequiredFields(t *testing.T) {
	t.Run("admin_ordered requires supplier name", func(t *testing.T) {
		order := &PartOrder{ID: "p1", Status: PartStatusRequested}
		err := ValidatePartTransition(order, &TransitionPartOrderRequest{Target: PartStatusAdminOrdered})
		require.Error(t, err)
		assert.True(t, apperrors.IsValidation(err))
		assert.Equal(t, "supplier_name", apperrors.GetField(err))

		err = ValidatePartTransition(order, &TransitionPartOrderRequest{
			Target:       PartStatusAdminOrdered,
			SupplierName: "Bosch Parts GmbH",
		})
		assert.NoError(t, err)
	})

	t.Run("waiting_delivery requires actual cost", func(t *testing.T) {
		order := &PartOrder{ID: "p1", Status: PartStatusAdminOrdered}
		err := ValidatePartTransition(order, &TransitionPartOrderRequest{Target: PartStatusWaitingDelivery})
		require.Error(t, err)
		assert.Equal(t, "actual_cost", apperrors.GetField(err))

		cost := 41.50
		err = ValidatePartTransition(order, &TransitionPartOrderRequest{
			Target:     PartStatusWaitingDelivery,
			ActualCost: &cost,
		})
		assert.NoError(t, err)
	})

	t.Run("consumed requires consumed_for_service_id", func(t *testing.T) {
		order := &PartOrder{ID: "p1", Status: PartStatusAvailable}
		err := ValidatePartTransition(order, &TransitionPartOrderRequest{Target: PartStatusConsumed})
		require.Error(t, err)
		assert.Equal(t, "consumed_for_service_id", apperrors.GetField(err))

		err = ValidatePartTransition(order, &TransitionPartOrderRequest{
			Target:               PartStatusConsumed,
			ConsumedForServiceID: "job-1",
		})
		assert.NoError(t, err)
	})
}

func TestValidatePartTransition_IllegalIsPrecondition(t *testing.T) {
	order := &PartOrder{ID: "p1", Status: PartStatusRequested}
	err := ValidatePartTransition(order, &TransitionPartOrderRequest{
		Target:               PartStatusConsumed,
		ConsumedForServiceID: "job-1",
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsPrecondition(err))
}

func TestCreatePartOrderRequest_Validate(t *testing.T) {
	req := &CreatePartOrderRequest{
		ServiceID:    "job-1",
		TechnicianID: "tech-1",
		PartName:     "drain pump",
		Quantity:     1,
	}
	require.NoError(t, req.Validate())
	assert.Equal(t, UrgencyNormal, req.Urgency)

	bad := *req
	bad.Quantity = 0
	assert.Error(t, bad.Validate())

	bad = *req
	bad.PartName = "  "
	assert.Error(t, bad.Validate())
}

func TestEventMapping(t *testing.T) {
	assert.Equal(t, EventJobCompleted, JobEventFor(JobStatusCompleted))
	assert.Equal(t, EventJobWaitingParts, JobEventFor(JobStatusWaitingParts))
	assert.Equal(t, EventPartOrdered, PartEventFor(PartStatusAdminOrdered))
	assert.Equal(t, EventPartRequested, PartEventFor(PartStatusPending))

	assert.True(t, EventJobCompleted.Valid())
	assert.False(t, EventType("job_exploded").Valid())
}
