package composer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/repairhq/fieldservice/internal/domain/model"
	apperrors "github.com/repairhq/fieldservice/internal/errors"
)

func TestComposerRendersEmailWithSubjectAndBody(t *testing.T) {
	c, err := New()
	require.NoError(t, err)

	scheduled := time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)
	msg, err := c.Render("job_scheduled", model.ChannelEmail, Data{
		RecipientName: "Ada",
		Role:          model.RoleClient,
		Job:           &model.Job{ID: "job-1", ScheduledAt: &scheduled},
	})
	require.NoError(t, err)

	assert.Contains(t, msg.Subject, "job-1")
	assert.Contains(t, msg.Subject, "14 Mar 2026")
	assert.Contains(t, msg.Body, "Hello Ada")
	assert.NotContains(t, msg.Body, msg.Subject)
}

func TestComposerRendersSMSWithoutSubject(t *testing.T) {
	c, err := New()
	require.NoError(t, err)

	msg, err := c.Render("job_completed", model.ChannelSMS, Data{
		RecipientName: "Ada",
		Role:          model.RoleClient,
		Job:           &model.Job{ID: "job-1"},
	})
	require.NoError(t, err)

	assert.Empty(t, msg.Subject)
	assert.Contains(t, msg.Body, "job-1")
	assert.NotContains(t, msg.Body, "\n")
}

func TestComposerCoversEveryEventTemplate(t *testing.T) {
	c, err := New()
	require.NoError(t, err)

	job := &model.Job{ID: "job-1"}
	part := &model.PartOrder{ID: "po-1", ServiceID: "job-1", PartName: "compressor", Quantity: 2, Urgency: model.UrgencyNormal}

	ids := []string{
		"job_created", "job_assigned", "job_scheduled", "job_in_progress",
		"job_waiting_parts", "job_client_not_home", "job_client_not_answering",
		"job_customer_refused", "job_repair_failed", "job_completed", "job_cancelled",
		"part_requested", "part_ordered", "part_order_supplier",
		"part_waiting_delivery", "part_available", "part_consumed", "part_cancelled",
	}
	for _, id := range ids {
		for _, ch := range []model.Channel{model.ChannelEmail, model.ChannelSMS} {
			msg, err := c.Render(id, ch, Data{RecipientName: "Ada", Role: model.RoleClient, Job: job, Part: part})
			require.NoError(t, err, "template %s on %s", id, ch)
			assert.NotEmpty(t, msg.Body, "template %s on %s", id, ch)
		}
	}
}

func TestComposerUnknownTemplate(t *testing.T) {
	c, err := New()
	require.NoError(t, err)

	_, err = c.Render("no_such_template", model.ChannelEmail, Data{})
	require.Error(t, err)
	assert.True(t, apperrors.IsInternal(err))
}
