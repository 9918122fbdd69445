package subscription

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/iudanet/livedesk/internal/models"
	"github.com/iudanet/livedesk/pkg/api"
)

func TestLimitsFor(t *testing.T) {
	free := LimitsFor(api.SubscriptionFree)
	assert.Equal(t, 3, free.AIGenerationsPerDay)
	assert.Equal(t, 2, free.CollaboratorsPerRoom)
	assert.Equal(t, 10, free.NotesPerRoom)

	pro := LimitsFor(api.SubscriptionPro)
	assert.Equal(t, api.PlanLimits{}, pro, "pro plan has no limits")
}

func TestEffectiveStatus(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	future := now.Add(30 * 24 * time.Hour)
	past := now.Add(-time.Hour)

	tests := []struct {
		name string
		sub  *models.Subscription
		want api.SubscriptionStatus
	}{
		{
			name: "no subscription record",
			sub:  nil,
			want: api.SubscriptionFree,
		},
		{
			name: "explicit free",
			sub:  &models.Subscription{Status: "free"},
			want: api.SubscriptionFree,
		},
		{
			name: "active pro",
			sub: &models.Subscription{
				Status:           "pro",
				Plan:             "pro-monthly",
				CurrentPeriodEnd: &future,
			},
			want: api.SubscriptionPro,
		},
		{
			name: "expired pro falls back to free",
			sub: &models.Subscription{
				Status:           "pro",
				Plan:             "pro-monthly",
				CurrentPeriodEnd: &past,
			},
			want: api.SubscriptionFree,
		},
		{
			name: "pro without period end",
			sub:  &models.Subscription{Status: "pro"},
			want: api.SubscriptionPro,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EffectiveStatus(tt.sub, now))
		})
	}
}
