package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestScheduleInWindow(t *testing.T) {
	s := Schedule{
		StartDate: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
	}

	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"inside", time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC), true},
		{"start boundary is inclusive", s.StartDate, true},
		{"end boundary is inclusive", s.EndDate, true},
		{"before", time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC), false},
		{"after", time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.InWindow(tt.now))
		})
	}
}

func TestWarmupDate(t *testing.T) {
	// Local timestamps normalize to the UTC calendar date
	loc := time.FixedZone("UTC+10", 10*3600)
	assert.Equal(t, "2026-03-09", WarmupDate(time.Date(2026, 3, 10, 5, 0, 0, 0, loc)))
	assert.Equal(t, "2026-03-10", WarmupDate(time.Date(2026, 3, 10, 5, 0, 0, 0, time.UTC)))
}

func TestFromHeader(t *testing.T) {
	assert.Equal(t, `"Nicolas" <n@example.com>`, EmailAccount{Name: "Nicolas", Email: "n@example.com"}.FromHeader())
	assert.Equal(t, "n@example.com", EmailAccount{Email: "n@example.com"}.FromHeader())
}

func TestStatusValidity(t *testing.T) {
	assert.True(t, CampaignInProgress.Valid())
	assert.False(t, CampaignStatus("archived").Valid())

	assert.True(t, ProgressSent.Valid())
	assert.False(t, ProgressStatus("bounced").Valid())

	assert.True(t, WarmupPaused.Valid())
	assert.False(t, WarmupStatus("warming").Valid())
}
