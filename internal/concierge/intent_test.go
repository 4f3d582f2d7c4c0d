package concierge

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"campus-concierge/internal/models"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		query string
		want  models.Intent
	}{
		{"", models.IntentUnknown},
		{"from library to mess", models.IntentRouteNavigation},
		{"what is the deadline for the exam form", models.IntentDeadlineQuery},
		{"I want to file a complaint about ragging", models.IntentEscalation},
		{"library hours", models.IntentPolicyQuery},
		{"which office handles scholarships", models.IntentOfficeLookup},
		{"how do I register for courses", models.IntentProcessHowto},
		{"is there an atm", models.IntentServiceLookup},
		{"locate the gym", models.IntentLocationLookup},
		{"latest notices", models.IntentNoticeQuery},
		{"any seminar this week", models.IntentEventQuery},
		{"photography club", models.IntentClubQuery},
		{"anyone found a blue umbrella", models.IntentLostFoundQuery},
		{"sell my old calculator", models.IntentMarketplaceQuery},
		{"what can you do", models.IntentAppHelp},
		{"asdkjasd", models.IntentUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.query))
		})
	}
}

func TestClassify_EarlierBucketWins(t *testing.T) {
	// deadline outranks notice even though both match
	assert.Equal(t, models.IntentDeadlineQuery, Classify("notice about the fee deadline"))
	// escalation outranks service
	assert.Equal(t, models.IntentEscalation, Classify("emergency at the hostel"))
	// policy outranks service
	assert.Equal(t, models.IntentPolicyQuery, Classify("mess timings"))
	// lost is an escalation keyword and escalation outranks lost and found
	assert.Equal(t, models.IntentEscalation, Classify("lost and found"))
	assert.Equal(t, models.IntentEscalation, Classify("any lost items posted"))
}

func TestTopicForIntent(t *testing.T) {
	topic, ok := TopicForIntent(models.IntentNoticeQuery)
	assert.True(t, ok)
	assert.Equal(t, "notices", topic)

	topic, ok = TopicForIntent(models.IntentAppHelp)
	assert.True(t, ok)
	assert.Equal(t, "help", topic)

	_, ok = TopicForIntent(models.IntentPolicyQuery)
	assert.False(t, ok)
}

func TestIsSupportQuery(t *testing.T) {
	assert.True(t, isSupportQuery("who do I contact about a wifi issue"))
	assert.False(t, isSupportQuery("library"))
}
