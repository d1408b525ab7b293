package countdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExactMatcher(t *testing.T) {
	tests := []struct {
		name string
		tl   TimeLeft
		want []Milestone
	}{
		{"one hour boundary", TimeLeft{Hours: 1}, []Milestone{MilestoneOneHour}},
		{"thirty minute boundary", TimeLeft{Minutes: 30}, []Milestone{MilestoneThirtyMinutes}},
		{"finished", TimeLeft{}, []Milestone{MilestoneFinished}},
		{"one second past the hour boundary", TimeLeft{Hours: 1, Seconds: 1}, nil},
		{"one second before the hour boundary", TimeLeft{Minutes: 59, Seconds: 59}, nil},
		{"a day plus an hour is not the hour boundary", TimeLeft{Days: 1, Hours: 1}, nil},
		{"mid countdown", TimeLeft{Minutes: 42, Seconds: 17}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExactMatcher(tt.tl))
		})
	}
}

func TestToleranceMatcher(t *testing.T) {
	tests := []struct {
		name string
		tl   TimeLeft
		want []Milestone
	}{
		{"finished", TimeLeft{}, []Milestone{MilestoneFinished}},
		{"under thirty minutes", TimeLeft{Minutes: 29, Seconds: 30}, []Milestone{MilestoneThirtyMinutes}},
		{"exactly thirty minutes", TimeLeft{Minutes: 30}, []Milestone{MilestoneThirtyMinutes}},
		{"thirty minutes and change is the hour band", TimeLeft{Minutes: 30, Seconds: 1}, []Milestone{MilestoneOneHour}},
		{"under one hour", TimeLeft{Minutes: 59, Seconds: 59}, []Milestone{MilestoneOneHour}},
		{"exactly one hour", TimeLeft{Hours: 1}, []Milestone{MilestoneOneHour}},
		{"over one hour", TimeLeft{Hours: 1, Seconds: 1}, nil},
		{"days remaining never matches", TimeLeft{Days: 1, Minutes: 10}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ToleranceMatcher(tt.tl))
		})
	}
}

func TestNotifierFiresEachMilestoneOnce(t *testing.T) {
	n := NewNotifier(ExactMatcher)

	assert.Equal(t, []Milestone{MilestoneOneHour}, n.Evaluate(TimeLeft{Hours: 1}))
	assert.Nil(t, n.Evaluate(TimeLeft{Hours: 1}))
	assert.True(t, n.Fired(MilestoneOneHour))

	assert.Equal(t, []Milestone{MilestoneThirtyMinutes}, n.Evaluate(TimeLeft{Minutes: 30}))
	assert.Nil(t, n.Evaluate(TimeLeft{Minutes: 30}))

	assert.Equal(t, []Milestone{MilestoneFinished}, n.Evaluate(TimeLeft{}))
	assert.True(t, n.Finished())
}

func TestNotifierTerminalAfterFinished(t *testing.T) {
	n := NewNotifier(ExactMatcher)

	assert.Equal(t, []Milestone{MilestoneFinished}, n.Evaluate(TimeLeft{}))

	// A clock correction that moves the target back into the future must
	// not resurrect earlier milestones.
	assert.Nil(t, n.Evaluate(TimeLeft{Hours: 1}))
	assert.Nil(t, n.Evaluate(TimeLeft{Minutes: 30}))
	assert.Nil(t, n.Evaluate(TimeLeft{}))
	assert.False(t, n.Fired(MilestoneOneHour))
}

func TestNotifierSkippedBoundaryIsMissed(t *testing.T) {
	n := NewNotifier(ExactMatcher)

	// Ticks jump over the one-hour boundary; the exact policy never fires it.
	assert.Nil(t, n.Evaluate(TimeLeft{Hours: 1, Seconds: 2}))
	assert.Nil(t, n.Evaluate(TimeLeft{Minutes: 59, Seconds: 58}))
	assert.False(t, n.Fired(MilestoneOneHour))

	// The terminal milestone still fires by the zero clamp.
	assert.Equal(t, []Milestone{MilestoneFinished}, n.Evaluate(TimeLeft{}))
}

func TestNotifierContextsAreIndependent(t *testing.T) {
	foreground := NewNotifier(ExactMatcher)
	background := NewNotifier(ToleranceMatcher)

	// The background worker samples at 45 minutes out and fires its band;
	// the foreground tracker at the same instant fires nothing.
	tl := TimeLeft{Minutes: 45, Seconds: 12}
	assert.Nil(t, foreground.Evaluate(tl))
	assert.Equal(t, []Milestone{MilestoneOneHour}, background.Evaluate(tl))

	// Each context fires at most once regardless of what the other did.
	assert.Equal(t, []Milestone{MilestoneOneHour}, foreground.Evaluate(TimeLeft{Hours: 1}))
	assert.Nil(t, background.Evaluate(TimeLeft{Minutes: 50}))
}
