package countdown

// Milestone is a named threshold in a countdown that triggers a one-time
// notification.
type Milestone string

const (
	MilestoneOneHour       Milestone = "one_hour"
	MilestoneThirtyMinutes Milestone = "thirty_minutes"
	MilestoneFinished      Milestone = "finished"
)

// Matcher reports which milestone conditions hold for a given TimeLeft.
type Matcher func(tl TimeLeft) []Milestone

// ExactMatcher fires on the precise 1 Hz boundaries the countdown view
// ticks through. A skipped tick misses the boundary and the milestone is
// silently skipped; widening the match here would risk double-firing
// across resumed ticks.
func ExactMatcher(tl TimeLeft) []Milestone {
	switch {
	case tl.IsZero():
		return []Milestone{MilestoneFinished}
	case tl.Days == 0 && tl.Hours == 1 && tl.Minutes == 0 && tl.Seconds == 0:
		return []Milestone{MilestoneOneHour}
	case tl.Days == 0 && tl.Hours == 0 && tl.Minutes == 30 && tl.Seconds == 0:
		return []Milestone{MilestoneThirtyMinutes}
	}
	return nil
}

// ToleranceMatcher fires on threshold bands rather than exact boundaries.
// The background worker samples at minute resolution and will not land on
// second-exact values.
func ToleranceMatcher(tl TimeLeft) []Milestone {
	if tl.IsZero() {
		return []Milestone{MilestoneFinished}
	}
	if tl.Days > 0 {
		return nil
	}

	totalMinutes := tl.Hours*60 + tl.Minutes
	switch {
	case totalMinutes < 30 || (totalMinutes == 30 && tl.Seconds == 0):
		return []Milestone{MilestoneThirtyMinutes}
	case totalMinutes < 60 || (totalMinutes == 60 && tl.Seconds == 0):
		return []Milestone{MilestoneOneHour}
	}
	return nil
}

// Notifier tracks which milestones have fired for a single countdown.
// The fired set is monotonic: a milestone fires at most once, and once
// the finished milestone fires no further evaluation produces anything,
// even if a clock correction makes TimeLeft non-zero again.
//
// Each execution context (countdown view, background worker) owns its own
// Notifier. The isolation is intentional; platform-level dedupe is left to
// the notification tag.
type Notifier struct {
	matcher Matcher
	fired   map[Milestone]struct{}
	done    bool
}

// NewNotifier creates a notifier with the given matching policy.
func NewNotifier(matcher Matcher) *Notifier {
	return &Notifier{
		matcher: matcher,
		fired:   make(map[Milestone]struct{}),
	}
}

// Evaluate advances the milestone state machine for the given TimeLeft and
// returns the milestones that newly fired on this tick.
func (n *Notifier) Evaluate(tl TimeLeft) []Milestone {
	if n.done {
		return nil
	}

	var newlyFired []Milestone
	for _, m := range n.matcher(tl) {
		if _, ok := n.fired[m]; ok {
			continue
		}
		n.fired[m] = struct{}{}
		newlyFired = append(newlyFired, m)
		if m == MilestoneFinished {
			n.done = true
		}
	}
	return newlyFired
}

// MarkFinished seeds the terminal state without firing anything. Resuming
// from a record whose countdown already completed must not re-announce it.
func (n *Notifier) MarkFinished() {
	n.fired[MilestoneFinished] = struct{}{}
	n.done = true
}

// Finished reports whether the terminal milestone has fired.
func (n *Notifier) Finished() bool {
	return n.done
}

// Fired reports whether the given milestone has already fired.
func (n *Notifier) Fired(m Milestone) bool {
	_, ok := n.fired[m]
	return ok
}
