package harvest

import "github.com/anigrab/anigrab/quality"

// MaxAttempts is the retry budget of a single episode within one harvest run.
const MaxAttempts = 2

// State is the position of an episode in its harvest lifecycle:
//
//	Pending → Attempting(1) → {Succeeded | Attempting(2)} → {Succeeded | Failed}
//
// Succeeded and Failed are terminal; a failed episode is only retried by a new harvest.
type State int

const (
	Pending State = iota
	Attempting
	Succeeded
	Failed
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Attempting:
		return "attempting"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// attempt tracks one episode through its retry budget.
type attempt struct {
	ep     Episode
	budget int
	state  State
	tries  int
	result LinkResult
}

func newAttempt(ep Episode, budget int) *attempt {
	return &attempt{
		ep:     ep,
		budget: max(budget, 1),
		state:  Pending,
		result: LinkResult{Episode: ep, Qualities: []quality.Tier{}},
	}
}

// next reports whether another try should run and moves the episode into Attempting.
func (a *attempt) next() bool {
	switch a.state {
	case Pending, Attempting:
		a.state = Attempting
		a.tries++
		return true
	default:
		return false
	}
}

// record applies the outcome of the current try.
func (a *attempt) record(res LinkResult, err error) {
	if a.state != Attempting {
		return
	}

	res.Episode = a.ep
	if res.Qualities == nil {
		res.Qualities = a.result.Qualities
	}

	if err == nil && res.Ok() {
		a.result = res
		a.state = Succeeded
		return
	}

	a.result = LinkResult{Episode: a.ep, Qualities: res.Qualities}
	if a.tries >= a.budget {
		a.state = Failed
	}
}

func (a *attempt) done() bool {
	return a.state == Succeeded || a.state == Failed
}
