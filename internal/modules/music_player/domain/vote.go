package domain

import "github.com/disgoorg/snowflake/v2"

// VoteKind selects which vote set an operation targets.
type VoteKind int

const (
	VoteKindSkip  VoteKind = iota // votes on the current song
	VoteKindClear                 // votes on the whole queue
)

// String returns a human-readable representation of the vote kind.
func (k VoteKind) String() string {
	switch k {
	case VoteKindClear:
		return "clear"
	default:
		return "skip"
	}
}

// ParseVoteKind converts a string to a VoteKind.
func ParseVoteKind(s string) VoteKind {
	if s == "clear" {
		return VoteKindClear
	}
	return VoteKindSkip
}

// VoteSet is a duplicate-free set of voter IDs. The zero value is empty and ready to use.
type VoteSet struct {
	voters map[snowflake.ID]struct{}
}

// Add registers voterID. Returns false if the voter already voted.
func (v *VoteSet) Add(voterID snowflake.ID) bool {
	if v.voters == nil {
		v.voters = make(map[snowflake.ID]struct{})
	}
	if _, ok := v.voters[voterID]; ok {
		return false
	}
	v.voters[voterID] = struct{}{}
	return true
}

// Remove withdraws voterID. Returns false if the voter had not voted.
func (v *VoteSet) Remove(voterID snowflake.ID) bool {
	if _, ok := v.voters[voterID]; !ok {
		return false
	}
	delete(v.voters, voterID)
	return true
}

// Has reports whether voterID is in the set.
func (v *VoteSet) Has(voterID snowflake.ID) bool {
	_, ok := v.voters[voterID]
	return ok
}

// Len returns the number of votes.
func (v *VoteSet) Len() int {
	return len(v.voters)
}

// Clear removes every vote.
func (v *VoteSet) Clear() {
	v.voters = nil
}

func (v VoteSet) clone() VoteSet {
	if v.voters == nil {
		return VoteSet{}
	}
	voters := make(map[snowflake.ID]struct{}, len(v.voters))
	for id := range v.voters {
		voters[id] = struct{}{}
	}
	return VoteSet{voters: voters}
}

// VoteThreshold returns the number of votes needed given the listeners
// currently in the bound channel: half rounded up, at least one.
func VoteThreshold(listeners int) int {
	return max((listeners+1)/2, 1)
}

// Tally is the outcome of evaluating a vote set against the threshold.
type Tally struct {
	Votes    int
	Required int
}

// NewTally evaluates votes against the threshold for listeners.
func NewTally(votes, listeners int) Tally {
	return Tally{
		Votes:    votes,
		Required: VoteThreshold(listeners),
	}
}

// Met reports whether the threshold is reached.
func (t Tally) Met() bool {
	return t.Votes >= t.Required
}
