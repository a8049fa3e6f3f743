// Package rank encodes a score and submission time into a sortable
// composite key. Ascending lexicographic order over keys yields descending
// score; among equal scores, the earlier submission sorts first.
package rank

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	MinScore           = 0
	MaxScore           = 999999
	HighScoreThreshold = 1000

	// Fixed pad widths keep lexicographic order aligned with numeric order.
	// scoreWidth covers MaxScore; tsWidth covers unix seconds until 2286.
	scoreWidth = 6
	tsWidth    = 10

	separator = "#"
)

// Encode builds the composite key: zero-padded inverted score, "#",
// zero-padded unix-seconds timestamp. The score is clamped into
// [MinScore, MaxScore] defensively; out-of-range submissions are rejected
// upstream before they reach the codec.
func Encode(score int64, submittedAt int64) string {
	clamped := score
	if clamped < MinScore {
		clamped = MinScore
	}
	if clamped > MaxScore {
		clamped = MaxScore
	}
	inverted := int64(MaxScore) - clamped
	return fmt.Sprintf("%0*d%s%0*d", scoreWidth, inverted, separator, tsWidth, submittedAt)
}

// Decode recovers the score and submission time from a composite key.
func Decode(key string) (score int64, submittedAt int64, err error) {
	parts := strings.SplitN(key, separator, 2)
	if len(parts) != 2 || len(parts[0]) != scoreWidth || len(parts[1]) != tsWidth {
		return 0, 0, fmt.Errorf("malformed rank key %q", key)
	}
	inverted, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("malformed rank key %q: %w", key, err)
	}
	submittedAt, err = strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("malformed rank key %q: %w", key, err)
	}
	return int64(MaxScore) - inverted, submittedAt, nil
}

// Rank is either Ranked (carries a key, the score qualifies for the
// leaderboard) or Unranked. Records without a key never enter leaderboard
// queries, so the routing decision is made exactly once, here.
type Rank struct {
	key    string
	ranked bool
}

// ForScore returns the Ranked variant iff score >= HighScoreThreshold.
func ForScore(score int64, submittedAt int64) Rank {
	if score < HighScoreThreshold {
		return Rank{}
	}
	return Rank{key: Encode(score, submittedAt), ranked: true}
}

// Key returns the composite key and whether the rank is the Ranked variant.
func (r Rank) Key() (string, bool) {
	return r.key, r.ranked
}

// Ranked reports whether the score qualified for the leaderboard.
func (r Rank) Ranked() bool {
	return r.ranked
}
