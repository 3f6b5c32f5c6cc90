package domain

import (
	"strconv"
	"strings"
)

// MatchType tags how an inbound chat id was matched to the target group.
type MatchType string

const (
	MatchNone       MatchType = ""
	MatchAbsolute   MatchType = "abs_match"
	MatchTargetList MatchType = "target_list_match"
)

// ChannelIDOffset is added to channel ids in the marked (-100...) encoding.
const ChannelIDOffset int64 = 1_000_000_000_000

// GroupIdentity is the configured target group with all of its equivalent encodings.
type GroupIdentity struct {
	raw       int64
	bare      int64
	encodings []int64
}

// NewGroupIdentity precomputes the encodings of raw: itself, sign-flipped,
// absolute, negated absolute and the "-100" prefix-stripped form.
func NewGroupIdentity(raw int64) GroupIdentity {
	encodings := []int64{raw, -raw, Abs(raw), -Abs(raw)}

	if stripped, ok := stripChannelPrefix(raw); ok {
		encodings = append(encodings, stripped)
	}

	return GroupIdentity{
		raw:       raw,
		bare:      BareID(raw),
		encodings: encodings,
	}
}

// ID returns the configured identifier.
func (g GroupIdentity) ID() int64 {
	return g.raw
}

// AbsID returns the absolute value of the configured identifier.
func (g GroupIdentity) AbsID() int64 {
	return Abs(g.raw)
}

// Match reports whether chatID refers to the target group.
// Over-matching is preferred to silently dropping events.
func (g GroupIdentity) Match(chatID int64) (MatchType, bool) {
	if Abs(chatID) == Abs(g.raw) {
		return MatchAbsolute, true
	}

	for _, enc := range g.encodings {
		if chatID == enc {
			return MatchTargetList, true
		}
	}

	if BareID(chatID) == g.bare {
		return MatchAbsolute, true
	}

	return MatchNone, false
}

// Abs returns the absolute value of v. math.MinInt64 is returned unchanged.
func Abs(v int64) int64 {
	if v < 0 {
		return -v
	}

	return v
}

// BareID strips the marked channel offset and the sign from id.
func BareID(id int64) int64 {
	if id <= -ChannelIDOffset {
		return -id - ChannelIDOffset
	}

	return Abs(id)
}

func stripChannelPrefix(raw int64) (int64, bool) {
	s := strconv.FormatInt(raw, 10)
	s = strings.ReplaceAll(s, "-100", "")
	s = strings.ReplaceAll(s, "-", "")

	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}

	return v, true
}
