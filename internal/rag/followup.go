package rag

import (
	"slices"
	"strings"
)

const (
	DefaultFollowUpThreshold = 0.7
	DefaultFollowUpMarker    = "Follow up question: "
)

// DefaultShortReplies are confirmations that carry no retrievable content.
var DefaultShortReplies = []string{
	"yes",
	"yeah",
	"yup",
	"continue",
	"tell me more",
	"ok",
	"okay",
	"sure",
	"go ahead",
	"please continue",
}

// FollowUpPolicy decides whether a reply should be answered with the
// previously suggested follow-up question instead of its own text.
type FollowUpPolicy struct {
	Threshold    float64
	Marker       string
	ShortReplies []string
}

func DefaultFollowUpPolicy() FollowUpPolicy {
	return FollowUpPolicy{
		Threshold:    DefaultFollowUpThreshold,
		Marker:       DefaultFollowUpMarker,
		ShortReplies: DefaultShortReplies,
	}
}

// Marked is the text embedded for the prior follow-up when comparing it
// with the user's reply.
func (p FollowUpPolicy) Marked(priorFollowUp string) string {
	return p.Marker + priorFollowUp
}

// IsShortReply reports whether the trimmed, lower-cased question is one of
// the configured confirmations.
func (p FollowUpPolicy) IsShortReply(question string) bool {
	q := strings.ToLower(strings.TrimSpace(question))
	return slices.Contains(p.ShortReplies, q)
}

// Substitute reports whether the prior follow-up replaces the question.
// A NaN similarity never passes the threshold.
func (p FollowUpPolicy) Substitute(question string, similarity float64) bool {
	return similarity > p.Threshold || p.IsShortReply(question)
}
