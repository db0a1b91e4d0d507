// Package rag holds the retrieval pieces of the query pipeline: chunking,
// cosine ranking, follow-up disambiguation and reference building.
package rag

import (
	"iter"
	"slices"
	"strings"
)

// DefaultMaxLength is the default number of characters per chunk.
const DefaultMaxLength = 1000

// DefaultTopics are the section headers of the career data sheets. Each one
// starts a new segment and stays attached to the text that follows it.
var DefaultTopics = []string{
	"LAW",
	"ENGINEERING",
	"MEDICAL",
	"BUSINESS MANAGEMENT",
	"DESIGN",
	"HOTEL MANAGEMENT",
	"MASS COMMUNICATION",
	"COMMERCE",
	"ARTS/HUMANITIES",
	"PURE SCIENCE",
	"SPORTS",
	"PERFORMING ARTS",
	"LIBERAL STUDIES",
	"ECONOMICS",
	"SOCIAL WORK",
}

// Chunk is a bounded slice of source text.
type Chunk struct {
	Position int
	Topic    string // keyword that opened the segment, empty for the preamble
	Content  string
}

// Chunker splits text at topic keywords, then into fixed-stride windows.
type Chunker struct {
	maxLength int
	topics    []string
}

// ChunkerOption configures a Chunker.
type ChunkerOption func(*Chunker)

// WithMaxLength sets the window size in characters.
func WithMaxLength(n int) ChunkerOption {
	return func(c *Chunker) {
		if n > 0 {
			c.maxLength = n
		}
	}
}

// WithTopics replaces the topic vocabulary.
func WithTopics(topics ...string) ChunkerOption {
	return func(c *Chunker) {
		c.topics = slices.DeleteFunc(slices.Clone(topics), func(t string) bool { return t == "" })
	}
}

func NewChunker(opts ...ChunkerOption) *Chunker {
	c := &Chunker{
		maxLength: DefaultMaxLength,
		topics:    DefaultTopics,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Chunker) MaxLength() int { return c.maxLength }

// Chunks lazily yields the chunks of text in order. Chunks are trimmed,
// never empty and never longer than MaxLength characters.
func (c *Chunker) Chunks(text string) iter.Seq[Chunk] {
	return func(yield func(Chunk) bool) {
		pos := 0
		for _, seg := range c.segments(text) {
			runes := []rune(seg.text)
			for start := 0; start < len(runes); start += c.maxLength {
				end := min(start+c.maxLength, len(runes))
				content := strings.TrimSpace(string(runes[start:end]))
				if content == "" {
					continue
				}
				if !yield(Chunk{Position: pos, Topic: seg.topic, Content: content}) {
					return
				}
				pos++
			}
		}
	}
}

// Split returns all chunks of text.
func (c *Chunker) Split(text string) []Chunk {
	return slices.Collect(c.Chunks(text))
}

type segment struct {
	topic string
	text  string
}

// segments cuts text before every occurrence of a topic keyword.
func (c *Chunker) segments(text string) []segment {
	type cut struct {
		at    int
		topic string
	}

	var cuts []cut
	for _, t := range c.topics {
		for off := 0; off < len(text); {
			i := strings.Index(text[off:], t)
			if i < 0 {
				break
			}
			cuts = append(cuts, cut{at: off + i, topic: t})
			off += i + 1
		}
	}

	// earliest position first; on a shared start the longest keyword names the segment
	slices.SortFunc(cuts, func(a, b cut) int {
		if a.at != b.at {
			return a.at - b.at
		}
		return len(b.topic) - len(a.topic)
	})
	cuts = slices.CompactFunc(cuts, func(a, b cut) bool { return a.at == b.at })

	segs := make([]segment, 0, len(cuts)+1)
	prev, topic := 0, ""
	for _, ct := range cuts {
		if ct.at > prev {
			segs = append(segs, segment{topic: topic, text: text[prev:ct.at]})
		}
		prev, topic = ct.at, ct.topic
	}
	if prev < len(text) {
		segs = append(segs, segment{topic: topic, text: text[prev:]})
	}
	return segs
}
