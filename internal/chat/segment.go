package chat

import (
	"math/rand"
	"regexp"
	"strings"
)

// sentenceBoundary splits on whitespace that follows terminal punctuation
// and precedes a capital letter.
var sentenceBoundary = regexp.MustCompile(`([.!?])\s+([A-Z])`)

const minSegmentLen = 20

// Segmenter breaks a reply into natural message chunks so the companion
// reads like a person typing several messages, not one wall of text.
type Segmenter struct {
	rand *rand.Rand
}

// NewSegmenter builds a Segmenter. A nil rand falls back to the shared
// package-level source.
func NewSegmenter(r *rand.Rand) *Segmenter {
	return &Segmenter{rand: r}
}

func (s *Segmenter) float64() float64 {
	if s.rand != nil {
		return s.rand.Float64()
	}
	return rand.Float64()
}

func (s *Segmenter) intn(n int) int {
	if s.rand != nil {
		return s.rand.Intn(n)
	}
	return rand.Intn(n)
}

// Segment splits reply into 2 or 3 chunks on sentence boundaries.
// Roughly 30% of replies stay whole; so do replies too short to split
// and splits that would produce a chunk under 20 characters.
func (s *Segmenter) Segment(reply string) []string {
	if s.float64() < 0.3 {
		return []string{reply}
	}

	reply = strings.TrimSpace(reply)
	sentences := splitSentences(reply)
	if len(sentences) <= 2 {
		return []string{reply}
	}

	var segments []string
	if s.intn(2) == 0 {
		mid := len(sentences) / 2
		segments = append(segments,
			strings.TrimSpace(strings.Join(sentences[:mid], " ")),
			strings.TrimSpace(strings.Join(sentences[mid:], " ")))
	} else {
		third := len(sentences) / 3
		segments = append(segments,
			strings.TrimSpace(strings.Join(sentences[:third], " ")),
			strings.TrimSpace(strings.Join(sentences[third:third*2], " ")),
			strings.TrimSpace(strings.Join(sentences[third*2:], " ")))
	}

	kept := segments[:0]
	for _, seg := range segments {
		if seg != "" {
			kept = append(kept, seg)
		}
	}
	if len(kept) < 2 {
		return []string{reply}
	}
	for _, seg := range kept {
		if len(seg) < minSegmentLen {
			return []string{reply}
		}
	}
	return kept
}

func splitSentences(text string) []string {
	marked := sentenceBoundary.ReplaceAllString(text, "$1\x00$2")
	return strings.Split(marked, "\x00")
}
