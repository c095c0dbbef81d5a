package diarize

import "github.com/google/uuid"

// DefaultMaxUtteranceGap bounds how much silence an utterance may span
// before it is split, in seconds.
const DefaultMaxUtteranceGap = 3.0

// FormatOptions controls response assembly.
type FormatOptions struct {
	RequestID string
	ModelName string
	// MaxUtteranceGap in seconds; DefaultMaxUtteranceGap when <= 0.
	MaxUtteranceGap float64
	// Duration of the source audio in seconds. When zero, the end of
	// the last word stands in for it.
	Duration float64
	// NewID generates utterance identifiers; defaults to random UUIDs.
	NewID func() string
}

// BuildResponse merges transcribed words and diarized speaker segments
// into the Deepgram-compatible result document: one channel with one
// alternative carrying the speaker-tagged word list, plus the derived
// utterance sequence.
//
// Empty word input yields an empty document rather than an error, and
// empty segment input tags every word with UnknownSpeaker.
func BuildResponse(words []Word, segments []SpeakerSegment, opts FormatOptions) *Response {
	maxGap := opts.MaxUtteranceGap
	if maxGap <= 0 {
		maxGap = DefaultMaxUtteranceGap
	}
	newID := opts.NewID
	if newID == nil {
		newID = func() string { return uuid.New().String() }
	}

	tagged := AssignSpeakers(words, segments)
	utterances := BuildUtterances(tagged, maxGap, newID)

	confidence := 0.0
	if len(tagged) > 0 {
		for _, w := range tagged {
			confidence += w.Confidence
		}
		confidence /= float64(len(tagged))
	}
	duration := opts.Duration
	if duration == 0 && len(tagged) > 0 {
		duration = tagged[len(tagged)-1].End
	}

	return &Response{
		Metadata: Metadata{
			RequestID: opts.RequestID,
			ModelInfo: ModelInfo{Name: opts.ModelName},
			Duration:  duration,
		},
		Results: Results{
			Channels: []Channel{
				{
					Alternatives: []Alternative{
						{
							Transcript: joinPunctuated(tagged),
							Confidence: confidence,
							Words:      tagged,
						},
					},
				},
			},
			Utterances: utterances,
		},
	}
}
