package diarize

import "sort"

// AssignSpeakers tags every word with exactly one speaker label.
//
// A word takes the speaker of the segment with maximal temporal overlap
// against the word's [start, end) interval; on an exact overlap tie the
// segment with the earlier start wins. A word overlapping no segment at
// all takes the nearest segment by midpoint distance, again preferring
// the earlier segment on a tie. When no segments exist every word is
// tagged UnknownSpeaker.
//
// SpeakerConfidence is the fractional overlap in [0, 1] used for the
// assignment, or 1.0 when the segment fully contains the word.
func AssignSpeakers(words []Word, segments []SpeakerSegment) []TaggedWord {
	sorted := make([]SpeakerSegment, len(segments))
	copy(sorted, segments)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Start < sorted[j].Start
	})

	tagged := make([]TaggedWord, 0, len(words))
	for _, w := range words {
		punctuated := w.PunctuatedWord
		if punctuated == "" {
			punctuated = w.Text
		}

		speaker, confidence := assignSpeaker(w, sorted)
		tagged = append(tagged, TaggedWord{
			Word:              w.Text,
			Start:             w.Start,
			End:               w.End,
			Confidence:        w.Confidence,
			Speaker:           speaker,
			SpeakerConfidence: confidence,
			PunctuatedWord:    punctuated,
		})
	}
	return tagged
}

// assignSpeaker picks the speaker for one word against sorted segments.
func assignSpeaker(w Word, segments []SpeakerSegment) (string, float64) {
	if len(segments) == 0 {
		return UnknownSpeaker, 0
	}

	bestIdx := -1
	bestOverlap := 0.0
	for i, seg := range segments {
		ov := overlap(w.Start, w.End, seg.Start, seg.End)
		if ov > bestOverlap {
			bestOverlap = ov
			bestIdx = i
		}
		// Equal overlap keeps the earlier segment because segments are
		// sorted by start time and only a strictly greater overlap wins.
	}

	if bestIdx >= 0 {
		seg := segments[bestIdx]
		if w.Start >= seg.Start && w.End <= seg.End {
			return seg.Speaker, 1.0
		}
		duration := w.End - w.Start
		if duration <= 0 {
			return seg.Speaker, 1.0
		}
		return seg.Speaker, bestOverlap / duration
	}

	// No overlap anywhere: nearest segment by midpoint distance,
	// earlier segment on an exact tie.
	mid := (w.Start + w.End) / 2
	nearest := 0
	nearestDist := midpointDistance(mid, segments[0])
	for i := 1; i < len(segments); i++ {
		if d := midpointDistance(mid, segments[i]); d < nearestDist {
			nearestDist = d
			nearest = i
		}
	}
	return segments[nearest].Speaker, 0
}

// overlap returns the length of the intersection of two intervals.
func overlap(aStart, aEnd, bStart, bEnd float64) float64 {
	start := aStart
	if bStart > start {
		start = bStart
	}
	end := aEnd
	if bEnd < end {
		end = bEnd
	}
	if end <= start {
		return 0
	}
	return end - start
}

// midpointDistance measures how far a time point is from a segment's midpoint.
func midpointDistance(t float64, seg SpeakerSegment) float64 {
	mid := (seg.Start + seg.End) / 2
	if t > mid {
		return t - mid
	}
	return mid - t
}

// BuildUtterances groups consecutive same-speaker words into utterances.
// A boundary occurs on a speaker change or when the silence between two
// words exceeds maxGap seconds, even for an unchanged speaker. newID
// supplies the identifier for each utterance.
func BuildUtterances(words []TaggedWord, maxGap float64, newID func() string) []Utterance {
	utterances := make([]Utterance, 0)
	if len(words) == 0 {
		return utterances
	}

	start := 0
	for i := 1; i <= len(words); i++ {
		if i < len(words) &&
			words[i].Speaker == words[i-1].Speaker &&
			words[i].Start-words[i-1].End <= maxGap {
			continue
		}
		utterances = append(utterances, buildUtterance(words[start:i], newID()))
		start = i
	}
	return utterances
}

// buildUtterance aggregates one run of words into an utterance.
func buildUtterance(words []TaggedWord, id string) Utterance {
	run := make([]TaggedWord, len(words))
	copy(run, words)

	confidence := 0.0
	for _, w := range run {
		confidence += w.Confidence
	}
	confidence /= float64(len(run))

	return Utterance{
		ID:         id,
		Start:      run[0].Start,
		End:        run[len(run)-1].End,
		Confidence: confidence,
		Channel:    0,
		Transcript: joinPunctuated(run),
		Words:      run,
		Speaker:    run[0].Speaker,
	}
}

// joinPunctuated space-joins punctuated words in temporal order.
func joinPunctuated(words []TaggedWord) string {
	total := 0
	for _, w := range words {
		total += len(w.PunctuatedWord) + 1
	}

	out := make([]byte, 0, total)
	for i, w := range words {
		if i > 0 {
			out = append(out, ' ')
		}
		out = append(out, w.PunctuatedWord...)
	}
	return string(out)
}
