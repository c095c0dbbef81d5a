package asr

import (
	"strconv"
	"strings"

	"github.com/rroosshhaann/whisper-diarization/internal/diarize"
)

var onesWords = []string{
	"zero", "one", "two", "three", "four", "five", "six", "seven",
	"eight", "nine", "ten", "eleven", "twelve", "thirteen", "fourteen",
	"fifteen", "sixteen", "seventeen", "eighteen", "nineteen",
}

var tensWords = []string{
	"", "", "twenty", "thirty", "forty", "fifty", "sixty", "seventy",
	"eighty", "ninety",
}

// spellOutNumerals rewrites plain integer tokens as spelled-out English
// words. The recognizer offers no decode-time token suppression, so the
// rewrite happens on its output instead; the effect is the same, numbers
// reach the alignment stage as words.
func spellOutNumerals(words []diarize.Word) []diarize.Word {
	out := make([]diarize.Word, len(words))
	for i, w := range words {
		out[i] = w
		out[i].Text = spellToken(w.Text)
	}
	return out
}

// spellToken converts a token that is a non-negative integer, tolerating
// digit-grouping commas and trailing punctuation. Anything else passes
// through unchanged.
func spellToken(text string) string {
	body := text
	suffix := ""
	for len(body) > 0 {
		switch body[len(body)-1] {
		case '.', ',', '!', '?', ';', ':':
			suffix = string(body[len(body)-1]) + suffix
			body = body[:len(body)-1]
			continue
		}
		break
	}

	digits := strings.ReplaceAll(body, ",", "")
	if digits == "" {
		return text
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return text
		}
	}
	n, err := strconv.Atoi(digits)
	if err != nil || n >= 1_000_000_000_000 {
		return text
	}
	return spellInteger(n) + suffix
}

func spellInteger(n int) string {
	switch {
	case n < 20:
		return onesWords[n]
	case n < 100:
		s := tensWords[n/10]
		if n%10 != 0 {
			s += " " + onesWords[n%10]
		}
		return s
	case n < 1000:
		s := onesWords[n/100] + " hundred"
		if n%100 != 0 {
			s += " " + spellInteger(n%100)
		}
		return s
	}

	scales := []struct {
		value int
		name  string
	}{
		{1_000_000_000, "billion"},
		{1_000_000, "million"},
		{1_000, "thousand"},
	}
	for _, scale := range scales {
		if n >= scale.value {
			s := spellInteger(n/scale.value) + " " + scale.name
			if n%scale.value != 0 {
				s += " " + spellInteger(n%scale.value)
			}
			return s
		}
	}
	return onesWords[0]
}
