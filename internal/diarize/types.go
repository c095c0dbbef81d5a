package diarize

// Word is a transcribed word with refined timestamps and confidence.
type Word struct {
	Text           string  `json:"text"`
	Start          float64 `json:"start"`
	End            float64 `json:"end"`
	Confidence     float64 `json:"confidence"`
	PunctuatedWord string  `json:"punctuated_word,omitempty"`
}

// SpeakerSegment is one diarized time range attributed to a speaker.
// Segments are non-overlapping within a channel and ordered by Start.
type SpeakerSegment struct {
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Speaker string  `json:"speaker"`
}

// UnknownSpeaker is assigned when diarization produced no segments.
const UnknownSpeaker = "unknown"

// Response is the Deepgram-compatible result document.
type Response struct {
	Metadata Metadata `json:"metadata"`
	Results  Results  `json:"results"`
}

// Metadata describes the request and model used.
type Metadata struct {
	RequestID string    `json:"request_id"`
	ModelInfo ModelInfo `json:"model_info"`
	Duration  float64   `json:"duration"`
}

// ModelInfo identifies the transcription model.
type ModelInfo struct {
	Name string `json:"name"`
}

// Results holds the channel alternatives and derived utterances.
type Results struct {
	Channels   []Channel   `json:"channels"`
	Utterances []Utterance `json:"utterances"`
}

// Channel holds transcription alternatives for one audio channel.
type Channel struct {
	Alternatives []Alternative `json:"alternatives"`
}

// Alternative is one transcription hypothesis with per-word detail.
type Alternative struct {
	Transcript string       `json:"transcript"`
	Confidence float64      `json:"confidence"`
	Words      []TaggedWord `json:"words"`
}

// TaggedWord is a word with its assigned speaker.
type TaggedWord struct {
	Word              string  `json:"word"`
	Start             float64 `json:"start"`
	End               float64 `json:"end"`
	Confidence        float64 `json:"confidence"`
	Speaker           string  `json:"speaker"`
	SpeakerConfidence float64 `json:"speaker_confidence"`
	PunctuatedWord    string  `json:"punctuated_word"`
}

// Utterance is a contiguous single-speaker run of words.
type Utterance struct {
	ID         string       `json:"id"`
	Start      float64      `json:"start"`
	End        float64      `json:"end"`
	Confidence float64      `json:"confidence"`
	Channel    int          `json:"channel"`
	Transcript string       `json:"transcript"`
	Words      []TaggedWord `json:"words"`
	Speaker    string       `json:"speaker"`
}
