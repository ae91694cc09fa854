package session

import "strings"

// Transcript outlives sessions and is only reset by Clear.
type Transcript struct {
	tokensPerLine int
	live          string
	final         strings.Builder
	tokens        int
}

func NewTranscript(tokensPerLine int) *Transcript {
	return &Transcript{tokensPerLine: tokensPerLine}
}

func (t *Transcript) SetLive(text string) {
	t.live = text
}

func (t *Transcript) AppendFinal(text string) {
	t.tokens++
	t.final.WriteString(text)
	t.final.WriteString(" ")
	if t.tokensPerLine > 0 && t.tokens%t.tokensPerLine == 0 {
		t.final.WriteString("\n")
	}
}

func (t *Transcript) Clear() {
	t.live = ""
	t.final.Reset()
	t.tokens = 0
}

func (t *Transcript) Live() string {
	return t.live
}

func (t *Transcript) Final() string {
	return t.final.String()
}
