// Package history renders recent session exchanges into a context
// block suitable for inclusion in an assembled prompt.
package history

import (
	"fmt"
	"strings"
	"time"

	"github.com/saberlights/maimai-SillyTavern-plugin/pkg/textformat"
)

// Record is one stored exchange between the user and the bot within a
// roleplay session.
type Record struct {
	Timestamp   time.Time `json:"timestamp"`
	Location    string    `json:"location,omitempty"`
	Outfit      string    `json:"outfit,omitempty"`
	UserMessage string    `json:"user_message"`
	BotReply    string    `json:"bot_reply"`
	Scene       string    `json:"scene,omitempty"`
}

const (
	// DefaultLimit is the number of recent exchanges included when the
	// caller does not say otherwise.
	DefaultLimit = 10
	// MaxLimit caps how much history a single context block may carry.
	MaxLimit = 50

	// detailWindow is how many trailing exchanges stay fully detailed
	// when a long history gets summarized.
	detailWindow = 5

	scenePreviewLimit = 100
	keyMessageLimit   = 20
)

// ClampLimit normalizes a caller-supplied history limit.
func ClampLimit(limit int) int {
	if limit < 0 {
		return 0
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// ContextBlock renders records (oldest first) into a prompt context
// block. Long histories get a hybrid rendering: a compressed summary
// of the early exchanges followed by the last few in full detail.
// An empty record set still renders a header so the model knows the
// session has no prior context.
func ContextBlock(records []Record) string {
	if len(records) == 0 {
		return "[Recent exchanges] none recorded yet"
	}

	if len(records) > detailWindow {
		return hybridBlock(records)
	}

	lines := []string{fmt.Sprintf("[Recent exchanges] (oldest first, %d turns)", len(records))}
	lines = append(lines, detailLines(records)...)
	return strings.Join(lines, "\n")
}

func hybridBlock(records []Record) string {
	summarized := records[:len(records)-detailWindow]
	recent := records[len(records)-detailWindow:]

	lines := []string{fmt.Sprintf("[Recent exchanges] (%d turns total)", len(records))}
	lines = append(lines, fmt.Sprintf("\n[Earlier summary] (%d turns)", len(summarized)))
	lines = append(lines, Summarize(summarized))
	lines = append(lines, fmt.Sprintf("\n[Latest detail] (%d turns)", len(recent)))
	lines = append(lines, detailLines(recent)...)
	return strings.Join(lines, "\n")
}

func detailLines(records []Record) []string {
	var lines []string
	for i, r := range records {
		header := fmt.Sprintf("%d.", i+1)
		if !r.Timestamp.IsZero() {
			header += " [" + r.Timestamp.Format("2006-01-02 15:04") + "]"
		}
		if r.Location != "" {
			header += " location: " + r.Location
		}
		if r.Outfit != "" {
			header += " / outfit: " + r.Outfit
		}
		lines = append(lines, header)
		lines = append(lines, "    user: "+orNone(textformat.Collapse(r.UserMessage)))
		lines = append(lines, "    bot: "+orNone(textformat.Collapse(r.BotReply)))
		if scene := textformat.Collapse(r.Scene); scene != "" {
			lines = append(lines, "    scene: "+textformat.Truncate(scene, scenePreviewLimit))
		}
	}
	return lines
}

// Summarize compresses exchanges into a location trail plus the first
// few user messages, for histories too long to replay in full.
func Summarize(records []Record) string {
	if len(records) == 0 {
		return "none"
	}

	var trail []string
	for _, r := range records {
		if r.Location != "" && (len(trail) == 0 || trail[len(trail)-1] != r.Location) {
			trail = append(trail, r.Location)
		}
	}

	var keyMessages []string
	for _, r := range records {
		if msg := textformat.Collapse(r.UserMessage); msg != "" {
			keyMessages = append(keyMessages, textformat.Truncate(msg, keyMessageLimit))
		}
	}

	var parts []string
	if len(trail) > 0 {
		shown := trail
		suffix := ""
		if len(shown) > 5 {
			shown = shown[:5]
			suffix = " -> ..."
		}
		parts = append(parts, "location trail: "+strings.Join(shown, " -> ")+suffix)
	}
	if len(keyMessages) > 0 {
		shown := keyMessages
		if len(shown) > 3 {
			shown = append(shown[:3:3], fmt.Sprintf("... and %d more", len(keyMessages)-3))
		}
		parts = append(parts, "key messages: "+strings.Join(shown, "; "))
	}
	if len(parts) == 0 {
		return "ordinary conversation"
	}
	return strings.Join(parts, "\n")
}

func orNone(s string) string {
	if s == "" {
		return "(empty)"
	}
	return s
}
