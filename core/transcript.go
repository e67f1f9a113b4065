package courtroom

import (
	"time"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
	"github.com/justix/courtsim-core/core/events"
)

// TranscriptEntry is one line of the hearing's transcript. User entries
// record that an utterance was sent; counterpart entries carry the reply's
// text and emotion label.
type TranscriptEntry struct {
	ID      string
	Speaker events.Speaker
	Text    string
	Emotion string
	At      time.Time
}

func (c *Courtroom) appendTranscript(speaker events.Speaker, text, emotion string) {
	c.transcript = append(c.transcript, TranscriptEntry{
		ID:      uuid.NewString(),
		Speaker: speaker,
		Text:    text,
		Emotion: emotion,
		At:      c.clock.Now(),
	})
}

// Transcript returns a point-in-time copy of the transcript. The copy is
// detached; later replies do not mutate it.
func (c *Courtroom) Transcript() []TranscriptEntry {
	snapshot := make([]TranscriptEntry, 0, len(c.transcript))
	if err := copier.CopyWithOption(&snapshot, c.transcript, copier.Option{DeepCopy: true}); err != nil {
		logger.Warn("failed to copy transcript", "error", err)
		return nil
	}
	return snapshot
}
