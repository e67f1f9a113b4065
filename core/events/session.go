package events

const (
	// KindSessionJoined identifies a successful meeting join.
	KindSessionJoined Kind = "session.joined"
	// KindSessionEnded identifies a completed end-session request.
	KindSessionEnded Kind = "session.ended"
	// KindSessionEndFailed identifies a failed end-session request.
	KindSessionEndFailed Kind = "session.end_failed"
	// KindEvidenceUpdated identifies a newly published evidence snapshot.
	KindEvidenceUpdated Kind = "session.evidence_updated"
)

// SessionJoined carries the identifiers and case metadata of a joined meeting.
type SessionJoined struct {
	Base
	MeetingID   string
	CaseID      string
	CaseTitle   string
	CaseSummary string
}

// NewSessionJoined creates a session joined event.
func NewSessionJoined(meetingID, caseID, caseTitle, caseSummary string) SessionJoined {
	return SessionJoined{
		Base:        NewBase(KindSessionJoined),
		MeetingID:   meetingID,
		CaseID:      caseID,
		CaseTitle:   caseTitle,
		CaseSummary: caseSummary,
	}
}

// SessionEnded carries the closing report returned by the backend.
type SessionEnded struct {
	Base
	Summary  string
	Score    int
	Feedback string
}

// NewSessionEnded creates a session ended event.
func NewSessionEnded(summary string, score int, feedback string) SessionEnded {
	return SessionEnded{Base: NewBase(KindSessionEnded), Summary: summary, Score: score, Feedback: feedback}
}

// SessionEndFailed marks a failed end-session request so the triggering
// affordance can re-enable.
type SessionEndFailed struct {
	Base
	Err error
}

// NewSessionEndFailed creates a session end failed event.
func NewSessionEndFailed(err error) SessionEndFailed {
	return SessionEndFailed{Base: NewBase(KindSessionEndFailed), Err: err}
}

// EvidenceUpdated marks publication of a new immutable evidence snapshot.
type EvidenceUpdated struct {
	Base
	Pages int
}

// NewEvidenceUpdated creates an evidence updated event.
func NewEvidenceUpdated(pages int) EvidenceUpdated {
	return EvidenceUpdated{Base: NewBase(KindEvidenceUpdated), Pages: pages}
}
