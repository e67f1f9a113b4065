package session

import "image"

type joinRequest struct {
	MeetingCode string `json:"meetingCode"`
}

type joinResponse struct {
	Success       bool     `json:"success"`
	MeetingID     string   `json:"meetingId"`
	CaseID        string   `json:"caseId"`
	CaseTitle     string   `json:"caseTitle"`
	CaseSummary   string   `json:"caseSummary"`
	EvidencePages []string `json:"evidencePages"`
}

type endRequest struct {
	MeetingID string `json:"meetingId"`
}

type endResponse struct {
	Success  bool   `json:"success"`
	Summary  string `json:"summary"`
	Score    int    `json:"score"`
	Feedback string `json:"feedback"`
}

// Joined is the parsed result of a successful meeting join.
type Joined struct {
	MeetingID     string
	CaseID        string
	CaseTitle     string
	CaseSummary   string
	EvidencePages []string
}

// EndReport is the closing report returned when a meeting ends.
type EndReport struct {
	Summary  string
	Score    int
	Feedback string
}

// Evidence is one decoded evidence page.
type Evidence struct {
	URL   string
	Image image.Image
}
