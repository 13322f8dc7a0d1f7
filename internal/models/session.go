package models

import "time"

// Session status values
const (
	SessionPending   = "PENDING"
	SessionScheduled = "SCHEDULED"
	SessionCompleted = "COMPLETED"
	SessionCancelled = "CANCELLED"
	SessionMissed    = "MISSED"
)

// Session is a scheduled teaching session between two users.
type Session struct {
	ID          string    `bson:"_id" json:"id"`
	TeacherID   string    `bson:"teacherId" json:"teacherId"`
	LearnerID   string    `bson:"learnerId" json:"learnerId"`
	Topic       string    `bson:"topic" json:"topic"`
	ScheduledAt time.Time `bson:"scheduledAt" json:"scheduledAt"`
	Duration    int       `bson:"duration" json:"duration"` // minutes
	MeetLink    string    `bson:"meetLink,omitempty" json:"meetLink,omitempty"`
	Status      string    `bson:"status" json:"status"`
	Notes       string    `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt   time.Time `bson:"createdAt" json:"createdAt"`
}

// sessionTransitions encodes the lifecycle: a pending request is either
// scheduled or cancelled; a scheduled session ends completed, cancelled or
// missed. COMPLETED, CANCELLED and MISSED are terminal.
var sessionTransitions = map[string][]string{
	SessionPending:   {SessionScheduled, SessionCancelled},
	SessionScheduled: {SessionCompleted, SessionCancelled, SessionMissed},
}

// CanTransitionSession reports whether a session may move from one status to
// another. Setting the same status again is treated as a no-op and allowed.
func CanTransitionSession(from, to string) bool {
	if from == to {
		return true
	}
	for _, next := range sessionTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsParticipant reports whether userID is the session's teacher or learner.
func (s *Session) IsParticipant(userID string) bool {
	return s.TeacherID == userID || s.LearnerID == userID
}

// PartnerOf returns the other participant's id.
func (s *Session) PartnerOf(userID string) string {
	if s.TeacherID == userID {
		return s.LearnerID
	}
	return s.TeacherID
}

// SessionView decorates a session with partner display info for listings.
type SessionView struct {
	Session       `bson:",inline"`
	PartnerID     string `json:"partnerId"`
	PartnerName   string `json:"partnerName"`
	PartnerAvatar string `json:"partnerAvatar,omitempty"`
	Role          string `json:"role"` // "teacher" or "learner"
}
