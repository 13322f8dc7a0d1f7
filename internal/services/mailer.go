package services

import "time"

// Mailer sends transactional emails. All sends are fire-and-forget: failures
// are logged by the implementation and never surface to callers.
type Mailer interface {
	SendWelcome(email, name string)
	SendMutualMatch(email, name, partnerName string)
	SendSessionConfirmation(email, name, topic string, scheduledAt time.Time)
	SendProjectInvitation(email, name, projectTitle, ownerName string)
}
