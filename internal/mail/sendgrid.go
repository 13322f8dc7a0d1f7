package mail

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"
)

const sendGridURL = "https://api.sendgrid.com/v3/mail/send"

// Service sends transactional emails via the SendGrid v3 API. All senders are
// fire-and-forget: they run in a goroutine, log failures and never block the
// caller. Rate limited to 1 email per recipient per minute.
type Service struct {
	apiKey    string
	fromEmail string
	client    *http.Client

	lastSent map[string]time.Time
	mu       sync.RWMutex
	window   time.Duration
}

// NewService creates the mail service. An empty apiKey disables sending (all
// senders become logged no-ops), which keeps local development mail-free.
func NewService(apiKey, fromEmail string) *Service {
	s := &Service{
		apiKey:    apiKey,
		fromEmail: fromEmail,
		client:    &http.Client{Timeout: 30 * time.Second},
		lastSent:  make(map[string]time.Time),
		window:    time.Minute,
	}

	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		for range ticker.C {
			s.cleanupRateLimits()
		}
	}()

	return s
}

// allowed checks the per-recipient rate limit.
func (s *Service) allowed(email string) bool {
	s.mu.RLock()
	lastSent, exists := s.lastSent[strings.ToLower(email)]
	s.mu.RUnlock()

	return !exists || time.Since(lastSent) >= s.window
}

func (s *Service) recordSent(email string) {
	s.mu.Lock()
	s.lastSent[strings.ToLower(email)] = time.Now()
	s.mu.Unlock()
}

func (s *Service) cleanupRateLimits() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for email, lastSent := range s.lastSent {
		if now.Sub(lastSent) > s.window {
			delete(s.lastSent, email)
		}
	}
}

type sgEmail struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type sgPersonalization struct {
	To []sgEmail `json:"to"`
}

type sgContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type sgRequest struct {
	Personalizations []sgPersonalization `json:"personalizations"`
	From             sgEmail             `json:"from"`
	Subject          string              `json:"subject"`
	Content          []sgContent         `json:"content"`
}

// send dispatches one email asynchronously.
func (s *Service) send(toEmail, toName, subject, body string) {
	if s.apiKey == "" || toEmail == "" {
		return
	}
	if !s.allowed(toEmail) {
		log.Printf("📧 [MAIL] Rate limited: %s (%s)", toEmail, subject)
		return
	}
	s.recordSent(toEmail)

	go func() {
		payload := sgRequest{
			Personalizations: []sgPersonalization{{To: []sgEmail{{Email: toEmail, Name: toName}}}},
			From:             sgEmail{Email: s.fromEmail, Name: "SkillShare"},
			Subject:          subject,
			Content:          []sgContent{{Type: "text/plain", Value: body}},
		}

		data, err := json.Marshal(payload)
		if err != nil {
			log.Printf("⚠️ [MAIL] Failed to serialize email: %v", err)
			return
		}

		req, err := http.NewRequest("POST", sendGridURL, bytes.NewBuffer(data))
		if err != nil {
			log.Printf("⚠️ [MAIL] Failed to create request: %v", err)
			return
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+s.apiKey)

		resp, err := s.client.Do(req)
		if err != nil {
			log.Printf("⚠️ [MAIL] Send failed for %s: %v", toEmail, err)
			return
		}
		defer resp.Body.Close()

		// SendGrid returns 202 Accepted on success
		if resp.StatusCode != http.StatusAccepted {
			respBody, _ := io.ReadAll(resp.Body)
			log.Printf("⚠️ [MAIL] SendGrid returned %d for %s: %s", resp.StatusCode, toEmail, string(respBody))
			return
		}

		log.Printf("📧 [MAIL] Sent %q to %s", subject, toEmail)
	}()
}

// SendWelcome greets a newly created profile.
func (s *Service) SendWelcome(email, name string) {
	s.send(email, name, "Welcome to SkillShare!",
		fmt.Sprintf("Hi %s,\n\nWelcome to SkillShare! Add the skills you can teach and the ones you want to learn, and we'll find your first match.\n\nHappy learning!", name))
}

// SendMutualMatch announces a mutual match.
func (s *Service) SendMutualMatch(email, name, partnerName string) {
	s.send(email, name, "You have a new match!",
		fmt.Sprintf("Hi %s,\n\nGreat news: you and %s matched! An introductory session has been scheduled. Say hi in the chat.\n", name, partnerName))
}

// SendSessionConfirmation confirms a scheduled session.
func (s *Service) SendSessionConfirmation(email, name, topic string, scheduledAt time.Time) {
	s.send(email, name, "Session confirmed: "+topic,
		fmt.Sprintf("Hi %s,\n\nYour session %q is confirmed for %s.\n", name, topic, scheduledAt.Format(time.RFC1123)))
}

// SendProjectInvitation invites a user to a project.
func (s *Service) SendProjectInvitation(email, name, projectTitle, ownerName string) {
	s.send(email, name, "Project invitation: "+projectTitle,
		fmt.Sprintf("Hi %s,\n\n%s invited you to join the project %q. Open SkillShare to accept.\n", name, ownerName, projectTitle))
}
