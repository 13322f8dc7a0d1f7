package models

import "time"

// MemberDetail is the display info embedded for each project member.
type MemberDetail struct {
	ID     string `bson:"id" json:"id"`
	Name   string `bson:"name" json:"name"`
	Avatar string `bson:"avatar,omitempty" json:"avatar,omitempty"`
}

// Project is a collaborative build project with invited and joined members.
type Project struct {
	ID               string         `bson:"_id" json:"id"`
	Title            string         `bson:"title" json:"title"`
	Description      string         `bson:"description" json:"description"`
	Stack            []string       `bson:"stack" json:"stack"`
	Type             string         `bson:"type,omitempty" json:"type,omitempty"`
	Difficulty       string         `bson:"difficulty,omitempty" json:"difficulty,omitempty"`
	Spots            int            `bson:"spots" json:"spots"`
	TotalSpots       int            `bson:"totalSpots" json:"totalSpots"`
	Repo             string         `bson:"repo,omitempty" json:"repo,omitempty"`
	OwnerID          string         `bson:"ownerId" json:"ownerId"`
	OwnerName        string         `bson:"ownerName" json:"ownerName"`
	MemberIDs        []string       `bson:"memberIds" json:"memberIds"`
	PendingMemberIDs []string       `bson:"pendingMemberIds" json:"pendingMemberIds"`
	MemberDetails    []MemberDetail `bson:"memberDetails" json:"memberDetails"`
	CreatedAt        time.Time      `bson:"createdAt" json:"createdAt"`
}

// RecomputeSpots re-derives the open spot count from membership. Must be
// called after every membership change before persisting.
func (p *Project) RecomputeSpots() {
	open := p.TotalSpots - len(p.MemberIDs)
	if open < 0 {
		open = 0
	}
	p.Spots = open
}

// HasMember reports whether userID has joined the project.
func (p *Project) HasMember(userID string) bool {
	for _, id := range p.MemberIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// HasPendingInvite reports whether userID holds an unaccepted invitation.
func (p *Project) HasPendingInvite(userID string) bool {
	for _, id := range p.PendingMemberIDs {
		if id == userID {
			return true
		}
	}
	return false
}
