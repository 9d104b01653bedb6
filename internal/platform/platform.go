// Package platform declares the boundary to the chat platform. The gateway,
// command registration, and presentation formatting live behind these
// interfaces; the lifecycle core only issues commands and consumes events.
package platform

import (
	"context"
	"time"
)

// ChannelRef identifies a channel on the chat platform.
type ChannelRef struct {
	ID   string
	Name string
}

// PermissionSet is the subset of channel permission overwrites the lifecycle
// grants or revokes.
type PermissionSet struct {
	Read           bool
	Send           bool
	AttachFiles    bool
	ManageMessages bool
}

// ChannelRequest describes a ticket channel to create.
type ChannelRequest struct {
	Name        string
	Topic       string
	CategoryID  string
	RequesterID string
	StaffRoleID string
}

// FileUpload attaches a document to an outbound message.
type FileUpload struct {
	Name    string
	Content []byte
}

// Commander issues outbound commands to the platform layer. Every call is a
// fire-and-forget command whose failure the caller must tolerate.
type Commander interface {
	CreateTicketChannel(ctx context.Context, req ChannelRequest) (ChannelRef, error)
	SendMessage(ctx context.Context, channelID, content string) error
	SendMessageWithFile(ctx context.Context, channelID, content string, file FileUpload) error
	SetChannelPermissions(ctx context.Context, channelID, subjectID string, perms PermissionSet) error
	ClearChannelPermissions(ctx context.Context, channelID, subjectID string) error
	RenameChannel(ctx context.Context, channelID, name string) error
	DeleteChannel(ctx context.Context, channelID string) error
	SendDirect(ctx context.Context, userID, content string) error
	// SendRatingPrompt delivers a direct message carrying the star controls
	// bound to the given prompt token.
	SendRatingPrompt(ctx context.Context, userID, ticketID, promptToken string) error
}

// Actor is the identity attached to an inbound event.
type Actor struct {
	ID          string
	DisplayName string
	Roles       []string
	Bot         bool
}

// HasRole reports whether the actor carries the given role ID.
func (a Actor) HasRole(roleID string) bool {
	for _, r := range a.Roles {
		if r == roleID {
			return true
		}
	}
	return false
}

// MessageEvent is a message posted in some channel.
type MessageEvent struct {
	Actor       Actor
	ChannelID   string
	Content     string
	Attachments []string
	Timestamp   time.Time
}

// TypeSelectedEvent is a ticket-type selection from the ticket panel.
type TypeSelectedEvent struct {
	Actor    Actor
	Category string
}

// ClaimEvent is a claim button press inside a ticket channel.
type ClaimEvent struct {
	Actor    Actor
	TicketID string
}

// CloseEvent is a close button press inside a ticket channel.
type CloseEvent struct {
	Actor    Actor
	TicketID string
}

// CloseDecisionEvent resolves a pending close-confirmation prompt.
type CloseDecisionEvent struct {
	Actor       Actor
	PromptToken string
	Confirmed   bool
}

// RatingEvent is a star press on a rating prompt.
type RatingEvent struct {
	Actor       Actor
	PromptToken string
	Stars       int
}
