package models

import (
	"fmt"
	"strings"
	"time"
)

// NewsPost is an editorial post published by an admin
type NewsPost struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Category  string     `json:"category"`
	Body      string     `json:"body"`
	ImageURL  *string    `json:"image_url,omitempty"`
	VideoURL  *string    `json:"video_url,omitempty"`
	Source    *string    `json:"source,omitempty"`
	MatchDate *time.Time `json:"match_date,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// CreateNewsInput is the payload for publishing a news post
type CreateNewsInput struct {
	Title     string     `json:"title"`
	Category  string     `json:"category"`
	Body      string     `json:"body"`
	ImageURL  *string    `json:"image_url"`
	VideoURL  *string    `json:"video_url"`
	Source    *string    `json:"source"`
	MatchDate *time.Time `json:"match_date"`
}

func (in *CreateNewsInput) Validate() error {
	if blank(in.Title) || blank(in.Body) {
		return fmt.Errorf("%w: title and body are required", ErrValidation)
	}
	return nil
}

// Message is a user to admin chat message with an optional admin reply
type Message struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	UserName  string    `json:"user_name"`
	Content   string    `json:"content"`
	Reply     *string   `json:"reply,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	IsRead    bool      `json:"is_read"`
}

// Answered reports whether an admin has replied
func (m *Message) Answered() bool {
	return m.Reply != nil
}

// CreateMessageInput is the payload a user sends to the admin inbox
type CreateMessageInput struct {
	Content string `json:"content"`
}

func (in *CreateMessageInput) Validate() error {
	if blank(in.Content) {
		return fmt.Errorf("%w: content is required", ErrValidation)
	}
	return nil
}

// ReplyInput is the admin's answer to a message
type ReplyInput struct {
	Reply string `json:"reply"`
}

func (in *ReplyInput) Validate() error {
	if blank(in.Reply) {
		return fmt.Errorf("%w: reply is required", ErrValidation)
	}
	return nil
}

// Role is the authorization level of an actor
type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

// Actor is the identity performing an operation. The zero value is an
// anonymous visitor.
type Actor struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Role   Role   `json:"role"`
}

// Anonymous reports whether no identity was supplied
func (a Actor) Anonymous() bool {
	return a.UserID == ""
}

// IsAdmin reports whether the actor holds the admin role
func (a Actor) IsAdmin() bool {
	return !a.Anonymous() && strings.EqualFold(string(a.Role), string(RoleAdmin))
}
