package model

import "time"

// EmailTemplate is a reusable message with text/template placeholders.
type EmailTemplate struct {
	ID        string
	UserID    string
	Name      string
	Category  string
	Subject   string
	Body      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TemplateData is the placeholder set available when rendering a template
// against a couple.
type TemplateData struct {
	Partner1Name  string
	Partner2Name  string
	CoupleName    string
	WeddingDate   string
	CelebrantName string
	BusinessName  string
}

// RenderedEmail is a template rendered for a couple.
type RenderedEmail struct {
	Subject string
	Body    string
	To      []string
}
