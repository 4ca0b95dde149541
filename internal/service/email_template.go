package service

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"text/template"

	"github.com/vowline/vowline/internal/metrics"
	"github.com/vowline/vowline/internal/model"
	"github.com/vowline/vowline/internal/repository"
)

const (
	maxTemplateNameLength     = 100
	maxTemplateCategoryLength = 50
	maxTemplateBodyBytes      = 50000
)

// EmailTemplateService manages reusable emails and renders them for couples.
// Delivery is out of scope; rendered output is returned to the caller.
type EmailTemplateService struct {
	store   EmailTemplateStore
	clock   Clock
	metrics metrics.Recorder
	logger  *slog.Logger
}

// NewEmailTemplateService creates a new EmailTemplateService.
func NewEmailTemplateService(store EmailTemplateStore, clock Clock, recorder metrics.Recorder, logger *slog.Logger) *EmailTemplateService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &EmailTemplateService{store: store, clock: clock, metrics: recorder, logger: logger}
}

// CreateEmailTemplateInput defines input for creating a template.
type CreateEmailTemplateInput struct {
	UserID   string
	Name     string
	Category string
	Subject  string
	Body     string
}

// CreateEmailTemplate stores a template after checking that it parses.
func (s *EmailTemplateService) CreateEmailTemplate(ctx context.Context, input CreateEmailTemplateInput) (*model.EmailTemplate, error) {
	name, err := requireText("name", input.Name, maxTemplateNameLength)
	if err != nil {
		return nil, err
	}
	category := strings.TrimSpace(input.Category)
	if len(category) > maxTemplateCategoryLength {
		return nil, validationErrorf("category must be at most %d characters", maxTemplateCategoryLength)
	}
	subject, err := requireText("subject", input.Subject, maxSubjectLength)
	if err != nil {
		return nil, err
	}
	if err := validateTemplateBody(subject, input.Body); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	tmpl := &model.EmailTemplate{
		ID:        generateULID(),
		UserID:    input.UserID,
		Name:      name,
		Category:  category,
		Subject:   subject,
		Body:      input.Body,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.store.CreateEmailTemplate(ctx, tmpl); err != nil {
		return nil, storeError("create email template", err)
	}

	s.metrics.IncEntityCreated("email_template")
	return tmpl, nil
}

// GetEmailTemplate retrieves a template.
func (s *EmailTemplateService) GetEmailTemplate(ctx context.Context, userID, id string) (*model.EmailTemplate, error) {
	tmpl, err := s.store.GetEmailTemplate(ctx, userID, id)
	if err != nil {
		return nil, storeError("get email template", err)
	}
	return tmpl, nil
}

// ListEmailTemplatesInput defines input for listing templates.
type ListEmailTemplatesInput struct {
	UserID   string
	Page     int
	PerPage  int
	Category string
	Query    string
}

// ListEmailTemplates returns one page of templates ordered by name.
func (s *EmailTemplateService) ListEmailTemplates(ctx context.Context, input ListEmailTemplatesInput) (*model.Page[*model.EmailTemplate], error) {
	filter := repository.EmailTemplateFilter{
		UserID:   input.UserID,
		Category: strings.TrimSpace(input.Category),
		Query:    strings.TrimSpace(input.Query),
	}

	page := model.NewPageRequest(input.Page, input.PerPage)
	templates, total, err := s.store.ListEmailTemplates(ctx, filter, page)
	if err != nil {
		return nil, storeError("list email templates", err)
	}

	return model.NewPage(templates, total, page), nil
}

// UpdateEmailTemplateInput defines input for updating a template. Nil fields
// are left unchanged.
type UpdateEmailTemplateInput struct {
	UserID   string
	ID       string
	Name     *string
	Category *string
	Subject  *string
	Body     *string
}

// UpdateEmailTemplate applies a partial update.
func (s *EmailTemplateService) UpdateEmailTemplate(ctx context.Context, input UpdateEmailTemplateInput) (*model.EmailTemplate, error) {
	tmpl, err := s.store.GetEmailTemplate(ctx, input.UserID, input.ID)
	if err != nil {
		return nil, storeError("get email template", err)
	}

	if input.Name != nil {
		name, err := requireText("name", *input.Name, maxTemplateNameLength)
		if err != nil {
			return nil, err
		}
		tmpl.Name = name
	}
	if input.Category != nil {
		category := strings.TrimSpace(*input.Category)
		if len(category) > maxTemplateCategoryLength {
			return nil, validationErrorf("category must be at most %d characters", maxTemplateCategoryLength)
		}
		tmpl.Category = category
	}
	if input.Subject != nil {
		subject, err := requireText("subject", *input.Subject, maxSubjectLength)
		if err != nil {
			return nil, err
		}
		tmpl.Subject = subject
	}
	if input.Body != nil {
		tmpl.Body = *input.Body
	}
	if err := validateTemplateBody(tmpl.Subject, tmpl.Body); err != nil {
		return nil, err
	}

	tmpl.UpdatedAt = s.clock.Now()
	if err := s.store.UpdateEmailTemplate(ctx, tmpl); err != nil {
		return nil, storeError("update email template", err)
	}

	s.metrics.IncEntityUpdated("email_template")
	return tmpl, nil
}

// DeleteEmailTemplate deletes a template.
func (s *EmailTemplateService) DeleteEmailTemplate(ctx context.Context, userID, id string) error {
	if err := s.store.DeleteEmailTemplate(ctx, userID, id); err != nil {
		return storeError("delete email template", err)
	}

	s.metrics.IncEntityDeleted("email_template")
	return nil
}

// RenderInput defines input for rendering a template against a couple.
type RenderInput struct {
	UserID     string
	TemplateID string
	CoupleID   string
	// Log records the rendered email as an outbound communication.
	Log bool
}

// Render fills a template's placeholders from the couple and the celebrant.
func (s *EmailTemplateService) Render(ctx context.Context, input RenderInput) (*model.RenderedEmail, error) {
	tmpl, err := s.store.GetEmailTemplate(ctx, input.UserID, input.TemplateID)
	if err != nil {
		return nil, storeError("get email template", err)
	}
	couple, err := s.store.GetCouple(ctx, input.UserID, input.CoupleID)
	if err != nil {
		return nil, storeError("get couple", err)
	}
	user, err := s.store.GetUserByID(ctx, input.UserID)
	if err != nil {
		return nil, storeError("get user", err)
	}

	data := NewTemplateData(couple, user)
	subject, err := renderText("subject", tmpl.Subject, data)
	if err != nil {
		return nil, err
	}
	body, err := renderText("body", tmpl.Body, data)
	if err != nil {
		return nil, err
	}

	rendered := &model.RenderedEmail{Subject: subject, Body: body, To: recipients(couple)}

	if input.Log {
		now := s.clock.Now()
		entry := &model.CommunicationLog{
			ID:         generateULID(),
			UserID:     input.UserID,
			CoupleID:   couple.ID,
			Channel:    model.ChannelEmail,
			Direction:  model.DirectionOutbound,
			Subject:    subject,
			Body:       body,
			OccurredAt: now,
			CreatedAt:  now,
		}
		if err := s.store.CreateCommunication(ctx, entry); err != nil {
			return nil, storeError("create communication", err)
		}
		s.metrics.IncEntityCreated("communication")
	}

	return rendered, nil
}

// NewTemplateData builds the placeholder set for a couple.
func NewTemplateData(couple *model.Couple, user *model.User) model.TemplateData {
	data := model.TemplateData{
		Partner1Name: couple.Partner1Name,
		Partner2Name: couple.Partner2Name,
		CoupleName:   couple.DisplayName(),
	}
	if couple.WeddingDate != nil {
		data.WeddingDate = couple.WeddingDate.Format("2 January 2006")
	}
	if user != nil {
		data.CelebrantName = user.FullName
		data.BusinessName = user.BusinessName
	}
	return data
}

func recipients(c *model.Couple) []string {
	to := make([]string, 0, 2)
	for _, addr := range []string{c.Partner1Email, c.Partner2Email} {
		if addr != "" {
			to = append(to, addr)
		}
	}
	return to
}

func parseTemplate(name, text string) (*template.Template, error) {
	return template.New(name).Option("missingkey=error").Parse(text)
}

// validateTemplateBody parses subject and body and dry-runs them against
// empty data so unknown placeholders fail at save time.
func validateTemplateBody(subject, body string) error {
	if len(body) > maxTemplateBodyBytes {
		return validationErrorf("body must be at most %d bytes", maxTemplateBodyBytes)
	}
	for _, part := range []struct{ name, text string }{{"subject", subject}, {"body", body}} {
		t, err := parseTemplate(part.name, part.text)
		if err != nil {
			return validationErrorf("%s is not a valid template: %v", part.name, err)
		}
		if err := t.Execute(&bytes.Buffer{}, model.TemplateData{}); err != nil {
			return validationErrorf("%s is not a valid template: %v", part.name, err)
		}
	}
	return nil
}

func renderText(name, text string, data model.TemplateData) (string, error) {
	t, err := parseTemplate(name, text)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrTemplateRender, name, err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrTemplateRender, name, err)
	}
	return buf.String(), nil
}
