package service

import (
	"fmt"
	"strings"

	"birthdays/internal/models"
)

// DefaultGreetingTemplate is the body rendered for annual event messages.
// The rendered text is captured on the record at creation time, so later
// template or name changes do not affect in-flight messages.
const DefaultGreetingTemplate = "Hey, {full_name} it's your {event}"

// TemplateService renders message templates
type TemplateService struct{}

// NewTemplateService creates a new template service
func NewTemplateService() *TemplateService {
	return &TemplateService{}
}

// Render renders a template with user data.
// Replaces {field_name} placeholders with actual values; unknown placeholders
// are left as-is.
func (s *TemplateService) Render(template string, user *models.User, event string) (string, error) {
	if template == "" {
		return "", fmt.Errorf("template cannot be empty")
	}
	if user == nil {
		return "", fmt.Errorf("user cannot be nil")
	}

	replacer := strings.NewReplacer(
		"{first_name}", user.FirstName,
		"{last_name}", user.LastName,
		"{full_name}", user.FullName(),
		"{email}", user.Email,
		"{event}", event,
	)

	return replacer.Replace(template), nil
}

// ValidateTemplate checks if template has valid syntax
func (s *TemplateService) ValidateTemplate(template string) error {
	if template == "" {
		return fmt.Errorf("template cannot be empty")
	}

	openCount := strings.Count(template, "{")
	closeCount := strings.Count(template, "}")
	if openCount != closeCount {
		return fmt.Errorf("template has unbalanced braces: %d open, %d close", openCount, closeCount)
	}

	return nil
}
