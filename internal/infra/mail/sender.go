package mail

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"

	"gopkg.in/gomail.v2"
)

//go:embed templates/*.html
var templateFS embed.FS

var workspaceReadyTmpl = template.Must(template.ParseFS(templateFS, "templates/workspace_ready.html"))

func NewEmailSender(host string, port int, user, password, from string) *EmailSender {
	return &EmailSender{
		Host:     host,
		Port:     port,
		User:     user,
		Password: password,
		From:     from,
	}
}

func (s *EmailSender) SendWorkspaceReady(to string, data WorkspaceReadyData) error {
	msg, err := s.buildWorkspaceReady(to, data)
	if err != nil {
		return err
	}

	d := gomail.NewDialer(s.Host, s.Port, s.User, s.Password)
	if err := d.DialAndSend(msg); err != nil {
		return fmt.Errorf("send workspace ready mail: %w", err)
	}
	return nil
}

func (s *EmailSender) buildWorkspaceReady(to string, data WorkspaceReadyData) (*gomail.Message, error) {
	body, err := renderWorkspaceReady(data)
	if err != nil {
		return nil, err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", fmt.Sprintf("Your CRM workspace for %s is ready", data.BusinessName))
	m.SetBody("text/html", body)
	return m, nil
}

func renderWorkspaceReady(data WorkspaceReadyData) (string, error) {
	var body bytes.Buffer
	if err := workspaceReadyTmpl.Execute(&body, data); err != nil {
		return "", fmt.Errorf("render workspace ready template: %w", err)
	}
	return body.String(), nil
}
