// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package mail

import (
	"bytes"
	"fmt"
	"html/template"
	"time"
)

var credentialTemplate = template.Must(template.New("credential").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #1f2937;">
  <h2>Portal Corporativo</h2>
  <p>Olá, {{.Name}}.</p>
  <p>Uma nova senha temporária foi gerada para a matrícula <strong>{{.RegistrationCode}}</strong>.</p>
  <p style="font-size: 18px;">Senha: <code>{{.Password}}</code></p>
  <p>Você deverá trocar esta senha no primeiro acesso.</p>
</body>
</html>`))

var newUserTemplate = template.Must(template.New("new_user").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #1f2937;">
  <h2>Novo cadastro aguardando aprovação</h2>
  <ul>
    <li>Nome: {{.Name}}</li>
    <li>Matrícula: {{.RegistrationCode}}</li>
    <li>Área: {{.Area}}</li>
    <li>Data: {{.RequestedAt}}</li>
  </ul>
  <p>Acesse o painel administrativo para aprovar ou bloquear o acesso.</p>
</body>
</html>`))

// CredentialData fills the issued credential email.
type CredentialData struct {
	Name             string
	RegistrationCode string
	Password         string
}

// NewUserData fills the admin notification sent after a signup.
type NewUserData struct {
	Name             string
	RegistrationCode string
	Area             string
	RequestedAt      time.Time
}

// CredentialMessage renders the email carrying a freshly issued credential.
func CredentialMessage(to string, data CredentialData) (Message, error) {
	body, err := render(credentialTemplate, data)
	if err != nil {
		return Message{}, err
	}
	return Message{
		To:      []string{to},
		Subject: "Portal Corporativo - Nova senha de acesso",
		HTML:    body,
	}, nil
}

// NewUserMessage renders the signup notification for the admin recipients.
func NewUserMessage(to []string, data NewUserData) (Message, error) {
	body, err := render(newUserTemplate, struct {
		Name             string
		RegistrationCode string
		Area             string
		RequestedAt      string
	}{
		Name:             data.Name,
		RegistrationCode: data.RegistrationCode,
		Area:             data.Area,
		RequestedAt:      data.RequestedAt.Format("02/01/2006 15:04"),
	})
	if err != nil {
		return Message{}, err
	}
	return Message{
		To:      to,
		Subject: fmt.Sprintf("Novo cadastro: %s (%s)", data.Name, data.RegistrationCode),
		HTML:    body,
	}, nil
}

func render(tmpl *template.Template, data any) (string, error) {
	var buffer bytes.Buffer
	if err := tmpl.Execute(&buffer, data); err != nil {
		return "", fmt.Errorf("mail: render %s failed: %w", tmpl.Name(), err)
	}
	return buffer.String(), nil
}
