package email

import (
	"bytes"
	"embed"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// RenderInvitation builds the invitation email body.
func RenderInvitation(firstName, registrationURL string) (string, error) {
	return render("user_invitation.html", map[string]string{
		"FirstName":       firstName,
		"RegistrationURL": registrationURL,
	})
}

// RenderPasswordReset builds the password reset email body.
func RenderPasswordReset(firstName, resetURL string) (string, error) {
	return render("reset_password.html", map[string]string{
		"FirstName": firstName,
		"ResetURL":  resetURL,
	})
}

func render(name string, data map[string]string) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
