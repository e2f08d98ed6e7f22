package service

import (
	"fmt"
	"html/template"
	"strings"
	"time"
)

// codeEmailTemplate is the HTML body for the login-code email. Kept inline:
// this is the only template in the service and it has no assets.
var codeEmailTemplate = template.Must(template.New("code_email").Parse(`<!DOCTYPE html>
<html>
  <body style="font-family: Arial, sans-serif; color: #1a1a2e; margin: 0; padding: 24px;">
    <h2 style="margin: 0 0 16px;">Your login code</h2>
    <p>Hi {{.Name}},</p>
    <p>Use this code to sign in to the Interim Growth Collective client portal:</p>
    <p style="font-size: 32px; font-weight: bold; letter-spacing: 8px; margin: 24px 0;">{{.Code}}</p>
    <p>The code expires in {{.Minutes}} minutes. If you did not request it, you can ignore this email.</p>
  </body>
</html>`))

// codeEmailBody renders the login-code email. Rendering cannot fail for the
// inputs this service produces; a template error falls back to a plain body
// rather than blocking delivery of the code.
func codeEmailBody(name, code string, ttl time.Duration) string {
	var b strings.Builder
	err := codeEmailTemplate.Execute(&b, struct {
		Name    string
		Code    string
		Minutes int
	}{Name: name, Code: code, Minutes: int(ttl.Minutes())})
	if err != nil {
		return fmt.Sprintf("<p>Your login code is %s. It expires in %d minutes.</p>", code, int(ttl.Minutes()))
	}
	return b.String()
}
