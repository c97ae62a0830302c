package branding

import (
	"fmt"
	"strings"

	gomponents "maragu.dev/gomponents"
	html "maragu.dev/gomponents/html"

	"auditdna/internal/domain"
)

// WelcomeEmail renders the branded HTML welcome email sent to a tenant's
// administrator after provisioning.
func WelcomeEmail(t *domain.Tenant, adminEmail, loginURL string) (string, error) {
	body := emailShell(t.Branding,
		html.H1(gomponents.Text("Welcome to "+t.Branding.CompanyName)),
		html.P(gomponents.Text("Your audit platform is ready. Your workspace lives at:")),
		html.P(html.A(html.Href(loginURL), gomponents.Text(loginURL))),
		html.P(gomponents.Textf("Sign in as %s with the password chosen during setup.", adminEmail)),
		html.P(gomponents.Text("Your plan includes white-label branding, SSO, and advanced reporting.")),
	)
	return renderEmail(body)
}

// ReportReadyEmail renders the branded notification for a completed
// executive report.
func ReportReadyEmail(t *domain.Tenant, reportID, period string) (string, error) {
	body := emailShell(t.Branding,
		html.H1(gomponents.Text("Your executive report is ready")),
		html.P(gomponents.Textf("The %s report for %s has been generated.", period, t.Branding.CompanyName)),
		html.P(gomponents.Text("Report reference: "), html.Code(gomponents.Text(reportID))),
	)
	return renderEmail(body)
}

// emailShell wraps content in the shared branded email frame: header strip in
// the tenant's primary color, content card, muted footer.
func emailShell(b domain.Branding, content ...gomponents.Node) gomponents.Node {
	header := []gomponents.Node{
		html.Style(fmt.Sprintf("background-color:%s;padding:16px 24px;color:#ffffff;", b.PrimaryColor)),
	}
	if b.LogoURL != "" {
		header = append(header, html.Img(html.Src(b.LogoURL), html.Alt(b.CompanyName), html.Height("40")))
	} else {
		header = append(header, html.Strong(gomponents.Text(b.CompanyName)))
	}

	return html.HTML(
		html.Body(
			html.Style("margin:0;background-color:#f4f4f5;font-family:Helvetica,Arial,sans-serif;"),
			html.Div(header...),
			html.Div(
				append([]gomponents.Node{
					html.Style("max-width:600px;margin:24px auto;background-color:#ffffff;padding:24px;border-radius:8px;"),
				}, content...)...,
			),
			html.Div(
				html.Style("max-width:600px;margin:0 auto;padding:16px 24px;color:#71717a;font-size:12px;"),
				gomponents.Textf("Sent by %s.", b.CompanyName),
			),
		),
	)
}

func renderEmail(n gomponents.Node) (string, error) {
	var sb strings.Builder
	sb.WriteString("<!doctype html>\n")
	if err := n.Render(&sb); err != nil {
		return "", fmt.Errorf("render email: %w", err)
	}
	return sb.String(), nil
}
