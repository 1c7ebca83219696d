package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"
)

var changeEmailTmpl = template.Must(template.New("change").Parse(`<!DOCTYPE html>
<html>
  <head>
    <style>
      body { font-family: -apple-system, 'Segoe UI', Roboto, sans-serif; background-color: #ffffff; color: #1a1a1a; margin: 0; padding: 0; }
      .container { max-width: 600px; margin: 0 auto; padding: 40px 20px; }
      .header { border-bottom: 2px solid #000000; padding-bottom: 20px; margin-bottom: 30px; }
      .header h1 { font-size: 24px; margin: 0 0 5px; }
      .header p { color: #666666; margin: 0; font-size: 14px; }
      .info-table { width: 100%; border-collapse: collapse; margin-bottom: 25px; }
      .info-table td { padding: 10px 12px; border: 1px solid #e5e5e5; font-size: 14px; }
      .info-table td:first-child { background: #fafafa; width: 130px; color: #666666; }
      .section { margin-bottom: 25px; }
      .section-title { font-size: 13px; text-transform: uppercase; letter-spacing: 0.5px; color: #666666; margin-bottom: 8px; }
      .summary-box { background: #fafafa; border: 1px solid #e5e5e5; border-radius: 4px; padding: 15px; font-size: 14px; }
      .changes-box { background: #f5f5f5; border: 1px solid #e5e5e5; border-radius: 4px; padding: 15px; }
      .button { display: inline-block; background: #000000; color: #ffffff; padding: 12px 24px; border-radius: 4px; text-decoration: none; font-size: 14px; }
      .footer { margin-top: 40px; padding-top: 20px; border-top: 1px solid #e5e5e5; text-align: center; font-size: 12px; color: #666666; line-height: 1.6; }
      .footer p { margin: 5px 0; }
    </style>
  </head>
  <body>
    <div class="container">
      <div class="header">
        <h1>Change Detected</h1>
        <p>Alert notification from AlertFrame</p>
      </div>

      <div class="content">
        <table class="info-table">
          <tr><td>Alert</td><td><strong>{{.AlertTitle}}</strong></td></tr>
          <tr><td>URL</td><td><a href="{{.URL}}">{{.URL}}</a></td></tr>
          <tr><td>Change Type</td><td><strong>{{.ChangeType}}</strong></td></tr>
          <tr><td>Detected</td><td>{{.DetectedAt}}</td></tr>
        </table>

        <div class="section">
          <div class="section-title">Summary</div>
          <div class="summary-box">{{.Summary}}</div>
        </div>

        <div class="section">
          <div class="section-title">Changes Detected</div>
          <div class="changes-box">{{.DiffHTML}}</div>
        </div>

        <a href="{{.DashboardURL}}" class="button">View in Dashboard</a>
      </div>

      <div class="footer">
        <p>You're receiving this because you set up monitoring for this page.</p>
        <p><strong>AlertFrame</strong> &middot; Website Change Monitoring</p>
      </div>
    </div>
  </body>
</html>
`))

var confirmationEmailTmpl = template.Must(template.New("confirmation").Parse(`<!DOCTYPE html>
<html>
  <head>
    <style>
      body { font-family: -apple-system, 'Segoe UI', Roboto, sans-serif; background-color: #ffffff; color: #1a1a1a; margin: 0; padding: 0; }
      .container { max-width: 600px; margin: 0 auto; padding: 40px 20px; }
      .header { border-bottom: 2px solid #000000; padding-bottom: 20px; margin-bottom: 30px; }
      .header h1 { font-size: 24px; margin: 0 0 5px; }
      .header p { color: #666666; margin: 0; font-size: 14px; }
      .status-box { background: #fafafa; border: 1px solid #e5e5e5; border-radius: 4px; padding: 15px; margin-bottom: 25px; font-size: 14px; }
      .info-table { width: 100%; border-collapse: collapse; margin-bottom: 25px; }
      .info-table td { padding: 10px 12px; border: 1px solid #e5e5e5; font-size: 14px; }
      .info-table td:first-child { background: #fafafa; width: 130px; color: #666666; }
      .button { display: inline-block; background: #000000; color: #ffffff; padding: 12px 24px; border-radius: 4px; text-decoration: none; font-size: 14px; }
      .footer { margin-top: 40px; padding-top: 20px; border-top: 1px solid #e5e5e5; text-align: center; font-size: 12px; color: #666666; line-height: 1.6; }
      .footer p { margin: 5px 0; }
    </style>
  </head>
  <body>
    <div class="container">
      <div class="header">
        <h1>Alert Created Successfully</h1>
        <p>Confirmation from AlertFrame</p>
      </div>

      <div class="content">
        <div class="status-box">
          <strong>Your alert is now active</strong>
          <p>We will monitor the page and notify you when changes are detected.</p>
        </div>

        <table class="info-table">
          <tr><td>Alert Name</td><td><strong>{{.AlertTitle}}</strong></td></tr>
          <tr><td>URL</td><td><a href="{{.URL}}">{{.URL}}</a></td></tr>
          <tr><td>Monitoring</td><td><code>{{.CSSSelector}}</code></td></tr>
          <tr><td>Check Frequency</td><td>{{.FrequencyLabel}}</td></tr>
          <tr><td>Notifications</td><td>You will receive email notifications when changes are detected</td></tr>
        </table>

        <a href="{{.DashboardURL}}" class="button">View Dashboard</a>
      </div>

      <div class="footer">
        <p><strong>What happens next?</strong></p>
        <p>We will check your selected element {{.FrequencyLower}} and alert you when changes are detected.</p>
        <p><strong>AlertFrame</strong> &middot; Website Change Monitoring</p>
      </div>
    </div>
  </body>
</html>
`))

// ChangeEmailParams fills the change notification template. DiffHTML must
// already be escaped markup (detect.FormatDiffHTML output).
type ChangeEmailParams struct {
	AlertTitle string
	URL        string
	ChangeType string
	Summary    string
	DiffHTML   template.HTML
	AppURL     string
}

func ChangeEmailHTML(p ChangeEmailParams) (string, error) {
	data := struct {
		AlertTitle   string
		URL          string
		ChangeType   string
		DetectedAt   string
		Summary      string
		DiffHTML     template.HTML
		DashboardURL string
	}{
		AlertTitle:   p.AlertTitle,
		URL:          p.URL,
		ChangeType:   strings.ToUpper(p.ChangeType),
		DetectedAt:   time.Now().UTC().Format(time.RFC1123),
		Summary:      p.Summary,
		DiffHTML:     p.DiffHTML,
		DashboardURL: dashboardURL(p.AppURL),
	}

	var buf bytes.Buffer
	if err := changeEmailTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render change email: %w", err)
	}
	return buf.String(), nil
}

// ConfirmationEmailParams fills the alert creation confirmation template.
type ConfirmationEmailParams struct {
	AlertTitle     string
	URL            string
	CSSSelector    string
	FrequencyLabel string
	AppURL         string
}

func ConfirmationEmailHTML(p ConfirmationEmailParams) (string, error) {
	data := struct {
		AlertTitle     string
		URL            string
		CSSSelector    string
		FrequencyLabel string
		FrequencyLower string
		DashboardURL   string
	}{
		AlertTitle:     p.AlertTitle,
		URL:            p.URL,
		CSSSelector:    p.CSSSelector,
		FrequencyLabel: p.FrequencyLabel,
		FrequencyLower: strings.ToLower(p.FrequencyLabel),
		DashboardURL:   dashboardURL(p.AppURL),
	}

	var buf bytes.Buffer
	if err := confirmationEmailTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render confirmation email: %w", err)
	}
	return buf.String(), nil
}

func dashboardURL(appURL string) string {
	if appURL == "" {
		appURL = "http://localhost:3000"
	}
	return strings.TrimRight(appURL, "/") + "/dashboard"
}
