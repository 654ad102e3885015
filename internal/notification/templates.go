package notification

import (
	"bytes"
	"fmt"
	"html/template"
	"time"
)

// Email subjects
func expiringSubject(vendorName, coverageLabel string) string {
	return fmt.Sprintf("Certificate Expiring Soon: %s - %s", vendorName, coverageLabel)
}

func expiredSubject(vendorName string) string {
	return fmt.Sprintf("URGENT: Certificate Expired - %s", vendorName)
}

func nonCompliantSubject(vendorName string) string {
	return fmt.Sprintf("Non-Compliant Certificate: %s", vendorName)
}

func pendingSubject(vendorName string, daysPending int) string {
	return fmt.Sprintf("Pending Certificate Request: %s (%d days)", vendorName, daysPending)
}

const baseStyles = `
  <style>
    body { font-family: -apple-system, 'Segoe UI', Roboto, Arial, sans-serif; line-height: 1.6; color: #4B465C; background-color: #F8F7FA; margin: 0; padding: 0; }
    .container { max-width: 600px; margin: 0 auto; padding: 20px; }
    .card { background: #FFFFFF; border-radius: 12px; padding: 32px; margin: 20px 0; }
    .header { text-align: center; padding: 20px 0; border-bottom: 2px solid #7367F0; margin-bottom: 24px; }
    .logo { font-size: 24px; font-weight: 700; color: #003087; }
    h1 { font-size: 24px; font-weight: 600; margin: 0 0 16px 0; }
    .alert { padding: 16px; border-radius: 8px; margin: 20px 0; }
    .alert-warning { background: #FFF6E5; border-left: 4px solid #FF9F43; }
    .alert-danger { background: #FFF0F0; border-left: 4px solid #EA5455; }
    .alert-info { background: #E8F4FD; border-left: 4px solid #7367F0; }
    .button { display: inline-block; padding: 12px 24px; background: #7367F0; color: #FFFFFF !important; text-decoration: none; border-radius: 8px; font-weight: 600; margin: 16px 0; }
    .details { background: #F8F7FA; padding: 16px; border-radius: 8px; margin: 16px 0; }
    .label { font-weight: 600; }
    .footer { text-align: center; padding: 20px; color: #A8AAAE; font-size: 13px; }
  </style>
`

const emailShell = `<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>{{.Title}}</title>
  ` + baseStyles + `
</head>
<body>
  <div class="container">
    <div class="card">
      <div class="header">
        <div class="logo">Columbia University</div>
        <div style="color: #A8AAAE; font-size: 14px; margin-top: 8px;">Vendor Compliance Portal</div>
      </div>
      {{template "body" .}}
      <div class="footer">
        <p>This is an automated notification from the Columbia University Vendor Compliance Portal.</p>
        <p>If you have questions, please contact the Risk Management office at insurance@columbia.edu</p>
      </div>
    </div>
  </div>
</body>
</html>`

var (
	expiringTmpl = template.Must(template.Must(template.New("shell").Parse(emailShell)).Parse(`{{define "body"}}
      <h1>Certificate Expiring Soon</h1>
      <div class="alert alert-{{.Urgency}}">
        <strong>Action Required:</strong> A vendor insurance certificate will expire in {{.DaysUntilExpiration}} days.
      </div>
      <p>The following certificate requires your attention:</p>
      <div class="details">
        <p><span class="label">Vendor:</span> {{.VendorName}}</p>
        <p><span class="label">Coverage Type:</span> {{.CoverageLabel}}</p>
        <p><span class="label">Policy Number:</span> {{.PolicyNumber}}</p>
        <p><span class="label">Expiration Date:</span> {{.ExpirationDate}}</p>
        <p><span class="label">Days Until Expiration:</span> {{.DaysUntilExpiration}} days</p>
      </div>
      <p><strong>Recommended Actions:</strong></p>
      <ul>
        <li>Contact the vendor to request certificate renewal</li>
        <li>Verify updated insurance requirements</li>
        <li>Upload new certificate when received</li>
      </ul>
      <center><a href="{{.CertificateURL}}" class="button">View Certificate Details</a></center>
{{end}}`))

	expiredTmpl = template.Must(template.Must(template.New("shell").Parse(emailShell)).Parse(`{{define "body"}}
      <h1>Certificate Expired</h1>
      <div class="alert alert-danger">
        <strong>Urgent Action Required:</strong> A vendor insurance certificate has expired.
      </div>
      <p>The following certificate is no longer valid:</p>
      <div class="details">
        <p><span class="label">Vendor:</span> {{.VendorName}}</p>
        <p><span class="label">Coverage Type:</span> {{.CoverageLabel}}</p>
        <p><span class="label">Policy Number:</span> {{.PolicyNumber}}</p>
        <p><span class="label">Expiration Date:</span> {{.ExpirationDate}}</p>
        <p><span class="label">Days Overdue:</span> {{.DaysOverdue}} days</p>
      </div>
      <p><strong>Next Steps:</strong></p>
      <ul>
        <li>Suspend any active work authorization for this vendor</li>
        <li>Request an updated certificate immediately</li>
        <li>Confirm replacement coverage before work resumes</li>
      </ul>
      <center><a href="{{.VendorURL}}" class="button">View Vendor Details</a></center>
{{end}}`))

	nonCompliantTmpl = template.Must(template.Must(template.New("shell").Parse(emailShell)).Parse(`{{define "body"}}
      <h1>Non-Compliant Insurance Certificate</h1>
      <div class="alert alert-danger">
        <strong>Compliance Issue:</strong> A vendor's insurance certificate does not meet Columbia's requirements.
      </div>
      <p>The following vendor's certificate has been flagged as non-compliant:</p>
      <div class="details">
        <p><span class="label">Vendor:</span> {{.VendorName}}</p>
      </div>
      <h2>Compliance Gaps:</h2>
      <ul>
        {{range .ComplianceGaps}}<li>{{.}}</li>
        {{end}}
      </ul>
      <p><strong>Next Steps:</strong></p>
      <ul>
        <li>Contact the vendor's broker to request a corrected certificate</li>
        <li>Review specific requirements with the vendor</li>
        <li>Suspend work authorization until compliance is achieved (if applicable)</li>
      </ul>
      <center><a href="{{.VendorURL}}" class="button">View Vendor Details</a></center>
{{end}}`))

	pendingTmpl = template.Must(template.Must(template.New("shell").Parse(emailShell)).Parse(`{{define "body"}}
      <h1>Pending Certificate Request</h1>
      <div class="alert alert-info">
        <strong>Follow-Up Needed:</strong> An insurance certificate request has been pending for {{.DaysPending}} days.
      </div>
      <p>The following certificate request is still awaiting response from the broker:</p>
      <div class="details">
        <p><span class="label">Vendor:</span> {{.VendorName}}</p>
        <p><span class="label">Broker:</span> {{.BrokerName}}</p>
        <p><span class="label">Broker Email:</span> {{.BrokerEmail}}</p>
        <p><span class="label">Requested Date:</span> {{.RequestedDate}}</p>
        <p><span class="label">Days Pending:</span> {{.DaysPending}} days</p>
      </div>
      <p><strong>Recommended Actions:</strong></p>
      <ul>
        <li>Contact the broker directly at <a href="mailto:{{.BrokerEmail}}">{{.BrokerEmail}}</a></li>
        <li>Verify the broker received the original request</li>
        <li>Confirm the vendor has necessary insurance in place</li>
      </ul>
      <center><a href="{{.VendorURL}}" class="button">View Vendor Details</a></center>
{{end}}`))
)

type expiringTemplateData struct {
	Title               string
	Urgency             string
	VendorName          string
	CoverageLabel       string
	PolicyNumber        string
	ExpirationDate      string
	DaysUntilExpiration int
	CertificateURL      string
}

type expiredTemplateData struct {
	Title          string
	VendorName     string
	CoverageLabel  string
	PolicyNumber   string
	ExpirationDate string
	DaysOverdue    int
	VendorURL      string
}

type nonCompliantTemplateData struct {
	Title          string
	VendorName     string
	ComplianceGaps []string
	VendorURL      string
}

type pendingTemplateData struct {
	Title         string
	VendorName    string
	BrokerName    string
	BrokerEmail   string
	RequestedDate string
	DaysPending   int
	VendorURL     string
}

func renderExpiringEmail(data expiringTemplateData) (string, error) {
	data.Title = "Certificate Expiring Soon"
	if data.Urgency == "" {
		data.Urgency = "warning"
	}
	return render(expiringTmpl, data)
}

func renderExpiredEmail(data expiredTemplateData) (string, error) {
	data.Title = "Certificate Expired"
	return render(expiredTmpl, data)
}

func renderNonCompliantEmail(data nonCompliantTemplateData) (string, error) {
	data.Title = "Non-Compliant Certificate"
	return render(nonCompliantTmpl, data)
}

func renderPendingEmail(data pendingTemplateData) (string, error) {
	data.Title = "Pending Certificate Request"
	if data.BrokerName == "" {
		data.BrokerName = "Not specified"
	}
	if data.BrokerEmail == "" {
		data.BrokerEmail = "Not provided"
	}
	return render(pendingTmpl, data)
}

func render(t *template.Template, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "shell", data); err != nil {
		return "", fmt.Errorf("render email template: %w", err)
	}
	return buf.String(), nil
}

func formatDate(t time.Time) string {
	return t.Format("January 2, 2006")
}
