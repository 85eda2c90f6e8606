package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	texttemplate "text/template"

	"github.com/example/dmv-monitor/internal/domain"
)

// maxTimesShown caps how many slot times each appointment lists in the email.
const maxTimesShown = 5

var htmlTmpl = template.Must(template.New("email").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"></head>
<body style="font-family: -apple-system, 'Segoe UI', Roboto, Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
  <div style="background-color: #ef4444; color: white; padding: 20px; border-radius: 8px 8px 0 0; text-align: center;">
    <h1 style="margin: 0; font-size: 24px;">DMV Weekend Appointments Available</h1>
  </div>
  <div style="background-color: white; padding: 20px; border: 1px solid #e5e7eb; border-top: none;">
    <p style="color: #4b5563;">Weekend appointments have opened at the following NJ MVC locations:</p>
{{range .Appointments}}    <div style="background-color: #f9fafb; padding: 20px; margin-bottom: 20px; border-radius: 8px; border-left: 4px solid #3b82f6;">
      <h3 style="margin: 0 0 10px 0; color: #1f2937; font-size: 18px;">{{.Location}}</h3>
      <p style="margin: 5px 0; color: #4b5563;"><strong>Date:</strong> {{.Date}} ({{.DayOfWeek}})</p>
      <p style="margin: 5px 0; color: #4b5563;"><strong>Available Times:</strong> {{.TimesLine}}</p>
      <a href="{{.URL}}" style="display: inline-block; margin-top: 10px; padding: 10px 20px; background-color: #3b82f6; color: white; text-decoration: none; border-radius: 5px;">Book Appointment</a>
    </div>
{{end}}    <p style="color: #92400e; font-size: 14px;"><strong>Act fast:</strong> these appointments are typically booked within minutes.</p>
    <hr style="border: none; border-top: 1px solid #e5e7eb; margin: 30px 0;">
    <p style="color: #9ca3af; font-size: 12px; text-align: center; margin: 0;">Sent by your NJ MVC appointment monitor.</p>
  </div>
</body>
</html>
`))

var textTmpl = texttemplate.Must(texttemplate.New("email").Parse(
	`NJ MVC Weekend Appointments Available

Found appointments at {{len .Appointments}} location(s):

{{range .Appointments}}{{.Location}}
  Date: {{.Date}} ({{.DayOfWeek}})
  Times: {{.TimesLine}}
  Book at: {{.URL}}

{{end}}Act fast: these appointments are typically booked within minutes.
`))

type emailAppointment struct {
	domain.Appointment
	TimesLine string
}

type emailData struct {
	Appointments []emailAppointment
}

// RenderEmail produces the HTML and plain-text bodies for an alert.
func RenderEmail(appointments []domain.Appointment) (string, string, error) {
	data := emailData{Appointments: make([]emailAppointment, len(appointments))}
	for i, a := range appointments {
		data.Appointments[i] = emailAppointment{Appointment: a, TimesLine: timesLine(a.Times)}
	}

	var htmlBuf, textBuf bytes.Buffer
	if err := htmlTmpl.Execute(&htmlBuf, data); err != nil {
		return "", "", fmt.Errorf("render html body: %w", err)
	}
	if err := textTmpl.Execute(&textBuf, data); err != nil {
		return "", "", fmt.Errorf("render text body: %w", err)
	}
	return htmlBuf.String(), textBuf.String(), nil
}

func timesLine(times []string) string {
	if len(times) <= maxTimesShown {
		return strings.Join(times, ", ")
	}
	return fmt.Sprintf("%s + %d more",
		strings.Join(times[:maxTimesShown], ", "), len(times)-maxTimesShown)
}
