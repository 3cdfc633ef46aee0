package services

import (
	"bytes"
	htmltemplate "html/template"
	texttemplate "text/template"
	"time"
)

var templateFuncs = map[string]interface{}{
	"date": func(t *time.Time) string {
		if t == nil {
			return "TBA"
		}
		return t.Format("Mon 2 Jan 2006")
	},
	"str": func(s *string) string {
		if s == nil {
			return ""
		}
		return *s
	},
}

var confirmationHTML = htmltemplate.Must(htmltemplate.New("confirmation.html").Funcs(templateFuncs).Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #1f2933;">
  <h2>Your booking is confirmed</h2>
  <p>Dear {{if .Booking.CustomerName}}{{str .Booking.CustomerName}}{{else}}guest{{end}},</p>
  <p>Thank you for your payment. Your booking reference is <strong>{{.Booking.BookingReference}}</strong>.</p>
  <table cellpadding="6" style="border-collapse: collapse;">
    <tr><th align="left">Tour</th><th align="left">Date</th><th align="left">Guide</th><th align="left">Guests</th><th align="right">Price</th></tr>
    {{range .Booking.Tours}}
    <tr>
      <td>{{if .TourName}}{{str .TourName}}{{else}}Tour{{end}}{{if .ShipName}} ({{str .ShipName}}){{end}}</td>
      <td>{{date .TourDate}}</td>
      <td>{{.Guide}}</td>
      <td>{{.Adults}} adults{{if .Children}}, {{.Children}} children{{end}}</td>
      <td align="right">&euro;{{.Price.StringFixed 2}}</td>
    </tr>
    {{end}}
  </table>
  <p><strong>Total paid: &euro;{{.Booking.TotalPayment.StringFixed 2}}</strong></p>
  <p>Please show this email or your receipt at check-in.</p>
  <p>{{.BusinessName}}</p>
</body>
</html>`))

var confirmationText = texttemplate.Must(texttemplate.New("confirmation.txt").Funcs(templateFuncs).Parse(`Your booking is confirmed

Booking reference: {{.Booking.BookingReference}}
{{range .Booking.Tours}}
- {{if .TourName}}{{str .TourName}}{{else}}Tour{{end}} on {{date .TourDate}}, guide {{.Guide}}, {{.TotalPax}} guests, EUR {{.Price.StringFixed 2}}{{end}}

Total paid: EUR {{.Booking.TotalPayment.StringFixed 2}}

{{.BusinessName}}
`))

type confirmationData struct {
	Booking      *AssembledBooking
	BusinessName string
}

// renderConfirmation returns the subject, HTML and text bodies of a booking confirmation
func renderConfirmation(booking *AssembledBooking, businessName string) (string, string, string, error) {
	data := confirmationData{Booking: booking, BusinessName: businessName}

	var html, text bytes.Buffer
	if err := confirmationHTML.Execute(&html, data); err != nil {
		return "", "", "", err
	}
	if err := confirmationText.Execute(&text, data); err != nil {
		return "", "", "", err
	}

	subject := "Booking confirmed: " + booking.BookingReference
	return subject, html.String(), text.String(), nil
}
