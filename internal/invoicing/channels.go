package invoicing

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"text/template"

	"garagebill/internal/models"
)

// DefaultShareTemplate is used when the config does not set one.
const DefaultShareTemplate = `Dear {{.CustomerName}}, your invoice {{.InvoiceNumber}} dated {{.BillingDate}}` +
	`{{if .VehicleNumber}} for vehicle {{.VehicleNumber}}{{end}} is ready. ` +
	`Amount payable: Rs. {{.GrandTotal}}.` +
	`{{if .DownloadURL}} Download: {{.DownloadURL}}{{end}}` +
	`{{if .SellerName}} - {{.SellerName}}{{end}}`

// ShareData is what share templates can reference.
type ShareData struct {
	InvoiceNumber string
	BillingDate   string
	CustomerName  string
	VehicleNumber string
	GrandTotal    string
	AmountInWords string
	SellerName    string
	DownloadURL   string
}

func NewShareData(inv *models.Invoice, downloadURL string) ShareData {
	return ShareData{
		InvoiceNumber: inv.InvoiceNumber,
		BillingDate:   inv.BillingDate.Format("02-Jan-2006"),
		CustomerName:  inv.BillTo.Name,
		VehicleNumber: inv.Vehicle.Number,
		GrandTotal:    inv.GrandTotal.String(),
		AmountInWords: inv.AmountInWords,
		SellerName:    inv.Seller.Name,
		DownloadURL:   downloadURL,
	}
}

// ShareMessage renders the plain-text message used for messaging links.
func ShareMessage(tmpl string, inv *models.Invoice, downloadURL string) (string, error) {
	if strings.TrimSpace(tmpl) == "" {
		tmpl = DefaultShareTemplate
	}
	t, err := template.New("share").Option("missingkey=error").Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("invalid share template: %w", err)
	}
	var sb strings.Builder
	if err := t.Execute(&sb, NewShareData(inv, downloadURL)); err != nil {
		return "", fmt.Errorf("failed to render share message: %w", err)
	}
	return sb.String(), nil
}

// encodeComponent percent-encodes for mailto and wa.me links; spaces must be
// %20 there, not '+'.
func encodeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// MailtoURI composes a mail to the customer. The PDF itself has to be
// attached by the mail client, so the body carries the download link.
func MailtoURI(inv *models.Invoice, downloadURL string) string {
	subject := fmt.Sprintf("Invoice %s from %s", inv.InvoiceNumber, inv.Seller.Name)

	var body strings.Builder
	fmt.Fprintf(&body, "Dear %s,\n\n", inv.BillTo.Name)
	fmt.Fprintf(&body, "Please find your invoice %s dated %s", inv.InvoiceNumber, inv.BillingDate.Format("02-Jan-2006"))
	if inv.Vehicle.Number != "" {
		fmt.Fprintf(&body, " for vehicle %s", inv.Vehicle.Number)
	}
	body.WriteString(".\n\n")
	fmt.Fprintf(&body, "Grand total: Rs. %s (%s)\n", inv.GrandTotal, inv.AmountInWords)
	if downloadURL != "" {
		fmt.Fprintf(&body, "Download: %s\n", downloadURL)
	}
	fmt.Fprintf(&body, "\nRegards,\n%s", inv.Seller.Name)

	return "mailto:" + inv.BillTo.Email + "?subject=" + encodeComponent(subject) + "&body=" + encodeComponent(body.String())
}

var nonDigits = regexp.MustCompile(`\D`)

// WhatsAppURL builds a wa.me deep link. Ten-digit numbers are taken as
// Indian mobiles. An empty phone yields a link without a recipient.
func WhatsAppURL(phone, message string) string {
	digits := nonDigits.ReplaceAllString(phone, "")
	if len(digits) == 10 {
		digits = "91" + digits
	}
	return "https://wa.me/" + digits + "?text=" + encodeComponent(message)
}

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

func FileName(inv *models.Invoice) string {
	return "Invoice-" + unsafeFileChars.ReplaceAllString(inv.InvoiceNumber, "_") + ".pdf"
}
