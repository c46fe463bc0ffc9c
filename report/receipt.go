package report

import (
	"bytes"
	"context"
	"html/template"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Receipt is the printable acknowledgement of a fee payment.
type Receipt struct {
	Number      string
	Institute   string
	StudentName string
	Batch       string
	Month       string
	Amount      float64
	PaidAmount  float64
	PaidOn      string
	PaymentMode string
	IssuedAt    time.Time
}

var receiptPrinter = message.NewPrinter(language.English)

var receiptTemplate = template.Must(template.New("receipt").Funcs(template.FuncMap{
	"money": func(v float64) string { return receiptPrinter.Sprintf("₹%.2f", v) },
}).Parse(`<!doctype html>
<html><head><meta charset="utf-8"><title>Receipt {{.Number}}</title>
<style>
body{font-family:sans-serif;margin:40px;color:#222}
h1{font-size:20px;margin:0}
table{width:100%;border-collapse:collapse;margin-top:24px}
td{padding:8px;border-bottom:1px solid #ddd}
td.v{text-align:right}
</style></head>
<body>
<h1>{{.Institute}}</h1>
<p>Fee receipt <strong>{{.Number}}</strong> · issued {{.IssuedAt.Format "02 Jan 2006"}}</p>
<table>
<tr><td>Student</td><td class="v">{{.StudentName}}</td></tr>
{{if .Batch}}<tr><td>Batch</td><td class="v">{{.Batch}}</td></tr>{{end}}
<tr><td>Fee month</td><td class="v">{{.Month}}</td></tr>
<tr><td>Fee amount</td><td class="v">{{money .Amount}}</td></tr>
<tr><td>Amount received</td><td class="v">{{money .PaidAmount}}</td></tr>
<tr><td>Paid on</td><td class="v">{{.PaidOn}}</td></tr>
{{if .PaymentMode}}<tr><td>Mode</td><td class="v">{{.PaymentMode}}</td></tr>{{end}}
</table>
</body></html>`))

// ReceiptHTML renders the receipt document.
func ReceiptHTML(rc Receipt) ([]byte, error) {
	var buf bytes.Buffer
	if err := receiptTemplate.Execute(&buf, rc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// RenderReceipt produces the PDF for rc.
func (c *Client) RenderReceipt(ctx context.Context, rc Receipt) ([]byte, error) {
	html, err := ReceiptHTML(rc)
	if err != nil {
		return nil, err
	}
	return c.RenderHTML(ctx, html)
}
