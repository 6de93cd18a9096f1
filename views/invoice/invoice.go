// Package invoice renders the payment invoice document.
package invoice

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"
)

// Line is one charged item.
type Line struct {
	Description string
	Amount      string
}

// Data is everything printed on an invoice.
type Data struct {
	SiteTitle     string
	Title         string
	AttendanceID  string
	TxnID         string
	Method        string
	PaymentStatus string
	FullDate      string
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
	CurrencyCode  string
	CurrencySign  string
	Lines         []Line
	Total         string
}

// Document is the full HTML invoice.
func Document(d Data) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<!DOCTYPE html><html lang="en"><head><meta charset="utf-8"><title>`); err != nil {
			return err
		}
		if _, err := io.WriteString(w, templ.EscapeString(d.Title)); err != nil {
			return err
		}
		if _, err := io.WriteString(w, `</title>`+styles+`</head><body><div class="invoice">`); err != nil {
			return err
		}
		if err := header(d).Render(ctx, w); err != nil {
			return err
		}
		if err := table(d).Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, `<p class="thanks">Thank you for your payment.</p></div></body></html>`)
		return err
	})
}

const styles = `<style>
body{font-family:Helvetica,Arial,sans-serif;color:#222;margin:0;padding:32px}
.invoice{max-width:760px;margin:0 auto}
.head{display:flex;justify-content:space-between;border-bottom:2px solid #333;padding-bottom:12px}
table{width:100%;border-collapse:collapse;margin-top:24px}
th,td{text-align:left;padding:8px;border-bottom:1px solid #ddd}
td.amount,th.amount{text-align:right}
.total td{font-weight:bold;border-top:2px solid #333}
.thanks{margin-top:32px;color:#555}
</style>`

func header(d Data) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w,
			`<div class="head"><div><h1>%s</h1><p>%s</p></div><div><p><strong>Invoice:</strong> %s</p><p><strong>Date:</strong> %s</p><p><strong>Transaction:</strong> %s</p><p><strong>Method:</strong> %s (%s)</p></div></div>`+
				`<div class="customer"><h3>Billed to</h3><p>%s</p><p>%s</p><p>%s</p></div>`,
			templ.EscapeString(d.SiteTitle),
			templ.EscapeString(d.Title),
			templ.EscapeString(d.AttendanceID),
			templ.EscapeString(d.FullDate),
			templ.EscapeString(d.TxnID),
			templ.EscapeString(d.Method),
			templ.EscapeString(d.PaymentStatus),
			templ.EscapeString(d.CustomerName),
			templ.EscapeString(d.CustomerEmail),
			templ.EscapeString(d.CustomerPhone),
		)
		return err
	})
}

func table(d Data) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<table><thead><tr><th>Description</th><th class="amount">Amount</th></tr></thead><tbody>`); err != nil {
			return err
		}
		for _, l := range d.Lines {
			if _, err := fmt.Fprintf(w, `<tr><td>%s</td><td class="amount">%s%s</td></tr>`,
				templ.EscapeString(l.Description), templ.EscapeString(d.CurrencySign), templ.EscapeString(l.Amount)); err != nil {
				return err
			}
		}
		_, err := fmt.Fprintf(w, `<tr class="total"><td>Total (%s)</td><td class="amount">%s%s</td></tr></tbody></table>`,
			templ.EscapeString(d.CurrencyCode), templ.EscapeString(d.CurrencySign), templ.EscapeString(d.Total))
		return err
	})
}
