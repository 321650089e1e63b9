// Package respond renders the customer-facing message for a support outcome
// from text templates. A generative model can replace it behind the same
// port; the templates keep the response deterministic.
package respond

import (
	"bytes"
	"context"
	"fmt"
	"text/template"

	"github.com/acme/orderdesk/internal/core/domain"
)

const customerMessageText = `{{if not .Found -}}
We could not find order {{.OrderID}}. Please double-check the order number and contact {{.Company}} support if the problem persists.
{{- else if eq .Operation "REPLACE" -}}
{{if .Negative}}We're sorry to hear about the trouble with your order. {{end}}Your replacement order {{.NewOrderID}} has been created and ships within 1-3 business days. Thank you for shopping with {{.Company}}.
{{- else if eq .Operation "REFUND" -}}
{{if .Negative}}We're sorry to hear about the trouble with your order. {{end}}{{if .Fallback}}You asked for a replacement, but that item is currently out of stock, so we have issued a refund instead. {{else}}Your refund for order {{.OrderID}} has been processed. {{end}}The refund will appear on your card within 1 business day. Thank you for shopping with {{.Company}}.
{{- else -}}
We weren't sure whether you wanted a refund or a replacement for order {{.OrderID}}. Please reply with the word "refund" or "replacement" and {{.Company}} support will take care of it.
{{- end}}`

var customerMessageTemplate = template.Must(template.New("customerMessage").Parse(customerMessageText))

type TemplateResponder struct {
	company string
}

func NewTemplateResponder(company string) *TemplateResponder {
	return &TemplateResponder{company: company}
}

func (r *TemplateResponder) CustomerMessage(ctx context.Context, req domain.ClassifiedRequest, outcome domain.AdjustmentOutcome) (string, error) {
	data := struct {
		Company    string
		OrderID    string
		NewOrderID string
		Operation  string
		Found      bool
		Negative   bool
		Fallback   bool
	}{
		Company:   r.company,
		OrderID:   req.OrderID,
		Operation: string(outcome.Operation),
		Found:     outcome.OriginalOrder != nil,
		Negative:  req.Sentiment == domain.SentimentNegative,
		Fallback:  outcome.RefundFallback,
	}
	if outcome.OriginalOrder != nil {
		data.OrderID = outcome.OriginalOrder.ID
	}
	if outcome.ReplacementOrder != nil {
		data.NewOrderID = outcome.ReplacementOrder.ID
	}

	var buf bytes.Buffer
	if err := customerMessageTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render customer message: %w", err)
	}
	return buf.String(), nil
}
