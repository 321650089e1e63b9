// Package classify provides a deterministic keyword classifier for customer
// support messages. A natural-language model can replace it behind the same
// port; the keyword rules serve as the in-process fallback.
package classify

import (
	"context"
	"regexp"
	"strings"

	"github.com/acme/orderdesk/internal/core/domain"
)

var orderIDPattern = regexp.MustCompile(`(?i)order\s+#?([a-z0-9][a-z0-9-]*)`)

var negativeKeywords = []string{"broken", "defective", "snapped", "cracked"}

var positiveKeywords = []string{"thank", "great", "love"}

type KeywordClassifier struct{}

func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{}
}

func (c *KeywordClassifier) Classify(ctx context.Context, text string) (domain.ClassifiedRequest, error) {
	if text == "" {
		return domain.ClassifiedRequest{
			Intent:    domain.IntentUnknown,
			Sentiment: domain.SentimentNeutral,
		}, nil
	}

	lower := strings.ToLower(text)

	sentiment := domain.SentimentNeutral
	for _, kw := range negativeKeywords {
		if strings.Contains(lower, kw) {
			sentiment = domain.SentimentNegative
			break
		}
	}
	if sentiment == domain.SentimentNeutral {
		for _, kw := range positiveKeywords {
			if strings.Contains(lower, kw) {
				sentiment = domain.SentimentPositive
				break
			}
		}
	}

	intent := domain.IntentUnknown
	if strings.Contains(lower, "refund") {
		intent = domain.IntentRefund
	} else if strings.Contains(lower, "replace") || strings.Contains(lower, "replacement") || strings.Contains(lower, "exchange") {
		intent = domain.IntentReplacement
	}

	var orderID string
	if m := orderIDPattern.FindStringSubmatch(text); m != nil {
		orderID = strings.TrimRight(m[1], "-")
	}

	return domain.ClassifiedRequest{
		OrderID:   orderID,
		Intent:    intent,
		Sentiment: sentiment,
	}, nil
}
