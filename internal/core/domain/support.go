package domain

type Intent string

const (
	IntentRefund      Intent = "REFUND"
	IntentReplacement Intent = "REPLACEMENT"
	IntentUnknown     Intent = "UNKNOWN"
)

type Sentiment string

const (
	SentimentPositive Sentiment = "POSITIVE"
	SentimentNeutral  Sentiment = "NEUTRAL"
	SentimentNegative Sentiment = "NEGATIVE"
)

type OperationType string

const (
	OperationRefund  OperationType = "REFUND"
	OperationReplace OperationType = "REPLACE"
	OperationNone    OperationType = "NONE"
)

// ClassifiedRequest is the structured form of a customer support message,
// produced by an external classifier.
type ClassifiedRequest struct {
	OrderID   string
	Intent    Intent
	Sentiment Sentiment
}

// AdjustmentOutcome describes what the support pipeline actually did for a
// request. RefundFallback is set when the customer asked for a replacement
// but stock was exhausted and a refund was issued instead.
type AdjustmentOutcome struct {
	OriginalOrder    *Order
	ReplacementOrder *Order
	Operation        OperationType
	RefundFallback   bool
	Summary          string
}
