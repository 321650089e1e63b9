package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/acme/orderdesk/internal/core/domain"
	"github.com/acme/orderdesk/internal/port"
)

// SupportService runs the refund-or-replace decision pipeline for classified
// customer requests: retrieve the order, decide based on intent and current
// stock, act through the fulfillment engine, and assemble the outcome.
type SupportService struct {
	fulfillment *FulfillmentService
	ledger      port.InventoryLedger
	orders      port.OrderStore
	classifier  port.Classifier
	responder   port.Responder
	logger      *zap.Logger
}

func NewSupportService(fulfillment *FulfillmentService, ledger port.InventoryLedger, orders port.OrderStore, classifier port.Classifier, responder port.Responder, logger *zap.Logger) *SupportService {
	return &SupportService{
		fulfillment: fulfillment,
		ledger:      ledger,
		orders:      orders,
		classifier:  classifier,
		responder:   responder,
		logger:      logger,
	}
}

// HandleRequest resolves a classified request against current stock.
//
// A replacement is performed only when the customer asked for one and the
// order's SKU still has stock. A replacement request against exhausted stock
// silently degrades to a refund, flagged on the outcome so the customer
// message can explain it. An unknown intent performs no mutation.
func (s *SupportService) HandleRequest(ctx context.Context, req domain.ClassifiedRequest) (domain.AdjustmentOutcome, error) {
	s.logger.Info("handling support request",
		zap.String("order_id", req.OrderID),
		zap.String("intent", string(req.Intent)))

	order, err := s.orders.Get(ctx, req.OrderID)
	if err != nil {
		return domain.AdjustmentOutcome{}, fmt.Errorf("retrieve order: %w", err)
	}
	if order == nil {
		return domain.AdjustmentOutcome{
			Operation: domain.OperationNone,
			Summary:   fmt.Sprintf("Order %s not found", req.OrderID),
		}, nil
	}

	switch req.Intent {
	case domain.IntentReplacement:
		stock, err := s.ledger.Quantity(ctx, order.SKU)
		if err != nil {
			return domain.AdjustmentOutcome{}, fmt.Errorf("check stock: %w", err)
		}
		if stock > 0 {
			return s.replace(ctx, *order)
		}
		return s.refund(ctx, *order, true)

	case domain.IntentRefund:
		return s.refund(ctx, *order, false)

	default:
		return domain.AdjustmentOutcome{
			OriginalOrder: order,
			Operation:     domain.OperationNone,
			Summary:       fmt.Sprintf("Could not determine what to do with order %s", order.ID),
		}, nil
	}
}

// HandleMessage classifies a free-text customer message, runs the decision
// pipeline, and renders the customer-facing response.
func (s *SupportService) HandleMessage(ctx context.Context, text string) (domain.AdjustmentOutcome, string, error) {
	req, err := s.classifier.Classify(ctx, text)
	if err != nil {
		return domain.AdjustmentOutcome{}, "", fmt.Errorf("classify request: %w", err)
	}

	outcome, err := s.HandleRequest(ctx, req)
	if err != nil {
		return domain.AdjustmentOutcome{}, "", err
	}

	message, err := s.responder.CustomerMessage(ctx, req, outcome)
	if err != nil {
		return domain.AdjustmentOutcome{}, "", fmt.Errorf("render customer message: %w", err)
	}
	return outcome, message, nil
}

func (s *SupportService) replace(ctx context.Context, order domain.Order) (domain.AdjustmentOutcome, error) {
	replacement, err := s.fulfillment.ProcessReplacement(ctx, order.ID, order.SKU, order.SKU, order.Quantity, order.UnitPrice)
	if err != nil {
		return domain.AdjustmentOutcome{}, err
	}
	return domain.AdjustmentOutcome{
		OriginalOrder:    &order,
		ReplacementOrder: &replacement,
		Operation:        domain.OperationReplace,
		Summary:          fmt.Sprintf("Replacement order %s created for order %s", replacement.ID, order.ID),
	}, nil
}

func (s *SupportService) refund(ctx context.Context, order domain.Order, fallback bool) (domain.AdjustmentOutcome, error) {
	if _, err := s.fulfillment.ProcessRefund(ctx, order.ID, order.SKU, order.Quantity, order.UnitPrice); err != nil {
		return domain.AdjustmentOutcome{}, err
	}
	summary := fmt.Sprintf("Refund processed for order %s", order.ID)
	if fallback {
		summary = fmt.Sprintf("Refund processed for order %s, replacement stock exhausted", order.ID)
	}
	return domain.AdjustmentOutcome{
		OriginalOrder:  &order,
		Operation:      domain.OperationRefund,
		RefundFallback: fallback,
		Summary:        summary,
	}, nil
}
