package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/ajayishaq/rromisim/internal/domain/plan"
)

// CreateOrderRequest holds the input for creating an order.
type CreateOrderRequest struct {
	PlanID string
	Phone  string
	Email  string
}

// CreateOrderResult holds the output of a successfully created order.
type CreateOrderResult struct {
	Order            *Order
	Plan             *plan.Plan
	AuthorizationURL string
}

// VerifyOrderRequest holds the input for verifying payment and fulfilling an
// order.
type VerifyOrderRequest struct {
	OrderID   string
	Reference string
}

// VerifyOrderResult holds the outcome of a verified order. EmailSent is false
// when payment and provisioning succeeded but the fulfillment email could not
// be delivered; the order is still completed and the artifact is not lost.
type VerifyOrderResult struct {
	Order     *Order
	Artifact  Artifact
	EmailSent bool
}

// Service coordinates the order lifecycle: creation with a payment session,
// then verification, provisioning, persistence and notification.
type Service struct {
	plans       plan.Repository
	orders      Repository
	gateway     PaymentGateway
	provisioner Provisioner
	notifier    Notifier

	// verifies collapses concurrent verifications of the same order and
	// reference in process so at most one provisioning call runs per
	// payment; the conditional update in the repository covers
	// cross-process races.
	verifies singleflight.Group
}

// NewService creates an order Service with the required dependencies.
func NewService(
	plans plan.Repository,
	orders Repository,
	gateway PaymentGateway,
	provisioner Provisioner,
	notifier Notifier,
) *Service {
	return &Service{
		plans:       plans,
		orders:      orders,
		gateway:     gateway,
		provisioner: provisioner,
		notifier:    notifier,
	}
}

// CreateOrder validates the request, persists a pending order with the plan
// price frozen into it, and opens a payment transaction with the gateway.
//
// If the gateway call fails after the order row is persisted, the order stays
// pending and orphaned. There is no rollback: order state is reconciled
// entirely by VerifyOrder, never by creation.
func (s *Service) CreateOrder(ctx context.Context, req CreateOrderRequest) (*CreateOrderResult, error) {
	switch {
	case req.PlanID == "":
		return nil, &ValidationError{Field: "planId"}
	case req.Phone == "":
		return nil, &ValidationError{Field: "phone"}
	case req.Email == "":
		return nil, &ValidationError{Field: "email"}
	}

	p, err := s.plans.GetByID(ctx, req.PlanID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	o := &Order{
		ID:               uuid.New().String(),
		PlanID:           p.ID,
		Phone:            req.Phone,
		Email:            req.Email,
		Status:           StatusPending,
		PaymentReference: NewPaymentReference(now),
		Amount:           p.Price,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.orders.Create(ctx, o); err != nil {
		return nil, errors.Wrap(err, "create order")
	}

	amountMinor := p.Price.Shift(2).Round(0).IntPart()
	authURL, err := s.gateway.Initialize(ctx, req.Email, amountMinor, o.PaymentReference, PaymentMetadata{
		OrderID: o.ID,
		PlanID:  p.ID,
		Phone:   req.Phone,
	})
	if err != nil {
		return nil, err
	}

	return &CreateOrderResult{
		Order:            o,
		Plan:             p,
		AuthorizationURL: authURL,
	}, nil
}

// VerifyOrder confirms payment with the gateway, provisions the eSIM, marks
// the order completed and sends the fulfillment email.
//
// Verification is idempotent: an already-completed order returns its stored
// artifact without a second gateway, provisioning or email call. A failed
// verification leaves the order pending and retryable.
//
// Email delivery failure does not fail verification. A paid and provisioned
// order is completed with artifacts saved regardless; the result reports
// EmailSent=false and the error is logged.
func (s *Service) VerifyOrder(ctx context.Context, req VerifyOrderRequest) (*VerifyOrderResult, error) {
	switch {
	case req.OrderID == "":
		return nil, &ValidationError{Field: "orderId"}
	case req.Reference == "":
		return nil, &ValidationError{Field: "reference"}
	}

	o, err := s.orders.GetByID(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}
	if o.Status == StatusCompleted {
		return s.replayCompleted(ctx, o)
	}

	// Keyed on order and reference: callers presenting different references
	// must each have their own reference checked, never inherit another
	// flight's outcome.
	v, err, _ := s.verifies.Do(o.ID+":"+req.Reference, func() (any, error) {
		return s.fulfill(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	return v.(*VerifyOrderResult), nil
}

// fulfill runs the post-payment pipeline for a single order. Steps after the
// payment confirmation are sequential and not rolled back on later failure.
func (s *Service) fulfill(ctx context.Context, req VerifyOrderRequest) (*VerifyOrderResult, error) {
	// Re-read inside the flight: a previous flight on this key may have
	// completed the order between the caller's read and this one.
	o, err := s.orders.GetByID(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}
	if o.Status == StatusCompleted {
		return s.replayCompleted(ctx, o)
	}

	paid, err := s.gateway.Verify(ctx, req.Reference)
	if err != nil {
		return nil, err
	}
	if !paid {
		return nil, ErrPaymentNotConfirmed
	}

	p, err := s.plans.GetByID(ctx, o.PlanID)
	if err != nil {
		return nil, err
	}

	art := s.provisioner.Issue(ctx, *p, o)

	won, err := s.orders.MarkCompleted(ctx, o.ID, art.ESIM)
	if err != nil {
		return nil, errors.Wrap(err, "mark completed")
	}
	if !won {
		// A concurrent writer completed the order first; its artifact is the
		// canonical one.
		completed, err := s.orders.GetByID(ctx, o.ID)
		if err != nil {
			return nil, err
		}
		return s.replayCompleted(ctx, completed)
	}
	o.Status = StatusCompleted
	o.ESIM = &art.ESIM
	o.UpdatedAt = time.Now().UTC()

	emailSent := true
	if err := s.notifier.SendFulfillment(ctx, o.Email, *p, art, o.Phone); err != nil {
		emailSent = false
		zctx.From(ctx).Warn("Fulfillment email failed",
			zap.String("order_id", o.ID),
			zap.Error(err),
		)
	}

	return &VerifyOrderResult{
		Order:     o,
		Artifact:  art,
		EmailSent: emailSent,
	}, nil
}

// replayCompleted rebuilds the verification result for an order that has
// already been fulfilled. The instructions are re-rendered from the persisted
// activation code, so no vendor call is needed.
func (s *Service) replayCompleted(ctx context.Context, o *Order) (*VerifyOrderResult, error) {
	if o.ESIM == nil {
		// Completed without artifacts violates the store invariant.
		return nil, ErrInvalidState
	}
	p, err := s.plans.GetByID(ctx, o.PlanID)
	if err != nil {
		return nil, err
	}
	return &VerifyOrderResult{
		Order: o,
		Artifact: Artifact{
			ESIM:         *o.ESIM,
			Instructions: ActivationInstructions(*p, o.ESIM.ActivationCode),
		},
		EmailSent: true,
	}, nil
}
