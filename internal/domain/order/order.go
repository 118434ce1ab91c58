package order

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/ajayishaq/rromisim/internal/domain/plan"
)

// Status is the lifecycle state of an order. The only transition is
// StatusPending -> StatusCompleted; orders are never reverted and there is no
// terminal failed state: a failed verification leaves the order pending so
// the caller can retry.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
)

// Sentinel errors for the order lifecycle.
var (
	ErrNotFound            = errors.New("order not found")
	ErrPaymentNotConfirmed = errors.New("payment not confirmed")
	ErrInvalidState        = errors.New("invalid order state transition")
)

// ValidationError indicates a missing or malformed input field.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing required field %q", e.Field)
}

// GatewayError indicates a payment gateway failure. The vendor message is
// carried for diagnostics; gateway errors are never retried automatically.
type GatewayError struct {
	Message string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("payment gateway: %s", e.Message)
}

// DeliveryError indicates a fulfillment email transport failure.
type DeliveryError struct {
	Message string
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("mail delivery: %s", e.Message)
}

// ESIM holds the vendor artifacts persisted with a completed order. The three
// fields are set atomically together with the completed transition; an order
// is never completed without them.
type ESIM struct {
	ICCID          string
	QRURL          string
	ActivationCode string
}

// Artifact is the full provisioning result returned to the customer: the
// persisted ESIM fields plus the rendered activation instructions.
type Artifact struct {
	ESIM
	Instructions string
}

// Order is a durable record of a purchase. Amount is copied from the plan
// price at creation time and never changes afterwards, so later catalog price
// changes cannot retroactively alter existing orders.
type Order struct {
	ID               string
	PlanID           string
	Phone            string
	Email            string
	Status           Status
	PaymentReference string
	ESIM             *ESIM
	Amount           decimal.Decimal
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Validate reports a ValidationError for the first empty required field.
func (o *Order) Validate() error {
	switch {
	case o.ID == "":
		return &ValidationError{Field: "id"}
	case o.PlanID == "":
		return &ValidationError{Field: "planId"}
	case o.Phone == "":
		return &ValidationError{Field: "phone"}
	case o.Email == "":
		return &ValidationError{Field: "email"}
	case o.PaymentReference == "":
		return &ValidationError{Field: "paymentReference"}
	}
	return nil
}

// Stats is an aggregate snapshot over all orders. Implementations must
// compute the four numbers against a single snapshot so concurrent writes
// cannot skew them against each other.
type Stats struct {
	TotalOrders     int64
	CompletedOrders int64
	TotalRevenue    decimal.Decimal
	TotalCustomers  int64
}

// Repository defines persistence operations for orders.
type Repository interface {
	// Create persists a new pending order.
	Create(ctx context.Context, o *Order) error

	// GetByID returns the order or ErrNotFound.
	GetByID(ctx context.Context, id string) (*Order, error)

	// MarkCompleted transitions a pending order to completed and stores the
	// eSIM fields in a single atomic conditional update. It returns true when
	// this call performed the transition, false when the order was already
	// completed (idempotent success), and ErrNotFound when the order does not
	// exist.
	MarkCompleted(ctx context.Context, id string, e ESIM) (bool, error)

	// ListRecent returns up to limit orders, newest first.
	ListRecent(ctx context.Context, limit int) ([]Order, error)

	// Stats returns a consistent aggregate snapshot.
	Stats(ctx context.Context) (Stats, error)
}

// PaymentGateway initializes and verifies payment transactions with the
// external payment vendor.
type PaymentGateway interface {
	// Initialize opens a payment transaction and returns the authorization
	// URL the customer completes payment on. The amount is in minor currency
	// units. Failures surface as *GatewayError.
	Initialize(ctx context.Context, email string, amountMinor int64, reference string, meta PaymentMetadata) (string, error)

	// Verify reports whether the vendor confirms the referenced transaction
	// as paid. Anything the vendor does not explicitly mark as success must
	// map to false, never be inferred as success.
	Verify(ctx context.Context, reference string) (bool, error)
}

// PaymentMetadata is attached to the payment transaction so the vendor
// dashboard can correlate payments back to orders.
type PaymentMetadata struct {
	OrderID string `json:"orderId"`
	PlanID  string `json:"planId"`
	Phone   string `json:"phone"`
}

// Provisioner issues eSIM profiles. Issue never fails: vendor errors are
// absorbed by a deterministic fallback artifact so provisioning can never
// block fulfillment. The fallback trades real functionality for availability;
// a fallback artifact looks plausible but does not activate.
type Provisioner interface {
	Issue(ctx context.Context, p plan.Plan, o *Order) Artifact
}

// Notifier delivers the fulfillment email. Failures surface as
// *DeliveryError.
type Notifier interface {
	SendFulfillment(ctx context.Context, email string, p plan.Plan, art Artifact, phone string) error
}

// NewPaymentReference generates a unique gateway correlation reference. The
// orchestrator owns reference generation, not the gateway.
func NewPaymentReference(now time.Time) string {
	var buf [5]byte
	_, _ = rand.Read(buf[:])
	return fmt.Sprintf("rromisim_%d_%s", now.UnixMilli(), hex.EncodeToString(buf[:]))
}

// ActivationInstructions renders the human-readable activation script for an
// issued profile. It is deterministic so repeated verifications can rebuild
// the instructions from the persisted activation code without re-provisioning.
func ActivationInstructions(p plan.Plan, activationCode string) string {
	s := fmt.Sprintf(
		"1. Go to Settings → Cellular/Mobile Data\n"+
			"2. Tap \"Add eSIM\"\n"+
			"3. Scan this QR code\n"+
			"4. Follow on-screen prompts to activate\n"+
			"5. Allow 1-2 minutes for activation\n\n"+
			"Data: %s\nDuration: %s\nCountry: %s",
		p.DataAllowance, p.DurationDays, p.Country,
	)
	if activationCode != "" {
		s += fmt.Sprintf("\n\nIf QR doesn't work, use code: %s", activationCode)
	}
	return s
}
