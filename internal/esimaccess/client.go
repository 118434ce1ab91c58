// Package esimaccess implements the eSIM provisioning adapter against an
// eSIM Access-style vendor API.
//
// Provisioning never blocks fulfillment: every vendor failure (network
// error, non-2xx status, malformed body) is absorbed by a deterministic
// fallback artifact so Issue always returns something usable. The trade-off
// is deliberate and inherited from the product design: a fallback artifact
// is an ICCID-shaped string and activation code that look real but do not
// activate, and it can end up in a customer email. Do not make vendor
// failures fatal here; availability of the fulfillment pipeline wins.
package esimaccess

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/ajayishaq/rromisim/internal/domain/order"
	"github.com/ajayishaq/rromisim/internal/domain/plan"
)

const (
	// DefaultBaseURL is the production vendor endpoint.
	DefaultBaseURL = "https://api.esimaccess.com"

	// qrRenderEndpoint renders an activation payload as a QR image when the
	// vendor does not supply one.
	qrRenderEndpoint = "https://api.qrserver.com/v1/create-qr-code/?size=300x300&data="

	// fallbackProfileDomain is embedded in fallback activation codes.
	fallbackProfileDomain = "rromisim.com"

	// fallbackICCIDPrefix is a fixed carrier prefix for fallback ICCIDs.
	fallbackICCIDPrefix = "8944"
)

// countryISO maps plan country names to the ISO codes the vendor expects.
// Unmapped names pass through unchanged: the vendor rejects what it does not
// know and the fallback covers that, so leniency here is deliberate.
var countryISO = map[string]string{
	"Nigeria":      "NG",
	"Kenya":        "KE",
	"South Africa": "ZA",
	"USA":          "US",
	"Canada":       "CA",
	"Mexico":       "MX",
	"UK":           "GB",
	"Germany":      "DE",
	"France":       "FR",
	"Italy":        "IT",
	"Spain":        "ES",
	"Japan":        "JP",
	"Thailand":     "TH",
	"Singapore":    "SG",
	"India":        "IN",
	"Australia":    "AU",
	"UAE":          "AE",
	"Saudi Arabia": "SA",
}

var _ order.Provisioner = (*Provisioner)(nil)

// Config holds credentials and tuning for the provisioning client.
type Config struct {
	// AccessCode is sent as a bearer token.
	AccessCode string
	// SecretKey is sent in the X-API-Key header.
	SecretKey string
	// BaseURL overrides the vendor endpoint, mainly for tests.
	BaseURL string
	// Timeout bounds the vendor call. Zero means 10s.
	Timeout time.Duration
}

// Provisioner issues eSIM profiles from the vendor, with the fallback
// described in the package comment.
type Provisioner struct {
	baseURL    string
	accessCode string
	secretKey  string
	http       *http.Client
	now        func() time.Time
}

// New creates a Provisioner.
func New(cfg Config) *Provisioner {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Provisioner{
		baseURL:    baseURL,
		accessCode: cfg.AccessCode,
		secretKey:  cfg.SecretKey,
		http:       &http.Client{Timeout: timeout},
		now:        time.Now,
	}
}

type issueRequest struct {
	CountryISO string `json:"country_iso"`
	Data       int    `json:"data"`
	Validity   int    `json:"validity"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
}

type issueResponse struct {
	Data struct {
		ICCID           string `json:"iccid"`
		ActivationCode  string `json:"activation_code"`
		SMDPPlusAddress string `json:"sm_dp_plus_address"`
		QRCode          string `json:"qr_code"`
	} `json:"data"`
}

// Issue requests a profile from the vendor and never fails; see the package
// comment for the fallback contract.
func (p *Provisioner) Issue(ctx context.Context, pl plan.Plan, o *order.Order) order.Artifact {
	art, err := p.issueVendor(ctx, pl, o)
	if err != nil {
		zctx.From(ctx).Warn("Provisioning vendor failed, using fallback artifact",
			zap.String("order_id", o.ID),
			zap.String("plan_id", pl.ID),
			zap.Error(err),
		)
		return p.fallback(pl)
	}
	return art
}

// issueVendor performs the real vendor call.
func (p *Provisioner) issueVendor(ctx context.Context, pl plan.Plan, o *order.Order) (order.Artifact, error) {
	body, err := json.Marshal(issueRequest{
		CountryISO: CountryISO(pl.Country),
		Data:       leadingInt(pl.DataAllowance),
		Validity:   leadingInt(pl.DurationDays),
		Email:      o.Email,
		Phone:      o.Phone,
	})
	if err != nil {
		return order.Artifact{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/esim/package/order", bytes.NewReader(body))
	if err != nil {
		return order.Artifact{}, err
	}
	req.Header.Set("Authorization", "Bearer "+p.accessCode)
	req.Header.Set("X-API-Key", p.secretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.http.Do(req)
	if err != nil {
		return order.Artifact{}, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return order.Artifact{}, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return order.Artifact{}, fmt.Errorf("vendor returned %d", resp.StatusCode)
	}

	var out issueResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return order.Artifact{}, fmt.Errorf("malformed vendor response: %w", err)
	}

	iccid := out.Data.ICCID
	if iccid == "" {
		iccid = fallbackICCID()
	}
	code := out.Data.ActivationCode
	if code == "" {
		code = out.Data.SMDPPlusAddress
	}
	if code == "" {
		code = p.fallbackActivationCode()
	}
	qrURL := out.Data.QRCode
	if qrURL == "" {
		qrURL = QRImageURL(code)
	}

	return order.Artifact{
		ESIM: order.ESIM{
			ICCID:          iccid,
			QRURL:          qrURL,
			ActivationCode: code,
		},
		Instructions: order.ActivationInstructions(pl, code),
	}, nil
}

// fallback synthesizes a plausible-looking, non-functional artifact.
func (p *Provisioner) fallback(pl plan.Plan) order.Artifact {
	code := p.fallbackActivationCode()
	return order.Artifact{
		ESIM: order.ESIM{
			ICCID:          fallbackICCID(),
			QRURL:          QRImageURL(code),
			ActivationCode: code,
		},
		Instructions: order.ActivationInstructions(pl, code),
	}
}

func (p *Provisioner) fallbackActivationCode() string {
	return fmt.Sprintf("LPA:1$%s$%d", fallbackProfileDomain, p.now().UnixMilli())
}

// fallbackICCID returns the fixed carrier prefix followed by 15 random
// digits, matching the shape of a real 19-digit ICCID.
func fallbackICCID() string {
	var b strings.Builder
	b.WriteString(fallbackICCIDPrefix)
	var buf [15]byte
	_, _ = rand.Read(buf[:])
	for _, c := range buf {
		b.WriteByte('0' + c%10)
	}
	return b.String()
}

// QRImageURL returns a QR render URL encoding the given activation payload.
func QRImageURL(payload string) string {
	return qrRenderEndpoint + url.QueryEscape(payload)
}

// CountryISO translates a plan country name to its ISO code, passing
// unmapped names through unchanged.
func CountryISO(country string) string {
	if iso, ok := countryISO[country]; ok {
		return iso
	}
	return country
}

// leadingInt parses the integer prefix of labels like "5GB" or "14 days".
func leadingInt(s string) int {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	n, err := strconv.Atoi(s[:i])
	if err != nil {
		return 0
	}
	return n
}
