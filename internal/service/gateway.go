package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	razorpay "github.com/razorpay/razorpay-go"
)

// PaymentGateway creates remote payment intents for online checkout.
// Amounts are in the gateway's minor currency unit (paise).
type PaymentGateway interface {
	CreateOrder(ctx context.Context, amountPaise int64, currency, receipt string) (string, error)
	Key() string
}

// RazorpayGateway is the Razorpay-backed PaymentGateway
type RazorpayGateway struct {
	client *razorpay.Client
	keyID  string
}

// NewRazorpayGateway creates a gateway client from API credentials
func NewRazorpayGateway(keyID, keySecret string) *RazorpayGateway {
	return &RazorpayGateway{
		client: razorpay.NewClient(keyID, keySecret),
		keyID:  keyID,
	}
}

// CreateOrder creates a remote order record and returns its id.
// The razorpay client has no context support; ctx is part of the interface
// so substitutes can honor cancellation.
func (g *RazorpayGateway) CreateOrder(ctx context.Context, amountPaise int64, currency, receipt string) (string, error) {
	data := map[string]interface{}{
		"amount":   amountPaise,
		"currency": currency,
		"receipt":  receipt,
	}

	order, err := g.client.Order.Create(data, nil)
	if err != nil {
		return "", fmt.Errorf("gateway order creation failed: %w", err)
	}

	id, ok := order["id"].(string)
	if !ok {
		return "", fmt.Errorf("gateway response missing order id")
	}
	return id, nil
}

// Key returns the public key the frontend needs to open the payment UI
func (g *RazorpayGateway) Key() string {
	return g.keyID
}

// VerifySignature reports whether signature is the hex-encoded HMAC-SHA256 of
// "gatewayOrderID|paymentID" under the shared secret. This check is the sole
// integrity gate for online payments.
func VerifySignature(gatewayOrderID, paymentID, signature, secret string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(gatewayOrderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
