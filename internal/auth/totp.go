package auth

import (
	"encoding/base64"
	"fmt"

	"github.com/pquerna/otp/totp"
	qrcode "github.com/skip2/go-qrcode"
)

// TOTPSetup holds the material needed to enroll an authenticator app
type TOTPSetup struct {
	Secret     string `json:"secret"`
	OTPAuthURL string `json:"otpauth_url"`
	QRCodePNG  string `json:"qr_code_png"` // base64-encoded PNG
}

// GenerateTOTPSecret creates a new TOTP secret and a QR code for enrollment
func GenerateTOTPSecret(issuer, accountName string) (*TOTPSetup, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      issuer,
		AccountName: accountName,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate TOTP secret: %w", err)
	}

	png, err := qrcode.Encode(key.URL(), qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("failed to encode QR code: %w", err)
	}

	return &TOTPSetup{
		Secret:     key.Secret(),
		OTPAuthURL: key.URL(),
		QRCodePNG:  base64.StdEncoding.EncodeToString(png),
	}, nil
}

// ValidateTOTPCode checks a 6-digit code against a secret
func ValidateTOTPCode(code, secret string) bool {
	return totp.Validate(code, secret)
}
