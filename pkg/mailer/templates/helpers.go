package templates

import (
	"time"
)

// Brand carries the sender-side fields shared by every email.
type Brand struct {
	AppName        string
	CompanyName    string
	CompanyAddress string
	SupportURL     string
}

// Option pattern
type Option func(*EmailData)

func WithTime(t time.Time) Option {
	return func(d *EmailData) {
		utc := t.UTC()
		d.TimeAt = utc
		d.Time = utc.Format("02 January 2006, 15:04")
	}
}

func WithVerifyURL(url string) Option { return func(d *EmailData) { d.VerifyURL = url } }

// NewBaseEmailData fills the shared fields from brand, then applies opts.
func NewBaseEmailData(brand Brand, typ string, name, email, recipient string, opts ...Option) EmailData {
	d := EmailData{
		Name:           name,
		Email:          email,
		RecipientEmail: recipient,
		Type:           typ,

		CompanyName:    brand.CompanyName,
		CompanyAddress: brand.CompanyAddress,
		AppName:        brand.AppName,
		SupportURL:     brand.SupportURL,
	}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

func NewVerifyEmailData(brand Brand, name, email, verifyURL string, opts ...Option) map[string]any {
	opts = append([]Option{WithVerifyURL(verifyURL)}, opts...)
	d := NewBaseEmailData(brand, VerifyEmail, name, email, email, opts...)
	return ToMap(d)
}
