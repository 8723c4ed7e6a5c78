package helpers

import (
	"crypto/tls"
	"net"
	"net/http"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
)

// ESOptions configures the search client. Zero values fall back to defaults.
type ESOptions struct {
	Addrs      []string
	Username   string
	Password   string
	Timeout    time.Duration
	MaxRetries int
}

// NewESClient creates an Elasticsearch client. Requests are retried on gateway errors only.
func NewESClient(opts ESOptions) (*elasticsearch.Client, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	retries := opts.MaxRetries
	if retries <= 0 {
		retries = 2
	}
	return elasticsearch.NewClient(elasticsearch.Config{
		Addresses:     opts.Addrs,
		Username:      opts.Username,
		Password:      opts.Password,
		MaxRetries:    retries,
		RetryOnStatus: []int{502, 503, 504},
		Transport: &http.Transport{
			MaxIdleConnsPerHost:   10,
			ResponseHeaderTimeout: timeout,
			TLSClientConfig:       &tls.Config{MinVersion: tls.VersionTLS12},
			DialContext:           (&net.Dialer{Timeout: timeout}).DialContext,
		},
	})
}
