package mailer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mailgunFake struct {
	mu      sync.Mutex
	to      []string
	subject []string
}

func (f *mailgunFake) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/messages") {
		f.mu.Lock()
		f.to = append(f.to, r.FormValue("to"))
		f.subject = append(f.subject, r.FormValue("subject"))
		f.mu.Unlock()
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"id":"<1@mg.test>","message":"Queued. Thank you."}`))
}

func TestMailgun_DeliverRendersTemplate(t *testing.T) {
	fake := &mailgunFake{}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	m := NewMailgun("mg.test", "key-test", "Accounts <no-reply@mg.test>", srv.URL+"/v3")
	err := m.Deliver(context.Background(), EmailJob{
		To:       "ada@example.com",
		Template: "verify_email",
		Data:     map[string]any{"VerifyURL": "http://v/tok", "AppName": "Accounts"},
	})
	require.NoError(t, err)

	fake.mu.Lock()
	defer fake.mu.Unlock()
	require.Len(t, fake.to, 1)
	assert.Equal(t, "ada@example.com", fake.to[0])
	assert.Equal(t, "Accounts: verify your email address", fake.subject[0])
}

func TestMailgun_NotConfigured(t *testing.T) {
	m := NewMailgun("", "", "x@example.com")
	err := m.Send(context.Background(), "a@example.com", "s", "t", "")
	assert.ErrorIs(t, err, ErrMailgunNotConfigured)
}

func TestMailgun_EmptyJob(t *testing.T) {
	m := NewMailgun("mg.test", "key-test", "x@example.com")
	assert.ErrorIs(t, m.Deliver(context.Background(), EmailJob{To: "a@example.com"}), ErrEmptyMessage)
}
