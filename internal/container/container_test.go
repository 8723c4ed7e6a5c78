package container

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-account-service/config"
	"github.com/oksasatya/go-account-service/internal/application"
	"github.com/oksasatya/go-account-service/internal/infrastructure/memory"
	"github.com/oksasatya/go-account-service/internal/infrastructure/storage"
	"github.com/oksasatya/go-account-service/pkg/helpers"
	"github.com/oksasatya/go-account-service/pkg/mailer"
)

func TestNew_WiresServiceAndClosesInReverse(t *testing.T) {
	cfg := config.Load()
	cfg.BcryptCost = 4
	logger := helpers.NewDiscardLogger()
	d := mailer.NewDispatcher(mailer.LogSender{Logger: logger}, logger)

	c := New(cfg, logger, Infra{
		Accounts: memory.NewAccountRepository(),
		Sessions: memory.NewSessionRepository(),
		Avatars:  storage.NewLocalStore(t.TempDir(), "avatars"),
		Mail:     d,
	})
	require.NotNil(t, c.Service)

	_, err := c.Service.Register(context.Background(), application.RegisterInput{Email: "a@example.com", Password: "secret1"})
	require.NoError(t, err)

	var order []int
	c.OnClose(func() { order = append(order, 1) })
	c.OnClose(func() { order = append(order, 2) })
	c.Close()
	assert.Equal(t, []int{2, 1}, order)
	assert.ErrorIs(t, d.Enqueue(mailer.EmailJob{To: "x@example.com"}), mailer.ErrDispatcherClosed)
}

func TestNewSender(t *testing.T) {
	logger := helpers.NewDiscardLogger()

	s, closer, err := newSender(&config.Config{MailSendEnabled: false}, logger)
	require.NoError(t, err)
	assert.Nil(t, closer)
	assert.IsType(t, mailer.LogSender{}, s)

	s, _, err = newSender(&config.Config{MailSendEnabled: true, MailgunDomain: "mg.example.com", MailgunAPIKey: "key"}, logger)
	require.NoError(t, err)
	assert.IsType(t, &mailer.Mailgun{}, s)

	s, _, err = newSender(&config.Config{MailSendEnabled: true}, logger)
	require.NoError(t, err)
	assert.IsType(t, mailer.LogSender{}, s)
}
