package mailer

import (
	"strings"

	"github.com/sirupsen/logrus"
)

// EmailJob is one outgoing message. It is either fully composed (Subject plus Text
// or HTML) or names a Template rendered with Data at delivery time. The JSON form is
// what travels over RabbitMQ.
type EmailJob struct {
	To       string         `json:"to"`
	Subject  string         `json:"subject,omitempty"`
	Text     string         `json:"text,omitempty"`
	HTML     string         `json:"html,omitempty"`
	Template string         `json:"template,omitempty"`
	Data     map[string]any `json:"data,omitempty"`
}

// LogFields identifies the job in log entries without leaking its body.
// The local part of the recipient is masked.
func (j EmailJob) LogFields() logrus.Fields {
	return logrus.Fields{"to": maskAddress(j.To), "template": j.Template}
}

func maskAddress(addr string) string {
	local, domain, ok := strings.Cut(addr, "@")
	if !ok || local == "" {
		return "***"
	}
	return local[:1] + "***@" + domain
}
