package mailer

import (
	"errors"
	"fmt"

	mailtpl "github.com/oksasatya/go-account-service/pkg/mailer/templates"
)

var ErrEmptyMessage = errors.New("email job has neither template nor subject with body")

// Compose resolves the final subject, text and html of a job, rendering its
// template when one is named.
func Compose(job EmailJob) (subject, text, html string, err error) {
	if job.Template == "" {
		if job.Subject == "" || (job.Text == "" && job.HTML == "") {
			return "", "", "", ErrEmptyMessage
		}
		return job.Subject, job.Text, job.HTML, nil
	}
	data := make(map[string]any, len(job.Data)+2)
	for k, v := range job.Data {
		data[k] = v
	}
	if v, ok := data["Email"]; !ok || fmt.Sprintf("%v", v) == "" {
		data["Email"] = job.To
	}
	if v, ok := data["RecipientEmail"]; !ok || fmt.Sprintf("%v", v) == "" {
		data["RecipientEmail"] = job.To
	}
	return mailtpl.Render(job.Template, data)
}
