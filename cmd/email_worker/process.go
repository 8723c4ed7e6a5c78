package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/oksasatya/go-account-service/pkg/mailer"
)

type outcome int

const (
	ack outcome = iota
	retry
	deadLetter
)

var errBadMessage = errors.New("malformed email job")

// process delivers one queued message. Messages that can never succeed go to
// the dead-letter queue at once; a failed send is retried once.
func process(ctx context.Context, sender mailer.Sender, body []byte, redelivered bool) (outcome, error) {
	var job mailer.EmailJob
	if err := json.Unmarshal(body, &job); err != nil {
		return deadLetter, fmt.Errorf("%w: %v", errBadMessage, err)
	}
	if job.To == "" {
		return deadLetter, fmt.Errorf("%w: missing recipient", errBadMessage)
	}
	if _, _, _, err := mailer.Compose(job); err != nil {
		return deadLetter, err
	}
	if err := sender.Deliver(ctx, job); err != nil {
		if redelivered {
			return deadLetter, err
		}
		return retry, err
	}
	return ack, nil
}
