// Package push wraps the Firebase Cloud Messaging client behind a small
// interface so the delivery classification can be tested without the SDK.
package push

import (
	"context"
	"log/slog"

	"firebase.google.com/go/v4/messaging"
)

// Message is the payload fanned out to every device of a recipient.
type Message struct {
	Title string
	Body  string
	Data  map[string]string
}

// Result summarizes one multicast delivery. InvalidTokens lists the tokens
// the gateway reported as no longer registered; those devices must be
// tombstoned by the caller.
type Result struct {
	Sent          int
	Failed        int
	InvalidTokens []string
}

// Sender submits one batch of push messages in a single network call.
type Sender interface {
	Send(ctx context.Context, tokens []string, msg Message) (Result, error)
}

// MessagingClient is the subset of the Firebase Messaging API we use.
// *messaging.Client satisfies it; tests substitute a mock.
type MessagingClient interface {
	SendEachForMulticast(ctx context.Context, msg *messaging.MulticastMessage) (*messaging.BatchResponse, error)
}

// FCMSender implements Sender on Firebase Cloud Messaging.
type FCMSender struct {
	client MessagingClient
	logger *slog.Logger
}

// NewFCMSender creates an FCMSender.
func NewFCMSender(client MessagingClient, logger *slog.Logger) *FCMSender {
	return &FCMSender{
		client: client,
		logger: logger.With("component", "FCMSender"),
	}
}

// Send submits the batch and classifies the per-token responses. A transport
// failure degrades to a Result with every delivery counted as failed; the
// error is returned alongside so the caller can log it, but the Result is
// always usable.
func (s *FCMSender) Send(ctx context.Context, tokens []string, msg Message) (Result, error) {
	if len(tokens) == 0 {
		return Result{}, nil
	}

	multicast := &messaging.MulticastMessage{
		Tokens: tokens,
		Data:   msg.Data,
		Notification: &messaging.Notification{
			Title: msg.Title,
			Body:  msg.Body,
		},
	}

	br, err := s.client.SendEachForMulticast(ctx, multicast)
	if err != nil {
		s.logger.Error("FCM multicast transport failure", "err", err, "tokens", len(tokens))
		return Result{Failed: len(tokens)}, err
	}

	res := Result{Sent: br.SuccessCount}
	for idx, resp := range br.Responses {
		if resp.Success {
			continue
		}
		res.Failed++
		// A token the gateway no longer recognizes is dead for good.
		if messaging.IsRegistrationTokenNotRegistered(resp.Error) || messaging.IsInvalidArgument(resp.Error) {
			res.InvalidTokens = append(res.InvalidTokens, tokens[idx])
		}
	}
	return res, nil
}
