// Package push delivers Web Push notifications to stored subscriptions.
package push

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gdg-garage/groupy-loopy-api/internal/config"
	"github.com/gdg-garage/groupy-loopy-api/internal/models"
	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"
)

const maxConcurrentDeliveries = 10

type Message struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	URL   string `json:"url,omitempty"`
	Tag   string `json:"tag,omitempty"`
}

// Sender delivers one payload and reports the push service's HTTP status.
type Sender interface {
	Send(ctx context.Context, sub models.PushSubscription, payload []byte) (int, error)
}

type WebPushSender struct {
	publicKey  string
	privateKey string
	subscriber string
	client     *http.Client
}

func NewWebPushSender(cfg *config.Config) *WebPushSender {
	return &WebPushSender{
		publicKey:  cfg.WebPushPublicKey,
		privateKey: cfg.WebPushPrivateKey,
		// webpush-go adds the mailto: scheme itself.
		subscriber: strings.TrimPrefix(cfg.WebPushSubject, "mailto:"),
		client:     http.DefaultClient,
	}
}

func (s *WebPushSender) Send(ctx context.Context, sub models.PushSubscription, payload []byte) (int, error) {
	if s.publicKey == "" || s.privateKey == "" {
		return 0, fmt.Errorf("VAPID keys are not configured")
	}
	resp, err := webpush.SendNotificationWithContext(ctx, payload, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256dh,
			Auth:   sub.Auth,
		},
	}, &webpush.Options{
		HTTPClient:      s.client,
		Subscriber:      s.subscriber,
		VAPIDPublicKey:  s.publicKey,
		VAPIDPrivateKey: s.privateKey,
		TTL:             24 * 60 * 60,
	})
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	return resp.StatusCode, nil
}

type Repository interface {
	PushSubscriptions(ctx context.Context, userIDs []uint) ([]models.PushSubscription, error)
	DeletePushSubscription(ctx context.Context, endpoint string) error
}

type Result struct {
	Sent    int `json:"sent"`
	Failed  int `json:"failed"`
	Removed int `json:"removed"`
}

type Dispatcher struct {
	repo   Repository
	sender Sender
}

func NewDispatcher(repo Repository, sender Sender) *Dispatcher {
	return &Dispatcher{repo: repo, sender: sender}
}

func (d *Dispatcher) Broadcast(ctx context.Context, msg Message) (Result, error) {
	return d.SendToUsers(ctx, nil, msg)
}

// SendToUsers delivers msg to every subscription of userIDs (all
// subscriptions when nil). Deliveries run concurrently and one failure
// never stops the others.
func (d *Dispatcher) SendToUsers(ctx context.Context, userIDs []uint, msg Message) (Result, error) {
	subs, err := d.repo.PushSubscriptions(ctx, userIDs)
	if err != nil {
		return Result{}, err
	}
	if len(subs) == 0 {
		return Result{}, nil
	}

	if msg.Tag == "" {
		msg.Tag = uuid.NewString()
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return Result{}, err
	}

	type outcome int
	const (
		sent outcome = iota
		failed
		removed
	)

	p := pool.NewWithResults[outcome]().WithMaxGoroutines(maxConcurrentDeliveries)
	for _, sub := range subs {
		sub := sub
		p.Go(func() outcome {
			status, err := d.sender.Send(ctx, sub, payload)
			if err != nil {
				log.Printf("Push delivery to subscription %d failed: %v", sub.ID, err)
				return failed
			}
			switch {
			case status == http.StatusGone || status == http.StatusNotFound:
				// Expired subscriptions are dropped and never retried.
				if err := d.repo.DeletePushSubscription(ctx, sub.Endpoint); err != nil {
					log.Printf("Failed to remove expired push subscription %d: %v", sub.ID, err)
				}
				return removed
			case status >= 400:
				log.Printf("Push service rejected subscription %d with HTTP %d", sub.ID, status)
				return failed
			default:
				return sent
			}
		})
	}

	var res Result
	for _, o := range p.Wait() {
		switch o {
		case sent:
			res.Sent++
		case removed:
			res.Removed++
		default:
			res.Failed++
		}
	}
	return res, nil
}
