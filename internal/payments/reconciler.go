package payments

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log"
	"time"

	"github.com/gdg-garage/groupy-loopy-api/internal/models"
	"github.com/gdg-garage/groupy-loopy-api/internal/notifier"
	"github.com/gdg-garage/groupy-loopy-api/internal/store"
)

type Repository interface {
	ApplyPayment(ctx context.Context, p store.PaymentApplication) (*store.PaymentResult, error)
	ApplyParticipantPayment(ctx context.Context, p store.ParticipantPayment) ([]models.TripParticipant, error)
	FindParticipantsByEmail(ctx context.Context, email string) ([]models.TripParticipant, error)
}

type AdminNotifier interface {
	NotifyPayment(trip models.Trip, reg models.Registration, amount float64, provider string) error
}

// Outcome describes what a notification changed.
type Outcome struct {
	Applied             bool
	Duplicate           bool
	Registration        *models.Registration
	ParticipantsAdded   int
	ParticipantsUpdated int
}

type Reconciler struct {
	repo       Repository
	mailer     notifier.Mailer
	discord    AdminNotifier
	adminEmail string
	now        func() time.Time
}

// NewReconciler wires the reconciler. mailer and discord may be nil.
func NewReconciler(repo Repository, mailer notifier.Mailer, discord AdminNotifier, adminEmail string) *Reconciler {
	return &Reconciler{
		repo:       repo,
		mailer:     mailer,
		discord:    discord,
		adminEmail: adminEmail,
		now:        time.Now,
	}
}

// Reconcile normalizes payload and applies it. A provider reported failure
// returns an Outcome with Applied false and no error. Errors wrap
// ErrMissingFields or store.ErrNotFound.
func (r *Reconciler) Reconcile(ctx context.Context, payload WebhookPayload) (*Outcome, error) {
	rec, err := payload.Normalize()
	if err != nil {
		return nil, err
	}
	return r.Apply(ctx, rec)
}

func (r *Reconciler) Apply(ctx context.Context, rec Reconciliation) (*Outcome, error) {
	if !rec.Success {
		log.Printf("Ignoring unsuccessful %s notification (transaction %q)", rec.Provider, rec.TransactionID)
		return &Outcome{}, nil
	}
	if rec.RegistrationID != 0 {
		return r.applyToRegistration(ctx, rec)
	}
	if rec.Reference != "" {
		return r.applyByEmail(ctx, rec)
	}
	return nil, missing("registration_id")
}

func (r *Reconciler) applyToRegistration(ctx context.Context, rec Reconciliation) (*Outcome, error) {
	res, err := r.repo.ApplyPayment(ctx, store.PaymentApplication{
		RegistrationID: rec.RegistrationID,
		Provider:       rec.Provider,
		TransactionID:  rec.TransactionID,
		Amount:         rec.Amount,
		Method:         rec.Method,
		Participants: func(reg models.Registration) []models.TripParticipant {
			return BuildParticipants(reg, rec.TransactionID)
		},
		CreateMemorial: true,
	})
	if errors.Is(err, store.ErrDuplicateTransaction) {
		log.Printf("Duplicate %s notification for registration %d (transaction %s), skipping", rec.Provider, rec.RegistrationID, rec.TransactionID)
		return &Outcome{Duplicate: true}, nil
	}
	if err != nil {
		return nil, err
	}

	log.Printf("Applied %s payment %s of %.2f to registration %d: %s -> %s",
		rec.Provider, rec.TransactionID, rec.Amount, res.Registration.ID, res.PreviousStatus, res.Registration.PaymentStatus)
	if res.MemorialCreated {
		log.Printf("Created pending memorial for registration %d", res.Registration.ID)
	}

	r.notifyRegistration(ctx, res, rec)

	reg := res.Registration
	return &Outcome{
		Applied:           true,
		Registration:      &reg,
		ParticipantsAdded: res.ParticipantsAdded,
	}, nil
}

func (r *Reconciler) applyByEmail(ctx context.Context, rec Reconciliation) (*Outcome, error) {
	participants, err := r.repo.FindParticipantsByEmail(ctx, rec.Reference)
	if err != nil {
		return nil, err
	}
	if len(participants) == 0 {
		return nil, fmt.Errorf("participant %s: %w", rec.Reference, store.ErrNotFound)
	}

	// Prefer the owning registration whenever the roster entry has one.
	for _, p := range participants {
		if p.RegistrationID != 0 {
			rec.RegistrationID = p.RegistrationID
			return r.applyToRegistration(ctx, rec)
		}
	}

	updated, err := r.repo.ApplyParticipantPayment(ctx, store.ParticipantPayment{
		Email:         rec.Reference,
		Provider:      rec.Provider,
		TransactionID: rec.TransactionID,
		Amount:        rec.Amount,
		Method:        rec.Method,
	})
	if errors.Is(err, store.ErrDuplicateTransaction) {
		return &Outcome{Duplicate: true}, nil
	}
	if err != nil {
		return nil, err
	}

	r.sendEmail(ctx, notifier.Email{
		To:      rec.Reference,
		Subject: "Payment received",
		HTMLBody: fmt.Sprintf("<p>Your payment of ₪%.2f was received (transaction %s).</p>",
			rec.Amount, html.EscapeString(rec.TransactionID)),
	})

	return &Outcome{Applied: true, ParticipantsUpdated: len(updated)}, nil
}

// notifyRegistration never fails the caller; every error is logged.
func (r *Reconciler) notifyRegistration(ctx context.Context, res *store.PaymentResult, rec Reconciliation) {
	reg := res.Registration
	trip := res.Trip

	if reg.PayerEmail != "" {
		email := notifier.Email{
			To:       reg.PayerEmail,
			Subject:  fmt.Sprintf("Payment confirmation: %s", trip.Title),
			HTMLBody: payerBody(trip, reg, rec),
		}
		receipt, err := notifier.RenderReceipt(receiptFor(trip, reg, rec, r.now()))
		if err != nil {
			log.Printf("Failed to render receipt for registration %d: %v", reg.ID, err)
		} else {
			email.Attachments = []notifier.Attachment{{
				Filename: fmt.Sprintf("receipt-%d-%s.pdf", reg.ID, rec.TransactionID),
				Data:     receipt,
			}}
		}
		r.sendEmail(ctx, email)
	}

	adminBody := adminBody(trip, reg, rec)
	for _, to := range uniqueRecipients(trip.OrganizerEmail, r.adminEmail) {
		r.sendEmail(ctx, notifier.Email{
			To:       to,
			Subject:  fmt.Sprintf("New payment for %s", trip.Title),
			HTMLBody: adminBody,
		})
	}

	if r.discord != nil {
		if err := r.discord.NotifyPayment(trip, reg, rec.Amount, rec.Provider); err != nil {
			log.Printf("Failed to send discord payment notice for registration %d: %v", reg.ID, err)
		}
	}
}

func (r *Reconciler) sendEmail(ctx context.Context, email notifier.Email) {
	if r.mailer == nil {
		return
	}
	if err := r.mailer.Send(ctx, email); err != nil {
		log.Printf("Failed to send email to %s: %v", email.To, err)
	}
}

func uniqueRecipients(addrs ...string) []string {
	seen := map[string]bool{}
	var out []string
	for _, a := range addrs {
		if a == "" || seen[a] {
			continue
		}
		seen[a] = true
		out = append(out, a)
	}
	return out
}

func participantNames(reg models.Registration) []string {
	names := make([]string, 0, len(reg.Participants))
	for _, p := range reg.Participants {
		names = append(names, p.Name)
	}
	return names
}

func receiptFor(trip models.Trip, reg models.Registration, rec Reconciliation, now time.Time) notifier.Receipt {
	return notifier.Receipt{
		Number:        fmt.Sprintf("%d-%s", reg.ID, rec.TransactionID),
		IssuedAt:      now,
		TripTitle:     trip.Title,
		TripDate:      trip.Date,
		PayerName:     reg.PayerName,
		PayerEmail:    reg.PayerEmail,
		Participants:  participantNames(reg),
		Amount:        rec.Amount,
		AmountPaid:    reg.AmountPaid,
		TotalAmount:   reg.TotalAmount,
		Provider:      rec.Provider,
		TransactionID: rec.TransactionID,
	}
}

func payerBody(trip models.Trip, reg models.Registration, rec Reconciliation) string {
	status := "Your registration is fully paid."
	if reg.PaymentStatus != models.PaymentCompleted {
		status = fmt.Sprintf("Remaining balance: ₪%.2f.", reg.TotalAmount-reg.AmountPaid)
	}
	return fmt.Sprintf(`<h2>Thank you, %s!</h2>
<p>We received your payment of ₪%.2f for <strong>%s</strong> on %s.</p>
<p>%s</p>
<p>Transaction: %s</p>`,
		html.EscapeString(reg.PayerName),
		rec.Amount,
		html.EscapeString(trip.Title),
		trip.Date.Format("02/01/2006"),
		status,
		html.EscapeString(rec.TransactionID),
	)
}

func adminBody(trip models.Trip, reg models.Registration, rec Reconciliation) string {
	return fmt.Sprintf(`<h2>New payment</h2>
<p>Trip: %s</p>
<p>Payer: %s (%s)</p>
<p>Participants: %d</p>
<p>Amount: ₪%.2f via %s</p>
<p>Paid: ₪%.2f of ₪%.2f (%s)</p>`,
		html.EscapeString(trip.Title),
		html.EscapeString(reg.PayerName),
		html.EscapeString(reg.PayerEmail),
		len(reg.Participants),
		rec.Amount,
		rec.Provider,
		reg.AmountPaid,
		reg.TotalAmount,
		reg.PaymentStatus,
	)
}
