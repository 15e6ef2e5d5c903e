// Package member reconciles Stripe subscription state with Ghost member
// records. The reconciler is a state machine over lifecycle intent and the
// number of existing records for an email, applying the minimal mutation
// needed to reach the desired state.
package member

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/sunknudsen/ghost-join/pkg/ghost"
	"github.com/sunknudsen/ghost-join/pkg/stripeapi"
)

// Labels applied to Stripe-sourced member records. Records without the Stripe
// label are never touched by this service.
const (
	LabelStripe          = "Stripe"
	LabelPendingDeletion = "Pending deletion"
)

// Store is the slice of the Ghost Admin API the reconciler needs.
type Store interface {
	MembersByEmail(ctx context.Context, email string) ([]*ghost.Member, error)
	AddMember(ctx context.Context, member *ghost.Member, sendEmail bool) (*ghost.Member, error)
	EditMember(ctx context.Context, id string, member *ghost.Member) (*ghost.Member, error)
	DeleteMember(ctx context.Context, id string) error
}

// Outcome reports which mutation the reconciler applied.
type Outcome int

const (
	OutcomeNoop Outcome = iota
	OutcomeCreated
	OutcomeUpdated
	OutcomeDeleted
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCreated:
		return "created"
	case OutcomeUpdated:
		return "updated"
	case OutcomeDeleted:
		return "deleted"
	default:
		return "noop"
	}
}

// Config holds configuration for the reconciler.
type Config struct {
	// Store is the membership store (required).
	Store Store

	// ProductID is the Stripe product this service is responsible for
	// (required). Events for other products never mutate membership.
	ProductID string

	// LowercaseEmails normalizes customer emails before lookup and create.
	// Off by default; the store's own matching semantics apply either way.
	LowercaseEmails bool

	Logger zerolog.Logger
}

// Reconciler applies lifecycle intents to the membership store.
type Reconciler struct {
	store           Store
	productID       string
	lowercaseEmails bool
	locks           *emailLocks
	logger          zerolog.Logger
}

// New creates a reconciler from config.
func New(config Config) (*Reconciler, error) {
	if config.Store == nil {
		return nil, fmt.Errorf("member: store is required")
	}
	if strings.TrimSpace(config.ProductID) == "" {
		return nil, fmt.Errorf("member: product id is required")
	}
	return &Reconciler{
		store:           config.Store,
		productID:       config.ProductID,
		lowercaseEmails: config.LowercaseEmails,
		locks:           newEmailLocks(),
		logger:          config.Logger,
	}, nil
}

// Apply computes and performs the minimal mutation for intent given the
// subscription's authoritative detail. Idempotence comes from re-reading
// current store state on every call instead of trusting local memory.
func (r *Reconciler) Apply(ctx context.Context, intent Intent, sub *stripeapi.Subscription) (Outcome, error) {
	if sub.Plan.Product != r.productID {
		return OutcomeNoop, fmt.Errorf("%w: %s", ErrProductMismatch, sub.Plan.Product)
	}

	if intent == IntentIgnore {
		return OutcomeNoop, nil
	}

	email := sub.Customer.Email
	if r.lowercaseEmails {
		email = strings.ToLower(email)
	}

	unlock := r.locks.lock(email)
	defer unlock()

	members, err := r.store.MembersByEmail(ctx, email)
	if err != nil {
		return OutcomeNoop, fmt.Errorf("member: lookup %s: %w", email, err)
	}

	switch intent {
	case IntentActivate:
		return r.activate(ctx, email, members, sub)
	case IntentDeactivate:
		return r.deactivate(ctx, email, members)
	}
	return OutcomeNoop, nil
}

func (r *Reconciler) activate(ctx context.Context, email string, members []*ghost.Member, sub *stripeapi.Subscription) (Outcome, error) {
	switch len(members) {
	case 0:
		note := &ghost.Note{Stripe: ghost.StripeLinkage{
			Customer:        sub.Customer.ID,
			Subscription:    sub.ID,
			PendingDeletion: sub.CancelAtPeriodEnd,
			Starts:          sub.PeriodStartDate(),
			Ends:            sub.PeriodEndDate(),
		}}
		encoded, err := note.Encode()
		if err != nil {
			return OutcomeNoop, fmt.Errorf("member: encode note: %w", err)
		}
		created, err := r.store.AddMember(ctx, &ghost.Member{
			Name:   sub.Customer.Name,
			Email:  email,
			Labels: StripeLabels(sub.CancelAtPeriodEnd),
			Note:   encoded,
		}, true)
		if err != nil {
			return OutcomeNoop, fmt.Errorf("member: add %s: %w", email, err)
		}
		r.logger.Debug().Str("member_id", created.ID).Str("email", email).Msg("member added")
		return OutcomeCreated, nil

	case 1:
		existing := members[0]
		note, err := ghost.ParseNote(existing.Note)
		if err != nil {
			return OutcomeNoop, fmt.Errorf("member: %s: %w", email, err)
		}
		// Customer and subscription ids stay as recorded; only the
		// deletion flag and period dates are refreshed.
		note.Stripe.PendingDeletion = sub.CancelAtPeriodEnd
		note.Stripe.Starts = sub.PeriodStartDate()
		note.Stripe.Ends = sub.PeriodEndDate()
		encoded, err := note.Encode()
		if err != nil {
			return OutcomeNoop, fmt.Errorf("member: encode note: %w", err)
		}
		updated, err := r.store.EditMember(ctx, existing.ID, &ghost.Member{
			Labels: StripeLabels(sub.CancelAtPeriodEnd),
			Note:   encoded,
		})
		if err != nil {
			return OutcomeNoop, fmt.Errorf("member: edit %s: %w", email, err)
		}
		r.logger.Debug().Str("member_id", updated.ID).Str("email", email).Msg("member updated")
		return OutcomeUpdated, nil

	default:
		return OutcomeNoop, fmt.Errorf("%w: %d records for %s", ErrMemberConflict, len(members), email)
	}
}

func (r *Reconciler) deactivate(ctx context.Context, email string, members []*ghost.Member) (Outcome, error) {
	switch len(members) {
	case 0:
		// Absence is not an error for delete.
		return OutcomeNoop, nil
	case 1:
		if err := r.store.DeleteMember(ctx, members[0].ID); err != nil {
			return OutcomeNoop, fmt.Errorf("member: delete %s: %w", email, err)
		}
		r.logger.Debug().Str("member_id", members[0].ID).Str("email", email).Msg("member deleted")
		return OutcomeDeleted, nil
	default:
		r.logger.Warn().
			Str("email", email).
			Int("count", len(members)).
			Msg("multiple members share one email, skipping delete")
		return OutcomeNoop, nil
	}
}

// StripeLabels returns the label set for a Stripe-sourced member.
func StripeLabels(pendingDeletion bool) []ghost.Label {
	labels := []ghost.Label{{Name: LabelStripe}}
	if pendingDeletion {
		labels = append(labels, ghost.Label{Name: LabelPendingDeletion})
	}
	return labels
}
