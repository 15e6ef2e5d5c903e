package api

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/sunknudsen/ghost-join/pkg/ghost"
	"github.com/sunknudsen/ghost-join/pkg/member"
	"github.com/sunknudsen/ghost-join/pkg/stripeapi"
)

const maxWebhookBodyBytes = 256 * 1024

// handleWebhook runs the full ingress pipeline: verify signature, classify
// the event, fetch authoritative subscription detail, reconcile membership.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	eventType := "unknown"
	// Every exit path contributes a duration sample, rejections included.
	defer func() {
		s.metrics.RecordWebhookDuration(eventType, time.Since(start))
	}()

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBodyBytes))
	if err != nil {
		s.metrics.RecordWebhookError("invalid_payload")
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	if err := stripeapi.VerifySignature(body, r.Header.Get("Stripe-Signature"), s.config.WebhookSecret); err != nil {
		s.logger.Error().Err(err).Msg("webhook rejected")
		s.metrics.RecordWebhookError("auth_failed")
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}

	event, err := stripeapi.ParseEvent(body)
	if err != nil {
		s.logger.Error().Err(err).Msg("webhook rejected")
		s.metrics.RecordWebhookError("invalid_payload")
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	eventType = string(event.Type)

	sub, err := s.config.Stripe.GetSubscription(r.Context(), event.SubscriptionID)
	if err != nil {
		s.logger.Error().Err(err).Str("subscription_id", event.SubscriptionID).Msg("subscription fetch failed")
		s.metrics.RecordWebhookEvent(eventType, "error")
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	intent := member.ClassifyIntent(event.Type, sub.Status)
	outcome, err := s.config.Reconciler.Apply(r.Context(), intent, sub)
	if err != nil {
		s.writeReconcileError(w, eventType, err)
		return
	}

	s.logger.Info().
		Str("event_type", eventType).
		Str("intent", intent.String()).
		Str("outcome", outcome.String()).
		Msg("webhook processed")
	s.metrics.RecordWebhookEvent(eventType, "success")

	w.WriteHeader(statusForOutcome(outcome))
}

func (s *Server) writeReconcileError(w http.ResponseWriter, eventType string, err error) {
	var linkageErr *ghost.LinkageError
	switch {
	case errors.Is(err, member.ErrProductMismatch):
		s.logger.Error().Err(err).Msg("webhook rejected")
		s.metrics.RecordWebhookError("wrong_product")
		writeError(w, http.StatusBadRequest, "invalid subscription product")
	case errors.Is(err, member.ErrMemberConflict), errors.As(err, &linkageErr):
		s.logger.Error().Err(err).Msg("membership store state is inconsistent")
		s.metrics.RecordWebhookError("invariant_violation")
		writeError(w, http.StatusInternalServerError, "internal server error")
	default:
		s.logger.Error().Err(err).Msg("reconciliation failed")
		s.metrics.RecordWebhookEvent(eventType, "error")
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// statusForOutcome maps mutations to response codes: creations and deletions
// report 201, edits and acknowledged no-ops report 200.
func statusForOutcome(outcome member.Outcome) int {
	switch outcome {
	case member.OutcomeCreated, member.OutcomeDeleted:
		return http.StatusCreated
	default:
		return http.StatusOK
	}
}
