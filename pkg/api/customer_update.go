package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sunknudsen/ghost-join/pkg/ghost"
)

// handleCustomerUpdate is called by Ghost when a member profile is edited.
// If the member carries a Stripe linkage, the new name and email are pushed
// back to the Stripe customer.
func (s *Server) handleCustomerUpdate(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Member struct {
			Current struct {
				ID string `json:"id"`
			} `json:"current"`
		} `json:"member"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.Member.Current.ID == "" {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	m, err := s.config.Ghost.Member(r.Context(), payload.Member.Current.ID)
	if err != nil {
		if errors.Is(err, ghost.ErrMemberNotFound) {
			writeError(w, http.StatusNotFound, "could not find member")
			return
		}
		s.logger.Error().Err(err).Msg("member read failed")
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	note, err := ghost.ParseNote(m.Note)
	if err != nil {
		// Members without a linkage are not ours to sync.
		s.logger.Debug().Str("member_id", m.ID).Msg("member has no stripe linkage, skipping")
		w.WriteHeader(http.StatusOK)
		return
	}

	if err := s.config.Stripe.UpdateCustomer(r.Context(), note.Stripe.Customer, m.Email, m.Name); err != nil {
		s.logger.Error().Err(err).Str("customer_id", note.Stripe.Customer).Msg("customer update failed")
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	s.logger.Debug().Str("customer_id", note.Stripe.Customer).Msg("stripe customer updated")
	w.WriteHeader(http.StatusOK)
}
