package api

import (
	"fmt"
	"net/http"

	"github.com/sunknudsen/ghost-join/pkg/ghost"
)

const portalEmailSubject = "Manage membership"

// handlePortal opens a billing portal session for the member matching the
// email, mails the link and redirects to the membership page. The link goes
// out by email rather than in the response so possession of an email address
// alone does not grant portal access.
func (s *Server) handlePortal(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		writeError(w, http.StatusBadRequest, "missing email")
		return
	}

	members, err := s.config.Ghost.MembersByEmail(r.Context(), email)
	if err != nil {
		s.logger.Error().Err(err).Msg("member lookup failed")
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if len(members) != 1 {
		writeError(w, http.StatusUnauthorized, "membership required")
		return
	}
	m := members[0]

	note, err := ghost.ParseNote(m.Note)
	if err != nil {
		s.logger.Error().Err(err).Str("member_id", m.ID).Msg("member linkage is invalid")
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	portalURL, err := s.config.Stripe.CreateBillingPortalSession(r.Context(), note.Stripe.Customer)
	if err != nil {
		s.logger.Error().Err(err).Msg("portal session failed")
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	message := fmt.Sprintf("Go to following link to manage your membership.\n\n%s", portalURL)
	if err := s.config.Mailer.Send(m.Name, m.Email, portalEmailSubject, message); err != nil {
		s.logger.Error().Err(err).Msg("portal email failed")
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	http.Redirect(w, r, s.config.MembershipPage, http.StatusFound)
}
