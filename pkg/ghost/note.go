package ghost

import "encoding/json"

// StripeLinkage is the cross-reference from a member record to its Stripe
// customer and subscription, embedded in the member's note blob.
type StripeLinkage struct {
	Customer        string `json:"customer"`
	Subscription    string `json:"subscription"`
	PendingDeletion bool   `json:"pendingDeletion"`
	Starts          string `json:"starts"`
	Ends            string `json:"ends"`
}

// Note is the structured form of the member note blob.
type Note struct {
	Stripe StripeLinkage `json:"stripe"`
}

// ParseNote decodes a member note blob into its structured form. The blob is
// owned by this service, but members can be edited by hand, so parsing
// validates rather than trusting the content.
func ParseNote(raw string) (*Note, error) {
	if raw == "" {
		return nil, &LinkageError{Reason: "note is empty"}
	}
	var note Note
	if err := json.Unmarshal([]byte(raw), &note); err != nil {
		return nil, &LinkageError{Reason: "note is not valid JSON", Err: err}
	}
	if note.Stripe.Customer == "" {
		return nil, &LinkageError{Reason: "note has no stripe customer id"}
	}
	return &note, nil
}

// Encode serializes the note the way the Ghost record stores it, with
// two-space indentation to stay byte-compatible with existing records.
func (n *Note) Encode() (string, error) {
	data, err := json.MarshalIndent(n, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
