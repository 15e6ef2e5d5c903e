package stripeapi

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signBody(t *testing.T, body []byte, secret, timestamp string) string {
	t.Helper()

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(body)
	return fmt.Sprintf("t=%s,v1=%s", timestamp, hex.EncodeToString(mac.Sum(nil)))
}

func TestVerifySignature_Valid(t *testing.T) {
	body := []byte(`{"type":"customer.subscription.created"}`)
	header := signBody(t, body, "whsec_test", "1700000000")

	require.NoError(t, VerifySignature(body, header, "whsec_test"))
}

func TestVerifySignature_MissingHeader(t *testing.T) {
	err := VerifySignature([]byte("{}"), "", "whsec_test")
	assert.ErrorIs(t, err, ErrMissingSignature)
}

func TestVerifySignature_MalformedHeader(t *testing.T) {
	cases := []string{
		"garbage",
		"t=,v1=abcdef",
		"t=notadigit,v1=abcdef",
	}
	for _, header := range cases {
		err := VerifySignature([]byte("{}"), header, "whsec_test")
		assert.ErrorIs(t, err, ErrMalformedSignature, "header %q", header)
	}
}

func TestVerifySignature_NoUsableSignature(t *testing.T) {
	cases := []string{
		"t=1700000000",
		"v1=zz-not-hex",
	}
	for _, header := range cases {
		err := VerifySignature([]byte("{}"), header, "whsec_test")
		assert.ErrorIs(t, err, ErrSignatureMismatch, "header %q", header)
	}
}

func TestVerifySignature_WrongSecret(t *testing.T) {
	body := []byte(`{"type":"customer.subscription.created"}`)
	header := signBody(t, body, "whsec_other", "1700000000")

	err := VerifySignature(body, header, "whsec_test")
	assert.ErrorIs(t, err, ErrSignatureMismatch)
}

func TestVerifySignature_TamperedBody(t *testing.T) {
	body := []byte(`{"type":"customer.subscription.created"}`)
	header := signBody(t, body, "whsec_test", "1700000000")

	tampered := append([]byte(nil), body...)
	tampered[0] ^= 0x01
	err := VerifySignature(tampered, header, "whsec_test")
	assert.ErrorIs(t, err, ErrSignatureMismatch)
}

func TestVerifySignature_TamperedTimestamp(t *testing.T) {
	body := []byte(`{"type":"customer.subscription.created"}`)

	// Signature computed for one timestamp, header stamped with another.
	signed := signBody(t, body, "whsec_test", "1700000001")
	forged := "t=1700000000," + signed[len("t=1700000001,"):]
	err := VerifySignature(body, forged, "whsec_test")
	assert.ErrorIs(t, err, ErrSignatureMismatch)
}

func TestVerifySignature_ValidPairBuriedInJunk(t *testing.T) {
	body := []byte(`{"type":"customer.subscription.created"}`)
	header := signBody(t, body, "whsec_test", "1700000000")

	// A correctly signed t/v1 pair prefixed by junk must not pass: the junk
	// swallows the timestamp key, so the signature no longer covers it.
	err := VerifySignature(body, "junk "+header, "whsec_test")
	assert.ErrorIs(t, err, ErrSignatureMismatch)
}

func TestVerifySignature_FlippedSignatureBit(t *testing.T) {
	body := []byte(`{"type":"customer.subscription.created"}`)
	header := signBody(t, body, "whsec_test", "1700000000")

	flipped := []byte(header)
	last := flipped[len(flipped)-1]
	if last == 'a' {
		flipped[len(flipped)-1] = 'b'
	} else {
		flipped[len(flipped)-1] = 'a'
	}
	err := VerifySignature(body, string(flipped), "whsec_test")
	assert.ErrorIs(t, err, ErrSignatureMismatch)
}
