package shared

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"strings"
)

// Where the token travels: the session value, the hidden form field and the
// header used by scripts.
const (
	CSRFSessionKey = "csrf_token"
	CSRFFormField  = "csrf_token"
	CSRFHeader     = "X-CSRF-Token"
)

const csrfNonceSize = 18

// CSRFManager issues synchronizer tokens. A token is a random nonce and its
// HMAC under the server secret; the session keeps the copy it is checked
// against.
type CSRFManager struct {
	secret []byte
}

// NewCSRFManager returns a CSRFManager signing with secret.
func NewCSRFManager(secret string) *CSRFManager {
	return &CSRFManager{secret: []byte(secret)}
}

// EnsureToken returns the token of sess, minting one on first use.
func (m *CSRFManager) EnsureToken(sess *Session) (string, error) {
	if sess == nil {
		return "", ErrCSRFTokenMissing
	}
	if token := sess.Get(CSRFSessionKey); token != "" {
		return token, nil
	}
	nonce := make([]byte, csrfNonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	token := base64.RawURLEncoding.EncodeToString(nonce) + "." + base64.RawURLEncoding.EncodeToString(m.sign(nonce))
	sess.Set(CSRFSessionKey, token)
	return token, nil
}

// VerifyToken accepts token when it matches the session copy and carries a
// valid signature.
func (m *CSRFManager) VerifyToken(sess *Session, token string) error {
	if sess == nil || token == "" {
		return ErrCSRFTokenMissing
	}
	expected := sess.Get(CSRFSessionKey)
	if expected == "" {
		return ErrCSRFTokenMissing
	}
	if !hmac.Equal([]byte(expected), []byte(token)) || !m.signed(token) {
		return ErrCSRFTokenMismatch
	}
	return nil
}

func (m *CSRFManager) sign(nonce []byte) []byte {
	mac := hmac.New(sha256.New, m.secret)
	_, _ = mac.Write(nonce)
	return mac.Sum(nil)
}

func (m *CSRFManager) signed(token string) bool {
	rawNonce, rawSig, ok := strings.Cut(token, ".")
	if !ok {
		return false
	}
	nonce, err := base64.RawURLEncoding.DecodeString(rawNonce)
	if err != nil {
		return false
	}
	sig, err := base64.RawURLEncoding.DecodeString(rawSig)
	if err != nil {
		return false
	}
	return hmac.Equal(sig, m.sign(nonce))
}
