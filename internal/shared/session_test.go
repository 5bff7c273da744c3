package shared

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) (*SessionManager, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewSessionManager(client, "invoicedesk_session", time.Hour, false), mr
}

func commitAndCookie(t *testing.T, sm *SessionManager, sess *Session) *http.Cookie {
	t.Helper()
	rr := httptest.NewRecorder()
	require.NoError(t, sm.Commit(context.Background(), rr, sess))
	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	return cookies[0]
}

func requestWith(cookie *http.Cookie) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	return req
}

func TestSessionRoundTripKeepsFlashUntilPopped(t *testing.T) {
	sm, _ := newTestManager(t)
	ctx := context.Background()

	sess, err := sm.Load(ctx, requestWith(nil))
	require.NoError(t, err)
	sess.SetUser("user-1")
	sess.AddFlash(FlashMessage{Kind: FlashSuccess, Message: "Invoice created"})
	cookie := commitAndCookie(t, sm, sess)

	loaded, err := sm.Load(ctx, requestWith(cookie))
	require.NoError(t, err)
	assert.Equal(t, "user-1", loaded.User())
	flash := loaded.PopFlash()
	require.NotNil(t, flash)
	assert.Equal(t, "Invoice created", flash.Message)
	commitAndCookie(t, sm, loaded)

	again, err := sm.Load(ctx, requestWith(cookie))
	require.NoError(t, err)
	assert.Nil(t, again.PopFlash())
}

func TestSessionRotateDropsOldRecord(t *testing.T) {
	sm, mr := newTestManager(t)
	ctx := context.Background()

	sess, err := sm.Load(ctx, requestWith(nil))
	require.NoError(t, err)
	cookie := commitAndCookie(t, sm, sess)
	oldID := sess.ID

	loaded, err := sm.Load(ctx, requestWith(cookie))
	require.NoError(t, err)
	loaded.Rotate()
	loaded.SetUser("user-2")
	newCookie := commitAndCookie(t, sm, loaded)

	assert.NotEqual(t, oldID, newCookie.Value)
	assert.False(t, mr.Exists("session:"+oldID))
	assert.True(t, mr.Exists("session:"+newCookie.Value))
}

func TestDestroyClearsCookieAndIndex(t *testing.T) {
	sm, mr := newTestManager(t)
	ctx := context.Background()

	sess, err := sm.Load(ctx, requestWith(nil))
	require.NoError(t, err)
	sess.SetUser("user-3")
	commitAndCookie(t, sm, sess)
	require.NoError(t, sm.Track(ctx, "user-3", sess.ID))

	ids, err := sm.SessionsForUser(ctx, "user-3")
	require.NoError(t, err)
	assert.Equal(t, []string{sess.ID}, ids)

	sm.Destroy(sess)
	cookie := commitAndCookie(t, sm, sess)
	assert.Equal(t, -1, cookie.MaxAge)
	assert.False(t, mr.Exists("session:"+sess.ID))

	ids, err = sm.SessionsForUser(ctx, "user-3")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestUnknownCookieStartsFreshSession(t *testing.T) {
	sm, _ := newTestManager(t)
	sess, err := sm.Load(context.Background(), requestWith(&http.Cookie{Name: sm.CookieName(), Value: "forged"}))
	require.NoError(t, err)
	assert.NotEqual(t, "forged", sess.ID)
	assert.Empty(t, sess.User())
}

func TestCSRFTokenLifecycle(t *testing.T) {
	m := NewCSRFManager("csrf-secret")
	sess := newSession()

	token, err := m.EnsureToken(sess)
	require.NoError(t, err)
	again, err := m.EnsureToken(sess)
	require.NoError(t, err)
	assert.Equal(t, token, again)

	require.NoError(t, m.VerifyToken(sess, token))
	assert.ErrorIs(t, m.VerifyToken(sess, "tampered"), ErrCSRFTokenMismatch)
	assert.ErrorIs(t, m.VerifyToken(sess, ""), ErrCSRFTokenMissing)
	assert.ErrorIs(t, m.VerifyToken(newSession(), token), ErrCSRFTokenMissing)
}

func TestCSRFTokenSignedWithSecret(t *testing.T) {
	sess := newSession()
	token, err := NewCSRFManager("other-secret").EnsureToken(sess)
	require.NoError(t, err)

	assert.ErrorIs(t, NewCSRFManager("csrf-secret").VerifyToken(sess, token), ErrCSRFTokenMismatch)
}
