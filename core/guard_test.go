package core

import (
	"testing"
	"time"
)

func newTestGuard(store *fakeUserStore, session *fakeSession, web *fakeTransport, singleDevice bool) *Guard {
	creds := newTestCredentials(store)
	return NewGuard(GuardConfig{
		AuthKey:             "user_id",
		LocationKey:         "return_to",
		SingleDeviceSession: singleDevice,
	}, store, creds, session, web)
}

func TestResolveEmptySession(t *testing.T) {
	guard := newTestGuard(newFakeUserStore(), newFakeSession("s1"), &fakeTransport{}, true)

	if got := guard.Resolve(); got != ResolvedNone {
		t.Fatalf("Resolve = %v, want ResolvedNone", got)
	}
	if guard.CurrentUser() != nil {
		t.Fatal("expected no current user")
	}
	if guard.IsLoggedIn() {
		t.Fatal("expected not logged in")
	}
}

func TestSetCurrentUserClaimsSession(t *testing.T) {
	store := newFakeUserStore()
	session := newFakeSession("s1")
	guard := newTestGuard(store, session, &fakeTransport{}, true)
	u := newSavedUser(t, newTestCredentials(store), "a@example.com", "longenough1")

	if err := guard.SetCurrentUser(u); err != nil {
		t.Fatalf("SetCurrentUser: %v", err)
	}

	if got, _ := session.Get("user_id"); got != u.ID {
		t.Fatalf("auth key = %q, want %q", got, u.ID)
	}
	stored := store.stored(u.ID)
	if stored.CurrentSessionID == nil || *stored.CurrentSessionID != session.ID() {
		t.Fatal("session not claimed as trusted device")
	}
	if !guard.IsLoggedIn() {
		t.Fatal("expected logged in")
	}
}

func TestSingleDevicePolicy(t *testing.T) {
	store := newFakeUserStore()
	creds := newTestCredentials(store)
	u := newSavedUser(t, creds, "a@example.com", "longenough1")

	// Log in from device S1.
	s1 := newFakeSession("s1")
	g1 := newTestGuard(store, s1, &fakeTransport{}, true)
	if err := g1.SetCurrentUser(u); err != nil {
		t.Fatalf("SetCurrentUser: %v", err)
	}

	// Same user id under a different session identifier.
	s2 := newFakeSession("s2")
	s2.Set("user_id", u.ID)
	g2 := newTestGuard(store, s2, &fakeTransport{}, true)

	if g2.IsLoggedIn() {
		t.Fatal("second device trusted while policy enabled")
	}
	if g2.CurrentUser() != nil {
		t.Fatal("device mismatch must resolve to none on every path")
	}

	// Same setup with the policy disabled.
	s3 := newFakeSession("s3")
	s3.Set("user_id", u.ID)
	g3 := newTestGuard(store, s3, &fakeTransport{}, false)
	if !g3.IsLoggedIn() {
		t.Fatal("expected logged in with policy disabled")
	}
}

func TestSecondLoginEvictsFirstDevice(t *testing.T) {
	store := newFakeUserStore()
	creds := newTestCredentials(store)
	u := newSavedUser(t, creds, "a@example.com", "longenough1")

	s1 := newFakeSession("s1")
	g1 := newTestGuard(store, s1, &fakeTransport{}, true)
	if err := g1.SetCurrentUser(u); err != nil {
		t.Fatalf("SetCurrentUser s1: %v", err)
	}

	s2 := newFakeSession("s2")
	g2 := newTestGuard(store, s2, &fakeTransport{}, true)
	u2, err := store.FindByID(u.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if err := g2.SetCurrentUser(u2); err != nil {
		t.Fatalf("SetCurrentUser s2: %v", err)
	}

	// S1 lost its claim; a fresh guard over S1 no longer trusts it.
	g1again := newTestGuard(store, s1, &fakeTransport{}, true)
	if g1again.IsLoggedIn() {
		t.Fatal("evicted device still trusted")
	}
	if !newTestGuard(store, s2, &fakeTransport{}, true).IsLoggedIn() {
		t.Fatal("most recent device not trusted")
	}
}

func TestIdleSessionRotation(t *testing.T) {
	store := newFakeUserStore()
	session := newFakeSession("s1")
	guard := newTestGuard(store, session, &fakeTransport{}, true)

	session.Set(createdAtKey, time.Now().Add(-61*time.Minute).Format(time.RFC3339))
	session.Set("return_to", "/reports/42")
	session.Set("leftover", "stale")
	oldID := session.ID()

	if err := guard.SetCurrentUser(nil); err != nil {
		t.Fatalf("SetCurrentUser: %v", err)
	}

	if session.ID() == oldID {
		t.Fatal("idle session kept its identifier")
	}
	if loc, _ := session.Get("return_to"); loc != "/reports/42" {
		t.Fatalf("redirect target lost across rotation: %q", loc)
	}
	if _, ok := session.Get("leftover"); ok {
		t.Fatal("stale key survived rotation")
	}
	if _, ok := session.Get(createdAtKey); !ok {
		t.Fatal("idle clock not re-stamped")
	}
}

func TestFreshSessionNotRotated(t *testing.T) {
	store := newFakeUserStore()
	session := newFakeSession("s1")
	guard := newTestGuard(store, session, &fakeTransport{}, true)

	session.Set(createdAtKey, time.Now().Add(-59*time.Minute).Format(time.RFC3339))
	oldID := session.ID()

	if err := guard.SetCurrentUser(nil); err != nil {
		t.Fatalf("SetCurrentUser: %v", err)
	}
	if session.ID() != oldID {
		t.Fatal("fresh session rotated")
	}
}

func TestRequireLogin(t *testing.T) {
	store := newFakeUserStore()
	web := &fakeTransport{}
	guard := newTestGuard(store, newFakeSession("s1"), web, true)

	if guard.RequireLogin() {
		t.Fatal("anonymous request passed the gate")
	}
	if len(web.denials) != 1 || web.denials[0] != AccessDeniedMessage {
		t.Fatalf("denials = %v", web.denials)
	}
}

func TestRequireLoginHonorsAuthorizedHook(t *testing.T) {
	store := newFakeUserStore()
	session := newFakeSession("s1")
	web := &fakeTransport{}
	guard := newTestGuard(store, session, web, true)
	u := newSavedUser(t, newTestCredentials(store), "a@example.com", "longenough1")
	if err := guard.SetCurrentUser(u); err != nil {
		t.Fatalf("SetCurrentUser: %v", err)
	}

	if !guard.RequireLogin() {
		t.Fatal("logged-in request denied")
	}

	guard.Authorized = func(*User) bool { return false }
	if guard.RequireLogin() {
		t.Fatal("unauthorized request passed the gate")
	}
	if len(web.denials) != 1 {
		t.Fatalf("denials = %v", web.denials)
	}
}

func TestStoreLocationDefaultsToRequestPath(t *testing.T) {
	session := newFakeSession("s1")
	web := &fakeTransport{path: "/reports/42"}
	guard := newTestGuard(newFakeUserStore(), session, web, true)

	guard.StoreLocation("")
	if loc, _ := session.Get("return_to"); loc != "/reports/42" {
		t.Fatalf("stored location = %q", loc)
	}

	guard.StoreLocation("/explicit")
	if loc, _ := session.Get("return_to"); loc != "/explicit" {
		t.Fatalf("stored location = %q", loc)
	}
}

func TestRedirectBackOrDefaultConsumesOnce(t *testing.T) {
	session := newFakeSession("s1")
	web := &fakeTransport{}
	guard := newTestGuard(newFakeUserStore(), session, web, true)

	session.Set("return_to", "/reports/42")
	guard.RedirectBackOrDefault("/home")
	guard.RedirectBackOrDefault("/home")

	want := []string{"/reports/42", "/home"}
	if len(web.redirects) != 2 || web.redirects[0] != want[0] || web.redirects[1] != want[1] {
		t.Fatalf("redirects = %v, want %v", web.redirects, want)
	}
	if _, ok := session.Get("return_to"); ok {
		t.Fatal("stored location not consumed")
	}
}

func TestLogoutClearsBinding(t *testing.T) {
	store := newFakeUserStore()
	session := newFakeSession("s1")
	guard := newTestGuard(store, session, &fakeTransport{}, true)
	u := newSavedUser(t, newTestCredentials(store), "a@example.com", "longenough1")
	if err := guard.SetCurrentUser(u); err != nil {
		t.Fatalf("SetCurrentUser: %v", err)
	}

	if err := guard.Logout(); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, ok := session.Get("user_id"); ok {
		t.Fatal("auth key survived logout")
	}
	if guard.IsLoggedIn() {
		t.Fatal("still logged in after logout")
	}
}
