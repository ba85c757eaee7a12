package server

import (
	"net/http"
	"testing"
	"time"

	"github.com/matzehuels/choirstage/pkg/session"
)

func (f *fixture) model() session.LoadResult {
	f.t.Helper()
	_, body := f.do(http.MethodGet, f.session(), nil)
	return decodeAs[session.LoadResult](f.t, body)
}

func TestDraftDebounced(t *testing.T) {
	f := newFixtureWith(t, Options{AutosaveDelay: 20 * time.Millisecond})

	m := f.model().Session.Model
	for _, title := range []string{"One", "Two", "Three"} {
		m.Title = title
		resp, body := f.do(http.MethodPut, f.session()+"/draft", m)
		if resp.StatusCode != http.StatusAccepted {
			t.Fatalf("PUT draft = %d %s", resp.StatusCode, body)
		}
		if !decodeAs[draftResponse](t, body).Pending {
			t.Error("draft should be pending after PUT")
		}
	}

	deadline := time.Now().Add(2 * time.Second)
	for f.model().Session.Model.Title != "Three" {
		if time.Now().After(deadline) {
			t.Fatalf("draft not saved, title = %q", f.model().Session.Model.Title)
		}
		time.Sleep(10 * time.Millisecond)
	}

	_, body := f.do(http.MethodGet, f.session()+"/draft", nil)
	if decodeAs[draftResponse](t, body).Pending {
		t.Error("draft should not be pending after save")
	}
}

func TestDraftFlush(t *testing.T) {
	f := newFixtureWith(t, Options{AutosaveDelay: time.Hour})

	m := f.model().Session.Model
	m.Title = "Flushed"
	f.do(http.MethodPut, f.session()+"/draft", m)

	if got := f.model().Session.Model.Title; got != "Concert" {
		t.Errorf("title before flush = %q, want Concert", got)
	}
	resp, body := f.do(http.MethodPost, f.session()+"/draft/flush", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("flush = %d %s", resp.StatusCode, body)
	}
	if got := decodeAs[session.LoadResult](t, body).Session.Model.Title; got != "Flushed" {
		t.Errorf("title after flush = %q, want Flushed", got)
	}
}

func TestDraftRejects(t *testing.T) {
	f := newFixture(t)

	m := f.model().Session.Model
	m.Settings.NumberOfRows = 0
	if resp, body := f.do(http.MethodPut, f.session()+"/draft", m); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("invalid draft = %d %s, want 400", resp.StatusCode, body)
	}

	m = f.model().Session.Model
	if resp, _ := f.do(http.MethodPut, "/api/sessions/ZZZZZZZZ/draft", m); resp.StatusCode != http.StatusNotFound {
		t.Errorf("draft for unknown session = %d, want 404", resp.StatusCode)
	}

	resp, body := f.do(http.MethodGet, f.session()+"/draft", nil)
	if resp.StatusCode != http.StatusOK || decodeAs[draftResponse](t, body).Pending {
		t.Errorf("GET draft without drafts = %d %s", resp.StatusCode, body)
	}
}
