// internal/twilio/client_test.go
package twilio

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSendMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/2010-04-01/Accounts/AC123/Messages.json" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != "AC123" || pass != "token" {
			t.Errorf("unexpected auth %q/%q", user, pass)
		}
		r.ParseForm()
		if r.PostFormValue("From") != "+15559990000" {
			t.Errorf("unexpected From %q", r.PostFormValue("From"))
		}
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"sid":"SM42","status":"queued"}`)
	}))
	defer srv.Close()

	c := New("AC123", "token", "+15559990000")
	c.SetBaseURL(srv.URL)

	sid, err := c.SendMessage(context.Background(), "+15550001111", "hello")
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if sid != "SM42" {
		t.Errorf("unexpected sid %q", sid)
	}
}

func TestSendMessageAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"message":"invalid 'To' number"}`)
	}))
	defer srv.Close()

	c := New("AC123", "token", "+15559990000")
	c.SetBaseURL(srv.URL)

	if _, err := c.SendMessage(context.Background(), "bogus", "hello"); err == nil {
		t.Fatal("expected API error")
	}
}

func TestSendMessageUnconfigured(t *testing.T) {
	c := New("", "", "")
	if c.Configured() {
		t.Fatal("empty client reports configured")
	}
	if _, err := c.SendMessage(context.Background(), "+15550001111", "hi"); err == nil {
		t.Fatal("expected error from unconfigured client")
	}
}

func TestSendMessageValidatesInput(t *testing.T) {
	c := New("AC123", "token", "+15559990000")
	if _, err := c.SendMessage(context.Background(), "", "hi"); err == nil {
		t.Fatal("expected error for empty recipient")
	}
	if _, err := c.SendMessage(context.Background(), "+15550001111", ""); err == nil {
		t.Fatal("expected error for empty body")
	}
}
