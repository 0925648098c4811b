package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/modelboard/api/internal/model"
)

func TestMyMemory_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/get" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("q") != "Hello" {
			t.Errorf("q = %q, want Hello", q.Get("q"))
		}
		if q.Get("langpair") != "en|es" {
			t.Errorf("langpair = %q, want en|es", q.Get("langpair"))
		}
		if q.Get("de") != "ops@example.com" {
			t.Errorf("de = %q, want ops@example.com", q.Get("de"))
		}
		w.Write([]byte(`{"responseData":{"translatedText":"Hola","match":1},"quotaFinished":false,"responseStatus":200}`))
	}))
	defer srv.Close()

	c := NewMyMemoryClient(srv.URL, "ops@example.com", time.Second)
	text, err := c.Translate(context.Background(), "Hello", "en", "es")
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	if text != "Hola" {
		t.Errorf("text = %q, want Hola", text)
	}
}

func TestMyMemory_AutoDetectSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("langpair"); got != "Autodetect|fr" {
			t.Errorf("langpair = %q, want Autodetect|fr", got)
		}
		w.Write([]byte(`{"responseData":{"translatedText":"Bonjour"},"responseStatus":200}`))
	}))
	defer srv.Close()

	c := NewMyMemoryClient(srv.URL, "", time.Second)
	if _, err := c.Translate(context.Background(), "Hello", AutoDetect, "fr"); err != nil {
		t.Fatalf("translate: %v", err)
	}
}

func TestMyMemory_QuotaMarkerIsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"responseData":{"translatedText":"MYMEMORY WARNING: YOU USED ALL AVAILABLE FREE TRANSLATIONS FOR TODAY."},"responseStatus":200}`))
	}))
	defer srv.Close()

	c := NewMyMemoryClient(srv.URL, "", time.Second)
	text, err := c.Translate(context.Background(), "Hello", "en", "es")
	if !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("error = %v, want ErrQuotaExceeded", err)
	}
	if text != "" {
		t.Errorf("text = %q, want empty", text)
	}
	if ClassOf(err) != model.ErrorClassUnavailable {
		t.Errorf("class = %s, want unavailable", ClassOf(err))
	}
}

func TestMyMemory_StringStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"responseData":{"translatedText":"'XX' IS AN INVALID TARGET LANGUAGE"},"responseDetails":"'XX' IS AN INVALID TARGET LANGUAGE","responseStatus":"403"}`))
	}))
	defer srv.Close()

	c := NewMyMemoryClient(srv.URL, "", time.Second)
	_, err := c.Translate(context.Background(), "Hello", "en", "xx")

	var pe *ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("error = %v, want *ProviderError", err)
	}
	if pe.StatusCode != http.StatusForbidden {
		t.Errorf("status = %d, want 403", pe.StatusCode)
	}
	if pe.Class != model.ErrorClassContent {
		t.Errorf("class = %s, want content", pe.Class)
	}
}

func TestClassOf_PlainErrorIsUnavailable(t *testing.T) {
	if got := ClassOf(errors.New("boom")); got != model.ErrorClassUnavailable {
		t.Errorf("ClassOf = %s, want unavailable", got)
	}
}
