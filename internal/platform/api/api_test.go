package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNotFound_CarriesDetails(t *testing.T) {
	rr := httptest.NewRecorder()
	NotFound(rr, "COMMENT_NOT_FOUND", "comment not found", "rid-1", map[string]any{"id": 12})

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Fatalf("unexpected content type %q", ct)
	}
	var body ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error.Code != "COMMENT_NOT_FOUND" || body.Error.RequestID != "rid-1" {
		t.Fatalf("unexpected envelope: %+v", body.Error)
	}
	if body.Error.Details["id"] != float64(12) {
		t.Fatalf("expected id detail, got %v", body.Error.Details)
	}
}

func TestInternal_GenericMessage(t *testing.T) {
	rr := httptest.NewRecorder()
	Internal(rr, "")
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
	var body ErrorResponse
	_ = json.Unmarshal(rr.Body.Bytes(), &body)
	if body.Error.Code != "INTERNAL" {
		t.Fatalf("unexpected code %q", body.Error.Code)
	}
}
