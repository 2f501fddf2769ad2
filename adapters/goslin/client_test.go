package goslin

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestClient_ParseNames(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST, got %s", r.Method)
		}

		var req struct {
			LipidNames []string `json:"lipidNames"`
			Grammar    string   `json:"grammar"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("Failed to decode request: %v", err)
		}
		if req.Grammar != "GOSLIN" {
			t.Errorf("Expected grammar GOSLIN, got %s", req.Grammar)
		}
		if len(req.LipidNames) != 2 {
			t.Errorf("Expected 2 names, got %d", len(req.LipidNames))
		}

		// Only the first name is parsable; the second is omitted.
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"originalName":"Cer d18:1/24:0","normalizedName":"Cer 18:1;O2/24:0","lipidClass":"Cer","totalC":42,"totalDB":1}]`))
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	results, err := client.ParseNames(context.Background(), []string{"Cer d18:1/24:0", "bogus"}, "GOSLIN")
	if err != nil {
		t.Fatalf("ParseNames failed: %v", err)
	}

	if len(results) != 1 {
		t.Fatalf("Expected 1 annotation, got %d", len(results))
	}
	if results[0].OriginalName != "Cer d18:1/24:0" {
		t.Errorf("Unexpected original name: %s", results[0].OriginalName)
	}
	if results[0].TotalC != 42 || results[0].TotalDB != 1 {
		t.Errorf("Unexpected composition: C=%d DB=%d", results[0].TotalC, results[0].TotalDB)
	}
}

func TestClient_ParseNames_EmptySet(t *testing.T) {
	client := NewClient("http://unused", time.Second)
	results, err := client.ParseNames(context.Background(), nil, "GOSLIN")
	if err != nil {
		t.Fatalf("Expected no error for empty set, got %v", err)
	}
	if results != nil {
		t.Errorf("Expected nil results for empty set")
	}
}

func TestClient_ParseNames_ServiceError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal error", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)
	if _, err := client.ParseNames(context.Background(), []string{"Cer d18:1/24:0"}, "GOSLIN"); err == nil {
		t.Fatal("Expected error for 500 response")
	}
}

func TestClient_ParseNames_MalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"not":"an array"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)
	if _, err := client.ParseNames(context.Background(), []string{"Cer d18:1/24:0"}, "GOSLIN"); err == nil {
		t.Fatal("Expected error for malformed response")
	}
}

func TestClient_ParseNames_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client := NewClient(server.URL, 20*time.Millisecond)
	if _, err := client.ParseNames(context.Background(), []string{"Cer d18:1/24:0"}, "GOSLIN"); err == nil {
		t.Fatal("Expected timeout error")
	}
}
