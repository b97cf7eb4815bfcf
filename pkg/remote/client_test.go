package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/odvcencio/sprout/pkg/object"
)

func TestParseEndpoint(t *testing.T) {
	tests := []struct {
		name       string
		in         string
		wantBase   string
		wantOwner  string
		wantRepo   string
		shouldFail bool
	}{
		{
			name:      "canonical sprout path",
			in:        "https://example.com/sprout/alice/proj",
			wantBase:  "https://example.com/sprout/alice/proj",
			wantOwner: "alice",
			wantRepo:  "proj",
		},
		{
			name:      "plain owner repo path",
			in:        "https://example.com/alice/proj",
			wantBase:  "https://example.com/sprout/alice/proj",
			wantOwner: "alice",
			wantRepo:  "proj",
		},
		{
			name:      "api prefix with sprout path",
			in:        "https://example.com/api/v1/sprout/alice/proj",
			wantBase:  "https://example.com/api/v1/sprout/alice/proj",
			wantOwner: "alice",
			wantRepo:  "proj",
		},
		{
			name:       "missing scheme",
			in:         "alice/proj",
			shouldFail: true,
		},
		{
			name:       "missing repo",
			in:         "https://example.com/alice",
			shouldFail: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ep, err := ParseEndpoint(tc.in)
			if tc.shouldFail {
				if err == nil {
					t.Fatalf("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseEndpoint: %v", err)
			}
			if ep.BaseURL != tc.wantBase {
				t.Fatalf("BaseURL = %q, want %q", ep.BaseURL, tc.wantBase)
			}
			if ep.Owner != tc.wantOwner {
				t.Fatalf("Owner = %q, want %q", ep.Owner, tc.wantOwner)
			}
			if ep.Repo != tc.wantRepo {
				t.Fatalf("Repo = %q, want %q", ep.Repo, tc.wantRepo)
			}
		})
	}
}

func TestListRefsSendsAuthAndProtocolHeaders(t *testing.T) {
	blobHash := object.HashObject(object.TypeBlob, []byte("x"))

	var gotAuth, gotProto, gotCaps string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotProto = r.Header.Get(headerProtocol)
		gotCaps = r.Header.Get(headerCapabilities)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"heads/main": string(blobHash),
		})
	}))
	defer ts.Close()

	client, err := NewClientWithOptions(ts.URL+"/sprout/alice/proj", ClientOptions{
		Credentials: StaticCredentials{Cred: Credential{Token: "tok123"}},
	})
	if err != nil {
		t.Fatal(err)
	}

	refs, err := client.ListRefs(context.Background())
	if err != nil {
		t.Fatalf("ListRefs: %v", err)
	}
	if refs["heads/main"] != blobHash {
		t.Fatalf("refs = %v", refs)
	}
	if gotAuth != "Bearer tok123" {
		t.Errorf("Authorization = %q, want bearer token", gotAuth)
	}
	if gotProto != ProtocolVersion {
		t.Errorf("protocol header = %q, want %q", gotProto, ProtocolVersion)
	}
	if !strings.Contains(gotCaps, "zstd") {
		t.Errorf("capabilities header = %q, want zstd", gotCaps)
	}
}

func TestListRefsRejectsInvalidHash(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"heads/main": "nothex"})
	}))
	defer ts.Close()

	client, err := NewClientWithOptions(ts.URL+"/sprout/alice/proj", ClientOptions{
		Credentials: StaticCredentials{},
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := client.ListRefs(context.Background()); err == nil {
		t.Fatal("expected error for invalid ref hash")
	}
}

func TestDoWithLimitSurfacesRemoteError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"code":  "ref_conflict",
			"error": "ref moved",
		})
	}))
	defer ts.Close()

	client, err := NewClientWithOptions(ts.URL+"/sprout/alice/proj", ClientOptions{
		Credentials: StaticCredentials{},
	})
	if err != nil {
		t.Fatal(err)
	}
	_, err = client.ListRefs(context.Background())
	re, ok := err.(*RemoteError)
	if !ok {
		t.Fatalf("error type = %T (%v), want *RemoteError", err, err)
	}
	if re.Code != "ref_conflict" {
		t.Errorf("Code = %q, want %q", re.Code, "ref_conflict")
	}
}

func TestBatchObjectsDecompressesZstdResponse(t *testing.T) {
	blob := &object.Blob{Data: []byte("compressed payload body\n")}
	blobData := object.MarshalBlob(blob)
	blobHash := object.HashObject(object.TypeBlob, blobData)

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := json.Marshal(map[string]any{
			"objects": []map[string]any{
				{"hash": string(blobHash), "type": string(object.TypeBlob), "data": blobData},
			},
			"truncated": false,
		})
		z, err := compressZstd(raw)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Encoding", "zstd")
		_, _ = w.Write(z)
	}))
	defer ts.Close()

	client, err := NewClientWithOptions(ts.URL+"/sprout/alice/proj", ClientOptions{
		Credentials: StaticCredentials{},
	})
	if err != nil {
		t.Fatal(err)
	}

	records, truncated, err := client.BatchObjects(context.Background(), []object.Hash{blobHash}, nil, 0)
	if err != nil {
		t.Fatalf("BatchObjects: %v", err)
	}
	if truncated {
		t.Error("truncated = true, want false")
	}
	if len(records) != 1 || records[0].Hash != blobHash {
		t.Fatalf("records = %v", records)
	}
	if string(records[0].Data) != string(blobData) {
		t.Errorf("data mismatch after decompression")
	}
}

func TestPushObjectsRejectsHashMismatch(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte("{}"))
	}))
	defer ts.Close()

	client, err := NewClientWithOptions(ts.URL+"/sprout/alice/proj", ClientOptions{
		Credentials: StaticCredentials{},
	})
	if err != nil {
		t.Fatal(err)
	}

	err = client.PushObjects(context.Background(), []ObjectRecord{{
		Hash: object.Hash(strings.Repeat("a", 64)),
		Type: object.TypeBlob,
		Data: object.MarshalBlob(&object.Blob{Data: []byte("x")}),
	}})
	if err == nil || !strings.Contains(err.Error(), "hash mismatch") {
		t.Fatalf("err = %v, want hash mismatch", err)
	}
}
