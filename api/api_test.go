// Copyright 2017 Google Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"cloud.google.com/go/storage"
	"github.com/googlegenomics/seqfeatures/analytics"
	"github.com/googlegenomics/seqfeatures/convert"
	"github.com/googlegenomics/seqfeatures/formats"
	"google.golang.org/api/googleapi"
)

const (
	testDocumentSizeLimit = 32 * 1024 // Small limit for small test documents.
)

var testConverter = convert.NewFeatureListConverter(convert.NewStrandConverter())

func TestInvalidInputs(t *testing.T) {
	testCases := []struct{ name, method, url, body string }{
		{"missing sequence ID", "GET", "/features/", ""},
		{"invalid ID (no object)", "GET", "/features/sequences", ""},
		{"invalid ID (trailing slash, no object)", "GET", "/features/sequences/", ""},
		{"unknown stringency", "POST", "/features?stringency=loose", `{"accession": "a"}`},
		{"start without reference", "POST", "/features?start=10", `{"accession": "a"}`},
		{"malformed start", "POST", "/features?referenceName=a&start=x", `{"accession": "a"}`},
		{"malformed document", "POST", "/features", `{"accession": `},
		{"missing accession", "POST", "/features", `{"features": []}`},
		{"invalid location", "GET", "/features/sequences/invalid.json", ""},
		{"document too large", "POST", "/features", `{"accession": "` + strings.Repeat("a", testDocumentSizeLimit) + `"}`},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			expectError(t, "InvalidInput", http.StatusBadRequest,
				testRequest(t, convert.Strict, tc.method, tc.url, "", tc.body))
		})
	}
}

func TestInvalidRange(t *testing.T) {
	expectError(t, "InvalidRange", http.StatusBadRequest,
		testRequest(t, convert.Strict, "POST", "/features?referenceName=a&start=20&end=10", "", `{"accession": "a"}`))
}

func TestUnsupportedFormats(t *testing.T) {
	testCases := []struct{ name, method, url, contentType string }{
		{"plain text upload", "POST", "/features", "text/plain"},
		{"genbank object", "GET", "/features/sequences/ecoli.gb", ""},
		{"object without extension", "GET", "/features/sequences/ecoli", ""},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			expectError(t, "UnsupportedFormat", http.StatusBadRequest,
				testRequest(t, convert.Strict, tc.method, tc.url, tc.contentType, `{"accession": "a"}`))
		})
	}
}

func TestMissingObject(t *testing.T) {
	expectError(t, "NotFound", http.StatusNotFound,
		testRequest(t, convert.Strict, "GET", "/features/sequences/missing.json", "", ""))
}

func TestWhitelist(t *testing.T) {
	server := NewServer(NewFileClient("testdata"), testConverter, convert.Strict, testDocumentSizeLimit)
	server.Whitelist([]string{"allowed"})

	expectError(t, "PermissionDenied", http.StatusForbidden,
		serve(t, server, httptest.NewRequest("GET", "/features/sequences/ecoli.json", nil)))
}

func TestMethodNotAllowed(t *testing.T) {
	testCases := []struct{ method, url string }{
		{"GET", "/features"},
		{"POST", "/features/sequences/ecoli.json"},
	}
	for _, tc := range testCases {
		t.Run(tc.method+" "+tc.url, func(t *testing.T) {
			resp := testRequest(t, convert.Strict, tc.method, tc.url, "", "")
			if got, want := resp.StatusCode, http.StatusMethodNotAllowed; got != want {
				t.Errorf("Wrong status code: got %d, want %d", got, want)
			}
		})
	}
}

func TestConvert(t *testing.T) {
	upload, err := os.ReadFile("testdata/sequences/ecoli.yaml")
	if err != nil {
		t.Fatalf("Failed to read testdata: %v", err)
	}

	testCases := []struct {
		name, method, url, contentType, body string
	}{
		{"GCS JSON object", "GET", "/features/sequences/ecoli.json", "", ""},
		{"GCS YAML object", "GET", "/features/sequences/ecoli.yaml", "", ""},
		{"YAML upload", "POST", "/features", "application/x-yaml", string(upload)},
	}

	want := []*formats.Feature{
		{
			ReferenceName: "NC_000913.3",
			Source:        formats.String("RefSeq"),
			FeatureType:   formats.String("gene"),
			Start:         formats.Int64(189),
			End:           formats.Int64(255),
			Strand:        formats.StrandOf(formats.Forward),
			Name:          formats.String("thrL"),
		},
		{
			ReferenceName: "NC_000913.3",
			Source:        formats.String("RefSeq"),
			FeatureType:   formats.String("gene"),
			Start:         formats.Int64(336),
			End:           formats.Int64(2799),
			Strand:        formats.StrandOf(formats.Forward),
			Name:          formats.String("thrA"),
		},
		{
			ReferenceName: "NC_000913.3",
			FeatureType:   formats.String("repeat_region"),
			Start:         formats.Int64(4999),
			End:           formats.Int64(5100),
		},
		{
			ReferenceName: "NC_000913.3",
			FeatureType:   formats.String("source"),
			Name:          formats.String("Escherichia coli str. K-12 substr. MG1655"),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			resp := testRequest(t, convert.Strict, tc.method, tc.url, tc.contentType, tc.body)
			got := decodeFeatures(t, resp)
			if len(got.Warnings) != 0 {
				t.Errorf("Unexpected warnings: %q", got.Warnings)
			}
			if got.ID == "" {
				t.Error("Response has no ID")
			}
			expectFeatures(t, got.Features, want)
		})
	}
}

func TestConvert_DocumentSizeLimit(t *testing.T) {
	document, err := os.ReadFile("testdata/sequences/ecoli.yaml")
	if err != nil {
		t.Fatalf("Failed to read testdata: %v", err)
	}
	// A prefix ending here is itself a valid document holding one feature.
	boundary := strings.Index(string(document), "  - source: RefSeq\n    type: gene\n    description: thrA")
	if boundary <= 0 {
		t.Fatal("Feature boundary not found in testdata")
	}

	testCases := []struct {
		name  string
		limit int64
		code  int
	}{
		{"cut at feature boundary", int64(boundary), http.StatusBadRequest},
		{"one byte short", int64(len(document) - 1), http.StatusBadRequest},
		{"exact fit", int64(len(document)), http.StatusOK},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			server := NewServer(NewFileClient("testdata"), testConverter, convert.Strict, tc.limit)
			resp := serve(t, server, httptest.NewRequest("GET", "/features/sequences/ecoli.yaml", nil))
			if tc.code != http.StatusOK {
				expectError(t, "InvalidInput", tc.code, resp)
				return
			}
			if got, want := len(decodeFeatures(t, resp).Features), 4; got != want {
				t.Errorf("Wrong number of features: got %d, want %d", got, want)
			}
		})
	}
}

func TestConvert_Region(t *testing.T) {
	testCases := []struct {
		query string
		want  []string
	}{
		{"referenceName=NC_000913.3", []string{"thrL", "thrA", "", "Escherichia coli str. K-12 substr. MG1655"}},
		{"referenceName=NC_000913.3&start=200&end=400", []string{"thrL", "thrA"}},
		{"referenceName=NC_000913.3&start=2799", []string{""}},
		{"referenceName=chr1", nil},
	}

	for _, tc := range testCases {
		t.Run(tc.query, func(t *testing.T) {
			resp := testRequest(t, convert.Strict, "GET", "/features/sequences/ecoli.json?"+tc.query, "", "")
			got := decodeFeatures(t, resp)
			if len(got.Features) != len(tc.want) {
				t.Fatalf("Wrong number of features: got %d, want %d", len(got.Features), len(tc.want))
			}
			for i, f := range got.Features {
				var name string
				if f.Name != nil {
					name = *f.Name
				}
				if name != tc.want[i] {
					t.Errorf("Feature %d: got name %q, want %q", i, name, tc.want[i])
				}
			}
		})
	}
}

func TestConvert_NullDocument(t *testing.T) {
	testCases := []struct {
		name         string
		defaultLevel convert.Stringency
		query        string
		wantWarnings int
	}{
		{"lenient default", convert.Lenient, "", 1},
		{"silent default", convert.Silent, "", 0},
		{"lenient override", convert.Strict, "?stringency=lenient", 1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			resp := testRequest(t, tc.defaultLevel, "GET", "/features/sequences/empty.json"+tc.query, "", "")
			got := decodeFeatures(t, resp)
			if got.Features == nil || len(got.Features) != 0 {
				t.Errorf("Wrong features: got %v, want empty list", got.Features)
			}
			if len(got.Warnings) != tc.wantWarnings {
				t.Errorf("Wrong number of warnings: got %q, want %d", got.Warnings, tc.wantWarnings)
			}
		})
	}
}

func TestConvert_NullDocumentStrict(t *testing.T) {
	expectError(t, "ConversionFailed", http.StatusUnprocessableEntity,
		testRequest(t, convert.Lenient, "POST", "/features?stringency=STRICT", "application/json", "null"))
}

func TestConvert_Tracking(t *testing.T) {
	server := NewServer(NewFileClient("testdata"), testConverter, convert.Strict, testDocumentSizeLimit)
	mux := http.NewServeMux()
	server.Export(mux)

	var hits []analytics.Hit
	handler := analytics.TrackingHandler(mux, func(h []analytics.Hit) { hits = h })

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/features/sequences/ecoli.json", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Wrong status code: got %d, want %d", w.Code, http.StatusOK)
	}

	want := []analytics.Hit{
		analytics.ConversionReceived("STRICT"),
		analytics.FeaturesConverted(4),
	}
	if len(hits) != len(want) {
		t.Fatalf("Wrong number of hits: got %v, want %v", hits, want)
	}
	for i := range want {
		if hits[i]["ea"] != want[i]["ea"] || hits[i]["ev"] != want[i]["ev"] {
			t.Errorf("Hit %d: got %v, want %v", i, hits[i], want[i])
		}
	}
}

func TestForwardOrigin(t *testing.T) {
	req := httptest.NewRequest("GET", "/features/sequences/ecoli.json", nil)
	req.Header.Set("Origin", "https://example.com")
	server := NewServer(NewFileClient("testdata"), testConverter, convert.Strict, testDocumentSizeLimit)

	resp := serve(t, server, req)
	if got, want := resp.Header.Get("Access-Control-Allow-Origin"), "https://example.com"; got != want {
		t.Errorf("Wrong allowed origin: got %q, want %q", got, want)
	}
}

func TestNewStorageError(t *testing.T) {
	testCases := []struct {
		name string
		err  error
		want string
	}{
		{"missing token", errMissingOrInvalidToken, "PermissionDenied"},
		{"unauthorized", &googleapi.Error{Code: http.StatusUnauthorized}, "InvalidAuthentication"},
		{"forbidden", &googleapi.Error{Code: http.StatusForbidden}, "PermissionDenied"},
		{"missing file", os.ErrNotExist, "NotFound"},
		{"wrapped missing file", fmt.Errorf("opening: %w", fs.ErrNotExist), "NotFound"},
		{"missing object", storage.ErrObjectNotExist, "NotFound"},
		{"missing bucket", storage.ErrBucketNotExist, "NotFound"},
		{"not found status", &googleapi.Error{Code: http.StatusNotFound}, "NotFound"},
		{"wrapped forbidden", fmt.Errorf("reading: %w", &googleapi.Error{Code: http.StatusForbidden}), "PermissionDenied"},
		{"other", errors.New("boom"), ""},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var name string
			if err, ok := newStorageError("testing", tc.err).(*apiError); ok {
				name = err.name
			}
			if name != tc.want {
				t.Errorf("Wrong error name: got %q, want %q", name, tc.want)
			}
		})
	}
}

func TestSharedClient(t *testing.T) {
	calls := 0
	failing := &sharedClient{create: func(context.Context) (*storage.Client, error) {
		calls++
		return nil, errors.New("no credentials")
	}}
	for i := 0; i < 3; i++ {
		if _, err := failing.get(); err == nil {
			t.Fatal("get() succeeded, want error")
		}
	}
	if got, want := calls, 1; got != want {
		t.Errorf("Wrong number of client creations: got %d, want %d", got, want)
	}

	client := &storage.Client{}
	working := &sharedClient{create: func(context.Context) (*storage.Client, error) {
		return client, nil
	}}
	for i := 0; i < 2; i++ {
		got, err := working.get()
		if err != nil {
			t.Fatalf("get() failed: %v", err)
		}
		if gcs, ok := got.(GCSClient); !ok || gcs.Client != client {
			t.Errorf("get() returned %#v, want the shared client", got)
		}
	}
}

func TestNewClientFromBearerToken_MissingToken(t *testing.T) {
	for _, header := range []string{"", "Bearer", "Basic abc", "Bearer a b"} {
		req := httptest.NewRequest("GET", "/features/a/b.json", nil)
		req.Header.Set("Authorization", header)
		if _, err := NewClientFromBearerToken(req); err != errMissingOrInvalidToken {
			t.Errorf("Authorization %q: got error %v, want %v", header, err, errMissingOrInvalidToken)
		}
	}
}

func TestFileClient_RejectsParentDirectories(t *testing.T) {
	handle := FileClient{"testdata"}.NewObjectHandle("sequences", "../../api_test.go")
	if r, err := handle.NewRangeReader(context.Background(), 0, -1); err == nil {
		r.Close()
		t.Error("NewRangeReader() escaped the root directory")
	}
}

type featuresBody struct {
	ID       string             `json:"id"`
	Features []*formats.Feature `json:"features"`
	Warnings []string           `json:"warnings"`
}

func decodeFeatures(t *testing.T, resp *http.Response) featuresBody {
	t.Helper()
	if got, want := resp.StatusCode, http.StatusOK; got != want {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("Wrong status code: got %d, want %d (%s)", got, want, body)
	}
	var body featuresBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	return body
}

func expectFeatures(t *testing.T, got, want []*formats.Feature) {
	t.Helper()
	gotJSON, err := json.Marshal(got)
	if err != nil {
		t.Fatalf("Failed to encode features: %v", err)
	}
	wantJSON, err := json.Marshal(want)
	if err != nil {
		t.Fatalf("Failed to encode features: %v", err)
	}
	if string(gotJSON) != string(wantJSON) {
		t.Errorf("Wrong features:\ngot  %s\nwant %s", gotJSON, wantJSON)
	}
}

func expectError(t *testing.T, name string, code int, resp *http.Response) {
	t.Helper()
	if got, want := resp.StatusCode, code; got != want {
		t.Errorf("Wrong status code: got %d, want %d", got, want)
	}

	var v struct {
		Error, Message string
	}
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("Failed to decode JSON: %v", err)
	}
	if got, want := v.Error, name; got != want {
		t.Errorf("Wrong error name: got %q, want %q (%s)", got, want, v.Message)
	}
}

func testRequest(t *testing.T, stringency convert.Stringency, method, url, contentType, body string) *http.Response {
	t.Helper()
	server := NewServer(NewFileClient("testdata"), testConverter, stringency, testDocumentSizeLimit)

	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, url, r)
	if contentType != "" {
		req.Header.Set("Content-type", contentType)
	}
	return serve(t, server, req)
}

func serve(t *testing.T, server *Server, req *http.Request) *http.Response {
	t.Helper()
	mux := http.NewServeMux()
	server.Export(mux)

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w.Result()
}
