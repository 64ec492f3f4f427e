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

// Package api implements an HTTP API that converts annotated sequence
// documents into genomic feature records.
//
// Documents are either posted to /features or read from Google Cloud Storage
// through /features/<bucket>/<object>.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/googlegenomics/seqfeatures/analytics"
	"github.com/googlegenomics/seqfeatures/convert"
	"github.com/googlegenomics/seqfeatures/formats"
	"github.com/googlegenomics/seqfeatures/genomics"
	"github.com/googlegenomics/seqfeatures/sequence"
)

const (
	featuresPath = "/features"
)

var (
	errInvalidOrUnspecifiedID = errors.New("invalid or unspecified ID")
	errMissingOrInvalidToken  = errors.New("missing or invalid token")
)

// NewStorageClientFunc is the type of function that constructs the appropriate
// storage.Client to satisfy the incoming request.
type NewStorageClientFunc func(*http.Request) (Client, error)

// FeatureListConverter converts one sequence into its feature records.
type FeatureListConverter = convert.Converter[*sequence.Sequence, []*formats.Feature]

// Server provides the feature conversion API.  Must be created with
// NewServer.
type Server struct {
	newStorageClient NewStorageClientFunc
	converter        FeatureListConverter
	stringency       convert.Stringency
	maxDocumentSize  int64
	whitelist        map[string]bool
}

// NewServer returns a new Server that converts documents of at most
// maxDocumentSize bytes with converter.  Requests that do not name a
// stringency are converted with stringency.  The server calls
// newStorageClient on each request for a GCS object to determine which
// storage client to use.
func NewServer(newStorageClient NewStorageClientFunc, converter FeatureListConverter, stringency convert.Stringency, maxDocumentSize int64) *Server {
	return &Server{newStorageClient, converter, stringency, maxDocumentSize, make(map[string]bool)}
}

// Whitelist adds buckets to the set of buckets which the server is allowed to
// access. If Whitelist is never called for a given Server then reads from any
// bucket are allowed.
func (server *Server) Whitelist(buckets []string) {
	for _, bucket := range buckets {
		server.whitelist[bucket] = true
	}
}

// Export registers the API endpoints with mux.
func (server *Server) Export(mux *http.ServeMux) {
	mux.Handle(featuresPath, forwardOrigin(server.serveUpload))
	mux.Handle(featuresPath+"/", forwardOrigin(server.serveObject))
}

// conversionRequest holds the options shared by every conversion endpoint.
type conversionRequest struct {
	stringency convert.Stringency
	region     genomics.Region
}

func (server *Server) parseRequest(query url.Values) (*conversionRequest, error) {
	request := &conversionRequest{stringency: server.stringency}
	if name := query.Get("stringency"); name != "" {
		stringency, err := convert.ParseStringency(name)
		if err != nil {
			return nil, newInvalidInputError("parsing stringency", err)
		}
		request.stringency = stringency
	}

	region, err := genomics.ParseRegion(query)
	if err != nil {
		return nil, newInvalidInputError("parsing region", err)
	}
	if err := region.Valid(); err != nil {
		return nil, newInvalidRangeError(err)
	}
	request.region = region
	return request, nil
}

func (server *Server) serveUpload(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeHTTPError(w, http.StatusMethodNotAllowed, fmt.Errorf("method %s not allowed", req.Method))
		return
	}

	request, err := server.parseRequest(req.URL.Query())
	if err != nil {
		writeError(w, err)
		return
	}

	format, err := sequence.FormatFromContentType(req.Header.Get("Content-type"))
	if err != nil {
		writeError(w, newUnsupportedFormatError(err))
		return
	}

	seq, err := sequence.Decode(http.MaxBytesReader(w, req.Body, server.maxDocumentSize), format)
	if err != nil {
		writeError(w, newInvalidInputError("decoding sequence", err))
		return
	}

	server.respond(req.Context(), w, request, seq)
}

func (server *Server) serveObject(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeHTTPError(w, http.StatusMethodNotAllowed, fmt.Errorf("method %s not allowed", req.Method))
		return
	}
	ctx := req.Context()

	bucket, object, err := parseID(req.URL.Path[len(featuresPath)+1:])
	if err != nil {
		writeError(w, newInvalidInputError("parsing sequence ID", err))
		return
	}

	if err := server.checkWhitelist(bucket); err != nil {
		writeError(w, newPermissionDeniedError("checking whitelist", err))
		return
	}

	request, err := server.parseRequest(req.URL.Query())
	if err != nil {
		writeError(w, err)
		return
	}

	format, err := sequence.FormatFromName(object)
	if err != nil {
		writeError(w, newUnsupportedFormatError(err))
		return
	}

	gcs, err := server.newStorageClient(req)
	if err != nil {
		writeError(w, newStorageError("creating client", err))
		return
	}

	// One byte past the limit tells an oversized object from one that fits.
	data, err := gcs.NewObjectHandle(bucket, object).NewRangeReader(ctx, 0, server.maxDocumentSize+1)
	if err != nil {
		writeError(w, newStorageError("opening data", err))
		return
	}
	defer data.Close()

	document, err := io.ReadAll(data)
	if err != nil {
		writeError(w, newStorageError("reading data", err))
		return
	}
	if int64(len(document)) > server.maxDocumentSize {
		writeError(w, newInvalidInputError("reading data", fmt.Errorf("document exceeds %d bytes", server.maxDocumentSize)))
		return
	}

	seq, err := sequence.Decode(bytes.NewReader(document), format)
	if err != nil {
		writeError(w, newInvalidInputError("decoding sequence", err))
		return
	}

	server.respond(ctx, w, request, seq)
}

type featuresResponse struct {
	ID       string             `json:"id"`
	Features []*formats.Feature `json:"features"`
	Warnings []string           `json:"warnings,omitempty"`
}

// respond converts seq and writes the response.  A nil seq is handed to the
// converter so that the request stringency decides the outcome.
func (server *Server) respond(ctx context.Context, w http.ResponseWriter, request *conversionRequest, seq *sequence.Sequence) {
	track := analytics.TrackerFromContext(ctx)
	track(analytics.ConversionReceived(request.stringency.String()))

	reporter := newRequestReporter()
	features, err := server.converter.Convert(seq, request.stringency, reporter)
	if err != nil {
		track(analytics.ConversionFailed(request.stringency.String()))
		log.Printf("[%s] Conversion failed: %v", reporter.id, err)
		writeError(w, newConversionFailedError(err))
		return
	}

	features = request.region.Filter(features)
	if features == nil {
		features = []*formats.Feature{}
	}

	writeJSON(w, http.StatusOK, featuresResponse{
		ID:       reporter.id,
		Features: features,
		Warnings: reporter.warnings,
	})
	track(analytics.FeaturesConverted(len(features)))
}

// requestReporter logs warnings tagged with a request ID and keeps them for
// the response.
type requestReporter struct {
	id       string
	warnings []string
}

func newRequestReporter() *requestReporter {
	return &requestReporter{id: uuid.New().String()}
}

func (r *requestReporter) Printf(format string, v ...interface{}) {
	message := fmt.Sprintf(format, v...)
	r.warnings = append(r.warnings, message)
	log.Printf("[%s] %s", r.id, message)
}

func (server *Server) checkWhitelist(bucket string) error {
	if len(server.whitelist) == 0 || server.whitelist[bucket] {
		return nil
	}
	return fmt.Errorf("access to bucket %s is not allowed", bucket)
}

// parseID parses path and returns a GCS bucket and object, or an error.
func parseID(path string) (string, string, error) {
	if parts := strings.SplitN(path, "/", 2); len(parts) == 2 {
		if parts[0] != "" && parts[1] != "" {
			return parts[0], parts[1], nil
		}
	}
	return "", "", errInvalidOrUnspecifiedID
}

// apiError is used to capture errors that have been defined in the API.
type apiError struct {
	name  string
	code  int
	cause error
}

func (err *apiError) Error() string {
	return fmt.Sprintf("%s (%d): %v", err.name, err.code, err.cause)
}

func newApiError(name string, code int, context string, err error) error {
	return &apiError{name, code, fmt.Errorf("%s: %v", context, err)}
}

func newInvalidAuthenticationError(context string, err error) error {
	return newApiError("InvalidAuthentication", http.StatusUnauthorized, context, err)
}

func newInvalidInputError(context string, err error) error {
	return newApiError("InvalidInput", http.StatusBadRequest, context, err)
}

func newInvalidRangeError(err error) error {
	return &apiError{"InvalidRange", http.StatusBadRequest, err}
}

func newPermissionDeniedError(context string, err error) error {
	return newApiError("PermissionDenied", http.StatusForbidden, context, err)
}

func newUnsupportedFormatError(err error) error {
	return &apiError{"UnsupportedFormat", http.StatusBadRequest, err}
}

func newNotFoundError(context string, err error) error {
	return newApiError("NotFound", http.StatusNotFound, context, err)
}

func newConversionFailedError(err error) error {
	return &apiError{"ConversionFailed", http.StatusUnprocessableEntity, err}
}

// writeError writes either a JSON object or bare HTTP error describing err to
// w.  A JSON object is written only when the error has a name and code defined
// by the API.
func writeError(w http.ResponseWriter, err error) {
	if err, ok := err.(*apiError); ok {
		writeJSON(w, err.code, map[string]interface{}{
			"error":   err.name,
			"message": fmt.Sprintf("%s: %v", http.StatusText(err.code), err.cause),
		})
		return
	}

	writeHTTPError(w, http.StatusInternalServerError, err)
}

func writeHTTPError(w http.ResponseWriter, code int, err error) {
	http.Error(w, fmt.Sprintf("%s: %v", http.StatusText(code), err), code)
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Add("Content-type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

type forwardOrigin func(w http.ResponseWriter, req *http.Request)

func (f forwardOrigin) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if origin := req.Header.Get("Origin"); origin != "" {
		w.Header().Set("Access-Control-Allow-Origin", origin)
	}
	f(w, req)
}
