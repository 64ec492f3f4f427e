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

// This binary provides a feature conversion server that reads sequence
// documents from uploads or from GCS.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/googlegenomics/seqfeatures/analytics"
	"github.com/googlegenomics/seqfeatures/api"
	"github.com/googlegenomics/seqfeatures/convert"
	"github.com/googlegenomics/seqfeatures/formats"
	"github.com/googlegenomics/seqfeatures/sequence"
	"github.com/pkg/profile"
)

var (
	port            = flag.Int("port", 80, "HTTP service port")
	maxDocumentSize = flag.Int64("max_document_size", 64*1024*1024, "maximum size of a sequence document in bytes")
	stringency      = convert.Lenient

	secure    = flag.Bool("secure", false, "serve in HTTPS-only mode and forward client bearer tokens")
	httpsCert = flag.String("https_cert", "", "HTTPS certificate file")
	httpsKey  = flag.String("https_key", "", "HTTPS key file")

	defaultCredentials = flag.Bool("default_credentials", false, "read documents with the application default credentials instead of anonymously")

	buckets = flag.String("buckets", "", "if set, restricts reads to a comma-separated list of buckets")

	cpuProfile = flag.Bool("profile", false, "write a CPU profile to the working directory")

	// Enable or disable anonymous usage tracking.
	//
	// If enabled, anonymous information about requests handled by the server is
	// logged to Google via Google Analytics.  No user identifying information
	// is ever sent to Google.
	trackUsage = flag.Bool("track_usage", false, "anonymous usage tracking")
)

func init() {
	flag.Var(&stringency, "stringency", "default conversion stringency (STRICT, LENIENT or SILENT)")
}

func main() {
	flag.Parse()

	if *secure && (*httpsCert == "" || *httpsKey == "") {
		log.Fatalf("You must specify both -https_cert and -https_key in secure mode.")
	}

	if *cpuProfile {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	}

	converter, ok := convert.Lookup[*sequence.Sequence, []*formats.Feature](convert.NewModule())
	if !ok {
		log.Fatalf("No feature list converter registered")
	}

	newStorageClient := api.NewPublicClient
	switch {
	case *secure:
		newStorageClient = api.NewClientFromBearerToken
	case *defaultCredentials:
		newStorageClient = api.NewDefaultClient
	}

	server := api.NewServer(newStorageClient, converter, stringency, *maxDocumentSize)
	server.Export(http.DefaultServeMux)

	if *buckets != "" {
		server.Whitelist(strings.Split(*buckets, ","))
	}

	handler := http.Handler(http.DefaultServeMux)
	if *trackUsage {
		log.Printf("Enabling anonymous usage tracking")

		client := analytics.NewClient("UA-103022118-1", uuid.New().String())
		handler = analytics.TrackingHandler(handler, func(hits []analytics.Hit) {
			if err := client.Send(context.Background(), hits); err != nil {
				log.Printf("Failed to send %d hits to analytics: %v", len(hits), err)
			}
		})
	}

	log.Printf("Serving with %v stringency on port %d", stringency, *port)
	address := fmt.Sprintf(":%d", *port)
	if *secure {
		if err := http.ListenAndServeTLS(address, *httpsCert, *httpsKey, handler); err != nil {
			log.Fatalf("HTTPS server returned an error: %v", err)
		}
	} else {
		if err := http.ListenAndServe(address, handler); err != nil {
			log.Fatalf("HTTP server returned an error: %v", err)
		}
	}
}
