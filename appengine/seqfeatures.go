// Package seqfeatures registers the feature conversion API for App Engine.
package seqfeatures

import (
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/googlegenomics/seqfeatures/api"
	"github.com/googlegenomics/seqfeatures/convert"
	"google.golang.org/appengine"
)

const maxDocumentSize = 8 * 1024 * 1024

func init() {
	stringency := convert.Lenient
	if name := os.Getenv("CONVERSION_STRINGENCY"); name != "" {
		if err := stringency.Set(name); err != nil {
			log.Fatalf("Reading CONVERSION_STRINGENCY: %v", err)
		}
	}

	mux := http.NewServeMux()
	converter := convert.NewFeatureListConverter(convert.NewStrandConverter())
	server := api.NewServer(newAppEngineClient, converter, stringency, maxDocumentSize)
	if list := os.Getenv("BUCKET_WHITELIST"); list != "" {
		server.Whitelist(strings.Split(list, ","))
	}
	server.Export(mux)
	http.HandleFunc("/", mux.ServeHTTP)
}

func newAppEngineClient(req *http.Request) (api.Client, error) {
	return api.NewClientFromBearerToken(req.WithContext(appengine.NewContext(req)))
}
