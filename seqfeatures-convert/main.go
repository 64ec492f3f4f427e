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

// This binary converts sequence documents, read from local files or from GCS
// with Google authentication, into feature records written one JSON object
// per line.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/pkg/profile"
	"golang.org/x/oauth2/google"

	"github.com/googlegenomics/seqfeatures/api"
	"github.com/googlegenomics/seqfeatures/convert"
	"github.com/googlegenomics/seqfeatures/formats"
	"github.com/googlegenomics/seqfeatures/genomics"
	"github.com/googlegenomics/seqfeatures/sequence"
)

const (
	scope = "https://www.googleapis.com/auth/devstorage.read_only"

	gcsPrefix = "gs://"
)

var (
	reference  = flag.String("r", "", "only write features on this reference")
	output     = flag.String("o", "", "output filename")
	cpuProfile = flag.Bool("profile", false, "write a CPU profile to the working directory")
	stringency = convert.Strict
)

func init() {
	flag.Var(&stringency, "stringency", "conversion stringency (STRICT, LENIENT or SILENT)")
}

func main() {
	flag.Parse()

	if err := run(flag.Args()); err != nil {
		log.Fatal(err)
	}
}

// run converts every target and returns the first failure.  Deferred cleanup
// always runs, so the profile and the output file are flushed on failure too.
func run(targets []string) (err error) {
	if *cpuProfile {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	}

	w := io.Writer(os.Stdout)
	if *output != "" {
		f, createErr := os.Create(*output)
		if createErr != nil {
			return fmt.Errorf("opening output file: %v", createErr)
		}
		defer func() {
			if cerr := f.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("closing output file: %v", cerr)
			}
		}()

		w = f
	}

	converter, ok := convert.Lookup[*sequence.Sequence, []*formats.Feature](convert.NewModule())
	if !ok {
		return fmt.Errorf("no feature list converter registered")
	}
	reporter := log.New(os.Stderr, "convert: ", log.LstdFlags)
	region := genomics.Region{ReferenceName: *reference}

	return convertAll(context.Background(), json.NewEncoder(w), targets, converter, stringency, region, reporter)
}

// convertAll converts targets in order, stopping at the first failure.
func convertAll(ctx context.Context, enc *json.Encoder, targets []string, converter convert.Converter[*sequence.Sequence, []*formats.Feature], stringency convert.Stringency, region genomics.Region, reporter convert.Reporter) error {
	var gcs api.Client
	for _, target := range targets {
		var (
			r   io.ReadCloser
			err error
		)
		if strings.HasPrefix(target, gcsPrefix) {
			if gcs == nil {
				gcs, err = newGCSClient(ctx)
				if err != nil {
					return fmt.Errorf("creating client: %v", err)
				}
			}
			r, err = openObject(ctx, gcs, strings.TrimPrefix(target, gcsPrefix))
		} else {
			r, err = os.Open(target)
		}
		if err != nil {
			return fmt.Errorf("opening %q: %v", target, err)
		}

		n, err := convertDocument(enc, r, target, converter, stringency, region, reporter)
		r.Close()
		if err != nil {
			return fmt.Errorf("converting %q: %v", target, err)
		}
		log.Printf("Converted %q: wrote %d features", target, n)
	}
	return nil
}

func newGCSClient(ctx context.Context) (api.Client, error) {
	source, err := google.DefaultTokenSource(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("finding default credentials: %v", err)
	}
	return api.NewClientFromTokenSource(ctx, source)
}

func openObject(ctx context.Context, gcs api.Client, path string) (io.ReadCloser, error) {
	parts := strings.SplitN(path, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return nil, fmt.Errorf("malformed GCS path %q", gcsPrefix+path)
	}
	return gcs.NewObjectHandle(parts[0], parts[1]).NewRangeReader(ctx, 0, -1)
}

func convertDocument(enc *json.Encoder, r io.Reader, name string, converter convert.Converter[*sequence.Sequence, []*formats.Feature], stringency convert.Stringency, region genomics.Region, reporter convert.Reporter) (int, error) {
	format, err := sequence.FormatFromName(name)
	if err != nil {
		return 0, err
	}
	seq, err := sequence.Decode(r, format)
	if err != nil {
		return 0, err
	}

	features, err := converter.Convert(seq, stringency, reporter)
	if err != nil {
		return 0, err
	}

	features = region.Filter(features)
	for _, feature := range features {
		if err := enc.Encode(feature); err != nil {
			return 0, fmt.Errorf("writing feature: %v", err)
		}
	}
	return len(features), nil
}
