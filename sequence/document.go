// Copyright 2018 Google Inc.
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

package sequence

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/biogo/biogo/feat"
	"gopkg.in/yaml.v3"
)

// Format identifies the encoding of a sequence document.
type Format int

const (
	JSON Format = iota
	YAML
)

func (f Format) String() string {
	switch f {
	case JSON:
		return "JSON"
	case YAML:
		return "YAML"
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

var errMissingAccession = errors.New("no accession specified")

// FormatFromName returns the document format implied by the extension of
// name.
func FormatFromName(name string) (Format, error) {
	switch strings.ToLower(path.Ext(name)) {
	case ".json":
		return JSON, nil
	case ".yaml", ".yml":
		return YAML, nil
	}
	return 0, fmt.Errorf("unsupported document extension %q", path.Ext(name))
}

// FormatFromContentType returns the document format for an HTTP content type.
// An empty content type is treated as JSON.
func FormatFromContentType(contentType string) (Format, error) {
	mediaType := strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0])
	switch strings.ToLower(mediaType) {
	case "", "application/json":
		return JSON, nil
	case "application/yaml", "application/x-yaml", "text/yaml":
		return YAML, nil
	}
	return 0, fmt.Errorf("unsupported content type %q", mediaType)
}

type document struct {
	Accession string            `json:"accession" yaml:"accession"`
	Version   int               `json:"version,omitempty" yaml:"version,omitempty"`
	Features  []featureDocument `json:"features" yaml:"features"`
}

type featureDocument struct {
	Source           *string           `json:"source,omitempty" yaml:"source,omitempty"`
	Type             *string           `json:"type,omitempty" yaml:"type,omitempty"`
	ShortDescription *string           `json:"shortDescription,omitempty" yaml:"shortDescription,omitempty"`
	Description      *string           `json:"description,omitempty" yaml:"description,omitempty"`
	Location         *locationDocument `json:"location,omitempty" yaml:"location,omitempty"`
}

type locationDocument struct {
	Start  int     `json:"start" yaml:"start"`
	End    int     `json:"end" yaml:"end"`
	Strand *string `json:"strand,omitempty" yaml:"strand,omitempty"`
}

// Decode reads a single sequence document encoded in format from r.  A
// document consisting of a null value decodes to a nil Sequence.
func Decode(r io.Reader, format Format) (*Sequence, error) {
	var doc *document
	switch format {
	case JSON:
		if err := json.NewDecoder(r).Decode(&doc); err != nil {
			return nil, fmt.Errorf("decoding JSON: %v", err)
		}
	case YAML:
		if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
			return nil, fmt.Errorf("decoding YAML: %v", err)
		}
	default:
		return nil, fmt.Errorf("unsupported format %v", format)
	}
	if doc == nil {
		return nil, nil
	}
	return doc.sequence()
}

func (doc *document) sequence() (*Sequence, error) {
	if doc.Accession == "" {
		return nil, errMissingAccession
	}

	seq := &Sequence{
		Accession: AccessionID{ID: doc.Accession, Version: doc.Version},
		Features:  make([]*Feature, 0, len(doc.Features)),
	}
	for i, fd := range doc.Features {
		feature := &Feature{
			Source:           fd.Source,
			Type:             fd.Type,
			ShortDescription: fd.ShortDescription,
			Description:      fd.Description,
		}
		if ld := fd.Location; ld != nil {
			location, err := ld.location()
			if err != nil {
				return nil, fmt.Errorf("feature %d: %v", i, err)
			}
			feature.Location = location
		}
		seq.Features = append(seq.Features, feature)
	}
	return seq, nil
}

func (ld *locationDocument) location() (*Location, error) {
	if ld.Start < 1 {
		return nil, fmt.Errorf("start %d is not a 1-based position", ld.Start)
	}
	if ld.End < ld.Start {
		return nil, fmt.Errorf("end %d precedes start %d", ld.End, ld.Start)
	}

	location := &Location{Start: Point{ld.Start}, End: Point{ld.End}}
	if ld.Strand != nil {
		strand, err := parseStrand(*ld.Strand)
		if err != nil {
			return nil, err
		}
		location.Strand = &strand
	}
	return location, nil
}

// strandOrientations maps the GFF-style strand column of a document to
// feature orientations.
var strandOrientations = map[string]feat.Orientation{
	"+": feat.Forward,
	"-": feat.Reverse,
	".": feat.NotOriented,
	"?": feat.NotOriented,
}

func parseStrand(s string) (Strand, error) {
	orientation, ok := strandOrientations[s]
	if !ok {
		return 0, fmt.Errorf("unknown strand %q", s)
	}
	return StrandFromOrientation(orientation), nil
}
