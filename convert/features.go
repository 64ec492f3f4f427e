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

package convert

import (
	"fmt"

	"github.com/googlegenomics/seqfeatures/formats"
	"github.com/googlegenomics/seqfeatures/sequence"
)

// FeatureListConverter converts a Sequence into one Feature per sequence
// feature, in order.  Must be created with NewFeatureListConverter.
type FeatureListConverter struct {
	Conversion
	strands StrandConverter
}

// NewFeatureListConverter returns a FeatureListConverter that converts
// location strands with strands, which must not be nil.
func NewFeatureListConverter(strands StrandConverter) *FeatureListConverter {
	if strands == nil {
		panic("convert: nil strand converter")
	}
	return &FeatureListConverter{
		Conversion: ConversionOf[*sequence.Sequence, []*formats.Feature](),
		strands:    strands,
	}
}

// Convert converts seq.  A nil seq is passed to WarnOrFail and yields a nil
// result.  A nil entry in seq.Features is passed to WarnOrFail and skipped.  Errors returned by the strand converter are returned unchanged.
//
// Coordinates move from the 1-based closed range of the location to the
// 0-based half-open range of the feature, so only the start changes value.
//
// Cross-references, ontology terms and attributes are not converted.
func (c *FeatureListConverter) Convert(seq *sequence.Sequence, stringency Stringency, reporter Reporter) ([]*formats.Feature, error) {
	if seq == nil {
		return nil, c.WarnOrFail(seq, "must not be null", nil, stringency, reporter)
	}

	referenceName := seq.Accession.String()
	features := make([]*formats.Feature, 0, len(seq.Features))
	for i, sf := range seq.Features {
		if sf == nil {
			if err := c.WarnOrFail(seq, fmt.Sprintf("feature %d must not be null", i), nil, stringency, reporter); err != nil {
				return nil, err
			}
			continue
		}

		feature := &formats.Feature{
			ReferenceName: referenceName,
			Source:        copyString(sf.Source),
			FeatureType:   copyString(sf.Type),
		}

		if location := sf.Location; location != nil {
			feature.Start = formats.Int64(int64(location.Start.Position) - 1)
			feature.End = formats.Int64(int64(location.End.Position))

			if location.Strand != nil {
				strand, err := c.strands.Convert(location.Strand, stringency, reporter)
				if err != nil {
					return nil, err
				}
				feature.Strand = strand
			}
		}

		switch {
		case sf.ShortDescription != nil:
			feature.Name = copyString(sf.ShortDescription)
		case sf.Description != nil:
			feature.Name = copyString(sf.Description)
		}

		features = append(features, feature)
	}
	return features, nil
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	return formats.String(*s)
}
