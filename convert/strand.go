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

// StrandConverter converts a location strand into a feature strand.
type StrandConverter = Converter[*sequence.Strand, *formats.Strand]

type strandConverter struct {
	Conversion
}

// NewStrandConverter returns the default StrandConverter.  It maps Positive
// to Forward, Negative to Reverse and Undefined to Unknown.
func NewStrandConverter() StrandConverter {
	return strandConverter{ConversionOf[*sequence.Strand, *formats.Strand]()}
}

func (c strandConverter) Convert(strand *sequence.Strand, stringency Stringency, reporter Reporter) (*formats.Strand, error) {
	if strand == nil {
		return nil, c.WarnOrFail(strand, "must not be null", nil, stringency, reporter)
	}

	var converted formats.Strand
	switch *strand {
	case sequence.Positive:
		converted = formats.Forward
	case sequence.Negative:
		converted = formats.Reverse
	case sequence.Undefined:
		converted = formats.Unknown
	default:
		return nil, c.WarnOrFail(*strand, fmt.Sprintf("unrecognized strand %v", *strand), nil, stringency, reporter)
	}
	return &converted, nil
}
