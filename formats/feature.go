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

// Package formats contains the flat genomic feature record produced by
// conversion.
package formats

import (
	"encoding/json"
	"fmt"
)

// Feature is a single genomic interval on a named reference.  Absent optional
// fields are nil and are omitted from the JSON encoding.
type Feature struct {
	ReferenceName string  `json:"referenceName"`
	Source        *string `json:"source,omitempty"`
	FeatureType   *string `json:"featureType,omitempty"`
	// Start and End specify the 0-based half-open range [Start, End).
	Start  *int64  `json:"start,omitempty"`
	End    *int64  `json:"end,omitempty"`
	Strand *Strand `json:"strand,omitempty"`
	Name   *string `json:"name,omitempty"`
}

// Strand is the orientation of a Feature relative to its reference.
type Strand int

const (
	Forward Strand = iota + 1
	Reverse
	Independent
	Unknown
)

var strandNames = map[Strand]string{
	Forward:     "FORWARD",
	Reverse:     "REVERSE",
	Independent: "INDEPENDENT",
	Unknown:     "UNKNOWN",
}

func (s Strand) String() string {
	if name, ok := strandNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Strand(%d)", int(s))
}

// MarshalJSON encodes s by name.
func (s Strand) MarshalJSON() ([]byte, error) {
	name, ok := strandNames[s]
	if !ok {
		return nil, fmt.Errorf("invalid strand %d", int(s))
	}
	return json.Marshal(name)
}

// UnmarshalJSON decodes a strand name.
func (s *Strand) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	for strand, n := range strandNames {
		if n == name {
			*s = strand
			return nil
		}
	}
	return fmt.Errorf("unknown strand %q", name)
}

// StrandOf returns a pointer to s.
func StrandOf(s Strand) *Strand {
	return &s
}

// Int64 returns a pointer to n.
func Int64(n int64) *int64 {
	return &n
}

// String returns a pointer to s.
func String(s string) *string {
	return &s
}
