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
	"sort"
	"sync"

	"github.com/googlegenomics/seqfeatures/formats"
	"github.com/googlegenomics/seqfeatures/sequence"
)

// Registry holds converters keyed by their source and target types.  It is
// safe for concurrent use.  The zero value is an empty registry.
type Registry struct {
	mu         sync.RWMutex
	converters map[Conversion]interface{}
}

// Register adds c to r as the converter from S to T.  It returns an error if
// a converter for that conversion is already registered.
func Register[S, T any](r *Registry, c Converter[S, T]) error {
	key := ConversionOf[S, T]()

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.converters[key]; ok {
		return fmt.Errorf("converter for %v already registered", key)
	}
	if r.converters == nil {
		r.converters = make(map[Conversion]interface{})
	}
	r.converters[key] = c
	return nil
}

// Lookup returns the converter from S to T registered in r.
func Lookup[S, T any](r *Registry) (Converter[S, T], bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.converters[ConversionOf[S, T]()].(Converter[S, T])
	return c, ok
}

// Conversions returns the registered conversions sorted by name.
func (r *Registry) Conversions() []Conversion {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var conversions []Conversion
	for key := range r.converters {
		conversions = append(conversions, key)
	}
	sort.Slice(conversions, func(i, j int) bool {
		return conversions[i].String() < conversions[j].String()
	})
	return conversions
}

// NewModule returns a Registry holding the strand converter and the feature
// list converter built on it.
func NewModule() *Registry {
	r := &Registry{}
	strands := NewStrandConverter()
	mustRegister(Register[*sequence.Strand, *formats.Strand](r, strands))
	mustRegister(Register[*sequence.Sequence, []*formats.Feature](r, NewFeatureListConverter(strands)))
	return r
}

func mustRegister(err error) {
	if err != nil {
		panic(err)
	}
}
