// Package genomics contains definitions related to Genomic data.
package genomics

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/googlegenomics/seqfeatures/formats"
)

// AllFeatures defines a Region that matches every feature.
var AllFeatures = Region{}

var errMissingReferenceName = errors.New("no reference name specified")

// Region defines a region of genomic interest.
type Region struct {
	// ReferenceName specifies the reference to match.  If it is empty, any
	// reference matches the region.
	ReferenceName string
	// Start and End specify the 0-based half-open range (in base pairs)
	// relative to the reference.  If End is zero, it is treated as though it
	// was set to the last possible position.
	Start, End uint64
}

func (region Region) String() string {
	return fmt.Sprintf("[reference:%q, start:%d, end:%d]", region.ReferenceName, region.Start, region.End)
}

// Unrestricted reports whether region matches any position on its reference.
func (region Region) Unrestricted() bool {
	return region.Start == 0 && region.End == 0
}

// Contains reports whether feature overlaps region.  Features without
// coordinates only match regions with no positional restriction.
func (region Region) Contains(feature *formats.Feature) bool {
	if region.ReferenceName != "" && feature.ReferenceName != region.ReferenceName {
		return false
	}
	if region.Unrestricted() {
		return true
	}
	if feature.Start == nil || feature.End == nil {
		return false
	}

	start, end := *feature.Start, *feature.End
	if region.End > 0 && start >= int64(region.End) {
		return false
	}
	// Zero-length features are treated as covering their start position.
	if end == start {
		end++
	}
	return end > int64(region.Start)
}

// Filter returns the features that overlap region, preserving their order.
func (region Region) Filter(features []*formats.Feature) []*formats.Feature {
	if region == AllFeatures {
		return features
	}
	filtered := make([]*formats.Feature, 0, len(features))
	for _, feature := range features {
		if region.Contains(feature) {
			filtered = append(filtered, feature)
		}
	}
	return filtered
}

// ParseRegion reads a Region from the referenceName, start and end query
// parameters.
func ParseRegion(query url.Values) (Region, error) {
	var (
		name  = query.Get("referenceName")
		start = query.Get("start")
		end   = query.Get("end")
	)
	if name == "" && start == "" && end == "" {
		return AllFeatures, nil
	}
	if name == "" {
		return Region{}, errMissingReferenceName
	}

	region := Region{ReferenceName: name}

	if start != "" {
		n, err := strconv.ParseUint(start, 10, 64)
		if err != nil {
			return Region{}, fmt.Errorf("parsing start: %v", err)
		}
		region.Start = n
	}

	if end != "" {
		n, err := strconv.ParseUint(end, 10, 64)
		if err != nil {
			return Region{}, fmt.Errorf("parsing end: %v", err)
		}
		region.End = n
	}

	return region, nil
}

// Valid reports an error when region has an end that precedes its start.
func (region Region) Valid() error {
	if region.End > 0 && region.Start > region.End {
		return fmt.Errorf("%s: start > end", region)
	}
	return nil
}
