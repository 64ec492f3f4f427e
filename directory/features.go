// Package directory serves feature conversions of sequence documents stored
// in a local directory.
package directory

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/googlegenomics/seqfeatures/convert"
	"github.com/googlegenomics/seqfeatures/formats"
	"github.com/googlegenomics/seqfeatures/genomics"
	"github.com/googlegenomics/seqfeatures/sequence"
)

// extensions are tried in order when resolving a sequence ID to a file.
var extensions = []string{".json", ".yaml", ".yml"}

//FeaturesResponse is the body returned for a successful conversion
type FeaturesResponse struct {
	ID       string             `json:"id"`
	Features []*formats.Feature `json:"features"`
	Warnings []string           `json:"warnings,omitempty"`
}

//NewFeaturesHandler builds a gin handler converting <directory>/<id>.{json,yaml,yml}
func NewFeaturesHandler(directory string, converter convert.Converter[*sequence.Sequence, []*formats.Feature], stringency convert.Stringency) func(c *gin.Context) {
	return func(c *gin.Context) {
		id := c.Param("id")
		if id == "" || strings.Contains(id, "..") {
			badRequest(c, "InvalidInput", fmt.Errorf("invalid sequence ID %q", id))
			return
		}

		level := stringency
		if name := c.Query("stringency"); name != "" {
			parsed, err := convert.ParseStringency(name)
			if err != nil {
				badRequest(c, "InvalidInput", err)
				return
			}
			level = parsed
		}

		region, err := genomics.ParseRegion(c.Request.URL.Query())
		if err != nil {
			badRequest(c, "InvalidInput", err)
			return
		}
		if err := region.Valid(); err != nil {
			badRequest(c, "InvalidRange", err)
			return
		}

		path, format, err := resolve(directory, id)
		if err != nil {
			c.JSON(404, gin.H{"error": "NotFound", "message": err.Error()})
			return
		}

		f, err := os.Open(path)
		if err != nil {
			c.JSON(404, gin.H{"error": "NotFound", "message": err.Error()})
			return
		}
		defer f.Close()

		seq, err := sequence.Decode(f, format)
		if err != nil {
			badRequest(c, "InvalidInput", fmt.Errorf("decoding %s: %v", filepath.Base(path), err))
			return
		}

		reporter := &warnings{id: uuid.New().String()}
		features, err := converter.Convert(seq, level, reporter)
		if err != nil {
			log.Printf("[%s] Converting %s: %v", reporter.id, id, err)
			c.JSON(422, gin.H{"error": "ConversionFailed", "message": err.Error()})
			return
		}

		features = region.Filter(features)
		if features == nil {
			features = []*formats.Feature{}
		}
		c.JSON(200, FeaturesResponse{ID: reporter.id, Features: features, Warnings: reporter.messages})
	}
}

// resolve finds the document for id in directory.
func resolve(directory, id string) (string, sequence.Format, error) {
	for _, ext := range extensions {
		path := filepath.Join(directory, id+ext)
		if _, err := os.Stat(path); err == nil {
			format, err := sequence.FormatFromName(path)
			return path, format, err
		}
	}
	return "", 0, fmt.Errorf("no sequence document for %q", id)
}

func badRequest(c *gin.Context, name string, err error) {
	c.JSON(400, gin.H{"error": name, "message": err.Error()})
}

type warnings struct {
	id       string
	messages []string
}

func (w *warnings) Printf(format string, v ...interface{}) {
	message := fmt.Sprintf(format, v...)
	w.messages = append(w.messages, message)
	log.Printf("[%s] %s", w.id, message)
}
