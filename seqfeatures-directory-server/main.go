// This binary serves feature conversions of sequence documents stored in a
// local directory.
package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/pkg/profile"

	"github.com/googlegenomics/seqfeatures/convert"
	"github.com/googlegenomics/seqfeatures/directory"
	"github.com/googlegenomics/seqfeatures/formats"
	"github.com/googlegenomics/seqfeatures/sequence"
)

var (
	port       = flag.Int("port", 8080, "HTTP service port")
	dir        = flag.String("directory", "", "directory that contains .json/.yaml sequence documents")
	cpuProfile = flag.Bool("profile", false, "write a CPU profile to the working directory")
	stringency = convert.Lenient
)

func init() {
	flag.Var(&stringency, "stringency", "default conversion stringency (STRICT, LENIENT or SILENT)")
}

func main() {
	flag.Parse()
	if *dir == "" {
		log.Fatalf("You must specify -directory.")
	}

	if *cpuProfile {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	}

	converter, ok := convert.Lookup[*sequence.Sequence, []*formats.Feature](convert.NewModule())
	if !ok {
		log.Fatalf("No feature list converter registered")
	}

	router := gin.Default()
	router.GET("/features/:id", directory.NewFeaturesHandler(*dir, converter, stringency))
	if err := router.Run(fmt.Sprintf(":%d", *port)); err != nil {
		log.Fatalf("HTTP server returned an error: %v", err)
	}
}
