package main

import (
	"flag"
	"log"
	"os"
	"path/filepath"

	"github.com/macropower/pstart/api/v1beta1/configs"
	"github.com/macropower/pstart/pkg/yaml"
)

var (
	outFile = flag.String("o", "schema.json", "Output file for the generated schema")
	rootDir = flag.String("root", "../../..", "Module root, relative to the working directory")
)

func main() {
	flag.Parse()

	outPath, err := filepath.Abs(*outFile)
	if err != nil {
		log.Fatalf("resolve output path: %v", err)
	}

	// Comment extraction derives package paths from directories relative to the module root.
	err = os.Chdir(*rootDir)
	if err != nil {
		log.Fatalf("change to module root: %v", err)
	}

	gen := yaml.NewSchemaGenerator(configs.New(),
		"api/v1beta1",
		"api/v1beta1/configs",
		"pkg/profile",
	)

	jsData, err := gen.Generate()
	if err != nil {
		log.Fatalf("generate JSON schema: %v", err)
	}

	err = os.WriteFile(outPath, jsData, 0o600)
	if err != nil {
		log.Fatalf("write schema file: %v", err)
	}
}
