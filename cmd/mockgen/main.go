package main

import (
	"flag"
	"fmt"
	"jiracounter/cmd/mockgen/engine"
	"os"
	"time"
)

func main() {
	scenario := flag.String("scenario", "mild", "Scenario to generate: mild, chaos")
	outDir := flag.String("out", "./.mock", "Output directory for issue JSON files")
	count := flag.Int("count", 50, "Number of issues to generate")
	project := flag.String("project", "MOCK", "Project key of the generated issues")
	seed := flag.Int64("seed", time.Now().UnixNano(), "Random seed")
	flag.Parse()

	cfg := engine.GeneratorConfig{
		Scenario: *scenario,
		Count:    *count,
		Project:  *project,
		Seed:     *seed,
		Now:      time.Now(),
	}

	fmt.Printf("Generating scenario '%s' (Count: %d, Seed: %d) to %s...\n", cfg.Scenario, cfg.Count, cfg.Seed, *outDir)

	if err := engine.Save(*outDir, engine.Generate(cfg)); err != nil {
		fmt.Printf("Failed to save mock data: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Done.")
}
