package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"slices"

	"github.com/samber/lo"

	"wordrill/internal/corpus"
)

func main() {
	var (
		wordsFile = flag.String("words", "data/words.json", "Path to words.json")
		strict    = flag.Bool("strict", false, "Exit non-zero when lint problems are found")
	)
	flag.Parse()

	c, err := corpus.LoadFile(*wordsFile)
	if err != nil {
		log.Fatalf("Failed to load corpus: %v", err)
	}

	stats := c.Stats()
	fmt.Printf("%s\n", *wordsFile)
	fmt.Printf("  difficulty: %d easy, %d medium, %d hard\n", stats[corpus.Easy], stats[corpus.Medium], stats[corpus.Hard])
	for _, lang := range []string{corpus.LangEnglish, corpus.LangPolish} {
		counts := c.LengthCounts(lang)
		lengths := lo.Keys(counts)
		slices.Sort(lengths)
		fmt.Printf("  %s lengths:", lang)
		for _, n := range lengths {
			fmt.Printf(" %d=%d", n, counts[n])
		}
		fmt.Println()
	}

	problems := c.Lint()
	for _, p := range problems {
		fmt.Printf("  problem: %s\n", p)
	}
	if len(problems) > 0 && *strict {
		os.Exit(1)
	}
	fmt.Printf("Checked %d entries, %d problem(s)\n", len(c.Entries(corpus.LangEnglish))+len(c.Entries(corpus.LangPolish)), len(problems))
}
