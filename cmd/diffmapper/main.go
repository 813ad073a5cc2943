package main

import (
	"context"
	"encoding/json"
	"flag"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joelkehle/diffmapper/internal/companystore"
	"github.com/joelkehle/diffmapper/internal/diffmap"
	"github.com/joelkehle/diffmapper/internal/export"
)

func main() {
	outPath := flag.String("out", "analysis.json", "Path for the JSON analysis export")
	reportPath := flag.String("report", "", "Optional path for the markdown report")
	htmlPath := flag.String("html", "", "Optional path for the standalone HTML report")
	pdfPath := flag.String("pdf", "", "Optional path for the PDF report (requires Chromium)")
	dbPath := flag.String("db", "", "Optional SQLite company store for enrichment and write-back")
	flag.Parse()

	idea, err := readIdea(flag.Args())
	if err != nil {
		log.Fatal(err)
	}

	tavilyKey := requiredEnv("TAVILY_API_KEY")
	searcher, err := diffmap.NewTavilySearcher(diffmap.TavilyConfig{APIKey: tavilyKey})
	if err != nil {
		log.Fatal(err)
	}
	caller, err := diffmap.NewAnthropicCallerFromEnv()
	if err != nil {
		log.Fatal(err)
	}

	var store *companystore.Store
	if *dbPath != "" {
		store, err = companystore.Open(*dbPath)
		if err != nil {
			log.Fatal(err)
		}
		defer store.Close()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	pipeline := diffmap.NewPipeline(
		diffmap.NewDiscoveryStage(searcher, caller, similarityStore(store)),
		diffmap.NewMatrixStage(caller),
		diffmap.NewStrategyStage(caller),
	)

	log.Printf("diffmapper starting model=%s idea_chars=%d", caller.ModelName(), len(idea))
	state, err := pipeline.RunWithProgress(ctx, idea, func(stage, message string) {
		log.Printf("diffmapper stage=%s %s", stage, message)
	})
	if err != nil {
		log.Printf("diffmapper aborted stage=%s err=%v", diffmap.StageNameFromError(err), err)
	}

	if err := writeJSON(*outPath, diffmap.BuildExport(state)); err != nil {
		log.Fatal(err)
	}
	log.Printf("diffmapper wrote export path=%s competitors=%d", *outPath, len(state.Competitors))

	report := diffmap.BuildReportMarkdown(state)
	if *reportPath != "" {
		if err := os.WriteFile(*reportPath, []byte(report), 0o644); err != nil {
			log.Fatal(err)
		}
		log.Printf("diffmapper wrote report path=%s", *reportPath)
	}

	if *htmlPath != "" || *pdfPath != "" {
		htmlDoc, err := export.BuildHTML(report, export.Meta{
			StartupIdea:     state.StartupIdea,
			GeneratedAt:     time.Now(),
			CompetitorCount: len(state.Competitors),
		})
		if err != nil {
			log.Fatal(err)
		}
		if *htmlPath != "" {
			if err := os.WriteFile(*htmlPath, []byte(htmlDoc), 0o644); err != nil {
				log.Fatal(err)
			}
			log.Printf("diffmapper wrote html path=%s", *htmlPath)
		}
		if *pdfPath != "" {
			pdf, err := export.NewPDFRenderer().Render(ctx, htmlDoc)
			if err != nil {
				log.Fatal(err)
			}
			if err := os.WriteFile(*pdfPath, pdf, 0o644); err != nil {
				log.Fatal(err)
			}
			log.Printf("diffmapper wrote pdf path=%s bytes=%d", *pdfPath, len(pdf))
		}
	}

	if store != nil && state.Error == "" {
		if err := store.UpsertAll(ctx, state.Competitors); err != nil {
			log.Printf("diffmapper warning: company store write-back failed err=%v", err)
		}
	}
}

// readIdea takes the startup idea from the positional arguments, or from
// stdin when none are given.
func readIdea(args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	b, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// similarityStore avoids handing the pipeline a typed nil interface when no
// database path was configured.
func similarityStore(store *companystore.Store) diffmap.SimilarityStore {
	if store == nil {
		return nil
	}
	return store
}

func writeJSON(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

func requiredEnv(key string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		log.Fatalf("missing required env var %s", key)
	}
	return v
}
