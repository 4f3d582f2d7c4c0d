// cmd/tools/catalog-tool/main.go
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"campus-concierge/internal/catalog"
	"campus-concierge/internal/concierge"
	doc "campus-concierge/pkg/catalog"
)

const dataDir = "internal/catalog/data"

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	if len(args) < 1 {
		help(out)
		return fmt.Errorf("missing command")
	}

	switch args[0] {
	case "validate":
		fs := flag.NewFlagSet("validate", flag.ContinueOnError)
		paths := pathFlags(fs)
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		return validate(*paths, out)

	case "lookup":
		fs := flag.NewFlagSet("lookup", flag.ContinueOnError)
		paths := pathFlags(fs)
		query := fs.String("q", "", "Query to resolve against the catalog")
		limit := fs.Int("n", concierge.DefaultResolveLimit, "Maximum candidates to print")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		if *query == "" {
			fs.Usage()
			return fmt.Errorf("-q is required for lookup")
		}
		return lookup(*paths, *query, *limit, out)

	case "alias-add":
		fs := flag.NewFlagSet("alias-add", flag.ContinueOnError)
		paths := pathFlags(fs)
		phrase := fs.String("phrase", "", "Alias phrase (e.g. \"the mess\")")
		id := fs.String("id", "", "Target building id (e.g. campus-mess)")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		if *phrase == "" || *id == "" {
			fs.Usage()
			return fmt.Errorf("-phrase and -id are required for alias-add")
		}
		return addAlias(*paths, *phrase, *id, out)

	case "help":
		help(out)
		return nil

	default:
		help(out)
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func pathFlags(fs *flag.FlagSet) *catalog.Paths {
	p := &catalog.Paths{}
	fs.StringVar(&p.Buildings, "buildings", dataDir+"/buildings.json", "Path to buildings.json")
	fs.StringVar(&p.Aliases, "aliases", dataDir+"/aliases.json", "Path to aliases.json")
	fs.StringVar(&p.KnowledgeBase, "kb", dataDir+"/knowledge_base.json", "Path to knowledge_base.json")
	return p
}

func validate(paths catalog.Paths, out io.Writer) error {
	cat, err := catalog.Load(paths)
	if err != nil {
		return fmt.Errorf("catalog validation failed: %w", err)
	}
	fmt.Fprintf(out, "Catalog validation passed: %d buildings, %d aliases, %d entries, %d fallbacks.\n",
		len(cat.Buildings), len(cat.Aliases), len(cat.KnowledgeBase.Entries), len(cat.KnowledgeBase.Fallbacks))
	return nil
}

func lookup(paths catalog.Paths, query string, limit int, out io.Writer) error {
	cat, err := catalog.Load(paths)
	if err != nil {
		return err
	}
	weights := concierge.DefaultWeights()
	resolver := concierge.NewResolver(concierge.NewIndex(cat.Buildings, cat.Aliases), weights)

	candidates := resolver.Resolve(query, limit)
	if len(candidates) == 0 {
		fmt.Fprintf(out, "No match for %q\n", query)
		return nil
	}
	for _, c := range candidates {
		marker := " "
		if resolver.Confident(c) {
			marker = "*"
		}
		line := fmt.Sprintf("%s %4d  %-28s %s", marker, c.Score, c.Building.ID, c.Building.Name)
		if c.Alias {
			line += "  (alias)"
		}
		if c.Service != nil {
			line += fmt.Sprintf("  [%s]", c.Service.Name)
		}
		fmt.Fprintln(out, line)
	}
	return nil
}

// addAlias stores phrase in normalized form. The target must be a known building.
func addAlias(paths catalog.Paths, phrase, id string, out io.Writer) error {
	buildings, err := doc.LoadBuildings(paths.Buildings)
	if err != nil {
		return fmt.Errorf("failed to load buildings: %w", err)
	}
	found := false
	for _, b := range buildings.Buildings {
		if b.ID == id {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("unknown building id %q", id)
	}

	key := concierge.Normalize(phrase)
	if key == "" {
		return fmt.Errorf("phrase %q is empty after normalization", phrase)
	}

	aliases, err := doc.LoadAliases(paths.Aliases)
	if err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to load aliases: %w", err)
		}
		aliases = &doc.AliasDocument{Version: "1.0.0"}
	}
	if aliases.Aliases == nil {
		aliases.Aliases = map[string]string{}
	}

	if prev, ok := aliases.Aliases[key]; ok && prev != id {
		fmt.Fprintf(out, "Replacing alias %q: %s -> %s\n", key, prev, id)
	}
	aliases.Aliases[key] = id

	if err := doc.SaveAliases(paths.Aliases, aliases); err != nil {
		return fmt.Errorf("failed to save aliases: %w", err)
	}
	fmt.Fprintf(out, "Added alias %q -> %s\n", key, id)
	return nil
}

func help(out io.Writer) {
	fmt.Fprintln(out, "Usage: catalog-tool <command> [arguments]")
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Commands:")
	fmt.Fprintln(out, "  validate   Load and validate buildings, aliases and the knowledge base")
	fmt.Fprintln(out, "  lookup     Show ranked building candidates for -q")
	fmt.Fprintln(out, "  alias-add  Map -phrase to building -id in aliases.json")
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Every command accepts -buildings, -aliases and -kb to override file paths.")
}
