package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/jgivc/sitestore/internal/app"
	"github.com/jgivc/sitestore/internal/domainkey"
)

const usageText = `Usage: sitestore [flags] <command> [args]

Commands:
  init <url|domain>                       provision site storage
  store <url|domain> <file-url> <file>    store a downloaded file
  output <url|domain> <name> <file>       store a text analysis output
  list <url|domain>                       list stored files
  outputs <url|domain>                    list analysis outputs
  stats [url|domain]                      site or global statistics
  report <url|domain>                     generate the storage report
  cleanup <url|domain>                    remove stored files
`

func main() {
	cfgFileName := flag.String("c", "config.yml", "Path to config file")
	category := flag.String("t", "", "Category (file type or analysis type)")
	olderThan := flag.Int("older-than", 0, "Cleanup: only remove files older than this many days")
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprint(os.Stderr, usageText)
		os.Exit(2)
	}

	a := app.New(*cfgFileName)

	if err := run(a, flag.Args(), *category, *olderThan); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(a *app.App, args []string, category string, olderThan int) error {
	cmd, args := args[0], args[1:]

	switch cmd {
	case "init":
		if len(args) != 1 {
			return fmt.Errorf("init: want <url|domain>")
		}

		site, err := a.Registry.GetOrCreate(domainkey.Normalize(args[0]))
		if err != nil {
			return err
		}

		fmt.Printf("%s\n  files:    %s\n  analysis: %s\n", site.Domain, site.FilesPath, site.AnalysisPath)

		return nil
	case "store":
		if len(args) != 3 {
			return fmt.Errorf("store: want <url|domain> <file-url> <file>")
		}

		data, err := os.ReadFile(args[2])
		if err != nil {
			return err
		}

		path, err := a.Store.StoreFile(args[0], args[1], data, category, nil)
		if err != nil {
			return err
		}

		fmt.Println(path)

		return nil
	case "output":
		if len(args) != 3 {
			return fmt.Errorf("output: want <url|domain> <name> <file>")
		}

		data, err := os.ReadFile(args[2])
		if err != nil {
			return err
		}

		path, err := a.Store.StoreOutputValue(args[0], args[1], string(data), category, ".txt")
		if err != nil {
			return err
		}

		fmt.Println(path)

		return nil
	case "list":
		if len(args) != 1 {
			return fmt.Errorf("list: want <url|domain>")
		}

		files, err := a.Inventory.Files(args[0], category)
		if err != nil {
			return err
		}

		for _, f := range files {
			fmt.Printf("%s\t%d\t%s\n", f.RelativePath, f.Size, f.ModifiedAt.Format("2006-01-02 15:04:05"))
		}

		return nil
	case "outputs":
		if len(args) != 1 {
			return fmt.Errorf("outputs: want <url|domain>")
		}

		outputs, err := a.Inventory.Outputs(args[0], category)
		if err != nil {
			return err
		}

		for _, o := range outputs {
			fmt.Printf("%s\t%s\t%d\n", o.Category, o.Name, o.Size)
		}

		return nil
	case "stats":
		var v any
		var err error
		if len(args) > 0 {
			v, err = a.Inventory.SiteStats(args[0])
		} else {
			v, err = a.Inventory.GlobalStats()
		}
		if err != nil {
			return err
		}

		return printJSON(v)
	case "report":
		if len(args) != 1 {
			return fmt.Errorf("report: want <url|domain>")
		}

		mdPath, htmlPath, err := a.Report.Generate(args[0])
		if err != nil {
			return err
		}

		fmt.Println(mdPath)
		fmt.Println(htmlPath)

		return nil
	case "cleanup":
		if len(args) != 1 {
			return fmt.Errorf("cleanup: want <url|domain>")
		}

		result, err := a.Inventory.Cleanup(args[0], olderThan)
		if err != nil {
			return err
		}

		fmt.Printf("removed %d files, freed %d bytes\n", result.FilesRemoved, result.BytesFreed)

		return nil
	default:
		return fmt.Errorf("unknown command: %s", cmd)
	}
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	fmt.Println(string(data))

	return nil
}
