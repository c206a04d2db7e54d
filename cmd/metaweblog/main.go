package main

import (
	"fmt"
	"os"

	"github.com/csantero/MetaWeblogPortable/internal/posts"
	"github.com/csantero/MetaWeblogPortable/internal/serve"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "serve":
		serve.Run(args)
	case "posts":
		posts.Run(args)
	case "categories":
		posts.RunCategories(args)
	case "media":
		posts.RunMedia(args)
	case "stats":
		posts.RunStats(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: metaweblog <command> [arguments] [flags]")
	fmt.Println("\nCommands:")
	fmt.Println("  serve          Start the XML-RPC endpoint")
	fmt.Println("  posts          List, show, create or delete posts")
	fmt.Println("  categories     List categories and their post counts")
	fmt.Println("  media          Show or delete uploaded media")
	fmt.Println("  stats          Show post store and media statistics")
	fmt.Println("  help           Show this help message")
	fmt.Println("\nFlags for serve:")
	fmt.Println("  -c, --config       Configuration file (default metaweblog.yaml)")
	fmt.Println("  -a, --addr         Listen address")
	fmt.Println("      --baseurl      Public base URL for links and media")
	fmt.Println("  -d, --data         Post store directory")
	fmt.Println("      --directory    Blogs, users and categories file")
	fmt.Println("      --enforce-auth Check credentials against the directory")
	fmt.Println("      --no-watch     Do not reload the directory file on change")
	fmt.Println("      --log-level    debug, info, warn or error")
	fmt.Println("      --log-format   text or json")
	fmt.Println("      --dev          Skip fsync on store growth")
}
