// Package posts implements the offline maintenance commands that operate
// directly on a post store while no server holds it.
package posts

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/csantero/MetaWeblogPortable/builder/config"
	"github.com/csantero/MetaWeblogPortable/builder/models"
	"github.com/csantero/MetaWeblogPortable/builder/store"
)

const draftBody = "<p>Start writing here...</p>"

// Run processes the posts subcommands
func Run(args []string) {
	if len(args) < 1 {
		PrintUsage()
		os.Exit(1)
	}

	subcommand := args[0]
	subArgs := args[1:]

	var err error
	switch subcommand {
	case "list":
		err = withStore(subArgs, func(s *store.Store, _ *config.Config) error {
			return List(os.Stdout, s)
		})
	case "show":
		id, rest := requireArg(subArgs, "Usage: metaweblog posts show <id>")
		err = withStore(rest, func(s *store.Store, _ *config.Config) error {
			return Show(os.Stdout, s, id)
		})
	case "new":
		title, rest := requireArg(subArgs, "Usage: metaweblog posts new \"My New Post Title\"")
		err = withStore(rest, func(s *store.Store, _ *config.Config) error {
			return New(os.Stdout, s, title)
		})
	case "delete":
		id, rest := requireArg(subArgs, "Usage: metaweblog posts delete <id>")
		err = withStore(rest, func(s *store.Store, _ *config.Config) error {
			return Delete(os.Stdout, s, id)
		})
	case "export":
		err = withStore(subArgs, func(s *store.Store, _ *config.Config) error {
			return Export(os.Stdout, s)
		})
	case "import":
		file, rest := requireArg(subArgs, "Usage: metaweblog posts import <backup.yaml>")
		err = withStore(rest, func(s *store.Store, _ *config.Config) error {
			f, err := os.Open(file)
			if err != nil {
				return err
			}
			defer func() { _ = f.Close() }()
			n, err := Import(f, s)
			if err != nil {
				return err
			}
			fmt.Printf("✅ Imported %d posts\n", n)
			return nil
		})
	default:
		fmt.Printf("Unknown posts subcommand: %s\n", subcommand)
		PrintUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Printf("❌ %v\n", err)
		os.Exit(1)
	}
}

// PrintUsage lists the posts subcommands
func PrintUsage() {
	fmt.Println("Usage: metaweblog posts <subcommand> [arguments] [flags]")
	fmt.Println("\nSubcommands:")
	fmt.Println("  list           List all posts, newest first")
	fmt.Println("  show <id>      Show a single post")
	fmt.Println("  new <title>    Create a draft post")
	fmt.Println("  delete <id>    Delete a post")
	fmt.Println("  export         Write all posts as YAML to stdout")
	fmt.Println("  import <file>  Restore posts from an export, keeping ids")
	fmt.Println("\nFlags:")
	fmt.Println("  -c, --config   Configuration file (default metaweblog.yaml)")
	fmt.Println("  -d, --data     Post store directory")
}

func requireArg(args []string, usage string) (string, []string) {
	if len(args) < 1 || strings.HasPrefix(args[0], "-") {
		fmt.Println(usage)
		os.Exit(1)
	}
	return args[0], args[1:]
}

// withStore opens the configured store in durable mode for the duration of fn
func withStore(args []string, fn func(*store.Store, *config.Config) error) error {
	cfg, err := config.Load(args)
	if err != nil {
		return err
	}
	s, err := store.Open(cfg.Store.DataDir, store.Options{Timeout: time.Second})
	if err != nil {
		return fmt.Errorf("failed to open post store: %w", err)
	}
	defer func() { _ = s.Close() }()
	return fn(s, cfg)
}

// List prints one line per post, newest first
func List(w io.Writer, s *store.Store) error {
	all, err := s.All()
	if err != nil {
		return err
	}
	if len(all) == 0 {
		fmt.Fprintln(w, "📭 No posts yet")
		return nil
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].DateCreated.After(all[j].DateCreated)
	})

	fmt.Fprintf(w, "📝 %d posts\n", len(all))
	fmt.Fprintln(w, "════════════════════════════════════════")
	for _, p := range all {
		fmt.Fprintf(w, "%-22s %-10s %s  %s\n",
			p.PostID, p.PostStatus, p.DateCreated.Format("2006-01-02"), p.Title)
	}
	return nil
}

// Show prints every stored field of a post
func Show(w io.Writer, s *store.Store, id string) error {
	p, err := s.Get(id)
	if err != nil {
		return err
	}
	if p == nil {
		return fmt.Errorf("post %s not found", id)
	}
	printPost(w, p)
	return nil
}

func printPost(w io.Writer, p *models.Post) {
	fmt.Fprintf(w, "📄 %s\n", p.Title)
	fmt.Fprintln(w, "════════════════════════════════════════")
	fmt.Fprintf(w, "ID:          %s\n", p.PostID)
	fmt.Fprintf(w, "Link:        %s\n", p.Link)
	fmt.Fprintf(w, "Status:      %s\n", p.PostStatus)
	fmt.Fprintf(w, "Created:     %s\n", p.DateCreated.Format(time.RFC3339))
	fmt.Fprintf(w, "Author:      %s\n", p.UserID)
	fmt.Fprintf(w, "Categories:  %s\n", strings.Join(p.Categories, ", "))
	fmt.Fprintln(w, "────────────────────────────────────────")
	fmt.Fprintln(w, p.Description)
}

// New creates an unpublished post with placeholder content
func New(w io.Writer, s *store.Store, title string) error {
	if strings.TrimSpace(title) == "" {
		return errors.New("title must not be empty")
	}
	p, err := s.Create(store.CreateInput{Title: title, Description: draftBody})
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "✅ Created draft %s (link %s)\n", p.PostID, p.Link)
	return nil
}

// Delete removes a post by id
func Delete(w io.Writer, s *store.Store, id string) error {
	if err := s.Delete(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("post %s not found", id)
		}
		return err
	}
	fmt.Fprintf(w, "🗑️  Deleted post %s\n", id)
	return nil
}
