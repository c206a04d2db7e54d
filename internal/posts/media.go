package posts

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/afero"

	"github.com/csantero/MetaWeblogPortable/builder/config"
	"github.com/csantero/MetaWeblogPortable/builder/media"
)

// RunMedia processes the media subcommands
func RunMedia(args []string) {
	if len(args) < 1 {
		printMediaUsage()
		os.Exit(1)
	}

	subcommand := args[0]
	subArgs := args[1:]

	var err error
	switch subcommand {
	case "show":
		hash, rest := requireArg(subArgs, "Usage: metaweblog media show <hash>")
		err = withMedia(rest, func(m *media.Store) error {
			return ShowMedia(os.Stdout, m, hash)
		})
	case "delete":
		hash, rest := requireArg(subArgs, "Usage: metaweblog media delete <hash>")
		err = withMedia(rest, func(m *media.Store) error {
			return DeleteMedia(os.Stdout, m, hash)
		})
	default:
		fmt.Printf("Unknown media subcommand: %s\n", subcommand)
		printMediaUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Printf("❌ %v\n", err)
		os.Exit(1)
	}
}

func printMediaUsage() {
	fmt.Println("Usage: metaweblog media <subcommand> <hash> [flags]")
	fmt.Println("\nSubcommands:")
	fmt.Println("  show <hash>    Show an uploaded object's metadata")
	fmt.Println("  delete <hash>  Remove an uploaded object")
	fmt.Println("\nThe hash is the path element after /media/ in an upload URL.")
}

// withMedia opens the configured media directory. Unlike the post store it
// takes no lock, so it can run next to a live server.
func withMedia(args []string, fn func(*media.Store) error) error {
	cfg, err := config.Load(args)
	if err != nil {
		return err
	}
	m, err := media.NewStore(afero.NewBasePathFs(afero.NewOsFs(), cfg.Store.MediaDir))
	if err != nil {
		return err
	}
	defer func() { _ = m.Close() }()
	return fn(m)
}

// ShowMedia prints the metadata recorded for an upload
func ShowMedia(w io.Writer, m *media.Store, hash string) error {
	meta, err := m.Stat(hash)
	if err != nil {
		if errors.Is(err, media.ErrNotFound) {
			return fmt.Errorf("media %s not found", hash)
		}
		return err
	}

	fmt.Fprintf(w, "🖼️  %s\n", meta.Name)
	fmt.Fprintln(w, "════════════════════════════════════════")
	fmt.Fprintf(w, "Hash:        %s\n", meta.Hash)
	fmt.Fprintf(w, "Type:        %s\n", meta.Type)
	fmt.Fprintf(w, "Size:        %d bytes\n", meta.Size)
	fmt.Fprintf(w, "Blog:        %s\n", meta.BlogID)
	fmt.Fprintf(w, "Uploaded by: %s\n", meta.UserID)
	fmt.Fprintf(w, "Created:     %s\n", time.Unix(meta.CreatedAt, 0).Format(time.RFC3339))
	return nil
}

// DeleteMedia removes an upload. Posts that embed its URL are not touched.
func DeleteMedia(w io.Writer, m *media.Store, hash string) error {
	if err := m.Delete(hash); err != nil {
		if errors.Is(err, media.ErrNotFound) {
			return fmt.Errorf("media %s not found", hash)
		}
		return err
	}
	fmt.Fprintf(w, "🗑️  Deleted media %s\n", hash)
	return nil
}
