package posts

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/afero"

	"github.com/csantero/MetaWeblogPortable/builder/config"
	"github.com/csantero/MetaWeblogPortable/builder/directory"
	"github.com/csantero/MetaWeblogPortable/builder/media"
	"github.com/csantero/MetaWeblogPortable/builder/store"
)

// RunCategories prints the categories in use and the seeded ones
func RunCategories(args []string) {
	err := withStore(args, func(s *store.Store, cfg *config.Config) error {
		dir, err := directory.Load(cfg.Directory.File, nil)
		if err != nil {
			return err
		}
		return Categories(os.Stdout, s, dir.SeedCategories())
	})
	if err != nil {
		fmt.Printf("❌ %v\n", err)
		os.Exit(1)
	}
}

// RunStats prints post store and media statistics
func RunStats(args []string) {
	err := withStore(args, func(s *store.Store, cfg *config.Config) error {
		m, err := media.NewStore(afero.NewBasePathFs(afero.NewOsFs(), cfg.Store.MediaDir))
		if err != nil {
			return err
		}
		defer func() { _ = m.Close() }()
		return Stats(os.Stdout, s, m)
	})
	if err != nil {
		fmt.Printf("❌ %v\n", err)
		os.Exit(1)
	}
}

// Categories prints each category with the number of posts filed under it.
// Seeded categories without posts are listed with a zero count.
func Categories(w io.Writer, s *store.Store, seeds []directory.Category) error {
	byCat, err := s.PostsByCategory()
	if err != nil {
		return err
	}

	counts := make(map[string]int, len(byCat)+len(seeds))
	for name, posts := range byCat {
		counts[name] = len(posts)
	}
	descriptions := make(map[string]string, len(seeds))
	for _, c := range seeds {
		if _, ok := counts[c.Name]; !ok {
			counts[c.Name] = 0
		}
		descriptions[c.Name] = c.Description
	}

	if len(counts) == 0 {
		fmt.Fprintln(w, "📭 No categories yet")
		return nil
	}

	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(w, "🏷️  Categories")
	fmt.Fprintln(w, "════════════════════════════════════════")
	for _, name := range names {
		fmt.Fprintf(w, "%-20s %4d  %s\n", name, counts[name], descriptions[name])
	}
	return nil
}

// Stats prints store statistics, in the same layout as the server's
// shutdown summary
func Stats(w io.Writer, s *store.Store, m *media.Store) error {
	stats, err := s.Stats()
	if err != nil {
		return err
	}
	cats, err := s.CategoriesUsed()
	if err != nil {
		return err
	}

	fmt.Fprintln(w, "📊 Store Statistics")
	fmt.Fprintln(w, "════════════════════════════════════════")
	fmt.Fprintf(w, "Path:            %s\n", stats.Path)
	fmt.Fprintf(w, "Schema Version:  %d\n", stats.SchemaVersion)
	fmt.Fprintf(w, "Total Posts:     %d\n", stats.TotalPosts)
	fmt.Fprintf(w, "Categories:      %d\n", len(cats))
	fmt.Fprintf(w, "Write Count:     %d\n", stats.WriteCount)
	if stats.LastWrite.IsZero() {
		fmt.Fprintf(w, "Last Write:      never\n")
	} else {
		fmt.Fprintf(w, "Last Write:      %s\n", stats.LastWrite.Format("2006-01-02 15:04:05"))
	}

	if m != nil {
		size, err := m.Size()
		if err != nil {
			return err
		}
		fmt.Fprintln(w, "\n🖼️  Media")
		fmt.Fprintln(w, "────────────────────────────────────────")
		fmt.Fprintf(w, "Media Size:      %.2f MB\n", float64(size)/(1024*1024))
	}
	return nil
}
