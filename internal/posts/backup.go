package posts

import (
	"fmt"
	"io"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/csantero/MetaWeblogPortable/builder/models"
	"github.com/csantero/MetaWeblogPortable/builder/store"
)

// backup is the YAML layout written by export and read by import
type backup struct {
	Posts []*models.Post `yaml:"posts"`
}

// Export writes every post, oldest first, as YAML
func Export(w io.Writer, s *store.Store) error {
	all, err := s.All()
	if err != nil {
		return err
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].DateCreated.Before(all[j].DateCreated)
	})

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(backup{Posts: all}); err != nil {
		return err
	}
	return enc.Close()
}

// Import restores posts verbatim, keeping their ids. Existing posts with the
// same id are replaced. It returns the number of posts written.
func Import(r io.Reader, s *store.Store) (int, error) {
	var b backup
	if err := yaml.NewDecoder(r).Decode(&b); err != nil {
		if err == io.EOF {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to parse backup: %w", err)
	}
	for i, p := range b.Posts {
		if err := s.Put(p); err != nil {
			return i, fmt.Errorf("post %d (%s): %w", i, p.PostID, err)
		}
	}
	return len(b.Posts), nil
}
