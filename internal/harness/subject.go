package harness

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"tatte-go/internal/imageio"
	"tatte-go/tatte"
)

// Subject is one identity: the images of a single tattoo.
type Subject struct {
	ID     string
	Images tatte.MultiTattoo
}

// LoadSubjects reads a directory of subjects. Every subdirectory is a
// subject holding all its images; every image file at the top level is a
// single-image subject named after the file. Subjects are sorted by ID.
func LoadSubjects(dir string, depth uint8, typ tatte.ImageType) ([]Subject, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var subjects []Subject
	for _, e := range entries {
		path := filepath.Join(dir, e.Name())
		switch {
		case e.IsDir():
			images, err := imageio.LoadDir(path, depth, typ)
			if err != nil {
				return nil, fmt.Errorf("subject %s: %w", e.Name(), err)
			}
			if len(images) == 0 {
				continue
			}
			subjects = append(subjects, Subject{ID: subjectID(e.Name()), Images: images})
		case imageio.Supported(e.Name()):
			img, err := imageio.Load(path, depth, typ)
			if err != nil {
				return nil, err
			}
			name := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
			subjects = append(subjects, Subject{ID: subjectID(name), Images: tatte.MultiTattoo{img}})
		}
	}

	sort.SliceStable(subjects, func(i, j int) bool { return subjects[i].ID < subjects[j].ID })
	return subjects, nil
}

// subjectID makes name usable as a manifest template ID.
func subjectID(name string) string {
	return strings.Join(strings.Fields(name), "_")
}
