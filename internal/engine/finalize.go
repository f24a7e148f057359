package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	log "github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"tatte-go/internal/edb"
	"tatte-go/internal/gallery"
	"tatte-go/tatte"
)

// GalleryFile is the name of the finalized gallery inside the enrollment
// directory. It does not depend on configuration so that finalization and
// identification agree whichever process runs them.
const GalleryFile = "reference-gallery.db"

// FinalizeEnrollment copies every template of the EDB into a gallery
// database inside enrollmentDir. The EDB and manifest are left untouched.
func (r *Reference) FinalizeEnrollment(enrollmentDir, edbName, manifestName string, galleryType tatte.GalleryType) tatte.ReturnStatus {
	if galleryType != tatte.Consolidated && galleryType != tatte.Unconsolidated {
		return tatte.Statusf(tatte.VendorError, "unknown gallery type %v", galleryType)
	}

	st, err := os.Stat(enrollmentDir)
	if err != nil || !st.IsDir() {
		return tatte.Statusf(tatte.EnrollDirError, "enrollment directory %s is not usable", enrollmentDir)
	}
	edbPath := filepath.Join(enrollmentDir, edbName)
	manifestPath := filepath.Join(enrollmentDir, manifestName)
	for _, p := range []string{edbPath, manifestPath} {
		if _, err := os.Stat(p); err != nil {
			return tatte.Status(tatte.InputLocationError, err.Error())
		}
	}

	final := filepath.Join(enrollmentDir, GalleryFile)
	if err := checkGalleryPath(final, edbPath, manifestPath); err != nil {
		return tatte.Status(tatte.EnrollDirError, err.Error())
	}

	reader, err := edb.Open(edbPath, manifestPath)
	if err != nil {
		if errors.Is(err, edb.ErrCorrupt) {
			return tatte.Status(tatte.TemplateFormatError, err.Error())
		}
		return tatte.Status(tatte.InputLocationError, err.Error())
	}
	defer reader.Close()

	entries, blank, status := r.collect(reader, galleryType)
	if !status.OK() {
		return status
	}

	source, _ := json.Marshal(map[string]string{"edb": edbName, "manifest": manifestName})
	meta := &gallery.Meta{
		GalleryType: galleryType.String(),
		APIMajor:    tatte.APIMajorVersion,
		APIMinor:    tatte.APIMinorVersion,
		Entries:     len(entries),
		Blank:       blank,
		Source:      datatypes.JSON(source),
		FinalizedAt: time.Now(),
	}
	if err := writeGallery(final, meta, entries); err != nil {
		return tatte.Status(tatte.EnrollDirError, err.Error())
	}

	log.WithFields(log.Fields{
		"gallery": final,
		"type":    galleryType,
		"entries": len(entries),
		"blank":   blank,
	}).Info("Enrollment finalized")
	return tatte.OK()
}

func (r *Reference) collect(reader *edb.Reader, galleryType tatte.GalleryType) ([]gallery.Entry, int, tatte.ReturnStatus) {
	manifest := reader.Entries()
	entries := make([]gallery.Entry, 0, len(manifest))
	seen := make(map[string]int, len(manifest))
	grid := 0
	blank := 0

	for pos, m := range manifest {
		if prev, dup := seen[m.TemplateID]; dup && galleryType == tatte.Consolidated {
			return nil, 0, tatte.Statusf(tatte.TemplateFormatError,
				"template id %q at positions %d and %d in a consolidated gallery", m.TemplateID, prev, pos)
		}
		seen[m.TemplateID] = pos

		data, err := reader.Read(m)
		if err != nil {
			return nil, 0, tatte.Status(tatte.TemplateFormatError, err.Error())
		}
		entry := gallery.Entry{Position: pos, TemplateID: m.TemplateID, Size: m.Size}
		if len(data) == 0 {
			entry.Blank = true
			blank++
			entries = append(entries, entry)
			continue
		}

		rec, err := decodeRecord(data)
		if err != nil {
			return nil, 0, tatte.Statusf(tatte.TemplateFormatError, "%s: %v", m.TemplateID, err)
		}
		if rec.Role != int(tatte.Enrollment) {
			return nil, 0, tatte.Statusf(tatte.TemplateFormatError, "%s: not an enrollment template", m.TemplateID)
		}
		if grid == 0 {
			grid = rec.Grid
		} else if rec.Grid != grid {
			return nil, 0, tatte.Statusf(tatte.TemplateFormatError, "%s: grid %d, gallery uses %d", m.TemplateID, rec.Grid, grid)
		}
		header, _ := json.Marshal(map[string]int{"images": rec.Images, "grid": rec.Grid})
		entry.Payload = data
		entry.Header = datatypes.JSON(header)
		entries = append(entries, entry)
	}
	return entries, blank, tatte.OK()
}

// checkGalleryPath refuses a gallery path, or its temporary sibling, that
// names one of the enrollment inputs.
func checkGalleryPath(gallery string, inputs ...string) error {
	for _, candidate := range []string{gallery, gallery + ".tmp"} {
		for _, in := range inputs {
			if filepath.Clean(candidate) == filepath.Clean(in) || sameFile(candidate, in) {
				return fmt.Errorf("gallery file %s would overwrite enrollment input %s", candidate, in)
			}
		}
	}
	return nil
}

func sameFile(a, b string) bool {
	sa, err := os.Stat(a)
	if err != nil {
		return false
	}
	sb, err := os.Stat(b)
	if err != nil {
		return false
	}
	return os.SameFile(sa, sb)
}

// writeGallery builds the database next to path and renames it into place.
func writeGallery(path string, meta *gallery.Meta, entries []gallery.Entry) error {
	tmp := path + ".tmp"
	store, err := gallery.Create(tmp)
	if err != nil {
		return err
	}
	if err := store.AddEntries(entries); err != nil {
		store.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to store templates: %w", err)
	}
	if err := store.SaveMeta(meta); err != nil {
		store.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to store gallery metadata: %w", err)
	}
	if err := store.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}
