// Package edb reads and writes the enrollment database: a file of
// concatenated templates plus a manifest with one
// "<templateID> <size> <offset>" line per template.
package edb

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

var (
	// ErrCorrupt reports a manifest that does not describe the EDB.
	ErrCorrupt = errors.New("edb: corrupt manifest")
	// ErrInvalidID reports an empty template ID or one containing whitespace.
	ErrInvalidID = errors.New("edb: invalid template id")
)

// Entry locates one template in the EDB.
type Entry struct {
	TemplateID string
	Size       uint64
	Offset     uint64
}

// Writer appends templates to an EDB and records them in its manifest.
type Writer struct {
	edb      *os.File
	manifest *os.File
	edbBuf   *bufio.Writer
	manBuf   *bufio.Writer
	offset   uint64
	count    int
}

// Create truncates or creates the EDB and manifest files.
func Create(edbPath, manifestPath string) (*Writer, error) {
	edbFile, err := os.Create(edbPath)
	if err != nil {
		return nil, fmt.Errorf("create edb: %w", err)
	}
	manFile, err := os.Create(manifestPath)
	if err != nil {
		edbFile.Close()
		return nil, fmt.Errorf("create manifest: %w", err)
	}
	return &Writer{
		edb:      edbFile,
		manifest: manFile,
		edbBuf:   bufio.NewWriter(edbFile),
		manBuf:   bufio.NewWriter(manFile),
	}, nil
}

// Append writes data as the next template. Blank templates are allowed.
func (w *Writer) Append(templateID string, data []byte) error {
	if templateID == "" || strings.ContainsAny(templateID, " \t\r\n") {
		return fmt.Errorf("%w: %q", ErrInvalidID, templateID)
	}
	if _, err := w.edbBuf.Write(data); err != nil {
		return fmt.Errorf("write edb: %w", err)
	}
	if _, err := fmt.Fprintf(w.manBuf, "%s %d %d\n", templateID, len(data), w.offset); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	w.offset += uint64(len(data))
	w.count++
	return nil
}

// Count returns the number of templates appended.
func (w *Writer) Count() int {
	return w.count
}

// Close flushes and closes both files.
func (w *Writer) Close() error {
	var errs []error
	if err := w.edbBuf.Flush(); err != nil {
		errs = append(errs, err)
	}
	if err := w.manBuf.Flush(); err != nil {
		errs = append(errs, err)
	}
	if err := w.edb.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := w.manifest.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// ParseManifest reads manifest lines. Blank lines are skipped.
func ParseManifest(r io.Reader) ([]Entry, error) {
	var entries []Entry
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) != 3 {
			return nil, fmt.Errorf("%w: line %d: want 3 fields, got %d", ErrCorrupt, line, len(fields))
		}
		size, err := strconv.ParseUint(fields[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: size: %v", ErrCorrupt, line, err)
		}
		offset, err := strconv.ParseUint(fields[2], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: offset: %v", ErrCorrupt, line, err)
		}
		entries = append(entries, Entry{TemplateID: fields[0], Size: size, Offset: offset})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// ReadManifest parses the manifest file at path.
func ReadManifest(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseManifest(f)
}

// Reader gives random access to the templates of an EDB.
type Reader struct {
	file    *os.File
	size    uint64
	entries []Entry
}

// Open opens an EDB with its manifest and checks that the manifest entries
// are contiguous and cover the EDB exactly.
func Open(edbPath, manifestPath string) (*Reader, error) {
	entries, err := ReadManifest(manifestPath)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(edbPath)
	if err != nil {
		return nil, err
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	r := &Reader{file: f, size: uint64(st.Size()), entries: entries}
	if err := r.check(); err != nil {
		f.Close()
		return nil, err
	}
	return r, nil
}

func (r *Reader) check() error {
	var next uint64
	for i, e := range r.entries {
		if e.Offset != next {
			return fmt.Errorf("%w: entry %d (%s) at offset %d, expected %d", ErrCorrupt, i, e.TemplateID, e.Offset, next)
		}
		next += e.Size
	}
	if next != r.size {
		return fmt.Errorf("%w: manifest covers %d bytes, edb has %d", ErrCorrupt, next, r.size)
	}
	return nil
}

// Entries returns the manifest entries in order.
func (r *Reader) Entries() []Entry {
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Read returns a copy of the template bytes for e.
func (r *Reader) Read(e Entry) ([]byte, error) {
	if e.Offset+e.Size > r.size {
		return nil, fmt.Errorf("%w: %s extends past end of edb", ErrCorrupt, e.TemplateID)
	}
	buf := make([]byte, e.Size)
	if e.Size == 0 {
		return buf, nil
	}
	if _, err := r.file.ReadAt(buf, int64(e.Offset)); err != nil {
		return nil, fmt.Errorf("read %s: %w", e.TemplateID, err)
	}
	return buf, nil
}

// Close releases the EDB file.
func (r *Reader) Close() error {
	return r.file.Close()
}
