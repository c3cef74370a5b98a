package fsmodel

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/enetx/g"
)

// SaveFile writes the model as JSON to path. The file is replaced
// atomically: a failed save leaves any previous file intact.
func (m *Model) SaveFile(path string) error {
	var buf bytes.Buffer
	if err := m.Encode(&buf); err != nil {
		return fmt.Errorf("fsmodel: save %s: %w", path, err)
	}

	if err := writeFileAtomic(path, buf.Bytes()); err != nil {
		return fmt.Errorf("fsmodel: save %s: %w", path, err)
	}

	m.log().Info("model saved", "model", m.name, "path", path)

	return nil
}

// LoadFile replaces the model content with the document stored at path.
// On any error the model is left unchanged.
func (m *Model) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("fsmodel: load %s: %w", path, err)
	}

	if err := m.UnmarshalJSON(data); err != nil {
		return err
	}

	m.log().Info("model loaded", "model", m.name, "path", path)

	return nil
}

// ExportRFSMFile writes the RFSM description to path. Nothing is written
// when generation fails.
func (m *Model) ExportRFSMFile(path string, opts ...RFSMOption) error {
	text, err := m.ToRFSM(opts...)
	if err != nil {
		return err
	}

	if err := writeFileAtomic(path, []byte(text)); err != nil {
		return fmt.Errorf("fsmodel: export %s: %w", path, err)
	}

	return nil
}

// ExportDOTFile writes the single-document DOT rendering to path.
func (m *Model) ExportDOTFile(path string, opts ...DOTOption) error {
	if err := writeFileAtomic(path, []byte(m.ToDOT(opts...))); err != nil {
		return fmt.Errorf("fsmodel: export %s: %w", path, err)
	}
	return nil
}

// ExportDOTFiles writes one "<automaton>.dot" file per automaton into dir
// and returns the paths written.
func (m *Model) ExportDOTFiles(dir string, opts ...DOTOption) (g.Slice[string], error) {
	paths := g.NewSlice[string]()

	for _, f := range m.ToDOTFiles(opts...) {
		path := filepath.Join(dir, string(f.Name)+".dot")
		if err := writeFileAtomic(path, []byte(f.Text)); err != nil {
			return paths, fmt.Errorf("fsmodel: export %s: %w", path, err)
		}
		paths.Push(path)
	}

	return paths, nil
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp*")
	if err != nil {
		return err
	}

	name := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(name)
		return err
	}

	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return err
	}

	if err := os.Rename(name, path); err != nil {
		os.Remove(name)
		return err
	}

	return nil
}
