package exam

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadFile reads an exam definition from a .json, .yaml or .yml file and
// validates it.
func LoadFile(path string) (Exam, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Exam{}, fmt.Errorf("read exam file: %w", err)
	}
	var e Exam
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		e, err = parseJSON(data)
	} else {
		e, err = parseYAML(data)
	}
	if err != nil {
		return Exam{}, err
	}
	if strings.TrimSpace(e.ID) == "" {
		e.ID = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if err := Validate(e); err != nil {
		return Exam{}, err
	}
	return e, nil
}

func parseJSON(data []byte) (Exam, error) {
	var e Exam
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&e); err != nil {
		return Exam{}, fmt.Errorf("parse json: %w", err)
	}
	if err := decoder.Decode(new(json.RawMessage)); err != io.EOF {
		if err == nil {
			return Exam{}, fmt.Errorf("parse json: multiple documents are not supported")
		}
		return Exam{}, fmt.Errorf("parse json: %w", err)
	}
	return e, nil
}

func parseYAML(data []byte) (Exam, error) {
	var e Exam
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&e); err != nil {
		return Exam{}, fmt.Errorf("parse yaml: %w", err)
	}
	if err := decoder.Decode(new(yaml.Node)); err != io.EOF {
		if err == nil {
			return Exam{}, fmt.Errorf("parse yaml: multiple documents are not supported")
		}
		return Exam{}, fmt.Errorf("parse yaml: %w", err)
	}
	return e, nil
}

// LoadDir loads every exam file in dir into the store. It returns the number
// of exams loaded.
func LoadDir(ctx context.Context, store Store, dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("read exams dir: %w", err)
	}
	n := 0
	for _, ent := range entries {
		if ent.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(ent.Name())) {
		case ".json", ".yaml", ".yml":
		default:
			continue
		}
		e, err := LoadFile(filepath.Join(dir, ent.Name()))
		if err != nil {
			return n, fmt.Errorf("%s: %w", ent.Name(), err)
		}
		if err := store.PutExam(ctx, e); err != nil {
			return n, fmt.Errorf("%s: %w", ent.Name(), err)
		}
		n++
	}
	return n, nil
}
