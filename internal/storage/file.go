package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// fileStore guarda los valores en un YAML con una seccion por origen:
//
//	http://127.0.0.1:8000/api:
//	  access_token: ...
//	  refresh_token: ...
type fileStore struct {
	mu     sync.Mutex
	path   string
	origin string
}

// DefaultFilePath devuelve la ruta por defecto bajo el directorio de configuracion del usuario.
func DefaultFilePath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "fleetwatch", "credentials.yaml"), nil
}

func NewFileStore(path, origin string) (Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("file store path required")
	}
	return &fileStore{
		path:   path,
		origin: strings.TrimRight(origin, "/"),
	}, nil
}

func (s *fileStore) Get(key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.read()
	if err != nil {
		return "", false, err
	}
	v, ok := doc[s.origin][key]
	return v, ok, nil
}

func (s *fileStore) SetAll(values map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.read()
	if err != nil {
		return err
	}
	section := doc[s.origin]
	if section == nil {
		section = make(map[string]string, len(values))
		doc[s.origin] = section
	}
	for k, v := range values {
		section[k] = v
	}
	return s.write(doc)
}

func (s *fileStore) Delete(keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.read()
	if err != nil {
		return err
	}
	section, ok := doc[s.origin]
	if !ok {
		return nil
	}
	for _, k := range keys {
		delete(section, k)
	}
	if len(section) == 0 {
		delete(doc, s.origin)
	}
	return s.write(doc)
}

func (s *fileStore) read() (map[string]map[string]string, error) {
	doc := make(map[string]map[string]string)
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return doc, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read credential file: %w", err)
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse credential file: %w", err)
	}
	if doc == nil {
		doc = make(map[string]map[string]string)
	}
	return doc, nil
}

// write reemplaza el archivo via rename para no dejar un par de tokens a medias.
func (s *fileStore) write(doc map[string]map[string]string) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode credential file: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create credential dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".credentials-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, s.path)
}
