package verify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/doeshing/scriptgate/assets"
	"github.com/doeshing/scriptgate/internal/pkg/filesystem"
	"github.com/doeshing/scriptgate/internal/ports"
)

const trustStoreSchemaURL = "https://github.com/doeshing/scriptgate/schemas/trust-store.json"

// MapTrustStore is an in-memory known-checksum table.
type MapTrustStore map[string]string

// NewMapTrustStore copies checksums into a new table, lowercasing digests.
func NewMapTrustStore(checksums map[string]string) MapTrustStore {
	store := make(MapTrustStore, len(checksums))
	for url, sum := range checksums {
		store[url] = strings.ToLower(strings.TrimSpace(sum))
	}
	return store
}

// Lookup implements ports.TrustStore.
func (m MapTrustStore) Lookup(url string) (string, bool) {
	sum, ok := m[url]
	return sum, ok
}

// trustFile is the on-disk layout of a known-checksums file.
type trustFile struct {
	Version   int               `json:"version,omitempty"`
	Checksums map[string]string `json:"checksums"`
}

// FileTrustStore is a known-checksum table loaded from a JSON file.
type FileTrustStore struct {
	path  string
	table MapTrustStore
}

// LoadFileTrustStore reads and schema-validates a known-checksums file.
func LoadFileTrustStore(path string) (*FileTrustStore, error) {
	path = filesystem.ExpandPath(path)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read trust store: %w", err)
	}
	if err := validateTrustDocument(data); err != nil {
		return nil, fmt.Errorf("trust store %s: %w", path, err)
	}
	var doc trustFile
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode trust store %s: %w", path, err)
	}
	return &FileTrustStore{path: path, table: NewMapTrustStore(doc.Checksums)}, nil
}

// Lookup implements ports.TrustStore.
func (f *FileTrustStore) Lookup(url string) (string, bool) {
	return f.table.Lookup(url)
}

// Len returns the number of known checksums.
func (f *FileTrustStore) Len() int {
	return len(f.table)
}

// Path returns the file the table was loaded from.
func (f *FileTrustStore) Path() string {
	return f.path
}

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func trustSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(assets.TrustStoreSchema()))
		if err != nil {
			schemaErr = fmt.Errorf("parse trust store schema: %w", err)
			return
		}
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(trustStoreSchemaURL, doc); err != nil {
			schemaErr = fmt.Errorf("add trust store schema: %w", err)
			return
		}
		schema, schemaErr = compiler.Compile(trustStoreSchemaURL)
	})
	return schema, schemaErr
}

func validateTrustDocument(data []byte) error {
	sch, err := trustSchema()
	if err != nil {
		return err
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if err := sch.Validate(inst); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}

var (
	_ ports.TrustStore = MapTrustStore(nil)
	_ ports.TrustStore = (*FileTrustStore)(nil)
)
