package artifact

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Skufu/medpredict/internal/schema"
)

// ManifestFile is the name of the manifest inside a model directory.
const ManifestFile = "manifest.yaml"

// Manifest maps each domain to its artifact files.
//
//	diabetes:
//	  model: {path: diabetes_random_model.json, sha256: "..."}
//	  scaler: {path: diabetes_scaler.json}
type Manifest map[string]ManifestEntry

type ManifestEntry struct {
	Model  *FileRef `yaml:"model"`
	Scaler *FileRef `yaml:"scaler"`
}

// FileRef points at one artifact file, relative to the manifest directory.
// When SHA256 is set the file content must match it.
type FileRef struct {
	Path   string `yaml:"path"`
	SHA256 string `yaml:"sha256"`
}

// Load reads dir/manifest.yaml and every artifact it references, and returns
// the resulting registry.
func Load(dir string) (*Registry, error) {
	path := filepath.Join(dir, ManifestFile)
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	return m.Open(dir)
}

// Open decodes every artifact of m relative to dir.
func (m Manifest) Open(dir string) (*Registry, error) {
	entries := make(map[schema.Domain]Entry, len(m))
	for name, me := range m {
		d, err := schema.ParseDomain(name)
		if err != nil {
			return nil, fmt.Errorf("manifest: %w", err)
		}
		// Domain names are case-insensitive, so two keys may collide.
		if _, dup := entries[d]; dup {
			return nil, fmt.Errorf("manifest: duplicate domain %s", d)
		}
		if me.Model == nil {
			return nil, fmt.Errorf("manifest: %s has no model", d)
		}

		model, err := readArtifact(dir, *me.Model)
		if err != nil {
			return nil, fmt.Errorf("%s model: %w", d, err)
		}
		if model.Model == nil {
			return nil, fmt.Errorf("%s model: %s is not a classifier", d, model.Kind)
		}
		e := Entry{Model: model.Model, ModelKind: model.Kind, ModelVersion: model.Version}

		if me.Scaler != nil {
			sc, err := readArtifact(dir, *me.Scaler)
			if err != nil {
				return nil, fmt.Errorf("%s scaler: %w", d, err)
			}
			if sc.Scaler == nil {
				return nil, fmt.Errorf("%s scaler: %s is not a scaler", d, sc.Kind)
			}
			e.Scaler = sc.Scaler
			e.ScalerVersion = sc.Version
		}
		entries[d] = e
	}
	return NewRegistry(entries)
}

func readArtifact(dir string, ref FileRef) (*Decoded, error) {
	if ref.Path == "" {
		return nil, fmt.Errorf("empty path")
	}
	p := ref.Path
	if !filepath.IsAbs(p) {
		p = filepath.Join(dir, p)
	}
	b, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("read artifact: %w", err)
	}
	if ref.SHA256 != "" {
		sum := sha256.Sum256(b)
		if got := hex.EncodeToString(sum[:]); !strings.EqualFold(got, ref.SHA256) {
			return nil, fmt.Errorf("checksum mismatch for %s: got %s", ref.Path, got)
		}
	}
	d, err := Decode(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ref.Path, err)
	}
	return d, nil
}
