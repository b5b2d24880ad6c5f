// Package fetcher downloads exam paper PDFs from a manifest of URLs,
// rate limited and retried.
package fetcher

import (
	"net/url"
	"os"
	"path"
	"strconv"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// PaperRef is one downloadable paper in the manifest.
type PaperRef struct {
	Year int    `yaml:"year"`
	URL  string `yaml:"url"`
	// Name overrides the filename derived from the URL. Optional.
	Name string `yaml:"name"`
}

// Manifest lists the papers to download.
type Manifest struct {
	Papers []PaperRef `yaml:"papers"`
}

// LoadManifest reads and validates a YAML paper manifest.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: read manifest %s", path)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, eris.Wrapf(err, "fetcher: parse manifest %s", path)
	}
	if len(m.Papers) == 0 {
		return nil, eris.Errorf("fetcher: manifest %s lists no papers", path)
	}
	for i, p := range m.Papers {
		if p.URL == "" {
			return nil, eris.Errorf("fetcher: manifest entry %d has no url", i)
		}
		if _, err := url.ParseRequestURI(p.URL); err != nil {
			return nil, eris.Wrapf(err, "fetcher: manifest entry %d has a bad url", i)
		}
	}
	return &m, nil
}

// Filename returns the local name for this paper: the override if set,
// otherwise "<year>_<url basename>".
func (p PaperRef) Filename() string {
	if p.Name != "" {
		return p.Name
	}
	base := path.Base(p.URL)
	if u, err := url.Parse(p.URL); err == nil && u.Path != "" {
		base = path.Base(u.Path)
	}
	if p.Year > 0 {
		return strconv.Itoa(p.Year) + "_" + base
	}
	return base
}
