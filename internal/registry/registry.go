// Package registry loads the YAML manifests describing the engine assets a
// room file may reference: sound indices and texture names. The manifests
// are side files maintained alongside the game's asset directories; the
// command-line tools use them to cross-check decoded rooms.
package registry

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/scpcbapi/roommesh"
)

// soundManifest is the on-disk shape of a sound manifest:
//
//	sounds:
//	  1: alarm.ogg
//	  3: arc_ambience.ogg
type soundManifest struct {
	Sounds map[uint32]string `yaml:"sounds"`
}

// DefaultSounds returns the registry every engine build shares: index 0 is
// silence.
func DefaultSounds() roommesh.SoundRegistry {
	return roommesh.SoundRegistry{0: ""}
}

// LoadSounds reads a sound manifest. Index 0 is implied when the manifest
// does not list it.
func LoadSounds(path string) (roommesh.SoundRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading sound manifest %s", path)
	}
	var m soundManifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrapf(err, "parsing sound manifest %s", path)
	}
	reg := DefaultSounds()
	for id, name := range m.Sounds {
		reg[id] = name
	}
	return reg, nil
}

// Materials maps the texture names rooms may reference to the files backing
// them.
type Materials map[string]string

// Has reports whether a texture name is in the manifest.
func (m Materials) Has(name string) bool {
	_, ok := m[name]
	return ok
}

// materialManifest is the on-disk shape of a material manifest:
//
//	materials:
//	  wall.jpg: textures/wall.jpg
//	  room_lm1.png: lightmaps/room_lm1.png
type materialManifest struct {
	Materials map[string]string `yaml:"materials"`
}

// LoadMaterials reads a material manifest.
func LoadMaterials(path string) (Materials, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading material manifest %s", path)
	}
	var m materialManifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrapf(err, "parsing material manifest %s", path)
	}
	return Materials(m.Materials), nil
}
