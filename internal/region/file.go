// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package region

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"

	"github.com/samber/oops"
	"gopkg.in/yaml.v3"

	"github.com/holomush/blockguard/internal/world"
)

// FileRepository reads region definitions from a YAML file:
//
//	regions:
//	  - id: spawn
//	    priority: 10
//	    cuboid: {min: {x: -50, y: 0, z: -50}, max: {x: 50, y: 255, z: 50}}
//	    owners: [alice]
//	    flags: {allow-lighter: deny}
//	  - id: market
//	    parent: spawn
//	    polygon: {min_y: 60, max_y: 90, points: [{x: 0, z: 0}, {x: 10, z: 0}, {x: 5, z: 8}]}
type FileRepository struct {
	path string
}

// Compile-time check that FileRepository implements Repository.
var _ Repository = (*FileRepository)(nil)

// NewFileRepository creates a repository backed by the YAML file at path.
func NewFileRepository(path string) *FileRepository {
	return &FileRepository{path: path}
}

// List implements Repository. The file is re-read on every call.
func (f *FileRepository) List(_ context.Context) ([]Region, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, oops.In("region").Code("REGION_STORE_READ_FAILED").With("path", f.path).Wrap(err)
	}
	regions, err := DecodeYAML(data)
	if err != nil {
		return nil, oops.In("region").With("path", f.path).Wrap(err)
	}
	return regions, nil
}

type fileDocument struct {
	Regions []fileRegion `yaml:"regions"`
}

type fileRegion struct {
	ID       string            `yaml:"id"`
	Priority int               `yaml:"priority"`
	Parent   string            `yaml:"parent,omitempty"`
	Owners   []string          `yaml:"owners,omitempty"`
	Members  []string          `yaml:"members,omitempty"`
	Flags    map[string]string `yaml:"flags,omitempty"`
	Cuboid   *fileCuboid       `yaml:"cuboid,omitempty"`
	Polygon  *filePolygon      `yaml:"polygon,omitempty"`
}

type fileCuboid struct {
	Min world.Point `yaml:"min"`
	Max world.Point `yaml:"max"`
}

type filePolygon struct {
	MinY   int      `yaml:"min_y"`
	MaxY   int      `yaml:"max_y"`
	Points []Vertex `yaml:"points"`
}

// DecodeYAML parses a region document. Unknown keys are rejected so typos in
// flag or shape names surface at load time.
func DecodeYAML(data []byte) ([]Region, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var doc fileDocument
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, oops.In("region").Code("REGION_FILE_INVALID").Wrap(err)
	}

	regions := make([]Region, 0, len(doc.Regions))
	for i, fr := range doc.Regions {
		r, err := fr.toRegion()
		if err != nil {
			return nil, oops.In("region").With("index", i).Wrap(err)
		}
		regions = append(regions, r)
	}
	return regions, nil
}

// EncodeYAML renders regions in the format read by DecodeYAML.
func EncodeYAML(regions []Region) ([]byte, error) {
	doc := fileDocument{Regions: make([]fileRegion, 0, len(regions))}
	for _, r := range regions {
		fr := fileRegion{
			ID:       r.ID,
			Priority: r.Priority,
			Parent:   r.Parent,
			Owners:   r.Owners,
			Members:  r.Members,
		}
		if len(r.Flags) > 0 {
			fr.Flags = make(map[string]string, len(r.Flags))
			for k, v := range r.Flags {
				fr.Flags[k] = string(v)
			}
		}
		switch r.Shape.Kind {
		case ShapeCuboid:
			fr.Cuboid = &fileCuboid{Min: r.Shape.Min, Max: r.Shape.Max}
		case ShapePolygon:
			fr.Polygon = &filePolygon{MinY: r.Shape.MinY, MaxY: r.Shape.MaxY, Points: r.Shape.Points}
		}
		doc.Regions = append(doc.Regions, fr)
	}

	out, err := yaml.Marshal(doc)
	if err != nil {
		return nil, oops.In("region").Code("REGION_FILE_INVALID").Wrap(err)
	}
	return out, nil
}

func (fr fileRegion) toRegion() (Region, error) {
	r := Region{
		ID:       fr.ID,
		Priority: fr.Priority,
		Parent:   fr.Parent,
		Owners:   fr.Owners,
		Members:  fr.Members,
	}
	if len(fr.Flags) > 0 {
		r.Flags = make(map[string]FlagValue, len(fr.Flags))
		for k, v := range fr.Flags {
			r.Flags[k] = ParseFlagValue(v)
		}
	}

	switch {
	case fr.Cuboid != nil && fr.Polygon != nil:
		return Region{}, oops.In("region").Code("REGION_INVALID_SHAPE").With("id", fr.ID).New("region declares both cuboid and polygon")
	case fr.Cuboid != nil:
		r.Shape = Cuboid(fr.Cuboid.Min, fr.Cuboid.Max)
	case fr.Polygon != nil:
		r.Shape = Polygon(fr.Polygon.MinY, fr.Polygon.MaxY, fr.Polygon.Points...)
	default:
		return Region{}, oops.In("region").Code("REGION_INVALID_SHAPE").With("id", fr.ID).New("region declares no shape")
	}

	if err := r.Validate(); err != nil {
		return Region{}, err
	}
	return r, nil
}
