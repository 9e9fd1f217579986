package main

import (
	"encoding/json"
	"os"

	"github.com/chazu/ifcsolid/pkg/shape"
)

// colorPalette assigns distinct colors to solids in render output.
var colorPalette = []string{
	"#4A90D9", "#E67E22", "#2ECC71", "#9B59B6",
	"#E74C3C", "#1ABC9C", "#F39C12", "#3498DB",
}

// MeshData is the JSON render format: flat vertex, normal and index
// arrays per solid, as WebGL viewers take them.
type MeshData struct {
	Vertices []float32 `json:"vertices"`
	Normals  []float32 `json:"normals"`
	Indices  []uint32  `json:"indices"`
	PartName string    `json:"partName"`
	Color    string    `json:"color"`
}

func meshData(meshes []*shape.Mesh) []MeshData {
	out := make([]MeshData, 0, len(meshes))
	for i, m := range meshes {
		if m.IsEmpty() {
			continue
		}
		out = append(out, MeshData{
			Vertices: m.Vertices,
			Normals:  m.Normals,
			Indices:  m.Indices,
			PartName: m.PartName,
			Color:    colorPalette[i%len(colorPalette)],
		})
	}
	return out
}

func writeMeshes(path string, meshes []*shape.Mesh) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(f)
	if err := enc.Encode(struct {
		Meshes []MeshData `json:"meshes"`
	}{meshData(meshes)}); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
