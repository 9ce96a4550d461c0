package gltfimport

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"github.com/solarlune/scenecore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTestDocument saves a small binary glTF file: a root node with a translated position, a child holding a single
// triangle, and a node that isn't part of the default scene.
func writeTestDocument(t *testing.T) string {

	t.Helper()

	doc := gltf.NewDocument()

	positions := modeler.WritePosition(doc, [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}})
	indices := modeler.WriteIndices(doc, []uint16{0, 1, 2})

	doc.Meshes = []*gltf.Mesh{{
		Name: "triangle",
		Primitives: []*gltf.Primitive{{
			Indices:    gltf.Index(indices),
			Attributes: map[string]int{gltf.POSITION: positions},
			Material:   gltf.Index(0),
		}},
	}}

	doc.Materials = []*gltf.Material{{Name: "plain"}}

	root := &gltf.Node{Name: "root", Children: []int{1}}
	root.Translation[0] = 1
	root.Translation[1] = 2
	root.Translation[2] = 3

	child := &gltf.Node{Name: "child", Mesh: gltf.Index(0)}
	orphan := &gltf.Node{Name: "orphan"}

	doc.Nodes = []*gltf.Node{root, child, orphan}
	doc.Scenes = []*gltf.Scene{{Name: "main", Nodes: []int{0}}}
	doc.Scene = gltf.Index(0)

	path := filepath.Join(t.TempDir(), "test.glb")
	require.NoError(t, gltf.SaveBinary(doc, path))

	return path

}

func TestImportScene(t *testing.T) {

	path := writeTestDocument(t)
	importer := New(DefaultOptions())

	data, err := importer.ImportScene(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, "test", data.Name)
	require.Len(t, data.Nodes, 2)

	byName := map[string]scenecore.NodeRecord{}
	for _, node := range data.Nodes {
		byName[node.Name] = node
	}

	root := byName["root"]
	child := byName["child"]

	assert.Equal(t, scenecore.Entity(1), root.Entity)
	assert.Equal(t, scenecore.NoEntity, root.Parent)
	assert.True(t, root.Position.Equals(scenecore.Vector3{X: 1, Y: 2, Z: 3}))
	assert.True(t, root.Scale.Equals(scenecore.Vector3{X: 1, Y: 1, Z: 1}))
	assert.Empty(t, root.Mesh)

	assert.Equal(t, scenecore.Entity(2), child.Entity)
	assert.Equal(t, root.Entity, child.Parent)
	assert.Equal(t, GUIDFor(path, "mesh", 0, 0), child.Mesh)
	assert.Equal(t, GUIDFor(path, "material", 0, 0), child.Material)

}

const lightsDocument = `{
	"asset": {"version": "2.0"},
	"extensionsUsed": ["KHR_lights_punctual"],
	"extensions": {
		"KHR_lights_punctual": {
			"lights": [
				{"type": "directional", "color": [1, 0.5, 0.25], "intensity": 2},
				{"type": "point", "color": [1, 1, 1], "intensity": 160, "range": 10}
			]
		}
	},
	"scene": 0,
	"scenes": [{"nodes": [0, 1]}],
	"nodes": [
		{"name": "sun", "rotation": [-0.70710677, 0, 0, 0.70710677], "extensions": {"KHR_lights_punctual": {"light": 0}}},
		{"name": "lamp", "translation": [0, 3, 0], "extensions": {"KHR_lights_punctual": {"light": 1}}}
	]
}`

func TestImportSceneLights(t *testing.T) {

	path := filepath.Join(t.TempDir(), "lights.gltf")
	require.NoError(t, os.WriteFile(path, []byte(lightsDocument), 0o644))

	data, err := New(DefaultOptions()).ImportScene(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, data.Lights, 2)

	sun := data.Lights[0]
	assert.Equal(t, "sun", sun.Name)
	assert.Equal(t, scenecore.LightDirectional, sun.Kind)
	assert.InDelta(t, 2, sun.Energy, 1e-5)
	assert.InDelta(t, 0.5, sun.Color.G, 1e-5)
	// The sun is turned to shine straight down.
	assert.True(t, sun.Direction.Equals(scenecore.Vector3{Y: -1}), "got %s", sun.Direction)

	lamp := data.Lights[1]
	assert.Equal(t, scenecore.LightPoint, lamp.Kind)
	assert.True(t, lamp.Position.Equals(scenecore.Vector3{Y: 3}))
	assert.InDelta(t, 2, lamp.Energy, 1e-5)
	assert.InDelta(t, 10, lamp.Range, 1e-5)

}

func TestImportSceneAllNodes(t *testing.T) {

	path := writeTestDocument(t)
	importer := New(Options{})

	data, err := importer.ImportScene(context.Background(), path)
	require.NoError(t, err)
	assert.Len(t, data.Nodes, 3)

}

func TestImportMeshAndMaterial(t *testing.T) {

	path := writeTestDocument(t)
	importer := New(DefaultOptions())
	ctx := context.Background()

	_, err := importer.ImportScene(ctx, path)
	require.NoError(t, err)

	mesh, err := importer.ImportMesh(ctx, GUIDFor(path, "mesh", 0, 0))
	require.NoError(t, err)
	require.NoError(t, mesh.Validate())

	assert.Equal(t, "triangle", mesh.Name)
	assert.Len(t, mesh.Vertices, 3)
	assert.Equal(t, []uint32{0, 1, 2}, mesh.Indices)
	assert.True(t, mesh.Bounds.Max.Equals(scenecore.Vector3{X: 1, Y: 1, Z: 0}))
	assert.True(t, mesh.Bounds.Min.Equals(scenecore.Vector3{}))

	material, err := importer.ImportMaterial(ctx, GUIDFor(path, "material", 0, 0))
	require.NoError(t, err)
	assert.Equal(t, "plain", material.Name)
	assert.Equal(t, scenecore.White, material.BaseColor)
	assert.Empty(t, material.Texture)

}

func TestImportErrors(t *testing.T) {

	path := writeTestDocument(t)
	importer := New(DefaultOptions())
	ctx := context.Background()

	_, err := importer.ImportMesh(ctx, "nothing")
	assert.ErrorIs(t, err, scenecore.ErrUnknownGUID)

	_, err = importer.ImportScene(ctx, filepath.Join(t.TempDir(), "missing.glb"))
	assert.Error(t, err)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = importer.ImportScene(cancelled, path)
	assert.ErrorIs(t, err, context.Canceled)

	// A material GUID isn't a mesh GUID.
	_, err = importer.ImportScene(ctx, path)
	require.NoError(t, err)
	_, err = importer.ImportMesh(ctx, GUIDFor(path, "material", 0, 0))
	assert.ErrorIs(t, err, scenecore.ErrUnknownGUID)

	importer.Forget(path)
	_, err = importer.ImportMesh(ctx, GUIDFor(path, "mesh", 0, 0))
	assert.ErrorIs(t, err, scenecore.ErrUnknownGUID)

}

func TestGUIDForIsStable(t *testing.T) {
	a := GUIDFor("scenes/level.gltf", "mesh", 2, 1)
	assert.Equal(t, a, GUIDFor("scenes/level.gltf", "mesh", 2, 1))
	assert.NotEqual(t, a, GUIDFor("scenes/level.gltf", "mesh", 2, 0))
	assert.NotEqual(t, a, GUIDFor("scenes/other.gltf", "mesh", 2, 1))
}
