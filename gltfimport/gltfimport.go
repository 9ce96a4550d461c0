// Package gltfimport implements scenecore.Importer for glTF 2.0 files (.gltf and .glb).
package gltfimport

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/chewxy/math32"
	"github.com/google/uuid"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/ext/lightspunctual"
	"github.com/qmuntal/gltf/modeler"
	"github.com/solarlune/scenecore"
	_ "golang.org/x/image/webp"
)

// ErrUnsupported is returned for glTF content the importer can't turn into records, like primitives that aren't triangle lists.
var ErrUnsupported = errors.New("unsupported glTF content")

// guidNamespace scopes the GUIDs generated for glTF content.
var guidNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/solarlune/scenecore/gltfimport"))

// Options controls how glTF files are imported.
type Options struct {
	// FlipV flips the V texture coordinate (v becomes 1 - v), for renderers whose texture origin is at the bottom left.
	FlipV bool
	// DefaultScene, if true, only imports the nodes reachable from the document's default scene. Otherwise every node in the file is imported.
	DefaultScene bool
	Logger       *slog.Logger
}

// DefaultOptions returns the default import Options.
func DefaultOptions() Options {
	return Options{
		DefaultScene: true,
		Logger:       slog.Default(),
	}
}

const lightsExtension = "KHR_lights_punctual"

type resourceKind string

const (
	kindMesh     resourceKind = "mesh"
	kindMaterial resourceKind = "material"
	kindImage    resourceKind = "image"
)

// location points at one piece of content inside an imported document.
type location struct {
	path      string
	kind      resourceKind
	index     int // Mesh, material, or image index; -1 for the default material
	primitive int
}

// Importer reads glTF documents. Documents are parsed once by ImportScene and kept so later mesh, material, and texture
// imports can read from them; call Forget to drop a document (for example, before reimporting a file that changed).
// An Importer is safe for concurrent use.
type Importer struct {
	options Options

	mu        sync.Mutex
	documents map[string]*gltf.Document
	locations map[scenecore.GUID]location
}

// New creates a new Importer.
func New(options Options) *Importer {
	if options.Logger == nil {
		options.Logger = slog.Default()
	}
	return &Importer{
		options:   options,
		documents: map[string]*gltf.Document{},
		locations: map[scenecore.GUID]location{},
	}
}

// GUIDFor returns the GUID that content of the given kind ("mesh", "material", or "image") and index in the file at path is
// imported under. For meshes, primitive selects the primitive; it's ignored otherwise. GUIDs are stable across runs.
func GUIDFor(path, kind string, index, primitive int) scenecore.GUID {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	name := fmt.Sprintf("%s#%s/%d", filepath.ToSlash(path), kind, index)
	if resourceKind(kind) == kindMesh {
		name += fmt.Sprintf("/%d", primitive)
	}
	return scenecore.GUID(uuid.NewSHA1(guidNamespace, []byte(name)).String())
}

func (importer *Importer) register(loc location) scenecore.GUID {
	guid := GUIDFor(loc.path, string(loc.kind), loc.index, loc.primitive)
	importer.locations[guid] = loc
	return guid
}

// Forget drops the parsed document for path, along with every GUID that pointed into it.
func (importer *Importer) Forget(path string) {
	importer.mu.Lock()
	defer importer.mu.Unlock()
	delete(importer.documents, path)
	for guid, loc := range importer.locations {
		if loc.path == path {
			delete(importer.locations, guid)
		}
	}
}

func (importer *Importer) lookup(guid scenecore.GUID, kind resourceKind) (*gltf.Document, location, error) {
	importer.mu.Lock()
	defer importer.mu.Unlock()
	loc, ok := importer.locations[guid]
	if !ok || loc.kind != kind {
		return nil, loc, fmt.Errorf("%s %s: %w", kind, guid, scenecore.ErrUnknownGUID)
	}
	return importer.documents[loc.path], loc, nil
}

// ImportScene parses the glTF file at path and returns one NodeRecord per node. Entity IDs are the node index plus one; nodes
// whose mesh has more than one primitive get an extra child entity per additional primitive, numbered after the last node.
// The first camera found becomes the scene's camera.
func (importer *Importer) ImportScene(ctx context.Context, path string) (scenecore.SceneData, error) {

	if err := ctx.Err(); err != nil {
		return scenecore.SceneData{}, err
	}

	doc, err := gltf.Open(path)
	if err != nil {
		return scenecore.SceneData{}, fmt.Errorf("opening %s: %w", path, err)
	}

	importer.mu.Lock()
	defer importer.mu.Unlock()

	importer.documents[path] = doc

	data := scenecore.SceneData{
		Name: strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
	}

	included := importer.includedNodes(doc)

	parents := make(map[int]int, len(doc.Nodes))
	for i, node := range doc.Nodes {
		for _, child := range node.Children {
			parents[child] = i
		}
	}

	extra := scenecore.Entity(len(doc.Nodes))

	for i, node := range doc.Nodes {

		if !included[i] {
			continue
		}

		position, scale, rotation := nodeTRS(node)

		record := scenecore.NodeRecord{
			Entity:   scenecore.Entity(i + 1),
			Name:     node.Name,
			Position: position,
			Rotation: rotation,
			Scale:    scale,
		}

		if p, ok := parents[i]; ok {
			record.Parent = scenecore.Entity(p + 1)
		}

		if node.Mesh != nil && *node.Mesh < len(doc.Meshes) {

			mesh := doc.Meshes[*node.Mesh]

			for primIndex, prim := range mesh.Primitives {

				meshGUID := importer.register(location{path: path, kind: kindMesh, index: *node.Mesh, primitive: primIndex})
				materialGUID := importer.materialGUID(path, doc, prim)

				if primIndex == 0 {
					record.Mesh = meshGUID
					record.Material = materialGUID
					continue
				}

				extra++
				data.Nodes = append(data.Nodes, scenecore.NodeRecord{
					Entity:   extra,
					Name:     fmt.Sprintf("%s.%d", node.Name, primIndex),
					Parent:   record.Entity,
					Rotation: scenecore.NewQuaternionIdentity(),
					Scale:    scenecore.Vector3{X: 1, Y: 1, Z: 1},
					Mesh:     meshGUID,
					Material: materialGUID,
				})

			}

		}

		if node.Camera != nil && data.Camera == nil && *node.Camera < len(doc.Cameras) {
			data.Camera = cameraRecord(doc, i, parents)
		}

		if light, ok := lightRecord(doc, i, parents); ok {
			data.Lights = append(data.Lights, light)
		}

		data.Nodes = append(data.Nodes, record)

	}

	importer.options.Logger.Debug("glTF scene imported", "path", path, "nodes", len(data.Nodes))

	return data, nil

}

func (importer *Importer) includedNodes(doc *gltf.Document) map[int]bool {

	included := make(map[int]bool, len(doc.Nodes))

	if !importer.options.DefaultScene || len(doc.Scenes) == 0 {
		for i := range doc.Nodes {
			included[i] = true
		}
		return included
	}

	sceneIndex := 0
	if doc.Scene != nil && *doc.Scene < len(doc.Scenes) {
		sceneIndex = *doc.Scene
	}

	stack := append([]int{}, doc.Scenes[sceneIndex].Nodes...)
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n < 0 || n >= len(doc.Nodes) || included[n] {
			continue
		}
		included[n] = true
		stack = append(stack, doc.Nodes[n].Children...)
	}

	return included

}

func (importer *Importer) materialGUID(path string, doc *gltf.Document, prim *gltf.Primitive) scenecore.GUID {
	index := -1
	if prim.Material != nil && *prim.Material < len(doc.Materials) {
		index = *prim.Material
	}
	return importer.register(location{path: path, kind: kindMaterial, index: index})
}

// nodeTRS returns a node's local position, scale, and rotation, decomposing its matrix if it has one.
func nodeTRS(node *gltf.Node) (scenecore.Vector3, scenecore.Vector3, scenecore.Quaternion) {

	mat := scenecore.NewMatrix4()
	// glTF matrices are column-major; read consecutively they're the rows of a row-vector matrix.
	for r := 0; r < 4; r++ {
		mat.SetRow(r, scenecore.Vector4{
			X: float32(node.Matrix[r*4]),
			Y: float32(node.Matrix[r*4+1]),
			Z: float32(node.Matrix[r*4+2]),
			W: float32(node.Matrix[r*4+3]),
		})
	}

	// A zero matrix means the node was built in memory without one.
	if !mat.IsIdentity() && mat != (scenecore.Matrix4{}) {
		return mat.Decompose()
	}

	position := scenecore.Vector3{X: float32(node.Translation[0]), Y: float32(node.Translation[1]), Z: float32(node.Translation[2])}
	scale := scenecore.Vector3{X: float32(node.Scale[0]), Y: float32(node.Scale[1]), Z: float32(node.Scale[2])}
	rotation := scenecore.NewQuaternion(float32(node.Rotation[0]), float32(node.Rotation[1]), float32(node.Rotation[2]), float32(node.Rotation[3]))

	if scale.IsZero() {
		scale = scenecore.Vector3{X: 1, Y: 1, Z: 1}
	}
	if rotation.IsZero() {
		rotation = scenecore.NewQuaternionIdentity()
	}

	return position, scale, rotation

}

// nodeWorld returns a node's world matrix, walking up through its parents.
func nodeWorld(doc *gltf.Document, nodeIndex int, parents map[int]int) scenecore.Matrix4 {
	world := scenecore.NewMatrix4()
	for n, depth := nodeIndex, 0; depth < len(doc.Nodes); depth++ {
		p, s, r := nodeTRS(doc.Nodes[n])
		world = world.Mult(scenecore.NewMatrix4FromTRS(p, r, s))
		parent, ok := parents[n]
		if !ok {
			break
		}
		n = parent
	}
	return world
}

// cameraRecord places a camera at a node's world position, looking down the node's -Z axis.
func cameraRecord(doc *gltf.Document, nodeIndex int, parents map[int]int) *scenecore.CameraRecord {

	world := nodeWorld(doc, nodeIndex, parents)

	eye := world.Translation()
	forward := world.RowAsVector3(2).Invert().Unit()

	record := &scenecore.CameraRecord{Eye: eye, Target: eye.Add(forward)}

	cam := doc.Cameras[*doc.Nodes[nodeIndex].Camera]
	if cam.Perspective != nil {
		record.FovY = float32(cam.Perspective.Yfov) * 180 / math32.Pi
	}

	return record

}

// lightRecord reads the KHR_lights_punctual light attached to a node, if there is one. Lights shine down the node's -Z axis.
// Spot lights are imported as point lights.
func lightRecord(doc *gltf.Document, nodeIndex int, parents map[int]int) (scenecore.LightRecord, bool) {

	node := doc.Nodes[nodeIndex]

	index, ok := node.Extensions[lightsExtension].(lightspunctual.LightIndex)
	if !ok {
		return scenecore.LightRecord{}, false
	}

	lights, ok := doc.Extensions[lightsExtension].(lightspunctual.Lights)
	if !ok || int(index) >= len(lights) {
		return scenecore.LightRecord{}, false
	}

	light := lights[index]
	world := nodeWorld(doc, nodeIndex, parents)

	record := scenecore.LightRecord{
		Name:      node.Name,
		Position:  world.Translation(),
		Direction: world.RowAsVector3(2).Invert().Unit(),
		Color:     scenecore.NewColor(float32(light.Color[0]), float32(light.Color[1]), float32(light.Color[2]), 1),
		Energy:    1,
	}

	if light.Intensity != nil {
		record.Energy = float32(*light.Intensity)
	}

	switch light.Type {
	case lightspunctual.TypeDirectional:
		record.Kind = scenecore.LightDirectional
	default:
		record.Kind = scenecore.LightPoint
		// Point light intensity is in candela; this brings it in line with directional lights' energy.
		record.Energy /= 80
		if light.Range != nil && !math32.IsInf(float32(*light.Range), 0) {
			record.Range = float32(*light.Range)
		}
	}

	return record, true

}

// ImportMesh reads the vertices and indices of the primitive the GUID refers to.
func (importer *Importer) ImportMesh(ctx context.Context, guid scenecore.GUID) (scenecore.MeshData, error) {

	if err := ctx.Err(); err != nil {
		return scenecore.MeshData{}, err
	}

	doc, loc, err := importer.lookup(guid, kindMesh)
	if err != nil {
		return scenecore.MeshData{}, err
	}

	if loc.index >= len(doc.Meshes) || loc.primitive >= len(doc.Meshes[loc.index].Primitives) {
		return scenecore.MeshData{}, fmt.Errorf("mesh %d primitive %d: %w", loc.index, loc.primitive, scenecore.ErrUnknownGUID)
	}

	mesh := doc.Meshes[loc.index]
	prim := mesh.Primitives[loc.primitive]

	if prim.Mode != gltf.PrimitiveTriangles {
		return scenecore.MeshData{}, fmt.Errorf("mesh %q: primitive mode %v: %w", mesh.Name, prim.Mode, ErrUnsupported)
	}

	posIndex, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		return scenecore.MeshData{}, fmt.Errorf("mesh %q has no positions: %w", mesh.Name, scenecore.ErrEmptyMesh)
	}

	positions, err := modeler.ReadPosition(doc, doc.Accessors[posIndex], [][3]float32{})
	if err != nil {
		return scenecore.MeshData{}, fmt.Errorf("mesh %q: reading positions: %w", mesh.Name, err)
	}

	var uvs [][2]float32
	if uvIndex, exists := prim.Attributes[gltf.TEXCOORD_0]; exists {
		if uvs, err = modeler.ReadTextureCoord(doc, doc.Accessors[uvIndex], [][2]float32{}); err != nil {
			return scenecore.MeshData{}, fmt.Errorf("mesh %q: reading texture coordinates: %w", mesh.Name, err)
		}
	}

	var normals [][3]float32
	if normalIndex, exists := prim.Attributes[gltf.NORMAL]; exists {
		if normals, err = modeler.ReadNormal(doc, doc.Accessors[normalIndex], [][3]float32{}); err != nil {
			return scenecore.MeshData{}, fmt.Errorf("mesh %q: reading normals: %w", mesh.Name, err)
		}
	}

	vertices := make([]scenecore.Vertex, len(positions))
	for i, p := range positions {
		v := scenecore.Vertex{Position: scenecore.Vector3{X: p[0], Y: p[1], Z: p[2]}}
		if i < len(uvs) {
			v.U = uvs[i][0]
			v.V = uvs[i][1]
			if importer.options.FlipV {
				v.V = 1 - v.V
			}
		}
		if i < len(normals) {
			v.Normal = scenecore.Vector3{X: normals[i][0], Y: normals[i][1], Z: normals[i][2]}
		}
		vertices[i] = v
	}

	var indices []uint32
	if prim.Indices != nil {
		if indices, err = modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], []uint32{}); err != nil {
			return scenecore.MeshData{}, fmt.Errorf("mesh %q: reading indices: %w", mesh.Name, err)
		}
	} else {
		indices = make([]uint32, len(vertices))
		for i := range indices {
			indices[i] = uint32(i)
		}
	}

	name := mesh.Name
	if len(mesh.Primitives) > 1 {
		name = fmt.Sprintf("%s.%d", mesh.Name, loc.primitive)
	}

	data := scenecore.MeshData{GUID: guid, Name: name, Vertices: vertices, Indices: indices}

	// Accessors carry min and max for positions, but they're optional; computing is cheap enough either way.
	data.Bounds = data.ComputeBounds()

	return data, nil

}

// ImportMaterial reads the base color and base color texture of the material the GUID refers to. Primitives without a
// material get a plain white one.
func (importer *Importer) ImportMaterial(ctx context.Context, guid scenecore.GUID) (scenecore.MaterialData, error) {

	if err := ctx.Err(); err != nil {
		return scenecore.MaterialData{}, err
	}

	doc, loc, err := importer.lookup(guid, kindMaterial)
	if err != nil {
		return scenecore.MaterialData{}, err
	}

	data := scenecore.MaterialData{GUID: guid, Name: "default", BaseColor: scenecore.White}

	if loc.index < 0 || loc.index >= len(doc.Materials) {
		return data, nil
	}

	gltfMat := doc.Materials[loc.index]
	data.Name = gltfMat.Name

	if pbr := gltfMat.PBRMetallicRoughness; pbr != nil {

		color := pbr.BaseColorFactorOrDefault()
		data.BaseColor = scenecore.NewColor(float32(color[0]), float32(color[1]), float32(color[2]), float32(color[3]))

		if texture := pbr.BaseColorTexture; texture != nil && texture.Index < len(doc.Textures) {
			if source := doc.Textures[texture.Index].Source; source != nil {
				importer.mu.Lock()
				data.Texture = importer.register(location{path: loc.path, kind: kindImage, index: *source})
				importer.mu.Unlock()
			}
		}

	}

	return data, nil

}

// ImportTexture decodes the image the GUID refers to, whether it's stored in a buffer view, a data URI, or a file next to
// the glTF file. PNG, JPEG, and WebP images are supported.
func (importer *Importer) ImportTexture(ctx context.Context, guid scenecore.GUID) (scenecore.TextureData, error) {

	if err := ctx.Err(); err != nil {
		return scenecore.TextureData{}, err
	}

	doc, loc, err := importer.lookup(guid, kindImage)
	if err != nil {
		return scenecore.TextureData{}, err
	}

	if loc.index >= len(doc.Images) {
		return scenecore.TextureData{}, fmt.Errorf("image %d: %w", loc.index, scenecore.ErrUnknownGUID)
	}

	gltfImage := doc.Images[loc.index]

	raw, err := imageBytes(doc, gltfImage, filepath.Dir(loc.path))
	if err != nil {
		return scenecore.TextureData{}, fmt.Errorf("image %q: %w", gltfImage.Name, err)
	}

	img, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return scenecore.TextureData{}, fmt.Errorf("decoding image %q: %w", gltfImage.Name, err)
	}

	importer.options.Logger.Debug("texture decoded", "image", gltfImage.Name, "format", format, "size", img.Bounds().Size())

	name := gltfImage.Name
	if name == "" {
		name = filepath.Base(gltfImage.URI)
	}

	return scenecore.TextureData{GUID: guid, Name: name, Image: img}, nil

}

func imageBytes(doc *gltf.Document, img *gltf.Image, dir string) ([]byte, error) {

	if img.BufferView != nil {
		return modeler.ReadBufferView(doc, doc.BufferViews[*img.BufferView])
	}

	if img.URI == "" {
		return nil, errors.New("image has neither a buffer view nor a URI")
	}

	if strings.HasPrefix(img.URI, "data:") {
		_, encoded, found := strings.Cut(img.URI, ";base64,")
		if !found {
			return nil, fmt.Errorf("data URI isn't base64: %w", ErrUnsupported)
		}
		return base64.StdEncoding.DecodeString(encoded)
	}

	return os.ReadFile(filepath.Join(dir, filepath.FromSlash(img.URI)))

}
