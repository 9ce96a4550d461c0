package scenecore

import "context"

// GUID is a content identifier for a mesh, material, or texture. Two references with the same GUID always refer to the same content,
// so the ResourceManager uses it as its cache key.
type GUID string

// NodeRecord describes one object of an imported scene.
type NodeRecord struct {
	Entity   Entity // Identifier chosen by the importer; unique within the scene, never NoEntity
	Name     string
	Parent   Entity // NoEntity for root nodes
	Position Vector3
	Rotation Quaternion
	Scale    Vector3
	Mesh     GUID // Empty if the node has no geometry
	Material GUID // Empty if the node has no geometry
	Hidden   bool
}

// Transform returns the NodeRecord's local Transform.
func (node NodeRecord) Transform() Transform {
	return NewTransform(node.Position, node.Rotation, node.Scale)
}

// CameraRecord is an imported camera placement.
type CameraRecord struct {
	Eye    Vector3
	Target Vector3
	FovY   float32 // Degrees; 0 leaves the Camera's current field of view
}

// LightKind is the kind of an imported light.
type LightKind int

const (
	LightAmbient LightKind = iota
	LightDirectional
	LightPoint
)

// LightRecord is an imported light, already placed in world space.
type LightRecord struct {
	Kind      LightKind
	Name      string
	Position  Vector3 // Point lights
	Direction Vector3 // Directional lights; the direction the light travels in
	Color     Color
	Energy    float32
	Range     float32 // Point lights; 0 means no set range
}

// SceneData is a whole imported scene.
type SceneData struct {
	Name   string
	Nodes  []NodeRecord
	Camera *CameraRecord // Optional
	// Lights replace the Scene's default lighting if there are any.
	Lights []LightRecord
}

// Importer turns a scene description into typed records. Implementations do the file parsing and decoding; the rest of
// this package only ever sees the records. Import functions may block on I/O and should honor ctx.
type Importer interface {
	ImportScene(ctx context.Context, path string) (SceneData, error)
	ImportMesh(ctx context.Context, guid GUID) (MeshData, error)
	ImportMaterial(ctx context.Context, guid GUID) (MaterialData, error)
	ImportTexture(ctx context.Context, guid GUID) (TextureData, error)
}
