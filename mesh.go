package scenecore

import "fmt"

// Vertex is a single mesh vertex as uploaded to the GPU.
type Vertex struct {
	Position Vector3
	Normal   Vector3
	U, V     float32
}

// NewVertex creates a new Vertex with the provided position and UV values.
func NewVertex(x, y, z, u, v float32) Vertex {
	return Vertex{Position: Vector3{x, y, z}, U: u, V: v}
}

// MeshData is a mesh as delivered by an Importer: CPU-side vertices and triangle indices, plus its bounds in local space.
type MeshData struct {
	GUID     GUID
	Name     string
	Vertices []Vertex
	Indices  []uint32
	Bounds   AABB // If left zero, it's computed from the vertices
}

// Validate checks that the MeshData describes at least one triangle and that every index is in range.
func (data *MeshData) Validate() error {
	if len(data.Vertices) == 0 || len(data.Indices) == 0 {
		return fmt.Errorf("mesh %q: %w", data.GUID, ErrEmptyMesh)
	}
	if len(data.Indices)%3 != 0 {
		return fmt.Errorf("mesh %q: index count %d is not divisible by 3", data.GUID, len(data.Indices))
	}
	for _, i := range data.Indices {
		if int(i) >= len(data.Vertices) {
			return fmt.Errorf("mesh %q: index %d out of range of %d vertices", data.GUID, i, len(data.Vertices))
		}
	}
	return nil
}

// ComputeBounds returns the AABB of the mesh's vertex positions.
func (data *MeshData) ComputeBounds() AABB {
	points := make([]Vector3, len(data.Vertices))
	for i, v := range data.Vertices {
		points[i] = v.Position
	}
	return NewAABBFromPoints(points...)
}

// Mesh is a mesh that has been uploaded to the GPU and is owned by a ResourceManager.
type Mesh struct {
	GUID         GUID
	Name         string
	VertexBuffer Buffer
	IndexBuffer  Buffer
	IndexCount   int
	Bounds       AABB // Local-space bounds
}

func (mesh *Mesh) release() {
	if mesh.VertexBuffer != nil {
		mesh.VertexBuffer.Release()
		mesh.VertexBuffer = nil
	}
	if mesh.IndexBuffer != nil {
		mesh.IndexBuffer.Release()
		mesh.IndexBuffer = nil
	}
}

// uploadMesh validates the MeshData and creates its GPU buffers.
func uploadMesh(device Device, data MeshData) (*Mesh, error) {

	if err := data.Validate(); err != nil {
		return nil, err
	}

	bounds := data.Bounds
	if bounds == (AABB{}) {
		bounds = data.ComputeBounds()
	}

	vb, err := device.CreateVertexBuffer(string(data.GUID)+" vertices", data.Vertices)
	if err != nil {
		return nil, fmt.Errorf("creating vertex buffer for mesh %q: %w", data.GUID, err)
	}

	ib, err := device.CreateIndexBuffer(string(data.GUID)+" indices", data.Indices)
	if err != nil {
		vb.Release()
		return nil, fmt.Errorf("creating index buffer for mesh %q: %w", data.GUID, err)
	}

	return &Mesh{
		GUID:         data.GUID,
		Name:         data.Name,
		VertexBuffer: vb,
		IndexBuffer:  ib,
		IndexCount:   len(data.Indices),
		Bounds:       bounds,
	}, nil

}

// NewCubeMeshData returns the MeshData for a unit cube centered on the origin (extending 1 unit in each direction).
func NewCubeMeshData(guid GUID) MeshData {

	positions := [8]Vector3{
		{-1, -1, -1}, {1, -1, -1}, {1, 1, -1}, {-1, 1, -1},
		{-1, -1, 1}, {1, -1, 1}, {1, 1, 1}, {-1, 1, 1},
	}

	data := MeshData{GUID: guid, Name: "Cube"}
	for _, p := range positions {
		data.Vertices = append(data.Vertices, Vertex{Position: p, Normal: p.Unit(), U: (p.X + 1) / 2, V: (p.Y + 1) / 2})
	}

	data.Indices = []uint32{
		0, 2, 1, 0, 3, 2, // back
		4, 5, 6, 4, 6, 7, // front
		0, 1, 5, 0, 5, 4, // bottom
		3, 7, 6, 3, 6, 2, // top
		0, 4, 7, 0, 7, 3, // left
		1, 2, 6, 1, 6, 5, // right
	}

	data.Bounds = AABB{Min: Vector3{-1, -1, -1}, Max: Vector3{1, 1, 1}}

	return data

}
