package scenecore

import "image"

// Buffer is a GPU-side buffer (vertices, indices, or per-instance data).
type Buffer interface {
	// Release frees the buffer. A released Buffer must not be bound again.
	Release()
}

// BindGroup is a set of GPU resources (uniforms, textures, samplers) bound together for a draw call.
type BindGroup interface {
	Release()
}

// GPUTexture is an image uploaded to the GPU.
type GPUTexture interface {
	Release()
}

// Device creates GPU objects. Creation failures are returned as errors and aren't retried by this package.
type Device interface {
	CreateVertexBuffer(label string, vertices []Vertex) (Buffer, error)
	CreateIndexBuffer(label string, indices []uint32) (Buffer, error)
	// CreateInstanceBuffer uploads one world matrix per instance.
	CreateInstanceBuffer(label string, instances []Matrix4) (Buffer, error)
	CreateTexture(label string, img image.Image) (GPUTexture, error)
	// CreateMaterialBindGroup combines a material's parameters and its texture into one bindable group. texture may be nil.
	CreateMaterialBindGroup(label string, material MaterialData, texture GPUTexture) (BindGroup, error)
}

// Vertex buffer slots used when drawing.
const (
	VertexSlotMesh     = 0 // Per-vertex mesh data
	VertexSlotInstance = 1 // Per-instance world matrices
)

// Bind group indices used when drawing; the camera group is bound by whoever opened the pass.
const (
	BindGroupCamera   = 0
	BindGroupMaterial = 1
)

// RenderPass records draw commands. It's opened and configured (pipeline, camera uniforms, render targets) by the caller;
// Scene.Render only binds per-batch state and issues draws.
type RenderPass interface {
	SetVertexBuffer(slot int, buffer Buffer)
	SetIndexBuffer(buffer Buffer)
	SetBindGroup(index int, group BindGroup)
	// DrawIndexed draws indexCount indices for each of instanceCount instances.
	DrawIndexed(indexCount, instanceCount int)
}
