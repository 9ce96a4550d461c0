// Package ebitengpu draws scenecore scenes with Ebitengine. Ebitengine doesn't expose vertex buffers or instancing, so
// buffers here live in CPU memory and the RenderPass expands each instanced draw into screen-space triangles, which are
// depth sorted and drawn with Image.DrawTriangles when the pass ends.
package ebitengpu

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"sync/atomic"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/solarlune/scenecore"
)

// ErrReleased is returned when a released object is used to create another.
var ErrReleased = errors.New("object has been released")

// DeviceStats counts the GPU objects a Device currently has alive.
type DeviceStats struct {
	Buffers    int64
	Textures   int64
	BindGroups int64
}

// Device implements scenecore.Device on top of Ebitengine. It's safe for concurrent use; images can be created before or
// while the game runs.
type Device struct {
	white *ebiten.Image

	buffers    atomic.Int64
	textures   atomic.Int64
	bindGroups atomic.Int64
}

// NewDevice creates a new Device.
func NewDevice() *Device {
	white := ebiten.NewImage(4, 4)
	white.Fill(color.White)
	return &Device{white: white}
}

// Stats returns the number of live objects the Device has created.
func (device *Device) Stats() DeviceStats {
	return DeviceStats{
		Buffers:    device.buffers.Load(),
		Textures:   device.textures.Load(),
		BindGroups: device.bindGroups.Load(),
	}
}

type vertexBuffer struct {
	label    string
	vertices []scenecore.Vertex
	live     *atomic.Int64
}

func (buffer *vertexBuffer) Release() {
	if buffer.vertices != nil {
		buffer.vertices = nil
		buffer.live.Add(-1)
	}
}

type indexBuffer struct {
	label   string
	indices []uint32
	live    *atomic.Int64
}

func (buffer *indexBuffer) Release() {
	if buffer.indices != nil {
		buffer.indices = nil
		buffer.live.Add(-1)
	}
}

type instanceBuffer struct {
	label     string
	instances []scenecore.Matrix4
	live      *atomic.Int64
}

func (buffer *instanceBuffer) Release() {
	if buffer.instances != nil {
		buffer.instances = nil
		buffer.live.Add(-1)
	}
}

// CreateVertexBuffer copies the vertices into a new buffer.
func (device *Device) CreateVertexBuffer(label string, vertices []scenecore.Vertex) (scenecore.Buffer, error) {
	if len(vertices) == 0 {
		return nil, fmt.Errorf("vertex buffer %s: %w", label, scenecore.ErrEmptyMesh)
	}
	device.buffers.Add(1)
	return &vertexBuffer{label: label, vertices: append([]scenecore.Vertex(nil), vertices...), live: &device.buffers}, nil
}

// CreateIndexBuffer copies the indices into a new buffer.
func (device *Device) CreateIndexBuffer(label string, indices []uint32) (scenecore.Buffer, error) {
	if len(indices) == 0 {
		return nil, fmt.Errorf("index buffer %s: %w", label, scenecore.ErrEmptyMesh)
	}
	device.buffers.Add(1)
	return &indexBuffer{label: label, indices: append([]uint32(nil), indices...), live: &device.buffers}, nil
}

// CreateInstanceBuffer copies the instance matrices into a new buffer.
func (device *Device) CreateInstanceBuffer(label string, instances []scenecore.Matrix4) (scenecore.Buffer, error) {
	if len(instances) == 0 {
		return nil, fmt.Errorf("instance buffer %s is empty", label)
	}
	device.buffers.Add(1)
	return &instanceBuffer{label: label, instances: append([]scenecore.Matrix4(nil), instances...), live: &device.buffers}, nil
}

type texture struct {
	label string
	image *ebiten.Image
	live  *atomic.Int64
}

func (tex *texture) Release() {
	if tex.image != nil {
		tex.image.Deallocate()
		tex.image = nil
		tex.live.Add(-1)
	}
}

// CreateTexture uploads img as a new ebiten.Image.
func (device *Device) CreateTexture(label string, img image.Image) (scenecore.GPUTexture, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, fmt.Errorf("texture %s has no pixels", label)
	}
	device.textures.Add(1)
	return &texture{label: label, image: ebiten.NewImageFromImage(img), live: &device.textures}, nil
}

type bindGroup struct {
	label    string
	color    scenecore.Color
	image    *ebiten.Image
	released bool
	live     *atomic.Int64
}

func (group *bindGroup) Release() {
	if !group.released {
		group.released = true
		group.image = nil
		group.live.Add(-1)
	}
}

// CreateMaterialBindGroup pairs a material's base color with its texture. Untextured materials draw with a white image.
func (device *Device) CreateMaterialBindGroup(label string, material scenecore.MaterialData, tex scenecore.GPUTexture) (scenecore.BindGroup, error) {

	img := device.white

	if tex != nil {
		t, ok := tex.(*texture)
		if !ok {
			return nil, fmt.Errorf("bind group %s: texture %T wasn't created by this device", label, tex)
		}
		if t.image == nil {
			return nil, fmt.Errorf("bind group %s: %w", label, ErrReleased)
		}
		img = t.image
	}

	device.bindGroups.Add(1)
	return &bindGroup{label: label, color: material.BaseColor, image: img, live: &device.bindGroups}, nil

}
