package scenecore

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"log/slog"
	"sync"
)

var errInjected = errors.New("injected failure")

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeBuffer struct {
	device   *fakeDevice
	kind     string
	count    int
	released bool
}

func (buffer *fakeBuffer) Release() {
	if !buffer.released {
		buffer.released = true
		buffer.device.live--
	}
}

type fakeObject struct {
	device   *fakeDevice
	released bool
}

func (obj *fakeObject) Release() {
	if !obj.released {
		obj.released = true
		obj.device.live--
	}
}

// fakeDevice hands out CPU-side stand-ins for GPU objects and keeps count of how many are alive.
type fakeDevice struct {
	live    int
	created map[string]int

	failInstances bool
	failVertices  bool
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{created: map[string]int{}}
}

func (device *fakeDevice) buffer(kind string, count int) *fakeBuffer {
	device.live++
	device.created[kind]++
	return &fakeBuffer{device: device, kind: kind, count: count}
}

func (device *fakeDevice) CreateVertexBuffer(label string, vertices []Vertex) (Buffer, error) {
	if device.failVertices {
		return nil, errInjected
	}
	return device.buffer("vertex", len(vertices)), nil
}

func (device *fakeDevice) CreateIndexBuffer(label string, indices []uint32) (Buffer, error) {
	return device.buffer("index", len(indices)), nil
}

func (device *fakeDevice) CreateInstanceBuffer(label string, instances []Matrix4) (Buffer, error) {
	if device.failInstances {
		return nil, errInjected
	}
	return device.buffer("instance", len(instances)), nil
}

func (device *fakeDevice) CreateTexture(label string, img image.Image) (GPUTexture, error) {
	device.live++
	device.created["texture"]++
	return &fakeObject{device: device}, nil
}

func (device *fakeDevice) CreateMaterialBindGroup(label string, material MaterialData, texture GPUTexture) (BindGroup, error) {
	device.live++
	device.created["bindgroup"]++
	return &fakeObject{device: device}, nil
}

type drawCall struct {
	mesh      Buffer
	instances Buffer
	material  BindGroup
	indices   int
	count     int
}

// fakePass records the draw calls made through it.
type fakePass struct {
	vertex, instance, index Buffer
	material                BindGroup
	draws                   []drawCall
}

func (pass *fakePass) SetVertexBuffer(slot int, buffer Buffer) {
	if slot == VertexSlotMesh {
		pass.vertex = buffer
	} else {
		pass.instance = buffer
	}
}

func (pass *fakePass) SetIndexBuffer(buffer Buffer) { pass.index = buffer }

func (pass *fakePass) SetBindGroup(index int, group BindGroup) {
	if index == BindGroupMaterial {
		pass.material = group
	}
}

func (pass *fakePass) DrawIndexed(indexCount, instanceCount int) {
	pass.draws = append(pass.draws, drawCall{
		mesh:      pass.vertex,
		instances: pass.instance,
		material:  pass.material,
		indices:   indexCount,
		count:     instanceCount,
	})
}

// fakeImporter serves cubes for every mesh GUID starting with "mesh", plain materials for every GUID starting with
// "mat", and small images for every GUID starting with "tex". Scenes are served from the scenes map.
type fakeImporter struct {
	mu sync.Mutex

	scenes       map[string]SceneData
	textured     map[GUID]GUID // Material GUID -> texture GUID
	failMeshes   map[GUID]bool
	meshImports  map[GUID]int
	matImports   map[GUID]int
	texImports   map[GUID]int
	blockPath    string        // ImportScene of this path waits until ctx is done
	sceneStarted chan struct{} // Signalled when the blocking import starts
}

func newFakeImporter() *fakeImporter {
	return &fakeImporter{
		scenes:      map[string]SceneData{},
		textured:    map[GUID]GUID{},
		failMeshes:  map[GUID]bool{},
		meshImports: map[GUID]int{},
		matImports:  map[GUID]int{},
		texImports:  map[GUID]int{},
	}
}

func (importer *fakeImporter) ImportScene(ctx context.Context, path string) (SceneData, error) {

	if path == importer.blockPath {
		if importer.sceneStarted != nil {
			importer.sceneStarted <- struct{}{}
		}
		<-ctx.Done()
		return SceneData{}, ctx.Err()
	}

	importer.mu.Lock()
	defer importer.mu.Unlock()

	data, ok := importer.scenes[path]
	if !ok {
		return SceneData{}, fmt.Errorf("scene %s: %w", path, errInjected)
	}
	return data, nil

}

func (importer *fakeImporter) ImportMesh(ctx context.Context, guid GUID) (MeshData, error) {
	importer.mu.Lock()
	defer importer.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return MeshData{}, err
	}
	if importer.failMeshes[guid] {
		return MeshData{}, errInjected
	}
	importer.meshImports[guid]++
	return NewCubeMeshData(guid), nil
}

func (importer *fakeImporter) ImportMaterial(ctx context.Context, guid GUID) (MaterialData, error) {
	importer.mu.Lock()
	defer importer.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return MaterialData{}, err
	}
	importer.matImports[guid]++
	return MaterialData{GUID: guid, Name: string(guid), BaseColor: White, Texture: importer.textured[guid]}, nil
}

func (importer *fakeImporter) ImportTexture(ctx context.Context, guid GUID) (TextureData, error) {
	importer.mu.Lock()
	defer importer.mu.Unlock()
	importer.texImports[guid]++
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.Black)
	return TextureData{GUID: guid, Name: string(guid), Image: img}, nil
}

func newTestResources(importer Importer, device Device) *ResourceManager {
	options := DefaultResourceOptions()
	options.Logger = quietLogger()
	return NewResourceManager(importer, device, options)
}

func newTestOptions() Options {
	options := DefaultOptions()
	options.Logger = quietLogger()
	return options
}

func newTestScene() (*Scene, *fakeImporter, *fakeDevice) {
	importer := newFakeImporter()
	device := newFakeDevice()
	scene := NewScene("test", newTestResources(importer, device), NewController(0), newTestOptions())
	return scene, importer, device
}
