package ebitengpu

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/chewxy/math32"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/solarlune/scenecore"
)

// Vertices are indexed with uint16s, so draws are split before they'd overflow.
const maxVerticesPerDraw = math.MaxUint16

// PassStats describes what a finished RenderPass drew.
type PassStats struct {
	DrawCalls      int // DrawIndexed calls recorded
	Triangles      int // Triangles submitted, before culling
	DrawnTriangles int // Triangles that survived near-plane and backface culling
	ImageDraws     int // Calls made to Image.DrawTriangles
}

// triangle is a projected, shaded triangle waiting to be sorted and drawn.
type triangle struct {
	depth    float32
	image    *ebiten.Image
	vertices [3]ebiten.Vertex
}

// Pass is a scenecore.RenderPass drawing onto an ebiten.Image. Open one with Device.BeginPass(), record draws, then call End().
type Pass struct {
	target         *ebiten.Image
	viewProjection scenecore.Matrix4
	width, height  float32

	// BackfaceCulling skips triangles facing away from the camera. Defaults to true.
	BackfaceCulling bool
	// Lights shade each triangle by its face normal. If nil, triangles are drawn unlit.
	Lights *scenecore.Lights

	mesh      *vertexBuffer
	indices   *indexBuffer
	instances *instanceBuffer
	material  *bindGroup

	triangles []triangle
	vertices  []ebiten.Vertex
	indexList []uint16

	stats PassStats
	err   error
}

// BeginPass opens a pass drawing onto target from the camera's point of view, lit by lights (which may be nil).
func (device *Device) BeginPass(target *ebiten.Image, camera *scenecore.Camera, lights *scenecore.Lights) *Pass {
	bounds := target.Bounds()
	return &Pass{
		target:          target,
		viewProjection:  camera.ViewProjection(),
		width:           float32(bounds.Dx()),
		height:          float32(bounds.Dy()),
		BackfaceCulling: true,
		Lights:          lights,
	}
}

func (pass *Pass) fail(err error) {
	if pass.err == nil {
		pass.err = err
	}
}

// SetVertexBuffer binds a mesh or instance buffer to the given slot.
func (pass *Pass) SetVertexBuffer(slot int, buffer scenecore.Buffer) {
	switch slot {
	case scenecore.VertexSlotMesh:
		vb, ok := buffer.(*vertexBuffer)
		if !ok {
			pass.fail(fmt.Errorf("slot %d: %T isn't a vertex buffer", slot, buffer))
			return
		}
		pass.mesh = vb
	case scenecore.VertexSlotInstance:
		ib, ok := buffer.(*instanceBuffer)
		if !ok {
			pass.fail(fmt.Errorf("slot %d: %T isn't an instance buffer", slot, buffer))
			return
		}
		pass.instances = ib
	default:
		pass.fail(fmt.Errorf("unknown vertex buffer slot %d", slot))
	}
}

// SetIndexBuffer binds an index buffer.
func (pass *Pass) SetIndexBuffer(buffer scenecore.Buffer) {
	ib, ok := buffer.(*indexBuffer)
	if !ok {
		pass.fail(fmt.Errorf("%T isn't an index buffer", buffer))
		return
	}
	pass.indices = ib
}

// SetBindGroup binds a material. The camera group is set up by BeginPass, so anything bound to it is ignored.
func (pass *Pass) SetBindGroup(index int, group scenecore.BindGroup) {
	if index != scenecore.BindGroupMaterial {
		return
	}
	bg, ok := group.(*bindGroup)
	if !ok {
		pass.fail(fmt.Errorf("%T isn't a material bind group", group))
		return
	}
	pass.material = bg
}

// DrawIndexed projects indexCount indices of the bound mesh once for each of instanceCount instances.
func (pass *Pass) DrawIndexed(indexCount, instanceCount int) {

	if pass.mesh == nil || pass.indices == nil || pass.instances == nil || pass.material == nil {
		pass.fail(errors.New("DrawIndexed called without a mesh, index buffer, instance buffer, and material bound"))
		return
	}

	if pass.mesh.vertices == nil || pass.indices.indices == nil || pass.instances.instances == nil || pass.material.released {
		pass.fail(fmt.Errorf("DrawIndexed: %w", ErrReleased))
		return
	}

	indexCount = min(indexCount, len(pass.indices.indices))
	instanceCount = min(instanceCount, len(pass.instances.instances))

	pass.stats.DrawCalls++

	img := pass.material.image
	srcW := float32(img.Bounds().Dx())
	srcH := float32(img.Bounds().Dy())
	baseColor := pass.material.color

	verts := pass.mesh.vertices
	indices := pass.indices.indices

	for _, world := range pass.instances.instances[:instanceCount] {

		for i := 0; i+2 < indexCount; i += 3 {

			pass.stats.Triangles++

			var worldPos [3]scenecore.Vector3
			var clip [3]scenecore.Vector4
			behind := false

			for c := 0; c < 3; c++ {
				idx := indices[i+c]
				if int(idx) >= len(verts) {
					pass.fail(fmt.Errorf("index %d out of range of %d vertices", idx, len(verts)))
					return
				}
				worldPos[c] = world.MultVec(verts[idx].Position)
				clip[c] = pass.viewProjection.MultVecW(worldPos[c])
				if clip[c].W <= 0 {
					behind = true
				}
			}

			// Triangles crossing the camera plane aren't clipped, only skipped.
			if behind {
				continue
			}

			var ndc [3]scenecore.Vector3
			for c := range clip {
				ndc[c] = clip[c].PerspectiveDivide()
			}

			if pass.BackfaceCulling && signedArea(ndc[0], ndc[1], ndc[2]) <= 0 {
				continue
			}

			shade := pass.shade(worldPos)

			tri := triangle{
				depth: (clip[0].W + clip[1].W + clip[2].W) / 3,
				image: img,
			}

			for c := 0; c < 3; c++ {
				v := verts[indices[i+c]]
				tri.vertices[c] = ebiten.Vertex{
					DstX:   (ndc[c].X + 1) / 2 * pass.width,
					DstY:   (1 - ndc[c].Y) / 2 * pass.height,
					SrcX:   v.U * srcW,
					SrcY:   v.V * srcH,
					ColorR: baseColor.R * shade.R,
					ColorG: baseColor.G * shade.G,
					ColorB: baseColor.B * shade.B,
					ColorA: baseColor.A,
				}
			}

			pass.triangles = append(pass.triangles, tri)
			pass.stats.DrawnTriangles++

		}

	}

}

// signedArea returns twice the signed area of a triangle in normalized device coordinates; it's positive for
// counter-clockwise (front-facing) triangles.
func signedArea(a, b, c scenecore.Vector3) float32 {
	return (b.X-a.X)*(c.Y-a.Y) - (c.X-a.X)*(b.Y-a.Y)
}

// shade lights a triangle at its center. Light above 1 is clamped, as vertex colors can't brighten a texture.
func (pass *Pass) shade(worldPos [3]scenecore.Vector3) scenecore.Color {
	if pass.Lights == nil {
		return scenecore.White
	}
	normal := worldPos[1].Sub(worldPos[0]).Cross(worldPos[2].Sub(worldPos[0])).Unit()
	center := worldPos[0].Add(worldPos[1]).Add(worldPos[2]).Divide(3)
	light := pass.Lights.Light(center, normal)
	return scenecore.Color{R: math32.Min(light.R, 1), G: math32.Min(light.G, 1), B: math32.Min(light.B, 1), A: 1}
}

// End sorts every recorded triangle from back to front and draws them, batching consecutive triangles that share an image
// into one Image.DrawTriangles call. It returns the first error recorded during the pass.
func (pass *Pass) End() (PassStats, error) {

	slices.SortStableFunc(pass.triangles, func(a, b triangle) int {
		switch {
		case a.depth > b.depth:
			return -1
		case a.depth < b.depth:
			return 1
		}
		return 0
	})

	options := &ebiten.DrawTrianglesOptions{}

	flush := func(img *ebiten.Image) {
		if len(pass.vertices) == 0 {
			return
		}
		pass.target.DrawTriangles(pass.vertices, pass.indexList, img, options)
		pass.stats.ImageDraws++
		pass.vertices = pass.vertices[:0]
		pass.indexList = pass.indexList[:0]
	}

	var current *ebiten.Image

	for _, tri := range pass.triangles {
		if tri.image != current || len(pass.vertices)+3 > maxVerticesPerDraw {
			flush(current)
			current = tri.image
		}
		base := uint16(len(pass.vertices))
		pass.vertices = append(pass.vertices, tri.vertices[:]...)
		pass.indexList = append(pass.indexList, base, base+1, base+2)
	}

	flush(current)

	pass.triangles = pass.triangles[:0]

	return pass.stats, pass.err

}
