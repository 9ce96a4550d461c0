package scenecore

import (
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// vectorTween eases a Vector3 from one value to another over time, one gween.Tween per axis.
type vectorTween struct {
	x, y, z *gween.Tween
}

func newVectorTween(from, to Vector3, seconds float32, easing ease.TweenFunc) *vectorTween {
	return &vectorTween{
		x: gween.New(from.X, to.X, seconds, easing),
		y: gween.New(from.Y, to.Y, seconds, easing),
		z: gween.New(from.Z, to.Z, seconds, easing),
	}
}

func (vt *vectorTween) Update(dt float32) (Vector3, bool) {
	x, done := vt.x.Update(dt)
	y, _ := vt.y.Update(dt)
	z, _ := vt.z.Update(dt)
	return Vector3{x, y, z}, done
}

// Camera is a perspective camera placed at an eye position and looking at a target point.
type Camera struct {
	eye    Vector3
	target Vector3
	up     Vector3

	fieldOfView float32 // Vertical field of view in degrees
	aspect      float32
	near, far   float32

	// Easing function used by MoveEyeTo() and MoveTargetTo(). Defaults to ease.InOutQuad.
	Easing ease.TweenFunc

	eyeTween    *vectorTween
	targetTween *vectorTween

	updateProjection bool
	cachedProjection Matrix4
}

// NewCamera creates a new Camera for a view of the given width and height. The camera starts at {0, 0, 5} looking at the
// origin, with a 45 degree field of view, a near plane of 0.01 and a far plane of 1000.
func NewCamera(w, h int) *Camera {
	cam := &Camera{
		eye:              Vector3{0, 0, 5},
		target:           Vector3{},
		up:               WorldUp,
		fieldOfView:      45,
		near:             0.01,
		far:              1000,
		Easing:           ease.InOutQuad,
		updateProjection: true,
	}
	cam.Resize(w, h)
	return cam
}

// Resize updates the Camera's aspect ratio for a view of the given width and height.
func (camera *Camera) Resize(w, h int) {
	if w <= 0 || h <= 0 {
		return
	}
	aspect := float32(w) / float32(h)
	if aspect != camera.aspect {
		camera.aspect = aspect
		camera.updateProjection = true
	}
}

// AspectRatio returns the Camera's width divided by its height.
func (camera *Camera) AspectRatio() float32 { return camera.aspect }

// Eye returns the Camera's position.
func (camera *Camera) Eye() Vector3 { return camera.eye }

// SetEye moves the Camera immediately, cancelling any eye movement in progress.
func (camera *Camera) SetEye(eye Vector3) {
	camera.eye = eye
	camera.eyeTween = nil
}

// Target returns the point the Camera looks at.
func (camera *Camera) Target() Vector3 { return camera.target }

// SetTarget points the Camera at the target immediately, cancelling any target movement in progress.
func (camera *Camera) SetTarget(target Vector3) {
	camera.target = target
	camera.targetTween = nil
}

// Up returns the Camera's up vector.
func (camera *Camera) Up() Vector3 { return camera.up }

// SetUp sets the Camera's up vector.
func (camera *Camera) SetUp(up Vector3) { camera.up = up }

// MoveEyeTo eases the Camera's position to eye over the given number of seconds. A duration of 0 or less moves it immediately.
func (camera *Camera) MoveEyeTo(eye Vector3, seconds float32) {
	if seconds <= 0 {
		camera.SetEye(eye)
		return
	}
	camera.eyeTween = newVectorTween(camera.eye, eye, seconds, camera.Easing)
}

// MoveTargetTo eases the Camera's target to the given point over the given number of seconds.
func (camera *Camera) MoveTargetTo(target Vector3, seconds float32) {
	if seconds <= 0 {
		camera.SetTarget(target)
		return
	}
	camera.targetTween = newVectorTween(camera.target, target, seconds, camera.Easing)
}

// Moving returns true while an eased movement is in progress.
func (camera *Camera) Moving() bool {
	return camera.eyeTween != nil || camera.targetTween != nil
}

// Update advances any eased movement by dt seconds.
func (camera *Camera) Update(dt float32) {

	if camera.eyeTween != nil {
		eye, done := camera.eyeTween.Update(dt)
		camera.eye = eye
		if done {
			camera.eyeTween = nil
		}
	}

	if camera.targetTween != nil {
		target, done := camera.targetTween.Update(dt)
		camera.target = target
		if done {
			camera.targetTween = nil
		}
	}

}

// FieldOfView returns the vertical field of view in degrees.
func (camera *Camera) FieldOfView() float32 { return camera.fieldOfView }

// SetFieldOfView sets the vertical field of view in degrees.
func (camera *Camera) SetFieldOfView(fovY float32) {
	if camera.fieldOfView != fovY {
		camera.fieldOfView = fovY
		camera.updateProjection = true
	}
}

// Near returns the near clipping plane's distance.
func (camera *Camera) Near() float32 { return camera.near }

// Far returns the far clipping plane's distance.
func (camera *Camera) Far() float32 { return camera.far }

// SetClipPlanes sets the near and far clipping plane distances.
func (camera *Camera) SetClipPlanes(near, far float32) {
	if camera.near != near || camera.far != far {
		camera.near = near
		camera.far = far
		camera.updateProjection = true
	}
}

// ViewMatrix returns the Camera's view (world to camera) matrix.
func (camera *Camera) ViewMatrix() Matrix4 {
	return NewViewMatrix(camera.eye, camera.target, camera.up)
}

// Projection returns the Camera's projection matrix.
func (camera *Camera) Projection() Matrix4 {
	if camera.updateProjection {
		camera.cachedProjection = NewProjectionPerspective(camera.fieldOfView, camera.aspect, camera.near, camera.far)
		camera.updateProjection = false
	}
	return camera.cachedProjection
}

// ViewProjection returns the combined view and projection matrix, taking world space straight to clip space.
func (camera *Camera) ViewProjection() Matrix4 {
	return camera.ViewMatrix().Mult(camera.Projection())
}

// Frustum returns the Camera's current view frustum.
func (camera *Camera) Frustum() Frustum {
	return NewFrustum(camera.ViewProjection())
}

// ScreenRay returns a world-space ray from the Camera through the pixel (x, y) of a w by h view.
func (camera *Camera) ScreenRay(x, y, w, h float32) Ray {

	ndcX := 2*x/w - 1
	ndcY := 1 - 2*y/h

	inverse := camera.ViewProjection().Inverted()

	near := inverse.MultVecW(Vector3{ndcX, ndcY, -1}).PerspectiveDivide()
	far := inverse.MultVecW(Vector3{ndcX, ndcY, 1}).PerspectiveDivide()

	return Ray{Origin: near, Direction: far.Sub(near).Unit()}

}

// WorldToScreen projects a world-space point onto a w by h view, returning its pixel position and whether it's in front
// of the Camera.
func (camera *Camera) WorldToScreen(point Vector3, w, h float32) (float32, float32, bool) {
	clip := camera.ViewProjection().MultVecW(point)
	if clip.W <= 0 {
		return 0, 0, false
	}
	ndc := clip.PerspectiveDivide()
	return (ndc.X + 1) / 2 * w, (1 - ndc.Y) / 2 * h, true
}
