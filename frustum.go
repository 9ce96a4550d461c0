package scenecore

// Plane is an infinite plane described by a unit normal and a signed distance from the origin, such that a point p lies on the
// plane when Normal·p + Distance == 0. Points on the side the normal faces have a positive distance.
type Plane struct {
	Normal   Vector3
	Distance float32
}

// Normalized returns the Plane scaled so that its normal is of unit length. A degenerate plane (zero normal) is returned as-is.
func (plane Plane) Normalized() Plane {
	l := plane.Normal.Magnitude()
	if l == 0 {
		return plane
	}
	return Plane{Normal: plane.Normal.Divide(l), Distance: plane.Distance / l}
}

// DistanceToPoint returns the signed distance from the plane to the point.
func (plane Plane) DistanceToPoint(point Vector3) float32 {
	return plane.Normal.Dot(point) + plane.Distance
}

func planeFromVector4(v Vector4) Plane {
	return Plane{Normal: Vector3{v.X, v.Y, v.Z}, Distance: v.W}.Normalized()
}

// Indices into Frustum.Planes.
const (
	PlaneLeft = iota
	PlaneRight
	PlaneBottom
	PlaneTop
	PlaneNear
	PlaneFar
)

// CullingResult is the classification of a bounding volume against a Frustum.
type CullingResult int

const (
	Outside      CullingResult = iota // Completely outside the frustum
	Intersecting                      // Partially inside the frustum
	Inside                            // Completely inside the frustum
)

func (result CullingResult) String() string {
	switch result {
	case Outside:
		return "Outside"
	case Intersecting:
		return "Intersecting"
	case Inside:
		return "Inside"
	}
	return "Unknown"
}

// Frustum is the volume visible to a camera, as 6 inward-facing planes.
type Frustum struct {
	Planes [6]Plane
}

// NewFrustum extracts the frustum planes from a view-projection matrix (Gribb / Hartmann). Matrices in this package take row
// vectors, so clip-space coordinates are the dot products of a point with the matrix's columns; each plane is a sum or difference
// of the W column with one of the others.
func NewFrustum(viewProjection Matrix4) Frustum {

	x := viewProjection.Column(0)
	y := viewProjection.Column(1)
	z := viewProjection.Column(2)
	w := viewProjection.Column(3)

	f := Frustum{}
	f.Planes[PlaneLeft] = planeFromVector4(w.Add(x))
	f.Planes[PlaneRight] = planeFromVector4(w.Sub(x))
	f.Planes[PlaneBottom] = planeFromVector4(w.Add(y))
	f.Planes[PlaneTop] = planeFromVector4(w.Sub(y))
	f.Planes[PlaneNear] = planeFromVector4(w.Add(z))
	f.Planes[PlaneFar] = planeFromVector4(w.Sub(z))
	return f

}

// TestAABB classifies the AABB against the frustum. For each plane, the corner farthest along the plane's normal (the positive
// vertex) and the nearest corner (the negative vertex) are checked; if the positive vertex is behind any plane, the box is Outside.
func (f Frustum) TestAABB(box AABB) CullingResult {

	result := Inside

	for _, plane := range f.Planes {

		positive := box.Min
		negative := box.Max

		if plane.Normal.X >= 0 {
			positive.X, negative.X = box.Max.X, box.Min.X
		}
		if plane.Normal.Y >= 0 {
			positive.Y, negative.Y = box.Max.Y, box.Min.Y
		}
		if plane.Normal.Z >= 0 {
			positive.Z, negative.Z = box.Max.Z, box.Min.Z
		}

		if plane.DistanceToPoint(positive) < 0 {
			return Outside
		}

		if plane.DistanceToPoint(negative) < 0 {
			result = Intersecting
		}

	}

	return result

}

// IsVisible returns true if any part of the AABB could be inside the frustum.
func (f Frustum) IsVisible(box AABB) bool {
	return f.TestAABB(box) != Outside
}

// ContainsPoint returns true if the point lies inside all 6 planes.
func (f Frustum) ContainsPoint(point Vector3) bool {
	for _, plane := range f.Planes {
		if plane.DistanceToPoint(point) < 0 {
			return false
		}
	}
	return true
}
