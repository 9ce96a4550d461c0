package scenecore

import "github.com/chewxy/math32"

// AABB is an axis-aligned bounding box, described by its minimum and maximum corners.
type AABB struct {
	Min Vector3
	Max Vector3
}

// NewAABB returns an AABB spanning the two corners given, in any order.
func NewAABB(a, b Vector3) AABB {
	return AABB{Min: a.Min(b), Max: a.Max(b)}
}

// NewAABBFromCenter returns an AABB centered on center, extending by extents in each direction.
func NewAABBFromCenter(center, extents Vector3) AABB {
	return AABB{Min: center.Sub(extents), Max: center.Add(extents)}
}

// NewAABBFromPoints returns the smallest AABB containing every point given. An empty AABB (zero Min and Max) is
// returned if there are no points.
func NewAABBFromPoints(points ...Vector3) AABB {
	if len(points) == 0 {
		return AABB{}
	}
	box := AABB{Min: points[0], Max: points[0]}
	for _, p := range points[1:] {
		box.Min = box.Min.Min(p)
		box.Max = box.Max.Max(p)
	}
	return box
}

// Center returns the center point of the AABB.
func (box AABB) Center() Vector3 {
	return box.Min.Add(box.Max).Scale(0.5)
}

// Size returns the dimensions of the AABB.
func (box AABB) Size() Vector3 {
	return box.Max.Sub(box.Min)
}

// Corners returns the 8 corners of the AABB.
func (box AABB) Corners() [8]Vector3 {
	return [8]Vector3{
		{box.Min.X, box.Min.Y, box.Min.Z},
		{box.Max.X, box.Min.Y, box.Min.Z},
		{box.Min.X, box.Max.Y, box.Min.Z},
		{box.Max.X, box.Max.Y, box.Min.Z},
		{box.Min.X, box.Min.Y, box.Max.Z},
		{box.Max.X, box.Min.Y, box.Max.Z},
		{box.Min.X, box.Max.Y, box.Max.Z},
		{box.Max.X, box.Max.Y, box.Max.Z},
	}
}

// Transform returns the AABB that bounds this box after transforming it by the given matrix. All 8 corners are transformed
// and the min / max re-derived, so under rotation the result is looser than the original box.
func (box AABB) Transform(matrix Matrix4) AABB {
	corners := box.Corners()
	for i := range corners {
		corners[i] = matrix.MultVec(corners[i])
	}
	return NewAABBFromPoints(corners[:]...)
}

// Contains returns true if the point is inside (or on the surface of) the AABB.
func (box AABB) Contains(point Vector3) bool {
	return point.X >= box.Min.X && point.X <= box.Max.X &&
		point.Y >= box.Min.Y && point.Y <= box.Max.Y &&
		point.Z >= box.Min.Z && point.Z <= box.Max.Z
}

// Union returns the smallest AABB containing both boxes.
func (box AABB) Union(other AABB) AABB {
	return AABB{Min: box.Min.Min(other.Min), Max: box.Max.Max(other.Max)}
}

// Ray is a half-line starting at Origin and heading along Direction.
type Ray struct {
	Origin    Vector3
	Direction Vector3
}

// IntersectRay tests the ray against the AABB using the slab method. If the ray hits, the distance along the ray
// to the entry point is returned (0 if the ray starts inside the box).
func (box AABB) IntersectRay(ray Ray) (float32, bool) {

	tMin := float32(0)
	tMax := math32.Inf(1)

	origin := ray.Origin.Floats()
	dir := ray.Direction.Floats()
	lo := box.Min.Floats()
	hi := box.Max.Floats()

	for axis := 0; axis < 3; axis++ {

		if math32.Abs(dir[axis]) < 1e-8 {
			// Parallel to this slab; a miss unless the origin lies within it
			if origin[axis] < lo[axis] || origin[axis] > hi[axis] {
				return 0, false
			}
			continue
		}

		inv := 1 / dir[axis]
		t1 := (lo[axis] - origin[axis]) * inv
		t2 := (hi[axis] - origin[axis]) * inv
		if t1 > t2 {
			t1, t2 = t2, t1
		}

		tMin = math32.Max(tMin, t1)
		tMax = math32.Min(tMax, t2)

		if tMin > tMax {
			return 0, false
		}

	}

	return tMin, true

}
