package scenecore

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func BenchmarkVectorMath(b *testing.B) {

	b.StopTimer()

	maxSize := 1200

	vecs := make([]Vector3, 0, maxSize)

	for i := 0; i < maxSize; i++ {
		vecs = append(vecs, Vector3{rand.Float32(), rand.Float32(), rand.Float32()})
	}

	b.ReportAllocs()
	b.StartTimer()

	for z := 0; z < b.N; z++ {
		for i := 0; i < maxSize-1; i++ {
			vecs[i] = vecs[i].Add(vecs[i+1]).Cross(vecs[i]).Unit()
		}
	}

}

func TestVectorBasics(t *testing.T) {

	a := Vector3{1, 2, 3}
	b := Vector3{4, 5, 6}

	assert.Equal(t, Vector3{5, 7, 9}, a.Add(b))
	assert.Equal(t, Vector3{-3, -3, -3}, a.Sub(b))
	assert.Equal(t, float32(32), a.Dot(b))
	assert.Equal(t, Vector3{-3, 6, -3}, a.Cross(b))
	assert.Equal(t, Vector3{1, 2, 3}, a.Min(b))
	assert.Equal(t, Vector3{4, 5, 6}, a.Max(b))
	assert.Equal(t, Vector3{2.5, 3.5, 4.5}, a.Lerp(b, 0.5))

	assert.InDelta(t, 1, Vector3{3, 4, 0}.Unit().Magnitude(), 1e-6)
	assert.Equal(t, float32(5), Vector3{3, 4, 0}.Magnitude())
	assert.True(t, Vector3{}.Unit().IsZero(), "the unit of a zero vector is zero")

	assert.True(t, WorldRight.Cross(WorldUp).Equals(WorldBackward))

}

func TestVector4PerspectiveDivide(t *testing.T) {
	v := Vector4{2, 4, 6, 2}
	assert.Equal(t, Vector3{1, 2, 3}, v.PerspectiveDivide())
	assert.Equal(t, Vector3{2, 4, 6}, v.XYZ())
}
