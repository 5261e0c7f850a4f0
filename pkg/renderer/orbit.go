package renderer

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

const polarEpsilon = 1e-4

// OrbitControls rotates and dollies a camera around a target point,
// using the camera's Up vector as the orbit axis
type OrbitControls struct {
	Camera      *Camera
	Target      mgl32.Vec3
	MinDistance float32
	MaxDistance float32
}

// NewOrbitControls creates controls orbiting the world origin
func NewOrbitControls(cam *Camera) *OrbitControls {
	return &OrbitControls{Camera: cam, MaxDistance: math32.Inf(1)}
}

// Update aims the camera at the target
func (o *OrbitControls) Update() {
	o.Camera.LookAt(o.Target)
}

// Rotate moves the camera by dAzimuth around the up axis and by dPolar
// toward or away from it, in radians. The polar angle stays strictly
// between the poles.
func (o *OrbitControls) Rotate(dAzimuth, dPolar float32) {
	radius, theta, phi := o.spherical()
	theta += dAzimuth
	phi = mgl32.Clamp(phi+dPolar, polarEpsilon, math32.Pi-polarEpsilon)
	o.setSpherical(radius, theta, phi)
}

// Dolly multiplies the camera distance by scale, within the distance limits
func (o *OrbitControls) Dolly(scale float32) {
	if scale <= 0 {
		return
	}
	radius, theta, phi := o.spherical()
	o.setSpherical(mgl32.Clamp(radius*scale, o.MinDistance, o.MaxDistance), theta, phi)
}

// Distance returns the camera distance from the target
func (o *OrbitControls) Distance() float32 {
	return o.Camera.Position.Sub(o.Target).Len()
}

// toYUp rotates the camera's up vector onto +Y
func (o *OrbitControls) toYUp() mgl32.Quat {
	up := o.Camera.Up
	if up.Len() == 0 {
		return mgl32.QuatIdent()
	}
	return mgl32.QuatBetweenVectors(up.Normalize(), mgl32.Vec3{0, 1, 0})
}

func (o *OrbitControls) spherical() (radius, theta, phi float32) {
	offset := o.toYUp().Rotate(o.Camera.Position.Sub(o.Target))
	radius = offset.Len()
	if radius == 0 {
		return 0, 0, math32.Pi / 2
	}
	theta = math32.Atan2(offset.X(), offset.Z())
	phi = math32.Acos(mgl32.Clamp(offset.Y()/radius, -1, 1))
	return radius, theta, phi
}

func (o *OrbitControls) setSpherical(radius, theta, phi float32) {
	sinPhi := math32.Sin(phi)
	offset := mgl32.Vec3{
		radius * sinPhi * math32.Sin(theta),
		radius * math32.Cos(phi),
		radius * sinPhi * math32.Cos(theta),
	}
	offset = o.toYUp().Inverse().Rotate(offset)
	o.Camera.Position = o.Target.Add(offset)
	o.Update()
}
