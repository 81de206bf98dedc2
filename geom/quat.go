package geom

import "math"

// Quat is a unit quaternion representing an orientation.
// Stored as (X, Y, Z, W) with W the scalar part.
type Quat struct {
	X, Y, Z, W float32
}

// QuatIdentity returns the identity orientation.
func QuatIdentity() Quat {
	return Quat{W: 1}
}

// QuatFromAxisAngle builds a quaternion rotating angle radians around axis.
// The axis does not need to be normalized.
func QuatFromAxisAngle(axis Vec3, angle float32) Quat {
	n := axis.Normalized()
	half := float64(angle) * 0.5
	s := float32(math.Sin(half))
	return Quat{
		X: n.X * s,
		Y: n.Y * s,
		Z: n.Z * s,
		W: float32(math.Cos(half)),
	}
}

// QuatFromEuler builds a quaternion from XYZ Euler angles in radians.
func QuatFromEuler(e Vec3) Quat {
	cx := float32(math.Cos(float64(e.X) * 0.5))
	sx := float32(math.Sin(float64(e.X) * 0.5))
	cy := float32(math.Cos(float64(e.Y) * 0.5))
	sy := float32(math.Sin(float64(e.Y) * 0.5))
	cz := float32(math.Cos(float64(e.Z) * 0.5))
	sz := float32(math.Sin(float64(e.Z) * 0.5))

	return Quat{
		X: sx*cy*cz - cx*sy*sz,
		Y: cx*sy*cz + sx*cy*sz,
		Z: cx*cy*sz - sx*sy*cz,
		W: cx*cy*cz + sx*sy*sz,
	}
}

// Mul returns the Hamilton product q * o. Applying the result rotates by o
// first, then by q.
func (q Quat) Mul(o Quat) Quat {
	return Quat{
		X: q.W*o.X + q.X*o.W + q.Y*o.Z - q.Z*o.Y,
		Y: q.W*o.Y - q.X*o.Z + q.Y*o.W + q.Z*o.X,
		Z: q.W*o.Z + q.X*o.Y - q.Y*o.X + q.Z*o.W,
		W: q.W*o.W - q.X*o.X - q.Y*o.Y - q.Z*o.Z,
	}
}

// Normalized rescales q to unit length. Repeated small-angle integration
// drifts off the unit sphere without this.
func (q Quat) Normalized() Quat {
	lsq := q.X*q.X + q.Y*q.Y + q.Z*q.Z + q.W*q.W
	if lsq < 1e-12 {
		return QuatIdentity()
	}
	inv := 1 / float32(math.Sqrt(float64(lsq)))
	return Quat{q.X * inv, q.Y * inv, q.Z * inv, q.W * inv}
}

// Length returns the quaternion's magnitude (1 for valid orientations).
func (q Quat) Length() float32 {
	return float32(math.Sqrt(float64(q.X*q.X + q.Y*q.Y + q.Z*q.Z + q.W*q.W)))
}

// Rotate applies the rotation to v.
func (q Quat) Rotate(v Vec3) Vec3 {
	// v' = v + 2*cross(q.xyz, cross(q.xyz, v) + q.w*v)
	u := Vec3{q.X, q.Y, q.Z}
	t := u.Cross(v).Add(v.Scale(q.W))
	return v.Add(u.Cross(t).Scale(2))
}

// Euler returns the XYZ Euler angle equivalent in radians.
func (q Quat) Euler() Vec3 {
	// Roll (X)
	sinX := 2 * (q.W*q.X + q.Y*q.Z)
	cosX := 1 - 2*(q.X*q.X+q.Y*q.Y)
	x := float32(math.Atan2(float64(sinX), float64(cosX)))

	// Pitch (Y), clamped to avoid NaN at the poles
	sinY := float64(2 * (q.W*q.Y - q.Z*q.X))
	if sinY > 1 {
		sinY = 1
	} else if sinY < -1 {
		sinY = -1
	}
	y := float32(math.Asin(sinY))

	// Yaw (Z)
	sinZ := 2 * (q.W*q.Z + q.X*q.Y)
	cosZ := 1 - 2*(q.Y*q.Y+q.Z*q.Z)
	z := float32(math.Atan2(float64(sinZ), float64(cosZ)))

	return Vec3{x, y, z}
}

// Integrate advances the orientation by angular velocity omega (radians per
// second) over dt, returning the renormalized result.
func (q Quat) Integrate(omega Vec3, dt float32) Quat {
	angle := omega.Length() * dt
	if angle < 1e-9 {
		return q
	}
	dq := QuatFromAxisAngle(omega, angle)
	return dq.Mul(q).Normalized()
}
