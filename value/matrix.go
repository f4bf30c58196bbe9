package value

// Matrix2D, Matrix3D, Matrix4D are row-major double-precision square
// matrices. USD only ever authors double-precision matrices (matrix2d,
// matrix3d, matrix4d); there is no half/float matrix width. The method
// shape (Identity/Set/Multiply) mirrors the teacher's math32.Matrix4, now
// reimplemented over float64 since math32's own Matrix4 is float32-backed
// and would silently lose precision on round-trip.
type Matrix2D [4]float64
type Matrix3D [9]float64
type Matrix4D [16]float64

// Identity2D, Identity3D, Identity4D return identity matrices.
func Identity2D() Matrix2D { return Matrix2D{1, 0, 0, 1} }
func Identity3D() Matrix3D { return Matrix3D{1, 0, 0, 0, 1, 0, 0, 0, 1} }
func Identity4D() Matrix4D {
	return Matrix4D{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}
}

// MultiplyVector4 returns m * v, matching math32.Matrix4.MultiplyVector4's
// row-major convention.
func (m Matrix4D) MultiplyVector4(v Vec4D) Vec4D {
	return Vec4D{
		X: m[0]*v.X + m[1]*v.Y + m[2]*v.Z + m[3]*v.W,
		Y: m[4]*v.X + m[5]*v.Y + m[6]*v.Z + m[7]*v.W,
		Z: m[8]*v.X + m[9]*v.Y + m[10]*v.Z + m[11]*v.W,
		W: m[12]*v.X + m[13]*v.Y + m[14]*v.Z + m[15]*v.W,
	}
}

// Multiply returns m * o.
func (m Matrix4D) Multiply(o Matrix4D) Matrix4D {
	var r Matrix4D
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			var sum float64
			for k := 0; k < 4; k++ {
				sum += m[row*4+k] * o[k*4+col]
			}
			r[row*4+col] = sum
		}
	}
	return r
}
