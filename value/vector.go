// Package value implements the USD value system (section 4.2): a tagged
// union over scalar, vector, matrix, quaternion, color, token, string,
// asset, path, reference and dictionary payloads, keyed by a closed
// registry of canonical USD type names. Half, float and double precision
// variants of every vector/quaternion type are all defined here directly
// (the teacher's math32 package only ever needed float32 vectors for
// rendering and carries none of the half/double forms this registry
// requires, and keeping it around unused just to alias Vec3F to
// math32.Vector3 would mean shipping a large leaf package for one type
// definition; see DESIGN.md).
package value

import "golang.org/x/image/math/f16"

// Half is the half-precision scalar backing every "h"-suffixed USD type,
// backed by golang.org/x/image/math/f16 rather than a hand-rolled bit
// layout.
type Half = f16.Float16

// Vec2H, Vec3H, Vec4H are half-precision vectors.
type Vec2H struct{ X, Y Half }
type Vec3H struct{ X, Y, Z Half }
type Vec4H struct{ X, Y, Z, W Half }

// Vec2D, Vec3D, Vec4D are double-precision vectors.
type Vec2D struct{ X, Y float64 }
type Vec3D struct{ X, Y, Z float64 }
type Vec4D struct{ X, Y, Z, W float64 }

// Vec2F, Vec3F, Vec4F are float-precision vectors.
type Vec2F = struct{ X, Y float32 }
type Vec3F = struct{ X, Y, Z float32 }
type Vec4F = struct{ X, Y, Z, W float32 }

// QuatH, QuatF, QuatD are quaternions (x, y, z, w) at each precision.
type QuatH struct{ X, Y, Z, W Half }
type QuatF = struct{ X, Y, Z, W float32 }
type QuatD struct{ X, Y, Z, W float64 }

// Int2, Int3, Int4 are integer vectors (only a double-width analog of
// their real-valued counterparts exists in USD; there is no half/float
// split for integers).
type Int2 struct{ X, Y int32 }
type Int3 struct{ X, Y, Z int32 }
type Int4 struct{ X, Y, Z, W int32 }

