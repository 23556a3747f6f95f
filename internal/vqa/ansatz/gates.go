package ansatz

import (
	"math"
	"math/cmplx"
)

type gate = [2][2]complex128

// ry is a real rotation by theta/2 in the pair subspace.
func ry(theta float64) gate {
	c, s := math.Cos(theta/2), math.Sin(theta/2)
	return gate{
		{complex(c, 0), complex(-s, 0)},
		{complex(s, 0), complex(c, 0)},
	}
}

// rz applies opposite phases exp(-i theta/2) and exp(+i theta/2).
func rz(theta float64) gate {
	return gate{
		{cmplx.Exp(complex(0, -theta/2)), 0},
		{0, cmplx.Exp(complex(0, theta/2))},
	}
}

// xx is the symmetric entangler [[cos, -i sin], [-i sin, cos]].
func xx(theta float64) gate {
	c, s := math.Cos(theta), math.Sin(theta)
	return gate{
		{complex(c, 0), complex(0, -s)},
		{complex(0, -s), complex(c, 0)},
	}
}

// rxHalf is xx at half angle, the node rotation of the Metatron ansatz.
func rxHalf(theta float64) gate {
	return xx(theta / 2)
}

// su2 is Rz(t1)·Ry(t2)·Rz(t3) folded into a single 2x2 block.
func su2(t1, t2, t3 float64) gate {
	c, s := math.Cos(t2/2), math.Sin(t2/2)
	p1 := cmplx.Exp(complex(0, t1/2))
	p3 := cmplx.Exp(complex(0, t3/2))
	return gate{
		{p1 * complex(c, 0) * p3, p1 * complex(-s, 0) * cmplx.Conj(p3)},
		{cmplx.Conj(p1) * complex(s, 0) * p3, cmplx.Conj(p1) * complex(c, 0) * cmplx.Conj(p3)},
	}
}
