// Package healpix implements the RING-scheme HEALPix sky pixelization
// used to slice observations by sky position: every pixel covers the
// same solid angle, so per-pixel statistics are directly comparable
// across the sky.
package healpix

import "math"

// Npix returns the number of pixels at resolution nside.
func Npix(nside int) int {
	return 12 * nside * nside
}

// PixArea returns the solid angle of one pixel in steradians.
func PixArea(nside int) float64 {
	return 4 * math.Pi / float64(Npix(nside))
}

// Ang2Pix maps a direction given by colatitude theta (radians, 0 at the
// north pole) and longitude phi (radians) to a RING-scheme pixel index.
func Ang2Pix(nside int, theta, phi float64) int {
	z := math.Cos(theta)
	za := math.Abs(z)

	phi = math.Mod(phi, 2*math.Pi)
	if phi < 0 {
		phi += 2 * math.Pi
	}
	tt := phi / (math.Pi / 2) // in [0,4)

	ns := int(nside)
	ncap := 2 * ns * (ns - 1)

	if za <= 2.0/3.0 {
		// equatorial belt
		temp1 := float64(ns) * (0.5 + tt)
		temp2 := float64(ns) * z * 0.75
		jp := int(temp1 - temp2) // ascending edge line
		jm := int(temp1 + temp2) // descending edge line

		ir := ns + 1 + jp - jm // ring counter, 1..4nside-1
		kshift := 1 - ir&1

		ip := (jp + jm - ns + kshift + 1) / 2
		ip = ip % (4 * ns)
		if ip < 0 {
			ip += 4 * ns
		}
		return ncap + (ir-1)*4*ns + ip
	}

	// polar caps
	tp := tt - math.Floor(tt)
	tmp := float64(ns) * math.Sqrt(3*(1-za))
	jp := int(tp * tmp)
	jm := int((1 - tp) * tmp)

	ir := jp + jm + 1
	ip := int(tt*float64(ir)) % (4 * ir)
	if ip < 0 {
		ip += 4 * ir
	}
	if z > 0 {
		return 2*ir*(ir-1) + ip
	}
	return 12*ns*ns - 2*ir*(ir+1) + ip
}

// Pix2Ang returns the colatitude and longitude, in radians, of the
// center of the given RING-scheme pixel.
func Pix2Ang(nside, pix int) (theta, phi float64) {
	ns := nside
	npix := Npix(ns)
	ncap := 2 * ns * (ns - 1)

	var z float64
	switch {
	case pix < ncap:
		// north polar cap
		iring := (1 + isqrt(1+2*pix)) >> 1
		iphi := pix + 1 - 2*iring*(iring-1)
		z = 1 - float64(iring*iring)/(3*float64(ns*ns))
		phi = (float64(iphi) - 0.5) * math.Pi / (2 * float64(iring))

	case pix < npix-ncap:
		// equatorial belt
		ip := pix - ncap
		iring := ip/(4*ns) + ns
		iphi := ip%(4*ns) + 1
		fodd := 0.5 * float64(1+(iring+ns)%2)
		z = float64(2*ns-iring) * 2 / (3 * float64(ns))
		phi = (float64(iphi) - fodd) * math.Pi / (2 * float64(ns))

	default:
		// south polar cap
		ip := npix - pix
		iring := (1 + isqrt(2*ip-1)) >> 1
		iphi := 4*iring + 1 - (ip - 2*iring*(iring-1))
		z = -1 + float64(iring*iring)/(3*float64(ns*ns))
		phi = (float64(iphi) - 0.5) * math.Pi / (2 * float64(iring))
	}
	return math.Acos(z), phi
}

// RaDec2Pix maps equatorial coordinates in degrees to a pixel index.
func RaDec2Pix(nside int, ra, dec float64) int {
	theta := math.Pi/2 - dec*math.Pi/180
	phi := ra * math.Pi / 180
	return Ang2Pix(nside, theta, phi)
}

// Pix2RaDec returns the pixel center in equatorial degrees.
func Pix2RaDec(nside, pix int) (ra, dec float64) {
	theta, phi := Pix2Ang(nside, pix)
	return phi * 180 / math.Pi, 90 - theta*180/math.Pi
}

// isqrt returns the integer square root of v, guarding against float
// rounding near perfect squares.
func isqrt(v int) int {
	s := int(math.Sqrt(float64(v)))
	for (s+1)*(s+1) <= v {
		s++
	}
	for s*s > v {
		s--
	}
	return s
}
