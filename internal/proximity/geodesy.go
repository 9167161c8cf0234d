package proximity

import "math"

// WGS84 ellipsoid parameters.
const (
	wgs84A = 6378137.0         // semi-major axis, meters
	wgs84F = 1 / 298.257223563 // flattening
)

const feetPerMeter = 3.280839895013123

// ValidCoordinates reports whether a lat/long pair is inside the WGS84
// coordinate ranges.
func ValidCoordinates(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// DistanceFeet returns the geodesic distance in feet between two WGS84
// points, using Vincenty's inverse formula on the ellipsoid. Inputs must be
// valid coordinates. For the rare near-antipodal pairs where Vincenty fails
// to converge it falls back to the spherical great-circle distance.
func DistanceFeet(lat1, lon1, lat2, lon2 float64) float64 {
	return vincentyMeters(lat1, lon1, lat2, lon2) * feetPerMeter
}

func vincentyMeters(lat1, lon1, lat2, lon2 float64) float64 {
	if lat1 == lat2 && lon1 == lon2 {
		return 0
	}

	const b = wgs84A * (1 - wgs84F)

	u1 := math.Atan((1 - wgs84F) * math.Tan(radians(lat1)))
	u2 := math.Atan((1 - wgs84F) * math.Tan(radians(lat2)))
	l := radians(lon2 - lon1)

	sinU1, cosU1 := math.Sincos(u1)
	sinU2, cosU2 := math.Sincos(u2)

	lambda := l
	for i := 0; i < 200; i++ {
		sinLambda, cosLambda := math.Sincos(lambda)

		sinSigma := math.Sqrt(
			(cosU2*sinLambda)*(cosU2*sinLambda) +
				(cosU1*sinU2-sinU1*cosU2*cosLambda)*(cosU1*sinU2-sinU1*cosU2*cosLambda))
		if sinSigma == 0 {
			return 0 // coincident points
		}
		cosSigma := sinU1*sinU2 + cosU1*cosU2*cosLambda
		sigma := math.Atan2(sinSigma, cosSigma)

		sinAlpha := cosU1 * cosU2 * sinLambda / sinSigma
		cosSqAlpha := 1 - sinAlpha*sinAlpha

		var cos2SigmaM float64
		if cosSqAlpha != 0 {
			cos2SigmaM = cosSigma - 2*sinU1*sinU2/cosSqAlpha
		}

		c := wgs84F / 16 * cosSqAlpha * (4 + wgs84F*(4-3*cosSqAlpha))
		prev := lambda
		lambda = l + (1-c)*wgs84F*sinAlpha*
			(sigma+c*sinSigma*(cos2SigmaM+c*cosSigma*(-1+2*cos2SigmaM*cos2SigmaM)))

		if math.Abs(lambda-prev) < 1e-12 {
			uSq := cosSqAlpha * (wgs84A*wgs84A - b*b) / (b * b)
			a := 1 + uSq/16384*(4096+uSq*(-768+uSq*(320-175*uSq)))
			bb := uSq / 1024 * (256 + uSq*(-128+uSq*(74-47*uSq)))
			deltaSigma := bb * sinSigma * (cos2SigmaM + bb/4*
				(cosSigma*(-1+2*cos2SigmaM*cos2SigmaM)-
					bb/6*cos2SigmaM*(-3+4*sinSigma*sinSigma)*(-3+4*cos2SigmaM*cos2SigmaM)))
			return b * a * (sigma - deltaSigma)
		}
	}

	return haversineMeters(lat1, lon1, lat2, lon2)
}

const earthRadiusMeters = 6371000

func haversineMeters(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := radians(lat2 - lat1)
	dLon := radians(lon2 - lon1)
	lat1Rad := radians(lat1)
	lat2Rad := radians(lat2)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusMeters * c
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
