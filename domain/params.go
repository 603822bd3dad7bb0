package domain

import "strings"

// paramKind classifies a Coverage-JSON parameter name into the BUFR slot
// it fills, per the prefix/suffix table.
type paramKind int

const (
	paramUnknown paramKind = iota
	paramPressure
	paramMSLPressure
	paramTemperature
	paramDewPoint
	paramRelativeHumidity
	paramWindSpeed
	paramWindDirection
	paramPrecipitation1h
	paramPrecipitation12h
	paramPrecipitation24h
	paramLongwaveRadiation1h
	paramLongwaveRadiation12h
)

const longwaveRadiationName = "integral_wrt_time_of_surface_downwelling_longwave_flux_in_air"

// classifyParam recognises a parameter name via the prefix/suffix table.
// Matching is independent per name: a name matching no predicate is
// paramUnknown and contributes nothing.
func classifyParam(name string) paramKind {
	switch {
	case strings.HasPrefix(name, "air_pressure_at_mean_sea_level:"):
		return paramMSLPressure
	case strings.HasPrefix(name, "air_pressure:"):
		return paramPressure
	case strings.HasPrefix(name, "air_temperature"):
		return paramTemperature
	case strings.HasPrefix(name, "dew_point_temperature"):
		return paramDewPoint
	case strings.HasPrefix(name, "relative_humidity"):
		return paramRelativeHumidity
	case strings.HasPrefix(name, "wind_speed"):
		return paramWindSpeed
	case strings.HasPrefix(name, "wind_from_direction"):
		return paramWindDirection
	case strings.HasPrefix(name, "precipitation_amount") && strings.HasSuffix(name, ":sum:PT24H"):
		return paramPrecipitation24h
	case strings.HasPrefix(name, "precipitation_amount") && strings.HasSuffix(name, ":sum:PT12H"):
		return paramPrecipitation12h
	case strings.HasPrefix(name, "precipitation_amount") && strings.HasSuffix(name, ":sum:PT1H"):
		return paramPrecipitation1h
	case strings.HasPrefix(name, longwaveRadiationName) && strings.HasSuffix(name, ":sum:PT12H"):
		return paramLongwaveRadiation12h
	case strings.HasPrefix(name, longwaveRadiationName) && strings.HasSuffix(name, ":sum:PT1H"):
		return paramLongwaveRadiation1h
	default:
		return paramUnknown
	}
}

// sensorLevel extracts the substring between the first and second ':' in a
// parameter name, e.g. "air_temperature:2.0:point:PT0S" -> "2.0". Returns
// false when the name has fewer than two ':' separators.
func sensorLevel(name string) (string, bool) {
	first := strings.IndexByte(name, ':')
	if first < 0 {
		return "", false
	}
	rest := name[first+1:]
	second := strings.IndexByte(rest, ':')
	if second < 0 {
		return "", false
	}

	return rest[:second], true
}

// canonicalizeUnit converts a raw value to the BUFR-native unit for kind,
// hPa -> Pa (x100) for pressures; any non-"K" temperature
// unit is treated as degrees Celsius and converted by adding 273.16;
// relative humidity is a fraction, divided by 100. Each parameter's own
// unit governs its own conversion — this is the resolution of the
// original's dew-point/temperature unit mixup, deliberately not repeated.
func canonicalizeUnit(kind paramKind, value float64, unit string) float64 {
	switch kind {
	case paramPressure, paramMSLPressure:
		if strings.EqualFold(unit, "hPa") {
			return value * 100
		}

		return value
	case paramTemperature, paramDewPoint:
		if unit != "K" {
			return value + 273.16
		}

		return value
	case paramRelativeHumidity:
		return value / 100

	default:
		return value
	}
}
