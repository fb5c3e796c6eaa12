package places

import (
	"fmt"

	"github.com/octobees/places-agent/internal/entity"
)

// Normalize converts a provider record into a Place. Missing fields default to "" or 0; a
// missing place id falls back to "<name>-<queryIndex>".
func Normalize(raw RawPlace, queryIndex int) entity.Place {
	place := entity.Place{
		Name:    deref(raw.Name),
		Address: deref(raw.FormattedAddress),
		Rating:  derefFloat(raw.Rating),
	}

	if raw.PlaceID != nil {
		place.ID = *raw.PlaceID
	} else {
		place.ID = fmt.Sprintf("%s-%d", place.Name, queryIndex)
	}

	if raw.Geometry != nil && raw.Geometry.Location != nil {
		place.Latitude = derefFloat(raw.Geometry.Location.Lat)
		place.Longitude = derefFloat(raw.Geometry.Location.Lng)
	}

	return place
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefFloat(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}
