package api

import (
	"net/http"

	"github.com/twpayne/go-geom"
	gjson "github.com/twpayne/go-geom/encoding/geojson"

	"routeshadow/internal/model"
)

// RoutesGeoJSONHandler handles GET /v1/routes.geojson. Each route becomes a
// LineString from the depot through its stops and back; each stop is a Point.
func (s *Server) RoutesGeoJSONHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	snap, ok := s.currentSnapshot()
	if !ok {
		writeProblem(w, http.StatusNotFound, "No snapshot", "no solution has been published yet", r.URL.Path)
		return
	}
	fc, err := routesFeatureCollection(snap)
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "GeoJSON failed", err.Error(), r.URL.Path)
		return
	}
	b, err := fc.MarshalJSON()
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "GeoJSON failed", err.Error(), r.URL.Path)
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	_, _ = w.Write(b)
}

func coord(p model.Point) geom.Coord { return geom.Coord{p.Lon, p.Lat} }

func routesFeatureCollection(snap model.Snapshot) (*gjson.FeatureCollection, error) {
	fc := &gjson.FeatureCollection{}
	for _, rt := range snap.Routes {
		if len(rt.Stops) == 0 {
			continue
		}
		coords := make([]geom.Coord, 0, len(rt.Stops)+2)
		coords = append(coords, coord(rt.Depot))
		for _, st := range rt.Stops {
			coords = append(coords, coord(st.Location))
		}
		coords = append(coords, coord(rt.Depot))
		ls, err := geom.NewLineString(geom.XY).SetCoords(coords)
		if err != nil {
			return nil, err
		}
		fc.Features = append(fc.Features, &gjson.Feature{
			Geometry: ls,
			Properties: map[string]any{
				"kind":      "route",
				"vehicleId": rt.VehicleID,
				"capacity":  rt.Capacity,
				"demand":    rt.Demand,
				"distance":  rt.Distance,
			},
		})
		for _, st := range rt.Stops {
			props := map[string]any{
				"kind":       "stop",
				"vehicleId":  rt.VehicleID,
				"customerId": st.CustomerID,
				"position":   st.Position,
				"demand":     st.Demand,
			}
			if st.Name != "" {
				props["name"] = st.Name
			}
			if st.Arrival != nil {
				props["arrival"] = *st.Arrival
			}
			if st.Lateness > 0 {
				props["lateness"] = st.Lateness
			}
			fc.Features = append(fc.Features, &gjson.Feature{
				Geometry:   geom.NewPointFlat(geom.XY, []float64{st.Location.Lon, st.Location.Lat}),
				Properties: props,
			})
		}
	}
	return fc, nil
}
