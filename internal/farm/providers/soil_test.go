package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Debabrta24/AgreesmartFinalSIH/internal/farm"
)

func soilLayerJSON(name string, mean string) string {
	return `{"name":"` + name + `","unit_measure":{"d_factor":10},"depths":[{"label":"0-5cm","values":{"mean":` + mean + `}}]}`
}

func TestSoilGridsProvider(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.ElementsMatch(t, []string{"phh2o", "clay", "sand", "soc"}, r.URL.Query()["property"])
		assert.Equal(t, "0-5cm", r.URL.Query().Get("depth"))
		_, _ = w.Write([]byte(`{"properties":{"layers":[` +
			soilLayerJSON("phh2o", "72") + "," +
			soilLayerJSON("clay", "250") + "," +
			soilLayerJSON("sand", "400") + "," +
			soilLayerJSON("soc", "85") + `]}}`))
	}))
	defer srv.Close()

	p := NewSoilGridsProvider(DefaultHTTPConfig(srv.Client()))
	p.baseURL = srv.URL

	rep, err := p.FetchSoilData(context.Background(), farm.Coordinates{Lat: 21.1, Lon: 79.1})
	require.NoError(t, err)
	assert.Equal(t, &farm.SoilReport{
		Source:        "SoilGrids",
		PH:            7.2,
		Clay:          25,
		Sand:          40,
		OrganicCarbon: 8.5,
		Texture:       "loam",
	}, rep)
}

func TestSoilGridsProviderNoData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		// ocean points come back with null means
		_, _ = w.Write([]byte(`{"properties":{"layers":[` +
			soilLayerJSON("phh2o", "null") + "," +
			soilLayerJSON("clay", "null") + `]}}`))
	}))
	defer srv.Close()

	p := NewSoilGridsProvider(DefaultHTTPConfig(srv.Client()))
	p.baseURL = srv.URL

	_, err := p.FetchSoilData(context.Background(), farm.Coordinates{Lat: 10, Lon: 65})
	assert.ErrorIs(t, err, farm.ErrUnavailable)
}

func TestTextureClass(t *testing.T) {
	tests := []struct {
		clay, sand float64
		want       string
	}{
		{45, 20, "clay"},
		{5, 90, "sand"},
		{8, 75, "loamy sand"},
		{30, 35, "clay loam"},
		{22, 55, "sandy clay loam"},
		{10, 60, "sandy loam"},
		{18, 40, "loam"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TextureClass(tt.clay, tt.sand), "clay=%v sand=%v", tt.clay, tt.sand)
	}
}
