package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/ONSdigital/dp-sdmx-series-controller/models"
	"github.com/ONSdigital/dp-sdmx-series-controller/sdmx"
)

const testMaxKeys = 5000

var exrDimensions = []sdmx.Dimension{
	{ID: "FREQ", Name: "Frequency", Codes: []sdmx.Code{{ID: "D", Label: "Daily"}, {ID: "M", Label: "Monthly"}}},
	{ID: "CURRENCY", Name: "Currency", Codes: []sdmx.Code{{ID: "USD", Label: "US dollar"}, {ID: "GBP", Label: "Pound sterling"}}},
}

func observations(key string, values ...string) sdmx.CSVTable {
	table := sdmx.CSVTable{Header: []string{"KEY", "TIME_PERIOD", "OBS_VALUE", "TITLE"}}
	periods := []string{"2024-01-02", "2024-01-03", "2024-01-04"}
	for i, v := range values {
		table.Records = append(table.Records, []string{key, periods[i], v, "US dollar / Euro"})
	}
	return table
}

func TestDatasetListHandler(t *testing.T) {
	Convey("Given a structure client publishing two datasets", t, func() {
		mockCli := &StructureClientMock{
			ListDataflowsFunc: func(ctx context.Context) ([]sdmx.Dataflow, error) {
				return []sdmx.Dataflow{
					{ID: "ICP", Name: "consumer prices"},
					{ID: "EXR", Name: "Exchange Rates"},
				}, nil
			},
		}

		router := mux.NewRouter()
		router.Path("/datasets").HandlerFunc(DatasetList(mockCli))

		Convey("When the dataset list is requested", func() {
			w := httptest.NewRecorder()
			req, err := http.NewRequest("GET", "/datasets", nil)
			So(err, ShouldBeNil)
			router.ServeHTTP(w, req)

			Convey("Then datasets come back sorted by name, case-insensitively", func() {
				So(w.Code, ShouldEqual, http.StatusOK)

				var results models.DatasetListResults
				So(json.NewDecoder(w.Body).Decode(&results), ShouldBeNil)
				So(results.Count, ShouldEqual, 2)
				So(results.Items[0].ID, ShouldEqual, "ICP")
				So(results.Items[1].ID, ShouldEqual, "EXR")
				So(results.Items[1].Label, ShouldEqual, "Exchange Rates (EXR)")
			})
		})

		Convey("When the list is filtered by q", func() {
			w := httptest.NewRecorder()
			req, err := http.NewRequest("GET", "/datasets?q=exchange", nil)
			So(err, ShouldBeNil)
			router.ServeHTTP(w, req)

			Convey("Then only matching datasets remain", func() {
				var results models.DatasetListResults
				So(json.NewDecoder(w.Body).Decode(&results), ShouldBeNil)
				So(results.Count, ShouldEqual, 1)
				So(results.Items[0].ID, ShouldEqual, "EXR")
			})
		})
	})

	Convey("Given a structure client that errors", t, func() {
		Convey("A generic failure maps to an internal server error", func() {
			mockCli := &StructureClientMock{
				ListDataflowsFunc: func(ctx context.Context) ([]sdmx.Dataflow, error) {
					return nil, errors.New("portal down")
				},
			}

			w := httptest.NewRecorder()
			req, err := http.NewRequest("GET", "/datasets", nil)
			So(err, ShouldBeNil)
			DatasetList(mockCli)(w, req)

			So(w.Code, ShouldEqual, http.StatusInternalServerError)
		})

		Convey("A portal 404 is passed through", func() {
			mockCli := &StructureClientMock{
				ListDataflowsFunc: func(ctx context.Context) ([]sdmx.Dataflow, error) {
					return nil, sdmx.NewErrInvalidPortalResponse(http.StatusNotFound, "/dataflow")
				},
			}

			w := httptest.NewRecorder()
			req, err := http.NewRequest("GET", "/datasets", nil)
			So(err, ShouldBeNil)
			DatasetList(mockCli)(w, req)

			So(w.Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestDimensionListHandler(t *testing.T) {
	Convey("Given a structure client with a resolvable schema", t, func() {
		mockCli := &StructureClientMock{
			GetDimensionsFunc: func(ctx context.Context, flowID string) ([]sdmx.Dimension, error) {
				return exrDimensions, nil
			},
		}

		router := mux.NewRouter()
		router.Path("/datasets/{flowID}/dimensions").HandlerFunc(DimensionList(mockCli))

		Convey("When the schema is requested", func() {
			w := httptest.NewRecorder()
			req, err := http.NewRequest("GET", "/datasets/EXR/dimensions", nil)
			So(err, ShouldBeNil)
			router.ServeHTTP(w, req)

			Convey("Then the dimensions come back in order with their codes", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(mockCli.GetDimensionsCalls()[0].FlowID, ShouldEqual, "EXR")

				var results models.DimensionList
				So(json.NewDecoder(w.Body).Decode(&results), ShouldBeNil)
				So(results.FlowID, ShouldEqual, "EXR")
				So(results.Count, ShouldEqual, 2)
				So(results.Items[0].ID, ShouldEqual, "FREQ")
				So(results.Items[1].Codes, ShouldHaveLength, 2)
			})
		})
	})

	Convey("Given a dataset without a retrievable structure", t, func() {
		mockCli := &StructureClientMock{
			GetDimensionsFunc: func(ctx context.Context, flowID string) ([]sdmx.Dimension, error) {
				return nil, nil
			},
		}

		router := mux.NewRouter()
		router.Path("/datasets/{flowID}/dimensions").HandlerFunc(DimensionList(mockCli))

		w := httptest.NewRecorder()
		req, err := http.NewRequest("GET", "/datasets/ICP/dimensions", nil)
		So(err, ShouldBeNil)
		router.ServeHTTP(w, req)

		Convey("Then an empty item list is returned, not an error", func() {
			So(w.Code, ShouldEqual, http.StatusOK)

			var results models.DimensionList
			So(json.NewDecoder(w.Body).Decode(&results), ShouldBeNil)
			So(results.Count, ShouldEqual, 0)
		})
	})
}

func TestSeriesCatalogHandler(t *testing.T) {
	catalog := sdmx.CSVTable{
		Header: []string{"FREQ", "CURRENCY", "TITLE", "OBS_STATUS"},
		Records: [][]string{
			{"D", "USD", "US dollar / Euro", "A"},
			{"D", "GBP", "Pound sterling / Euro", "A"},
		},
	}

	Convey("Given a data client with a series catalog", t, func() {
		mockCli := &DataClientMock{
			ListSeriesFunc: func(ctx context.Context, flowID string) (sdmx.CSVTable, error) {
				return catalog, nil
			},
		}

		router := mux.NewRouter()
		router.Path("/datasets/{flowID}/series").HandlerFunc(SeriesCatalog(mockCli, 50000))

		Convey("When the catalog is requested", func() {
			w := httptest.NewRecorder()
			req, err := http.NewRequest("GET", "/datasets/EXR/series", nil)
			So(err, ShouldBeNil)
			router.ServeHTTP(w, req)

			Convey("Then keys are inferred from the dimension columns", func() {
				So(w.Code, ShouldEqual, http.StatusOK)

				var results models.CatalogResults
				So(json.NewDecoder(w.Body).Decode(&results), ShouldBeNil)
				So(results.Count, ShouldEqual, 2)
				So(results.Items[0], ShouldResemble, models.CatalogEntry{Key: "D.USD", Name: "US dollar / Euro"})
				So(results.Items[1], ShouldResemble, models.CatalogEntry{Key: "D.GBP", Name: "Pound sterling / Euro"})
			})
		})

		Convey("When a limit truncates the catalog", func() {
			w := httptest.NewRecorder()
			req, err := http.NewRequest("GET", "/datasets/EXR/series?limit=1", nil)
			So(err, ShouldBeNil)
			router.ServeHTTP(w, req)

			var results models.CatalogResults
			So(json.NewDecoder(w.Body).Decode(&results), ShouldBeNil)
			So(results.Count, ShouldEqual, 1)
			So(results.Items[0].Key, ShouldEqual, "D.USD")
		})

		Convey("When q filters the catalog", func() {
			w := httptest.NewRecorder()
			req, err := http.NewRequest("GET", "/datasets/EXR/series?q=pound", nil)
			So(err, ShouldBeNil)
			router.ServeHTTP(w, req)

			var results models.CatalogResults
			So(json.NewDecoder(w.Body).Decode(&results), ShouldBeNil)
			So(results.Count, ShouldEqual, 1)
			So(results.Items[0].Key, ShouldEqual, "D.GBP")
		})

		Convey("When the limit is not a positive integer, the request is rejected", func() {
			for _, limit := range []string{"abc", "0", "-5"} {
				w := httptest.NewRecorder()
				req, err := http.NewRequest("GET", "/datasets/EXR/series?limit="+limit, nil)
				So(err, ShouldBeNil)
				router.ServeHTTP(w, req)

				So(w.Code, ShouldEqual, http.StatusBadRequest)
			}
		})
	})

	Convey("Given a catalog with no recognisable key columns", t, func() {
		mockCli := &DataClientMock{
			ListSeriesFunc: func(ctx context.Context, flowID string) (sdmx.CSVTable, error) {
				return sdmx.CSVTable{
					Header:  []string{"lowercase", "also lower"},
					Records: [][]string{{"a", "b"}},
				}, nil
			},
		}

		router := mux.NewRouter()
		router.Path("/datasets/{flowID}/series").HandlerFunc(SeriesCatalog(mockCli, 50000))

		w := httptest.NewRecorder()
		req, err := http.NewRequest("GET", "/datasets/EXR/series", nil)
		So(err, ShouldBeNil)
		router.ServeHTTP(w, req)

		Convey("Then the handler fails rather than inventing keys", func() {
			So(w.Code, ShouldEqual, http.StatusInternalServerError)
		})
	})
}

func TestBuildKeysHandler(t *testing.T) {
	Convey("Given a structure client with a two-dimension schema", t, func() {
		mockCli := &StructureClientMock{
			GetDimensionsFunc: func(ctx context.Context, flowID string) ([]sdmx.Dimension, error) {
				return exrDimensions, nil
			},
		}

		router := mux.NewRouter()
		router.Path("/datasets/{flowID}/keys").Methods("POST").HandlerFunc(BuildKeys(mockCli, testMaxKeys))

		Convey("When a partial selection is posted", func() {
			body := strings.NewReader(`{"selection":{"CURRENCY":["USD","GBP"]}}`)
			w := httptest.NewRecorder()
			req, err := http.NewRequest("POST", "/datasets/EXR/keys", body)
			So(err, ShouldBeNil)
			router.ServeHTTP(w, req)

			Convey("Then unselected dimensions are wildcarded", func() {
				So(w.Code, ShouldEqual, http.StatusOK)

				var results models.KeysResults
				So(json.NewDecoder(w.Body).Decode(&results), ShouldBeNil)
				So(results.Keys, ShouldResemble, []string{".USD", ".GBP"})
				So(results.Count, ShouldEqual, 2)
			})
		})

		Convey("When an empty selection is posted", func() {
			body := strings.NewReader(`{"selection":{}}`)
			w := httptest.NewRecorder()
			req, err := http.NewRequest("POST", "/datasets/EXR/keys", body)
			So(err, ShouldBeNil)
			router.ServeHTTP(w, req)

			Convey("Then the all-wildcard key is returned", func() {
				var results models.KeysResults
				So(json.NewDecoder(w.Body).Decode(&results), ShouldBeNil)
				So(results.Keys, ShouldResemble, []string{"."})
			})
		})

		Convey("When the selection would expand past the ceiling", func() {
			router := mux.NewRouter()
			router.Path("/datasets/{flowID}/keys").Methods("POST").HandlerFunc(BuildKeys(mockCli, 2))

			body := strings.NewReader(`{"selection":{"FREQ":["D","M"],"CURRENCY":["USD","GBP"]}}`)
			w := httptest.NewRecorder()
			req, err := http.NewRequest("POST", "/datasets/EXR/keys", body)
			So(err, ShouldBeNil)
			router.ServeHTTP(w, req)

			Convey("Then the request is rejected before expansion", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When the body is not valid json, the request is rejected", func() {
			w := httptest.NewRecorder()
			req, err := http.NewRequest("POST", "/datasets/EXR/keys", strings.NewReader("{"))
			So(err, ShouldBeNil)
			router.ServeHTTP(w, req)

			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestSeriesDataHandler(t *testing.T) {
	Convey("Given a data client serving one good and one bad series", t, func() {
		scli := &StructureClientMock{
			GetDimensionsFunc: func(ctx context.Context, flowID string) ([]sdmx.Dimension, error) {
				return exrDimensions, nil
			},
		}
		dcli := &DataClientMock{
			GetSeriesDataFunc: func(ctx context.Context, flowID string, seriesKey string) (sdmx.CSVTable, error) {
				if seriesKey == "EXR.D.BAD.EUR.SP00.A" {
					return sdmx.CSVTable{}, errors.New("portal refused")
				}
				return observations(seriesKey, "1.0956", "1.0919"), nil
			},
		}

		router := mux.NewRouter()
		router.Path("/datasets/{flowID}/data").Methods("POST").HandlerFunc(SeriesData(scli, dcli, testMaxKeys))

		Convey("When explicit keys are posted", func() {
			body := strings.NewReader(`{"keys":["EXR.D.USD.EUR.SP00.A","EXR.D.BAD.EUR.SP00.A"]}`)
			w := httptest.NewRecorder()
			req, err := http.NewRequest("POST", "/datasets/EXR/data", body)
			So(err, ShouldBeNil)
			router.ServeHTTP(w, req)

			Convey("Then the good series forms a column and the bad one a warning", func() {
				So(w.Code, ShouldEqual, http.StatusOK)

				var results models.DataResults
				So(json.NewDecoder(w.Body).Decode(&results), ShouldBeNil)
				So(results.FlowID, ShouldEqual, "EXR")
				So(results.Periods, ShouldResemble, []string{"2024-01-02", "2024-01-03"})
				So(results.Columns, ShouldHaveLength, 1)
				So(results.Columns[0].Key, ShouldEqual, "EXR.D.USD.EUR.SP00.A")
				So(results.Columns[0].Label, ShouldEqual, "EXR:EXR.D.USD.EUR.SP00.A — US dollar / Euro")
				So(*results.Columns[0].Values[0], ShouldEqual, 1.0956)
				So(results.Warnings, ShouldHaveLength, 1)
				So(results.Warnings[0].Key, ShouldEqual, "EXR.D.BAD.EUR.SP00.A")
			})
		})

		Convey("When a selection and explicit keys are combined", func() {
			body := strings.NewReader(`{"selection":{"FREQ":["D"],"CURRENCY":["USD"]},"keys":["EXR.D.GBP.EUR.SP00.A"]}`)
			w := httptest.NewRecorder()
			req, err := http.NewRequest("POST", "/datasets/EXR/data", body)
			So(err, ShouldBeNil)
			router.ServeHTTP(w, req)

			Convey("Then built keys come first and explicit keys are appended", func() {
				So(w.Code, ShouldEqual, http.StatusOK)

				calls := dcli.GetSeriesDataCalls()
				So(calls, ShouldHaveLength, 2)
				So(calls[0].SeriesKey, ShouldEqual, "D.USD")
				So(calls[1].SeriesKey, ShouldEqual, "EXR.D.GBP.EUR.SP00.A")
			})
		})

		Convey("When a rolling window is requested", func() {
			body := strings.NewReader(`{"keys":["EXR.D.USD.EUR.SP00.A"],"rolling_windows":[2]}`)
			w := httptest.NewRecorder()
			req, err := http.NewRequest("POST", "/datasets/EXR/data", body)
			So(err, ShouldBeNil)
			router.ServeHTTP(w, req)

			Convey("Then a smoothed column is appended after the original", func() {
				var results models.DataResults
				So(json.NewDecoder(w.Body).Decode(&results), ShouldBeNil)
				So(results.Columns, ShouldHaveLength, 2)
				So(results.Columns[1].Label, ShouldEndWith, "(MA2)")
				So(results.Columns[1].Values[0], ShouldBeNil)
				So(*results.Columns[1].Values[1], ShouldAlmostEqual, (1.0956+1.0919)/2)
			})
		})

		Convey("When several rolling windows are requested", func() {
			longer := &DataClientMock{
				GetSeriesDataFunc: func(ctx context.Context, flowID string, seriesKey string) (sdmx.CSVTable, error) {
					return observations(seriesKey, "1.0956", "1.0919", "1.0940"), nil
				},
			}
			router := mux.NewRouter()
			router.Path("/datasets/{flowID}/data").Methods("POST").HandlerFunc(SeriesData(scli, longer, testMaxKeys))

			body := strings.NewReader(`{"keys":["EXR.D.USD.EUR.SP00.A"],"rolling_windows":[2,3]}`)
			w := httptest.NewRecorder()
			req, err := http.NewRequest("POST", "/datasets/EXR/data", body)
			So(err, ShouldBeNil)
			router.ServeHTTP(w, req)

			Convey("Then every window smooths the fetched series itself", func() {
				var results models.DataResults
				So(json.NewDecoder(w.Body).Decode(&results), ShouldBeNil)
				So(results.Columns, ShouldHaveLength, 3)
				So(results.Columns[0].Label, ShouldEqual, "EXR:EXR.D.USD.EUR.SP00.A — US dollar / Euro")
				So(results.Columns[1].Label, ShouldEqual, "EXR:EXR.D.USD.EUR.SP00.A — US dollar / Euro (MA2)")
				So(results.Columns[2].Label, ShouldEqual, "EXR:EXR.D.USD.EUR.SP00.A — US dollar / Euro (MA3)")

				Convey("And the wider window is the mean of the observations, not of the earlier mean", func() {
					So(results.Columns[2].Values[0], ShouldBeNil)
					So(results.Columns[2].Values[1], ShouldBeNil)
					So(*results.Columns[2].Values[2], ShouldAlmostEqual, (1.0956+1.0919+1.0940)/3)
				})
			})
		})

		Convey("When no keys are requested, the request is rejected", func() {
			w := httptest.NewRecorder()
			req, err := http.NewRequest("POST", "/datasets/EXR/data", strings.NewReader(`{}`))
			So(err, ShouldBeNil)
			router.ServeHTTP(w, req)

			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When an unknown normalisation mode is requested, the request is rejected", func() {
			body := strings.NewReader(`{"keys":["EXR.D.USD.EUR.SP00.A"],"normalise":"sigmoid"}`)
			w := httptest.NewRecorder()
			req, err := http.NewRequest("POST", "/datasets/EXR/data", body)
			So(err, ShouldBeNil)
			router.ServeHTTP(w, req)

			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestSeriesDataCSVHandler(t *testing.T) {
	Convey("Given a data client serving one series", t, func() {
		dcli := &DataClientMock{
			GetSeriesDataFunc: func(ctx context.Context, flowID string, seriesKey string) (sdmx.CSVTable, error) {
				return observations(seriesKey, "1.0956", "1.0919"), nil
			},
		}

		router := mux.NewRouter()
		router.Path("/datasets/{flowID}/data.csv").HandlerFunc(SeriesDataCSV(dcli))

		Convey("When the wide export is requested", func() {
			w := httptest.NewRecorder()
			req, err := http.NewRequest("GET", "/datasets/EXR/data.csv?keys=EXR.D.USD.EUR.SP00.A", nil)
			So(err, ShouldBeNil)
			router.ServeHTTP(w, req)

			Convey("Then the response is a csv attachment in wide layout", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldEqual, "text/csv")
				So(w.Header().Get("Content-Disposition"), ShouldEqual, "attachment; filename=EXR_wide.csv")

				lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
				So(lines, ShouldHaveLength, 3)
				So(lines[0], ShouldStartWith, "Date,")
				So(lines[1], ShouldEqual, "2024-01-02,1.0956")
			})
		})

		Convey("When the long layout is requested", func() {
			w := httptest.NewRecorder()
			req, err := http.NewRequest("GET", "/datasets/EXR/data.csv?keys=EXR.D.USD.EUR.SP00.A&layout=long", nil)
			So(err, ShouldBeNil)
			router.ServeHTTP(w, req)

			Convey("Then one row per observation is written", func() {
				So(w.Header().Get("Content-Disposition"), ShouldEqual, "attachment; filename=EXR_long.csv")

				lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
				So(lines[0], ShouldEqual, "Date,Series,Value")
				So(lines, ShouldHaveLength, 3)
			})
		})

		Convey("When no keys are supplied, the request is rejected", func() {
			w := httptest.NewRecorder()
			req, err := http.NewRequest("GET", "/datasets/EXR/data.csv", nil)
			So(err, ShouldBeNil)
			router.ServeHTTP(w, req)

			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the layout is unknown, the request is rejected", func() {
			w := httptest.NewRecorder()
			req, err := http.NewRequest("GET", "/datasets/EXR/data.csv?keys=EXR.D.USD.EUR.SP00.A&layout=diagonal", nil)
			So(err, ShouldBeNil)
			router.ServeHTTP(w, req)

			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}
