package httpapi

import (
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/brclima/painel-umidade/internal/geo"
	"github.com/brclima/painel-umidade/internal/humidity"
	"github.com/brclima/painel-umidade/internal/store"
)

var validate = validator.New()

// RegisterRoutes wires the dashboard data API and the manual refresh trigger
// into the Fiber app. The handlers are read-only consumers of the daily
// store; classification happens here, on read, never in the cached payload.
func RegisterRoutes(app *fiber.App, st *store.DailyStore, overlay *geo.FeatureCollection, refreshToken string) {
	refresh := refreshHandler(st, refreshToken)
	app.Get("/refresh", refresh)
	app.Post("/refresh", refresh)

	v1 := app.Group("/api/v1")

	v1.Get("/humidity/dates", func(c *fiber.Ctx) error {
		ds, err := st.Get(c.Context(), false)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to load dataset")
		}
		return c.JSON(fiber.Map{"dates": ds.Dates, "demo": ds.Demo})
	})

	v1.Get("/humidity/classes", func(c *fiber.Ctx) error {
		legend := make([]fiber.Map, 0, len(humidity.ClassOrder))
		for _, cl := range humidity.ClassOrder {
			legend = append(legend, fiber.Map{
				"name":  cl,
				"label": cl.Label(),
				"color": cl.Color(),
			})
		}
		return c.JSON(legend)
	})

	v1.Get("/humidity/map", func(c *fiber.Ctx) error {
		var q mapQuery
		if err := q.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		ds, err := st.Get(c.Context(), false)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to load dataset")
		}

		date := q.Date
		if date == "" {
			date = ds.LastDate()
		} else if !ds.HasDate(date) {
			return fiber.NewError(fiber.StatusBadRequest, "date is not one of the dataset's target dates")
		}

		rows := classifyAll(filterByUF(ds.ForDate(date), q.ufs()))
		return c.JSON(fiber.Map{
			"date":  date,
			"count": len(rows),
			"rows":  rows,
		})
	})

	v1.Get("/humidity/municipalities/:code", func(c *fiber.Ctx) error {
		code := humidity.CanonicalCode(c.Params("code"))
		if code == "" {
			return fiber.NewError(fiber.StatusBadRequest, "municipality code must contain digits")
		}

		ds, err := st.Get(c.Context(), false)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to load dataset")
		}

		series := ds.SeriesFor(code)
		if len(series) == 0 {
			return fiber.NewError(fiber.StatusNotFound, "no data for requested municipality")
		}

		return c.JSON(fiber.Map{
			"cd_mun":   code,
			"nm_mun":   series[0].Name,
			"sigla_uf": series[0].UF,
			"series":   classifyAll(series),
		})
	})

	v1.Get("/humidity/list", func(c *fiber.Ctx) error {
		var q listQuery
		if err := q.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		ds, err := st.Get(c.Context(), false)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to load dataset")
		}

		date := q.Date
		if date == "" {
			date = ds.LastDate()
		} else if !ds.HasDate(date) {
			return fiber.NewError(fiber.StatusBadRequest, "date is not one of the dataset's target dates")
		}

		rows := listByClass(filterByUF(ds.ForDate(date), q.ufs()), humidity.Class(q.Class))
		return c.JSON(fiber.Map{
			"class": q.Class,
			"date":  date,
			"count": len(rows),
			"rows":  rows,
		})
	})

	v1.Get("/geo/municipalities", func(c *fiber.Ctx) error {
		if overlay == nil {
			return fiber.NewError(fiber.StatusNotFound, "no geojson overlay configured")
		}
		return c.JSON(overlay)
	})
}

// refreshHandler rebuilds the dataset on demand. When a token is configured,
// mismatches are rejected; the result is always a structured ok/error body,
// never a crash.
func refreshHandler(st *store.DailyStore, token string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if token != "" && c.Query("token") != token {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"ok":    false,
				"error": "forbidden",
			})
		}

		if _, err := st.Get(c.Context(), true); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"ok":    false,
				"error": err.Error(),
			})
		}
		return c.JSON(fiber.Map{"ok": true})
	}
}

// classifiedSample is a dataset row with its severity class resolved.
type classifiedSample struct {
	humidity.Sample
	Class humidity.Class `json:"class"`
	Color string         `json:"color"`
}

func classifyAll(samples []humidity.Sample) []classifiedSample {
	out := make([]classifiedSample, 0, len(samples))
	for _, s := range samples {
		cl := humidity.Classify(s.RHmin)
		out = append(out, classifiedSample{Sample: s, Class: cl, Color: cl.Color()})
	}
	return out
}

func filterByUF(samples []humidity.Sample, ufs []string) []humidity.Sample {
	if len(ufs) == 0 {
		return samples
	}
	want := make(map[string]bool, len(ufs))
	for _, uf := range ufs {
		want[strings.ToUpper(uf)] = true
	}
	var out []humidity.Sample
	for _, s := range samples {
		if want[strings.ToUpper(s.UF)] {
			out = append(out, s)
		}
	}
	return out
}

// listByClass keeps the rows whose RHmin falls in the requested class,
// sorted by (UF, name) for display. Unknown values never match a named class,
// so gap rows drop out here.
func listByClass(samples []humidity.Sample, class humidity.Class) []classifiedSample {
	var out []classifiedSample
	for _, s := range samples {
		if cl := humidity.Classify(s.RHmin); cl == class {
			out = append(out, classifiedSample{Sample: s, Class: cl, Color: cl.Color()})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UF != out[j].UF {
			return out[i].UF < out[j].UF
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// mapQuery holds query parameters for the map endpoint.
type mapQuery struct {
	Date string `validate:"omitempty,datetime=2006-01-02"`
	UF   string
}

func (q *mapQuery) bind(c *fiber.Ctx) error {
	q.Date = c.Query("date")
	q.UF = c.Query("uf")
	return validate.Struct(q)
}

func (q *mapQuery) ufs() []string { return splitUFs(q.UF) }

// listQuery holds query parameters for the class-listing endpoint.
type listQuery struct {
	Class string `validate:"required"`
	Date  string `validate:"omitempty,datetime=2006-01-02"`
	UF    string
}

func (q *listQuery) bind(c *fiber.Ctx) error {
	q.Class = c.Query("class")
	q.Date = c.Query("date")
	q.UF = c.Query("uf")
	if err := validate.Struct(q); err != nil {
		return err
	}
	if !humidity.Class(q.Class).Valid() {
		return fiber.NewError(fiber.StatusBadRequest, "unknown class: "+q.Class)
	}
	return nil
}

func (q *listQuery) ufs() []string { return splitUFs(q.UF) }

func splitUFs(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
