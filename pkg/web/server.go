// Package web serves log conversion over HTTP.
package web

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"etx2mission/pkg/flsql"
	"etx2mission/pkg/log2mission"
	"etx2mission/pkg/options"
	"etx2mission/pkg/otx"
)

const bodyLimit = 64 * 1024 * 1024

type Settings struct {
	// Defaults are overridden by the form fields of each request
	Defaults options.Opts
	// Archive, when set, stores every successful conversion
	Archive *flsql.DBL
	Now     func() time.Time
}

type server struct {
	defaults options.Opts
	archive  *flsql.DBL
	now      func() time.Time
}

// New returns the application with all routes registered.
func New(s Settings) *fiber.App {
	srv := &server{defaults: s.Defaults, archive: s.Archive, now: s.Now}
	if srv.now == nil {
		srv.now = time.Now
	}

	app := fiber.New(fiber.Config{
		AppName:               "etx2mission",
		BodyLimit:             bodyLimit,
		DisableStartupMessage: true,
	})
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(AccessLogMiddleware())
	app.Use(MetricsMiddleware())

	app.Get("/", srv.form)
	app.Post("/", srv.convert)
	app.Post("/convert", srv.convert)
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", MetricsHandler())
	return app
}

func (s *server) form(c *fiber.Ctx) error {
	o := s.defaults
	var buf bytes.Buffer
	err := renderForm(&buf, formData{
		Name:     strings.TrimSuffix(log2mission.MissionName(o.Mission, s.now()), ".mission"),
		Altitude: o.Altitude,
		Speed:    o.Speed,
		Spacing:  strconv.FormatFloat(o.Spacing, 'f', -1, 64),
		MaxWP:    strconv.Itoa(o.MaxWP),
		Units:    strings.ToLower(o.Units),
		Geofence: strings.ToLower(o.Geofence),
	})
	if err != nil {
		return errInternal(c, err.Error())
	}
	c.Type("html", "utf-8")
	return c.Send(buf.Bytes())
}

// applyForm overrides the defaults with any non-blank form values
func applyForm(c *fiber.Ctx, o *options.Opts) error {
	if v := strings.TrimSpace(c.FormValue("mission_name")); v != "" {
		o.Mission = v
	}
	if v, ok := formField(c, "custom_alt"); ok {
		o.Altitude = v
	}
	if v, ok := formField(c, "cruise_speed"); ok {
		o.Speed = v
	}
	if v, ok := formField(c, "units"); ok {
		o.Units = v
	}
	if v, ok := formField(c, "geofence"); ok {
		o.Geofence = v
	}
	if v, ok := formField(c, "spacing"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%w: spacing %q is not a number", options.ErrConfig, v)
		}
		o.Spacing = f
	}
	if v, ok := formField(c, "max_wps"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: max_wps %q is not an integer", options.ErrConfig, v)
		}
		o.MaxWP = n
	}
	return nil
}

func formField(c *fiber.Ctx, key string) (string, bool) {
	v := strings.TrimSpace(c.FormValue(key))
	return v, v != ""
}

func (s *server) convert(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil || fh.Filename == "" {
		conversionsTotal.WithLabelValues(outcomeInvalid).Inc()
		return errBadRequest(c, "no file selected")
	}

	o := s.defaults
	if err := applyForm(c, &o); err != nil {
		conversionsTotal.WithLabelValues(outcomeInvalid).Inc()
		return errBadRequest(c, err.Error())
	}
	cfg, err := o.Decimation()
	if err != nil {
		conversionsTotal.WithLabelValues(outcomeInvalid).Inc()
		return errBadRequest(c, err.Error())
	}

	f, err := fh.Open()
	if err != nil {
		conversionsTotal.WithLabelValues(outcomeError).Inc()
		return errInternal(c, err.Error())
	}
	defer f.Close()

	l, err := otx.ReadLog(f)
	if err != nil {
		conversionsTotal.WithLabelValues(outcomeInvalid).Inc()
		return errBadRequest(c, err.Error())
	}
	if err := l.CheckColumns(otx.RequiredColumns(cfg)); err != nil {
		conversionsTotal.WithLabelValues(outcomeInvalid).Inc()
		return errBadRequest(c, err.Error())
	}

	now := s.now()
	cv, err := log2mission.Convert(l.Records, cfg, o.Conversion(now))
	switch {
	case errors.Is(err, log2mission.ErrNoTelemetry):
		conversionsTotal.WithLabelValues(outcomeNoTelemetry).Inc()
		return errUnprocessable(c, err.Error())
	case err != nil:
		conversionsTotal.WithLabelValues(outcomeError).Inc()
		return errInternal(c, err.Error())
	}

	data, err := cv.Document.Bytes()
	if err != nil {
		conversionsTotal.WithLabelValues(outcomeError).Inc()
		return errInternal(c, err.Error())
	}

	name := log2mission.MissionName(o.Mission, now)
	if s.archive != nil {
		rec := flsql.ConversionRecord{
			Stamp:      now,
			Source:     fh.Filename,
			Name:       name,
			Spacing:    cv.Result.Spacing,
			Passes:     cv.Result.Passes,
			OverBudget: cv.Result.OverBudget,
			Records:    cv.Records,
			Samples:    cv.Samples,
		}
		if id, err := s.archive.WriteConversion(rec, cv.Result.Waypoints); err != nil {
			slog.Warn("archive failed", "name", name, "error", err)
		} else {
			slog.Debug("archived", "id", id, "name", name)
		}
	}

	conversionsTotal.WithLabelValues(outcomeOK).Inc()
	missionWaypoints.Observe(float64(cv.Document.Len()))
	spacingPasses.Observe(float64(cv.Result.Passes))

	c.Attachment(name)
	c.Set(fiber.HeaderContentType, "application/xml")
	if cv.Result.OverBudget {
		c.Set("X-Mission-Warning", "waypoint budget exceeded")
	}
	return c.Send(data)
}
