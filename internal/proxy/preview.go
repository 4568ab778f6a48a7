package proxy

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v5"

	"github.com/samcharles93/artorize/internal/mask"
	"github.com/samcharles93/artorize/internal/render"
	"github.com/samcharles93/artorize/pkg/sac"
)

// handlePreview renders the overlay for a stored container as PNG.
//
// Query parameters: w and h give the display box (default: mask shape), dpr
// the pixel density, mode the colour mode (default diagnostic), color the
// overlay colour, opacity the alpha multiplier, and nw/nh the natural size
// for containers without a shape hint.
func (s *Server) handlePreview(c *echo.Context) error {
	key := c.Param("*")
	data, _, err := s.load(c, key)
	if err != nil {
		return s.writeLoadError(c, key, err)
	}

	opts, err := previewOptions(c)
	if err != nil {
		return writeError(c, http.StatusBadRequest, "invalid_request", err.Error())
	}
	natW, errW := queryInt(c, "nw", 0)
	natH, errH := queryInt(c, "nh", 0)
	if err := errors.Join(errW, errH); err != nil {
		return writeError(c, http.StatusBadRequest, "invalid_request", err.Error())
	}

	ctx := c.Request().Context()
	session := render.NewSession(render.Config{Options: opts, Logger: s.log})
	container, err := sac.DecodeAuto(data)
	if err == nil {
		err = session.ApplyContainer(ctx, session.Begin(), container, natW, natH)
	}
	if err != nil {
		kind := sac.KindOf(err)
		if kind == 0 {
			return writeError(c, http.StatusBadGateway, "upstream_error", err.Error())
		}
		return writeError(c, http.StatusUnprocessableEntity, kind.String(), err.Error())
	}

	w, h, _ := container.Shape(natW, natH)
	vp, err := previewViewport(c, w, h)
	if err != nil {
		return writeError(c, http.StatusBadRequest, "invalid_request", err.Error())
	}
	frame, ok := session.Render(ctx, vp)
	if !ok {
		return writeError(c, http.StatusUnprocessableEntity, "not_renderable", "mask could not be rendered at this size")
	}

	var buf bytes.Buffer
	if err := render.Draw(&render.PNGSink{Out: &buf}, frame); err != nil {
		return err
	}
	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "image/png")
	res.Header().Set("X-Render-Size", strconv.Itoa(frame.Plan.RenderWidth)+"x"+strconv.Itoa(frame.Plan.RenderHeight))
	res.WriteHeader(http.StatusOK)
	_, err = res.Write(buf.Bytes())
	return err
}

func previewOptions(c *echo.Context) (mask.Options, error) {
	opts := mask.DefaultOptions()
	opts.Mode = mask.ModeDiagnostic
	if v := c.QueryParam("mode"); v != "" {
		mode, err := mask.ParseColorMode(v)
		if err != nil {
			return opts, err
		}
		opts.Mode = mode
	}
	if v := c.QueryParam("color"); v != "" {
		col, err := mask.ParseHexColor(v)
		if err != nil {
			return opts, err
		}
		opts.Color = col
	}
	if v := c.QueryParam("opacity"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return opts, errors.New("opacity must be a number")
		}
		opts.Opacity = f
	}
	return opts, nil
}

func previewViewport(c *echo.Context, maskW, maskH int) (mask.Viewport, error) {
	w, errW := queryInt(c, "w", maskW)
	h, errH := queryInt(c, "h", maskH)
	vp := mask.Viewport{DisplayWidth: float64(w), DisplayHeight: float64(h), PixelDensity: 1}
	if v := c.QueryParam("dpr"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return vp, errors.New("dpr must be a number")
		}
		vp.PixelDensity = f
	}
	if err := errors.Join(errW, errH); err != nil {
		return vp, err
	}
	d := max(vp.PixelDensity, 1)
	if vp.DisplayWidth*d*vp.DisplayHeight*d > maxPreviewPixels {
		return vp, errors.New("preview too large")
	}
	return vp, nil
}

const maxPreviewPixels = 4096 * 4096

func queryInt(c *echo.Context, name string, def int) (int, error) {
	v := c.QueryParam(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, errors.New(name + " must be a non-negative integer")
	}
	return n, nil
}
