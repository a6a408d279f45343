package api

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"PairLab/internal/domain/models"
	xhttp "PairLab/pkg/http"
	applogger "PairLab/pkg/logger"
)

// PairService is the consumer-facing pair analysis API.
type PairService interface {
	GetPairStatistics(ctx context.Context, a, b string, start, end models.Date) (models.StatisticsResult, error)
	GetAlignedSeries(ctx context.Context, a, b string, start, end models.Date) (models.AlignedPairSeries, error)
	CheckSymbol(ctx context.Context, symbol string) (bool, error)
}

// PairsEchoHandler serves pair statistics, aligned series and symbol checks.
type PairsEchoHandler struct {
	logger  *applogger.Logger
	svc     PairService
	timeout time.Duration
	now     func() time.Time
}

func NewPairsEchoHandler(logger *applogger.Logger, svc PairService, timeout time.Duration) *PairsEchoHandler {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &PairsEchoHandler{logger: logger, svc: svc, timeout: timeout, now: time.Now}
}

func (h *PairsEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/pairs/stats", h.Stats)
	g.GET("/pairs/series", h.Series)
	g.GET("/symbols/:symbol", h.Symbol)
}

func (h *PairsEchoHandler) Stats(c echo.Context) error {
	req := &models.PairRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	start, end, appErr := h.dates(req)
	if appErr != nil {
		return xhttp.AppErrorResponse(c, appErr)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()
	res, err := h.svc.GetPairStatistics(ctx, req.SymbolA, req.SymbolB, start, end)
	if err != nil {
		return h.fail(c, "pair statistics", err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *PairsEchoHandler) Series(c echo.Context) error {
	req := &models.PairRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	start, end, appErr := h.dates(req)
	if appErr != nil {
		return xhttp.AppErrorResponse(c, appErr)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()
	aligned, err := h.svc.GetAlignedSeries(ctx, req.SymbolA, req.SymbolB, start, end)
	if err != nil {
		return h.fail(c, "aligned series", err)
	}

	if req.Format == "csv" {
		return writeCSV(c, aligned)
	}
	return xhttp.SuccessResponse(c, aligned)
}

func (h *PairsEchoHandler) Symbol(c echo.Context) error {
	req := &models.SymbolRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	ok, err := h.svc.CheckSymbol(c.Request().Context(), req.Symbol)
	status := models.SymbolStatus{Symbol: strings.ToUpper(strings.TrimSpace(req.Symbol)), Valid: ok}
	if err != nil {
		if errors.Is(err, models.ErrInvalidSymbol) {
			return xhttp.AppErrorResponse(c, ToAppError(err))
		}
		h.logger.Warn("symbol check failed", applogger.String("symbol", status.Symbol), applogger.Error(err))
		status.Error = err.Error()
	}
	return xhttp.SuccessResponse(c, status)
}

// dates parses the request range; a missing end means today.
func (h *PairsEchoHandler) dates(req *models.PairRequest) (models.Date, models.Date, *xhttp.AppError) {
	start, err := models.ParseDate(req.Start)
	if err != nil {
		return models.Date{}, models.Date{}, xhttp.NewAppError("ERR_INVALID_RANGE", "start", err.Error(), http.StatusBadRequest)
	}
	end := models.DateOf(h.now())
	if req.End != "" {
		if end, err = models.ParseDate(req.End); err != nil {
			return models.Date{}, models.Date{}, xhttp.NewAppError("ERR_INVALID_RANGE", "end", err.Error(), http.StatusBadRequest)
		}
	}
	return start, end, nil
}

func (h *PairsEchoHandler) fail(c echo.Context, op string, err error) error {
	appErr := ToAppError(err)
	if appErr.Status >= http.StatusInternalServerError {
		h.logger.Error(op+" failed", applogger.Error(err))
	}
	return xhttp.AppErrorResponse(c, appErr)
}

// ToAppError maps domain errors onto HTTP application errors.
func ToAppError(err error) *xhttp.AppError {
	var (
		rangeErr *models.InvalidRangeError
		insErr   *models.InsufficientDataError
		degErr   *models.DegenerateRegressionError
		provErr  *models.ProviderError
	)
	switch {
	case errors.As(err, &rangeErr):
		return xhttp.NewAppError("ERR_INVALID_RANGE", "", rangeErr.Error(), http.StatusBadRequest).
			WithParam("start", rangeErr.Start.String()).
			WithParam("end", rangeErr.End.String()).
			WithParam("reason", rangeErr.Reason).
			WithError(err)
	case errors.Is(err, models.ErrInvalidSymbol):
		return xhttp.NewAppError("ERR_INVALID_SYMBOL", "symbol", err.Error(), http.StatusBadRequest).WithError(err)
	case errors.As(err, &insErr):
		return xhttp.UnprocessableError("ERR_INSUFFICIENT_DATA", insErr.Error()).
			WithParams(pairParams(insErr.SymbolA, insErr.SymbolB, insErr.Range, map[string]interface{}{
				"metric": insErr.Metric,
				"need":   insErr.Need,
				"have":   insErr.Have,
			})).
			WithError(err)
	case errors.As(err, &degErr):
		return xhttp.UnprocessableError("ERR_DEGENERATE_REGRESSION", degErr.Error()).
			WithParams(pairParams(degErr.SymbolA, degErr.SymbolB, degErr.Range, map[string]interface{}{
				"metric":       degErr.Metric,
				"precondition": degErr.Precondition,
			})).
			WithError(err)
	case errors.Is(err, models.ErrSymbolNotFound):
		return xhttp.NotFoundError(err.Error()).WithError(err)
	case errors.As(err, &provErr):
		return xhttp.BadGatewayError(provErr.Error()).
			WithParam("provider", provErr.Provider).
			WithParam("symbol", provErr.Symbol.String()).
			WithParam("temporary", provErr.Temporary).
			WithError(err)
	case errors.Is(err, context.DeadlineExceeded):
		return xhttp.NewAppError("ERR_TIMEOUT", "", "request timed out", http.StatusGatewayTimeout).WithError(err)
	default:
		return xhttp.InternalError("internal error").WithError(err)
	}
}

func pairParams(a, b models.Symbol, r models.DateRange, extra map[string]interface{}) map[string]interface{} {
	extra["symbol_a"] = a.String()
	extra["symbol_b"] = b.String()
	extra["start"] = r.Start.String()
	extra["end"] = r.End.String()
	return extra
}

func writeCSV(c echo.Context, aligned models.AlignedPairSeries) error {
	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/csv; charset=utf-8")
	res.Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="%s_%s.csv"`, aligned.SymbolA, aligned.SymbolB))
	res.WriteHeader(http.StatusOK)

	w := csv.NewWriter(res)
	if err := w.Write(aligned.Columns()); err != nil {
		return err
	}
	if err := w.WriteAll(aligned.Records()); err != nil {
		return err
	}
	return w.Error()
}
