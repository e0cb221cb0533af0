package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/ukaguzi/core/inspection"
	"github.com/trezcool/ukaguzi/core/user"
)

type monthlyApi struct {
	svc    inspection.Service
	usrSvc user.Service
}

func registerMonthlyAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc inspection.Service, usrSvc user.Service) {
	api := monthlyApi{svc: svc, usrSvc: usrSvc}

	mg := g.Group("/monthly-reports", jwt)
	mg.POST("/draft", api.getOrCreateDraft, inspectorMiddleware())
	mg.GET("", api.query)
	mg.GET("/:id", api.retrieve)
	mg.PUT("/:id", api.update, inspectorMiddleware())
	mg.POST("/:id/generate-stats", api.generateStats, inspectorMiddleware())
	mg.POST("/:id/submit", api.submit, inspectorMiddleware())
	mg.GET("/:id/decisions", api.queryDecisions)

	// review endpoints
	mg.POST("/:id/approve", api.review(inspection.DecisionApprove), gpiMiddleware())
	mg.POST("/:id/request-revision", api.review(inspection.DecisionRequestRevision), gpiMiddleware())
	mg.POST("/:id/reject", api.review(inspection.DecisionReject), gpiMiddleware())
}

// Handlers

func (api *monthlyApi) getOrCreateDraft(ctx echo.Context) error {
	var data MonthlyDraftRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to MonthlyDraftRequest")
	}

	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	m, err := api.svc.GetOrCreateMonthlyDraft(ctx.Request().Context(), ctxUsr, data.Year, data.Month)
	if err != nil {
		return errors.Wrap(err, "getting monthly draft")
	}
	return ctx.JSON(http.StatusOK, m)
}

func (api *monthlyApi) query(ctx echo.Context) error {
	filter := new(inspection.MonthlyFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []inspection.MonthlyReport{})
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	reports, err := api.svc.QueryMonthlyReports(ctx.Request().Context(), ctxUsr, filter, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying monthly reports")
	}
	if reports == nil {
		reports = []inspection.MonthlyReport{}
	}
	return ctx.JSON(http.StatusOK, reports)
}

func (api *monthlyApi) retrieve(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	m, err := api.svc.GetMonthlyReport(ctx.Request().Context(), ctxUsr, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding monthly report")
	}
	return ctx.JSON(http.StatusOK, m)
}

func (api *monthlyApi) update(ctx echo.Context) error {
	var data inspection.UpdateMonthlyReport
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateMonthlyReport")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	m, err := api.svc.UpdateMonthlyReport(ctx.Request().Context(), ctxUsr, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating monthly report")
	}
	return ctx.JSON(http.StatusOK, m)
}

func (api *monthlyApi) generateStats(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	m, err := api.svc.GenerateMonthlyStats(ctx.Request().Context(), ctxUsr, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "generating monthly stats")
	}
	return ctx.JSON(http.StatusOK, m)
}

func (api *monthlyApi) submit(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	m, err := api.svc.SubmitMonthlyReport(ctx.Request().Context(), ctxUsr, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "submitting monthly report")
	}
	return ctx.JSON(http.StatusOK, m)
}

func (api *monthlyApi) review(decision string) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		var data inspection.ReviewRequest
		if err := ctx.Bind(&data); err != nil {
			return errors.Wrap(err, "binding to ReviewRequest")
		}

		ctxUsr, err := getContextUser(ctx, api.usrSvc)
		if err != nil {
			return errors.Wrap(err, "getting context user")
		}

		if err = api.svc.Review(
			ctx.Request().Context(), ctxUsr, inspection.KindMonthlyReport, ctx.Param("id"), decision, data.Feedback,
		); err != nil {
			return errors.Wrap(err, "reviewing monthly report")
		}

		m, err := api.svc.GetMonthlyReport(ctx.Request().Context(), ctxUsr, ctx.Param("id"))
		if err != nil {
			return errors.Wrap(err, "finding monthly report")
		}
		return ctx.JSON(http.StatusOK, m)
	}
}

func (api *monthlyApi) queryDecisions(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	decisions, err := api.svc.QueryDecisions(ctx.Request().Context(), ctxUsr, inspection.KindMonthlyReport, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying decisions")
	}
	if decisions == nil {
		decisions = []inspection.Decision{}
	}
	return ctx.JSON(http.StatusOK, decisions)
}

// MonthlyDraftRequest identifies the reporting period.
type MonthlyDraftRequest struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}
