package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/ukaguzi/core/inspection"
	"github.com/trezcool/ukaguzi/core/user"
)

type reportApi struct {
	svc    inspection.Service
	usrSvc user.Service
}

func registerReportAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc inspection.Service, usrSvc user.Service) {
	api := reportApi{svc: svc, usrSvc: usrSvc}

	rg := g.Group("/reports", jwt)
	rg.POST("", api.create, inspectorMiddleware())
	rg.GET("", api.query)
	rg.GET("/:id", api.retrieve)
	rg.PUT("/:id", api.update, inspectorMiddleware())
	rg.GET("/:id/decisions", api.queryDecisions)

	// review endpoints
	rg.POST("/:id/approve", api.review(inspection.DecisionApprove), gpiMiddleware())
	rg.POST("/:id/request-revision", api.review(inspection.DecisionRequestRevision), gpiMiddleware())
	rg.POST("/:id/reject", api.review(inspection.DecisionReject), gpiMiddleware())
}

// Handlers

func (api *reportApi) create(ctx echo.Context) error {
	var data inspection.NewReport
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewReport")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	rep, err := api.svc.CreateReport(ctx.Request().Context(), ctxUsr, data)
	if err != nil {
		return errors.Wrap(err, "creating report")
	}
	return ctx.JSON(http.StatusCreated, rep)
}

func (api *reportApi) query(ctx echo.Context) error {
	filter := new(inspection.ReportFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []inspection.Report{})
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	reports, err := api.svc.QueryReports(ctx.Request().Context(), ctxUsr, filter, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying reports")
	}
	if reports == nil {
		reports = []inspection.Report{}
	}
	return ctx.JSON(http.StatusOK, reports)
}

func (api *reportApi) retrieve(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	rep, err := api.svc.GetReport(ctx.Request().Context(), ctxUsr, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding report")
	}
	return ctx.JSON(http.StatusOK, rep)
}

func (api *reportApi) update(ctx echo.Context) error {
	var data inspection.UpdateReport
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateReport")
	}

	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	rep, err := api.svc.UpdateReport(ctx.Request().Context(), ctxUsr, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating report")
	}
	return ctx.JSON(http.StatusOK, rep)
}

func (api *reportApi) review(decision string) echo.HandlerFunc {
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
			ctx.Request().Context(), ctxUsr, inspection.KindReport, ctx.Param("id"), decision, data.Feedback,
		); err != nil {
			return errors.Wrap(err, "reviewing report")
		}

		rep, err := api.svc.GetReport(ctx.Request().Context(), ctxUsr, ctx.Param("id"))
		if err != nil {
			return errors.Wrap(err, "finding report")
		}
		return ctx.JSON(http.StatusOK, rep)
	}
}

func (api *reportApi) queryDecisions(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	decisions, err := api.svc.QueryDecisions(ctx.Request().Context(), ctxUsr, inspection.KindReport, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying decisions")
	}
	if decisions == nil {
		decisions = []inspection.Decision{}
	}
	return ctx.JSON(http.StatusOK, decisions)
}
