package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/ukaguzi/core/inspection"
	"github.com/trezcool/ukaguzi/core/user"
)

type visitApi struct {
	svc    inspection.Service
	usrSvc user.Service
}

func registerVisitAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc inspection.Service, usrSvc user.Service) {
	api := visitApi{svc: svc, usrSvc: usrSvc}

	vg := g.Group("/visits", jwt)
	vg.POST("", api.create, inspectorMiddleware())
	vg.GET("", api.query)
	vg.GET("/:id", api.retrieve)
	vg.POST("/:id/reschedule", api.reschedule, inspectorMiddleware())
	vg.POST("/:id/cancel", api.cancel, inspectorMiddleware())
	vg.POST("/:id/complete", api.complete, inspectorMiddleware())
}

// Handlers

func (api *visitApi) create(ctx echo.Context) error {
	var data inspection.NewVisit
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewVisit")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	v, err := api.svc.ScheduleVisit(ctx.Request().Context(), ctxUsr, data)
	if err != nil {
		return errors.Wrap(err, "scheduling visit")
	}
	return ctx.JSON(http.StatusCreated, v)
}

func (api *visitApi) query(ctx echo.Context) error {
	filter := new(inspection.VisitFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []inspection.Visit{})
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	visits, err := api.svc.QueryVisits(ctx.Request().Context(), ctxUsr, filter, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying visits")
	}
	if visits == nil {
		visits = []inspection.Visit{}
	}
	return ctx.JSON(http.StatusOK, visits)
}

func (api *visitApi) retrieve(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	v, err := api.svc.GetVisit(ctx.Request().Context(), ctxUsr, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding visit")
	}
	return ctx.JSON(http.StatusOK, v)
}

func (api *visitApi) reschedule(ctx echo.Context) error {
	var data inspection.RescheduleVisit
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to RescheduleVisit")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	v, err := api.svc.RescheduleVisit(ctx.Request().Context(), ctxUsr, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "rescheduling visit")
	}
	return ctx.JSON(http.StatusOK, v)
}

func (api *visitApi) cancel(ctx echo.Context) error {
	var data inspection.CancelVisit
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to CancelVisit")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	v, err := api.svc.CancelVisit(ctx.Request().Context(), ctxUsr, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "cancelling visit")
	}
	return ctx.JSON(http.StatusOK, v)
}

func (api *visitApi) complete(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	v, err := api.svc.CompleteVisit(ctx.Request().Context(), ctxUsr, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "completing visit")
	}
	return ctx.JSON(http.StatusOK, v)
}
