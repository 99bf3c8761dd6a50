// Package dashboard exposes the aggregation engine over HTTP for the
// usage dashboard frontend.
package dashboard

import (
	"github.com/gofiber/fiber/v2"

	"github.com/newsroomlabs/usage-insight/internal/app"
	usageservice "github.com/newsroomlabs/usage-insight/internal/services/usage"
)

type dashboardHandler struct {
	container *app.Container
	usage     *usageservice.Service
}

// Register wires up the dashboard endpoints.
func Register(fiberApp *fiber.App, container *app.Container) {
	if fiberApp == nil || container == nil {
		return
	}

	handler := &dashboardHandler{
		container: container,
		usage:     container.Usage,
	}

	group := fiberApp.Group("/usage")
	group.Get("/all", handler.allServices)
	group.Get("/summary", handler.summary)
	group.Get("/top/services", handler.topServices)
	group.Get("/top/engines", handler.topEngines)
	group.Get("/trend/monthly", handler.monthlyTrend)
	group.Get("/trend/daily", handler.dailyTrend)
	group.Get("/services", handler.listServices)
	group.Get("/services/:serviceId", handler.serviceUsage)
	group.Get("/user", handler.userByEmail)
	group.Get("/users/all", handler.allUsers)
}
