package dashboard

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/newsroomlabs/usage-insight/internal/httpserver/httputil"
	usageservice "github.com/newsroomlabs/usage-insight/internal/services/usage"
)

const defaultTrendMonths = 12

// yearMonthParam resolves the yearMonth query parameter, defaulting to the
// current calendar month when absent.
func (h *dashboardHandler) yearMonthParam(c *fiber.Ctx) string {
	yearMonth := strings.TrimSpace(c.Query("yearMonth"))
	if yearMonth == "" {
		return h.usage.CurrentYearMonth()
	}
	return yearMonth
}

func limitParam(c *fiber.Ctx) (int, error) {
	raw := strings.TrimSpace(c.Query("limit"))
	if raw == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return 0, errors.New("invalid limit")
	}
	return limit, nil
}

func writeUsageError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, usageservice.ErrServiceNotFound):
		return httputil.WriteError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, usageservice.ErrUserNotFound):
		return httputil.WriteError(c, fiber.StatusNotFound, "user not found")
	case errors.Is(err, usageservice.ErrInvalidYearMonth):
		return httputil.WriteError(c, fiber.StatusBadRequest, "invalid yearMonth, expected YYYY-MM")
	case errors.Is(err, usageservice.ErrEmailRequired):
		return httputil.WriteError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, usageservice.ErrUserTableNotConfigured):
		return httputil.WriteError(c, fiber.StatusNotFound, err.Error())
	default:
		return httputil.WriteError(c, fiber.StatusInternalServerError, err.Error())
	}
}

func (h *dashboardHandler) allServices(c *fiber.Ctx) error {
	overview, err := h.usage.OverviewByService(c.UserContext(), h.yearMonthParam(c))
	if err != nil {
		return writeUsageError(c, err)
	}
	return c.JSON(overview)
}

func (h *dashboardHandler) summary(c *fiber.Ctx) error {
	summary, err := h.usage.Summary(c.UserContext(), h.yearMonthParam(c))
	if err != nil {
		return writeUsageError(c, err)
	}
	return c.JSON(summary)
}

func (h *dashboardHandler) topServices(c *fiber.Ctx) error {
	limit, err := limitParam(c)
	if err != nil {
		return httputil.WriteError(c, fiber.StatusBadRequest, err.Error())
	}
	ranked, err := h.usage.TopServices(c.UserContext(), h.yearMonthParam(c), limit)
	if err != nil {
		return writeUsageError(c, err)
	}
	return c.JSON(fiber.Map{"services": ranked})
}

func (h *dashboardHandler) topEngines(c *fiber.Ctx) error {
	limit, err := limitParam(c)
	if err != nil {
		return httputil.WriteError(c, fiber.StatusBadRequest, err.Error())
	}
	ranked, err := h.usage.TopEngines(c.UserContext(), h.yearMonthParam(c), limit)
	if err != nil {
		return writeUsageError(c, err)
	}
	return c.JSON(fiber.Map{"engines": ranked})
}

func (h *dashboardHandler) monthlyTrend(c *fiber.Ctx) error {
	months := defaultTrendMonths
	if raw := strings.TrimSpace(c.Query("months")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			return httputil.WriteError(c, fiber.StatusBadRequest, "invalid months")
		}
		months = parsed
	}
	points, err := h.usage.MonthlyTrend(c.UserContext(), strings.TrimSpace(c.Query("serviceId")), months)
	if err != nil {
		return writeUsageError(c, err)
	}
	return c.JSON(fiber.Map{"trend": points})
}

func (h *dashboardHandler) dailyTrend(c *fiber.Ctx) error {
	points, err := h.usage.DailyTrend(c.UserContext(), strings.TrimSpace(c.Query("serviceId")), h.yearMonthParam(c))
	if err != nil {
		return writeUsageError(c, err)
	}
	return c.JSON(fiber.Map{"trend": points})
}

func (h *dashboardHandler) listServices(c *fiber.Ctx) error {
	descriptors := h.usage.Registry().Services()
	services := make([]fiber.Map, 0, len(descriptors))
	for _, svc := range descriptors {
		services = append(services, fiber.Map{
			"serviceId":   svc.ID,
			"serviceName": svc.DisplayName,
			"engines":     svc.Engines,
			"active":      svc.Active,
		})
	}
	return c.JSON(fiber.Map{"services": services})
}

func (h *dashboardHandler) serviceUsage(c *fiber.Ctx) error {
	serviceID := c.Params("serviceId")
	usage, err := h.usage.ServiceUsage(c.UserContext(), serviceID, h.yearMonthParam(c))
	if err != nil {
		return writeUsageError(c, err)
	}
	return c.JSON(usage)
}

func (h *dashboardHandler) userByEmail(c *fiber.Ctx) error {
	email := strings.TrimSpace(c.Query("email"))
	serviceID := strings.TrimSpace(c.Query("serviceId"))
	if serviceID == "" {
		serviceID = h.usage.Registry().First().ID
	}
	lookup, err := h.usage.UserUsageByEmail(c.UserContext(), email, serviceID, h.yearMonthParam(c))
	if err != nil {
		return writeUsageError(c, err)
	}
	return c.JSON(lookup)
}

func (h *dashboardHandler) allUsers(c *fiber.Ctx) error {
	serviceID := strings.TrimSpace(c.Query("serviceId"))
	if serviceID == "" {
		serviceID = h.usage.Registry().First().ID
	}
	users, err := h.usage.AllUsersWithUsage(c.UserContext(), serviceID, h.yearMonthParam(c))
	if err != nil {
		return writeUsageError(c, err)
	}
	return c.JSON(fiber.Map{
		"users": users,
		"count": len(users),
	})
}
