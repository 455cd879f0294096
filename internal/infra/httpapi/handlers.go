package httpapi

import (
	"strconv"

	"city_report_service/internal/app"
	"city_report_service/internal/domain/message"
	"city_report_service/internal/domain/report"
	"city_report_service/internal/domain/user"

	"github.com/gofiber/fiber/v2"
)

// Handlers binds the application services to the HTTP surface. The actor's id
// and declared active role arrive as headers set by the upstream gateway;
// authentication itself is not this service's concern.
type Handlers struct {
	reports       app.ReportService
	delegations   app.DelegationService
	messages      app.MessageService
	notifications app.NotificationService
}

func NewHandlers(
	reports app.ReportService,
	delegations app.DelegationService,
	messages app.MessageService,
	notifications app.NotificationService,
) *Handlers {
	return &Handlers{
		reports:       reports,
		delegations:   delegations,
		messages:      messages,
		notifications: notifications,
	}
}

type actor struct {
	ID   int64
	Role user.Role
}

func actorFrom(c *fiber.Ctx) (actor, bool) {
	id, err := strconv.ParseInt(c.Get("X-User-ID"), 10, 64)
	if err != nil || id <= 0 {
		return actor{}, false
	}
	role := user.Role(c.Get("X-Active-Role"))
	if !role.IsValid() {
		return actor{}, false
	}
	return actor{ID: id, Role: role}, true
}

func reportIDFrom(c *fiber.Ctx) (int64, bool) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	return id, err == nil && id > 0
}

func (h *Handlers) CreateReport(c *fiber.Ctx) error {
	act, ok := actorFrom(c)
	if !ok {
		return badReq(c, "missing or invalid X-User-ID / X-Active-Role")
	}
	var p CreateReportPayload
	if err := c.BodyParser(&p); err != nil {
		return badReq(c, "invalid JSON")
	}

	rep, err := h.reports.Create(c.Context(), act.ID, app.CreateReportInput{
		CategoryID:  p.CategoryID,
		Title:       p.Title,
		Description: p.Description,
		Latitude:    p.Latitude,
		Longitude:   p.Longitude,
		Anonymous:   p.Anonymous,
		Photos:      p.Photos,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toReportJSON(rep))
}

func (h *Handlers) GetReport(c *fiber.Ctx) error {
	act, ok := actorFrom(c)
	if !ok {
		return badReq(c, "missing or invalid X-User-ID / X-Active-Role")
	}
	id, ok := reportIDFrom(c)
	if !ok {
		return badReq(c, "invalid report id")
	}
	rep, err := h.reports.Get(c.Context(), act.ID, act.Role, id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(toReportJSON(rep))
}

// ListReports returns the actor's own slice of the report set: citizens see
// what they filed, technicians what they are assigned.
func (h *Handlers) ListReports(c *fiber.Ctx) error {
	act, ok := actorFrom(c)
	if !ok {
		return badReq(c, "missing or invalid X-User-ID / X-Active-Role")
	}

	var (
		reports []*report.Report
		err     error
	)
	switch act.Role {
	case user.RoleTechnician:
		reports, err = h.reports.ListByAssignee(c.Context(), act.ID)
	case user.RoleExternalMaintainer:
		reports, err = h.reports.ListByMaintainer(c.Context(), act.ID)
	default:
		reports, err = h.reports.ListByReporter(c.Context(), act.ID)
	}
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(toReportListJSON(reports))
}

func (h *Handlers) Approve(c *fiber.Ctx) error {
	act, ok := actorFrom(c)
	if !ok {
		return badReq(c, "missing or invalid X-User-ID / X-Active-Role")
	}
	id, ok := reportIDFrom(c)
	if !ok {
		return badReq(c, "invalid report id")
	}
	rep, err := h.reports.Approve(c.Context(), act.ID, act.Role, id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(toReportJSON(rep))
}

func (h *Handlers) Reject(c *fiber.Ctx) error {
	act, ok := actorFrom(c)
	if !ok {
		return badReq(c, "missing or invalid X-User-ID / X-Active-Role")
	}
	id, ok := reportIDFrom(c)
	if !ok {
		return badReq(c, "invalid report id")
	}
	var p RejectPayload
	if err := c.BodyParser(&p); err != nil {
		return badReq(c, "invalid JSON")
	}
	rep, err := h.reports.Reject(c.Context(), act.ID, act.Role, id, p.Reason)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(toReportJSON(rep))
}

func (h *Handlers) ChangeStatus(c *fiber.Ctx) error {
	act, ok := actorFrom(c)
	if !ok {
		return badReq(c, "missing or invalid X-User-ID / X-Active-Role")
	}
	id, ok := reportIDFrom(c)
	if !ok {
		return badReq(c, "invalid report id")
	}
	var p ChangeStatusPayload
	if err := c.BodyParser(&p); err != nil {
		return badReq(c, "invalid JSON")
	}
	rep, err := h.reports.ChangeStatus(c.Context(), act.ID, act.Role, id, report.Status(p.Status))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(toReportJSON(rep))
}

func (h *Handlers) Delegate(c *fiber.Ctx) error {
	act, ok := actorFrom(c)
	if !ok {
		return badReq(c, "missing or invalid X-User-ID / X-Active-Role")
	}
	id, ok := reportIDFrom(c)
	if !ok {
		return badReq(c, "invalid report id")
	}
	var p DelegatePayload
	if err := c.BodyParser(&p); err != nil {
		return badReq(c, "invalid JSON")
	}
	rep, err := h.delegations.Delegate(c.Context(), act.ID, act.Role, id, p.CompanyID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(toReportJSON(rep))
}

func (h *Handlers) RevokeDelegation(c *fiber.Ctx) error {
	act, ok := actorFrom(c)
	if !ok {
		return badReq(c, "missing or invalid X-User-ID / X-Active-Role")
	}
	id, ok := reportIDFrom(c)
	if !ok {
		return badReq(c, "invalid report id")
	}
	rep, err := h.delegations.Revoke(c.Context(), act.ID, act.Role, id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(toReportJSON(rep))
}

func (h *Handlers) ListAudit(c *fiber.Ctx) error {
	act, ok := actorFrom(c)
	if !ok {
		return badReq(c, "missing or invalid X-User-ID / X-Active-Role")
	}
	id, ok := reportIDFrom(c)
	if !ok {
		return badReq(c, "invalid report id")
	}
	entries, err := h.reports.ListAudit(c.Context(), act.ID, act.Role, id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(toAuditJSON(entries))
}

func (h *Handlers) PostMessage(c *fiber.Ctx) error {
	act, ok := actorFrom(c)
	if !ok {
		return badReq(c, "missing or invalid X-User-ID / X-Active-Role")
	}
	id, ok := reportIDFrom(c)
	if !ok {
		return badReq(c, "invalid report id")
	}
	var p PostMessagePayload
	if err := c.BodyParser(&p); err != nil {
		return badReq(c, "invalid JSON")
	}
	msg, err := h.messages.PostMessage(c.Context(), act.ID, act.Role, id, message.Channel(p.Channel), p.Content)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toMessageJSON(msg))
}

func (h *Handlers) ListMessages(c *fiber.Ctx) error {
	act, ok := actorFrom(c)
	if !ok {
		return badReq(c, "missing or invalid X-User-ID / X-Active-Role")
	}
	id, ok := reportIDFrom(c)
	if !ok {
		return badReq(c, "invalid report id")
	}
	channel := message.Channel(c.Query("channel"))
	msgs, err := h.messages.ListMessages(c.Context(), act.ID, act.Role, id, channel)
	if err != nil {
		return fail(c, err)
	}
	out := make([]MessageJSON, len(msgs))
	for i, m := range msgs {
		out[i] = toMessageJSON(m)
	}
	return c.JSON(out)
}

func (h *Handlers) MarkChannelOpened(c *fiber.Ctx) error {
	act, ok := actorFrom(c)
	if !ok {
		return badReq(c, "missing or invalid X-User-ID / X-Active-Role")
	}
	id, ok := reportIDFrom(c)
	if !ok {
		return badReq(c, "invalid report id")
	}
	var p MarkOpenedPayload
	if err := c.BodyParser(&p); err != nil {
		return badReq(c, "invalid JSON")
	}
	if err := h.messages.MarkChannelOpened(c.Context(), act.ID, act.Role, id, message.Channel(p.Channel)); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"ok": true})
}

func (h *Handlers) Unread(c *fiber.Ctx) error {
	act, ok := actorFrom(c)
	if !ok {
		return badReq(c, "missing or invalid X-User-ID / X-Active-Role")
	}
	id, ok := reportIDFrom(c)
	if !ok {
		return badReq(c, "invalid report id")
	}

	if channelParam := c.Query("channel"); channelParam != "" {
		count, err := h.messages.ComputeUnread(c.Context(), act.ID, act.Role, id, message.Channel(channelParam))
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"channel": channelParam, "unread": count})
	}

	summary, err := h.messages.UnreadSummary(c.Context(), act.ID, act.Role, id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(summary)
}

func (h *Handlers) ListNotifications(c *fiber.Ctx) error {
	act, ok := actorFrom(c)
	if !ok {
		return badReq(c, "missing or invalid X-User-ID / X-Active-Role")
	}
	unreadOnly := c.Query("unread") == "true"
	notifications, err := h.notifications.ListNotifications(c.Context(), act.ID, unreadOnly)
	if err != nil {
		return fail(c, err)
	}
	out := make([]NotificationJSON, len(notifications))
	for i, n := range notifications {
		out[i] = toNotificationJSON(n)
	}
	return c.JSON(out)
}

func (h *Handlers) MarkNotificationRead(c *fiber.Ctx) error {
	act, ok := actorFrom(c)
	if !ok {
		return badReq(c, "missing or invalid X-User-ID / X-Active-Role")
	}
	id, ok := reportIDFrom(c)
	if !ok {
		return badReq(c, "invalid notification id")
	}
	if err := h.notifications.MarkNotificationRead(c.Context(), act.ID, id); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"ok": true})
}

func (h *Handlers) DeleteNotification(c *fiber.Ctx) error {
	act, ok := actorFrom(c)
	if !ok {
		return badReq(c, "missing or invalid X-User-ID / X-Active-Role")
	}
	id, ok := reportIDFrom(c)
	if !ok {
		return badReq(c, "invalid notification id")
	}
	if err := h.notifications.DeleteNotification(c.Context(), act.ID, id); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"ok": true})
}
