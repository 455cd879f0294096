package httpapi

import (
	"time"

	"city_report_service/internal/domain/message"
	"city_report_service/internal/domain/notification"
	"city_report_service/internal/domain/report"
)

// Request bodies.

type CreateReportPayload struct {
	CategoryID  int64    `json:"category_id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Latitude    float64  `json:"latitude"`
	Longitude   float64  `json:"longitude"`
	Anonymous   bool     `json:"anonymous"`
	Photos      []string `json:"photos"`
}

type RejectPayload struct {
	Reason string `json:"reason"`
}

type ChangeStatusPayload struct {
	Status string `json:"status"`
}

type DelegatePayload struct {
	CompanyID int64 `json:"company_id"`
}

type PostMessagePayload struct {
	Channel string `json:"channel"`
	Content string `json:"content"`
}

type MarkOpenedPayload struct {
	Channel string `json:"channel"`
}

// Response bodies. Nullable workflow fields render as pointers so absent means
// absent, not zero.

type ReportJSON struct {
	ID                   int64    `json:"id"`
	CategoryID           int64    `json:"category_id"`
	Title                string   `json:"title"`
	Description          string   `json:"description"`
	Latitude             float64  `json:"latitude"`
	Longitude            float64  `json:"longitude"`
	Anonymous            bool     `json:"anonymous"`
	Photos               []string `json:"photos"`
	Status               string   `json:"status"`
	ReporterID           *int64   `json:"reporter_id,omitempty"`
	AssigneeID           *int64   `json:"assignee_id,omitempty"`
	TechnicalOfficeID    *int64   `json:"technical_office_id,omitempty"`
	ExternalMaintainerID *int64   `json:"external_maintainer_id,omitempty"`
	CompanyID            *int64   `json:"company_id,omitempty"`
	RejectionReason      *string  `json:"rejection_reason,omitempty"`
	CreatedAt            string   `json:"created_at"`
	UpdatedAt            string   `json:"updated_at"`
}

func toReportJSON(rep *report.Report) ReportJSON {
	out := ReportJSON{
		ID:          rep.ID,
		CategoryID:  rep.CategoryID,
		Title:       rep.Title,
		Description: rep.Description,
		Latitude:    rep.Latitude,
		Longitude:   rep.Longitude,
		Anonymous:   rep.Anonymous,
		Photos:      rep.Photos,
		Status:      string(rep.Status),
		CreatedAt:   rep.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   rep.UpdatedAt.Format(time.RFC3339),
	}
	if !rep.Anonymous {
		reporterID := rep.ReporterID
		out.ReporterID = &reporterID
	}
	if rep.AssigneeID.Valid {
		v := rep.AssigneeID.Int64
		out.AssigneeID = &v
	}
	if rep.TechnicalOfficeID.Valid {
		v := rep.TechnicalOfficeID.Int64
		out.TechnicalOfficeID = &v
	}
	if rep.ExternalMaintainerID.Valid {
		v := rep.ExternalMaintainerID.Int64
		out.ExternalMaintainerID = &v
	}
	if rep.CompanyID.Valid {
		v := rep.CompanyID.Int64
		out.CompanyID = &v
	}
	if rep.RejectionReason.Valid {
		v := rep.RejectionReason.String
		out.RejectionReason = &v
	}
	return out
}

func toReportListJSON(reports []*report.Report) []ReportJSON {
	out := make([]ReportJSON, len(reports))
	for i, rep := range reports {
		out[i] = toReportJSON(rep)
	}
	return out
}

type AuthorJSON struct {
	ID          int64  `json:"id"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
}

type MessageJSON struct {
	ID        int64       `json:"id"`
	ReportID  int64       `json:"report_id"`
	Channel   string      `json:"channel"`
	Content   string      `json:"content"`
	CreatedAt string      `json:"created_at"`
	Author    *AuthorJSON `json:"author,omitempty"`
}

func toMessageJSON(m *message.Message) MessageJSON {
	out := MessageJSON{
		ID:        m.ID,
		ReportID:  m.ReportID,
		Channel:   string(m.Channel),
		Content:   m.Content,
		CreatedAt: m.CreatedAt.Format(time.RFC3339),
	}
	if m.Author != nil {
		out.Author = &AuthorJSON{ID: m.Author.ID, DisplayName: m.Author.DisplayName, Role: string(m.Author.Role)}
	}
	return out
}

type NotificationJSON struct {
	ID        int64  `json:"id"`
	ReportID  int64  `json:"report_id"`
	Type      string `json:"type"`
	Payload   string `json:"payload"`
	IsRead    bool   `json:"is_read"`
	CreatedAt string `json:"created_at"`
}

func toNotificationJSON(n *notification.Notification) NotificationJSON {
	return NotificationJSON{
		ID:        n.ID,
		ReportID:  n.ReportID,
		Type:      string(n.Type),
		Payload:   n.Payload,
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt.Format(time.RFC3339),
	}
}

type AuditJSON struct {
	ID         int64  `json:"id"`
	ActorID    int64  `json:"actor_id"`
	FromStatus string `json:"from_status"`
	ToStatus   string `json:"to_status"`
	Detail     string `json:"detail,omitempty"`
	CreatedAt  string `json:"created_at"`
}

func toAuditJSON(entries []*report.AuditEntry) []AuditJSON {
	out := make([]AuditJSON, len(entries))
	for i, entry := range entries {
		out[i] = AuditJSON{
			ID:         entry.ID,
			ActorID:    entry.ActorID,
			FromStatus: string(entry.FromStatus),
			ToStatus:   string(entry.ToStatus),
			Detail:     entry.Detail,
			CreatedAt:  entry.CreatedAt.Format(time.RFC3339),
		}
	}
	return out
}
