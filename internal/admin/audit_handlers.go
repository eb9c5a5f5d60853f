package admin

import (
	"net/http"
	"strconv"

	"eca-system/internal/domain"
)

type auditListResponse struct {
	Logs  []domain.RegistryAuditLog `json:"logs"`
	Total int                       `json:"total"`
}

// AuditLogHandler lists the registry audit trail, optionally filtered to one
// admin with the admin_id query parameter.
func AuditLogHandler(repo domain.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, offset := pageParams(r, 50)

		var logs []domain.RegistryAuditLog
		var total int
		var err error
		if raw := r.URL.Query().Get("admin_id"); raw != "" {
			adminID, convErr := strconv.Atoi(raw)
			if convErr != nil || adminID <= 0 {
				respondJSON(w, http.StatusBadRequest, errorBody{Error: "invalid admin_id"})
				return
			}
			logs, total, err = repo.GetAuditLogsByAdminCtx(r.Context(), adminID, limit, offset)
		} else {
			logs, total, err = repo.GetAuditLogsPaginatedCtx(r.Context(), limit, offset)
		}
		if err != nil {
			respondError(w, err)
			return
		}
		if logs == nil {
			logs = []domain.RegistryAuditLog{}
		}
		respondJSON(w, http.StatusOK, auditListResponse{Logs: logs, Total: total})
	}
}
