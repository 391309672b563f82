package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/karvel/traindesk/internal/dto"
	"github.com/karvel/traindesk/internal/repository"
	"github.com/karvel/traindesk/internal/service"
	"github.com/rs/zerolog/log"
)

type AdminRecordController struct {
	recordService service.RecordService
	rosterService service.RosterService
}

func NewAdminRecordController(recordService service.RecordService, rosterService service.RosterService) *AdminRecordController {
	return &AdminRecordController{recordService: recordService, rosterService: rosterService}
}

// ListRecords godoc
// @Summary (Admin) List score records
// @Description Normalized score records for cross-test reporting, filterable by trainee, group, and phase.
// @Tags Admin - Records
// @Produce json
// @Param trainee query string false "Filter by trainee name"
// @Param group_id query string false "Filter by group"
// @Param phase query string false "Filter by phase"
// @Success 200 {array} dto.RecordResponseDTO
// @Failure 500 {object} dto.ErrorResponse
// @Router /admin/records [get]
func (c *AdminRecordController) ListRecords(ctx *gin.Context) {
	filter := repository.RecordFilter{
		Trainee: ctx.Query("trainee"),
		GroupID: ctx.Query("group_id"),
		Phase:   ctx.Query("phase"),
	}
	records, err := c.recordService.List(filter)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Failed to retrieve records", Details: []string{err.Error()}})
		return
	}
	ctx.JSON(http.StatusOK, records)
}

// CaptureRecord godoc
// @Summary (Admin) Manually capture a score record
// @Description Upserts a record keyed by (trainee, assessment, group, phase); repeat captures update in place and keep the record id.
// @Tags Admin - Records
// @Accept json
// @Produce json
// @Param record body dto.RecordCaptureDTO true "Score to capture"
// @Success 200 {object} dto.RecordResponseDTO
// @Failure 400 {object} dto.ErrorResponse
// @Router /admin/records [post]
func (c *AdminRecordController) CaptureRecord(ctx *gin.Context) {
	var req dto.RecordCaptureDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}

	rec, err := c.recordService.CaptureManual(req)
	if err != nil {
		log.Error().Err(err).Str("trainee", req.Trainee).Msg("Admin CaptureRecord: service error")
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Failed to capture record", Details: []string{err.Error()}})
		return
	}
	ctx.JSON(http.StatusOK, rec)
}

// DeleteRecord godoc
// @Summary (Admin) Delete a score record
// @Tags Admin - Records
// @Produce json
// @Param record_id path string true "Record ID"
// @Success 204
// @Failure 500 {object} dto.ErrorResponse
// @Router /admin/records/{record_id} [delete]
func (c *AdminRecordController) DeleteRecord(ctx *gin.Context) {
	if err := c.recordService.Delete(ctx.Param("record_id")); err != nil {
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Failed to delete record", Details: []string{err.Error()}})
		return
	}
	ctx.Status(http.StatusNoContent)
}

// ListRosters godoc
// @Summary (Admin) List onboarding groups and their members
// @Tags Admin - Rosters
// @Produce json
// @Success 200 {array} dto.RosterGroupDTO
// @Failure 500 {object} dto.ErrorResponse
// @Router /admin/rosters [get]
func (c *AdminRecordController) ListRosters(ctx *gin.Context) {
	groups, err := c.rosterService.ListGroups()
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Failed to retrieve rosters", Details: []string{err.Error()}})
		return
	}
	ctx.JSON(http.StatusOK, groups)
}

// UpsertRoster godoc
// @Summary (Admin) Replace an onboarding group's member list
// @Description Group IDs are date-prefixed strings; their lexicographic order is the chronological order the cycle classifier relies on.
// @Tags Admin - Rosters
// @Accept json
// @Produce json
// @Param roster body dto.RosterUpsertDTO true "Group and members"
// @Success 200 {object} dto.RosterGroupDTO
// @Failure 400 {object} dto.ErrorResponse
// @Router /admin/rosters [put]
func (c *AdminRecordController) UpsertRoster(ctx *gin.Context) {
	var req dto.RosterUpsertDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}

	group, err := c.rosterService.UpsertGroup(req)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Failed to save roster", Details: []string{err.Error()}})
		return
	}
	ctx.JSON(http.StatusOK, group)
}
