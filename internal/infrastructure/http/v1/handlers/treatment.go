package handlers

import (
	"github.com/gin-gonic/gin"

	"physio/internal/domain/physio/treatment"
	"physio/internal/domain/physio/treatment_history"
	"physio/internal/infrastructure/http/v1/dto"
)

// TreatmentHandler serves /physio/treatments.
type TreatmentHandler struct {
	*BaseHandler
	service *treatment.Service
}

func NewTreatmentHandler(base *BaseHandler, service *treatment.Service) *TreatmentHandler {
	return &TreatmentHandler{BaseHandler: base, service: service}
}

func (h *TreatmentHandler) List(c *gin.Context) {
	f, ok := h.ListFilter(c)
	if !ok {
		return
	}
	res, err := h.service.List(c.Request.Context(), f)
	if err != nil {
		h.Error(c, err)
		return
	}
	// list rows are returned unbound; mirrored fields come with Get
	items, err := treatmentItems(res)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.ListResponse{Items: items, TotalCount: res.TotalCount, Limit: res.Limit, Offset: res.Offset})
}

func (h *TreatmentHandler) Get(c *gin.Context) {
	treatmentID, ok := h.ParseID(c)
	if !ok {
		return
	}
	t, err := h.service.Get(c.Request.Context(), treatmentID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.render(c, t, false)
}

func (h *TreatmentHandler) Create(c *gin.Context) {
	var req dto.CreateTreatmentRequest
	if !h.BindJSON(c, &req) {
		return
	}
	t, err := req.ToEntity(h.CompanyID(c))
	if err != nil {
		h.Error(c, err)
		return
	}
	if err := h.service.Create(c.Request.Context(), t); err != nil {
		h.Error(c, err)
		return
	}
	h.render(c, t, true)
}

func (h *TreatmentHandler) Update(c *gin.Context) {
	treatmentID, ok := h.ParseID(c)
	if !ok {
		return
	}
	var req dto.UpdateTreatmentRequest
	if !h.BindJSON(c, &req) {
		return
	}
	existing, err := h.service.GetByID(c.Request.Context(), treatmentID)
	if err != nil {
		h.Error(c, err)
		return
	}
	t, err := req.ApplyTo(existing)
	if err != nil {
		h.Error(c, err)
		return
	}
	if err := h.service.Update(c.Request.Context(), t); err != nil {
		h.Error(c, err)
		return
	}
	h.render(c, t, false)
}

// Delete handles DELETE /physio/treatments/:id. The template treatment is refused.
func (h *TreatmentHandler) Delete(c *gin.Context) {
	treatmentID, ok := h.ParseID(c)
	if !ok {
		return
	}
	if err := h.service.Unlink(c.Request.Context(), treatmentID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// Archive handles POST /physio/treatments/:id/archive, guarded like Delete.
func (h *TreatmentHandler) Archive(c *gin.Context) {
	treatmentID, ok := h.ParseID(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), treatmentID); err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, "treatment archived")
}

func (h *TreatmentHandler) render(c *gin.Context, t *treatment.Treatment, created bool) {
	body, err := dto.FromTreatment(t)
	if err != nil {
		h.Error(c, err)
		return
	}
	if created {
		h.Created(c, body)
		return
	}
	h.OK(c, body)
}

// TreatmentHistoryHandler serves /physio/treatment-histories.
type TreatmentHistoryHandler struct {
	*BaseHandler
	service *treatment_history.Service
}

func NewTreatmentHistoryHandler(base *BaseHandler, service *treatment_history.Service) *TreatmentHistoryHandler {
	return &TreatmentHistoryHandler{BaseHandler: base, service: service}
}

func (h *TreatmentHistoryHandler) List(c *gin.Context) {
	f, ok := h.ListFilter(c)
	if !ok {
		return
	}
	if raw := c.Query("partner_id"); raw != "" {
		partnerID, err := parseQueryID("partner_id", raw)
		if err != nil {
			h.Error(c, err)
			return
		}
		f.PartnerID = &partnerID
	}
	res, err := h.service.List(c.Request.Context(), f)
	if err != nil {
		h.Error(c, err)
		return
	}
	items := make([]any, len(res.Items))
	for i, th := range res.Items {
		if items[i], err = dto.FromTreatmentHistory(th); err != nil {
			h.Error(c, err)
			return
		}
	}
	h.OK(c, dto.ListResponse{Items: items, TotalCount: res.TotalCount, Limit: res.Limit, Offset: res.Offset})
}

func (h *TreatmentHistoryHandler) Get(c *gin.Context) {
	historyID, ok := h.ParseID(c)
	if !ok {
		return
	}
	th, err := h.service.Get(c.Request.Context(), historyID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.render(c, th, false)
}

func (h *TreatmentHistoryHandler) Create(c *gin.Context) {
	var req dto.CreateTreatmentHistoryRequest
	if !h.BindJSON(c, &req) {
		return
	}
	th, err := req.ToEntity(h.CompanyID(c))
	if err != nil {
		h.Error(c, err)
		return
	}
	if err := h.service.Create(c.Request.Context(), th); err != nil {
		h.Error(c, err)
		return
	}
	h.render(c, th, true)
}

func (h *TreatmentHistoryHandler) Update(c *gin.Context) {
	historyID, ok := h.ParseID(c)
	if !ok {
		return
	}
	var req dto.UpdateTreatmentHistoryRequest
	if !h.BindJSON(c, &req) {
		return
	}
	existing, err := h.service.GetByID(c.Request.Context(), historyID)
	if err != nil {
		h.Error(c, err)
		return
	}
	th, err := req.ApplyTo(existing)
	if err != nil {
		h.Error(c, err)
		return
	}
	if err := h.service.Update(c.Request.Context(), th); err != nil {
		h.Error(c, err)
		return
	}
	h.render(c, th, false)
}

func (h *TreatmentHistoryHandler) Delete(c *gin.Context) {
	historyID, ok := h.ParseID(c)
	if !ok {
		return
	}
	if err := h.service.Unlink(c.Request.Context(), historyID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

func (h *TreatmentHistoryHandler) render(c *gin.Context, th *treatment_history.TreatmentHistory, created bool) {
	body, err := dto.FromTreatmentHistory(th)
	if err != nil {
		h.Error(c, err)
		return
	}
	if created {
		h.Created(c, body)
		return
	}
	h.OK(c, body)
}
