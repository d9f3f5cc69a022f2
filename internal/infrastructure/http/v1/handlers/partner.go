package handlers

import (
	"github.com/gin-gonic/gin"

	"physio/internal/core/id"
	"physio/internal/domain"
	"physio/internal/domain/audit"
	"physio/internal/domain/catalogs/partner"
	"physio/internal/domain/filter"
	"physio/internal/domain/physio/treatment"
	"physio/internal/infrastructure/http/v1/dto"
	"physio/internal/infrastructure/http/v1/validation"
)

// PartnerHandler exposes the partner create/write/unlink protocol.
type PartnerHandler struct {
	*BaseHandler
	service    *partner.Service
	treatments *treatment.Service
	history    audit.Reader
}

func NewPartnerHandler(base *BaseHandler, service *partner.Service, treatments *treatment.Service, history audit.Reader) *PartnerHandler {
	return &PartnerHandler{BaseHandler: base, service: service, treatments: treatments, history: history}
}

// List handles GET /catalog/partners. physiotherapy=true keeps only clinic patients.
func (h *PartnerHandler) List(c *gin.Context) {
	f, ok := h.ListFilter(c)
	if !ok {
		return
	}
	if v := c.Query("physiotherapy"); v != "" {
		f.AdvancedFilters = append(f.AdvancedFilters, partnerFlagFilter(v == "true"))
	}

	res, err := h.service.List(c.Request.Context(), f)
	if err != nil {
		h.Error(c, err)
		return
	}
	items := make([]any, len(res.Items))
	for i, p := range res.Items {
		items[i] = dto.FromPartner(p)
	}
	h.OK(c, dto.ListResponse{Items: items, TotalCount: res.TotalCount, Limit: res.Limit, Offset: res.Offset})
}

// Get handles GET /catalog/partners/:id with derived relations.
func (h *PartnerHandler) Get(c *gin.Context) {
	partnerID, ok := h.ParseID(c)
	if !ok {
		return
	}
	view, err := h.service.Read(c.Request.Context(), partnerID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromPartnerView(view))
}

// Create handles POST /catalog/partners. The body is the raw values payload.
func (h *PartnerHandler) Create(c *gin.Context) {
	var vals partner.Values
	if !h.BindJSON(c, &vals) {
		return
	}
	if err := validation.CheckPartnerValues(vals); err != nil {
		h.Error(c, err)
		return
	}

	p, err := h.service.Create(c.Request.Context(), vals, h.CompanyID(c))
	if err != nil {
		h.Error(c, err)
		return
	}
	view, err := h.service.Read(c.Request.Context(), p.ID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, dto.FromPartnerView(view))
}

// Write handles PUT /catalog/partners/:id with a values payload.
func (h *PartnerHandler) Write(c *gin.Context) {
	partnerID, ok := h.ParseID(c)
	if !ok {
		return
	}
	var vals partner.Values
	if !h.BindJSON(c, &vals) {
		return
	}
	h.write(c, []id.ID{partnerID}, vals, true)
}

// WriteMany handles POST /catalog/partners/write: {"ids": [...], "values": {...}}.
func (h *PartnerHandler) WriteMany(c *gin.Context) {
	var req dto.WriteRequest
	if !h.BindJSON(c, &req) {
		return
	}
	ids, err := dto.IDsRequest{IDs: req.IDs}.ParseIDs()
	if err != nil {
		h.Error(c, err)
		return
	}
	h.write(c, ids, req.Values, false)
}

func (h *PartnerHandler) write(c *gin.Context, ids []id.ID, vals partner.Values, readBack bool) {
	if err := validation.CheckPartnerValues(vals); err != nil {
		h.Error(c, err)
		return
	}
	if err := h.service.Write(c.Request.Context(), ids, vals); err != nil {
		h.Error(c, err)
		return
	}
	if !readBack {
		h.Success(c, "partners updated")
		return
	}
	view, err := h.service.Read(c.Request.Context(), ids[0])
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromPartnerView(view))
}

// Delete handles DELETE /catalog/partners/:id.
func (h *PartnerHandler) Delete(c *gin.Context) {
	partnerID, ok := h.ParseID(c)
	if !ok {
		return
	}
	if err := h.service.Unlink(c.Request.Context(), []id.ID{partnerID}); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// UnlinkMany handles POST /catalog/partners/unlink: {"ids": [...]}.
func (h *PartnerHandler) UnlinkMany(c *gin.Context) {
	var req dto.IDsRequest
	if !h.BindJSON(c, &req) {
		return
	}
	ids, err := req.ParseIDs()
	if err != nil {
		h.Error(c, err)
		return
	}
	if err := h.service.Unlink(c.Request.Context(), ids); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// MakeTreatment handles POST /catalog/partners/:id/action/make-treatment.
func (h *PartnerHandler) MakeTreatment(c *gin.Context) {
	partnerID, ok := h.ParseID(c)
	if !ok {
		return
	}
	w, err := h.service.ActionMakeTreatment(c.Request.Context(), partnerID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, w)
}

// Treatments handles GET /catalog/partners/:id/treatments.
func (h *PartnerHandler) Treatments(c *gin.Context) {
	partnerID, ok := h.ParseID(c)
	if !ok {
		return
	}
	f, ok := h.ListFilter(c)
	if !ok {
		return
	}
	if _, err := h.service.GetByID(c.Request.Context(), partnerID); err != nil {
		h.Error(c, err)
		return
	}

	res, err := h.treatments.ListByPartner(c.Request.Context(), partnerID, f)
	if err != nil {
		h.Error(c, err)
		return
	}
	items, err := treatmentItems(res)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.ListResponse{Items: items, TotalCount: res.TotalCount, Limit: res.Limit, Offset: res.Offset})
}

// History handles GET /catalog/partners/:id/history: the audit journal of the partner.
func (h *PartnerHandler) History(c *gin.Context) {
	partnerID, ok := h.ParseID(c)
	if !ok {
		return
	}
	if h.history == nil {
		h.OK(c, gin.H{"items": []audit.Entry{}})
		return
	}
	entries, err := h.history.GetEntityHistory(c.Request.Context(), partner.ModelName, partnerID, h.ParseIntQuery(c, "limit", 50))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"items": entries})
}

func treatmentItems(res domain.ListResult[*treatment.Treatment]) ([]any, error) {
	items := make([]any, len(res.Items))
	for i, t := range res.Items {
		m, err := dto.FromTreatment(t)
		if err != nil {
			return nil, err
		}
		items[i] = m
	}
	return items, nil
}

func partnerFlagFilter(flag bool) filter.Item {
	return filter.Item{Field: partner.FieldPhysiotherapyPartner, Operator: filter.Equal, Value: flag}
}
