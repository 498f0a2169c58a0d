package handlers

import (
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"

	"github.com/sapbridge/sapbridge-api/internal/middleware"
	"github.com/sapbridge/sapbridge-api/internal/models"
	"github.com/sapbridge/sapbridge-api/internal/services"
	"github.com/sapbridge/sapbridge-api/pkg/dto"
)

type ServiceHandler struct {
	serviceService ServiceServiceInterface
}

func NewServiceHandler(serviceService ServiceServiceInterface) *ServiceHandler {
	return &ServiceHandler{serviceService: serviceService}
}

func (h *ServiceHandler) Create(c *drift.Context) {
	orgID := middleware.GetOrgID(c)

	var req dto.CreateServiceRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	svc, err := h.serviceService.Create(c.Request.Context(), orgID, services.CreateServiceInput{
		Name:         req.Name,
		BaseURL:      req.BaseURL,
		ServicePath:  req.ServicePath,
		AuthConfigID: req.AuthConfigID,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	_ = c.JSON(201, serviceResponse(svc))
}

func (h *ServiceHandler) List(c *drift.Context) {
	orgID := middleware.GetOrgID(c)

	svcs, err := h.serviceService.List(c.Request.Context(), orgID)
	if err != nil {
		c.InternalServerError("failed to list services")
		return
	}

	response := make([]dto.ServiceResponse, len(svcs))
	for i := range svcs {
		response[i] = serviceResponse(&svcs[i])
	}

	_ = c.JSON(200, response)
}

func (h *ServiceHandler) Get(c *drift.Context) {
	orgID := middleware.GetOrgID(c)

	serviceID, err := uuid.Parse(c.Param("serviceId"))
	if err != nil {
		c.BadRequest("invalid service id")
		return
	}

	svc, err := h.serviceService.GetByID(c.Request.Context(), serviceID, orgID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	_ = c.JSON(200, serviceResponse(svc))
}

func (h *ServiceHandler) Update(c *drift.Context) {
	orgID := middleware.GetOrgID(c)

	serviceID, err := uuid.Parse(c.Param("serviceId"))
	if err != nil {
		c.BadRequest("invalid service id")
		return
	}

	var req dto.UpdateServiceRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	svc, err := h.serviceService.Update(c.Request.Context(), serviceID, orgID, services.UpdateServiceInput{
		Name:            req.Name,
		BaseURL:         req.BaseURL,
		ServicePath:     req.ServicePath,
		AuthConfigID:    req.AuthConfigID,
		ClearAuthConfig: req.ClearAuthConfig,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	_ = c.JSON(200, serviceResponse(svc))
}

func (h *ServiceHandler) Delete(c *drift.Context) {
	orgID := middleware.GetOrgID(c)

	serviceID, err := uuid.Parse(c.Param("serviceId"))
	if err != nil {
		c.BadRequest("invalid service id")
		return
	}

	if err := h.serviceService.Delete(c.Request.Context(), serviceID, orgID); err != nil {
		respondServiceError(c, err)
		return
	}

	_ = c.JSON(200, map[string]string{"message": "service deleted"})
}

// RefreshEntities re-introspects the remote $metadata document. A
// failed introspection is a 200 with the failure in the payload; the
// stored catalog stays as it was.
func (h *ServiceHandler) RefreshEntities(c *drift.Context) {
	orgID := middleware.GetOrgID(c)

	serviceID, err := uuid.Parse(c.Param("serviceId"))
	if err != nil {
		c.BadRequest("invalid service id")
		return
	}

	svc, result, err := h.serviceService.RefreshEntities(c.Request.Context(), serviceID, orgID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	_ = c.JSON(200, dto.RefreshEntitiesResponse{
		Service: serviceResponse(svc),
		Introspection: dto.IntrospectionResult{
			OK:      result.OK(),
			Error:   result.Error,
			Version: result.ODataVersion,
		},
	})
}

func serviceResponse(svc *models.Service) dto.ServiceResponse {
	entities := svc.Entities
	if entities == nil {
		entities = []string{}
	}
	return dto.ServiceResponse{
		ID:                  svc.ID,
		Name:                svc.Name,
		BaseURL:             svc.BaseURL,
		ServicePath:         svc.ServicePath,
		AuthConfigID:        svc.AuthConfigID,
		ODataVersion:        svc.ODataVersion,
		Entities:            entities,
		EntitiesRefreshedAt: svc.EntitiesRefreshedAt,
		CreatedAt:           svc.CreatedAt,
		UpdatedAt:           svc.UpdatedAt,
	}
}
