package list_reservations

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
	"github.com/m04kA/SMC-ReservationEngine/internal/service/reservations/models"
)

const maxLimit = 200

// ToServiceRequest разбирает query параметры establishmentId, status, limit
func ToServiceRequest(actor domain.Actor, query url.Values) (*models.ListRequest, error) {
	req := &models.ListRequest{Actor: actor}

	if raw := query.Get("establishmentId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid establishmentId %q", raw)
		}
		req.EstablishmentID = &id
	}

	if raw := query.Get("status"); raw != "" {
		if _, err := models.ToDomainStatus(raw); err != nil {
			return nil, err
		}
		req.Status = &raw
	}

	if raw := query.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 || limit > maxLimit {
			return nil, fmt.Errorf("invalid limit %q", raw)
		}
		req.Limit = limit
	}

	return req, nil
}
