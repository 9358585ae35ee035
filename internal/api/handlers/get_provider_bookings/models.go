package get_provider_bookings

import (
	"net/url"
	"strconv"
	"time"

	"github.com/m04kA/SMC-BeautyBooking/internal/domain"
	"github.com/m04kA/SMC-BeautyBooking/internal/service/bookings/models"
)

// ToServiceRequest создает запрос к сервису из query параметров
func ToServiceRequest(providerID int64, actor domain.Actor, query url.Values, loc *time.Location) (*models.GetProviderBookingsRequest, error) {
	req := &models.GetProviderBookingsRequest{
		ProviderID: providerID,
		Actor:      actor,
	}

	if from := query.Get("from"); from != "" {
		date, err := domain.ParseDate(from, loc)
		if err != nil {
			return nil, err
		}
		req.StartDate = &date
	}

	if to := query.Get("to"); to != "" {
		date, err := domain.ParseDate(to, loc)
		if err != nil {
			return nil, err
		}
		req.EndDate = &date
	}

	if status := query.Get("status"); status != "" {
		req.Status = &status
	}

	if raw := query.Get("includeInactive"); raw != "" {
		includeInactive, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, err
		}
		req.IncludeInactive = includeInactive
	}

	return req, nil
}
