package services

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Ananth-NQI/washpe-backend/internal/models"
	"github.com/Ananth-NQI/washpe-backend/internal/storage"
)

// storeFailure maps an unexpected storage error to the domain error the client sees
func storeFailure(err error) *models.Error {
	if errors.Is(err, storage.ErrUnavailable) {
		return models.StorageUnavailable(err)
	}
	return models.InternalError(err)
}

// decodeFailure turns a profile decode error into a validation error naming the field
func decodeFailure(err error) *models.Error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return models.ValidationError(fmt.Sprintf("%s has an invalid value", typeErr.Field))
	}
	return models.ValidationError("invalid profile data")
}
