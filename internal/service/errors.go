package service

import (
	"net/http"

	apperrors "github.com/operalog/api/pkg/util/errorutil"
)

var (
	// ErrDuplicateReport is returned when a ship already has a report for the date.
	ErrDuplicateReport error = apperrors.NewDomainError("DUPLICATE_REPORT", "a report already exists for this ship and date", http.StatusConflict, nil)
	// ErrInvalidCredentials covers unknown accounts, inactive users and wrong passwords alike.
	ErrInvalidCredentials error = apperrors.NewDomainError("UNAUTHORIZED", "invalid credentials", http.StatusUnauthorized, nil)
)
