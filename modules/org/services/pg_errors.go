package services

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// mapPgError translates storage failures into ServiceError kinds. Errors
// that are already ServiceErrors (from validation, or from test fakes) pass
// through unchanged.
func mapPgError(err error) error {
	if err == nil {
		return nil
	}

	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return newServiceError(http.StatusNotFound, "ORG_NOT_FOUND", "not found", err)
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case "23505": // unique_violation
		recordWriteConflict("unique")
		switch pgErr.ConstraintName {
		case "departments_code_key", "positions_code_key":
			return conflict("ORG_CODE_CONFLICT", "code already exists", err)
		case "structure_change_requests_request_number_key":
			return conflict("ORG_REQUEST_NUMBER_CONFLICT", "request number already exists", err)
		default:
			return conflict("ORG_CONFLICT", "unique constraint violated", err)
		}
	case "23503": // foreign_key_violation
		recordWriteConflict("foreign_key")
		return badRequest("ORG_INVALID_REF", "referenced record does not exist")
	default:
		return newServiceError(http.StatusInternalServerError, "ORG_INTERNAL", fmt.Sprintf("database error (%s)", pgErr.Code), err)
	}
}
