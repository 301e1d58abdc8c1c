// Package responses renders the {"data": ...} and {"error": ...} envelopes.
package responses

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

func WriteSuccess(w http.ResponseWriter, data any) {
	WriteSuccessStatus(w, http.StatusOK, data)
}

func WriteSuccessStatus(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, types.SuccessEnvelope{Data: data})
}

// WriteNoContent answers 204 for deletes and dismissals.
func WriteNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// WriteError maps err onto its code's status. Client errors (4xx) show the
// error's own message; server errors show only the public message so causes
// never leak. Untyped errors count as internal.
func WriteError(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, err error) {
	if err == nil {
		err = errors.New("unknown error")
	}
	typed := pkgerrors.As(err)
	if typed == nil {
		typed = pkgerrors.Wrap(pkgerrors.CodeInternal, err, "unexpected error")
	}
	meta := pkgerrors.MetadataFor(typed.Code())

	msg := meta.PublicMessage
	if meta.HTTPStatus < http.StatusInternalServerError && typed.Message() != "" {
		msg = typed.Message()
	}
	var details any
	if meta.DetailsAllowed {
		details = typed.Details()
	}

	if logg != nil {
		logRejection(ctx, logg, err, typed, meta.HTTPStatus)
	}
	writeJSON(w, meta.HTTPStatus, types.NewErrorEnvelope(string(typed.Code()), msg, details))
}

func logRejection(ctx context.Context, logg *logger.Logger, err error, typed *pkgerrors.Error, status int) {
	dump := pkgerrors.Dump(err)
	fields := map[string]any{
		"error":       dump.TopMessage,
		"error_code":  dump.Code,
		"error_chain": dump.Chain,
		"status":      status,
	}
	if dump.DBDriver != "" {
		fields["db_driver"] = dump.DBDriver
		fields["db_code"] = dump.DBCode
		fields["db_detail"] = dump.DBDetail
		fields["db_message"] = dump.DBMessage
		fields["db_table"] = dump.DBTable
		fields["db_column"] = dump.DBColumn
		fields["db_constraint"] = dump.DBConstraint
	}
	switch d := typed.Details().(type) {
	case types.LogFielder:
		for k, v := range d.LogFields() {
			fields[k] = v
		}
	case map[string]any:
		if state, ok := d["state"]; ok {
			fields["checkout_state"] = state
		}
	}

	ctx = logg.WithFields(ctx, fields)
	if status >= http.StatusInternalServerError {
		logg.Error(ctx, "request.error", err)
		return
	}
	logg.Warn(ctx, "request.rejected")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		status = http.StatusInternalServerError
		body, _ = json.Marshal(types.NewErrorEnvelope(string(pkgerrors.CodeInternal), pkgerrors.MetadataFor(pkgerrors.CodeInternal).PublicMessage, nil))
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}
