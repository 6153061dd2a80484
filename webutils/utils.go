package webutils

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/mogaika/mesh_optimizer/logger"
)

func log() *zap.Logger { return logger.Log.Named("web") }

func WriteFileHeaders(w http.ResponseWriter, name string) {
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", "attachment; filename=\""+name+"\"")
}

func WriteFile(w http.ResponseWriter, in io.Reader, name string) {
	WriteFileHeaders(w, name)
	if _, err := io.Copy(w, in); err != nil {
		log().Warn("file write failed", zap.String("file", name), zap.Error(err))
	}
}

func WriteJson(w http.ResponseWriter, data interface{}) {
	res, err := json.Marshal(data)
	if err != nil {
		WriteError(w, err)
	} else {
		w.Header().Set("Content-Type", "application/json")
		WriteResult(w, res)
	}
}

func WriteResult(w http.ResponseWriter, data []byte) {
	_, err := w.Write(data)
	if err != nil {
		log().Warn("error when writing response", zap.Error(err))
	}
}

func WriteError(w http.ResponseWriter, err error) {
	WriteErrorCode(w, http.StatusInternalServerError, err)
}

func WriteErrorCode(w http.ResponseWriter, code int, err error) {
	type jError struct {
		Error string `json:"error"`
	}
	data, merr := json.Marshal(&jError{Error: err.Error()})
	if merr != nil {
		log().Error("error marshaling error", zap.NamedError("original", err), zap.Error(merr))
		return
	}
	log().Warn("HERR", zap.Int("code", code), zap.String("error", err.Error()))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	WriteResult(w, data)
}

// RequirePost returns error for any method except POST
func RequirePost(r *http.Request) error {
	if strings.ToUpper(r.Method) != http.MethodPost {
		return errors.Errorf("Invalid http method %q", r.Method)
	}
	return nil
}

// QueryBool treats missing or empty value as def
func QueryBool(r *http.Request, key string, def bool) (bool, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def, errors.Wrapf(err, "Param %q is not boolean", key)
	}
	return b, nil
}

// QueryIds parses comma separated list of integers, empty value gives nil
func QueryIds(r *http.Request, key string) ([]int64, error) {
	v := strings.TrimSpace(r.URL.Query().Get(key))
	if v == "" {
		return nil, nil
	}
	parts := strings.Split(v, ",")
	result := make([]int64, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "Param %q contains non integer %q", key, p)
		}
		result = append(result, id)
	}
	return result, nil
}
