package httputil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
)

// ParseJSON decodes JSON from the request body into the destination
func ParseJSON(r *http.Request, dest interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}

// ParseJSONOrError decodes JSON and writes an error response on failure
func ParseJSONOrError(w http.ResponseWriter, r *http.Request, dest interface{}) bool {
	if err := ParseJSON(r, dest); err != nil {
		WriteBadRequest(w, err.Error())
		return false
	}
	return true
}

// PathParam extracts a string path parameter
func PathParam(r *http.Request, key string) (string, error) {
	vars := mux.Vars(r)
	str := vars[key]
	if str == "" {
		return "", fmt.Errorf("missing path parameter: %s", key)
	}
	return str, nil
}

// PathParamOrError extracts a string path parameter and writes an error on failure
func PathParamOrError(w http.ResponseWriter, r *http.Request, key string) (string, bool) {
	val, err := PathParam(r, key)
	if err != nil {
		WriteBadRequest(w, err.Error())
		return "", false
	}
	return val, true
}

// PathParamInt64 extracts a numeric path parameter
func PathParamInt64(r *http.Request, key string) (int64, error) {
	str, err := PathParam(r, key)
	if err != nil {
		return 0, err
	}
	val, err := strconv.ParseInt(str, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("path parameter %s must be numeric", key)
	}
	return val, nil
}

// PathParamInt64OrError extracts a numeric path parameter and writes an error on failure
func PathParamInt64OrError(w http.ResponseWriter, r *http.Request, key string) (int64, bool) {
	val, err := PathParamInt64(r, key)
	if err != nil {
		WriteBadRequest(w, err.Error())
		return 0, false
	}
	return val, true
}
