package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
)

var ErrInvalidBody = errors.New("invalid request body")

func SetError(w http.ResponseWriter, err error, status int) {
	http.Error(w, err.Error(), status)
}

func SetSuccessJson(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
}

func writeJson(w http.ResponseWriter, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return err
	}
	SetSuccessJson(w)
	_, err = w.Write(body)
	return err
}
