package handlers

import (
	"encoding/json"
	"log"
	"net/http"
)

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			log.Printf("Error encoding JSON response: %v", err)
		}
	}
}

// apiError is the standardized error envelope. Code is a stable machine
// identifier so the admin frontend can branch on it; detail is for humans.
type apiError struct {
	Code   string `json:"code"`
	Detail string `json:"detail"`
}

type apiErrorResponse struct {
	Error apiError `json:"error"`
}

func writeAPIError(w http.ResponseWriter, httpStatus int, code, detail string) {
	writeJSON(w, httpStatus, apiErrorResponse{Error: apiError{Code: code, Detail: detail}})
}
