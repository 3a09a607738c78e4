package handlers

import (
	"encoding/json"
	"net/http"
)

// successEnvelope mirrors the error envelope: every non-media response carries
// an explicit success flag so clients branch on one field.
type successEnvelope struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(successEnvelope{Success: true, Data: data})
}
