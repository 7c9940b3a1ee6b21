package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"growthwatch/backend/services/growth-service/internal/growth"
	"growthwatch/backend/services/growth-service/internal/http/middleware"
)

const maxBodyBytes = 64 * 1024

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, target interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(target); err != nil {
		return fmt.Errorf("invalid body: %w", err)
	}
	return nil
}

func sessionID(r *http.Request) (string, error) {
	id, ok := middleware.SessionIDFromContext(r.Context())
	if !ok {
		return "", errors.New("missing session")
	}
	return id, nil
}

// parseMeasurement reads the form fields. Decimal commas are accepted.
func parseMeasurement(r *http.Request) (growth.Measurement, error) {
	var m growth.Measurement
	age, err := strconv.Atoi(strings.TrimSpace(r.FormValue("age_months")))
	if err != nil {
		return m, errors.New("la edad debe ser un número entero de meses")
	}
	weight, err := parseDecimal(r.FormValue("weight_kg"))
	if err != nil {
		return m, errors.New("el peso debe ser un número")
	}
	height, err := parseDecimal(r.FormValue("height_cm"))
	if err != nil {
		return m, errors.New("la estatura debe ser un número")
	}
	m.AgeMonths, m.WeightKg, m.HeightCm = age, weight, height
	return m, nil
}

func parseDecimal(raw string) (float64, error) {
	return strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(raw), ",", "."), 64)
}
