package main

import (
	"encoding/csv"
	"errors"
	"log"
	"os"
	"strconv"
	"strings"

	"sdssn/config"
	"sdssn/database"
	"sdssn/models"

	"gorm.io/gorm"
)

// Imports the certification catalog from a CSV with the header
// name,type,description,duration,duration_unit,management_signature_id,secretary_signature_id
func main() {
	path := "certifications.csv"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	config.LoadConfig()
	database.ConnectDb()

	file, err := os.Open(path)
	if err != nil {
		log.Fatalf("Failed to open CSV file: %v", err)
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		log.Fatalf("Failed to read CSV: %v", err)
	}
	if len(records) < 2 {
		log.Fatal("CSV file is empty or has only headers")
	}

	log.Printf("Total rows to import: %d", len(records)-1)
	stats := importCertifications(database.Database.Db, records)
	log.Printf("Import complete: %d inserted, %d updated, %d skipped", stats.inserted, stats.updated, stats.skipped)
}

type importStats struct {
	inserted, updated, skipped int
}

func importCertifications(db *gorm.DB, records [][]string) importStats {
	headerIndex := make(map[string]int)
	for i, h := range records[0] {
		headerIndex[strings.ToLower(strings.TrimSpace(h))] = i
	}

	var stats importStats
	for i, row := range records[1:] {
		cert, err := parseRow(row, headerIndex)
		if err != nil {
			log.Printf("Skipping row %d: %v", i+2, err)
			stats.skipped++
			continue
		}

		var existing models.Certification
		err = db.Where("name = ?", cert.Name).First(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			if err := db.Create(&cert).Error; err != nil {
				log.Printf("Error inserting certification %q: %v", cert.Name, err)
				stats.skipped++
				continue
			}
			stats.inserted++
		case err != nil:
			log.Printf("Error looking up certification %q: %v", cert.Name, err)
			stats.skipped++
		default:
			if err := db.Model(&existing).Updates(map[string]interface{}{
				"type":                    cert.Type,
				"description":             cert.Description,
				"duration":                cert.Duration,
				"duration_unit":           cert.DurationUnit,
				"management_signature_id": cert.ManagementSignatureID,
				"secretary_signature_id":  cert.SecretarySignatureID,
			}).Error; err != nil {
				log.Printf("Error updating certification %q: %v", cert.Name, err)
				stats.skipped++
				continue
			}
			stats.updated++
		}
	}
	return stats
}

func parseRow(row []string, headerIndex map[string]int) (models.Certification, error) {
	cert := models.Certification{
		Name:        getField(row, headerIndex, "name"),
		Type:        getField(row, headerIndex, "type"),
		Description: getField(row, headerIndex, "description"),
	}
	if cert.Name == "" {
		return cert, errors.New("name is empty")
	}

	duration, err := strconv.Atoi(getField(row, headerIndex, "duration"))
	if err != nil || duration <= 0 {
		return cert, errors.New("duration must be a positive integer")
	}
	cert.Duration = duration

	unit, err := models.NormalizeDurationUnit(getField(row, headerIndex, "duration_unit"))
	if err != nil {
		return cert, err
	}
	cert.DurationUnit = unit

	cert.ManagementSignatureID = parseID(getField(row, headerIndex, "management_signature_id"))
	cert.SecretarySignatureID = parseID(getField(row, headerIndex, "secretary_signature_id"))
	return cert, nil
}

// Helper function to get field from row by header name
func getField(row []string, headerIndex map[string]int, fieldName string) string {
	if idx, ok := headerIndex[fieldName]; ok && idx < len(row) {
		return strings.TrimSpace(row[idx])
	}
	return ""
}

func parseID(s string) *uint {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil || v == 0 {
		return nil
	}
	id := uint(v)
	return &id
}
