package audition

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"JNChoral/model"
)

// ExportHeader is the first CSV row.
var ExportHeader = []string{
	"id", "fullName", "phone", "email", "city", "category",
	"voicePart", "instrument", "instrumentLevel", "canSightRead",
	"productionRole", "portfolioLink", "notes", "status", "createdAt",
}

// ExportFilename is the attachment name of the CSV download.
const ExportFilename = "auditions.csv"

// WriteCSV writes the header and one row per application.
// Values containing a comma, quote or newline are quoted with inner quotes doubled.
func WriteCSV(w io.Writer, apps []model.AuditionApplication) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ExportHeader); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for i := range apps {
		if err := cw.Write(exportRow(&apps[i])); err != nil {
			return fmt.Errorf("failed to write csv row %s: %w", apps[i].ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func exportRow(a *model.AuditionApplication) []string {
	var voicePart string
	if a.VoicePart != nil {
		voicePart = string(*a.VoicePart)
	}
	var sightRead string
	if a.CanSightRead != nil {
		sightRead = strconv.FormatBool(*a.CanSightRead)
	}
	return []string{
		a.ID,
		a.FullName,
		a.Phone,
		a.Email,
		derefString(a.City),
		string(a.Category),
		voicePart,
		derefString(a.Instrument),
		derefString(a.InstrumentLevel),
		sightRead,
		derefString(a.ProductionRole),
		derefString(a.PortfolioLink),
		derefString(a.Notes),
		string(a.Status),
		a.CreatedAt.UTC().Format("2006-01-02T15:04:05.000Z"),
	}
}
