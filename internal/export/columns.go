// Package export renders extracted ticket rows to spreadsheet files.
package export

import (
	"strconv"

	"ticketscan/internal/domain"
)

// Columns defines the header row (17 columns): provenance first, then the
// extracted ticket fields in their fixed order.
var Columns = []string{
	"Source File",
	"Page",
	"Ticket ID",
	"Date/Time",
	"Applicant",
	"Disaster",
	"Program",
	"Contractor",
	"Sub-Contractor",
	"Crew",
	"Supervisor",
	"Hazard Type",
	"GPS (Lat,Lgn)",
	"Address",
	"Measure",
	"Unit Count",
	"Monitor",
}

// rowValues converts a single ticket row to a 17-element string slice.
func rowValues(row *domain.TicketRow) []string {
	return []string{
		row.SourceFile,
		strconv.Itoa(row.Page),
		row.TicketID,
		row.DateTime,
		row.Applicant,
		row.Disaster,
		row.Program,
		row.Contractor,
		row.SubContractor,
		row.Crew,
		row.Supervisor,
		row.HazardType,
		row.GPS,
		row.Address,
		row.Measure,
		row.UnitCount,
		row.Monitor,
	}
}
