// Package extract turns recognized page text into ticket rows by running a
// fixed table of field patterns. Matching is case-insensitive and each field
// takes the first capture group of its pattern, or domain.NotAvailable.
package extract

import (
	"regexp"
	"strings"

	"ticketscan/internal/domain"
)

// Patterns are keyed to the ticket layout the scans come from. The ticket id
// is a bare 9-10 digit number anywhere on the page, not tied to a label.
var (
	reTicketID      = regexp.MustCompile(`(\d{9,10})`)
	reDateTime      = regexp.MustCompile(`(?i)Ticket Date/Time:\s*(.*)`)
	reApplicant     = regexp.MustCompile(`(?i)Applicant:\s*(.*)`)
	reDisaster      = regexp.MustCompile(`(?i)Disaster:\s*(.*)`)
	reProgram       = regexp.MustCompile(`(?i)Program:\s*(.*)`)
	reContractor    = regexp.MustCompile(`(?i)Contractor:\s*(.*)`)
	reSubContractor = regexp.MustCompile(`(?i)Sub-Contractor:\s*(.*)`)
	reCrew          = regexp.MustCompile(`(?i)Crew:\s*(.*)`)
	reSupervisor    = regexp.MustCompile(`(?i)Supervisor:\s*(.*)`)
	reHazardType    = regexp.MustCompile(`(?i)Hazard Type:\s*(.*)`)
	reGPS           = regexp.MustCompile(`(?i)GPS\(Lat,Lgn\):\s*(.*)`)
	reAddress       = regexp.MustCompile(`(?i)Address:\s*(.*)`)
	reMeasure       = regexp.MustCompile(`(?i)Measure:\s*([\d\.]+)`)
	reUnitCount     = regexp.MustCompile(`(?i)Unit Count:\s*(\d+)`)
	reMonitor       = regexp.MustCompile(`(?i)Monitor:\s*(.*)`)
)

// ParseFields extracts every ticket field from one page of OCR text.
func ParseFields(text string) domain.TicketRow {
	return domain.TicketRow{
		TicketID:      firstGroup(reTicketID, text),
		DateTime:      firstGroup(reDateTime, text),
		Applicant:     firstGroup(reApplicant, text),
		Disaster:      firstGroup(reDisaster, text),
		Program:       firstGroup(reProgram, text),
		Contractor:    firstGroup(reContractor, text),
		SubContractor: firstGroup(reSubContractor, text),
		Crew:          firstGroup(reCrew, text),
		Supervisor:    firstGroup(reSupervisor, text),
		HazardType:    firstGroup(reHazardType, text),
		GPS:           firstGroup(reGPS, text),
		Address:       firstGroup(reAddress, text),
		Measure:       firstGroup(reMeasure, text),
		UnitCount:     firstGroup(reUnitCount, text),
		Monitor:       firstGroup(reMonitor, text),
	}
}

func firstGroup(re *regexp.Regexp, text string) string {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return domain.NotAvailable
	}
	return strings.TrimSpace(m[1])
}
