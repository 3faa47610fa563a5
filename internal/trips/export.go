package trips

import (
	"context"
	"io"

	"github.com/gdg-garage/groupy-loopy-api/internal/models"
	"github.com/tealeg/xlsx"
)

var exportHeader = []string{
	"Name", "Email", "Phone", "ID Number", "Child", "Family", "Group",
	"Vehicle", "Payment Status", "Amount Paid", "Transaction",
}

// ExportParticipants writes the trip roster as an xlsx workbook.
func ExportParticipants(participants []models.TripParticipant, w io.Writer) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Participants")
	if err != nil {
		return err
	}

	header := sheet.AddRow()
	for _, h := range exportHeader {
		header.AddCell().SetString(h)
	}

	for _, p := range participants {
		row := sheet.AddRow()
		row.AddCell().SetString(p.Name)
		row.AddCell().SetString(p.Email)
		row.AddCell().SetString(p.Phone)
		row.AddCell().SetString(p.IDNumber)
		row.AddCell().SetBool(p.IsChild)
		row.AddCell().SetString(p.FamilyID)
		row.AddCell().SetString(p.GroupName)
		vehicle := ""
		if p.HasVehicle {
			vehicle = p.VehicleNumber
		}
		row.AddCell().SetString(vehicle)
		row.AddCell().SetString(string(p.PaymentStatus))
		row.AddCell().SetFloat(p.PaymentAmount)
		row.AddCell().SetString(p.PaymentTransactionID)
	}

	return file.Write(w)
}

func (s *Service) ExportTrip(ctx context.Context, tripID uint, w io.Writer) error {
	if _, err := s.repo.GetTrip(ctx, tripID); err != nil {
		return err
	}
	participants, err := s.repo.TripParticipants(ctx, tripID)
	if err != nil {
		return err
	}
	return ExportParticipants(participants, w)
}
