package export

import (
	"fmt"
	"io"
	"sort"

	"mentorship/internal/models"

	"github.com/xuri/excelize/v2"
)

const (
	bookingsSheet = "Bookings"
	summarySheet  = "Mentors"
)

var bookingHeaders = []string{
	"Booking ID", "Session date", "Time slot", "Mentor", "Student ID", "Topic", "Status", "Changed by", "Created at", "Updated at",
}

// statusFill: booked is yellow, completed green, cancelled red.
var statusFill = map[models.Status]string{
	models.StatusBooked:    "#FFEB9C",
	models.StatusCompleted: "#C6EFCE",
	models.StatusCancelled: "#FFC7CE",
}

// FileName is the suggested download name for a range export.
func FileName(from, to string) string {
	return fmt.Sprintf("bookings_%s_to_%s.xlsx", from, to)
}

// WriteBookings renders bookings into an XLSX workbook and writes it to w.
// mentors maps mentor id to display name; unknown ids are shown as "#id".
func WriteBookings(w io.Writer, from, to string, bookings []*models.Booking, mentors map[int64]string) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(bookingsSheet)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)

	if err := writeBookingRows(f, from, to, bookings, mentors); err != nil {
		return err
	}
	if err := writeSummary(f, bookings, mentors); err != nil {
		return err
	}

	_ = f.DeleteSheet("Sheet1")

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func mentorLabel(id int64, mentors map[int64]string) string {
	if name, ok := mentors[id]; ok && name != "" {
		return fmt.Sprintf("%s (#%d)", name, id)
	}
	return fmt.Sprintf("#%d", id)
}

func writeBookingRows(f *excelize.File, from, to string, bookings []*models.Booking, mentors map[int64]string) error {
	_ = f.SetCellValue(bookingsSheet, "A1", fmt.Sprintf("Mentorship sessions %s to %s", from, to))
	_ = f.MergeCell(bookingsSheet, "A1", "J1")
	title, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return fmt.Errorf("title style: %w", err)
	}
	_ = f.SetCellStyle(bookingsSheet, "A1", "A1", title)

	header, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font: &excelize.Font{Bold: true},
	})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	for i, h := range bookingHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		_ = f.SetCellValue(bookingsSheet, cell, h)
		_ = f.SetCellStyle(bookingsSheet, cell, cell, header)
	}

	styles := make(map[models.Status]int, len(statusFill))
	for status, color := range statusFill {
		id, err := f.NewStyle(&excelize.Style{
			Fill: excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
		})
		if err != nil {
			return fmt.Errorf("status style: %w", err)
		}
		styles[status] = id
	}

	for i, b := range bookings {
		row := i + 3
		changedBy := ""
		if b.TransitionedBy != nil {
			changedBy = fmt.Sprintf("%d", *b.TransitionedBy)
		}
		values := []interface{}{
			b.ID,
			b.SessionDate,
			b.TimeSlot,
			mentorLabel(b.MentorID, mentors),
			b.StudentID,
			b.Topic,
			string(b.Status),
			changedBy,
			b.CreatedAt.Format("2006-01-02 15:04"),
			b.UpdatedAt.Format("2006-01-02 15:04"),
		}
		start, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(bookingsSheet, start, &values); err != nil {
			return fmt.Errorf("write row %d: %w", row, err)
		}
		if style, ok := styles[b.Status]; ok {
			cell, _ := excelize.CoordinatesToCellName(7, row)
			_ = f.SetCellStyle(bookingsSheet, cell, cell, style)
		}
	}

	_ = f.SetColWidth(bookingsSheet, "A", "C", 14)
	_ = f.SetColWidth(bookingsSheet, "D", "D", 28)
	_ = f.SetColWidth(bookingsSheet, "E", "E", 12)
	_ = f.SetColWidth(bookingsSheet, "F", "F", 40)
	_ = f.SetColWidth(bookingsSheet, "G", "J", 16)
	return nil
}

type mentorCounts struct {
	booked, completed, cancelled int
}

func writeSummary(f *excelize.File, bookings []*models.Booking, mentors map[int64]string) error {
	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}

	counts := make(map[int64]*mentorCounts)
	for _, b := range bookings {
		c, ok := counts[b.MentorID]
		if !ok {
			c = &mentorCounts{}
			counts[b.MentorID] = c
		}
		switch b.Status {
		case models.StatusBooked:
			c.booked++
		case models.StatusCompleted:
			c.completed++
		case models.StatusCancelled:
			c.cancelled++
		}
	}

	ids := make([]int64, 0, len(counts))
	for id := range counts {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	_ = f.SetSheetRow(summarySheet, "A1", &[]interface{}{"Mentor", "Booked", "Completed", "Cancelled", "Total"})
	for i, id := range ids {
		c := counts[id]
		row := []interface{}{mentorLabel(id, mentors), c.booked, c.completed, c.cancelled, c.booked + c.completed + c.cancelled}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return fmt.Errorf("write summary: %w", err)
		}
	}
	_ = f.SetColWidth(summarySheet, "A", "A", 28)
	return nil
}
