package menuapi

import (
	"context"
	"encoding/json"

	"lunch-menu/internal/menu"
)

// Backend endpoint names, appended to /api/.
const (
	EndpointScrapeMenu       = "scrape-menu"
	EndpointGenerateCalendar = "generate-calendar"
	EndpointExportPDF        = "export-pdf"
	EndpointSendEmail        = "send-email"
)

// ScrapeRequest asks the backend to scrape a menu page. WeekOffset is only
// sent by the weekly generator.
type ScrapeRequest struct {
	URL        string `json:"url"`
	WeekOffset *int   `json:"week_offset,omitempty"`
}

// ScrapeResponse carries either a whole week (MenuData) or a single day
// (MenuItem), depending on which flow called the endpoint.
type ScrapeResponse struct {
	MenuData menu.WeekMenu   `json:"menu_data,omitempty"`
	MenuItem *menu.MenuItem  `json:"menu_item,omitempty"`
	WeekID   string          `json:"week_id,omitempty"`
	WeekInfo json.RawMessage `json:"week_info,omitempty"`
	Day      string          `json:"day,omitempty"`
	Date     string          `json:"date,omitempty"`
}

// WeekLabel returns week_info when the backend sent it as a string.
func (r *ScrapeResponse) WeekLabel() string {
	if len(r.WeekInfo) == 0 {
		return ""
	}
	var label string
	if err := json.Unmarshal(r.WeekInfo, &label); err != nil {
		return ""
	}
	return label
}

// WeekRequest is the body of generate-calendar and export-pdf.
type WeekRequest struct {
	MenuData menu.WeekMenu `json:"menu_data"`
	WeekID   string        `json:"week_id"`
}

// CalendarResponse is returned by generate-calendar. PDFURL is often empty
// because the PDF is produced on demand by export-pdf.
type CalendarResponse struct {
	CalendarURL string `json:"calendar_url"`
	PDFURL      string `json:"pdf_url"`
}

// PDFResponse is returned by export-pdf.
type PDFResponse struct {
	PDFURL string `json:"pdf_url"`
}

// EmailRequest is the body of send-email.
type EmailRequest struct {
	Recipient   string `json:"recipient"`
	CalendarURL string `json:"calendar_url"`
	PDFURL      string `json:"pdf_url,omitempty"`
	WeekID      string `json:"week_id"`
}

// EmailResponse is returned by send-email. Success is implied by a 2xx
// status; the fields are informational.
type EmailResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ScrapeMenu calls /api/scrape-menu.
func (c *Client) ScrapeMenu(ctx context.Context, req ScrapeRequest) (*ScrapeResponse, error) {
	var resp ScrapeResponse
	if err := c.callInto(ctx, EndpointScrapeMenu, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GenerateCalendar calls /api/generate-calendar.
func (c *Client) GenerateCalendar(ctx context.Context, req WeekRequest) (*CalendarResponse, error) {
	var resp CalendarResponse
	if err := c.callInto(ctx, EndpointGenerateCalendar, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ExportPDF calls /api/export-pdf.
func (c *Client) ExportPDF(ctx context.Context, req WeekRequest) (*PDFResponse, error) {
	var resp PDFResponse
	if err := c.callInto(ctx, EndpointExportPDF, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SendEmail calls /api/send-email.
func (c *Client) SendEmail(ctx context.Context, req EmailRequest) (*EmailResponse, error) {
	var resp EmailResponse
	if err := c.callInto(ctx, EndpointSendEmail, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
