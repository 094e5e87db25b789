package audition

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"time"

	"JNChoral/model"

	"github.com/go-pdf/fpdf"
)

// A6 card, in millimetres.
const (
	cardWidth  = 105.0
	cardHeight = 148.0
	cardMargin = 10.0
)

// LogoSource yields the organisation logo. A nil slice means "no logo".
type LogoSource interface {
	Logo(ctx context.Context) ([]byte, error)
}

// FileLogo reads the logo from disk on every call. A missing file yields no logo.
type FileLogo string

func (f FileLogo) Logo(ctx context.Context) ([]byte, error) {
	if f == "" {
		return nil, nil
	}
	data, err := os.ReadFile(string(f))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read logo %s: %w", string(f), err)
	}
	return data, nil
}

// StaticLogo serves fixed bytes.
type StaticLogo []byte

func (s StaticLogo) Logo(context.Context) ([]byte, error) { return s, nil }

// DocumentRenderer draws the printable confirmation card of an accepted application.
type DocumentRenderer struct {
	OrgName string
	SiteURL string
	Logo    LogoSource
}

// DocumentFilename is the attachment name of the confirmation card.
func DocumentFilename(id string) string {
	return fmt.Sprintf("audition-status-%s.pdf", id)
}

// Render returns the PDF bytes. Streams are left uncompressed so the text stays searchable.
func (r *DocumentRenderer) Render(ctx context.Context, app *model.AuditionApplication) ([]byte, error) {
	var logo []byte
	if r.Logo != nil {
		var err error
		if logo, err = r.Logo.Logo(ctx); err != nil {
			return nil, err
		}
	}

	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: cardWidth, Ht: cardHeight},
	})
	pdf.SetCompression(false)
	pdf.SetMargins(cardMargin, cardMargin, cardMargin)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle("Audition Status", false)
	pdf.SetCreator(r.OrgName, true)
	pdf.AddPage()

	// 核心字体只认 cp1252，动态文本需先转码
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	x, y := cardMargin, cardMargin
	w, h := cardWidth-2*cardMargin, cardHeight-2*cardMargin

	// card body and gold header strip
	pdf.SetDrawColor(224, 232, 242)
	pdf.SetFillColor(255, 255, 255)
	pdf.SetLineWidth(0.3)
	pdf.Rect(x, y, w, h, "FD")
	pdf.SetFillColor(237, 184, 64)
	pdf.Rect(x, y, w, 6, "F")

	textX := x + 5
	if len(logo) > 0 {
		opts := fpdf.ImageOptions{ImageType: imageType(logo), ReadDpi: false}
		pdf.RegisterImageOptionsReader("logo", opts, bytes.NewReader(logo))

		// watermark
		pdf.SetAlpha(0.07, "Normal")
		pdf.ImageOptions("logo", x+w/2-30, y+h/2-20, 60, 0, false, opts, 0, "")
		pdf.SetAlpha(1, "Normal")

		pdf.ImageOptions("logo", x+5, y+9, 12, 0, false, opts, 0, "")
		textX = x + 20
	}

	pdf.SetFont("Helvetica", "", 7)
	pdf.SetTextColor(89, 77, 51)
	pdf.Text(textX, y+15, tr(r.OrgName))

	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetTextColor(18, 18, 18)
	pdf.Text(x+5, y+30, "Audition Status")

	// badge
	pdf.SetFillColor(219, 250, 232)
	pdf.SetDrawColor(171, 219, 184)
	pdf.SetLineWidth(0.2)
	pdf.Rect(x+5, y+34, 24, 6, "FD")
	pdf.SetFont("Helvetica", "B", 8)
	pdf.SetTextColor(23, 102, 51)
	pdf.Text(x+7, y+38.2, string(model.StatusAccepted))

	rows := [][2]string{
		{"Name", app.FullName},
		{"Category", string(app.Category)},
		{"Email", app.Email},
		{"Phone", app.Phone},
		{"Submitted", createdAtLabel(app.CreatedAt)},
	}
	rowY := y + 48
	for _, row := range rows {
		pdf.SetFont("Helvetica", "B", 8)
		pdf.SetTextColor(26, 26, 26)
		pdf.Text(x+5, rowY, row[0]+":")

		pdf.SetFont("Helvetica", "", 8)
		pdf.SetTextColor(38, 38, 38)
		pdf.SetXY(x+25, rowY-3)
		pdf.MultiCell(w-30, 4, tr(row[1]), "", "L", false)
		rowY = pdf.GetY() + 3
	}

	pdf.SetFont("Helvetica", "", 7)
	pdf.SetTextColor(115, 115, 115)
	pdf.Text(x+5, rowY+4, "Please keep this for your records.")

	pdf.SetFont("Helvetica", "", 6)
	pdf.SetTextColor(153, 158, 171)
	pdf.Text(x+5, y+h-4, tr(r.SiteURL))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render confirmation for %s: %w", app.ID, err)
	}
	return buf.Bytes(), nil
}

// createdAtLabel is the human form of the submission time.
func createdAtLabel(t time.Time) string {
	return t.UTC().Format("2 Jan 2006, 15:04 UTC")
}

func imageType(data []byte) string {
	switch http.DetectContentType(data) {
	case "image/jpeg":
		return "JPG"
	case "image/gif":
		return "GIF"
	default:
		return "PNG"
	}
}
