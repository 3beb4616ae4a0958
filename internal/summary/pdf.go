// Package summary renders a completed intake into the summary PDF that the
// delivery sinks persist.
package summary

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/Elevated-Garage/contact-solomon/internal/domain"
	"github.com/go-pdf/fpdf"
)

const (
	pageMargin       = 18.0
	watermarkOpacity = 0.06
)

// Renderer builds summary PDFs. Branding assets are optional: a missing
// logo or watermark downgrades to a plain document with a warning log,
// never a failed render.
type Renderer struct {
	logoPath      string
	watermarkPath string
}

// NewRenderer creates a renderer that looks for logo.png and watermark.png
// under assetDir. An empty assetDir disables branding entirely.
func NewRenderer(assetDir string) *Renderer {
	r := &Renderer{}
	if assetDir != "" {
		r.logoPath = filepath.Join(assetDir, "logo.png")
		r.watermarkPath = filepath.Join(assetDir, "watermark.png")
	}
	return r
}

// asset is a validated image ready for registration with the document.
type asset struct {
	data  []byte
	ratio float64 // height / width
}

// Render produces the summary document: every field in canonical order
// ("N/A" for missing values) followed by one page per uploaded photo.
func (r *Renderer) Render(s *domain.Session) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, pageMargin)

	logo := r.loadAsset(pdf, "logo", r.logoPath)
	watermark := r.loadAsset(pdf, "watermark", r.watermarkPath)

	r.addPage(pdf, watermark)
	pageW, _ := pdf.GetPageSize()

	y := pageMargin
	if logo != nil {
		logoW := 40.0
		pdf.ImageOptions("logo", (pageW-logoW)/2, y, logoW, 0, false,
			fpdf.ImageOptions{ImageType: "PNG"}, 0, "")
		y += logoW*logo.ratio + 8
	}

	pdf.SetY(y)
	pdf.SetFont("Helvetica", "B", 20)
	pdf.SetTextColor(185, 27, 33)
	pdf.CellFormat(0, 10, "Client Summary", "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(120, 120, 120)
	pdf.CellFormat(0, 6, fmt.Sprintf("Session ID: %s", s.ID), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	for _, field := range domain.FieldOrder {
		value := strings.TrimSpace(s.Fields[field])
		if value == "" {
			value = "N/A"
		}

		pdf.SetFont("Helvetica", "B", 11)
		pdf.SetTextColor(50, 50, 50)
		pdf.CellFormat(0, 6, titleCase(domain.FieldLabel(field))+":", "", 1, "L", false, 0, "")

		pdf.SetFont("Helvetica", "", 11)
		pdf.SetTextColor(0, 0, 0)
		pdf.MultiCell(0, 5.5, value, "", "L", false)
		pdf.Ln(2)
	}

	for i, photo := range s.Photos {
		if err := r.addPhotoPage(pdf, watermark, photo, i); err != nil {
			slog.Warn("Skipping photo in summary PDF",
				"session_id", s.ID, "photo", photo.Name, "error", err)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render summary pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// addPage starts a page and paints the faded watermark behind the content.
func (r *Renderer) addPage(pdf *fpdf.Fpdf, watermark *asset) {
	pdf.AddPage()
	if watermark == nil {
		return
	}
	pageW, pageH := pdf.GetPageSize()
	wmW := pageW * 0.6
	wmH := wmW * watermark.ratio

	pdf.SetAlpha(watermarkOpacity, "Normal")
	pdf.ImageOptions("watermark", (pageW-wmW)/2, (pageH-wmH)/2, wmW, 0, false,
		fpdf.ImageOptions{ImageType: "PNG"}, 0, "")
	pdf.SetAlpha(1.0, "Normal")
}

func (r *Renderer) addPhotoPage(pdf *fpdf.Fpdf, watermark *asset, photo domain.Photo, index int) error {
	imageType := typeFromMIME(photo.MIMEType)
	if imageType == "" {
		return fmt.Errorf("unsupported photo type %q", photo.MIMEType)
	}

	// Validate before handing bytes to the PDF encoder; a corrupt upload
	// must cost one photo page, not the whole document.
	cfg, _, err := image.DecodeConfig(bytes.NewReader(photo.Data))
	if err != nil {
		return fmt.Errorf("decode photo %q: %w", photo.Name, err)
	}
	if cfg.Width == 0 || cfg.Height == 0 {
		return fmt.Errorf("photo %q has zero dimensions", photo.Name)
	}

	name := fmt.Sprintf("photo-%d", index)
	opts := fpdf.ImageOptions{ImageType: imageType}
	pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(photo.Data))

	r.addPage(pdf, watermark)
	pageW, pageH := pdf.GetPageSize()

	pdf.SetFont("Helvetica", "B", 13)
	pdf.SetTextColor(185, 27, 33)
	pdf.CellFormat(0, 8, "Uploaded Photo", "", 1, "L", false, 0, "")

	maxW := pageW - 2*pageMargin
	maxH := pageH - 2*pageMargin - 20

	// Scale pixels to millimeters at 96 DPI, then shrink to fit the page.
	w := float64(cfg.Width) * 25.4 / 96.0
	h := float64(cfg.Height) * 25.4 / 96.0
	if w > maxW || h > maxH {
		scale := min(maxW/w, maxH/h)
		w *= scale
		h *= scale
	}

	pdf.ImageOptions(name, (pageW-w)/2, pageMargin+15+(maxH-h)/2, w, h, false, opts, 0, "")
	return nil
}

// loadAsset reads and validates a branding PNG, or returns nil (with a
// warning) when the file is unavailable.
func (r *Renderer) loadAsset(pdf *fpdf.Fpdf, name, path string) *asset {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		slog.Warn("Branding asset missing, rendering without it", "asset", name, "path", path)
		return nil
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil || cfg.Width == 0 {
		slog.Warn("Branding asset unreadable, rendering without it",
			"asset", name, "path", path, "error", err)
		return nil
	}

	pdf.RegisterImageOptionsReader(name, fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(data))
	return &asset{data: data, ratio: float64(cfg.Height) / float64(cfg.Width)}
}

func typeFromMIME(mimeType string) string {
	switch strings.ToLower(mimeType) {
	case "image/png":
		return "PNG"
	case "image/jpeg", "image/jpg":
		return "JPG"
	case "image/gif":
		return "GIF"
	default:
		return ""
	}
}

func titleCase(label string) string {
	words := strings.Fields(label)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
