// Package report lays out submitted copy and generated feedback into a PDF.
package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/jmehdipour/ux-autorater/internal/artifact"
	"github.com/jmehdipour/ux-autorater/internal/config"
	"github.com/jmehdipour/ux-autorater/internal/model"
	"github.com/jmehdipour/ux-autorater/internal/util"
	"go.uber.org/zap"
)

const (
	DefaultTitle = "UX Autorater - Full Report"
	pageMargin   = 15.0
	lineHeight   = 6.0
)

type Options struct {
	Title    string
	PageSize string
	Font     string
	FontSize float64
}

func OptionsFromConfig(cfg config.ReportConfig) Options {
	return Options{Title: cfg.Title, PageSize: cfg.PageSize, Font: cfg.Font, FontSize: cfg.FontSize}
}

type Renderer struct {
	store *artifact.Store
	opts  Options
	log   *zap.Logger
}

func New(store *artifact.Store, opts Options, log *zap.Logger) *Renderer {
	if opts.Title == "" {
		opts.Title = DefaultTitle
	}
	if opts.PageSize == "" {
		opts.PageSize = "A4"
	}
	if opts.Font == "" {
		opts.Font = "Helvetica"
	}
	if opts.FontSize <= 0 {
		opts.FontSize = 11
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Renderer{store: store, opts: opts, log: log.With(zap.String("component", "report"))}
}

// Render builds the document, stores it under a per-order identifier and returns it.
func (r *Renderer) Render(order model.Order, fb model.Feedback) (model.Report, error) {
	data, err := r.Document(order, fb)
	if err != nil {
		return model.Report{}, err
	}

	id := util.ReportID(order.PurchaserAddress)
	rep := model.Report{ID: id, Filename: id + ".pdf", Data: data}

	if r.store != nil {
		if err := r.store.Put(rep.Filename, data); err != nil {
			return model.Report{}, fmt.Errorf("store report %s: %w", rep.Filename, err)
		}
	}

	r.log.Info("report rendered",
		zap.String("report_id", rep.ID),
		zap.Int("bytes", len(data)),
	)
	return rep, nil
}

// Document returns the PDF bytes. Output depends only on the order and feedback.
func (r *Renderer) Document(order model.Order, fb model.Feedback) ([]byte, error) {
	pdf := fpdf.New("P", "mm", r.opts.PageSize, "")
	pdf.SetCompression(false)
	pdf.SetCatalogSort(true)
	created := order.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	pdf.SetCreationDate(created.UTC())
	pdf.SetTitle(Encode(r.opts.Title), false)
	pdf.SetCreator("ux-autorater", false)
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, pageMargin)
	pdf.AliasNbPages("")

	font := r.opts.Font
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont(font, "I", 8)
		pdf.CellFormat(0, 8, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	pdf.AddPage()

	pdf.SetFont(font, "B", r.opts.FontSize+5)
	pdf.MultiCell(0, 10, Encode(r.opts.Title), "", "C", false)
	pdf.Ln(4)

	personaLabel := fb.Persona
	if personaLabel == "" {
		personaLabel = order.Persona
	}

	section := func(heading, body string) {
		pdf.SetFont(font, "B", r.opts.FontSize+1)
		pdf.CellFormat(0, 8, Encode(heading), "", 1, "L", false, 0, "")
		pdf.SetFont(font, "", r.opts.FontSize)
		pdf.MultiCell(0, lineHeight, Encode(body), "", "L", false)
		pdf.Ln(4)
	}

	section("Persona", personaLabel)
	section("Evaluated UX Copy", order.SubmittedCopy)
	section("Feedback", fb.Text)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
